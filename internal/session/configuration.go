package session

import (
	"fmt"
	"strings"
)

// Configuration is the (type, length, format) triple controlling a browser
// summarization request. It is kept structured everywhere inside the server;
// the underscore-joined wire form exists only at the event channel boundary.
// The join is unambiguous because field values contain hyphens, never
// underscores.
type Configuration struct {
	Type   string `json:"type"`
	Length string `json:"length"`
	Format string `json:"format"`
}

var (
	SummaryTypes   = []string{"tldr", "key-points", "teaser", "headline"}
	SummaryLengths = []string{"short", "medium", "long"}
	SummaryFormats = []string{"plain-text", "markdown"}
)

func DefaultConfiguration() Configuration {
	return Configuration{Type: "tldr", Length: "short", Format: "plain-text"}
}

func (c Configuration) String() string {
	return c.Type + "_" + c.Length + "_" + c.Format
}

func (c Configuration) Valid() bool {
	return contains(SummaryTypes, c.Type) &&
		contains(SummaryLengths, c.Length) &&
		contains(SummaryFormats, c.Format)
}

// ParseConfiguration parses the wire form. Anything that does not split into
// exactly three known field values is rejected.
func ParseConfiguration(s string) (Configuration, error) {
	parts := strings.Split(s, "_")
	if len(parts) != 3 {
		return Configuration{}, fmt.Errorf("invalid configuration %q: expected type_length_format", s)
	}

	cfg := Configuration{Type: parts[0], Length: parts[1], Format: parts[2]}
	if !cfg.Valid() {
		return Configuration{}, fmt.Errorf("invalid configuration %q: unknown field value", s)
	}
	return cfg, nil
}

// AllConfigurations returns the full 4x3x2 cross-product in a fixed order:
// type-major, then length, then format.
func AllConfigurations() []Configuration {
	configs := make([]Configuration, 0, len(SummaryTypes)*len(SummaryLengths)*len(SummaryFormats))
	for _, t := range SummaryTypes {
		for _, l := range SummaryLengths {
			for _, f := range SummaryFormats {
				configs = append(configs, Configuration{Type: t, Length: l, Format: f})
			}
		}
	}
	return configs
}

func contains(values []string, v string) bool {
	for _, candidate := range values {
		if candidate == v {
			return true
		}
	}
	return false
}
