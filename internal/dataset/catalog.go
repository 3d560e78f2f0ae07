package dataset

// Info describes one entry in the dataset catalog. HFName/HFConfig/HFSplit
// locate the dataset on the HuggingFace datasets-server; ArticleField and
// SummaryField name the row fields holding the article body and the reference
// summary. Fields may be list-valued in some datasets and are joined with
// spaces on load.
type Info struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	HFName       string `json:"dataset_name"`
	HFConfig     string `json:"version,omitempty"`
	HFSplit      string `json:"split,omitempty"`
	ArticleField string `json:"article_field"`
	SummaryField string `json:"summary_field"`
	Description  string `json:"description"`
}

const (
	DefaultDataset = "cnn_dailymail"
	SampleDataset  = "sample"
)

var catalog = []Info{
	{
		ID:           "cnn_dailymail",
		Name:         "CNN/DailyMail",
		HFName:       "cnn_dailymail",
		HFConfig:     "3.0.0",
		HFSplit:      "test",
		ArticleField: "article",
		SummaryField: "highlights",
		Description:  "News articles with human-written summaries",
	},
	{
		ID:           "xsum",
		Name:         "XSum (BBC)",
		HFName:       "xsum",
		HFSplit:      "test",
		ArticleField: "document",
		SummaryField: "summary",
		Description:  "BBC articles with single-sentence summaries",
	},
	{
		ID:           "reddit_tifu",
		Name:         "Reddit TIFU",
		HFName:       "reddit_tifu",
		HFConfig:     "long",
		HFSplit:      "test",
		ArticleField: "documents",
		SummaryField: "tldr",
		Description:  "Reddit posts with TL;DR summaries",
	},
	{
		ID:           "multi_news",
		Name:         "Multi-News",
		HFName:       "multi_news",
		HFSplit:      "test",
		ArticleField: "document",
		SummaryField: "summary",
		Description:  "Multi-document news summarization",
	},
	{
		ID:           SampleDataset,
		Name:         "Sample Articles",
		HFName:       "sample",
		ArticleField: "article",
		SummaryField: "reference_summary",
		Description:  "Built-in sample articles for testing",
	},
}

func Catalog() []Info {
	out := make([]Info, len(catalog))
	copy(out, catalog)
	return out
}

func Lookup(id string) (Info, bool) {
	for _, info := range catalog {
		if info.ID == id {
			return info, true
		}
	}
	return Info{}, false
}

// DisplayName resolves a dataset id to its human-readable name, falling back
// to the id itself for unknown datasets.
func DisplayName(id string) string {
	if info, ok := Lookup(id); ok {
		return info.Name
	}
	return id
}
