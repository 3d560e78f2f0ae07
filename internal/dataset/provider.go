package dataset

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"

	rediscache "github.com/adolfdaniel/browser-genai-eval/internal/cache/redis"
	"github.com/adolfdaniel/browser-genai-eval/pkg/circuitbreaker"
	"github.com/adolfdaniel/browser-genai-eval/pkg/config"
	"github.com/adolfdaniel/browser-genai-eval/pkg/logger"
	"github.com/adolfdaniel/browser-genai-eval/pkg/retry"
	"github.com/adolfdaniel/browser-genai-eval/pkg/utils"
)

// ErrDatasetUnavailable signals that no remote data could be loaded. Callers
// degrade to SampleArticles instead of failing the evaluation.
var ErrDatasetUnavailable = errors.New("dataset unavailable")

type Article struct {
	ID               int    `json:"id"`
	Text             string `json:"article"`
	ReferenceSummary string `json:"reference_summary"`
	Dataset          string `json:"dataset"`
}

type Provider struct {
	cfg     config.DatasetConfig
	client  *http.Client
	cache   *rediscache.Client
	breaker *circuitbreaker.CircuitBreaker
}

// NewProvider builds a provider backed by the HuggingFace datasets-server
// rows API. cache may be nil; fetches then go uncached.
func NewProvider(cfg config.DatasetConfig, cache *rediscache.Client) *Provider {
	return &Provider{
		cfg:    cfg,
		client: &http.Client{Timeout: time.Duration(cfg.FetchTimeoutSec) * time.Second},
		cache:  cache,
		breaker: circuitbreaker.New("dataset-fetch", circuitbreaker.Config{
			FailureThreshold: 3,
			OpenTimeout:      2 * time.Minute,
			Logger:           logger.Log,
		}),
	}
}

// Load returns up to maxArticles article/reference pairs from the given
// dataset, keeping only articles shorter than the configured length limit.
func (p *Provider) Load(ctx context.Context, datasetID string, maxArticles int) ([]Article, error) {
	info, ok := Lookup(datasetID)
	if !ok {
		return nil, fmt.Errorf("%w: unknown dataset %q", ErrDatasetUnavailable, datasetID)
	}

	if info.ID == SampleDataset {
		return SampleArticles(maxArticles), nil
	}

	cacheKey := utils.HashString(fmt.Sprintf("%s|%d|%d", info.ID, maxArticles, p.cfg.MaxArticleLength))
	if p.cache != nil {
		var cached []Article
		hit, err := p.cache.GetArticles(ctx, cacheKey, &cached)
		if err != nil {
			logger.Warn("Article cache lookup failed", zap.Error(err))
		} else if hit {
			return cached, nil
		}
	}

	articles, err := p.fetchFiltered(ctx, info, maxArticles)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDatasetUnavailable, err)
	}
	if len(articles) == 0 {
		return nil, fmt.Errorf("%w: no articles passed the length filter", ErrDatasetUnavailable)
	}

	if p.cache != nil {
		ttl := time.Duration(p.cfg.CacheTTLMin) * time.Minute
		if err := p.cache.SetArticles(ctx, cacheKey, articles, ttl); err != nil {
			logger.Warn("Failed to cache article set", zap.Error(err))
		}
	}

	logger.Info("Loaded articles from dataset",
		zap.String("dataset", info.Name),
		zap.Int("count", len(articles)),
	)
	return articles, nil
}

func (p *Provider) fetchFiltered(ctx context.Context, info Info, maxArticles int) ([]Article, error) {
	var articles []Article

	for page := 0; page < p.cfg.MaxPages && len(articles) < maxArticles; page++ {
		rows, err := p.fetchRows(ctx, info, page*p.cfg.PageSize)
		if err != nil {
			return nil, err
		}
		if len(rows) == 0 {
			break
		}

		for _, row := range rows {
			if len(articles) >= maxArticles {
				break
			}

			text := cleanText(row.field(info.ArticleField))
			summary := cleanText(row.field(info.SummaryField))
			if text == "" || summary == "" {
				continue
			}
			if len(text) >= p.cfg.MaxArticleLength {
				continue
			}

			articles = append(articles, Article{
				ID:               row.Index,
				Text:             text,
				ReferenceSummary: summary,
				Dataset:          info.ID,
			})
		}
	}

	return articles, nil
}

type row struct {
	Index  int                        `json:"row_idx"`
	Fields map[string]json.RawMessage `json:"row"`
}

// field coerces a row field to text. Some datasets store list-valued fields
// (multi_news documents, reddit_tifu); lists are joined with spaces.
func (r row) field(name string) string {
	raw, ok := r.Fields[name]
	if !ok {
		return ""
	}

	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}

	var list []string
	if err := json.Unmarshal(raw, &list); err == nil {
		return strings.Join(list, " ")
	}
	return ""
}

func (p *Provider) fetchRows(ctx context.Context, info Info, offset int) ([]row, error) {
	params := url.Values{}
	params.Set("dataset", info.HFName)
	if info.HFConfig != "" {
		params.Set("config", info.HFConfig)
	} else {
		params.Set("config", "default")
	}
	params.Set("split", info.HFSplit)
	params.Set("offset", fmt.Sprintf("%d", offset))
	params.Set("length", fmt.Sprintf("%d", p.cfg.PageSize))

	endpoint := fmt.Sprintf("%s?%s", p.cfg.RowsEndpoint, params.Encode())

	return retry.DoWithResult(ctx, retry.Config{
		MaxAttempts:  3,
		InitialDelay: 500 * time.Millisecond,
		Logger:       logger.Log,
	}, func() ([]row, error) {
		var rows []row
		err := p.breaker.Execute(func() error {
			var err error
			rows, err = p.doFetch(ctx, endpoint)
			return err
		})
		return rows, err
	})
}

func (p *Provider) doFetch(ctx context.Context, endpoint string) ([]row, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch rows: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("rows endpoint returned status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 32<<20))
	if err != nil {
		return nil, fmt.Errorf("failed to read rows response: %w", err)
	}

	var payload struct {
		Rows []row `json:"rows"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, fmt.Errorf("failed to decode rows response: %w", err)
	}

	return payload.Rows, nil
}

// cleanText normalizes whitespace and strips embedded markup. A handful of
// dataset rows carry HTML fragments; goquery flattens them to text.
func cleanText(text string) string {
	text = strings.TrimSpace(text)
	if text == "" {
		return ""
	}

	if strings.Contains(text, "</") || strings.Contains(text, "/>") {
		doc, err := goquery.NewDocumentFromReader(strings.NewReader(text))
		if err == nil {
			text = doc.Text()
		}
	}

	return strings.Join(strings.Fields(text), " ")
}
