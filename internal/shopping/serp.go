// Package shopping looks up prices, images and purchase links for a product
// name through SerpAPI Google Shopping.
package shopping

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	g "github.com/serpapi/google-search-results-golang"

	"github.com/ernaz100/redmerce/internal/config"
	"github.com/ernaz100/redmerce/internal/logger"
	"github.com/ernaz100/redmerce/internal/metrics"
	"github.com/ernaz100/redmerce/internal/model"
)

const (
	errKeyMissing = "SERP API key not configured"
	errNoResults  = "No shopping results found"
)

// Searcher runs one SerpAPI query and returns the decoded JSON document.
type Searcher interface {
	Search(ctx context.Context, params map[string]string) (map[string]interface{}, error)
}

type serpSearcher struct {
	apiKey string
}

// NewSerpSearcher returns a Searcher backed by the SerpAPI Go client.
func NewSerpSearcher(apiKey string) Searcher {
	return &serpSearcher{apiKey: apiKey}
}

// Search blocks until SerpAPI answers or ctx is done. The client has no
// context support, so an abandoned call finishes in the background.
func (s *serpSearcher) Search(ctx context.Context, params map[string]string) (map[string]interface{}, error) {
	type result struct {
		data map[string]interface{}
		err  error
	}
	done := make(chan result, 1)

	go func() {
		search := g.NewGoogleSearch(params, s.apiKey)
		data, err := search.GetJSON()
		done <- result{data: data, err: err}
	}()

	select {
	case r := <-done:
		return r.data, r.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Client resolves product names to cleaned shopping hits.
type Client struct {
	searcher Searcher
	cfg      config.SerpConfig
	logger   logger.Logger
}

// NewClient builds a Client using the real SerpAPI searcher.
func NewClient(cfg config.SerpConfig, log logger.Logger) *Client {
	return NewClientWithSearcher(cfg, NewSerpSearcher(cfg.APIKey), log)
}

// NewClientWithSearcher builds a Client around searcher.
func NewClientWithSearcher(cfg config.SerpConfig, searcher Searcher, log logger.Logger) *Client {
	return &Client{searcher: searcher, cfg: cfg, logger: log}
}

// Lookup returns the cleaned shopping hits for name. Failures come back as a
// single record with an "error" key.
func (c *Client) Lookup(ctx context.Context, name string) []model.ProductDetail {
	if c.cfg.APIKey == "" {
		return []model.ProductDetail{{model.DetailError: errKeyMissing}}
	}

	start := time.Now()
	log := c.logger.With(map[string]interface{}{"product": name})
	log.Info("Getting product details", nil)

	if c.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.cfg.Timeout)
		defer cancel()
	}

	data, err := c.searcher.Search(ctx, c.params(name))
	if noResults(err) {
		metrics.ObserveTool(metrics.ToolDetails, metrics.OutcomeDegraded, start)
		log.Warn("No shopping results", map[string]interface{}{"reason": err.Error()})
		return []model.ProductDetail{fallback(name)}
	}
	if err != nil {
		metrics.ObserveTool(metrics.ToolDetails, metrics.OutcomeDegraded, start)
		log.WithError(err).Error("Shopping lookup failed", nil)
		return []model.ProductDetail{failure(name, err)}
	}

	hits, _ := data["shopping_results"].([]interface{})
	if len(hits) == 0 {
		metrics.ObserveTool(metrics.ToolDetails, metrics.OutcomeDegraded, start)
		log.Warn("No shopping results", nil)
		return []model.ProductDetail{fallback(name)}
	}

	out := make([]model.ProductDetail, 0, len(hits))
	for _, h := range hits {
		hit, ok := h.(map[string]interface{})
		if !ok {
			continue
		}
		out = append(out, project(name, hit))
	}
	if len(out) == 0 {
		metrics.ObserveTool(metrics.ToolDetails, metrics.OutcomeDegraded, start)
		return []model.ProductDetail{fallback(name)}
	}

	metrics.ObserveTool(metrics.ToolDetails, metrics.OutcomeOK, start)
	log.Debug("Shopping lookup completed", map[string]interface{}{"hits": len(out)})
	return out
}

// FindDetails is the JSON form of Lookup. A single error record is encoded
// as an object, anything else as an array.
func (c *Client) FindDetails(ctx context.Context, name string) string {
	return Encode(c.Lookup(ctx, name))
}

// Encode renders detail records the way FindDetails does.
func Encode(details []model.ProductDetail) string {
	var v interface{} = details
	if len(details) == 1 {
		if _, ok := details[0][model.DetailError]; ok {
			v = details[0]
		}
	}
	b, err := json.Marshal(v)
	if err != nil {
		b, _ = json.Marshal(map[string]string{model.DetailError: fmt.Sprintf("Details error: %v", err)})
	}
	return string(b)
}

func (c *Client) params(name string) map[string]string {
	return map[string]string{
		"engine":   "google_shopping",
		"q":        name,
		"num":      strconv.Itoa(c.cfg.Num),
		"gl":       c.cfg.Country,
		"hl":       c.cfg.Language,
		"location": c.cfg.Location,
	}
}

// project maps one shopping hit onto the detail keys and drops empty values.
func project(name string, hit map[string]interface{}) model.ProductDetail {
	d := model.ProductDetail{}
	set := func(key string, v interface{}) {
		if !empty(v) {
			d[key] = v
		}
	}

	title, ok := hit["title"]
	if !ok {
		title = name
	}
	price, ok := hit["price"]
	if !ok {
		price = model.PriceNotAvailable
	}

	set(model.DetailName, title)
	set(model.DetailPrice, price)
	set(model.DetailImageURL, hit["thumbnail"])
	set(model.DetailPurchaseLink, hit["product_link"])
	set(model.DetailSource, hit["source"])
	set(model.DetailRating, hit["rating"])
	set(model.DetailReviews, hit["reviews"])
	set(model.DetailShipping, hit["shipping"])
	return d
}

func empty(v interface{}) bool {
	switch t := v.(type) {
	case nil:
		return true
	case string:
		return t == ""
	case bool:
		return !t
	case float64:
		return t == 0
	case int:
		return t == 0
	case []interface{}:
		return len(t) == 0
	case map[string]interface{}:
		return len(t) == 0
	}
	return false
}

// noResults reports SerpAPI's empty-search answer, which the client surfaces
// as an error from the body's top-level "error" field.
func noResults(err error) bool {
	return err != nil && strings.Contains(strings.ToLower(err.Error()), "hasn't returned any results")
}

func fallback(name string) model.ProductDetail {
	return model.ProductDetail{
		model.DetailName:         name,
		model.DetailPrice:        model.PriceNotAvailable,
		model.DetailImageURL:     "",
		model.DetailPurchaseLink: "",
		model.DetailError:        errNoResults,
	}
}

func failure(name string, err error) model.ProductDetail {
	msg := err.Error()
	if errors.Is(err, context.DeadlineExceeded) {
		msg = "request timeout"
	}
	return model.ProductDetail{
		model.DetailName:         name,
		model.DetailPrice:        model.PriceUnavailable,
		model.DetailImageURL:     "",
		model.DetailPurchaseLink: "",
		model.DetailError:        "Details error: " + msg,
	}
}
