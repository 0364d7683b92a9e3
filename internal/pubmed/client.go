package pubmed

import (
	"context"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"go.uber.org/zap"
)

const (
	// DefaultBaseURL is the E-utilities efetch endpoint.
	DefaultBaseURL = "https://eutils.ncbi.nlm.nih.gov/entrez/eutils/efetch.fcgi"
	// DefaultSearchURL is the E-utilities esearch endpoint.
	DefaultSearchURL = "https://eutils.ncbi.nlm.nih.gov/entrez/eutils/esearch.fcgi"
	// DefaultAttempts is how many times a request is tried.
	DefaultAttempts = 3
	// DefaultRetryDelay is the pause between attempts.
	DefaultRetryDelay = 2 * time.Second
	// DefaultSearchLimit caps the PMIDs one search returns.
	DefaultSearchLimit = 10000
	// DefaultBatchSize is how many PMIDs one efetch request carries.
	DefaultBatchSize = 200
)

// Config holds E-utilities client settings. Zero values take the defaults.
type Config struct {
	BaseURL     string
	SearchURL   string
	Email       string
	APIKey      string
	Attempts    int
	RetryDelay  time.Duration
	SearchLimit int
	BatchSize   int
	HTTPClient  *http.Client
	Logger      *zap.Logger // nil = nop logger
}

// Client searches and fetches PubMed records.
type Client struct {
	baseURL   string
	searchURL string
	email     string
	apiKey    string
	attempts  int
	delay     time.Duration
	limit     int
	batch     int
	http      *http.Client
	logger    *zap.Logger
}

// NewClient returns a client for cfg.
func NewClient(cfg Config) *Client {
	c := &Client{
		baseURL:   cfg.BaseURL,
		searchURL: cfg.SearchURL,
		email:     cfg.Email,
		apiKey:    cfg.APIKey,
		attempts:  cfg.Attempts,
		delay:     cfg.RetryDelay,
		limit:     cfg.SearchLimit,
		batch:     cfg.BatchSize,
		http:      cfg.HTTPClient,
		logger:    cfg.Logger,
	}
	if c.baseURL == "" {
		c.baseURL = DefaultBaseURL
	}
	if c.searchURL == "" {
		c.searchURL = DefaultSearchURL
	}
	if c.attempts <= 0 {
		c.attempts = DefaultAttempts
	}
	if c.delay <= 0 {
		c.delay = DefaultRetryDelay
	}
	if c.limit <= 0 {
		c.limit = DefaultSearchLimit
	}
	if c.batch <= 0 {
		c.batch = DefaultBatchSize
	}
	if c.http == nil {
		c.http = &http.Client{Timeout: 30 * time.Second}
	}
	if c.logger == nil {
		c.logger = zap.NewNop()
	}
	return c
}

// StatusError is a non-200 E-utilities response.
type StatusError struct {
	StatusCode int
}

func (e StatusError) Error() string {
	return fmt.Sprintf("pubmed returned status %d", e.StatusCode)
}

func (e StatusError) transient() bool {
	return e.StatusCode == http.StatusTooManyRequests || e.StatusCode >= 500
}

// retry runs op with a constant delay between attempts. Transport failures,
// throttling and server errors are retried; everything else, including
// errors op marks with backoff.Permanent, is returned at once.
func (c *Client) retry(ctx context.Context, request string, op func() error) error {
	attempt := 0
	try := func() error {
		attempt++
		err := op()
		if err == nil {
			return nil
		}
		var permanent *backoff.PermanentError
		if errors.As(err, &permanent) {
			return err
		}
		var status StatusError
		if errors.As(err, &status) && !status.transient() {
			return backoff.Permanent(err)
		}
		if ctx.Err() != nil {
			return backoff.Permanent(ctx.Err())
		}
		c.logger.Warn("pubmed request failed",
			zap.String("request", request),
			zap.Int("attempt", attempt),
			zap.Error(err))
		return err
	}
	policy := backoff.WithContext(
		backoff.WithMaxRetries(backoff.NewConstantBackOff(c.delay), uint64(c.attempts-1)),
		ctx,
	)
	return backoff.Retry(try, policy)
}

// Fetch downloads the efetch document for pmid. Parse errors are not
// retried.
func (c *Client) Fetch(ctx context.Context, pmid string) (Article, error) {
	var article Article
	err := c.retry(ctx, "efetch "+pmid, func() error {
		data, err := c.get(ctx, c.baseURL, c.fetchParams(pmid))
		if err != nil {
			return err
		}
		article, err = Parse(data)
		if err != nil {
			return backoff.Permanent(err)
		}
		return nil
	})
	if err != nil {
		return Article{}, fmt.Errorf("fetch pmid %s: %w", pmid, err)
	}
	return article, nil
}

// FetchAll downloads pmids in batches. Articles that cannot be read are
// logged and left out; a failed batch fails the call.
func (c *Client) FetchAll(ctx context.Context, pmids []string) ([]Article, error) {
	var out []Article
	for start := 0; start < len(pmids); start += c.batch {
		batch := pmids[start:min(start+c.batch, len(pmids))]
		ids := strings.Join(batch, ",")
		var articles []Article
		err := c.retry(ctx, "efetch batch", func() error {
			data, err := c.get(ctx, c.baseURL, c.fetchParams(ids))
			if err != nil {
				return err
			}
			var parseErr error
			articles, parseErr = ParseAll(data)
			if articles == nil && parseErr != nil {
				return backoff.Permanent(parseErr)
			}
			if parseErr != nil {
				c.logger.Warn("skipping unreadable pubmed articles", zap.Error(parseErr))
			}
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("fetch pmids %s: %w", ids, err)
		}
		out = append(out, articles...)
	}
	return out, nil
}

// AuthorQuery is the esearch term matching one author's publications.
func AuthorQuery(firstName, lastName string) string {
	return lastName + ", " + firstName + " [Full Author Name]"
}

type searchResult struct {
	IDs   []string `xml:"IdList>Id"`
	Error string   `xml:"ERROR"`
}

// Search returns the PMIDs esearch finds for term, most recent first.
func (c *Client) Search(ctx context.Context, term string) ([]string, error) {
	q := c.params()
	q.Set("term", term)
	q.Set("retmax", strconv.Itoa(c.limit))
	var ids []string
	err := c.retry(ctx, "esearch", func() error {
		data, err := c.get(ctx, c.searchURL, q)
		if err != nil {
			return err
		}
		var res searchResult
		if err := xml.Unmarshal(data, &res); err != nil {
			return backoff.Permanent(fmt.Errorf("parse esearch xml: %w", err))
		}
		if res.Error != "" {
			return backoff.Permanent(fmt.Errorf("esearch: %s", res.Error))
		}
		ids = ids[:0]
		for _, id := range res.IDs {
			if id = strings.TrimSpace(id); id != "" {
				ids = append(ids, id)
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("search %q: %w", term, err)
	}
	return ids, nil
}

func (c *Client) params() url.Values {
	q := url.Values{}
	q.Set("db", "pubmed")
	q.Set("retmode", "xml")
	if c.email != "" {
		q.Set("email", c.email)
	}
	if c.apiKey != "" {
		q.Set("api_key", c.apiKey)
	}
	return q
}

func (c *Client) fetchParams(ids string) url.Values {
	q := c.params()
	q.Set("id", ids)
	return q
}

func (c *Client) get(ctx context.Context, endpoint string, q url.Values) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint+"?"+q.Encode(), nil)
	if err != nil {
		return nil, err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode != http.StatusOK {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil, StatusError{StatusCode: resp.StatusCode}
	}
	return io.ReadAll(resp.Body)
}

// Authors returns the display names of pmid's authors. Failures are logged
// and yield nil.
func (c *Client) Authors(ctx context.Context, pmid string) []string {
	article, err := c.Fetch(ctx, pmid)
	if err != nil {
		c.logger.Warn("skipping pubmed authors",
			zap.String("pmid", pmid),
			zap.Error(err))
		return nil
	}
	names := make([]string, 0, len(article.Authors))
	for _, a := range article.Authors {
		if name := a.Name(); name != "" {
			names = append(names, name)
		}
	}
	return names
}
