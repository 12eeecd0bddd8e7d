package scraper

import (
	"context"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/time/rate"

	"github.com/shoptalk/backend/internal/domain"
)

// Page is one fetched and parsed page of the retail site.
type Page struct {
	URL  string
	Doc  *goquery.Document
	Text string // visible text, whitespace-collapsed
	HTML string // raw markup
}

// Client fetches pages from the retail site with rate limiting. It has no
// schema expectations: every caller must tolerate arbitrary markup.
type Client struct {
	httpClient *http.Client
	baseURL    string
	limiter    *rate.Limiter
}

// NewClient creates a site client. requestsPerSecond bounds outbound load so
// a crawl cannot hammer the site.
func NewClient(baseURL string, httpClient *http.Client, requestsPerSecond float64) *Client {
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	if requestsPerSecond <= 0 {
		requestsPerSecond = 4
	}

	return &Client{
		httpClient: httpClient,
		baseURL:    strings.TrimRight(baseURL, "/"),
		limiter:    rate.NewLimiter(rate.Limit(requestsPerSecond), 8),
	}
}

// BaseURL returns the configured site root.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// AbsoluteURL resolves a scraped href against the site root.
func (c *Client) AbsoluteURL(href string) string {
	if href == "" {
		return ""
	}
	if strings.HasPrefix(href, "http://") || strings.HasPrefix(href, "https://") {
		return href
	}
	if !strings.HasPrefix(href, "/") {
		href = "/" + href
	}
	return c.baseURL + href
}

// FetchPage GETs and parses one page. A 404 maps to domain.ErrPageNotFound
// and is not logged: missing pages are expected, not exceptional. Other
// network errors are logged at low severity and returned for the caller to
// absorb.
func (c *Client) FetchPage(ctx context.Context, pathOrURL string) (*Page, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limiter error: %w", err)
	}

	reqURL := c.AbsoluteURL(pathOrURL)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", "ShopTalk/1.0")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		log.Printf("[SCRAPER] fetch error for %s: %v", reqURL, err)
		return nil, fmt.Errorf("%w: %v", domain.ErrSiteUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, domain.ErrPageNotFound
	}
	if resp.StatusCode != http.StatusOK {
		log.Printf("[SCRAPER] unexpected status %d for %s", resp.StatusCode, reqURL)
		return nil, fmt.Errorf("%w: status %d", domain.ErrSiteUnavailable, resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read body: %w", err)
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(string(body)))
	if err != nil {
		return nil, fmt.Errorf("failed to parse page: %w", err)
	}

	return &Page{
		URL:  reqURL,
		Doc:  doc,
		Text: collapseWhitespace(doc.Text()),
		HTML: string(body),
	}, nil
}

func collapseWhitespace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
