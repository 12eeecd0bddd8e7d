package scraper

import (
	"context"
	"errors"
	"log"
	"regexp"
	"sort"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/shoptalk/backend/internal/domain"
)

// productFamilies are the known product-line name tokens used by the
// pattern extractor when structural markup is missing.
var productFamilies = []string{
	"AeroDry", "ProStyler", "TrimMax", "SilkWave", "VoltShave", "PureMist",
}

// productNicknames maps colloquial product names customers actually use to
// canonical detail-page paths. Consulted only when a search finds nothing.
var productNicknames = map[string]string{
	"the dryer":     "/products/aerodry-2100",
	"hair dryer":    "/products/aerodry-2100",
	"straightener":  "/products/silkwave-pro",
	"beard trimmer": "/products/trimmax-elite",
	"trimmer":       "/products/trimmax-elite",
	"shaver":        "/products/voltshave-5",
	"humidifier":    "/products/puremist-compact",
}

var productCodeRegex = regexp.MustCompile(`\b[a-z]+[\-]?\d+\w*\b`)

// Config controls crawl scope and cache behavior.
type Config struct {
	SeedPaths         []string
	DefaultCategories []string
	CacheTTL          time.Duration
	PageTimeout       time.Duration
}

// Scraper crawls the retail site into catalog snapshots and answers product
// queries against them. The controlling design rule is "always degrade,
// never crash": network failures yield empty or stale data, not errors.
type Scraper struct {
	client     *Client
	extractors []Extractor
	config     Config

	mu        sync.RWMutex
	snapshot  *domain.CatalogSnapshot
	fetchedAt time.Time
}

// New creates a scraper with the standard extraction heuristics.
func New(client *Client, config Config) *Scraper {
	if config.CacheTTL <= 0 {
		config.CacheTTL = 5 * time.Minute
	}
	if config.PageTimeout <= 0 {
		config.PageTimeout = 10 * time.Second
	}
	if len(config.SeedPaths) == 0 {
		config.SeedPaths = []string{"/", "/sale", "/products"}
	}

	return &Scraper{
		client: client,
		config: config,
		extractors: []Extractor{
			cardExtractor{},
			anchorExtractor{},
			newPatternExtractor(productFamilies),
		},
	}
}

// FetchCatalog returns the cached snapshot while it is fresh, otherwise
// recrawls. On crawl failure the previous snapshot is served if present,
// else a default snapshot naming the known categories.
func (s *Scraper) FetchCatalog(ctx context.Context) (*domain.CatalogSnapshot, error) {
	s.mu.RLock()
	if s.snapshot != nil && time.Since(s.fetchedAt) < s.config.CacheTTL {
		snap := s.snapshot
		s.mu.RUnlock()
		return snap, nil
	}
	stale := s.snapshot
	s.mu.RUnlock()

	snap, err := s.crawl(ctx)
	if err != nil {
		if stale != nil {
			log.Printf("[SCRAPER] crawl failed, serving stale snapshot: %v", err)
			return stale, nil
		}
		log.Printf("[SCRAPER] crawl failed with no cache, serving default snapshot: %v", err)
		return domain.EmptySnapshot(s.config.DefaultCategories), nil
	}

	s.mu.Lock()
	s.snapshot = snap
	s.fetchedAt = time.Now()
	s.mu.Unlock()

	return snap, nil
}

// crawl visits every seed page concurrently, each with its own timeout.
// A failing page contributes zero products; the crawl fails only when every
// page fails.
func (s *Scraper) crawl(ctx context.Context) (*domain.CatalogSnapshot, error) {
	var (
		mu             sync.Mutex
		products       []domain.Product
		pageCategories []string
		signals        PageSignals
		pagesFetched   int
	)

	g, gctx := errgroup.WithContext(ctx)
	for _, path := range s.config.SeedPaths {
		path := path
		g.Go(func() error {
			pctx, cancel := context.WithTimeout(gctx, s.config.PageTimeout)
			defer cancel()

			page, err := s.client.FetchPage(pctx, path)
			if err != nil {
				// 404 means the page simply does not exist; other errors
				// were already logged by the client. Neither aborts the crawl.
				return nil
			}

			found := s.extractPage(page)
			sig := detectSignals(page)
			category := categoryFromPath(path)

			mu.Lock()
			defer mu.Unlock()
			pagesFetched++
			if category != "" {
				pageCategories = append(pageCategories, category)
				for i := range found {
					if found[i].Category == domain.DefaultCategory {
						found[i].Category = category
					}
				}
			}
			products = append(products, found...)
			signals.Sale = signals.Sale || sig.Sale
			signals.BlackFriday = signals.BlackFriday || sig.BlackFriday
			signals.Promotional = signals.Promotional || sig.Promotional
			return nil
		})
	}
	_ = g.Wait()

	if pagesFetched == 0 {
		return nil, domain.ErrSiteUnavailable
	}

	snap := domain.BuildSnapshot(products, s.config.DefaultCategories, pageCategories,
		signals.Sale, signals.BlackFriday, signals.Promotional)
	log.Printf("[SCRAPER] crawl complete: %d pages, %d products, sales=%v blackFriday=%v",
		pagesFetched, len(snap.Products), snap.HasSales, snap.HasBlackFriday)
	return snap, nil
}

// extractPage runs every heuristic against one page with a shared dedup set.
func (s *Scraper) extractPage(page *Page) []domain.Product {
	seen := make(map[string]bool)
	var products []domain.Product
	for _, ex := range s.extractors {
		products = append(products, ex.Extract(page, s.client.AbsoluteURL, seen)...)
	}
	return products
}

// categoryFromPath derives a category label from a seed path like
// "/category/hair-care".
func categoryFromPath(path string) string {
	path = strings.Trim(path, "/")
	parts := strings.Split(path, "/")
	if len(parts) == 2 && (parts[0] == "category" || parts[0] == "categories" || parts[0] == "c") {
		return strings.ReplaceAll(parts[1], "-", " ")
	}
	return ""
}

// FetchProductDetails fetches and parses a single product page.
func (s *Scraper) FetchProductDetails(ctx context.Context, url string) (*domain.Product, error) {
	page, err := s.client.FetchPage(ctx, url)
	if err != nil {
		if errors.Is(err, domain.ErrPageNotFound) {
			return nil, domain.ErrProductNotFound
		}
		return nil, err
	}

	product := parseProductDetails(page)
	if product.Name == "" {
		return nil, domain.ErrProductNotFound
	}
	return product, nil
}

// SearchProducts scores the catalog against a free-text query, best matches
// first. An embedded product-code token (letters followed by digits) takes
// priority as an exact substring match. When nothing matches, the nickname
// table is consulted and the mapped detail page fetched directly.
func (s *Scraper) SearchProducts(ctx context.Context, query string) ([]domain.Product, error) {
	snap, err := s.FetchCatalog(ctx)
	if err != nil {
		return nil, err
	}

	normalized := normalizeQuery(query)
	if normalized == "" {
		return nil, nil
	}

	if code := productCodeRegex.FindString(normalized); code != "" {
		codeFlat := strings.ReplaceAll(code, "-", "")
		var matches []domain.Product
		for _, p := range snap.Products {
			if productMatchesCode(p, code, codeFlat) {
				matches = append(matches, p)
			}
		}
		if len(matches) > 0 {
			return matches, nil
		}
	}

	type scored struct {
		product domain.Product
		score   float64
	}
	var results []scored
	queryWords := strings.Fields(normalized)

	for _, p := range snap.Products {
		score := scoreProduct(p, normalized, queryWords)
		if score > 0 {
			results = append(results, scored{p, score})
		}
	}

	sort.SliceStable(results, func(i, j int) bool { return results[i].score > results[j].score })

	if len(results) == 0 {
		return s.nicknameFallback(ctx, normalized)
	}

	products := make([]domain.Product, len(results))
	for i, r := range results {
		products[i] = r.product
	}
	return products, nil
}

// nicknameFallback maps known colloquial names to detail pages.
func (s *Scraper) nicknameFallback(ctx context.Context, normalized string) ([]domain.Product, error) {
	for nickname, path := range productNicknames {
		if strings.Contains(normalized, nickname) {
			product, err := s.FetchProductDetails(ctx, path)
			if err != nil {
				continue
			}
			return []domain.Product{*product}, nil
		}
	}
	return nil, nil
}

var queryPunctuationRegex = regexp.MustCompile(`[^\w\s\-]`)

// normalizeQuery lowercases and strips punctuation from a search query.
func normalizeQuery(q string) string {
	q = strings.ToLower(q)
	q = queryPunctuationRegex.ReplaceAllString(q, " ")
	return strings.TrimSpace(collapseWhitespace(q))
}

func productMatchesCode(p domain.Product, code, codeFlat string) bool {
	name := strings.ToLower(p.Name)
	nameFlat := strings.ReplaceAll(strings.ReplaceAll(name, "-", ""), " ", "")
	if strings.Contains(name, code) || strings.Contains(nameFlat, codeFlat) {
		return true
	}
	for _, v := range p.Specs {
		if strings.Contains(strings.ToLower(v), code) {
			return true
		}
	}
	return false
}

// scoreProduct ranks a product against the normalized query: full-name
// substring match scores highest, then word-subset coverage of the name,
// then hits in description, category, features, and specs.
func scoreProduct(p domain.Product, normalized string, queryWords []string) float64 {
	name := strings.ToLower(p.Name)
	score := 0.0

	if name != "" && (strings.Contains(name, normalized) || strings.Contains(normalized, name)) {
		score += 60
	}

	nameWords := make(map[string]bool)
	for _, w := range strings.Fields(name) {
		nameWords[w] = true
	}
	matched := 0
	for _, w := range queryWords {
		if len(w) <= 1 {
			continue
		}
		if nameWords[w] {
			matched++
		}
	}
	if len(queryWords) > 0 {
		score += 30 * float64(matched) / float64(len(queryWords))
	}

	secondary := strings.ToLower(p.Description + " " + p.Category + " " + strings.Join(p.Features, " "))
	for _, v := range p.Specs {
		secondary += " " + strings.ToLower(v)
	}
	for _, w := range queryWords {
		if len(w) > 2 && strings.Contains(secondary, w) {
			score += 2
		}
	}

	return score
}
