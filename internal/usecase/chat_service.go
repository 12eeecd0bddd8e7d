package usecase

import (
	"context"
	"fmt"
	"log"
	"regexp"
	"strings"
	"time"

	"github.com/shoptalk/backend/internal/domain"
)

// Vocabulary patterns for intent detection
var (
	problemVocabRegex = regexp.MustCompile(`(?i)\b(?:not working|stopped working|broken|broke|faulty|defective|won'?t (?:turn on|start|charge)|doesn'?t work|problem with|issue with)\b`)
	offerVocabRegex   = regexp.MustCompile(`(?i)\b(?:sale|sales|offer|offers|discount|discounts|deal|deals|promotion|promotions|black friday|voucher|coupon)\b`)
	categoryAskRegex  = regexp.MustCompile(`(?i)\bwhat (?:kinds?|types?|categories|products) (?:of products? )?(?:do you (?:sell|have|stock)|are there)\b|\bwhat do you sell\b`)
	singularPronoun   = regexp.MustCompile(`(?i)\b(?:it|this|this one|that one)\b`)
	pluralPronoun     = regexp.MustCompile(`(?i)\b(?:these|them|those)\b`)
	codeTokenRegex    = regexp.MustCompile(`(?i)\b[a-z]{2,}[\-]?\d{2,}\w*\b`)
)

const actionPrefix = "action:"

// ChatConfig bounds the orchestrator's evidence gathering and display.
type ChatConfig struct {
	HistoryWindow      int           // turns of history sent for generation
	MaxKnowledgeHits   int           // knowledge records per prompt
	MaxSearchResults   int           // products kept from catalog search
	MaxDetailBackfill  int           // top matches backfilled via detail fetch
	MaxDisplayProducts int           // products listed by deterministic answers
	GatherTimeout      time.Duration // budget for the parallel evidence gather
	SupportEmail       string
	OffersURL          string
	NewsletterURL      string
}

func (c *ChatConfig) applyDefaults() {
	if c.HistoryWindow <= 0 {
		c.HistoryWindow = 10
	}
	if c.MaxKnowledgeHits <= 0 {
		c.MaxKnowledgeHits = 3
	}
	if c.MaxSearchResults <= 0 {
		c.MaxSearchResults = 8
	}
	if c.MaxDetailBackfill <= 0 {
		c.MaxDetailBackfill = 2
	}
	if c.MaxDisplayProducts <= 0 {
		c.MaxDisplayProducts = 5
	}
	if c.GatherTimeout <= 0 {
		c.GatherTimeout = 8 * time.Second
	}
	if c.SupportEmail == "" {
		c.SupportEmail = "support@shoptalk.example"
	}
	if c.OffersURL == "" {
		c.OffersURL = "/sale"
	}
	if c.NewsletterURL == "" {
		c.NewsletterURL = "/newsletter"
	}
}

// ChatService is the intent/response orchestrator: it derives intent from a
// message, gathers evidence from the catalog, the knowledge store, and the
// session, and composes a sanitized response. Generator may be nil, in which
// case every answer comes from the deterministic responder.
type ChatService struct {
	catalog   domain.CatalogProvider
	knowledge domain.KnowledgeSearcher
	sessions  domain.SessionStore
	generator domain.Generator
	config    ChatConfig
}

// NewChatService wires the orchestrator's collaborators.
func NewChatService(
	catalog domain.CatalogProvider,
	knowledge domain.KnowledgeSearcher,
	sessions domain.SessionStore,
	generator domain.Generator,
	config ChatConfig,
) *ChatService {
	config.applyDefaults()
	return &ChatService{
		catalog:   catalog,
		knowledge: knowledge,
		sessions:  sessions,
		generator: generator,
		config:    config,
	}
}

// Process handles one inbound message. It never returns an error to the
// boundary: any unexpected failure degrades to a polite support message.
func (s *ChatService) Process(ctx context.Context, req *domain.ChatRequest) (resp *domain.ChatResponse) {
	sessionID := req.SessionID
	if sessionID == "" {
		sessionID = domain.DefaultSessionID
	}

	defer func() {
		if r := recover(); r != nil {
			log.Printf("[CHAT] recovered from panic: %v", r)
			resp = &domain.ChatResponse{
				Response: Linkify(fmt.Sprintf(
					"Sorry, something went wrong on our side. Please try again in a moment, or contact %s and we'll help you directly.",
					s.config.SupportEmail)),
				SessionID: sessionID,
			}
		}
	}()

	message := strings.TrimSpace(req.Message)
	if message == "" {
		return &domain.ChatResponse{
			Response:  Linkify("Please type a message and I'll do my best to help."),
			SessionID: sessionID,
		}
	}

	sess := s.sessions.Get(sessionID)
	s.sessions.AppendTurn(sessionID, domain.Turn{Role: "user", Content: message})

	// Structured action selection: resolve the guide directly, no generation.
	if strings.HasPrefix(strings.ToLower(message), actionPrefix) {
		return s.finish(sessionID, s.handleAction(message, &sess), nil, false)
	}

	// Problem report: remember the code (present or not) and let generation
	// ask the clarifying question; the options menu is offered, not forced.
	options := []domain.Option(nil)
	showOptions := false
	if problemVocabRegex.MatchString(message) {
		code := strings.ToLower(codeTokenRegex.FindString(message))
		s.sessions.SetProblem(sessionID, code, true)
		sess.ProblemCode = code
		sess.ProblemOpen = true
		options = troubleshootingOptions()
		showOptions = true
	}

	pc := s.gatherEvidence(ctx, sessionID, message, &sess)

	// Unambiguous offer and category queries short-circuit to templated
	// answers: free generation hallucinates on large enumerations.
	if options == nil {
		if isOfferQuery(message) {
			return s.finish(sessionID, s.offerAnswer(pc), nil, false)
		}
		if categoryAskRegex.MatchString(message) {
			return s.finish(sessionID, s.categoryAnswer(ctx), nil, false)
		}
	}

	text := s.generateOrFallback(ctx, sessionID, message, pc, &sess)
	return s.finish(sessionID, text, options, showOptions)
}

// finish sanitizes the answer, appends it to history, and shapes the response.
func (s *ChatService) finish(sessionID, text string, options []domain.Option, showOptions bool) *domain.ChatResponse {
	s.sessions.AppendTurn(sessionID, domain.Turn{Role: "assistant", Content: text})
	return &domain.ChatResponse{
		Response:    Linkify(text),
		Options:     options,
		ShowOptions: showOptions,
		SessionID:   sessionID,
	}
}

// handleAction resolves an "action:<category>" selection to guide text.
func (s *ChatService) handleAction(message string, sess *domain.SessionContext) string {
	selection := strings.TrimPrefix(strings.ToLower(strings.TrimSpace(message)), actionPrefix)
	s.sessions.SetProblem(sess.ID, sess.ProblemCode, false)
	return lookupGuide(selection, sess.LastProduct)
}

// gatherEvidence runs the independent reads concurrently: catalog snapshot,
// knowledge search, and product search. Each is individually time-boxed by
// the shared gather budget; a slow source contributes nothing rather than
// stalling the request.
func (s *ChatService) gatherEvidence(ctx context.Context, sessionID, message string, sess *domain.SessionContext) PromptContext {
	gctx, cancel := context.WithTimeout(ctx, s.config.GatherTimeout)
	defer cancel()

	snapCh := make(chan *domain.CatalogSnapshot, 1)
	hitsCh := make(chan []domain.KnowledgeHit, 1)
	matchCh := make(chan []domain.Product, 1)

	go func() {
		snap, err := s.catalog.FetchCatalog(gctx)
		if err != nil {
			snapCh <- nil
			return
		}
		snapCh <- snap
	}()
	go func() {
		hitsCh <- s.knowledge.Search(message, s.config.MaxKnowledgeHits)
	}()
	go func() {
		matches, err := s.catalog.SearchProducts(gctx, message)
		if err != nil {
			matchCh <- nil
			return
		}
		matchCh <- matches
	}()

	snap := <-snapCh
	hits := <-hitsCh
	matches := <-matchCh

	if len(matches) > s.config.MaxSearchResults {
		matches = matches[:s.config.MaxSearchResults]
	}
	matches = s.backfillDetails(gctx, matches)

	// Update the session focus from match cardinality.
	switch {
	case len(matches) == 1:
		s.sessions.SetFocus(sessionID, &matches[0], nil)
	case len(matches) > 1:
		s.sessions.SetFocus(sessionID, nil, matches)
	}

	pc := PromptContext{
		MatchedProducts: matches,
		KnowledgeHits:   hits,
		Focus: FocusInfo{
			LastProduct:  sess.LastProduct,
			LastProducts: sess.LastProducts,
			ProblemCode:  sess.ProblemCode,
		},
	}
	if snap != nil {
		pc.SaleSignal = SaleSignal{
			HasSales:         snap.HasSales,
			HasBlackFriday:   snap.HasBlackFriday,
			SaleCount:        len(snap.Sales),
			BlackFridayCount: len(snap.BlackFriday),
		}
	}

	// Pronoun resolution: inject the resolved entity's full detail rather
	// than relying on the model to infer referents unaided. A pronoun refers
	// to the prior focus even when the search scraped up incidental hits, so
	// the focus is prepended unless the search already found it.
	if singularPronoun.MatchString(message) && sess.LastProduct != nil {
		pc.MatchedProducts = prependMissing(pc.MatchedProducts, []domain.Product{*sess.LastProduct})
	} else if pluralPronoun.MatchString(message) && len(sess.LastProducts) > 0 {
		pc.MatchedProducts = prependMissing(pc.MatchedProducts, sess.LastProducts)
	}

	return pc
}

// prependMissing puts the focus products that the search did not already
// find at the front of the match list.
func prependMissing(matches, focus []domain.Product) []domain.Product {
	keys := make(map[string]bool, len(matches))
	for _, p := range matches {
		keys[p.Key()] = true
	}
	var out []domain.Product
	for _, p := range focus {
		if !keys[p.Key()] {
			out = append(out, p)
		}
	}
	if len(out) == 0 {
		return matches
	}
	return append(out, matches...)
}

// backfillDetails fetches detail pages for the top matches that are missing
// price or specs. Failures leave the listing record as-is.
func (s *ChatService) backfillDetails(ctx context.Context, matches []domain.Product) []domain.Product {
	filled := 0
	for i := range matches {
		if filled >= s.config.MaxDetailBackfill {
			break
		}
		if matches[i].HasPrice() && len(matches[i].Specs) > 0 {
			continue
		}
		if matches[i].URL == "" {
			continue
		}
		detail, err := s.catalog.FetchProductDetails(ctx, matches[i].URL)
		if err != nil {
			continue
		}
		matches[i].Merge(*detail)
		filled++
	}
	return matches
}

// generateOrFallback calls the generation backend and branches on the
// outcome value; every non-OK status selects the deterministic responder.
func (s *ChatService) generateOrFallback(ctx context.Context, sessionID, message string, pc PromptContext, sess *domain.SessionContext) string {
	if s.generator == nil {
		return fallbackRespond(message, pc, s.config.MaxDisplayProducts, s.config.SupportEmail)
	}

	outcome := s.generator.Generate(ctx, domain.GenerateRequest{
		System:  BuildSystemPrompt(pc),
		History: sess.HistoryWindow(s.config.HistoryWindow),
		Message: message,
	})

	if outcome.Status != domain.GenerateOK {
		log.Printf("[CHAT] generation unavailable for session %s (status %d): %v",
			sessionID, outcome.Status, outcome.Err)
		return fallbackRespond(message, pc, s.config.MaxDisplayProducts, s.config.SupportEmail)
	}
	return outcome.Text
}

// offerAnswer is the deterministic template for unambiguous offer queries.
func (s *ChatService) offerAnswer(pc PromptContext) string {
	var b strings.Builder
	switch {
	case pc.SaleSignal.HasBlackFriday:
		b.WriteString("Yes - our Black Friday event is live right now! ")
		if pc.SaleSignal.SaleCount > 0 {
			fmt.Fprintf(&b, "There are %d discounted products. ", pc.SaleSignal.SaleCount)
		}
	case pc.SaleSignal.HasSales:
		b.WriteString("Yes, we have a sale on at the moment. ")
		if pc.SaleSignal.SaleCount > 0 {
			fmt.Fprintf(&b, "%d products are currently discounted. ", pc.SaleSignal.SaleCount)
		}
	default:
		b.WriteString("There's no site-wide sale running right now. ")
	}
	fmt.Fprintf(&b, "Browse everything on [the offers page](%s), and [join the newsletter](%s) to hear about discounts first.",
		s.config.OffersURL, s.config.NewsletterURL)
	return b.String()
}

// categoryAnswer lists the catalog's categories deterministically.
func (s *ChatService) categoryAnswer(ctx context.Context) string {
	snap, err := s.catalog.FetchCatalog(ctx)
	if err != nil || snap == nil || len(snap.Categories) == 0 {
		return "We stock a range of home and personal-care appliances. What are you looking for?"
	}
	return "We stock: " + strings.Join(snap.Categories, ", ") + ". Which area are you interested in?"
}

var wordSplitRegex = regexp.MustCompile(`[^\w]+`)

// offerFillerWords are ignored when judging whether an offer query is
// unambiguous: anything else left over means the message is also about a
// specific product and deserves full generation.
var offerFillerWords = map[string]bool{
	"is": true, "there": true, "a": true, "an": true, "any": true, "on": true,
	"now": true, "currently": true, "today": true, "are": true, "running": true,
	"you": true, "have": true, "do": true, "what": true, "the": true,
	"your": true, "going": true, "got": true, "right": true, "at": true,
	"moment": true, "sale": true, "sales": true, "offer": true, "offers": true,
	"discount": true, "discounts": true, "deal": true, "deals": true,
	"promotion": true, "promotions": true, "black": true, "friday": true,
	"voucher": true, "vouchers": true, "coupon": true, "coupons": true,
}

// isOfferQuery reports whether a message is unambiguously about offers:
// offer vocabulary with essentially no other content.
func isOfferQuery(message string) bool {
	if !offerVocabRegex.MatchString(message) {
		return false
	}
	remaining := 0
	for _, w := range strings.Fields(wordSplitRegex.ReplaceAllString(strings.ToLower(message), " ")) {
		if !offerFillerWords[w] {
			remaining++
		}
	}
	return remaining <= 1
}
