// Package menu holds the drive-thru catalog and the tiered retrieval engine
// that maps free-text phrases onto catalog items.
package menu

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sort"
	"strings"

	"drivethru/internal/logging"
	"drivethru/internal/models"
)

// ErrUnknownItem is returned when a name does not resolve to a catalog item
var ErrUnknownItem = errors.New("unknown menu item")

// Tier names the matching strategy that produced a result
type Tier string

const (
	TierExact    Tier = "exact"
	TierAlias    Tier = "alias"
	TierSpecial  Tier = "special"
	TierTag      Tier = "tag"
	TierSemantic Tier = "semantic"
	TierNone     Tier = "none"
)

const (
	// DefaultTopK is used when a caller passes a non-positive top k
	DefaultTopK = 3

	// semanticCeiling keeps semantic scores below the tag tier so a
	// cheaper tier always outranks the fallback
	semanticCeiling = 0.8
)

// SearchResult is one ranked match
type SearchResult struct {
	Item   models.CatalogItem `json:"item"`
	Score  float64            `json:"score"`
	Reason string             `json:"reason"`
	Tier   Tier               `json:"tier"`
}

// SearchObserver is notified of the tier that answered each query
type SearchObserver interface {
	ObserveSearch(tier string)
}

// Options configures an Engine
type Options struct {
	Embedder          Embedder
	CachePath         string
	SemanticThreshold float64
	Recommendations   RecommendationRules
	Observer          SearchObserver
	Logger            *slog.Logger
}

// Engine indexes the catalog and answers ranked search queries. It is
// read-only after construction and safe for concurrent use.
type Engine struct {
	items   []models.CatalogItem
	byName  map[string]int
	byAlias map[string]int
	byTag   map[string][]int

	embedder  Embedder
	vectors   [][]float32
	threshold float64

	rules    RecommendationRules
	observer SearchObserver
	logger   *slog.Logger
}

// NewEngine validates the catalog, builds the lookup indices and embeds
// every item once.
func NewEngine(ctx context.Context, items []models.CatalogItem, opts Options) (*Engine, error) {
	e := &Engine{
		items:     slices.Clone(items),
		byName:    make(map[string]int),
		byAlias:   make(map[string]int),
		byTag:     make(map[string][]int),
		embedder:  opts.Embedder,
		threshold: opts.SemanticThreshold,
		rules:     opts.Recommendations.withDefaults(),
		observer:  opts.Observer,
		logger:    logging.WithComponent(opts.Logger, "menu"),
	}
	if e.embedder == nil {
		e.embedder = NewHashEmbedder(0)
	}
	if e.threshold <= 0 {
		e.threshold = 0.3
	}

	// Build indices
	for i, item := range e.items {
		if err := models.ValidateCatalogItem(item); err != nil {
			return nil, err
		}

		key := normalize(item.Name)
		if _, dup := e.byName[key]; dup {
			return nil, fmt.Errorf("duplicate catalog item %q", item.Name)
		}
		e.byName[key] = i

		for _, alias := range item.Aliases {
			if _, taken := e.byAlias[normalize(alias)]; !taken {
				e.byAlias[normalize(alias)] = i
			}
		}
		for _, tag := range item.Tags {
			tag = normalize(tag)
			e.byTag[tag] = append(e.byTag[tag], i)
		}
	}

	if err := e.embedCatalog(ctx, opts.CachePath); err != nil {
		return nil, err
	}

	e.logger.Info("menu engine initialized", "items", len(e.items), "embedder", e.embedder.Name())
	return e, nil
}

// embedCatalog fills e.vectors from the cache file or the embedder
func (e *Engine) embedCatalog(ctx context.Context, cachePath string) error {
	if len(e.items) == 0 {
		return nil
	}

	fingerprint := catalogFingerprint(e.items)
	if vectors, ok := loadEmbeddingCache(cachePath, e.embedder.Name(), fingerprint, len(e.items)); ok {
		e.vectors = vectors
		e.logger.Debug("loaded cached embeddings", "path", cachePath)
		return nil
	}

	texts := make([]string, len(e.items))
	for i, item := range e.items {
		texts[i] = item.SearchText()
	}

	vectors, err := e.embedder.EmbedDocuments(ctx, texts)
	if err != nil {
		return fmt.Errorf("failed to embed catalog: %w", err)
	}
	if len(vectors) != len(e.items) {
		return fmt.Errorf("embedder returned %d vectors for %d items", len(vectors), len(e.items))
	}
	e.vectors = vectors

	if err := saveEmbeddingCache(cachePath, e.embedder.Name(), fingerprint, vectors); err != nil {
		e.logger.Warn("embedding cache not written", "path", cachePath, "error", err)
	}
	return nil
}

// Search returns up to topK results, highest score first. The first tier
// that produces a match answers the query; no match yields an empty slice.
func (e *Engine) Search(ctx context.Context, query string, topK int) ([]SearchResult, error) {
	if topK <= 0 {
		topK = DefaultTopK
	}

	results, tier, err := e.search(ctx, query, topK)
	if err != nil {
		return nil, err
	}
	if len(results) > topK {
		results = results[:topK]
	}

	if e.observer != nil {
		e.observer.ObserveSearch(string(tier))
	}
	return results, nil
}

func (e *Engine) search(ctx context.Context, query string, topK int) ([]SearchResult, Tier, error) {
	key := normalize(query)
	if key == "" || len(e.items) == 0 {
		return []SearchResult{}, TierNone, nil
	}
	tokens := words(key)

	// Exact name
	if i, ok := e.byName[key]; ok {
		return []SearchResult{{Item: e.items[i], Score: 1.0, Reason: "Exact name match", Tier: TierExact}}, TierExact, nil
	}

	// Alias
	if i, ok := e.byAlias[key]; ok {
		return []SearchResult{{Item: e.items[i], Score: 0.95, Reason: "Alias match", Tier: TierAlias}}, TierAlias, nil
	}

	// Superlatives and dietary or texture keywords. Whole-query names and
	// aliases are checked first so "crunchy" or "crispy taco" resolve to the
	// item they name.
	if results := e.special(tokens, topK); len(results) > 0 {
		return results, TierSpecial, nil
	}

	// Tags
	if results := e.tagMatch(tokens); len(results) > 0 {
		return results, TierTag, nil
	}

	// Semantic fallback
	results, err := e.semantic(ctx, query, tokens, topK)
	if err != nil {
		return nil, TierSemantic, err
	}
	if len(results) == 0 {
		return results, TierNone, nil
	}
	return results, TierSemantic, nil
}

// special answers keyword queries. An empty result lets the next tier try.
func (e *Engine) special(tokens []string, topK int) []SearchResult {
	has := func(phrase string) bool {
		return containsPhrase(tokens, strings.Fields(phrase))
	}

	switch {
	case has("cheapest") || has("lowest price"):
		return e.priceRanking(topK, false)

	case has("most expensive") || has("premium"):
		return e.priceRanking(topK, true)

	case has("vegetarian") || has("veggie") || has("no meat"):
		results := []SearchResult{}
		for _, item := range e.items {
			if item.HasTag("vegetarian") || item.HasTag("no meat") {
				results = append(results, SearchResult{Item: item, Score: 0.9, Reason: "Vegetarian option", Tier: TierSpecial})
			}
		}
		return results

	case has("spicy") || has("hot"):
		for _, item := range e.items {
			for _, custom := range item.Customizations {
				if isSpiceVariant(custom) {
					reason := fmt.Sprintf("Has spicy option (%s)", titleCase(custom))
					return []SearchResult{{Item: item, Score: 0.9, Reason: reason, Tier: TierSpecial}}
				}
			}
		}
		return []SearchResult{}

	case has("crunchy") || has("crispy"):
		results := []SearchResult{}
		for _, item := range e.items {
			if item.HasTag("crunchy") {
				results = append(results, SearchResult{Item: item, Score: 0.9, Reason: "Crunchy item", Tier: TierSpecial})
			}
		}
		return results
	}

	return nil
}

// priceRanking returns up to three items ordered by price with synthetic
// descending scores 1.0, 0.9, 0.8
func (e *Engine) priceRanking(topK int, descending bool) []SearchResult {
	ranked := slices.Clone(e.items)
	sort.SliceStable(ranked, func(i, j int) bool {
		if descending {
			return ranked[i].Price > ranked[j].Price
		}
		return ranked[i].Price < ranked[j].Price
	})

	n := min(3, topK, len(ranked))
	results := make([]SearchResult, 0, n)
	for i := 0; i < n; i++ {
		results = append(results, SearchResult{
			Item:   ranked[i],
			Score:  1.0 - float64(i)*0.1,
			Reason: "Price ranking",
			Tier:   TierSpecial,
		})
	}
	return results
}

// tagMatch returns items whose tags intersect the query words, in
// first-seen order without duplicates
func (e *Engine) tagMatch(tokens []string) []SearchResult {
	seen := make(map[int]bool)
	results := []SearchResult{}

	for _, word := range tokens {
		for _, i := range e.byTag[word] {
			if seen[i] {
				continue
			}
			seen[i] = true
			results = append(results, SearchResult{Item: e.items[i], Score: 0.85, Reason: "Tag match", Tier: TierTag})
		}
	}
	return results
}

// semantic ranks every item by cosine similarity to the query. Ties keep
// catalog order.
func (e *Engine) semantic(ctx context.Context, query string, tokens []string, topK int) ([]SearchResult, error) {
	vector, err := e.embedder.EmbedQuery(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to embed query: %w", err)
	}

	type scored struct {
		index int
		score float64
	}
	candidates := make([]scored, 0, len(e.items))
	for i, itemVector := range e.vectors {
		if sim := cosineSimilarity(vector, itemVector); sim > e.threshold {
			candidates = append(candidates, scored{index: i, score: sim})
		}
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].score > candidates[j].score
	})
	if len(candidates) > topK {
		candidates = candidates[:topK]
	}

	results := make([]SearchResult, 0, len(candidates))
	for _, c := range candidates {
		item := e.items[c.index]
		results = append(results, SearchResult{
			Item:   item,
			Score:  min(c.score, semanticCeiling),
			Reason: matchReason(tokens, item, c.score),
			Tier:   TierSemantic,
		})
	}
	return results, nil
}

// matchReason explains a semantic match by the first field the query
// words overlap with
func matchReason(tokens []string, item models.CatalogItem, score float64) string {
	overlaps := func(field string) bool {
		field = strings.ToLower(field)
		for _, w := range tokens {
			if len(w) >= 3 && strings.Contains(field, w) {
				return true
			}
		}
		return false
	}
	hasTag := func() bool {
		for _, w := range tokens {
			if item.HasTag(w) {
				return true
			}
		}
		return false
	}

	switch {
	case overlaps(item.Name):
		return "Name similarity"
	case hasTag():
		return "Tag match"
	case overlaps(item.Description):
		return "Description match"
	case overlaps(strings.Join(item.Aliases, " ")):
		return "Alias match"
	case score > 0.6:
		return "High semantic similarity"
	default:
		return "Partial match"
	}
}

func isSpiceVariant(customization string) bool {
	for _, w := range words(customization) {
		switch w {
		case "fiery", "spicy", "hot":
			return true
		}
	}
	return false
}

func titleCase(s string) string {
	fields := strings.Fields(s)
	for i, f := range fields {
		fields[i] = strings.ToUpper(f[:1]) + f[1:]
	}
	return strings.Join(fields, " ")
}

// Items returns the catalog in declaration order
func (e *Engine) Items() []models.CatalogItem {
	return slices.Clone(e.items)
}

// ItemByName looks up an item by exact name, case-insensitively
func (e *Engine) ItemByName(name string) (models.CatalogItem, bool) {
	i, ok := e.byName[normalize(name)]
	if !ok {
		return models.CatalogItem{}, false
	}
	return e.items[i], true
}

// Lookup resolves an exact name or alias
func (e *Engine) Lookup(phrase string) (models.CatalogItem, error) {
	key := normalize(phrase)
	if i, ok := e.byName[key]; ok {
		return e.items[i], nil
	}
	if i, ok := e.byAlias[key]; ok {
		return e.items[i], nil
	}
	return models.CatalogItem{}, fmt.Errorf("%w: %s", ErrUnknownItem, phrase)
}

// CategoryItems returns the items of one category in declaration order
func (e *Engine) CategoryItems(category models.Category) []models.CatalogItem {
	var items []models.CatalogItem
	for _, item := range e.items {
		if item.Category == category {
			items = append(items, item)
		}
	}
	return items
}

// Sampler returns the first item of every category, a short tour of the menu
func (e *Engine) Sampler() []models.CatalogItem {
	var items []models.CatalogItem
	for _, category := range models.Categories {
		if catItems := e.CategoryItems(category); len(catItems) > 0 {
			items = append(items, catItems[0])
		}
	}
	return items
}

// KnownPhrases lists every name and alias, lowercased, longest first.
// Phrase extraction uses it to prefer the most specific match.
func (e *Engine) KnownPhrases() []string {
	phrases := make([]string, 0, len(e.byName)+len(e.byAlias))
	for name := range e.byName {
		phrases = append(phrases, name)
	}
	for alias := range e.byAlias {
		if _, isName := e.byName[alias]; !isName {
			phrases = append(phrases, alias)
		}
	}
	sort.Slice(phrases, func(i, j int) bool {
		if len(phrases[i]) != len(phrases[j]) {
			return len(phrases[i]) > len(phrases[j])
		}
		return phrases[i] < phrases[j]
	})
	return phrases
}

// NamedQuantity pairs a spoken phrase with a quantity
type NamedQuantity struct {
	Phrase   string
	Quantity int
}

// Total prices a list of phrases by their top search match. Phrases with
// no match contribute nothing.
func (e *Engine) Total(ctx context.Context, lines []NamedQuantity) (float64, error) {
	total := 0.0
	for _, line := range lines {
		results, err := e.Search(ctx, line.Phrase, 1)
		if err != nil {
			return 0, err
		}
		if len(results) > 0 {
			total += results[0].Item.Price * float64(line.Quantity)
		}
	}
	return total, nil
}
