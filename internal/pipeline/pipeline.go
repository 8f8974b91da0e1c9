package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"strings"

	"github.com/ppiankov/foodguard/internal/additive"
	"github.com/ppiankov/foodguard/internal/alternatives"
	"github.com/ppiankov/foodguard/internal/cache"
	"github.com/ppiankov/foodguard/internal/catalog"
	"github.com/ppiankov/foodguard/internal/detect"
	"github.com/ppiankov/foodguard/internal/diet"
	"github.com/ppiankov/foodguard/internal/history"
	"github.com/ppiankov/foodguard/internal/model"
	"github.com/ppiankov/foodguard/internal/score"
	"github.com/ppiankov/foodguard/internal/worker"
)

// Catalog is the product source the pipeline analyzes against
type Catalog interface {
	FetchProduct(ctx context.Context, barcode string) (*model.ProductSnapshot, error)
	alternatives.Searcher
}

var _ Catalog = (*catalog.Client)(nil)

// Options overrides the collaborators NewPipeline would otherwise build from config
type Options struct {
	Catalog Catalog       // Default: Open Food Facts client with cache and rate limiter
	History history.Store // Nil disables history recording
	Logger  *log.Logger   // Nil discards diagnostics
}

// Pipeline orchestrates the complete analysis of a barcode
type Pipeline struct {
	kb       *additive.KnowledgeBase
	detector *detect.Detector
	scorer   *score.Scorer
	matcher  *diet.Matcher
	finder   *alternatives.Finder
	catalog  Catalog
	history  history.Store
	renderer *Renderer
	config   *model.Config
	logger   *log.Logger
}

// NewPipeline creates a pipeline over the embedded additive knowledge base
func NewPipeline(cfg *model.Config, opts Options) (*Pipeline, error) {
	kb, err := additive.Default()
	if err != nil {
		return nil, fmt.Errorf("load knowledge base: %w", err)
	}

	logger := opts.Logger
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}

	cat := opts.Catalog
	if cat == nil {
		limiter := worker.NewCatalogLimiter(cfg.RateLimiting)
		cat = catalog.NewClient(cfg, cache.New(cfg.Cache), limiter, logger)
	}

	return &Pipeline{
		kb:       kb,
		detector: detect.NewDetector(kb),
		scorer:   score.NewScorer(),
		matcher:  diet.NewMatcher(),
		finder:   alternatives.NewFinder(cat, cfg.Catalog.ProductLinkBase, logger),
		catalog:  cat,
		history:  opts.History,
		renderer: NewRenderer(cfg.Output.Verbose),
		config:   cfg,
		logger:   logger,
	}, nil
}

// Request describes one analysis
type Request struct {
	Barcode          string
	Username         string                // Records history when set
	Settings         model.DietarySettings // Layered over the configured diet
	WithAlternatives bool
}

// Analyze fetches, scores and checks a product against the user's diet.
// A barcode the catalog does not know yields an ERROR result, not an error.
func (p *Pipeline) Analyze(ctx context.Context, req Request) (*model.AnalysisResult, error) {
	barcode := strings.TrimSpace(req.Barcode)

	// 1. Fetch product
	snap, err := p.catalog.FetchProduct(ctx, barcode)
	if errors.Is(err, catalog.ErrNotFound) {
		p.logger.Printf("pipeline: %s not found", barcode)
		return model.NotFoundResult(barcode), nil
	}
	if err != nil {
		return nil, fmt.Errorf("fetch product %s: %w", barcode, err)
	}

	// 2. Detect additives
	additives := p.detector.Detect(snap.AdditiveTags, snap.IngredientsText)

	// 3. Score
	sc := p.scorer.Calculate(snap.Nutrients, additives)

	// 4. Dietary check and verdict
	settings := p.settings(req.Settings)
	matches := p.matcher.Match(snap.IngredientsText, detect.Codes(additives), snap.Nutrients, settings)
	status := diet.Verdict(matches, sc.Value)

	levels := make(map[string]string, len(snap.NutrientLevels)+2)
	for k, v := range snap.NutrientLevels {
		levels[k] = v
	}
	levels["fiber"] = sc.FiberLevel
	levels["proteins"] = sc.ProteinLevel

	values := make(map[string]float64, len(snap.NutrientValues))
	for k, v := range snap.NutrientValues {
		values[k] = v
	}

	result := &model.AnalysisResult{
		Status:          status,
		Barcode:         barcode,
		ProductName:     snap.Name,
		ImageURL:        snap.ImageURL,
		Score:           sc.Value,
		Matches:         matches,
		IngredientsText: snap.IngredientsText,
		NutrientLevels:  levels,
		NutrientValues:  values,
		Additives:       additives,
		Categories:      append([]string{}, snap.Categories...),
		Alternatives:    []model.AlternativeRecord{},
		Signals:         sc.Signals,
	}

	// 5. Alternatives only on request
	if req.WithAlternatives {
		result.Alternatives = p.finder.Find(ctx, snap.Categories, barcode, snap.Name)
	}

	p.logger.Printf("pipeline: %s scored %d (%s), %d additives, %d dietary matches",
		barcode, result.Score, result.Status, len(additives), len(matches))

	// 6. Record history; failures never fail the analysis
	if p.history != nil && strings.TrimSpace(req.Username) != "" {
		entry := model.HistoryEntry{
			Username:    req.Username,
			Barcode:     barcode,
			ProductName: result.ProductName,
			Status:      result.Status,
			Score:       result.Score,
		}
		if err := p.history.Save(ctx, entry); err != nil {
			p.logger.Printf("pipeline: warning: save history for %s: %v", req.Username, err)
		}
	}

	return result, nil
}

// AnalyzeBarcode analyzes with the configured diet and no history recording
func (p *Pipeline) AnalyzeBarcode(ctx context.Context, barcode string) (*model.AnalysisResult, error) {
	return p.Analyze(ctx, Request{Barcode: barcode})
}

// ForRequest returns a batch analyzer that applies req's user, settings and
// alternatives flag to every barcode
func (p *Pipeline) ForRequest(req Request) worker.Analyzer {
	return &requestAnalyzer{p: p, req: req}
}

type requestAnalyzer struct {
	p   *Pipeline
	req Request
}

func (a *requestAnalyzer) AnalyzeBarcode(ctx context.Context, barcode string) (*model.AnalysisResult, error) {
	req := a.req
	req.Barcode = barcode
	return a.p.Analyze(ctx, req)
}

// Alternatives returns healthier products for a barcode. Unknown barcodes have none.
func (p *Pipeline) Alternatives(ctx context.Context, barcode string) ([]model.AlternativeRecord, error) {
	barcode = strings.TrimSpace(barcode)

	snap, err := p.catalog.FetchProduct(ctx, barcode)
	if errors.Is(err, catalog.ErrNotFound) {
		return []model.AlternativeRecord{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("fetch product %s: %w", barcode, err)
	}

	return p.finder.Find(ctx, snap.Categories, barcode, snap.Name), nil
}

// LookupAdditive resolves a free query (code, "e"-prefixed digits or name) to a record
func (p *Pipeline) LookupAdditive(query string) (model.AdditiveRecord, bool) {
	return p.kb.Search(query)
}

// Renderer returns the pipeline's output renderer
func (p *Pipeline) Renderer() *Renderer {
	return p.renderer
}

// settings layers request settings over the configured diet
func (p *Pipeline) settings(override model.DietarySettings) model.DietarySettings {
	merged := make(model.DietarySettings, len(p.config.Diet)+len(override))
	for k, v := range p.config.Diet {
		merged[k] = v
	}
	for k, v := range override {
		merged[k] = v
	}
	return merged
}
