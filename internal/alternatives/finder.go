package alternatives

import (
	"context"
	"fmt"
	"io"
	"log"
	"regexp"
	"strings"

	"github.com/ppiankov/foodguard/internal/model"
)

const maxAlternatives = 3

// broadCategories are generic groupings whose members are rarely comparable
var broadCategories = map[string]bool{
	"en:sauces":                          true,
	"en:snacks":                          true,
	"en:beverages":                       true,
	"en:meals":                           true,
	"en:groceries":                       true,
	"en:dairy":                           true,
	"en:meats":                           true,
	"en:plant-based-foods-and-beverages": true,
	"en:desserts":                        true,
	"en:sweet-snacks":                    true,
	"en:salty-snacks":                    true,
	"en:biscuits-and-cakes":              true,
	"en:confectioneries":                 true,
}

var (
	wordPattern = regexp.MustCompile(`[\p{L}\p{N}_]{4,}`)
	stopwords   = map[string]bool{"para": true, "con": true, "de": true, "del": true}
)

// Searcher queries the catalog for products of a category with a nutrition grade
type Searcher interface {
	SearchCategory(ctx context.Context, category, grade string) ([]model.CatalogProduct, error)
}

// Finder suggests healthier products from the same category
type Finder struct {
	searcher Searcher
	linkBase string
	logger   *log.Logger
}

// NewFinder creates a finder. linkBase is prefixed to barcodes to build product links.
func NewFinder(searcher Searcher, linkBase string, logger *log.Logger) *Finder {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	return &Finder{
		searcher: searcher,
		linkBase: linkBase,
		logger:   logger,
	}
}

// IsBroad reports whether a category tag is a generic grouping
func IsBroad(category string) bool {
	return broadCategories[category]
}

// Find walks the categories from most to least specific and returns up to three
// alternatives from the first category that yields any. Results are never merged
// across categories.
func (f *Finder) Find(ctx context.Context, categories []string, currentBarcode, productName string) []model.AlternativeRecord {
	if len(categories) == 0 {
		return []model.AlternativeRecord{}
	}

	keywords := Keywords(productName)
	candidates := reversed(categories)

	for i, category := range candidates {
		if ctx.Err() != nil {
			break
		}

		broad := IsBroad(category)
		if broad && len(candidates)-i > 1 && i != 0 {
			f.logger.Printf("alternatives: skipping broad category %s", category)
			continue
		}

		grades := []string{"A", "B"}
		if i == 0 {
			grades = append(grades, "C")
		}

		products := f.search(ctx, category, grades)
		if len(products) == 0 {
			f.logger.Printf("alternatives: no products in %s for grades %v", category, grades)
			continue
		}

		requireKeyword := broad && len(candidates) > 1 && len(keywords) > 0
		alts := f.filter(products, currentBarcode, keywords, requireKeyword)
		if len(alts) > 0 {
			f.logger.Printf("alternatives: found %d in %s", len(alts), category)
			return alts
		}
	}

	return []model.AlternativeRecord{}
}

// search returns the products of the first grade that yields any
func (f *Finder) search(ctx context.Context, category string, grades []string) []model.CatalogProduct {
	for _, grade := range grades {
		products, err := f.searcher.SearchCategory(ctx, category, grade)
		if err != nil {
			f.logger.Printf("alternatives: search %s grade %s failed: %v", category, grade, err)
			continue
		}
		if len(products) > 0 {
			return products
		}
	}
	return nil
}

func (f *Finder) filter(products []model.CatalogProduct, currentBarcode string, keywords []string, requireKeyword bool) []model.AlternativeRecord {
	var alts []model.AlternativeRecord
	for _, p := range products {
		if p.Code == currentBarcode {
			continue
		}
		name := strings.TrimSpace(p.DisplayName())
		if name == "" || strings.EqualFold(name, "unknown") {
			continue
		}
		if requireKeyword && !containsAny(strings.ToLower(name), keywords) {
			continue
		}

		grade := strings.ToUpper(strings.TrimSpace(p.NutritionGrade))
		if grade == "" {
			grade = "B"
		}

		alts = append(alts, model.AlternativeRecord{
			Name:     name,
			Barcode:  p.Code,
			ImageURL: p.Image(),
			Score:    gradeScore(grade),
			Summary:  fmt.Sprintf("Nutri-Score %s. A healthier, related option in its category.", grade),
			Link:     f.linkBase + p.Code,
		})
		if len(alts) >= maxAlternatives {
			break
		}
	}
	return alts
}

// Keywords extracts the relevance words of a product name: 4+ word characters,
// lower-cased, stopwords removed
func Keywords(name string) []string {
	var out []string
	for _, w := range wordPattern.FindAllString(name, -1) {
		w = strings.ToLower(w)
		if stopwords[w] {
			continue
		}
		out = append(out, w)
	}
	return out
}

func gradeScore(grade string) int {
	switch grade {
	case "A":
		return 95
	case "B":
		return 80
	default:
		return 60
	}
}

func containsAny(s string, words []string) bool {
	for _, w := range words {
		if strings.Contains(s, w) {
			return true
		}
	}
	return false
}

func reversed(in []string) []string {
	out := make([]string, len(in))
	for i, v := range in {
		out[len(in)-1-i] = v
	}
	return out
}
