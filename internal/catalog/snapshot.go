package catalog

import (
	"encoding/json"
	"io"
	"math"
	"strconv"
	"strings"

	"golang.org/x/net/html"

	"github.com/ppiankov/foodguard/internal/model"
)

const unknownName = "Unknown"

// productResponse is the body of GET /api/v0/product/{barcode}.json
type productResponse struct {
	Status  any              `json:"status"`
	Product *productDocument `json:"product"`
}

func (r *productResponse) found() bool {
	return r.Product != nil && extractFloat(r.Status) != 0
}

type productDocument struct {
	Code              string         `json:"code"`
	ProductName       string         `json:"product_name"`
	ProductNameES     string         `json:"product_name_es"`
	ImageFrontURL     string         `json:"image_front_url"`
	IngredientsTextES string         `json:"ingredients_text_es"`
	IngredientsText   string         `json:"ingredients_text"`
	IngredientsTextEN string         `json:"ingredients_text_en"`
	Nutriments        map[string]any `json:"nutriments"`
	NutrientLevels    map[string]any `json:"nutrient_levels"`
	AdditivesTags     []string       `json:"additives_tags"`
	CategoriesTags    []string       `json:"categories_tags"`
}

// searchResponse is the body of GET /cgi/search.pl?json=true
type searchResponse struct {
	Products []model.CatalogProduct `json:"products"`
}

func decodeProduct(body []byte) (*productResponse, error) {
	var resp productResponse
	if err := decodeJSON(body, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func decodeJSON(body []byte, v any) error {
	return json.Unmarshal(body, v)
}

// buildSnapshot maps a catalog document to the fields the analysis needs
func buildSnapshot(barcode string, doc *productDocument) *model.ProductSnapshot {
	snap := &model.ProductSnapshot{
		Barcode:         barcode,
		Name:            firstNonEmpty(doc.ProductName, doc.ProductNameES, unknownName),
		ImageURL:        doc.ImageFrontURL,
		IngredientsText: strings.ToLower(stripMarkup(firstNonEmpty(doc.IngredientsTextES, doc.IngredientsText, doc.IngredientsTextEN))),
		NutrientValues:  make(map[string]float64),
		NutrientLevels:  make(map[string]string),
		AdditiveTags:    append([]string{}, doc.AdditivesTags...),
		Categories:      append([]string{}, doc.CategoriesTags...),
	}

	for key, raw := range doc.Nutriments {
		if v, ok := toFloat(raw); ok {
			snap.NutrientValues[key] = v
		}
	}
	for key, raw := range doc.NutrientLevels {
		if s, ok := raw.(string); ok {
			snap.NutrientLevels[key] = s
		}
	}

	snap.Nutrients = model.Nutrients{
		Sugars:  snap.NutrientValues["sugars_100g"],
		Salt:    snap.NutrientValues["salt_100g"],
		Fat:     snap.NutrientValues["fat_100g"],
		Fiber:   snap.NutrientValues["fiber_100g"],
		Protein: snap.NutrientValues["proteins_100g"],
	}

	return snap
}

// extractFloat coerces a JSON number or numeric string; anything else is 0
func extractFloat(v any) float64 {
	f, _ := toFloat(v)
	return f
}

func toFloat(v any) (float64, bool) {
	var f float64
	switch x := v.(type) {
	case float64:
		f = x
	case json.Number:
		parsed, err := x.Float64()
		if err != nil {
			return 0, false
		}
		f = parsed
	case int:
		f = float64(x)
	case string:
		s := strings.ReplaceAll(strings.TrimSpace(x), ",", ".")
		parsed, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return 0, false
		}
		f = parsed
	default:
		return 0, false
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

// stripMarkup returns the text content of an HTML fragment, entities decoded.
// Catalog ingredient lists wrap allergens in <span> tags.
func stripMarkup(s string) string {
	if s == "" {
		return ""
	}

	var b strings.Builder
	z := html.NewTokenizer(strings.NewReader(s))
	for {
		switch z.Next() {
		case html.ErrorToken:
			if z.Err() == io.EOF {
				return strings.Join(strings.Fields(b.String()), " ")
			}
			return s
		case html.TextToken:
			b.Write(z.Text())
		case html.StartTagToken, html.EndTagToken, html.SelfClosingTagToken:
			// tags are dropped; block-level breaks keep words apart
			if name, _ := z.TagName(); string(name) == "br" || string(name) == "p" {
				b.WriteByte(' ')
			}
		}
	}
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
