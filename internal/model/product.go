package model

// Nutrients holds the per-100g values used by scoring and dietary alerts.
// Missing catalog values are zero.
type Nutrients struct {
	Sugars  float64 `json:"sugars"`
	Salt    float64 `json:"salt"`
	Fat     float64 `json:"fat"`
	Fiber   float64 `json:"fiber"`
	Protein float64 `json:"protein"`
}

// ProductSnapshot is the catalog view of a product at analysis time
type ProductSnapshot struct {
	Barcode         string             `json:"barcode"`
	Name            string             `json:"name"`
	ImageURL        string             `json:"image_url,omitempty"`
	IngredientsText string             `json:"ingredients_text"` // Lowercased, best locale variant
	Nutrients       Nutrients          `json:"nutrients"`
	NutrientValues  map[string]float64 `json:"nutrient_values"` // Every numeric catalog nutriment
	NutrientLevels  map[string]string  `json:"nutrient_levels"` // Qualitative hints (low/moderate/high)
	AdditiveTags    []string           `json:"additive_tags"`   // Raw declared codes, e.g. "en:e330"
	Categories      []string           `json:"categories"`      // Most specific last
}

// CatalogProduct is a product summary returned by a category search
type CatalogProduct struct {
	Code           string `json:"code"`
	Name           string `json:"product_name"`
	NameES         string `json:"product_name_es"`
	NutritionGrade string `json:"nutrition_grades"`
	ImageFrontURL  string `json:"image_front_url"`
	ImageURL       string `json:"image_url"`
}

// DisplayName returns the first non-empty localized name
func (p CatalogProduct) DisplayName() string {
	if p.Name != "" {
		return p.Name
	}
	return p.NameES
}

// Image returns the front image, falling back to the generic one
func (p CatalogProduct) Image() string {
	if p.ImageFrontURL != "" {
		return p.ImageFrontURL
	}
	return p.ImageURL
}
