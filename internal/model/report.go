package model

// Status is the overall verdict of an analysis
type Status string

const (
	StatusSafe    Status = "SAFE"
	StatusWarning Status = "WARNING"
	StatusError   Status = "ERROR" // Product not found in the catalog
)

// AnalysisResult is the complete verdict for one product
type AnalysisResult struct {
	Status          Status              `json:"status"`
	Barcode         string              `json:"barcode,omitempty"`
	ProductName     string              `json:"product_name"`
	ImageURL        string              `json:"image_url,omitempty"`
	Score           int                 `json:"score"`       // [5,100], 0 when Status is ERROR
	Matches         []string            `json:"matches"`     // Dietary violations, in category order
	IngredientsText string              `json:"ingredients"` // Lowercased ingredient list
	NutrientLevels  map[string]string   `json:"nutrients"`   // Qualitative hints incl. fiber/proteins
	NutrientValues  map[string]float64  `json:"nutriments"`  // Raw per-100g values
	Additives       []DetectedAdditive  `json:"additives"`   // Unique by trigger code
	Categories      []string            `json:"categories"`
	Alternatives    []AlternativeRecord `json:"alternatives"` // Only filled on explicit request

	// Signals explains how the score was reached; never serialized
	Signals []Signal `json:"-"`
}

// NotFoundResult is the terminal result for a barcode absent from the catalog
func NotFoundResult(barcode string) *AnalysisResult {
	return &AnalysisResult{
		Status:         StatusError,
		Barcode:        barcode,
		ProductName:    "Not found",
		Score:          0,
		Matches:        []string{},
		NutrientLevels: map[string]string{},
		NutrientValues: map[string]float64{},
		Additives:      []DetectedAdditive{},
		Categories:     []string{},
		Alternatives:   []AlternativeRecord{},
	}
}

// AlternativeRecord is a healthier same-category product suggestion
type AlternativeRecord struct {
	Name     string `json:"name"`
	Barcode  string `json:"barcode"`
	ImageURL string `json:"image_url,omitempty"`
	Score    int    `json:"score"` // 95 (A), 80 (B), 60 (other)
	Summary  string `json:"summary"`
	Link     string `json:"link"`
}

// Score is the scorer output with its transparent breakdown
type Score struct {
	Value        int      `json:"value"`
	FiberLevel   string   `json:"fiber_level"`   // "high" or "low"
	ProteinLevel string   `json:"protein_level"` // "high" or "low"
	Signals      []Signal `json:"signals"`
}

// Signal records one scoring step with the data that produced it
type Signal struct {
	Type        SignalType             `json:"type"`
	Severity    SignalSeverity         `json:"severity"`
	Description string                 `json:"description"`
	Data        map[string]interface{} `json:"data,omitempty"`
}

// SignalType classifies a scoring step
type SignalType string

const (
	SignalBase            SignalType = "base"
	SignalNutrientPenalty SignalType = "nutrient_penalty"
	SignalNutrientBonus   SignalType = "nutrient_bonus"
	SignalAdditivePenalty SignalType = "additive_penalty"
	SignalTierCap         SignalType = "tier_cap"
	SignalRangeClamp      SignalType = "range_clamp"
)

// SignalSeverity indicates the importance of the signal
type SignalSeverity string

const (
	SeverityInfo     SignalSeverity = "info"
	SeverityWarning  SignalSeverity = "warning"
	SeverityCritical SignalSeverity = "critical"
)
