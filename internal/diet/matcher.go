package diet

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/ppiankov/foodguard/internal/detect"
	"github.com/ppiankov/foodguard/internal/model"
)

const (
	highFatThreshold   = 17.5
	highSugarThreshold = 22.5
	riskyScore         = 40
)

// Restriction is one dietary category with the ingredient tokens that violate it
type Restriction struct {
	Key    string
	Label  string
	Tokens []string
}

// Restrictions is the fixed category table, in reporting order.
// Tokens target Spanish-market labels.
var Restrictions = []Restriction{
	{Key: "gluten", Label: "Gluten", Tokens: []string{"trigo", "cebada", "centeno", "avena", "espelta", "malta", "gluten"}},
	{Key: "lactose", Label: "Lactose", Tokens: []string{"leche", "suero", "caseina", "nata", "mantequilla", "queso", "lactosa", "lácteos"}},
	{Key: "sugar", Label: "Sugar", Tokens: []string{"azúcar", "jarabe", "dextrosa", "fructosa", "melaza", "sacarosa"}},
	{Key: "nuts", Label: "Nuts", Tokens: []string{"cacahuete", "almendra", "avellana", "nuez", "anacardo", "pistacho", "frutos de cáscara"}},
	{Key: "palm_oil", Label: "Palm oil", Tokens: []string{"palma", "palmiste"}},
	{Key: "vegetarian", Label: "Not vegetarian", Tokens: []string{"carne", "pollo", "cerdo", "ternera", "pescado", "marisco", "gelatina", "grasas animales"}},
	{Key: "vegan", Label: "Not vegan", Tokens: []string{"carne", "pollo", "cerdo", "ternera", "pescado", "marisco", "gelatina", "huevo", "leche", "miel", "queso", "mantequilla"}},
	{Key: "msg", Label: "MSG", Tokens: []string{"glutamato", "e621", "e-621", "msg", "monosodium glutamate", "potenciador del sabor"}},
}

// additiveChecks flags a category when the detector found a specific code
var additiveChecks = map[string]string{
	"msg":     "E621",
	"lactose": "E966",
}

// Matcher reports dietary violations for a product
type Matcher struct {
	restrictions []Restriction
}

// NewMatcher creates a matcher over the built-in restriction table
func NewMatcher() *Matcher {
	return &Matcher{restrictions: Restrictions}
}

// Match returns the violations of the active restrictions, in category order,
// followed by the numeric fat and sugar alerts.
func (m *Matcher) Match(ingredientsText string, detectedCodes []string, n model.Nutrients, settings model.DietarySettings) []string {
	matches := make([]string, 0)
	if len(settings) == 0 {
		return matches
	}

	text := strings.ToLower(ingredientsText)
	folded := detect.Normalize(ingredientsText)
	codes := make(map[string]bool, len(detectedCodes))
	for _, c := range detectedCodes {
		codes[strings.ToUpper(c)] = true
	}

	violated := make(map[string]bool)
	for _, r := range m.restrictions {
		if !Active(settings, r.Key) {
			continue
		}

		if text != "" {
			if token, ok := firstToken(r, text, folded); ok {
				matches = append(matches, fmt.Sprintf("%s: detected '%s'", r.Label, token))
				violated[r.Key] = true
			}
		}

		if code, ok := additiveChecks[r.Key]; ok && codes[code] && !violated[r.Key] {
			matches = append(matches, fmt.Sprintf("%s: additive %s detected", r.Label, code))
			violated[r.Key] = true
		}
	}

	if Active(settings, "fat") && n.Fat > highFatThreshold {
		matches = append(matches, fmt.Sprintf("Fat: very high level (%sg/100g)", formatValue(n.Fat)))
	}
	if Active(settings, "sugar") && !violated["sugar"] && n.Sugars > highSugarThreshold {
		matches = append(matches, fmt.Sprintf("Sugar: very high level (%sg/100g)", formatValue(n.Sugars)))
	}

	return matches
}

// firstToken returns the first token of r present in the text
func firstToken(r Restriction, text, folded string) (string, bool) {
	for _, token := range r.Tokens {
		if !strings.Contains(text, token) && !strings.Contains(folded, detect.Normalize(token)) {
			continue
		}
		// "trigo sarraceno" is buckwheat, not wheat
		if r.Key == "gluten" && token == "trigo" && strings.Contains(folded, "trigo sarraceno") {
			continue
		}
		return token, true
	}
	return "", false
}

// Active reports whether a restriction is enabled under any accepted spelling:
// "<key>", "<key>_free", "no_<key>" or "low_<key>"
func Active(settings model.DietarySettings, key string) bool {
	return settings.AnyEnabled(key, key+"_free", "no_"+key, "low_"+key)
}

// Verdict is WARNING when any restriction is violated or the score is risky
func Verdict(matches []string, score int) model.Status {
	if len(matches) > 0 || score < riskyScore {
		return model.StatusWarning
	}
	return model.StatusSafe
}

func formatValue(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
