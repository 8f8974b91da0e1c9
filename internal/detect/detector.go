package detect

import (
	"regexp"
	"strings"
	"unicode"

	"github.com/ppiankov/foodguard/internal/additive"
	"github.com/ppiankov/foodguard/internal/model"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// E-number mentions: "E330", "e-330", "E 150d"
var eCodePattern = regexp.MustCompile(`[eE][-\s]?(\d{3,4}[a-z]?)`)

// aromaTerm also covers "aromatizante"
const aromaTerm = "aroma"

// Detector finds additives in a product from its declared tags and ingredient text
type Detector struct {
	kb *additive.KnowledgeBase
}

// NewDetector creates a detector backed by the given knowledge base
func NewDetector(kb *additive.KnowledgeBase) *Detector {
	return &Detector{kb: kb}
}

// Detect runs the tag, synonym, pattern and implicit-term passes in that order.
// A code claimed by an earlier pass is never reported again.
func (d *Detector) Detect(tagCodes []string, ingredientsText string) []model.DetectedAdditive {
	found := make([]model.DetectedAdditive, 0)
	claimed := make(map[string]bool)

	add := func(trigger string, rec model.AdditiveRecord) {
		found = append(found, model.DetectedAdditive{AdditiveRecord: rec, Trigger: trigger})
		claimed[trigger] = true
	}

	// Declared tags are authoritative
	for _, tag := range tagCodes {
		code := NormalizeTag(tag)
		if code == "" || claimed[code] {
			continue
		}
		rec, ok := d.kb.LookupByCode(code)
		if !ok {
			rec = d.kb.ClassifyFallback(code)
		}
		add(code, rec)
	}

	text := Normalize(ingredientsText)
	if text != "" {
		for _, key := range d.kb.Keys() {
			rec, _ := d.kb.LookupByName(key)
			code := strings.ToUpper(rec.Code)
			if claimed[code] {
				continue
			}
			if strings.Contains(text, key) {
				add(code, rec)
			}
		}

		for _, m := range eCodePattern.FindAllStringSubmatch(text, -1) {
			suffix := strings.ToUpper(m[1])
			code := "E" + suffix
			if claimed[code] {
				continue
			}
			rec, ok := d.kb.LookupByCode(code)
			if !ok {
				rec, ok = d.kb.LookupByCode("E-" + suffix)
			}
			if !ok {
				rec = d.kb.ClassifyFallback(code)
			}
			add(code, rec)
		}
	}

	if strings.Contains(text, aromaTerm) && !claimed[model.AromaCode] {
		if rec, ok := d.kb.LookupByCode(model.AromaCode); ok {
			add(model.AromaCode, rec)
		}
	}

	return found
}

// Codes returns the trigger codes of detected additives, in detection order
func Codes(additives []model.DetectedAdditive) []string {
	codes := make([]string, len(additives))
	for i, a := range additives {
		codes[i] = a.Trigger
	}
	return codes
}

// NormalizeTag turns a catalog tag such as "en:e330" into "E330"
func NormalizeTag(tag string) string {
	tag = strings.TrimSpace(tag)
	if i := strings.LastIndex(tag, ":"); i >= 0 {
		tag = tag[i+1:]
	}
	return strings.ToUpper(tag)
}

// Normalize lower-cases text and folds diacritics ("monosódico" -> "monosodico")
func Normalize(text string) string {
	if text == "" {
		return ""
	}
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(t, text)
	if err != nil {
		folded = text
	}
	return strings.ToLower(folded)
}
