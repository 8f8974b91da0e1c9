package additive

import (
	_ "embed"
	"fmt"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/ppiankov/foodguard/internal/model"
	"gopkg.in/yaml.v3"
)

//go:embed data/additives.yaml
var embeddedData []byte

var (
	loadDefaultOnce sync.Once
	defaultBase     *KnowledgeBase
	defaultErr      error
)

var digitsPattern = regexp.MustCompile(`\d+`)

type document struct {
	Version  int          `yaml:"version"`
	Records  []recordYAML `yaml:"records"`
	Fallback fallbackYAML `yaml:"fallback"`
	Tips     []string     `yaml:"tips"`
}

type recordYAML struct {
	model.AdditiveRecord `yaml:",inline"`
	Keys                 []string `yaml:"keys"`
	Lookup               []string `yaml:"lookup"`
}

type fallbackYAML struct {
	Unknown bandYAML   `yaml:"unknown"`
	Other   bandYAML   `yaml:"other"`
	Bands   []bandYAML `yaml:"bands"`
}

type bandYAML struct {
	model.AdditiveRecord `yaml:",inline"`
	Min                  int    `yaml:"min"`
	Max                  int    `yaml:"max"`
	NamePrefix           string `yaml:"name_prefix"`
}

// KnowledgeBase is the read-only additive reference table.
// All lookups return copies.
type KnowledgeBase struct {
	version int
	byCode  map[string]model.AdditiveRecord // upper-cased code
	byKey   map[string]model.AdditiveRecord // lowercase synonym
	keys    []string                        // synonyms in curated order
	records []model.AdditiveRecord          // curated order
	unknown bandYAML
	other   bandYAML
	bands   []bandYAML
	tips    []string
}

// Default returns the knowledge base decoded from the embedded data, loaded once
func Default() (*KnowledgeBase, error) {
	loadDefaultOnce.Do(func() {
		defaultBase, defaultErr = Load(embeddedData)
	})
	return defaultBase, defaultErr
}

// MustDefault is Default for callers that cannot proceed without reference data
func MustDefault() *KnowledgeBase {
	kb, err := Default()
	if err != nil {
		panic(fmt.Sprintf("additive knowledge base: %v", err))
	}
	return kb
}

// Load decodes a knowledge base document
func Load(raw []byte) (*KnowledgeBase, error) {
	var doc document
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("decode additive data: %w", err)
	}
	if len(doc.Records) == 0 {
		return nil, fmt.Errorf("additive data has no records")
	}

	kb := &KnowledgeBase{
		version: doc.Version,
		byCode:  make(map[string]model.AdditiveRecord),
		byKey:   make(map[string]model.AdditiveRecord),
	}

	for i, rec := range doc.Records {
		r := rec.AdditiveRecord
		r.Code = strings.TrimSpace(r.Code)
		if r.Code == "" {
			return nil, fmt.Errorf("record %d: code is required", i)
		}
		if !r.Safety.Valid() {
			return nil, fmt.Errorf("record %s: invalid safety tier %q", r.Code, r.Safety)
		}
		kb.records = append(kb.records, r)

		for _, key := range rec.Keys {
			key = strings.ToLower(strings.TrimSpace(key))
			if key == "" {
				continue
			}
			if _, exists := kb.byKey[key]; exists {
				return nil, fmt.Errorf("duplicate synonym key %q", key)
			}
			kb.byKey[key] = r
			kb.keys = append(kb.keys, key)
		}
		for _, code := range rec.Lookup {
			code = strings.ToUpper(strings.TrimSpace(code))
			if code == "" {
				continue
			}
			if _, exists := kb.byCode[code]; exists {
				return nil, fmt.Errorf("duplicate lookup code %q", code)
			}
			kb.byCode[code] = r
		}
	}

	kb.unknown = doc.Fallback.Unknown
	kb.other = doc.Fallback.Other
	kb.bands = doc.Fallback.Bands
	for _, tip := range doc.Tips {
		if tip = strings.TrimSpace(tip); tip != "" {
			kb.tips = append(kb.tips, tip)
		}
	}
	for _, b := range append([]bandYAML{kb.unknown, kb.other}, kb.bands...) {
		if !b.Safety.Valid() {
			return nil, fmt.Errorf("fallback %q: invalid safety tier %q", b.NamePrefix, b.Safety)
		}
	}
	for i, b := range kb.bands {
		if b.Min > b.Max {
			return nil, fmt.Errorf("fallback band %d: min %d above max %d", i, b.Min, b.Max)
		}
	}

	return kb, nil
}

// Version returns the data version of the loaded document
func (kb *KnowledgeBase) Version() int {
	return kb.version
}

// TipFor returns the health tip for the day of year of t. Tips rotate, so the
// same calendar day always gets the same tip.
func (kb *KnowledgeBase) TipFor(t time.Time) (string, bool) {
	if len(kb.tips) == 0 {
		return "", false
	}
	return kb.tips[t.YearDay()%len(kb.tips)], true
}

// LookupByCode resolves a code (case-insensitive) to its curated record
func (kb *KnowledgeBase) LookupByCode(code string) (model.AdditiveRecord, bool) {
	rec, ok := kb.byCode[strings.ToUpper(strings.TrimSpace(code))]
	if !ok {
		return model.AdditiveRecord{}, false
	}
	return rec.Clone(), true
}

// LookupByName resolves an exact synonym key (case-insensitive)
func (kb *KnowledgeBase) LookupByName(name string) (model.AdditiveRecord, bool) {
	rec, ok := kb.byKey[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return model.AdditiveRecord{}, false
	}
	return rec.Clone(), true
}

// Keys returns the synonym keys in curated order
func (kb *KnowledgeBase) Keys() []string {
	return append([]string(nil), kb.keys...)
}

// Records returns every curated record in curated order
func (kb *KnowledgeBase) Records() []model.AdditiveRecord {
	out := make([]model.AdditiveRecord, len(kb.records))
	for i, r := range kb.records {
		out[i] = r.Clone()
	}
	return out
}

// Search resolves a free-form query: code (an "E" prefix is added when missing),
// hyphenated code, substring of a synonym or name, and finally the fallback
// classifier when the query carries digits.
func (kb *KnowledgeBase) Search(query string) (model.AdditiveRecord, bool) {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return model.AdditiveRecord{}, false
	}

	code := q
	if !strings.HasPrefix(code, "e") {
		code = "e" + code
	}
	code = strings.ToUpper(code)
	if rec, ok := kb.LookupByCode(code); ok {
		return rec, true
	}
	if rec, ok := kb.LookupByCode("E-" + strings.ToUpper(q)); ok {
		return rec, true
	}

	for _, key := range kb.keys {
		rec := kb.byKey[key]
		if strings.Contains(key, q) || strings.Contains(strings.ToLower(rec.Name), q) {
			return rec.Clone(), true
		}
	}

	if digitsPattern.MatchString(q) {
		return kb.ClassifyFallback(code), true
	}
	return model.AdditiveRecord{}, false
}
