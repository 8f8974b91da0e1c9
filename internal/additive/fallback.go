package additive

import (
	"strconv"
	"strings"

	"github.com/ppiankov/foodguard/internal/model"
)

// ClassifyFallback builds a record for a code with no curated entry.
// The classification is driven by the numeric range of the first digit run
// in the code; it never fails and always returns a fresh record.
func (kb *KnowledgeBase) ClassifyFallback(code string) model.AdditiveRecord {
	code = strings.ToUpper(strings.TrimSpace(code))

	digits := digitsPattern.FindString(code)
	if digits == "" {
		return kb.unknown.build(code)
	}
	num, err := strconv.Atoi(digits)
	if err != nil {
		return kb.other.build(code)
	}
	for _, band := range kb.bands {
		if num >= band.Min && num <= band.Max {
			return band.build(code)
		}
	}
	return kb.other.build(code)
}

func (b bandYAML) build(code string) model.AdditiveRecord {
	rec := b.AdditiveRecord.Clone()
	rec.Code = code
	rec.Name = strings.TrimSpace(b.NamePrefix + " " + code)
	return rec
}
