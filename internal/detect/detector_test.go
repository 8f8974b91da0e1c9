package detect

import (
	"reflect"
	"testing"

	"github.com/ppiankov/foodguard/internal/additive"
	"github.com/ppiankov/foodguard/internal/model"
)

func newTestDetector(t *testing.T) *Detector {
	t.Helper()
	kb, err := additive.Default()
	if err != nil {
		t.Fatalf("Failed to load knowledge base: %v", err)
	}
	return NewDetector(kb)
}

func TestDetect_TagPass(t *testing.T) {
	d := newTestDetector(t)

	found := d.Detect([]string{"en:e171", "en:e999", "fr:e330"}, "")

	want := []string{"E171", "E999", "E330"}
	if got := Codes(found); !reflect.DeepEqual(got, want) {
		t.Fatalf("Expected %v, got %v", want, got)
	}
	if found[0].Safety != model.TierDanger {
		t.Errorf("Expected E171 to be danger, got %s", found[0].Safety)
	}
	if found[1].Safety != model.TierWarning {
		t.Errorf("Expected E999 fallback to be warning, got %s", found[1].Safety)
	}
	if found[2].Safety != model.TierSafe {
		t.Errorf("Expected E330 to be safe, got %s", found[2].Safety)
	}
}

func TestDetect_DeduplicatesTagAndText(t *testing.T) {
	d := newTestDetector(t)

	found := d.Detect(
		[]string{"en:e621"},
		"Harina, glutamato monosódico (E621), sal",
	)

	count := 0
	for _, a := range found {
		if a.Trigger == "E621" {
			count++
		}
	}
	if count != 1 {
		t.Errorf("Expected E621 exactly once, got %d in %v", count, Codes(found))
	}
}

func TestDetect_RangeRecordOncePerTrigger(t *testing.T) {
	d := newTestDetector(t)

	found := d.Detect([]string{"en:e410", "en:e412"}, "goma, e 415, e412")

	want := []string{"E410", "E412", "E415"}
	if got := Codes(found); !reflect.DeepEqual(got, want) {
		t.Fatalf("Expected one entry per trigger %v, got %v", want, got)
	}
	for _, a := range found {
		if a.Code != "E410-E415" {
			t.Errorf("Expected %s to resolve to the E410-E415 record, got %s", a.Trigger, a.Code)
		}
	}
}

func TestDetect_SynonymPassFoldsAccents(t *testing.T) {
	d := newTestDetector(t)

	found := d.Detect(nil, "Agua, ÁCIDO CÍTRICO, dióxido de titanio")

	want := []string{"E171", "E330"}
	if got := Codes(found); !reflect.DeepEqual(got, want) {
		t.Errorf("Expected %v, got %v", want, got)
	}
}

func TestDetect_PatternPass(t *testing.T) {
	d := newTestDetector(t)

	tests := []struct {
		name string
		text string
		want []string
	}{
		{"plain", "azucar, e330", []string{"E330"}},
		{"hyphen", "colorante e-150d", []string{"E150D"}},
		{"space", "emulgente E 471", []string{"E471"}},
		{"four digits", "e1422", []string{"E1422"}},
		{"repeated", "e202, e202", []string{"E202"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Codes(d.Detect(nil, tt.text))
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Expected %v, got %v", tt.want, got)
			}
		})
	}
}

func TestDetect_PatternSkipsSynonymClaim(t *testing.T) {
	d := newTestDetector(t)

	found := d.Detect(nil, "caramelo sulfito (e150d)")
	if len(found) != 1 {
		t.Fatalf("Expected one additive, got %v", Codes(found))
	}
	if found[0].Code != "E150d" {
		t.Errorf("Expected curated E150d record, got %s", found[0].Code)
	}
}

func TestDetect_ImplicitAroma(t *testing.T) {
	d := newTestDetector(t)

	found := d.Detect(nil, "agua, aromatizantes naturales")
	if len(found) != 1 || found[0].Trigger != model.AromaCode {
		t.Fatalf("Expected AROMA only, got %v", Codes(found))
	}
	if found[0].Safety != model.TierWarning {
		t.Errorf("Expected warning, got %s", found[0].Safety)
	}

	found = d.Detect([]string{"en:aroma"}, "aroma natural")
	if got := Codes(found); !reflect.DeepEqual(got, []string{"AROMA"}) {
		t.Errorf("Expected a single AROMA entry, got %v", got)
	}
}

func TestDetect_Idempotent(t *testing.T) {
	d := newTestDetector(t)

	tags := []string{"en:e330", "en:e471"}
	text := "leche, azúcar, carragenano, E407, aroma, e-250, sorbato de potasio"

	first := d.Detect(tags, text)
	second := d.Detect(tags, text)

	if !reflect.DeepEqual(first, second) {
		t.Errorf("Expected identical results, got %v and %v", Codes(first), Codes(second))
	}
}

func TestDetect_EmptyInput(t *testing.T) {
	d := newTestDetector(t)

	found := d.Detect(nil, "")
	if found == nil || len(found) != 0 {
		t.Errorf("Expected empty non-nil slice, got %v", found)
	}
}

func TestNormalizeTag(t *testing.T) {
	tests := map[string]string{
		"en:e330":  "E330",
		"e150d":    "E150D",
		" fr:e4 ":  "E4",
		"a:b:e100": "E100",
		"":         "",
	}
	for in, want := range tests {
		if got := NormalizeTag(in); got != want {
			t.Errorf("NormalizeTag(%q): expected %q, got %q", in, want, got)
		}
	}
}
