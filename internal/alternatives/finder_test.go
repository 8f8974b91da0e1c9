package alternatives

import (
	"context"
	"errors"
	"reflect"
	"testing"

	"github.com/ppiankov/foodguard/internal/model"
)

type searchCall struct {
	category string
	grade    string
}

// fakeSearcher answers from a category/grade table and records every call
type fakeSearcher struct {
	results map[searchCall][]model.CatalogProduct
	errs    map[searchCall]error
	calls   []searchCall
}

func (s *fakeSearcher) SearchCategory(_ context.Context, category, grade string) ([]model.CatalogProduct, error) {
	call := searchCall{category, grade}
	s.calls = append(s.calls, call)
	if err := s.errs[call]; err != nil {
		return nil, err
	}
	return s.results[call], nil
}

func product(code, name, grade string) model.CatalogProduct {
	return model.CatalogProduct{Code: code, Name: name, NutritionGrade: grade}
}

func TestFind_MostSpecificFirst(t *testing.T) {
	searcher := &fakeSearcher{results: map[searchCall][]model.CatalogProduct{
		{"en:mayonnaises", "A"}: {product("111", "Light Mayo", "a")},
		{"en:sauces", "A"}:      {product("222", "Tomato Sauce", "a")},
	}}
	f := NewFinder(searcher, "https://example.org/p/", nil)

	alts := f.Find(context.Background(), []string{"en:sauces", "en:mayonnaises"}, "999", "Mayonesa")

	if len(alts) != 1 || alts[0].Barcode != "111" {
		t.Fatalf("Expected the mayonnaise alternative, got %+v", alts)
	}
	if alts[0].Score != 95 {
		t.Errorf("Expected score 95 for grade A, got %d", alts[0].Score)
	}
	if alts[0].Link != "https://example.org/p/111" {
		t.Errorf("Expected product link, got %s", alts[0].Link)
	}
	if len(searcher.calls) != 1 {
		t.Errorf("Expected a single search, got %v", searcher.calls)
	}
}

func TestFind_AtMostThreeAndNeverCurrent(t *testing.T) {
	searcher := &fakeSearcher{results: map[searchCall][]model.CatalogProduct{
		{"en:yogurts", "A"}: {
			product("999", "Same Yogurt", "a"),
			product("1", "Yogurt One", "a"),
			product("2", "Yogurt Two", "b"),
			product("3", "Yogurt Three", ""),
			product("4", "Yogurt Four", "a"),
		},
	}}
	f := NewFinder(searcher, "", nil)

	alts := f.Find(context.Background(), []string{"en:yogurts"}, "999", "Yogurt")

	if len(alts) != 3 {
		t.Fatalf("Expected 3 alternatives, got %d", len(alts))
	}
	for _, a := range alts {
		if a.Barcode == "999" {
			t.Error("Expected current barcode to be excluded")
		}
	}
	scores := []int{alts[0].Score, alts[1].Score, alts[2].Score}
	if !reflect.DeepEqual(scores, []int{95, 80, 80}) {
		t.Errorf("Expected scores [95 80 80] (missing grade is B), got %v", scores)
	}
}

func TestFind_SkipsUnnamedProducts(t *testing.T) {
	searcher := &fakeSearcher{results: map[searchCall][]model.CatalogProduct{
		{"en:juices", "A"}: {
			product("1", "", "a"),
			product("2", "unknown", "a"),
			{Code: "3", NameES: "Zumo de naranja", NutritionGrade: "c"},
		},
	}}
	f := NewFinder(searcher, "", nil)

	alts := f.Find(context.Background(), []string{"en:juices"}, "999", "")

	if len(alts) != 1 || alts[0].Name != "Zumo de naranja" {
		t.Fatalf("Expected the localized name fallback, got %+v", alts)
	}
	if alts[0].Score != 60 {
		t.Errorf("Expected score 60 for grade C, got %d", alts[0].Score)
	}
}

func TestFind_GradeOrder(t *testing.T) {
	searcher := &fakeSearcher{results: map[searchCall][]model.CatalogProduct{
		{"en:cookies", "C"}: {product("1", "Cookie", "c")},
	}}
	f := NewFinder(searcher, "", nil)

	alts := f.Find(context.Background(), []string{"en:cookies"}, "999", "Cookie")

	if len(alts) != 1 {
		t.Fatalf("Expected grade C result for the most specific category, got %+v", alts)
	}
	want := []searchCall{{"en:cookies", "A"}, {"en:cookies", "B"}, {"en:cookies", "C"}}
	if !reflect.DeepEqual(searcher.calls, want) {
		t.Errorf("Expected calls %v, got %v", want, searcher.calls)
	}
}

func TestFind_GradeCOnlyForMostSpecific(t *testing.T) {
	searcher := &fakeSearcher{results: map[searchCall][]model.CatalogProduct{
		{"en:biscuits", "C"}: {product("1", "Biscuit", "c")},
	}}
	f := NewFinder(searcher, "", nil)

	alts := f.Find(context.Background(), []string{"en:biscuits", "en:chocolate-biscuits"}, "999", "Biscuit")

	if len(alts) != 0 {
		t.Errorf("Expected no alternatives, got %+v", alts)
	}
	for _, c := range searcher.calls {
		if c.category == "en:biscuits" && c.grade == "C" {
			t.Error("Expected grade C to be queried only for the most specific category")
		}
	}
}

func TestFind_BroadSoleCategoryNoKeywordRequirement(t *testing.T) {
	searcher := &fakeSearcher{results: map[searchCall][]model.CatalogProduct{
		{"en:sauces", "A"}: {product("1", "Tomato Sauce", "a")},
	}}
	f := NewFinder(searcher, "", nil)

	alts := f.Find(context.Background(), []string{"en:sauces"}, "999", "Mayonesa Hellmann")

	if len(alts) != 1 {
		t.Errorf("Expected an unfiltered result for a sole broad category, got %+v", alts)
	}
}

func TestFind_BroadFallbackRequiresKeyword(t *testing.T) {
	searcher := &fakeSearcher{results: map[searchCall][]model.CatalogProduct{
		{"en:sauces", "A"}: {
			product("1", "Tomato Sauce", "a"),
			product("2", "Mayonesa ligera", "a"),
		},
	}}
	f := NewFinder(searcher, "", nil)

	// en:mayonnaises is tried first and returns nothing, en:sauces is the last candidate
	alts := f.Find(context.Background(), []string{"en:sauces", "en:mayonnaises"}, "999", "Mayonesa para ensalada")

	if len(alts) != 1 || alts[0].Barcode != "2" {
		t.Fatalf("Expected only the keyword match, got %+v", alts)
	}
}

func TestFind_BroadFirstOfManyRequiresKeyword(t *testing.T) {
	searcher := &fakeSearcher{results: map[searchCall][]model.CatalogProduct{
		{"en:sauces", "A"}: {product("222", "Tomato Sauce", "a")},
	}}
	f := NewFinder(searcher, "", nil)

	// en:sauces is the most specific candidate but not the only one
	alts := f.Find(context.Background(), []string{"en:condiments", "en:sauces"}, "999", "Mayonesa Hellmann")

	if len(alts) != 0 {
		t.Fatalf("Expected no unrelated alternatives, got %+v", alts)
	}
	if len(searcher.calls) == 0 || searcher.calls[0] != (searchCall{"en:sauces", "A"}) {
		t.Errorf("Expected en:sauces to be searched first, got %v", searcher.calls)
	}
}

func TestFind_BroadFirstOfManyKeepsKeywordMatch(t *testing.T) {
	searcher := &fakeSearcher{results: map[searchCall][]model.CatalogProduct{
		{"en:sauces", "A"}: {
			product("222", "Tomato Sauce", "a"),
			product("333", "Mayonesa ligera", "a"),
		},
	}}
	f := NewFinder(searcher, "", nil)

	alts := f.Find(context.Background(), []string{"en:condiments", "en:sauces"}, "999", "Mayonesa Hellmann")

	if len(alts) != 1 || alts[0].Barcode != "333" {
		t.Fatalf("Expected only the keyword match, got %+v", alts)
	}
}

func TestFind_SkipsBroadWhenMoreCandidatesRemain(t *testing.T) {
	searcher := &fakeSearcher{results: map[searchCall][]model.CatalogProduct{
		{"en:snacks", "A"}:        {product("1", "Chips", "a")},
		{"en:potato-crisps", "A"}: {product("2", "Potato Crisps", "a")},
	}}
	f := NewFinder(searcher, "", nil)

	// Reversed: en:chips-special, en:snacks (broad, skipped), en:potato-crisps
	alts := f.Find(context.Background(), []string{"en:potato-crisps", "en:snacks", "en:chips-special"}, "999", "Chips")

	if len(alts) != 1 || alts[0].Barcode != "2" {
		t.Fatalf("Expected the result from en:potato-crisps, got %+v", alts)
	}
	for _, c := range searcher.calls {
		if c.category == "en:snacks" {
			t.Error("Expected broad category to be skipped")
		}
	}
}

func TestFind_SearchErrorsAreSwallowed(t *testing.T) {
	searcher := &fakeSearcher{
		results: map[searchCall][]model.CatalogProduct{
			{"en:cereals", "B"}: {product("1", "Oat Cereal", "b")},
		},
		errs: map[searchCall]error{
			{"en:cereals", "A"}: errors.New("boom"),
		},
	}
	f := NewFinder(searcher, "", nil)

	alts := f.Find(context.Background(), []string{"en:cereals"}, "999", "Cereal")

	if len(alts) != 1 || alts[0].Score != 80 {
		t.Fatalf("Expected grade B result after grade A error, got %+v", alts)
	}
}

func TestFind_NoCategories(t *testing.T) {
	f := NewFinder(&fakeSearcher{}, "", nil)

	alts := f.Find(context.Background(), nil, "999", "Anything")
	if alts == nil || len(alts) != 0 {
		t.Errorf("Expected empty non-nil list, got %v", alts)
	}
}

func TestKeywords(t *testing.T) {
	got := Keywords("Salsa para Pasta con Jamón")
	want := []string{"salsa", "pasta", "jamón"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Expected %v, got %v", want, got)
	}
}
