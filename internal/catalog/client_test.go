package catalog

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/ppiankov/foodguard/internal/cache"
	"github.com/ppiankov/foodguard/internal/model"
)

const productJSON = `{
	"status": 1,
	"product": {
		"code": "8410000810004",
		"product_name": "Galletas María",
		"ingredients_text_es": "Harina de <span class=\"allergen\">trigo</span>, azúcar, E-500",
		"nutriments": {"sugars_100g": 22, "salt_100g": "0,8", "fat_100g": 11.5, "energy_unit": "kcal"},
		"nutrient_levels": {"sugars": "high", "salt": "moderate"},
		"additives_tags": ["en:e500"],
		"categories_tags": ["en:snacks", "en:biscuits"]
	}
}`

func noSleep(t *testing.T) *[]time.Duration {
	t.Helper()
	var slept []time.Duration
	orig := fetchSleepFunc
	fetchSleepFunc = func(_ context.Context, d time.Duration) error {
		slept = append(slept, d)
		return nil
	}
	t.Cleanup(func() { fetchSleepFunc = orig })
	return &slept
}

func testClient(baseURL string, c cache.Cache) *Client {
	cfg := model.DefaultConfig()
	cfg.Catalog.BaseURL = baseURL
	cfg.Catalog.FetchTimeout = 2 * time.Second
	cfg.Catalog.SearchTimeout = 2 * time.Second
	cfg.HTTP.UserAgent = "FoodGuard-Test/1.0"
	return NewClient(cfg, c, nil, nil)
}

func TestFetchProduct_Success(t *testing.T) {
	var gotUA, gotPath string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUA = r.Header.Get("User-Agent")
		gotPath = r.URL.Path
		w.Header().Set("Content-Type", "application/json")
		_, _ = fmt.Fprint(w, productJSON)
	}))
	defer server.Close()

	client := testClient(server.URL, nil)
	snap, err := client.FetchProduct(context.Background(), "8410000810004")
	if err != nil {
		t.Fatalf("FetchProduct failed: %v", err)
	}

	if gotUA != "FoodGuard-Test/1.0" {
		t.Errorf("Expected configured User-Agent, got %q", gotUA)
	}
	if gotPath != "/api/v0/product/8410000810004.json" {
		t.Errorf("Expected product path, got %s", gotPath)
	}
	if snap.Name != "Galletas María" {
		t.Errorf("Expected product name, got %q", snap.Name)
	}
	if snap.IngredientsText != "harina de trigo, azúcar, e-500" {
		t.Errorf("Expected stripped lower-cased ingredients, got %q", snap.IngredientsText)
	}
	if snap.Nutrients.Sugars != 22 || snap.Nutrients.Salt != 0.8 || snap.Nutrients.Fat != 11.5 {
		t.Errorf("Expected parsed nutrients, got %+v", snap.Nutrients)
	}
	if len(snap.Categories) != 2 || snap.Categories[1] != "en:biscuits" {
		t.Errorf("Expected categories in catalog order, got %v", snap.Categories)
	}
}

func TestFetchProduct_NotFound(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
	}{
		{
			name: "status zero",
			handler: func(w http.ResponseWriter, r *http.Request) {
				_, _ = fmt.Fprint(w, `{"status": 0, "status_verbose": "product not found"}`)
			},
		},
		{
			name: "http 404",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusNotFound)
			},
		},
		{
			name: "string status",
			handler: func(w http.ResponseWriter, r *http.Request) {
				_, _ = fmt.Fprint(w, `{"status": "0", "product": {}}`)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			slept := noSleep(t)
			var requests atomic.Int32
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				requests.Add(1)
				tt.handler(w, r)
			}))
			defer server.Close()

			_, err := testClient(server.URL, nil).FetchProduct(context.Background(), "000")
			if !errors.Is(err, ErrNotFound) {
				t.Fatalf("Expected ErrNotFound, got %v", err)
			}
			if requests.Load() != 1 {
				t.Errorf("Expected no retries for a missing product, got %d requests", requests.Load())
			}
			if len(*slept) != 0 {
				t.Errorf("Expected no sleeps, got %v", *slept)
			}
		})
	}
}

func TestFetchProduct_TransientThenSuccess(t *testing.T) {
	slept := noSleep(t)
	var requests atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if requests.Add(1) < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		_, _ = fmt.Fprint(w, productJSON)
	}))
	defer server.Close()

	snap, err := testClient(server.URL, nil).FetchProduct(context.Background(), "8410000810004")
	if err != nil {
		t.Fatalf("Expected success after transient errors, got %v", err)
	}
	if snap.Name != "Galletas María" {
		t.Errorf("Expected product name, got %q", snap.Name)
	}
	if requests.Load() != 3 {
		t.Errorf("Expected 3 requests, got %d", requests.Load())
	}
	if len(*slept) != 2 || (*slept)[0] != time.Second {
		t.Errorf("Expected two fixed 1s delays, got %v", *slept)
	}
}

func TestFetchProduct_AllRetriesExhausted(t *testing.T) {
	noSleep(t)
	var requests atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests.Add(1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	_, err := testClient(server.URL, nil).FetchProduct(context.Background(), "123")
	if !errors.Is(err, ErrUnavailable) {
		t.Fatalf("Expected ErrUnavailable, got %v", err)
	}
	if requests.Load() != 3 {
		t.Errorf("Expected 3 attempts, got %d", requests.Load())
	}
}

func TestFetchProduct_429Retried(t *testing.T) {
	noSleep(t)
	var requests atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if requests.Add(1) == 1 {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		_, _ = fmt.Fprint(w, productJSON)
	}))
	defer server.Close()

	if _, err := testClient(server.URL, nil).FetchProduct(context.Background(), "123"); err != nil {
		t.Fatalf("Expected 429 to be retried, got %v", err)
	}
	if requests.Load() != 2 {
		t.Errorf("Expected 2 requests, got %d", requests.Load())
	}
}

func TestFetchProduct_MalformedJSONRetried(t *testing.T) {
	noSleep(t)
	var requests atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests.Add(1)
		_, _ = fmt.Fprint(w, `{"status": 1, "product":`)
	}))
	defer server.Close()

	_, err := testClient(server.URL, nil).FetchProduct(context.Background(), "123")
	if !errors.Is(err, ErrUnavailable) {
		t.Fatalf("Expected ErrUnavailable, got %v", err)
	}
	if requests.Load() != 3 {
		t.Errorf("Expected 3 attempts, got %d", requests.Load())
	}
}

func TestFetchProduct_ContextCanceled(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = fmt.Fprint(w, productJSON)
	}))
	defer server.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := testClient(server.URL, nil).FetchProduct(ctx, "123")
	if !errors.Is(err, context.Canceled) {
		t.Errorf("Expected context.Canceled, got %v", err)
	}
}

func TestFetchProduct_Cached(t *testing.T) {
	var requests atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests.Add(1)
		_, _ = fmt.Fprint(w, productJSON)
	}))
	defer server.Close()

	client := testClient(server.URL, cache.NewMemoryCache(time.Minute, 0))
	for i := 0; i < 3; i++ {
		if _, err := client.FetchProduct(context.Background(), "8410000810004"); err != nil {
			t.Fatalf("FetchProduct failed: %v", err)
		}
	}

	if requests.Load() != 1 {
		t.Errorf("Expected a single catalog request, got %d", requests.Load())
	}
}

func TestFetchProduct_NotFoundIsNotCached(t *testing.T) {
	var requests atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests.Add(1)
		_, _ = fmt.Fprint(w, `{"status": 0}`)
	}))
	defer server.Close()

	client := testClient(server.URL, cache.NewMemoryCache(time.Minute, 0))
	_, _ = client.FetchProduct(context.Background(), "000")
	_, _ = client.FetchProduct(context.Background(), "000")

	if requests.Load() != 2 {
		t.Errorf("Expected misses to hit the catalog every time, got %d requests", requests.Load())
	}
}

func TestSearchCategory(t *testing.T) {
	var query map[string]string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/cgi/search.pl" {
			t.Errorf("Expected search path, got %s", r.URL.Path)
		}
		query = map[string]string{}
		for k := range r.URL.Query() {
			query[k] = r.URL.Query().Get(k)
		}
		_, _ = fmt.Fprint(w, `{"products": [
			{"code": "1", "product_name": "Yogur natural", "nutrition_grades": "a", "image_front_url": "https://img/1.jpg"},
			{"code": "2", "product_name_es": "Yogur griego", "nutrition_grades": "a"}
		]}`)
	}))
	defer server.Close()

	products, err := testClient(server.URL, nil).SearchCategory(context.Background(), "en:yogurts", "A")
	if err != nil {
		t.Fatalf("SearchCategory failed: %v", err)
	}

	want := map[string]string{
		"action":         "process",
		"tagtype_0":      "categories",
		"tag_contains_0": "contains",
		"tag_0":          "en:yogurts",
		"tagtype_1":      "nutrition_grades",
		"tag_contains_1": "contains",
		"tag_1":          "A",
		"json":           "true",
		"page_size":      "30",
		"sort_by":        "unique_scans_n",
	}
	for k, v := range want {
		if query[k] != v {
			t.Errorf("Expected %s=%s, got %q", k, v, query[k])
		}
	}

	if len(products) != 2 {
		t.Fatalf("Expected 2 products, got %d", len(products))
	}
	if products[0].Image() != "https://img/1.jpg" || products[1].DisplayName() != "Yogur griego" {
		t.Errorf("Expected decoded summaries, got %+v", products)
	}
}

func TestSearchCategory_Error(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	if _, err := testClient(server.URL, nil).SearchCategory(context.Background(), "en:yogurts", "A"); err == nil {
		t.Error("Expected an error for a failed search")
	}
}

func TestIsRetryable(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"transport", errors.New("fetch: connection refused"), true},
		{"500", &statusError{code: 500}, true},
		{"503 wrapped", fmt.Errorf("get: %w", &statusError{code: 503}), true},
		{"429", &statusError{code: 429}, true},
		{"403", &statusError{code: 403}, false},
		{"not found", ErrNotFound, false},
		{"wrapped not found", fmt.Errorf("%w: 404", ErrNotFound), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := isRetryable(tt.err); got != tt.want {
				t.Errorf("Expected %v, got %v", tt.want, got)
			}
		})
	}
}
