package pipeline

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/ppiankov/foodguard/internal/model"
)

// Renderer writes analysis output as JSON or a terminal summary
type Renderer struct {
	verbose bool
}

// NewRenderer creates a renderer. Verbose summaries include the score breakdown.
func NewRenderer(verbose bool) *Renderer {
	return &Renderer{verbose: verbose}
}

// RenderJSON writes v as indented JSON
func (r *Renderer) RenderJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("encode JSON: %w", err)
	}
	return nil
}

// WriteJSONFile writes v as indented JSON to path, creating parent directories
func (r *Renderer) WriteJSONFile(v any, path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("create output directory: %w", err)
		}
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if err := r.RenderJSON(f, v); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}

// RenderSummary prints a human-readable verdict
func (r *Renderer) RenderSummary(w io.Writer, result *model.AnalysisResult) {
	if result.Status == model.StatusError {
		fmt.Fprintf(w, "✗ %s: %s\n", result.Barcode, result.ProductName)
		return
	}

	icon := "✓"
	if result.Status == model.StatusWarning {
		icon = "⚠"
	}

	fmt.Fprintf(w, "%s %s (%s)\n", icon, result.ProductName, result.Barcode)
	fmt.Fprintf(w, "  Status: %s   Score: %d/100\n", result.Status, result.Score)

	if len(result.Matches) > 0 {
		fmt.Fprintln(w, "\n  Dietary matches:")
		for _, m := range result.Matches {
			fmt.Fprintf(w, "    - %s\n", m)
		}
	}

	if len(result.Additives) > 0 {
		fmt.Fprintf(w, "\n  Additives (%d):\n", len(result.Additives))
		for _, a := range result.Additives {
			fmt.Fprintf(w, "    - %-6s %-28s [%s] %s\n", a.Trigger, a.Name, a.Safety, a.Harm)
		}
	}

	if len(result.NutrientLevels) > 0 {
		keys := make([]string, 0, len(result.NutrientLevels))
		for k := range result.NutrientLevels {
			keys = append(keys, k)
		}
		sort.Strings(keys)

		parts := make([]string, 0, len(keys))
		for _, k := range keys {
			parts = append(parts, k+" "+result.NutrientLevels[k])
		}
		fmt.Fprintf(w, "\n  Nutrients: %s\n", strings.Join(parts, ", "))
	}

	if r.verbose && len(result.Signals) > 0 {
		fmt.Fprintln(w, "\n  Score breakdown:")
		for _, s := range result.Signals {
			fmt.Fprintf(w, "    [%s] %s\n", s.Type, s.Description)
		}
	}

	if len(result.Alternatives) > 0 {
		fmt.Fprintln(w)
		r.RenderAlternatives(w, result.Alternatives)
	}
}

// RenderAlternatives prints alternative suggestions
func (r *Renderer) RenderAlternatives(w io.Writer, alts []model.AlternativeRecord) {
	if len(alts) == 0 {
		fmt.Fprintln(w, "  No healthier alternatives found.")
		return
	}

	fmt.Fprintln(w, "  Healthier alternatives:")
	for i, a := range alts {
		fmt.Fprintf(w, "    %d. %s (%s) score %d\n", i+1, a.Name, a.Barcode, a.Score)
		fmt.Fprintf(w, "       %s\n", a.Summary)
		if a.Link != "" {
			fmt.Fprintf(w, "       %s\n", a.Link)
		}
	}
}

// RenderAdditive prints one additive profile
func (r *Renderer) RenderAdditive(w io.Writer, rec model.AdditiveRecord) {
	fmt.Fprintf(w, "%s  %s  [%s]\n", rec.Code, rec.Name, rec.Safety)
	fmt.Fprintf(w, "  Harm:    %s\n", rec.Harm)
	if rec.HarmDetail != "" {
		fmt.Fprintf(w, "           %s\n", rec.HarmDetail)
	}
	if len(rec.RiskProfile) > 0 {
		fmt.Fprintf(w, "  Risk:    %s\n", strings.Join(rec.RiskProfile, ", "))
	}
	if rec.ADIWarning != "" {
		fmt.Fprintf(w, "  ADI:     %s\n", rec.ADIWarning)
	}
	if rec.Study != "" {
		fmt.Fprintf(w, "  Study:   %s\n", rec.Study)
	}
	if rec.StudyDetail != "" {
		fmt.Fprintf(w, "           %s\n", rec.StudyDetail)
	}
}

// RenderHistory prints history entries, newest first
func (r *Renderer) RenderHistory(w io.Writer, entries []model.HistoryEntry) {
	if len(entries) == 0 {
		fmt.Fprintln(w, "No history yet.")
		return
	}
	for _, e := range entries {
		fmt.Fprintf(w, "%s  %-8s %3d  %s  %s\n",
			e.Timestamp.Local().Format("2006-01-02 15:04"), e.Status, e.Score, e.Barcode, e.ProductName)
	}
}

// RenderStats prints history statistics
func (r *Renderer) RenderStats(w io.Writer, username string, stats model.HistoryStats) {
	fmt.Fprintf(w, "History for %s\n", username)
	fmt.Fprintf(w, "  Total:    %d\n", stats.Total)
	fmt.Fprintf(w, "  Average:  %d/100\n", stats.Average)
	fmt.Fprintf(w, "  Safe:     %d\n", stats.Safe)
	fmt.Fprintf(w, "  Warning:  %d\n", stats.Warning)
}
