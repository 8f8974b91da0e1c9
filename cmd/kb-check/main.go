// kb-check validates the embedded additive knowledge base and shows how the
// detector and scorer treat a few representative ingredient lists.
package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/ppiankov/foodguard/internal/additive"
	"github.com/ppiankov/foodguard/internal/detect"
	"github.com/ppiankov/foodguard/internal/model"
	"github.com/ppiankov/foodguard/internal/score"
)

func main() {
	fmt.Println("=== Additive Knowledge Base Check ===")
	fmt.Println()

	kb, err := additive.Default()
	if err != nil {
		fmt.Fprintf(os.Stderr, "✗ knowledge base failed to load: %v\n", err)
		os.Exit(1)
	}

	tiers := map[model.SafetyTier]int{}
	for _, rec := range kb.Records() {
		tiers[rec.Safety]++
	}
	fmt.Printf("Version:  %d\n", kb.Version())
	fmt.Printf("Records:  %d (danger %d, warning %d, safe %d)\n",
		len(kb.Records()), tiers[model.TierDanger], tiers[model.TierWarning], tiers[model.TierSafe])
	fmt.Printf("Keys:     %d\n", len(kb.Keys()))
	fmt.Println()

	samples := []struct {
		name        string
		tags        []string
		ingredients string
		nutrients   model.Nutrients
	}{
		{
			name:        "Cola drink",
			tags:        []string{"en:e150d", "en:e338"},
			ingredients: "agua carbonatada, azúcar, colorante caramelo sulfito, acido fosforico, aroma natural, cafeína",
			nutrients:   model.Nutrients{Sugars: 10.6},
		},
		{
			name:        "Cured ham",
			ingredients: "jamón de cerdo, sal, conservadores: E-250, E252, antioxidante: ascorbato sódico",
			nutrients:   model.Nutrients{Salt: 4.2, Fat: 12, Protein: 30},
		},
		{
			name:        "Sparkling water",
			ingredients: "agua mineral natural",
		},
	}

	detector := detect.NewDetector(kb)
	scorer := score.NewScorer()
	failed := false

	for _, s := range samples {
		fmt.Println(s.name)
		fmt.Println(strings.Repeat("-", 60))

		additives := detector.Detect(s.tags, s.ingredients)
		result := scorer.Calculate(s.nutrients, additives)

		for _, a := range additives {
			fmt.Printf("  %-7s %-32s %s\n", a.Trigger, a.Name, a.Safety)
		}
		if len(additives) == 0 {
			fmt.Println("  (no additives)")
		}
		fmt.Printf("  Score: %d/100\n", result.Value)

		// Detection must be stable under re-running
		again := detector.Detect(s.tags, s.ingredients)
		if strings.Join(detect.Codes(again), ",") != strings.Join(detect.Codes(additives), ",") {
			fmt.Println("  ✗ detection is not deterministic")
			failed = true
		}
		fmt.Println()
	}

	if failed {
		os.Exit(1)
	}
	fmt.Println("✓ Knowledge base OK")
}
