package score

import (
	"fmt"

	"github.com/ppiankov/foodguard/internal/model"
)

const (
	baseScore = 80
	minScore  = 5
	maxScore  = 100

	dangerCap  = 44
	warningCap = 74
)

// Scorer calculates the product health score and generates signals
type Scorer struct{}

// NewScorer creates a new scorer
func NewScorer() *Scorer {
	return &Scorer{}
}

// Calculate scores a product from its nutrients and detected additives.
// Order: base, nutrient penalties, nutrient bonuses, additive penalty, tier cap, range clamp.
func (s *Scorer) Calculate(n model.Nutrients, additives []model.DetectedAdditive) model.Score {
	signals := []model.Signal{{
		Type:        model.SignalBase,
		Severity:    model.SeverityInfo,
		Description: fmt.Sprintf("Base score: %d", baseScore),
		Data:        map[string]interface{}{"score": baseScore},
	}}
	total := baseScore

	// 1. Nutrient penalties
	penalty, penaltySignals := s.nutrientPenalties(n)
	total -= penalty
	signals = append(signals, penaltySignals...)

	// 2. Nutrient bonuses
	bonus, bonusSignals := s.nutrientBonuses(n)
	total += bonus
	signals = append(signals, bonusSignals...)

	// 3. Additive penalty
	additivePenalty, hasDanger, hasWarning, additiveSignal := s.additivePenalty(additives)
	if additivePenalty > 0 {
		total -= additivePenalty
		signals = append(signals, additiveSignal)
	}

	// 4. Tier cap
	if capped, capSignal := s.tierCap(total, hasDanger, hasWarning); capped != total {
		total = capped
		signals = append(signals, capSignal)
	}

	// 5. Range clamp
	if clamped, clampSignal := s.clamp(total); clamped != total {
		total = clamped
		signals = append(signals, clampSignal)
	}

	return model.Score{
		Value:        total,
		FiberLevel:   level(n.Fiber > 4),
		ProteinLevel: level(n.Protein > 10),
		Signals:      signals,
	}
}

// nutrientPenalties applies the per-100g excess thresholds
func (s *Scorer) nutrientPenalties(n model.Nutrients) (int, []model.Signal) {
	rules := []struct {
		name      string
		value     float64
		threshold float64
		points    int
	}{
		{"sugars", n.Sugars, 12, 20},
		{"salt", n.Salt, 1.2, 20},
		{"fat", n.Fat, 18, 15},
	}

	total := 0
	var signals []model.Signal
	for _, r := range rules {
		if r.value <= r.threshold {
			continue
		}
		total += r.points
		signals = append(signals, model.Signal{
			Type:        model.SignalNutrientPenalty,
			Severity:    model.SeverityWarning,
			Description: fmt.Sprintf("High %s: %gg/100g (-%d)", r.name, r.value, r.points),
			Data: map[string]interface{}{
				"nutrient":  r.name,
				"value":     r.value,
				"threshold": r.threshold,
				"points":    -r.points,
				"formula":   fmt.Sprintf("%s > %g => -%d", r.name, r.threshold, r.points),
			},
		})
	}
	return total, signals
}

// nutrientBonuses rewards low sugar and salt, fiber and protein
func (s *Scorer) nutrientBonuses(n model.Nutrients) (int, []model.Signal) {
	total := 0
	var signals []model.Signal

	bonus := func(points int, description, formula string, data map[string]interface{}) {
		total += points
		data["points"] = points
		data["formula"] = formula
		signals = append(signals, model.Signal{
			Type:        model.SignalNutrientBonus,
			Severity:    model.SeverityInfo,
			Description: description,
			Data:        data,
		})
	}

	if n.Sugars < 2 && n.Salt < 0.4 {
		bonus(10, "Low sugar and salt (+10)", "sugars < 2 && salt < 0.4 => +10",
			map[string]interface{}{"sugars": n.Sugars, "salt": n.Salt})
	}
	if n.Fiber > 5 {
		bonus(5, fmt.Sprintf("Rich in fiber: %gg/100g (+5)", n.Fiber), "fiber > 5 => +5",
			map[string]interface{}{"fiber": n.Fiber})
	}
	if n.Protein > 10 {
		bonus(5, fmt.Sprintf("Rich in protein: %gg/100g (+5)", n.Protein), "protein > 10 => +5",
			map[string]interface{}{"protein": n.Protein})
	}
	return total, signals
}

// additivePenalty sums the tier penalties of all detected additives
func (s *Scorer) additivePenalty(additives []model.DetectedAdditive) (int, bool, bool, model.Signal) {
	dangerCount := 0
	warningCount := 0
	penalty := 0

	for _, a := range additives {
		switch a.Safety {
		case model.TierDanger:
			dangerCount++
		case model.TierWarning:
			warningCount++
		case model.TierSafe:
		}
		penalty += a.Safety.Penalty()
	}

	severity := model.SeverityWarning
	if dangerCount > 0 {
		severity = model.SeverityCritical
	}

	return penalty, dangerCount > 0, warningCount > 0, model.Signal{
		Type:        model.SignalAdditivePenalty,
		Severity:    severity,
		Description: fmt.Sprintf("Additives: %d danger, %d warning (-%d)", dangerCount, warningCount, penalty),
		Data: map[string]interface{}{
			"danger":  dangerCount,
			"warning": warningCount,
			"points":  -penalty,
			"formula": "danger*40 + warning*20",
		},
	}
}

// tierCap limits the score by the worst additive tier present
func (s *Scorer) tierCap(score int, hasDanger, hasWarning bool) (int, model.Signal) {
	limit := 0
	tier := ""
	switch {
	case hasDanger:
		limit, tier = dangerCap, string(model.TierDanger)
	case hasWarning:
		limit, tier = warningCap, string(model.TierWarning)
	default:
		return score, model.Signal{}
	}

	if score <= limit {
		return score, model.Signal{}
	}

	return limit, model.Signal{
		Type:        model.SignalTierCap,
		Severity:    model.SeverityWarning,
		Description: fmt.Sprintf("Score capped at %d (%s additive present)", limit, tier),
		Data: map[string]interface{}{
			"tier":    tier,
			"before":  score,
			"cap":     limit,
			"formula": fmt.Sprintf("min(score, %d)", limit),
		},
	}
}

// clamp keeps the final score within [5,100]
func (s *Scorer) clamp(score int) (int, model.Signal) {
	clamped := score
	if clamped < minScore {
		clamped = minScore
	}
	if clamped > maxScore {
		clamped = maxScore
	}
	if clamped == score {
		return score, model.Signal{}
	}

	return clamped, model.Signal{
		Type:        model.SignalRangeClamp,
		Severity:    model.SeverityInfo,
		Description: fmt.Sprintf("Score clamped from %d to %d", score, clamped),
		Data: map[string]interface{}{
			"before":  score,
			"after":   clamped,
			"formula": fmt.Sprintf("max(%d, min(score, %d))", minScore, maxScore),
		},
	}
}

func level(high bool) string {
	if high {
		return "high"
	}
	return "low"
}
