package model

import (
	"fmt"
	"slices"
	"strings"
)

// SafetyTier is the coarse risk classification of an additive
type SafetyTier string

const (
	TierSafe    SafetyTier = "safe"    // No known adverse effect at normal intake
	TierWarning SafetyTier = "warning" // Limited risk, ultra-processing marker
	TierDanger  SafetyTier = "danger"  // Documented harm or regulatory alert
)

// Penalty returns the score points deducted for one additive of this tier
func (t SafetyTier) Penalty() int {
	switch t {
	case TierDanger:
		return 40
	case TierWarning:
		return 20
	default:
		return 0
	}
}

// Valid reports whether t is one of the three known tiers
func (t SafetyTier) Valid() bool {
	switch t {
	case TierSafe, TierWarning, TierDanger:
		return true
	}
	return false
}

// MarshalText implements encoding.TextMarshaler
func (t SafetyTier) MarshalText() ([]byte, error) {
	if !t.Valid() {
		return nil, fmt.Errorf("invalid safety tier %q", string(t))
	}
	return []byte(t), nil
}

// UnmarshalText implements encoding.TextUnmarshaler and rejects unknown tiers
func (t *SafetyTier) UnmarshalText(text []byte) error {
	tier := SafetyTier(strings.ToLower(strings.TrimSpace(string(text))))
	if !tier.Valid() {
		return fmt.Errorf("invalid safety tier %q (want safe, warning or danger)", string(text))
	}
	*t = tier
	return nil
}

// AdditiveRecord is the clinical profile of a food additive
type AdditiveRecord struct {
	Code        string     `json:"code" yaml:"code"`                                     // Canonical identifier (e.g., "E171")
	Name        string     `json:"name" yaml:"name"`                                     // Display name
	Safety      SafetyTier `json:"safety" yaml:"safety"`                                 // safe, warning, danger
	Harm        string     `json:"harm" yaml:"harm"`                                     // One-line harm summary
	HarmDetail  string     `json:"harm_detail,omitempty" yaml:"harm_detail,omitempty"`   // Mechanism, when documented
	RiskProfile []string   `json:"risk_profile" yaml:"risk_profile"`                     // Free-text risk tags
	ADIWarning  string     `json:"adi_warning" yaml:"adi_warning"`                       // Acceptable Daily Intake note
	Study       string     `json:"study" yaml:"study"`                                   // Reference study or agency opinion
	StudyDetail string     `json:"study_detail,omitempty" yaml:"study_detail,omitempty"` // Study summary, when documented
}

// Clone returns a deep copy so callers can never alter shared reference data
func (r AdditiveRecord) Clone() AdditiveRecord {
	r.RiskProfile = slices.Clone(r.RiskProfile)
	return r
}

// DetectedAdditive is an additive found in a product, tagged with the code that triggered it
type DetectedAdditive struct {
	AdditiveRecord
	Trigger string `json:"trigger"`
}

// AromaCode is the pseudo-code used for generic flavorings with undisclosed composition
const AromaCode = "AROMA"
