package model

import (
	"strings"
)

// DietarySettings maps restriction keys to boolean-ish values as users store them
// (true, "1", "yes", 1, ...). Hyphens and underscores are interchangeable in keys.
type DietarySettings map[string]any

// Enabled reports whether key holds a truthy value
func (s DietarySettings) Enabled(key string) bool {
	if len(s) == 0 {
		return false
	}
	want := normalizeSettingKey(key)
	for k, v := range s {
		if normalizeSettingKey(k) == want && truthy(v) {
			return true
		}
	}
	return false
}

// AnyEnabled reports whether at least one of keys is truthy
func (s DietarySettings) AnyEnabled(keys ...string) bool {
	for _, k := range keys {
		if s.Enabled(k) {
			return true
		}
	}
	return false
}

func normalizeSettingKey(k string) string {
	return strings.ReplaceAll(strings.ToLower(strings.TrimSpace(k)), "-", "_")
}

func truthy(v any) bool {
	switch x := v.(type) {
	case nil:
		return false
	case bool:
		return x
	case string:
		switch strings.ToLower(strings.TrimSpace(x)) {
		case "", "0", "false", "no", "off":
			return false
		}
		return true
	case int:
		return x != 0
	case int64:
		return x != 0
	case float64:
		return x != 0
	case float32:
		return x != 0
	default:
		return true
	}
}
