package memory

// Context bags round-trip through JSON, so numbers come back as float64
// while freshly-built bags still hold native ints. These helpers coerce
// either representation.

func contextFloat(context map[string]any, key string, fallback float64) float64 {
	if context == nil {
		return fallback
	}
	switch v := context[key].(type) {
	case float64:
		return v
	case float32:
		return float64(v)
	case int:
		return float64(v)
	case int64:
		return float64(v)
	default:
		return fallback
	}
}

func contextInt(context map[string]any, key string, fallback int) int {
	if context == nil {
		return fallback
	}
	switch v := context[key].(type) {
	case int:
		return v
	case int64:
		return int(v)
	case float64:
		return int(v)
	case float32:
		return int(v)
	default:
		return fallback
	}
}

func contextString(context map[string]any, key, fallback string) string {
	if context == nil {
		return fallback
	}
	if v, ok := context[key].(string); ok && v != "" {
		return v
	}
	return fallback
}
