package ice

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// Metrics are the numbers read from an ICE result document.
type Metrics struct {
	EditPercent float64 // "ice"
	FitQuality  float64 // "rsq"
}

// ParseResult reads the edit percentage and fit quality from raw, which may
// be a JSON document (string or bytes) or an already decoded object.
// Missing or null values read as zero.
func ParseResult(raw any) (Metrics, error) {
	var doc map[string]any
	switch v := raw.(type) {
	case map[string]any:
		doc = v
	case string:
		if err := json.Unmarshal([]byte(v), &doc); err != nil {
			return Metrics{}, fmt.Errorf("decode result: %w", err)
		}
	case []byte:
		if err := json.Unmarshal(v, &doc); err != nil {
			return Metrics{}, fmt.Errorf("decode result: %w", err)
		}
	default:
		return Metrics{}, fmt.Errorf("unsupported result type %T", raw)
	}
	if doc == nil {
		return Metrics{}, fmt.Errorf("result is not an object")
	}

	edit, err := number(doc["ice"])
	if err != nil {
		return Metrics{}, fmt.Errorf("ice: %w", err)
	}
	fit, err := number(doc["rsq"])
	if err != nil {
		return Metrics{}, fmt.Errorf("rsq: %w", err)
	}
	return Metrics{EditPercent: edit, FitQuality: fit}, nil
}

func number(v any) (float64, error) {
	switch n := v.(type) {
	case nil:
		return 0, nil
	case float64:
		return n, nil
	case float32:
		return float64(n), nil
	case int:
		return float64(n), nil
	case int64:
		return float64(n), nil
	case json.Number:
		return n.Float64()
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		if err != nil {
			return 0, fmt.Errorf("not a number: %q", n)
		}
		return f, nil
	default:
		return 0, fmt.Errorf("not a number: %v (%T)", v, v)
	}
}

// InRange reports whether m holds a plausible percentage and fit.
func (m Metrics) InRange() (editOK, fitOK bool) {
	return m.EditPercent >= 0 && m.EditPercent <= 100, m.FitQuality >= 0 && m.FitQuality <= 1
}
