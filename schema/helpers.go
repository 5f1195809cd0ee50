package schema

import (
	"encoding/json"
	"fmt"
	"maps"
	"math"
)

// FormatDuration renders seconds as "Xh Ym", dropping leftover seconds.
func FormatDuration(seconds float64) string {
	if seconds < 0 || math.IsNaN(seconds) {
		seconds = 0
	}
	total := int64(seconds)
	hours := total / 3600
	minutes := (total % 3600) / 60
	return fmt.Sprintf("%dh %dm", hours, minutes)
}

// FlattenObject collapses nested maps into a single level with dotted keys.
func FlattenObject(obj map[string]any, prefix string) map[string]any {
	result := make(map[string]any)
	for key, value := range obj {
		newKey := key
		if prefix != "" {
			newKey = prefix + "." + key
		}
		if nested, ok := value.(map[string]any); ok {
			maps.Copy(result, FlattenObject(nested, newKey))
			continue
		}
		result[newKey] = value
	}
	return result
}

// FlattenReport returns the report as dotted key/value pairs for single-line logging.
func FlattenReport(report Report) (map[string]any, error) {
	raw, err := json.Marshal(report)
	if err != nil {
		return nil, err
	}
	var obj map[string]any
	if err := json.Unmarshal(raw, &obj); err != nil {
		return nil, err
	}
	return FlattenObject(obj, ""), nil
}
