/*
Package enrich derives summary fields over the numeric entries of a telemetry
record.  The summary is attached to the stored record after insert, either
synchronously by the ingestion handler or later by the reprocessor.
*/
package enrich

import (
	"strconv"
	"strings"
)

// Only generated measurement fields take part in the summary.
const numericPrefix = "gen_"

/*
Summary holds the derived fields stored under _processingResult.  Avg is a
pointer so that a record with no numeric entries stores null rather than 0.
*/
type Summary struct {
	Count int      `json:"numeric_count" bson:"numeric_count"`
	Sum   float64  `json:"numeric_sum" bson:"numeric_sum"`
	Avg   *float64 `json:"numeric_avg" bson:"numeric_avg"`
}

/*
Summarize computes the numeric summary over every gen_* field of doc.
Numeric strings count as numbers; empty and non-numeric values are skipped.
*/
func Summarize(doc map[string]any) Summary {
	var s Summary
	for k, v := range doc {
		if !strings.HasPrefix(k, numericPrefix) {
			continue
		}
		if n, ok := toNumber(v); ok {
			s.Count++
			s.Sum += n
		}
	}

	if s.Count > 0 {
		avg := s.Sum / float64(s.Count)
		s.Avg = &avg
	}
	return s
}

// toNumber coerces JSON- and BSON-decoded values to float64.
func toNumber(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case string:
		trimmed := strings.TrimSpace(n)
		if trimmed == "" {
			return 0, false
		}
		f, err := strconv.ParseFloat(trimmed, 64)
		if err != nil {
			return 0, false
		}
		return f, true
	default:
		return 0, false
	}
}
