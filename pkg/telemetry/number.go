package telemetry

import (
	"encoding/json"
	"math"
	"strconv"
)

// asNumber coerces v to a finite float64. JSON decoding hands us float64 or
// json.Number for numerics and string for quoted readings; everything else
// is absent. Never an error: a bad value simply yields nil.
func asNumber(v interface{}) *float64 {
	var n float64

	switch t := v.(type) {
	case float64:
		n = t
	case float32:
		n = float64(t)
	case int:
		n = float64(t)
	case int32:
		n = float64(t)
	case int64:
		n = float64(t)
	case json.Number:
		f, err := t.Float64()
		if err != nil {
			return nil
		}
		n = f
	case string:
		f, err := strconv.ParseFloat(t, 64)
		if err != nil {
			return nil
		}
		n = f
	default:
		return nil
	}

	if math.IsNaN(n) || math.IsInf(n, 0) {
		return nil
	}

	return &n
}
