// Package telemetry normalizes heterogeneous device payloads into canonical
// measurement channels and evaluates the plant threshold rules against them.
package telemetry

// Channels holds the four canonical measurements extracted from a raw
// payload. A nil field means the payload carried no usable value for it.
type Channels struct {
	Temperature *float64
	Humidity    *float64
	Pressure    *float64
	Battery     *float64
}

// Synonym keys in priority order. The first key that coerces to a finite
// number wins; later synonyms are never consulted once one resolves.
var temperatureKeys = []string{
	"temperature",
	"temp",
	"milk_temp",
	"outlet_temp",
	"inlet_temp",
	"heater_temp",
	"ambient_temp",
	"evaporator_temp",
	"oil_temp",
}

var pressureKeys = []string{
	"pressure",
	"pressure_in",
	"pressure_out",
	"suction_pressure",
	"discharge_pressure",
	"oil_pressure",
}

// Normalize extracts the canonical channels from a raw payload. It is total:
// any input yields a result, values that do not coerce to a finite number
// are treated as absent.
func Normalize(payload map[string]interface{}) Channels {
	return Channels{
		Temperature: firstNumber(payload, temperatureKeys),
		Humidity:    asNumber(payload["humidity"]),
		Pressure:    firstNumber(payload, pressureKeys),
		Battery:     asNumber(payload["battery"]),
	}
}

func firstNumber(payload map[string]interface{}, keys []string) *float64 {
	for _, k := range keys {
		if n := asNumber(payload[k]); n != nil {
			return n
		}
	}
	return nil
}
