package telemetry

import (
	"fmt"

	"github.com/creamline/iotcore/pkg/model"
)

// Rule thresholds. All comparisons are strict, so a reading exactly at the
// threshold does not fire.
const (
	TemperatureThreshold = 4.0  // °C
	PressureThreshold    = 3.0  // bar
	BatteryThreshold     = 20.0 // %
	VFDTempThreshold     = 50.0 // °C
	TorqueThreshold      = 60.0 // N·m
)

// Draft is an in-memory, not-yet-persisted threshold breach.
type Draft struct {
	Type      model.AlertType
	Message   string
	Value     float64
	Threshold float64
}

// Evaluate runs the fixed rule set against the canonical channels and the
// raw payload. The rules are independent: every matching rule fires, every
// ingest, with no deduplication or hysteresis. Callers wanting rate limiting
// must layer it on top.
func Evaluate(ch Channels, payload map[string]interface{}) []Draft {
	drafts := make([]Draft, 0)

	if ch.Temperature != nil && *ch.Temperature > TemperatureThreshold {
		drafts = append(drafts, Draft{
			Type:      model.AlertTemperature,
			Message:   fmt.Sprintf("High Temperature detected: %g°C", *ch.Temperature),
			Value:     *ch.Temperature,
			Threshold: TemperatureThreshold,
		})
	}

	if ch.Pressure != nil && *ch.Pressure > PressureThreshold {
		drafts = append(drafts, Draft{
			Type:      model.AlertPressure,
			Message:   fmt.Sprintf("High Pressure detected: %g bar", *ch.Pressure),
			Value:     *ch.Pressure,
			Threshold: PressureThreshold,
		})
	}

	if ch.Battery != nil && *ch.Battery < BatteryThreshold {
		drafts = append(drafts, Draft{
			Type:      model.AlertBattery,
			Message:   fmt.Sprintf("Low Battery detected: %g%%", *ch.Battery),
			Value:     *ch.Battery,
			Threshold: BatteryThreshold,
		})
	}

	// Device-specific fields are read from the raw payload, not the
	// canonical channels.
	if vfdTemp := asNumber(payload["vfd_temp"]); vfdTemp != nil && *vfdTemp > VFDTempThreshold {
		drafts = append(drafts, Draft{
			Type:      model.AlertVFDTemp,
			Message:   fmt.Sprintf("VFD Overheating: %g°C", *vfdTemp),
			Value:     *vfdTemp,
			Threshold: VFDTempThreshold,
		})
	}

	if torque := asNumber(payload["torque"]); torque != nil && *torque > TorqueThreshold {
		drafts = append(drafts, Draft{
			Type:      model.AlertTorque,
			Message:   fmt.Sprintf("High Torque detected: %g Nm", *torque),
			Value:     *torque,
			Threshold: TorqueThreshold,
		})
	}

	return drafts
}
