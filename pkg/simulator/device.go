package simulator

import (
	"math"
	"math/rand"

	"github.com/gorilla/websocket"
)

var fleet = []struct {
	id   string
	kind string
}{
	{"BMC-01", "BMC"},
	{"PAST-01", "PAST"},
	{"HOMO-01", "HOMO"},
	{"CHILL-01", "CHILL"},
	{"CIP-01", "CIP"},
	{"FLOW-01", "FLOW"},
	{"TANK-01", "TANK"},
	{"VAC-01", "VAC"},
	{"VALVE-01", "VALVE"},
	{"CONV-01", "CONV"},
}

type device struct {
	id    string
	kind  string
	state map[string]float64
	conn  *websocket.Conn
}

// drift walks a stored reading by a bounded random step, clamped to its range.
func (d *device) drift(rnd *rand.Rand, key string, min, max, step float64) float64 {
	v, ok := d.state[key]
	if !ok {
		v = (min + max) / 2
	}
	v += (rnd.Float64() - 0.5) * step
	if v < min {
		v = min
	}
	if v > max {
		v = max
	}
	d.state[key] = v
	return v
}

func round1(v float64) float64 { return math.Round(v*10) / 10 }
func round2(v float64) float64 { return math.Round(v*100) / 100 }

func (d *device) generate(rnd *rand.Rand) map[string]interface{} {
	p := map[string]interface{}{
		"temp":     round1(d.drift(rnd, "temp", 0, 4, 0.1)),
		"humidity": round1(d.drift(rnd, "humidity", 50, 90, 1.0)),
		"pressure": round2(d.drift(rnd, "pressure", 1, 3, 0.05)),
		"battery":  round1(d.drift(rnd, "battery", 50, 100, 0.2)),
	}

	switch d.kind {
	case "BMC":
		milk := d.drift(rnd, "milk_temp", 0, 4, 0.1)
		running := milk > 3.5
		p["milk_temp"] = round1(milk)
		p["ambient_temp"] = round1(d.drift(rnd, "ambient_temp", 20, 30, 0.2))
		p["evaporator_temp"] = round1(d.drift(rnd, "evaporator_temp", -10, 0, 0.3))
		p["compressor_status"] = running
		p["tank_level"] = round1(d.drift(rnd, "tank_level", 10, 90, 0.5))
		if running {
			p["stirrer_rpm"] = 40
		} else {
			p["stirrer_rpm"] = 0
		}
	case "PAST":
		p["inlet_temp"] = round1(d.drift(rnd, "inlet_temp", 0, 4, 0.1))
		p["heater_temp"] = round1(d.drift(rnd, "heater_temp", 72, 75, 0.2))
		p["outlet_temp"] = round1(d.drift(rnd, "outlet_temp", 71, 74, 0.2))
		p["flow_rate"] = round1(d.drift(rnd, "flow_rate", 800, 1200, 2.0))
		p["holding_time_s"] = 16
		p["pump_status"] = true
		p["state"] = "HOLDING"
	case "HOMO":
		p["rpm"] = int(d.drift(rnd, "rpm", 1500, 1800, 2.0))
		p["pressure_in"] = round1(d.drift(rnd, "pressure_in", 4, 6, 0.1))
		p["pressure_out"] = round1(d.drift(rnd, "pressure_out", 150, 200, 2.0))
		p["temperature"] = round1(d.drift(rnd, "homo_temp", 40, 60, 0.5))
		p["oil_temp"] = round1(d.drift(rnd, "oil_temp", 35, 45, 0.2))
	case "CHILL":
		p["suction_pressure"] = round1(d.drift(rnd, "suction_pressure", 1, 3, 0.1))
		p["discharge_pressure"] = round1(d.drift(rnd, "discharge_pressure", 10, 15, 0.2))
		p["refrigerant_temp"] = round1(d.drift(rnd, "refrigerant_temp", 0, 10, 0.2))
		p["oil_pressure"] = round1(d.drift(rnd, "oil_pressure", 2, 4, 0.1))
		p["state"] = "RUNNING"
	case "CIP":
		p["chemical_conc"] = round2(d.drift(rnd, "chemical_conc", 1.0, 2.0, 0.05))
		p["pump_flow"] = round1(d.drift(rnd, "pump_flow", 110, 130, 1.0))
		p["temp"] = round1(d.drift(rnd, "cip_temp", 60, 70, 0.5))
		p["pump_status"] = true
		p["state"] = "RUNNING"
	case "FLOW":
		flow := d.drift(rnd, "instant_flow", 400, 600, 2.0)
		if d.state["cum_volume"] == 0 {
			d.state["cum_volume"] = 10000
		}
		d.state["cum_volume"] += flow / 60
		p["instant_flow"] = round1(flow)
		p["cum_volume"] = round1(d.state["cum_volume"])
		p["state"] = "OK"
	case "TANK":
		p["level"] = round1(d.drift(rnd, "level", 20, 80, 0.5))
		p["milk_temp"] = round1(d.drift(rnd, "milk_temp", 0, 4, 0.1))
		p["agitator_status"] = true
		p["state"] = "HOLDING"
	case "VAC":
		p["vacuum_level"] = round1(d.drift(rnd, "vacuum_level", -70, -50, 0.5))
		p["motor_current"] = round1(d.drift(rnd, "motor_current", 11, 14, 0.1))
		p["oil_temp"] = round1(d.drift(rnd, "oil_temp", 40, 50, 0.1))
		p["pump_rpm"] = 2800
		p["state"] = "PUMPING"
	case "VALVE":
		pos := int(d.drift(rnd, "position", 0, 100, 2.0))
		p["position"] = pos
		p["commanded_position"] = pos
		p["torque"] = round1(d.drift(rnd, "torque", 30, 50, 0.5))
		p["status"] = "OK"
	case "CONV":
		p["speed_rpm"] = int(d.drift(rnd, "speed_rpm", 590, 640, 1.0))
		p["cmd_speed"] = int(d.drift(rnd, "cmd_speed", 600, 1800, 2.0))
		p["motor_current"] = round1(d.drift(rnd, "motor_current", 11, 14, 0.1))
		p["vfd_temp"] = round1(d.drift(rnd, "vfd_temp", 20, 40, 0.2))
		p["torque"] = round1(d.drift(rnd, "torque", 30, 50, 0.5))
		p["state"] = "RUNNING"
	}

	return p
}
