// Package simulator generates synthetic telemetry for the ten line devices
// and drives it through either transport of a running ingestion instance.
package simulator

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math/rand"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/websocket"
	log "github.com/sirupsen/logrus"
)

type Mode string

const (
	ModeHTTP Mode = "http"
	ModeWS   Mode = "ws"
)

type Config struct {
	Mode     Mode
	BaseURL  string
	Interval time.Duration
}

type Simulator struct {
	cfg     Config
	client  *http.Client
	devices []*device
	rnd     *rand.Rand
}

func New(cfg Config) (*Simulator, error) {
	if cfg.Mode != ModeHTTP && cfg.Mode != ModeWS {
		return nil, fmt.Errorf("unknown mode '%s', expected http or ws", cfg.Mode)
	}
	if cfg.Interval <= 0 {
		cfg.Interval = 30 * time.Second
	}

	devices := make([]*device, 0, len(fleet))
	for _, f := range fleet {
		devices = append(devices, &device{
			id:    f.id,
			kind:  f.kind,
			state: make(map[string]float64),
		})
	}

	return &Simulator{
		cfg:     cfg,
		client:  &http.Client{Timeout: 10 * time.Second},
		devices: devices,
		rnd:     rand.New(rand.NewSource(time.Now().UnixNano())),
	}, nil
}

// Run sends one telemetry round per interval until stopCh closes.
func (s *Simulator) Run(stopCh <-chan struct{}) {
	log.Infof("simulator started in %s mode against %s", s.cfg.Mode, s.cfg.BaseURL)

	ticker := time.NewTicker(s.cfg.Interval)
	defer ticker.Stop()

	s.round()
	for {
		select {
		case <-ticker.C:
			s.round()
		case <-stopCh:
			s.closeAll()
			return
		}
	}
}

func (s *Simulator) round() {
	for _, d := range s.devices {
		payload := d.generate(s.rnd)

		var err error
		if s.cfg.Mode == ModeHTTP {
			err = s.sendHTTP(d, payload)
		} else {
			err = s.sendWS(d, payload)
		}
		if err != nil {
			log.Warnf("simulator send failed for %s: %v", d.id, err)
		}
	}
}

// HTTP rounds use the flat body shape, sessions use the nested one, so a
// running simulator covers both accepted forms.
func (s *Simulator) sendHTTP(d *device, payload map[string]interface{}) error {
	msg := map[string]interface{}{
		"deviceId": d.id,
		"kind":     d.kind,
		"ts":       time.Now().UTC().Format(time.RFC3339),
	}
	for k, v := range payload {
		msg[k] = v
	}

	body, err := json.Marshal(msg)
	if err != nil {
		return err
	}

	res, err := s.client.Post(s.cfg.BaseURL+"/ingest/telemetry", "application/json", bytes.NewReader(body))
	if err != nil {
		return err
	}
	defer res.Body.Close()

	if res.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status %d", res.StatusCode)
	}
	return nil
}

func (s *Simulator) sendWS(d *device, payload map[string]interface{}) error {
	if d.conn == nil {
		if err := s.dial(d); err != nil {
			return err
		}
	}

	msg := map[string]interface{}{
		"type":    "telemetry",
		"ts":      time.Now().UTC().Format(time.RFC3339),
		"payload": payload,
	}
	if err := d.conn.WriteJSON(msg); err != nil {
		// Drop the connection and redial on the next round.
		d.conn.Close()
		d.conn = nil
		return err
	}
	return nil
}

func (s *Simulator) dial(d *device) error {
	wsURL := strings.Replace(s.cfg.BaseURL, "http", "ws", 1) + "/ws"

	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		return err
	}

	hello := map[string]interface{}{
		"type":     "hello",
		"deviceId": d.id,
		"kind":     d.kind,
	}
	if err := conn.WriteJSON(hello); err != nil {
		conn.Close()
		return err
	}

	ack := map[string]interface{}{}
	conn.SetReadDeadline(time.Now().Add(10 * time.Second))
	if err := conn.ReadJSON(&ack); err != nil {
		conn.Close()
		return err
	}
	if ack["type"] != "hello_ack" {
		conn.Close()
		return fmt.Errorf("expected hello_ack, got %v", ack["type"])
	}
	conn.SetReadDeadline(time.Time{})

	// Drain server frames so liveness pings keep being answered by the
	// default pong handler.
	go func() {
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	d.conn = conn
	log.Infof("simulator session established for %s", d.id)
	return nil
}

func (s *Simulator) closeAll() {
	for _, d := range s.devices {
		if d.conn != nil {
			d.conn.Close()
			d.conn = nil
		}
	}
}
