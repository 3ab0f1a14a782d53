// Package session implements the persistent-session ingestion gateway: a
// per-connection protocol state machine layered over the shared ingest
// pipeline.
package session

import (
	"sync"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/creamline/iotcore/pkg/ingest"
	"github.com/creamline/iotcore/pkg/session/proto"
	"github.com/creamline/iotcore/pkg/session/websocket"
)

type State int

const (
	// StateAwaitingHello is the initial state. Only hello is accepted.
	StateAwaitingHello State = iota
	// StateActive is entered after a successful hello.
	StateActive
)

// Channel owns all protocol state of one connection. Nothing is smuggled
// onto the socket itself: the bound identity lives here and the channel is
// testable without any transport.
type Channel struct {
	mu  sync.Mutex
	svc *ingest.Service

	state    State
	deviceID string
	kind     string
}

func NewChannel(svc *ingest.Service) *Channel {
	return &Channel{
		svc:   svc,
		state: StateAwaitingHello,
	}
}

// State returns the current protocol state.
func (ch *Channel) State() State {
	ch.mu.Lock()
	defer ch.mu.Unlock()
	return ch.state
}

// BoundDevice returns the identity bound by hello, empty before that.
func (ch *Channel) BoundDevice() (deviceID, kind string) {
	ch.mu.Lock()
	defer ch.mu.Unlock()
	return ch.deviceID, ch.kind
}

// Serve pumps inbound frames from the driver into the state machine until
// the driver shuts down.
func (ch *Channel) Serve(driver *websocket.Driver) {
	for {
		select {
		case msg := <-driver.Inbox:
			data, flag, err := ch.HandleMessage(msg.Data)
			if err != nil {
				log.Errorf("session failed to handle message: %v", err)
				continue
			}
			if data != nil || flag != websocket.FlagContinue {
				driver.Push(flag, data)
			}
		case <-driver.Done():
			return
		}
	}
}

// HandleMessage dispatches one raw frame. The returned data, if any, is the
// reply frame; the flag tells the transport how to proceed. Protocol faults
// are never fatal: they produce an error reply and the connection stays in
// its current state.
func (ch *Channel) HandleMessage(data []byte) ([]byte, websocket.Flag, error) {
	msgType, msg, err := proto.UnmarshalMessage(data)
	if err != nil {
		if _, unknown := err.(*proto.ErrUnknownType); unknown {
			return ch.errorMessage("Unknown message type")
		}
		return ch.errorMessage("Invalid JSON")
	}

	switch msgType {
	case proto.MessageTypeHello:
		return ch.handleMessage(msg, ch.helloHandler())
	case proto.MessageTypeTelemetry:
		return ch.handleMessage(msg, ch.ensureActive(ch.telemetryHandler()))
	}

	return ch.errorMessage("Unknown message type")
}

// messageHandler is a tooling for handling incoming messages, similar to
// the go http handler implementation. It allows middleware handlers such as
// ensureActive.
type messageHandler interface {
	Handle(msg interface{}) ([]byte, websocket.Flag, error)
}

type messageHandlerFunc func(msg interface{}) ([]byte, websocket.Flag, error)

func (f messageHandlerFunc) Handle(msg interface{}) ([]byte, websocket.Flag, error) {
	return f(msg)
}

func (ch *Channel) handleMessage(msg interface{}, h messageHandler) ([]byte, websocket.Flag, error) {
	return h.Handle(msg)
}

func (ch *Channel) helloHandler() messageHandlerFunc {
	return messageHandlerFunc(func(msg interface{}) ([]byte, websocket.Flag, error) {
		helloMsg, err := proto.MustHelloMessage(msg)
		if err != nil {
			return ch.errorMessage("hello message expected")
		}

		if err := ingest.ValidateIdentity(helloMsg.DeviceID, helloMsg.Kind); err != nil {
			return ch.errorMessage(err.Error())
		}

		if err := ch.svc.Touch(helloMsg.DeviceID, helloMsg.Kind); err != nil {
			log.Errorf("session failed to register device '%s': %v", helloMsg.DeviceID, err)
			return ch.errorMessage("registration failed")
		}

		// Repeating hello is allowed and simply rebinds the connection.
		ch.mu.Lock()
		ch.deviceID = helloMsg.DeviceID
		ch.kind = helloMsg.Kind
		ch.state = StateActive
		ch.mu.Unlock()

		log.Infof("session registered for device '%s' (%s)", helloMsg.DeviceID, helloMsg.Kind)

		return ch.helloAckMessage()
	})
}

func (ch *Channel) ensureActive(next messageHandler) messageHandler {
	return messageHandlerFunc(func(msg interface{}) ([]byte, websocket.Flag, error) {
		if ch.State() != StateActive {
			return ch.errorMessage("Send hello first")
		}
		return next.Handle(msg)
	})
}

func (ch *Channel) telemetryHandler() messageHandlerFunc {
	return messageHandlerFunc(func(msg interface{}) ([]byte, websocket.Flag, error) {
		telemetryMsg, err := proto.MustTelemetryMessage(msg)
		if err != nil {
			return ch.errorMessage("telemetry message expected")
		}

		deviceID, kind := ch.BoundDevice()

		req := ingest.Request{
			DeviceID:  deviceID,
			Kind:      kind,
			Timestamp: ingest.ParseTimestamp(telemetryMsg.TS, time.Now().UTC()),
			Payload:   telemetryMsg.Payload,
		}

		if _, err := ch.svc.Ingest(req); err != nil {
			// A store failure must not take the connection down with it.
			log.Errorf("session ingest failed for device '%s': %v", deviceID, err)
			return ch.errorMessage("ingest failed")
		}

		// Accepted telemetry is fire-and-forget.
		return ch.continueWithoutMessage()
	})
}

func (ch *Channel) helloAckMessage() ([]byte, websocket.Flag, error) {
	out, err := proto.MarshalNewHelloAckMessage()
	if err != nil {
		return nil, websocket.FlagTerminate, err
	}
	return out, websocket.FlagContinue, nil
}

func (ch *Channel) errorMessage(reason string) ([]byte, websocket.Flag, error) {
	out, err := proto.MarshalNewErrorMessage(reason)
	if err != nil {
		return nil, websocket.FlagTerminate, err
	}
	return out, websocket.FlagContinue, nil
}

func (ch *Channel) continueWithoutMessage() ([]byte, websocket.Flag, error) {
	return nil, websocket.FlagContinue, nil
}
