// Package proto defines the JSON messages of the persistent-session
// protocol spoken on /ws.
package proto

import (
	"encoding/json"
	"fmt"
)

type MessageType string

const (
	MessageTypeHello     MessageType = "hello"
	MessageTypeHelloAck  MessageType = "hello_ack"
	MessageTypeTelemetry MessageType = "telemetry"
	MessageTypeError     MessageType = "error"
)

// HelloMessage binds a device identity to the connection.
type HelloMessage struct {
	Type     string `json:"type"`
	DeviceID string `json:"deviceId"`
	Kind     string `json:"kind"`
}

// TelemetryMessage carries one payload for the bound device.
type TelemetryMessage struct {
	Type    string                 `json:"type"`
	TS      string                 `json:"ts,omitempty"`
	Payload map[string]interface{} `json:"payload"`
}

// HelloAckMessage acknowledges a successful hello.
type HelloAckMessage struct {
	Type string `json:"type"`
	OK   bool   `json:"ok"`
}

// ErrorMessage reports a per-message failure. The connection survives it.
type ErrorMessage struct {
	Type  string `json:"type"`
	Error string `json:"error"`
}

type envelope struct {
	Type string `json:"type"`
}

// ErrUnknownType is returned for a well-formed message with an unhandled
// type tag.
type ErrUnknownType struct {
	Type string
}

func (e *ErrUnknownType) Error() string {
	return fmt.Sprintf("unknown message type '%s'", e.Type)
}

// UnmarshalMessage decodes a raw frame into its concrete message struct.
func UnmarshalMessage(data []byte) (MessageType, interface{}, error) {
	env := envelope{}
	if err := json.Unmarshal(data, &env); err != nil {
		return "", nil, err
	}

	switch MessageType(env.Type) {
	case MessageTypeHello:
		msg := &HelloMessage{}
		if err := json.Unmarshal(data, msg); err != nil {
			return MessageTypeHello, nil, err
		}
		return MessageTypeHello, msg, nil
	case MessageTypeTelemetry:
		msg := &TelemetryMessage{}
		if err := json.Unmarshal(data, msg); err != nil {
			return MessageTypeTelemetry, nil, err
		}
		return MessageTypeTelemetry, msg, nil
	}

	return MessageType(env.Type), nil, &ErrUnknownType{Type: env.Type}
}

// MustHelloMessage asserts the unmarshalled message is a hello.
func MustHelloMessage(msg interface{}) (*HelloMessage, error) {
	m, ok := msg.(*HelloMessage)
	if !ok {
		return nil, fmt.Errorf("hello message expected")
	}
	return m, nil
}

// MustTelemetryMessage asserts the unmarshalled message is a telemetry.
func MustTelemetryMessage(msg interface{}) (*TelemetryMessage, error) {
	m, ok := msg.(*TelemetryMessage)
	if !ok {
		return nil, fmt.Errorf("telemetry message expected")
	}
	return m, nil
}

// MarshalNewHelloAckMessage builds the hello acknowledgement frame.
func MarshalNewHelloAckMessage() ([]byte, error) {
	return json.Marshal(&HelloAckMessage{
		Type: string(MessageTypeHelloAck),
		OK:   true,
	})
}

// MarshalNewErrorMessage builds a per-message error frame.
func MarshalNewErrorMessage(reason string) ([]byte, error) {
	return json.Marshal(&ErrorMessage{
		Type:  string(MessageTypeError),
		Error: reason,
	})
}
