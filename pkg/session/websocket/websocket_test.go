package websocket

import (
	"io"
	"net"
	"testing"
	"time"

	"github.com/gobwas/ws"
	"github.com/stretchr/testify/require"
)

func Test_Driver_TerminatesSilentPeer(t *testing.T) {
	server, client := net.Pipe()

	terminateCh := make(chan struct{})
	driver := NewDriver(server, terminateCh, 20*time.Millisecond)
	driver.Start()

	// Swallow the outgoing pings so the synchronous pipe never blocks the
	// writer, but never answer them.
	go io.Copy(io.Discard, client)

	select {
	case <-terminateCh:
	case <-time.After(time.Second):
		t.Fatal("unresponsive connection was not terminated")
	}

	server.Close()
	client.Close()
	driver.Close()
}

func Test_Driver_KeepsResponsivePeer(t *testing.T) {
	server, client := net.Pipe()

	terminateCh := make(chan struct{})
	driver := NewDriver(server, terminateCh, 20*time.Millisecond)
	driver.Start()

	// Answer every ping with a masked pong, like a well-behaved client.
	go func() {
		for {
			frame, err := ws.ReadFrame(client)
			if err != nil {
				return
			}
			if frame.Header.OpCode != ws.OpPing {
				continue
			}
			pong := ws.MaskFrame(ws.NewPongFrame(nil))
			if err := ws.WriteFrame(client, pong); err != nil {
				return
			}
		}
	}()

	select {
	case <-terminateCh:
		t.Fatal("responsive connection was terminated")
	case <-time.After(150 * time.Millisecond):
	}

	server.Close()
	client.Close()

	select {
	case <-terminateCh:
	case <-time.After(time.Second):
		t.Fatal("driver did not shut down after the connection closed")
	}
	driver.Close()
}

func Test_Driver_PushDropsWhenFull(t *testing.T) {
	server, client := net.Pipe()
	defer server.Close()
	defer client.Close()

	terminateCh := make(chan struct{})
	driver := NewDriver(server, terminateCh, time.Hour)

	// Not started: the outbox fills up and Push reports backpressure
	// instead of blocking.
	for i := 0; i < 100; i++ {
		require.True(t, driver.Push(FlagContinue, []byte("x")))
	}
	require.False(t, driver.Push(FlagContinue, []byte("x")))
}
