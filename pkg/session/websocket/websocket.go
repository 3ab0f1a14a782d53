// Package websocket drives one raw gobwas/ws connection: frame reading,
// frame writing and transport-level liveness, decoupled from the protocol
// state machine through inbox/outbox channels.
package websocket

import (
	"io/ioutil"
	"net"
	"sync"
	"time"

	"github.com/gobwas/ws"
	"github.com/gobwas/ws/wsutil"
	log "github.com/sirupsen/logrus"
)

type Flag int

const (
	FlagContinue Flag = iota
	FlagCloseGracefully
	FlagTerminate
	flagPing
)

type OutboxMessage struct {
	Flag Flag
	Data []byte
}

type InboxMessage struct {
	Data []byte
}

// DefaultPingInterval is the fixed liveness cadence. A connection that has
// not answered the previous ping when the next tick fires is terminated.
const DefaultPingInterval = 5 * time.Second

type Driver struct {
	conn         net.Conn
	pingInterval time.Duration

	Inbox  chan *InboxMessage
	Outbox chan *OutboxMessage

	pongCh chan struct{}

	terminateCh    chan<- struct{}
	terminatedOnce sync.Once

	stopCh   chan struct{}
	stopOnce sync.Once

	wg sync.WaitGroup
}

func NewDriver(conn net.Conn, terminateCh chan<- struct{}, pingInterval time.Duration) *Driver {
	if pingInterval <= 0 {
		pingInterval = DefaultPingInterval
	}
	return &Driver{
		conn:         conn,
		pingInterval: pingInterval,
		Inbox:        make(chan *InboxMessage, 100),
		Outbox:       make(chan *OutboxMessage, 100),
		pongCh:       make(chan struct{}, 1),
		terminateCh:  terminateCh,
		stopCh:       make(chan struct{}),
	}
}

func (driver *Driver) Start() {
	driver.wg.Add(1)
	go driver.inboxHandler()
	driver.wg.Add(1)
	go driver.outboxHandler()
	driver.wg.Add(1)
	go driver.livenessHandler()
}

// Close blocks until every handler goroutine has exited. The caller must
// close the underlying connection first to unblock the reader.
func (driver *Driver) Close() {
	driver.wg.Wait()
	log.Debug("websocket driver closed")
}

// Done is closed when the driver is shutting down.
func (driver *Driver) Done() <-chan struct{} {
	return driver.stopCh
}

// Push queues an outbound frame without ever blocking the protocol layer.
func (driver *Driver) Push(flag Flag, data []byte) bool {
	select {
	case driver.Outbox <- NewOutboxMessage(flag, data):
		return true
	default:
		return false // Buffer is full
	}
}

func (driver *Driver) closeHandler() {
	defer driver.wg.Done()
	driver.safeCloseTerminateChannel()
	driver.safeCloseStopChannel()
}

func (driver *Driver) safeCloseTerminateChannel() {
	driver.terminatedOnce.Do(func() {
		close(driver.terminateCh)
	})
}

func (driver *Driver) safeCloseStopChannel() {
	driver.stopOnce.Do(func() {
		close(driver.stopCh)
	})
}

func (driver *Driver) inboxHandler() {
	defer driver.closeHandler()

	state := ws.StateServerSide
	ch := wsutil.ControlFrameHandler(driver.conn, state)

	r := &wsutil.Reader{
		Source:         driver.conn,
		State:          state,
		CheckUTF8:      true,
		OnIntermediate: ch,
	}

	for {
		h, err := r.NextFrame()
		if err != nil {
			log.Debugf("websocket read message error: %v", err)
			return
		}

		if h.OpCode.IsControl() {
			// On OpClose the socket was closed by the client and the
			// handler can exit.
			if h.OpCode == ws.OpClose {
				log.Debug("websocket connection closed gracefully")
				return
			}

			if h.OpCode == ws.OpPong {
				select {
				case driver.pongCh <- struct{}{}:
				default:
				}
			}

			if err = ch(h, r); err != nil {
				log.Errorf("websocket handles control frame error: %v", err)
				return
			}
			continue
		}

		req, err := ioutil.ReadAll(r)
		if err != nil {
			log.Errorf("websocket read error: %v", err)
			return
		}

		select {
		case driver.Inbox <- NewInboxMessage(req):
		case <-driver.stopCh:
			return
		}
	}
}

func (driver *Driver) outboxHandler() {
	defer driver.closeHandler()

	state := ws.StateServerSide
	w := wsutil.NewWriter(driver.conn, state, 0)

	for {
		select {
		case res := <-driver.Outbox:
			// All writes go through this goroutine so frames never
			// interleave.
			if res.Flag == flagPing {
				if err := wsutil.WriteServerMessage(driver.conn, ws.OpPing, nil); err != nil {
					log.Debugf("websocket ping write error: %v", err)
					return
				}
				continue
			}

			if res.Data != nil {
				if err := webSocketWriteText(driver.conn, w, state, res.Data); err != nil {
					log.Errorf("websocket terminates because of write error: %s", err.Error())
					return
				}
			}

			switch res.Flag {
			case FlagCloseGracefully:
				webSocketCloseGraceful(driver.conn, w, state)
				return
			case FlagTerminate:
				return
			}
		case <-driver.stopCh:
			return
		}
	}
}

// livenessHandler pings on a fixed interval. Missing a pong for one full
// interval terminates the connection; a socket that always answers is never
// touched. This is transport liveness only, it has no effect on the device
// presence state.
func (driver *Driver) livenessHandler() {
	defer driver.closeHandler()

	ticker := time.NewTicker(driver.pingInterval)
	defer ticker.Stop()

	alive := true
	for {
		select {
		case <-driver.pongCh:
			alive = true
		case <-ticker.C:
			if !alive {
				log.Warn("websocket liveness ping unanswered, terminating connection")
				return
			}
			alive = false
			driver.Push(flagPing, nil)
		case <-driver.stopCh:
			return
		}
	}
}

func webSocketWriteText(conn net.Conn, w *wsutil.Writer, state ws.State, data []byte) error {
	var err error

	w.Reset(conn, state, ws.OpText)
	if _, err = w.Write(data); err == nil {
		err = w.Flush()
	}
	if err != nil {
		return err
	}

	return nil
}

func webSocketCloseGraceful(conn net.Conn, w *wsutil.Writer, state ws.State) error {
	log.Debug("websocket graceful close initiated")

	w.Reset(conn, state, ws.OpClose)

	var err error
	if _, err = w.Write([]byte("")); err == nil {
		err = w.Flush()
	}
	if err != nil {
		return err
	}

	return nil
}

func NewOutboxMessage(flag Flag, data []byte) *OutboxMessage {
	m := &OutboxMessage{
		Flag: flag,
	}
	if data != nil {
		m.Data = make([]byte, len(data))
		copy(m.Data, data)
	}
	return m
}

func NewInboxMessage(data []byte) *InboxMessage {
	m := &InboxMessage{}
	if data != nil {
		m.Data = make([]byte, len(data))
		copy(m.Data, data)
	}
	return m
}
