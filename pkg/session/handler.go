package session

import (
	"time"

	"github.com/gobwas/ws"
	"github.com/labstack/echo"
	log "github.com/sirupsen/logrus"

	"github.com/creamline/iotcore/pkg/ingest"
	"github.com/creamline/iotcore/pkg/session/websocket"
)

// Handler contains all properties to serve the persistent session endpoint
type Handler struct {
	svc          *ingest.Service
	pingInterval time.Duration
}

// NewHandler create a new session handler
func NewHandler(svc *ingest.Service) *Handler {
	return &Handler{
		svc:          svc,
		pingInterval: websocket.DefaultPingInterval,
	}
}

// RegisterRoutes attaches the handlers to the echo web server
func (h *Handler) RegisterRoutes(e *echo.Echo) {
	log.Debug("Register session routes")
	e.Any("/ws", h.sessionHandler())
}

func (h *Handler) sessionHandler() echo.HandlerFunc {
	return func(c echo.Context) error {
		conn, _, _, err := ws.UpgradeHTTP(c.Request(), c.Response())
		if err != nil {
			return err
		}

		terminateCh := make(chan struct{})
		driver := websocket.NewDriver(conn, terminateCh, h.pingInterval)
		driver.Start()

		ch := NewChannel(h.svc)
		go ch.Serve(driver)

		<-terminateCh

		// Closing the connection unblocks the driver's reader; only then
		// can Close wait on the handler goroutines.
		conn.Close()
		driver.Close()

		log.Debug("session handler exit")
		return nil
	}
}
