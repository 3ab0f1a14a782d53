package server

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/labstack/echo"
	"github.com/labstack/echo/middleware"
	_ "github.com/lib/pq"
	nats "github.com/nats-io/nats.go"
	"github.com/sirupsen/logrus"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/creamline/iotcore/config"
	"github.com/creamline/iotcore/pkg/api"
	"github.com/creamline/iotcore/pkg/events"
	"github.com/creamline/iotcore/pkg/ingest"
	"github.com/creamline/iotcore/pkg/registry"
	"github.com/creamline/iotcore/pkg/session"
	"github.com/creamline/iotcore/pkg/storage"
	"github.com/creamline/iotcore/pkg/storage/memory"
	"github.com/creamline/iotcore/pkg/storage/postgres"
	"github.com/creamline/iotcore/pkg/sweeper"
)

type ingestionServer struct {
	cfg    *config.Config
	quitCh chan bool
	doneCh chan bool

	nc    *nats.Conn
	db    *sqlx.DB
	store storage.Interface

	sweeperStopCh chan struct{}
}

func init() {
	formatter := &logrus.TextFormatter{
		FullTimestamp: true,
	}
	logrus.SetFormatter(formatter)

	// Output to stdout instead of the default stderr
	log.SetOutput(os.Stdout)

	log.SetLevel(log.InfoLevel)
}

func newIngestionServer(cfg *config.Config) (*ingestionServer, error) {
	s := &ingestionServer{
		cfg:           cfg,
		quitCh:        make(chan bool),
		doneCh:        make(chan bool),
		sweeperStopCh: make(chan struct{}),
	}

	if cfg.DatabaseURL != "" {
		db, err := sqlx.Open("postgres", cfg.DatabaseURL)
		if err != nil {
			return nil, err
		}
		if err := db.Ping(); err != nil {
			return nil, err
		}
		s.db = db
		s.store = postgres.NewStore(db)
	} else {
		log.Warn("DATABASE_URL not set, falling back to the in-memory store")
		s.store = memory.NewStore()
	}

	if cfg.NATSServerURL != "" {
		nc, err := nats.Connect(cfg.NATSServerURL,
			nats.DrainTimeout(10*time.Second),
			nats.ErrorHandler(func(_ *nats.Conn, _ *nats.Subscription, err error) {
				log.Errorf("nats error: %v", err)
			}))
		if err != nil {
			// Event fanout is best effort, a missing broker is not fatal.
			log.Warnf("could not connect to NATS at %s: %v", cfg.NATSServerURL, err)
		} else {
			s.nc = nc
		}
	}

	return s, nil
}

func (s *ingestionServer) Serve() {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Use(middleware.Recover())
	e.Use(logger())

	pub := events.NewPublisher(s.nc)
	reg := registry.New(s.store, pub)
	svc := ingest.NewService(s.store, reg, pub)

	ingestHandler := ingest.NewHandler(svc)
	ingestHandler.RegisterRoutes(e)

	sessionHandler := session.NewHandler(svc)
	sessionHandler.RegisterRoutes(e)

	apiHandler := api.NewHandler(s.store, s.cfg.JWTSecret)
	apiHandler.RegisterRoutes(e)

	go s.runSweeper()

	go func() {
		log.WithFields(log.Fields{
			"host": s.cfg.BindHost,
			"port": s.cfg.BindPort,
		}).Info("Starting server")

		if err := e.Start(fmt.Sprintf("%s:%d", s.cfg.BindHost, s.cfg.BindPort)); err != nil {
			e.Logger.Info("Shutting down the server")
		}
	}()

	// Wait until receiving the quit signal
	<-s.quitCh
	log.Info("Shutdown signal received")

	close(s.sweeperStopCh)

	// Create a 10 second timeout context
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	// Shutdown the echo web server
	if err := e.Shutdown(ctx); err != nil {
		e.Logger.Error(err)
	}

	// We've done!
	s.doneCh <- true
}

func (s *ingestionServer) runSweeper() {
	interval := time.Duration(s.cfg.SweepIntervalMs) * time.Millisecond
	if interval <= 0 {
		interval = 30 * time.Second
	}

	var strategy sweeper.Strategy = sweeper.NoopStrategy{}
	if s.cfg.SweepEnabled {
		threshold := time.Duration(s.cfg.OfflineThresholdMs) * time.Millisecond
		if threshold <= 0 {
			threshold = 2 * time.Minute
		}
		strategy = sweeper.NewStaleStrategy(s.store, threshold)
		log.Infof("sweeper enabled with threshold %s", threshold)
	}

	sweeper.New(strategy, interval).Run(s.sweeperStopCh)
}

func (s *ingestionServer) Shutdown() {
	if s.nc != nil {
		s.nc.Drain()
	}

	// Send the quit signal to the server.Serve() routine
	s.quitCh <- true

	// Wait up to 10 seconds
	select {
	case <-s.doneCh:
		log.Info("Shutdown server successful")
	case <-time.After(10 * time.Second):
		log.Error("Shutdown server failed")
	}

	if s.db != nil {
		s.db.Close()
	}
}

// logger returns a middleware that logs HTTP requests.
func logger() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()
			res := c.Response()
			start := time.Now()

			var err error
			if err = next(c); err != nil {
				c.Error(err)
			}
			stop := time.Now()

			id := req.Header.Get(echo.HeaderXRequestID)
			if id == "" {
				id = res.Header().Get(echo.HeaderXRequestID)
			}
			reqSizeStr := req.Header.Get(echo.HeaderContentLength)
			if reqSizeStr == "" {
				reqSizeStr = "0"
			}
			reqSize, err := strconv.ParseInt(reqSizeStr, 10, 0)
			if err != nil {
				reqSize = -1
			}
			errMsg := ""
			if err != nil {
				errMsg = err.Error()
			}

			log.WithFields(log.Fields{
				"timestamp":     stop.Format(time.RFC3339),
				"id":            id,
				"remote_ip":     c.RealIP(),
				"host":          req.Host,
				"method":        req.Method,
				"uri":           req.RequestURI,
				"protocol":      req.Proto,
				"user_agent":    req.UserAgent(),
				"status":        res.Status,
				"status_text":   http.StatusText(res.Status),
				"referer":       req.Referer(),
				"error":         errMsg,
				"bytes_in":      reqSize,
				"bytes_out":     res.Size,
				"latency":       stop.Sub(start).Nanoseconds(),
				"latency_human": stop.Sub(start).String(),
			}).Infof("%s %s %s %d %s", req.Method, req.RequestURI, req.Proto,
				res.Status, strconv.FormatInt(res.Size, 10))

			return err
		}
	}
}

// RunServe builds the cobra run function for the serve command.
func RunServe(cfg *config.Config) func(cmd *cobra.Command, args []string) {
	return func(cmd *cobra.Command, args []string) {
		s, err := newIngestionServer(cfg)
		if err != nil {
			log.Error("failed to create new server instance: ", err)
			os.Exit(1)
		}

		go s.Serve()

		// Wait for interrupt signal to gracefully shutdown the server
		quitCh := make(chan os.Signal, 1)
		signal.Notify(quitCh, os.Interrupt)
		<-quitCh

		// Shutdown the server
		s.Shutdown()
	}
}
