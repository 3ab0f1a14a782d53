package cli

import (
	"os"
	"os/signal"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/creamline/iotcore/config"
	"github.com/creamline/iotcore/pkg/simulator"
)

type SimulateHandler struct {
	c *config.Config
}

func newSimulateHandler(c *config.Config) *SimulateHandler {
	return &SimulateHandler{c: c}
}

func (h *SimulateHandler) Simulate(cmd *cobra.Command, args []string) {
	mode, _ := cmd.Flags().GetString("mode")
	url, _ := cmd.Flags().GetString("url")
	intervalMs, _ := cmd.Flags().GetInt("interval-ms")

	sim, err := simulator.New(simulator.Config{
		Mode:     simulator.Mode(mode),
		BaseURL:  url,
		Interval: time.Duration(intervalMs) * time.Millisecond,
	})
	if err != nil {
		log.Error("failed to create simulator: ", err)
		os.Exit(2)
	}

	stopCh := make(chan struct{})
	go func() {
		quitCh := make(chan os.Signal, 1)
		signal.Notify(quitCh, os.Interrupt)
		<-quitCh
		close(stopCh)
	}()

	sim.Run(stopCh)
}
