package main

import (
	"fmt"
	"net"
	"net/http"

	"github.com/arch-suite/arch-suite/lib/log"
)

// startMetricsServer serves the tricorder pages registered on the default
// mux in the background.
func startMetricsServer(portNum uint, logger log.DebugLogger) error {
	listener, err := net.Listen("tcp", fmt.Sprintf(":%d", portNum))
	if err != nil {
		return fmt.Errorf("error starting metrics server: %s", err)
	}
	logger.Debugf(0, "serving metrics on port %d\n", portNum)
	go func() {
		if err := http.Serve(listener, nil); err != nil {
			logger.Printf("metrics server stopped: %s\n", err)
		}
	}()
	return nil
}
