package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/danthegoodman1/fedb/http_server"
	"github.com/danthegoodman1/fedb/utils"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the loaded tables over HTTP",
	Args:  cobra.NoArgs,
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().String("http-port", utils.HTTP_PORT, "Port to listen on")
	serveCmd.Flags().Int("shutdown-sleep-sec", int(utils.GetEnvOrDefaultInt("SHUTDOWN_SLEEP_SEC", 0)), "Seconds to wait before shutting down")
}

func runServe(cmd *cobra.Command, args []string) error {
	logger.Debug().Msg("starting fedb")

	app, err := NewApp(cmd.Context(), configFromViper(v))
	if err != nil {
		return err
	}
	defer app.Shutdown()

	httpServer, err := http_server.StartHTTPServer(app.DB, v.GetString("http-port"))
	if err != nil {
		return err
	}

	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)
	<-c
	logger.Warn().Msg("received shutdown signal!")

	// For AWS ALB needing some time to de-register pod
	sleepTime := v.GetInt("shutdown-sleep-sec")
	logger.Info().Msg(fmt.Sprintf("sleeping for %ds before exiting", sleepTime))

	time.Sleep(time.Second * time.Duration(sleepTime))
	logger.Info().Msg(fmt.Sprintf("slept for %ds, exiting", sleepTime))

	ctx, cancel := context.WithTimeout(context.Background(), time.Second*10)
	defer cancel()
	if err := httpServer.Shutdown(ctx); err != nil {
		logger.Error().Err(err).Msg("failed to shutdown HTTP server")
	} else {
		logger.Info().Msg("successfully shutdown HTTP server")
	}
	return nil
}
