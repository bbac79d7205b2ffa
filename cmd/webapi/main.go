/*
Webapi is the executable for the station database server.
It exposes the song/track catalog, the play and fave ledger, the request queue and the
directory tables over a small REST surface.

Usage:

	webapi [flags]

Flags and configurations are handled automatically by the code in `load-configuration.go`.

Return values (exit codes):

	0
		The program ended successfully (no errors, stopped by signal)

	> 0
		The program ended due to an error

Note that this program creates the database with the legacy schema when none exists, and
refuses to start against a database whose schema doesn't match the embedded one.
*/
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/ardanlabs/conf"
	"github.com/ferrata/stationdb/pkg/catalog"
	"github.com/ferrata/stationdb/pkg/directory"
	"github.com/ferrata/stationdb/pkg/ledger"
	"github.com/ferrata/stationdb/pkg/playqueue"
	"github.com/ferrata/stationdb/pkg/rest"
	"github.com/ferrata/stationdb/pkg/storage/sqlite"
	_ "github.com/mattn/go-sqlite3"
	"github.com/sirupsen/logrus"
)

// main is the program entry point. The only purpose of this function is to call run() and set the exit code if there is
// any error
func main() {
	if err := run(); err != nil {
		_, _ = fmt.Fprintln(os.Stderr, "error: ", err)
		os.Exit(1)
	}
}

// run executes the program. The body of this function should perform the following steps:
// * reads the configuration
// * creates and configures the logger
// * connects to the database, creating or verifying the schema
// * registers the repositories and their handlers
// * starts the web server and waits for any termination event
func run() error {
	// Load Configuration and defaults
	cfg, err := loadConfiguration()
	if err != nil {
		if errors.Is(err, conf.ErrHelpWanted) {
			return nil
		}
		return err
	}

	// Init logging
	logger := logrus.New()
	logger.SetOutput(os.Stdout)
	if cfg.Debug {
		logger.SetLevel(logrus.DebugLevel)
	} else {
		logger.SetLevel(logrus.InfoLevel)
	}

	logger.Infof("application initializing")

	// initialise the database before registering handlers for an immediate exit in case of issues
	storage, err := sqlite.New(logger, cfg.DB.Filename)
	if err != nil {
		logger.WithError(err).Error("error initialising storage")
		return fmt.Errorf("error while initialising storage: %w", err)
	}
	defer storage.Close()

	// Start (main) API server
	logger.Info("initializing API server")

	// Make a channel to listen for an interrupt or terminate signal from the OS.
	// Use a buffered channel because the signal package requires it.
	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	// Make a channel to listen for errors coming from the listener. Use a
	// buffered channel so the goroutine can exit if we don't collect this error.
	serverErrors := make(chan error, 1)

	e, err := rest.New(rest.Config{
		Logger: logger,
	})
	if err != nil {
		logger.WithError(err).Error("error creating the API server instance")
		return fmt.Errorf("creating the API server instance: %w", err)
	}

	// tag every request with an id and a derived logger
	e.Use(e.RequestLogger())

	// setup repositories and handlers
	var directoryStore = directory.NewStore(storage.Connection)
	var catalogStore = catalog.NewStore(storage.Connection)
	var ledgerStore = ledger.NewStore(storage.Connection)
	var queueStore = playqueue.NewStore(storage.Connection)

	directory.RegisterHandlers(e, directoryStore)
	catalog.RegisterHandlers(e, catalogStore, directoryStore)
	ledger.RegisterHandlers(e, ledgerStore, directoryStore)
	playqueue.RegisterHandlers(e, queueStore, directoryStore)

	// Apply CORS policy
	handler := applyCORSHandler(e.Handler())

	// create the API server
	server := http.Server{
		Addr:              cfg.Web.APIHost,
		Handler:           handler,
		ReadTimeout:       cfg.Web.ReadTimeout,
		ReadHeaderTimeout: cfg.Web.ReadTimeout,
		WriteTimeout:      cfg.Web.WriteTimeout,
	}

	// Start the service listening for requests in a separate goroutine
	go func() {
		logger.Infof("API listening on %s", server.Addr)
		serverErrors <- server.ListenAndServe()
		logger.Infof("stopping API server")
	}()

	// Waiting for shutdown signal or POSIX signals
	select {
	case err := <-serverErrors:
		// Non-recoverable server error
		return fmt.Errorf("server error: %w", err)

	case sig := <-shutdown:
		logger.Infof("signal %v received, start shutdown", sig)

		// Give outstanding requests a deadline for completion.
		ctx, cancel := context.WithTimeout(context.Background(), cfg.Web.ShutdownTimeout)
		defer cancel()

		// Asking listener to shut down and load shed.
		err = server.Shutdown(ctx)
		if err != nil {
			logger.WithError(err).Warning("error during graceful shutdown of HTTP server")
			err = server.Close()
		}

		if err != nil {
			return fmt.Errorf("could not stop server gracefully: %w", err)
		}
	}

	return nil
}
