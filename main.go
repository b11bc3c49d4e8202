package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/GenomicDataInfrastructure/gdi-mini-node/catalog"
	"github.com/GenomicDataInfrastructure/gdi-mini-node/gologger"
	"github.com/GenomicDataInfrastructure/gdi-mini-node/http_server"
	"github.com/GenomicDataInfrastructure/gdi-mini-node/query_engine"
	"github.com/GenomicDataInfrastructure/gdi-mini-node/s3_sync"
	"github.com/GenomicDataInfrastructure/gdi-mini-node/utils"
	"github.com/joho/godotenv"
)

var logger = gologger.NewLogger()

func main() {
	if err := godotenv.Load(); err != nil {
		logger.Debug().Msg("no .env file loaded")
	}
	logger.Debug().Msg("starting gdi mini node")

	registry := catalog.NewRegistry()
	if err := registry.Rescan(utils.DATA_DIR); err != nil {
		// Serve anyway: a sync round may populate the dir later, and queries
		// report the catalog as unavailable until a scan succeeds.
		logger.Warn().Err(err).Str("dir", utils.DATA_DIR).Msg("initial catalog scan failed")
	}

	syncInterval := time.Second * time.Duration(utils.S3_SYNC_INTERVAL_SEC)
	if utils.S3_SYNC_URL != "" && syncInterval <= 0 {
		syncInterval = time.Minute * 5
	}
	syncer, err := s3_sync.NewSyncer(utils.S3_SYNC_URL, utils.DATA_DIR, registry, syncInterval)
	if err != nil {
		logger.Error().Err(err).Msg("error creating s3 syncer")
		os.Exit(1)
	}
	if syncer != nil {
		syncer.Start()
	}

	httpServer := http_server.StartHTTPServer(query_engine.NewEngine(registry))

	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)
	<-c
	logger.Warn().Msg("received shutdown signal!")

	// For AWS ALB needing some time to de-register pod
	// Convert the time to seconds
	sleepTime := utils.SHUTDOWN_SLEEP_SEC
	logger.Info().Msg(fmt.Sprintf("sleeping for %ds before exiting", sleepTime))

	time.Sleep(time.Second * time.Duration(sleepTime))
	logger.Info().Msg(fmt.Sprintf("slept for %ds, exiting", sleepTime))

	ctx, cancel := context.WithTimeout(context.Background(), time.Second*10)
	defer cancel()
	if syncer != nil {
		if err := syncer.Stop(ctx); err != nil {
			logger.Error().Err(err).Msg("failed to stop s3 syncer")
		}
	}
	if err := httpServer.Shutdown(ctx); err != nil {
		logger.Error().Err(err).Msg("failed to shutdown HTTP server")
	} else {
		logger.Info().Msg("successfully shutdown HTTP server")
	}
}
