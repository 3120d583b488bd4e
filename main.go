package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/khaledhikmat/snap-go/mode"
	"github.com/khaledhikmat/snap-go/pipeline"
	"github.com/khaledhikmat/snap-go/service/capture"
	"github.com/khaledhikmat/snap-go/service/config"
	"github.com/khaledhikmat/snap-go/service/data"
	"github.com/khaledhikmat/snap-go/service/delivery"
	"github.com/khaledhikmat/snap-go/service/lgr"
	"github.com/khaledhikmat/snap-go/service/trigger"
)

const (
	// WARNING: this has to be bigger than the mode processor shutdown time
	waitOnShutdown = 8 * time.Second
)

var modeProcessors = map[string]mode.Processor{
	"relay": mode.Relay,
	"probe": mode.Probe,
}

func main() {
	rootCtx := context.Background()
	canxCtx, canxFn := context.WithCancel(rootCtx)

	// Hook up a signal handler to cancel the context
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		sig := <-sigChan
		lgr.Logger.Info(
			"received kill signal",
			slog.Any("signal", sig),
		)
		canxFn()
	}()

	// Load env vars if we are in DEV mode. The file may legitimately be
	// absent when everything is set in the environment directly.
	if os.Getenv("RUN_TIME_ENV") == "dev" || os.Getenv("RUN_TIME_ENV") == "" {
		if err := godotenv.Load(); err != nil {
			lgr.Logger.Info("no .env file loaded. Using the process environment as-is")
		}
	}

	modeType := "relay"
	args := os.Args[1:]
	if len(args) > 0 {
		modeType = args[0]
	}

	modeProc, ok := modeProcessors[modeType]
	if !ok {
		lgr.Logger.Error("invalid mode", slog.String("mode", modeType))
		os.Exit(1)
	}

	// Create the services needed for the mode processor
	// Config service: any error here is fatal before anything connects
	cfgSvc, err := config.NewEnv()
	if err != nil {
		lgr.Logger.Error("invalid configuration", lgr.ErrAttr(err))
		os.Exit(1)
	}

	if len(cfgSvc.GetCameras()) == 0 {
		lgr.Logger.Warn("no cameras configured. Triggers will produce no snapshots")
	}

	// Data service
	dataSvc := data.NewFilesDB(cfgSvc)
	// Capture service
	captureSvc := capture.NewRTSP(cfgSvc)
	// Delivery service
	deliverySvc := delivery.NewTelegram(cfgSvc)
	// Trigger service
	var triggerSvc trigger.IService
	if cfgSvc.GetTriggerSource() == "timed" {
		triggerSvc = trigger.NewTimed(canxCtx, cfgSvc)
	} else {
		triggerSvc = trigger.NewMQTT(canxCtx, cfgSvc)
	}

	svcs := pipeline.ServicesFactory{
		CfgSvc:      cfgSvc,
		CaptureSvc:  captureSvc,
		DeliverySvc: deliverySvc,
		TriggerSvc:  triggerSvc,
		DataSvc:     dataSvc,
	}

	// Create mode processor result
	modeProcResult := make(chan error)
	defer close(modeProcResult)

	// Start the mode processor
	go func() {
		modeProcResult <- modeProc(canxCtx, svcs)
	}()

	// Wait for cancellation, mode proc or error
	for {
		select {
		case <-canxCtx.Done():
			lgr.Logger.Info(
				"snapshot relay context cancelled",
			)
			goto resume

		case err := <-modeProcResult:
			if err != nil {
				lgr.Logger.Info(
					"snapshot relay mode processor exited",
					lgr.ErrAttr(err),
				)
			}
			goto resume
		}
	}

	// Wait in a non-blocking way for `waitOnShutdown` for all the go routines to exit
	// This is needed because the go routines may need to report errors as they are exiting
resume:
	// Cancel the context if not already cancelled
	if canxCtx.Err() == nil {
		// Force cancel the context
		canxFn()
	}

	lgr.Logger.Info(
		"snapshot relay is waiting for all go routines to exit",
	)

	// The only way to exit the main function is to wait for the shutdown
	// duration
	timer := time.NewTimer(waitOnShutdown)
	defer timer.Stop()

	for {
		select {
		case <-timer.C:
			// Timer expired, proceed with shutdown
			lgr.Logger.Info(
				"snapshot relay shutdown waiting period expired. Exiting now",
				slog.Duration("period", waitOnShutdown),
			)

			return

		case err := <-modeProcResult:
			if err != nil {
				lgr.Logger.Info(
					"snapshot relay mode processor exited",
					lgr.ErrAttr(err),
				)
			}
		}
	}
}
