package mode

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/khaledhikmat/snap-go/model"
	"github.com/khaledhikmat/snap-go/pipeline"
	"github.com/khaledhikmat/snap-go/service/lgr"
)

// Relay is the default mode processor. It subscribes to the trigger service
// and runs one capture pass per trigger. Passes are serialized: while a pass
// is in flight the loop stops receiving, the trigger service holds one
// pending trigger and drops the rest. The streams keep draining throughout so
// in-flight workers never block on reporting.
func Relay(canxCtx context.Context, svcs pipeline.ServicesFactory) error {
	triggerStream, err := svcs.TriggerSvc.Subscribe()
	if err != nil {
		return fmt.Errorf("subscribing to trigger service: %w", err)
	}
	defer svcs.TriggerSvc.Finalize()

	errorStream := make(chan interface{}, 100)
	statsStream := make(chan interface{}, 100)

	limiter := pipeline.NewLimiter(
		svcs.CfgSvc.GetCaptureBurstLimit(),
		time.Duration(svcs.CfgSvc.GetCaptureBurstWindow())*time.Millisecond,
	)

	passResult := make(chan model.PassStats)
	inFlight := false

	listenerStats := model.ListenerStats{
		Name:  "triggerListener",
		Topic: svcs.CfgSvc.GetTriggerTopic(),
	}

	lgr.Logger.Info(
		"relay mode started. Waiting for triggers",
		slog.String("topic", listenerStats.Topic),
		slog.Int("cameras", len(svcs.CfgSvc.GetCameras())),
	)

	for {
		// While a pass is in flight the trigger channel is masked off so
		// passes stay serialized.
		var pending <-chan model.Trigger
		if !inFlight {
			pending = triggerStream
		}

		select {
		case <-canxCtx.Done():
			lgr.Logger.Info(
				"relay mode context cancelled",
			)
			goto resume

		case trig, ok := <-pending:
			if !ok {
				goto resume
			}

			listenerStats.Triggers++
			lgr.Logger.Info(
				"trigger received",
				slog.String("trigger", trig.ID),
				slog.String("topic", trig.Topic),
			)

			inFlight = true
			go func(trig model.Trigger) {
				passResult <- pipeline.Relay(canxCtx, svcs, limiter, trig, errorStream, statsStream)
			}(trig)

		case stats := <-passResult:
			inFlight = false
			listenerStats.Passes++
			procStats(svcs.DataSvc, stats)

		case e := <-errorStream:
			procError(svcs.DataSvc, e)

		case s := <-statsStream:
			procStats(svcs.DataSvc, s)
		}
	}

	// Wait in a non-blocking way for the in-flight pass and its reports to
	// wind down before exiting.
resume:
	listenerStats.Timestamp = time.Now().Unix()
	procStats(svcs.DataSvc, listenerStats)

	lgr.Logger.Info(
		"relay mode is waiting for the in-flight pass to wind down",
	)

	timer := time.NewTimer(time.Duration(svcs.CfgSvc.GetModeMaxShutdownTime()) * time.Second)
	defer timer.Stop()

	for {
		select {
		case <-timer.C:
			lgr.Logger.Info(
				"relay mode shutdown waiting period expired. Exiting now",
				slog.Duration("period", time.Duration(svcs.CfgSvc.GetModeMaxShutdownTime())*time.Second),
			)
			return nil

		case stats := <-passResult:
			procStats(svcs.DataSvc, stats)

		case e := <-errorStream:
			procError(svcs.DataSvc, e)

		case s := <-statsStream:
			procStats(svcs.DataSvc, s)
		}
	}
}
