package mode

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"golang.org/x/xerrors"

	"github.com/khaledhikmat/snap-go/model"
	"github.com/khaledhikmat/snap-go/pipeline"
	"github.com/khaledhikmat/snap-go/service/lgr"
)

// Probe runs a single capture pass without touching the broker and reports
// the outcome. It is a deployment check: run it once to verify camera URLs
// and chat credentials before leaving the relay unattended.
func Probe(canxCtx context.Context, svcs pipeline.ServicesFactory) error {
	errorStream := make(chan interface{}, 100)
	statsStream := make(chan interface{}, 100)

	trig := model.Trigger{
		ID:         uuid.NewString(),
		Topic:      "probe",
		ReceivedAt: time.Now(),
	}

	passResult := make(chan model.PassStats)
	go func() {
		passResult <- pipeline.Relay(canxCtx, svcs, nil, trig, errorStream, statsStream)
	}()

	for {
		select {
		case <-canxCtx.Done():
			lgr.Logger.Info(
				"probe mode context cancelled",
			)
			return nil

		case e := <-errorStream:
			procError(svcs.DataSvc, e)

		case s := <-statsStream:
			procStats(svcs.DataSvc, s)

		case stats := <-passResult:
			// Drain whatever reports are still buffered before judging.
			for {
				select {
				case e := <-errorStream:
					procError(svcs.DataSvc, e)
					continue
				case s := <-statsStream:
					procStats(svcs.DataSvc, s)
					continue
				default:
				}
				break
			}

			procStats(svcs.DataSvc, stats)
			lgr.Logger.Info(
				"probe pass finished",
				slog.Int("cameras", stats.Cameras),
				slog.Int("captured", stats.Captured),
				slog.Int("delivered", stats.Delivered),
				slog.Int("errors", stats.Errors),
			)

			if stats.Errors > 0 {
				return xerrors.Errorf("probe pass finished with %d errors", stats.Errors)
			}
			return nil
		}
	}
}
