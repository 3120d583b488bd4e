package mode

import (
	"context"
	"log/slog"

	"github.com/khaledhikmat/snap-go/model"
	"github.com/khaledhikmat/snap-go/pipeline"
	"github.com/khaledhikmat/snap-go/service/data"
	"github.com/khaledhikmat/snap-go/service/lgr"
)

type Processor func(canxCtx context.Context, svcs pipeline.ServicesFactory) error

func procStats(datasvc data.IService, stats interface{}) {
	switch stats := stats.(type) {
	case model.PassStats:
		procPassStats(datasvc, stats)
	case model.CaptureStats:
		procCaptureStats(datasvc, stats)
	case model.DeliveryStats:
		procDeliveryStats(datasvc, stats)
	case model.ListenerStats:
		procListenerStats(datasvc, stats)
	default:
		lgr.Logger.Error(
			"unknown stats type",
			slog.Any("stats", stats),
		)
	}
}

func procPassStats(datasvc data.IService, stats model.PassStats) {
	err := datasvc.NewPassStats(stats)
	if err != nil {
		lgr.Logger.Error(
			"failed to store pass stats",
			slog.Any("stats", stats),
			slog.Any("error", err),
		)
	}
}

func procCaptureStats(datasvc data.IService, stats model.CaptureStats) {
	err := datasvc.NewCaptureStats(stats)
	if err != nil {
		lgr.Logger.Error(
			"failed to store capture stats",
			slog.Any("stats", stats),
			slog.Any("error", err),
		)
	}
}

func procDeliveryStats(datasvc data.IService, stats model.DeliveryStats) {
	err := datasvc.NewDeliveryStats(stats)
	if err != nil {
		lgr.Logger.Error(
			"failed to store delivery stats",
			slog.Any("stats", stats),
			slog.Any("error", err),
		)
	}
}

func procListenerStats(datasvc data.IService, stats model.ListenerStats) {
	err := datasvc.NewListenerStats(stats)
	if err != nil {
		lgr.Logger.Error(
			"failed to store listener stats",
			slog.Any("stats", stats),
			slog.Any("error", err),
		)
	}
}

func procError(datasvc data.IService, err interface{}) {
	errTemp := datasvc.NewError(err)
	if errTemp != nil {
		lgr.Logger.Error(
			"failed to store error",
			slog.Any("error", errTemp),
		)
	}
}
