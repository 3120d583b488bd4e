package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/khaledhikmat/snap-go/model"
	"github.com/khaledhikmat/snap-go/service/lgr"
)

// Relay runs one capture pass: for every configured camera, in configured
// order, grab a single frame and hand it to the delivery service. Cameras run
// on a bounded worker pool and share no state, so one camera failing never
// stops another. Errors and per-camera stats go out on the streams; the
// caller must keep draining them while the pass runs.
func Relay(canxCtx context.Context, svcs ServicesFactory, limiter *Limiter, trig model.Trigger, errorStream chan interface{}, statsStream chan interface{}) model.PassStats {
	cameras := svcs.CfgSvc.GetCameras()
	stats := model.PassStats{
		TriggerID: trig.ID,
		Cameras:   len(cameras),
	}
	start := time.Now()

	maxWorkers := svcs.CfgSvc.GetCaptureMaxWorkers()
	if maxWorkers < 1 {
		maxWorkers = 1
	}
	sem := make(chan struct{}, maxWorkers)

	var mu sync.Mutex
	var wg sync.WaitGroup

	for _, camera := range cameras {
		if canxCtx.Err() != nil {
			break
		}

		if limiter != nil && !limiter.Allow(camera.Name) {
			lgr.Logger.Info(
				"skipping camera. Burst limit reached",
				slog.String("camera", camera.Name),
				slog.String("trigger", trig.ID),
			)
			stats.Skipped++
			continue
		}

		wg.Add(1)
		sem <- struct{}{}

		go func(camera model.Camera) {
			defer wg.Done()
			defer func() { <-sem }()

			captured, delivered := relayOne(canxCtx, svcs, trig, camera, errorStream, statsStream)

			mu.Lock()
			defer mu.Unlock()
			if captured {
				stats.Captured++
			} else {
				stats.Errors++
			}
			if delivered {
				stats.Delivered++
			} else if captured {
				stats.Errors++
			}
		}(camera)
	}

	wg.Wait()

	stats.Duration = time.Since(start).Seconds()
	stats.Timestamp = time.Now().Unix()
	return stats
}

// relayOne is one camera's capture+deliver pair. Failures are reported on the
// error stream and otherwise swallowed: they must never abort the pass or the
// broker connection.
func relayOne(canxCtx context.Context, svcs ServicesFactory, trig model.Trigger, camera model.Camera, errorStream chan interface{}, statsStream chan interface{}) (captured bool, delivered bool) {
	frame, err := svcs.CaptureSvc.Snapshot(canxCtx, camera)
	if err != nil {
		errorStream <- model.GenError("relay_capture",
			err,
			map[string]interface{}{"camera": camera.Name, "trigger": trig.ID},
			"error capturing frame from camera %s", camera.Name)
		statsStream <- model.CaptureStats{
			Name:      "rtspCapture",
			Camera:    camera.Name,
			Errors:    1,
			Timestamp: time.Now().Unix(),
		}

		// The chat can be told about a dead camera too, so the absence of an
		// expected image does not go unexplained. Off unless configured.
		if svcs.CfgSvc.GetFailureNotice() {
			notice := fmt.Sprintf("🚨 %s: failed to capture a frame", camera.Name)
			if msgErr := svcs.DeliverySvc.SendMessage(canxCtx, notice); msgErr != nil {
				lgr.Logger.Error(
					"error sending capture failure notice",
					slog.String("camera", camera.Name),
					lgr.ErrAttr(msgErr),
				)
			}
		}

		return false, false
	}

	statsStream <- model.CaptureStats{
		Name:      "rtspCapture",
		Camera:    camera.Name,
		Bytes:     len(frame.Image),
		Elapsed:   frame.Elapsed.Seconds(),
		Timestamp: time.Now().Unix(),
	}

	deliveryStart := time.Now()
	if err := svcs.DeliverySvc.SendPhoto(canxCtx, frame); err != nil {
		errorStream <- model.GenError("relay_delivery",
			err,
			map[string]interface{}{"camera": camera.Name, "trigger": trig.ID},
			"error delivering frame for camera %s", camera.Name)
		statsStream <- model.DeliveryStats{
			Name:      "telegramDelivery",
			Camera:    camera.Name,
			Bytes:     len(frame.Image),
			Errors:    1,
			Timestamp: time.Now().Unix(),
		}
		return true, false
	}

	statsStream <- model.DeliveryStats{
		Name:      "telegramDelivery",
		Camera:    camera.Name,
		Bytes:     len(frame.Image),
		Elapsed:   time.Since(deliveryStart).Seconds(),
		Timestamp: time.Now().Unix(),
	}

	lgr.Logger.Info(
		"snapshot delivered",
		slog.String("camera", camera.Name),
		slog.String("trigger", trig.ID),
		slog.Int("bytes", len(frame.Image)),
		slog.Float64("captureSecs", frame.Elapsed.Seconds()),
	)
	return true, true
}
