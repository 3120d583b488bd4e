package pipeline

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/khaledhikmat/snap-go/model"
	"github.com/khaledhikmat/snap-go/service/capture"
	"github.com/khaledhikmat/snap-go/service/config"
	"github.com/khaledhikmat/snap-go/service/delivery"
)

func relayConfig(t *testing.T, overrides ...map[string]string) config.IService {
	t.Helper()

	for key, value := range map[string]string{
		"MQTT_BROKER":          "192.168.1.15",
		"MQTT_TOPIC":           "",
		"CAMERAS":              "garage,frontdoor",
		"CAMERA_URL_GARAGE":    "rtsp://192.168.1.20/stream1",
		"CAMERA_URL_FRONTDOOR": "rtsp://192.168.1.21/stream1",
		"TELEGRAM_BOT_TOKEN":   "123456:bottoken",
		"TELEGRAM_CHAT_ID":     "42",
		"FAILURE_NOTICE":       "",
	} {
		t.Setenv(key, value)
	}
	for _, override := range overrides {
		for key, value := range override {
			t.Setenv(key, value)
		}
	}

	svc, err := config.NewEnv()
	if err != nil {
		t.Fatalf("config.NewEnv() error = %v", err)
	}
	return svc
}

func TestRelayDeliversEveryCamera(t *testing.T) {
	captureSvc := capture.NewFake()
	captureSvc.Frames["garage"] = []byte("garage-frame")
	captureSvc.Frames["frontdoor"] = []byte("frontdoor-frame")
	deliverySvc := delivery.NewFake()

	svcs := ServicesFactory{
		CfgSvc:      relayConfig(t),
		CaptureSvc:  captureSvc,
		DeliverySvc: deliverySvc,
	}

	stats := Relay(context.Background(), svcs, nil, model.Trigger{ID: "t1"},
		make(chan interface{}, 100), make(chan interface{}, 100))

	if stats.Cameras != 2 || stats.Captured != 2 || stats.Delivered != 2 || stats.Errors != 0 {
		t.Fatalf("stats = %+v, want 2 cameras captured and delivered with no errors", stats)
	}

	photos := deliverySvc.Photos()
	if len(photos) != 2 {
		t.Fatalf("len(photos) = %d, want 2", len(photos))
	}

	seen := map[string]bool{}
	for _, photo := range photos {
		if len(photo.Image) == 0 {
			t.Errorf("photo for %s has empty payload", photo.Camera)
		}
		if seen[photo.Camera] {
			t.Errorf("camera %s delivered more than once", photo.Camera)
		}
		seen[photo.Camera] = true
	}
	if !seen["garage"] || !seen["frontdoor"] {
		t.Errorf("delivered cameras = %v, want garage and frontdoor", seen)
	}
}

func TestRelayIsolatesCaptureFailure(t *testing.T) {
	captureSvc := capture.NewFake()
	captureSvc.Errors["garage"] = errors.New("connection refused")
	deliverySvc := delivery.NewFake()

	svcs := ServicesFactory{
		CfgSvc:      relayConfig(t),
		CaptureSvc:  captureSvc,
		DeliverySvc: deliverySvc,
	}

	errorStream := make(chan interface{}, 100)
	stats := Relay(context.Background(), svcs, nil, model.Trigger{ID: "t1"},
		errorStream, make(chan interface{}, 100))

	if stats.Captured != 1 || stats.Delivered != 1 || stats.Errors != 1 {
		t.Fatalf("stats = %+v, want one camera through and one error", stats)
	}

	photos := deliverySvc.Photos()
	if len(photos) != 1 || photos[0].Camera != "frontdoor" {
		t.Fatalf("photos = %+v, want exactly one for frontdoor", photos)
	}

	calls := captureSvc.Calls()
	if len(calls) != 2 {
		t.Errorf("capture attempts = %v, garage failing must not skip frontdoor", calls)
	}

	var captureErrors int
	for len(errorStream) > 0 {
		e := <-errorStream
		custom, ok := e.(model.CustomError)
		if !ok {
			t.Fatalf("error stream entry is %T, want model.CustomError", e)
		}
		if custom.Processor == "relay_capture" {
			captureErrors++
		}
	}
	if captureErrors != 1 {
		t.Errorf("capture errors reported = %d, want 1", captureErrors)
	}
}

func TestRelayDeliveryFailureDoesNotAbortPass(t *testing.T) {
	captureSvc := capture.NewFake()
	deliverySvc := delivery.NewFake()
	deliverySvc.Err = errors.New("401 unauthorized")

	svcs := ServicesFactory{
		CfgSvc:      relayConfig(t),
		CaptureSvc:  captureSvc,
		DeliverySvc: deliverySvc,
	}

	stats := Relay(context.Background(), svcs, nil, model.Trigger{ID: "t1"},
		make(chan interface{}, 100), make(chan interface{}, 100))

	if stats.Captured != 2 {
		t.Errorf("stats.Captured = %d, want 2; delivery failures must not stop captures", stats.Captured)
	}
	if stats.Delivered != 0 {
		t.Errorf("stats.Delivered = %d, want 0", stats.Delivered)
	}
	if stats.Errors != 2 {
		t.Errorf("stats.Errors = %d, want 2", stats.Errors)
	}
}

func TestRelayPayloadIsNotMutated(t *testing.T) {
	payload := []byte{0xff, 0xd8, 0x01, 0x02, 0x03, 0xff, 0xd9}

	captureSvc := capture.NewFake()
	captureSvc.Frames["garage"] = payload
	captureSvc.Frames["frontdoor"] = payload
	deliverySvc := delivery.NewFake()

	svcs := ServicesFactory{
		CfgSvc:      relayConfig(t),
		CaptureSvc:  captureSvc,
		DeliverySvc: deliverySvc,
	}

	Relay(context.Background(), svcs, nil, model.Trigger{ID: "t1"},
		make(chan interface{}, 100), make(chan interface{}, 100))

	for _, photo := range deliverySvc.Photos() {
		if !bytes.Equal(photo.Image, payload) {
			t.Errorf("delivered bytes for %s differ from captured bytes", photo.Camera)
		}
	}
}

func TestRelayHonorsBurstLimit(t *testing.T) {
	captureSvc := capture.NewFake()
	deliverySvc := delivery.NewFake()

	svcs := ServicesFactory{
		CfgSvc:      relayConfig(t),
		CaptureSvc:  captureSvc,
		DeliverySvc: deliverySvc,
	}

	limiter := NewLimiter(1, time.Minute)

	first := Relay(context.Background(), svcs, limiter, model.Trigger{ID: "t1"},
		make(chan interface{}, 100), make(chan interface{}, 100))
	second := Relay(context.Background(), svcs, limiter, model.Trigger{ID: "t2"},
		make(chan interface{}, 100), make(chan interface{}, 100))

	if first.Delivered != 2 {
		t.Errorf("first pass delivered = %d, want 2", first.Delivered)
	}
	if second.Skipped != 2 || second.Captured != 0 {
		t.Errorf("second pass = %+v, want both cameras skipped by the limiter", second)
	}
}

func TestRelayFailureNotice(t *testing.T) {
	captureSvc := capture.NewFake()
	captureSvc.Errors["garage"] = errors.New("connection refused")
	deliverySvc := delivery.NewFake()

	svcs := ServicesFactory{
		CfgSvc:      relayConfig(t, map[string]string{"FAILURE_NOTICE": "true"}),
		CaptureSvc:  captureSvc,
		DeliverySvc: deliverySvc,
	}

	Relay(context.Background(), svcs, nil, model.Trigger{ID: "t1"},
		make(chan interface{}, 100), make(chan interface{}, 100))

	messages := deliverySvc.Messages()
	if len(messages) != 1 {
		t.Fatalf("notices = %v, want exactly one capture failure notice", messages)
	}
}
