package model

import (
	"fmt"
	"net/url"
	"runtime/debug"
	"time"
)

type CustomError struct {
	Processor  string                 `json:"processor"`
	Inner      error                  `json:"innerError"`
	Message    string                 `json:"message"`
	StackTrace string                 `json:"stackTrace"`
	Misc       map[string]interface{} `json:"misc"`
}

func GenError(proc string, err error, misc map[string]interface{}, messagef string, args ...interface{}) CustomError {
	return CustomError{
		Processor:  proc,
		Inner:      err,
		Message:    fmt.Sprintf(messagef, args...),
		StackTrace: string(debug.Stack()),
		Misc:       misc,
	}
}

type Camera struct {
	Name    string `json:"name"`
	RtspURL string `json:"rtspUrl"`
}

// SafeURL returns the camera's stream locator with any embedded password
// removed so it can be logged.
func (c Camera) SafeURL() string {
	u, err := url.Parse(c.RtspURL)
	if err != nil || u.User == nil {
		return c.RtspURL
	}

	u.User = url.User(u.User.Username())
	return u.String()
}

// Trigger is one inbound message on the subscribed topic. Its payload is
// carried for diagnostics only and is never inspected for routing.
type Trigger struct {
	ID         string    `json:"id"`
	Topic      string    `json:"topic"`
	Payload    []byte    `json:"-"`
	ReceivedAt time.Time `json:"receivedAt"`
}

// CapturedFrame is a single encoded still image. It is owned by the pass that
// produced it and discarded after delivery.
type CapturedFrame struct {
	Camera    string        `json:"camera"`
	Image     []byte        `json:"-"`
	Timestamp time.Time     `json:"timestamp"`
	Elapsed   time.Duration `json:"elapsed"`
}

type PassStats struct {
	TriggerID string  `json:"triggerId"`
	Cameras   int     `json:"cameras"`
	Captured  int     `json:"captured"`
	Delivered int     `json:"delivered"`
	Skipped   int     `json:"skipped"`
	Errors    int     `json:"errors"`
	Duration  float64 `json:"duration"`
	Timestamp int64   `json:"timestamp"`
}

type CaptureStats struct {
	Name      string  `json:"name"`
	Camera    string  `json:"camera"`
	Bytes     int     `json:"bytes"`
	Elapsed   float64 `json:"elapsed"`
	Errors    int     `json:"errors"`
	Timestamp int64   `json:"timestamp"`
}

type DeliveryStats struct {
	Name      string  `json:"name"`
	Camera    string  `json:"camera"`
	Bytes     int     `json:"bytes"`
	Elapsed   float64 `json:"elapsed"`
	Errors    int     `json:"errors"`
	Timestamp int64   `json:"timestamp"`
}

type ListenerStats struct {
	Name      string `json:"name"`
	Topic     string `json:"topic"`
	Triggers  int    `json:"triggers"`
	Passes    int    `json:"passes"`
	Timestamp int64  `json:"timestamp"`
}
