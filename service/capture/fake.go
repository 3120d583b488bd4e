package capture

import (
	"context"
	"sync"
	"time"

	"github.com/khaledhikmat/snap-go/model"
)

// FakeService is a scripted capturer for tests and dry runs. Frames and
// Errors are keyed by camera name; cameras with no entry get a tiny stand-in
// payload.
type FakeService struct {
	mu     sync.Mutex
	Frames map[string][]byte
	Errors map[string]error
	calls  []string
}

func NewFake() *FakeService {
	return &FakeService{
		Frames: map[string][]byte{},
		Errors: map[string]error{},
	}
}

func (svc *FakeService) Snapshot(_ context.Context, camera model.Camera) (model.CapturedFrame, error) {
	svc.mu.Lock()
	svc.calls = append(svc.calls, camera.Name)
	svc.mu.Unlock()

	if err, ok := svc.Errors[camera.Name]; ok {
		return model.CapturedFrame{}, err
	}

	image := svc.Frames[camera.Name]
	if image == nil {
		// Smallest possible JPEG-ish payload: SOI + EOI markers.
		image = []byte{0xff, 0xd8, 0xff, 0xd9}
	}

	return model.CapturedFrame{
		Camera:    camera.Name,
		Image:     image,
		Timestamp: time.Now(),
	}, nil
}

// Calls returns the camera names captured so far, in call order.
func (svc *FakeService) Calls() []string {
	svc.mu.Lock()
	defer svc.mu.Unlock()
	return append([]string{}, svc.calls...)
}
