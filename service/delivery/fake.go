package delivery

import (
	"context"
	"sync"

	"github.com/khaledhikmat/snap-go/model"
)

// FakeService records deliveries for tests. Set Err to make every call fail.
type FakeService struct {
	mu       sync.Mutex
	Err      error
	photos   []model.CapturedFrame
	messages []string
}

func NewFake() *FakeService {
	return &FakeService{}
}

func (svc *FakeService) SendPhoto(_ context.Context, frame model.CapturedFrame) error {
	if svc.Err != nil {
		return svc.Err
	}

	svc.mu.Lock()
	defer svc.mu.Unlock()
	svc.photos = append(svc.photos, frame)
	return nil
}

func (svc *FakeService) SendMessage(_ context.Context, text string) error {
	if svc.Err != nil {
		return svc.Err
	}

	svc.mu.Lock()
	defer svc.mu.Unlock()
	svc.messages = append(svc.messages, text)
	return nil
}

func (svc *FakeService) Photos() []model.CapturedFrame {
	svc.mu.Lock()
	defer svc.mu.Unlock()
	return append([]model.CapturedFrame{}, svc.photos...)
}

func (svc *FakeService) Messages() []string {
	svc.mu.Lock()
	defer svc.mu.Unlock()
	return append([]string{}, svc.messages...)
}
