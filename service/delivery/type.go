package delivery

import (
	"context"

	"github.com/khaledhikmat/snap-go/model"
)

type IService interface {
	SendPhoto(ctx context.Context, frame model.CapturedFrame) error
	SendMessage(ctx context.Context, text string) error
}
