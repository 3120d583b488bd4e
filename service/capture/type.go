package capture

import (
	"context"

	"github.com/khaledhikmat/snap-go/model"
)

type IService interface {
	Snapshot(ctx context.Context, camera model.Camera) (model.CapturedFrame, error)
}
