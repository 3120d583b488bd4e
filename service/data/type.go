package data

import "github.com/khaledhikmat/snap-go/model"

// IService records operational stats and errors. Frames are never stored,
// only the numbers around them.
type IService interface {
	NewError(err interface{}) error
	NewPassStats(stats model.PassStats) error
	NewCaptureStats(stats model.CaptureStats) error
	NewDeliveryStats(stats model.DeliveryStats) error
	NewListenerStats(stats model.ListenerStats) error
}
