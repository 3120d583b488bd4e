package trigger

import "github.com/khaledhikmat/snap-go/model"

// IService delivers triggers on a channel so the mode processor can consume
// them from a plain receive loop instead of a client-library callback.
type IService interface {
	Subscribe() (<-chan model.Trigger, error)
	Unsubscribe() error
	Finalize()
}
