package trigger

import (
	"context"
	"time"

	"github.com/google/uuid"
	"golang.org/x/xerrors"

	"github.com/khaledhikmat/snap-go/model"
	"github.com/khaledhikmat/snap-go/service/config"
	"github.com/khaledhikmat/snap-go/service/lgr"
)

type timedService struct {
	CanxCtx        context.Context
	SubsCtx        context.Context
	SubsCancel     context.CancelFunc
	TriggerChannel chan model.Trigger
	CfgSvc         config.IService
}

// This implementation provides a timed trigger service where a synthetic
// trigger fires on a fixed period. It needs no broker, which makes it useful
// for dev runs and tests.
func NewTimed(canxCtx context.Context, cfgSvc config.IService) IService {
	return &timedService{
		CanxCtx: canxCtx,
		CfgSvc:  cfgSvc,
	}
}

func (svc *timedService) Subscribe() (<-chan model.Trigger, error) {
	if svc.SubsCtx != nil {
		return nil, xerrors.New("timed trigger service already subscribed. Unsubscribe first")
	}

	// Created the first time we subscribe. Regardless of how many times we
	// subscribe/unsubscribe, there is always only one channel delivering
	// triggers to the mode processor.
	if svc.TriggerChannel == nil {
		svc.TriggerChannel = make(chan model.Trigger, 1)
	}

	subsCtx, subsCancel := context.WithCancel(svc.CanxCtx)
	svc.SubsCtx = subsCtx
	svc.SubsCancel = subsCancel

	go func() {
		defer svc.cleanup()

		for {
			select {
			case <-svc.CanxCtx.Done():
				lgr.Logger.Info(
					"timed trigger service context cancelled",
				)
				return
			case <-svc.SubsCtx.Done():
				lgr.Logger.Info(
					"timed trigger service subscription cancelled",
				)
				return
			case <-time.After(time.Duration(svc.CfgSvc.GetTimedTriggerPeriod()) * time.Second):
				trig := model.Trigger{
					ID:         uuid.NewString(),
					Topic:      "timed",
					ReceivedAt: time.Now(),
				}

				select {
				case svc.TriggerChannel <- trig:
				default:
					lgr.Logger.Info(
						"dropping timed trigger while a pass is in flight",
					)
				}
			}
		}
	}()

	return svc.TriggerChannel, nil
}

func (svc *timedService) Unsubscribe() error {
	if svc.SubsCtx == nil {
		return xerrors.New("not subscribed yet. Subscribe first")
	}

	svc.cleanup()
	return nil
}

func (svc *timedService) Finalize() {
	if svc.TriggerChannel != nil {
		close(svc.TriggerChannel)
		svc.TriggerChannel = nil
	}
}

func (svc *timedService) cleanup() {
	if svc.SubsCancel != nil {
		svc.SubsCancel()
		svc.SubsCtx = nil
		svc.SubsCancel = nil
	}
}
