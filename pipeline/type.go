package pipeline

import (
	"github.com/khaledhikmat/snap-go/service/capture"
	"github.com/khaledhikmat/snap-go/service/config"
	"github.com/khaledhikmat/snap-go/service/data"
	"github.com/khaledhikmat/snap-go/service/delivery"
	"github.com/khaledhikmat/snap-go/service/trigger"
)

type ServicesFactory struct {
	CfgSvc      config.IService
	CaptureSvc  capture.IService
	DeliverySvc delivery.IService
	TriggerSvc  trigger.IService
	DataSvc     data.IService
}
