package data

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/khaledhikmat/snap-go/model"
	"github.com/khaledhikmat/snap-go/service/config"
)

type filesDBService struct {
	CfgSvc config.IService
}

// NewFilesDB appends records as JSON lines under the configured data folder,
// one file per record type.
func NewFilesDB(cfgsvc config.IService) IService {
	return &filesDBService{
		CfgSvc: cfgsvc,
	}
}

func (svc *filesDBService) NewError(err interface{}) error {
	return svc.appendJSON("errors.jsonl", err)
}

func (svc *filesDBService) NewPassStats(stats model.PassStats) error {
	return svc.appendJSON("pass_stats.jsonl", stats)
}

func (svc *filesDBService) NewCaptureStats(stats model.CaptureStats) error {
	return svc.appendJSON("capture_stats.jsonl", stats)
}

func (svc *filesDBService) NewDeliveryStats(stats model.DeliveryStats) error {
	return svc.appendJSON("delivery_stats.jsonl", stats)
}

func (svc *filesDBService) NewListenerStats(stats model.ListenerStats) error {
	return svc.appendJSON("listener_stats.jsonl", stats)
}

func (svc *filesDBService) appendJSON(file string, v interface{}) error {
	folder := svc.CfgSvc.GetDataFolder()
	if err := os.MkdirAll(folder, 0755); err != nil {
		return err
	}

	data, err := json.Marshal(v)
	if err != nil {
		return err
	}

	f, err := os.OpenFile(filepath.Join(folder, file), os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		return err
	}
	defer f.Close()

	_, err = fmt.Fprintf(f, "%s\n", data)
	return err
}
