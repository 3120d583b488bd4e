package data

import (
	"bufio"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"golang.org/x/xerrors"

	"github.com/khaledhikmat/snap-go/model"
	"github.com/khaledhikmat/snap-go/service/config"
)

func filesConfig(t *testing.T) config.IService {
	t.Helper()

	for key, value := range map[string]string{
		"MQTT_BROKER":        "192.168.1.15",
		"CAMERAS":            "",
		"TELEGRAM_BOT_TOKEN": "123456:bottoken",
		"TELEGRAM_CHAT_ID":   "42",
		"DATA_FOLDER":        t.TempDir(),
	} {
		t.Setenv(key, value)
	}

	svc, err := config.NewEnv()
	if err != nil {
		t.Fatalf("config.NewEnv() error = %v", err)
	}
	return svc
}

func readLines(t *testing.T, path string) []string {
	t.Helper()

	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("opening %s: %v", path, err)
	}
	defer f.Close()

	var lines []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		lines = append(lines, scanner.Text())
	}
	return lines
}

func TestFilesDBAppendsPassStats(t *testing.T) {
	cfgSvc := filesConfig(t)
	svc := NewFilesDB(cfgSvc)

	want := model.PassStats{TriggerID: "t1", Cameras: 2, Captured: 2, Delivered: 2, Timestamp: 1700000000}
	if err := svc.NewPassStats(want); err != nil {
		t.Fatalf("NewPassStats() error = %v", err)
	}
	if err := svc.NewPassStats(model.PassStats{TriggerID: "t2", Cameras: 2}); err != nil {
		t.Fatalf("NewPassStats() error = %v", err)
	}

	lines := readLines(t, filepath.Join(cfgSvc.GetDataFolder(), "pass_stats.jsonl"))
	if len(lines) != 2 {
		t.Fatalf("lines = %d, want 2", len(lines))
	}

	var got model.PassStats
	if err := json.Unmarshal([]byte(lines[0]), &got); err != nil {
		t.Fatalf("unmarshalling first line: %v", err)
	}
	if got != want {
		t.Errorf("stored stats = %+v, want %+v", got, want)
	}
}

func TestFilesDBAppendsErrors(t *testing.T) {
	cfgSvc := filesConfig(t)
	svc := NewFilesDB(cfgSvc)

	custom := model.GenError("relay_capture", xerrors.New("connection refused"), map[string]interface{}{"camera": "garage"}, "error capturing frame from camera %s", "garage")
	if err := svc.NewError(custom); err != nil {
		t.Fatalf("NewError() error = %v", err)
	}

	lines := readLines(t, filepath.Join(cfgSvc.GetDataFolder(), "errors.jsonl"))
	if len(lines) != 1 {
		t.Fatalf("lines = %d, want 1", len(lines))
	}

	var entry map[string]interface{}
	if err := json.Unmarshal([]byte(lines[0]), &entry); err != nil {
		t.Fatalf("unmarshalling error line: %v", err)
	}
	if entry["processor"] != "relay_capture" {
		t.Errorf("processor = %v", entry["processor"])
	}
}
