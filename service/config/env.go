package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"golang.org/x/xerrors"

	"github.com/khaledhikmat/snap-go/model"
)

type envService struct {
	brokerAddress      string
	brokerPort         int
	brokerUser         string
	brokerPass         string
	triggerTopic       string
	triggerSource      string
	cameras            []model.Camera
	botToken           string
	chatID             int64
	captureOpenTimeout int
	captureReadTimeout int
	deliveryTimeout    int
	captureMaxWorkers  int
	burstLimit         int
	burstWindow        int
	failureNotice      bool
	dataFolder         string
	timedPeriod        int
	shutdownTime       int
}

// NewEnv reads the entire configuration from the process environment. It is
// the only place the environment is consulted; the returned service is
// immutable for the process lifetime. An error here is fatal to startup.
func NewEnv() (IService, error) {
	svc := &envService{
		brokerAddress: os.Getenv("MQTT_BROKER"),
		brokerUser:    os.Getenv("MQTT_USER"),
		brokerPass:    os.Getenv("MQTT_PASS"),
		triggerTopic:  getString("MQTT_TOPIC", "home/automation/camera_capture"),
		triggerSource: getString("TRIGGER_SOURCE", "mqtt"),
		botToken:      os.Getenv("TELEGRAM_BOT_TOKEN"),
		failureNotice: strings.EqualFold(os.Getenv("FAILURE_NOTICE"), "true"),
		dataFolder:    getString("DATA_FOLDER", "./data"),
	}

	if svc.brokerAddress == "" {
		return nil, xerrors.New("MQTT_BROKER is required")
	}

	if svc.botToken == "" {
		return nil, xerrors.New("TELEGRAM_BOT_TOKEN is required")
	}

	rawChatID := os.Getenv("TELEGRAM_CHAT_ID")
	if rawChatID == "" {
		return nil, xerrors.New("TELEGRAM_CHAT_ID is required")
	}

	chatID, err := strconv.ParseInt(rawChatID, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("TELEGRAM_CHAT_ID must be numeric: %w", err)
	}
	svc.chatID = chatID

	ints := []struct {
		key   string
		def   int
		field *int
	}{
		{"MQTT_PORT", 1883, &svc.brokerPort},
		{"CAPTURE_OPEN_TIMEOUT_MS", 3000, &svc.captureOpenTimeout},
		{"CAPTURE_READ_TIMEOUT_MS", 3000, &svc.captureReadTimeout},
		{"DELIVERY_TIMEOUT_MS", 10000, &svc.deliveryTimeout},
		{"CAPTURE_MAX_WORKERS", 3, &svc.captureMaxWorkers},
		{"CAPTURE_BURST_LIMIT", 3, &svc.burstLimit},
		{"CAPTURE_BURST_WINDOW_MS", 2000, &svc.burstWindow},
		{"TIMED_TRIGGER_PERIOD_SECS", 30, &svc.timedPeriod},
		{"SHUTDOWN_GRACE_SECS", 5, &svc.shutdownTime},
	}
	for _, entry := range ints {
		value, err := getInt(entry.key, entry.def)
		if err != nil {
			return nil, err
		}
		*entry.field = value
	}

	// Cameras keep their declared order so every pass walks them the same way.
	for _, name := range strings.Split(os.Getenv("CAMERAS"), ",") {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}

		urlKey := fmt.Sprintf("CAMERA_URL_%s", strings.ToUpper(name))
		url := os.Getenv(urlKey)
		if url == "" {
			return nil, xerrors.Errorf("camera %s is declared in CAMERAS but %s is not set", name, urlKey)
		}

		svc.cameras = append(svc.cameras, model.Camera{Name: name, RtspURL: url})
	}

	return svc, nil
}

func getString(key, def string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return def
}

func getInt(key string, def int) (int, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return def, nil
	}

	value, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%s must be numeric: %w", key, err)
	}
	return value, nil
}

func (svc *envService) GetBrokerAddress() string {
	return svc.brokerAddress
}

func (svc *envService) GetBrokerPort() int {
	return svc.brokerPort
}

func (svc *envService) GetBrokerUser() string {
	return svc.brokerUser
}

func (svc *envService) GetBrokerPassword() string {
	return svc.brokerPass
}

func (svc *envService) GetTriggerTopic() string {
	return svc.triggerTopic
}

func (svc *envService) GetTriggerSource() string {
	return svc.triggerSource
}

func (svc *envService) GetCameras() []model.Camera {
	return svc.cameras
}

func (svc *envService) GetTelegramBotToken() string {
	return svc.botToken
}

func (svc *envService) GetTelegramChatID() int64 {
	return svc.chatID
}

func (svc *envService) GetCaptureOpenTimeout() int {
	return svc.captureOpenTimeout
}

func (svc *envService) GetCaptureReadTimeout() int {
	return svc.captureReadTimeout
}

func (svc *envService) GetDeliveryTimeout() int {
	return svc.deliveryTimeout
}

func (svc *envService) GetCaptureMaxWorkers() int {
	return svc.captureMaxWorkers
}

func (svc *envService) GetCaptureBurstLimit() int {
	return svc.burstLimit
}

func (svc *envService) GetCaptureBurstWindow() int {
	return svc.burstWindow
}

func (svc *envService) GetFailureNotice() bool {
	return svc.failureNotice
}

func (svc *envService) GetDataFolder() string {
	return svc.dataFolder
}

func (svc *envService) GetTimedTriggerPeriod() int {
	return svc.timedPeriod
}

func (svc *envService) GetModeMaxShutdownTime() int {
	return svc.shutdownTime
}
