package config

import "github.com/khaledhikmat/snap-go/model"

// Durations are plain ints: milliseconds for network timeouts and windows,
// seconds for periods, matching the env var names they come from.
type IService interface {
	GetBrokerAddress() string
	GetBrokerPort() int
	GetBrokerUser() string
	GetBrokerPassword() string
	GetTriggerTopic() string
	GetTriggerSource() string
	GetCameras() []model.Camera
	GetTelegramBotToken() string
	GetTelegramChatID() int64
	GetCaptureOpenTimeout() int
	GetCaptureReadTimeout() int
	GetDeliveryTimeout() int
	GetCaptureMaxWorkers() int
	GetCaptureBurstLimit() int
	GetCaptureBurstWindow() int
	GetFailureNotice() bool
	GetDataFolder() string
	GetTimedTriggerPeriod() int
	GetModeMaxShutdownTime() int
}
