package delivery

import (
	"context"
	"fmt"
	"net/http"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/khaledhikmat/snap-go/model"
	"github.com/khaledhikmat/snap-go/service/config"
)

type telegramService struct {
	CfgSvc config.IService
	Bot    *tgbotapi.BotAPI
}

// NewTelegram returns a delivery client over the Telegram Bot API. The bot is
// built without the usual getMe probe: the token is only exercised when an
// upload is attempted, so a Telegram outage at startup cannot keep the broker
// subscription from coming up.
func NewTelegram(cfgsvc config.IService) IService {
	bot := &tgbotapi.BotAPI{
		Token:  cfgsvc.GetTelegramBotToken(),
		Buffer: 100,
		Client: &http.Client{
			Timeout: time.Duration(cfgsvc.GetDeliveryTimeout()) * time.Millisecond,
		},
	}
	bot.SetAPIEndpoint(tgbotapi.APIEndpoint)

	return &telegramService{
		CfgSvc: cfgsvc,
		Bot:    bot,
	}
}

func (svc *telegramService) SendPhoto(_ context.Context, frame model.CapturedFrame) error {
	photo := tgbotapi.NewPhoto(svc.CfgSvc.GetTelegramChatID(), tgbotapi.FileBytes{
		Name:  fmt.Sprintf("%s.jpg", frame.Camera),
		Bytes: frame.Image,
	})
	photo.Caption = fmt.Sprintf("📷 %s captured in %.2f secs", frame.Camera, frame.Elapsed.Seconds())

	if _, err := svc.Bot.Send(photo); err != nil {
		return fmt.Errorf("sending photo for camera %s: %w", frame.Camera, err)
	}
	return nil
}

func (svc *telegramService) SendMessage(_ context.Context, text string) error {
	msg := tgbotapi.NewMessage(svc.CfgSvc.GetTelegramChatID(), text)

	if _, err := svc.Bot.Send(msg); err != nil {
		return fmt.Errorf("sending message: %w", err)
	}
	return nil
}
