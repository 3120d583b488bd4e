package trigger

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/google/uuid"
	"golang.org/x/xerrors"

	"github.com/khaledhikmat/snap-go/model"
	"github.com/khaledhikmat/snap-go/service/config"
	"github.com/khaledhikmat/snap-go/service/lgr"
)

type mqttService struct {
	CanxCtx context.Context
	CfgSvc  config.IService

	// mu guards the mutable subscription state below. The paho message and
	// connect handlers run on client goroutines, so every reader of these
	// fields takes the lock.
	mu             sync.Mutex
	SubsCtx        context.Context
	SubsCancel     context.CancelFunc
	TriggerChannel chan model.Trigger
	Client         mqtt.Client

	dropped atomic.Int64
}

// NewMQTT returns a trigger service backed by a single MQTT connection with a
// single subscription. Reconnects are owned by the paho client; the
// subscription is re-established from the connect handler on every
// (re)connect.
func NewMQTT(canxCtx context.Context, cfgSvc config.IService) IService {
	return &mqttService{
		CanxCtx: canxCtx,
		CfgSvc:  cfgSvc,
	}
}

func (svc *mqttService) Subscribe() (<-chan model.Trigger, error) {
	svc.mu.Lock()
	if svc.SubsCtx != nil {
		svc.mu.Unlock()
		return nil, xerrors.New("mqtt trigger service already subscribed. Unsubscribe first")
	}

	// One buffered slot: a trigger arriving mid-pass is held for the next
	// pass; anything beyond that is dropped by the message handler. This is
	// the whole backpressure policy.
	if svc.TriggerChannel == nil {
		svc.TriggerChannel = make(chan model.Trigger, 1)
	}
	triggers := svc.TriggerChannel

	subsCtx, subsCancel := context.WithCancel(svc.CanxCtx)
	svc.SubsCtx = subsCtx
	svc.SubsCancel = subsCancel
	svc.mu.Unlock()

	broker := fmt.Sprintf("tcp://%s:%d", svc.CfgSvc.GetBrokerAddress(), svc.CfgSvc.GetBrokerPort())
	opts := mqtt.NewClientOptions().
		AddBroker(broker).
		SetClientID(fmt.Sprintf("snap-go-%s", uuid.NewString())).
		SetAutoReconnect(true).
		SetConnectTimeout(10 * time.Second)

	if user := svc.CfgSvc.GetBrokerUser(); user != "" {
		opts.SetUsername(user)
		opts.SetPassword(svc.CfgSvc.GetBrokerPassword())
	}

	opts.SetOnConnectHandler(func(client mqtt.Client) {
		topic := svc.CfgSvc.GetTriggerTopic()
		if token := client.Subscribe(topic, 0, svc.onMessage); token.Wait() && token.Error() != nil {
			lgr.Logger.Error(
				"error subscribing to trigger topic",
				slog.String("topic", topic),
				lgr.ErrAttr(token.Error()),
			)
			return
		}
		lgr.Logger.Info(
			"subscribed to trigger topic",
			slog.String("broker", broker),
			slog.String("topic", topic),
		)
	})

	opts.SetConnectionLostHandler(func(_ mqtt.Client, err error) {
		lgr.Logger.Warn(
			"broker connection lost. Waiting on auto-reconnect",
			lgr.ErrAttr(err),
		)
	})

	client := mqtt.NewClient(opts)
	svc.mu.Lock()
	svc.Client = client
	svc.mu.Unlock()

	if token := client.Connect(); token.Wait() && token.Error() != nil {
		svc.cleanup()
		return nil, fmt.Errorf("connecting to broker %s: %w", broker, token.Error())
	}

	// Tear the client down when the subscription or the root context ends.
	go func() {
		select {
		case <-svc.CanxCtx.Done():
		case <-subsCtx.Done():
		}

		lgr.Logger.Info(
			"mqtt trigger service disconnecting",
			slog.Int64("droppedTriggers", svc.dropped.Load()),
		)
		svc.cleanup()
	}()

	return triggers, nil
}

// onMessage is the only paho callback touching message payloads. It converts
// the message into a trigger and hands it to the receive loop. The payload
// content is never inspected; arrival alone is the trigger.
func (svc *mqttService) onMessage(_ mqtt.Client, msg mqtt.Message) {
	trig := model.Trigger{
		ID:         uuid.NewString(),
		Topic:      msg.Topic(),
		Payload:    msg.Payload(),
		ReceivedAt: time.Now(),
	}

	// The send happens under the lock so Finalize cannot close the channel
	// between the nil check and the send.
	svc.mu.Lock()
	defer svc.mu.Unlock()

	if svc.TriggerChannel == nil {
		svc.dropped.Add(1)
		return
	}

	select {
	case svc.TriggerChannel <- trig:
	default:
		svc.dropped.Add(1)
		lgr.Logger.Info(
			"dropping trigger while a pass is in flight",
			slog.String("topic", msg.Topic()),
			slog.Int64("droppedTriggers", svc.dropped.Load()),
		)
	}
}

func (svc *mqttService) Unsubscribe() error {
	svc.mu.Lock()
	subscribed := svc.SubsCtx != nil
	svc.mu.Unlock()

	if !subscribed {
		return xerrors.New("not subscribed yet. Subscribe first")
	}

	svc.cleanup()
	return nil
}

func (svc *mqttService) Finalize() {
	svc.cleanup()

	svc.mu.Lock()
	defer svc.mu.Unlock()
	if svc.TriggerChannel != nil {
		close(svc.TriggerChannel)
		svc.TriggerChannel = nil
	}
}

func (svc *mqttService) cleanup() {
	svc.mu.Lock()
	client := svc.Client
	svc.Client = nil

	if svc.SubsCancel != nil {
		svc.SubsCancel()
		svc.SubsCtx = nil
		svc.SubsCancel = nil
	}
	svc.mu.Unlock()

	// Disconnect waits on the client goroutines, which may be inside
	// onMessage waiting on the lock. It must run unlocked.
	if client != nil && client.IsConnected() {
		client.Disconnect(250)
	}
}
