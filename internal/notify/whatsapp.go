package notify

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/mdp/qrterminal/v3"
	"go.mau.fi/whatsmeow"
	"go.mau.fi/whatsmeow/proto/waE2E"
	"go.mau.fi/whatsmeow/store"
	"go.mau.fi/whatsmeow/store/sqlstore"
	"go.mau.fi/whatsmeow/types"
	"go.mau.fi/whatsmeow/types/events"
	waLog "go.mau.fi/whatsmeow/util/log"
	"google.golang.org/protobuf/proto"

	"github.com/nahidhasan98/autocommit/internal/config"
	"github.com/nahidhasan98/autocommit/internal/logger"
)

// Backoff is an exponential retry schedule
type Backoff struct {
	MaxRetries      int
	InitialInterval time.Duration
	MaxInterval     time.Duration
	Multiplier      float64
}

// DefaultBackoff is used for reconnecting a dropped session
var DefaultBackoff = Backoff{
	MaxRetries:      10,
	InitialInterval: 5 * time.Second,
	MaxInterval:     5 * time.Minute,
	Multiplier:      1.5,
}

// Next returns the interval that follows current
func (b Backoff) Next(current time.Duration) time.Duration {
	next := time.Duration(float64(current) * b.Multiplier)
	if next > b.MaxInterval {
		return b.MaxInterval
	}
	return next
}

// ParseRecipient parses a user or group JID such as 8801XXXXXXXXX@s.whatsapp.net
func ParseRecipient(s string) (types.JID, error) {
	jid, err := types.ParseJID(strings.TrimSpace(s))
	if err != nil {
		return types.JID{}, fmt.Errorf("invalid recipient JID %q: %w", s, err)
	}
	if jid.User == "" || (jid.Server != types.DefaultUserServer && jid.Server != types.GroupServer) {
		return types.JID{}, fmt.Errorf("invalid recipient JID %q: expected user@%s or id@%s", s, types.DefaultUserServer, types.GroupServer)
	}
	return jid, nil
}

// WhatsApp sends notifications from a linked WhatsApp device
type WhatsApp struct {
	client    *whatsmeow.Client
	container *sqlstore.Container
	recipient types.JID
	backoff   Backoff
	qrOut     io.Writer
	log       *logger.Logger

	mu              sync.RWMutex
	connected       bool
	cancelReconnect context.CancelFunc
	reconnectGen    uint64
}

// NewWhatsApp opens the device session store and prepares a client.
// Call Start to connect or pair.
func NewWhatsApp(ctx context.Context, cfg config.WhatsAppConfig, log *logger.Logger) (*WhatsApp, error) {
	recipient, err := ParseRecipient(cfg.Recipient)
	if err != nil {
		return nil, err
	}

	log = log.Component("whatsapp")
	waLogger := waLog.Zerolog(log.WithLevel(cfg.LogLevel).Zerolog())

	container, err := sqlstore.New(ctx, "sqlite3", cfg.SessionDSN, waLogger.Sub("Database"))
	if err != nil {
		return nil, fmt.Errorf("failed to open session store: %w", err)
	}

	device, err := container.GetFirstDevice(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get device store: %w", err)
	}

	// Name shown under Linked Devices on the phone
	store.SetOSInfo(cfg.DeviceName, [3]uint32{0, 1, 0})
	device.Platform = cfg.DeviceName

	w := &WhatsApp{
		client:    whatsmeow.NewClient(device, waLogger.Sub("Client")),
		container: container,
		recipient: recipient,
		backoff:   DefaultBackoff,
		qrOut:     os.Stdout,
		log:       log,
	}
	w.client.AddEventHandler(w.handleEvent)
	return w, nil
}

// Start connects an existing session or begins QR pairing in the background.
// It does not block on pairing.
func (w *WhatsApp) Start(ctx context.Context) error {
	if w.client.Store.ID == nil {
		w.log.Info("No WhatsApp session found, starting QR pairing")
		go w.pair(ctx)
		return nil
	}

	w.log.Info("Existing WhatsApp session found, connecting")
	if err := w.client.Connect(); err != nil {
		return fmt.Errorf("failed to connect client: %w", err)
	}
	return nil
}

// Stop disconnects and cancels any reconnection in progress
func (w *WhatsApp) Stop() {
	w.mu.Lock()
	if w.cancelReconnect != nil {
		w.cancelReconnect()
		w.cancelReconnect = nil
	}
	w.connected = false
	w.mu.Unlock()

	w.client.Disconnect()
	w.log.Info("Disconnected from WhatsApp")
}

// Available implements Notifier
func (w *WhatsApp) Available() bool {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.connected && w.client.IsConnected() && w.client.Store.ID != nil
}

// Notify implements Notifier
func (w *WhatsApp) Notify(ctx context.Context, text string) error {
	if !w.Available() {
		return fmt.Errorf("whatsapp client is not connected")
	}

	msg := &waE2E.Message{Conversation: proto.String(text)}
	if _, err := w.client.SendMessage(ctx, w.recipient, msg); err != nil {
		return fmt.Errorf("failed to send message: %w", err)
	}
	w.log.Debugf("Notification sent to %s", w.recipient)
	return nil
}

func (w *WhatsApp) handleEvent(evt interface{}) {
	switch v := evt.(type) {
	case *events.Connected:
		w.markConnected()
		w.log.Info("WhatsApp client connected")

	case *events.Disconnected:
		w.mu.Lock()
		w.connected = false
		start := w.cancelReconnect == nil
		w.mu.Unlock()

		w.log.Warn("WhatsApp client disconnected")
		if start {
			go w.reconnect()
		}

	case *events.LoggedOut:
		w.mu.Lock()
		w.connected = false
		w.mu.Unlock()
		w.log.Warnf("WhatsApp session logged out (reason %v), pairing required", v.Reason)

	case *events.StreamError:
		w.log.Errorf("WhatsApp stream error: %v", v)
	}
}

// markConnected records a live connection and stops any reconnect loop
func (w *WhatsApp) markConnected() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.connected = true
	if w.cancelReconnect != nil {
		w.cancelReconnect()
		w.cancelReconnect = nil
	}
}

// beginReconnect claims the reconnect slot. The returned finish releases it
// only if no newer loop has claimed it since.
func (w *WhatsApp) beginReconnect() (ctx context.Context, finish func(), ok bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.connected || w.cancelReconnect != nil {
		return nil, nil, false
	}

	ctx, cancel := context.WithCancel(context.Background())
	w.reconnectGen++
	gen := w.reconnectGen
	w.cancelReconnect = cancel

	return ctx, func() {
		w.mu.Lock()
		if w.reconnectGen == gen {
			w.cancelReconnect = nil
		}
		w.mu.Unlock()
		cancel()
	}, true
}

func (w *WhatsApp) reconnect() {
	ctx, finish, ok := w.beginReconnect()
	if !ok {
		return
	}
	defer finish()

	interval := w.backoff.InitialInterval
	for attempt := 1; attempt <= w.backoff.MaxRetries; attempt++ {
		select {
		case <-ctx.Done():
			return
		case <-time.After(interval):
		}

		if w.client.IsConnected() {
			return
		}

		w.log.Infof("Reconnection attempt %d/%d", attempt, w.backoff.MaxRetries)
		if err := w.client.Connect(); err != nil {
			w.log.Errorf("Reconnection attempt %d failed: %v", attempt, err)
			interval = w.backoff.Next(interval)
			continue
		}
		return
	}

	w.log.Error("All reconnection attempts failed", nil)
}

// pair shows QR codes until one is scanned or attempts run out
func (w *WhatsApp) pair(ctx context.Context) {
	const attempts = 5

	for attempt := 1; attempt <= attempts; attempt++ {
		if ctx.Err() != nil {
			return
		}
		if attempt > 1 {
			w.log.Infof("Generating new QR code (attempt %d/%d)", attempt, attempts)
			select {
			case <-ctx.Done():
				return
			case <-time.After(5 * time.Second):
			}
		}

		paired, err := w.pairOnce(ctx)
		if err != nil {
			w.log.WarnErr("QR pairing attempt failed", err)
			continue
		}
		if paired {
			w.log.Info("WhatsApp pairing successful")
			return
		}
	}

	w.log.Error("Failed to pair WhatsApp after multiple attempts", nil)
}

func (w *WhatsApp) pairOnce(ctx context.Context) (bool, error) {
	qrCtx, cancel := context.WithTimeout(ctx, 60*time.Second)
	defer cancel()

	qrChan, err := w.client.GetQRChannel(qrCtx)
	if err != nil {
		return false, fmt.Errorf("get QR channel: %w", err)
	}
	if !w.client.IsConnected() {
		if err := w.client.Connect(); err != nil {
			return false, fmt.Errorf("connect: %w", err)
		}
	}

	for {
		select {
		case <-qrCtx.Done():
			return false, nil
		case evt, ok := <-qrChan:
			if !ok {
				return false, nil
			}
			switch evt.Event {
			case whatsmeow.QRChannelEventCode:
				w.printQR(evt.Code)
			case whatsmeow.QRChannelSuccess.Event:
				return true, nil
			case whatsmeow.QRChannelTimeout.Event:
				w.log.Warn("QR code expired")
				return false, nil
			default:
				w.log.Infof("Pairing event: %s", evt.Event)
			}
		}
	}
}

func (w *WhatsApp) printQR(code string) {
	rule := strings.Repeat("=", 64)
	fmt.Fprintf(w.qrOut, "\n%s\nScan with WhatsApp > Settings > Linked Devices > Link a Device\n%s\n", rule, rule)
	qrterminal.GenerateWithConfig(code, qrterminal.Config{
		Level:      qrterminal.M,
		Writer:     w.qrOut,
		HalfBlocks: true,
		QuietZone:  1,
	})
	fmt.Fprintf(w.qrOut, "%s\nThe code expires in 60 seconds\n%s\n\n", rule, rule)
}
