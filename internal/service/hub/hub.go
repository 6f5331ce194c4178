package hub

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"sync"

	"google.golang.org/grpc"
	"periph.io/x/conn/v3/physic"

	homegrpc "github.com/oshokin/smart-home/internal/api/grpc/home"
	"github.com/oshokin/smart-home/internal/api/web"
	"github.com/oshokin/smart-home/internal/config"
	"github.com/oshokin/smart-home/internal/device/board"
	"github.com/oshokin/smart-home/internal/device/button"
	"github.com/oshokin/smart-home/internal/device/buzzer"
	"github.com/oshokin/smart-home/internal/device/oled"
	"github.com/oshokin/smart-home/internal/domain/alarm"
	"github.com/oshokin/smart-home/internal/logger"
	"github.com/oshokin/smart-home/internal/service/controller"
	"github.com/oshokin/smart-home/internal/service/notify"
)

// Hub is a fully wired controller with its listeners bound.
type Hub struct {
	ctrl       *controller.Controller
	watcher    *button.Watcher
	dispatcher *notify.Dispatcher
	display    *oled.Display

	httpServer   *http.Server
	httpListener net.Listener
	grpcServer   *grpc.Server
	grpcListener net.Listener

	// closers are released when Serve returns, in reverse order.
	closers []func()
}

// New builds every collaborator around b and binds both listeners.
// Nothing runs until Serve is called.
func New(ctx context.Context, cfg *config.Config, b *board.Board) (*Hub, error) {
	h := new(Hub)

	deviceLevel, ok := logger.ParseLogLevel(cfg.DeviceLogLevel)
	if !ok {
		return nil, fmt.Errorf("device log level %q: %w", cfg.DeviceLogLevel, errUnknownLogLevel)
	}

	h.display = oled.NewDisplay(h.renderer(ctx, cfg, b), oled.DefaultHold)
	h.dispatcher = notify.NewDispatcher(cfg.Notify.QueueSize, cfg.Notify.Timeout, h.notifiers(ctx, cfg)...)

	mailbox := button.NewMailbox()
	h.watcher = button.NewWatcher(b.Button, cfg.Debounce, mailbox)

	h.ctrl = controller.New(controller.Devices{
		Front:       b.Front,
		Zone:        b.Zone,
		Door:        b.Door,
		Light:       b.Light,
		Thermometer: b.Thermometer,
		Outputs:     b.Outputs,
		Display:     h.display,
		Alerter:     newAlerter(ctx, cfg, b),
		Events:      h.dispatcher,
		Button:      mailbox,
	}, controller.Settings{
		Tick:           cfg.Tick,
		RangingTimeout: cfg.RangingTimeout,
		ProximityCm:    cfg.Thresholds.ProximityCm,
		Thresholds: alarm.Thresholds{
			IntrusionCm: cfg.Thresholds.IntrusionCm,
			AxisMin:     cfg.Thresholds.AxisMin,
			AxisMax:     cfg.Thresholds.AxisMax,
		},
		DeviceLogLevel: deviceLevel,
	})

	if err := h.listen(ctx, cfg); err != nil {
		h.release()

		return nil, err
	}

	return h, nil
}

// Controller returns the poll loop.
func (h *Hub) Controller() *controller.Controller {
	return h.ctrl
}

// Display returns the status screen.
func (h *Hub) Display() *oled.Display {
	return h.display
}

// HTTPAddr is the bound address of the page.
func (h *Hub) HTTPAddr() net.Addr {
	return h.httpListener.Addr()
}

// GRPCAddr is the bound address of the gRPC API.
func (h *Hub) GRPCAddr() net.Addr {
	return h.grpcListener.Addr()
}

// Serve runs the loop, the button watcher, the notifiers and both servers
// until ctx is canceled, then stops them and waits.
func (h *Hub) Serve(ctx context.Context) error {
	defer h.release()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var wg sync.WaitGroup

	wg.Go(func() {
		_ = h.ctrl.Run(ctx)
	})

	wg.Go(func() {
		if err := h.watcher.Run(ctx); err != nil {
			logger.ErrorKV(ctx, "Button watcher stopped", "error", err)
		}
	})

	wg.Go(func() {
		h.dispatcher.Run(ctx)
	})

	errs := make(chan error, 2)

	wg.Go(func() {
		if err := h.grpcServer.Serve(h.grpcListener); err != nil && !errors.Is(err, grpc.ErrServerStopped) {
			errs <- fmt.Errorf("serve gRPC: %w", err)
		}
	})

	wg.Go(func() {
		if err := h.httpServer.Serve(h.httpListener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errs <- fmt.Errorf("serve HTTP: %w", err)
		}
	})

	logger.InfoKV(ctx, "Home hub listening",
		"http_address", h.HTTPAddr().String(),
		"grpc_address", h.GRPCAddr().String())

	var serveErr error

	select {
	case <-ctx.Done():
	case serveErr = <-errs:
	}

	logger.Info(ctx, "Shutting down servers")

	shutdownCtx, cancelShutdown := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
	defer cancelShutdown()

	if err := h.httpServer.Shutdown(shutdownCtx); err != nil {
		logger.WarnKV(ctx, "HTTP server not stopped cleanly", "error", err)
	}

	h.grpcServer.GracefulStop()
	cancel()

	wg.Wait()
	logger.Info(ctx, "Home hub stopped")

	return serveErr
}

func (h *Hub) listen(ctx context.Context, cfg *config.Config) error {
	lc := net.ListenConfig{}

	grpcListener, err := lc.Listen(ctx, "tcp", cfg.GRPCAddress)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", cfg.GRPCAddress, err)
	}

	h.grpcListener = grpcListener
	h.grpcServer = grpc.NewServer()
	homegrpc.Register(h.grpcServer, homegrpc.NewServer(h.ctrl))

	httpListener, err := lc.Listen(ctx, "tcp", cfg.HTTPAddress)
	if err != nil {
		_ = grpcListener.Close()

		return fmt.Errorf("listen on %s: %w", cfg.HTTPAddress, err)
	}

	h.httpListener = httpListener
	h.httpServer = web.NewServer(logger.WithName(ctx, "web"), cfg.HTTPAddress, h.ctrl)

	return nil
}

func (h *Hub) renderer(ctx context.Context, cfg *config.Config, b *board.Board) oled.Renderer {
	if !cfg.I2C.OLED || b.Bus == nil {
		return oled.LogRenderer{}
	}

	screen, err := oled.NewSSD1306(b.Bus)
	if err != nil {
		logger.WarnKV(ctx, "OLED unavailable, logging screen changes instead", "error", err)

		return oled.LogRenderer{}
	}

	h.closers = append(h.closers, closeLogged(ctx, "OLED", screen))

	return screen
}

// notifiers returns the log notifier and every configured remote one.
// A remote notifier that cannot be reached is skipped.
func (h *Hub) notifiers(ctx context.Context, cfg *config.Config) []notify.Notifier {
	result := []notify.Notifier{notify.Log{}}

	if cfg.Notify.MQTT.Broker != "" {
		publisher, disconnect, err := notify.DialMQTT(ctx, cfg.Notify.MQTT, cfg.Notify.Timeout)
		if err != nil {
			logger.WarnKV(ctx, "MQTT notifier disabled", "broker", cfg.Notify.MQTT.Broker, "error", err)
		} else {
			result = append(result, publisher)
			h.closers = append(h.closers, disconnect)
		}
	}

	if cfg.Notify.Telegram.Token != "" && cfg.Notify.Telegram.ChatID != 0 {
		telegram, err := notify.DialTelegram(cfg.Notify.Telegram.Token, cfg.Notify.Telegram.ChatID, cfg.Notify.Timeout)
		if err != nil {
			logger.WarnKV(ctx, "Telegram notifier disabled", "error", err)
		} else {
			result = append(result, telegram)
		}
	}

	if cfg.Notify.Webhook.URL != "" {
		result = append(result, notify.NewWebhook(cfg.Notify.Webhook.URL, cfg.Notify.Timeout))
	}

	names := make([]string, 0, len(result))
	for _, n := range result {
		names = append(names, n.Name())
	}

	logger.InfoKV(ctx, "Notifiers ready", "notifiers", names)

	return result
}

func (h *Hub) release() {
	for i := len(h.closers) - 1; i >= 0; i-- {
		h.closers[i]()
	}

	h.closers = nil
}

// newAlerter builds the buzzer alerter in the configured mode.
func newAlerter(ctx context.Context, cfg *config.Config, b *board.Board) controller.Alerter {
	alerter := buzzer.New(b.Buzzer, buzzer.Pattern{
		Repetitions: cfg.Alert.Repetitions,
		Tone:        cfg.Alert.Tone,
		Pause:       cfg.Alert.Pause,
		Frequency:   physic.Frequency(cfg.Alert.FrequencyHz) * physic.Hertz,
	})

	logger.DebugKV(ctx, "Alerter ready", "mode", cfg.AlertMode, "pattern", alerter.Pattern().Duration().String())

	if cfg.AlertMode == config.AlertModeAsync {
		return buzzer.NewAsync(alerter)
	}

	return alerter
}

func closeLogged(ctx context.Context, name string, c io.Closer) func() {
	return func() {
		if err := c.Close(); err != nil {
			logger.WarnKV(ctx, "Close failed", "device", name, "error", err)
		}
	}
}
