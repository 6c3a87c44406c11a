package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.opentelemetry.io/otel"

	"github.com/Carmen-Shannon/oxy-avatar/engine"
	"github.com/Carmen-Shannon/oxy-avatar/engine/avatar"
	"github.com/Carmen-Shannon/oxy-avatar/engine/bridge"
	"github.com/Carmen-Shannon/oxy-avatar/engine/loader"
	"github.com/Carmen-Shannon/oxy-avatar/engine/renderer"
	"github.com/Carmen-Shannon/oxy-avatar/engine/session"
	"github.com/Carmen-Shannon/oxy-avatar/engine/window"
)

const (
	bridgePath      = "/bridge"
	shutdownTimeout = 5 * time.Second
)

func newServeCmd(configPath *string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the viewer and accept avatar exports",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(*configPath, cmd.Flags())
			if err != nil {
				return err
			}
			if err := cfg.Validate(); err != nil {
				return fmt.Errorf("invalid config: %w", err)
			}
			logger, err := newLogger(cmd.ErrOrStderr(), cfg)
			if err != nil {
				return err
			}
			slog.SetDefault(logger)

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return serve(ctx, cfg, logger)
		},
	}

	defaults, err := defaultConfig()
	if err != nil {
		defaults = Config{}
	}
	bindFlags(cmd.Flags(), defaults)
	return cmd
}

// viewer holds everything serve builds so it can be torn down in reverse order.
type viewer struct {
	logger   *slog.Logger
	window   window.Window
	renderer renderer.Renderer
	session  session.Session
	widget   bridge.SocketEventSource
	watch    bridge.WatchTransport
	server   *http.Server
}

// serve builds the viewer from cfg and runs it until ctx is cancelled or the window closes.
func serve(ctx context.Context, cfg Config, logger *slog.Logger) error {
	v := &viewer{logger: logger}
	defer v.close()

	loaderOptions := []loader.LoaderBuilderOption{
		loader.WithLogger(logger),
		loader.WithWorkers(cfg.Workers),
	}
	if cfg.Window {
		win, err := window.NewWindow(window.WithTitle("avatarview"), window.WithSize(cfg.Width, cfg.Height))
		if err != nil {
			return fmt.Errorf("open window: %w", err)
		}
		v.window = win
		mode, err := renderer.ParsePresentMode(cfg.PresentMode)
		if err != nil {
			return err
		}
		rend, err := renderer.NewRenderer(renderer.BackendTypeWGPU, win, renderer.WithPresentMode(mode))
		if err != nil {
			return fmt.Errorf("create renderer: %w", err)
		}
		v.renderer = rend
		loaderOptions = append(loaderOptions, loader.WithDevice(rend.Device()))
	}

	sessionOptions := []session.SessionBuilderOption{
		session.WithLogger(logger),
		session.WithLoader(loader.NewLoader(loaderOptions...)),
		session.WithDefaultAvatar(cfg.AvatarURL),
		session.WithAnimation(cfg.AnimationURL),
		session.WithRootJoint(cfg.RootJoint),
		session.WithMessageTags(cfg.Source, cfg.ExportEvent),
		session.WithSlotOptions(avatar.WithTracer(otel.Tracer("avatarview"))),
	}
	if cfg.WidgetSocket != "" {
		v.widget = bridge.NewSocketEventSource(logger)
		hostURL, err := widgetHostURL(cfg.WidgetSocket, cfg.ResolvedToolURL())
		if err != nil {
			return err
		}
		sessionOptions = append(sessionOptions, session.WithWidget(v.widget, hostURL))
	}
	v.session = session.NewSession(sessionOptions...)

	if err := v.session.Start(ctx); err != nil {
		return err
	}
	if v.window != nil {
		v.window.SetTitle("avatarview - " + loader.DisplayLocation(v.session.Active().URL()))
		v.bindKeys(ctx)
	}

	if cfg.Listen != "" {
		if err := v.listen(cfg.Listen); err != nil {
			return err
		}
	}
	if cfg.WatchDir != "" {
		if err := v.watchDir(ctx, cfg.WatchDir); err != nil {
			return err
		}
	}
	logger.Info("viewer running", "tool", cfg.ResolvedToolURL(), "listen", cfg.Listen, "watch", cfg.WatchDir, "window", cfg.Window)

	eng := engine.NewEngine(
		engine.WithLogger(logger),
		engine.WithTickRate(cfg.TickRate),
		engine.WithProfiling(cfg.Profiling),
		engine.WithWindow(v.window),
		engine.WithRenderer(v.renderer),
		engine.WithTickCallback(func(dt float32) {
			if err := v.session.Tick(dt); err != nil {
				logger.Debug("tick skipped", "error", err)
			}
		}),
	)
	return eng.Run(ctx)
}

// widgetHostURL tells the widget host which tool to load through the url query parameter.
func widgetHostURL(socket, toolURL string) (string, error) {
	u, err := url.Parse(socket)
	if err != nil {
		return "", fmt.Errorf("widget_socket: %w", err)
	}
	if u.Scheme != "ws" && u.Scheme != "wss" {
		return "", fmt.Errorf("widget_socket must be a ws or wss URL, got %q", socket)
	}
	q := u.Query()
	q.Set("url", toolURL)
	u.RawQuery = q.Encode()
	return u.String(), nil
}

// bindKeys maps the open and close keys to the tool surface.
func (v *viewer) bindKeys(ctx context.Context) {
	v.window.SetKeyDownCallback(func(key window.Key) {
		switch key {
		case window.KeyOpen:
			// opening may dial the widget, keep it off the window thread
			go func() {
				if err := v.session.OpenSurface(ctx); err != nil {
					v.logger.Warn("failed to open avatar tool", "error", err)
				}
			}()
		case window.KeyClose:
			v.session.CloseSurface()
		}
	})
}

// listen serves the raw-message transport on addr.
func (v *viewer) listen(addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", addr, err)
	}
	mux := http.NewServeMux()
	mux.Handle(bridgePath, v.session.Messages())
	v.server = &http.Server{
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		if err := v.server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			v.logger.Error("message endpoint stopped", "error", err)
		}
	}()
	v.logger.Info("message endpoint listening", "addr", ln.Addr().String(), "path", bridgePath)
	return nil
}

// watchDir starts the drop-folder transport on dir.
func (v *viewer) watchDir(ctx context.Context, dir string) error {
	wt, err := bridge.NewWatchTransport(dir, v.session, bridge.WithWatchLogger(v.logger))
	if err != nil {
		return err
	}
	v.watch = wt
	go func() {
		if err := wt.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			v.logger.Error("watch transport stopped", "error", err)
		}
	}()
	return nil
}

func (v *viewer) close() {
	if v.server != nil {
		ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		if err := v.server.Shutdown(ctx); err != nil {
			v.logger.Warn("message endpoint shutdown", "error", err)
		}
		cancel()
	}
	if v.watch != nil {
		v.watch.Close()
	}
	if v.session != nil {
		if err := v.session.Close(); err != nil {
			v.logger.Warn("session close", "error", err)
		}
	}
	if v.widget != nil {
		v.widget.Close()
	}
	if v.renderer != nil {
		v.renderer.Release()
	}
}
