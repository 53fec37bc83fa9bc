package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/smegmarip/live-recognition/internal/alert"
	"github.com/smegmarip/live-recognition/internal/camera"
	"github.com/smegmarip/live-recognition/internal/config"
	"github.com/smegmarip/live-recognition/internal/emitter"
	"github.com/smegmarip/live-recognition/internal/frame"
	"github.com/smegmarip/live-recognition/internal/perf"
	"github.com/smegmarip/live-recognition/internal/recognition"
	"github.com/smegmarip/live-recognition/internal/session"
	"github.com/smegmarip/live-recognition/internal/settings"
	"github.com/smegmarip/live-recognition/internal/tui"
	"github.com/smegmarip/live-recognition/internal/web"
)

const shutdownTimeout = 10 * time.Second

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the live recognition controller",
	Long: `Run the live recognition controller.
The controller serves a web control API (start/stop, capture, settings,
live events and metrics). With --tui a terminal monitor is shown as well;
with --autostart recognition begins immediately.`,
	RunE: runRun,
}

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().String("listen", "", "Address for the web control API (overrides web.listen)")
	runCmd.Flags().Bool("tui", false, "Show the terminal monitor")
	runCmd.Flags().Bool("autostart", false, "Start recognition immediately")
	runCmd.Flags().String("log-file", "live-recognition.log", "Log file used while the terminal monitor is shown")
}

// app holds the wired components of a running controller
type app struct {
	ctrl     *session.Controller
	store    *settings.Store
	registry *prometheus.Registry
	emitter  *emitter.MQTTEmitter
}

func buildApp(ctx context.Context, cfg *config.AppConfig) (*app, error) {
	acquirer, err := camera.NewAcquirer(cfg.Camera)
	if err != nil {
		return nil, fmt.Errorf("failed to create camera source: %w", err)
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	a := &app{
		store:    settings.NewStore(settingsStorage(cfg)),
		registry: reg,
	}

	var publisher session.Publisher
	if cfg.MQTT.Enabled() {
		a.emitter = emitter.NewMQTTEmitter(cfg.MQTT, reg)
		if err := a.emitter.Connect(ctx); err != nil {
			log.Warnf("MQTT unavailable, results will not be published until it reconnects: %v", err)
		}
		publisher = a.emitter
	}

	a.ctrl = session.New(session.Deps{
		Store:          a.store,
		Acquirer:       acquirer,
		Recognizer:     recognition.NewClient(cfg.RecognitionEndpoint()),
		Monitor:        perf.NewMonitor(reg),
		Alerts:         alert.NewSink(alert.DetectSpeaker(), alert.NewDesktopNotifier()),
		Captures:       frame.NewWriter(cfg.Captures.Dir),
		Publisher:      publisher,
		DarkBackground: tui.DarkBackground,
	})

	// Load after the controller subscribes so the loaded record is applied
	loadSettings(a.store)

	if a.emitter != nil {
		go a.emitter.Watch(ctx, a.ctrl.AddListener())
	}
	return a, nil
}

func runRun(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if listen := mustGetString(cmd, "listen"); listen != "" {
		cfg.Web.Listen = listen
	}
	useTUI := mustGetBool(cmd, "tui")
	if useTUI {
		f, err := os.OpenFile(mustGetString(cmd, "log-file"), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return fmt.Errorf("failed to open log file: %w", err)
		}
		defer f.Close()
		log.SetOutput(f)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := buildApp(ctx, cfg)
	if err != nil {
		return err
	}
	log.Infof("Recognition endpoint: %s", cfg.RecognitionEndpoint())

	go a.ctrl.RunMonitor(ctx)

	srv := web.NewServer(cfg.Web.Listen, a.ctrl, a.registry, Version)
	serverErr := make(chan error, 1)
	go func() {
		serverErr <- srv.Start(ctx)
	}()

	if mustGetBool(cmd, "autostart") {
		if err := a.ctrl.Start(ctx); err != nil && !errors.Is(err, session.ErrStartAborted) {
			log.Warnf("Autostart failed: %v", err)
		}
	}

	var runErr error
	if useTUI {
		tuiErr := make(chan error, 1)
		go func() { tuiErr <- tui.Run(ctx, a.ctrl) }()
		select {
		case runErr = <-tuiErr:
		case runErr = <-serverErr:
		}
	} else {
		select {
		case <-ctx.Done():
			log.Info("Shutdown signal received")
		case runErr = <-serverErr:
		}
	}
	stop()

	a.ctrl.Close()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Warnf("Web server shutdown: %v", err)
	}
	if a.emitter != nil {
		a.emitter.Disconnect()
	}
	return runErr
}
