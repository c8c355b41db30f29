// Command mudra tracks a hand in the webcam feed, shows whether it is open
// or closed into a fist, and optionally turns fists into clicks.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/lmittmann/tint"
	"github.com/urfave/cli/v2"

	"github.com/ayusman/mudra/internal/app"
	"github.com/ayusman/mudra/internal/capture"
	"github.com/ayusman/mudra/internal/config"
	"github.com/ayusman/mudra/internal/detector"
	"github.com/ayusman/mudra/internal/plugin"
	"github.com/ayusman/mudra/internal/render"
	"github.com/ayusman/mudra/internal/server"
	"github.com/ayusman/mudra/internal/store"
	"github.com/ayusman/mudra/internal/tray"
)

const (
	flagConfig      = "config"
	flagCamera      = "camera"
	flagListen      = "listen"
	flagStaticDir   = "static-dir"
	flagDB          = "db"
	flagHeadless    = "headless"
	flagPluginDir   = "plugin-dir"
	flagOnFist      = "on-fist"
	flagLogLevel    = "log-level"
	flagNoLandmarks = "no-landmarks"
	flagLimit       = "limit"
)

func main() {
	if err := newApp().RunContext(context.Background(), os.Args); err != nil {
		fmt.Fprintln(os.Stderr, "mudra:", err)
		os.Exit(1)
	}
}

func newApp() *cli.App {
	return &cli.App{
		Name:  "mudra",
		Usage: "webcam hand tracking with fist-to-click",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    flagConfig,
				Aliases: []string{"c"},
				Usage:   "load configuration from `FILE`",
			},
			&cli.IntFlag{Name: flagCamera, Usage: "camera device index"},
			&cli.StringFlag{Name: flagListen, Usage: "serve the live feed on `ADDR` (e.g. :8080)"},
			&cli.StringFlag{Name: flagStaticDir, Usage: "serve static files from `DIR` with the live feed"},
			&cli.StringFlag{Name: flagDB, Usage: "record sessions to the SQLite database at `PATH`"},
			&cli.BoolFlag{Name: flagHeadless, Usage: "no preview window; control from the system tray"},
			&cli.StringFlag{Name: flagPluginDir, Usage: "plugin directory"},
			&cli.StringFlag{Name: flagOnFist, Usage: "run `PLUGIN:ACTION` on every click, e.g. pointer:click"},
			&cli.StringFlag{Name: flagLogLevel, Usage: "debug, info, warn or error"},
			&cli.BoolFlag{Name: flagNoLandmarks, Usage: "do not draw the hand skeleton"},
		},
		Action: run,
		Commands: []*cli.Command{
			{
				Name:  "sessions",
				Usage: "list recorded sessions",
				Flags: []cli.Flag{
					&cli.IntFlag{Name: flagLimit, Value: 20, Usage: "show at most `N` sessions"},
				},
				Action: listSessions,
			},
		},
	}
}

// loadConfig reads the config file, if any, and applies flag overrides.
func loadConfig(c *cli.Context) (*config.Config, error) {
	cfg := config.Default()
	if path := c.String(flagConfig); path != "" {
		var err error
		if cfg, err = config.Load(path); err != nil {
			return nil, err
		}
	}

	if c.IsSet(flagCamera) {
		cfg.Camera.Device = c.Int(flagCamera)
	}
	if c.IsSet(flagListen) {
		cfg.Server.Listen = c.String(flagListen)
	}
	if c.IsSet(flagStaticDir) {
		cfg.Server.StaticDir = c.String(flagStaticDir)
	}
	if c.IsSet(flagDB) {
		cfg.Store.Path = c.String(flagDB)
	}
	if c.IsSet(flagHeadless) {
		cfg.Display.Headless = c.Bool(flagHeadless)
	}
	if c.IsSet(flagPluginDir) {
		cfg.Plugins.Dir = c.String(flagPluginDir)
	}
	if c.IsSet(flagOnFist) {
		action, err := config.ParseAction(c.String(flagOnFist))
		if err != nil {
			return nil, err
		}
		cfg.Plugins.OnFist = action
	}
	if c.IsSet(flagLogLevel) {
		cfg.Log.Level = c.String(flagLogLevel)
	}
	if c.Bool(flagNoLandmarks) {
		draw := false
		cfg.Display.DrawLandmarks = &draw
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func newLogger(level string) *slog.Logger {
	lvl, _ := config.ParseLevel(level)
	return slog.New(tint.NewHandler(os.Stderr, &tint.Options{
		Level:      lvl,
		TimeFormat: "15:04:05",
	}))
}

func newDetector(cfg *config.Config, logger *slog.Logger) detector.Detector {
	d, err := detector.NewMediaPipeDetector(detector.Config{
		MaxHands:         cfg.Detector.MaxHands,
		MinDetectionConf: cfg.Detector.MinDetectionConfidence,
		MinTrackingConf:  cfg.Detector.MinTrackingConfidence,
		Script:           cfg.Detector.Script,
		Python:           cfg.Detector.Python,
		IdleTimeout:      cfg.Detector.IdleTimeout,
	}, logger)
	if err != nil {
		logger.Warn("hand detection unavailable, frames will show no hand", "err", err)
		return detector.NewMockDetector()
	}
	return d
}

func run(c *cli.Context) (err error) {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	logger := newLogger(cfg.Log.Level)
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var (
		frameObservers      []app.FrameObserver
		transitionObservers []app.TransitionObserver
	)

	if cfg.Store.Path != "" {
		st, err := store.New(cfg.Store.Path)
		if err != nil {
			return err
		}
		defer st.Close()

		rec, err := store.NewRecorder(st, cfg.Camera.Device, logger)
		if err != nil {
			return fmt.Errorf("start session: %w", err)
		}
		defer rec.Close()
		frameObservers = append(frameObservers, rec)
		transitionObservers = append(transitionObservers, rec)
	}

	var hub *server.Hub
	if cfg.Server.Listen != "" {
		hub = server.NewHub(logger)
		frameObservers = append(frameObservers, hub)
	}

	if binding := cfg.Plugins.OnFist; binding != nil {
		manager := plugin.NewManager(cfg.Plugins.Dir, logger)
		if err := manager.Discover(); err != nil {
			return err
		}
		executor := plugin.NewExecutor(time.Duration(cfg.Plugins.TimeoutMs) * time.Millisecond)
		dispatcher, err := plugin.NewDispatcher(manager, executor, plugin.Binding{
			Plugin: binding.Plugin,
			Action: binding.Action,
			Config: binding.Config,
		}, logger)
		if err != nil {
			return err
		}
		dispatcher.Start(ctx)
		defer dispatcher.Close()
		transitionObservers = append(transitionObservers, dispatcher)
	}

	var tr *tray.Tray
	var display render.Display
	if cfg.Display.Headless {
		tr = tray.New()
		transitionObservers = append(transitionObservers, tr)
		display = render.NewHeadless()
	} else {
		display = render.NewWindow(cfg.Display.WindowTitle)
	}

	a, err := app.New(app.Config{
		Camera: capture.NewCameraWithOptions(capture.Options{
			Device: cfg.Camera.Device,
			Width:  cfg.Camera.Width,
			Height: cfg.Camera.Height,
			FPS:    cfg.Camera.FPS,
		}),
		Detector:            newDetector(cfg, logger),
		Display:             display,
		Logger:              logger,
		QuitKey:             cfg.QuitKeyCode(),
		Render:              render.Options{DrawLandmarks: cfg.ShouldDrawLandmarks()},
		FrameObservers:      frameObservers,
		TransitionObservers: transitionObservers,
	})
	if err != nil {
		return err
	}

	if hub != nil {
		srv := server.New(server.Config{
			StaticDir: cfg.Server.StaticDir,
			Hub:       hub,
			Stats:     a.Stats,
			Logger:    logger,
		})
		go func() {
			if err := srv.ListenAndServe(ctx, cfg.Server.Listen); err != nil {
				logger.Error("server stopped", "err", err)
				cancel()
			}
		}()
	}

	if tr == nil {
		return a.Run(ctx)
	}

	// The tray owns the main goroutine in headless mode.
	tr.OnToggle(a.SetEnabled)
	tr.OnQuit(cancel)
	if cfg.Server.Listen != "" {
		url := "http://" + browserAddr(cfg.Server.Listen)
		tr.OnOpen(func() {
			if err := openBrowser(url); err != nil {
				logger.Warn("open browser", "url", url, "err", err)
			}
		})
	}

	errc := make(chan error, 1)
	go func() {
		errc <- a.Run(ctx)
		tr.Stop()
	}()
	tr.Run()
	cancel()
	return <-errc
}

// browserAddr turns a listen address like ":8080" into "localhost:8080".
func browserAddr(listen string) string {
	if len(listen) > 0 && listen[0] == ':' {
		return "localhost" + listen
	}
	return listen
}

func openBrowser(url string) error {
	switch runtime.GOOS {
	case "darwin":
		return exec.Command("open", url).Start()
	case "linux":
		return exec.Command("xdg-open", url).Start()
	}
	return errors.New("unsupported platform: " + runtime.GOOS)
}

func listSessions(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	if cfg.Store.Path == "" {
		return errors.New("no database: pass --db or set store.path")
	}

	st, err := store.New(cfg.Store.Path)
	if err != nil {
		return err
	}
	defer st.Close()

	sessions, err := st.Sessions().List(c.Int(flagLimit))
	if err != nil {
		return err
	}

	w := c.App.Writer
	for _, s := range sessions {
		counts, err := st.Events().CountByKind(s.ID)
		if err != nil {
			return err
		}
		ended := "running"
		if s.EndedAt != nil {
			ended = s.EndedAt.Sub(s.StartedAt).Round(time.Second).String()
		}
		fmt.Fprintf(w, "%s  %s  camera=%d  %s  frames=%d hand=%d  fists=%d opens=%d lost=%d\n",
			s.ID, s.StartedAt.Local().Format("2006-01-02 15:04:05"), s.CameraID, ended,
			s.Frames, s.HandFrames,
			counts[store.EventFist], counts[store.EventOpen], counts[store.EventLost])
	}
	return nil
}
