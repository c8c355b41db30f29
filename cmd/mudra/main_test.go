package main

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/ayusman/mudra/internal/config"
	"github.com/ayusman/mudra/internal/store"
)

// parse runs the CLI with args and returns the resulting config.
func parse(t *testing.T, args ...string) (*config.Config, error) {
	t.Helper()
	var cfg *config.Config
	a := newApp()
	a.Action = func(c *cli.Context) error {
		var err error
		cfg, err = loadConfig(c)
		return err
	}
	err := a.Run(append([]string{"mudra"}, args...))
	return cfg, err
}

func TestLoadConfig_Defaults(t *testing.T) {
	cfg, err := parse(t)
	if err != nil {
		t.Fatalf("loadConfig() error = %v", err)
	}
	if cfg.Camera.Device != 0 || cfg.Display.Headless || cfg.Server.Listen != "" || cfg.Store.Path != "" {
		t.Errorf("unexpected defaults: %+v", cfg)
	}
	if !cfg.ShouldDrawLandmarks() {
		t.Error("landmarks should be drawn by default")
	}
	if cfg.QuitKeyCode() != 'q' {
		t.Errorf("QuitKeyCode() = %d", cfg.QuitKeyCode())
	}
}

func TestLoadConfig_FlagsOverrideFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "mudra.yaml")
	yaml := `
camera:
  device: 1
  fps: 15
server:
  listen: ":9000"
log:
  level: warn
`
	if err := os.WriteFile(path, []byte(yaml), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := parse(t,
		"--config", path,
		"--camera", "2",
		"--db", "/tmp/mudra.db",
		"--headless",
		"--on-fist", "pointer:click",
		"--no-landmarks",
	)
	if err != nil {
		t.Fatalf("loadConfig() error = %v", err)
	}

	if cfg.Camera.Device != 2 {
		t.Errorf("Device = %d, want flag value 2", cfg.Camera.Device)
	}
	if cfg.Camera.FPS != 15 {
		t.Errorf("FPS = %d, want file value 15", cfg.Camera.FPS)
	}
	if cfg.Server.Listen != ":9000" {
		t.Errorf("Listen = %q, want file value", cfg.Server.Listen)
	}
	if cfg.Log.Level != "warn" {
		t.Errorf("Level = %q", cfg.Log.Level)
	}
	if cfg.Store.Path != "/tmp/mudra.db" || !cfg.Display.Headless {
		t.Errorf("flags not applied: %+v", cfg)
	}
	if cfg.Plugins.OnFist == nil || cfg.Plugins.OnFist.Plugin != "pointer" || cfg.Plugins.OnFist.Action != "click" {
		t.Errorf("OnFist = %+v", cfg.Plugins.OnFist)
	}
	if cfg.ShouldDrawLandmarks() {
		t.Error("--no-landmarks should disable the skeleton")
	}
}

func TestLoadConfig_Invalid(t *testing.T) {
	tests := []struct {
		name string
		args []string
	}{
		{"bad action", []string{"--on-fist", "pointer"}},
		{"bad level", []string{"--log-level", "loud"}},
		{"negative camera", []string{"--camera", "-1"}},
		{"missing file", []string{"--config", "/nonexistent/mudra.yaml"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := parse(t, tt.args...); err == nil {
				t.Error("expected an error")
			}
		})
	}

	_, err := parse(t, "--on-fist", "pointer")
	if !errors.Is(err, config.ErrInvalid) {
		t.Errorf("error = %v, want ErrInvalid", err)
	}
}

func TestBrowserAddr(t *testing.T) {
	tests := map[string]string{
		":8080":          "localhost:8080",
		"127.0.0.1:9000": "127.0.0.1:9000",
	}
	for in, want := range tests {
		if got := browserAddr(in); got != want {
			t.Errorf("browserAddr(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestListSessions(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "mudra.db")

	st, err := store.New(dbPath)
	if err != nil {
		t.Fatalf("store.New() error = %v", err)
	}
	start := time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC)
	if err := st.Sessions().Create(&store.Session{ID: "sess-1", CameraID: 0, StartedAt: start}); err != nil {
		t.Fatal(err)
	}
	if err := st.Sessions().Finish("sess-1", start.Add(90*time.Second), 2700, 1200); err != nil {
		t.Fatal(err)
	}
	for i, kind := range []store.EventKind{store.EventOpen, store.EventFist, store.EventOpen, store.EventFist} {
		if err := st.Events().Create(&store.Event{ID: string(rune('a' + i)), SessionID: "sess-1", Seq: uint64(i), Kind: kind}); err != nil {
			t.Fatal(err)
		}
	}
	st.Close()

	var out bytes.Buffer
	a := newApp()
	a.Writer = &out
	if err := a.Run([]string{"mudra", "--db", dbPath, "sessions"}); err != nil {
		t.Fatalf("sessions error = %v", err)
	}

	line := out.String()
	for _, want := range []string{"sess-1", "1m30s", "frames=2700", "hand=1200", "fists=2", "opens=2", "lost=0"} {
		if !strings.Contains(line, want) {
			t.Errorf("output %q missing %q", line, want)
		}
	}
}

func TestListSessions_NoDatabase(t *testing.T) {
	a := newApp()
	a.Writer = &bytes.Buffer{}
	if err := a.Run([]string{"mudra", "sessions"}); err == nil {
		t.Error("expected an error without --db")
	}
}
