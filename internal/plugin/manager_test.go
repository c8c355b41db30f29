package plugin

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func writeManifest(t *testing.T, root, dir string, m Manifest) string {
	t.Helper()
	pluginDir := filepath.Join(root, dir)
	if err := os.MkdirAll(pluginDir, 0755); err != nil {
		t.Fatalf("failed to create plugin dir: %v", err)
	}
	data, err := json.Marshal(m)
	if err != nil {
		t.Fatalf("failed to marshal manifest: %v", err)
	}
	if err := os.WriteFile(filepath.Join(pluginDir, "plugin.json"), data, 0644); err != nil {
		t.Fatalf("failed to write manifest: %v", err)
	}
	return pluginDir
}

func TestManager_Discover(t *testing.T) {
	root := t.TempDir()
	pointerDir := writeManifest(t, root, "pointer", Manifest{
		Name:        "pointer",
		Version:     "1.0.0",
		Description: "Mouse clicks",
		Executable:  "pointer",
		Actions:     []string{"click", "double-click"},
	})
	writeManifest(t, root, "beep", Manifest{Name: "beep", Executable: "beep", Actions: []string{"beep"}})

	// Ignored: no manifest, bad JSON, incomplete manifest, plain file.
	os.MkdirAll(filepath.Join(root, "empty"), 0755)
	os.MkdirAll(filepath.Join(root, "broken"), 0755)
	os.WriteFile(filepath.Join(root, "broken", "plugin.json"), []byte("{"), 0644)
	writeManifest(t, root, "nameless", Manifest{Executable: "x"})
	os.WriteFile(filepath.Join(root, "README"), []byte("hi"), 0644)

	m := NewManager(root, nil)
	if err := m.Discover(); err != nil {
		t.Fatalf("Discover() error = %v", err)
	}

	plugins := m.List()
	if len(plugins) != 2 {
		t.Fatalf("expected 2 plugins, got %d", len(plugins))
	}
	if plugins[0].Manifest.Name != "beep" || plugins[1].Manifest.Name != "pointer" {
		t.Errorf("List() not sorted: %s, %s", plugins[0].Manifest.Name, plugins[1].Manifest.Name)
	}

	p := plugins[1]
	if p.Path != pointerDir {
		t.Errorf("Path = %q, want %q", p.Path, pointerDir)
	}
	if p.Executable != filepath.Join(pointerDir, "pointer") {
		t.Errorf("Executable = %q", p.Executable)
	}
	if p.Manifest.Description != "Mouse clicks" || len(p.Manifest.Actions) != 2 {
		t.Errorf("Manifest = %+v", p.Manifest)
	}
}

func TestManager_Discover_Rescan(t *testing.T) {
	root := t.TempDir()
	dir := writeManifest(t, root, "a", Manifest{Name: "a", Executable: "a"})

	m := NewManager(root, nil)
	if err := m.Discover(); err != nil {
		t.Fatalf("Discover() error = %v", err)
	}
	if len(m.List()) != 1 {
		t.Fatal("expected 1 plugin")
	}

	os.RemoveAll(dir)
	if err := m.Discover(); err != nil {
		t.Fatalf("Discover() error = %v", err)
	}
	if len(m.List()) != 0 {
		t.Error("removed plugin should disappear after rescan")
	}
}

func TestManager_Discover_NonExistentDir(t *testing.T) {
	m := NewManager(filepath.Join(t.TempDir(), "missing"), nil)
	if err := m.Discover(); err != nil {
		t.Errorf("Discover() on missing dir error = %v", err)
	}
	if len(m.List()) != 0 {
		t.Error("expected no plugins")
	}
}

func TestManager_Resolve(t *testing.T) {
	root := t.TempDir()
	writeManifest(t, root, "pointer", Manifest{Name: "pointer", Executable: "pointer", Actions: []string{"click"}})

	m := NewManager(root, nil)
	if err := m.Discover(); err != nil {
		t.Fatalf("Discover() error = %v", err)
	}

	tests := []struct {
		plugin, action string
		wantErr        error
	}{
		{"pointer", "click", nil},
		{"pointer", "scroll", ErrActionNotSupported},
		{"keyboard", "click", ErrPluginNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.plugin+":"+tt.action, func(t *testing.T) {
			p, err := m.Resolve(tt.plugin, tt.action)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("Resolve() error = %v, want %v", err, tt.wantErr)
			}
			if tt.wantErr == nil && p.Manifest.Name != tt.plugin {
				t.Errorf("Resolve() = %s", p.Manifest.Name)
			}
		})
	}
}

func TestManager_PluginDir(t *testing.T) {
	if got := NewManager("/opt/mudra/plugins", nil).PluginDir(); got != "/opt/mudra/plugins" {
		t.Errorf("PluginDir() = %q", got)
	}
}
