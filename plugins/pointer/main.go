// Command pointer is a mudra plugin that clicks the mouse at the current
// cursor position. It uses xdotool on Linux and cliclick on macOS.
package main

import (
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"runtime"

	"github.com/ayusman/mudra/internal/plugin"
)

// clickConfig is the optional per-binding configuration.
type clickConfig struct {
	// Button is "left" (default), "middle" or "right".
	Button string `json:"button"`
}

func main() {
	var req plugin.Request
	if err := json.NewDecoder(os.Stdin).Decode(&req); err != nil {
		writeResponse(plugin.Response{Error: fmt.Sprintf("failed to decode request: %v", err)})
		return
	}

	var cfg clickConfig
	if len(req.Config) > 0 {
		if err := json.Unmarshal(req.Config, &cfg); err != nil {
			writeResponse(plugin.Response{Error: fmt.Sprintf("failed to parse config: %v", err)})
			return
		}
	}

	name, args, err := clickCommand(runtime.GOOS, req.Action, cfg.Button)
	if err != nil {
		writeResponse(plugin.Response{Error: err.Error()})
		return
	}

	if out, err := exec.Command(name, args...).CombinedOutput(); err != nil {
		writeResponse(plugin.Response{Error: fmt.Sprintf("%s failed: %v: %s", name, err, out)})
		return
	}
	writeResponse(plugin.Response{Success: true})
}

var xdotoolButtons = map[string]string{
	"":       "1",
	"left":   "1",
	"middle": "2",
	"right":  "3",
}

// clickCommand returns the program and arguments that perform action.
func clickCommand(goos, action, button string) (string, []string, error) {
	if action == "right-click" {
		button = "right"
	}

	switch goos {
	case "linux":
		b, ok := xdotoolButtons[button]
		if !ok {
			return "", nil, fmt.Errorf("unknown button: %s", button)
		}
		switch action {
		case "click", "right-click":
			return "xdotool", []string{"click", b}, nil
		case "double-click":
			return "xdotool", []string{"click", "--repeat", "2", b}, nil
		}

	case "darwin":
		var cmd string
		switch {
		case action == "double-click":
			cmd = "dc:."
		case button == "" || button == "left":
			cmd = "c:."
		case button == "right":
			cmd = "rc:."
		default:
			return "", nil, fmt.Errorf("unsupported button on macOS: %s", button)
		}
		switch action {
		case "click", "right-click", "double-click":
			return "cliclick", []string{cmd}, nil
		}

	default:
		return "", nil, fmt.Errorf("unsupported platform: %s", goos)
	}

	return "", nil, fmt.Errorf("unknown action: %s", action)
}

func writeResponse(resp plugin.Response) {
	json.NewEncoder(os.Stdout).Encode(resp)
}
