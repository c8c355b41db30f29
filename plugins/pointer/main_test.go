package main

import (
	"slices"
	"testing"
)

func TestClickCommand(t *testing.T) {
	tests := []struct {
		goos, action, button string
		wantName             string
		wantArgs             []string
		wantErr              bool
	}{
		{"linux", "click", "", "xdotool", []string{"click", "1"}, false},
		{"linux", "click", "middle", "xdotool", []string{"click", "2"}, false},
		{"linux", "right-click", "", "xdotool", []string{"click", "3"}, false},
		{"linux", "double-click", "left", "xdotool", []string{"click", "--repeat", "2", "1"}, false},
		{"linux", "click", "thumb", "", nil, true},
		{"linux", "scroll", "", "", nil, true},
		{"darwin", "click", "", "cliclick", []string{"c:."}, false},
		{"darwin", "right-click", "", "cliclick", []string{"rc:."}, false},
		{"darwin", "double-click", "", "cliclick", []string{"dc:."}, false},
		{"darwin", "click", "middle", "", nil, true},
		{"windows", "click", "", "", nil, true},
	}

	for _, tt := range tests {
		t.Run(tt.goos+"/"+tt.action+"/"+tt.button, func(t *testing.T) {
			name, args, err := clickCommand(tt.goos, tt.action, tt.button)
			if (err != nil) != tt.wantErr {
				t.Fatalf("clickCommand() error = %v, wantErr %v", err, tt.wantErr)
			}
			if name != tt.wantName || !slices.Equal(args, tt.wantArgs) {
				t.Errorf("clickCommand() = %s %v, want %s %v", name, args, tt.wantName, tt.wantArgs)
			}
		})
	}
}
