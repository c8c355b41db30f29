package server

import (
	"bufio"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"gocv.io/x/gocv"

	"github.com/ayusman/mudra/internal/app"
	"github.com/ayusman/mudra/internal/detector"
	"github.com/ayusman/mudra/internal/gesture"
)

func fistResult(seq uint64) app.FrameResult {
	set := detector.FistLandmarks()
	return app.FrameResult{
		Seq:       seq,
		Timestamp: time.Now(),
		Width:     640,
		Height:    480,
		Hand:      &set,
		Result:    gesture.Classify(&set),
	}
}

func TestServer_Health(t *testing.T) {
	s := New(Config{Stats: func() app.Stats { return app.Stats{Frames: 42, Clicks: 3} }})

	t.Run("returns 200 with JSON response", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/health", nil)
		rec := httptest.NewRecorder()

		s.ServeHTTP(rec, req)

		if rec.Code != http.StatusOK {
			t.Errorf("expected status %d, got %d", http.StatusOK, rec.Code)
		}
		if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
			t.Errorf("expected Content-Type application/json, got %s", ct)
		}

		var response struct {
			Status string    `json:"status"`
			Uptime string    `json:"uptime"`
			Stats  app.Stats `json:"stats"`
		}
		if err := json.NewDecoder(rec.Body).Decode(&response); err != nil {
			t.Fatalf("failed to decode response: %v", err)
		}
		if response.Status != "ok" {
			t.Errorf("expected status 'ok', got %v", response.Status)
		}
		if response.Uptime == "" {
			t.Error("expected 'uptime' field in response")
		}
		if response.Stats.Frames != 42 || response.Stats.Clicks != 3 {
			t.Errorf("stats = %+v", response.Stats)
		}
	})

	t.Run("only allows GET method", func(t *testing.T) {
		for _, method := range []string{http.MethodPost, http.MethodPut, http.MethodDelete} {
			req := httptest.NewRequest(method, "/api/health", nil)
			rec := httptest.NewRecorder()

			s.ServeHTTP(rec, req)

			if rec.Code != http.StatusMethodNotAllowed {
				t.Errorf("method %s: expected status %d, got %d", method, http.StatusMethodNotAllowed, rec.Code)
			}
		}
	})
}

func TestServer_State(t *testing.T) {
	s := New(Config{})

	get := func() HandMessage {
		t.Helper()
		req := httptest.NewRequest(http.MethodGet, "/api/state", nil)
		rec := httptest.NewRecorder()
		s.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Fatalf("expected status 200, got %d", rec.Code)
		}
		var msg HandMessage
		if err := json.NewDecoder(rec.Body).Decode(&msg); err != nil {
			t.Fatalf("decode: %v", err)
		}
		return msg
	}

	t.Run("no hand before any frame", func(t *testing.T) {
		msg := get()
		if msg.Present || msg.Status != gesture.StatusNone || msg.Position != nil {
			t.Errorf("initial state = %+v", msg)
		}
	})

	t.Run("reflects latest frame", func(t *testing.T) {
		s.Hub().OnFrame(fistResult(7), nil)
		msg := get()
		if !msg.Present || !msg.Fist || msg.Status != gesture.StatusFist || msg.Seq != 7 {
			t.Errorf("state = %+v", msg)
		}
		if msg.Label != "Fist (Click)" {
			t.Errorf("Label = %q", msg.Label)
		}
		if msg.Landmarks == nil || msg.Distances == nil {
			t.Error("expected landmarks and distances for a detected hand")
		}
	})

	t.Run("hand lost clears data", func(t *testing.T) {
		s.Hub().OnFrame(app.FrameResult{Seq: 8, Timestamp: time.Now(), Result: gesture.Classify(nil)}, nil)
		msg := get()
		if msg.Present || msg.Fist || msg.Position != nil || msg.Landmarks != nil {
			t.Errorf("state after hand lost = %+v", msg)
		}
	})
}

func TestServer_NotFound(t *testing.T) {
	s := New(Config{})

	req := httptest.NewRequest(http.MethodGet, "/api/nonexistent", nil)
	rec := httptest.NewRecorder()

	s.ServeHTTP(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Errorf("expected status %d, got %d", http.StatusNotFound, rec.Code)
	}
}

func TestServer_StaticFiles(t *testing.T) {
	tmpDir := t.TempDir()

	testContent := "<html><body>mudra</body></html>"
	if err := os.WriteFile(filepath.Join(tmpDir, "index.html"), []byte(testContent), 0644); err != nil {
		t.Fatalf("failed to create test file: %v", err)
	}
	cssContent := "body { color: red; }"
	if err := os.WriteFile(filepath.Join(tmpDir, "style.css"), []byte(cssContent), 0644); err != nil {
		t.Fatalf("failed to create test CSS file: %v", err)
	}

	s := New(Config{StaticDir: tmpDir})

	tests := []struct {
		name string
		path string
		code int
		body string
	}{
		{"index at root", "/", http.StatusOK, testContent},
		{"direct file", "/style.css", http.StatusOK, cssContent},
		{"missing file", "/nonexistent.html", http.StatusNotFound, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, tt.path, nil)
			rec := httptest.NewRecorder()

			s.ServeHTTP(rec, req)

			if rec.Code != tt.code {
				t.Errorf("expected status %d, got %d", tt.code, rec.Code)
			}
			if tt.body != "" && rec.Body.String() != tt.body {
				t.Errorf("expected body %q, got %q", tt.body, rec.Body.String())
			}
		})
	}
}

func TestServer_NoStaticDir(t *testing.T) {
	s := New(Config{})

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Errorf("expected status %d, got %d", http.StatusNotFound, rec.Code)
	}
}

func TestServer_HandWebSocket(t *testing.T) {
	s := New(Config{})
	ts := httptest.NewServer(s)
	defer ts.Close()

	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/api/hand"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()
	conn.SetReadDeadline(time.Now().Add(5 * time.Second))

	var initial HandMessage
	if err := conn.ReadJSON(&initial); err != nil {
		t.Fatalf("read initial state: %v", err)
	}
	if initial.Present {
		t.Errorf("initial state should have no hand: %+v", initial)
	}

	s.Hub().OnFrame(fistResult(1), nil)

	var msg HandMessage
	if err := conn.ReadJSON(&msg); err != nil {
		t.Fatalf("read frame: %v", err)
	}
	if msg.Seq != 1 || msg.Status != gesture.StatusFist {
		t.Errorf("message = %+v", msg)
	}
	if msg.Position == nil || msg.Position.PalmCenter != detector.FistLandmarks().Points[detector.Wrist] {
		t.Errorf("position = %+v", msg.Position)
	}
}

func TestServer_MJPEGStream(t *testing.T) {
	s := New(Config{})
	ts := httptest.NewServer(s)
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/api/stream")
	if err != nil {
		t.Fatalf("get stream: %v", err)
	}
	defer resp.Body.Close()

	if ct := resp.Header.Get("Content-Type"); !strings.HasPrefix(ct, "multipart/x-mixed-replace") {
		t.Fatalf("Content-Type = %q", ct)
	}
	if _, frames := s.Hub().Clients(); frames != 1 {
		t.Fatalf("frame subscribers = %d, want 1", frames)
	}

	frame := gocv.NewMatWithSizeFromScalar(gocv.NewScalar(0, 255, 0, 0), 48, 64, gocv.MatTypeCV8UC3)
	defer frame.Close()
	s.Hub().OnFrame(fistResult(1), &frame)

	r := bufio.NewReader(resp.Body)
	boundary, err := r.ReadString('\n')
	if err != nil {
		t.Fatalf("read boundary: %v", err)
	}
	if strings.TrimSpace(boundary) != "--frame" {
		t.Errorf("boundary = %q", boundary)
	}
	ct, _ := r.ReadString('\n')
	if strings.TrimSpace(ct) != "Content-Type: image/jpeg" {
		t.Errorf("part header = %q", ct)
	}
	r.ReadString('\n') // Content-Length
	r.ReadString('\n') // blank line

	magic := make([]byte, 2)
	if _, err := r.Read(magic); err != nil {
		t.Fatalf("read jpeg: %v", err)
	}
	if magic[0] != 0xFF || magic[1] != 0xD8 {
		t.Errorf("payload is not a JPEG: % x", magic)
	}
}

func TestHub_DropsForSlowClients(t *testing.T) {
	hub := NewHub(nil)
	sub := hub.subscribeHands()
	defer hub.unsubscribe(sub)

	for i := 0; i < clientBuffer+3; i++ {
		hub.OnFrame(fistResult(uint64(i)), nil)
	}

	if hub.Dropped() != 3 {
		t.Errorf("Dropped() = %d, want 3", hub.Dropped())
	}
	if len(sub.ch) != clientBuffer {
		t.Errorf("buffered = %d, want %d", len(sub.ch), clientBuffer)
	}

	hub.unsubscribe(sub)
	if hands, _ := hub.Clients(); hands != 0 {
		t.Errorf("hand clients = %d after unsubscribe", hands)
	}
}

func TestHub_SkipsEncodingWithoutViewers(t *testing.T) {
	hub := NewHub(nil)
	sub := hub.subscribeHands()
	defer hub.unsubscribe(sub)

	frame := gocv.NewMatWithSize(8, 8, gocv.MatTypeCV8UC3)
	defer frame.Close()
	hub.OnFrame(fistResult(1), &frame)

	// Only the hand message is queued.
	if len(sub.ch) != 1 {
		t.Fatalf("queued = %d, want 1", len(sub.ch))
	}
	if msg := <-sub.ch; msg[0] != '{' {
		t.Errorf("expected JSON message, got %q", msg[:1])
	}
}
