package cli

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"image"
	"image/color"
	"image/png"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func tinyPNG(t *testing.T) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 3, 2))
	img.Set(2, 1, color.RGBA{R: 150, G: 80, B: 30, A: 255})
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encode png: %v", err)
	}
	return buf.Bytes()
}

type fittingServiceFake struct {
	result      []byte
	fittingCode int
}

func (f *fittingServiceFake) handler(t *testing.T) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /patterns", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{"patterns": []map[string]string{
			{"id": "kawung", "name": "Kawung", "filename": "kawung.jpg"},
			{"id": "sekar_kemuning", "name": "Sekar Kemuning", "filename": "sekar_kemuning.jpg"},
		}})
	})
	mux.HandleFunc("POST /virtual_fitting", func(w http.ResponseWriter, r *http.Request) {
		var req map[string]string
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode fitting request: %v", err)
		}
		if f.fittingCode != 0 {
			w.WriteHeader(f.fittingCode)
			_ = json.NewEncoder(w).Encode(map[string]string{"error": "Invalid token", "solution": "Check HF_TOKEN"})
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]string{
			"resultImageBase64": "data:image/png;base64," + base64.StdEncoding.EncodeToString(f.result),
			"methodUsed":        "IDM-VTON",
		})
	})
	return mux
}

func setupEnv(t *testing.T, fake *fittingServiceFake) {
	t.Helper()
	server := httptest.NewServer(fake.handler(t))
	t.Cleanup(server.Close)

	t.Setenv("FITTING_SERVICE_URL", server.URL)
	t.Setenv("EXPORT_PATH", t.TempDir())
	t.Setenv("CHAT_BACKEND", "none")
	t.Setenv("EVENTS_ENABLED", "false")
	t.Setenv("CAMERA_SNAPSHOT_URL", "")
	t.Setenv("LOG_LEVEL", "error")
}

func run(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	root := NewRootCmd("test")
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetIn(strings.NewReader(stdin))
	root.SetArgs(args)
	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

func TestPatternsCommandPrintsTable(t *testing.T) {
	setupEnv(t, &fittingServiceFake{})

	out, err := run(t, "", "patterns", "--search", "kemuning")
	if err != nil {
		t.Fatalf("patterns error = %v\n%s", err, out)
	}
	if !strings.Contains(out, "sekar_kemuning") || strings.Contains(out, "kawung") {
		t.Fatalf("unexpected table:\n%s", out)
	}
	if !strings.Contains(out, "keseimbangan") {
		t.Fatalf("expected enriched description in table:\n%s", out)
	}
}

func TestPatternsCommandLeavesExportPathAlone(t *testing.T) {
	setupEnv(t, &fittingServiceFake{})
	exports := filepath.Join(t.TempDir(), "exports")
	t.Setenv("EXPORT_PATH", exports)

	if out, err := run(t, "", "patterns"); err != nil {
		t.Fatalf("patterns error = %v\n%s", err, out)
	}
	if _, err := os.Stat(exports); !os.IsNotExist(err) {
		t.Fatalf("expected no export directory to be created, stat err = %v", err)
	}
}

func TestFitCommandWritesResult(t *testing.T) {
	result := tinyPNG(t)
	setupEnv(t, &fittingServiceFake{result: result})

	dir := t.TempDir()
	photo := filepath.Join(dir, "me.png")
	if err := os.WriteFile(photo, tinyPNG(t), 0o600); err != nil {
		t.Fatalf("write photo: %v", err)
	}
	target := filepath.Join(dir, "out.png")

	out, err := run(t, "", "fit", "--photo", photo, "--pattern", "kawung", "--out", target, "--export")
	if err != nil {
		t.Fatalf("fit error = %v\n%s", err, out)
	}
	written, err := os.ReadFile(target)
	if err != nil {
		t.Fatalf("read result: %v", err)
	}
	if !bytes.Equal(written, result) {
		t.Fatalf("result bytes differ from service output")
	}
	if !strings.Contains(out, "IDM-VTON") || !strings.Contains(out, "exported") {
		t.Fatalf("unexpected output:\n%s", out)
	}
}

func TestFitCommandReadsStdin(t *testing.T) {
	setupEnv(t, &fittingServiceFake{result: tinyPNG(t)})
	target := filepath.Join(t.TempDir(), "stdin.png")

	out, err := run(t, string(tinyPNG(t)), "fit", "--photo", "-", "--pattern", "sekar_kemuning", "--out", target)
	if err != nil {
		t.Fatalf("fit error = %v\n%s", err, out)
	}
	if _, err := os.Stat(target); err != nil {
		t.Fatalf("expected result file: %v", err)
	}
}

func TestFitCommandReportsCredentialFailure(t *testing.T) {
	setupEnv(t, &fittingServiceFake{fittingCode: http.StatusUnauthorized})
	photo := filepath.Join(t.TempDir(), "me.png")
	if err := os.WriteFile(photo, tinyPNG(t), 0o600); err != nil {
		t.Fatalf("write photo: %v", err)
	}

	_, err := run(t, "", "fit", "--photo", photo, "--pattern", "kawung", "--out", filepath.Join(t.TempDir(), "x.png"))
	if err == nil {
		t.Fatalf("expected credential failure")
	}
	if !strings.Contains(err.Error(), "access token") || !strings.Contains(err.Error(), "Check HF_TOKEN") {
		t.Fatalf("unexpected error %q", err)
	}
}

func TestFitCommandUnknownPattern(t *testing.T) {
	setupEnv(t, &fittingServiceFake{})
	photo := filepath.Join(t.TempDir(), "me.png")
	if err := os.WriteFile(photo, tinyPNG(t), 0o600); err != nil {
		t.Fatalf("write photo: %v", err)
	}

	_, err := run(t, "", "fit", "--photo", photo, "--pattern", "parang_rusak")
	if err == nil || !strings.Contains(err.Error(), "pattern not found") {
		t.Fatalf("expected pattern not found, got %v", err)
	}
}

func TestChatCommandOneShotAndInteractive(t *testing.T) {
	setupEnv(t, &fittingServiceFake{})

	out, err := run(t, "", "chat", "halo")
	if err != nil {
		t.Fatalf("chat error = %v", err)
	}
	if strings.TrimSpace(out) == "" {
		t.Fatalf("expected a reply")
	}

	out, err = run(t, "halo\n\napa itu batik?\nexit\nignored\n", "chat")
	if err != nil {
		t.Fatalf("interactive chat error = %v", err)
	}
	if got := strings.Count(out, "> "); got != 2 {
		t.Fatalf("expected two replies, got %d:\n%s", got, out)
	}
}
