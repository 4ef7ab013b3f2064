package httpadapter

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"image"
	"image/color"
	"image/png"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/kirillkom/batikgram/internal/config"
	"github.com/kirillkom/batikgram/internal/core/domain"
	"github.com/kirillkom/batikgram/internal/core/ports"
	"github.com/kirillkom/batikgram/internal/core/usecase"
	"github.com/kirillkom/batikgram/internal/infrastructure/patternmeta"
	"github.com/kirillkom/batikgram/internal/infrastructure/sessionstore"
)

func tinyPNG(t *testing.T) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 2, 2))
	img.Set(1, 1, color.RGBA{R: 90, G: 40, B: 10, A: 255})
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encode png: %v", err)
	}
	return buf.Bytes()
}

type fitterFake struct {
	mu      sync.Mutex
	calls   int
	results []domain.FittingResult
	errs    []error
}

func (f *fitterFake) ApplyPattern(_ context.Context, req domain.FittingRequest) (domain.FittingResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	idx := f.calls
	f.calls++
	if idx < len(f.errs) && f.errs[idx] != nil {
		return domain.FittingResult{}, f.errs[idx]
	}
	if idx < len(f.results) {
		return f.results[idx], nil
	}
	return domain.FittingResult{}, nil
}

func (f *fitterFake) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

type listerFake struct {
	patterns []domain.PatternDescriptor
	err      error
}

func (f listerFake) ListPatterns(context.Context) ([]domain.PatternDescriptor, error) {
	if f.err != nil {
		return nil, f.err
	}
	out := make([]domain.PatternDescriptor, len(f.patterns))
	copy(out, f.patterns)
	return out, nil
}

type healthFake struct {
	err error
}

func (f healthFake) Ping(context.Context) error { return f.err }

type storageFake struct {
	mu   sync.Mutex
	keys []string
}

func (f *storageFake) Save(_ context.Context, key string, data io.Reader) (string, error) {
	if _, err := io.Copy(io.Discard, data); err != nil {
		return "", err
	}
	f.mu.Lock()
	f.keys = append(f.keys, key)
	f.mu.Unlock()
	return "/exports/" + key, nil
}

var testPatterns = []domain.PatternDescriptor{
	{ID: "kawung", Name: "Kawung", ReferenceURL: "http://fitting/static/batik_patterns/kawung.jpg"},
	{ID: "sekar_kemuning", Name: "Sekar Kemuning", ReferenceURL: "http://fitting/static/batik_patterns/sekar_kemuning.jpg"},
}

type testEnv struct {
	handler  http.Handler
	fitter   *fitterFake
	sessions *usecase.SessionManager
	storage  *storageFake
}

type envOption func(*envSettings)

type envSettings struct {
	cfg       config.Config
	lister    ports.PatternLister
	readiness map[string]ports.HealthChecker
}

func withConfig(cfg config.Config) envOption {
	return func(s *envSettings) { s.cfg = cfg }
}

func withLister(lister ports.PatternLister) envOption {
	return func(s *envSettings) { s.lister = lister }
}

func withReadiness(checks map[string]ports.HealthChecker) envOption {
	return func(s *envSettings) { s.readiness = checks }
}

func newTestEnv(t *testing.T, fitter *fitterFake, opts ...envOption) *testEnv {
	t.Helper()
	settings := envSettings{
		cfg:    config.Config{OpenAPIValidation: true},
		lister: listerFake{patterns: testPatterns},
	}
	for _, opt := range opts {
		opt(&settings)
	}

	knowledge, err := patternmeta.Default()
	if err != nil {
		t.Fatalf("load motif metadata: %v", err)
	}
	registry := sessionstore.New[*usecase.Session](time.Hour, nil)
	sessions := usecase.NewSessionManager(registry, fitter, nil, nil, usecase.FittingConfig{Timeout: 5 * time.Second})
	storage := &storageFake{}

	router := NewRouter(settings.cfg, Services{
		Sessions:  sessions,
		Capture:   usecase.NewCaptureService(nil),
		Catalog:   usecase.NewCatalogService(settings.lister, knowledge, nil),
		Chat:      usecase.NewChatService(nil, usecase.NewLocalResponder(knowledge), nil, 0),
		Results:   usecase.NewResultService(storage, nil),
		Readiness: settings.readiness,
	})
	return &testEnv{handler: router.Handler(), fitter: fitter, sessions: sessions, storage: storage}
}

func (e *testEnv) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		reader = bytes.NewReader(payload)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	res := httptest.NewRecorder()
	e.handler.ServeHTTP(res, req)
	return res
}

func (e *testEnv) createSession(t *testing.T) string {
	t.Helper()
	res := e.do(t, http.MethodPost, "/v1/sessions", nil)
	if res.Code != http.StatusCreated {
		t.Fatalf("create session expected 201, got %d: %s", res.Code, res.Body.String())
	}
	var out struct {
		SessionID string `json:"session_id"`
	}
	decodeBody(t, res, &out)
	if out.SessionID == "" {
		t.Fatalf("expected session id in %s", res.Body.String())
	}
	return out.SessionID
}

func (e *testEnv) upload(t *testing.T, sessionID string) {
	t.Helper()
	payload := "data:image/png;base64," + base64.StdEncoding.EncodeToString(tinyPNG(t))
	res := e.do(t, http.MethodPut, "/v1/sessions/"+sessionID+"/capture", map[string]string{"image": payload})
	if res.Code != http.StatusOK {
		t.Fatalf("upload expected 200, got %d: %s", res.Code, res.Body.String())
	}
}

func decodeBody(t *testing.T, res *httptest.ResponseRecorder, dst any) {
	t.Helper()
	if err := json.Unmarshal(res.Body.Bytes(), dst); err != nil {
		t.Fatalf("decode response %q: %v", res.Body.String(), err)
	}
}
