package usecase

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/kirillkom/batikgram/internal/core/domain"
)

func tinyPNG(t *testing.T) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 2, 2))
	img.Set(0, 0, color.RGBA{R: 120, G: 60, B: 20, A: 255})
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encode png: %v", err)
	}
	return buf.Bytes()
}

func capturedImage(t *testing.T) domain.CapturedImage {
	t.Helper()
	img, err := domain.NewCapturedImage(tinyPNG(t))
	if err != nil {
		t.Fatalf("new captured image: %v", err)
	}
	return img
}

type fitterFake struct {
	mu       sync.Mutex
	calls    int
	requests []domain.FittingRequest
	results  []domain.FittingResult
	errs     []error
	release  chan struct{}
	started  chan struct{}
}

func (f *fitterFake) ApplyPattern(ctx context.Context, req domain.FittingRequest) (domain.FittingResult, error) {
	f.mu.Lock()
	idx := f.calls
	f.calls++
	f.requests = append(f.requests, req)
	release := f.release
	started := f.started
	f.mu.Unlock()

	if started != nil {
		started <- struct{}{}
	}
	if release != nil {
		select {
		case <-release:
		case <-ctx.Done():
			return domain.FittingResult{}, ctx.Err()
		}
	}

	var result domain.FittingResult
	var err error
	if idx < len(f.results) {
		result = f.results[idx]
	}
	if idx < len(f.errs) {
		err = f.errs[idx]
	}
	return result, err
}

func (f *fitterFake) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

type publisherFake struct {
	mu     sync.Mutex
	events []domain.FittingEvent
	err    error
}

func (f *publisherFake) PublishFittingEvent(_ context.Context, event domain.FittingEvent) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, event)
	return f.err
}

func (f *publisherFake) outcomes() []domain.FittingOutcome {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]domain.FittingOutcome, 0, len(f.events))
	for _, e := range f.events {
		out = append(out, e.Outcome)
	}
	return out
}

type mapRegistry struct {
	mu    sync.Mutex
	items map[string]*Session
}

func newMapRegistry() *mapRegistry {
	return &mapRegistry{items: map[string]*Session{}}
}

func (r *mapRegistry) Put(id string, value *Session) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.items[id] = value
}

func (r *mapRegistry) Get(id string) (*Session, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	v, ok := r.items[id]
	return v, ok
}

func (r *mapRegistry) Delete(id string) (*Session, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	v, ok := r.items[id]
	delete(r.items, id)
	return v, ok
}

func (r *mapRegistry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.items)
}

type knowledgeFake struct {
	motifs []domain.PatternDescriptor
}

func (k knowledgeFake) Describe(id string) (domain.PatternDescriptor, bool) {
	for _, m := range k.motifs {
		if m.ID == id {
			return m, true
		}
	}
	return domain.PatternDescriptor{}, false
}

func (k knowledgeFake) Motifs() []domain.PatternDescriptor {
	return k.motifs
}

func sampleKnowledge() knowledgeFake {
	return knowledgeFake{motifs: []domain.PatternDescriptor{
		{ID: "sekar_kemuning", Name: "Sekar Kemuning", Description: "Motif bunga kemuning yang melambangkan keseimbangan antara cipta, rasa, dan karsa"},
		{ID: "ceplok_liring", Name: "Ceplok Liring", Description: "Penempatan ragam hias secara tidak beraturan dalam satu bidang"},
		{ID: "sekar_duren", Name: "Sekar Duren", Description: "Motif bunga durian yang melambangkan sikap kritis"},
		{ID: "arumdalu", Name: "Arumdalu", Description: "Bunga yang mekar di malam hari dan menyebarkan keharuman"},
	}}
}

type listerFake struct {
	patterns []domain.PatternDescriptor
	err      error
	calls    int
}

func (f *listerFake) ListPatterns(context.Context) ([]domain.PatternDescriptor, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	out := make([]domain.PatternDescriptor, len(f.patterns))
	copy(out, f.patterns)
	return out, nil
}

type remoteChatFake struct {
	reply   string
	err     error
	queries []string
	ids     []string
}

func (f *remoteChatFake) Respond(_ context.Context, query, patternID string) (string, error) {
	f.queries = append(f.queries, query)
	f.ids = append(f.ids, patternID)
	return f.reply, f.err
}

type frameSourceFake struct {
	openErr  error
	frame    []byte
	frameErr error
	opened   int
	closed   int

	// opening and unblock hold Open until the test lets it finish.
	opening chan struct{}
	unblock chan struct{}
}

func (f *frameSourceFake) Open(context.Context) error {
	f.opened++
	if f.opening != nil {
		f.opening <- struct{}{}
		<-f.unblock
	}
	return f.openErr
}

func (f *frameSourceFake) Frame(context.Context) ([]byte, error) {
	return f.frame, f.frameErr
}

func (f *frameSourceFake) Close() error {
	f.closed++
	return nil
}

type artifactStorageFake struct {
	key  string
	body []byte
	err  error
}

func (f *artifactStorageFake) Save(_ context.Context, key string, data io.Reader) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	raw, err := io.ReadAll(data)
	if err != nil {
		return "", err
	}
	f.key = key
	f.body = raw
	return "/exports/" + key, nil
}

type photoSaverFake struct {
	receipt   domain.SaveReceipt
	err       error
	image     string
	patternID string
}

func (f *photoSaverFake) SavePhoto(_ context.Context, imageBase64, patternID string) (domain.SaveReceipt, error) {
	f.image = imageBase64
	f.patternID = patternID
	return f.receipt, f.err
}

func waitStarted(t *testing.T, started <-chan struct{}) {
	t.Helper()
	select {
	case <-started:
	case <-time.After(2 * time.Second):
		t.Fatal("fitting call did not start")
	}
}
