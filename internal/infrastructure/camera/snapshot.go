package camera

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

const maxSnapshotBytes = 10 << 20

// SnapshotSource grabs JPEG stills from a network camera's snapshot URL.
type SnapshotSource struct {
	endpoint   string
	opts       Options
	httpClient *http.Client
}

func NewSnapshotSource(endpoint string, opts Options, timeout time.Duration) *SnapshotSource {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &SnapshotSource{
		endpoint:   strings.TrimSpace(endpoint),
		opts:       opts,
		httpClient: &http.Client{Timeout: timeout},
	}
}

// Open checks that the camera answers.
func (s *SnapshotSource) Open(ctx context.Context) error {
	if s.endpoint == "" {
		return fmt.Errorf("open snapshot source: endpoint is empty")
	}
	_, err := s.Frame(ctx)
	if err != nil {
		return fmt.Errorf("open snapshot source: %w", err)
	}
	return nil
}

func (s *SnapshotSource) Frame(ctx context.Context) ([]byte, error) {
	target, err := s.frameURL()
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, fmt.Errorf("create snapshot request: %w", err)
	}
	req.Header.Set("Accept", "image/jpeg, image/*")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("snapshot request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("snapshot status: %s", resp.Status)
	}
	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxSnapshotBytes+1))
	if err != nil {
		return nil, fmt.Errorf("read snapshot: %w", err)
	}
	if len(raw) > maxSnapshotBytes {
		return nil, fmt.Errorf("snapshot exceeds %d bytes", maxSnapshotBytes)
	}
	return raw, nil
}

func (s *SnapshotSource) Close() error {
	s.httpClient.CloseIdleConnections()
	return nil
}

func (s *SnapshotSource) frameURL() (string, error) {
	u, err := url.Parse(s.endpoint)
	if err != nil {
		return "", fmt.Errorf("parse snapshot endpoint: %w", err)
	}
	q := u.Query()
	if s.opts.Width > 0 && q.Get("width") == "" {
		q.Set("width", strconv.Itoa(s.opts.Width))
	}
	if s.opts.Height > 0 && q.Get("height") == "" {
		q.Set("height", strconv.Itoa(s.opts.Height))
	}
	if s.opts.FacingMode != "" && q.Get("facing") == "" {
		q.Set("facing", s.opts.FacingMode)
	}
	u.RawQuery = q.Encode()
	return u.String(), nil
}
