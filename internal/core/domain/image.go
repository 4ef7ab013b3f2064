package domain

import (
	"bytes"
	"encoding/base64"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"strings"
	"time"

	_ "golang.org/x/image/webp"
)

// MaxImageBytes bounds a single captured or produced image.
const MaxImageBytes = 10 << 20

// CapturedImage is one frozen camera frame. It is immutable once built and is
// replaced wholesale on retake.
type CapturedImage struct {
	data       []byte
	mimeType   string
	width      int
	height     int
	capturedAt time.Time
}

// NewCapturedImage validates that data decodes as an image and wraps it.
func NewCapturedImage(data []byte) (CapturedImage, error) {
	if len(data) == 0 {
		return CapturedImage{}, WrapError(ErrInvalidInput, "captured image", errors.New("empty payload"))
	}
	if len(data) > MaxImageBytes {
		return CapturedImage{}, WrapError(ErrInvalidInput, "captured image", fmt.Errorf("payload exceeds %d bytes", MaxImageBytes))
	}
	cfg, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return CapturedImage{}, WrapError(ErrInvalidInput, "captured image", fmt.Errorf("decode image: %w", err))
	}
	if cfg.Width <= 0 || cfg.Height <= 0 {
		return CapturedImage{}, WrapError(ErrInvalidInput, "captured image", errors.New("image has no pixels"))
	}

	owned := make([]byte, len(data))
	copy(owned, data)
	return CapturedImage{
		data:       owned,
		mimeType:   "image/" + format,
		width:      cfg.Width,
		height:     cfg.Height,
		capturedAt: time.Now().UTC(),
	}, nil
}

// ParseCapturedImage accepts a data URI or a bare base64 string.
func ParseCapturedImage(payload string) (CapturedImage, error) {
	raw, _, err := DecodeImagePayload(payload)
	if err != nil {
		return CapturedImage{}, WrapError(ErrInvalidInput, "captured image", err)
	}
	return NewCapturedImage(raw)
}

func (c CapturedImage) IsZero() bool { return len(c.data) == 0 }

func (c CapturedImage) Bytes() []byte {
	out := make([]byte, len(c.data))
	copy(out, c.data)
	return out
}

func (c CapturedImage) Size() int             { return len(c.data) }
func (c CapturedImage) MIMEType() string      { return c.mimeType }
func (c CapturedImage) Width() int            { return c.width }
func (c CapturedImage) Height() int           { return c.height }
func (c CapturedImage) CapturedAt() time.Time { return c.capturedAt }

// Base64 is the transport form: standard encoding, no data-URI prefix.
func (c CapturedImage) Base64() string {
	return base64.StdEncoding.EncodeToString(c.data)
}

// StripDataURIPrefix drops a leading "data:<mime>;base64," header if present.
func StripDataURIPrefix(payload string) string {
	payload = strings.TrimSpace(payload)
	if !strings.HasPrefix(payload, "data:") {
		return payload
	}
	if idx := strings.Index(payload, ","); idx >= 0 {
		return payload[idx+1:]
	}
	return payload
}

// DecodeImagePayload turns a base64 or data-URI string into raw bytes. The
// returned MIME type comes from the data-URI header when there is one.
func DecodeImagePayload(payload string) ([]byte, string, error) {
	payload = strings.TrimSpace(payload)
	if payload == "" {
		return nil, "", errors.New("empty image payload")
	}

	mimeType := ""
	if strings.HasPrefix(payload, "data:") {
		header, _, _ := strings.Cut(strings.TrimPrefix(payload, "data:"), ",")
		mimeType, _, _ = strings.Cut(header, ";")
	}

	encoded := StripDataURIPrefix(payload)
	raw, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		raw, err = base64.RawStdEncoding.DecodeString(strings.TrimRight(encoded, "="))
		if err != nil {
			return nil, "", fmt.Errorf("decode base64 image: %w", err)
		}
	}
	if len(raw) == 0 {
		return nil, "", errors.New("empty image payload")
	}
	return raw, mimeType, nil
}

// DetectImageType returns the MIME type of an encoded image, or
// application/octet-stream when the format is unknown.
func DetectImageType(raw []byte) string {
	_, format, err := image.DecodeConfig(bytes.NewReader(raw))
	if err != nil || format == "" {
		return "application/octet-stream"
	}
	return "image/" + format
}

// DataURIFromBytes encodes raw image bytes as a data URI.
func DataURIFromBytes(raw []byte) string {
	return "data:" + DetectImageType(raw) + ";base64," + base64.StdEncoding.EncodeToString(raw)
}
