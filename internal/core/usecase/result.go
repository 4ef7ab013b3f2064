package usecase

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/kirillkom/batikgram/internal/core/domain"
	"github.com/kirillkom/batikgram/internal/core/ports"
)

// Download is a produced image ready to be written to disk or a response.
type Download struct {
	Filename    string
	ContentType string
	Data        []byte
}

type ResultService struct {
	storage ports.ArtifactStorage
	saver   ports.PhotoSaver
	now     func() time.Time
}

func NewResultService(storage ports.ArtifactStorage, saver ports.PhotoSaver) *ResultService {
	return &ResultService{storage: storage, saver: saver, now: time.Now}
}

// Download decodes the current result. Only a succeeded workflow has one.
func (uc *ResultService) Download(session *Session) (Download, domain.FittingResult, error) {
	snap := session.Fitting().Snapshot()
	if snap.State != domain.FittingSucceeded || snap.Result == nil {
		return Download{}, domain.FittingResult{}, domain.WrapError(
			domain.ErrInvalidInput,
			"download result",
			fmt.Errorf("no result to download in state %s", snap.State),
		)
	}
	result := *snap.Result

	raw, mimeType, err := domain.DecodeImagePayload(result.Image)
	if err != nil {
		return Download{}, result, domain.WrapError(domain.ErrUpstream, "download result", err)
	}
	if mimeType == "" {
		mimeType = domain.DetectImageType(raw)
	}
	return Download{
		Filename:    ResultFilename(result.PatternID, mimeType, uc.now()),
		ContentType: mimeType,
		Data:        raw,
	}, result, nil
}

// Export writes the result into artifact storage and, when remote is set,
// also submits it to the fitting service. A failed save never touches the
// fitting state.
func (uc *ResultService) Export(ctx context.Context, session *Session, remote bool) (domain.Artifact, error) {
	download, result, err := uc.Download(session)
	if err != nil {
		return domain.Artifact{}, err
	}

	artifact := domain.Artifact{
		Filename:    download.Filename,
		ContentType: download.ContentType,
		Size:        len(download.Data),
	}
	if uc.storage != nil {
		path, err := uc.storage.Save(ctx, download.Filename, bytes.NewReader(download.Data))
		if err != nil {
			return domain.Artifact{}, domain.WrapError(domain.ErrSaveFailed, "export result", err)
		}
		artifact.Path = path
	}

	if remote {
		if uc.saver == nil {
			return artifact, domain.WrapError(domain.ErrSaveFailed, "export result", errors.New("remote save is not configured"))
		}
		receipt, err := uc.saver.SavePhoto(ctx, domain.StripDataURIPrefix(result.Image), result.PatternID)
		if err != nil {
			return artifact, domain.WrapError(domain.ErrSaveFailed, "export result", err)
		}
		artifact.RemoteMessage = receipt.Message
		if !receipt.Success {
			return artifact, domain.WrapError(domain.ErrSaveFailed, "export result", fmt.Errorf("service declined: %s", receipt.Message))
		}
		artifact.RemoteSaved = true
	}

	slog.Info("result_exported",
		"session_id", session.ID,
		"pattern_id", result.PatternID,
		"filename", artifact.Filename,
		"remote_saved", artifact.RemoteSaved,
	)
	return artifact, nil
}

// ResultFilename builds names like batik-sekar_kemuning-1718000000.jpg.
func ResultFilename(patternID, mimeType string, at time.Time) string {
	pattern := sanitizeFilename(patternID)
	if pattern == "" {
		pattern = "result"
	}
	return fmt.Sprintf("batik-%s-%d.%s", pattern, at.Unix(), extensionFor(mimeType))
}

func extensionFor(mimeType string) string {
	switch strings.ToLower(mimeType) {
	case "image/png":
		return "png"
	case "image/webp":
		return "webp"
	case "image/gif":
		return "gif"
	default:
		return "jpg"
	}
}

func sanitizeFilename(name string) string {
	name = strings.TrimSpace(name)
	replacer := strings.NewReplacer("/", "_", "\\", "_", " ", "_", "..", "_")
	return replacer.Replace(name)
}
