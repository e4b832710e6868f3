package media

import (
	"bufio"
	"context"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"botrelay/internal/common"
	"botrelay/internal/dbmysql"
)

type AttachmentMarker interface {
	MarkAnalyzed(ctx context.Context, id uint, metadata common.AttachmentMetadata) error
}

// Analyzer sniffs stored attachments and records their detected type and
// image dimensions. Until it has run the relay holds back deliveries of the
// owning message.
type Analyzer struct {
	storage     FileSource
	attachments AttachmentMarker
	log         zerolog.Logger
	timeout     time.Duration
}

func NewAnalyzer(storage FileSource, attachments AttachmentMarker, log zerolog.Logger) *Analyzer {
	return &Analyzer{
		storage:     storage,
		attachments: attachments,
		log:         log.With().Str("component", "analyzer").Logger(),
		timeout:     30 * time.Second,
	}
}

// Analyze reads the head of the blob and marks the attachment analyzed. An
// undecodable image still counts as analyzed, with whatever was detected.
func (a *Analyzer) Analyze(ctx context.Context, attachment *dbmysql.Attachment) (common.AttachmentMetadata, error) {
	reader, _, err := a.storage.DownloadFile(ctx, attachment.FileID)
	if err != nil {
		return common.AttachmentMetadata{}, fmt.Errorf("failed to open attachment %d: %w", attachment.ID, err)
	}
	defer reader.Close()

	br := bufio.NewReaderSize(reader, 4096)
	head, _ := br.Peek(512)

	metadata := common.AttachmentMetadata{
		DetectedType: common.NormalizeContentType(http.DetectContentType(head)),
	}

	if strings.HasPrefix(metadata.DetectedType, "image/") {
		if cfg, _, err := image.DecodeConfig(br); err == nil {
			metadata.Width = cfg.Width
			metadata.Height = cfg.Height
		} else {
			a.log.Debug().Err(err).Uint("attachment_id", attachment.ID).Msg("image header not decodable")
		}
	}

	if err := a.attachments.MarkAnalyzed(ctx, attachment.ID, metadata); err != nil {
		return metadata, err
	}
	return metadata, nil
}

// AnalyzeAsync runs Analyze on its own goroutine, detached from the request.
func (a *Analyzer) AnalyzeAsync(attachment dbmysql.Attachment) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), a.timeout)
		defer cancel()

		metadata, err := a.Analyze(ctx, &attachment)
		if err != nil {
			a.log.Error().Err(err).Str("message_id", attachment.MessageID).Msg("attachment analysis failed")
			return
		}
		a.log.Debug().
			Str("message_id", attachment.MessageID).
			Str("detected_type", metadata.DetectedType).
			Int("width", metadata.Width).
			Int("height", metadata.Height).
			Msg("attachment analyzed")
	}()
}
