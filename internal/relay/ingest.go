package relay

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"html"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"botrelay/internal/chat/service"
	"botrelay/internal/dbmysql"
	"botrelay/internal/metrics"
)

// MessageCreator is the write side of the chat service.
type MessageCreator interface {
	CreateMessage(ctx context.Context, req service.NewMessage) (*dbmysql.Message, error)
}

// Ingestor turns webhook replies into messages authored by the bot.
type Ingestor struct {
	creator MessageCreator
	log     zerolog.Logger
}

func NewIngestor(creator MessageCreator, log zerolog.Logger) *Ingestor {
	return &Ingestor{
		creator: creator,
		log:     log.With().Str("component", "ingestor").Logger(),
	}
}

// Ingest creates exactly one message in the original room for a text or
// attachment reply.
func (i *Ingestor) Ingest(ctx context.Context, task *Task, reply *Reply) (*dbmysql.Message, error) {
	if reply == nil {
		return nil, errors.New("nothing to ingest")
	}

	req := i.replyTo(task)
	kind := "text"
	if reply.Extension != "" {
		kind = "attachment"
		req.Attachment = &service.NewAttachment{
			Filename:    "attachment." + reply.Extension,
			ContentType: reply.ContentType,
			Content:     bytes.NewReader(reply.Body),
		}
	} else {
		req.Body = replyHTML(reply)
	}

	return i.create(ctx, task, req, kind)
}

// IngestTimeout posts the fallback reply for a bot that never answered.
func (i *Ingestor) IngestTimeout(ctx context.Context, task *Task, timeout time.Duration) (*dbmysql.Message, error) {
	req := i.replyTo(task)
	req.Body = html.EscapeString(TimeoutReplyText(timeout))
	return i.create(ctx, task, req, "timeout")
}

func (i *Ingestor) replyTo(task *Task) service.NewMessage {
	causedBy := task.Message.ID
	return service.NewMessage{
		RoomID:            task.Message.RoomID,
		CreatorID:         task.Bot.ID,
		CausedByMessageID: &causedBy,
	}
}

func (i *Ingestor) create(ctx context.Context, task *Task, req service.NewMessage, kind string) (*dbmysql.Message, error) {
	msg, err := i.creator.CreateMessage(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("failed to create %s reply: %w", kind, err)
	}

	metrics.RepliesTotal.WithLabelValues(kind).Inc()
	i.log.Info().
		Str("message_id", task.Message.ID).
		Str("bot_id", task.Bot.ID).
		Str("reply_id", msg.ID).
		Str("kind", kind).
		Msg("bot reply created")
	return msg, nil
}

// replyHTML keeps text/html as is and escapes plain text.
func replyHTML(reply *Reply) string {
	text := strings.TrimSpace(string(reply.Body))
	if reply.ContentType == "text/html" {
		return text
	}
	return html.EscapeString(text)
}

// TimeoutReplyText reads "Failed to respond within 7 seconds".
func TimeoutReplyText(timeout time.Duration) string {
	var within string
	switch {
	case timeout == time.Second:
		within = "1 second"
	case timeout > 0 && timeout%time.Second == 0:
		within = fmt.Sprintf("%d seconds", int64(timeout/time.Second))
	default:
		within = timeout.String()
	}
	return "Failed to respond within " + within
}
