package relay

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"botrelay/internal/common"
	"botrelay/internal/config"
	"botrelay/internal/dbmongo"
	"botrelay/internal/metrics"
)

const (
	userAgent    = "botrelay/1"
	embedTimeout = 15 * time.Second
)

type Outcome string

const (
	OutcomeTextReply       Outcome = "text_reply"
	OutcomeAttachmentReply Outcome = "attachment_reply"
	OutcomeNoReply         Outcome = "no_reply"
	OutcomeTimeout         Outcome = "timeout"
	OutcomeFailed          Outcome = "failed"
)

// Reply is the usable content of a webhook response.
type Reply struct {
	ContentType string
	Body        []byte
	// Extension is set for attachment replies.
	Extension string
}

type Result struct {
	Outcome  Outcome
	Attempts int
	Status   int
	Reply    *Reply
	// Timeout is the per-attempt limit that applied to this bot.
	Timeout time.Duration
	Err     error
}

// BlobStore gives the engine access to attachment bytes for embedding.
type BlobStore interface {
	DownloadFile(ctx context.Context, fileID string) (io.ReadCloser, *dbmongo.MediaFile, error)
}

// Engine POSTs payloads to bot webhooks and interprets the responses.
type Engine struct {
	client *http.Client
	cfg    config.RelayConfig
	blobs  BlobStore
	sleep  func(ctx context.Context, d time.Duration)
	log    zerolog.Logger

	embedTimeout time.Duration
}

func NewEngine(cfg config.RelayConfig, blobs BlobStore, log zerolog.Logger) *Engine {
	if cfg.MaxReplyBytes <= 0 {
		cfg.MaxReplyBytes = 10 << 20
	}
	if cfg.EmbedLimitBytes <= 0 {
		cfg.EmbedLimitBytes = 1 << 20
	}

	transport := http.DefaultTransport.(*http.Transport).Clone()
	transport.DialContext = (&net.Dialer{Timeout: cfg.Timeout, KeepAlive: 30 * time.Second}).DialContext
	transport.TLSHandshakeTimeout = cfg.Timeout

	return &Engine{
		client: &http.Client{
			Transport: transport,
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				if len(via) >= 3 {
					return http.ErrUseLastResponse
				}
				return nil
			},
		},
		cfg:   cfg,
		blobs: blobs,
		sleep: sleepContext,
		log:   log.With().Str("component", "delivery").Logger(),

		embedTimeout: embedTimeout,
	}
}

func sleepContext(ctx context.Context, d time.Duration) {
	select {
	case <-ctx.Done():
	case <-time.After(d):
	}
}

type endpoint struct {
	url      string
	timeout  time.Duration
	attempts int
	backoff  time.Duration
	embed    bool
}

// endpointFor merges the bot's webhook settings over the relay defaults.
func (e *Engine) endpointFor(task *Task) endpoint {
	ep := endpoint{
		url:      e.cfg.EndpointURL,
		timeout:  e.cfg.Timeout,
		attempts: e.cfg.RetryCount,
		backoff:  e.cfg.RetryBackoff,
	}
	if wh := task.Bot.Webhook; wh != nil {
		if wh.URL != "" {
			ep.url = wh.URL
		}
		if wh.Timeout > 0 {
			ep.timeout = wh.Timeout
		}
		if wh.RetryCount > 0 {
			ep.attempts = wh.RetryCount
		}
		if wh.RetryBackoff > 0 {
			ep.backoff = wh.RetryBackoff
		}
		ep.embed = wh.EmbedAttachments
	}
	if ep.attempts < 1 {
		ep.attempts = 1
	}
	return ep
}

// Deliver runs the attempt chain of one task. Only timeouts are retried.
func (e *Engine) Deliver(ctx context.Context, task *Task) Result {
	start := time.Now()
	ep := e.endpointFor(task)
	result := Result{Timeout: ep.timeout}

	log := e.log.With().
		Str("message_id", task.Message.ID).
		Str("bot_id", task.Bot.ID).
		Logger()

	defer func() {
		metrics.DeliveriesTotal.WithLabelValues(string(result.Outcome)).Inc()
		metrics.DeliveryDuration.Observe(time.Since(start).Seconds())
	}()

	if ep.url == "" {
		result.Outcome = OutcomeFailed
		result.Err = errors.New("bot has no webhook URL")
		log.Warn().Msg("bot has no webhook URL, skipping delivery")
		return result
	}

	body, err := json.Marshal(e.payloadFor(ctx, task, ep))
	if err != nil {
		result.Outcome = OutcomeFailed
		result.Err = fmt.Errorf("failed to encode payload: %w", err)
		log.Error().Err(result.Err).Msg("delivery abandoned")
		return result
	}

	for attempt := 1; attempt <= ep.attempts; attempt++ {
		result.Attempts = attempt
		metrics.DeliveryAttempts.Inc()

		status, reply, err := e.post(ctx, ep, body)
		if err == nil {
			result.Status = status
			result.Outcome, result.Reply = interpret(status, reply)
			log.Info().
				Int("attempt", attempt).
				Int("status", status).
				Str("outcome", string(result.Outcome)).
				Dur("elapsed", time.Since(start)).
				Msg("webhook delivered")
			return result
		}

		result.Err = err
		if !isTimeout(err) {
			result.Outcome = OutcomeFailed
			log.Error().Err(err).Int("attempt", attempt).Msg("webhook request failed")
			return result
		}

		log.Warn().
			Int("attempt", attempt).
			Int("attempts", ep.attempts).
			Dur("timeout", ep.timeout).
			Msg("webhook timed out")
		if attempt < ep.attempts {
			e.sleep(ctx, ep.backoff)
		}
	}

	result.Outcome = OutcomeTimeout
	return result
}

func (e *Engine) payloadFor(ctx context.Context, task *Task, ep endpoint) Payload {
	opts := PayloadOptions{
		Body:        task.Verdict.Body,
		BaseLinkURL: e.cfg.BaseLinkURL,
	}
	if ep.embed && task.Message.HasAttachment() && task.Message.Attachment.ByteSize <= e.cfg.EmbedLimitBytes {
		encoded, err := e.embed(ctx, task.Message.Attachment.FileID)
		if err != nil {
			e.log.Warn().Err(err).Str("message_id", task.Message.ID).Msg("attachment not embedded")
		}
		opts.Base64 = encoded
	}
	return BuildPayload(task.Message, &task.Bot, opts)
}

func (e *Engine) embed(ctx context.Context, fileID string) (string, error) {
	if e.blobs == nil {
		return "", errors.New("no blob store configured")
	}
	ctx, cancel := context.WithTimeout(ctx, e.embedTimeout)
	defer cancel()

	reader, _, err := e.blobs.DownloadFile(ctx, fileID)
	if err != nil {
		return "", err
	}
	defer reader.Close()

	data, err := io.ReadAll(io.LimitReader(reader, e.cfg.EmbedLimitBytes+1))
	if err != nil {
		return "", fmt.Errorf("failed to read attachment: %w", err)
	}
	if int64(len(data)) > e.cfg.EmbedLimitBytes {
		return "", fmt.Errorf("attachment exceeds %d bytes", e.cfg.EmbedLimitBytes)
	}
	return base64.StdEncoding.EncodeToString(data), nil
}

// post makes one attempt. The timeout covers connect, headers and body.
func (e *Engine) post(ctx context.Context, ep endpoint, body []byte) (int, *Reply, error) {
	reqCtx, cancel := context.WithTimeout(ctx, ep.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(reqCtx, http.MethodPost, ep.url, bytes.NewReader(body))
	if err != nil {
		return 0, nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", userAgent)

	resp, err := e.client.Do(req)
	if err != nil {
		return 0, nil, err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, e.cfg.MaxReplyBytes+1))
	if err != nil {
		return 0, nil, fmt.Errorf("read response: %w", err)
	}
	if int64(len(data)) > e.cfg.MaxReplyBytes {
		e.log.Warn().Str("url", ep.url).Int64("limit", e.cfg.MaxReplyBytes).Msg("webhook reply too large, ignoring")
		return resp.StatusCode, nil, nil
	}

	return resp.StatusCode, &Reply{
		ContentType: common.NormalizeContentType(resp.Header.Get("Content-Type")),
		Body:        data,
	}, nil
}

func interpret(status int, reply *Reply) (Outcome, *Reply) {
	if status != http.StatusOK || reply == nil || len(reply.Body) == 0 {
		return OutcomeNoReply, nil
	}
	if common.IsTextReply(reply.ContentType) {
		if strings.TrimSpace(string(reply.Body)) == "" {
			return OutcomeNoReply, nil
		}
		return OutcomeTextReply, reply
	}
	if ext, ok := common.ExtensionForContentType(reply.ContentType); ok {
		reply.Extension = ext
		return OutcomeAttachmentReply, reply
	}
	return OutcomeNoReply, nil
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}
