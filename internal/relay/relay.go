// Package relay notifies bot users about new chat messages through their
// webhooks and posts what they answer back into the room.
package relay

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"botrelay/internal/common"
	"botrelay/internal/config"
	"botrelay/internal/metrics"
)

const (
	lookupTimeout = 10 * time.Second
	// covers the GridFS upload of an attachment reply plus the MySQL insert
	ingestTimeout = 30 * time.Second
)

// Relay observes committed messages and drives resolution, classification,
// scheduling, delivery and reply ingestion.
type Relay struct {
	cfg        config.RelayConfig
	store      Store
	resolver   *Resolver
	classifier *Classifier
	scheduler  *Scheduler
	engine     *Engine
	ingestor   *Ingestor
	log        zerolog.Logger

	ingestTimeout time.Duration
}

var _ common.Observer = (*Relay)(nil)

func NewRelay(cfg config.RelayConfig, store Store, classifier *Classifier, engine *Engine, ingestor *Ingestor, guard Guard, log zerolog.Logger) *Relay {
	r := &Relay{
		cfg:        cfg,
		store:      store,
		resolver:   NewResolver(store, log),
		classifier: classifier,
		engine:     engine,
		ingestor:   ingestor,
		log:        log.With().Str("component", "relay").Logger(),

		ingestTimeout: ingestTimeout,
	}
	r.scheduler = NewScheduler(cfg, store, guard, r.deliver, log)
	return r
}

func (r *Relay) Name() string {
	return "bot_relay"
}

// Update runs on an event bus worker. Errors are reported to the bus for
// logging and never reach the code that committed the message.
func (r *Relay) Update(event common.MessageEvent) error {
	if event.Type != common.MessageCreatedType {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), lookupTimeout)
	defer cancel()

	msg, err := r.store.MessageByID(ctx, event.MessageID)
	if err != nil {
		return fmt.Errorf("load message: %w", err)
	}

	bots, err := r.resolver.Resolve(ctx, msg)
	if err != nil {
		return fmt.Errorf("resolve bots: %w", err)
	}
	if len(bots) == 0 {
		return nil
	}

	verdict := r.classifier.Classify(msg)
	if verdict.Suppress {
		metrics.SuppressedTotal.WithLabelValues(verdict.Reason).Inc()
		r.log.Debug().
			Str("message_id", msg.ID).
			Str("reason", verdict.Reason).
			Msg("notification suppressed")
		return nil
	}

	for i := range bots {
		r.scheduler.Schedule(&Task{
			Message:   msg,
			Bot:       bots[i],
			Verdict:   verdict,
			NotBefore: time.Now(),
		})
	}
	return nil
}

func (r *Relay) deliver(ctx context.Context, task *Task) {
	result := r.engine.Deliver(ctx, task)

	ctx, cancel := context.WithTimeout(ctx, r.ingestTimeout)
	defer cancel()

	var err error
	switch result.Outcome {
	case OutcomeTextReply, OutcomeAttachmentReply:
		_, err = r.ingestor.Ingest(ctx, task, result.Reply)
	case OutcomeTimeout:
		if r.cfg.TimeoutReply {
			_, err = r.ingestor.IngestTimeout(ctx, task, result.Timeout)
		}
	case OutcomeNoReply:
		r.log.Debug().
			Str("message_id", task.Message.ID).
			Str("bot_id", task.Bot.ID).
			Int("status", result.Status).
			Msg("no usable reply")
	}
	if err != nil {
		r.log.Error().Err(err).
			Str("message_id", task.Message.ID).
			Str("bot_id", task.Bot.ID).
			Msg("failed to ingest reply")
	}
}

// Shutdown waits for queued deliveries. Call it after the event bus is shut
// down so no new tasks arrive.
func (r *Relay) Shutdown() {
	r.scheduler.Shutdown()
}
