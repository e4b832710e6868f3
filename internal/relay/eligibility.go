package relay

import (
	"context"
	"fmt"
	"sort"

	"github.com/rs/zerolog"

	"botrelay/internal/dbmysql"
)

// maxCauseDepth bounds the walk up the caused-by chain of a bot reply.
const maxCauseDepth = 8

// Resolver decides which bots are notified about a message.
type Resolver struct {
	store Store
	log   zerolog.Logger
}

func NewResolver(store Store, log zerolog.Logger) *Resolver {
	return &Resolver{
		store: store,
		log:   log.With().Str("component", "resolver").Logger(),
	}
}

// Resolve returns the eligible bots sorted by ID:
//   - direct room: every active bot member
//   - otherwise the active bots among the mentionees
//   - with nobody mentioned but an attachment present, the bots the creator
//     mentioned in their previous message of the room
//
// The creator and every author of the caused-by chain are never eligible.
func (r *Resolver) Resolve(ctx context.Context, msg *dbmysql.Message) ([]dbmysql.User, error) {
	candidates, err := r.candidates(ctx, msg)
	if err != nil {
		return nil, err
	}
	if len(candidates) == 0 {
		return nil, nil
	}

	excluded := r.causeChainAuthors(ctx, msg)

	seen := make(map[string]bool, len(candidates))
	eligible := make([]dbmysql.User, 0, len(candidates))
	for _, bot := range candidates {
		if excluded[bot.ID] || seen[bot.ID] || !bot.IsActiveBot() {
			continue
		}
		seen[bot.ID] = true
		eligible = append(eligible, bot)
	}

	sort.Slice(eligible, func(i, j int) bool { return eligible[i].ID < eligible[j].ID })
	return eligible, nil
}

func (r *Resolver) candidates(ctx context.Context, msg *dbmysql.Message) ([]dbmysql.User, error) {
	if msg.Room != nil && msg.Room.Direct {
		bots, err := r.store.ActiveBotsInRoom(ctx, msg.RoomID)
		if err != nil {
			return nil, fmt.Errorf("direct room bots: %w", err)
		}
		return bots, nil
	}

	bots, err := r.store.ActiveBotsAmong(ctx, userIDs(msg.Mentionees))
	if err != nil {
		return nil, fmt.Errorf("mentioned bots: %w", err)
	}
	if len(bots) > 0 || !msg.HasAttachment() {
		return bots, nil
	}

	previous, err := r.store.PreviousMessageOf(ctx, msg)
	if err != nil {
		return nil, fmt.Errorf("previous message: %w", err)
	}
	if previous == nil {
		return nil, nil
	}

	bots, err = r.store.ActiveBotsAmong(ctx, userIDs(previous.Mentionees))
	if err != nil {
		return nil, fmt.Errorf("previously mentioned bots: %w", err)
	}
	if len(bots) > 0 {
		r.log.Debug().
			Str("message_id", msg.ID).
			Str("previous_id", previous.ID).
			Int("bots", len(bots)).
			Msg("attachment routed to previously mentioned bots")
	}
	return bots, nil
}

// causeChainAuthors collects the creator of msg and of every message up its
// caused-by chain. A missing ancestor ends the walk.
func (r *Resolver) causeChainAuthors(ctx context.Context, msg *dbmysql.Message) map[string]bool {
	authors := map[string]bool{msg.CreatorID: true}

	next := msg.CausedByMessageID
	for depth := 0; next != nil && *next != "" && depth < maxCauseDepth; depth++ {
		cause, err := r.store.MessageByID(ctx, *next)
		if err != nil {
			r.log.Warn().Err(err).Str("message_id", msg.ID).Str("cause_id", *next).Msg("cause chain broken")
			break
		}
		authors[cause.CreatorID] = true
		next = cause.CausedByMessageID
	}
	return authors
}

func userIDs(users []dbmysql.User) []string {
	if len(users) == 0 {
		return nil
	}
	ids := make([]string, 0, len(users))
	for _, u := range users {
		ids = append(ids, u.ID)
	}
	return ids
}
