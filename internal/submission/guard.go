package submission

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/bilgisen/estatehub/internal/cache"
	"github.com/bilgisen/estatehub/internal/logger"
	"github.com/bilgisen/estatehub/internal/utils"
)

const releaseTimeout = 5 * time.Second

// Guard allows one in-flight submission per owner and form kind, and
// remembers completed idempotency keys so a retried request returns the
// record it already created.
type Guard struct {
	store   cache.Store
	lockTTL time.Duration
	idemTTL time.Duration
	log     zerolog.Logger
}

func NewGuard(store cache.Store, lockTTL, idemTTL time.Duration) *Guard {
	return &Guard{
		store:   store,
		lockTTL: lockTTL,
		idemTTL: idemTTL,
		log:     logger.Component("guard"),
	}
}

// Ticket is a held submission slot.
type Ticket struct {
	// Replay is the id created by an earlier request with the same
	// idempotency key, empty otherwise.
	Replay string

	guard   *Guard
	lockKey string
	token   string
	idemKey string
}

// Begin takes the slot for ownerID and kind. It fails with
// ErrSubmissionInProgress while another submission holds it.
func (g *Guard) Begin(ctx context.Context, kind Kind, ownerID, idempotencyKey string) (*Ticket, error) {
	lockKey := fmt.Sprintf("submit:%s:%s", kind, ownerID)
	token, ok, err := g.store.Acquire(ctx, lockKey, g.lockTTL)
	if err != nil {
		return nil, fmt.Errorf("acquire submission lock: %w", err)
	}
	if !ok {
		return nil, ErrSubmissionInProgress
	}

	t := &Ticket{guard: g, lockKey: lockKey, token: token}
	if idempotencyKey == "" {
		return t, nil
	}

	t.idemKey = "idem:" + utils.HashKey(string(kind), ownerID, idempotencyKey)
	replay, found, err := g.store.Recall(ctx, t.idemKey)
	if err != nil {
		t.Release(ctx)
		return nil, fmt.Errorf("recall idempotency key: %w", err)
	}
	if found {
		t.Replay = replay
	}
	return t, nil
}

// Complete records id under the ticket's idempotency key, if any.
func (t *Ticket) Complete(ctx context.Context, id string) {
	if t.idemKey == "" {
		return
	}
	if err := t.guard.store.Remember(ctx, t.idemKey, id, t.guard.idemTTL); err != nil {
		t.guard.log.Warn().Err(err).Str("id", id).Msg("Failed to record idempotency key")
	}
}

// Release frees the slot. It runs even when ctx is already cancelled.
func (t *Ticket) Release(ctx context.Context) {
	rctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), releaseTimeout)
	defer cancel()
	if err := t.guard.store.Release(rctx, t.lockKey, t.token); err != nil {
		t.guard.log.Warn().Err(err).Str("lock", t.lockKey).Msg("Failed to release submission lock")
	}
}
