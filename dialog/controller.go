package dialog

import (
	"context"
	"sync"
	"time"

	"shopbot/core/logger"
	"shopbot/statestore"

	"log/slog"
)

// Controller drives the per-chat state machine. One instance serves
// all chats; turns within a chat are serialized.
type Controller struct {
	api   Storefront
	store statestore.Store

	mu    sync.Mutex
	locks map[int64]*sync.Mutex
}

// NewController wires the storefront API and the state store.
func NewController(api Storefront, store statestore.Store) *Controller {
	return &Controller{
		api:   api,
		store: store,
		locks: make(map[int64]*sync.Mutex),
	}
}

func (c *Controller) chatLock(chatID int64) *sync.Mutex {
	c.mu.Lock()
	defer c.mu.Unlock()
	lock, ok := c.locks[chatID]
	if !ok {
		lock = &sync.Mutex{}
		c.locks[chatID] = lock
	}
	return lock
}

// HandleEvent runs one dialog turn: resolve the state, dispatch to its
// handler, and persist the next state. The stored state is only read
// when the event does not force a transition, and only written when
// the handler succeeds.
func (c *Controller) HandleEvent(ctx context.Context, m Messenger, ev Event) {
	lock := c.chatLock(ev.ChatID)
	lock.Lock()
	defer lock.Unlock()

	start := time.Now()

	state, ok := ForcedState(ev)
	if !ok {
		stored, found, err := c.store.Get(ctx, ev.ChatID)
		if err != nil {
			logger.Dialog.LogAttrs(ctx, slog.LevelError, "state read failed",
				slog.String("event", "turn.state_read"),
				slog.String("status", "fail"),
				slog.Int64("chat_id", ev.ChatID),
				slog.String("err", err.Error()),
			)
			return
		}
		switch {
		case !found:
			state = StateStart
		default:
			parsed, err := ParseState(stored)
			if err != nil {
				logger.Dialog.LogAttrs(ctx, slog.LevelWarn, "stored state invalid",
					slog.String("event", "turn.state_invalid"),
					slog.Int64("chat_id", ev.ChatID),
					slog.String("state", stored),
				)
				parsed = StateStart
			}
			state = parsed
		}
	}

	next, err := c.dispatch(ctx, m, state, ev)
	if err != nil {
		logger.Dialog.LogAttrs(ctx, slog.LevelError, "turn failed",
			slog.String("event", "turn.handled"),
			slog.String("status", "fail"),
			slog.Int64("chat_id", ev.ChatID),
			slog.String("state", string(state)),
			slog.Duration("duration", logger.Took(start)),
			slog.String("err", err.Error()),
		)
		return
	}

	if err := c.store.Set(ctx, ev.ChatID, string(next)); err != nil {
		logger.Dialog.LogAttrs(ctx, slog.LevelError, "state write failed",
			slog.String("event", "turn.state_write"),
			slog.String("status", "fail"),
			slog.Int64("chat_id", ev.ChatID),
			slog.String("next_state", string(next)),
			slog.String("err", err.Error()),
		)
		return
	}

	logger.Dialog.LogAttrs(ctx, slog.LevelDebug, "turn handled",
		slog.String("event", "turn.handled"),
		slog.String("status", "ok"),
		slog.Int64("chat_id", ev.ChatID),
		slog.String("state", string(state)),
		slog.String("next_state", string(next)),
		slog.Duration("duration", logger.Took(start)),
	)
}

func (c *Controller) dispatch(ctx context.Context, m Messenger, state State, ev Event) (State, error) {
	switch state {
	case StateStart:
		return c.handleStart(ctx, m, ev)
	case StateBrowsingMenu:
		return c.handleBrowsingMenu(ctx, m, ev)
	case StateViewingProduct:
		return c.handleViewingProduct(ctx, m, ev)
	case StateViewingCart:
		return c.handleViewingCart(ctx, m, ev)
	case StateAwaitingEmail:
		return c.handleAwaitingEmail(ctx, m, ev)
	default:
		return c.handleStart(ctx, m, ev)
	}
}
