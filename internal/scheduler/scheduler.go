package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/Tanishk-135/MathMinds-Bot/internal/db"
	"github.com/Tanishk-135/MathMinds-Bot/internal/types"
)

// ActionStore is the slice of db.Store the delayer records pending actions in.
type ActionStore interface {
	InsertPendingAction(ctx context.Context, a *db.PendingAction) (int64, error)
	UpdatePendingActionStatus(ctx context.Context, handleID string, status types.ActionStatus) error
	ListPendingActions(ctx context.Context) ([]*db.PendingAction, error)
	MarkPendingActionsLost(ctx context.Context) (int64, error)
}

// Action is a one-shot side effect to run at FireAt.
type Action struct {
	Kind types.ActionKind
	// Key identifies the thing the action acts on. Scheduling an action with
	// the key of one still pending cancels the older one.
	Key       string
	FireAt    time.Time
	GuildID   string
	ChannelID string
	UserID    string
	RoleID    string
	Body      string
	Run       func(ctx context.Context) error
}

// Handle is a scheduled action that can still be cancelled.
type Handle struct {
	ID     string
	Kind   types.ActionKind
	Key    string
	FireAt time.Time

	delayer *Delayer
	timer   Timer
	run     func(ctx context.Context) error
}

// Cancel stops the action if it has not fired yet. It reports whether the
// action was still pending.
func (h *Handle) Cancel() bool {
	return h.delayer.cancel(h, types.ActionCancelled)
}

// Timer is the subset of *time.Timer the delayer needs.
type Timer interface {
	Stop() bool
}

// Delayer runs cancellable delayed actions and keeps a durable record of each
// one so a restart can report the ones that never fired.
type Delayer struct {
	store  ActionStore
	logger *slog.Logger

	now       func() time.Time
	afterFunc func(d time.Duration, f func()) Timer
	newID     func() string

	mu      sync.Mutex
	pending map[string]*Handle
	byKey   map[string]*Handle
	stopped bool

	ctx     context.Context
	stopCtx context.CancelFunc
	wg      sync.WaitGroup
}

// NewDelayer creates a Delayer. store may be nil, in which case nothing is
// recorded.
func NewDelayer(store ActionStore, logger *slog.Logger) *Delayer {
	ctx, cancel := context.WithCancel(context.Background())
	return &Delayer{
		store:  store,
		logger: logger,
		now:    time.Now,
		afterFunc: func(d time.Duration, f func()) Timer {
			return time.AfterFunc(d, f)
		},
		newID:   uuid.NewString,
		pending: make(map[string]*Handle),
		byKey:   make(map[string]*Handle),
		ctx:     ctx,
		stopCtx: cancel,
	}
}

// RecoverLost marks every action still recorded as pending from a previous
// run as lost and returns them. Timers are not resumed.
func (d *Delayer) RecoverLost(ctx context.Context) ([]*db.PendingAction, error) {
	if d.store == nil {
		return nil, nil
	}
	lost, err := d.store.ListPendingActions(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing pending actions: %w", err)
	}
	if len(lost) == 0 {
		return nil, nil
	}
	if _, err := d.store.MarkPendingActionsLost(ctx); err != nil {
		return nil, fmt.Errorf("marking pending actions lost: %w", err)
	}
	for _, a := range lost {
		d.logger.WarnContext(ctx, "delayed action lost across restart",
			"handle_id", a.HandleID, "kind", a.Kind, "guild_id", a.GuildID,
			"channel_id", a.ChannelID, "user_id", a.UserID, "fire_at", a.FireAt)
	}
	return lost, nil
}

// Schedule arms a timer for a and records it. An action already past its
// FireAt runs on the next tick.
func (d *Delayer) Schedule(ctx context.Context, a Action) (*Handle, error) {
	if a.Run == nil {
		return nil, fmt.Errorf("scheduling %s: no run function", a.Kind)
	}

	h := &Handle{
		ID:      d.newID(),
		Kind:    a.Kind,
		Key:     a.Key,
		FireAt:  a.FireAt,
		delayer: d,
		run:     a.Run,
	}

	if d.store != nil {
		_, err := d.store.InsertPendingAction(ctx, &db.PendingAction{
			HandleID:  h.ID,
			Kind:      a.Kind,
			Key:       a.Key,
			GuildID:   a.GuildID,
			ChannelID: a.ChannelID,
			UserID:    a.UserID,
			RoleID:    a.RoleID,
			Body:      a.Body,
			FireAt:    a.FireAt,
		})
		if err != nil {
			return nil, fmt.Errorf("recording pending action: %w", err)
		}
	}

	delay := max(a.FireAt.Sub(d.now()), 0)

	d.mu.Lock()
	if d.stopped {
		d.mu.Unlock()
		return nil, fmt.Errorf("scheduling %s: delayer stopped", a.Kind)
	}
	var replaced *Handle
	if a.Key != "" {
		if old, ok := d.byKey[a.Key]; ok {
			replaced = old
			d.removeLocked(old)
			old.timer.Stop()
		}
		d.byKey[a.Key] = h
	}
	d.pending[h.ID] = h
	h.timer = d.afterFunc(delay, func() { d.fire(h) })
	d.mu.Unlock()

	if replaced != nil {
		d.setStatus(replaced.ID, types.ActionCancelled)
		d.logger.DebugContext(ctx, "replaced pending action", "key", a.Key, "old_handle_id", replaced.ID, "handle_id", h.ID)
	}
	d.logger.DebugContext(ctx, "scheduled action", "kind", a.Kind, "handle_id", h.ID, "delay", delay)
	return h, nil
}

// Pending returns the number of actions waiting to fire.
func (d *Delayer) Pending() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.pending)
}

// Stop disarms every timer and waits for running actions to finish. Records
// of disarmed actions stay pending so the next RecoverLost reports them.
func (d *Delayer) Stop() {
	d.mu.Lock()
	d.stopped = true
	for _, h := range d.pending {
		h.timer.Stop()
	}
	d.pending = make(map[string]*Handle)
	d.byKey = make(map[string]*Handle)
	d.mu.Unlock()

	d.stopCtx()
	d.wg.Wait()
}

func (d *Delayer) fire(h *Handle) {
	d.mu.Lock()
	if _, ok := d.pending[h.ID]; !ok {
		d.mu.Unlock()
		return
	}
	d.removeLocked(h)
	d.wg.Add(1)
	d.mu.Unlock()
	defer d.wg.Done()

	status := types.ActionDone
	if err := d.runSafely(h); err != nil {
		status = types.ActionFailed
		d.logger.Error("delayed action failed", "kind", h.Kind, "handle_id", h.ID, "error", err)
	}
	d.setStatus(h.ID, status)
}

func (d *Delayer) runSafely(h *Handle) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	return h.run(d.ctx)
}

func (d *Delayer) cancel(h *Handle, status types.ActionStatus) bool {
	d.mu.Lock()
	if _, ok := d.pending[h.ID]; !ok {
		d.mu.Unlock()
		return false
	}
	d.removeLocked(h)
	h.timer.Stop()
	d.mu.Unlock()

	d.setStatus(h.ID, status)
	return true
}

func (d *Delayer) removeLocked(h *Handle) {
	delete(d.pending, h.ID)
	if h.Key != "" && d.byKey[h.Key] == h {
		delete(d.byKey, h.Key)
	}
}

func (d *Delayer) setStatus(handleID string, status types.ActionStatus) {
	if d.store == nil {
		return
	}
	if err := d.store.UpdatePendingActionStatus(context.Background(), handleID, status); err != nil {
		d.logger.Error("updating pending action status", "handle_id", handleID, "status", status, "error", err)
	}
}
