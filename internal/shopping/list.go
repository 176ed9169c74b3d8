// Package shopping holds the live view of the shopping list: an
// in-memory snapshot that is reloaded from the store after every
// mutation and pushed to subscribers.
package shopping

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"sync"

	"github.com/idilsaglam/shoplist/internal/model"
	"github.com/idilsaglam/shoplist/internal/store"
)

var (
	// ErrIndexOutOfRange is returned when a position does not address the
	// current snapshot. It is checked before the store is touched.
	ErrIndexOutOfRange = errors.New("index out of range")
	// ErrItemNotFound is returned by the ID-addressed operations.
	ErrItemNotFound = errors.New("item not found")
)

// List is the controller over a store. All mutations are serialized;
// the snapshot is replaced only after the store write and the reload
// both succeed.
type List struct {
	st  store.Store
	log *slog.Logger

	mu       sync.Mutex
	snapshot []model.ShoppingItem
	subs     map[*subscriber]struct{}
}

type subscriber struct {
	ch     chan []model.ShoppingItem
	closed bool
}

// Option configures a List.
type Option func(*List)

// WithLogger sets the logger; slog.Default is used otherwise.
func WithLogger(l *slog.Logger) Option {
	return func(ls *List) {
		if l != nil {
			ls.log = l
		}
	}
}

// New builds a List on st and loads the initial snapshot.
func New(ctx context.Context, st store.Store, opts ...Option) (*List, error) {
	l := &List{
		st:       st,
		log:      slog.Default(),
		snapshot: []model.ShoppingItem{},
		subs:     make(map[*subscriber]struct{}),
	}
	for _, o := range opts {
		o(l)
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	if err := l.reloadLocked(ctx); err != nil {
		return nil, fmt.Errorf("initial load: %w", err)
	}
	return l, nil
}

// Snapshot returns a copy of the current items in store order.
func (l *List) Snapshot() []model.ShoppingItem {
	l.mu.Lock()
	defer l.mu.Unlock()
	return slices.Clone(l.snapshot)
}

// Len returns the number of items in the snapshot.
func (l *List) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.snapshot)
}

// Counts returns how many items are bought and still to buy.
func (l *List) Counts() (bought, pending int) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return model.Counts(l.snapshot)
}

// Subscribe returns a channel that carries the latest snapshot. It holds
// the current snapshot immediately. A slow reader only ever sees the
// newest value. cancel closes the channel and is safe to call twice.
func (l *List) Subscribe() (updates <-chan []model.ShoppingItem, cancel func()) {
	s := &subscriber{ch: make(chan []model.ShoppingItem, 1)}

	l.mu.Lock()
	l.subs[s] = struct{}{}
	s.ch <- slices.Clone(l.snapshot)
	l.mu.Unlock()

	return s.ch, func() {
		l.mu.Lock()
		defer l.mu.Unlock()
		if s.closed {
			return
		}
		s.closed = true
		delete(l.subs, s)
		close(s.ch)
	}
}

// AddItem stores a new, unbought item and republishes. Blank names are
// ignored.
func (l *List) AddItem(ctx context.Context, name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	id, err := l.st.InsertItem(ctx, model.ShoppingItem{Name: name})
	if err != nil {
		return fmt.Errorf("add %q: %w", name, err)
	}
	l.log.Debug("item added", "id", id, "name", name)
	return l.reloadLocked(ctx)
}

// DeleteItem removes the item at index in the current snapshot.
func (l *List) DeleteItem(ctx context.Context, index int) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	it, err := l.atLocked(index)
	if err != nil {
		return err
	}
	return l.deleteLocked(ctx, it)
}

// DeleteItemByID removes the item with the given ID.
func (l *List) DeleteItemByID(ctx context.Context, id int64) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	it, err := l.byIDLocked(id)
	if err != nil {
		return err
	}
	return l.deleteLocked(ctx, it)
}

// ToggleBought flips the bought flag of the item at index.
func (l *List) ToggleBought(ctx context.Context, index int) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	it, err := l.atLocked(index)
	if err != nil {
		return err
	}
	return l.toggleLocked(ctx, it)
}

// ToggleBoughtByID flips the bought flag of the item with the given ID.
func (l *List) ToggleBoughtByID(ctx context.Context, id int64) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	it, err := l.byIDLocked(id)
	if err != nil {
		return err
	}
	return l.toggleLocked(ctx, it)
}

// Reload re-reads the store and republishes. Useful when another
// process may have written to the same file.
func (l *List) Reload(ctx context.Context) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.reloadLocked(ctx)
}

func (l *List) atLocked(index int) (model.ShoppingItem, error) {
	if index < 0 || index >= len(l.snapshot) {
		return model.ShoppingItem{}, fmt.Errorf("%w: have %d, got %d", ErrIndexOutOfRange, len(l.snapshot), index)
	}
	return l.snapshot[index], nil
}

func (l *List) byIDLocked(id int64) (model.ShoppingItem, error) {
	i := model.IndexOf(l.snapshot, id)
	if i < 0 {
		return model.ShoppingItem{}, fmt.Errorf("%w: id %d", ErrItemNotFound, id)
	}
	return l.snapshot[i], nil
}

func (l *List) deleteLocked(ctx context.Context, it model.ShoppingItem) error {
	if err := l.st.DeleteItem(ctx, it); err != nil {
		return fmt.Errorf("delete %d: %w", it.ID, err)
	}
	l.log.Debug("item deleted", "id", it.ID)
	return l.reloadLocked(ctx)
}

func (l *List) toggleLocked(ctx context.Context, it model.ShoppingItem) error {
	updated := it.Toggled()
	if err := l.st.UpdateItem(ctx, updated); err != nil {
		return fmt.Errorf("toggle %d: %w", it.ID, err)
	}
	l.log.Debug("item toggled", "id", it.ID, "bought", updated.Bought)
	return l.reloadLocked(ctx)
}

// reloadLocked replaces the snapshot with the store's contents and
// publishes it. On error the snapshot is left as it was.
func (l *List) reloadLocked(ctx context.Context) error {
	items, err := l.st.GetAllItems(ctx)
	if err != nil {
		l.log.Warn("reload failed", "err", err)
		return fmt.Errorf("reload: %w", err)
	}
	if items == nil {
		items = []model.ShoppingItem{}
	}
	l.snapshot = items
	l.publishLocked()
	return nil
}

func (l *List) publishLocked() {
	for s := range l.subs {
		// Drop a value the reader has not taken yet; we are the only
		// sender, so the send below cannot block.
		select {
		case <-s.ch:
		default:
		}
		s.ch <- slices.Clone(l.snapshot)
	}
}
