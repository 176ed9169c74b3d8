package shopping

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/idilsaglam/shoplist/internal/model"
	"github.com/idilsaglam/shoplist/internal/store"
)

// memStore is an in-memory store.Store with switchable failures.
type memStore struct {
	mu     sync.Mutex
	items  []model.ShoppingItem
	nextID int64

	failLoad  bool
	failWrite bool
	loads     int
}

func newMemStore(items ...model.ShoppingItem) *memStore {
	m := &memStore{nextID: 1}
	for _, it := range items {
		m.items = append(m.items, it)
		if it.ID >= m.nextID {
			m.nextID = it.ID + 1
		}
	}
	return m
}

var errDisk = errors.New("disk on fire")

func (m *memStore) GetAllItems(ctx context.Context) ([]model.ShoppingItem, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.loads++
	if m.failLoad {
		return nil, &store.StorageError{Op: "load", Err: errDisk}
	}
	return append([]model.ShoppingItem(nil), m.items...), nil
}

func (m *memStore) InsertItem(ctx context.Context, it model.ShoppingItem) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failWrite {
		return 0, &store.StorageError{Op: "insert", Err: errDisk}
	}
	if it.ID == 0 {
		it.ID = m.nextID
	}
	if it.ID >= m.nextID {
		m.nextID = it.ID + 1
	}
	if i := model.IndexOf(m.items, it.ID); i >= 0 {
		m.items[i] = it
	} else {
		m.items = append(m.items, it)
	}
	return it.ID, nil
}

func (m *memStore) UpdateItem(ctx context.Context, it model.ShoppingItem) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failWrite {
		return &store.StorageError{Op: "update", Err: errDisk}
	}
	i := model.IndexOf(m.items, it.ID)
	if i < 0 {
		return store.ErrNotFound
	}
	m.items[i] = it
	return nil
}

func (m *memStore) DeleteItem(ctx context.Context, it model.ShoppingItem) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failWrite {
		return &store.StorageError{Op: "delete", Err: errDisk}
	}
	if i := model.IndexOf(m.items, it.ID); i >= 0 {
		m.items = append(m.items[:i], m.items[i+1:]...)
	}
	return nil
}

func (m *memStore) Close() error { return nil }

// fakeStore hands every call to the test over a channel so the test can
// assert the exact sequence of store calls and script the replies.
type fakeStore struct {
	t     *testing.T
	Calls chan any
}

func newFakeStore(t *testing.T) *fakeStore {
	return &fakeStore{t: t, Calls: make(chan any)}
}

type getAllCall struct{}
type getAllResp struct {
	items []model.ShoppingItem
	err   error
}
type insertCall struct{ item model.ShoppingItem }
type insertResp struct {
	id  int64
	err error
}
type updateCall struct{ item model.ShoppingItem }
type deleteCall struct{ item model.ShoppingItem }
type errResp struct{ err error }

func (f *fakeStore) GetAllItems(ctx context.Context) ([]model.ShoppingItem, error) {
	f.Calls <- &getAllCall{}
	r := (<-f.Calls).(*getAllResp)
	return r.items, r.err
}

func (f *fakeStore) InsertItem(ctx context.Context, it model.ShoppingItem) (int64, error) {
	f.Calls <- &insertCall{it}
	r := (<-f.Calls).(*insertResp)
	return r.id, r.err
}

func (f *fakeStore) UpdateItem(ctx context.Context, it model.ShoppingItem) error {
	f.Calls <- &updateCall{it}
	return (<-f.Calls).(*errResp).err
}

func (f *fakeStore) DeleteItem(ctx context.Context, it model.ShoppingItem) error {
	f.Calls <- &deleteCall{it}
	return (<-f.Calls).(*errResp).err
}

func (f *fakeStore) Close() error {
	close(f.Calls)
	return nil
}

func (f *fakeStore) AssertGetAll(items []model.ShoppingItem, err error) {
	if _, ok := (<-f.Calls).(*getAllCall); !ok {
		f.t.Error("expected GetAllItems call")
	}
	f.Calls <- &getAllResp{items, err}
}

func (f *fakeStore) AssertInsert(want model.ShoppingItem, id int64, err error) {
	call, ok := (<-f.Calls).(*insertCall)
	if !ok {
		f.t.Error("expected InsertItem call")
	} else if call.item != want {
		f.t.Errorf("expected insert of %+v but was %+v", want, call.item)
	}
	f.Calls <- &insertResp{id, err}
}

func (f *fakeStore) AssertUpdate(want model.ShoppingItem, err error) {
	call, ok := (<-f.Calls).(*updateCall)
	if !ok {
		f.t.Error("expected UpdateItem call")
	} else if call.item != want {
		f.t.Errorf("expected update of %+v but was %+v", want, call.item)
	}
	f.Calls <- &errResp{err}
}

func (f *fakeStore) AssertDelete(want model.ShoppingItem, err error) {
	call, ok := (<-f.Calls).(*deleteCall)
	if !ok {
		f.t.Error("expected DeleteItem call")
	} else if call.item.ID != want.ID {
		f.t.Errorf("expected delete of id %d but was %d", want.ID, call.item.ID)
	}
	f.Calls <- &errResp{err}
}

func (f *fakeStore) AssertDone() {
	if _, more := <-f.Calls; more {
		f.t.Fatal("did not expect more store calls")
	}
}
