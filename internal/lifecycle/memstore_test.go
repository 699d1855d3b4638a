package lifecycle_test

import (
	"context"
	"sync"
	"time"

	"github.com/frahmantamala/asset-inventory/internal/lifecycle"
)

type memAsset struct {
	status  lifecycle.Status
	deleted bool
	holder  *lifecycle.Holder

	locationID *int64
	condition  string
}

type memCredential struct {
	status  lifecycle.Status
	deleted bool
	holders []lifecycle.Holder
}

type memState struct {
	assets      map[int64]*memAsset
	credentials map[int64]*memCredential
	users       map[int64]memUser
	locations   map[int64]string
	history     []*lifecycle.HistoryEntry
}

type memUser struct {
	name    string
	active  bool
	deleted bool
}

// memStore is an in-memory lifecycle.Store. InTx serializes transactions
// and restores the previous state when fn fails.
type memStore struct {
	mu    sync.Mutex
	state *memState
	seq   int64

	failNext  error
	failCount int
}

func newMemStore() *memStore {
	return &memStore{state: &memState{
		assets:      map[int64]*memAsset{},
		credentials: map[int64]*memCredential{},
		users:       map[int64]memUser{},
		locations:   map[int64]string{},
	}}
}

func (m *memStore) addAsset(id int64, status lifecycle.Status) {
	m.state.assets[id] = &memAsset{status: status}
}

func (m *memStore) addCredential(id int64) {
	m.state.credentials[id] = &memCredential{status: lifecycle.StatusAvailable}
}

func (m *memStore) addUser(id int64, name string, active, deleted bool) {
	m.state.users[id] = memUser{name: name, active: active, deleted: deleted}
}

func (m *memStore) addLocation(id int64, name string) {
	m.state.locations[id] = name
}

func (m *memStore) historyFor(ref lifecycle.ResourceRef) []*lifecycle.HistoryEntry {
	var out []*lifecycle.HistoryEntry
	for _, e := range m.state.history {
		if e.ResourceType == ref.Kind && e.ResourceID == ref.ID {
			out = append(out, e)
		}
	}
	return out
}

func (m *memStore) InTx(ctx context.Context, fn func(tx lifecycle.Tx) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	saved := m.state.clone()
	t := &memTx{store: m}
	err := fn(t)
	if err == nil && m.failCount > 0 {
		m.failCount--
		err = m.failNext
	}
	if err != nil {
		m.state = saved
		return err
	}
	return nil
}

func (m *memStore) Load(ctx context.Context, ref lifecycle.ResourceRef) (lifecycle.Assignable, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return (&memTx{store: m}).Lock(ref)
}

func (m *memStore) History(ctx context.Context, ref lifecycle.ResourceRef) ([]*lifecycle.HistoryEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, err := (&memTx{store: m}).Lock(ref); err != nil {
		return nil, err
	}
	return m.historyFor(ref), nil
}

type memTx struct {
	store *memStore
}

func (t *memTx) Lock(ref lifecycle.ResourceRef) (lifecycle.Assignable, error) {
	s := t.store.state
	switch ref.Kind {
	case lifecycle.KindAsset:
		a, ok := s.assets[ref.ID]
		if !ok {
			return nil, lifecycle.ErrAssetNotFound
		}
		var h *lifecycle.Holder
		if a.holder != nil {
			cp := *a.holder
			h = &cp
		}
		return lifecycle.NewExclusiveSlot(ref.ID, a.status, a.deleted, h), nil
	case lifecycle.KindCredential:
		c, ok := s.credentials[ref.ID]
		if !ok {
			return nil, lifecycle.ErrCredentialNotFound
		}
		return lifecycle.NewHolderSet(ref.ID, c.status, c.deleted, c.holders), nil
	}
	return nil, lifecycle.ErrUnknownResource
}

func (t *memTx) DescribeHolder(h lifecycle.Holder) (lifecycle.Holder, error) {
	s := t.store.state
	switch h.Type {
	case lifecycle.HolderUser:
		u, ok := s.users[h.ID]
		if !ok || !u.active || u.deleted {
			return h, lifecycle.ErrHolderNotFound
		}
		h.DisplayName = u.name
	case lifecycle.HolderAsset:
		a, ok := s.assets[h.ID]
		if !ok || a.deleted {
			return h, lifecycle.ErrHolderNotFound
		}
	case lifecycle.HolderLocation:
		name, ok := s.locations[h.ID]
		if !ok {
			return h, lifecycle.ErrHolderNotFound
		}
		h.DisplayName = name
	default:
		return h, lifecycle.ErrInvalidTarget
	}
	return h, nil
}

func (t *memTx) SaveHolders(a lifecycle.Assignable, change lifecycle.HolderChange) error {
	s := t.store.state
	ref := a.Ref()
	switch ref.Kind {
	case lifecycle.KindAsset:
		row := s.assets[ref.ID]
		row.status = a.Status()
		row.holder = nil
		if hs := a.Holders(); len(hs) > 0 {
			h := hs[0]
			row.holder = &h
		}
	case lifecycle.KindCredential:
		row := s.credentials[ref.ID]
		row.status = a.Status()
		row.holders = a.Holders()
	}
	return nil
}

func (t *memTx) SetDeleted(ref lifecycle.ResourceRef, deleted bool) error {
	s := t.store.state
	switch ref.Kind {
	case lifecycle.KindAsset:
		s.assets[ref.ID].deleted = deleted
	case lifecycle.KindCredential:
		s.credentials[ref.ID].deleted = deleted
	}
	return nil
}

func (t *memTx) ApplyReturn(ref lifecycle.ResourceRef, state lifecycle.ReturnState) error {
	row := t.store.state.assets[ref.ID]
	if state.LocationID != nil {
		id := *state.LocationID
		row.locationID = &id
	}
	if state.Condition != nil {
		row.condition = *state.Condition
	}
	return nil
}

func (t *memTx) AppendHistory(entry *lifecycle.HistoryEntry) error {
	t.store.seq++
	entry.ID = t.store.seq
	entry.CreatedAt = time.Now()
	t.store.state.history = append(t.store.state.history, entry)
	return nil
}

func (s *memState) clone() *memState {
	out := &memState{
		assets:      make(map[int64]*memAsset, len(s.assets)),
		credentials: make(map[int64]*memCredential, len(s.credentials)),
		users:       s.users,
		locations:   s.locations,
		history:     append([]*lifecycle.HistoryEntry(nil), s.history...),
	}
	for id, a := range s.assets {
		cp := *a
		if a.holder != nil {
			h := *a.holder
			cp.holder = &h
		}
		out.assets[id] = &cp
	}
	for id, c := range s.credentials {
		cp := *c
		cp.holders = append([]lifecycle.Holder(nil), c.holders...)
		out.credentials[id] = &cp
	}
	return out
}
