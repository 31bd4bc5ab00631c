// Package memory is an in-process implementation of the vault store.
//
// Writes inside WithinTx are staged on the unit and applied under the store
// mutex when it commits, so other callers only ever read committed state.
// Work on one content fingerprint is serialised through Contents().Lock and
// ledger changes of one owner through an owner lock taken by the quota
// repository. Both only have an effect inside WithinTx and are held until
// the unit ends.
package memory

import (
	"context"
	"sync"
	"time"

	"file-vault-api/internal/application/ports"
	"file-vault-api/internal/domain/content"
	"file-vault-api/internal/domain/file"
	"file-vault-api/internal/domain/quota"
)

type holdingKey struct {
	owner       string
	fingerprint string
}

type Store struct {
	mu       sync.Mutex
	files    map[file.ID]*file.File
	objects  map[string]*content.Object
	usage    map[string]*quota.Usage
	holdings map[holdingKey]int64

	locks *keyedLock
	now   func() time.Time
}

func New() *Store {
	return &Store{
		files:    make(map[file.ID]*file.File),
		objects:  make(map[string]*content.Object),
		usage:    make(map[string]*quota.Usage),
		holdings: make(map[holdingKey]int64),
		locks:    newKeyedLock(),
		now:      func() time.Time { return time.Now().UTC() },
	}
}

var _ ports.Store = (*Store)(nil)

func (s *Store) Files() file.Repository       { return view{s: s}.Files() }
func (s *Store) Contents() content.Repository { return view{s: s}.Contents() }
func (s *Store) Quotas() quota.Repository     { return view{s: s}.Quotas() }

func (s *Store) WithinTx(ctx context.Context, fn func(ctx context.Context, repos ports.Repositories) error) (err error) {
	if err = ctx.Err(); err != nil {
		return err
	}

	t := newTx()
	defer t.unlockAll(s.locks)

	if err = fn(ctx, view{s: s, tx: t}); err != nil {
		return err
	}
	// a cancelled request never commits
	if err = ctx.Err(); err != nil {
		return err
	}
	s.commit(t)

	return nil
}

func (s *Store) commit(t *tx) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for id, f := range t.files {
		if f == nil {
			delete(s.files, id)
			continue
		}
		s.files[id] = f
	}
	for fp, obj := range t.objects {
		if obj == nil {
			delete(s.objects, fp)
			continue
		}
		s.objects[fp] = obj
	}
	for owner, u := range t.usage {
		s.usage[owner] = u
	}
	for k, n := range t.holdings {
		if n <= 0 {
			delete(s.holdings, k)
			continue
		}
		s.holdings[k] = n
	}
}

// tx stages the writes of one unit. A nil entry in files or objects is a
// pending delete; a holding at zero is dropped on commit.
type tx struct {
	files    map[file.ID]*file.File
	objects  map[string]*content.Object
	usage    map[string]*quota.Usage
	holdings map[holdingKey]int64
	held     map[string]struct{}
}

func newTx() *tx {
	return &tx{
		files:    make(map[file.ID]*file.File),
		objects:  make(map[string]*content.Object),
		usage:    make(map[string]*quota.Usage),
		holdings: make(map[holdingKey]int64),
		held:     make(map[string]struct{}),
	}
}

func (t *tx) unlockAll(l *keyedLock) {
	for k := range t.held {
		l.Unlock(k)
	}
	t.held = nil
}

// view implements ports.Repositories; tx is nil outside WithinTx, where
// writes apply immediately. Every accessor below needs s.mu.
type view struct {
	s  *Store
	tx *tx
}

func (v view) Files() file.Repository       { return &fileRepo{v} }
func (v view) Contents() content.Repository { return &contentRepo{v} }
func (v view) Quotas() quota.Repository     { return &quotaRepo{v} }

// lock takes key for the rest of the unit. Re-entrant within a unit.
func (v view) lock(ctx context.Context, key string) error {
	if v.tx == nil {
		return nil
	}
	if _, ok := v.tx.held[key]; ok {
		return nil
	}
	if err := v.s.locks.Lock(ctx, key); err != nil {
		return err
	}
	v.tx.held[key] = struct{}{}

	return nil
}

func (v view) file(id file.ID) (*file.File, bool) {
	if v.tx != nil {
		if f, ok := v.tx.files[id]; ok {
			return f, f != nil
		}
	}
	f, ok := v.s.files[id]
	return f, ok
}

func (v view) putFile(f *file.File) {
	if v.tx != nil {
		v.tx.files[f.ID] = f
		return
	}
	v.s.files[f.ID] = f
}

func (v view) deleteFile(id file.ID) {
	if v.tx != nil {
		v.tx.files[id] = nil
		return
	}
	delete(v.s.files, id)
}

// eachFile visits the files this view can see.
func (v view) eachFile(fn func(f *file.File)) {
	for id, f := range v.s.files {
		if v.tx != nil {
			if _, staged := v.tx.files[id]; staged {
				continue
			}
		}
		fn(f)
	}
	if v.tx == nil {
		return
	}
	for _, f := range v.tx.files {
		if f != nil {
			fn(f)
		}
	}
}

// object returns a private copy the caller may change and stage.
func (v view) object(fingerprint string) (*content.Object, bool) {
	obj, ok := v.s.objects[fingerprint]
	if v.tx != nil {
		if staged, isStaged := v.tx.objects[fingerprint]; isStaged {
			obj, ok = staged, staged != nil
		}
	}
	if !ok {
		return nil, false
	}
	cp := *obj
	return &cp, true
}

func (v view) putObject(fingerprint string, obj *content.Object) {
	if v.tx != nil {
		v.tx.objects[fingerprint] = obj
		return
	}
	if obj == nil {
		delete(v.s.objects, fingerprint)
		return
	}
	v.s.objects[fingerprint] = obj
}

// usageOf returns a private copy the caller may change and stage.
func (v view) usageOf(owner string) (*quota.Usage, bool) {
	u, ok := v.s.usage[owner]
	if v.tx != nil {
		if staged, isStaged := v.tx.usage[owner]; isStaged {
			u, ok = staged, true
		}
	}
	if !ok {
		return &quota.Usage{Owner: owner}, false
	}
	cp := *u
	return &cp, true
}

func (v view) putUsage(u *quota.Usage) {
	if v.tx != nil {
		v.tx.usage[u.Owner] = u
		return
	}
	v.s.usage[u.Owner] = u
}

func (v view) holding(k holdingKey) int64 {
	if v.tx != nil {
		if n, ok := v.tx.holdings[k]; ok {
			return n
		}
	}
	return v.s.holdings[k]
}

func (v view) setHolding(k holdingKey, n int64) {
	if v.tx != nil {
		v.tx.holdings[k] = n
		return
	}
	if n <= 0 {
		delete(v.s.holdings, k)
		return
	}
	v.s.holdings[k] = n
}

// annotate returns a copy carrying the owner's reference count.
func (v view) annotate(f *file.File) *file.File {
	cp := *f
	cp.ReferenceCount = v.holding(holdingKey{owner: f.Owner, fingerprint: f.Fingerprint})
	return &cp
}
