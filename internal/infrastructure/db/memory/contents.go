package memory

import (
	"context"

	"file-vault-api/internal/domain/content"
)

type contentRepo struct{ view }

func (r *contentRepo) Lock(ctx context.Context, fingerprint string) error {
	return r.lock(ctx, "content/"+fingerprint)
}

func (r *contentRepo) Acquire(_ context.Context, fingerprint string, size int64) (*content.Object, bool, error) {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()

	if obj, ok := r.object(fingerprint); ok {
		obj.ReferenceCount++
		r.putObject(fingerprint, obj)
		cp := *obj
		return &cp, false, nil
	}

	obj := &content.Object{
		Fingerprint:    fingerprint,
		Size:           size,
		ReferenceCount: 1,
		CreatedAt:      s.now(),
	}
	r.putObject(fingerprint, obj)

	cp := *obj
	return &cp, true, nil
}

func (r *contentRepo) Release(_ context.Context, fingerprint string) (int64, error) {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()

	obj, ok := r.object(fingerprint)
	if !ok {
		return 0, content.ErrNotFound
	}
	obj.ReferenceCount--
	if obj.ReferenceCount == 0 {
		r.putObject(fingerprint, nil)
		return 0, nil
	}
	r.putObject(fingerprint, obj)

	return obj.ReferenceCount, nil
}

func (r *contentRepo) FetchObject(_ context.Context, fingerprint string) (*content.Object, error) {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()

	obj, ok := r.object(fingerprint)
	if !ok {
		return nil, content.ErrNotFound
	}
	return obj, nil
}
