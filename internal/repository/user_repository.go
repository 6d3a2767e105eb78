package repository

import (
	"context"
	"log/slog"
	"sync"

	"github.com/billbuzz/billbuzz/internal/storage"
	"github.com/billbuzz/billbuzz/shared/models"
)

const userKey = "user"

// UserRepository holds the signed-in user and mirrors it to the store under
// the "user" key. A present record means the session is authenticated.
type UserRepository struct {
	mu   sync.RWMutex
	user *models.User
	blob *storage.Blob[models.User]
}

func NewUserRepository(store storage.Store) *UserRepository {
	return &UserRepository{blob: storage.NewBlob[models.User](store, userKey)}
}

// Load rehydrates the session. An absent, undecodable or unreadable record
// leaves the session unauthenticated.
func (r *UserRepository) Load(ctx context.Context) {
	user, ok, err := r.blob.Load(ctx)
	if err != nil {
		slog.Warn("session record unreadable", "err", err)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if !ok || user.ID == "" {
		r.user = nil
		return
	}
	r.user = user
}

// Current returns a copy of the signed-in user, or nil.
func (r *UserRepository) Current() *models.User {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.user == nil {
		return nil
	}
	u := *r.user
	return &u
}

func (r *UserRepository) Save(ctx context.Context, user *models.User) {
	u := *user
	r.mu.Lock()
	r.user = &u
	r.mu.Unlock()

	if err := r.blob.Save(ctx, &u); err != nil {
		slog.Warn("failed to persist user", "err", err)
	}
}

func (r *UserRepository) Clear(ctx context.Context) {
	r.mu.Lock()
	r.user = nil
	r.mu.Unlock()

	if err := r.blob.Remove(ctx); err != nil {
		slog.Warn("failed to remove persisted user", "err", err)
	}
}
