package repository

import (
	"context"
	"strings"
	"sync"

	"github.com/mkraev/storefront/internal/apperr"
	"github.com/mkraev/storefront/internal/domain"
)

// MemoryUserRepository keeps users in a mutex-guarded map with
// sequence-assigned IDs. Emails are unique, compared case-insensitively.
type MemoryUserRepository struct {
	mu     sync.RWMutex
	users  map[int64]*domain.User
	nextID int64
}

func NewMemoryUserRepository() *MemoryUserRepository {
	return &MemoryUserRepository{users: make(map[int64]*domain.User)}
}

func (r *MemoryUserRepository) Create(_ context.Context, u *domain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, existing := range r.users {
		if strings.EqualFold(existing.Email, u.Email) {
			return &apperr.DuplicateError{Entity: "User", Field: "email", Value: u.Email}
		}
	}

	if u.ID == 0 {
		r.nextID++
		u.ID = r.nextID
	} else if u.ID > r.nextID {
		r.nextID = u.ID
	}

	cp := *u
	r.users[u.ID] = &cp
	return nil
}

func (r *MemoryUserRepository) Update(_ context.Context, u *domain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.users[u.ID]; !ok {
		return apperr.NotFound("User", u.ID)
	}
	cp := *u
	r.users[u.ID] = &cp
	return nil
}

func (r *MemoryUserRepository) GetByID(_ context.Context, id int64) (*domain.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	u, ok := r.users[id]
	if !ok {
		return nil, apperr.NotFound("User", id)
	}
	cp := *u
	return &cp, nil
}

func (r *MemoryUserRepository) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, u := range r.users {
		if strings.EqualFold(u.Email, email) {
			cp := *u
			return &cp, nil
		}
	}
	return nil, apperr.NotFound("User", email)
}

func (r *MemoryUserRepository) ExistsByEmail(_ context.Context, email string) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, u := range r.users {
		if strings.EqualFold(u.Email, email) {
			return true, nil
		}
	}
	return false, nil
}

// MemoryAddressRepository keeps addresses in a mutex-guarded map with
// sequence-assigned IDs.
type MemoryAddressRepository struct {
	mu        sync.RWMutex
	addresses map[int64]*domain.Address
	nextID    int64
}

func NewMemoryAddressRepository() *MemoryAddressRepository {
	return &MemoryAddressRepository{addresses: make(map[int64]*domain.Address)}
}

func (r *MemoryAddressRepository) Create(_ context.Context, a *domain.Address) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if a.ID == 0 {
		r.nextID++
		a.ID = r.nextID
	} else if a.ID > r.nextID {
		r.nextID = a.ID
	}

	cp := *a
	r.addresses[a.ID] = &cp
	return nil
}

func (r *MemoryAddressRepository) Update(_ context.Context, a *domain.Address) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.addresses[a.ID]; !ok {
		return apperr.NotFound("Address", a.ID)
	}
	cp := *a
	r.addresses[a.ID] = &cp
	return nil
}

func (r *MemoryAddressRepository) Delete(_ context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.addresses[id]; !ok {
		return apperr.NotFound("Address", id)
	}
	delete(r.addresses, id)
	return nil
}

func (r *MemoryAddressRepository) GetByID(_ context.Context, id int64) (*domain.Address, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	a, ok := r.addresses[id]
	if !ok {
		return nil, apperr.NotFound("Address", id)
	}
	cp := *a
	return &cp, nil
}

func (r *MemoryAddressRepository) ListByUser(_ context.Context, userID int64) ([]domain.Address, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]domain.Address, 0)
	for _, a := range r.addresses {
		if a.UserID == userID {
			out = append(out, *a)
		}
	}
	return out, nil
}
