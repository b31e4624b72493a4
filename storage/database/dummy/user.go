// Package dummy provides in-memory repositories for tests and local
// experimentation.
package dummy

import (
	"context"
	"sync"
	"time"

	"github.com/classcheck/classcheck/core/user"
)

type UserRepo struct {
	mu          sync.RWMutex
	users       map[string]user.User       // by ID
	invitations map[string]user.Invitation // by ID
}

var _ user.Repository = (*UserRepo)(nil)

func NewUserRepository() *UserRepo {
	return &UserRepo{
		users:       make(map[string]user.User),
		invitations: make(map[string]user.Invitation),
	}
}

func (repo *UserRepo) GetUserByID(_ context.Context, id string) (user.User, error) {
	repo.mu.RLock()
	defer repo.mu.RUnlock()
	usr, ok := repo.users[id]
	if !ok {
		return user.User{}, user.ErrNotFound
	}
	return usr, nil
}

func (repo *UserRepo) GetUserByEmail(_ context.Context, email string) (user.User, error) {
	repo.mu.RLock()
	defer repo.mu.RUnlock()
	for _, usr := range repo.users {
		if usr.Email == email {
			return usr, nil
		}
	}
	return user.User{}, user.ErrNotFound
}

func (repo *UserRepo) QueryUsers(_ context.Context) ([]user.User, error) {
	repo.mu.RLock()
	defer repo.mu.RUnlock()
	users := make([]user.User, 0, len(repo.users))
	for _, usr := range repo.users {
		users = append(users, usr)
	}
	return users, nil
}

func (repo *UserRepo) CreateUser(_ context.Context, usr user.User) error {
	repo.mu.Lock()
	defer repo.mu.Unlock()
	repo.users[usr.ID] = usr
	return nil
}

func (repo *UserRepo) UpdateUser(_ context.Context, usr user.User) error {
	repo.mu.Lock()
	defer repo.mu.Unlock()
	if _, ok := repo.users[usr.ID]; !ok {
		return user.ErrNotFound
	}
	repo.users[usr.ID] = usr
	return nil
}

func (repo *UserRepo) GetInvitationByToken(_ context.Context, token string) (user.Invitation, error) {
	repo.mu.RLock()
	defer repo.mu.RUnlock()
	for _, inv := range repo.invitations {
		if inv.Token == token {
			return inv, nil
		}
	}
	return user.Invitation{}, user.ErrNotFound
}

func (repo *UserRepo) GetInvitationByEmail(_ context.Context, email string) (user.Invitation, error) {
	repo.mu.RLock()
	defer repo.mu.RUnlock()
	for _, inv := range repo.invitations {
		if inv.Email == email {
			return inv, nil
		}
	}
	return user.Invitation{}, user.ErrNotFound
}

func (repo *UserRepo) CreateInvitation(_ context.Context, inv user.Invitation) error {
	repo.mu.Lock()
	defer repo.mu.Unlock()
	repo.invitations[inv.ID] = inv
	return nil
}

func (repo *UserRepo) UpdateInvitation(_ context.Context, inv user.Invitation) error {
	repo.mu.Lock()
	defer repo.mu.Unlock()
	if _, ok := repo.invitations[inv.ID]; !ok {
		return user.ErrNotFound
	}
	repo.invitations[inv.ID] = inv
	return nil
}

func (repo *UserRepo) DeleteInvitationsBefore(_ context.Context, cutoff time.Time) (int, error) {
	repo.mu.Lock()
	defer repo.mu.Unlock()
	var n int
	for id, inv := range repo.invitations {
		if !inv.IsUsed && inv.CreatedAt.Before(cutoff) {
			delete(repo.invitations, id)
			n++
		}
	}
	return n, nil
}

// InvitationCount reports the number of ledger entries for an email.
func (repo *UserRepo) InvitationCount(email string) int {
	repo.mu.RLock()
	defer repo.mu.RUnlock()
	var n int
	for _, inv := range repo.invitations {
		if inv.Email == email {
			n++
		}
	}
	return n
}
