package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	"catalance/internal/entity"

	"github.com/google/uuid"
)

// memoryUserRepository keeps users in process memory. It enforces the same
// unique constraints as the users table and is used for local runs and tests.
type memoryUserRepository struct {
	mu    sync.RWMutex
	users map[uuid.UUID]entity.User
	now   func() time.Time
}

func NewMemoryUserRepository() UserRepository {
	return NewMemoryUserRepositoryWithClock(time.Now)
}

// NewMemoryUserRepositoryWithClock stamps created_at/updated_at with now.
func NewMemoryUserRepositoryWithClock(now func() time.Time) UserRepository {
	return &memoryUserRepository{
		users: make(map[uuid.UUID]entity.User),
		now:   now,
	}
}

func (r *memoryUserRepository) Create(_ context.Context, user *entity.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, existing := range r.users {
		if existing.Email == user.Email {
			return ErrDuplicateEmail
		}
	}
	if user.ID == uuid.Nil {
		user.ID = uuid.New()
	}
	if user.Role == "" {
		user.Role = entity.UserRoleFreelancer
	}
	now := r.now()
	user.CreatedAt = now
	user.UpdatedAt = now
	r.users[user.ID] = cloneUser(*user)
	return nil
}

func (r *memoryUserRepository) FindByID(_ context.Context, id uuid.UUID) (*entity.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	user, ok := r.users[id]
	if !ok {
		return nil, nil
	}
	found := cloneUser(user)
	return &found, nil
}

func (r *memoryUserRepository) FindByEmail(_ context.Context, email string) (*entity.User, error) {
	return r.find(func(u entity.User) bool { return u.Email == email }), nil
}

func (r *memoryUserRepository) FindByResetToken(_ context.Context, tokenHash string) (*entity.User, error) {
	return r.find(func(u entity.User) bool {
		return u.ResetPasswordToken != nil && *u.ResetPasswordToken == tokenHash
	}), nil
}

func (r *memoryUserRepository) find(match func(entity.User) bool) *entity.User {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, user := range r.users {
		if match(user) {
			found := cloneUser(user)
			return &found
		}
	}
	return nil
}

func (r *memoryUserRepository) UpdatePasswordHash(_ context.Context, id uuid.UUID, hash string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	user, ok := r.users[id]
	if !ok {
		return nil
	}
	user.PasswordHash = hash
	user.UpdatedAt = r.now()
	r.users[id] = user
	return nil
}

func (r *memoryUserRepository) SetResetToken(_ context.Context, id uuid.UUID, tokenHash string, expiresAt time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	user, ok := r.users[id]
	if !ok {
		return nil
	}
	user.ResetPasswordToken = &tokenHash
	user.ResetPasswordExpires = &expiresAt
	user.UpdatedAt = r.now()
	r.users[id] = user
	return nil
}

func (r *memoryUserRepository) ConsumeResetToken(_ context.Context, id uuid.UUID, tokenHash string, newHash string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	user, ok := r.users[id]
	if !ok || user.ResetPasswordToken == nil || *user.ResetPasswordToken != tokenHash {
		return false, nil
	}
	user.PasswordHash = newHash
	user.ResetPasswordToken = nil
	user.ResetPasswordExpires = nil
	user.UpdatedAt = r.now()
	r.users[id] = user
	return true, nil
}

func (r *memoryUserRepository) List(_ context.Context, filter UserFilter) ([]entity.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	users := make([]entity.User, 0, len(r.users))
	for _, user := range r.users {
		if filter.Role != nil && user.Role != *filter.Role {
			continue
		}
		users = append(users, cloneUser(user))
	}
	sort.SliceStable(users, func(i, j int) bool {
		return users[i].CreatedAt.After(users[j].CreatedAt)
	})
	return users, nil
}

func (r *memoryUserRepository) ClearExpiredResetTokens(_ context.Context, now time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var cleared int64
	for id, user := range r.users {
		if user.ResetPasswordExpires == nil || now.Before(*user.ResetPasswordExpires) {
			continue
		}
		user.ResetPasswordToken = nil
		user.ResetPasswordExpires = nil
		r.users[id] = user
		cleared++
	}
	return cleared, nil
}

func cloneUser(user entity.User) entity.User {
	if user.Skills != nil {
		user.Skills = append(user.Skills[:0:0], user.Skills...)
	}
	if user.ResetPasswordToken != nil {
		token := *user.ResetPasswordToken
		user.ResetPasswordToken = &token
	}
	if user.ResetPasswordExpires != nil {
		expires := *user.ResetPasswordExpires
		user.ResetPasswordExpires = &expires
	}
	return user
}
