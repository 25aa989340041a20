package services

import (
	"context"
	"errors"
	"sort"
	"sync"

	"github.com/jjudge-oj/userdir/internal/store"
	"github.com/jjudge-oj/userdir/types"
)

// memoryRepo is an in-memory UserRepository with the same observable
// behaviour as the postgres repository.
type memoryRepo struct {
	mu     sync.Mutex
	nextID int
	users  map[int]types.User
	err    error
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{nextID: 1, users: make(map[int]types.User)}
}

func (r *memoryRepo) List(_ context.Context, offset, limit int) ([]types.User, int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return nil, 0, r.err
	}

	ids := make([]int, 0, len(r.users))
	for id := range r.users {
		ids = append(ids, id)
	}
	sort.Ints(ids)

	out := []types.User{}
	for i := offset; i < len(ids) && len(out) < limit; i++ {
		out = append(out, r.users[ids[i]])
	}
	return out, len(ids), nil
}

func (r *memoryRepo) GetByID(_ context.Context, id int) (types.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	user, ok := r.users[id]
	if !ok {
		return types.User{}, store.ErrNotFound
	}
	return user, nil
}

func (r *memoryRepo) Create(_ context.Context, user types.User) (types.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return types.User{}, r.err
	}
	if r.emailTaken(user.Email) {
		return types.User{}, store.ErrConflict
	}
	user.ID = r.nextID
	r.nextID++
	r.users[user.ID] = user
	return user, nil
}

func (r *memoryRepo) CreateBatch(_ context.Context, users []types.User) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return 0, r.err
	}
	seen := make(map[string]struct{}, len(users))
	for _, user := range users {
		if _, dup := seen[user.Email]; dup || r.emailTaken(user.Email) {
			return 0, store.ErrConflict
		}
		seen[user.Email] = struct{}{}
	}
	for _, user := range users {
		user.ID = r.nextID
		r.nextID++
		r.users[user.ID] = user
	}
	return len(users), nil
}

func (r *memoryRepo) Delete(_ context.Context, id int) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return 0, r.err
	}
	if _, ok := r.users[id]; !ok {
		return 0, nil
	}
	delete(r.users, id)
	return 1, nil
}

func (r *memoryRepo) emailTaken(email string) bool {
	for _, existing := range r.users {
		if existing.Email == email {
			return true
		}
	}
	return false
}

func (r *memoryRepo) countEmail(email string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, existing := range r.users {
		if existing.Email == email {
			n++
		}
	}
	return n
}

var errStoreDown = errors.New("store down")
