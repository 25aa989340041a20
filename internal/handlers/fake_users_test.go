package handlers

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/jjudge-oj/userdir/internal/mq"
	"github.com/jjudge-oj/userdir/internal/services"
	"github.com/jjudge-oj/userdir/internal/store"
	"github.com/jjudge-oj/userdir/types"
)

var errBackendDown = errors.New("backend down")

type fakeUsers struct {
	mu        sync.Mutex
	nextID    int
	users     map[int]types.User
	listCalls int
	err       error
}

func newFakeUsers() *fakeUsers {
	return &fakeUsers{nextID: 1, users: map[int]types.User{}}
}

func (f *fakeUsers) Create(_ context.Context, input services.CreateUserInput) (types.User, error) {
	user, err := input.Validate()
	if err != nil {
		return types.User{}, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return types.User{}, f.err
	}
	for _, existing := range f.users {
		if existing.Email == user.Email {
			return types.User{}, fmt.Errorf("create user: %w", store.ErrConflict)
		}
	}
	user.ID = f.nextID
	user.CreatedAt = time.Date(2025, 3, 14, 9, 0, 0, 0, time.UTC)
	f.nextID++
	f.users[user.ID] = user
	return user, nil
}

func (f *fakeUsers) GetUser(_ context.Context, id int) (types.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return types.User{}, f.err
	}
	user, ok := f.users[id]
	if !ok {
		return types.User{}, store.ErrNotFound
	}
	return user, nil
}

func (f *fakeUsers) GetUsers(_ context.Context, params services.ListParams) (services.UserPage, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.listCalls++
	if f.err != nil {
		return services.UserPage{}, f.err
	}
	limit, offset := services.NormalizeListParams(params)
	ids := make([]int, 0, len(f.users))
	for id := range f.users {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	page := services.UserPage{Users: []types.User{}, TotalCount: len(ids)}
	for i := offset; i < len(ids) && len(page.Users) < limit; i++ {
		page.Users = append(page.Users, f.users[ids[i]])
	}
	return page, nil
}

func (f *fakeUsers) DeleteUser(_ context.Context, id int) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return 0, f.err
	}
	if _, ok := f.users[id]; !ok {
		return 0, nil
	}
	delete(f.users, id)
	return 1, nil
}

func (f *fakeUsers) Seed(ctx context.Context, count int) (int, error) {
	switch {
	case count <= 0:
		count = services.DefaultSeedCount
	case count > services.MaxSeedCount:
		count = services.MaxSeedCount
	}
	for i := 0; i < count; i++ {
		n := f.nextID
		_, err := f.Create(ctx, services.CreateUserInput{
			Username:   fmt.Sprintf("user%04d", n),
			GivenName:  "Seed",
			FamilyName: fmt.Sprintf("User%d", n),
			DOB:        "1990-01-01",
			Title:      "Engineer",
			Department: "engineering",
			Email:      fmt.Sprintf("user%d@example.com", n),
		})
		if err != nil {
			return 0, err
		}
	}
	return count, nil
}

func (f *fakeUsers) calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.listCalls
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []mq.UserEvent
}

func (p *recordingPublisher) PublishUserEvent(_ context.Context, event mq.UserEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
	return nil
}

func (p *recordingPublisher) kinds() []mq.EventKind {
	p.mu.Lock()
	defer p.mu.Unlock()
	kinds := make([]mq.EventKind, 0, len(p.events))
	for _, e := range p.events {
		kinds = append(kinds, e.Kind)
	}
	return kinds
}
