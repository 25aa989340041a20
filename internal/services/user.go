package services

import (
	"context"
	"fmt"
	"time"

	"github.com/jjudge-oj/userdir/types"
)

const (
	DefaultPageSize  = 10
	MaxPageSize      = 100
	DefaultSeedCount = 100
	MaxSeedCount     = 1000
)

// UserRepository defines persistence operations for users.
type UserRepository interface {
	List(ctx context.Context, offset, limit int) ([]types.User, int, error)
	GetByID(ctx context.Context, id int) (types.User, error)
	Create(ctx context.Context, user types.User) (types.User, error)
	CreateBatch(ctx context.Context, users []types.User) (int, error)
	Delete(ctx context.Context, id int) (int64, error)
}

// ListParams selects a page of users. A zero Limit means "not supplied".
type ListParams struct {
	Limit  int
	Offset int
}

// UserPage is one page of users plus the size of the whole directory.
type UserPage struct {
	Users      []types.User `json:"users"`
	TotalCount int          `json:"totalCount"`
}

// UserService encapsulates user use-cases.
type UserService struct {
	repo      UserRepository
	generator *SeedGenerator
	now       func() time.Time
}

func NewUserService(repo UserRepository) *UserService {
	return &UserService{
		repo:      repo,
		generator: NewSeedGenerator(0),
		now:       time.Now,
	}
}

// Create validates input and inserts a new user. The id and creation time are
// assigned here, never taken from the caller. Duplicate emails fail with an
// error matching store.ErrConflict.
func (s *UserService) Create(ctx context.Context, input CreateUserInput) (types.User, error) {
	user, err := input.Validate()
	if err != nil {
		return types.User{}, err
	}
	user.CreatedAt = s.now().UTC()

	created, err := s.repo.Create(ctx, user)
	if err != nil {
		return types.User{}, fmt.Errorf("create user: %w", err)
	}
	return created, nil
}

// GetUser returns the user with the given id, or an error matching
// store.ErrNotFound.
func (s *UserService) GetUser(ctx context.Context, id int) (types.User, error) {
	return s.repo.GetByID(ctx, id)
}

// GetUsers returns users ordered by ascending id. The limit defaults to 10
// when absent and is clamped to [1, 100]; a negative offset reads from the
// start.
func (s *UserService) GetUsers(ctx context.Context, params ListParams) (UserPage, error) {
	limit, offset := NormalizeListParams(params)

	users, total, err := s.repo.List(ctx, offset, limit)
	if err != nil {
		return UserPage{}, err
	}
	return UserPage{Users: users, TotalCount: total}, nil
}

// DeleteUser removes a user and returns the number of rows removed. A missing
// id removes nothing and is not an error.
func (s *UserService) DeleteUser(ctx context.Context, id int) (int64, error) {
	return s.repo.Delete(ctx, id)
}

// Seed generates count synthetic users and inserts them in one batch.
// A non-positive count seeds DefaultSeedCount users; larger counts are capped
// at MaxSeedCount.
func (s *UserService) Seed(ctx context.Context, count int) (int, error) {
	switch {
	case count <= 0:
		count = DefaultSeedCount
	case count > MaxSeedCount:
		count = MaxSeedCount
	}

	users := s.generator.Generate(count, s.now().UTC())
	inserted, err := s.repo.CreateBatch(ctx, users)
	if err != nil {
		return 0, fmt.Errorf("seed users: %w", err)
	}
	return inserted, nil
}

// NormalizeListParams applies the default page size and the [1, 100] bound.
func NormalizeListParams(params ListParams) (limit, offset int) {
	limit = params.Limit
	switch {
	case limit == 0:
		limit = DefaultPageSize
	case limit < 1:
		limit = 1
	case limit > MaxPageSize:
		limit = MaxPageSize
	}

	offset = params.Offset
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}
