package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jjudge-oj/userdir/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var fixedNow = time.Date(2025, 3, 14, 9, 26, 53, 0, time.UTC)

func newTestUserService() (*UserService, *memoryRepo) {
	repo := newMemoryRepo()
	svc := NewUserService(repo)
	svc.now = func() time.Time { return fixedNow }
	svc.generator = NewSeedGenerator(42)
	return svc, repo
}

func validInput() CreateUserInput {
	return CreateUserInput{
		Username:   "grace.hopper",
		GivenName:  "Grace",
		FamilyName: "Hopper",
		DOB:        "1906-12-09",
		Title:      "Rear Admiral",
		Department: "engineering",
		Email:      "grace@example.com",
	}
}

func TestCreate_ThenListed(t *testing.T) {
	svc, _ := newTestUserService()
	ctx := context.Background()

	created, err := svc.Create(ctx, validInput())
	require.NoError(t, err)
	assert.NotZero(t, created.ID)
	assert.Equal(t, fixedNow, created.CreatedAt)

	page, err := svc.GetUsers(ctx, ListParams{})
	require.NoError(t, err)
	require.Len(t, page.Users, 1)
	got := page.Users[0]
	assert.Equal(t, created.ID, got.ID)
	assert.Equal(t, "grace.hopper", got.Username)
	assert.Equal(t, "Grace", got.GivenName)
	assert.Equal(t, "Hopper", got.FamilyName)
	assert.Equal(t, "1906-12-09", got.DOB.String())
	assert.Equal(t, "Rear Admiral", got.Title)
	assert.Equal(t, "engineering", got.Department)
	assert.Equal(t, "grace@example.com", got.Email)
	assert.Equal(t, fixedNow, got.CreatedAt)
}

func TestCreate_AssignsIncreasingIDs(t *testing.T) {
	svc, _ := newTestUserService()
	ctx := context.Background()

	first, err := svc.Create(ctx, validInput())
	require.NoError(t, err)

	in := validInput()
	in.Email = "other@example.com"
	second, err := svc.Create(ctx, in)
	require.NoError(t, err)

	assert.Greater(t, second.ID, first.ID)
}

func TestCreate_TrimsInput(t *testing.T) {
	svc, _ := newTestUserService()

	in := validInput()
	in.Username = "  grace.hopper "
	in.Email = " grace@example.com\t"
	created, err := svc.Create(context.Background(), in)
	require.NoError(t, err)
	assert.Equal(t, "grace.hopper", created.Username)
	assert.Equal(t, "grace@example.com", created.Email)
}

func TestCreate_DuplicateEmail(t *testing.T) {
	svc, repo := newTestUserService()
	ctx := context.Background()

	_, err := svc.Create(ctx, validInput())
	require.NoError(t, err)

	in := validInput()
	in.Username = "another"
	_, err = svc.Create(ctx, in)
	require.ErrorIs(t, err, store.ErrConflict)
	assert.Equal(t, 1, repo.countEmail("grace@example.com"))
}

func TestCreate_ValidationErrorDoesNotPersist(t *testing.T) {
	svc, repo := newTestUserService()

	in := validInput()
	in.Email = "not-an-email"
	_, err := svc.Create(context.Background(), in)

	var verr *ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Contains(t, verr.Fields, FieldEmail)
	assert.Empty(t, repo.users)
}

func TestCreate_StoreFailure(t *testing.T) {
	svc, repo := newTestUserService()
	repo.err = errStoreDown

	_, err := svc.Create(context.Background(), validInput())
	require.ErrorIs(t, err, errStoreDown)
}

func TestGetUser(t *testing.T) {
	svc, _ := newTestUserService()
	ctx := context.Background()

	created, err := svc.Create(ctx, validInput())
	require.NoError(t, err)

	got, err := svc.GetUser(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, created, got)

	_, err = svc.GetUser(ctx, created.ID+100)
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestGetUsers_AfterSeed(t *testing.T) {
	svc, _ := newTestUserService()
	ctx := context.Background()

	n, err := svc.Seed(ctx, DefaultSeedCount)
	require.NoError(t, err)
	require.Equal(t, 100, n)

	page, err := svc.GetUsers(ctx, ListParams{Limit: 10, Offset: 0})
	require.NoError(t, err)
	assert.Equal(t, 100, page.TotalCount)
	require.Len(t, page.Users, 10)
	for i := 1; i < len(page.Users); i++ {
		assert.Less(t, page.Users[i-1].ID, page.Users[i].ID)
	}
}

func TestGetUsers_ThirdPageOfTwentyFive(t *testing.T) {
	svc, _ := newTestUserService()
	ctx := context.Background()

	_, err := svc.Seed(ctx, 25)
	require.NoError(t, err)

	pageIndex, pageSize := 2, 10
	page, err := svc.GetUsers(ctx, ListParams{Limit: pageSize, Offset: pageIndex * pageSize})
	require.NoError(t, err)
	assert.Equal(t, 25, page.TotalCount)
	require.Len(t, page.Users, 5)
	assert.Equal(t, 21, page.Users[0].ID)
	assert.Equal(t, 25, page.Users[4].ID)
}

func TestGetUsers_StoreFailure(t *testing.T) {
	svc, repo := newTestUserService()
	repo.err = errStoreDown

	_, err := svc.GetUsers(context.Background(), ListParams{})
	assert.ErrorIs(t, err, errStoreDown)
}

func TestNormalizeListParams(t *testing.T) {
	tests := []struct {
		name       string
		in         ListParams
		wantLimit  int
		wantOffset int
	}{
		{name: "absent limit", in: ListParams{}, wantLimit: 10, wantOffset: 0},
		{name: "in range", in: ListParams{Limit: 25, Offset: 50}, wantLimit: 25, wantOffset: 50},
		{name: "lower bound", in: ListParams{Limit: 1}, wantLimit: 1},
		{name: "upper bound", in: ListParams{Limit: 100}, wantLimit: 100},
		{name: "above max", in: ListParams{Limit: 500}, wantLimit: 100},
		{name: "negative limit", in: ListParams{Limit: -3}, wantLimit: 1},
		{name: "negative offset", in: ListParams{Limit: 10, Offset: -20}, wantLimit: 10, wantOffset: 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			limit, offset := NormalizeListParams(tt.in)
			assert.Equal(t, tt.wantLimit, limit)
			assert.Equal(t, tt.wantOffset, offset)
		})
	}
}

func TestDeleteUser(t *testing.T) {
	svc, _ := newTestUserService()
	ctx := context.Background()

	_, err := svc.Seed(ctx, 3)
	require.NoError(t, err)

	n, err := svc.DeleteUser(ctx, 2)
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)

	_, err = svc.GetUser(ctx, 2)
	assert.ErrorIs(t, err, store.ErrNotFound)

	page, err := svc.GetUsers(ctx, ListParams{})
	require.NoError(t, err)
	assert.Equal(t, 2, page.TotalCount)
}

func TestDeleteUser_MissingIsNoop(t *testing.T) {
	svc, _ := newTestUserService()
	ctx := context.Background()

	_, err := svc.Seed(ctx, 5)
	require.NoError(t, err)

	n, err := svc.DeleteUser(ctx, 9999)
	require.NoError(t, err)
	assert.Zero(t, n)

	page, err := svc.GetUsers(ctx, ListParams{})
	require.NoError(t, err)
	assert.Equal(t, 5, page.TotalCount)
}

func TestSeed_DefaultCount(t *testing.T) {
	svc, _ := newTestUserService()

	n, err := svc.Seed(context.Background(), 0)
	require.NoError(t, err)
	assert.Equal(t, DefaultSeedCount, n)
}

func TestSeed_CapsCount(t *testing.T) {
	svc, repo := newTestUserService()

	n, err := svc.Seed(context.Background(), 200000000)
	require.NoError(t, err)
	assert.Equal(t, MaxSeedCount, n)
	assert.Len(t, repo.users, MaxSeedCount)
}

func TestSeed_RepeatedSeedsStayUnique(t *testing.T) {
	svc, _ := newTestUserService()
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		_, err := svc.Seed(ctx, 100)
		require.NoError(t, err)
	}

	page, err := svc.GetUsers(ctx, ListParams{Limit: 1})
	require.NoError(t, err)
	assert.Equal(t, 300, page.TotalCount)
}

func TestSeed_StoreFailure(t *testing.T) {
	svc, repo := newTestUserService()
	repo.err = errStoreDown

	n, err := svc.Seed(context.Background(), 10)
	require.ErrorIs(t, err, errStoreDown)
	assert.Zero(t, n)
}
