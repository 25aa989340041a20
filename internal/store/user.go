package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jjudge-oj/userdir/types"
)

const userColumns = `id, username, given_name, family_name, dob, title, department, email, created_at`

// UserRepository handles persistence for users.
type UserRepository struct {
	db *sql.DB
}

func NewUserRepository(db *sql.DB) *UserRepository {
	return &UserRepository{db: db}
}

// List returns a page of users ordered by id together with the total number
// of users in the table.
func (r *UserRepository) List(ctx context.Context, offset, limit int) ([]types.User, int, error) {
	if offset < 0 {
		offset = 0
	}
	if limit < 1 {
		limit = 10
	}

	const countQuery = `SELECT COUNT(1) FROM users`
	var total int
	if err := r.db.QueryRowContext(ctx, countQuery).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count users: %w", err)
	}

	const listQuery = `
		SELECT ` + userColumns + `
		FROM users
		ORDER BY id ASC
		OFFSET $1 LIMIT $2`
	rows, err := r.db.QueryContext(ctx, listQuery, offset, limit)
	if err != nil {
		return nil, 0, fmt.Errorf("list users: %w", err)
	}
	defer rows.Close()

	users := make([]types.User, 0, limit)
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scan user: %w", err)
		}
		users = append(users, user)
	}

	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("list users: %w", err)
	}

	return users, total, nil
}

func (r *UserRepository) GetByID(ctx context.Context, id int) (types.User, error) {
	const query = `
		SELECT ` + userColumns + `
		FROM users
		WHERE id = $1`
	user, err := scanUser(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return types.User{}, ErrNotFound
		}
		return types.User{}, fmt.Errorf("get user: %w", err)
	}
	return user, nil
}

// Create inserts a user and returns it with the assigned id.
// A duplicate email yields ErrConflict.
func (r *UserRepository) Create(ctx context.Context, user types.User) (types.User, error) {
	const query = `
		INSERT INTO users (username, given_name, family_name, dob, title, department, email, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id`
	if err := r.db.QueryRowContext(
		ctx,
		query,
		user.Username,
		user.GivenName,
		user.FamilyName,
		user.DOB,
		user.Title,
		user.Department,
		user.Email,
		user.CreatedAt,
	).Scan(&user.ID); err != nil {
		return types.User{}, mapError(err)
	}
	return user, nil
}

// CreateBatch inserts all users in one transaction. Either every row is
// inserted or none is.
func (r *UserRepository) CreateBatch(ctx context.Context, users []types.User) (int, error) {
	if len(users) == 0 {
		return 0, nil
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	const query = `
		INSERT INTO users (username, given_name, family_name, dob, title, department, email, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`
	stmt, err := tx.PrepareContext(ctx, query)
	if err != nil {
		return 0, fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()

	for _, user := range users {
		if _, err := stmt.ExecContext(
			ctx,
			user.Username,
			user.GivenName,
			user.FamilyName,
			user.DOB,
			user.Title,
			user.Department,
			user.Email,
			user.CreatedAt,
		); err != nil {
			return 0, mapError(err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit tx: %w", err)
	}
	return len(users), nil
}

// Delete removes the user with the given id and reports how many rows were
// removed. Deleting a missing id removes nothing and is not an error.
func (r *UserRepository) Delete(ctx context.Context, id int) (int64, error) {
	const query = `DELETE FROM users WHERE id = $1`
	result, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return 0, fmt.Errorf("delete user: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("delete user: %w", err)
	}
	return affected, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(row rowScanner) (types.User, error) {
	var user types.User
	err := row.Scan(
		&user.ID,
		&user.Username,
		&user.GivenName,
		&user.FamilyName,
		&user.DOB,
		&user.Title,
		&user.Department,
		&user.Email,
		&user.CreatedAt,
	)
	return user, err
}
