package postgres

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/projectfocus/focus-api/internal/domain/entity"
	"github.com/projectfocus/focus-api/internal/domain/repository"
)

type fakeRow struct {
	values []any
	err    error
}

func (r fakeRow) Scan(dest ...any) error {
	if r.err != nil {
		return r.err
	}
	for i, d := range dest {
		switch p := d.(type) {
		case *string:
			*p = r.values[i].(string)
		case *time.Time:
			*p = r.values[i].(time.Time)
		default:
			return errors.New("unsupported scan target")
		}
	}
	return nil
}

type fakeQuerier struct {
	row     fakeRow
	gotSQL  string
	gotArgs []any
}

func (q *fakeQuerier) QueryRow(_ context.Context, sql string, args ...any) pgx.Row {
	q.gotSQL = sql
	q.gotArgs = args
	return q.row
}

func TestCreate_Success(t *testing.T) {
	created := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	q := &fakeQuerier{row: fakeRow{values: []any{"u-1", created}}}
	repo := NewUserRepository(q)

	u := &entity.User{Name: "Ana", Email: " Ana@X.com", PasswordHash: "hash"}
	require.NoError(t, repo.Create(context.Background(), u))

	assert.Equal(t, "u-1", u.ID)
	assert.Equal(t, created, u.CreatedAt)
	assert.Equal(t, "ana@x.com", u.Email)
	assert.Equal(t, []any{"Ana", "ana@x.com", "hash"}, q.gotArgs)
	assert.Regexp(t, regexp.MustCompile(`(?s)INSERT\s+INTO\s+users.*RETURNING\s+id,\s*created_at`), q.gotSQL)
}

func TestCreate_UniqueViolation(t *testing.T) {
	q := &fakeQuerier{row: fakeRow{err: &pgconn.PgError{Code: "23505", ConstraintName: "users_email_lower_key"}}}
	repo := NewUserRepository(q)

	err := repo.Create(context.Background(), &entity.User{Name: "Ana", Email: "ana@x.com", PasswordHash: "h"})
	assert.ErrorIs(t, err, repository.ErrDuplicateEmail)
}

func TestCreate_DBError(t *testing.T) {
	q := &fakeQuerier{row: fakeRow{err: errors.New("db down")}}
	repo := NewUserRepository(q)

	err := repo.Create(context.Background(), &entity.User{Name: "Ana", Email: "ana@x.com", PasswordHash: "h"})
	require.Error(t, err)
	assert.Regexp(t, `db error: .*db down`, err.Error())
	assert.NotErrorIs(t, err, repository.ErrDuplicateEmail)
}

func TestFindByEmail_NormalizesInput(t *testing.T) {
	created := time.Now().UTC()
	q := &fakeQuerier{row: fakeRow{values: []any{"u-1", "Ana", "ana@x.com", "hash", created}}}
	repo := NewUserRepository(q)

	u, err := repo.FindByEmail(context.Background(), "ANA@x.com ")
	require.NoError(t, err)
	assert.Equal(t, "Ana", u.Name)
	assert.Equal(t, []any{"ana@x.com"}, q.gotArgs)
	assert.Contains(t, q.gotSQL, "lower(email) = $1")
}

func TestFindByEmail_NotFound(t *testing.T) {
	repo := NewUserRepository(&fakeQuerier{row: fakeRow{err: pgx.ErrNoRows}})

	_, err := repo.FindByEmail(context.Background(), "ghost@x.com")
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestFindByID_MalformedUUID(t *testing.T) {
	repo := NewUserRepository(&fakeQuerier{row: fakeRow{err: &pgconn.PgError{Code: "22P02"}}})

	_, err := repo.FindByID(context.Background(), "not-a-uuid")
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestFindByID_DBError(t *testing.T) {
	repo := NewUserRepository(&fakeQuerier{row: fakeRow{err: context.DeadlineExceeded}})

	_, err := repo.FindByID(context.Background(), "u-1")
	require.Error(t, err)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestFindByEmail_TimeoutIsUnavailable(t *testing.T) {
	repo := NewUserRepository(&fakeQuerier{row: fakeRow{err: context.DeadlineExceeded}})

	_, err := repo.FindByEmail(context.Background(), "ana@x.com")
	assert.ErrorIs(t, err, repository.ErrUnavailable)
}

func TestCreate_PlainErrorIsNotUnavailable(t *testing.T) {
	repo := NewUserRepository(&fakeQuerier{row: fakeRow{err: errors.New("syntax error")}})

	err := repo.Create(context.Background(), &entity.User{Name: "Ana", Email: "ana@x.com", PasswordHash: "h"})
	assert.NotErrorIs(t, err, repository.ErrUnavailable)
}
