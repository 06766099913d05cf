package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"catalance/internal/entity"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func newUserRepoWithMock(t *testing.T) (UserRepository, sqlmock.Sqlmock) {
	t.Helper()
	sqlDB, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlDB.Close() })

	db, err := gorm.Open(postgres.New(postgres.Config{Conn: sqlDB}), &gorm.Config{
		SkipDefaultTransaction: true,
		TranslateError:         true,
	})
	require.NoError(t, err)
	return NewUserRepository(db), mock
}

func userColumns() []string {
	return []string{"id", "email", "full_name", "password_hash", "role", "created_at", "updated_at"}
}

func TestUserRepository_Create(t *testing.T) {
	repo, mock := newUserRepoWithMock(t)
	id := uuid.New()

	mock.ExpectQuery(`INSERT INTO "users" .* RETURNING "id"`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(id.String()))

	user := &entity.User{Email: "a@b.com", PasswordHash: "hash", Role: entity.UserRoleClient}
	require.NoError(t, repo.Create(context.Background(), user))
	assert.Equal(t, id, user.ID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepository_Create_DuplicateEmail(t *testing.T) {
	repo, mock := newUserRepoWithMock(t)

	mock.ExpectQuery(`INSERT INTO "users"`).
		WillReturnError(&pgconn.PgError{Code: "23505", ConstraintName: "users_email_key"})

	err := repo.Create(context.Background(), &entity.User{Email: "a@b.com", PasswordHash: "hash"})
	assert.ErrorIs(t, err, ErrDuplicateEmail)
}

func TestUserRepository_Create_DBError(t *testing.T) {
	repo, mock := newUserRepoWithMock(t)

	mock.ExpectQuery(`INSERT INTO "users"`).WillReturnError(errors.New("db down"))

	err := repo.Create(context.Background(), &entity.User{Email: "a@b.com", PasswordHash: "hash"})
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrDuplicateEmail)
	assert.Contains(t, err.Error(), "create user: db down")
}

func TestUserRepository_FindByEmail(t *testing.T) {
	repo, mock := newUserRepoWithMock(t)
	id := uuid.New()
	now := time.Now()

	mock.ExpectQuery(`SELECT \* FROM "users" WHERE email = \$1`).
		WillReturnRows(sqlmock.NewRows(userColumns()).
			AddRow(id.String(), "a@b.com", "Ann", "hash", "FREELANCER", now, now))

	user, err := repo.FindByEmail(context.Background(), "a@b.com")
	require.NoError(t, err)
	require.NotNil(t, user)
	assert.Equal(t, id, user.ID)
	assert.Equal(t, "hash", user.PasswordHash)
	assert.Equal(t, entity.UserRoleFreelancer, user.Role)
}

func TestUserRepository_FindByEmail_NotFound(t *testing.T) {
	repo, mock := newUserRepoWithMock(t)

	mock.ExpectQuery(`SELECT \* FROM "users" WHERE email = \$1`).
		WillReturnRows(sqlmock.NewRows(userColumns()))

	user, err := repo.FindByEmail(context.Background(), "ghost@b.com")
	require.NoError(t, err)
	assert.Nil(t, user)
}

func TestUserRepository_FindByID_DBError(t *testing.T) {
	repo, mock := newUserRepoWithMock(t)

	mock.ExpectQuery(`SELECT \* FROM "users" WHERE id = \$1`).WillReturnError(errors.New("db down"))

	user, err := repo.FindByID(context.Background(), uuid.New())
	assert.Nil(t, user)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "find user: db down")
}

func TestUserRepository_FindByResetToken(t *testing.T) {
	repo, mock := newUserRepoWithMock(t)
	now := time.Now()

	mock.ExpectQuery(`SELECT \* FROM "users" WHERE reset_password_token = \$1`).
		WillReturnRows(sqlmock.NewRows(append(userColumns(), "reset_password_token", "reset_password_expires")).
			AddRow(uuid.NewString(), "a@b.com", "Ann", "hash", "CLIENT", now, now, "digest", now.Add(time.Hour)))

	user, err := repo.FindByResetToken(context.Background(), "digest")
	require.NoError(t, err)
	require.NotNil(t, user)
	require.NotNil(t, user.ResetPasswordToken)
	assert.Equal(t, "digest", *user.ResetPasswordToken)
	assert.True(t, user.ResetTokenActive(now))
}

func TestUserRepository_UpdatePasswordHash(t *testing.T) {
	repo, mock := newUserRepoWithMock(t)

	mock.ExpectExec(`UPDATE "users" SET "password_hash"=\$1,"updated_at"=\$2 WHERE id = \$3`).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.UpdatePasswordHash(context.Background(), uuid.New(), "new-hash"))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepository_SetResetToken(t *testing.T) {
	repo, mock := newUserRepoWithMock(t)

	mock.ExpectExec(`UPDATE "users" SET "reset_password_expires"=\$1,"reset_password_token"=\$2,"updated_at"=\$3 WHERE id = \$4`).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.SetResetToken(context.Background(), uuid.New(), "digest", time.Now().Add(time.Hour))
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepository_ConsumeResetToken(t *testing.T) {
	repo, mock := newUserRepoWithMock(t)

	mock.ExpectExec(`UPDATE "users" SET "password_hash"=\$1,"reset_password_expires"=\$2,"reset_password_token"=\$3,"updated_at"=\$4 WHERE id = \$5 AND reset_password_token = \$6`).
		WillReturnResult(sqlmock.NewResult(0, 1))

	ok, err := repo.ConsumeResetToken(context.Background(), uuid.New(), "digest", "new-hash")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestUserRepository_ConsumeResetToken_AlreadyUsed(t *testing.T) {
	repo, mock := newUserRepoWithMock(t)

	mock.ExpectExec(`UPDATE "users" SET .* WHERE id = \$5 AND reset_password_token = \$6`).
		WillReturnResult(sqlmock.NewResult(0, 0))

	ok, err := repo.ConsumeResetToken(context.Background(), uuid.New(), "digest", "new-hash")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestUserRepository_List_FilterByRole(t *testing.T) {
	repo, mock := newUserRepoWithMock(t)
	now := time.Now()
	role := entity.UserRoleClient

	mock.ExpectQuery(`SELECT \* FROM "users" WHERE role = \$1 ORDER BY created_at DESC`).
		WillReturnRows(sqlmock.NewRows(userColumns()).
			AddRow(uuid.NewString(), "new@b.com", "New", "h", "CLIENT", now, now).
			AddRow(uuid.NewString(), "old@b.com", "Old", "h", "CLIENT", now.Add(-time.Hour), now))

	users, err := repo.List(context.Background(), UserFilter{Role: &role})
	require.NoError(t, err)
	require.Len(t, users, 2)
	assert.Equal(t, "new@b.com", users[0].Email)
}

func TestUserRepository_List_All(t *testing.T) {
	repo, mock := newUserRepoWithMock(t)

	mock.ExpectQuery(`SELECT \* FROM "users" ORDER BY created_at DESC`).
		WillReturnRows(sqlmock.NewRows(userColumns()))

	users, err := repo.List(context.Background(), UserFilter{})
	require.NoError(t, err)
	assert.Empty(t, users)
}

func TestUserRepository_ClearExpiredResetTokens(t *testing.T) {
	repo, mock := newUserRepoWithMock(t)

	mock.ExpectExec(`UPDATE "users" SET .* WHERE reset_password_expires IS NOT NULL AND reset_password_expires <= \$\d+`).
		WillReturnResult(sqlmock.NewResult(0, 3))

	cleared, err := repo.ClearExpiredResetTokens(context.Background(), time.Now())
	require.NoError(t, err)
	assert.EqualValues(t, 3, cleared)
}
