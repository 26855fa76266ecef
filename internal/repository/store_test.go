package repository

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/stretchr/testify/require"

	"github.com/medhealth/vitalcore/internal/model"
)

func newMockStore(t *testing.T) (*Store, sqlmock.Sqlmock) {
	t.Helper()
	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { mockDB.Close() })
	return &Store{DB: sqlx.NewDb(mockDB, "sqlmock")}, mock
}

func TestGetUserByEmailNotFound(t *testing.T) {
	store, mock := newMockStore(t)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, email, password_hash")).
		WithArgs("nobody@example.org").
		WillReturnError(sql.ErrNoRows)

	_, err := store.GetUserByEmail(context.Background(), "nobody@example.org")
	require.ErrorIs(t, err, ErrNotFound)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateUserMapsUniqueViolationToDuplicate(t *testing.T) {
	store, mock := newMockStore(t)
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO users")).
		WillReturnError(&pq.Error{Code: pqUniqueViolation})

	err := store.CreateUser(context.Background(), &model.User{Email: "dup@example.org", Role: model.RoleViewer})
	require.ErrorIs(t, err, ErrDuplicate)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRecordLoginFailurePassesThreshold(t *testing.T) {
	store, mock := newMockStore(t)
	userID := uuid.New()
	mock.ExpectExec(regexp.QuoteMeta("UPDATE users")).
		WithArgs(userID, 5, sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := store.RecordLoginFailure(context.Background(), userID, 5, 15*time.Minute)
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestInsertReadingReturnsAssignedID(t *testing.T) {
	store, mock := newMockStore(t)
	deviceID := uuid.New()
	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO sensor_readings")).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(42)))

	hr := 72
	reading := &model.SensorReading{
		DeviceID:   deviceID,
		HeartRate:  &hr,
		ReadingAt:  time.Now().UTC(),
		ReceivedAt: time.Now().UTC(),
	}
	require.NoError(t, store.InsertReading(context.Background(), reading))
	require.EqualValues(t, 42, reading.ID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestIsTokenRevoked(t *testing.T) {
	store, mock := newMockStore(t)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT EXISTS(SELECT 1 FROM revoked_tokens")).
		WithArgs("jti-1").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))

	revoked, err := store.IsTokenRevoked(context.Background(), "jti-1")
	require.NoError(t, err)
	require.True(t, revoked)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSweepExpiredRevocationsReportsRowCount(t *testing.T) {
	store, mock := newMockStore(t)
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM revoked_tokens")).
		WillReturnResult(sqlmock.NewResult(0, 3))

	n, err := store.SweepExpiredRevocations(context.Background())
	require.NoError(t, err)
	require.EqualValues(t, 3, n)
	require.NoError(t, mock.ExpectationsWereMet())
}
