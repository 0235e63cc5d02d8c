package postgres

import (
	"context"
	"database/sql"
	"errors"
	"io/fs"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/Layr-Labs/factory-event-indexer/pkg/eventLedger"
)

var (
	existsQuery = regexp.QuoteMeta("SELECT EXISTS(") + `\s+SELECT 1 FROM event_ledger`
	insertQuery = regexp.QuoteMeta("INSERT INTO event_ledger")
)

func newMockLedger(t *testing.T) (*PostgresEventLedger, sqlmock.Sqlmock) {
	t.Helper()
	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { sqlDB.Close() })
	return NewPostgresEventLedger(NewDB(sqlDB, zap.NewNop()), zap.NewNop()), mock
}

func testKey() eventLedger.EventKey {
	return eventLedger.EventKey{
		Contract:        "factory",
		ChainType:       "sepolia",
		TransactionHash: "0xab",
		LogIndex:        2,
		BlockNumber:     501,
	}
}

func TestAdmitIfNew_InsertsNewKey(t *testing.T) {
	ledger, mock := newMockLedger(t)

	mock.ExpectQuery(existsQuery).
		WithArgs("factory", "sepolia", "0xab", int64(2), int64(501)).
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))
	mock.ExpectExec(insertQuery).
		WithArgs(sqlmock.AnyArg(), "factory", "sepolia", "0xab", int64(2), int64(501)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	admitted, err := ledger.AdmitIfNew(context.Background(), testKey())
	require.NoError(t, err)
	assert.True(t, admitted)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAdmitIfNew_ExistingKeySkipsInsert(t *testing.T) {
	ledger, mock := newMockLedger(t)

	mock.ExpectQuery(existsQuery).
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))

	admitted, err := ledger.AdmitIfNew(context.Background(), testKey())
	require.NoError(t, err)
	assert.False(t, admitted)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAdmitIfNew_UniqueViolationIsDuplicate(t *testing.T) {
	ledger, mock := newMockLedger(t)

	mock.ExpectQuery(existsQuery).
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))
	mock.ExpectExec(insertQuery).
		WillReturnError(&pq.Error{Code: "23505", Message: "duplicate key value violates unique constraint"})

	admitted, err := ledger.AdmitIfNew(context.Background(), testKey())
	require.NoError(t, err)
	assert.False(t, admitted)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAdmitIfNew_StorageErrors(t *testing.T) {
	t.Run("lookup", func(t *testing.T) {
		ledger, mock := newMockLedger(t)
		mock.ExpectQuery(existsQuery).WillReturnError(errors.New("connection reset"))

		_, err := ledger.AdmitIfNew(context.Background(), testKey())
		assert.ErrorContains(t, err, "lookup event")
	})

	t.Run("insert", func(t *testing.T) {
		ledger, mock := newMockLedger(t)
		mock.ExpectQuery(existsQuery).
			WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))
		mock.ExpectExec(insertQuery).
			WillReturnError(&pq.Error{Code: "23502", Message: "null value in column"})

		_, err := ledger.AdmitIfNew(context.Background(), testKey())
		require.Error(t, err)
		var pqErr *pq.Error
		assert.True(t, errors.As(err, &pqErr))
	})
}

func TestAdmitIfNew_OutOfRangeKey(t *testing.T) {
	ledger, mock := newMockLedger(t)
	key := testKey()
	key.BlockNumber = 1 << 63

	_, err := ledger.AdmitIfNew(context.Background(), key)
	assert.Error(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresEventLedger_Close(t *testing.T) {
	ledger, mock := newMockLedger(t)
	mock.ExpectClose()

	require.NoError(t, ledger.Close())
	assert.ErrorIs(t, ledger.Close(), eventLedger.ErrLedgerClosed)

	_, err := ledger.AdmitIfNew(context.Background(), testKey())
	assert.ErrorIs(t, err, eventLedger.ErrLedgerClosed)
}

func TestEmbeddedMigrationsSource(t *testing.T) {
	src, err := iofs.New(migrationsFS, "migrations")
	require.NoError(t, err)
	// nolint:errcheck
	defer src.Close()

	first, err := src.First()
	require.NoError(t, err)
	assert.Equal(t, uint(1), first)

	body, identifier, err := src.ReadUp(first)
	require.NoError(t, err)
	// nolint:errcheck
	defer body.Close()
	assert.Equal(t, "event_ledger", identifier)

	_, err = src.Next(first)
	assert.ErrorIs(t, err, fs.ErrNotExist)
}

func TestRunMigrations_ConnectionFailure(t *testing.T) {
	sqlDB, err := sql.Open("postgres", "postgres://nobody@127.0.0.1:1/none?sslmode=disable&connect_timeout=1")
	require.NoError(t, err)
	// nolint:errcheck
	defer sqlDB.Close()

	err = NewDB(sqlDB, zap.NewNop()).RunMigrations(context.Background())
	assert.ErrorContains(t, err, "acquire migration connection")
}

func TestMigrateLogger_VerboseFollowsLevel(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	l := &migrateLogger{logger: zap.New(core)}
	assert.True(t, l.Verbose())
	l.Printf("Start buffering %v/u %v\n", 1, "event_ledger")
	require.Equal(t, 1, logs.Len())
	assert.Equal(t, "Start buffering 1/u event_ledger", logs.All()[0].Message)

	assert.False(t, (&migrateLogger{logger: zap.NewNop()}).Verbose())
}

func TestEmbeddedMigrationDeclaresUniqueKey(t *testing.T) {
	content, err := migrationsFS.ReadFile("migrations/001_event_ledger.up.sql")
	require.NoError(t, err)
	assert.Contains(t, string(content), "UNIQUE (contract, chain_type, transaction_hash, log_index, block_number)")
}
