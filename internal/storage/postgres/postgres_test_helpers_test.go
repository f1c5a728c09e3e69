package postgres

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
)

// Tables are listed children first so TRUNCATE never trips a foreign key.
var domainTables = []string{"registrations", "events", "users"}

// testDB is one Postgres container shared by every test in the package.
type testDB struct {
	once      sync.Once
	err       error
	container *postgres.PostgresContainer
	pool      *pgxpool.Pool
}

var shared testDB

func TestMain(m *testing.M) {
	code := m.Run()
	if shared.pool != nil {
		shared.pool.Close()
	}
	// The container is left for reuse by name across runs.
	os.Exit(code)
}

// setupPostgres returns a migrated pool with every domain table emptied and
// identities restarted, so ids in a test start at 1.
func setupPostgres(t *testing.T, ctx context.Context) *pgxpool.Pool {
	t.Helper()
	if testing.Short() {
		t.Skip("postgres integration tests need docker; skipped with -short")
	}

	shared.once.Do(shared.start)
	require.NoError(t, shared.err, "start postgres container")

	truncateCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()
	_, err := shared.pool.Exec(truncateCtx,
		"TRUNCATE TABLE "+strings.Join(domainTables, ", ")+" RESTART IDENTITY CASCADE")
	require.NoError(t, err, "reset tables")
	return shared.pool
}

func (db *testDB) start() {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	_ = os.Setenv("TESTCONTAINERS_RYUK_DISABLED", "true")

	db.container, db.err = postgres.Run(ctx, "postgres:16-alpine",
		postgres.WithDatabase("campus"),
		postgres.WithUsername("campus"),
		postgres.WithPassword("campus_dev"),
		testcontainers.WithReuseByName("campus-storage-db"),
	)
	if db.err != nil {
		return
	}

	dsn, err := db.container.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		db.err = fmt.Errorf("connection string: %w", err)
		return
	}

	migrations := filepath.Join(repoRoot(), DefaultMigrationsPath)
	for attempt := 1; ; attempt++ {
		err = MigrateUp(dsn, migrations)
		if err == nil || attempt == 10 {
			break
		}
		time.Sleep(time.Second)
	}
	if err != nil {
		db.err = fmt.Errorf("migrate: %w", err)
		return
	}

	// Enough connections for the concurrent registration tests.
	db.pool, db.err = Connect(ctx, dsn, 40)
}

func repoRoot() string {
	_, file, _, ok := runtime.Caller(0)
	if !ok {
		return "."
	}
	return filepath.Join(filepath.Dir(file), "..", "..", "..")
}

func insertUser(t *testing.T, ctx context.Context, pool *pgxpool.Pool, username, role, college, studentID string) int64 {
	t.Helper()
	var id int64
	err := pool.QueryRow(ctx,
		`INSERT INTO users (username, name, role, college, student_id) VALUES ($1, $2, $3, $4, $5) RETURNING id`,
		username, strings.ToUpper(username[:1])+username[1:], role, college, studentID,
	).Scan(&id)
	require.NoError(t, err)
	return id
}

// insertEvent writes a two hour event on 2025-12-25 straight into the table,
// bypassing the service so tests can seed any status combination.
func insertEvent(t *testing.T, ctx context.Context, pool *pgxpool.Pool, title string, creatorID int64, capacity int, status int, reviewStatus string) int64 {
	t.Helper()
	start := time.Date(2025, 12, 25, 9, 0, 0, 0, time.UTC)
	var id int64
	err := pool.QueryRow(ctx,
		`INSERT INTO events (title, place, start_time, end_time, capacity, status, review_status, creator_id)
         VALUES ($1, 'Main Hall', $2, $3, $4, $5, $6, $7)
         RETURNING id`,
		title, start, start.Add(2*time.Hour), capacity, status, reviewStatus, creatorID,
	).Scan(&id)
	require.NoError(t, err)
	return id
}
