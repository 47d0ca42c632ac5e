package repo

import (
	"errors"
	"fmt"
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	"gorm.io/gorm"

	"github.com/tbourn/skillswap-backend/internal/domain"
)

// newRepoDB opens a migrated file-backed SQLite database in a temp dir.
func newRepoDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := OpenSQLite(filepath.Join(t.TempDir(), "repo.db"))
	if err != nil {
		t.Fatalf("OpenSQLite: %v", err)
	}
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	if err := AutoMigrate(db); err != nil {
		t.Fatalf("AutoMigrate: %v", err)
	}
	return db
}

func seedUsers(t *testing.T, db *gorm.DB, ids ...uint64) {
	t.Helper()
	for _, id := range ids {
		u := &domain.User{ID: id, Username: "user" + itoa(id), Email: "u" + itoa(id) + "@example.com"}
		if err := db.Create(u).Error; err != nil {
			t.Fatalf("seed user %d: %v", id, err)
		}
	}
}

func itoa(n uint64) string { return strconv.FormatUint(n, 10) }

func TestOpenSQLite_MissingParentDir(t *testing.T) {
	bad := filepath.Join(t.TempDir(), "missing", "app.db")
	if db, err := OpenSQLite(bad); err == nil || db != nil {
		t.Fatalf("OpenSQLite(%q) = %v, %v; want error", bad, db, err)
	}
}

func TestSqliteDSN(t *testing.T) {
	const pragmas = "_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)&_pragma=synchronous(NORMAL)&_pragma=foreign_keys(1)"
	cases := []struct{ in, want string }{
		{"app.db", "app.db?" + pragmas},
		{"file:app.db?cache=shared", "file:app.db?cache=shared&" + pragmas},
	}
	for _, tc := range cases {
		if got := sqliteDSN(tc.in); got != tc.want {
			t.Fatalf("sqliteDSN(%q) = %q; want %q", tc.in, got, tc.want)
		}
	}
}

func TestOpenSQLite_PragmasAndPool(t *testing.T) {
	db := newRepoDB(t)

	want := map[string]string{
		"journal_mode": "wal",
		"foreign_keys": "1",
		"busy_timeout": "5000",
		"synchronous":  "1",
	}
	for name, v := range want {
		var got string
		if err := db.Raw(fmt.Sprintf("PRAGMA %s;", name)).Row().Scan(&got); err != nil {
			t.Fatalf("PRAGMA %s: %v", name, err)
		}
		if strings.ToLower(got) != v {
			t.Fatalf("PRAGMA %s = %q; want %q", name, got, v)
		}
	}

	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("db.DB(): %v", err)
	}
	if got := sqlDB.Stats().MaxOpenConnections; got != sqlitePool.open {
		t.Fatalf("MaxOpenConnections = %d; want %d", got, sqlitePool.open)
	}
}

func TestAutoMigrate_CreatesEveryModel(t *testing.T) {
	db := newRepoDB(t)
	m := db.Migrator()
	for _, model := range Models() {
		if !m.HasTable(model) {
			t.Fatalf("missing table for %T", model)
		}
	}
	// running twice is a no-op
	if err := AutoMigrate(db); err != nil {
		t.Fatalf("second AutoMigrate: %v", err)
	}
}

func TestOpen_DriverSelection(t *testing.T) {
	if _, err := Open("mysql", "", ""); err == nil || !strings.Contains(err.Error(), "mysql") {
		t.Fatalf("unsupported driver err = %v", err)
	}
	db, err := Open("", filepath.Join(t.TempDir(), "open.db"), "")
	if err != nil {
		t.Fatalf("Open default driver: %v", err)
	}
	if sqlDB, err := db.DB(); err == nil {
		_ = sqlDB.Close()
	}
}

func TestIsUniqueViolation(t *testing.T) {
	cases := []struct {
		err  error
		want bool
	}{
		{nil, false},
		{fmt.Errorf("create: %w", gorm.ErrDuplicatedKey), true},
		{errors.New("UNIQUE constraint failed: skill_have.user_id, skill_have.skill_id"), true},
		{errors.New(`ERROR: duplicate key value violates unique constraint "ux_requests_active"`), true},
		{errors.New("disk I/O error"), false},
	}
	for _, tc := range cases {
		if got := isUniqueViolation(tc.err); got != tc.want {
			t.Fatalf("isUniqueViolation(%v) = %v; want %v", tc.err, got, tc.want)
		}
	}
}
