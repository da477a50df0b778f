package sqlite

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/jacobpatterson1549/number-race/db"
	"github.com/jacobpatterson1549/number-race/db/sql"
	"github.com/jacobpatterson1549/number-race/game"
	"github.com/jacobpatterson1549/number-race/game/store"
	"github.com/jacobpatterson1549/number-race/game/store/storetest"
)

// setupFile is the sql that creates the games table in a new database.
const setupFile = "../../../cmd/server/embed/sql/sqlite/1_games.sql"

func newBackend(t *testing.T) *Backend {
	t.Helper()
	path := filepath.Join(t.TempDir(), "games.db")
	cfg := DatabaseConfig(path, db.Config{QueryPeriod: 10 * time.Second})
	d, err := cfg.NewDatabase()
	if err != nil {
		t.Fatalf("creating database: %v", err)
	}
	t.Cleanup(func() {
		d.Close()
	})
	f, err := os.Open(setupFile)
	if err != nil {
		t.Fatalf("opening setup file: %v", err)
	}
	defer f.Close()
	b := Backend{
		Database: d,
	}
	if err := b.Setup(context.Background(), []io.Reader{f}); err != nil {
		t.Fatalf("setting up database: %v", err)
	}
	return &b
}

func TestBackend(t *testing.T) {
	storetest.RunBackendTests(t, func(t *testing.T) store.Backend {
		return newBackend(t)
	})
}

func TestDatabaseConfig(t *testing.T) {
	cfg := DatabaseConfig("/tmp/games.db", db.Config{QueryPeriod: time.Second})
	switch {
	case cfg.DriverName != "sqlite":
		t.Errorf("wanted sqlite driver, got %q", cfg.DriverName)
	case cfg.MaxOpenConns != 1:
		t.Errorf("wanted a single connection, got %v", cfg.MaxOpenConns)
	case !strings.HasPrefix(cfg.DatabaseURL, "file:/tmp/games.db?"):
		t.Errorf("wanted file url, got %q", cfg.DatabaseURL)
	case !strings.Contains(cfg.DatabaseURL, "busy_timeout"):
		t.Errorf("wanted busy timeout pragma in %q", cfg.DatabaseURL)
	}
}

func TestBackendCreateDuplicate(t *testing.T) {
	b := newBackend(t)
	ctx := context.Background()
	g := storetest.NewGame("g1", "alice", 1)
	if err := b.Create(ctx, g); err != nil {
		t.Fatalf("unwanted error: %v", err)
	}
	if err := b.Create(ctx, g); err == nil {
		t.Errorf("wanted error creating game with same id")
	}
}

func TestBackendClaimSparseTakenBy(t *testing.T) {
	b := newBackend(t)
	ctx := context.Background()
	g := storetest.NewGame("g1", "alice", 1)
	if err := b.Create(ctx, g); err != nil {
		t.Fatalf("unwanted error: %v", err)
	}
	if _, err := b.Join(ctx, "bob"); err != nil {
		t.Fatalf("unwanted error: %v", err)
	}
	for n := game.FirstNumber; n <= 12; n++ {
		if _, err := b.Claim(ctx, g.ID, n, game.Player2); err != nil {
			t.Fatalf("claiming %d: %v", n, err)
		}
	}
	got, err := b.Read(ctx, g.ID)
	switch {
	case err != nil:
		t.Errorf("unwanted error: %v", err)
	case got.TakenBy[10] != game.Player2, got.TakenBy[12] != game.Player2, len(got.TakenBy) != 12:
		t.Errorf("wanted numbers with multiple digits to be recorded, got %v", got.TakenBy)
	}
}

func TestBackendReadCorruptGame(t *testing.T) {
	b := newBackend(t)
	ctx := context.Background()
	g := storetest.NewGame("g1", "alice", 1)
	if err := b.Create(ctx, g); err != nil {
		t.Fatalf("unwanted error: %v", err)
	}
	q := sql.NewStatement("UPDATE games SET p1_score = 5 WHERE id = ?", string(g.ID))
	if err := b.Database.Exec(ctx, q); err != nil {
		t.Fatalf("corrupting game: %v", err)
	}
	if _, err := b.Read(ctx, g.ID); err == nil {
		t.Errorf("wanted error reading game with scores that do not match the taken numbers")
	}
}
