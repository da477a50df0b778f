package main

import (
	"context"
	"fmt"
	"io"
	"io/fs"
	"log"
	"math/rand"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jacobpatterson1549/number-race/db"
	"github.com/jacobpatterson1549/number-race/db/firestore"
	"github.com/jacobpatterson1549/number-race/db/memory"
	"github.com/jacobpatterson1549/number-race/db/mongo"
	"github.com/jacobpatterson1549/number-race/db/redis"
	"github.com/jacobpatterson1549/number-race/db/sql"
	"github.com/jacobpatterson1549/number-race/db/sql/postgres"
	"github.com/jacobpatterson1549/number-race/db/sql/sqlite"
	"github.com/jacobpatterson1549/number-race/game"
	"github.com/jacobpatterson1549/number-race/game/store"
	"github.com/jacobpatterson1549/number-race/server"
	"github.com/jacobpatterson1549/number-race/server/auth"
	"github.com/jacobpatterson1549/number-race/server/watch"
	"github.com/jacobpatterson1549/number-race/server/watch/gorilla"
	_ "github.com/lib/pq" // register "postgres" database driver from package init() function
)

const tokenizerKeyLength = 64

var versionRE = regexp.MustCompile(`^[0-9A-Za-z._-]+$`)

// createBackend creates the backend to store games in.  The scheme of the data source determines the kind of database.
func (m mainFlags) createBackend(ctx context.Context, embedFS fs.FS) (store.Backend, error) {
	cfg := db.Config{
		QueryPeriod: 5 * time.Second,
	}
	if len(m.databaseURL) == 0 {
		return memory.NewBackend(), nil
	}
	scheme, rest, ok := strings.Cut(m.databaseURL, "://")
	if !ok {
		return sqliteBackend(ctx, cfg, m.databaseURL, embedFS)
	}
	switch scheme {
	case "postgres", "postgresql":
		return postgresBackend(ctx, cfg, m.databaseURL, embedFS)
	case "mongodb", "mongodb+srv":
		b, err := mongo.NewBackend(ctx, cfg, m.databaseURL)
		if err != nil {
			return nil, err
		}
		if err := b.Setup(ctx); err != nil {
			return nil, fmt.Errorf("setting up mongo backend: %w", err)
		}
		return b, nil
	case "redis", "rediss":
		b, err := redis.NewBackend(cfg, m.databaseURL)
		if err != nil {
			return nil, err
		}
		return b, nil
	case "firestore":
		if len(rest) == 0 {
			return nil, fmt.Errorf("firestore project id required")
		}
		b, err := firestore.NewBackend(ctx, cfg, rest)
		if err != nil {
			return nil, err
		}
		return b, nil
	}
	return nil, fmt.Errorf("unknown data source scheme: %q", scheme)
}

// postgresBackend creates a backend on the Postgres server, creating the games table and functions.
func postgresBackend(ctx context.Context, cfg db.Config, databaseURL string, embedFS fs.FS) (store.Backend, error) {
	dbCfg := sql.DatabaseConfig{
		DriverName:  "postgres",
		DatabaseURL: databaseURL,
		Config:      cfg,
	}
	d, err := dbCfg.NewDatabase()
	if err != nil {
		return nil, fmt.Errorf("creating postgres database: %w", err)
	}
	b := postgres.Backend{
		Database: d,
	}
	if err := setupSQL(ctx, d, embedFS, "postgres"); err != nil {
		return nil, err
	}
	return &b, nil
}

// sqliteBackend creates a backend in the SQLite database file, creating the games table.
func sqliteBackend(ctx context.Context, cfg db.Config, path string, embedFS fs.FS) (store.Backend, error) {
	dbCfg := sqlite.DatabaseConfig(path, cfg)
	d, err := dbCfg.NewDatabase()
	if err != nil {
		return nil, fmt.Errorf("creating sqlite database: %w", err)
	}
	b := sqlite.Backend{
		Database: d,
	}
	if err := setupSQL(ctx, d, embedFS, sqlite.DriverName); err != nil {
		return nil, err
	}
	return &b, nil
}

// setupSQL runs the embedded setup files for the driver on the database.
func setupSQL(ctx context.Context, d *sql.Database, embedFS fs.FS, driverName string) error {
	files, err := sqlFiles(embedFS, driverName)
	if err != nil {
		return err
	}
	if err := d.Setup(ctx, files); err != nil {
		return fmt.Errorf("setting up %v database: %w", driverName, err)
	}
	return nil
}

// createServer creates the server that lets players join, claim numbers in, and watch games stored in the backend.
func (m mainFlags) createServer(log *log.Logger, backend store.Backend, keyReader io.Reader, version string) (*server.Server, error) {
	timeFunc := func() int64 {
		return time.Now().UTC().Unix()
	}
	storeCfg := storeConfig(m, timeFunc)
	s, err := storeCfg.NewStore(log, backend)
	if err != nil {
		return nil, err
	}
	tokenizerCfg := tokenizerConfig(timeFunc)
	key, err := tokenizerKey(keyReader)
	if err != nil {
		return nil, err
	}
	tokenizer, err := tokenizerCfg.NewTokenizer(key)
	if err != nil {
		return nil, fmt.Errorf("creating authentication tokenizer: %w", err)
	}
	watcherCfg := watcherConfig(m)
	upgrader := gorilla.NewUpgrader()
	watcher, err := watcherCfg.NewWatcher(log, upgrader, s)
	if err != nil {
		return nil, err
	}
	v, err := cleanVersion(version)
	if err != nil {
		return nil, fmt.Errorf("reading build version: %w", err)
	}
	cfg := serverConfig(m, v)
	p := server.Parameters{
		Logger:          log,
		Store:           s,
		Tokenizer:       tokenizer,
		Watcher:         watcher,
		PasswordChecker: auth.NewPasswordHandler(),
	}
	return cfg.NewServer(p)
}

// storeConfig creates the configuration for creating and changing games.
func storeConfig(m mainFlags, timeFunc func() int64) store.Config {
	cfg := store.Config{
		Debug: m.debugGame,
		IDFunc: func() game.ID {
			return game.ID(uuid.NewString())
		},
		TimeFunc: timeFunc,
		LayoutFunc: func() []game.Position {
			return game.RandomLayout(rand.Intn)
		},
	}
	return cfg
}

// tokenizerConfig creates the configuration for authentication token reader/writer.
func tokenizerConfig(timeFunc func() int64) auth.TokenizerConfig {
	var tokenValidDurationSec int64 = int64((24 * time.Hour).Seconds()) // 1 day
	cfg := auth.TokenizerConfig{
		TimeFunc: timeFunc,
		ValidSec: tokenValidDurationSec,
	}
	return cfg
}

// tokenizerKey reads a new key to sign tokens with.
func tokenizerKey(keyReader io.Reader) ([]byte, error) {
	key := make([]byte, tokenizerKeyLength)
	if _, err := io.ReadFull(keyReader, key); err != nil {
		return nil, fmt.Errorf("generating tokenizer key: %w", err)
	}
	return key, nil
}

// watcherConfig creates the configuration for writing games to websockets.
func watcherConfig(m mainFlags) watch.Config {
	cfg := watch.Config{
		Debug:      m.debugGame,
		PollPeriod: time.Duration(m.pollPeriodMs) * time.Millisecond,
		WriteWait:  10 * time.Second,
		PingPeriod: 54 * time.Second,
	}
	return cfg
}

// serverConfig creates the configuration for the http server.
func serverConfig(m mainFlags, version string) server.Config {
	c := server.Challenge{
		Token: m.challengeToken,
		Key:   m.challengeKey,
	}
	cfg := server.Config{
		HTTPPort:            m.httpPort,
		HTTPSPort:           m.httpsPort,
		StopDur:             time.Second,
		Version:             version,
		TLSCertFile:         m.tlsCertFile,
		TLSKeyFile:          m.tlsKeyFile,
		Challenge:           c,
		NoTLSRedirect:       m.noTLSRedirect,
		RequireToken:        m.requireToken,
		MonitorPasswordHash: m.monitorPasswordHash,
	}
	return cfg
}

// cleanVersion returns the version, without surrounding whitespace.
// The version must be a single word.
func cleanVersion(v string) (string, error) {
	v = strings.TrimSpace(v)
	if !versionRE.MatchString(v) {
		return "", fmt.Errorf("invalid version: %q", v)
	}
	return v, nil
}
