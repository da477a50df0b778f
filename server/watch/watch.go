// Package watch pushes game snapshots to players over websocket connections.
// The store is polled on the server so that clients do not have to poll it themselves.
package watch

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/jacobpatterson1549/number-race/game"
	"github.com/jacobpatterson1549/number-race/server/log"
)

type (
	// Watcher sends a game to a connection whenever its target or status changes.
	Watcher struct {
		log      log.Logger
		upgrader Upgrader
		store    Store
		Config
	}

	// Config contains fields which describe how often games are read and written.
	Config struct {
		// Debug is a flag that causes the watcher to log when connections are opened and closed.
		Debug bool
		// PollPeriod is how often the game is read from the store.
		PollPeriod time.Duration
		// WriteWait is the amount of time that the connection can take to write a message.
		WriteWait time.Duration
		// PingPeriod is how often ping messages should be sent.
		PingPeriod time.Duration
	}

	// Store reads games.
	Store interface {
		GetGame(ctx context.Context, id game.ID) (*game.Game, error)
	}

	// Upgrader creates connections from http requests.
	Upgrader interface {
		Upgrade(w http.ResponseWriter, r *http.Request) (Conn, error)
	}

	// Conn is the connection a game is written to.
	Conn interface {
		// ReadMessage reads and discards the next message from the connection.
		ReadMessage() error
		// WriteJSON writes the message as json to the connection.
		WriteJSON(v interface{}) error
		// WritePing writes a ping message on the connection.
		WritePing() error
		// WriteClose writes a close message on the connection.  The connection is NOT closed.
		WriteClose(reason string) error
		// SetWriteDeadline sets the time the next write must finish by.
		SetWriteDeadline(t time.Time) error
		// IsNormalClose determines if the error message is not an unexpected close error.
		IsNormalClose(err error) bool
		// Close closes the connection.
		Close() error
	}
)

// NewWatcher creates a Watcher that reads games from the store.
func (cfg Config) NewWatcher(log log.Logger, upgrader Upgrader, store Store) (*Watcher, error) {
	if err := cfg.validate(log, upgrader, store); err != nil {
		return nil, fmt.Errorf("creating watcher: validation: %w", err)
	}
	w := Watcher{
		log:      log,
		upgrader: upgrader,
		store:    store,
		Config:   cfg,
	}
	return &w, nil
}

// validate ensures the configuration has no errors.
func (cfg Config) validate(log log.Logger, upgrader Upgrader, store Store) error {
	switch {
	case log == nil:
		return fmt.Errorf("log required")
	case upgrader == nil:
		return fmt.Errorf("upgrader required")
	case store == nil:
		return fmt.Errorf("store required")
	case cfg.PollPeriod <= 0:
		return fmt.Errorf("positive poll period required")
	case cfg.WriteWait <= 0:
		return fmt.Errorf("positive write wait required")
	case cfg.PingPeriod <= 0:
		return fmt.Errorf("positive ping period required")
	}
	return nil
}

// Watch upgrades the request to a connection and writes the game to it until the game is finished.
// Errors are only returned if the connection could not be created.
// Watch blocks until the connection is closed or the context is done.
func (w *Watcher) Watch(ctx context.Context, rw http.ResponseWriter, r *http.Request, g game.Game) error {
	conn, err := w.upgrader.Upgrade(rw, r)
	if err != nil {
		return fmt.Errorf("upgrading watch of game %v: %w", g.ID, err)
	}
	if w.Debug {
		w.log.Printf("watching game %v", g.ID)
	}
	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()
	go w.readMessages(ctx, conn, cancelFunc)
	closeReason := w.writeGames(ctx, conn, g) // BLOCKING
	cancelFunc()
	conn.Close()
	if w.Debug {
		w.log.Printf("stopped watching game %v: %v", g.ID, closeReason)
	}
	return nil
}

// readMessages discards messages from the connection until it is closed, then cancels the writing.
// Reading is required to process the close and pong messages of the connection.
func (w *Watcher) readMessages(ctx context.Context, conn Conn, cancelFunc context.CancelFunc) {
	defer cancelFunc()
	for { // BLOCKING
		err := conn.ReadMessage()
		if err == nil {
			continue
		}
		if ctx.Err() == nil && !conn.IsNormalClose(err) {
			w.log.Printf("reading watch messages: %v", err)
		}
		return
	}
}

// writeGames writes the game to the connection, then writes it again each time it changes.
// A close message is written when the game finishes, the store cannot be read, or the context is done.
// The reason for closing is returned.
func (w *Watcher) writeGames(ctx context.Context, conn Conn, g game.Game) (closeReason string) {
	pollTicker := time.NewTicker(w.PollPeriod)
	pingTicker := time.NewTicker(w.PingPeriod)
	defer func() {
		conn.SetWriteDeadline(time.Now().Add(w.WriteWait))
		conn.WriteClose(closeReason)
	}()
	defer pollTicker.Stop()
	defer pingTicker.Stop()
	if err := w.writeGame(conn, g); err != nil {
		return err.Error()
	}
	for { // BLOCKING
		if g.Status == game.Finished {
			return "game finished"
		}
		select {
		case <-ctx.Done():
			return "watch stopped"
		case <-pollTicker.C:
			g2, err := w.store.GetGame(ctx, g.ID)
			if err != nil {
				return fmt.Sprintf("reading game: %v", err)
			}
			if !changed(g, *g2) {
				continue
			}
			g = *g2
			if err := w.writeGame(conn, g); err != nil {
				return err.Error()
			}
		case <-pingTicker.C:
			conn.SetWriteDeadline(time.Now().Add(w.WriteWait))
			if err := conn.WritePing(); err != nil {
				return fmt.Sprintf("writing ping: %v", err)
			}
		}
	}
}

// writeGame writes the game to the connection.
func (w *Watcher) writeGame(conn Conn, g game.Game) error {
	conn.SetWriteDeadline(time.Now().Add(w.WriteWait))
	if err := conn.WriteJSON(g); err != nil {
		return fmt.Errorf("writing game: %w", err)
	}
	return nil
}

// changed determines if a client would draw the game differently.
func changed(g1, g2 game.Game) bool {
	return g1.CurrentTarget != g2.CurrentTarget || g1.Status != g2.Status
}
