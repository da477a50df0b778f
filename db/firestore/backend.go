// Package firestore uses a google cloud firestore database to store games.
package firestore

import (
	"context"
	"fmt"

	"cloud.google.com/go/firestore"
	"github.com/jacobpatterson1549/number-race/db"
	"github.com/jacobpatterson1549/number-race/game"
)

const (
	serviceName    = "number-race"
	statusField    = "status"
	player2IDField = "player2Id"
	createdField   = "created"
)

type (
	// Backend is a game store backend for a games collection.
	Backend struct {
		client *firestore.Client
		// service is the document that contains the games collection.
		service string
		db.Config
	}

	// gameDocument is how a game is stored in the collection.
	gameDocument struct {
		Status        string               `firestore:"status"`
		Player1ID     string               `firestore:"player1Id"`
		Player2ID     string               `firestore:"player2Id"`
		CurrentTarget int                  `firestore:"currentTarget"`
		Positions     []game.Position      `firestore:"positions"`
		TakenBy       map[string]game.Role `firestore:"takenBy"`
		P1Score       int                  `firestore:"p1Score"`
		P2Score       int                  `firestore:"p2Score"`
		Created       int64                `firestore:"created"`
	}
)

// NewBackend creates a backend for the games of the project.
func NewBackend(ctx context.Context, cfg db.Config, projectID string) (*Backend, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("creating firestore backend: validation: %w", err)
	}
	client, err := firestore.NewClient(ctx, projectID) // do not timeout context - the client is used by the backend
	if err != nil {
		return nil, fmt.Errorf("creating firestore client: %w", err)
	}
	b := Backend{
		client:  client,
		service: serviceName,
		Config:  cfg,
	}
	return &b, nil
}

func (b *Backend) gamesCollection() *firestore.CollectionRef {
	return b.client.Collection("services").Doc(b.service).Collection("games")
}

// Create adds the game.
func (b *Backend) Create(ctx context.Context, g game.Game) error {
	if err := b.WithTimeout(ctx, func(ctx context.Context) error {
		docRef := b.gamesCollection().Doc(string(g.ID))
		_, err := docRef.Create(ctx, newGameDocument(g)) // returns an error if the game already exists
		return err
	}); err != nil {
		return fmt.Errorf("creating game: %w", err)
	}
	return nil
}

// Join adds the player to the oldest waiting game in a transaction.
func (b *Backend) Join(ctx context.Context, playerID string) (*game.Game, error) {
	var g2 *game.Game
	if err := b.WithTimeout(ctx, func(ctx context.Context) error {
		q := b.gamesCollection().
			Where(statusField, "==", string(game.Waiting)).
			OrderBy(createdField, firestore.Asc).
			Limit(1)
		return b.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
			snapshots, err := tx.Documents(q).GetAll()
			if err != nil {
				return err
			}
			if len(snapshots) == 0 {
				return game.ErrNoWaitingGame
			}
			snapshot := snapshots[0]
			g, err := decodeGame(snapshot)
			if err != nil {
				return err
			}
			if g2, err = g.Join(playerID); err != nil {
				return err
			}
			updates := []firestore.Update{
				{
					Path:  player2IDField,
					Value: g2.Player2ID,
				},
				{
					Path:  statusField,
					Value: string(g2.Status),
				},
			}
			return tx.Update(snapshot.Ref, updates)
		})
	}); err != nil {
		return nil, fmt.Errorf("joining game: %w", err)
	}
	return g2, nil
}

// Read gets the game.
func (b *Backend) Read(ctx context.Context, id game.ID) (*game.Game, error) {
	var g *game.Game
	if err := b.WithTimeout(ctx, func(ctx context.Context) error {
		docRef := b.gamesCollection().Doc(string(id))
		snapshot, err := docRef.Get(ctx)
		if err != nil {
			if snapshot != nil && !snapshot.Exists() {
				return game.ErrNotFound
			}
			return err
		}
		g, err = decodeGame(snapshot)
		return err
	}); err != nil {
		return nil, fmt.Errorf("reading game: %w", err)
	}
	return g, nil
}

// Claim updates the game in a transaction only if the number is the current target of the playing game.
func (b *Backend) Claim(ctx context.Context, id game.ID, number int, role game.Role) (*game.Game, error) {
	var g2 *game.Game
	if err := b.WithTimeout(ctx, func(ctx context.Context) error {
		docRef := b.gamesCollection().Doc(string(id))
		return b.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
			snapshot, err := tx.Get(docRef)
			if err != nil {
				if snapshot != nil && !snapshot.Exists() {
					return game.ErrNotFound
				}
				return err
			}
			g, err := decodeGame(snapshot)
			if err != nil {
				return err
			}
			if g2, err = g.Claim(number, role); err != nil {
				return err
			}
			return tx.Set(docRef, newGameDocument(*g2))
		})
	}); err != nil {
		return nil, fmt.Errorf("claiming number: %w", err)
	}
	return g2, nil
}

// Close closes the connection to the database.
func (b *Backend) Close() error {
	return b.client.Close()
}

// decodeGame reads the game from the snapshot.
func decodeGame(snapshot *firestore.DocumentSnapshot) (*game.Game, error) {
	var document gameDocument
	if err := snapshot.DataTo(&document); err != nil {
		return nil, err
	}
	g, err := document.game(game.ID(snapshot.Ref.ID))
	if err != nil {
		return nil, err
	}
	if err := g.Validate(); err != nil {
		return nil, fmt.Errorf("corrupt game %v: %w", g.ID, err)
	}
	return g, nil
}

// newGameDocument converts the game to a document.  The id of the game is the id of the document.
func newGameDocument(g game.Game) gameDocument {
	document := gameDocument{
		Status:        string(g.Status),
		Player1ID:     g.Player1ID,
		Player2ID:     g.Player2ID,
		CurrentTarget: g.CurrentTarget,
		Positions:     g.Positions,
		TakenBy:       db.EncodeTakenBy(g.TakenBy),
		P1Score:       g.P1Score,
		P2Score:       g.P2Score,
		Created:       g.Created,
	}
	return document
}

// game converts the document to a game.
func (document gameDocument) game(id game.ID) (*game.Game, error) {
	takenBy, err := db.DecodeTakenBy(document.TakenBy)
	if err != nil {
		return nil, fmt.Errorf("decoding game %v: %w", id, err)
	}
	positions := document.Positions
	if positions == nil {
		positions = []game.Position{}
	}
	g := game.Game{
		ID:            id,
		Status:        game.Status(document.Status),
		Player1ID:     document.Player1ID,
		Player2ID:     document.Player2ID,
		CurrentTarget: document.CurrentTarget,
		Positions:     positions,
		TakenBy:       takenBy,
		P1Score:       document.P1Score,
		P2Score:       document.P2Score,
		Created:       document.Created,
	}
	return &g, nil
}
