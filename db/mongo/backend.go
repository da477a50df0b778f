// Package mongo implements a game store backend for mongodb.
package mongo

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/jacobpatterson1549/number-race/db"
	"github.com/jacobpatterson1549/number-race/game"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	databaseName        = "number-race-db"
	collectionName      = "games"
	idField             = "_id"
	statusField         = "status"
	player2IDField      = "player2Id"
	currentTargetField  = "currentTarget"
	takenByField        = "takenBy"
	p1ScoreField        = "p1Score"
	p2ScoreField        = "p2Score"
	createdField        = "created"
	waitingCreatedIndex = "status_created"
)

type (
	// Backend is a game store backend for a games collection.
	Backend struct {
		Games *mongo.Collection
		db.Config
	}

	// gameDocument is how a game is stored in the collection.
	gameDocument struct {
		ID            string               `bson:"_id"`
		Status        string               `bson:"status"`
		Player1ID     string               `bson:"player1Id"`
		Player2ID     *string              `bson:"player2Id"`
		CurrentTarget int                  `bson:"currentTarget"`
		Positions     []game.Position      `bson:"positions"`
		TakenBy       map[string]game.Role `bson:"takenBy"`
		P1Score       int                  `bson:"p1Score"`
		P2Score       int                  `bson:"p2Score"`
		Created       int64                `bson:"created"`
	}
)

// NewBackend connects to the database and creates a backend for its games collection.
func NewBackend(ctx context.Context, cfg db.Config, databaseURL string) (*Backend, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("creating mongo backend: validation: %w", err)
	}
	clientOptions := options.Client()
	clientOptions.ApplyURI(databaseURL)
	ctx, cancelFunc := context.WithTimeout(ctx, cfg.QueryPeriod)
	defer cancelFunc()
	client, err := mongo.Connect(ctx, clientOptions)
	if err != nil {
		return nil, fmt.Errorf("connecting to mongodb: %w", err)
	}
	games := client.Database(databaseName).Collection(collectionName)
	b := Backend{
		Games:  games,
		Config: cfg,
	}
	return &b, nil
}

// Setup creates the index used to find the oldest waiting game.
func (b *Backend) Setup(ctx context.Context) error {
	indexOptions := options.Index()
	indexOptions.SetName(waitingCreatedIndex)
	model := mongo.IndexModel{
		Keys:    d(e(statusField, 1), e(createdField, 1)),
		Options: indexOptions,
	}
	indexes := b.Games.Indexes()
	ctx, cancelFunc := context.WithTimeout(ctx, b.QueryPeriod)
	defer cancelFunc()
	if _, err := indexes.CreateOne(ctx, model); err != nil {
		return fmt.Errorf("creating waiting game index: %w", err)
	}
	return nil
}

// Create adds the game.
func (b *Backend) Create(ctx context.Context, g game.Game) error {
	document := newGameDocument(g)
	ctx, cancelFunc := context.WithTimeout(ctx, b.QueryPeriod)
	defer cancelFunc()
	if _, err := b.Games.InsertOne(ctx, document); err != nil {
		return fmt.Errorf("creating game: %w", err)
	}
	return nil
}

// Join adds the player to the oldest waiting game with a single atomic find and update.
func (b *Backend) Join(ctx context.Context, playerID string) (*game.Game, error) {
	filter := d(
		e(statusField, string(game.Waiting)),
		e(player2IDField, nil),
	)
	update := d(e("$set", d(
		e(player2IDField, playerID),
		e(statusField, string(game.Playing)),
	)))
	opts := options.FindOneAndUpdate()
	opts.SetSort(d(e(createdField, 1), e(idField, 1)))
	opts.SetReturnDocument(options.After)
	g, err := b.findOneAndUpdate(ctx, filter, update, opts, game.ErrNoWaitingGame)
	if err != nil {
		return nil, fmt.Errorf("joining game: %w", err)
	}
	return g, nil
}

// Read gets the game.
func (b *Backend) Read(ctx context.Context, id game.ID) (*game.Game, error) {
	filter := d(e(idField, string(id)))
	ctx, cancelFunc := context.WithTimeout(ctx, b.QueryPeriod)
	defer cancelFunc()
	result := b.Games.FindOne(ctx, filter)
	g, err := decodeGame(result, game.ErrNotFound)
	if err != nil {
		return nil, fmt.Errorf("reading game: %w", err)
	}
	return g, nil
}

// Claim updates the game only if the number is the current target of the playing game.
func (b *Backend) Claim(ctx context.Context, id game.ID, number int, role game.Role) (*game.Game, error) {
	scoreField := p1ScoreField
	if role == game.Player2 {
		scoreField = p2ScoreField
	}
	filter := d(
		e(idField, string(id)),
		e(currentTargetField, number),
		e(statusField, string(game.Playing)),
	)
	update := d(
		e("$set", d(
			e(takenByField+"."+strconv.Itoa(number), string(role)),
			e(statusField, string(game.StatusAfterClaim(number))),
		)),
		e("$inc", d(
			e(currentTargetField, 1),
			e(scoreField, 1),
		)),
	)
	opts := options.FindOneAndUpdate()
	opts.SetReturnDocument(options.After)
	g, err := b.findOneAndUpdate(ctx, filter, update, opts, game.ErrStaleClaim)
	if err != nil {
		return nil, fmt.Errorf("claiming number: %w", err)
	}
	return g, nil
}

// findOneAndUpdate atomically updates the first game that matches the filter, returning notFoundErr if no game matched.
func (b *Backend) findOneAndUpdate(ctx context.Context, filter, update bson.D, opts *options.FindOneAndUpdateOptions, notFoundErr error) (*game.Game, error) {
	ctx, cancelFunc := context.WithTimeout(ctx, b.QueryPeriod)
	defer cancelFunc()
	result := b.Games.FindOneAndUpdate(ctx, filter, update, opts)
	return decodeGame(result, notFoundErr)
}

// decodeGame reads the game from the result.
func decodeGame(result *mongo.SingleResult, notFoundErr error) (*game.Game, error) {
	var document gameDocument
	if err := result.Decode(&document); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, notFoundErr
		}
		return nil, err
	}
	return document.game()
}

// newGameDocument converts the game to a document.
func newGameDocument(g game.Game) gameDocument {
	var player2ID *string
	if len(g.Player2ID) != 0 {
		p2 := g.Player2ID
		player2ID = &p2
	}
	positions := g.Positions
	if positions == nil {
		positions = []game.Position{}
	}
	document := gameDocument{
		ID:            string(g.ID),
		Status:        string(g.Status),
		Player1ID:     g.Player1ID,
		Player2ID:     player2ID,
		CurrentTarget: g.CurrentTarget,
		Positions:     positions,
		TakenBy:       db.EncodeTakenBy(g.TakenBy),
		P1Score:       g.P1Score,
		P2Score:       g.P2Score,
		Created:       g.Created,
	}
	return document
}

// game converts the document to a game.
func (document gameDocument) game() (*game.Game, error) {
	takenBy, err := db.DecodeTakenBy(document.TakenBy)
	if err != nil {
		return nil, fmt.Errorf("decoding game %v: %w", document.ID, err)
	}
	g := game.Game{
		ID:            game.ID(document.ID),
		Status:        game.Status(document.Status),
		Player1ID:     document.Player1ID,
		CurrentTarget: document.CurrentTarget,
		Positions:     document.Positions,
		TakenBy:       takenBy,
		P1Score:       document.P1Score,
		P2Score:       document.P2Score,
		Created:       document.Created,
	}
	if document.Player2ID != nil {
		g.Player2ID = *document.Player2ID
	}
	if g.Positions == nil {
		g.Positions = []game.Position{}
	}
	return &g, nil
}

// d is a helper function to create bson.D elements.
func d(e ...bson.E) bson.D {
	return bson.D(e)
}

// e is a helper function to create bson.E elements.
func e(key string, value interface{}) bson.E {
	return bson.E{Key: key, Value: value}
}
