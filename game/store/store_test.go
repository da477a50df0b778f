package store

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/jacobpatterson1549/number-race/game"
	"github.com/jacobpatterson1549/number-race/server/log/logtest"
)

func testConfig() Config {
	return Config{
		IDFunc:   func() game.ID { return "g7" },
		TimeFunc: func() int64 { return 1549 },
		LayoutFunc: func() []game.Position {
			return []game.Position{{Value: 1, X: 5, Y: 10}}
		},
	}
}

func playingGame() *game.Game {
	g := game.Game{
		ID:            "g7",
		Status:        game.Playing,
		Player1ID:     "alice",
		Player2ID:     "bob",
		CurrentTarget: 3,
		TakenBy:       map[int]game.Role{1: game.Player1, 2: game.Player2},
		P1Score:       1,
		P2Score:       1,
	}
	return &g
}

func TestNewStore(t *testing.T) {
	testLog := logtest.DiscardLogger
	var b mockBackend
	newStoreTests := []struct {
		cfg     Config
		backend Backend
		log     bool
		wantOk  bool
	}{
		{}, // no log
		{ // no backend
			log: true,
		},
		{ // no id func
			log:     true,
			backend: b,
		},
		{ // no time func
			log:     true,
			backend: b,
			cfg: Config{
				IDFunc: testConfig().IDFunc,
			},
		},
		{ // no layout func
			log:     true,
			backend: b,
			cfg: Config{
				IDFunc:   testConfig().IDFunc,
				TimeFunc: testConfig().TimeFunc,
			},
		},
		{
			log:     true,
			backend: b,
			cfg:     testConfig(),
			wantOk:  true,
		},
	}
	for i, test := range newStoreTests {
		var l = testLog
		if !test.log {
			l = nil
		}
		s, err := test.cfg.NewStore(l, test.backend)
		switch {
		case !test.wantOk:
			if err == nil {
				t.Errorf("Test %v: wanted error", i)
			}
		case err != nil:
			t.Errorf("Test %v: unwanted error: %v", i, err)
		case s.backend == nil, s.log == nil:
			t.Errorf("Test %v: store not set up: %v", i, s)
		}
	}
}

func TestJoinOrCreate(t *testing.T) {
	joinedGame := playingGame()
	joinOrCreateTests := []struct {
		playerID    string
		joinGame    *game.Game
		joinErr     error
		createErr   error
		wantOk      bool
		wantRole    game.Role
		wantMessage string
		wantCreated bool
	}{
		{}, // no player id
		{
			playerID: "carol",
			joinErr:  fmt.Errorf("database down"),
		},
		{
			playerID:  "carol",
			joinErr:   game.ErrNoWaitingGame,
			createErr: fmt.Errorf("database full"),
		},
		{
			playerID:    "bob",
			joinGame:    joinedGame,
			wantOk:      true,
			wantRole:    game.Player2,
			wantMessage: "Joined existing game",
		},
		{
			playerID:    "carol",
			joinErr:     fmt.Errorf("wrapped: %w", game.ErrNoWaitingGame),
			wantOk:      true,
			wantRole:    game.Player1,
			wantMessage: "Created new game. Waiting for player 2...",
			wantCreated: true,
		},
	}
	for i, test := range joinOrCreateTests {
		var created *game.Game
		b := mockBackend{
			joinFunc: func(ctx context.Context, playerID string) (*game.Game, error) {
				if playerID != test.playerID {
					t.Errorf("Test %v: wanted join for %q, got %q", i, test.playerID, playerID)
				}
				return test.joinGame, test.joinErr
			},
			createFunc: func(ctx context.Context, g game.Game) error {
				created = &g
				return test.createErr
			},
		}
		s := Store{
			log:     logtest.DiscardLogger,
			backend: b,
			Config:  testConfig(),
		}
		ctx := context.Background()
		got, err := s.JoinOrCreate(ctx, test.playerID)
		switch {
		case !test.wantOk:
			if err == nil {
				t.Errorf("Test %v: wanted error", i)
			}
		case err != nil:
			t.Errorf("Test %v: unwanted error: %v", i, err)
		case test.wantRole != got.Role:
			t.Errorf("Test %v: wanted role %v, got %v", i, test.wantRole, got.Role)
		case test.wantMessage != got.Message:
			t.Errorf("Test %v: wanted message %q, got %q", i, test.wantMessage, got.Message)
		case !test.wantCreated:
			if created != nil {
				t.Errorf("Test %v: wanted no game to be created", i)
			}
			if got.Game.ID != joinedGame.ID {
				t.Errorf("Test %v: wanted joined game", i)
			}
		case created == nil:
			t.Errorf("Test %v: wanted game to be created", i)
		case created.ID != "g7", created.Created != 1549, created.Player1ID != test.playerID, created.Status != game.Waiting, len(created.Positions) != 1:
			t.Errorf("Test %v: created game not initialized from config: %v", i, created)
		case got.Game.ID != created.ID:
			t.Errorf("Test %v: wanted result to be created game", i)
		}
	}
}

func TestJoinOrCreateDebug(t *testing.T) {
	l := logtest.NewLogger()
	b := mockBackend{
		joinFunc: func(ctx context.Context, playerID string) (*game.Game, error) {
			return nil, game.ErrNoWaitingGame
		},
		createFunc: func(ctx context.Context, g game.Game) error {
			return nil
		},
	}
	cfg := testConfig()
	cfg.Debug = true
	s, err := cfg.NewStore(l, b)
	if err != nil {
		t.Fatalf("creating store: %v", err)
	}
	if _, err := s.JoinOrCreate(context.Background(), "alice"); err != nil {
		t.Fatalf("unwanted error: %v", err)
	}
	if !l.Contains(`player "alice" created game g7`) {
		t.Errorf("wanted creation to be logged, got %q", l.String())
	}
}

func TestGetGame(t *testing.T) {
	getGameTests := []struct {
		readGame *game.Game
		readErr  error
		wantErr  error
	}{
		{
			readErr: game.ErrNotFound,
			wantErr: game.ErrNotFound,
		},
		{
			readGame: playingGame(),
		},
	}
	for i, test := range getGameTests {
		s := Store{
			backend: mockBackend{
				readFunc: func(ctx context.Context, id game.ID) (*game.Game, error) {
					return test.readGame, test.readErr
				},
			},
		}
		got, err := s.GetGame(context.Background(), "g7")
		switch {
		case test.wantErr != nil:
			if !errors.Is(err, test.wantErr) {
				t.Errorf("Test %v: wanted %v, got %v", i, test.wantErr, err)
			}
		case err != nil:
			t.Errorf("Test %v: unwanted error: %v", i, err)
		case got != test.readGame:
			t.Errorf("Test %v: wanted game from backend", i)
		}
	}
}

func TestClaim(t *testing.T) {
	infraErr := fmt.Errorf("connection reset")
	claimTests := []struct {
		readGame   *game.Game
		readErr    error
		playerID   string
		number     int
		claimGame  *game.Game
		claimErr   error
		wantErr    error
		wantClaim  bool
		wantRole   game.Role
		wantLogged string
	}{
		{
			readErr: game.ErrNotFound,
			wantErr: game.ErrNotFound,
		},
		{
			readErr: infraErr,
			wantErr: infraErr,
		},
		{
			readGame: func() *game.Game {
				g := playingGame()
				g.Status = game.Waiting
				return g
			}(),
			playerID: "alice",
			number:   3,
			wantErr:  game.ErrInvalidState,
		},
		{
			readGame: func() *game.Game {
				g := playingGame()
				g.Status = game.Finished
				g.CurrentTarget = game.LastNumber + 1
				return g
			}(),
			playerID: "bob",
			number:   game.LastNumber,
			wantErr:  game.ErrStaleClaim,
		},
		{
			readGame: playingGame(),
			playerID: "eve",
			number:   3,
			wantErr:  game.ErrNotParticipant,
		},
		{
			readGame: playingGame(),
			playerID: "alice",
			number:   4,
			wantErr:  game.ErrStaleClaim,
		},
		{
			readGame:  playingGame(),
			playerID:  "alice",
			number:    3,
			claimErr:  game.ErrStaleClaim,
			wantErr:   game.ErrStaleClaim,
			wantClaim: true,
			wantRole:  game.Player1,
		},
		{
			readGame:  playingGame(),
			playerID:  "bob",
			number:    3,
			claimErr:  infraErr,
			wantErr:   infraErr,
			wantClaim: true,
			wantRole:  game.Player2,
		},
		{
			readGame:  playingGame(),
			playerID:  "bob",
			number:    3,
			claimGame: playingGame(),
			wantClaim: true,
			wantRole:  game.Player2,
		},
		{
			readGame: playingGame(),
			playerID: "bob",
			number:   3,
			claimGame: &game.Game{
				ID:      "g7",
				Status:  game.Finished,
				P1Score: 60,
				P2Score: 39,
			},
			wantClaim:  true,
			wantRole:   game.Player2,
			wantLogged: "game g7 finished: p1: 60, p2: 39",
		},
	}
	for i, test := range claimTests {
		claimed := false
		b := mockBackend{
			readFunc: func(ctx context.Context, id game.ID) (*game.Game, error) {
				return test.readGame, test.readErr
			},
			claimFunc: func(ctx context.Context, id game.ID, number int, role game.Role) (*game.Game, error) {
				claimed = true
				if id != "g7" || number != test.number || role != test.wantRole {
					t.Errorf("Test %v: unwanted claim: %v, %v, %v", i, id, number, role)
				}
				return test.claimGame, test.claimErr
			},
		}
		l := logtest.NewLogger()
		cfg := testConfig()
		cfg.Debug = true
		s, err := cfg.NewStore(l, b)
		if err != nil {
			t.Fatalf("Test %v: creating store: %v", i, err)
		}
		got, err := s.Claim(context.Background(), "g7", test.playerID, test.number)
		switch {
		case test.wantClaim != claimed:
			t.Errorf("Test %v: wanted claim to be called: %v", i, test.wantClaim)
		case test.wantErr != nil:
			if !errors.Is(err, test.wantErr) {
				t.Errorf("Test %v: wanted %v, got %v", i, test.wantErr, err)
			}
		case err != nil:
			t.Errorf("Test %v: unwanted error: %v", i, err)
		case got != test.claimGame:
			t.Errorf("Test %v: wanted game from backend claim", i)
		case len(test.wantLogged) == 0:
			if !l.Empty() {
				t.Errorf("Test %v: wanted nothing logged, got %q", i, l.String())
			}
		case !l.Contains(test.wantLogged):
			t.Errorf("Test %v: wanted %q to be logged, got %q", i, test.wantLogged, l.String())
		}
	}
}
