// Package storetest contains tests that every game store backend must pass.
package storetest

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/jacobpatterson1549/number-race/game"
	"github.com/jacobpatterson1549/number-race/game/store"
	"github.com/jacobpatterson1549/number-race/server/log/logtest"
)

// NewBackendFunc creates an empty backend for a single test.
type NewBackendFunc func(t *testing.T) store.Backend

// Layout is a fixed board used to create test games.
func Layout() []game.Position {
	i := 0
	intn := func(n int) int {
		i++
		return i % n
	}
	return game.RandomLayout(intn)
}

// NewGame creates a waiting game for a test.
func NewGame(id game.ID, playerID string, created int64) game.Game {
	return *game.New(id, playerID, Layout(), created)
}

// NewStore creates a store on the backend that creates games with sequential ids.
func NewStore(t *testing.T, b store.Backend) *store.Store {
	t.Helper()
	var n int64
	cfg := store.Config{
		IDFunc: func() game.ID {
			id := atomic.AddInt64(&n, 1)
			return game.ID(fmt.Sprintf("game-%d", id))
		},
		TimeFunc: func() int64 {
			return atomic.LoadInt64(&n)
		},
		LayoutFunc: Layout,
	}
	s, err := cfg.NewStore(logtest.DiscardLogger, b)
	if err != nil {
		t.Fatalf("creating store: %v", err)
	}
	return s
}

// RunBackendTests runs the tests every backend must pass, each on a new backend.
func RunBackendTests(t *testing.T, newBackend NewBackendFunc) {
	tests := []struct {
		name string
		test func(t *testing.T, b store.Backend)
	}{
		{"readMissing", testReadMissing},
		{"createRead", testCreateRead},
		{"joinNone", testJoinNone},
		{"joinOldest", testJoinOldest},
		{"claimWaiting", testClaimWaiting},
		{"claimWrongNumber", testClaimWrongNumber},
		{"claimAll", testClaimAll},
		{"concurrentClaims", testConcurrentClaims},
		{"concurrentJoins", testConcurrentJoins},
		{"storeScenario", testStoreScenario},
		{"storeConcurrentJoinOrCreate", testStoreConcurrentJoinOrCreate},
		{"storeRejectionsDoNotChangeGame", testStoreRejectionsDoNotChangeGame},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			b := newBackend(t)
			test.test(t, b)
		})
	}
}

func create(t *testing.T, b store.Backend, g game.Game) {
	t.Helper()
	if err := b.Create(context.Background(), g); err != nil {
		t.Fatalf("creating game %v: %v", g.ID, err)
	}
}

func read(t *testing.T, b store.Backend, id game.ID) *game.Game {
	t.Helper()
	g, err := b.Read(context.Background(), id)
	if err != nil {
		t.Fatalf("reading game %v: %v", id, err)
	}
	return g
}

func createPlaying(t *testing.T, b store.Backend) *game.Game {
	t.Helper()
	create(t, b, NewGame("g1", "alice", 1))
	g, err := b.Join(context.Background(), "bob")
	if err != nil {
		t.Fatalf("joining game: %v", err)
	}
	return g
}

func testReadMissing(t *testing.T, b store.Backend) {
	_, err := b.Read(context.Background(), "missing")
	if !errors.Is(err, game.ErrNotFound) {
		t.Errorf("wanted %v, got %v", game.ErrNotFound, err)
	}
}

func testCreateRead(t *testing.T, b store.Backend) {
	want := NewGame("g1", "alice", 1549)
	create(t, b, want)
	got := read(t, b, want.ID)
	if !reflect.DeepEqual(want, *got) {
		t.Errorf("games not equal:\nwanted: %v\ngot:    %v", want, *got)
	}
}

func testJoinNone(t *testing.T, b store.Backend) {
	_, err := b.Join(context.Background(), "alice")
	if !errors.Is(err, game.ErrNoWaitingGame) {
		t.Errorf("wanted %v, got %v", game.ErrNoWaitingGame, err)
	}
}

func testJoinOldest(t *testing.T, b store.Backend) {
	ctx := context.Background()
	create(t, b, NewGame("new", "carol", 20))
	create(t, b, NewGame("old", "alice", 10))
	joinTests := []struct {
		playerID string
		wantID   game.ID
		wantErr  error
	}{
		{"bob", "old", nil},
		{"dave", "new", nil},
		{"eve", "", game.ErrNoWaitingGame},
	}
	for i, test := range joinTests {
		g, err := b.Join(ctx, test.playerID)
		switch {
		case test.wantErr != nil:
			if !errors.Is(err, test.wantErr) {
				t.Errorf("Test %v: wanted %v, got %v", i, test.wantErr, err)
			}
		case err != nil:
			t.Errorf("Test %v: unwanted error: %v", i, err)
		case g.ID != test.wantID:
			t.Errorf("Test %v: wanted to join game %v, got %v", i, test.wantID, g.ID)
		case g.Status != game.Playing, g.Player2ID != test.playerID:
			t.Errorf("Test %v: game not joined: %v", i, g)
		default:
			if err := g.Validate(); err != nil {
				t.Errorf("Test %v: joined game not valid: %v", i, err)
			}
		}
	}
	g := read(t, b, "old")
	if g.Player1ID != "alice" || g.Player2ID != "bob" || g.Status != game.Playing {
		t.Errorf("joined game not saved: %v", g)
	}
}

func testClaimWaiting(t *testing.T, b store.Backend) {
	want := NewGame("g1", "alice", 1)
	create(t, b, want)
	_, err := b.Claim(context.Background(), want.ID, 1, game.Player1)
	if !errors.Is(err, game.ErrStaleClaim) {
		t.Errorf("wanted %v, got %v", game.ErrStaleClaim, err)
	}
	if got := read(t, b, want.ID); !reflect.DeepEqual(want, *got) {
		t.Errorf("waiting game changed:\nwanted: %v\ngot:    %v", want, *got)
	}
}

func testClaimWrongNumber(t *testing.T, b store.Backend) {
	want := createPlaying(t, b)
	for _, n := range []int{0, 2, 50, game.LastNumber, game.LastNumber + 1} {
		_, err := b.Claim(context.Background(), want.ID, n, game.Player2)
		if !errors.Is(err, game.ErrStaleClaim) {
			t.Errorf("claiming %d: wanted %v, got %v", n, game.ErrStaleClaim, err)
		}
	}
	if got := read(t, b, want.ID); !reflect.DeepEqual(*want, *got) {
		t.Errorf("game changed:\nwanted: %v\ngot:    %v", *want, *got)
	}
}

func testClaimAll(t *testing.T, b store.Backend) {
	ctx := context.Background()
	g := createPlaying(t, b)
	for n := game.FirstNumber; n <= game.LastNumber; n++ {
		role := game.Player1
		if n%2 == 0 {
			role = game.Player2
		}
		g2, err := b.Claim(ctx, g.ID, n, role)
		if err != nil {
			t.Fatalf("claiming %d: %v", n, err)
		}
		want, err := g.Claim(n, role)
		if err != nil {
			t.Fatalf("claiming %d on snapshot: %v", n, err)
		}
		if !reflect.DeepEqual(*want, *g2) {
			t.Fatalf("claiming %d: games not equal:\nwanted: %v\ngot:    %v", n, *want, *g2)
		}
		if err := g2.Validate(); err != nil {
			t.Fatalf("game not valid after claiming %d: %v", n, err)
		}
		g = g2
	}
	got := read(t, b, g.ID)
	switch {
	case got.Status != game.Finished:
		t.Errorf("wanted finished game, got %v", got.Status)
	case got.P1Score != 50, got.P2Score != 49:
		t.Errorf("wanted scores 50 and 49, got %v and %v", got.P1Score, got.P2Score)
	}
	if _, err := b.Claim(ctx, g.ID, game.LastNumber+1, game.Player1); !errors.Is(err, game.ErrStaleClaim) {
		t.Errorf("claiming after finish: wanted %v, got %v", game.ErrStaleClaim, err)
	}
}

func testConcurrentClaims(t *testing.T, b store.Backend) {
	ctx := context.Background()
	g := createPlaying(t, b)
	roles := []game.Role{game.Player1, game.Player2}
	for n := game.FirstNumber; n <= 5; n++ {
		const numClaims = 8
		var wg sync.WaitGroup
		results := make([]game.Role, numClaims)
		errs := make([]error, numClaims)
		wg.Add(numClaims)
		for i := 0; i < numClaims; i++ {
			go func(i int) {
				defer wg.Done()
				role := roles[i%2]
				if _, err := b.Claim(ctx, g.ID, n, role); err != nil {
					errs[i] = err
					return
				}
				results[i] = role
			}(i)
		}
		wg.Wait()
		var winner game.Role
		winners := 0
		for i, err := range errs {
			switch {
			case err == nil:
				winners++
				winner = results[i]
			case !errors.Is(err, game.ErrStaleClaim):
				t.Errorf("claim %v of %d: wanted %v, got %v", i, n, game.ErrStaleClaim, err)
			}
		}
		if winners != 1 {
			t.Fatalf("wanted exactly one claim of %d to succeed, got %v", n, winners)
		}
		got := read(t, b, g.ID)
		switch {
		case got.CurrentTarget != n+1:
			t.Errorf("wanted target %d, got %d", n+1, got.CurrentTarget)
		case got.TakenBy[n] != winner:
			t.Errorf("wanted %d taken by %v, got %v", n, winner, got.TakenBy[n])
		}
		if err := got.Validate(); err != nil {
			t.Errorf("game not valid after concurrent claims of %d: %v", n, err)
		}
	}
}

func testConcurrentJoins(t *testing.T, b store.Backend) {
	ctx := context.Background()
	create(t, b, NewGame("g1", "alice", 1))
	const numJoins = 6
	var wg sync.WaitGroup
	errs := make([]error, numJoins)
	wg.Add(numJoins)
	for i := 0; i < numJoins; i++ {
		go func(i int) {
			defer wg.Done()
			_, errs[i] = b.Join(ctx, fmt.Sprintf("player-%d", i))
		}(i)
	}
	wg.Wait()
	joins := 0
	for i, err := range errs {
		switch {
		case err == nil:
			joins++
		case !errors.Is(err, game.ErrNoWaitingGame):
			t.Errorf("join %v: wanted %v, got %v", i, game.ErrNoWaitingGame, err)
		}
	}
	if joins != 1 {
		t.Errorf("wanted exactly one player to join, got %v", joins)
	}
	g := read(t, b, "g1")
	if err := g.Validate(); err != nil || g.Status != game.Playing {
		t.Errorf("wanted valid playing game, got %v (%v)", g, err)
	}
}

func testStoreScenario(t *testing.T, b store.Backend) {
	ctx := context.Background()
	s := NewStore(t, b)
	created, err := s.JoinOrCreate(ctx, "A")
	switch {
	case err != nil:
		t.Fatalf("creating game: %v", err)
	case created.Role != game.Player1, created.Game.Status != game.Waiting, created.Game.CurrentTarget != 1:
		t.Fatalf("wanted new waiting game for p1, got %v", created)
	}
	id := created.Game.ID
	joined, err := s.JoinOrCreate(ctx, "B")
	switch {
	case err != nil:
		t.Fatalf("joining game: %v", err)
	case joined.Role != game.Player2, joined.Game.ID != id, joined.Game.Status != game.Playing, joined.Game.Player2ID != "B":
		t.Fatalf("wanted to join game %v as p2, got %v", id, joined)
	}
	g, err := s.Claim(ctx, id, "A", 1)
	switch {
	case err != nil:
		t.Fatalf("claiming 1: %v", err)
	case g.CurrentTarget != 2, g.P1Score != 1, !reflect.DeepEqual(g.TakenBy, map[int]game.Role{1: game.Player1}):
		t.Fatalf("claim of 1 not recorded: %v", g)
	}
	for n := 2; n <= game.LastNumber; n++ {
		var wg sync.WaitGroup
		errs := make([]error, 2)
		wg.Add(2)
		for i, playerID := range []string{"A", "B"} {
			go func(i int, playerID string) {
				defer wg.Done()
				_, errs[i] = s.Claim(ctx, id, playerID, n)
			}(i, playerID)
		}
		wg.Wait()
		switch {
		case errs[0] == nil && errs[1] == nil:
			t.Fatalf("both players claimed %d", n)
		case errs[0] != nil && errs[1] != nil:
			t.Fatalf("neither player claimed %d: %v, %v", n, errs[0], errs[1])
		}
		for _, err := range errs {
			switch {
			case err == nil, errors.Is(err, game.ErrStaleClaim):
			default:
				t.Fatalf("claiming %d: wanted %v, got %v", n, game.ErrStaleClaim, err)
			}
		}
	}
	g, err = s.GetGame(ctx, id)
	switch {
	case err != nil:
		t.Fatalf("getting finished game: %v", err)
	case g.Status != game.Finished, g.CurrentTarget != game.LastNumber+1:
		t.Errorf("wanted finished game, got %v with target %d", g.Status, g.CurrentTarget)
	case g.P1Score+g.P2Score != game.LastNumber:
		t.Errorf("wanted scores to sum to %d, got %d+%d", game.LastNumber, g.P1Score, g.P2Score)
	}
	if err := g.Validate(); err != nil {
		t.Errorf("finished game not valid: %v", err)
	}
	if _, err := s.Claim(ctx, id, "A", game.LastNumber); !errors.Is(err, game.ErrStaleClaim) {
		t.Errorf("claiming last number in finished game: wanted %v, got %v", game.ErrStaleClaim, err)
	}
	if _, err := s.Claim(ctx, id, "A", game.LastNumber+1); !errors.Is(err, game.ErrInvalidState) {
		t.Errorf("claiming past the last number in finished game: wanted %v, got %v", game.ErrInvalidState, err)
	}
}

func testStoreConcurrentJoinOrCreate(t *testing.T, b store.Backend) {
	ctx := context.Background()
	s := NewStore(t, b)
	waiting, err := s.JoinOrCreate(ctx, "A")
	if err != nil {
		t.Fatalf("creating waiting game: %v", err)
	}
	var wg sync.WaitGroup
	results := make([]*store.JoinResult, 2)
	errs := make([]error, 2)
	wg.Add(2)
	for i, playerID := range []string{"B", "C"} {
		go func(i int, playerID string) {
			defer wg.Done()
			results[i], errs[i] = s.JoinOrCreate(ctx, playerID)
		}(i, playerID)
	}
	wg.Wait()
	for i, err := range errs {
		if err != nil {
			t.Fatalf("join %v: unwanted error: %v", i, err)
		}
	}
	var p1, p2 *store.JoinResult
	for _, r := range results {
		switch r.Role {
		case game.Player1:
			p1 = r
		case game.Player2:
			p2 = r
		}
	}
	switch {
	case p1 == nil, p2 == nil:
		t.Fatalf("wanted one player to join and the other to create, got %v and %v", results[0], results[1])
	case p2.Game.ID != waiting.Game.ID:
		t.Errorf("wanted p2 to join game %v, got %v", waiting.Game.ID, p2.Game.ID)
	case p1.Game.ID == waiting.Game.ID:
		t.Errorf("wanted p1 to create a new game")
	case p1.Game.Status != game.Waiting:
		t.Errorf("wanted the new game to be waiting, got %v", p1.Game.Status)
	}
}

func testStoreRejectionsDoNotChangeGame(t *testing.T, b store.Backend) {
	ctx := context.Background()
	s := NewStore(t, b)
	r, err := s.JoinOrCreate(ctx, "A")
	if err != nil {
		t.Fatalf("creating game: %v", err)
	}
	id := r.Game.ID
	if _, err := s.Claim(ctx, id, "A", 1); !errors.Is(err, game.ErrInvalidState) {
		t.Errorf("claiming in waiting game: wanted %v, got %v", game.ErrInvalidState, err)
	}
	if _, err := s.JoinOrCreate(ctx, "B"); err != nil {
		t.Fatalf("joining game: %v", err)
	}
	if _, err := s.Claim(ctx, id, "B", 1); err != nil {
		t.Fatalf("claiming 1: %v", err)
	}
	want, err := s.GetGame(ctx, id)
	if err != nil {
		t.Fatalf("getting game: %v", err)
	}
	claimTests := []struct {
		id       game.ID
		playerID string
		number   int
		wantErr  error
	}{
		{"missing", "A", 2, game.ErrNotFound},
		{id, "C", 2, game.ErrNotParticipant},
		{id, "C", 3, game.ErrNotParticipant},
		{id, "A", 1, game.ErrStaleClaim},
		{id, "B", 3, game.ErrStaleClaim},
		{id, "A", game.LastNumber, game.ErrStaleClaim},
	}
	for i, test := range claimTests {
		if _, err := s.Claim(ctx, test.id, test.playerID, test.number); !errors.Is(err, test.wantErr) {
			t.Errorf("Test %v: wanted %v, got %v", i, test.wantErr, err)
		}
		got, err := s.GetGame(ctx, id)
		switch {
		case err != nil:
			t.Errorf("Test %v: getting game: %v", i, err)
		case !reflect.DeepEqual(*want, *got):
			t.Errorf("Test %v: game changed:\nwanted: %v\ngot:    %v", i, *want, *got)
		}
	}
}
