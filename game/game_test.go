package game

import (
	"errors"
	"reflect"
	"testing"
)

// firstIntn is a random number generator that always returns zero.
func firstIntn(n int) int {
	return 0
}

func newPlayingGame(t *testing.T) *Game {
	t.Helper()
	g := New("g1", "alice", RandomLayout(firstIntn), 1)
	g2, err := g.Join("bob")
	if err != nil {
		t.Fatalf("joining game: %v", err)
	}
	return g2
}

func TestNew(t *testing.T) {
	positions := RandomLayout(firstIntn)
	got := New("g7", "alice", positions, 42)
	want := &Game{
		ID:            "g7",
		Status:        Waiting,
		Player1ID:     "alice",
		CurrentTarget: 1,
		Positions:     positions,
		TakenBy:       map[int]Role{},
		Created:       42,
	}
	if !reflect.DeepEqual(want, got) {
		t.Errorf("new games not equal:\nwanted: %v\ngot:    %v", want, got)
	}
	if err := got.Validate(); err != nil {
		t.Errorf("new game is not valid: %v", err)
	}
}

func TestRoleOf(t *testing.T) {
	roleOfTests := []struct {
		playerID  string
		player1ID string
		player2ID string
		want      Role
		wantOk    bool
	}{
		{},
		{
			player1ID: "alice",
		},
		{
			playerID:  "alice",
			player1ID: "alice",
			want:      Player1,
			wantOk:    true,
		},
		{
			playerID:  "bob",
			player1ID: "alice",
			player2ID: "bob",
			want:      Player2,
			wantOk:    true,
		},
		{
			playerID:  "eve",
			player1ID: "alice",
			player2ID: "bob",
		},
		{ // self-play
			playerID:  "alice",
			player1ID: "alice",
			player2ID: "alice",
			want:      Player1,
			wantOk:    true,
		},
	}
	for i, test := range roleOfTests {
		g := Game{
			Player1ID: test.player1ID,
			Player2ID: test.player2ID,
		}
		got, ok := g.RoleOf(test.playerID)
		switch {
		case ok != test.wantOk:
			t.Errorf("Test %v: wanted ok to be %v", i, test.wantOk)
		case test.want != got:
			t.Errorf("Test %v: wanted %v, got %v", i, test.want, got)
		}
	}
}

func TestCheck(t *testing.T) {
	checkTests := []struct {
		status        Status
		currentTarget int
		playerID      string
		number        int
		wantErr       error
		want          Role
	}{
		{
			status:   Waiting,
			playerID: "alice",
			number:   1,
			wantErr:  ErrInvalidState,
		},
		{
			status:   Finished,
			playerID: "alice",
			number:   1,
			wantErr:  ErrInvalidState,
		},
		{
			status:        Finished,
			currentTarget: LastNumber + 1,
			playerID:      "bob",
			number:        LastNumber,
			wantErr:       ErrStaleClaim,
		},
		{
			status:        Finished,
			currentTarget: LastNumber + 1,
			playerID:      "alice",
			number:        LastNumber + 1,
			wantErr:       ErrInvalidState,
		},
		{
			status:        Finished,
			currentTarget: LastNumber + 1,
			playerID:      "eve",
			number:        LastNumber,
			wantErr:       ErrNotParticipant,
		},
		{
			status:   Playing,
			playerID: "eve",
			number:   1,
			wantErr:  ErrNotParticipant,
		},
		{
			status:   Playing,
			playerID: "eve",
			number:   2,
			wantErr:  ErrNotParticipant,
		},
		{
			status:   Playing,
			playerID: "bob",
			number:   2,
			wantErr:  ErrStaleClaim,
		},
		{
			status:   Playing,
			playerID: "bob",
			number:   0,
			wantErr:  ErrStaleClaim,
		},
		{
			status:   Playing,
			playerID: "alice",
			number:   1,
			want:     Player1,
		},
		{
			status:   Playing,
			playerID: "bob",
			number:   1,
			want:     Player2,
		},
	}
	for i, test := range checkTests {
		if test.currentTarget == 0 {
			test.currentTarget = 1
		}
		g := Game{
			Status:        test.status,
			Player1ID:     "alice",
			Player2ID:     "bob",
			CurrentTarget: test.currentTarget,
		}
		got, err := g.Check(test.playerID, test.number)
		switch {
		case test.wantErr != nil:
			if !errors.Is(err, test.wantErr) {
				t.Errorf("Test %v: wanted %v, got %v", i, test.wantErr, err)
			}
		case err != nil:
			t.Errorf("Test %v: unwanted error: %v", i, err)
		case test.want != got:
			t.Errorf("Test %v: wanted role %v, got %v", i, test.want, got)
		}
	}
}

func TestJoin(t *testing.T) {
	t.Run("waiting", func(t *testing.T) {
		g := New("g1", "alice", RandomLayout(firstIntn), 1)
		g2, err := g.Join("bob")
		switch {
		case err != nil:
			t.Errorf("unwanted error: %v", err)
		case g2.Status != Playing:
			t.Errorf("wanted joined game to be playing, got %v", g2.Status)
		case g2.Player2ID != "bob":
			t.Errorf("wanted player 2 to be bob, got %q", g2.Player2ID)
		case g.Status != Waiting || len(g.Player2ID) != 0:
			t.Errorf("original game changed: %v", g)
		}
	})
	t.Run("playing", func(t *testing.T) {
		g := newPlayingGame(t)
		if _, err := g.Join("eve"); !errors.Is(err, ErrInvalidState) {
			t.Errorf("wanted %v, got %v", ErrInvalidState, err)
		}
	})
}

func TestClaim(t *testing.T) {
	claimTests := []struct {
		status  Status
		number  int
		role    Role
		wantErr bool
	}{
		{
			status:  Waiting,
			number:  1,
			role:    Player1,
			wantErr: true,
		},
		{
			status:  Playing,
			number:  2,
			role:    Player1,
			wantErr: true,
		},
		{
			status:  Playing,
			number:  1,
			role:    "p3",
			wantErr: true,
		},
		{
			status: Playing,
			number: 1,
			role:   Player2,
		},
	}
	for i, test := range claimTests {
		g := newPlayingGame(t)
		g.Status = test.status
		got, err := g.Claim(test.number, test.role)
		switch {
		case test.wantErr:
			if err == nil {
				t.Errorf("Test %v: wanted error", i)
			}
		case err != nil:
			t.Errorf("Test %v: unwanted error: %v", i, err)
		case got.CurrentTarget != 2, got.P2Score != 1, got.TakenBy[1] != Player2:
			t.Errorf("Test %v: claim not recorded: %v", i, got)
		case g.CurrentTarget != 1, len(g.TakenBy) != 0:
			t.Errorf("Test %v: original game changed: %v", i, g)
		}
	}
}

func TestClaimAll(t *testing.T) {
	g := newPlayingGame(t)
	for n := FirstNumber; n <= LastNumber; n++ {
		role := Player1
		if n%3 == 0 {
			role = Player2
		}
		g2, err := g.Claim(n, role)
		if err != nil {
			t.Fatalf("claiming %d: %v", n, err)
		}
		if err := g2.Validate(); err != nil {
			t.Fatalf("game not valid after claiming %d: %v", n, err)
		}
		g = g2
	}
	switch {
	case g.Status != Finished:
		t.Errorf("wanted game to be finished, got %v", g.Status)
	case g.CurrentTarget != LastNumber+1:
		t.Errorf("wanted target to be %d, got %d", LastNumber+1, g.CurrentTarget)
	case g.P1Score != 66 || g.P2Score != 33:
		t.Errorf("wanted scores 66 and 33, got %d and %d", g.P1Score, g.P2Score)
	}
	if _, err := g.Claim(LastNumber+1, Player1); !errors.Is(err, ErrStaleClaim) {
		t.Errorf("wanted claim after finish to be stale, got %v", err)
	}
}

func TestStatusAfterClaim(t *testing.T) {
	statusAfterClaimTests := []struct {
		number int
		want   Status
	}{
		{1, Playing},
		{98, Playing},
		{99, Finished},
	}
	for i, test := range statusAfterClaimTests {
		if got := StatusAfterClaim(test.number); test.want != got {
			t.Errorf("Test %v: wanted %v, got %v", i, test.want, got)
		}
	}
}

func TestCopy(t *testing.T) {
	g := newPlayingGame(t)
	g.TakenBy[1] = Player1
	g2 := g.Copy()
	g2.TakenBy[2] = Player2
	g2.Positions[0].X = 50
	switch {
	case !reflect.DeepEqual(g.TakenBy, map[int]Role{1: Player1}):
		t.Errorf("copy shares takenBy: %v", g.TakenBy)
	case g.Positions[0].X == 50:
		t.Errorf("copy shares positions")
	}
}

func TestValidate(t *testing.T) {
	validateTests := []struct {
		change func(g *Game)
		wantOk bool
	}{
		{
			change: func(g *Game) {},
			wantOk: true,
		},
		{
			change: func(g *Game) { g.ID = "" },
		},
		{
			change: func(g *Game) { g.Status = "paused" },
		},
		{
			change: func(g *Game) { g.Player1ID = "" },
		},
		{
			change: func(g *Game) { g.Player2ID = "" },
		},
		{
			change: func(g *Game) { g.Status = Waiting },
		},
		{
			change: func(g *Game) { g.Status = Finished },
		},
		{
			change: func(g *Game) { g.CurrentTarget = 0 },
		},
		{
			change: func(g *Game) { g.CurrentTarget = 2 },
		},
		{
			change: func(g *Game) { g.P1Score = 1 },
		},
		{
			change: func(g *Game) { g.TakenBy[1] = Player1 },
		},
		{
			change: func(g *Game) {
				g.CurrentTarget = 2
				g.P1Score = 1
				g.TakenBy[1] = Player2
			},
		},
		{
			change: func(g *Game) {
				g.CurrentTarget = 2
				g.P1Score = 1
				g.TakenBy[2] = Player1
			},
		},
		{
			change: func(g *Game) {
				g.CurrentTarget = 2
				g.P1Score = 1
				g.TakenBy[1] = Player1
			},
			wantOk: true,
		},
		{
			change: func(g *Game) { g.Positions = g.Positions[1:] },
		},
	}
	for i, test := range validateTests {
		g := newPlayingGame(t)
		test.change(g)
		err := g.Validate()
		switch {
		case !test.wantOk:
			if err == nil {
				t.Errorf("Test %v: wanted error", i)
			}
		case err != nil:
			t.Errorf("Test %v: unwanted error: %v", i, err)
		}
	}
}
