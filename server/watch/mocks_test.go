package watch

import (
	"context"
	"net/http"
	"time"

	"github.com/jacobpatterson1549/number-race/game"
)

type mockStore func(ctx context.Context, id game.ID) (*game.Game, error)

func (m mockStore) GetGame(ctx context.Context, id game.ID) (*game.Game, error) {
	return m(ctx, id)
}

type mockUpgrader func(w http.ResponseWriter, r *http.Request) (Conn, error)

func (m mockUpgrader) Upgrade(w http.ResponseWriter, r *http.Request) (Conn, error) {
	return m(w, r)
}

type mockConn struct {
	readMessageFunc   func() error
	writeJSONFunc     func(v interface{}) error
	writePingFunc     func() error
	writeCloseFunc    func(reason string) error
	isNormalCloseFunc func(err error) bool
	closeFunc         func() error
}

func (m mockConn) ReadMessage() error {
	return m.readMessageFunc()
}

func (m mockConn) WriteJSON(v interface{}) error {
	return m.writeJSONFunc(v)
}

func (m mockConn) WritePing() error {
	return m.writePingFunc()
}

func (m mockConn) WriteClose(reason string) error {
	return m.writeCloseFunc(reason)
}

func (m mockConn) SetWriteDeadline(t time.Time) error {
	return nil
}

func (m mockConn) IsNormalClose(err error) bool {
	return m.isNormalCloseFunc(err)
}

func (m mockConn) Close() error {
	return m.closeFunc()
}
