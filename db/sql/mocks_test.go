package sql

import "database/sql/driver"

type (
	mockDriver struct {
		OpenFunc func(name string) (driver.Conn, error)
	}

	mockConn struct {
		PrepareFunc func(query string) (driver.Stmt, error)
		CloseFunc   func() error
		BeginFunc   func() (driver.Tx, error)
	}

	mockStmt struct {
		CloseFunc    func() error
		NumInputFunc func() int
		ExecFunc     func(args []driver.Value) (driver.Result, error)
		QueryFunc    func(args []driver.Value) (driver.Rows, error)
	}

	mockTx struct {
		CommitFunc   func() error
		RollbackFunc func() error
	}

	mockResult struct {
		LastInsertIDFunc func() (int64, error)
		RowsAffectedFunc func() (int64, error)
	}

	mockRows struct {
		ColumnsFunc func() []string
		CloseFunc   func() error
		NextFunc    func(dest []driver.Value) error
	}
)

func (m *mockDriver) Open(name string) (driver.Conn, error) {
	return m.OpenFunc(name)
}

func (m mockConn) Prepare(query string) (driver.Stmt, error) {
	return m.PrepareFunc(query)
}

func (m mockConn) Close() error {
	if m.CloseFunc == nil {
		return nil
	}
	return m.CloseFunc()
}

func (m mockConn) Begin() (driver.Tx, error) {
	return m.BeginFunc()
}

func (m mockStmt) Close() error {
	return m.CloseFunc()
}

func (m mockStmt) NumInput() int {
	return m.NumInputFunc()
}

func (m mockStmt) Exec(args []driver.Value) (driver.Result, error) {
	return m.ExecFunc(args)
}

func (m mockStmt) Query(args []driver.Value) (driver.Rows, error) {
	return m.QueryFunc(args)
}

func (m mockTx) Commit() error {
	return m.CommitFunc()
}

func (m mockTx) Rollback() error {
	return m.RollbackFunc()
}

func (m mockResult) LastInsertId() (int64, error) {
	return m.LastInsertIDFunc()
}

func (m mockResult) RowsAffected() (int64, error) {
	return m.RowsAffectedFunc()
}

func (m mockRows) Columns() []string {
	return m.ColumnsFunc()
}

func (m mockRows) Close() error {
	return m.CloseFunc()
}

func (m mockRows) Next(dest []driver.Value) error {
	return m.NextFunc(dest)
}
