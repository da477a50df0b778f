package sql

import (
	"fmt"
	"strings"
)

type (
	// QueryFunction is a db Query that reads the rows returned by a stored function.
	QueryFunction struct {
		name      string
		cols      []string
		arguments []interface{}
	}

	// ExecFunction is a db Query that changes data with a stored function.
	ExecFunction struct {
		name      string
		arguments []interface{}
	}

	// Statement is a db Query with positional arguments for databases without stored functions.
	// When executed, it must change exactly one row.
	Statement struct {
		cmd       string
		arguments []interface{}
	}

	// RawQuery is a db Query that changes data and has no arguments.
	RawQuery string
)

// NewQueryFunction creates a Query to call a query function.
func NewQueryFunction(name string, cols []string, args ...interface{}) QueryFunction {
	q := QueryFunction{
		name:      name,
		cols:      cols,
		arguments: args,
	}
	return q
}

// NewExecFunction creates a Query to call an exec function.
func NewExecFunction(name string, args ...interface{}) ExecFunction {
	e := ExecFunction{
		name:      name,
		arguments: args,
	}
	return e
}

// NewStatement creates a Query from a command that uses "?" placeholders for the arguments.
func NewStatement(cmd string, args ...interface{}) Statement {
	s := Statement{
		cmd:       cmd,
		arguments: args,
	}
	return s
}

// Cmd returns a SQL string to execute the function with arguments.
func (q QueryFunction) Cmd() string {
	return fmt.Sprintf("SELECT %s FROM %s(%s)", strings.Join(q.cols, ", "), q.name, argIndexes(len(q.arguments)))
}

// Cmd returns a SQL string to execute the function with arguments.
func (e ExecFunction) Cmd() string {
	return fmt.Sprintf("SELECT %s(%s)", e.name, argIndexes(len(e.arguments)))
}

// Cmd returns the SQL command of the statement.
func (s Statement) Cmd() string {
	return s.cmd
}

// Cmd returns the raw SQL query.
func (r RawQuery) Cmd() string {
	return string(r)
}

// Args returns the arguments for the query function.
func (q QueryFunction) Args() []interface{} {
	return q.arguments
}

// Args returns the arguments for the exec function.
func (e ExecFunction) Args() []interface{} {
	return e.arguments
}

// Args returns the arguments for the statement.
func (s Statement) Args() []interface{} {
	return s.arguments
}

// Args returns nil for the raw SQL query.
func (RawQuery) Args() []interface{} {
	return nil
}

// argIndexes creates the numbered placeholders of function arguments: "$1, $2, ..."
func argIndexes(n int) string {
	indexes := make([]string, n)
	for i := range indexes {
		indexes[i] = fmt.Sprintf("$%d", i+1)
	}
	return strings.Join(indexes, ", ")
}

// singleRow determines if the query must change exactly one row when executed, returning its name.
func singleRow(q Query) (string, bool) {
	switch q := q.(type) {
	case ExecFunction:
		return q.name, true
	case Statement:
		return q.cmd, true
	}
	return "", false
}
