package database

import "errors"

// ErrNoConnection is carried by results produced while the store has no live
// database handle.
var ErrNoConnection = errors.New("database: no live connection")

// StatementKind tells ExecuteQuery how to run a statement.
type StatementKind int

const (
	// Read statements return their result set.
	Read StatementKind = iota
	// Write statements run in a transaction that is committed on success.
	Write
)

func (k StatementKind) String() string {
	switch k {
	case Read:
		return "read"
	case Write:
		return "write"
	}
	return "unknown"
}

type ResultKind int

const (
	KindFailure ResultKind = iota
	KindRows
	KindSuccess
)

func (k ResultKind) String() string {
	switch k {
	case KindRows:
		return "rows"
	case KindSuccess:
		return "success"
	}
	return "failure"
}

// Record is one result row keyed by column name.
type Record map[string]any

// Result is the outcome of a store operation. Exactly one of the following
// holds: Kind is KindRows and Rows/Columns describe the result set, Kind is
// KindSuccess and RowsAffected counts the written rows, or Kind is
// KindFailure and Err says why.
type Result struct {
	Kind         ResultKind
	Columns      []string
	Rows         []Record
	RowsAffected int64
	Err          error
}

// OK reports whether the operation succeeded. An empty result set is OK.
func (r Result) OK() bool {
	return r.Kind != KindFailure
}

func failed(err error) Result {
	return Result{Kind: KindFailure, Err: err}
}

// Statement is a query and its positional arguments.
type Statement struct {
	Query string
	Args  []any
}

// Stmt builds a Statement.
func Stmt(query string, args ...any) Statement {
	return Statement{Query: query, Args: args}
}
