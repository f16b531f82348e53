package solr

import "errors"

// Sentinel errors for search engine operations.
var (
	// ErrEngineUnavailable signals that the engine or one of its cores cannot be used.
	ErrEngineUnavailable = errors.New("solr: engine unavailable")
	// ErrCoreExists is returned by CreateCore for a name already in use.
	ErrCoreExists = errors.New("solr: core already exists")
	// ErrCoreNotFound is returned by operations on a client bound to no core.
	ErrCoreNotFound = errors.New("solr: core not found")
	// ErrInvalidCoreName is returned for names that cannot be used as a core directory.
	ErrInvalidCoreName = errors.New("solr: invalid core name")
	// ErrInvalidRecord is returned by Submit for records that cannot be indexed.
	ErrInvalidRecord = errors.New("solr: invalid record")
)

// Op names used in Error for diagnostics.
const (
	OpCreateCore = "create core"
	OpOpenCore   = "open core"
	OpSubmit     = "submit"
	OpReplace    = "replace"
	OpCommit     = "commit"
	OpQuery      = "query"
	OpDelete     = "delete"
)

// Error wraps an engine failure with the operation and core it happened on.
// It matches both ErrEngineUnavailable and the underlying error.
type Error struct {
	Op   string
	Core string
	Err  error
}

func (e *Error) Error() string {
	if e.Core == "" {
		return "solr: " + e.Op + ": " + e.Err.Error()
	}
	return "solr: " + e.Op + " " + e.Core + ": " + e.Err.Error()
}

func (e *Error) Unwrap() []error { return []error{ErrEngineUnavailable, e.Err} }

func wrap(op, core string, err error) error {
	if err == nil {
		return nil
	}
	return &Error{Op: op, Core: core, Err: err}
}
