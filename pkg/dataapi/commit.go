package dataapi

import "context"

// Committer submits a unit of work as one atomic batch.
//
// Commit returns a *CommitError only when the backend rejects the batch as a whole.
// Per intent failures are entries of the result set, not errors.
type Committer interface {
	Commit(ctx context.Context, uow *UnitOfWork) (CommitResultSet, error)
}

// CommitResult outcome of one intent
type CommitResult struct {
	ID     string
	Errors []string
}

// OK reports whether the intent was created.
func (r CommitResult) OK() bool {
	return r.ID != "" && len(r.Errors) == 0
}

// CommitResultSet per intent outcomes keyed by handle.
// A missing entry means the intent failed.
type CommitResultSet map[Ref]CommitResult

// Get looks up the result of ref.
func (s CommitResultSet) Get(ref Ref) (CommitResult, bool) {
	r, ok := s[ref]
	return r, ok
}
