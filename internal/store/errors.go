package store

import "fmt"

// ValidationError reports malformed input: an unknown entry type, empty
// content, or a bad polarity. The field and offending value are carried so
// the operator can self-correct.
type ValidationError struct {
	Field  string
	Value  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s %q: %s", e.Field, e.Value, e.Reason)
}

// NotFoundError reports a referenced entry id that is absent from the store,
// or present but not of the kind the operation expects.
type NotFoundError struct {
	ID   string
	Want EntryType // zero value means any type
}

func (e *NotFoundError) Error() string {
	if e.Want != "" {
		return fmt.Sprintf("entry %s: no %s with that id", e.ID, e.Want)
	}
	return fmt.Sprintf("entry %s: not found", e.ID)
}

// InvalidStateError reports an operation that is illegal for an entry's
// current lifecycle state, e.g. evolving a resolved curiosity.
type InvalidStateError struct {
	ID    string
	State Status
	Op    string
}

func (e *InvalidStateError) Error() string {
	return fmt.Sprintf("entry %s: cannot %s in state %s", e.ID, e.Op, e.State)
}

// MarkerNotFoundError reports a missing injection marker in the bootstrap
// document. Injection never creates markers itself.
type MarkerNotFoundError struct {
	Marker string
}

func (e *MarkerNotFoundError) Error() string {
	return fmt.Sprintf("marker %q not found in document", e.Marker)
}

// CorruptError reports a store file that exists but fails to parse. It is
// surfaced immediately; the store is never silently reset to empty.
type CorruptError struct {
	Path string
	Err  error
}

func (e *CorruptError) Error() string {
	return fmt.Sprintf("store %s: corrupt: %v", e.Path, e.Err)
}

func (e *CorruptError) Unwrap() error { return e.Err }
