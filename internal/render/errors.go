package render

import "errors"

// Recoverable per-record failures. The day orchestrator matches these with
// errors.Is to skip-and-log the offending record and keep going; anything
// else aborts the conversation.
var (
	// ErrUnknownLogKind flags a record whose kind is not "message".
	ErrUnknownLogKind = errors.New("unknown log kind")

	// ErrUnknownLogSubtype flags a subtype outside the recognized set.
	ErrUnknownLogSubtype = errors.New("unknown log subtype")
)
