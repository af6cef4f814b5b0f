package core

import (
	"errors"
	"fmt"
)

var (
	// ErrEmptySource is returned when a source yields no rows at all.
	ErrEmptySource = errors.New("empty source: no rows found")

	// ErrImportInProgress is returned when another import holds the lock
	// longer than the configured wait.
	ErrImportInProgress = errors.New("import already in progress, please try again later")

	// ErrFetch wraps every failure to retrieve source text.
	ErrFetch = errors.New("fetch failed")

	// ErrTransaction wraps begin, delete and commit failures.
	ErrTransaction = errors.New("transaction failed")

	// ErrDuplicateFeed is the per-record error for a feed name that already exists.
	ErrDuplicateFeed = errors.New("duplicate feed name")

	// ErrUnsupportedSource is returned for file types no source can read.
	ErrUnsupportedSource = errors.New("unsupported source")
)

// Stage names the part of an import that failed fatally.
type Stage string

const (
	StageFetch       Stage = "fetch"
	StageParse       Stage = "parse"
	StageTransaction Stage = "transaction"
	StageCancelled   Stage = "cancelled"
)

// ImportError is a batch-fatal failure. No summary accompanies it and no
// partial writes survive it.
type ImportError struct {
	Stage Stage
	Err   error
}

func (e *ImportError) Error() string {
	return fmt.Sprintf("import %s: %v", e.Stage, e.Err)
}

func (e *ImportError) Unwrap() error { return e.Err }

func fatal(stage Stage, err error) *ImportError {
	return &ImportError{Stage: stage, Err: err}
}

// StageOf returns the stage of an ImportError in err's chain, or "".
func StageOf(err error) Stage {
	var ie *ImportError
	if errors.As(err, &ie) {
		return ie.Stage
	}
	return ""
}
