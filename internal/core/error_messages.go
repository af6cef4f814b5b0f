package core

// error_messages.go maps import errors to user-facing messages with codes.
//
// Users quote the code to support staff; the technical error stays in the
// logs. Sentinel errors are matched with errors.Is first, then raw driver
// messages are matched by substring.
//
// # Source Errors (FETCH, SRC)
//
//	FETCH001 - The spreadsheet could not be downloaded
//	           Action: Check that the link is shared for viewing and try again
//	SRC001   - The source contains no rows
//	           Action: Check that the sheet has a header row and data
//	SRC002   - Unsupported file type
//	           Action: Upload a .csv or .xlsx file
//
// # Persistence Errors (TX, DB)
//
//	TX001 - The import transaction failed and nothing was saved
//	        Action: Please try again; contact support if it persists
//	DB001 - A feed with this name already exists
//	        Action: Rename the feed or import with replace enabled
//	DB002 - Unable to connect to database
//	        Action: Please try again in a few moments
//	DB003 - Database was busy with conflicting operations
//	        Action: Please try again
//
// # Import Control (LOCK, IMP)
//
//	LOCK001 - Another import is running
//	          Action: Wait for it to finish and try again
//	IMP001  - The import was cancelled
//	          Action: Start a new import when ready
//	IMP002  - The import timed out
//	          Action: Try a smaller sheet or try again later
//
// # Default Error (ERR000)
//
//	ERR000 - An unexpected error occurred; check application logs.

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// UserMessage provides user-friendly error information with actionable guidance.
type UserMessage struct {
	Message string `json:"message"`
	Action  string `json:"action"`
	Code    string `json:"code"`
}

var (
	msgFetch = UserMessage{
		Message: "The spreadsheet could not be downloaded",
		Action:  "Check that the link is shared for viewing and try again",
		Code:    "FETCH001",
	}
	msgEmpty = UserMessage{
		Message: "The source contains no rows",
		Action:  "Check that the sheet has a header row and data",
		Code:    "SRC001",
	}
	msgUnsupported = UserMessage{
		Message: "Unsupported file type",
		Action:  "Upload a .csv or .xlsx file",
		Code:    "SRC002",
	}
	msgTransaction = UserMessage{
		Message: "The import transaction failed and nothing was saved",
		Action:  "Please try again; contact support if it persists",
		Code:    "TX001",
	}
	msgDuplicate = UserMessage{
		Message: "A feed with this name already exists",
		Action:  "Rename the feed or import with replace enabled",
		Code:    "DB001",
	}
	msgConnection = UserMessage{
		Message: "Unable to connect to database",
		Action:  "Please try again in a few moments",
		Code:    "DB002",
	}
	msgBusy = UserMessage{
		Message: "Database was busy with conflicting operations",
		Action:  "Please try again",
		Code:    "DB003",
	}
	msgLocked = UserMessage{
		Message: "Another import is running",
		Action:  "Wait for it to finish and try again",
		Code:    "LOCK001",
	}
	msgCancelled = UserMessage{
		Message: "The import was cancelled",
		Action:  "Start a new import when ready",
		Code:    "IMP001",
	}
	msgTimeout = UserMessage{
		Message: "The import timed out",
		Action:  "Try a smaller sheet or try again later",
		Code:    "IMP002",
	}
)

// sentinelMessages is checked in order with errors.Is. Specific errors come
// before the wrappers that may carry them: a duplicate inside a
// transaction error still reports DB001.
var sentinelMessages = []struct {
	target error
	msg    UserMessage
}{
	{ErrDuplicateFeed, msgDuplicate},
	{ErrImportInProgress, msgLocked},
	{ErrEmptySource, msgEmpty},
	{ErrUnsupportedSource, msgUnsupported},
	{context.Canceled, msgCancelled},
	{context.DeadlineExceeded, msgTimeout},
	{ErrFetch, msgFetch},
	{ErrTransaction, msgTransaction},
}

// errorPatterns maps raw driver messages (case-insensitive) to user messages.
// The first matching pattern wins.
var errorPatterns = []struct {
	pattern string
	msg     UserMessage
}{
	{"duplicate key", msgDuplicate},
	{"unique constraint", msgDuplicate},
	{"connection refused", msgConnection},
	{"connection reset", msgConnection},
	{"database is locked", msgBusy},
	{"deadlock", msgBusy},
	{"timeout", msgTimeout},
}

// defaultMessage is returned when nothing matches (ERR000).
var defaultMessage = UserMessage{
	Message: "An unexpected error occurred",
	Action:  "Please try again or contact support",
	Code:    "ERR000",
}

// MapError converts a technical error to a user-friendly message.
// Returns the zero UserMessage for a nil error.
func MapError(err error) UserMessage {
	if err == nil {
		return UserMessage{}
	}

	for _, s := range sentinelMessages {
		if errors.Is(err, s.target) {
			return s.msg
		}
	}

	errStr := strings.ToLower(err.Error())
	for _, ep := range errorPatterns {
		if strings.Contains(errStr, ep.pattern) {
			return ep.msg
		}
	}

	return defaultMessage
}

// FormatUserError creates a formatted error string for display.
// The format is: "Message (Code: XXX). Action"
func FormatUserError(err error) string {
	msg := MapError(err)
	if msg.Message == "" {
		return ""
	}
	return fmt.Sprintf("%s (Code: %s). %s", msg.Message, msg.Code, msg.Action)
}

// IsUserFacing reports whether err maps to a specific message rather than
// the ERR000 fallback.
func IsUserFacing(err error) bool {
	if err == nil {
		return false
	}
	return MapError(err).Code != defaultMessage.Code
}
