// Error Codes Reference
//
// This file defines user-friendly error messages with codes for support reference.
// When a run fails, operators can quote the error code from the run ledger or the
// API response for faster diagnosis.
//
// # Validation Errors (VAL001-VAL099)
//
//	VAL004 - Missing column: Required column is missing from the header
//	         Action: Check that Age, Income, Employed, CreditScore and LoanAmount are present
//	         Patterns: "missing required column"
//
// # File Errors (FILE001-FILE099)
//
//	FILE001 - File too large: Request body exceeds the configured size limit
//	          Action: Validate the file through a pipeline run instead
//	          Patterns: "request body too large"
//
//	FILE002 - Invalid CSV: File is not a valid CSV
//	          Action: Ensure file is comma-separated with balanced quotes
//	          Patterns: "invalid csv"
//
//	FILE003 - Bad encoding: File is not UTF-8 encoded
//	          Action: Re-export the dataset as UTF-8
//	          Patterns: "invalid utf-8"
//
//	FILE005 - Empty file: The input file has no rows
//	          Action: Publish a dataset with at least one row
//	          Patterns: "empty file"
//
// # Storage Errors (STG001-STG099)
//
//	STG001 - Not staged: An expected file is missing from the staging area
//	         Action: Re-run the pipeline from the download step
//	         Patterns: "not staged"
//
//	STG002 - Object not found: The input object does not exist
//	         Action: Check GCS_BUCKET and INPUT_FILE_PATH
//	         Patterns: "object not found"
//
//	STG003 - Permission denied: The storage credentials lack access
//	         Action: Grant read/write access on the bucket to the runtime identity
//	         Patterns: "permission denied"
//
//	STG004 - Storage unavailable: The storage service failed transiently
//	         Action: Trigger the run again; failed operations are not retried
//	         Patterns: "transient storage error"
//
// # Run Errors (RUN001-RUN099)
//
//	RUN001 - Busy: A run is already in progress
//	         Action: Wait for the active run to finish
//	         Patterns: "run already in progress"
//
//	RUN002 - Run not found: No run with this ID was recorded
//	         Action: List runs to find a valid ID
//	         Patterns: "run not found"
//
//	RUN003 - Cancelled: The run or request was cancelled
//	         Patterns: "context canceled"
//
//	RUN004 - Timeout: The run or request timed out
//	         Patterns: "context deadline exceeded"
//
// # Default Error (ERR000)
//
//	ERR000 - Unknown error: An unexpected error occurred
//	         Action: Check the application logs for the run ID
//
// # Pattern Matching
//
// Error patterns are matched case-insensitively using strings.Contains.
// The first matching pattern wins, so more specific patterns should be
// defined before general ones.

package core

import (
	"fmt"
	"strings"
)

// UserMessage provides user-friendly error information with actionable guidance.
type UserMessage struct {
	Message string // What happened (user-friendly)
	Action  string // What to do about it
	Code    string // Error code for support reference
}

// errorPattern defines a pattern to match and its corresponding user message.
type errorPattern struct {
	pattern string
	msg     UserMessage
}

// errorPatterns maps technical error patterns (case-insensitive) to user messages.
// The first matching pattern wins, so order matters.
var errorPatterns = []errorPattern{
	// =========================================================================
	// Validation and file errors
	// =========================================================================
	{
		pattern: "missing required column",
		msg: UserMessage{
			Message: "Required column is missing from the header",
			Action:  "Check that Age, Income, Employed, CreditScore and LoanAmount are present",
			Code:    "VAL004",
		},
	},
	{
		pattern: "request body too large",
		msg: UserMessage{
			Message: "File exceeds the maximum size limit",
			Action:  "Validate the file through a pipeline run instead",
			Code:    "FILE001",
		},
	},
	{
		pattern: "invalid csv",
		msg: UserMessage{
			Message: "File is not a valid CSV",
			Action:  "Ensure file is comma-separated with balanced quotes",
			Code:    "FILE002",
		},
	},
	{
		pattern: "invalid utf-8",
		msg: UserMessage{
			Message: "File is not UTF-8 encoded",
			Action:  "Re-export the dataset as UTF-8",
			Code:    "FILE003",
		},
	},
	{
		pattern: "empty file",
		msg: UserMessage{
			Message: "The input file has no rows",
			Action:  "Publish a dataset with at least one row",
			Code:    "FILE005",
		},
	},

	// =========================================================================
	// Storage errors
	// =========================================================================
	{
		pattern: "not staged",
		msg: UserMessage{
			Message: "An expected file is missing from the staging area",
			Action:  "Re-run the pipeline from the download step",
			Code:    "STG001",
		},
	},
	{
		pattern: "object not found",
		msg: UserMessage{
			Message: "The input object does not exist",
			Action:  "Check GCS_BUCKET and INPUT_FILE_PATH",
			Code:    "STG002",
		},
	},
	{
		pattern: "permission denied",
		msg: UserMessage{
			Message: "The storage credentials lack access",
			Action:  "Grant read/write access on the bucket to the runtime identity",
			Code:    "STG003",
		},
	},
	{
		pattern: "transient storage error",
		msg: UserMessage{
			Message: "The storage service failed",
			Action:  "Trigger the run again; failed operations are not retried",
			Code:    "STG004",
		},
	},

	// =========================================================================
	// Run errors
	// =========================================================================
	{
		pattern: "run already in progress",
		msg: UserMessage{
			Message: "A run is already in progress",
			Action:  "Wait for the active run to finish",
			Code:    "RUN001",
		},
	},
	{
		pattern: "run not found",
		msg: UserMessage{
			Message: "Run not found",
			Action:  "List runs to find a valid ID",
			Code:    "RUN002",
		},
	},
	{
		pattern: "context canceled",
		msg: UserMessage{
			Message: "The run was cancelled",
			Action:  "Trigger a new run when ready",
			Code:    "RUN003",
		},
	},
	{
		pattern: "context deadline exceeded",
		msg: UserMessage{
			Message: "The run timed out",
			Action:  "Check storage connectivity and try again",
			Code:    "RUN004",
		},
	},
}

// defaultMessage is returned when no pattern matches (ERR000).
var defaultMessage = UserMessage{
	Message: "An unexpected error occurred",
	Action:  "Check the application logs for the run ID",
	Code:    "ERR000",
}

// MapError converts a technical error to a user-friendly message.
// It searches through known error patterns (case-insensitive) and returns
// the first match. If no pattern matches, a generic fallback message with
// code ERR000 is returned.
//
// Example:
//
//	_, err := v.ValidateString("")
//	msg := MapError(err)
//	// msg.Code == "FILE005"
func MapError(err error) UserMessage {
	if err == nil {
		return UserMessage{}
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

// IsUserFacing reports whether err matches a known pattern, as opposed to
// the generic ERR000 fallback.
func IsUserFacing(err error) bool {
	if err == nil {
		return false
	}
	return MapError(err).Code != defaultMessage.Code
}
