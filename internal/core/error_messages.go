package core

// error_messages.go maps technical errors to user-friendly messages with
// codes for support reference.
//
// # File Errors (FILE001-FILE099)
//
//	FILE001 - File too large: input exceeds the configured size limit
//	FILE002 - Invalid CSV: no header line could be found
//	FILE003 - Encoding error: input is not valid UTF-8
//	FILE004 - No file: request carried no input
//	FILE005 - Empty file: input has no content
//	FILE006 - Not found: the named file does not exist
//	FILE007 - Invalid delimiter: delimiter contains a line break
//
// # Job Errors (JOB001-JOB099)
//
//	JOB001 - System busy: all job slots are taken
//	JOB002 - Request cancelled
//	JOB003 - Request timeout
//
// # Rate Limiting (RATE001-RATE099)
//
//	RATE001 - Too many requests
//
// # Default Error (ERR000)
//
//	ERR000 - Unknown error: check the server log for the technical error
//
// Typed errors are matched first with errors.Is/errors.As, so wrapping with
// %w never changes the code. Anything else falls through to case-insensitive
// substring patterns; the first match wins.

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/JonMunkholm/fileparse/internal/csvparse"
	"github.com/JonMunkholm/fileparse/internal/textio"
)

// UserMessage provides user-friendly error information with actionable guidance.
type UserMessage struct {
	Message string // What happened (user-friendly)
	Action  string // What to do about it
	Code    string // Error code for support reference
}

var (
	msgTooLarge = UserMessage{
		Message: "File exceeds maximum size limit",
		Action:  "Split the file into smaller chunks",
		Code:    "FILE001",
	}
	msgInvalidCSV = UserMessage{
		Message: "File is not a valid CSV",
		Action:  "Ensure the first non-blank line is a delimiter-separated header",
		Code:    "FILE002",
	}
	msgEncoding = UserMessage{
		Message: "File contains invalid characters",
		Action:  "Save file as UTF-8 encoding",
		Code:    "FILE003",
	}
	msgNoFile = UserMessage{
		Message: "No file was provided",
		Action:  "Attach a file or send the content as the request body",
		Code:    "FILE004",
	}
	msgEmptyFile = UserMessage{
		Message: "The file is empty",
		Action:  "Provide a file with a header line",
		Code:    "FILE005",
	}
	msgNotFound = UserMessage{
		Message: "File not found",
		Action:  "Check the path and try again",
		Code:    "FILE006",
	}
	msgDelimiter = UserMessage{
		Message: "Invalid delimiter",
		Action:  "Choose a delimiter without line breaks, such as , ; or a tab",
		Code:    "FILE007",
	}
	msgBusy = UserMessage{
		Message: "Too many jobs in progress",
		Action:  "Please wait a moment and try again",
		Code:    "JOB001",
	}
	msgCancelled = UserMessage{
		Message: "Request was cancelled",
		Action:  "Please try again",
		Code:    "JOB002",
	}
	msgTimeout = UserMessage{
		Message: "Request timed out",
		Action:  "Try a smaller file or try again later",
		Code:    "JOB003",
	}
	msgRateLimited = UserMessage{
		Message: "Too many requests",
		Action:  "Please wait a moment before trying again",
		Code:    "RATE001",
	}
	msgDefault = UserMessage{
		Message: "An unexpected error occurred",
		Action:  "Please try again or contact support",
		Code:    "ERR000",
	}
)

// typedMatchers are checked in order before any string pattern.
var typedMatchers = []struct {
	match func(error) bool
	msg   UserMessage
}{
	{func(err error) bool { return errors.Is(err, ErrNoInput) }, msgNoFile},
	{func(err error) bool { return errors.Is(err, ErrEmptyInput) }, msgEmptyFile},
	{func(err error) bool { return errors.Is(err, textio.ErrTooLarge) }, msgTooLarge},
	{func(err error) bool { var e *textio.NotFoundError; return errors.As(err, &e) }, msgNotFound},
	{func(err error) bool { var e *textio.EncodingError; return errors.As(err, &e) }, msgEncoding},
	{func(err error) bool { return errors.Is(err, csvparse.ErrInvalidDelimiter) }, msgDelimiter},
	{func(err error) bool { var e *csvparse.FormatError; return errors.As(err, &e) }, msgInvalidCSV},
	{func(err error) bool { return errors.Is(err, ErrTooManyJobs) }, msgBusy},
	{func(err error) bool { return errors.Is(err, context.DeadlineExceeded) }, msgTimeout},
	{func(err error) bool { return errors.Is(err, context.Canceled) }, msgCancelled},
}

// errorPatterns maps technical error substrings (lower-case) to user messages.
// More specific patterns come before general ones.
var errorPatterns = []struct {
	pattern string
	msg     UserMessage
}{
	{"rate limit", msgRateLimited},
	{"file too large", msgTooLarge},
	{"request body too large", msgTooLarge},
	{"encoding error", msgEncoding},
	{"invalid csv", msgInvalidCSV},
	{"no file provided", msgNoFile},
	{"empty file", msgEmptyFile},
	{"file not found", msgNotFound},
	{"too many concurrent jobs", msgBusy},
	{"context canceled", msgCancelled},
	{"context deadline exceeded", msgTimeout},
	{"timeout", msgTimeout},
}

// MapError converts a technical error to a user-friendly message.
// Returns an empty UserMessage for a nil error.
func MapError(err error) UserMessage {
	if err == nil {
		return UserMessage{}
	}

	for _, m := range typedMatchers {
		if m.match(err) {
			return m.msg
		}
	}

	lower := strings.ToLower(err.Error())
	for _, p := range errorPatterns {
		if strings.Contains(lower, p.pattern) {
			return p.msg
		}
	}

	return msgDefault
}

// FormatUserError formats err for display as "Message (Code: XXX). Action".
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
	return MapError(err).Code != msgDefault.Code
}

// UserError pairs a technical error with its user-facing message.
// Error returns the user message; Unwrap returns the technical error.
type UserError struct {
	Technical error
	User      UserMessage
}

func (e *UserError) Error() string {
	return e.User.Message
}

func (e *UserError) Unwrap() error {
	return e.Technical
}

// NewUserError maps err to a *UserError. Returns nil if err is nil.
func NewUserError(err error) *UserError {
	if err == nil {
		return nil
	}
	return &UserError{
		Technical: err,
		User:      MapError(err),
	}
}
