package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"net"

	"buildtrend/src/config"
	"buildtrend/src/fetch"
	"buildtrend/src/prow"
)

// UserError wraps errors with user-friendly messages
type UserError struct {
	Message string
	Hint    string
	Err     error
}

func (e *UserError) Error() string {
	msg := e.Message
	if e.Hint != "" {
		msg += "\n\nHint: " + e.Hint
	}
	if e.Err != nil {
		msg += fmt.Sprintf("\n\nDetails: %v", e.Err)
	}
	return msg
}

func (e *UserError) Unwrap() error {
	return e.Err
}

// WrapError converts fatal errors into user-friendly messages.
func WrapError(err error) error {
	if err == nil {
		return nil
	}

	var userErr *UserError
	if errors.As(err, &userErr) {
		return err
	}

	if errors.Is(err, config.ErrInvalid) {
		return &UserError{
			Message: "Invalid configuration",
			Hint:    "Check the flag, the BUILDTREND_* environment variable or the --config file that sets this value.",
			Err:     err,
		}
	}

	if errors.Is(err, context.Canceled) {
		return &UserError{
			Message: "Interrupted",
			Hint:    "Builds recorded before the interruption were saved. Run the command again to continue.",
			Err:     err,
		}
	}

	if errors.Is(err, fs.ErrNotExist) {
		return &UserError{
			Message: "File not found",
			Hint:    "Run 'buildtrend scrape' to create the build store, or point --store at an existing one.",
			Err:     err,
		}
	}

	if errors.Is(err, prow.ErrMissingTimestamp) {
		return &UserError{
			Message: "Job metadata is missing a timestamp",
			Hint:    "A successful run published finished.json or started.json without a timestamp. Narrow --pr-start/--pr-end to skip it.",
			Err:     err,
		}
	}

	var syntaxErr *json.SyntaxError
	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &syntaxErr) || errors.As(err, &typeErr) {
		return &UserError{
			Message: "Malformed JSON document",
			Hint:    "Either a job metadata file or the build store could not be decoded. The details name the file.",
			Err:     err,
		}
	}

	var httpErr *fetch.HTTPError
	if errors.As(err, &httpErr) {
		return &UserError{
			Message: fmt.Sprintf("Listing server answered %s", httpErr.Status),
			Hint:    "Check --base-url.",
			Err:     err,
		}
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		msg := "Could not reach the listing server"
		hint := "Check your network connection and --base-url."
		if netErr.Timeout() {
			msg = "Request to the listing server timed out"
			hint = "Raise --timeout or try again later."
		}
		return &UserError{Message: msg, Hint: hint, Err: err}
	}

	return err
}
