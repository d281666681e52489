// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package relay

import (
	"errors"
	"fmt"

	"github.com/jeranaias/companion-tui/internal/util"
)

// =============================================================================
// ERROR TAXONOMY
// =============================================================================

var (
	// ErrBackendUnavailable means the backend could not be reached or
	// refused the request before producing any output.
	ErrBackendUnavailable = errors.New("backend unavailable")

	// ErrStreamInterrupted means the stream failed after it had started.
	ErrStreamInterrupted = errors.New("stream interrupted")

	// ErrMalformedFragment means a fragment's text could not be extracted.
	ErrMalformedFragment = errors.New("malformed fragment")
)

// Unavailable wraps cause as ErrBackendUnavailable.
func Unavailable(cause error) error {
	return wrap(ErrBackendUnavailable, cause)
}

// Interrupted wraps cause as ErrStreamInterrupted.
func Interrupted(cause error) error {
	return wrap(ErrStreamInterrupted, cause)
}

// Malformed wraps cause as ErrMalformedFragment.
func Malformed(cause error) error {
	return wrap(ErrMalformedFragment, cause)
}

func wrap(class, cause error) error {
	if cause == nil {
		return class
	}
	if errors.Is(cause, class) {
		return cause
	}
	return fmt.Errorf("%w: %w", class, cause)
}

// Classify names the failure class of err for display and logging.
// Returns "" for nil.
func Classify(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrBackendUnavailable):
		return "BackendUnavailable"
	case errors.Is(err, ErrStreamInterrupted):
		return "StreamInterrupted"
	case errors.Is(err, ErrMalformedFragment):
		return "MalformedFragment"
	default:
		return "Unknown"
	}
}

// Describe formats err as one line for the user, prefixed by its class.
func Describe(err error) string {
	if err == nil {
		return ""
	}
	msg := util.FirstLine(err.Error())
	switch Classify(err) {
	case "BackendUnavailable":
		return "Backend unavailable: " + msg
	case "StreamInterrupted":
		return "Reply interrupted: " + msg
	case "MalformedFragment":
		return "Unreadable reply: " + msg
	default:
		return msg
	}
}

// classified reports whether err already belongs to the taxonomy.
func classified(err error) bool {
	return errors.Is(err, ErrBackendUnavailable) ||
		errors.Is(err, ErrStreamInterrupted) ||
		errors.Is(err, ErrMalformedFragment)
}
