package telegram

import (
	"errors"
	"fmt"
)

// Kind classifies why a send failed.
type Kind int

const (
	// KindNetwork covers transport errors and non-2xx HTTP statuses.
	KindNetwork Kind = iota + 1
	// KindResponseParse means the response body was not valid JSON.
	KindResponseParse
	// KindAPI means the API answered with ok=false (or without ok).
	KindAPI
)

func (k Kind) String() string {
	switch k {
	case KindNetwork:
		return "network"
	case KindResponseParse:
		return "response_parse"
	case KindAPI:
		return "api"
	default:
		return "unknown"
	}
}

// fallbackDescription is used when the API reports failure without a description.
const fallbackDescription = "unknown error"

// ErrEmptyMessage is returned before any network I/O when the text is blank.
var ErrEmptyMessage = errors.New("message text is required")

// Error is the failure returned by SendMessage once a request has been attempted.
type Error struct {
	Kind Kind
	// StatusCode is set for non-2xx responses.
	StatusCode int
	// Description carries the API-provided description for KindAPI, or the
	// response body for non-2xx statuses.
	Description string
	Err         error
}

func (e *Error) Error() string {
	switch e.Kind {
	case KindNetwork:
		if e.StatusCode != 0 {
			return fmt.Sprintf("telegram API error (status %d): %s", e.StatusCode, e.Description)
		}
		return fmt.Sprintf("sending request: %v", e.Err)
	case KindResponseParse:
		return fmt.Sprintf("parsing response: %v", e.Err)
	case KindAPI:
		return fmt.Sprintf("telegram API error: %s", e.Description)
	default:
		return fmt.Sprintf("telegram error: %v", e.Err)
	}
}

func (e *Error) Unwrap() error {
	return e.Err
}

// KindOf returns the Kind of err, or 0 if err is not an *Error.
func KindOf(err error) Kind {
	var te *Error
	if errors.As(err, &te) {
		return te.Kind
	}
	return 0
}
