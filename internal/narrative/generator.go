package narrative

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strings"
)

// Generator turns a Request into prose. Implementations make one attempt and
// never retry; failures are reported as *GenerationError.
type Generator interface {
	Generate(ctx context.Context, req Request) (string, error)
}

// Kind classifies a generation failure.
type Kind string

const (
	KindUnauthorized      Kind = "unauthorized"
	KindMalformedResponse Kind = "malformed_response"
	KindTimeout           Kind = "timeout"
	KindNetwork           Kind = "network"
)

// UserMessage is the text shown to a person when generation fails.
func (k Kind) UserMessage() string {
	switch k {
	case KindUnauthorized:
		return "The summary service rejected the configured API key. Check the narrative API token and try again."
	case KindMalformedResponse:
		return "The summary service returned a response that could not be read. Please try again later."
	case KindTimeout:
		return "The summary service took too long to respond. Please try again."
	default:
		return "The summary service could not be reached. Check your network connection and try again."
	}
}

// GenerationError is the error returned by every Generator.
type GenerationError struct {
	Kind Kind
	Err  error
}

func (e *GenerationError) Error() string {
	if e.Err == nil {
		return "narrative " + string(e.Kind)
	}
	return fmt.Sprintf("narrative %s: %v", e.Kind, e.Err)
}

func (e *GenerationError) Unwrap() error {
	return e.Err
}

func newError(kind Kind, err error) error {
	return &GenerationError{Kind: kind, Err: err}
}

// KindOf extracts the failure kind from err, defaulting to KindNetwork for
// errors that did not come from a Generator.
func KindOf(err error) Kind {
	var gerr *GenerationError
	if errors.As(err, &gerr) {
		return gerr.Kind
	}
	return classify(err)
}

// classify maps a transport-level error onto a Kind.
func classify(err error) Kind {
	if errors.Is(err, context.DeadlineExceeded) {
		return KindTimeout
	}
	var nerr net.Error
	if errors.As(err, &nerr) {
		if nerr.Timeout() {
			return KindTimeout
		}
		return KindNetwork
	}
	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "401"), strings.Contains(msg, "403"),
		strings.Contains(msg, "unauthorized"), strings.Contains(msg, "invalid api key"),
		strings.Contains(msg, "incorrect api key"):
		return KindUnauthorized
	case strings.Contains(msg, "timeout"), strings.Contains(msg, "deadline exceeded"):
		return KindTimeout
	}
	return KindNetwork
}
