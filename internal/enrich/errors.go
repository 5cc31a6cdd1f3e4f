package enrich

import "errors"

// Kind classifies why a categorization failed.
type Kind string

const (
	KindInvalidRequest Kind = "invalid_request"
	KindPrompt         Kind = "prompt"
	KindProvider       Kind = "provider"
	KindParse          Kind = "parse"
)

// Sentinels for errors.Is. An *Error matches the sentinel of its Kind.
var (
	ErrInvalidRequest = errors.New("request must be JSON")
	ErrPrompt         = errors.New("prompt construction failed")
	ErrProvider       = errors.New("model provider failed")
	ErrParse          = errors.New("model response is not valid JSON")
)

var sentinels = map[Kind]error{
	KindInvalidRequest: ErrInvalidRequest,
	KindPrompt:         ErrPrompt,
	KindProvider:       ErrProvider,
	KindParse:          ErrParse,
}

// Error is the failure returned by Gateway.Categorize. Its message is the
// underlying cause, which is what clients see in the error body.
type Error struct {
	Kind Kind
	Err  error
}

func (e *Error) Error() string {
	return e.Err.Error()
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is lets errors.Is(err, ErrProvider) and friends match on Kind.
func (e *Error) Is(target error) bool {
	return sentinels[e.Kind] == target
}

// KindOf returns the Kind of err, or "" when err is not an *Error.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}
