package funcs

import (
	"github.com/cockroachdb/errors"
)

var (
	// ErrNoFunctionCall is returned when the model response carries no
	// function call to dispatch.
	ErrNoFunctionCall = errors.New("no function call in response")

	// ErrResponseParse is returned when the function call arguments are
	// not valid JSON for the argument type.
	ErrResponseParse = errors.New("failed to parse function call arguments")

	// ErrInvalidArguments is returned when the arguments parse but fail
	// validation constraints.
	ErrInvalidArguments = errors.New("invalid function arguments")
)
