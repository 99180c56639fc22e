package quickdb

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidName     = errors.New("invalid instance name")
	ErrDeserialization = errors.New("stored value is not valid JSON")
	ErrNoArea          = errors.New("storage area is nil")
)

// DeserializationError reports a stored value that could not be decoded.
// For obfuscated instances this usually means the wrong key.
type DeserializationError struct {
	Instance string
	Key      string
	Err      error
}

func (e *DeserializationError) Error() string {
	return fmt.Sprintf("%s: %s/%s: %v", ErrDeserialization, e.Instance, e.Key, e.Err)
}

func (e *DeserializationError) Unwrap() error { return e.Err }

func (e *DeserializationError) Is(target error) bool {
	return target == ErrDeserialization
}
