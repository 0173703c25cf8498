package decode

import (
	"errors"
	"fmt"
)

// Kind classifies a per-file load failure.
type Kind int

const (
	KindNotFound Kind = iota + 1
	KindUnreadable
	KindUnrecognizedFormat
	KindDecodeFailed
	KindNoFrames
)

func (k Kind) String() string {
	switch k {
	case KindNotFound:
		return "not found"
	case KindUnreadable:
		return "unreadable"
	case KindUnrecognizedFormat:
		return "unrecognized format"
	case KindDecodeFailed:
		return "decode failed"
	case KindNoFrames:
		return "no frames"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

var (
	ErrNotFound           = errors.New("file not found")
	ErrUnreadable         = errors.New("file unreadable")
	ErrUnrecognizedFormat = errors.New("unrecognized image format")
	ErrDecodeFailed       = errors.New("decode failed")
	ErrNoFrames           = errors.New("no valid frames")

	// ErrConsumed is returned when a handle is decoded a second time.
	ErrConsumed = errors.New("decoder handle already consumed")
)

func (k Kind) sentinel() error {
	switch k {
	case KindNotFound:
		return ErrNotFound
	case KindUnreadable:
		return ErrUnreadable
	case KindUnrecognizedFormat:
		return ErrUnrecognizedFormat
	case KindDecodeFailed:
		return ErrDecodeFailed
	case KindNoFrames:
		return ErrNoFrames
	}
	return nil
}

// LoadError describes why a file could not be turned into frames.
// It matches its kind's sentinel with errors.Is.
type LoadError struct {
	Kind Kind
	Path string
	Err  error
}

func (e *LoadError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: %s", e.Path, e.Kind)
	}
	return fmt.Sprintf("%s: %s: %v", e.Path, e.Kind, e.Err)
}

func (e *LoadError) Unwrap() error { return e.Err }

func (e *LoadError) Is(target error) bool {
	return target != nil && target == e.Kind.sentinel()
}

func loadError(kind Kind, path string, err error) *LoadError {
	return &LoadError{Kind: kind, Path: path, Err: err}
}
