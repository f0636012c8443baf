package session

import (
	"errors"
	"fmt"
)

var (
	// ErrNotAvailable means no valid API key has been configured.
	ErrNotAvailable = errors.New("assistant service not available: configure a valid OpenAI API key")

	// ErrNoAssistant is returned when an operation needs a selected assistant.
	ErrNoAssistant = errors.New("no assistant selected")

	// ErrSendInFlight is returned when a send is attempted before the previous
	// stream was drained or closed.
	ErrSendInFlight = errors.New("a message is already being sent")
)

// RemoteError wraps a failed call to the OpenAI API.
type RemoteError struct {
	Op  string
	Err error
}

func (e *RemoteError) Error() string {
	return fmt.Sprintf("failed to %s: %v", e.Op, e.Err)
}

func (e *RemoteError) Unwrap() error { return e.Err }

// StorageError wraps a failed local persistence call.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("failed to %s: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error { return e.Err }

func remoteErr(op string, err error) error {
	if err == nil {
		return nil
	}
	return &RemoteError{Op: op, Err: err}
}

func storageErr(op string, err error) error {
	if err == nil {
		return nil
	}
	return &StorageError{Op: op, Err: err}
}
