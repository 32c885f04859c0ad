package service

import (
	"context"
	"errors"
	"fmt"
	neturl "net/url"
	"strings"
	"syscall"

	"google.golang.org/api/googleapi"
)

type errTmpIf interface{ Temporary() bool }
type errTmp struct{ error }

func (t errTmp) Temporary() bool    { return true }
func (t *errTmp) Unwrap() error     { return t.error }
func MakeTemporary(err error) error { return &errTmp{err} }

// Temporary inspects the error trace and returns whether the error is transient
func Temporary(err error) bool {
	var uerr *neturl.Error
	if errors.As(err, &uerr) {
		err = uerr.Err
	}

	//First override some default syscall temporary statuses
	var errno syscall.Errno
	if errors.As(err, &errno) {
		switch errno {
		case syscall.EIO, syscall.EBUSY, syscall.ECANCELED, syscall.ECONNABORTED, syscall.ECONNRESET, syscall.ENOMEM, syscall.EPIPE:
			return true
		}
	}

	//first check explicitely marked error
	var tmp errTmpIf
	if errors.As(err, &tmp) {
		return tmp.Temporary()
	}
	var gapiError *googleapi.Error
	if errors.As(err, &gapiError) {
		return gapiError.Code == 429 || gapiError.Code == 500
	}
	if errors.Is(err, context.Canceled) {
		return true
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	return false
}

// ErrNotFound is returned by the remote services when a resource does not exist
type ErrNotFound struct {
	Type, ID string
}

func (e ErrNotFound) Error() string {
	return fmt.Sprintf("%s not found: %s", e.Type, e.ID)
}

// ErrAlreadyExists is returned by the remote services when a resource id is already used
type ErrAlreadyExists struct {
	Type, ID string
}

func (e ErrAlreadyExists) Error() string {
	return fmt.Sprintf("%s already exists: %s", e.Type, e.ID)
}

// IsNotFound returns true if the error trace contains an ErrNotFound
func IsNotFound(err error) bool {
	var enf ErrNotFound
	return errors.As(err, &enf)
}

// IsAlreadyExists returns true if the error trace contains an ErrAlreadyExists
func IsAlreadyExists(err error) bool {
	var eae ErrAlreadyExists
	return errors.As(err, &eae)
}

// ErrJobFailed is returned when a remote asynchronous job terminates without success
type ErrJobFailed struct {
	Kind, ID string
	Messages []string
}

func (e ErrJobFailed) Error() string {
	if len(e.Messages) == 0 {
		return fmt.Sprintf("%s job %s failed", e.Kind, e.ID)
	}
	return fmt.Sprintf("%s job %s failed: %s", e.Kind, e.ID, strings.Join(e.Messages, "; "))
}

// HTTPStatusError creates an error from the status of a response.
// 404 and 409 are mapped to ErrNotFound and ErrAlreadyExists, 408, 429 and 5xx are temporary.
func HTTPStatusError(statusCode int, status string, body []byte, typ, id string) error {
	switch {
	case statusCode == 404:
		return ErrNotFound{Type: typ, ID: id}
	case statusCode == 409:
		return ErrAlreadyExists{Type: typ, ID: id}
	}
	err := fmt.Errorf("%s: %s", status, strings.TrimSpace(string(body)))
	switch statusCode {
	case 408, 429, 500, 502, 503, 504:
		return MakeTemporary(err)
	}
	return err
}

// MergeErrors, appending texts
// if priorityToErr is true, priority to the fatal error then to the temporary
// else, priority to no error, then to the temporary and finally to the fatal error.
func MergeErrors(priorityToError bool, err error, newErrs ...error) error {
	if len(newErrs) == 0 {
		return err
	}
	newErr := newErrs[0]

	if newErr == nil {
		if !priorityToError {
			return nil
		}
	} else if err == nil {
		err = newErr
	} else if priorityToError != Temporary(err) {
		err = fmt.Errorf("%w\n %v", err, newErr)
	} else {
		err = fmt.Errorf("%w\n %v", newErr, err)
	}
	return MergeErrors(priorityToError, err, newErrs[1:]...)
}
