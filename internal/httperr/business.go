package httperr

import "errors"

type Kind string

const (
	KindNotFound     Kind = "not_found"
	KindConflict     Kind = "conflict"
	KindInvalid      Kind = "invalid_input"
	KindForbidden    Kind = "forbidden"
	KindUpstream     Kind = "upstream_failure"
	KindInconsistent Kind = "inconsistent"
)

type BusinessError struct {
	Kind Kind
	Code string
	Err  error
}

func (e BusinessError) Error() string {
	if e.Err != nil {
		return e.Code + ": " + e.Err.Error()
	}
	return e.Code
}

func (e BusinessError) Unwrap() error {
	return e.Err
}

func ErrNotFound(code string) error {
	return BusinessError{Kind: KindNotFound, Code: code}
}

func ErrConflict(code string) error {
	return BusinessError{Kind: KindConflict, Code: code}
}

func ErrInvalid(code string) error {
	return BusinessError{Kind: KindInvalid, Code: code}
}

func ErrForbidden(code string) error {
	return BusinessError{Kind: KindForbidden, Code: code}
}

// ErrUpstream wraps a datastore or payment collaborator failure.
func ErrUpstream(code string, err error) error {
	return BusinessError{Kind: KindUpstream, Code: code, Err: err}
}

func ErrInconsistent(code string) error {
	return BusinessError{Kind: KindInconsistent, Code: code}
}

func IsBusiness(err error, code string) bool {
	var be BusinessError
	if errors.As(err, &be) {
		return be.Code == code
	}
	return false
}

func IsKind(err error, kind Kind) bool {
	return KindOf(err) == kind
}

func KindOf(err error) Kind {
	var be BusinessError
	if errors.As(err, &be) {
		return be.Kind
	}
	return ""
}

// WrapUpstream keeps business errors and marks anything else as a store failure.
func WrapUpstream(err error) error {
	if err == nil || KindOf(err) != "" {
		return err
	}
	return ErrUpstream("store_unavailable", err)
}
