package domain

import "errors"

// Sentinel errors shared by the services. Wrap them with fmt.Errorf("...: %w").
var (
	ErrMissingField        = errors.New("missing required field")
	ErrInvalidInput        = errors.New("invalid input")
	ErrInsufficientBalance = errors.New("insufficient balance")
	ErrDuplicateLogin      = errors.New("username already exists")
	ErrInvalidCredentials  = errors.New("invalid credentials")
	ErrUnauthenticated     = errors.New("not authenticated")
	ErrNotFound            = errors.New("not found")
	ErrDecryption          = errors.New("decryption failure")
)

// Kind groups errors by how the request boundary reports them
type Kind int

const (
	KindInternal Kind = iota
	KindValidation
	KindConflict
	KindAuth
	KindNotFound
	KindCrypto
)

// KindOf classifies err. Unknown errors are internal.
func KindOf(err error) Kind {
	switch {
	case err == nil:
		return KindInternal
	case errors.Is(err, ErrMissingField), errors.Is(err, ErrInvalidInput), errors.Is(err, ErrInsufficientBalance):
		return KindValidation
	case errors.Is(err, ErrDuplicateLogin):
		return KindConflict
	case errors.Is(err, ErrInvalidCredentials), errors.Is(err, ErrUnauthenticated):
		return KindAuth
	case errors.Is(err, ErrNotFound):
		return KindNotFound
	case errors.Is(err, ErrDecryption):
		return KindCrypto
	default:
		return KindInternal
	}
}
