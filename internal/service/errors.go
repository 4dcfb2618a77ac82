package service

import (
	"errors"
	"fmt"

	"qrtag-service/internal/store"
)

var (
	ErrValidation         = errors.New("validation failed")
	ErrNotFound           = errors.New("not found")
	ErrConflict           = errors.New("already exists")
	ErrGatewayUnavailable = errors.New("payment gateway unavailable")
	ErrVerificationFailed = errors.New("payment verification failed")
	ErrInvalidStatus      = errors.New("invalid status")
	ErrForbidden          = errors.New("forbidden")
	ErrUnauthorized       = errors.New("unauthorized")
)

// translateStoreErr maps store sentinels onto service errors and leaves the rest untouched
func translateStoreErr(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, store.ErrNotFound):
		return fmt.Errorf("%w: %v", ErrNotFound, err)
	case errors.Is(err, store.ErrAlreadyExists):
		return fmt.Errorf("%w: %v", ErrConflict, err)
	case errors.Is(err, store.ErrInvalidTransition):
		return fmt.Errorf("%w: %v", ErrInvalidStatus, err)
	}
	return err
}
