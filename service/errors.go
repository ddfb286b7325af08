package service

import (
	"errors"
	"fmt"
	"net/mail"
	"strings"
)

var (
	// ErrValidation rejects input before it reaches a backend. It never triggers a fallback.
	ErrValidation = errors.New("validation failed")
	// ErrUnauthorized is returned for bad credentials and revoked or invalid tokens.
	ErrUnauthorized = errors.New("unauthorized")
)

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}

func required(entity string, fields ...string) error {
	for i := 0; i+1 < len(fields); i += 2 {
		if strings.TrimSpace(fields[i+1]) == "" {
			return invalid("%s requires %s", entity, fields[i])
		}
	}
	return nil
}

func validEmail(email string) bool {
	addr, err := mail.ParseAddress(email)
	return err == nil && addr.Address == email
}
