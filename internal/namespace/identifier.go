package namespace

import (
	"errors"
	"fmt"
	"strings"
)

const (
	minIdentifierLen = 2
	maxIdentifierLen = 64
)

// ErrIllegalIdentifier is wrapped by every IdentifierError.
var ErrIllegalIdentifier = errors.New("illegal identifier")

// IdentifierError describes why a catalogue name cannot be used.
type IdentifierError struct {
	Name   string
	Reason string
}

func (e *IdentifierError) Error() string {
	return fmt.Sprintf("illegal identifier %q: %s", e.Name, e.Reason)
}

func (e *IdentifierError) Unwrap() error {
	return ErrIllegalIdentifier
}

// ValidateIdentifier checks name against the shared identifier rule.
// It returns nil or an *IdentifierError.
func ValidateIdentifier(name string) error {
	fail := func(reason string) error {
		return &IdentifierError{Name: name, Reason: reason}
	}

	if name == "" {
		return fail("identifier is empty")
	}

	if name[0] < 'A' || name[0] > 'Z' {
		return fail("must start with an uppercase letter (PascalCase)")
	}

	for _, r := range name {
		if !isAlnum(r) {
			return fail("must contain only alphanumeric characters")
		}
	}

	if len(name) < minIdentifierLen {
		return fail(fmt.Sprintf("must be at least %d characters long", minIdentifierLen))
	}

	if len(name) > maxIdentifierLen {
		return fail(fmt.Sprintf("must be %d characters or less", maxIdentifierLen))
	}

	if IsReserved(name) {
		return fail("reserved keyword in one or more target languages")
	}

	return nil
}

// IsReserved reports whether name is a keyword of any supported target.
func IsReserved(name string) bool {
	_, ok := reserved[strings.ToLower(name)]

	return ok
}

func isAlnum(r rune) bool {
	return (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9')
}
