package model

import (
	"strings"

	"github.com/m-mizutani/goerr/v2"
)

// ErrInvalidURN is returned when a contact address is not of the form scheme:path
var ErrInvalidURN = goerr.New("invalid URN")

// URN is a scheme qualified contact address such as tel:+250788123123 or twitter:bob
type URN string

const urnSeparator = ":"

// NewURN builds a URN from its scheme and path
func NewURN(scheme, path string) URN {
	return URN(strings.ToLower(scheme) + urnSeparator + path)
}

// ParseURN validates s and normalizes the scheme to lower case
func ParseURN(s string) (URN, error) {
	scheme, path, ok := strings.Cut(strings.TrimSpace(s), urnSeparator)
	if !ok || scheme == "" || path == "" {
		return "", goerr.Wrap(ErrInvalidURN, "URN must be scheme:path", goerr.V("urn", s))
	}
	return NewURN(scheme, path), nil
}

// Scheme returns the part before the first separator. A value without a
// separator is treated as a bare scheme so that it is never merged away.
func (u URN) Scheme() string {
	scheme, _, _ := strings.Cut(string(u), urnSeparator)
	return scheme
}

// Path returns the part after the first separator
func (u URN) Path() string {
	_, path, _ := strings.Cut(string(u), urnSeparator)
	return path
}

func (u URN) String() string {
	return string(u)
}

// Validate checks that the URN has both a scheme and a path
func (u URN) Validate() error {
	_, err := ParseURN(string(u))
	return err
}
