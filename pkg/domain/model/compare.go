package model

import (
	"maps"

	"github.com/m-mizutani/goerr/v2"
)

// ContactsDiffer reports whether two representations of the same contact
// differ in name, URN set, fields or group set. Order of URNs and groups is
// not significant. Passing contacts with different external IDs panics.
func ContactsDiffer(a, b *RemoteContact) bool {
	if a.ExternalID != b.ExternalID {
		panic(goerr.New("cannot compare different contacts",
			goerr.V("a", a.ExternalID), goerr.V("b", b.ExternalID)))
	}

	if a.Name != b.Name {
		return true
	}
	if !sameSet(a.URNs, b.URNs) {
		return true
	}
	if !maps.Equal(a.Fields, b.Fields) {
		return true
	}
	return !sameSet(a.Groups, b.Groups)
}

func sameSet[T comparable](a, b []T) bool {
	left := make(map[T]struct{}, len(a))
	for _, v := range a {
		left[v] = struct{}{}
	}
	right := make(map[T]struct{}, len(b))
	for _, v := range b {
		if _, ok := left[v]; !ok {
			return false
		}
		right[v] = struct{}{}
	}
	return len(left) == len(right)
}
