package model

import (
	"maps"
	"slices"

	"github.com/m-mizutani/goerr/v2"
)

// MergeContacts merges a locally edited contact with the current RapidPro
// state of the same contact. Local values win on conflict:
//
//   - external ID and name come from local
//   - URNs are merged per scheme, local path first
//   - fields are shallow merged, local keys override remote keys
//   - at most one primary group is kept (local one if present, else remote one)
//     and every non-primary group of either side is kept
//
// Passing contacts with different external IDs panics.
func MergeContacts(local, remote *RemoteContact, primary []GroupID) *RemoteContact {
	if local.ExternalID != remote.ExternalID {
		panic(goerr.New("cannot merge different contacts",
			goerr.V("local", local.ExternalID), goerr.V("remote", remote.ExternalID)))
	}

	return &RemoteContact{
		ExternalID: local.ExternalID,
		Name:       local.Name,
		URNs:       mergeURNs(local.URNs, remote.URNs),
		Fields:     mergeFields(local.Fields, remote.Fields),
		Groups:     mergeGroups(local.Groups, remote.Groups, primary),
	}
}

func mergeURNs(local, remote []URN) []URN {
	seen := make(map[string]struct{}, len(local)+len(remote))
	merged := make([]URN, 0, len(local)+len(remote))
	for _, urn := range slices.Concat(local, remote) {
		scheme := urn.Scheme()
		if _, ok := seen[scheme]; ok {
			continue
		}
		seen[scheme] = struct{}{}
		merged = append(merged, urn)
	}
	return merged
}

func mergeFields(local, remote map[string]string) map[string]string {
	merged := make(map[string]string, len(local)+len(remote))
	maps.Copy(merged, remote)
	maps.Copy(merged, local)
	return merged
}

func mergeGroups(local, remote, primary []GroupID) []GroupID {
	primarySet := groupSet(primary)

	localPrimary, localSecondary := partitionGroups(local, primarySet)
	remotePrimary, remoteSecondary := partitionGroups(remote, primarySet)

	var merged []GroupID
	switch {
	case len(localPrimary) > 0:
		merged = append(merged, localPrimary[0])
	case len(remotePrimary) > 0:
		merged = append(merged, remotePrimary[0])
	}

	for _, g := range slices.Concat(localSecondary, remoteSecondary) {
		if !slices.Contains(merged, g) {
			merged = append(merged, g)
		}
	}
	return merged
}

func partitionGroups(groups []GroupID, primary map[GroupID]struct{}) (primaries, secondaries []GroupID) {
	for _, g := range groups {
		if _, ok := primary[g]; ok {
			primaries = append(primaries, g)
		} else {
			secondaries = append(secondaries, g)
		}
	}
	return primaries, secondaries
}
