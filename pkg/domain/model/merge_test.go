package model_test

import (
	"slices"
	"testing"

	"github.com/BlueRidgeLabs/chatpro/pkg/domain/model"
	"github.com/m-mizutani/gt"
)

func sortedURNs(urns []model.URN) []model.URN {
	sorted := slices.Clone(urns)
	slices.Sort(sorted)
	return sorted
}

func sortedGroups(groups []model.GroupID) []model.GroupID {
	sorted := slices.Clone(groups)
	slices.Sort(sorted)
	return sorted
}

func TestMergeContacts(t *testing.T) {
	local := &model.RemoteContact{
		ExternalID: "C-001",
		Name:       "Bob",
		URNs:       []model.URN{"tel:123", "email:bob@bob.com"},
		Fields:     map[string]string{"chat_name": "bob", "age": "23"},
		Groups:     []model.GroupID{"000-001", "000-008"},
	}
	remote := &model.RemoteContact{
		ExternalID: "C-001",
		Name:       "Bobby",
		URNs:       []model.URN{"tel:234", "twitter:bob"},
		Fields:     map[string]string{"chat_name": "bobz", "state": "IN"},
		Groups:     []model.GroupID{"000-002", "000-003", "000-009"},
	}
	primary := []model.GroupID{"000-001", "000-002", "000-003"}

	merged := model.MergeContacts(local, remote, primary)

	t.Run("identity comes from local", func(t *testing.T) {
		gt.Value(t, merged.ExternalID).Equal(model.ExternalID("C-001"))
		gt.Value(t, merged.Name).Equal("Bob")
	})

	t.Run("URNs are merged by scheme with local precedence", func(t *testing.T) {
		gt.Value(t, sortedURNs(merged.URNs)).Equal([]model.URN{
			"email:bob@bob.com",
			"tel:123",
			"twitter:bob",
		})
	})

	t.Run("fields are shallow merged with local precedence", func(t *testing.T) {
		gt.Value(t, merged.Fields).Equal(map[string]string{
			"chat_name": "bob",
			"age":       "23",
			"state":     "IN",
		})
	})

	t.Run("local primary group wins and secondary groups are kept", func(t *testing.T) {
		gt.Value(t, sortedGroups(merged.Groups)).Equal([]model.GroupID{"000-001", "000-008", "000-009"})
	})

	t.Run("inputs are not modified", func(t *testing.T) {
		gt.Array(t, local.URNs).Length(2)
		gt.Value(t, remote.Fields["chat_name"]).Equal("bobz")
		gt.Array(t, remote.Groups).Length(3)
	})
}

func TestMergeContacts_Fields(t *testing.T) {
	local := &model.RemoteContact{ExternalID: "x", Fields: map[string]string{"age": "23"}}
	remote := &model.RemoteContact{ExternalID: "x", Fields: map[string]string{"state": "IN"}}

	merged := model.MergeContacts(local, remote, nil)
	gt.Value(t, merged.Fields).Equal(map[string]string{"age": "23", "state": "IN"})
}

func TestMergeContacts_Groups(t *testing.T) {
	primary := []model.GroupID{"G1", "G2", "G3"}

	tests := []struct {
		name   string
		local  []model.GroupID
		remote []model.GroupID
		want   []model.GroupID
	}{
		{
			name:   "local primary replaces remote primaries",
			local:  []model.GroupID{"G1", "G8"},
			remote: []model.GroupID{"G2", "G3", "G9"},
			want:   []model.GroupID{"G1", "G8", "G9"},
		},
		{
			name:   "remote primary kept when local has none",
			local:  []model.GroupID{"G8"},
			remote: []model.GroupID{"G2", "G9"},
			want:   []model.GroupID{"G2", "G8", "G9"},
		},
		{
			name:   "no primary on either side",
			local:  []model.GroupID{"G8"},
			remote: []model.GroupID{"G9", "G8"},
			want:   []model.GroupID{"G8", "G9"},
		},
		{
			name:   "empty groups",
			local:  nil,
			remote: nil,
			want:   nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			local := &model.RemoteContact{ExternalID: "x", Groups: tt.local}
			remote := &model.RemoteContact{ExternalID: "x", Groups: tt.remote}

			merged := model.MergeContacts(local, remote, primary)
			gt.Value(t, sortedGroups(merged.Groups)).Equal(sortedGroups(tt.want))
		})
	}
}

func TestMergeContacts_Properties(t *testing.T) {
	primary := []model.GroupID{"G1", "G2"}
	local := &model.RemoteContact{
		ExternalID: "x",
		Name:       "Local",
		URNs:       []model.URN{"tel:1", "mailto:a@example.com"},
		Groups:     []model.GroupID{"G2", "S1"},
	}
	remote := &model.RemoteContact{
		ExternalID: "x",
		Name:       "Remote",
		URNs:       []model.URN{"tel:2", "twitter:r", "telegram:3"},
		Groups:     []model.GroupID{"G1", "S2", "S3"},
	}

	merged := model.MergeContacts(local, remote, primary)

	t.Run("one URN per scheme", func(t *testing.T) {
		schemes := map[string]int{}
		for _, u := range merged.URNs {
			schemes[u.Scheme()]++
		}
		gt.Value(t, schemes).Equal(map[string]int{"tel": 1, "mailto": 1, "twitter": 1, "telegram": 1})
		gt.Bool(t, slices.Contains(merged.URNs, model.URN("tel:1"))).True()
	})

	t.Run("no secondary group is dropped", func(t *testing.T) {
		for _, g := range []model.GroupID{"S1", "S2", "S3"} {
			gt.Bool(t, slices.Contains(merged.Groups, g)).True()
		}
		gt.Bool(t, slices.Contains(merged.Groups, model.GroupID("G2"))).True()
		gt.Bool(t, slices.Contains(merged.Groups, model.GroupID("G1"))).False()
	})

	t.Run("merging with itself is a no-op", func(t *testing.T) {
		again := model.MergeContacts(merged, merged, primary)
		gt.Bool(t, model.ContactsDiffer(again, merged)).False()
	})
}

func TestMergeContacts_PanicsOnDifferentContacts(t *testing.T) {
	expectPanic(t, func() {
		model.MergeContacts(
			&model.RemoteContact{ExternalID: "a"},
			&model.RemoteContact{ExternalID: "b"},
			nil,
		)
	})
}
