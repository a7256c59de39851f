package model_test

import (
	"testing"

	"github.com/BlueRidgeLabs/chatpro/pkg/domain/model"
	"github.com/m-mizutani/gt"
)

func newBob() *model.RemoteContact {
	return &model.RemoteContact{
		ExternalID: "000-001",
		Name:       "Bob",
		URNs:       []model.URN{"tel:123"},
		Fields:     map[string]string{"chat_name": "bob", "age": "34"},
		Groups:     []model.GroupID{"000-001", "000-002"},
	}
}

func expectPanic(t *testing.T, f func()) {
	t.Helper()
	defer func() {
		gt.Value(t, recover()).NotNil()
	}()
	f()
}

func TestContactsDiffer(t *testing.T) {
	tests := []struct {
		name   string
		modify func(c *model.RemoteContact)
		want   bool
	}{
		{
			name:   "identical",
			modify: func(c *model.RemoteContact) {},
			want:   false,
		},
		{
			name:   "name changed",
			modify: func(c *model.RemoteContact) { c.Name = "Bobby" },
			want:   true,
		},
		{
			name:   "URN changed",
			modify: func(c *model.RemoteContact) { c.URNs = []model.URN{"tel:456"} },
			want:   true,
		},
		{
			name:   "URN added",
			modify: func(c *model.RemoteContact) { c.URNs = append(c.URNs, "twitter:bob") },
			want:   true,
		},
		{
			name: "URN added in front",
			modify: func(c *model.RemoteContact) {
				c.URNs = []model.URN{"twitter:bob", "tel:123"}
			},
			want: true,
		},
		{
			name:   "group changed",
			modify: func(c *model.RemoteContact) { c.Groups = []model.GroupID{"000-001", "000-007"} },
			want:   true,
		},
		{
			name:   "group order changed",
			modify: func(c *model.RemoteContact) { c.Groups = []model.GroupID{"000-002", "000-001"} },
			want:   false,
		},
		{
			name:   "field value changed",
			modify: func(c *model.RemoteContact) { c.Fields["age"] = "35" },
			want:   true,
		},
		{
			name:   "field added",
			modify: func(c *model.RemoteContact) { c.Fields["state"] = "IN" },
			want:   true,
		},
		{
			name:   "field removed",
			modify: func(c *model.RemoteContact) { delete(c.Fields, "age") },
			want:   true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := newBob()
			b := newBob()
			tt.modify(b)

			gt.Value(t, model.ContactsDiffer(a, b)).Equal(tt.want)
			gt.Value(t, model.ContactsDiffer(b, a)).Equal(tt.want)
		})
	}

	t.Run("URN order is not significant", func(t *testing.T) {
		a := newBob()
		a.URNs = []model.URN{"tel:123", "twitter:bob"}
		b := newBob()
		b.URNs = []model.URN{"twitter:bob", "tel:123"}

		gt.Bool(t, model.ContactsDiffer(a, b)).False()
	})

	t.Run("same contact never differs from itself", func(t *testing.T) {
		a := newBob()
		gt.Bool(t, model.ContactsDiffer(a, a)).False()
	})

	t.Run("nil and empty fields are equal", func(t *testing.T) {
		a := &model.RemoteContact{ExternalID: "x", Name: "X"}
		b := &model.RemoteContact{ExternalID: "x", Name: "X", Fields: map[string]string{}}
		gt.Bool(t, model.ContactsDiffer(a, b)).False()
	})

	t.Run("panics on different external IDs", func(t *testing.T) {
		a := newBob()
		b := newBob()
		b.ExternalID = "000-002"

		expectPanic(t, func() {
			model.ContactsDiffer(a, b)
		})
	})
}
