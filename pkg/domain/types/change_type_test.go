package types_test

import (
	"testing"

	"github.com/BlueRidgeLabs/chatpro/pkg/domain/types"
	"github.com/m-mizutani/gt"
)

func TestChangeType_IsValid(t *testing.T) {
	tests := []struct {
		name   string
		change types.ChangeType
		want   bool
	}{
		{name: "created", change: types.ChangeTypeCreated, want: true},
		{name: "updated", change: types.ChangeTypeUpdated, want: true},
		{name: "deleted", change: types.ChangeTypeDeleted, want: true},
		{name: "unknown", change: types.ChangeType("released"), want: false},
		{name: "empty", change: types.ChangeType(""), want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gt.Value(t, tt.change.IsValid()).Equal(tt.want)
		})
	}
}

func TestParseChangeType(t *testing.T) {
	for _, c := range types.AllChangeTypes() {
		t.Run(c.String(), func(t *testing.T) {
			parsed, err := types.ParseChangeType(c.String())
			gt.NoError(t, err).Required()
			gt.Value(t, parsed).Equal(c)
		})
	}

	t.Run("invalid", func(t *testing.T) {
		_, err := types.ParseChangeType("moved")
		gt.Value(t, err).NotNil()
	})
}

func TestParseTaskName(t *testing.T) {
	for _, n := range types.AllTaskNames() {
		parsed, err := types.ParseTaskName(n.String())
		gt.NoError(t, err).Required()
		gt.Value(t, parsed).Equal(n)
	}

	_, err := types.ParseTaskName("send_message")
	gt.Value(t, err).NotNil()
}
