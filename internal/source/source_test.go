package source

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultOrderCoversAllKinds(t *testing.T) {
	order := DefaultOrder()
	require.Len(t, order, len(Kinds()))
	assert.NoError(t, ValidateOrder(order))
	assert.Equal(t, Teardown, order[0])
	assert.Equal(t, User, order[len(order)-1])
}

func TestDefaultOrderReturnsCopy(t *testing.T) {
	order := DefaultOrder()
	order[0] = User
	assert.Equal(t, Teardown, DefaultOrder()[0])
}

func TestValid(t *testing.T) {
	for _, k := range Kinds() {
		assert.True(t, Valid(k), string(k))
	}
	assert.False(t, Valid("spy_photos"))
	assert.False(t, Valid(""))
}

func TestLabel(t *testing.T) {
	assert.Equal(t, "Teardown", Label(Teardown))
	assert.Equal(t, "A2Mac1", Label(A2Mac1))
	assert.Equal(t, "OEM Spec", Label(OEM))
	assert.Equal(t, "unknown", Label("unknown"))
}

func TestValidateOrder(t *testing.T) {
	tests := []struct {
		name    string
		order   []Kind
		wantErr string
	}{
		{name: "full permutation", order: DefaultOrder()},
		{
			name: "reversed",
			order: func() []Kind {
				order := DefaultOrder()
				for i, j := 0, len(order)-1; i < j; i, j = i+1, j-1 {
					order[i], order[j] = order[j], order[i]
				}
				return order
			}(),
		},
		{name: "empty", order: nil, wantErr: "must include every source"},
		{name: "too short", order: []Kind{Teardown, User}, wantErr: "must include every source"},
		{
			name:    "duplicate",
			order:   []Kind{Teardown, Teardown, OEM, Regulatory, CAD, Calculated, Press, User},
			wantErr: "duplicate",
		},
		{
			name:    "unknown kind",
			order:   []Kind{Teardown, A2Mac1, OEM, Regulatory, CAD, Calculated, Press, "rumor"},
			wantErr: "unknown source",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateOrder(tt.order)
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}
