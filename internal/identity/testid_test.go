package identity

import (
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTestID_KnownValues(t *testing.T) {
	tests := []struct {
		name string
		want string
	}{
		{"Suite.Case1", "746fef6d-e2dd-8fb5-0c59-c99de2c36d8d"},
		{"Namespace.Class.Method", "58f6f9e2-a5ee-2966-777e-17e34ab62b6e"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			id, err := TestID(tt.name)
			require.NoError(t, err)
			assert.Equal(t, tt.want, id.String())
		})
	}
}

func TestTestID_Deterministic(t *testing.T) {
	first, err := TestID("pkg.TestSomething")
	require.NoError(t, err)
	second, err := TestID("pkg.TestSomething")
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestTestID_DistinctNames(t *testing.T) {
	seen := make(map[uuid.UUID]string)
	for i := 0; i < 1000; i++ {
		name := fmt.Sprintf("Suite.Case%d", i)
		id := MustTestID(name)
		if prev, ok := seen[id]; ok {
			t.Fatalf("%q and %q produced the same id %s", prev, name, id)
		}
		seen[id] = name
	}
}

func TestTestID_EmptyName(t *testing.T) {
	id, err := TestID("")
	require.ErrorIs(t, err, ErrInvalidInput)
	assert.Equal(t, uuid.Nil, id)

	assert.Panics(t, func() { MustTestID("") })
}

func TestTestID_NonASCII(t *testing.T) {
	a := MustTestID("Suite.Café")
	b := MustTestID("Suite.Cafe")
	assert.NotEqual(t, a, b)
}
