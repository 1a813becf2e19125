package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEntitySet_LaterReplacesInPlace(t *testing.T) {
	e := NewEntitySet()
	e.Put(Snapshot{ID: "W1", Visits: 1})
	e.Put(Snapshot{ID: "W2", Visits: 2})
	e.Put(Snapshot{ID: "W1", Visits: 3})

	assert.Equal(t, 2, e.Len())
	assert.Equal(t, []string{"W1", "W2"}, e.IDs())

	w1, ok := e.Get("W1")
	require.True(t, ok)
	assert.Equal(t, 3.0, w1.Visits)

	values := e.Values()
	require.Len(t, values, 2)
	assert.Equal(t, 3.0, values[0].Visits)
}

func TestEntitySet_GetMissing(t *testing.T) {
	_, ok := NewEntitySet().Get("nope")
	assert.False(t, ok)
}
