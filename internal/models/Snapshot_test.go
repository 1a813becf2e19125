package models

import (
	"testing"

	json "github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSnapshot_Label(t *testing.T) {
	assert.Equal(t, "Forest (wrld_1)", Snapshot{ID: "wrld_1", Name: "Forest"}.Label())
	assert.Equal(t, "wrld_1", Snapshot{ID: "wrld_1"}.Label())
}

func TestSnapshot_Value(t *testing.T) {
	s := Snapshot{Visits: 1, Favorites: 2, Heat: 3, Popularity: 4}
	assert.Equal(t, 1.0, s.Value(ChannelVisits))
	assert.Equal(t, 2.0, s.Value(ChannelFavorites))
	assert.Equal(t, 3.0, s.Value(ChannelHeat))
	assert.Equal(t, 4.0, s.Value(ChannelPopularity))
	assert.Zero(t, s.Value(Channel("unknown")))
}

func TestRound2(t *testing.T) {
	assert.Equal(t, 10.33, Round2(310.0/30))
	assert.Equal(t, 0.67, Round2(2.0/3))
	assert.Equal(t, 5.0, Round2(5))
	assert.Equal(t, 0.12, Round2(0.125))
	assert.Equal(t, 0.38, Round2(0.375))
	assert.Equal(t, 2.67, Round2(2.675))
}

func TestNullFloat_BlankIsNotZero(t *testing.T) {
	var blank NullFloat
	zero := Float(0)

	assert.Equal(t, "", blank.String())
	assert.Equal(t, "0", zero.String())

	b, err := json.Marshal(struct {
		A NullFloat `json:"a"`
		B NullFloat `json:"b"`
	}{A: blank, B: Float(10.33)})
	require.NoError(t, err)
	assert.JSONEq(t, `{"a":null,"b":10.33}`, string(b))
}

func TestNullFloat_Unmarshal(t *testing.T) {
	var v struct {
		A NullFloat `json:"a"`
		B NullFloat `json:"b"`
		C NullFloat `json:"c"`
	}
	require.NoError(t, json.Unmarshal([]byte(`{"a":null,"b":"2.5","c":""}`), &v))
	assert.False(t, v.A.Valid)
	assert.Equal(t, Float(2.5), v.B)
	assert.False(t, v.C.Valid)
}
