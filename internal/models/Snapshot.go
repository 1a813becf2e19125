package models

import (
	"bytes"
	"math"
	"strconv"
	"time"
)

// Channel names a numeric metric tracked over time.
type Channel string

const (
	ChannelVisits     Channel = "visits"
	ChannelFavorites  Channel = "favorites"
	ChannelHeat       Channel = "heat"
	ChannelPopularity Channel = "popularity"
)

// Channels lists every chart channel in drawing order.
var Channels = []Channel{ChannelVisits, ChannelFavorites, ChannelHeat, ChannelPopularity}

// LifecycleDates are the entity dates as observed at fetch time. Values are kept
// raw and only parsed when metrics are derived.
type LifecycleDates struct {
	CreatedAt           string `json:"created_at,omitempty"`
	UpdatedAt           string `json:"updated_at,omitempty"`
	LabsPublicationDate string `json:"labsPublicationDate,omitempty"`
	PublicationDate     string `json:"publicationDate,omitempty"`
}

// Snapshot is one observation of a world.
type Snapshot struct {
	ID         string   `json:"id"`
	Name       string   `json:"name"`
	Timestamp  int64    `json:"timestamp"`
	Visits     float64  `json:"visits"`
	Favorites  float64  `json:"favorites"`
	Heat       float64  `json:"heat"`
	Popularity float64  `json:"popularity"`
	Size       float64  `json:"size,omitempty"`
	Tags       []string `json:"tags,omitempty"`
	LifecycleDates
}

// Time returns the observation time in UTC.
func (s Snapshot) Time() time.Time {
	return time.Unix(s.Timestamp, 0).UTC()
}

// Value returns the reading of a channel, zero for unknown channels.
func (s Snapshot) Value(ch Channel) float64 {
	switch ch {
	case ChannelVisits:
		return s.Visits
	case ChannelFavorites:
		return s.Favorites
	case ChannelHeat:
		return s.Heat
	case ChannelPopularity:
		return s.Popularity
	}
	return 0
}

// Label is the display label used by entity selectors.
func (s Snapshot) Label() string {
	if s.Name == "" {
		return s.ID
	}
	return s.Name + " (" + s.ID + ")"
}

// HistorySeries is the chronological list of snapshots of one world.
type HistorySeries []Snapshot

// Timestamps returns the observation times in series order.
func (h HistorySeries) Timestamps() []int64 {
	out := make([]int64, len(h))
	for i, s := range h {
		out[i] = s.Timestamp
	}
	return out
}

// NullFloat is a number that may be blank. A blank value is never the same as zero.
type NullFloat struct {
	Float64 float64
	Valid   bool
}

func Float(v float64) NullFloat {
	return NullFloat{Float64: v, Valid: true}
}

// Round2 rounds to two decimals, ties to even, matching the values in tables
// exported by the desktop tool.
func Round2(v float64) float64 {
	return math.RoundToEven(v*100) / 100
}

func (n NullFloat) String() string {
	if !n.Valid {
		return ""
	}
	return formatNumber(n.Float64)
}

func (n NullFloat) MarshalJSON() ([]byte, error) {
	if !n.Valid {
		return []byte("null"), nil
	}
	return strconv.AppendFloat(nil, n.Float64, 'f', -1, 64), nil
}

func (n *NullFloat) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) || bytes.Equal(data, []byte(`""`)) {
		*n = NullFloat{}
		return nil
	}
	if len(data) > 1 && data[0] == '"' {
		data = data[1 : len(data)-1]
	}
	v, err := strconv.ParseFloat(string(data), 64)
	if err != nil {
		return err
	}
	*n = Float(v)
	return nil
}

func formatNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
