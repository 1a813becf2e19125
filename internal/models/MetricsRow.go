package models

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cast"
)

const (
	// TableColumns is the width of a table row with a leading fetch date.
	TableColumns = 15
	// LegacyTableColumns is the width of rows exported before fetch dates were recorded.
	LegacyTableColumns = 14
)

var ErrColumnCount = errors.New("unexpected number of table columns")

// TableHeader holds the column labels of exported tables.
var TableHeader = []string{
	"爬取日期",
	"世界名稱",
	"世界ID",
	"發布日期",
	"最後更新",
	"瀏覽人次",
	"大小",
	"收藏次數",
	"熱度",
	"人氣",
	"實驗室到發布",
	"瀏覽蒐藏比",
	"距離上次更新",
	"已發布",
	"人次發布比",
}

// MetricsRow is a snapshot projected against its lifecycle dates for tabular display.
type MetricsRow struct {
	FetchDate              string    `json:"fetchDate"`
	ID                     string    `json:"id"`
	Name                   string    `json:"name"`
	Timestamp              int64     `json:"timestamp"`
	PublicationDate        string    `json:"publicationDate"`
	LabsPublicationDate    string    `json:"labsPublicationDate"`
	CreatedAt              string    `json:"createdAt"`
	UpdatedAt              string    `json:"updatedAt"`
	Visits                 float64   `json:"visits"`
	Size                   float64   `json:"size"`
	Favorites              float64   `json:"favorites"`
	Heat                   float64   `json:"heat"`
	Popularity             float64   `json:"popularity"`
	DaysLabsToPublication  NullFloat `json:"daysLabsToPublication"`
	VisitsToFavoritesRatio NullFloat `json:"visitsToFavoritesRatio"`
	DaysSinceLastUpdate    NullFloat `json:"daysSinceLastUpdate"`
	DaysSincePublication   int       `json:"daysSincePublication"`
	VisitsPerDay           NullFloat `json:"visitsPerDay"`
	FavoritesPerDay        NullFloat `json:"favoritesPerDay"`
}

// Cells renders the row in table order, fetch date first.
func (r MetricsRow) Cells() []string {
	return []string{
		r.FetchDate,
		r.Name,
		r.ID,
		r.PublicationDate,
		r.UpdatedAt,
		formatNumber(r.Visits),
		formatNumber(r.Size),
		formatNumber(r.Favorites),
		formatNumber(r.Heat),
		formatNumber(r.Popularity),
		r.DaysLabsToPublication.String(),
		r.VisitsToFavoritesRatio.String(),
		r.DaysSinceLastUpdate.String(),
		fmt.Sprint(r.DaysSincePublication),
		r.VisitsPerDay.String(),
	}
}

// ParseMetricsCells reads a stored table row. Rows of LegacyTableColumns cells
// carry no fetch date and get "".
func ParseMetricsCells(cells []string) (MetricsRow, error) {
	var fetchDate string
	switch len(cells) {
	case TableColumns:
		fetchDate = strings.TrimSpace(cells[0])
		cells = cells[1:]
	case LegacyTableColumns:
	default:
		return MetricsRow{}, fmt.Errorf("%w: got %d", ErrColumnCount, len(cells))
	}

	row := MetricsRow{
		FetchDate:              fetchDate,
		Name:                   strings.TrimSpace(cells[0]),
		ID:                     strings.TrimSpace(cells[1]),
		PublicationDate:        strings.TrimSpace(cells[2]),
		UpdatedAt:              strings.TrimSpace(cells[3]),
		Visits:                 cellNumber(cells[4]),
		Size:                   cellNumber(cells[5]),
		Favorites:              cellNumber(cells[6]),
		Heat:                   cellNumber(cells[7]),
		Popularity:             cellNumber(cells[8]),
		DaysLabsToPublication:  cellNullFloat(cells[9]),
		VisitsToFavoritesRatio: cellNullFloat(cells[10]),
		DaysSinceLastUpdate:    cellNullFloat(cells[11]),
		DaysSincePublication:   int(cellNumber(cells[12])),
		VisitsPerDay:           cellNullFloat(cells[13]),
	}
	if t, ok := ParseDate(fetchDate); ok {
		row.Timestamp = t.Unix()
	}
	return row, nil
}

func cellNumber(cell string) float64 {
	f, err := cast.ToFloat64E(strings.TrimSpace(cell))
	if err != nil || f < 0 {
		return 0
	}
	return f
}

func cellNullFloat(cell string) NullFloat {
	cell = strings.TrimSpace(cell)
	if cell == "" {
		return NullFloat{}
	}
	f, err := cast.ToFloat64E(cell)
	if err != nil {
		return NullFloat{}
	}
	return Float(f)
}
