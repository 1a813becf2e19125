package services

import (
	"worldinfo/internal/models"
)

// DeriveMetrics projects one snapshot against the lifecycle dates of its world.
// It has no side effects. Missing or unparseable dates blank the metrics that
// depend on them instead of failing.
func DeriveMetrics(snap models.Snapshot, dates models.LifecycleDates) models.MetricsRow {
	observed := snap.Time()
	published, hasPublished := models.ParseDate(dates.PublicationDate)
	created, hasCreated := models.ParseDate(dates.CreatedAt)
	labs, hasLabs := models.ParseDate(dates.LabsPublicationDate)
	updated, hasUpdated := models.ParseDate(dates.UpdatedAt)

	row := models.MetricsRow{
		ID:                  snap.ID,
		Name:                snap.Name,
		Timestamp:           snap.Timestamp,
		PublicationDate:     models.FormatDate(dates.PublicationDate),
		LabsPublicationDate: models.FormatDate(dates.LabsPublicationDate),
		CreatedAt:           models.FormatDate(dates.CreatedAt),
		UpdatedAt:           models.FormatDate(dates.UpdatedAt),
		Visits:              snap.Visits,
		Size:                snap.Size,
		Favorites:           snap.Favorites,
		Heat:                snap.Heat,
		Popularity:          snap.Popularity,
	}
	if snap.Timestamp > 0 {
		row.FetchDate = observed.Format(models.DisplayDateLayout)
	}

	// Creation date wins over the labs date when both are known.
	switch {
	case hasPublished && hasCreated:
		row.DaysLabsToPublication = models.Float(float64(models.DaysBetween(created, published)))
	case hasPublished && hasLabs:
		row.DaysLabsToPublication = models.Float(float64(models.DaysBetween(labs, published)))
	}

	sincePublished := 0
	if hasPublished {
		if d := models.DaysBetween(published, observed); d > 0 {
			sincePublished = d
		}
	}
	row.DaysSincePublication = sincePublished
	if sincePublished > 0 {
		row.VisitsPerDay = models.Float(models.Round2(snap.Visits / float64(sincePublished)))
		row.FavoritesPerDay = models.Float(models.Round2(snap.Favorites / float64(sincePublished)))
	}

	if hasUpdated {
		row.DaysSinceLastUpdate = models.Float(float64(models.DaysBetween(updated, observed)))
	}

	if snap.Favorites != 0 {
		row.VisitsToFavoritesRatio = models.Float(models.Round2(snap.Visits / snap.Favorites))
	}

	return row
}

// ToDisplayRow renders a snapshot against its own observed dates as table cells,
// fetch date first.
func ToDisplayRow(snap models.Snapshot) []string {
	return DeriveMetrics(snap, snap.LifecycleDates).Cells()
}
