package crowd

import (
	"time"

	"github.com/mmcrisostomo/lrt-density/backend/internal/models"
)

// Crowd level categories shown on the line map.
const (
	LevelLight    = "light"
	LevelModerate = "moderate"
	LevelHeavy    = "heavy"
)

// Platform directions.
const (
	DirectionNB = "nb"
	DirectionSB = "sb"
)

// Category buckets a 0-100 density score into a display category.
func Category(density int) string {
	if density >= 80 {
		return LevelHeavy
	}
	if density >= 50 {
		return LevelModerate
	}
	return LevelLight
}

// DayKey maps a point in time to the historical-profile key. We only have
// weekday data, so weekends fall back to monday.
func DayKey(t time.Time) string {
	switch t.Weekday() {
	case time.Tuesday:
		return "tuesday"
	case time.Wednesday:
		return "wednesday"
	case time.Thursday:
		return "thursday"
	case time.Friday:
		return "friday"
	default:
		return "monday"
	}
}

// EstimateAt estimates a platform's crowd level from its historical profile
// for the given time. Missing or short data reads as light.
func EstimateAt(profile models.HourlyProfile, t time.Time) string {
	hours, ok := profile[DayKey(t)]
	if !ok || t.Hour() >= len(hours) {
		return LevelLight
	}
	return Category(hours[t.Hour()])
}
