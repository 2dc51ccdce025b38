// Package aggregate reduces an entity's event history to medal tallies and its latest appearance.
package aggregate

import (
	"strconv"
	"strings"

	"github.com/Sriram-PR/olympedia-scraper/pkg/models"
)

// Summary is the reduction of an event list
type Summary struct {
	Gold   int
	Silver int
	Bronze int
	Latest models.Event // Zero value when there are no events
}

// Summarize tallies medals by case-insensitive substring and takes the last event
// as the latest one, relying on the source listing events chronologically.
func Summarize(events []models.Event) Summary {
	var s Summary
	for _, e := range events {
		outcome := strings.ToLower(e.Medal)
		// First match wins: gold, then silver, then bronze
		switch {
		case strings.Contains(outcome, "gold"):
			s.Gold++
		case strings.Contains(outcome, "silver"):
			s.Silver++
		case strings.Contains(outcome, "bronze"):
			s.Bronze++
		}
	}
	if len(events) > 0 {
		s.Latest = events[len(events)-1]
	}
	return s
}

// Apply writes the summary into the event-derived fields of rec.
func Apply(rec *models.Record, s Summary) {
	rec.Set(models.FieldGames, s.Latest.Games)
	rec.Set(models.FieldYear, s.Latest.Year)
	rec.Set(models.FieldSport, s.Latest.Sport)
	rec.Set(models.FieldGoldMedal, strconv.Itoa(s.Gold))
	rec.Set(models.FieldSilverMedal, strconv.Itoa(s.Silver))
	rec.Set(models.FieldBronzeMedal, strconv.Itoa(s.Bronze))
}
