// Package extract turns an entity document into a field record and its event history.
// Every heuristic here degrades to empty fields; nothing in this package returns an
// error for an unexpected page shape.
package extract

import (
	"fmt"
	"io"
	"strconv"

	"github.com/PuerkitoBio/goquery"

	"github.com/Sriram-PR/olympedia-scraper/pkg/aggregate"
	"github.com/Sriram-PR/olympedia-scraper/pkg/models"
	"github.com/Sriram-PR/olympedia-scraper/pkg/utils"
)

// Extract reads the name, the biographical fields and the events of doc.
// Event-derived fields (games, year, sport, tallies) are left for the caller to aggregate.
func Extract(doc *goquery.Document) (*models.Record, []models.Event) {
	rec := models.NewRecord()

	if h1 := doc.Find("h1").First(); h1.Length() > 0 {
		rec.Set(models.FieldName, spacedText(h1))
	}

	if table := FindBiographicalTable(doc); table != nil {
		parseBio(table, rec)
	}

	return rec, ParseEvents(doc)
}

// ExtractDocument parses r as HTML and runs Extract on it.
func ExtractDocument(r io.Reader) (*models.Record, []models.Event, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %w", utils.ErrParsing, err)
	}
	rec, events := Extract(doc)
	return rec, events, nil
}

// Entity produces the complete output record for identifier id: extraction,
// the identifier itself, and the aggregated event summary.
func Entity(id int, doc *goquery.Document) (*models.Record, []models.Event) {
	rec, events := Extract(doc)
	rec.Set(models.FieldAthleteID, strconv.Itoa(id))
	aggregate.Apply(rec, aggregate.Summarize(events))
	return rec, events
}
