package extract

import (
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/Sriram-PR/olympedia-scraper/pkg/models"
)

var yearPattern = regexp.MustCompile(`(\d{4})`)

const (
	editionHrefMarker = "/editions/"
	outcomeColumn     = 4 // zero-based index of the outcome cell
)

// eventContext is carried across the rows of one events table. An edition row
// replaces it; result rows read it.
type eventContext struct {
	games string
	sport string
	noc   string
}

// isEventsTable reports whether table's headers name a games column and a sport/discipline column.
func isEventsTable(table *goquery.Selection) bool {
	hasGames, hasSport := false, false
	table.Find("th").Each(func(_ int, th *goquery.Selection) {
		h := strings.ToLower(spacedText(th))
		if h == "games" {
			hasGames = true
		}
		if strings.Contains(h, "discipline") || strings.Contains(h, "sport") {
			hasSport = true
		}
	})
	return hasGames && hasSport
}

// ParseEvents returns one Event per result row of every events table, in document order.
func ParseEvents(doc *goquery.Document) []models.Event {
	var events []models.Event
	doc.Find("table").Each(func(_ int, table *goquery.Selection) {
		if !isEventsTable(table) {
			return
		}
		events = append(events, parseEventsTable(table)...)
	})
	return events
}

func parseEventsTable(table *goquery.Selection) []models.Event {
	body := table.Find("tbody").First()
	if body.Length() == 0 {
		body = table
	}

	var (
		events []models.Event
		ctx    eventContext
	)
	body.Find("tr").Each(func(_ int, row *goquery.Selection) {
		cells := row.Find("td")
		if cells.Length() == 0 {
			return
		}

		first := cells.Eq(0)
		if href, ok := first.Find("a").First().Attr("href"); ok && strings.Contains(href, editionHrefMarker) {
			ctx = eventContext{
				games: spacedText(first),
				sport: spacedText(cells.Eq(1)),
				noc:   spacedText(cells.Eq(2)),
			}
			return
		}

		if cells.Length() <= outcomeColumn {
			return
		}
		year := ""
		if g := yearPattern.FindStringSubmatch(ctx.games); g != nil {
			year = g[1]
		}
		events = append(events, models.Event{
			Games: ctx.games,
			Year:  year,
			Sport: ctx.sport,
			Medal: spacedText(cells.Eq(outcomeColumn)),
			NOC:   ctx.noc,
		})
	})
	return events
}
