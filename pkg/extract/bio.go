package extract

import (
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/Sriram-PR/olympedia-scraper/pkg/models"
)

const (
	labelSex          = "sex"
	labelBorn         = "born"
	labelDied         = "died"
	labelMeasurements = "measurements"
	labelHeight       = "height"
	labelWeight       = "weight"
	labelNOC          = "noc"
)

// bioLabels are the row labels that identify a biographical table
var bioLabels = map[string]struct{}{
	labelSex:          {},
	labelBorn:         {},
	labelDied:         {},
	labelMeasurements: {},
	labelHeight:       {},
	labelWeight:       {},
	labelNOC:          {},
}

var nocCodePattern = regexp.MustCompile(`\b[A-Z]{3}\b`)

// ScoreTable counts the rows of table whose header label is a biographical label.
func ScoreTable(table *goquery.Selection) int {
	score := 0
	table.Find("tr").Each(func(_ int, row *goquery.Selection) {
		th := row.Find("th").First()
		if th.Length() == 0 {
			return
		}
		if _, ok := bioLabels[label(th)]; ok {
			score++
		}
	})
	return score
}

// FindBiographicalTable returns the highest scoring table in the document.
// Ties keep the first table seen. Returns nil when no table scores above zero.
func FindBiographicalTable(doc *goquery.Document) *goquery.Selection {
	var best *goquery.Selection
	bestScore := 0
	doc.Find("table").Each(func(_ int, table *goquery.Selection) {
		if score := ScoreTable(table); score > bestScore {
			best, bestScore = table, score
		}
	})
	return best
}

// parseBio fills the biographical fields of rec from table
func parseBio(table *goquery.Selection, rec *models.Record) {
	table.Find("tr").Each(func(_ int, row *goquery.Selection) {
		th := row.Find("th").First()
		td := row.Find("td").First()
		if th.Length() == 0 || td.Length() == 0 {
			return
		}

		key := label(th)
		value := spacedText(td)

		switch {
		case key == labelSex:
			rec.Set(models.FieldSex, value)
		case key == labelMeasurements || key == labelHeight || key == labelWeight:
			ParseMeasurements(key, value, rec)
		case strings.HasPrefix(key, labelBorn):
			parseEventPlace(value, rec, models.FieldBornDate, models.FieldBornCity, models.FieldBornRegion, models.FieldBornCountry)
		case strings.HasPrefix(key, labelDied):
			parseEventPlace(value, rec, models.FieldDiedDate, models.FieldDiedCity, models.FieldDiedRegion, models.FieldDiedCountry)
		case key == labelNOC:
			rec.Set(models.FieldNOC, parseNOC(td))
		}
	})
}

// parseEventPlace handles "born"/"died" rows: the date is kept verbatim and the
// location, if any, is split into its parts.
func parseEventPlace(value string, rec *models.Record, dateKey, cityKey, regionKey, countryKey string) {
	date, location := SplitDateAndLocation(value)
	rec.Set(dateKey, date)
	if location == "" {
		return
	}
	city, region, country := ParseLocation(location)
	rec.Set(cityKey, city)
	rec.Set(regionKey, region)
	rec.Set(countryKey, country)
}

// parseNOC prefers the text of a country link, then the first three-letter code in it.
func parseNOC(td *goquery.Selection) string {
	source := td
	if link := td.Find(`a[href^="/countries/"]`).First(); link.Length() > 0 {
		source = link
	}
	text := strings.TrimSpace(spacedText(source))
	if code := nocCodePattern.FindString(text); code != "" {
		return code
	}
	return text
}
