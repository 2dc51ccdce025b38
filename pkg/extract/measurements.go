package extract

import (
	"math"
	"regexp"
	"strconv"

	"github.com/Sriram-PR/olympedia-scraper/pkg/models"
)

var (
	cmPattern     = regexp.MustCompile(`(\d{2,3})[\s\p{Z}]*cm`)
	kgPattern     = regexp.MustCompile(`(\d{2,3})[\s\p{Z}]*kg`)
	metresPattern = regexp.MustCompile(`([0-9]+(?:\.[0-9]+)?)[\s\p{Z}]*m`)
)

type heightMatcher struct {
	re      *regexp.Regexp
	convert func(capture string) (string, bool)
}

// heightMatchers are tried in order on a dedicated height row; the first match wins
// even when its conversion fails.
var heightMatchers = []heightMatcher{
	{re: cmPattern, convert: func(c string) (string, bool) { return c, true }},
	{re: metresPattern, convert: metresToCM},
}

func metresToCM(capture string) (string, bool) {
	m, err := strconv.ParseFloat(capture, 64)
	if err != nil || math.IsInf(m, 0) || math.IsNaN(m) {
		return "", false
	}
	return strconv.Itoa(int(math.RoundToEven(m * 100))), true
}

// ParseMeasurements fills height_cm and weight_kg from a row with the given
// normalized label. Values that do not match leave the fields untouched.
func ParseMeasurements(label, value string, rec *models.Record) {
	switch label {
	case labelMeasurements:
		if g := cmPattern.FindStringSubmatch(value); g != nil {
			rec.Set(models.FieldHeightCM, g[1])
		}
		if g := kgPattern.FindStringSubmatch(value); g != nil {
			rec.Set(models.FieldWeightKG, g[1])
		}
	case labelHeight:
		for _, m := range heightMatchers {
			g := m.re.FindStringSubmatch(value)
			if g == nil {
				continue
			}
			if cm, ok := m.convert(g[1]); ok {
				rec.Set(models.FieldHeightCM, cm)
			}
			return
		}
	case labelWeight:
		if g := kgPattern.FindStringSubmatch(value); g != nil {
			rec.Set(models.FieldWeightKG, g[1])
		}
	}
}
