package extract

import (
	"regexp"
	"strings"
)

// Location is a place split into its parts. Any part may be empty.
type Location struct {
	City    string
	Region  string
	Country string
}

type locationMatcher struct {
	re    *regexp.Regexp
	build func(groups []string) Location
}

// locationMatchers are tried in order; the first match wins.
var locationMatchers = []locationMatcher{
	{
		// "City, Region (CTRY)"
		re: regexp.MustCompile(`^(.*?),[\s\p{Z}]*(.*?)[\s\p{Z}]*\(([^)]+)\)$`),
		build: func(g []string) Location {
			return Location{City: g[1], Region: g[2], Country: g[3]}
		},
	},
	{
		// "Region (CTRY)"
		re: regexp.MustCompile(`^(.*?)[\s\p{Z}]*\(([^)]+)\)$`),
		build: func(g []string) Location {
			return Location{Region: g[1], Country: g[2]}
		},
	},
	{
		// "City, Country"
		re: regexp.MustCompile(`^(.*?),[\s\p{Z}]*(.*?)$`),
		build: func(g []string) Location {
			return Location{City: g[1], Country: g[2]}
		},
	},
}

// ParseLocation splits free text into city, region and country.
// Text matching none of the known shapes becomes the city.
func ParseLocation(text string) (city, region, country string) {
	loc := parseLocation(text)
	return loc.City, loc.Region, loc.Country
}

func parseLocation(text string) Location {
	text = strings.TrimSpace(text)
	if text == "" {
		return Location{}
	}
	for _, m := range locationMatchers {
		if g := m.re.FindStringSubmatch(text); g != nil {
			loc := m.build(g)
			loc.City = strings.TrimSpace(loc.City)
			loc.Region = strings.TrimSpace(loc.Region)
			loc.Country = strings.TrimSpace(loc.Country)
			return loc
		}
	}
	return Location{City: text}
}

// SplitDateAndLocation splits "<date> in <place>" at the first " in ".
// Without a separator the whole value is the date.
func SplitDateAndLocation(value string) (date, location string) {
	if value == "" {
		return "", ""
	}
	date, location, found := strings.Cut(value, " in ")
	if !found {
		return strings.TrimSpace(value), ""
	}
	return strings.TrimSpace(date), strings.TrimSpace(location)
}
