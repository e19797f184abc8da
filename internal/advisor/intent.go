package advisor

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/i474232898/climate-advisory/internal/common"
	"github.com/i474232898/climate-advisory/internal/weather"
)

// IntentKind is what a chat message asks for.
type IntentKind string

const (
	TrendForRegion   IntentKind = "trend_for_region"
	MostRainInPeriod IntentKind = "most_rain_in_period"
	Unknown          IntentKind = "unknown"
)

// Intent is a parsed chat message.
type Intent struct {
	Kind   IntentKind `json:"kind"`
	Region string     `json:"region,omitempty"`
	Year   *int       `json:"year,omitempty"`
}

var yearRe = regexp.MustCompile(`(19\d{2}|20\d{2})`)

var (
	trendKeywords    = []string{"tendenc", "trend"}
	mostRainKeywords = []string{"mas lluvi", "most rain"}
)

// ParseIntent classifies a free-text message. Matching ignores case and accents.
func ParseIntent(message string) Intent {
	m := common.Normalize(message)
	in := Intent{Kind: Unknown, Region: findRegion(m), Year: lastYear(m)}

	switch {
	case common.HasAny(m, trendKeywords...) && in.Region != "":
		in.Kind = TrendForRegion
	case common.HasAny(m, mostRainKeywords...):
		in.Kind = MostRainInPeriod
	case in.Region != "":
		in.Kind = TrendForRegion
	}
	return in
}

// findRegion returns the catalog region whose normalized name occurs in m.
// The longest match wins so "Ciudad Autónoma de Buenos Aires" is not read as "Buenos Aires".
func findRegion(m string) string {
	best := ""
	for _, name := range weather.RegionNames() {
		if strings.Contains(m, common.Normalize(name)) && len(name) > len(best) {
			best = name
		}
	}
	return best
}

func lastYear(m string) *int {
	years := yearRe.FindAllString(m, -1)
	if len(years) == 0 {
		return nil
	}
	y, err := strconv.Atoi(years[len(years)-1])
	if err != nil {
		return nil
	}
	return &y
}
