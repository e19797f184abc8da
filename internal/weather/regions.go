package weather

import (
	"fmt"
	"sort"
	"time"

	"github.com/i474232898/climate-advisory/internal/common"
)

// DefaultStartYear is the first year covered by the monthly provider archive.
const DefaultStartYear = 1981

// Boxes are at least 2° wide on each axis; the regional endpoint rejects smaller areas.
var catalog = map[string]BoundingBox{
	"Buenos Aires":                    {LatMin: -39.0, LatMax: -33.0, LonMin: -65.0, LonMax: -57.0},
	"Ciudad Autónoma de Buenos Aires": {LatMin: -35.5, LatMax: -33.5, LonMin: -59.5, LonMax: -57.5},
	"Catamarca":                       {LatMin: -30.1, LatMax: -25.1, LonMin: -69.1, LonMax: -64.9},
	"Chaco":                           {LatMin: -28.0, LatMax: -24.0, LonMin: -63.4, LonMax: -58.3},
	"Chubut":                          {LatMin: -46.0, LatMax: -42.0, LonMin: -72.2, LonMax: -63.5},
	"Córdoba":                         {LatMin: -33.5, LatMax: -31.0, LonMin: -65.5, LonMax: -63.0},
	"Corrientes":                      {LatMin: -30.8, LatMax: -27.2, LonMin: -59.7, LonMax: -55.6},
	"Entre Ríos":                      {LatMin: -34.0, LatMax: -30.1, LonMin: -60.8, LonMax: -57.8},
	"Formosa":                         {LatMin: -27.0, LatMax: -22.0, LonMin: -62.4, LonMax: -57.5},
	"Jujuy":                           {LatMin: -24.6, LatMax: -21.8, LonMin: -67.2, LonMax: -64.1},
	"La Pampa":                        {LatMin: -39.3, LatMax: -35.0, LonMin: -68.3, LonMax: -63.4},
	"La Rioja":                        {LatMin: -31.9, LatMax: -27.7, LonMin: -69.6, LonMax: -65.4},
	"Mendoza":                         {LatMin: -36.0, LatMax: -32.0, LonMin: -69.5, LonMax: -67.0},
	"Misiones":                        {LatMin: -28.5, LatMax: -25.5, LonMin: -56.5, LonMax: -53.5},
	"Neuquén":                         {LatMin: -41.1, LatMax: -36.1, LonMin: -71.9, LonMax: -68.0},
	"Río Negro":                       {LatMin: -42.0, LatMax: -37.5, LonMin: -71.9, LonMax: -62.8},
	"Salta":                           {LatMin: -25.5, LatMax: -22.0, LonMin: -66.5, LonMax: -63.0},
	"San Juan":                        {LatMin: -32.6, LatMax: -28.3, LonMin: -70.6, LonMax: -66.7},
	"San Luis":                        {LatMin: -36.0, LatMax: -31.8, LonMin: -67.4, LonMax: -64.9},
	"Santa Cruz":                      {LatMin: -52.4, LatMax: -46.0, LonMin: -73.6, LonMax: -65.7},
	"Santa Fe":                        {LatMin: -33.5, LatMax: -28.0, LonMin: -63.5, LonMax: -59.0},
	"Santiago del Estero":             {LatMin: -30.5, LatMax: -25.6, LonMin: -65.2, LonMax: -61.6},
	"Tierra del Fuego":                {LatMin: -55.1, LatMax: -52.6, LonMin: -68.6, LonMax: -63.7},
	"Tucumán":                         {LatMin: -28.0, LatMax: -26.0, LonMin: -66.5, LonMax: -64.5},
}

// Regions returns the catalog sorted by name.
func Regions() []Region {
	out := make([]Region, 0, len(catalog))
	for name, box := range catalog {
		out = append(out, Region{Name: name, Box: box})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// RegionNames returns the catalog names sorted.
func RegionNames() []string {
	regions := Regions()
	names := make([]string, len(regions))
	for i, r := range regions {
		names[i] = r.Name
	}
	return names
}

// LookupRegion resolves a name exactly or ignoring case and accents.
func LookupRegion(name string) (Region, error) {
	if box, ok := catalog[name]; ok {
		return Region{Name: name, Box: box}, nil
	}
	want := common.Normalize(name)
	for n, box := range catalog {
		if common.Normalize(n) == want {
			return Region{Name: n, Box: box}, nil
		}
	}
	return Region{}, fmt.Errorf("%w: %q", ErrUnknownRegion, name)
}

// ResolvePeriod applies defaults to optional "YYYY-MM" bounds: the start
// defaults to January of startYear and the end to the month of now. An end
// after the month of now is rejected.
func ResolvePeriod(start, end string, startYear int, now time.Time) (Period, error) {
	if startYear <= 0 {
		startYear = DefaultStartYear
	}
	p := Period{
		Start: YearMonth{Year: startYear, Month: time.January},
		End:   YearMonth{Year: now.Year(), Month: now.Month()},
	}
	if start != "" {
		ym, err := ParseYearMonth(start)
		if err != nil {
			return Period{}, err
		}
		p.Start = ym
	}
	if end != "" {
		ym, err := ParseYearMonth(end)
		if err != nil {
			return Period{}, err
		}
		p.End = ym
	}
	current := YearMonth{Year: now.Year(), Month: now.Month()}
	if current.Before(p.End) {
		return Period{}, fmt.Errorf("%w: end %s is after the current month %s", ErrInvalidPeriod, p.End, current)
	}
	if p.End.Before(p.Start) {
		return Period{}, fmt.Errorf("%w: end %s before start %s", ErrInvalidPeriod, p.End, p.Start)
	}
	return p, nil
}
