package providers

import (
	"context"
	"fmt"
	"math"
	"net/http"
	"net/url"
	"strconv"

	"github.com/i474232898/climate-advisory/internal/weather"
	"github.com/sony/gobreaker"
)

// DefaultPowerURL is the NASA POWER monthly regional endpoint.
const DefaultPowerURL = "https://power.larc.nasa.gov/api/temporal/monthly/regional"

const powerFillValue = -999.0

// NASAPowerProvider implements the weather.Provider interface for NASA POWER.
type NASAPowerProvider struct {
	name      string
	baseURL   string
	community string
	httpCfg   HTTPClientConfig
	circuit   *gobreaker.CircuitBreaker
}

// NewNASAPowerProvider builds a provider. Empty baseURL or community fall
// back to the public endpoint and the agroclimatology community.
func NewNASAPowerProvider(client *http.Client, baseURL, community string) *NASAPowerProvider {
	if baseURL == "" {
		baseURL = DefaultPowerURL
	}
	if community == "" {
		community = "ag"
	}
	return &NASAPowerProvider{
		name:      "nasa-power",
		baseURL:   baseURL,
		community: community,
		httpCfg: HTTPClientConfig{
			Client:  client,
			Backoff: DefaultBackoff,
		},
		circuit: newBreaker("nasa-power"),
	}
}

// WithBackoff overrides the retry policy.
func (p *NASAPowerProvider) WithBackoff(b BackoffConfig) *NASAPowerProvider {
	p.httpCfg.Backoff = b
	return p
}

func (p *NASAPowerProvider) Name() string {
	return p.name
}

func (p *NASAPowerProvider) FetchSeries(ctx context.Context, req weather.SeriesRequest) (weather.RawSeries, error) {
	box := req.Region.Box

	values := url.Values{}
	values.Set("start", strconv.Itoa(req.StartYear))
	values.Set("end", strconv.Itoa(req.EndYear))
	values.Set("latitude-min", formatCoord(box.LatMin))
	values.Set("latitude-max", formatCoord(box.LatMax))
	values.Set("longitude-min", formatCoord(box.LonMin))
	values.Set("longitude-max", formatCoord(box.LonMax))
	values.Set("community", p.community)
	values.Set("parameters", string(req.Variable))
	values.Set("format", "json")
	values.Set("units", "metric")
	values.Set("header", "true")

	u := fmt.Sprintf("%s?%s", p.baseURL, values.Encode())

	var payload powerPayload
	if err := getJSON(ctx, p.httpCfg, p.circuit, u, &payload); err != nil {
		return nil, err
	}

	return payload.series(req.Variable), nil
}

func formatCoord(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// powerParameters maps variable code -> date key -> value (null when missing).
type powerParameters map[string]map[string]*float64

type powerPayload struct {
	Header struct {
		FillValue *float64 `json:"fill_value"`
	} `json:"header"`
	Properties *struct {
		Parameter powerParameters `json:"parameter"`
	} `json:"properties"`
	Features []struct {
		Properties struct {
			Parameter powerParameters `json:"parameter"`
		} `json:"properties"`
	} `json:"features"`
}

// series normalizes either response shape into one RawSeries. The single
// area shape wins; otherwise values are averaged across features per date key.
// An empty series is returned when neither shape carries the variable.
func (p powerPayload) series(v weather.Variable) weather.RawSeries {
	fill := powerFillValue
	if p.Header.FillValue != nil {
		fill = *p.Header.FillValue
	}
	valid := func(x *float64) bool {
		return x != nil && *x != fill && !math.IsNaN(*x) && !math.IsInf(*x, 0)
	}

	if p.Properties != nil {
		if values, ok := p.Properties.Parameter[string(v)]; ok && len(values) > 0 {
			out := make(weather.RawSeries, len(values))
			for k, x := range values {
				if valid(x) {
					out[k] = *x
				}
			}
			return out
		}
	}

	sums := make(map[string]float64)
	counts := make(map[string]int)
	for _, f := range p.Features {
		for k, x := range f.Properties.Parameter[string(v)] {
			if !valid(x) {
				continue
			}
			sums[k] += *x
			counts[k]++
		}
	}
	out := make(weather.RawSeries, len(sums))
	for k, sum := range sums {
		out[k] = sum / float64(counts[k])
	}
	return out
}
