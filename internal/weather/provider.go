package weather

import (
	"context"
)

// SeriesRequest describes one provider request: a single variable over a
// region's bounding box for a span of years.
type SeriesRequest struct {
	Region    Region
	Variable  Variable
	StartYear int
	EndYear   int
}

// Provider abstracts a monthly climate data source (e.g. NASA POWER).
type Provider interface {
	Name() string
	FetchSeries(ctx context.Context, req SeriesRequest) (RawSeries, error)
}

// TableCache is the contract the advisory context must satisfy for memoizing
// assembled tables. PutTable keeps the first value written for a key.
type TableCache interface {
	GetTable(key string) (*Table, bool)
	PutTable(key string, table *Table) *Table
}
