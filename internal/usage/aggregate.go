package usage

import (
	"cmp"
	"slices"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"github.com/j-veylop/inspectro-tui/internal/models"
)

// Event is a single metered call.
type Event = models.UsageEvent

// SeriesKey identifies one output series.
type SeriesKey struct {
	Model    string
	Provider string
}

// SeriesInput is the raw event stream of one series.
type SeriesInput struct {
	Key    SeriesKey
	Events []Event
}

// BucketRecord accumulates the numeric fields of every event merged into one
// bucket. The zero value is the empty bucket.
type BucketRecord struct {
	InputTokens  int64 `json:"input_token"`
	OutputTokens int64 `json:"output_token"`
	TotalTokens  int64 `json:"total_token"`
	InputCost    int64 `json:"input_token_cost_micro_usd"`
	OutputCost   int64 `json:"output_token_cost_micro_usd"`
	TotalCost    int64 `json:"total_token_cost_micro_usd"`
	Requests     int64 `json:"request_count"`
}

// Add merges e into the record and counts it as one request.
func (r *BucketRecord) Add(e Event) {
	r.InputTokens += e.InputTokens
	r.OutputTokens += e.OutputTokens
	r.TotalTokens += e.TotalTokens
	r.InputCost += e.InputCost
	r.OutputCost += e.OutputCost
	r.TotalCost += e.TotalCost
	r.Requests++
}

// Merge adds o into r.
func (r *BucketRecord) Merge(o BucketRecord) {
	r.InputTokens += o.InputTokens
	r.OutputTokens += o.OutputTokens
	r.TotalTokens += o.TotalTokens
	r.InputCost += o.InputCost
	r.OutputCost += o.OutputCost
	r.TotalCost += o.TotalCost
	r.Requests += o.Requests
}

// IsZero reports whether nothing was merged into the record.
func (r BucketRecord) IsZero() bool {
	return r == BucketRecord{}
}

// TotalCostUSD returns the total cost in dollars.
func (r BucketRecord) TotalCostUSD() float64 {
	return models.MicroUSDToUSD(r.TotalCost)
}

// Point is one bucket of a series.
type Point struct {
	Bucket
	Record BucketRecord
}

// Series is the dense time series of one model/provider pair.
type Series struct {
	Key    SeriesKey
	Points []Point
}

// Totals sums every point of the series.
func (s Series) Totals() BucketRecord {
	var total BucketRecord
	for _, p := range s.Points {
		total.Merge(p.Record)
	}
	return total
}

// Aggregate folds each input's events into buckets keyed by format and walks
// buckets to emit one point per bucket, zero-filled where nothing landed.
// Events whose key is not among buckets never reach the output. Inputs that
// share a key are merged into one series. The result is ordered by a
// locale-aware comparison of model name followed by provider.
func Aggregate(inputs []SeriesInput, buckets []Bucket, format func(Event) BucketKey) []Series {
	if len(inputs) == 0 {
		return []Series{}
	}

	index := make(map[SeriesKey]int, len(inputs))
	folded := make([]map[BucketKey]BucketRecord, 0, len(inputs))
	keys := make([]SeriesKey, 0, len(inputs))

	for _, in := range inputs {
		i, ok := index[in.Key]
		if !ok {
			i = len(folded)
			index[in.Key] = i
			folded = append(folded, make(map[BucketKey]BucketRecord))
			keys = append(keys, in.Key)
		}
		byBucket := folded[i]
		for _, e := range in.Events {
			k := format(e)
			rec := byBucket[k]
			rec.Add(e)
			byBucket[k] = rec
		}
	}

	out := make([]Series, len(keys))
	for i, key := range keys {
		points := make([]Point, len(buckets))
		for j, b := range buckets {
			points[j] = Point{Bucket: b, Record: folded[i][b.Key]}
		}
		out[i] = Series{Key: key, Points: points}
	}

	SortSeries(out)
	return out
}

// SortSeries orders series by model name then provider using English
// collation, falling back to byte order on collation ties.
func SortSeries(series []Series) {
	col := collate.New(language.English)
	slices.SortStableFunc(series, func(a, b Series) int {
		if c := col.CompareString(a.Key.Model+a.Key.Provider, b.Key.Model+b.Key.Provider); c != 0 {
			return c
		}
		return cmp.Or(
			cmp.Compare(a.Key.Model, b.Key.Model),
			cmp.Compare(a.Key.Provider, b.Key.Provider),
		)
	})
}
