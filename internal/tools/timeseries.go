package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"time"

	"gonum.org/v1/gonum/stat/distuv"

	"github.com/chartchat/chartchat/internal/schema"
)

// DateLayout is the calendar date format accepted and produced by the tools.
const DateLayout = "2006-01-02"

// Series is the wire form exchanged between the two time-series tools:
// parallel date and value arrays.
type Series struct {
	Date  []string  `json:"date"`
	Value []float64 `json:"value"`
}

// TimeSeriesTool generates one standard-normal sample per calendar day.
type TimeSeriesTool struct {
	maxDays int
	src     rand.Source
}

// NewTimeSeriesTool creates a TimeSeriesTool. maxDays caps the inclusive
// range length; 0 means no cap. src may be nil to use the shared generator.
func NewTimeSeriesTool(maxDays int, src rand.Source) *TimeSeriesTool {
	return &TimeSeriesTool{maxDays: maxDays, src: src}
}

func (t *TimeSeriesTool) Name() string { return string(ToolGetTimeSeries) }
func (t *TimeSeriesTool) Description() string {
	return "Get random time series data for a date range. Returns a JSON object with a 'date' " +
		"list (every day from start_date to end_date inclusive) and a 'value' list of standard " +
		"normal samples, one per date."
}

func (t *TimeSeriesTool) Parameters() json.RawMessage {
	return json.RawMessage(`{
		"type": "object",
		"properties": {
			"start_date": {
				"type": "string",
				"description": "First day of the series, format YYYY-MM-DD"
			},
			"end_date": {
				"type": "string",
				"description": "Last day of the series (inclusive), format YYYY-MM-DD"
			}
		},
		"required": ["start_date", "end_date"]
	}`)
}

func (t *TimeSeriesTool) Execute(ctx context.Context, params map[string]any) (string, error) {
	series, err := t.Generate(stringArg(params, "start_date"), stringArg(params, "end_date"))
	if err != nil {
		return "", err
	}

	data, err := json.Marshal(series)
	if err != nil {
		return "", fmt.Errorf("encode series: %w", err)
	}

	slog.Debug("Generated time series", "session", TurnCtx(ctx).SessionID, "points", len(series.Date))
	return string(data), nil
}

// Generate builds the series for the inclusive range [start, end].
func (t *TimeSeriesTool) Generate(start, end string) (Series, error) {
	from, err := time.Parse(DateLayout, start)
	if err != nil {
		return Series{}, schema.NewError(schema.KindInvalidDateRange, "start_date %q is not a YYYY-MM-DD date", start)
	}
	to, err := time.Parse(DateLayout, end)
	if err != nil {
		return Series{}, schema.NewError(schema.KindInvalidDateRange, "end_date %q is not a YYYY-MM-DD date", end)
	}
	if to.Before(from) {
		return Series{}, schema.NewError(schema.KindInvalidDateRange, "end_date %s is before start_date %s", end, start)
	}

	days := calendarDays(from, to)
	if t.maxDays > 0 && days > t.maxDays {
		return Series{}, schema.NewError(schema.KindInvalidDateRange, "range of %d days exceeds the limit of %d", days, t.maxDays)
	}

	normal := distuv.Normal{Mu: 0, Sigma: 1, Src: t.src}
	series := Series{
		Date:  make([]string, 0, days),
		Value: make([]float64, 0, days),
	}
	for d := from; !d.After(to); d = d.AddDate(0, 0, 1) {
		series.Date = append(series.Date, d.Format(DateLayout))
		series.Value = append(series.Value, normal.Rand())
	}
	return series, nil
}

// calendarDays counts the days in [from, to]. Both are UTC midnights, so
// the Unix difference is a whole number of days; time.Duration would
// saturate for ranges longer than about 292 years.
func calendarDays(from, to time.Time) int {
	return int((to.Unix()-from.Unix())/86400) + 1
}

func stringArg(params map[string]any, key string) string {
	switch v := params[key].(type) {
	case string:
		return v
	case nil:
		return ""
	default:
		return fmt.Sprint(v)
	}
}
