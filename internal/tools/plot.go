package tools

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"github.com/chartchat/chartchat/internal/schema"
)

// PlotResultFormat selects how the image path is embedded in the tool result.
type PlotResultFormat string

const (
	PlotResultTag      PlotResultFormat = "tag"      // Image file path:<plot>/abs/path.png</plot>
	PlotResultMarkdown PlotResultFormat = "markdown" // ![Time Series Data](/abs/path.png)
)

const plotTitle = "Time Series Data"

var plotDateLayouts = []string{DateLayout, "2006-01-02 15:04:05", time.RFC3339}

// PlotTool renders a Series as a PNG line chart under a plots directory.
type PlotTool struct {
	dir    string
	format PlotResultFormat
	now    func() time.Time
}

// NewPlotTool creates a PlotTool writing into dir (made absolute, created on first use).
func NewPlotTool(dir string, format PlotResultFormat) *PlotTool {
	if dir == "" {
		dir = "plots"
	}
	if abs, err := filepath.Abs(dir); err == nil {
		dir = abs
	}
	if format == "" {
		format = PlotResultTag
	}
	return &PlotTool{dir: dir, format: format, now: time.Now}
}

// Dir returns the absolute plots directory.
func (t *PlotTool) Dir() string { return t.dir }

func (t *PlotTool) Name() string { return string(ToolPlotTimeSeries) }
func (t *PlotTool) Description() string {
	return "Plot time series data and save it as a PNG image. Returns the image file path."
}

func (t *PlotTool) Parameters() json.RawMessage {
	return json.RawMessage(`{
		"type": "object",
		"properties": {
			"data": {
				"type": "string",
				"description": "JSON string with two keys: 'date' (list of YYYY-MM-DD strings) and 'value' (list of numbers of the same length)"
			}
		},
		"required": ["data"]
	}`)
}

func (t *PlotTool) Execute(ctx context.Context, params map[string]any) (string, error) {
	raw, err := dataArg(params)
	if err != nil {
		return "", err
	}

	path, err := t.Render(raw)
	if err != nil {
		return "", err
	}

	slog.Info("Saved plot", "session", TurnCtx(ctx).SessionID, "path", path)
	return t.formatResult(path), nil
}

// Render parses data and writes the chart, returning the absolute file path.
func (t *PlotTool) Render(data string) (string, error) {
	pts, err := parseSeries(data)
	if err != nil {
		return "", err
	}

	p := plot.New()
	p.Title.Text = plotTitle
	p.X.Label.Text = "Date"
	p.Y.Label.Text = "Value"
	p.X.Tick.Marker = plot.TimeTicks{Format: DateLayout}
	p.Add(plotter.NewGrid())

	line, err := plotter.NewLine(pts)
	if err != nil {
		return "", schema.WrapError(schema.KindMalformedData, err, "cannot plot series")
	}
	p.Add(line)

	w, err := p.WriterTo(10*vg.Inch, 6*vg.Inch, "png")
	if err != nil {
		return "", fmt.Errorf("prepare png canvas: %w", err)
	}

	f, err := t.createFile()
	if err != nil {
		return "", err
	}
	defer f.Close()

	if _, err := w.WriteTo(f); err != nil {
		return "", fmt.Errorf("write plot %s: %w", f.Name(), err)
	}
	return f.Name(), nil
}

// createFile opens plot_<YYYYMMDD_HHMMSS>.png exclusively, adding a _<n>
// suffix when a plot was already written in the same second.
func (t *PlotTool) createFile() (*os.File, error) {
	if err := os.MkdirAll(t.dir, 0o755); err != nil {
		return nil, fmt.Errorf("create plots dir: %w", err)
	}

	stamp := t.now().Format("20060102_150405")
	for n := 0; n < 1000; n++ {
		name := "plot_" + stamp + ".png"
		if n > 0 {
			name = fmt.Sprintf("plot_%s_%d.png", stamp, n)
		}
		f, err := os.OpenFile(filepath.Join(t.dir, name), os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
		if errors.Is(err, os.ErrExist) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("create plot file: %w", err)
		}
		return f, nil
	}
	return nil, fmt.Errorf("no free plot file name for %s", stamp)
}

func (t *PlotTool) formatResult(path string) string {
	if t.format == PlotResultMarkdown {
		return fmt.Sprintf("![%s](%s)", plotTitle, path)
	}
	return fmt.Sprintf("Image file path:<plot>%s</plot>", path)
}

// dataArg accepts the series either as a JSON string (the declared schema)
// or as an inline object, which some models send instead.
func dataArg(params map[string]any) (string, error) {
	switch v := params["data"].(type) {
	case string:
		return v, nil
	case map[string]any:
		b, err := json.Marshal(v)
		if err != nil {
			return "", schema.WrapError(schema.KindMalformedData, err, "data is not serializable")
		}
		return string(b), nil
	case nil:
		return "", schema.NewError(schema.KindMalformedData, "data is required")
	default:
		return "", schema.NewError(schema.KindMalformedData, "data must be a JSON string, got %T", v)
	}
}

func parseSeries(data string) (plotter.XYs, error) {
	var in struct {
		Date  *[]string  `json:"date"`
		Value *[]float64 `json:"value"`
	}
	if err := json.Unmarshal([]byte(data), &in); err != nil {
		return nil, schema.WrapError(schema.KindMalformedData, err, "data is not valid series JSON")
	}
	if in.Date == nil || in.Value == nil {
		return nil, schema.NewError(schema.KindMalformedData, "data must contain both 'date' and 'value' arrays")
	}

	dates, values := *in.Date, *in.Value
	if len(dates) != len(values) {
		return nil, schema.NewError(schema.KindMalformedData, "'date' has %d entries but 'value' has %d", len(dates), len(values))
	}
	if len(dates) == 0 {
		return nil, schema.NewError(schema.KindMalformedData, "series is empty")
	}

	pts := make(plotter.XYs, len(dates))
	for i, s := range dates {
		ts, err := parsePlotDate(s)
		if err != nil {
			return nil, schema.NewError(schema.KindMalformedData, "date[%d] %q is not a date", i, s)
		}
		pts[i].X = float64(ts.Unix())
		pts[i].Y = values[i]
	}
	return pts, nil
}

func parsePlotDate(s string) (time.Time, error) {
	var err error
	for _, layout := range plotDateLayouts {
		var ts time.Time
		if ts, err = time.Parse(layout, s); err == nil {
			return ts, nil
		}
	}
	return time.Time{}, err
}
