package api

import (
	"bytes"
	"fmt"
	"image/color"
	"math"
	"net/http"
	"strconv"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"github.com/routecast/navrig/internal/monitoring"
	"github.com/routecast/navrig/internal/route"
	"github.com/routecast/navrig/internal/units"
)

// handlePlanChart renders speed and bearing over time for the active
// route's plan using go-echarts. This is a debugging-only endpoint to eyeball
// a kinematic plan without the planning UI.
// Query params:
//   - max_points (optional; default 2000) to reduce payload size
//   - units (optional; default kmph) for the speed axis
func (s *Server) handlePlanChart(w http.ResponseWriter, r *http.Request) {
	activeRoute := s.routes.Active()
	if activeRoute == nil {
		s.writeJSONError(w, http.StatusNotFound, "no active route to chart")
		return
	}

	maxPoints := 2000
	if mp := r.URL.Query().Get("max_points"); mp != "" {
		if v, err := strconv.Atoi(mp); err == nil && v > 100 && v <= 50000 {
			maxPoints = v
		}
	}

	unit := units.KMPH
	if u := r.URL.Query().Get("units"); u != "" {
		if !units.IsValid(u) {
			s.writeJSONError(w, http.StatusBadRequest,
				fmt.Sprintf("Invalid 'units' parameter: must be one of %s", units.GetValidUnitsString()))
			return
		}
		unit = u
	}

	plan, err := s.planner.Generate(activeRoute, route.FullRange(), s.planDtS)
	if err != nil {
		s.writeRunError(w, err)
		return
	}
	if len(plan.Points) == 0 {
		s.writeJSONError(w, http.StatusNotFound, "plan has no samples")
		return
	}

	// Downsample by stride to stay within maxPoints
	stride := 1
	if len(plan.Points) > maxPoints {
		stride = int(math.Ceil(float64(len(plan.Points)) / float64(maxPoints)))
	}

	times := make([]string, 0, len(plan.Points)/stride+1)
	speeds := make([]opts.LineData, 0, len(plan.Points)/stride+1)
	bearings := make([]opts.LineData, 0, len(plan.Points)/stride+1)
	for i := 0; i < len(plan.Points); i += stride {
		pt := plan.Points[i]
		times = append(times, fmt.Sprintf("%.1f", pt.T))
		speeds = append(speeds, opts.LineData{Value: units.ConvertSpeed(pt.SpeedMps, unit)})
		bearings = append(bearings, opts.LineData{Value: pt.BearingDeg})
	}

	subtitle := fmt.Sprintf("route=%s points=%d stride=%d dt=%.2fs", activeRoute.ID, len(times), stride, s.planDtS)

	speedChart := charts.NewLine()
	speedChart.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{PageTitle: "Plan Preview", Theme: "dark", Width: "1200px", Height: "400px"}),
		charts.WithTitleOpts(opts.Title{Title: fmt.Sprintf("Speed (%s)", unit), Subtitle: subtitle}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithXAxisOpts(opts.XAxis{Name: "t (s)"}),
	)
	speedChart.SetXAxis(times).AddSeries("speed", speeds)

	bearingChart := charts.NewLine()
	bearingChart.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{Theme: "dark", Width: "1200px", Height: "400px"}),
		charts.WithTitleOpts(opts.Title{Title: "Bearing (deg)"}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithXAxisOpts(opts.XAxis{Name: "t (s)"}),
		charts.WithYAxisOpts(opts.YAxis{Min: 0, Max: 360}),
	)
	bearingChart.SetXAxis(times).AddSeries("bearing", bearings)

	page := components.NewPage()
	page.AddCharts(speedChart, bearingChart)

	var buf bytes.Buffer
	if err := page.Render(&buf); err != nil {
		s.writeJSONError(w, http.StatusInternalServerError, fmt.Sprintf("render error: %v", err))
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write(buf.Bytes())
}

// handleRoutePlot renders the traversed ground path of the active route's
// plan as a PNG, waypoints overlaid.
func (s *Server) handleRoutePlot(w http.ResponseWriter, r *http.Request) {
	activeRoute := s.routes.Active()
	if activeRoute == nil {
		s.writeJSONError(w, http.StatusNotFound, "no active route to plot")
		return
	}

	plan, err := s.planner.Generate(activeRoute, route.FullRange(), s.planDtS)
	if err != nil {
		s.writeRunError(w, err)
		return
	}
	if len(plan.Points) == 0 {
		s.writeJSONError(w, http.StatusNotFound, "plan has no samples")
		return
	}

	p := plot.New()
	p.Title.Text = fmt.Sprintf("Route %s", activeRoute.ID)
	p.X.Label.Text = "Longitude"
	p.Y.Label.Text = "Latitude"

	path := make(plotter.XYs, len(plan.Points))
	for i, pt := range plan.Points {
		path[i] = plotter.XY{X: pt.Lon, Y: pt.Lat}
	}
	line, err := plotter.NewLine(path)
	if err != nil {
		s.writeJSONError(w, http.StatusInternalServerError, fmt.Sprintf("failed to build path line: %v", err))
		return
	}
	line.Width = vg.Points(1)
	line.Color = color.RGBA{R: 31, G: 119, B: 180, A: 255}
	p.Add(line)
	p.Legend.Add("path", line)

	waypoints := make(plotter.XYs, len(activeRoute.Waypoints))
	for i, wp := range activeRoute.Waypoints {
		waypoints[i] = plotter.XY{X: wp.Lon, Y: wp.Lat}
	}
	scatter, err := plotter.NewScatter(waypoints)
	if err != nil {
		s.writeJSONError(w, http.StatusInternalServerError, fmt.Sprintf("failed to build waypoint scatter: %v", err))
		return
	}
	scatter.GlyphStyle.Radius = vg.Points(3)
	scatter.GlyphStyle.Color = color.RGBA{R: 214, G: 39, B: 40, A: 255}
	p.Add(scatter)
	p.Legend.Add("waypoints", scatter)

	wt, err := p.WriterTo(8*vg.Inch, 6*vg.Inch, "png")
	if err != nil {
		s.writeJSONError(w, http.StatusInternalServerError, fmt.Sprintf("failed to render plot: %v", err))
		return
	}
	w.Header().Set("Content-Type", "image/png")
	if _, err := wt.WriteTo(w); err != nil {
		monitoring.Logf("Failed to write route plot: %v", err)
	}
}
