package main

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"io/fs"
	"math"
	"os"
	"path"

	"github.com/fogleman/gg"
	"github.com/golang/freetype/truetype"
	"github.com/mazznoer/csscolorparser"
	"github.com/stuartleeks/home-dash/weather-dash/view"
	"golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/goregular"
)

const (
	imageWidth  = 800
	imageHeight = 600
)

var backgroundGradients = map[view.Background][2]string{
	view.BACKGROUND_SUNSET: {"#ffb347", "#ff5e62"},
	view.BACKGROUND_STORM:  {"#5b6b7f", "#1f2937"},
	view.BACKGROUND_SKY:    {"#7dd3fc", "#2563eb"},
}

var temperatureColors = map[view.TemperatureClass]string{
	view.TEMP_HOT:  "#ff5a1f",
	view.TEMP_WARM: "#ff9f1c",
	view.TEMP_MILD: "#22a06b",
	view.TEMP_COOL: "#1e9bd7",
	view.TEMP_COLD: "#3b5bdb",
}

var statColors = map[string]string{
	"primary": "#1d8cf8",
	"rainy":   "#2b6cb0",
	"stormy":  "#4a5568",
	"cloudy":  "#718096",
}

// drawer renders a view.Page with gg. Fonts come from fontFile when set, otherwise the
// embedded Go font; icons come from iconsDir PNGs when present, otherwise they are drawn.
type drawer struct {
	fontFile string
	iconsDir string
	font     *truetype.Font
}

func newDrawer(fontFile string, iconsDir string) (*drawer, error) {
	d := &drawer{fontFile: fontFile, iconsDir: iconsDir}
	if fontFile == "" {
		f, err := truetype.Parse(goregular.TTF)
		if err != nil {
			return nil, fmt.Errorf("failed to parse embedded font: %w", err)
		}
		d.font = f
	}
	return d, nil
}

func (d *drawer) setFont(dc *gg.Context, size float64) error {
	if d.fontFile != "" {
		if err := dc.LoadFontFace(d.fontFile, size); err != nil {
			return fmt.Errorf("failed to load font: %w", err)
		}
		return nil
	}
	dc.SetFontFace(truetype.NewFace(d.font, &truetype.Options{Size: size, Hinting: font.HintingFull}))
	return nil
}

func (d *drawer) drawDashboardImage(page *view.Page) (*gg.Context, error) {
	img := image.NewRGBA(image.Rect(0, 0, imageWidth, imageHeight))
	dc := gg.NewContextForRGBA(img)

	if err := drawBackground(dc, page.Background); err != nil {
		return nil, err
	}

	if page.Loading {
		if err := d.drawLoading(dc); err != nil {
			return nil, err
		}
		return dc, nil
	}

	if err := d.drawImageHeading(dc, page.Title, page.DateString); err != nil {
		return nil, err
	}
	if page.Current == nil {
		// settled without data: heading and actions only
		return dc, d.drawActions(dc, page.Actions)
	}
	if err := d.drawCurrent(dc, page.Current, 20, 60); err != nil {
		return nil, err
	}
	if err := d.drawStats(dc, page.Stats, 540, 60); err != nil {
		return nil, err
	}
	if err := d.drawChart(dc, page.Chart, 20, 260, 760, 150); err != nil {
		return nil, err
	}
	if err := d.drawWeekly(dc, page.Weekly, 20, 420); err != nil {
		return nil, err
	}
	if err := d.drawActions(dc, page.Actions); err != nil {
		return nil, err
	}
	return dc, nil
}

func drawBackground(dc *gg.Context, background view.Background) error {
	colors, ok := backgroundGradients[background]
	if !ok {
		colors = backgroundGradients[view.BACKGROUND_SKY]
	}
	gradient := gg.NewLinearGradient(0, 0, float64(dc.Width()), float64(dc.Height()))
	for i, stop := range colors {
		c, err := parseColor(stop)
		if err != nil {
			return err
		}
		gradient.AddColorStop(float64(i), c)
	}
	dc.SetFillStyle(gradient)
	dc.DrawRectangle(0, 0, float64(dc.Width()), float64(dc.Height()))
	dc.Fill()
	return nil
}

func (d *drawer) drawLoading(dc *gg.Context) error {
	cx, cy := float64(dc.Width())/2, float64(dc.Height())/2

	dc.SetHexColor("#ffffff")
	dc.SetLineWidth(6)
	dc.DrawArc(cx, cy-70, 28, 0, 1.5*math.Pi)
	dc.Stroke()

	if err := d.setFont(dc, 30); err != nil {
		return err
	}
	drawStringCentered(dc, "Loading Weather Data", cx, cy-20)
	if err := d.setFont(dc, 17.5); err != nil {
		return err
	}
	drawStringCentered(dc, "Getting your location and fetching weather information...", cx, cy+25)
	return nil
}

func (d *drawer) drawImageHeading(dc *gg.Context, text string, dateText string) error {
	dc.SetHexColor("#ffffff")

	if err := d.setFont(dc, 25); err != nil {
		return err
	}
	drawStringLeft(dc, text, 20, 12)

	if err := d.setFont(dc, 17.5); err != nil {
		return err
	}
	w, _ := dc.MeasureString(dateText)
	drawStringLeft(dc, dateText, float64(dc.Width())-w-20, 18)

	return nil
}

func drawCard(dc *gg.Context, x, y, w, h float64) {
	dc.SetRGBA(1, 1, 1, 0.85)
	dc.DrawRoundedRectangle(x, y, w, h, 12)
	dc.Fill()
}

func (d *drawer) drawCurrent(dc *gg.Context, current *view.Current, left float64, top float64) error {
	drawCard(dc, left, top, 500, 190)

	dc.SetHexColor("#111827")
	if err := d.setFont(dc, 20); err != nil {
		return err
	}
	drawStringLeft(dc, current.Location, left+15, top+10)

	dc.SetHexColor(temperatureColors[current.TemperatureClass])
	if err := d.setFont(dc, 60); err != nil {
		return err
	}
	temperatureText := fmt.Sprintf("%d°C", current.Temperature)
	drawStringLeft(dc, temperatureText, left+15, top+40)

	dc.SetHexColor("#111827")
	if err := d.setFont(dc, 20); err != nil {
		return err
	}
	drawStringLeft(dc, current.Condition, left+15, top+115)
	dc.SetHexColor("#4b5563")
	if err := d.setFont(dc, 15); err != nil {
		return err
	}
	drawStringLeft(dc, current.Description, left+15, top+142)

	// feels like / uv / updated column
	column := left + 300
	dc.SetHexColor("#4b5563")
	drawStringLeft(dc, "Feels like", column, top+45)
	drawStringLeft(dc, "UV Index", column, top+95)
	drawStringLeft(dc, "Last updated", column, top+145)
	if err := d.setFont(dc, 20); err != nil {
		return err
	}
	dc.SetHexColor(temperatureColors[current.FeelsLikeClass])
	drawStringLeft(dc, fmt.Sprintf("%d°C", current.FeelsLike), column+110, top+42)
	dc.SetHexColor("#111827")
	drawStringLeft(dc, current.UVIndex, column+110, top+92)
	drawStringLeft(dc, current.LastUpdated, column+110, top+142)

	return nil
}

func (d *drawer) drawStats(dc *gg.Context, stats []view.StatTile, left float64, top float64) error {
	tileHeight := 42.0
	for i, stat := range stats {
		y := top + float64(i)*(tileHeight+7)
		drawCard(dc, left, y, 240, tileHeight)

		dc.SetHexColor("#4b5563")
		if err := d.setFont(dc, 13); err != nil {
			return err
		}
		drawStringLeft(dc, stat.Label, left+12, y+6)

		color, ok := statColors[stat.Color]
		if !ok {
			color = "#111827"
		}
		dc.SetHexColor(color)
		if err := d.setFont(dc, 17.5); err != nil {
			return err
		}
		w, _ := dc.MeasureString(stat.Value)
		drawStringLeft(dc, stat.Value, left+228-w, y+12)
	}
	return nil
}

func (d *drawer) drawChart(dc *gg.Context, chart *view.Chart, left, top, width, height float64) error {
	drawCard(dc, left, top-10, width, height+10)
	if chart == nil || len(chart.Labels) == 0 {
		return nil
	}

	minValue, maxValue := math.Inf(1), math.Inf(-1)
	for _, ds := range chart.Datasets {
		for _, v := range ds.Data {
			minValue = math.Min(minValue, v)
			maxValue = math.Max(maxValue, v)
		}
	}
	minValue = math.Floor(minValue) - 2
	maxValue = math.Ceil(maxValue) + 2

	plotLeft, plotRight := left+60, left+width-20
	plotTop, plotBottom := top+25, top+height-25
	xFor := func(i int) float64 {
		if len(chart.Labels) == 1 {
			return (plotLeft + plotRight) / 2
		}
		return plotLeft + float64(i)*(plotRight-plotLeft)/float64(len(chart.Labels)-1)
	}
	yFor := func(v float64) float64 {
		return plotBottom - (v-minValue)/(maxValue-minValue)*(plotBottom-plotTop)
	}

	if err := d.setFont(dc, 11); err != nil {
		return err
	}

	// y grid and ticks
	for _, v := range []float64{minValue, (minValue + maxValue) / 2, maxValue} {
		y := yFor(v)
		dc.SetHexColor("#e2e8f0")
		dc.SetLineWidth(1)
		dc.DrawLine(plotLeft, y, plotRight, y)
		dc.Stroke()
		dc.SetHexColor("#64748b")
		tick := chart.Tick(math.Round(v))
		w, h := dc.MeasureString(tick)
		dc.DrawString(tick, plotLeft-w-8, y+h/2)
	}

	// x labels
	for i, label := range chart.Labels {
		drawStringCentered(dc, label, xFor(i), plotBottom+6)
	}

	// legend, top
	legendX := plotLeft
	for _, ds := range chart.Datasets {
		if err := setColor(dc, ds.BorderColor); err != nil {
			return err
		}
		dc.DrawCircle(legendX+5, top+2, 5)
		dc.Fill()
		dc.SetHexColor("#0f172a")
		drawStringLeft(dc, ds.Label, legendX+15, top-5)
		w, _ := dc.MeasureString(ds.Label)
		legendX += w + 40
	}

	// fill between the two series
	if len(chart.Datasets) == 2 && chart.Datasets[0].Fill == "+1" {
		high, low := chart.Datasets[0], chart.Datasets[1]
		dc.NewSubPath()
		for i, v := range high.Data {
			dc.LineTo(xFor(i), yFor(v))
		}
		for i := len(low.Data) - 1; i >= 0; i-- {
			dc.LineTo(xFor(i), yFor(low.Data[i]))
		}
		dc.ClosePath()
		if err := setColor(dc, high.BackgroundColor); err != nil {
			return err
		}
		dc.Fill()
	}

	for _, ds := range chart.Datasets {
		points := make([]gg.Point, len(ds.Data))
		for i, v := range ds.Data {
			points[i] = gg.Point{X: xFor(i), Y: yFor(v)}
		}
		drawSmoothLine(dc, points, ds.Tension)
		if err := setColor(dc, ds.BorderColor); err != nil {
			return err
		}
		dc.SetLineWidth(ds.BorderWidth)
		dc.Stroke()

		for _, p := range points {
			dc.DrawCircle(p.X, p.Y, ds.PointRadius/2+ds.PointBorderWidth)
			if err := setColor(dc, ds.PointBorderColor); err != nil {
				return err
			}
			dc.Fill()
			dc.DrawCircle(p.X, p.Y, ds.PointRadius/2)
			if err := setColor(dc, ds.PointBackgroundColor); err != nil {
				return err
			}
			dc.Fill()
		}
	}
	return nil
}

// drawSmoothLine adds a cardinal spline through points to the current path.
func drawSmoothLine(dc *gg.Context, points []gg.Point, tension float64) {
	if len(points) == 0 {
		return
	}
	dc.NewSubPath()
	dc.MoveTo(points[0].X, points[0].Y)
	at := func(i int) gg.Point {
		if i < 0 {
			return points[0]
		}
		if i >= len(points) {
			return points[len(points)-1]
		}
		return points[i]
	}
	k := tension / 2
	for i := 0; i < len(points)-1; i++ {
		p0, p1, p2, p3 := at(i-1), at(i), at(i+1), at(i+2)
		c1 := gg.Point{X: p1.X + (p2.X-p0.X)*k, Y: p1.Y + (p2.Y-p0.Y)*k}
		c2 := gg.Point{X: p2.X - (p3.X-p1.X)*k, Y: p2.Y - (p3.Y-p1.Y)*k}
		dc.CubicTo(c1.X, c1.Y, c2.X, c2.Y, p2.X, p2.Y)
	}
}

func (d *drawer) drawWeekly(dc *gg.Context, cells []view.DayCell, left float64, top float64) error {
	if len(cells) == 0 {
		return nil
	}
	cellGap := 8.0
	cellWidth := (float64(dc.Width()) - 2*left - cellGap*float64(len(cells)-1)) / float64(len(cells))
	cellHeight := 120.0

	for i, cell := range cells {
		x := left + float64(i)*(cellWidth+cellGap)
		drawCard(dc, x, top, cellWidth, cellHeight)
		cx := x + cellWidth/2

		dc.SetHexColor("#111827")
		if err := d.setFont(dc, 15); err != nil {
			return err
		}
		drawStringCentered(dc, cell.Label, cx, top+6)

		if err := d.drawIcon(dc, cell.Icon, cx-18, top+28, 36); err != nil {
			return err
		}

		if err := d.setFont(dc, 12); err != nil {
			return err
		}
		dc.SetHexColor("#4b5563")
		drawStringCentered(dc, cell.Condition, cx, top+66)

		if err := d.setFont(dc, 15); err != nil {
			return err
		}
		dc.SetHexColor(temperatureColors[cell.HighClass])
		drawStringRight(dc, fmt.Sprintf("%d°", cell.High), cx-6, top+86)
		dc.SetHexColor(temperatureColors[cell.LowClass])
		drawStringLeft(dc, fmt.Sprintf("%d°", cell.Low), cx+6, top+86)

		if err := d.setFont(dc, 11); err != nil {
			return err
		}
		dc.SetHexColor("#4b5563")
		drawStringCentered(dc, cell.Humidity+" · "+cell.WindSpeed, cx, top+104)
	}
	return nil
}

func (d *drawer) drawIcon(dc *gg.Context, icon view.Icon, x, y, size float64) error {
	if d.iconsDir != "" {
		iconImage, err := loadAndResizePng(path.Join(d.iconsDir, string(icon)+".png"), int(size), int(size))
		if err == nil {
			dc.DrawImage(iconImage, int(x), int(y))
			return nil
		}
		if !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("failed to load icon (%q): %w", icon, err)
		}
	}

	cx, cy, r := x+size/2, y+size/2, size/2
	switch icon {
	case view.ICON_SUN:
		dc.SetHexColor("#f59e0b")
		dc.DrawCircle(cx, cy, r*0.45)
		dc.Fill()
		dc.SetLineWidth(2)
		for i := 0; i < 8; i++ {
			a := float64(i) * math.Pi / 4
			dc.DrawLine(cx+math.Cos(a)*r*0.6, cy+math.Sin(a)*r*0.6, cx+math.Cos(a)*r*0.9, cy+math.Sin(a)*r*0.9)
		}
		dc.Stroke()
	default:
		dc.SetHexColor("#94a3b8")
		dc.DrawCircle(cx-r*0.3, cy, r*0.35)
		dc.DrawCircle(cx+r*0.1, cy-r*0.2, r*0.45)
		dc.DrawCircle(cx+r*0.5, cy+r*0.05, r*0.3)
		dc.DrawRectangle(cx-r*0.3, cy, r*0.8, r*0.35)
		dc.Fill()
		switch icon {
		case view.ICON_RAIN:
			dc.SetHexColor("#2b6cb0")
			dc.SetLineWidth(2)
			for i := -1; i <= 1; i++ {
				px := cx + float64(i)*r*0.35
				dc.DrawLine(px, cy+r*0.5, px-r*0.12, cy+r*0.85)
			}
			dc.Stroke()
		case view.ICON_SNOW:
			dc.SetHexColor("#1d8cf8")
			for i := -1; i <= 1; i++ {
				dc.DrawCircle(cx+float64(i)*r*0.35, cy+r*0.7, r*0.08)
			}
			dc.Fill()
		}
	}
	return nil
}

func (d *drawer) drawActions(dc *gg.Context, actions []view.Action) error {
	dc.SetHexColor("#ffffff")

	if err := d.setFont(dc, 15); err != nil {
		return err
	}
	buttonPositions := []float64{80, 240, 400, 560, 720}
	for i, x := range buttonPositions {
		dc.SetLineWidth(1)
		dc.DrawLine(x, float64(dc.Height())-20, x, float64(dc.Height()))
		dc.Stroke()

		if i < len(actions) {
			drawStringCentered(dc, actions[i].DisplayName, x+5, float64(dc.Height())-42)
		}
	}

	return nil
}

func drawStringCentered(dc *gg.Context, text string, x, y float64) {
	w, h := dc.MeasureString(text)
	dc.DrawString(text, x-w/2, y+h)
}

func drawStringLeft(dc *gg.Context, text string, x, y float64) {
	_, h := dc.MeasureString(text)
	dc.DrawString(text, x, y+h)
}

func drawStringRight(dc *gg.Context, text string, x, y float64) {
	w, h := dc.MeasureString(text)
	dc.DrawString(text, x-w, y+h)
}

func loadAndResizePng(imagePath string, width int, height int) (*image.RGBA, error) {
	imageFile, err := os.Open(imagePath)
	if err != nil {
		return nil, err
	}
	defer imageFile.Close()

	sourceImage, err := png.Decode(imageFile)
	if err != nil {
		return nil, err
	}

	destImage := image.NewRGBA(image.Rect(0, 0, width, height))
	draw.BiLinear.Scale(destImage, destImage.Rect, sourceImage, sourceImage.Bounds(), draw.Over, nil)
	return destImage, nil
}

// parseColor accepts any CSS color, such as "#rrggbb" or "hsla(h, s%, l%, a)".
func parseColor(s string) (color.Color, error) {
	c, err := csscolorparser.Parse(s)
	if err != nil {
		return nil, fmt.Errorf("invalid color %q: %w", s, err)
	}
	r, g, b, a := c.RGBA255()
	return color.NRGBA{R: r, G: g, B: b, A: a}, nil
}

func setColor(dc *gg.Context, s string) error {
	c, err := parseColor(s)
	if err != nil {
		return err
	}
	dc.SetColor(c)
	return nil
}
