package export

import (
	"fmt"
	"image/color"
	"io"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
	"gonum.org/v1/plot/vg/vgpdf"
)

const PDFFilename = "Dashboard_Ventas.pdf"

var (
	pageWidth  = 210 * vg.Millimeter
	pageHeight = 297 * vg.Millimeter

	lineColor     = color.RGBA{R: 0x22, G: 0xc5, B: 0x5e, A: 0xff}
	productColor  = color.RGBA{R: 0x38, G: 0xbd, B: 0xf8, A: 0xff}
	categoryColor = color.RGBA{R: 0x10, G: 0xb9, B: 0x81, A: 0xff}
	regionColor   = color.RGBA{R: 0x16, G: 0xa3, B: 0x4a, A: 0xff}
)

// PDF renders the four dashboard views on one A4 page: monthly revenue,
// top products, units by category and units by region. The page title
// carries the period and the filter description.
func PDF(w io.Writer, report Report) error {
	monthly, err := monthlyPlot(report)
	if err != nil {
		return err
	}

	products := make([]string, len(report.View.TopProducts))
	productUnits := make(plotter.Values, len(report.View.TopProducts))
	for i, p := range report.View.TopProducts {
		products[i], productUnits[i] = p.Product, p.TotalUnits
	}
	top, err := barPlot("Top 5 productos (unidades)", products, productUnits, productColor)
	if err != nil {
		return err
	}

	categories := make([]string, len(report.View.ByCategory))
	categoryUnits := make(plotter.Values, len(report.View.ByCategory))
	for i, c := range report.View.ByCategory {
		categories[i], categoryUnits[i] = c.Category, c.TotalUnits
	}
	byCategory, err := barPlot("Unidades por categoría", categories, categoryUnits, categoryColor)
	if err != nil {
		return err
	}

	regions := make([]string, len(report.View.ByRegion))
	regionUnits := make(plotter.Values, len(report.View.ByRegion))
	for i, r := range report.View.ByRegion {
		regions[i], regionUnits[i] = r.Label, r.TotalUnits
	}
	byRegion, err := barPlot("Unidades por región", regions, regionUnits, regionColor)
	if err != nil {
		return err
	}

	c := vgpdf.New(pageWidth, pageHeight)
	dc := draw.New(c)

	titleFont := plot.DefaultFont
	titleFont.Size = vg.Points(11)
	title := fmt.Sprintf("Dashboard de ventas · %s · %s", report.Summary.Period, report.Description)
	dc.FillText(draw.TextStyle{
		Color:   color.Black,
		Font:    titleFont,
		Handler: plot.DefaultTextHandler,
	}, vg.Point{X: dc.Min.X + vg.Millimeter*10, Y: dc.Max.Y - vg.Millimeter*12}, title)

	body := draw.Crop(dc, vg.Millimeter*10, -vg.Millimeter*10, vg.Millimeter*10, -vg.Millimeter*20)
	plots := [][]*plot.Plot{
		{monthly, top},
		{byCategory, byRegion},
	}
	tiles := draw.Tiles{
		Rows: 2,
		Cols: 2,
		PadX: vg.Millimeter * 6,
		PadY: vg.Millimeter * 8,
	}
	canvases := plot.Align(plots, tiles, body)
	for i := range plots {
		for j := range plots[i] {
			plots[i][j].Draw(canvases[i][j])
		}
	}

	if _, err := c.WriteTo(w); err != nil {
		return fmt.Errorf("write pdf: %w", err)
	}
	return nil
}

func monthlyPlot(report Report) (*plot.Plot, error) {
	p := plot.New()
	p.Title.Text = fmt.Sprintf("Ingresos mensuales (%s)", report.Summary.Currency)
	p.Y.Label.Text = report.Summary.Currency
	p.Add(plotter.NewGrid())

	months := make([]string, len(report.View.ByMonth))
	points := make(plotter.XYs, len(report.View.ByMonth))
	for i, m := range report.View.ByMonth {
		months[i] = m.Month
		points[i].X = float64(i)
		points[i].Y = m.TotalRevenue
	}

	if len(points) > 0 {
		line, err := plotter.NewLine(points)
		if err != nil {
			return nil, fmt.Errorf("monthly line: %w", err)
		}
		line.Color = lineColor
		line.Width = vg.Points(2)
		p.Add(line)
		p.NominalX(months...)
	}
	return p, nil
}

func barPlot(title string, labels []string, values plotter.Values, fill color.Color) (*plot.Plot, error) {
	p := plot.New()
	p.Title.Text = title
	p.Add(plotter.NewGrid())

	if len(values) > 0 {
		bars, err := plotter.NewBarChart(values, vg.Points(18))
		if err != nil {
			return nil, fmt.Errorf("%s: %w", title, err)
		}
		bars.Color = fill
		bars.LineStyle.Width = vg.Length(0)
		p.Add(bars)
		p.NominalX(labels...)
	}
	return p, nil
}
