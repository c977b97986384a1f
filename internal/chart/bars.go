package chart

import (
	"io"

	chart "github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"
)

var (
	barColor   = drawing.ColorFromHex("1DB954")
	axisColor  = drawing.ColorFromHex("666666")
	pointColor = drawing.ColorFromHex("1DB954")
)

type bar struct {
	label string
	value float64
	text  string
}

// horizontalBars draws bars top to bottom in slice order with labels on
// the left and values on the right. go-chart only ships vertical bar
// charts, so this draws on the raw renderer.
func (r *Renderer) horizontalBars(w io.Writer, title string, bars []bar) error {
	rend, err := chart.PNG(r.width, r.height)
	if err != nil {
		return err
	}
	font, err := chart.GetDefaultFont()
	if err != nil {
		return err
	}
	rend.SetFont(font)

	fillRect(rend, drawing.ColorWhite, 0, 0, r.width, r.height)

	rend.SetFontColor(drawing.ColorBlack)
	rend.SetFontSize(16)
	tb := rend.MeasureText(title)
	rend.Text(title, (r.width-tb.Width())/2, 30)

	if len(bars) == 0 {
		rend.SetFontSize(14)
		nb := rend.MeasureText(placeholderLabel)
		rend.Text(placeholderLabel, (r.width-nb.Width())/2, r.height/2)
		return rend.Save(w)
	}

	const (
		top, bottom, margin, valueRoom = 50, 20, 16, 70
	)
	rend.SetFontSize(11)
	labelWidth := 0
	for _, b := range bars {
		if lw := rend.MeasureText(b.label).Width(); lw > labelWidth {
			labelWidth = lw
		}
	}
	if limit := r.width * 2 / 5; labelWidth > limit {
		labelWidth = limit
	}

	maxValue := 0.0
	for _, b := range bars {
		if b.value > maxValue {
			maxValue = b.value
		}
	}
	if maxValue <= 0 {
		maxValue = 1
	}

	left := margin + labelWidth + 8
	plotWidth := r.width - left - valueRoom
	slot := (r.height - top - bottom) / len(bars)
	barHeight := slot * 7 / 10

	rend.SetStrokeColor(axisColor)
	rend.SetStrokeWidth(1)
	rend.MoveTo(left, top)
	rend.LineTo(left, r.height-bottom)
	rend.Stroke()

	for i, b := range bars {
		y := top + i*slot + (slot-barHeight)/2
		length := int(float64(plotWidth) * b.value / maxValue)
		if length < 1 {
			length = 1
		}
		fillRect(rend, barColor, left+1, y, left+1+length, y+barHeight)

		textY := y + barHeight/2 + 4
		rend.SetFontColor(drawing.ColorBlack)
		lb := rend.MeasureText(b.label)
		rend.Text(b.label, left-8-lb.Width(), textY)
		rend.Text(b.text, left+length+6, textY)
	}
	return rend.Save(w)
}

func fillRect(rend chart.Renderer, c drawing.Color, x0, y0, x1, y1 int) {
	rend.SetFillColor(c)
	rend.MoveTo(x0, y0)
	rend.LineTo(x1, y0)
	rend.LineTo(x1, y1)
	rend.LineTo(x0, y1)
	rend.Close()
	rend.Fill()
}
