package chart

import (
	"io"

	chart "github.com/wcharczuk/go-chart/v2"

	"github.com/couchcryptid/streams-chart-etl/internal/domain"
)

// StreamsVsRank plots streams against dense rank with rank 1 on the right.
func (r *Renderer) StreamsVsRank(w io.Writer, songs []domain.Song) error {
	ranked := domain.DenseRank(songs)
	if len(ranked) == 0 {
		return r.horizontalBars(w, "Streams vs rank", nil)
	}

	xs := make([]float64, len(ranked))
	ys := make([]float64, len(ranked))
	maxRank, maxStreams := 1.0, 0.0
	for i, s := range ranked {
		xs[i] = float64(s.Rank)
		ys[i] = *s.Streams
		if xs[i] > maxRank {
			maxRank = xs[i]
		}
		if ys[i] > maxStreams {
			maxStreams = ys[i]
		}
	}
	if maxStreams <= 0 {
		maxStreams = 1
	}

	ch := chart.Chart{
		Title:      "Streams vs rank",
		Width:      r.width,
		Height:     r.height,
		Background: chart.Style{Padding: chart.Box{Top: 40, Left: 16, Right: 24, Bottom: 16}},
		XAxis: chart.XAxis{
			Name:  "Rank",
			Range: &chart.ContinuousRange{Min: 0.5, Max: maxRank + 0.5, Descending: true},
		},
		YAxis: chart.YAxis{
			Name:  "Streams (billions)",
			Range: &chart.ContinuousRange{Min: 0, Max: maxStreams * 1.05},
		},
		Series: []chart.Series{
			chart.ContinuousSeries{
				Name:    "songs",
				XValues: xs,
				YValues: ys,
				Style: chart.Style{
					StrokeWidth: chart.Disabled,
					DotWidth:    5,
					DotColor:    pointColor,
				},
			},
		},
	}
	return ch.Render(chart.PNG, w)
}
