package export

import (
	"fmt"
	"math"
	"strings"
)

// Series is one curve plotted against time.
type Series struct {
	Label  string
	Color  string
	Values []float64
}

type Plot struct {
	Width  int
	Height int
	XLabel string
	Times  []float64
	Left   Series
	Right  Series
	// Markers are times drawn as dashed vertical lines, e.g. events.
	Markers []float64
}

const (
	marginLeft   = 70.0
	marginRight  = 70.0
	marginTop    = 20.0
	marginBottom = 50.0
	ticks        = 5
)

type axis struct {
	min, max float64
}

func newAxis(values []float64, pad bool) axis {
	a := axis{min: math.Inf(1), max: math.Inf(-1)}
	for _, v := range values {
		a.min = math.Min(a.min, v)
		a.max = math.Max(a.max, v)
	}
	if math.IsInf(a.min, 1) {
		return axis{0, 1}
	}
	span := a.max - a.min
	if span == 0 {
		span = math.Max(math.Abs(a.max), 1)
	}
	if pad {
		a.min -= span * 0.05
		a.max += span * 0.05
	} else if a.max == a.min {
		a.max = a.min + span
	}
	return a
}

func (a axis) scale(v, from, to float64) float64 {
	return from + (v-a.min)/(a.max-a.min)*(to-from)
}

// TimeSeriesSVG draws two series against a shared time axis, the left series
// on the left y axis and the right series on its own right y axis.
func TimeSeriesSVG(p Plot) string {
	if len(p.Times) < 2 {
		return ""
	}

	w, h := float64(p.Width), float64(p.Height)
	x0, x1 := marginLeft, w-marginRight
	y0, y1 := h-marginBottom, marginTop

	tx := newAxis(p.Times, false)
	ly := newAxis(p.Left.Values, true)
	ry := newAxis(p.Right.Values, true)

	var sb strings.Builder

	sb.WriteString(fmt.Sprintf(`<?xml version="1.0" encoding="UTF-8"?>
<svg xmlns="http://www.w3.org/2000/svg" width="%d" height="%d" viewBox="0 0 %d %d" font-family="sans-serif" font-size="12">
<rect width="100%%" height="100%%" fill="#ffffff"/>
`, p.Width, p.Height, p.Width, p.Height))

	sb.WriteString(fmt.Sprintf(`<rect x="%.1f" y="%.1f" width="%.1f" height="%.1f" fill="none" stroke="#333333"/>
`, x0, y1, x1-x0, y0-y1))

	for i := 0; i <= ticks; i++ {
		f := float64(i) / ticks

		tv := tx.min + f*(tx.max-tx.min)
		px := tx.scale(tv, x0, x1)
		sb.WriteString(fmt.Sprintf(`<line x1="%.1f" y1="%.1f" x2="%.1f" y2="%.1f" stroke="#333333"/>
<text x="%.1f" y="%.1f" text-anchor="middle">%s</text>
`, px, y0, px, y0+5, px, y0+18, formatTick(tv)))

		lv := ly.min + f*(ly.max-ly.min)
		py := ly.scale(lv, y0, y1)
		sb.WriteString(fmt.Sprintf(`<line x1="%.1f" y1="%.1f" x2="%.1f" y2="%.1f" stroke="%s"/>
<text x="%.1f" y="%.1f" text-anchor="end" fill="%s">%s</text>
`, x0-5, py, x0, py, p.Left.Color, x0-8, py+4, p.Left.Color, formatTick(lv)))

		rv := ry.min + f*(ry.max-ry.min)
		py = ry.scale(rv, y0, y1)
		sb.WriteString(fmt.Sprintf(`<line x1="%.1f" y1="%.1f" x2="%.1f" y2="%.1f" stroke="%s"/>
<text x="%.1f" y="%.1f" text-anchor="start" fill="%s">%s</text>
`, x1, py, x1+5, py, p.Right.Color, x1+8, py+4, p.Right.Color, formatTick(rv)))
	}

	for _, m := range p.Markers {
		if m < tx.min || m > tx.max {
			continue
		}
		px := tx.scale(m, x0, x1)
		sb.WriteString(fmt.Sprintf(`<line x1="%.1f" y1="%.1f" x2="%.1f" y2="%.1f" stroke="#888888" stroke-dasharray="4,3"/>
`, px, y0, px, y1))
	}

	writePath(&sb, p.Times, p.Left, tx, ly, x0, x1, y0, y1)
	writePath(&sb, p.Times, p.Right, tx, ry, x0, x1, y0, y1)

	midY := (y0 + y1) / 2
	sb.WriteString(fmt.Sprintf(`<text x="%.1f" y="%.1f" text-anchor="middle">%s</text>
<text x="%.1f" y="%.1f" text-anchor="middle" fill="%s" transform="rotate(-90 %.1f %.1f)">%s</text>
<text x="%.1f" y="%.1f" text-anchor="middle" fill="%s" transform="rotate(90 %.1f %.1f)">%s</text>
`,
		(x0+x1)/2, h-10, escape(p.XLabel),
		18.0, midY, p.Left.Color, 18.0, midY, escape(p.Left.Label),
		w-18, midY, p.Right.Color, w-18, midY, escape(p.Right.Label)))

	sb.WriteString("</svg>\n")
	return sb.String()
}

func writePath(sb *strings.Builder, times []float64, s Series, tx, ay axis, x0, x1, y0, y1 float64) {
	n := len(times)
	if len(s.Values) < n {
		n = len(s.Values)
	}
	if n < 2 {
		return
	}

	sb.WriteString(fmt.Sprintf(`<path fill="none" stroke="%s" stroke-width="1.5" d="M`, s.Color))
	for i := 0; i < n; i++ {
		if i > 0 {
			sb.WriteString(" L")
		}
		sb.WriteString(fmt.Sprintf("%.1f,%.1f", tx.scale(times[i], x0, x1), ay.scale(s.Values[i], y0, y1)))
	}
	sb.WriteString(`"/>
`)
}

func formatTick(v float64) string {
	if math.Abs(v) < 1e-12 {
		v = 0
	}
	return fmt.Sprintf("%.3g", v)
}

var escaper = strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;", `"`, "&quot;")

func escape(s string) string { return escaper.Replace(s) }
