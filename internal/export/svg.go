// Package export renders solve results to SVG and CSV for reports.
package export

import (
	"fmt"
	"math"
	"strings"

	"github.com/iontools/trapmode/internal/modes"
	"github.com/iontools/trapmode/internal/numeric"
	"github.com/iontools/trapmode/internal/trap"
)

// PotentialSVG draws the axial potential over [min, max] with the
// equilibrium positions marked. Returns "" when nothing is drawable.
func PotentialSVG(p trap.Potential, positions []float64, width, height int) string {
	min, max := p.Domain()
	if math.IsInf(min, 0) || math.IsInf(max, 0) {
		// Frame an unbounded potential around the chain.
		if len(positions) == 0 {
			return ""
		}
		span := positions[len(positions)-1] - positions[0]
		if span == 0 {
			span = 1e-6
		}
		min = positions[0] - 2*span
		max = positions[len(positions)-1] + 2*span
	}

	xs := numeric.Linspace(min, max, 256)
	vs := make([]float64, 0, len(xs))
	kept := make([]float64, 0, len(xs))
	for _, x := range xs {
		v, err := p.Eval(x)
		if err != nil {
			continue
		}
		vs = append(vs, v)
		kept = append(kept, x)
	}
	if len(vs) < 2 {
		return ""
	}

	vmin, vmax := vs[0], vs[0]
	for _, v := range vs {
		vmin = math.Min(vmin, v)
		vmax = math.Max(vmax, v)
	}
	if vmax == vmin {
		vmax = vmin + 1
	}

	const margin = 10.0
	w := float64(width)
	h := float64(height)
	sx := func(x float64) float64 { return margin + (x-min)/(max-min)*(w-2*margin) }
	sy := func(v float64) float64 { return h - margin - (v-vmin)/(vmax-vmin)*(h-2*margin) }

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf(`<?xml version="1.0" encoding="UTF-8"?>
<svg xmlns="http://www.w3.org/2000/svg" width="%d" height="%d" viewBox="0 0 %d %d">
<rect width="100%%" height="100%%" fill="#0a0a0a"/>
`, width, height, width, height))

	sb.WriteString(`<polyline fill="none" stroke="#00ff88" stroke-width="1.5" points="`)
	for i := range vs {
		sb.WriteString(fmt.Sprintf("%.2f,%.2f ", sx(kept[i]), sy(vs[i])))
	}
	sb.WriteString("\"/>\n")

	for _, x := range positions {
		v, err := p.Eval(x)
		if err != nil {
			continue
		}
		sb.WriteString(fmt.Sprintf(`<circle cx="%.2f" cy="%.2f" r="4" fill="#ffcc00"/>
`, sx(x), sy(v)))
	}

	sb.WriteString("</svg>")
	return sb.String()
}

// SpectrumSVG draws the mode frequencies as a stick spectrum in Hz.
func SpectrumSVG(res *modes.Result, width, height int) string {
	hz := res.FrequenciesHz()
	if len(hz) == 0 {
		return ""
	}

	fmax := hz[len(hz)-1]
	if fmax == 0 {
		fmax = 1
	}

	const margin = 10.0
	w := float64(width)
	h := float64(height)

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf(`<?xml version="1.0" encoding="UTF-8"?>
<svg xmlns="http://www.w3.org/2000/svg" width="%d" height="%d" viewBox="0 0 %d %d">
<rect width="100%%" height="100%%" fill="#0a0a0a"/>
<line x1="%.1f" y1="%.1f" x2="%.1f" y2="%.1f" stroke="#444444"/>
`, width, height, width, height, margin, h-margin, w-margin, h-margin))

	for k, f := range hz {
		x := margin + f/(fmax*1.1)*(w-2*margin)
		sb.WriteString(fmt.Sprintf(`<line x1="%.1f" y1="%.1f" x2="%.1f" y2="%.1f" stroke="#00ff88" stroke-width="2"/>
<text x="%.1f" y="%.1f" fill="#cccccc" font-size="10" text-anchor="middle">%.3f MHz</text>
`, x, h-margin, x, margin+14, x, margin+8, hz[k]/1e6))
	}

	sb.WriteString("</svg>")
	return sb.String()
}

// ModesCSV renders the mode table as CSV text.
func ModesCSV(res *modes.Result) string {
	var sb strings.Builder
	n := res.N()

	sb.WriteString("mode,omega_rad_s,freq_hz")
	for i := 0; i < n; i++ {
		sb.WriteString(fmt.Sprintf(",ion%d", i))
	}
	sb.WriteString("\n")

	hz := res.FrequenciesHz()
	for k := 0; k < n; k++ {
		sb.WriteString(fmt.Sprintf("%d,%.9e,%.9e", k, res.Omega[k], hz[k]))
		for i := 0; i < n; i++ {
			sb.WriteString(fmt.Sprintf(",%.9f", res.Displacements.At(i, k)))
		}
		sb.WriteString("\n")
	}
	return sb.String()
}
