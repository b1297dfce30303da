package diagram

import (
	"bufio"
	"fmt"
	"html"
	"io"
	"math"
	"strconv"
)

const (
	cartonStroke = "#334155"
	unitFill     = "#60a5fa"
	unitStroke   = "#1e40af"
	labelFill    = "#64748b"
)

// WriteSVG encodes layout as a standalone SVG document.
func WriteSVG(w io.Writer, layout Layout) error {
	bw := bufio.NewWriter(w)

	fmt.Fprintf(bw, `<svg xmlns="http://www.w3.org/2000/svg" width="%s" height="%s" viewBox="0 0 %s %s">`+"\n",
		num(layout.Width), num(layout.Height), num(layout.Width), num(layout.Height))

	if layout.Carton.W > 0 && layout.Carton.H > 0 {
		fmt.Fprintf(bw, `  <rect x="%s" y="%s" width="%s" height="%s" fill="none" stroke="%s" stroke-width="2"/>`+"\n",
			num(layout.Carton.X), num(layout.Carton.Y), num(layout.Carton.W), num(layout.Carton.H), cartonStroke)
	}

	if len(layout.Units) > 0 {
		fmt.Fprintf(bw, `  <g fill="%s" stroke="%s" stroke-width="1">`+"\n", unitFill, unitStroke)
		for _, u := range layout.Units {
			fmt.Fprintf(bw, `    <rect x="%s" y="%s" width="%s" height="%s"/>`+"\n",
				num(u.X), num(u.Y), num(u.W), num(u.H))
		}
		bw.WriteString("  </g>\n")
	}

	for _, l := range layout.Labels {
		fmt.Fprintf(bw, `  <text x="%s" y="%s" fill="%s" font-family="Arial" font-size="12" text-anchor="%s">%s</text>`+"\n",
			num(l.X), num(l.Y), labelFill, l.Anchor, html.EscapeString(l.Text))
	}

	bw.WriteString("</svg>\n")
	return bw.Flush()
}

// num prints canvas coordinates with at most two decimals.
func num(v float64) string {
	return strconv.FormatFloat(math.Round(v*100)/100, 'f', -1, 64)
}

func formatMillimetres(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
