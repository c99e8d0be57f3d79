package boltzmann

import (
	"fmt"

	"github.com/awalterschulze/gographviz"
)

// ToDot returns the architecture of the DBN in the dot format.
func (d *DBN) ToDot() string {
	g := gographviz.NewGraph()
	if err := g.SetName("G"); err != nil {
		panic(err)
	}
	g.SetDir(true)

	name := func(i int) string { return fmt.Sprintf("L%d", i) }
	attrs := map[string]string{
		"fontname": "Monaco",
		"shape":    "box",
		"label":    fmt.Sprintf("\"input (%d)\"", d.Layers[0].Visible),
	}
	g.AddNode("G", name(0), attrs)
	for i, l := range d.Layers {
		attrs := map[string]string{
			"fontname": "Monaco",
			"shape":    "box",
			"label":    fmt.Sprintf("\"%d %s units\"", l.Hidden, l.HiddenUnit),
		}
		g.AddNode("G", name(i+1), attrs)
		g.AddEdge(name(i), name(i+1), true, map[string]string{
			"label": fmt.Sprintf("\"%v (%v)\"", l.Algorithm, l.VisibleUnit),
		})
	}
	if d.OutW != nil {
		out := fmt.Sprintf("L%d", len(d.Layers)+1)
		g.AddNode("G", out, map[string]string{
			"fontname": "Monaco",
			"shape":    "box",
			"label":    fmt.Sprintf("\"softmax (%d)\"", d.Classes),
		})
		g.AddEdge(name(len(d.Layers)), out, true, map[string]string{"label": "\"fine tuned\""})
	}
	return g.String()
}
