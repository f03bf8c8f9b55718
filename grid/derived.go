package grid

// Derived values are recomputed bottom-up: row formula, section subtotal,
// then the grand total. Sums run in row order so results are reproducible.

func (g *Grid) recomputeRow(row *Row) {
	target, ok := g.Schema.Derived()
	if !ok {
		return
	}
	row.Numbers[target] = g.Schema.Formula.Eval(func(name string) float64 {
		return row.Numbers[name]
	})
}

func (g *Grid) recomputeSection(sec *Section) {
	target, ok := g.Schema.Derived()
	if !ok {
		sec.Subtotal = 0
		return
	}
	var sum float64
	for i := range sec.Rows {
		sum += sec.Rows[i].Numbers[target]
	}
	sec.Subtotal = sum
}

func (g *Grid) recomputeGrand() {
	var sum float64
	for i := range g.Sections {
		sum += g.Sections[i].Subtotal
	}
	g.GrandTotal = sum
}

// Recompute refreshes every derived value in the grid.
func (g *Grid) Recompute() {
	for si := range g.Sections {
		sec := &g.Sections[si]
		for ri := range sec.Rows {
			g.recomputeRow(&sec.Rows[ri])
		}
		g.recomputeSection(sec)
	}
	g.recomputeGrand()
}
