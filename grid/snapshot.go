package grid

import (
	"fmt"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/tiendc/go-deepcopy"
)

// Snapshot is a deep copy of every section at one instant.
type Snapshot []Section

func cloneSections(src []Section) []Section {
	if src == nil {
		return nil
	}
	var dst []Section
	if err := deepcopy.Copy(&dst, src); err != nil {
		// Section holds only slices, maps and scalars.
		panic(fmt.Sprintf("grid: deep copy failed: %v", err))
	}
	return dst
}

func (s Snapshot) Clone() Snapshot { return cloneSections(s) }

func (g *Grid) Snapshot() Snapshot { return cloneSections(g.Sections) }

// Restore replaces the live sections with a copy of s and recomputes.
func (g *Grid) Restore(s Snapshot) {
	g.Sections = cloneSections(s)
	g.Recompute()
}

func (g *Grid) Clone() *Grid {
	return &Grid{Schema: g.Schema, Sections: cloneSections(g.Sections), GrandTotal: g.GrandTotal}
}

var equalOpts = cmp.Options{cmpopts.EquateEmpty()}

// Equal compares two snapshots by value; nil and empty collections are equal.
func Equal(a, b Snapshot) bool {
	return cmp.Equal(a, b, equalOpts)
}

// Diff renders a human-readable difference, for logs and tests.
func Diff(a, b Snapshot) string {
	return cmp.Diff(a, b, equalOpts)
}
