package schema

import "sort"

// Electrical is the parts list used for electrical quotations.
func Electrical() *Schema {
	s := &Schema{
		Type:  "electrical",
		Title: "Electrical",
		Fields: []Field{
			{Name: "name", Label: "Item", Kind: KindText, Editable: true, Aliases: []string{"description", "item name"}, Width: 24},
			{Name: "brand", Label: "Brand", Kind: KindText, Editable: true, Width: 12},
			{Name: "model", Label: "Model", Kind: KindText, Editable: true, Aliases: []string{"part no", "part number"}, Width: 14},
			{Name: "unit", Label: "Unit", Kind: KindEnum, Editable: true, Default: "pcs", Options: []string{"pcs", "m", "set", "lot", "roll"}, Width: 5},
			{Name: "qty", Label: "Qty", Kind: KindNumber, Editable: true, Aliases: []string{"quantity"}, Width: 7},
			{Name: "unitPrice", Label: "Unit Price", Kind: KindNumber, Editable: true, Aliases: []string{"price", "rate"}, Width: 11},
			{Name: "leadTime", Label: "Lead (days)", Kind: KindDuration, Editable: true, Aliases: []string{"lead time", "delivery"}, Width: 6},
			{Name: "remark", Label: "Remark", Kind: KindText, Editable: true, Aliases: []string{"remarks", "note"}, Width: 16},
			{Name: "total", Label: "Total", Kind: KindNumber, Editable: false, Aliases: []string{"amount"}, Width: 12},
		},
		Formula:   Formula{Target: "total", Terms: []Term{{"qty", "unitPrice"}}},
		HeaderRow: HeaderDetect,
	}
	mustValidate(s)
	return s
}

// Mechanical prices material plus labour per line.
func Mechanical() *Schema {
	s := &Schema{
		Type:  "mechanical",
		Title: "Mechanical",
		Fields: []Field{
			{Name: "name", Label: "Item", Kind: KindText, Editable: true, Width: 24},
			{Name: "material", Label: "Material", Kind: KindText, Editable: true, Width: 12},
			{Name: "unit", Label: "Unit", Kind: KindEnum, Editable: true, Default: "pcs", Options: []string{"pcs", "kg", "m", "set"}, Width: 5},
			{Name: "qty", Label: "Qty", Kind: KindNumber, Editable: true, Width: 7},
			{Name: "unitCost", Label: "Unit Cost", Kind: KindNumber, Editable: true, Width: 10},
			{Name: "hours", Label: "Hours", Kind: KindNumber, Editable: true, Width: 6},
			{Name: "rate", Label: "Rate", Kind: KindNumber, Editable: true, Width: 8},
			{Name: "leadTime", Label: "Lead (days)", Kind: KindDuration, Editable: true, Width: 6},
			{Name: "total", Label: "Total", Kind: KindNumber, Editable: false, Width: 12},
		},
		Formula: Formula{Target: "total", Terms: []Term{{"qty", "unitCost"}, {"hours", "rate"}}},
		// Mechanical sheets are usually pasted from cost tables whose first
		// row is data, so header detection stays off.
		HeaderRow: HeaderNever,
	}
	mustValidate(s)
	return s
}

func mustValidate(s *Schema) {
	if err := s.Validate(); err != nil {
		panic(err)
	}
}

// Registry maps schema types to descriptors.
type Registry map[string]*Schema

// Builtin returns a registry holding the built-in variants.
func Builtin() Registry {
	return Registry{
		"electrical": Electrical(),
		"mechanical": Mechanical(),
	}
}

func (r Registry) Types() []string {
	types := make([]string, 0, len(r))
	for t := range r {
		types = append(types, t)
	}
	sort.Strings(types)
	return types
}
