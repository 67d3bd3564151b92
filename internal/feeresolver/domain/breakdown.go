// Package domain defines the fee resolver contract: one student, one term,
// an ordered and auditable fee breakdown.
package domain

// Reserved breakdown category names written by the resolver itself.
const (
	CategoryTuition   = "Tuition"
	CategoryTransport = "Transport"
)

// FeeLine is one category of a student's resolved fees.
type FeeLine struct {
	Category string `json:"category"`
	Amount   int64  `json:"amount"`
}

// Breakdown is an ordered category-to-amount mapping. Zero-amount lines are
// retained so the breakdown stays auditable.
type Breakdown []FeeLine

// Amount returns the amount for a category and whether it is present.
func (b Breakdown) Amount(category string) (int64, bool) {
	for _, line := range b {
		if line.Category == category {
			return line.Amount, true
		}
	}
	return 0, false
}

// Total sums all lines.
func (b Breakdown) Total() int64 {
	var total int64
	for _, line := range b {
		total += line.Amount
	}
	return total
}

// Map flattens the breakdown for JSON persistence on a line item.
func (b Breakdown) Map() map[string]any {
	m := make(map[string]any, len(b))
	for _, line := range b {
		m[line.Category] = line.Amount
	}
	return m
}
