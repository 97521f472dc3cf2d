package core

import "sort"

type (
	// CategoryAmount is one row of a category breakdown, ready for
	// chart or table rendering.
	CategoryAmount struct {
		Category string
		Amount   Money
	}

	// Summary is the aggregated dashboard snapshot: per-account balances,
	// their sum, and the expense breakdown by category.
	Summary struct {
		Balances       map[string]Money
		Total          Money
		CategoryTotals []CategoryAmount
	}
)

// SortedCategoryTotals flattens a totals map into rows ordered by amount
// descending, ties broken by category name. Map iteration order is random;
// sorting here keeps rendered breakdowns deterministic.
func SortedCategoryTotals(totals map[string]Money) []CategoryAmount {
	rows := make([]CategoryAmount, 0, len(totals))
	for name, amount := range totals {
		rows = append(rows, CategoryAmount{Category: name, Amount: amount})
	}
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].Amount.Cents != rows[j].Amount.Cents {
			return rows[i].Amount.Cents > rows[j].Amount.Cents
		}
		return rows[i].Category < rows[j].Category
	})
	return rows
}

// BuildSummary runs the aggregators over a full snapshot.
func BuildSummary(accounts []Account, installments []Installment, categories []Category) Summary {
	balances := ComputeBalances(accounts, installments)
	return Summary{
		Balances:       balances,
		Total:          TotalBalance(balances),
		CategoryTotals: SortedCategoryTotals(ComputeCategoryTotals(installments, categories)),
	}
}
