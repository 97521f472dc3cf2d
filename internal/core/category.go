package core

// FallbackCategory collects expense amounts that cannot be attributed to a
// named category: uncategorized sub-transactions, installments without
// sub-transactions, and dangling category references.
const FallbackCategory = "Outros"

// ComputeCategoryTotals aggregates expense installments by top-level
// category name. Sub-category references roll up to the parent category.
// Income and transfer installments never participate.
//
// Sub-transaction values are accumulated as-is, so a negative fragment
// (a refund) reduces its category's total. An installment with no
// sub-transactions contributes its whole value to FallbackCategory.
func ComputeCategoryTotals(installments []Installment, categories []Category) map[string]Money {
	categoryNames := make(map[string]string, len(categories))
	subCategoryParents := make(map[string]string)
	for _, c := range categories {
		categoryNames[c.ID] = c.Name
		for _, sc := range c.SubCategories {
			subCategoryParents[sc.ID] = c.Name
		}
	}

	totals := make(map[string]int64)
	for _, inst := range installments {
		if inst.Kind != Expense {
			continue
		}
		if len(inst.SubTransactions) == 0 {
			totals[FallbackCategory] += inst.Value.Cents
			continue
		}
		for _, st := range inst.SubTransactions {
			totals[categoryNameFor(st, categoryNames, subCategoryParents)] += st.Value.Cents
		}
	}

	result := make(map[string]Money, len(totals))
	for name, cents := range totals {
		result[name] = Money{Cents: cents}
	}
	return result
}

// ResolveCategoryNames returns the distinct category names an installment's
// sub-transactions resolve to, in first-seen order. Used for display rows;
// an uncategorized installment resolves to the fallback.
func ResolveCategoryNames(inst Installment, categories []Category) []string {
	categoryNames := make(map[string]string, len(categories))
	subCategoryParents := make(map[string]string)
	for _, c := range categories {
		categoryNames[c.ID] = c.Name
		for _, sc := range c.SubCategories {
			subCategoryParents[sc.ID] = c.Name
		}
	}

	if len(inst.SubTransactions) == 0 {
		return []string{FallbackCategory}
	}

	seen := make(map[string]bool)
	var names []string
	for _, st := range inst.SubTransactions {
		name := categoryNameFor(st, categoryNames, subCategoryParents)
		if !seen[name] {
			seen[name] = true
			names = append(names, name)
		}
	}
	return names
}

// categoryNameFor resolves a fragment to a top-level category name. A
// category reference wins over a sub-category reference; an unknown or
// absent reference falls back to FallbackCategory.
func categoryNameFor(st SubTransaction, categoryNames, subCategoryParents map[string]string) string {
	if name, ok := categoryNames[st.CategoryID]; ok && st.CategoryID != "" {
		return name
	}
	if name, ok := subCategoryParents[st.SubCategoryID]; ok && st.SubCategoryID != "" {
		return name
	}
	return FallbackCategory
}
