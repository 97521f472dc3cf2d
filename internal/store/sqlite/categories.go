package sqlite

import (
	"context"
	"fmt"

	"gastos/internal/core"
)

// ListCategories returns the seeded two-level taxonomy. Categories are
// managed via migrations, not through the API.
func (r *Repository) ListCategories(ctx context.Context) ([]core.Category, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT id, name FROM category ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	defer rows.Close()

	var categories []core.Category
	index := make(map[string]int)
	for rows.Next() {
		var c core.Category
		if err := rows.Scan(&c.ID, &c.Name); err != nil {
			return nil, fmt.Errorf("scan category: %w", err)
		}
		index[c.ID] = len(categories)
		categories = append(categories, c)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	subRows, err := r.db.QueryContext(ctx,
		`SELECT id, name, category_id FROM sub_category ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("list sub-categories: %w", err)
	}
	defer subRows.Close()

	for subRows.Next() {
		var sc core.SubCategory
		if err := subRows.Scan(&sc.ID, &sc.Name, &sc.CategoryID); err != nil {
			return nil, fmt.Errorf("scan sub-category: %w", err)
		}
		if i, ok := index[sc.CategoryID]; ok {
			categories[i].SubCategories = append(categories[i].SubCategories, sc)
		}
	}
	return categories, subRows.Err()
}
