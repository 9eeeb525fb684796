package postgres

import (
	"fmt"
	"slices"
	"strings"

	"github.com/Masterminds/squirrel"

	"inventra/internal/core/apperror"
	"inventra/internal/domain/filter"
)

// ApplyFilters translates structured filter items into squirrel WHERE
// conditions. Fields outside the column allow-list are rejected so
// callers can pass user input through directly.
func ApplyFilters(q squirrel.SelectBuilder, items []filter.Item, allowed []string) (squirrel.SelectBuilder, error) {
	for _, item := range items {
		if !slices.Contains(allowed, item.Field) {
			return q, apperror.NewValidation("unknown filter field").
				WithDetail("field", item.Field)
		}

		switch item.Operator {
		case filter.Equal:
			q = q.Where(squirrel.Eq{item.Field: item.Value})
		case filter.NotEqual:
			q = q.Where(squirrel.NotEq{item.Field: item.Value})
		case filter.LessOrEqual:
			q = q.Where(squirrel.LtOrEq{item.Field: item.Value})
		case filter.GreaterOrEqual:
			q = q.Where(squirrel.GtOrEq{item.Field: item.Value})
		case filter.InList:
			q = q.Where(squirrel.Eq{item.Field: item.Value})
		case filter.NotInList:
			q = q.Where(squirrel.NotEq{item.Field: item.Value})
		case filter.Contains:
			q = q.Where(squirrel.ILike{item.Field: fmt.Sprintf("%%%v%%", item.Value)})
		case filter.NotContains:
			q = q.Where(squirrel.NotILike{item.Field: fmt.Sprintf("%%%v%%", item.Value)})
		case filter.IsNull:
			q = q.Where(squirrel.Eq{item.Field: nil})
		case filter.IsNotNull:
			q = q.Where(squirrel.NotEq{item.Field: nil})
		default:
			return q, apperror.NewValidation("unknown filter operator").
				WithDetail("operator", string(item.Operator))
		}
	}
	return q, nil
}

// ParseOrderBy converts an API sort expression ("name", "-created_at")
// into an ORDER BY clause, validated against the column allow-list.
func ParseOrderBy(orderBy string, allowed []string, fallback string) (string, error) {
	if orderBy == "" {
		orderBy = fallback
	}

	direction := "ASC"
	column := orderBy
	if strings.HasPrefix(orderBy, "-") {
		direction = "DESC"
		column = orderBy[1:]
	}

	if !slices.Contains(allowed, column) {
		return "", apperror.NewValidation("unknown sort field").
			WithDetail("field", column)
	}
	return column + " " + direction, nil
}
