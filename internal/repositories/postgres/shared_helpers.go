package postgres

import (
	"strings"

	"gorm.io/gorm"
)

// sortColumns whitelists the columns a client may order by.
var sortColumns = map[string]bool{
	"created_at":   true,
	"updated_at":   true,
	"id":           true,
	"title":        true,
	"status":       true,
	"subject":      true,
	"deadline":     true,
	"score":        true,
	"submitted_at": true,
	"full_name":    true,
	"student_code": true,
	"class_name":   true,
}

// camel-cased names the frontend sends
var sortAliases = map[string]string{
	"createdAt":   "created_at",
	"updatedAt":   "updated_at",
	"submittedAt": "submitted_at",
	"fullName":    "full_name",
	"studentCode": "student_code",
	"className":   "class_name",
}

// ApplyPaginationAndSort applies pagination and sorting with SQL injection protection
func ApplyPaginationAndSort(query *gorm.DB, sortBy, sortOrder string, limit, offset int) *gorm.DB {
	if alias, ok := sortAliases[sortBy]; ok {
		sortBy = alias
	}
	if sortBy == "" || !sortColumns[sortBy] {
		sortBy = "created_at"
	}

	if strings.EqualFold(sortOrder, "asc") {
		sortOrder = "ASC"
	} else {
		sortOrder = "DESC"
	}

	// id breaks ties so pages are stable
	query = query.Order(sortBy + " " + sortOrder)
	if sortBy != "id" {
		query = query.Order("id " + sortOrder)
	}

	if limit > 0 {
		query = query.Limit(limit)
	}
	if offset > 0 {
		query = query.Offset(offset)
	}
	return query
}

// ApplySearch matches term case-insensitively against any of the columns.
func ApplySearch(query *gorm.DB, term string, columns ...string) *gorm.DB {
	term = strings.TrimSpace(term)
	if term == "" || len(columns) == 0 {
		return query
	}
	like := "%" + strings.ToLower(term) + "%"
	clauses := make([]string, len(columns))
	args := make([]interface{}, len(columns))
	for i, col := range columns {
		clauses[i] = "LOWER(" + col + ") LIKE ?"
		args[i] = like
	}
	return query.Where("("+strings.Join(clauses, " OR ")+")", args...)
}
