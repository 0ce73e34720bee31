package service

import (
	"time"

	"github.com/ManakRaj-7/AnonVerse/internal/data"
	"github.com/ManakRaj-7/AnonVerse/internal/domain"
)

// Row-to-domain converters. The data layer returns generic rows; timestamps
// travel as RFC3339 strings and nullable columns as absent or nil values.

func stringColumn(row data.Row, column string) string {
	s, _ := row[column].(string)
	return s
}

func stringPtrColumn(row data.Row, column string) *string {
	s, ok := row[column].(string)
	if !ok || s == "" {
		return nil
	}
	return &s
}

func timeColumn(row data.Row, column string) time.Time {
	s, ok := row[column].(string)
	if !ok {
		return time.Time{}
	}
	t, err := data.ParseTime(s)
	if err != nil {
		return time.Time{}
	}
	return t
}

func identityFromRow(row data.Row) domain.Identity {
	return domain.Identity{
		ID:        stringColumn(row, "id"),
		PenName:   stringColumn(row, "pen_name"),
		Bio:       stringPtrColumn(row, "bio"),
		AvatarURL: stringPtrColumn(row, "avatar_url"),
		CreatedAt: timeColumn(row, "created_at"),
		UpdatedAt: timeColumn(row, "updated_at"),
	}
}

func poemFromRow(row data.Row) domain.Poem {
	return domain.Poem{
		ID:        stringColumn(row, "id"),
		Title:     stringColumn(row, "title"),
		Content:   stringColumn(row, "content"),
		AuthorID:  stringColumn(row, "author_id"),
		CreatedAt: timeColumn(row, "created_at"),
		UpdatedAt: timeColumn(row, "updated_at"),
	}
}

func commentFromRow(row data.Row) domain.Comment {
	return domain.Comment{
		ID:        stringColumn(row, "id"),
		PoemID:    stringColumn(row, "poem_id"),
		AuthorID:  stringColumn(row, "author_id"),
		Content:   stringColumn(row, "content"),
		CreatedAt: timeColumn(row, "created_at"),
		UpdatedAt: timeColumn(row, "updated_at"),
	}
}

// embeddedRow returns a joined row stored under key, or nil when the join
// produced nothing.
func embeddedRow(row data.Row, key string) data.Row {
	switch v := row[key].(type) {
	case data.Row:
		return v
	case map[string]any:
		return data.Row(v)
	default:
		return nil
	}
}
