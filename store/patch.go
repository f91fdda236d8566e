package store

import "taskflow/models"

// Assignment is one "column = value" pair of an UPDATE. A nil Value writes NULL.
type Assignment struct {
	Column string
	Value  any
}

// PatchAssignments renders a task patch into column assignments. The column
// names come from this fixed list only, so callers may splice them into SQL.
func PatchAssignments(p models.TaskPatch) []Assignment {
	var out []Assignment
	if p.Title != nil {
		out = append(out, Assignment{"title", *p.Title})
	}
	if p.Description != nil {
		out = append(out, Assignment{"description", nullable(p.Description)})
	}
	if p.Priority != nil {
		out = append(out, Assignment{"priority", string(*p.Priority)})
	}
	if p.CategoryID != nil {
		out = append(out, Assignment{"category_id", nullable(p.CategoryID)})
	}
	if p.Status != nil {
		out = append(out, Assignment{"status", string(*p.Status)})
	}
	if p.DueDate != nil {
		out = append(out, Assignment{"due_date", nullable(p.DueDate)})
	}
	if p.Position != nil {
		out = append(out, Assignment{"position", *p.Position})
	}
	if p.CompletedAt != nil {
		out = append(out, Assignment{"completed_at", *p.CompletedAt})
	}
	out = append(out, Assignment{"updated_at", p.UpdatedAt})
	return out
}

func nullable[T any](n *models.Nullable[T]) any {
	if n.Null {
		return nil
	}
	return n.Value
}

// EscapeLike escapes LIKE wildcards so s matches literally under ESCAPE '\'.
func EscapeLike(s string) string {
	out := make([]rune, 0, len(s))
	for _, r := range s {
		if r == '\\' || r == '%' || r == '_' {
			out = append(out, '\\')
		}
		out = append(out, r)
	}
	return string(out)
}
