package file

import (
	"fmt"
	"strings"

	domain "file-vault-api/internal/domain/file"
)

var orderColumns = map[domain.OrderField]string{
	domain.OrderUploadedAt: "f.uploaded_at",
	domain.OrderSize:       "f.size",
	domain.OrderFilename:   "f.original_filename",
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// whereClause renders the owner scope plus every set filter as placeholders.
func whereClause(owner string, flt domain.Filter) (string, []any) {
	conds := []string{"f.owner = $1"}
	args := []any{owner}
	add := func(cond string, v any) {
		args = append(args, v)
		conds = append(conds, fmt.Sprintf(cond, len(args)))
	}

	if flt.Search != "" {
		add(`f.original_filename ILIKE '%%' || $%d || '%%'`, likeEscaper.Replace(flt.Search))
	}
	if flt.FileType != "" {
		add("lower(f.file_type) = lower($%d)", flt.FileType)
	}
	if flt.MinSize != nil {
		add("f.size >= $%d", *flt.MinSize)
	}
	if flt.MaxSize != nil {
		add("f.size <= $%d", *flt.MaxSize)
	}
	if flt.StartDate != nil {
		add("f.uploaded_at >= $%d", *flt.StartDate)
	}
	if flt.EndDate != nil {
		add("f.uploaded_at <= $%d", *flt.EndDate)
	}

	return "\n\t\tWHERE " + strings.Join(conds, " AND "), args
}

// orderClause appends LIMIT/OFFSET placeholders after the n filter args.
func orderClause(o domain.Ordering, n int) string {
	col, ok := orderColumns[o.Field]
	if !ok {
		col = orderColumns[domain.DefaultOrdering.Field]
	}
	dir := "ASC"
	if o.Desc {
		dir = "DESC"
	}

	return fmt.Sprintf("\n\t\tORDER BY %s %s, f.id %s\n\t\tLIMIT $%d OFFSET $%d", col, dir, dir, n+1, n+2)
}
