package postgres

import (
	"context"
	"fmt"
	"strings"

	"github.com/kirillkom/docvault/internal/core/domain"
)

// Search composes a parameterized conjunctive filter over documents and
// returns one pagination window plus the pre-pagination match count.
func (r *DocumentRepository) Search(ctx context.Context, filter domain.SearchFilter) (domain.SearchResult, error) {
	if filter.Page < 1 || filter.PageSize < 1 {
		return domain.SearchResult{}, domain.WrapError(
			domain.ErrInvalidInput,
			"search documents",
			fmt.Errorf("page and pageSize must be positive, got page=%d pageSize=%d", filter.Page, filter.PageSize),
		)
	}

	where, args := buildSearchConditions(filter)

	var total int
	countQuery := `SELECT COUNT(*) FROM documents` + where
	if err := r.db.QueryRowContext(ctx, countQuery, args...).Scan(&total); err != nil {
		return domain.SearchResult{}, fmt.Errorf("count search matches: %w", err)
	}

	pageQuery := fmt.Sprintf(
		`SELECT %s FROM documents%s ORDER BY upload_date DESC LIMIT $%d OFFSET $%d`,
		documentColumns, where, len(args)+1, len(args)+2,
	)
	rows, err := r.db.QueryContext(ctx, pageQuery, append(args, filter.PageSize, filter.Offset())...)
	if err != nil {
		return domain.SearchResult{}, fmt.Errorf("search documents: %w", err)
	}

	docs, err := collectDocuments(rows)
	if err != nil {
		return domain.SearchResult{}, err
	}
	return domain.SearchResult{Documents: docs, Total: total}, nil
}

func buildSearchConditions(filter domain.SearchFilter) (string, []any) {
	conditions := []string{}
	args := []any{}

	arg := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if filter.Query != "" {
		like := "%" + filter.Query + "%"
		p1, p2, p3 := arg(like), arg(like), arg(like)
		conditions = append(conditions, fmt.Sprintf(
			"(original_name ILIKE %s OR extracted_text ILIKE %s OR ai_classification ILIKE %s)",
			p1, p2, p3,
		))
	}

	switch filter.Category {
	case "":
	case domain.CategoryUncategorized:
		conditions = append(conditions, "(ai_classification IS NULL OR ai_classification = '')")
	default:
		conditions = append(conditions, "ai_classification = "+arg(filter.Category))
	}

	if filter.FileType != "" {
		conditions = append(conditions, "mime_type = "+arg(filter.FileType))
	}
	if filter.DateFrom != nil {
		conditions = append(conditions, "upload_date >= "+arg(*filter.DateFrom))
	}
	if filter.DateTo != nil {
		conditions = append(conditions, "upload_date <= "+arg(*filter.DateTo))
	}

	if len(conditions) == 0 {
		return "", args
	}
	return " WHERE " + strings.Join(conditions, " AND "), args
}
