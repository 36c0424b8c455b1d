package httpapi

import (
	"context"
	"net/http"

	"github.com/google/uuid"

	"kharcha/internal/api"
	"kharcha/internal/core"
	"kharcha/internal/log"
)

// defaultCategories is written on the first listing against an empty table
// so a fresh install has something to classify against.
var defaultCategories = []core.Category{
	{Name: "Food", Color: "#EF4444", Icon: "🍔", Kind: core.KindExpense},
	{Name: "Rent", Color: "#8B5CF6", Icon: "🏠", Kind: core.KindExpense},
	{Name: "Transport", Color: "#3B82F6", Icon: "🚗", Kind: core.KindExpense},
	{Name: "Shopping", Color: "#EC4899", Icon: "🛍️", Kind: core.KindExpense},
	{Name: "Bills", Color: "#F59E0B", Icon: "📄", Kind: core.KindExpense},
	{Name: "Entertainment", Color: "#10B981", Icon: "🎬", Kind: core.KindExpense},
	{Name: "Salary", Color: "#22C55E", Icon: "💵", Kind: core.KindIncome},
	{Name: "Investments", Color: "#6366F1", Icon: "📈", Kind: core.KindIncome},
}

func (s *Server) handleListCategories(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	cats, err := s.repo.ListCategories(ctx)
	if err != nil {
		writeStorageError(w, err)
		return
	}

	if len(cats) == 0 {
		if cats, err = s.seedCategories(ctx); err != nil {
			writeStorageError(w, err)
			return
		}
	}

	writeJSON(w, http.StatusOK, cats)
}

func (s *Server) seedCategories(ctx context.Context) ([]core.Category, error) {
	s.logger.InfoContext(ctx, "Seeding default categories",
		log.FieldOperation, log.OpCreate, "count", len(defaultCategories))

	out := make([]core.Category, 0, len(defaultCategories))
	for _, cat := range defaultCategories {
		cat.ID = uuid.NewString()
		cat.CreatedAt = s.now().UTC()
		if err := s.repo.CreateCategory(ctx, cat); err != nil {
			return nil, err
		}
		out = append(out, cat)
	}
	return out, nil
}

func (s *Server) handleCreateCategory(w http.ResponseWriter, r *http.Request) {
	var req api.CategoryCreate
	if !decodeJSON(w, r, &req) {
		return
	}

	cat := core.Category{
		ID:        uuid.NewString(),
		Name:      req.Name,
		Color:     req.Color,
		Icon:      req.Icon,
		Kind:      req.Kind,
		CreatedAt: s.now().UTC(),
	}
	if cat.Color == "" {
		cat.Color = core.DefaultCategoryColor
	}
	if cat.Icon == "" {
		cat.Icon = core.DefaultCategoryIcon
	}
	if cat.Kind == "" {
		cat.Kind = core.KindExpense
	}

	if err := cat.Validate(); err != nil {
		writeValidationError(w, err)
		return
	}
	if err := s.repo.CreateCategory(r.Context(), cat); err != nil {
		writeStorageError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, cat)
}

func (s *Server) handleUpdateCategory(w http.ResponseWriter, r *http.Request) {
	var req api.CategoryUpdate
	if !decodeJSON(w, r, &req) {
		return
	}

	cat, err := s.repo.GetCategory(r.Context(), r.PathValue("id"))
	if err != nil {
		writeStorageError(w, err)
		return
	}

	if req.Name != nil {
		cat.Name = *req.Name
	}
	if req.Color != nil {
		cat.Color = *req.Color
	}
	if req.Icon != nil {
		cat.Icon = *req.Icon
	}
	if req.Kind != nil {
		cat.Kind = *req.Kind
	}

	if err := cat.Validate(); err != nil {
		writeValidationError(w, err)
		return
	}
	if err := s.repo.UpdateCategory(r.Context(), cat); err != nil {
		writeStorageError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, cat)
}

func (s *Server) handleDeleteCategory(w http.ResponseWriter, r *http.Request) {
	if err := s.repo.DeleteCategory(r.Context(), r.PathValue("id")); err != nil {
		writeStorageError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "Category deleted"})
}
