package api

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"storefront-service/internal/domain"
	"storefront-service/internal/store"
)

// CategoryInput defines the expected input for creating or updating a
// category. The slug is never accepted from the client; it is derived from
// the name on first save and stays fixed afterwards.
type CategoryInput struct {
	Name         string  `json:"name" validate:"required,max=50"`
	Description  *string `json:"description" validate:"omitempty,max=500"`
	Parent       *int64  `json:"parent" validate:"omitempty,gt=0"`
	Image        string  `json:"image"`
	IsActive     *bool   `json:"isActive"`
	DisplayOrder int     `json:"displayOrder" validate:"gte=0"`
}

func (input *CategoryInput) toDomain() *domain.Category {
	isActive := true
	if input.IsActive != nil {
		isActive = *input.IsActive
	}
	return &domain.Category{
		Name:         input.Name,
		Description:  input.Description,
		ParentID:     input.Parent,
		Image:        input.Image,
		IsActive:     isActive,
		DisplayOrder: input.DisplayOrder,
	}
}

// --- Storefront Category Handlers ---

func (h *HTTPHandler) ListCategories(w http.ResponseWriter, r *http.Request) {
	h.listCategories(w, r, true)
}

func (h *HTTPHandler) GetCategoryBySlug(w http.ResponseWriter, r *http.Request) {
	slug := chi.URLParam(r, "slug")

	category, err := h.categoryStore.GetCategoryBySlug(r.Context(), slug)
	if err != nil {
		if errors.Is(err, store.ErrCategoryNotFound) {
			respondWithError(w, http.StatusNotFound, "Category not found")
		} else {
			log.Printf("ERROR: GetCategoryBySlug store operation for slug %q failed: %v", slug, err)
			respondWithError(w, http.StatusInternalServerError, "Error fetching category")
		}
		return
	}

	respondWithData(w, http.StatusOK, category)
}

// --- Admin Category Handlers ---

func (h *HTTPHandler) ListAllCategories(w http.ResponseWriter, r *http.Request) {
	h.listCategories(w, r, false)
}

func (h *HTTPHandler) listCategories(w http.ResponseWriter, r *http.Request, activeOnly bool) {
	page, limit := parsePagination(r)

	categories, totalCount, err := h.categoryStore.ListCategories(r.Context(), store.ListCategoriesParams{
		Limit:      limit,
		Offset:     (page - 1) * limit,
		ActiveOnly: activeOnly,
	})
	if err != nil {
		log.Printf("ERROR: ListCategories store operation failed: %v", err)
		respondWithError(w, http.StatusInternalServerError, "Error fetching categories")
		return
	}

	respondWithData(w, http.StatusOK, map[string]interface{}{
		"categories": categories,
		"pagination": newPagination(page, limit, totalCount),
	})
}

func (h *HTTPHandler) GetCategoryByID(w http.ResponseWriter, r *http.Request) {
	categoryID, err := strconv.ParseInt(chi.URLParam(r, "categoryId"), 10, 64)
	if err != nil || categoryID <= 0 {
		respondWithError(w, http.StatusBadRequest, "Invalid category ID format")
		return
	}

	category, err := h.categoryStore.GetCategoryByID(r.Context(), categoryID)
	if err != nil {
		if errors.Is(err, store.ErrCategoryNotFound) {
			respondWithError(w, http.StatusNotFound, "Category not found")
		} else {
			log.Printf("ERROR: GetCategoryByID store operation for ID %d failed: %v", categoryID, err)
			respondWithError(w, http.StatusInternalServerError, "Error fetching category")
		}
		return
	}

	respondWithData(w, http.StatusOK, category)
}

func (h *HTTPHandler) CreateCategory(w http.ResponseWriter, r *http.Request) {
	var input CategoryInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request payload: "+err.Error())
		return
	}
	defer r.Body.Close()

	if err := h.validate.Struct(input); err != nil {
		respondWithValidationError(w, err)
		return
	}

	createdCategory, err := h.categoryStore.CreateCategory(r.Context(), input.toDomain())
	if err != nil {
		log.Printf("ERROR: CreateCategory store operation failed: %v", err)
		if errors.Is(err, store.ErrCategoryNameExists) {
			respondWithError(w, http.StatusBadRequest, "Duplicate field value entered")
		} else {
			respondWithError(w, http.StatusInternalServerError, "Error creating category")
		}
		return
	}

	respondWithData(w, http.StatusCreated, createdCategory)
}

func (h *HTTPHandler) UpdateCategory(w http.ResponseWriter, r *http.Request) {
	categoryID, err := strconv.ParseInt(chi.URLParam(r, "categoryId"), 10, 64)
	if err != nil || categoryID <= 0 {
		respondWithError(w, http.StatusBadRequest, "Invalid category ID format")
		return
	}

	var input CategoryInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request payload: "+err.Error())
		return
	}
	defer r.Body.Close()

	if err := h.validate.Struct(input); err != nil {
		respondWithValidationError(w, err)
		return
	}

	category := input.toDomain()
	category.ID = categoryID

	updatedCategory, err := h.categoryStore.UpdateCategory(r.Context(), category)
	if err != nil {
		log.Printf("ERROR: UpdateCategory store operation for ID %d failed: %v", categoryID, err)
		if errors.Is(err, store.ErrCategoryNotFound) {
			respondWithError(w, http.StatusNotFound, "Category not found")
		} else if errors.Is(err, store.ErrCategoryNameExists) {
			respondWithError(w, http.StatusBadRequest, "Duplicate field value entered")
		} else {
			respondWithError(w, http.StatusInternalServerError, "Error updating category")
		}
		return
	}

	respondWithData(w, http.StatusOK, updatedCategory)
}
