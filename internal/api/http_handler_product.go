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

// ProductImageInput is one embedded image in a product payload.
type ProductImageInput struct {
	URL       string `json:"url" validate:"required"`
	Alt       string `json:"alt"`
	IsPrimary bool   `json:"isPrimary"`
}

// ProductReviewInput is one embedded review in a product payload.
type ProductReviewInput struct {
	User       int64  `json:"user"`
	Rating     int    `json:"rating" validate:"required,min=1,max=5"`
	Comment    string `json:"comment"`
	IsApproved bool   `json:"isApproved"`
}

// ProductCreateInput defines the expected input for creating a product.
type ProductCreateInput struct {
	Name          string               `json:"name" validate:"required,max=100"`
	Description   string               `json:"description" validate:"required,max=1000"`
	Price         *float64             `json:"price" validate:"required,gte=0"`
	ComparePrice  *float64             `json:"comparePrice" validate:"omitempty,gte=0"`
	Cost          *float64             `json:"cost" validate:"omitempty,gte=0"`
	Category      int64                `json:"category" validate:"required,gt=0"`
	Subcategory   string               `json:"subcategory"`
	Brand         string               `json:"brand"`
	SKU           string               `json:"sku" validate:"omitempty,max=100"`
	Barcode       string               `json:"barcode"`
	TrackQuantity *bool                `json:"trackQuantity"`
	Quantity      int                  `json:"quantity" validate:"gte=0"`
	LowStockAlert *int                 `json:"lowStockAlert" validate:"omitempty,gte=0"`
	IsPublished   bool                 `json:"isPublished"`
	IsFeatured    bool                 `json:"isFeatured"`
	Images        []ProductImageInput  `json:"images" validate:"omitempty,dive"`
	Tags          []string             `json:"tags"`
	Reviews       []ProductReviewInput `json:"reviews" validate:"omitempty,dive"`
}

// ProductUpdateInput defines the expected input for updating a product.
// Omitted embedded lists (images, tags, reviews) and an omitted SKU keep
// their stored values rather than being wiped.
type ProductUpdateInput = ProductCreateInput

func (input *ProductCreateInput) toDomain() *domain.Product {
	trackQuantity := true
	if input.TrackQuantity != nil {
		trackQuantity = *input.TrackQuantity
	}
	lowStockAlert := 5
	if input.LowStockAlert != nil {
		lowStockAlert = *input.LowStockAlert
	}

	product := &domain.Product{
		Name:          input.Name,
		Description:   input.Description,
		Price:         *input.Price,
		ComparePrice:  input.ComparePrice,
		Cost:          input.Cost,
		CategoryID:    input.Category,
		Subcategory:   input.Subcategory,
		Brand:         input.Brand,
		SKU:           input.SKU,
		Barcode:       input.Barcode,
		TrackQuantity: trackQuantity,
		Quantity:      input.Quantity,
		LowStockAlert: lowStockAlert,
		IsPublished:   input.IsPublished,
		IsFeatured:    input.IsFeatured,
		Tags:          input.Tags,
	}
	for _, img := range input.Images {
		product.Images = append(product.Images, domain.ProductImage{
			URL: img.URL, Alt: img.Alt, IsPrimary: img.IsPrimary,
		})
	}
	for _, rev := range input.Reviews {
		product.Reviews = append(product.Reviews, domain.ProductReview{
			UserID: rev.User, Rating: rev.Rating, Comment: rev.Comment, IsApproved: rev.IsApproved,
		})
	}
	return product
}

// --- Admin Product Handlers ---

func (h *HTTPHandler) ListProducts(w http.ResponseWriter, r *http.Request) {
	qParams := r.URL.Query()
	page, limit := parsePagination(r)

	params := store.ListProductsParams{
		Limit:     limit,
		Offset:    (page - 1) * limit,
		Status:    qParams.Get("status"),
		SortBy:    qParams.Get("sortBy"),
		SortOrder: qParams.Get("sortOrder"),
	}
	if search := qParams.Get("search"); search != "" {
		params.Search = &search
	}
	if idStr := qParams.Get("category"); idStr != "" {
		id, err := strconv.ParseInt(idStr, 10, 64)
		if err != nil || id <= 0 {
			respondWithError(w, http.StatusBadRequest, "Invalid category ID format")
			return
		}
		params.CategoryID = &id
	}

	products, totalCount, err := h.productStore.ListProducts(r.Context(), params)
	if err != nil {
		log.Printf("ERROR: ListProducts store operation failed: %v", err)
		respondWithError(w, http.StatusInternalServerError, "Error fetching products")
		return
	}

	respondWithData(w, http.StatusOK, map[string]interface{}{
		"products":   products,
		"pagination": newPagination(page, limit, totalCount),
	})
}

func (h *HTTPHandler) CreateProduct(w http.ResponseWriter, r *http.Request) {
	var input ProductCreateInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request payload: "+err.Error())
		return
	}
	defer r.Body.Close()

	if err := h.validate.Struct(input); err != nil {
		respondWithValidationError(w, err)
		return
	}

	createdProduct, err := h.productStore.CreateProduct(r.Context(), input.toDomain())
	if err != nil {
		log.Printf("ERROR: CreateProduct store operation failed: %v", err)
		if errors.Is(err, store.ErrProductSKUExists) {
			respondWithError(w, http.StatusBadRequest, "Product with this SKU already exists")
		} else {
			respondWithError(w, http.StatusInternalServerError, "Error creating product")
		}
		return
	}

	// The product is committed at this point. The recount is best-effort: a
	// failure here is logged and the cached category count drifts until the
	// next successful recount. Nothing is rolled back or retried.
	if err := h.categoryStore.RecountCategoryProducts(r.Context(), createdProduct.CategoryID); err != nil {
		log.Printf("WARN: category %d product recount failed after create: %v", createdProduct.CategoryID, err)
	}

	respondWithData(w, http.StatusCreated, createdProduct)
}

func (h *HTTPHandler) UpdateProduct(w http.ResponseWriter, r *http.Request) {
	productID, err := strconv.ParseInt(chi.URLParam(r, "productId"), 10, 64)
	if err != nil || productID <= 0 {
		respondWithError(w, http.StatusBadRequest, "Invalid product ID format")
		return
	}

	var input ProductUpdateInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request payload: "+err.Error())
		return
	}
	defer r.Body.Close()

	if err := h.validate.Struct(input); err != nil {
		respondWithValidationError(w, err)
		return
	}

	existing, err := h.productStore.GetProductByID(r.Context(), productID)
	if err != nil {
		if errors.Is(err, store.ErrProductNotFound) {
			respondWithError(w, http.StatusNotFound, "Product not found")
		} else {
			log.Printf("ERROR: UpdateProduct existence check for ID %d failed: %v", productID, err)
			respondWithError(w, http.StatusInternalServerError, "Error updating product")
		}
		return
	}

	product := input.toDomain()
	product.ID = productID
	if input.SKU == "" {
		product.SKU = existing.SKU
	}
	if input.Images == nil {
		product.Images = existing.Images
	}
	if input.Tags == nil {
		product.Tags = existing.Tags
	}
	if input.Reviews == nil {
		product.Reviews = existing.Reviews
		product.AverageRating = existing.AverageRating
		product.ReviewCount = existing.ReviewCount
	}

	updatedProduct, err := h.productStore.UpdateProduct(r.Context(), product)
	if err != nil {
		log.Printf("ERROR: UpdateProduct store operation for ID %d failed: %v", productID, err)
		if errors.Is(err, store.ErrProductSKUExists) {
			respondWithError(w, http.StatusBadRequest, "Product with this SKU already exists")
		} else if errors.Is(err, store.ErrProductNotFound) {
			respondWithError(w, http.StatusNotFound, "Product not found")
		} else {
			respondWithError(w, http.StatusInternalServerError, "Error updating product")
		}
		return
	}

	// Only a category move triggers recounts, once for each side.
	if updatedProduct.CategoryID != existing.CategoryID {
		if err := h.categoryStore.RecountCategoryProducts(r.Context(), existing.CategoryID); err != nil {
			log.Printf("WARN: category %d product recount failed after update: %v", existing.CategoryID, err)
		}
		if err := h.categoryStore.RecountCategoryProducts(r.Context(), updatedProduct.CategoryID); err != nil {
			log.Printf("WARN: category %d product recount failed after update: %v", updatedProduct.CategoryID, err)
		}
	}

	respondWithData(w, http.StatusOK, updatedProduct)
}

func (h *HTTPHandler) DeleteProduct(w http.ResponseWriter, r *http.Request) {
	productID, err := strconv.ParseInt(chi.URLParam(r, "productId"), 10, 64)
	if err != nil || productID <= 0 {
		respondWithError(w, http.StatusBadRequest, "Invalid product ID format")
		return
	}

	existing, err := h.productStore.GetProductByID(r.Context(), productID)
	if err != nil {
		if errors.Is(err, store.ErrProductNotFound) {
			respondWithError(w, http.StatusNotFound, "Product not found")
		} else {
			log.Printf("ERROR: DeleteProduct existence check for ID %d failed: %v", productID, err)
			respondWithError(w, http.StatusInternalServerError, "Error deleting product")
		}
		return
	}

	if err := h.productStore.DeleteProduct(r.Context(), productID); err != nil {
		log.Printf("ERROR: DeleteProduct store operation for ID %d failed: %v", productID, err)
		if errors.Is(err, store.ErrProductNotFound) {
			respondWithError(w, http.StatusNotFound, "Product not found")
		} else {
			respondWithError(w, http.StatusInternalServerError, "Error deleting product")
		}
		return
	}

	if err := h.categoryStore.RecountCategoryProducts(r.Context(), existing.CategoryID); err != nil {
		log.Printf("WARN: category %d product recount failed after delete: %v", existing.CategoryID, err)
	}

	respondWithMessage(w, http.StatusOK, "Product deleted successfully")
}

// --- Storefront Product Handlers ---

func (h *HTTPHandler) ListPublishedProducts(w http.ResponseWriter, r *http.Request) {
	qParams := r.URL.Query()
	page, limit := parsePagination(r)

	params := store.ListProductsParams{
		Limit:         limit,
		Offset:        (page - 1) * limit,
		SortBy:        qParams.Get("sortBy"),
		SortOrder:     qParams.Get("sortOrder"),
		PublishedOnly: true,
	}
	if search := qParams.Get("search"); search != "" {
		params.Search = &search
	}
	if idStr := qParams.Get("category"); idStr != "" {
		id, err := strconv.ParseInt(idStr, 10, 64)
		if err != nil || id <= 0 {
			respondWithError(w, http.StatusBadRequest, "Invalid category ID format")
			return
		}
		params.CategoryID = &id
	}

	products, totalCount, err := h.productStore.ListProducts(r.Context(), params)
	if err != nil {
		log.Printf("ERROR: ListPublishedProducts store operation failed: %v", err)
		respondWithError(w, http.StatusInternalServerError, "Error fetching products")
		return
	}

	respondWithData(w, http.StatusOK, map[string]interface{}{
		"products":   products,
		"pagination": newPagination(page, limit, totalCount),
	})
}

func (h *HTTPHandler) GetPublishedProduct(w http.ResponseWriter, r *http.Request) {
	productID, err := strconv.ParseInt(chi.URLParam(r, "productId"), 10, 64)
	if err != nil || productID <= 0 {
		respondWithError(w, http.StatusBadRequest, "Invalid product ID format")
		return
	}

	product, err := h.productStore.GetProductByID(r.Context(), productID)
	if err != nil {
		if errors.Is(err, store.ErrProductNotFound) {
			respondWithError(w, http.StatusNotFound, "Product not found")
		} else {
			log.Printf("ERROR: GetPublishedProduct store operation for ID %d failed: %v", productID, err)
			respondWithError(w, http.StatusInternalServerError, "Error fetching product")
		}
		return
	}
	if !product.IsPublished {
		respondWithError(w, http.StatusNotFound, "Product not found")
		return
	}

	// View counting is best-effort; a miss is not worth failing the request.
	if err := h.productStore.IncrementViewCount(r.Context(), productID); err != nil {
		log.Printf("WARN: view count increment failed for product %d: %v", productID, err)
	} else {
		product.ViewCount++
	}

	respondWithData(w, http.StatusOK, product)
}
