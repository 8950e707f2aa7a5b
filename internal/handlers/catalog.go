package handlers

import (
	"context"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"storefront/internal/catalog"
	"storefront/internal/models"
)

// ImageStorage keeps uploaded product images.
type ImageStorage interface {
	Upload(ctx context.Context, key, contentType string, body io.Reader, size int64) (string, error)
	DeleteURL(ctx context.Context, rawURL string) error
}

// Catalog groups category, product and review handlers.
type Catalog struct {
	svc    *catalog.Service
	images ImageStorage // nil when object storage is not configured
}

// NewCatalog creates the catalog handler group. images may be nil.
func NewCatalog(svc *catalog.Service, images ImageStorage) *Catalog {
	return &Catalog{svc: svc, images: images}
}

type categoryRequest struct {
	Name     string     `json:"name"`
	ParentID *uuid.UUID `json:"parent_id"`
}

// Categories lists all categories, newest first.
func (c *Catalog) Categories(w http.ResponseWriter, r *http.Request) {
	items, err := c.svc.Categories(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, "Categories retrieved successfully", items)
}

// CategoryProducts lists the products of a category. The sort query
// parameter selects best_sell, top_rated, price_high_to_low or
// price_low_to_high.
func (c *Catalog) CategoryProducts(w http.ResponseWriter, r *http.Request) {
	items, err := c.svc.CategoryProducts(r.Context(), chi.URLParam(r, "slug"), r.URL.Query().Get("sort"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, "Products retrieved successfully", items)
}

// CreateCategory adds a category.
func (c *Catalog) CreateCategory(w http.ResponseWriter, r *http.Request) {
	var req categoryRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	cat, err := c.svc.CreateCategory(r.Context(), catalog.CategoryInput{Name: req.Name, ParentID: req.ParentID})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, "Category created successfully", cat)
}

// UpdateCategory renames or re-parents a category.
func (c *Catalog) UpdateCategory(w http.ResponseWriter, r *http.Request) {
	id, err := urlID(r, "id", "Category")
	if err != nil {
		writeError(w, r, err)
		return
	}

	var req categoryRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	cat, err := c.svc.UpdateCategory(r.Context(), id, catalog.CategoryInput{Name: req.Name, ParentID: req.ParentID})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, "Category updated successfully", cat)
}

// DeleteCategory removes a category that no product references.
func (c *Catalog) DeleteCategory(w http.ResponseWriter, r *http.Request) {
	id, err := urlID(r, "id", "Category")
	if err != nil {
		writeError(w, r, err)
		return
	}
	if err := c.svc.DeleteCategory(r.Context(), id); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, "Category deleted successfully", nil)
}

// reviewRequest is the body of a new review.
type reviewRequest struct {
	Rating  int    `json:"rating"`
	Comment string `json:"comment"`
}

// reviewResponse is a created review with the product's new rating.
type reviewResponse struct {
	models.Review
	ProductRating float64 `json:"product_rating"`
}

// Reviews lists the reviews of a product.
func (c *Catalog) Reviews(w http.ResponseWriter, r *http.Request) {
	items, err := c.svc.Reviews(r.Context(), chi.URLParam(r, "slug"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, "Reviews retrieved successfully", items)
}

// CreateReview stores a review by the authenticated user.
func (c *Catalog) CreateReview(w http.ResponseWriter, r *http.Request) {
	sess, err := principal(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	var req reviewRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	review, rating, err := c.svc.AddReview(r.Context(), chi.URLParam(r, "slug"), sess.UserID, catalog.ReviewInput{
		Rating:  req.Rating,
		Comment: req.Comment,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, "Review created successfully", reviewResponse{Review: *review, ProductRating: rating})
}
