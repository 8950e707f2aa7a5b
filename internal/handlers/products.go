package handlers

import (
	"bytes"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	_ "golang.org/x/image/webp"

	"storefront/internal/apperr"
	"storefront/internal/catalog"
	"storefront/internal/markdown"
	"storefront/internal/models"
	"storefront/internal/storage"
)

// maxImageDimension is the largest accepted width or height, in pixels.
const maxImageDimension = 4096

// allowedImageTypes maps accepted sniffed content types to file extensions.
var allowedImageTypes = map[string]string{
	"image/jpeg": "jpg",
	"image/png":  "png",
	"image/gif":  "gif",
	"image/webp": "webp",
}

type createProductRequest struct {
	Name        string           `json:"name"`
	Description string           `json:"description"`
	Price       *decimal.Decimal `json:"price"`
	Categories  []uuid.UUID      `json:"categories"`
}

type updateProductRequest struct {
	Name        string           `json:"name"`
	Price       *decimal.Decimal `json:"price"`
	Description *string          `json:"description"`
	SalesCount  *int             `json:"sales_count"`
	Rating      *float64         `json:"rating"`
	Categories  *[]uuid.UUID     `json:"categories"`
}

// productDetail is a product with its description rendered to HTML.
type productDetail struct {
	models.Product
	DescriptionHTML string `json:"description_html"`
}

// Products lists all products.
func (c *Catalog) Products(w http.ResponseWriter, r *http.Request) {
	items, err := c.svc.Products(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, "Products retrieved successfully", items)
}

// Product returns one product by slug, including its rendered description.
func (c *Catalog) Product(w http.ResponseWriter, r *http.Request) {
	p, err := c.svc.Product(r.Context(), chi.URLParam(r, "slug"))
	if err != nil {
		writeError(w, r, err)
		return
	}

	html, err := markdown.ToHTML(p.Description)
	if err != nil {
		slog.Warn("render product description failed", "product_id", p.ID, "error", err)
	}
	writeJSON(w, http.StatusOK, "Product retrieved successfully", productDetail{Product: *p, DescriptionHTML: html})
}

// CreateProduct adds a product.
func (c *Catalog) CreateProduct(w http.ResponseWriter, r *http.Request) {
	var req createProductRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	p, err := c.svc.CreateProduct(r.Context(), catalog.ProductInput{
		Name:        req.Name,
		Description: req.Description,
		Price:       req.Price,
		Categories:  req.Categories,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, "Product created successfully", p)
}

// UpdateProduct changes a product. Omitted optional fields keep their value.
func (c *Catalog) UpdateProduct(w http.ResponseWriter, r *http.Request) {
	var req updateProductRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	p, err := c.svc.UpdateProduct(r.Context(), chi.URLParam(r, "slug"), catalog.ProductPatch{
		Name:        req.Name,
		Price:       req.Price,
		Description: req.Description,
		SalesCount:  req.SalesCount,
		Rating:      req.Rating,
		Categories:  req.Categories,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, "Product updated successfully", p)
}

// DeleteProduct removes a product and, best effort, its stored image.
func (c *Catalog) DeleteProduct(w http.ResponseWriter, r *http.Request) {
	p, err := c.svc.DeleteProduct(r.Context(), chi.URLParam(r, "slug"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	if p.ImageURL != nil {
		c.removeImage(r, *p.ImageURL)
	}
	writeJSON(w, http.StatusOK, "Product deleted successfully", nil)
}

// UploadProductImage stores the multipart "image" file in object storage
// and points the product at it. The previous image is removed.
func (c *Catalog) UploadProductImage(w http.ResponseWriter, r *http.Request) {
	if c.images == nil {
		writeEnvelope(w, http.StatusServiceUnavailable, envelope{Message: "Image storage is not configured."})
		return
	}

	slug := chi.URLParam(r, "slug")
	if _, err := c.svc.Product(r.Context(), slug); err != nil {
		writeError(w, r, err)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxImageUpload)
	file, _, err := r.FormFile("image")
	if err != nil {
		fields := apperr.Fields{}
		fields.Add("image", "The image field is required and must be at most 10 MB.")
		writeError(w, r, fields.Err())
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		writeError(w, r, apperr.InvalidInput("Could not read the uploaded file."))
		return
	}

	contentType := http.DetectContentType(data)
	ext, ok := allowedImageTypes[contentType]
	if !ok {
		fields := apperr.Fields{}
		fields.Add("image", "The image must be a file of type: jpeg, png, gif, webp.")
		writeError(w, r, fields.Err())
		return
	}
	if msg := checkImage(data); msg != "" {
		fields := apperr.Fields{}
		fields.Add("image", msg)
		writeError(w, r, fields.Err())
		return
	}

	url, err := c.images.Upload(r.Context(), storage.ProductImageKey(slug, ext), contentType, bytes.NewReader(data), int64(len(data)))
	if err != nil {
		writeError(w, r, apperr.Internal(err, "upload product image"))
		return
	}

	prev, err := c.svc.SetProductImage(r.Context(), slug, &url)
	if err != nil {
		c.removeImage(r, url)
		writeError(w, r, err)
		return
	}
	if prev.ImageURL != nil && *prev.ImageURL != url {
		c.removeImage(r, *prev.ImageURL)
	}

	p, err := c.svc.Product(r.Context(), slug)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, "Product image uploaded successfully", p)
}

// checkImage decodes the image header and enforces the size limit. It
// returns a validation message, or "" when the image is acceptable.
func checkImage(data []byte) string {
	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return "The image could not be decoded."
	}
	if cfg.Width > maxImageDimension || cfg.Height > maxImageDimension {
		return "The image may not be larger than 4096x4096 pixels."
	}
	return ""
}

// removeImage deletes a stored image. Failures are logged only.
func (c *Catalog) removeImage(r *http.Request, url string) {
	if c.images == nil {
		return
	}
	if err := c.images.DeleteURL(r.Context(), url); err != nil {
		slog.Warn("delete product image failed", "url", url, "error", err)
	}
}
