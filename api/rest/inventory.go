package rest

import (
	"errors"
	"math"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stockroom-app/stockroom/audit"
	"github.com/stockroom-app/stockroom/inventory"
	mw "github.com/stockroom-app/stockroom/middleware"
	"github.com/stockroom-app/stockroom/model"
)

// InventoryHandler handles inventory REST endpoints.
type InventoryHandler struct {
	repo  *inventory.Repo
	audit *audit.Service
}

// NewInventoryHandler creates a new InventoryHandler. The audit service
// may be nil, in which case mutations are not recorded.
func NewInventoryHandler(repo *inventory.Repo, auditSvc *audit.Service) *InventoryHandler {
	return &InventoryHandler{repo: repo, audit: auditSvc}
}

// List handles GET /api/inventory.
func (h *InventoryHandler) List(c *gin.Context) {
	items, err := h.repo.List(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch inventory"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": items})
}

type createItemRequest struct {
	Name        string   `json:"name"        binding:"required,min=1,max=128"`
	Description string   `json:"description"`
	Quantity    *int     `json:"quantity"    binding:"required,gte=0"`
	Price       *float64 `json:"price"       binding:"required,gte=0"`
	ImageURL    string   `json:"image_url"`
}

// Create handles POST /api/inventory.
func (h *InventoryHandler) Create(c *gin.Context) {
	start := time.Now()

	var req createItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	item := &model.Item{
		Name:        req.Name,
		Description: req.Description,
		Quantity:    *req.Quantity,
		Price:       *req.Price,
		ImageURL:    req.ImageURL,
	}
	if err := h.repo.Insert(c.Request.Context(), item); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create item"})
		return
	}

	h.logMutation(c, "item.create", item.ID, req, gin.H{"id": item.ID}, start)
	c.JSON(http.StatusCreated, gin.H{"data": gin.H{"id": item.ID}})
}

// Update handles PATCH /api/inventory/:id. The body is a partial field
// set; name is immutable and its presence rejects the whole request.
func (h *InventoryHandler) Update(c *gin.Context) {
	start := time.Now()

	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return
	}

	var body map[string]interface{}
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid body"})
		return
	}
	if _, ok := body["name"]; ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Name field cannot be updated"})
		return
	}

	fields, err := validateUpdateFields(body)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.repo.Update(c.Request.Context(), id, fields); err != nil {
		switch {
		case errors.Is(err, inventory.ErrUnknownField), errors.Is(err, inventory.ErrEmptyUpdate):
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update item"})
		}
		return
	}

	h.logMutation(c, "item.update", id, body, gin.H{"updated": true}, start)
	c.JSON(http.StatusOK, gin.H{"message": "Item updated successfully"})
}

// Delete handles DELETE /api/inventory/:id. Deleting an id that no
// longer exists still succeeds.
func (h *InventoryHandler) Delete(c *gin.Context) {
	start := time.Now()

	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return
	}

	if err := h.repo.Delete(c.Request.Context(), id); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete item"})
		return
	}

	h.logMutation(c, "item.delete", id, nil, gin.H{"deleted": true}, start)
	c.JSON(http.StatusOK, gin.H{"message": "Item deleted successfully"})
}

// validateUpdateFields type-checks the mutable fields of a partial
// update body. Keys outside the whitelist are left for the repo to
// reject.
func validateUpdateFields(body map[string]interface{}) (map[string]interface{}, error) {
	fields := make(map[string]interface{}, len(body))
	for k, v := range body {
		switch k {
		case "quantity":
			n, ok := v.(float64)
			if !ok || n < 0 || n != math.Trunc(n) {
				return nil, errors.New("quantity must be a non-negative integer")
			}
			fields[k] = int(n)
		case "price":
			n, ok := v.(float64)
			if !ok || n < 0 {
				return nil, errors.New("price must be a non-negative number")
			}
			fields[k] = n
		case "description", "image_url":
			s, ok := v.(string)
			if !ok {
				return nil, errors.New(k + " must be a string")
			}
			fields[k] = s
		default:
			fields[k] = v
		}
	}
	return fields, nil
}

func (h *InventoryHandler) logMutation(c *gin.Context, action string, itemID int64, req, resp interface{}, start time.Time) {
	if h.audit == nil {
		return
	}
	entry := audit.Entry{
		TraceID:    mw.GetTraceID(c),
		Action:     action,
		ItemID:     &itemID,
		Request:    req,
		Response:   resp,
		IP:         c.ClientIP(),
		DurationMs: int(time.Since(start).Milliseconds()),
	}
	if uid := mw.GetUserID(c); uid != 0 {
		entry.UserID = &uid
	}
	h.audit.Log(entry)
}
