// Package api - Generic entity endpoints
package api

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/aethra/steward/internal/store"
	"github.com/aethra/steward/schema"
)

// Handler serves the generic entity endpoints. One instance covers every
// registered entity; the router binds its methods per entity.
type Handler struct {
	engine *store.Engine
	log    *slog.Logger
}

// NewHandler creates a new entity handler
func NewHandler(engine *store.Engine, log *slog.Logger) *Handler {
	if log == nil {
		log = slog.Default()
	}
	return &Handler{engine: engine, log: log}
}

// =============================================================================
// LIST / GET
// =============================================================================

// List returns one page of records wrapped in the list envelope
// GET <prefix>
func (h *Handler) List(entity *schema.Entity) gin.HandlerFunc {
	return func(c *gin.Context) {
		params := store.ListParams{
			Page:      parseIntParam(c.Query("page"), 1),
			PerPage:   parseIntParam(c.Query("per_page"), 10),
			Search:    c.Query("search"),
			SortBy:    c.Query("sort_by"),
			SortOrder: c.Query("sort_order"),
		}
		if raw := c.Query("status"); raw != "" {
			if v, err := strconv.ParseBool(raw); err == nil {
				params.Status = &v
			}
		}

		result, err := h.engine.List(c.Request.Context(), entity, params)
		if err != nil {
			h.serverError(c, entity.Code, "list", err)
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"success":         true,
			"message":         "",
			"columns":         entity.Columns(),
			"visible_columns": entity.VisibleDefaults(),
			"data": gin.H{
				"current_page": result.CurrentPage,
				"data":         result.Data,
				"last_page":    result.LastPage,
				"per_page":     result.PerPage,
				"total":        result.Total,
			},
		})
	}
}

// Get returns a single record by uuid
// GET <prefix>/:uuid
func (h *Handler) Get(entity *schema.Entity) gin.HandlerFunc {
	return func(c *gin.Context) {
		record, err := h.engine.GetByUUID(c.Request.Context(), entity, c.Param("uuid"))
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				c.JSON(http.StatusNotFound, gin.H{"success": false, "message": "Record not found."})
				return
			}
			h.serverError(c, entity.Code, "get", err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"success": true, "message": "", "data": record})
	}
}

// =============================================================================
// CREATE / UPDATE / DELETE
// =============================================================================

// Create inserts a new record
// POST <prefix>
func (h *Handler) Create(entity *schema.Entity) gin.HandlerFunc {
	return func(c *gin.Context) {
		var data map[string]any
		if err := c.ShouldBindJSON(&data); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "Invalid request body."})
			return
		}

		record, err := h.engine.Create(c.Request.Context(), entity, data, currentUserID(c))
		if err != nil {
			var verr *store.ValidationFailure
			if errors.As(err, &verr) {
				c.JSON(http.StatusUnprocessableEntity, gin.H{
					"message": "The given data was invalid.",
					"errors":  verr.Fields,
				})
				return
			}
			h.serverError(c, entity.Code, "create", err)
			return
		}
		c.JSON(http.StatusCreated, gin.H{"success": true, "message": "Created successfully.", "data": record})
	}
}

// Update applies a full draft against uuid
// PUT <prefix>/:uuid
func (h *Handler) Update(entity *schema.Entity) gin.HandlerFunc {
	return func(c *gin.Context) {
		var data map[string]any
		if err := c.ShouldBindJSON(&data); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "Invalid request body."})
			return
		}

		record, err := h.engine.Update(c.Request.Context(), entity, c.Param("uuid"), data, currentUserID(c))
		if err != nil {
			var verr *store.ValidationFailure
			if errors.As(err, &verr) {
				c.JSON(http.StatusUnprocessableEntity, gin.H{
					"message": "The given data was invalid.",
					"errors":  verr.Fields,
				})
				return
			}
			if errors.Is(err, store.ErrNotFound) {
				c.JSON(http.StatusNotFound, gin.H{"success": false, "message": "Record not found."})
				return
			}
			h.serverError(c, entity.Code, "update", err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"success": true, "message": "Updated successfully.", "data": record})
	}
}

// Delete removes a record by its numeric display id
// DELETE <prefix>/:id
func (h *Handler) Delete(entity *schema.Entity) gin.HandlerFunc {
	return func(c *gin.Context) {
		err := h.engine.Delete(c.Request.Context(), entity, c.Param("id"), currentUserID(c))
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				c.JSON(http.StatusNotFound, gin.H{"success": false, "message": "Record not found."})
				return
			}
			h.serverError(c, entity.Code, "delete", err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"success": true, "message": "Deleted successfully."})
	}
}

// =============================================================================
// DROPDOWN / IMPORT / EXPORT
// =============================================================================

// Dropdown runs the free-text option lookup for select fields
// GET <prefix>-dropdown
func (h *Handler) Dropdown(entity *schema.Entity, labelField string) gin.HandlerFunc {
	return func(c *gin.Context) {
		rows, err := h.engine.Dropdown(c.Request.Context(), entity, labelField, c.Query("search"))
		if err != nil {
			h.serverError(c, entity.Code, "dropdown", err)
			return
		}
		options := make([]gin.H, 0, len(rows))
		for _, row := range rows {
			options = append(options, gin.H{"id": row["id"], labelField: row[labelField]})
		}
		c.JSON(http.StatusOK, gin.H{"data": options})
	}
}

// Import accepts a CSV upload and inserts all rows or none
// POST <prefix>-import
func (h *Handler) Import(entity *schema.Entity) gin.HandlerFunc {
	return func(c *gin.Context) {
		file, _, err := c.Request.FormFile("file")
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "Missing file upload."})
			return
		}
		defer file.Close()

		failures, err := h.engine.Import(c.Request.Context(), entity, file, currentUserID(c))
		if err != nil {
			h.serverError(c, entity.Code, "import", err)
			return
		}
		if len(failures) > 0 {
			c.JSON(http.StatusOK, gin.H{
				"success": false,
				"message": "Some rows could not be imported.",
				"errors":  failures,
			})
			return
		}
		c.JSON(http.StatusOK, gin.H{"success": true, "message": "Imported successfully.", "errors": []store.ImportRowError{}})
	}
}

// Export streams the selected records as a CSV attachment
// POST <prefix>-export
func (h *Handler) Export(entity *schema.Entity) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req struct {
			UUIDs []string `json:"uuids"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "Invalid request body."})
			return
		}

		blob, err := h.engine.Export(c.Request.Context(), entity, req.UUIDs)
		if err != nil {
			h.serverError(c, entity.Code, "export", err)
			return
		}
		filename := entity.Code + ".csv"
		c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
		c.Data(http.StatusOK, "text/csv", blob)
	}
}

// =============================================================================
// SCHEMA / HEALTH
// =============================================================================

// GetSchema returns the registered entity descriptors
// GET /api/schema
func (h *Handler) GetSchema(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"success": true, "data": h.engine.Registry().All()})
}

// Health is the unauthenticated liveness check
// GET /api/health
func (h *Handler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "ok",
		"service": "steward",
		"version": "1.0.0",
	})
}

// =============================================================================
// HELPERS
// =============================================================================

func (h *Handler) serverError(c *gin.Context, entity, op string, err error) {
	h.log.Error("entity operation failed", "entity", entity, "op", op, "error", err)
	c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "Server error."})
}

func currentUserID(c *gin.Context) *uuid.UUID {
	if v, exists := c.Get("user_id"); exists {
		if id, ok := v.(uuid.UUID); ok {
			return &id
		}
	}
	return nil
}

func parseIntParam(value string, defaultValue int) int {
	if value == "" {
		return defaultValue
	}
	i, err := strconv.Atoi(value)
	if err != nil {
		return defaultValue
	}
	return i
}
