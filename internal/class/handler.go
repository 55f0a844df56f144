package class

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"

	"classbook/internal/api"
	"classbook/internal/config"
	"classbook/internal/metrics"
)

type Handler struct {
	service Service
	cfg     *config.Config
}

func NewHandler(db *sqlx.DB, cfg *config.Config) *Handler {
	repo := NewRepository(db)
	return &Handler{
		service: NewService(db, repo),
		cfg:     cfg,
	}
}

func (h *Handler) displayTimezone(c *gin.Context) string {
	return c.DefaultQuery("timezone", h.cfg.DefaultTimezone)
}

// CreateClass godoc
// @Summary      Create fitness class
// @Description  Creates a class; available slots start equal to capacity.
// @Tags         classes
// @Accept       json
// @Produce      json
// @Param        timezone  query     string              false  "IANA timezone for the class times"
// @Param        class     body      CreateClassRequest  true   "Class fields"
// @Success      201       {object}  FitnessClass
// @Failure      400       {object}  api.ErrorResponse
// @Failure      500       {object}  api.ErrorResponse
// @Router       /classes [post]
func (h *Handler) CreateClass(c *gin.Context) {
	var req CreateClassRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		api.RespondBindingError(c, err)
		return
	}

	created, err := h.service.Create(c.Request.Context(), req, h.displayTimezone(c))
	if err != nil {
		api.RespondError(c, err)
		return
	}

	metrics.RecordClassCreated()
	c.JSON(http.StatusCreated, created)
}

// UpdateClass godoc
// @Summary      Update fitness class
// @Description  Applies a partial update; omitted fields keep their value.
// @Tags         classes
// @Accept       json
// @Produce      json
// @Param        classID   path      int                 true   "Class ID"
// @Param        timezone  query     string              false  "IANA timezone for the class times"
// @Param        class     body      UpdateClassRequest  true   "Fields to update"
// @Success      200       {object}  FitnessClass
// @Failure      400       {object}  api.ErrorResponse
// @Failure      404       {object}  api.ErrorResponse
// @Failure      500       {object}  api.ErrorResponse
// @Router       /classes/{classID} [put]
func (h *Handler) UpdateClass(c *gin.Context) {
	classID, err := strconv.Atoi(c.Param("classID"))
	if err != nil {
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: "Invalid class ID"})
		return
	}

	var req UpdateClassRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		api.RespondBindingError(c, err)
		return
	}

	updated, err := h.service.Update(c.Request.Context(), classID, req, h.displayTimezone(c))
	if err != nil {
		api.RespondError(c, err)
		return
	}

	c.JSON(http.StatusOK, updated)
}

// DeleteClass godoc
// @Summary      Delete fitness class
// @Description  Removes a class and all bookings that reference it.
// @Tags         classes
// @Produce      json
// @Param        classID  path  int  true  "Class ID"
// @Success      204
// @Failure      400  {object}  api.ErrorResponse
// @Failure      404  {object}  api.ErrorResponse
// @Failure      500  {object}  api.ErrorResponse
// @Router       /classes/{classID} [delete]
func (h *Handler) DeleteClass(c *gin.Context) {
	classID, err := strconv.Atoi(c.Param("classID"))
	if err != nil {
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: "Invalid class ID"})
		return
	}

	if err := h.service.Delete(c.Request.Context(), classID); err != nil {
		api.RespondError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

// ListClasses godoc
// @Summary      List upcoming classes
// @Description  Returns classes with start time in the future, ordered by start time.
// @Tags         classes
// @Produce      json
// @Param        timezone  query     string  false  "IANA timezone for displaying class times"
// @Param        skip      query     int     false  "Records to skip"
// @Param        limit     query     int     false  "Maximum records to return"
// @Success      200       {array}   FitnessClass
// @Failure      400       {object}  api.ErrorResponse
// @Failure      500       {object}  api.ErrorResponse
// @Router       /classes [get]
func (h *Handler) ListClasses(c *gin.Context) {
	offset, limit, err := api.ParsePagination(c, h.cfg.DefaultPageSize, h.cfg.MaxPageSize)
	if err != nil {
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: err.Error()})
		return
	}

	classes, err := h.service.List(c.Request.Context(), h.displayTimezone(c), offset, limit)
	if err != nil {
		api.RespondError(c, err)
		return
	}

	c.JSON(http.StatusOK, classes)
}
