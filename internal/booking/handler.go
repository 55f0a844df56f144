package booking

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"

	"classbook/internal/api"
	"classbook/internal/class"
	"classbook/internal/config"
)

type Handler struct {
	service Service
	cfg     *config.Config
}

func NewHandler(db *sqlx.DB, cfg *config.Config) *Handler {
	repo := NewRepository(db)
	classRepo := class.NewRepository(db)
	return &Handler{
		service: NewService(db, repo, classRepo),
		cfg:     cfg,
	}
}

func (h *Handler) displayTimezone(c *gin.Context) string {
	return c.DefaultQuery("timezone", h.cfg.DefaultTimezone)
}

// BookClass godoc
// @Summary      Book a fitness class
// @Description  Creates a booking and decrements the class's available slots in one transaction.
// @Tags         bookings
// @Accept       json
// @Produce      json
// @Param        timezone  query     string       false  "IANA timezone for the response"
// @Param        booking   body      BookRequest  true   "Booking details"
// @Success      201       {object}  BookingWithClass
// @Failure      400       {object}  api.ErrorResponse
// @Failure      500       {object}  api.ErrorResponse
// @Router       /book [post]
func (h *Handler) BookClass(c *gin.Context) {
	var req BookRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		api.RespondBindingError(c, err)
		return
	}

	booked, err := h.service.Book(c.Request.Context(), req, h.displayTimezone(c))
	if err != nil {
		api.RespondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, booked)
}

// CancelBooking godoc
// @Summary      Cancel a booking
// @Description  Deletes the booking and returns its slot to the class.
// @Tags         bookings
// @Produce      json
// @Param        bookingID  path      int  true  "Booking ID"
// @Success      200        {object}  CancelResult
// @Failure      400        {object}  api.ErrorResponse
// @Failure      404        {object}  api.ErrorResponse
// @Failure      500        {object}  api.ErrorResponse
// @Router       /bookings/{bookingID} [delete]
func (h *Handler) CancelBooking(c *gin.Context) {
	bookingID, err := strconv.Atoi(c.Param("bookingID"))
	if err != nil {
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: "Invalid booking ID"})
		return
	}

	result, err := h.service.Cancel(c.Request.Context(), bookingID)
	if err != nil {
		api.RespondError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// CheckAvailability godoc
// @Summary      Check class availability
// @Description  Returns slot counts and localized times for one class.
// @Tags         classes
// @Produce      json
// @Param        classID   path      int     true   "Class ID"
// @Param        timezone  query     string  false  "IANA timezone for the response"
// @Success      200       {object}  Availability
// @Failure      400       {object}  api.ErrorResponse
// @Failure      404       {object}  api.ErrorResponse
// @Failure      500       {object}  api.ErrorResponse
// @Router       /classes/availability/{classID} [get]
func (h *Handler) CheckAvailability(c *gin.Context) {
	classID, err := strconv.Atoi(c.Param("classID"))
	if err != nil {
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: "Invalid class ID"})
		return
	}

	availability, err := h.service.CheckAvailability(c.Request.Context(), classID, h.displayTimezone(c))
	if err != nil {
		api.RespondError(c, err)
		return
	}

	c.JSON(http.StatusOK, availability)
}

// ListBookings godoc
// @Summary      List bookings by email
// @Description  Returns bookings for an email ordered by class start time.
// @Tags         bookings
// @Produce      json
// @Param        email     query     string  true   "Client email"
// @Param        timezone  query     string  false  "IANA timezone for displaying class times"
// @Param        upcoming  query     bool    false  "Only bookings for upcoming classes"  default(true)
// @Param        skip      query     int     false  "Records to skip"
// @Param        limit     query     int     false  "Maximum records to return"
// @Success      200       {array}   BookingWithClass
// @Failure      400       {object}  api.ErrorResponse
// @Failure      500       {object}  api.ErrorResponse
// @Router       /bookings [get]
func (h *Handler) ListBookings(c *gin.Context) {
	email := c.Query("email")
	if email == "" {
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: "email query parameter is required"})
		return
	}

	upcoming, err := strconv.ParseBool(c.DefaultQuery("upcoming", "true"))
	if err != nil {
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: "upcoming must be a boolean"})
		return
	}

	offset, limit, err := api.ParsePagination(c, h.cfg.DefaultPageSize, h.cfg.MaxPageSize)
	if err != nil {
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: err.Error()})
		return
	}

	bookings, err := h.service.ListByEmail(c.Request.Context(), email, h.displayTimezone(c), upcoming, offset, limit)
	if err != nil {
		api.RespondError(c, err)
		return
	}

	c.JSON(http.StatusOK, bookings)
}
