package api

import (
	"net/http"

	"github.com/Domenick1991/pitchbooking/internal/domain"
	"github.com/Domenick1991/pitchbooking/internal/service/booking"
	"github.com/gin-gonic/gin"
)

type BookingHandler struct {
	service  booking.BookingUseCase
	sessions SessionReader
}

type createBookingRequest struct {
	VenueID string `json:"venue_id" binding:"required"`
	Date    string `json:"date" binding:"required"`
	Time    string `json:"time" binding:"required"`
	IsFree  bool   `json:"is_free"`
}

type bookingResponse struct {
	ID             string `json:"id"`
	VenueID        string `json:"venue_id"`
	Date           string `json:"date"`
	Time           string `json:"time"`
	Status         string `json:"status"`
	IsFree         bool   `json:"is_free"`
	LoyaltyApplied bool   `json:"loyalty_applied"`
	Reminder24h    bool   `json:"reminder_24h_sent"`
	Reminder1h     bool   `json:"reminder_1h_sent"`
}

func newBookingResponse(b domain.Booking) bookingResponse {
	return bookingResponse{
		ID:             b.ID,
		VenueID:        b.VenueID,
		Date:           b.Date,
		Time:           b.Time,
		Status:         string(b.Status),
		IsFree:         b.IsFree,
		LoyaltyApplied: b.LoyaltyApplied,
		Reminder24h:    b.RemindersSent.TwentyFourHour,
		Reminder1h:     b.RemindersSent.OneHour,
	}
}

func NewBookingHandler(service booking.BookingUseCase, sessions SessionReader) *BookingHandler {
	return &BookingHandler{service: service, sessions: sessions}
}

func (h *BookingHandler) Register(router *gin.RouterGroup) {
	router.GET("/", h.list)
	router.POST("/", h.create)
	router.DELETE("/:id", h.cancel)
}

func (h *BookingHandler) list(c *gin.Context) {
	user, ok := currentUser(c, h.sessions)
	if !ok {
		return
	}
	bookings, err := h.service.ListBookings(c.Request.Context(), user.ID)
	if err != nil {
		writeError(c, err)
		return
	}
	out := make([]bookingResponse, 0, len(bookings))
	for _, b := range bookings {
		out = append(out, newBookingResponse(b))
	}
	c.JSON(http.StatusOK, out)
}

func (h *BookingHandler) create(c *gin.Context) {
	user, ok := currentUser(c, h.sessions)
	if !ok {
		return
	}

	var req createBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	b, err := h.service.CreateBooking(c.Request.Context(), domain.CreateBookingInput{
		UserID:  user.ID,
		VenueID: req.VenueID,
		Date:    req.Date,
		Time:    req.Time,
		IsFree:  req.IsFree,
	})
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, newBookingResponse(*b))
}

func (h *BookingHandler) cancel(c *gin.Context) {
	user, ok := currentUser(c, h.sessions)
	if !ok {
		return
	}
	b, err := h.service.CancelBooking(c.Request.Context(), user.ID, c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, newBookingResponse(*b))
}
