package api

import (
	"net/http"

	"github.com/Domenick1991/pitchbooking/internal/domain"
	"github.com/Domenick1991/pitchbooking/internal/service/venues"
	"github.com/gin-gonic/gin"
)

type VenueHandler struct {
	service venues.VenueUseCase
}

type venueResponse struct {
	ID             string `json:"id"`
	Name           string `json:"name"`
	LoyaltyEnabled bool   `json:"loyalty_enabled"`
	LoyaltyGoal    int    `json:"loyalty_goal"`
}

func newVenueResponse(v domain.Venue) venueResponse {
	return venueResponse{ID: v.ID, Name: v.Name, LoyaltyEnabled: v.LoyaltyEnabled, LoyaltyGoal: v.Goal()}
}

func NewVenueHandler(service venues.VenueUseCase) *VenueHandler {
	return &VenueHandler{service: service}
}

func (h *VenueHandler) Register(router *gin.RouterGroup) {
	router.GET("/", h.list)
	router.GET("/:id", h.get)
}

func (h *VenueHandler) list(c *gin.Context) {
	list, err := h.service.List(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	out := make([]venueResponse, 0, len(list))
	for _, v := range list {
		out = append(out, newVenueResponse(v))
	}
	c.JSON(http.StatusOK, out)
}

func (h *VenueHandler) get(c *gin.Context) {
	idx, err := h.service.Index(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	v, ok := idx[c.Param("id")]
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "venue not found"})
		return
	}
	c.JSON(http.StatusOK, newVenueResponse(v))
}
