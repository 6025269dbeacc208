package api

import (
	"net/http"

	"github.com/Domenick1991/pitchbooking/internal/domain"
	"github.com/Domenick1991/pitchbooking/internal/shell"
	"github.com/gin-gonic/gin"
)

type SessionHandler struct {
	service shell.SessionUseCase
}

type loginRequest struct {
	UserID string `json:"user_id" binding:"required"`
}

// appStateRequest fields are optional; only the ones present are applied.
type appStateRequest struct {
	Backgrounded  *bool `json:"backgrounded"`
	AlertsAllowed *bool `json:"alerts_allowed"`
}

type userResponse struct {
	ID      string                            `json:"id"`
	Name    string                            `json:"name"`
	Loyalty map[string]domain.LoyaltyProgress `json:"loyalty"`
}

func newUserResponse(u domain.User) userResponse {
	loyalty := u.Loyalty
	if loyalty == nil {
		loyalty = map[string]domain.LoyaltyProgress{}
	}
	return userResponse{ID: u.ID, Name: u.Name, Loyalty: loyalty}
}

func NewSessionHandler(service shell.SessionUseCase) *SessionHandler {
	return &SessionHandler{service: service}
}

func (h *SessionHandler) Register(router *gin.RouterGroup) {
	router.GET("/", h.current)
	router.POST("/login", h.login)
	router.POST("/logout", h.logout)
	router.PUT("/app-state", h.appState)
}

func (h *SessionHandler) current(c *gin.Context) {
	user, ok := currentUser(c, h.service)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, newUserResponse(user))
}

func (h *SessionHandler) login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	user, err := h.service.Login(c.Request.Context(), req.UserID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, newUserResponse(user))
}

func (h *SessionHandler) logout(c *gin.Context) {
	if err := h.service.Logout(c.Request.Context()); err != nil {
		writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *SessionHandler) appState(c *gin.Context) {
	var req appStateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if req.Backgrounded != nil {
		h.service.SetBackgrounded(*req.Backgrounded)
	}
	if req.AlertsAllowed != nil {
		h.service.SetAlertsAllowed(*req.AlertsAllowed)
	}
	c.Status(http.StatusNoContent)
}
