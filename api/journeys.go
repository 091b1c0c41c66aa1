package api

import (
	"net/http"

	"github.com/Domenick1991/airjourney/internal/service/journeys"
	"github.com/gin-gonic/gin"
)

type JourneyHandler struct {
	service journeys.JourneyUseCase
}

type calculateJourneyRequest struct {
	Origin      string `form:"origin" binding:"required"`
	Destination string `form:"destination" binding:"required"`
}

func NewJourneyHandler(service journeys.JourneyUseCase) *JourneyHandler {
	return &JourneyHandler{service: service}
}

func (h *JourneyHandler) Register(router *gin.RouterGroup) {
	router.GET("/calculate", h.calculate)
	router.GET("", h.list)
	router.GET("/:id", h.get)
	router.DELETE("/:id", h.delete)
}

func (h *JourneyHandler) calculate(c *gin.Context) {
	var req calculateJourneyRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	journey, err := h.service.ResolveJourney(c.Request.Context(), req.Origin, req.Destination)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, journey)
}

func (h *JourneyHandler) list(c *gin.Context) {
	list, err := h.service.ListJourneys(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

func (h *JourneyHandler) get(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	journey, err := h.service.GetJourney(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, journey)
}

func (h *JourneyHandler) delete(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	if err := h.service.DeleteJourney(c.Request.Context(), id); err != nil {
		writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
