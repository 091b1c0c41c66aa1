package api

import (
	"net/http"

	"github.com/Domenick1991/airjourney/internal/service/transports"
	"github.com/gin-gonic/gin"
)

type TransportHandler struct {
	service transports.TransportUseCase
}

type transportRequest struct {
	FlightCarrier string `json:"flight_carrier" binding:"required"`
	FlightNumber  string `json:"flight_number" binding:"required"`
}

func NewTransportHandler(service transports.TransportUseCase) *TransportHandler {
	return &TransportHandler{service: service}
}

func (h *TransportHandler) Register(router *gin.RouterGroup) {
	router.GET("", h.list)
	router.POST("", h.create)
	router.GET("/:id", h.get)
	router.PUT("/:id", h.update)
	router.DELETE("/:id", h.delete)
}

func (h *TransportHandler) list(c *gin.Context) {
	list, err := h.service.List(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

func (h *TransportHandler) get(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	transport, err := h.service.GetByID(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, transport)
}

func (h *TransportHandler) create(c *gin.Context) {
	var req transportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	transport, err := h.service.Create(c.Request.Context(), transports.TransportInput(req))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, transport)
}

func (h *TransportHandler) update(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	var req transportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	transport, err := h.service.Update(c.Request.Context(), id, transports.TransportInput(req))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, transport)
}

func (h *TransportHandler) delete(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	if err := h.service.Delete(c.Request.Context(), id); err != nil {
		writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
