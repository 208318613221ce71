package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/nelonissle/kubernetes-bookingsystem/internal/domain"
	"github.com/nelonissle/kubernetes-bookingsystem/internal/seatclient"
	"github.com/nelonissle/kubernetes-bookingsystem/internal/service/flights"
)

type FlightHandler struct {
	service flights.FlightUseCase
}

func NewFlightHandler(service flights.FlightUseCase) *FlightHandler {
	return &FlightHandler{service: service}
}

// Register mounts the ledger routes. admin guards flight creation.
func (h *FlightHandler) Register(router *gin.RouterGroup, admin ...gin.HandlerFunc) {
	router.GET("", h.list)
	router.GET("/:flightReference", h.get)
	router.PUT("/updateSeats/:flightReference", h.updateSeats)
	router.POST("/create", append(admin, h.create)...)
}

func (h *FlightHandler) list(c *gin.Context) {
	list, err := h.service.List(c.Request.Context())
	if err != nil {
		abortWithError(c, err)
		return
	}
	if list == nil {
		list = []domain.Flight{}
	}
	c.JSON(http.StatusOK, list)
}

func (h *FlightHandler) get(c *gin.Context) {
	flight, err := h.service.GetByFlightReference(c.Request.Context(), c.Param("flightReference"))
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, flight)
}

// updateSeats takes the ticket count as a bare JSON integer.
func (h *FlightHandler) updateSeats(c *gin.Context) {
	var count int
	if err := c.ShouldBindJSON(&count); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "body must be a JSON integer ticket count"})
		return
	}

	flight, err := h.service.DecrementSeats(c.Request.Context(), c.Param("flightReference"), count, c.GetHeader(seatclient.IdempotencyKeyHeader))
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, flight)
}

func (h *FlightHandler) create(c *gin.Context) {
	var req domain.Flight
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	flight, err := h.service.CreateFlight(c.Request.Context(), req)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, flight)
}
