// internal/api/handlers.go
package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"autoease/internal/catalog"
	"autoease/internal/common/errors"
	"autoease/internal/common/events"
	"autoease/internal/common/logger"
	"autoease/internal/models"
	"autoease/internal/oracle"
	"autoease/internal/session"

	"github.com/gin-gonic/gin"
)

const publishTimeout = 5 * time.Second

type selectionRequest struct {
	CarType string `json:"carType"`
	Service string `json:"service"`
}

type stationRequest struct {
	StationID string `json:"stationId" binding:"required"`
}

type slotRequest struct {
	TimeSlot string `json:"timeSlot" binding:"required"`
}

type recommendRequest struct {
	CarType          string `json:"carType" binding:"required"`
	IssueDescription string `json:"issueDescription" binding:"required"`
}

// SessionHandler serves the booking session endpoints.
type SessionHandler struct {
	store       *session.Store
	catalogs    *catalog.Holder
	recommender oracle.Recommender
	publisher   events.Publisher
	logger      logger.Logger
}

func NewSessionHandler(store *session.Store, catalogs *catalog.Holder, recommender oracle.Recommender, publisher events.Publisher, log logger.Logger) *SessionHandler {
	if publisher == nil {
		publisher = events.NoopPublisher{}
	}
	return &SessionHandler{
		store:       store,
		catalogs:    catalogs,
		recommender: recommender,
		publisher:   publisher,
		logger:      log.WithFields(map[string]interface{}{"component": "api"}),
	}
}

func (h *SessionHandler) CreateSession(c *gin.Context) {
	s := h.store.Create()
	c.JSON(http.StatusCreated, s.Snapshot())
}

func (h *SessionHandler) GetSession(c *gin.Context) {
	s, ok := h.lookup(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, s.Snapshot())
}

func (h *SessionHandler) DeleteSession(c *gin.Context) {
	h.store.Delete(c.Param("id"))
	c.Status(http.StatusNoContent)
}

func (h *SessionHandler) UpdateSelection(c *gin.Context) {
	s, ok := h.lookup(c)
	if !ok {
		return
	}
	var req selectionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, errors.NewInputValidationError(err.Error()))
		return
	}

	carType, service, err := parseSelection(req)
	if err != nil {
		respondError(c, err)
		return
	}
	s.Select(carType, service)
	c.JSON(http.StatusOK, s.Snapshot())
}

func (h *SessionHandler) RankStations(c *gin.Context) {
	s, ok := h.lookup(c)
	if !ok {
		return
	}
	if _, err := s.Rank(c.Request.Context()); err != nil {
		respondSessionError(c, err, s.Snapshot())
		return
	}
	c.JSON(http.StatusOK, s.Snapshot())
}

func (h *SessionHandler) ChooseStation(c *gin.Context) {
	s, ok := h.lookup(c)
	if !ok {
		return
	}
	var req stationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, errors.NewInputValidationError(err.Error()))
		return
	}
	if _, err := s.ChooseStation(c.Request.Context(), req.StationID); err != nil {
		respondSessionError(c, err, s.Snapshot())
		return
	}
	c.JSON(http.StatusOK, s.Snapshot())
}

func (h *SessionHandler) ChooseSlot(c *gin.Context) {
	s, ok := h.lookup(c)
	if !ok {
		return
	}
	var req slotRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, errors.NewInputValidationError(err.Error()))
		return
	}
	if err := s.ChooseSlot(models.TimeSlot(req.TimeSlot)); err != nil {
		respondSessionError(c, err, s.Snapshot())
		return
	}
	c.JSON(http.StatusOK, s.Snapshot())
}

func (h *SessionHandler) Confirm(c *gin.Context) {
	s, ok := h.lookup(c)
	if !ok {
		return
	}
	booking, err := s.Confirm()
	if err != nil {
		respondSessionError(c, err, s.Snapshot())
		return
	}

	published := true
	ctx, cancel := context.WithTimeout(c.Request.Context(), publishTimeout)
	defer cancel()
	if err := h.publisher.PublishBookingConfirmed(ctx, s.ID(), booking); err != nil {
		published = false
		h.logger.Warn("booking confirmed but event not published", map[string]interface{}{
			"sessionId": s.ID(),
			"bookingId": booking.ID,
			"error":     err.Error(),
		})
	}

	c.JSON(http.StatusCreated, gin.H{
		"booking":        booking,
		"summary":        booking.Summary(),
		"eventPublished": published,
		"session":        s.Snapshot(),
	})
}

func (h *SessionHandler) Reset(c *gin.Context) {
	s, ok := h.lookup(c)
	if !ok {
		return
	}
	s.Reset()
	c.JSON(http.StatusOK, s.Snapshot())
}

func (h *SessionHandler) ClearError(c *gin.Context) {
	s, ok := h.lookup(c)
	if !ok {
		return
	}
	s.ClearError()
	c.JSON(http.StatusOK, s.Snapshot())
}

func (h *SessionHandler) Recommend(c *gin.Context) {
	var req recommendRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, errors.NewInputValidationError(err.Error()))
		return
	}
	carType, ok := models.ParseCarType(req.CarType)
	if !ok {
		respondError(c, errors.NewInputValidationError(fmt.Sprintf("unknown car type %q", req.CarType)))
		return
	}

	services, err := h.recommender.Recommend(c.Request.Context(), carType, req.IssueDescription)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, oracle.RecommendResponse{RecommendedServices: models.ServiceStrings(services)})
}

// ListStations returns the whole catalog, or only eligible stations when
// both carType and service are given.
func (h *SessionHandler) ListStations(c *gin.Context) {
	cat := h.catalogs.Current()
	carTypeParam, serviceParam := c.Query("carType"), c.Query("service")
	if carTypeParam == "" && serviceParam == "" {
		c.JSON(http.StatusOK, gin.H{"stations": cat.Stations()})
		return
	}

	carType, service, err := parseSelection(selectionRequest{CarType: carTypeParam, Service: serviceParam})
	if err != nil {
		respondError(c, err)
		return
	}
	if !carType.Valid() || !service.Valid() {
		respondError(c, errors.NewInvalidSelectionError("carType and service must be given together"))
		return
	}
	c.JSON(http.StatusOK, gin.H{"stations": cat.Eligible(carType, service)})
}

func (h *SessionHandler) lookup(c *gin.Context) (*session.Session, bool) {
	s, err := h.store.Get(c.Param("id"))
	if err != nil {
		respondError(c, err)
		return nil, false
	}
	return s, true
}

// parseSelection accepts empty values, which clear the field, but rejects
// names outside the fixed enums.
func parseSelection(req selectionRequest) (models.CarType, models.Service, error) {
	var carType models.CarType
	if req.CarType != "" {
		ct, ok := models.ParseCarType(req.CarType)
		if !ok {
			return "", "", errors.NewInputValidationError(fmt.Sprintf("unknown car type %q", req.CarType))
		}
		carType = ct
	}
	var service models.Service
	if req.Service != "" {
		svc, ok := models.ParseService(req.Service)
		if !ok {
			return "", "", errors.NewInputValidationError(fmt.Sprintf("unknown service %q", req.Service))
		}
		service = svc
	}
	return carType, service, nil
}
