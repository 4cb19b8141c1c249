package http

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/nandanugg/station-gate/module/core/domain"
)

type accessService interface {
	Check(ctx context.Context, deviceID string, pos domain.Position) (*domain.Evaluation, error)
	Grants(ctx context.Context, deviceID string) ([]domain.GrantStatus, error)
	Waypoints() []domain.Waypoint
}

type positionRequest struct {
	Latitude  *float64 `json:"latitude"`
	Longitude *float64 `json:"longitude"`
	Accuracy  float64  `json:"accuracy"`
}

type decisionResponse struct {
	WaypointID   string  `json:"waypoint_id"`
	DistanceKm   float64 `json:"distance_km"`
	WithinRadius bool    `json:"within_radius"`
	CanAccess    bool    `json:"can_access"`
	Reason       string  `json:"reason"`
	ElapsedMs    *int64  `json:"elapsed_ms,omitempty"`
	RemainingMs  *int64  `json:"remaining_ms,omitempty"`
	TimeInfo     string  `json:"time_info"`
}

type accessResponse struct {
	DeviceID   string                      `json:"device_id"`
	Accessible bool                        `json:"accessible"`
	Nearest    domain.Nearest              `json:"nearest"`
	Message    string                      `json:"message"`
	Decisions  map[string]decisionResponse `json:"decisions"`
	Timestamp  int64                       `json:"timestamp"`
}

type grantResponse struct {
	WaypointID  string `json:"waypoint_id"`
	GrantedAt   int64  `json:"granted_at"`
	Active      bool   `json:"active"`
	ElapsedMs   int64  `json:"elapsed_ms"`
	RemainingMs int64  `json:"remaining_ms"`
}

type AccessHandler struct {
	accessSvc accessService
}

func NewAccessHandler(accessSvc accessService) *AccessHandler {
	return &AccessHandler{accessSvc: accessSvc}
}

func (h *AccessHandler) Register(r *gin.RouterGroup) {
	r.GET("/waypoints", h.GetWaypoints)
	r.POST("/devices/:device_id/access", h.CheckAccess)
	r.GET("/devices/:device_id/grants", h.GetGrants)
}

func (h *AccessHandler) GetWaypoints(c *gin.Context) {
	c.JSON(http.StatusOK, h.accessSvc.Waypoints())
}

func (h *AccessHandler) CheckAccess(c *gin.Context) {
	deviceID := c.Param("device_id")

	var req positionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	if req.Latitude == nil || req.Longitude == nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "latitude and longitude are required"})
		return
	}
	if req.Accuracy < 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "accuracy: must not be negative"})
		return
	}

	pos := domain.Position{Lat: *req.Latitude, Lon: *req.Longitude, Accuracy: req.Accuracy}
	eval, err := h.accessSvc.Check(c.Request.Context(), deviceID, pos)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidPosition) || errors.Is(err, domain.ErrInvalidConfig) || errors.Is(err, domain.ErrNoWaypoints) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		zap.L().Error("access check failed", zap.String("device_id", deviceID), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to evaluate access"})
		return
	}

	c.JSON(http.StatusOK, toAccessResponse(deviceID, eval))
}

func (h *AccessHandler) GetGrants(c *gin.Context) {
	deviceID := c.Param("device_id")

	grants, err := h.accessSvc.Grants(c.Request.Context(), deviceID)
	if err != nil {
		zap.L().Error("list grants failed", zap.String("device_id", deviceID), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to fetch grants"})
		return
	}

	results := make([]grantResponse, len(grants))
	for i, g := range grants {
		results[i] = grantResponse{
			WaypointID:  g.WaypointID,
			GrantedAt:   g.GrantedAt.UnixMilli(),
			Active:      g.Active,
			ElapsedMs:   g.Elapsed.Milliseconds(),
			RemainingMs: g.Remaining.Milliseconds(),
		}
	}
	c.JSON(http.StatusOK, results)
}

func toAccessResponse(deviceID string, eval *domain.Evaluation) accessResponse {
	decisions := make(map[string]decisionResponse, len(eval.Decisions))
	for _, d := range eval.Decisions {
		decisions[d.WaypointID] = decisionResponse{
			WaypointID:   d.WaypointID,
			DistanceKm:   d.DistanceKm,
			WithinRadius: d.WithinRadius,
			CanAccess:    d.CanAccess,
			Reason:       string(d.Reason),
			ElapsedMs:    millis(d.Elapsed),
			RemainingMs:  millis(d.Remaining),
			TimeInfo:     d.TimeInfo,
		}
	}
	return accessResponse{
		DeviceID:   deviceID,
		Accessible: eval.Aggregate.Accessible,
		Nearest:    eval.Aggregate.Nearest,
		Message:    eval.Aggregate.Message,
		Decisions:  decisions,
		Timestamp:  eval.EvaluatedAt.Unix(),
	}
}

func millis(d *time.Duration) *int64 {
	if d == nil {
		return nil
	}
	ms := d.Milliseconds()
	return &ms
}
