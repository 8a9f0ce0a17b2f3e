package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"rideshare/internal/domain"
	"rideshare/internal/geo"
	"rideshare/internal/middleware"
	"rideshare/internal/service"
)

const (
	defaultDriverRadiusKm = 5.0

	wsWriteWait  = 10 * time.Second
	wsPongWait   = 60 * time.Second
	wsPingPeriod = (wsPongWait * 9) / 10
	wsMaxMessage = 1024
)

// Websocket frame and action names.
const (
	frameLocation  = "location"
	frameFollowing = "following"
	frameIdle      = "idle"
	frameError     = "error"

	actionFollow   = "follow"
	actionUnfollow = "unfollow"
)

// TrackingHandler handles live driver locations over REST and websocket.
type TrackingHandler struct {
	trackingService *service.TrackingService
	upgrader        websocket.Upgrader
	log             *zap.Logger
}

// NewTrackingHandler creates a new TrackingHandler.
func NewTrackingHandler(trackingService *service.TrackingService, log *zap.Logger) *TrackingHandler {
	return &TrackingHandler{
		trackingService: trackingService,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(*http.Request) bool { return true },
		},
		log: log.Named("tracking_ws"),
	}
}

// UpdateLocationRequest is the HTTP request body for a position report.
type UpdateLocationRequest struct {
	Lat      float64 `json:"lat"`
	Lng      float64 `json:"lng"`
	Heading  float64 `json:"heading,omitempty"`
	SpeedKmh float64 `json:"speed_kmh,omitempty"`
}

// LocationResponse is a driver's position.
type LocationResponse struct {
	Type       string   `json:"type,omitempty"`
	DriverID   string   `json:"driver_id"`
	Lat        float64  `json:"lat"`
	Lng        float64  `json:"lng"`
	Heading    float64  `json:"heading"`
	SpeedKmh   float64  `json:"speed_kmh"`
	DistanceKm *float64 `json:"distance_km,omitempty"`
	UpdatedAt  string   `json:"updated_at,omitempty"`
}

// trackingCommand is a client message on the websocket.
type trackingCommand struct {
	Action   string `json:"action"`
	DriverID string `json:"driver_id,omitempty"`
}

// trackingFrame is a server control message on the websocket.
type trackingFrame struct {
	Type     string `json:"type"`
	DriverID string `json:"driver_id,omitempty"`
	Error    string `json:"error,omitempty"`
}

func toLocationResponse(loc *domain.DriverLocation) LocationResponse {
	return LocationResponse{
		DriverID:  loc.DriverID,
		Lat:       loc.Point.Lat,
		Lng:       loc.Point.Lng,
		Heading:   loc.Heading,
		SpeedKmh:  loc.SpeedKmh,
		UpdatedAt: formatTime(loc.UpdatedAt),
	}
}

// UpdateLocation handles POST /v1/drivers/:id/location
func (h *TrackingHandler) UpdateLocation(c *gin.Context) {
	var req UpdateLocationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "invalid request body")
		return
	}

	loc, err := h.trackingService.UpdateLocation(c.Request.Context(), service.UpdateLocationRequest{
		DriverID: c.Param("id"),
		CallerID: middleware.UserID(c),
		Point:    geo.Point{Lat: req.Lat, Lng: req.Lng},
		Heading:  req.Heading,
		SpeedKmh: req.SpeedKmh,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, toLocationResponse(loc))
}

// GetLocation handles GET /v1/drivers/:id/location
func (h *TrackingHandler) GetLocation(c *gin.Context) {
	loc, err := h.trackingService.GetLocation(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, toLocationResponse(loc))
}

// Nearby handles GET /v1/drivers/nearby?lat=&lng=&radius_km=&limit=
func (h *TrackingHandler) Nearby(c *gin.Context) {
	p, ok := queryPoint(c)
	if !ok {
		respondBadRequest(c, "lat and lng are required")
		return
	}
	radius, ok := queryFloat(c, "radius_km", defaultDriverRadiusKm)
	if !ok {
		respondBadRequest(c, "invalid radius_km")
		return
	}
	limit, ok := queryInt(c, "limit", 0)
	if !ok {
		respondBadRequest(c, "invalid limit")
		return
	}

	drivers, err := h.trackingService.NearbyDrivers(c.Request.Context(), p, radius, limit)
	if err != nil {
		respondError(c, err)
		return
	}

	response := make([]LocationResponse, 0, len(drivers))
	for _, d := range drivers {
		dist := d.DistanceKm
		response = append(response, LocationResponse{
			DriverID:   d.DriverID,
			Lat:        d.Point.Lat,
			Lng:        d.Point.Lng,
			DistanceKm: &dist,
		})
	}

	respondJSON(c, http.StatusOK, response)
}

// Stream handles GET /v1/tracking/ws. Each connection follows at most one
// driver; a new follow command replaces the previous one.
func (h *TrackingHandler) Stream(c *gin.Context) {
	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.log.Debug("websocket upgrade failed", zap.Error(err))
		return
	}
	defer conn.Close()

	ctx, cancel := context.WithCancel(c.Request.Context())
	defer cancel()

	tracker := h.trackingService.NewTracker()
	defer tracker.Close()

	control := make(chan trackingFrame, 4)
	go h.readCommands(ctx, cancel, conn, tracker, control)

	ping := time.NewTicker(wsPingPeriod)
	defer ping.Stop()

	for {
		select {
		case <-ctx.Done():
			return

		case frame := <-control:
			if err := h.write(conn, frame); err != nil {
				return
			}

		case loc, ok := <-tracker.Updates():
			if !ok {
				return
			}
			frame := toLocationResponse(&loc)
			frame.Type = frameLocation
			if err := h.write(conn, frame); err != nil {
				return
			}

		case <-ping.C:
			_ = conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// readCommands applies client commands to the tracker until the connection
// drops, then cancels ctx.
func (h *TrackingHandler) readCommands(
	ctx context.Context,
	cancel context.CancelFunc,
	conn *websocket.Conn,
	tracker *service.Tracker,
	control chan<- trackingFrame,
) {
	defer cancel()

	conn.SetReadLimit(wsMaxMessage)
	_ = conn.SetReadDeadline(time.Now().Add(wsPongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(wsPongWait))
	})

	for {
		var cmd trackingCommand
		if err := conn.ReadJSON(&cmd); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				h.log.Debug("websocket read failed", zap.Error(err))
			}
			return
		}

		var reply trackingFrame
		switch cmd.Action {
		case actionFollow:
			if err := tracker.Follow(ctx, cmd.DriverID); err != nil {
				reply = trackingFrame{Type: frameError, DriverID: cmd.DriverID, Error: err.Error()}
			} else {
				reply = trackingFrame{Type: frameFollowing, DriverID: cmd.DriverID}
			}
		case actionUnfollow:
			tracker.Unfollow()
			reply = trackingFrame{Type: frameIdle}
		default:
			reply = trackingFrame{Type: frameError, Error: "unknown action"}
		}

		select {
		case control <- reply:
		case <-ctx.Done():
			return
		}
	}
}

func (h *TrackingHandler) write(conn *websocket.Conn, v any) error {
	_ = conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
	return conn.WriteJSON(v)
}
