package service

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"rideshare/internal/domain"
)

// NotificationType represents the type of notification.
type NotificationType string

const (
	NotificationRequestCreated   NotificationType = "REQUEST_CREATED"
	NotificationRequestAccepted  NotificationType = "REQUEST_ACCEPTED"
	NotificationRequestRejected  NotificationType = "REQUEST_REJECTED"
	NotificationRequestCancelled NotificationType = "REQUEST_CANCELLED"
	NotificationTripStarted      NotificationType = "TRIP_STARTED"
	NotificationTripCompleted    NotificationType = "TRIP_COMPLETED"
	NotificationTripCancelled    NotificationType = "TRIP_CANCELLED"
)

// Notification represents a notification to be sent.
type Notification struct {
	Type        NotificationType
	RecipientID string
	Title       string
	Message     string
	Data        map[string]any
	CreatedAt   time.Time
}

// Notifier delivers user-facing notifications about requests and trips.
type Notifier interface {
	NotifyRequestCreated(ctx context.Context, trip *domain.Trip, req *domain.ClientRequest) error
	NotifyRequestAccepted(ctx context.Context, req *domain.ClientRequest) error
	NotifyRequestRejected(ctx context.Context, req *domain.ClientRequest) error
	NotifyRequestCancelled(ctx context.Context, trip *domain.Trip, req *domain.ClientRequest) error
	NotifyTripStatus(ctx context.Context, trip *domain.Trip, clientIDs []string) error
}

// NotificationService delivers notifications to the log.
type NotificationService struct {
	log *zap.Logger
}

// NewNotificationService creates a new NotificationService.
func NewNotificationService(log *zap.Logger) *NotificationService {
	return &NotificationService{log: log.Named("notification")}
}

// NotifyRequestCreated tells the driver a client asked for seats.
func (s *NotificationService) NotifyRequestCreated(ctx context.Context, trip *domain.Trip, req *domain.ClientRequest) error {
	return s.send(ctx, Notification{
		Type:        NotificationRequestCreated,
		RecipientID: trip.DriverID,
		Title:       "New Seat Request",
		Message:     fmt.Sprintf("A passenger asked for %d seat(s) on your trip of %s", req.Seats, trip.Date.Format(domain.DateLayout)),
		Data: map[string]any{
			"trip_id":    trip.ID,
			"request_id": req.ID,
			"detour_km":  req.DetourKm,
		},
		CreatedAt: time.Now(),
	})
}

// NotifyRequestAccepted tells the client the driver accepted.
func (s *NotificationService) NotifyRequestAccepted(ctx context.Context, req *domain.ClientRequest) error {
	return s.send(ctx, Notification{
		Type:        NotificationRequestAccepted,
		RecipientID: req.ClientID,
		Title:       "Request Accepted",
		Message:     "The driver accepted your request",
		Data: map[string]any{
			"trip_id":    req.TripID,
			"request_id": req.ID,
		},
		CreatedAt: time.Now(),
	})
}

// NotifyRequestRejected tells the client the driver declined.
func (s *NotificationService) NotifyRequestRejected(ctx context.Context, req *domain.ClientRequest) error {
	return s.send(ctx, Notification{
		Type:        NotificationRequestRejected,
		RecipientID: req.ClientID,
		Title:       "Request Declined",
		Message:     "The driver declined your request",
		Data: map[string]any{
			"trip_id":    req.TripID,
			"request_id": req.ID,
		},
		CreatedAt: time.Now(),
	})
}

// NotifyRequestCancelled tells the driver a client withdrew.
func (s *NotificationService) NotifyRequestCancelled(ctx context.Context, trip *domain.Trip, req *domain.ClientRequest) error {
	return s.send(ctx, Notification{
		Type:        NotificationRequestCancelled,
		RecipientID: trip.DriverID,
		Title:       "Request Cancelled",
		Message:     fmt.Sprintf("A passenger cancelled %d seat(s)", req.Seats),
		Data: map[string]any{
			"trip_id":    trip.ID,
			"request_id": req.ID,
		},
		CreatedAt: time.Now(),
	})
}

// NotifyTripStatus tells every accepted client the trip changed status.
func (s *NotificationService) NotifyTripStatus(ctx context.Context, trip *domain.Trip, clientIDs []string) error {
	var notificationType NotificationType
	var title, message string

	switch trip.Status {
	case domain.TripStatusStarted:
		notificationType, title, message = NotificationTripStarted, "Trip Started", "Your driver is on the way"
	case domain.TripStatusCompleted:
		notificationType, title, message = NotificationTripCompleted, "Trip Completed", "You have arrived. Don't forget to rate your trip"
	case domain.TripStatusCancelled:
		notificationType, title, message = NotificationTripCancelled, "Trip Cancelled", "The driver cancelled the trip"
	default:
		return nil
	}

	for _, clientID := range clientIDs {
		if err := s.send(ctx, Notification{
			Type:        notificationType,
			RecipientID: clientID,
			Title:       title,
			Message:     message,
			Data:        map[string]any{"trip_id": trip.ID},
			CreatedAt:   time.Now(),
		}); err != nil {
			return err
		}
	}
	return nil
}

// send delivers a notification (log only).
func (s *NotificationService) send(_ context.Context, n Notification) error {
	s.log.Info("notification",
		zap.String("type", string(n.Type)),
		zap.String("recipient_id", n.RecipientID),
		zap.String("title", n.Title),
		zap.String("message", n.Message),
		zap.Any("data", n.Data),
	)
	return nil
}

// Ensure NotificationService implements Notifier.
var _ Notifier = (*NotificationService)(nil)
