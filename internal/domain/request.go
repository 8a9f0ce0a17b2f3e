package domain

import (
	"time"

	"rideshare/internal/geo"
)

// RequestStatus represents the state of a client's seat request.
type RequestStatus string

const (
	RequestStatusPending   RequestStatus = "PENDING"
	RequestStatusAccepted  RequestStatus = "ACCEPTED"
	RequestStatusRejected  RequestStatus = "REJECTED"
	RequestStatusCancelled RequestStatus = "CANCELLED"
)

// Open reports whether the request still holds or waits for seats.
func (s RequestStatus) Open() bool {
	return s == RequestStatusPending || s == RequestStatusAccepted
}

// ClientRequest is a passenger asking to join a trip.
type ClientRequest struct {
	ID           string
	TripID       string
	ClientID     string
	Pickup       geo.Point
	Dropoff      geo.Point
	PickupLabel  string
	DropoffLabel string
	Seats        int
	Status       RequestStatus
	DetourKm     float64
	Price        float64
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
