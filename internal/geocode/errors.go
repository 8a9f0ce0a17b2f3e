package geocode

import "errors"

var (
	// ErrNotFound is returned when no address is known for a point.
	ErrNotFound = errors.New("geocode: address not found")

	// ErrUnexpectedStatus is returned for any other non-200 response.
	ErrUnexpectedStatus = errors.New("geocode: unexpected response status")

	// ErrInvalidResponse is returned when the response body cannot be decoded.
	ErrInvalidResponse = errors.New("geocode: invalid response")

	// ErrDisabled is returned when reverse geocoding is switched off.
	ErrDisabled = errors.New("geocode: disabled")
)
