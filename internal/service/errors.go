package service

import "errors"

var (
	// ErrInvalidUserID is returned when a caller or owner ID is empty.
	ErrInvalidUserID = errors.New("invalid user id")

	// ErrInvalidName is returned when a user name is empty.
	ErrInvalidName = errors.New("name is required")

	// ErrInvalidPhone is returned when a phone number is empty.
	ErrInvalidPhone = errors.New("phone is required")

	// ErrInvalidRole is returned for an unknown user role.
	ErrInvalidRole = errors.New("invalid role")

	// ErrPhoneTaken is returned when a phone number is already registered.
	ErrPhoneTaken = errors.New("phone already registered")

	// ErrInvalidLocation is returned when coordinates are out of range.
	ErrInvalidLocation = errors.New("invalid location coordinates")

	// ErrSamePoints is returned when a start/end or pickup/dropoff pair coincides.
	ErrSamePoints = errors.New("start and end must differ")

	// ErrInvalidRouteKind is returned for an unknown route kind.
	ErrInvalidRouteKind = errors.New("invalid route kind")

	// ErrNoDaysSelected is returned when a route has no weekday.
	ErrNoDaysSelected = errors.New("at least one day must be selected")

	// ErrInvalidDay is returned for a weekday outside Sunday..Saturday.
	ErrInvalidDay = errors.New("invalid day of week")

	// ErrInvalidDepartureTime is returned when a departure time is not HH:MM.
	ErrInvalidDepartureTime = errors.New("departure time must be HH:MM")

	// ErrInvalidPrice is returned when a price is not positive where required.
	ErrInvalidPrice = errors.New("price must be greater than 0")

	// ErrInvalidSeats is returned when a seat count is below one.
	ErrInvalidSeats = errors.New("seats must be at least 1")

	// ErrInvalidDate is returned when a date cannot be parsed.
	ErrInvalidDate = errors.New("date must be YYYY-MM-DD")

	// ErrInvalidRadius is returned when a search radius is not positive.
	ErrInvalidRadius = errors.New("radius must be greater than 0")

	// ErrForbidden is returned when the caller does not own the resource.
	ErrForbidden = errors.New("operation not allowed for this user")

	// ErrRouteInactive is returned when scheduling a trip on a deactivated route.
	ErrRouteInactive = errors.New("route is inactive")

	// ErrNotDriverRoute is returned when scheduling a trip on a client route.
	ErrNotDriverRoute = errors.New("only driver routes can be scheduled")

	// ErrDayNotScheduled is returned when the date's weekday is not a route day.
	ErrDayNotScheduled = errors.New("route does not run on that day")

	// ErrTripExists is returned when the route already has a trip that day.
	ErrTripExists = errors.New("trip already scheduled for that date")

	// ErrInvalidTripTransition is returned for a disallowed status change.
	ErrInvalidTripTransition = errors.New("invalid trip status transition")

	// ErrTripNotScheduled is returned when requesting seats on a trip that left.
	ErrTripNotScheduled = errors.New("trip is not open for requests")

	// ErrOwnTrip is returned when a driver requests a seat on their own trip.
	ErrOwnTrip = errors.New("cannot request a seat on your own trip")

	// ErrNotEnoughSeats is returned when a trip has fewer free seats than asked.
	ErrNotEnoughSeats = errors.New("not enough seats available")

	// ErrDuplicateRequest is returned when the client already has an open request.
	ErrDuplicateRequest = errors.New("an open request already exists for this trip")

	// ErrTripBusy is returned when another seat change holds the trip lock.
	ErrTripBusy = errors.New("trip is being updated, try again")

	// ErrRequestNotPending is returned when accepting or rejecting a handled request.
	ErrRequestNotPending = errors.New("request is not pending")

	// ErrRequestNotOpen is returned when cancelling a closed request.
	ErrRequestNotOpen = errors.New("request can no longer be cancelled")

	// ErrPlaceLabelTaken is returned when a user reuses a place label.
	ErrPlaceLabelTaken = errors.New("place label already used")

	// ErrTripNotCompleted is returned when rating before the trip ended.
	ErrTripNotCompleted = errors.New("trip is not completed")

	// ErrNotParticipant is returned when rater or ratee did not ride the trip.
	ErrNotParticipant = errors.New("user did not take part in the trip")

	// ErrSelfRating is returned when a user rates themselves.
	ErrSelfRating = errors.New("cannot rate yourself")

	// ErrInvalidScore is returned when a score is outside 1..5.
	ErrInvalidScore = errors.New("score must be between 1 and 5")

	// ErrAlreadyRated is returned for a second rating of the same person on a trip.
	ErrAlreadyRated = errors.New("already rated for this trip")
)
