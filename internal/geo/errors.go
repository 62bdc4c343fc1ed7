package geo

import "errors"

var (
	// ErrInvalidCoordinates is returned for out-of-range or NaN coordinates.
	ErrInvalidCoordinates = errors.New("invalid coordinates")

	// ErrGeolocationDenied means the location lookup is not permitted.
	ErrGeolocationDenied = errors.New("geolocation permission denied")
	// ErrGeolocationUnavailable means no position could be determined.
	ErrGeolocationUnavailable = errors.New("geolocation unavailable")
	// ErrGeolocationTimeout means the lookup did not finish in time.
	ErrGeolocationTimeout = errors.New("geolocation timed out")
	// ErrGeolocationUnsupported means the request carries nothing to locate.
	ErrGeolocationUnsupported = errors.New("geolocation not supported")
)
