package planner

// Geolocation error codes as reported by browsers.
const (
	GeoPermissionDenied    = 1
	GeoPositionUnavailable = 2
	GeoTimeout             = 3
)

// GeolocationMessage maps a device geolocation error code to user-facing text.
func GeolocationMessage(code int) string {
	switch code {
	case GeoPermissionDenied:
		return "Location access was denied"
	case GeoPositionUnavailable:
		return "Location information is unavailable"
	case GeoTimeout:
		return "Location request timed out"
	default:
		return "An unknown error occurred while getting your location"
	}
}
