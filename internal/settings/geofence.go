package settings

import (
	"errors"
	"strconv"
)

// ErrGeofenceIncomplete means geofencing is switched on but the coordinate or
// radius settings are missing or malformed. That is an admin problem, not a
// submitter problem, and callers surface it as such.
var ErrGeofenceIncomplete = errors.New("geofence settings incomplete")

// Geofence is the typed view of the four geolocation settings, validated in
// one place instead of ad hoc missing-key checks inside the workflow.
type Geofence struct {
	Enabled      bool
	Latitude     float64
	Longitude    float64
	RadiusMeters float64
}

// GeofenceFrom parses the geofence configuration out of a raw settings map.
// When geofencing is disabled the remaining keys are not required.
func GeofenceFrom(values map[string]string) (Geofence, error) {
	if values[KeyEnabled] != "true" {
		return Geofence{}, nil
	}

	lat, ok := parseFloat(values, KeyLatitude)
	if !ok {
		return Geofence{}, ErrGeofenceIncomplete
	}
	lon, ok := parseFloat(values, KeyLongitude)
	if !ok {
		return Geofence{}, ErrGeofenceIncomplete
	}
	radius, ok := parseFloat(values, KeyRadius)
	if !ok || radius <= 0 {
		return Geofence{}, ErrGeofenceIncomplete
	}

	return Geofence{Enabled: true, Latitude: lat, Longitude: lon, RadiusMeters: radius}, nil
}

func parseFloat(values map[string]string, key string) (float64, bool) {
	raw, present := values[key]
	if !present || raw == "" {
		return 0, false
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, false
	}
	return f, true
}
