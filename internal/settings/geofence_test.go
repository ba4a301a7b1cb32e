package settings

import (
	"errors"
	"testing"
)

func TestGeofenceFrom(t *testing.T) {
	complete := map[string]string{
		KeyEnabled:   "true",
		KeyLatitude:  "9.5916",
		KeyLongitude: "76.5222",
		KeyRadius:    "200",
	}

	tests := []struct {
		name    string
		values  map[string]string
		want    Geofence
		wantErr bool
	}{
		{
			name:   "complete and enabled",
			values: complete,
			want:   Geofence{Enabled: true, Latitude: 9.5916, Longitude: 76.5222, RadiusMeters: 200},
		},
		{
			name:   "disabled ignores other keys",
			values: map[string]string{KeyEnabled: "false", KeyLatitude: "not a number"},
			want:   Geofence{},
		},
		{
			name:   "empty map means disabled",
			values: map[string]string{},
			want:   Geofence{},
		},
		{
			name: "enabled with missing latitude",
			values: map[string]string{
				KeyEnabled:   "true",
				KeyLongitude: "76.5222",
				KeyRadius:    "200",
			},
			wantErr: true,
		},
		{
			name: "enabled with malformed longitude",
			values: map[string]string{
				KeyEnabled:   "true",
				KeyLatitude:  "9.5916",
				KeyLongitude: "east",
				KeyRadius:    "200",
			},
			wantErr: true,
		},
		{
			name: "enabled with zero radius",
			values: map[string]string{
				KeyEnabled:   "true",
				KeyLatitude:  "9.5916",
				KeyLongitude: "76.5222",
				KeyRadius:    "0",
			},
			wantErr: true,
		},
		{
			name: "enabled with empty radius",
			values: map[string]string{
				KeyEnabled:   "true",
				KeyLatitude:  "9.5916",
				KeyLongitude: "76.5222",
				KeyRadius:    "",
			},
			wantErr: true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := GeofenceFrom(tt.values)
			if tt.wantErr {
				if !errors.Is(err, ErrGeofenceIncomplete) {
					t.Fatalf("err = %v, want ErrGeofenceIncomplete", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("GeofenceFrom: %v", err)
			}
			if got != tt.want {
				t.Errorf("GeofenceFrom() = %+v, want %+v", got, tt.want)
			}
		})
	}
}
