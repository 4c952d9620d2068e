package session

import "strings"

// MaxSessionDays returns the expected sensor session length in days for a
// source device id, and false when the device is unknown.
func MaxSessionDays(deviceID string) (float64, bool) {
	id := strings.ToUpper(deviceID)
	switch {
	case strings.Contains(id, "G7"):
		return 10.5, true
	case strings.Contains(id, "G6"):
		return 10, true
	}
	return 0, false
}
