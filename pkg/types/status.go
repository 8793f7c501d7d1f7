package types

import (
	"fmt"
	"time"
)

// Status is a snapshot of the train's instantaneous state as reported by the
// onboard portal. Field names mirror the wire keys of the status document.
type Status struct {
	Speed      float32 `json:"speed"`
	Latitude   float32 `json:"latitude"`
	Longitude  float32 `json:"longitude"`
	ServerTime int64   `json:"serverTime"` // Unix epoch milliseconds
}

// Coordinates returns the GPS position of the train.
func (s *Status) Coordinates() (lat, lon float32) {
	return s.Latitude, s.Longitude
}

// LocalTime converts the server timestamp (epoch milliseconds) into a
// local-zone time. Seconds truncate toward zero, the millisecond remainder
// becomes nanoseconds.
func (s *Status) LocalTime() time.Time {
	return time.Unix(s.ServerTime/1000, (s.ServerTime%1000)*1_000_000)
}

// timeLayout matches the portal display convention (yyyy-mm-dd hh:mm:ss).
const timeLayout = "2006-01-02 15:04:05"

// String renders the status for display. If the server timestamp cannot be
// rendered in the fixed-width layout (local calendar year outside 1-9999),
// the time suffix is omitted rather than producing a garbled line.
func (s *Status) String() string {
	t := s.LocalTime()
	if year := t.Year(); year < 1 || year > 9999 {
		return fmt.Sprintf("Speed: %5.1f km/h; Lat/Long: %7.4f,%8.4f",
			s.Speed, s.Latitude, s.Longitude)
	}
	return fmt.Sprintf("Speed: %5.1f km/h; Lat/Long: %7.4f,%8.4f; Time: %s",
		s.Speed, s.Latitude, s.Longitude, t.Format(timeLayout))
}
