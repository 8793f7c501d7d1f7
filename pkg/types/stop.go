package types

import "time"

// Station identifies one train station along the route. EVA numbers are the
// unique station identifiers used by the upstream data.
type Station struct {
	EvaNr          string      `json:"evaNr"`
	Name           string      `json:"name"`
	Geocoordinates Coordinates `json:"geocoordinates"`
}

// Coordinates is a GPS position of a station.
type Coordinates struct {
	Latitude  float32 `json:"latitude"`
	Longitude float32 `json:"longitude"`
}

// Timetable holds the scheduled and actual times at one stop, as epoch
// milliseconds. Arrival fields are absent for the first stop of a route and
// departure fields for the last, hence the pointers.
type Timetable struct {
	ScheduledArrivalTime   *int64 `json:"scheduledArrivalTime"`
	ActualArrivalTime      *int64 `json:"actualArrivalTime"`
	ArrivalDelay           string `json:"arrivalDelay"`
	ScheduledDepartureTime *int64 `json:"scheduledDepartureTime"`
	ActualDepartureTime    *int64 `json:"actualDepartureTime"`
	DepartureDelay         string `json:"departureDelay"`
}

// ScheduledArrival returns the scheduled arrival in local time, or false when
// the stop has no arrival (the origin of the route).
func (t *Timetable) ScheduledArrival() (time.Time, bool) {
	return msToLocal(t.ScheduledArrivalTime)
}

// ActualArrival returns the live arrival in local time, or false when absent.
func (t *Timetable) ActualArrival() (time.Time, bool) {
	return msToLocal(t.ActualArrivalTime)
}

// ScheduledDeparture returns the scheduled departure in local time, or false
// when the stop has no departure (the destination of the route).
func (t *Timetable) ScheduledDeparture() (time.Time, bool) {
	return msToLocal(t.ScheduledDepartureTime)
}

// ActualDeparture returns the live departure in local time, or false when absent.
func (t *Timetable) ActualDeparture() (time.Time, bool) {
	return msToLocal(t.ActualDepartureTime)
}

// ArrivalDelayDuration parses the arrival delay string into a signed duration.
func (t *Timetable) ArrivalDelayDuration() (time.Duration, error) {
	return ParseDelay(t.ArrivalDelay)
}

// DepartureDelayDuration parses the departure delay string into a signed duration.
func (t *Timetable) DepartureDelayDuration() (time.Duration, error) {
	return ParseDelay(t.DepartureDelay)
}

func msToLocal(ms *int64) (time.Time, bool) {
	if ms == nil {
		return time.Time{}, false
	}
	return time.Unix(*ms/1000, (*ms%1000)*1_000_000), true
}

// Track is the platform assignment at a station.
type Track struct {
	Scheduled string `json:"scheduled"`
	Actual    string `json:"actual"`
}

// StopDetails carries per-stop progress data. Status is an undocumented
// upstream code and is passed through untouched.
type StopDetails struct {
	Status            int32 `json:"status"`
	Passed            bool  `json:"passed"`
	Distance          int64 `json:"distance"`          // meters from the previous stop
	DistanceFromStart int64 `json:"distanceFromStart"` // meters from the origin
}

// DistanceToPreviousStop returns the distance from the previous stop in kilometers.
func (d *StopDetails) DistanceToPreviousStop() float64 {
	return DistanceToKm(d.Distance)
}

// DistanceToOrigin returns the distance from the origin of the route in kilometers.
func (d *StopDetails) DistanceToOrigin() float64 {
	return DistanceToKm(d.DistanceFromStart)
}

// DelayReason is one coded explanation for a delay at a stop.
type DelayReason struct {
	Code string `json:"code"`
	Text string `json:"text"`
}

// Stop is one station visit along the trip.
type Stop struct {
	Station      Station       `json:"station"`
	Timetable    Timetable     `json:"timetable"`
	Track        Track         `json:"track"`
	Info         StopDetails   `json:"info"`
	DelayReasons []DelayReason `json:"delayReasons"` // nil when no delay or reason is known
}
