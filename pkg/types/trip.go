package types

import "fmt"

// Vicinity references the stops immediately around the train's current
// position. The EVA numbers in here are not guaranteed to resolve against the
// trip's stop sequence.
type Vicinity struct {
	ScheduledNext     string `json:"scheduledNext"`
	ActualNext        string `json:"actualNext"`
	ActualLast        string `json:"actualLast"`
	ActualLastStarted string `json:"actualLastStarted"`
	FinalStationEvaNr string `json:"finalStationEvaNr"`
	FinalStationName  string `json:"finalStationName"`
}

// Trip is one scheduled journey of a train: its identity, live progress along
// the route and the ordered stop sequence from origin to destination.
//
// A Trip is immutable once decoded and safe to query from multiple goroutines.
type Trip struct {
	TripDate             string   `json:"tripDate"` // yyyy-mm-dd
	TrainType            string   `json:"trainType"`
	Vzn                  string   `json:"vzn"` // train number
	ActualPosition       int64    `json:"actualPosition"`
	DistanceFromLastStop int64    `json:"distanceFromLastStop"` // meters
	TotalDistance        int64    `json:"totalDistance"`        // meters
	StopInfo             Vicinity `json:"stopInfo"`
	Stops                []Stop   `json:"stops"` // route order
}

// DistanceToKm converts an integral distance in meters to kilometers.
func DistanceToKm(meters int64) float64 {
	return float64(meters) / 1000.0
}

// GetStop returns the first stop whose station matches the given EVA number,
// or nil when no stop matches. Routes are tens of stops at most, so a linear
// scan is fine.
func (t *Trip) GetStop(evaNr string) *Stop {
	for i := range t.Stops {
		if t.Stops[i].Station.EvaNr == evaNr {
			return &t.Stops[i]
		}
	}
	return nil
}

// NextStop returns the next stop in the trajectory, or nil when the vicinity
// reference does not resolve.
func (t *Trip) NextStop() *Stop {
	return t.GetStop(t.StopInfo.ActualNext)
}

// PreviousStop returns the last stop the train departed from, or nil when the
// vicinity reference does not resolve.
func (t *Trip) PreviousStop() *Stop {
	return t.GetStop(t.StopInfo.ActualLast)
}

// Origin returns the first stop of the route, or nil for an empty stop sequence.
func (t *Trip) Origin() *Stop {
	if len(t.Stops) == 0 {
		return nil
	}
	return &t.Stops[0]
}

// Destination returns the final station of the route, or nil when the
// reference does not resolve.
func (t *Trip) Destination() *Stop {
	return t.GetStop(t.StopInfo.FinalStationEvaNr)
}

// DistanceToPreviousStop returns the live distance travelled since the last
// stop, in kilometers.
func (t *Trip) DistanceToPreviousStop() float64 {
	return DistanceToKm(t.DistanceFromLastStop)
}

// DistanceToNextStop returns the remaining distance to the next stop in
// kilometers. The second return is false when no next stop resolves.
//
// The computation assumes the next stop's inter-stop distance is measured from
// the same reference point as the trip's live progress; upstream does not
// guarantee this, so the result can be negative.
func (t *Trip) DistanceToNextStop() (float64, bool) {
	next := t.NextStop()
	if next == nil {
		return 0, false
	}
	return DistanceToKm(next.Info.Distance) - t.DistanceToPreviousStop(), true
}

// DistanceBetweenAdjacentStops returns the distance between the previous and
// the next stop in kilometers, or false when no next stop resolves.
func (t *Trip) DistanceBetweenAdjacentStops() (float64, bool) {
	next := t.NextStop()
	if next == nil {
		return 0, false
	}
	return DistanceToKm(next.Info.Distance), true
}

// TotalDistanceKm returns the full route length in kilometers.
func (t *Trip) TotalDistanceKm() float64 {
	return DistanceToKm(t.TotalDistance)
}

// TrainIdentifier returns the human-readable train identifier, like "ICE 123".
func (t *Trip) TrainIdentifier() string {
	return fmt.Sprintf("%s %s", t.TrainType, t.Vzn)
}

// TrainNumber returns the train number, unique per timetable day.
func (t *Trip) TrainNumber() string {
	return t.Vzn
}
