package parser

import (
	"context"
	"strings"
	"testing"
	"time"
)

const sampleStatusJSON = `{"speed":120.5,"latitude":52.52,"longitude":13.405,"serverTime":1705314585123}`

const sampleTripJSON = `{
  "tripDate": "2024-01-15",
  "trainType": "ICE",
  "vzn": "881",
  "actualPosition": 12000,
  "distanceFromLastStop": 2000,
  "totalDistance": 250000,
  "stopInfo": {
    "scheduledNext": "8000105",
    "actualNext": "8000105",
    "actualLast": "8000152",
    "actualLastStarted": "8000105",
    "finalStationEvaNr": "8000261",
    "finalStationName": "München Hbf"
  },
  "stops": [
    {
      "station": {"evaNr": "8000152", "name": "Hannover Hbf", "geocoordinates": {"latitude": 52.3765, "longitude": 9.7410}},
      "timetable": {"arrivalDelay": "", "scheduledDepartureTime": 1705314000000, "actualDepartureTime": 1705314060000, "departureDelay": "+1"},
      "track": {"scheduled": "9", "actual": "9"},
      "info": {"status": 0, "passed": true, "distance": 0, "distanceFromStart": 0}
    },
    {
      "station": {"evaNr": "8000105", "name": "Frankfurt(Main)Hbf", "geocoordinates": {"latitude": 50.1069, "longitude": 8.6628}},
      "timetable": {"scheduledArrivalTime": 1705321200000, "actualArrivalTime": 1705321500000, "arrivalDelay": "+5", "scheduledDepartureTime": 1705321560000, "actualDepartureTime": 1705321860000, "departureDelay": "+5"},
      "track": {"scheduled": "13", "actual": "6"},
      "info": {"status": 0, "passed": false, "distance": 5000, "distanceFromStart": 5000},
      "delayReasons": [{"code": "38", "text": "Technische Störung an der Strecke"}]
    }
  ]
}`

func TestParseStatus(t *testing.T) {
	p := NewParser()

	parsed, err := p.ParseStatus(context.Background(), []byte(sampleStatusJSON), time.Now())
	if err != nil {
		t.Fatalf("ParseStatus failed: %v", err)
	}

	status := parsed.Status
	if status.Speed != 120.5 {
		t.Errorf("Speed = %v, want 120.5", status.Speed)
	}
	if status.Latitude != 52.52 || status.Longitude != 13.405 {
		t.Errorf("position = %v,%v, want 52.52,13.405", status.Latitude, status.Longitude)
	}
	if status.ServerTime != 1705314585123 {
		t.Errorf("ServerTime = %d, want 1705314585123", status.ServerTime)
	}
	if parsed.RawData == nil {
		t.Error("RawData should carry the raw document map")
	}
	if _, ok := parsed.RawData["serverTime"]; !ok {
		t.Error("RawData missing serverTime key")
	}
}

func TestParseStatus_MissingField(t *testing.T) {
	p := NewParser()

	_, err := p.ParseStatus(context.Background(), []byte(`{"speed":100.0,"latitude":52.0}`), time.Now())
	if err == nil {
		t.Fatal("expected error for missing required fields, got nil")
	}
	if !strings.Contains(err.Error(), "longitude") && !strings.Contains(err.Error(), "serverTime") {
		t.Errorf("error = %v, want the missing field named", err)
	}
}

func TestParseStatus_WrongType(t *testing.T) {
	p := NewParser()

	_, err := p.ParseStatus(context.Background(), []byte(`{"speed":"fast","latitude":52.0,"longitude":13.4,"serverTime":1}`), time.Now())
	if err == nil {
		t.Fatal("expected error for a string speed, got nil")
	}
}

func TestParseStatus_InvalidJSON(t *testing.T) {
	p := NewParser()

	if _, err := p.ParseStatus(context.Background(), []byte(`not json`), time.Now()); err == nil {
		t.Fatal("expected error for invalid JSON, got nil")
	}
}

func TestParseTrip(t *testing.T) {
	p := NewParser()

	parsed, err := p.ParseTrip(context.Background(), []byte(sampleTripJSON), time.Now())
	if err != nil {
		t.Fatalf("ParseTrip failed: %v", err)
	}

	trip := parsed.Trip
	if trip.TrainIdentifier() != "ICE 881" {
		t.Errorf("TrainIdentifier() = %q, want %q", trip.TrainIdentifier(), "ICE 881")
	}
	if len(trip.Stops) != 2 {
		t.Fatalf("len(Stops) = %d, want 2", len(trip.Stops))
	}

	first := trip.Stops[0]
	if first.Station.EvaNr != "8000152" {
		t.Errorf("first stop = %q, want 8000152", first.Station.EvaNr)
	}
	if first.Timetable.ScheduledArrivalTime != nil {
		t.Error("first stop should have no arrival time")
	}
	if first.Timetable.ScheduledDepartureTime == nil {
		t.Error("first stop should have a departure time")
	}

	second := trip.Stops[1]
	if second.Timetable.ArrivalDelay != "+5" {
		t.Errorf("arrival delay = %q, want +5", second.Timetable.ArrivalDelay)
	}
	if second.Timetable.ActualDepartureTime == nil {
		t.Error("second stop should have a departure time")
	}
	if len(second.DelayReasons) != 1 || second.DelayReasons[0].Code != "38" {
		t.Errorf("delay reasons = %v, want one with code 38", second.DelayReasons)
	}
	if second.Track.Actual != "6" {
		t.Errorf("actual track = %q, want 6", second.Track.Actual)
	}

	// Derived queries over the decoded trip
	next := trip.NextStop()
	if next == nil || next.Station.Name != "Frankfurt(Main)Hbf" {
		t.Errorf("NextStop() = %v, want Frankfurt(Main)Hbf", next)
	}
	toNext, ok := trip.DistanceToNextStop()
	if !ok || toNext != 3.0 {
		t.Errorf("DistanceToNextStop() = %v,%v, want 3.0,true", toNext, ok)
	}
}

func TestParseTrip_MissingTopLevelField(t *testing.T) {
	p := NewParser()

	_, err := p.ParseTrip(context.Background(), []byte(`{"tripDate":"2024-01-15","trainType":"ICE","vzn":"881","stops":[]}`), time.Now())
	if err == nil {
		t.Fatal("expected error for missing stopInfo, got nil")
	}
	if !strings.Contains(err.Error(), "stopInfo") {
		t.Errorf("error = %v, want stopInfo named", err)
	}
}

func TestParseTrip_StopWithoutStationID(t *testing.T) {
	p := NewParser()

	doc := `{
	  "tripDate": "2024-01-15", "trainType": "ICE", "vzn": "881",
	  "actualPosition": 0, "distanceFromLastStop": 0, "totalDistance": 0,
	  "stopInfo": {"scheduledNext": "", "actualNext": "", "actualLast": "", "actualLastStarted": "", "finalStationEvaNr": "", "finalStationName": ""},
	  "stops": [{"station": {"name": "Nameless", "geocoordinates": {"latitude": 0, "longitude": 0}}, "timetable": {"arrivalDelay": "", "departureDelay": ""}, "track": {"scheduled": "", "actual": ""}, "info": {"status": 0, "passed": false, "distance": 0, "distanceFromStart": 0}}]
	}`

	_, err := p.ParseTrip(context.Background(), []byte(doc), time.Now())
	if err == nil {
		t.Fatal("expected error for a stop without a station id, got nil")
	}
}

func TestParseTrip_EmptyStops(t *testing.T) {
	p := NewParser()

	doc := `{
	  "tripDate": "2024-01-15", "trainType": "ICE", "vzn": "881",
	  "actualPosition": 0, "distanceFromLastStop": 0, "totalDistance": 0,
	  "stopInfo": {"scheduledNext": "", "actualNext": "", "actualLast": "", "actualLastStarted": "", "finalStationEvaNr": "", "finalStationName": ""},
	  "stops": []
	}`

	parsed, err := p.ParseTrip(context.Background(), []byte(doc), time.Now())
	if err != nil {
		t.Fatalf("ParseTrip failed on an empty stop sequence: %v", err)
	}
	// Empty stops is legitimate data, not an error; lookups are just absent
	if parsed.Trip.Origin() != nil {
		t.Error("Origin() should be nil for an empty stop sequence")
	}
	if parsed.Trip.NextStop() != nil {
		t.Error("NextStop() should be nil for an empty stop sequence")
	}
}
