package pipeline

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"ice2loki/pkg/parser"
	"ice2loki/pkg/types"
)

func TestNew_ConfigValidation(t *testing.T) {
	tests := []struct {
		name    string
		config  Config
		wantErr bool
	}{
		{
			name:    "valid dry run",
			config:  Config{DryRun: true, Interval: time.Second},
			wantErr: false,
		},
		{
			name:    "valid with loki",
			config:  Config{LokiURL: "http://localhost:3100", Interval: time.Second},
			wantErr: false,
		},
		{
			name:    "zero interval",
			config:  Config{DryRun: true, Interval: 0},
			wantErr: true,
		},
		{
			name:    "negative interval",
			config:  Config{DryRun: true, Interval: -time.Second},
			wantErr: true,
		},
		{
			name:    "missing loki URL outside dry run",
			config:  Config{Interval: time.Second},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := New(tt.config)
			if tt.wantErr {
				if err == nil {
					t.Error("expected error, got nil")
				}
				return
			}
			if err != nil {
				t.Fatalf("New failed: %v", err)
			}
			if tt.config.DryRun && p.lokiClient != nil {
				t.Error("dry run should not create a Loki client")
			}
			if !tt.config.DryRun && p.lokiClient == nil {
				t.Error("expected a Loki client outside dry run")
			}
		})
	}
}

func int64Ptr(v int64) *int64 { return &v }

// twoStopTrip is a trip mid-leg: 2 km past Startbahnhof, 3 km short of
// Endstation at kilometre 5 of the route.
func twoStopTrip() *types.Trip {
	return &types.Trip{
		TripDate:             "2024-01-15",
		TrainType:            "ICE",
		Vzn:                  "881",
		ActualPosition:       2000,
		DistanceFromLastStop: 2000,
		TotalDistance:        250000,
		StopInfo: types.Vicinity{
			ScheduledNext:     "8000002",
			ActualNext:        "8000002",
			ActualLast:        "8000001",
			ActualLastStarted: "8000002",
			FinalStationEvaNr: "8000002",
			FinalStationName:  "Endstation",
		},
		Stops: []types.Stop{
			{
				Station: types.Station{
					EvaNr: "8000001",
					Name:  "Startbahnhof",
					Geocoordinates: types.Coordinates{
						Latitude:  52.3765,
						Longitude: 9.7410,
					},
				},
				Timetable: types.Timetable{
					ScheduledDepartureTime: int64Ptr(1705314000000),
					ActualDepartureTime:    int64Ptr(1705314060000),
					DepartureDelay:         "+1",
				},
				Track: types.Track{Scheduled: "9", Actual: "9"},
				Info:  types.StopDetails{Passed: true},
			},
			{
				Station: types.Station{
					EvaNr: "8000002",
					Name:  "Endstation",
					Geocoordinates: types.Coordinates{
						Latitude:  50.1069,
						Longitude: 8.6628,
					},
				},
				Timetable: types.Timetable{
					ScheduledArrivalTime: int64Ptr(1705321200000),
					ActualArrivalTime:    int64Ptr(1705321500000),
					ArrivalDelay:         "+5",
				},
				Track: types.Track{Scheduled: "13", Actual: "6"},
				Info: types.StopDetails{
					Distance:          5000,
					DistanceFromStart: 5000,
				},
				DelayReasons: []types.DelayReason{
					{Code: "38", Text: "Technische Störung an der Strecke"},
				},
			},
		},
	}
}

func testParsedStatus() *parser.ParsedStatus {
	return &parser.ParsedStatus{
		Status: &types.Status{
			Speed:      120.5,
			Latitude:   52.52,
			Longitude:  13.405,
			ServerTime: 1705314585123,
		},
		Timestamp: "2024-01-15T10:29:45.123Z",
	}
}

func TestBuildSnapshot(t *testing.T) {
	p, err := New(Config{DryRun: true, Interval: time.Second})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	snapshot, err := p.buildSnapshot(testParsedStatus(), &parser.ParsedTrip{
		Trip:      twoStopTrip(),
		Timestamp: "2024-01-15T10:29:45.123Z",
	})
	if err != nil {
		t.Fatalf("buildSnapshot failed: %v", err)
	}

	if snapshot.TrainIdentifier != "ICE 881" {
		t.Errorf("TrainIdentifier = %q, want ICE 881", snapshot.TrainIdentifier)
	}
	if snapshot.Speed != 120.5 {
		t.Errorf("Speed = %v, want 120.5", snapshot.Speed)
	}
	if snapshot.TotalDistanceKm != 250.0 {
		t.Errorf("TotalDistanceKm = %v, want 250.0", snapshot.TotalDistanceKm)
	}
	if snapshot.DistanceToPreviousStopKm != 2.0 {
		t.Errorf("DistanceToPreviousStopKm = %v, want 2.0", snapshot.DistanceToPreviousStopKm)
	}
	if snapshot.DistanceToNextStopKm == nil || *snapshot.DistanceToNextStopKm != 3.0 {
		t.Errorf("DistanceToNextStopKm = %v, want 3.0", snapshot.DistanceToNextStopKm)
	}
	if snapshot.PreviousStopName != "Startbahnhof" {
		t.Errorf("PreviousStopName = %q, want Startbahnhof", snapshot.PreviousStopName)
	}
	if snapshot.NextStopName != "Endstation" {
		t.Errorf("NextStopName = %q, want Endstation", snapshot.NextStopName)
	}
	if snapshot.FinalStationName != "Endstation" {
		t.Errorf("FinalStationName = %q, want Endstation", snapshot.FinalStationName)
	}
	if !strings.HasPrefix(snapshot.TrainImage, "data:image/svg+xml;base64,") {
		t.Error("TrainImage should be a base64 SVG data URI")
	}
	if !strings.Contains(snapshot.StatusLine, "120.5 km/h") {
		t.Errorf("StatusLine = %q, want the speed included", snapshot.StatusLine)
	}

	if len(snapshot.Stops) != 2 {
		t.Fatalf("len(Stops) = %d, want 2", len(snapshot.Stops))
	}

	first := snapshot.Stops[0]
	if !first.Passed {
		t.Error("first stop should be passed")
	}
	if first.DepartureDelayMinutes != 1 {
		t.Errorf("first DepartureDelayMinutes = %v, want 1", first.DepartureDelayMinutes)
	}
	if first.ScheduledArrival != "" {
		t.Errorf("first ScheduledArrival = %q, want empty", first.ScheduledArrival)
	}
	if first.ScheduledDeparture == "" {
		t.Error("first ScheduledDeparture should be set")
	}

	second := snapshot.Stops[1]
	if second.ArrivalDelayMinutes != 5 {
		t.Errorf("second ArrivalDelayMinutes = %v, want 5", second.ArrivalDelayMinutes)
	}
	if second.DistanceFromPreviousKm != 5.0 {
		t.Errorf("second DistanceFromPreviousKm = %v, want 5.0", second.DistanceFromPreviousKm)
	}
	if second.ActualTrack != "6" {
		t.Errorf("second ActualTrack = %q, want 6", second.ActualTrack)
	}
	if len(second.DelayReasons) != 1 || second.DelayReasons[0] != "38: Technische Störung an der Strecke" {
		t.Errorf("second DelayReasons = %v, want the code-prefixed text", second.DelayReasons)
	}
}

func TestBuildSnapshot_MalformedDelaySurfaces(t *testing.T) {
	p, err := New(Config{DryRun: true, Interval: time.Second})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	trip := twoStopTrip()
	trip.Stops[1].Timetable.ArrivalDelay = "5"

	_, err = p.buildSnapshot(testParsedStatus(), &parser.ParsedTrip{Trip: trip})
	if err == nil {
		t.Fatal("expected error for a malformed delay string, got nil")
	}
}

func TestBuildSnapshot_NoNextStop(t *testing.T) {
	p, err := New(Config{DryRun: true, Interval: time.Second})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	trip := twoStopTrip()
	trip.StopInfo.ActualNext = "9999999"

	snapshot, err := p.buildSnapshot(testParsedStatus(), &parser.ParsedTrip{Trip: trip})
	if err != nil {
		t.Fatalf("buildSnapshot failed: %v", err)
	}
	if snapshot.DistanceToNextStopKm != nil {
		t.Error("DistanceToNextStopKm should be absent when the next stop is unknown")
	}
	if snapshot.NextStopName != "" {
		t.Errorf("NextStopName = %q, want empty", snapshot.NextStopName)
	}
}

func TestProcessOnce_DryRun(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Path {
		case "/status":
			w.Write([]byte(`{"speed":120.5,"latitude":52.52,"longitude":13.405,"serverTime":1705314585123}`))
		case "/tripInfo/trip":
			w.Write([]byte(`{
			  "tripDate": "2024-01-15", "trainType": "ICE", "vzn": "881",
			  "actualPosition": 2000, "distanceFromLastStop": 2000, "totalDistance": 250000,
			  "stopInfo": {"scheduledNext": "8000002", "actualNext": "8000002", "actualLast": "8000001", "actualLastStarted": "8000002", "finalStationEvaNr": "8000002", "finalStationName": "Endstation"},
			  "stops": [
			    {"station": {"evaNr": "8000001", "name": "Startbahnhof", "geocoordinates": {"latitude": 52.3765, "longitude": 9.7410}}, "timetable": {"arrivalDelay": "", "departureDelay": ""}, "track": {"scheduled": "9", "actual": "9"}, "info": {"status": 0, "passed": true, "distance": 0, "distanceFromStart": 0}},
			    {"station": {"evaNr": "8000002", "name": "Endstation", "geocoordinates": {"latitude": 50.1069, "longitude": 8.6628}}, "timetable": {"arrivalDelay": "+5", "departureDelay": ""}, "track": {"scheduled": "13", "actual": "6"}, "info": {"status": 0, "passed": false, "distance": 5000, "distanceFromStart": 5000}}
			  ]
			}`))
		default:
			http.NotFound(w, r)
		}
	}))
	defer server.Close()

	p, err := New(Config{DryRun: true, PortalURL: server.URL, Interval: time.Second})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	if err := p.processOnce(context.Background()); err != nil {
		t.Fatalf("processOnce failed: %v", err)
	}
}

func TestProcessOnce_FetchFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "maintenance", http.StatusServiceUnavailable)
	}))
	defer server.Close()

	p, err := New(Config{DryRun: true, PortalURL: server.URL, Interval: time.Second})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	if err := p.processOnce(context.Background()); err == nil {
		t.Fatal("expected error when the portal is unavailable, got nil")
	}
}

func TestRun_StopsOnContextCancel(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	defer server.Close()

	p, err := New(Config{DryRun: true, PortalURL: server.URL, Interval: 50 * time.Millisecond})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- p.Run(ctx) }()

	time.Sleep(120 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		if err != context.Canceled {
			t.Errorf("Run returned %v, want context.Canceled", err)
		}
	case <-time.After(time.Second):
		t.Fatal("Run did not stop after context cancellation")
	}
}
