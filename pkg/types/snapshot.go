package types

// TripSnapshot is one assembled observation of the train: the instantaneous
// status joined with the per-stop view of the trip. This is the record shape
// shipped to downstream display and logging consumers.
type TripSnapshot struct {
	TrainIdentifier string `json:"train_identifier"`
	TripDate        string `json:"trip_date"`
	Timestamp       string `json:"timestamp"`

	Speed      float32 `json:"speed"`
	Latitude   float32 `json:"latitude"`
	Longitude  float32 `json:"longitude"`
	StatusLine string  `json:"status_line"`

	TotalDistanceKm          float64  `json:"total_distance_km"`
	DistanceToPreviousStopKm float64  `json:"distance_to_previous_stop_km"`
	DistanceToNextStopKm     *float64 `json:"distance_to_next_stop_km,omitempty"`

	PreviousStopName string `json:"previous_stop_name,omitempty"`
	NextStopName     string `json:"next_stop_name,omitempty"`
	FinalStationName string `json:"final_station_name,omitempty"`

	TrainImage string `json:"train_image,omitempty"`

	Stops []StopRecord `json:"stops"`
}

// StopRecord is the per-stop log line derived from one Stop.
type StopRecord struct {
	EvaNr     string  `json:"eva_nr"`
	Name      string  `json:"name"`
	Latitude  float32 `json:"latitude"`
	Longitude float32 `json:"longitude"`

	ScheduledArrival   string `json:"scheduled_arrival,omitempty"`
	ActualArrival      string `json:"actual_arrival,omitempty"`
	ScheduledDeparture string `json:"scheduled_departure,omitempty"`
	ActualDeparture    string `json:"actual_departure,omitempty"`

	ArrivalDelayMinutes   float64 `json:"arrival_delay_minutes"`
	DepartureDelayMinutes float64 `json:"departure_delay_minutes"`

	ScheduledTrack string `json:"scheduled_track,omitempty"`
	ActualTrack    string `json:"actual_track,omitempty"`

	Passed                 bool    `json:"passed"`
	DistanceFromPreviousKm float64 `json:"distance_from_previous_km"`
	DistanceFromOriginKm   float64 `json:"distance_from_origin_km"`

	DelayReasons []string `json:"delay_reasons,omitempty"`
}
