package model

import "time"

const GeoPointType = "Point"

// GeoPoint is a GeoJSON point. Coordinates are [longitude, latitude].
type GeoPoint struct {
	Type        string    `json:"type" bson:"type" validate:"required,eq=Point"`
	Coordinates []float64 `json:"coordinates" bson:"coordinates" validate:"len=2,geo_coordinates"`
}

func NewGeoPoint(lat, lng float64) *GeoPoint {
	return &GeoPoint{Type: GeoPointType, Coordinates: []float64{lng, lat}}
}

func (p *GeoPoint) Lat() float64 {
	if p == nil || len(p.Coordinates) != 2 {
		return 0
	}
	return p.Coordinates[1]
}

func (p *GeoPoint) Lng() float64 {
	if p == nil || len(p.Coordinates) != 2 {
		return 0
	}
	return p.Coordinates[0]
}

type Address struct {
	Street     string    `json:"street,omitempty" bson:"street,omitempty" validate:"omitempty,max=200"`
	City       string    `json:"city,omitempty" bson:"city,omitempty" validate:"omitempty,max=100"`
	State      string    `json:"state,omitempty" bson:"state,omitempty" validate:"omitempty,max=100"`
	PostalCode string    `json:"postal_code,omitempty" bson:"postal_code,omitempty" validate:"omitempty,max=20"`
	Country    string    `json:"country,omitempty" bson:"country,omitempty" validate:"omitempty,max=100"`
	Location   *GeoPoint `json:"location,omitempty" bson:"location,omitempty" validate:"omitempty"`
}

// WeeklyWindow is a recurring working window on one weekday.
type WeeklyWindow struct {
	Day   string `json:"day" bson:"day" validate:"required,weekday"`
	Start string `json:"start" bson:"start" validate:"required,hhmm"`
	End   string `json:"end" bson:"end" validate:"required,hhmm"`
}

type TimeOff struct {
	Start  time.Time `json:"start" bson:"start" validate:"required"`
	End    time.Time `json:"end" bson:"end" validate:"required,gtfield=Start"`
	Reason string    `json:"reason,omitempty" bson:"reason,omitempty" validate:"omitempty,max=200"`
}

type Availability struct {
	Weekly  []WeeklyWindow `json:"weekly" bson:"weekly" validate:"omitempty,max=50,dive"`
	TimeOff []TimeOff      `json:"time_off" bson:"time_off" validate:"omitempty,max=100,dive"`
}

type RatingSummary struct {
	Average float64 `json:"average" bson:"average"`
	Count   int64   `json:"count" bson:"count"`
}
