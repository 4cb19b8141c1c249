package domain

import "math"

type Position struct {
	Lat      float64 `json:"latitude"`
	Lon      float64 `json:"longitude"`
	Accuracy float64 `json:"accuracy"`
}

// Validate rejects non-finite or out of range coordinates.
func (p Position) Validate() error {
	if math.IsNaN(p.Lat) || math.IsInf(p.Lat, 0) || p.Lat < -90 || p.Lat > 90 {
		return ErrInvalidPosition
	}
	if math.IsNaN(p.Lon) || math.IsInf(p.Lon, 0) || p.Lon < -180 || p.Lon > 180 {
		return ErrInvalidPosition
	}
	return nil
}
