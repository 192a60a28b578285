package problem

import "math"

type Coordinate struct {
	X float64
	Y float64
}

// EuclideanCosts derives distance from coordinates. With Geo set, X/Y are
// longitude/latitude and distance is great-circle meters. Time is distance
// divided by Speed (1 when unset).
type EuclideanCosts struct {
	Coords map[string]Coordinate
	Speed  float64
	Geo    bool
}

func (e *EuclideanCosts) Has(location string) bool {
	_, ok := e.Coords[location]
	return ok
}

func (e *EuclideanCosts) Distance(from, to string) float64 {
	a, okA := e.Coords[from]
	b, okB := e.Coords[to]
	if !okA || !okB {
		return math.Inf(1)
	}
	if e.Geo {
		return haversine(a.Y, a.X, b.Y, b.X)
	}
	return math.Hypot(a.X-b.X, a.Y-b.Y)
}

func (e *EuclideanCosts) speed() float64 {
	if e.Speed <= 0 {
		return 1
	}
	return e.Speed
}

func (e *EuclideanCosts) TransportTime(from, to string, _ float64, _ *Driver, _ *Vehicle) float64 {
	return e.Distance(from, to) / e.speed()
}

func (e *EuclideanCosts) TransportCost(from, to string, _ float64, _ *Driver, v *Vehicle) float64 {
	d := e.Distance(from, to)
	return priced(d, d/e.speed(), v)
}

func (e *EuclideanCosts) BackwardTransportTime(from, to string, arrival float64, d *Driver, v *Vehicle) float64 {
	return e.TransportTime(from, to, arrival, d, v)
}

func (e *EuclideanCosts) BackwardTransportCost(from, to string, arrival float64, d *Driver, v *Vehicle) float64 {
	return e.TransportCost(from, to, arrival, d, v)
}

func haversine(lat1, lon1, lat2, lon2 float64) float64 {
	const R = 6371000.0
	dLat := (lat2 - lat1) * math.Pi / 180
	dLon := (lon2 - lon1) * math.Pi / 180
	a := math.Sin(dLat/2)*math.Sin(dLat/2) + math.Cos(lat1*math.Pi/180)*math.Cos(lat2*math.Pi/180)*math.Sin(dLon/2)*math.Sin(dLon/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
	return R * c
}
