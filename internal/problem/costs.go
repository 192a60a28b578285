package problem

// TransportCosts provides travel time and cost between two locations. Forward
// lookups are parameterised by departure time, backward lookups by arrival
// time, so time-dependent and asymmetric models fit behind the same interface.
type TransportCosts interface {
	TransportTime(from, to string, departure float64, d *Driver, v *Vehicle) float64
	TransportCost(from, to string, departure float64, d *Driver, v *Vehicle) float64
	BackwardTransportTime(from, to string, arrival float64, d *Driver, v *Vehicle) float64
	BackwardTransportCost(from, to string, arrival float64, d *Driver, v *Vehicle) float64
}

// DistanceSource is implemented by cost models that can also report a plain
// distance, used to measure relatedness between jobs.
type DistanceSource interface {
	Distance(from, to string) float64
}

// LocationSet is implemented by cost models with a closed set of locations.
type LocationSet interface {
	Has(location string) bool
}

// priced applies the vehicle type coefficients. A vehicle without a type pays
// distance only.
func priced(dist, tt float64, v *Vehicle) float64 {
	if v == nil || v.Type == nil {
		return dist
	}
	return dist*v.Type.CostPerDistance + tt*v.Type.CostPerTime
}
