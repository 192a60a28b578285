package problem

import (
	"fmt"
	"math"
	"sort"

	"gonum.org/v1/gonum/mat"
)

// CostMatrix is a static distance/time matrix keyed by location id. Lookups
// for unknown locations return +Inf, which makes any route using them
// infeasible instead of silently free.
type CostMatrix struct {
	index map[string]int
	dist  *mat.Dense
	time  *mat.Dense
}

func (m *CostMatrix) Has(location string) bool {
	_, ok := m.index[location]
	return ok
}

func (m *CostMatrix) at(x *mat.Dense, from, to string) float64 {
	i, ok := m.index[from]
	if !ok {
		return math.Inf(1)
	}
	j, ok := m.index[to]
	if !ok {
		return math.Inf(1)
	}
	return x.At(i, j)
}

func (m *CostMatrix) Distance(from, to string) float64 { return m.at(m.dist, from, to) }

func (m *CostMatrix) TransportTime(from, to string, _ float64, _ *Driver, _ *Vehicle) float64 {
	return m.at(m.time, from, to)
}

func (m *CostMatrix) TransportCost(from, to string, _ float64, _ *Driver, v *Vehicle) float64 {
	return priced(m.at(m.dist, from, to), m.at(m.time, from, to), v)
}

func (m *CostMatrix) BackwardTransportTime(from, to string, arrival float64, d *Driver, v *Vehicle) float64 {
	return m.TransportTime(from, to, arrival, d, v)
}

func (m *CostMatrix) BackwardTransportCost(from, to string, arrival float64, d *Driver, v *Vehicle) float64 {
	return m.TransportCost(from, to, arrival, d, v)
}

// MatrixBuilder collects distance and time entries. When symmetric, every entry
// is mirrored.
type MatrixBuilder struct {
	symmetric bool
	dist      map[[2]string]float64
	time      map[[2]string]float64
	locs      map[string]struct{}
}

func NewMatrixBuilder(symmetric bool) *MatrixBuilder {
	return &MatrixBuilder{
		symmetric: symmetric,
		dist:      map[[2]string]float64{},
		time:      map[[2]string]float64{},
		locs:      map[string]struct{}{},
	}
}

func (b *MatrixBuilder) AddDistance(from, to string, d float64) *MatrixBuilder {
	b.add(b.dist, from, to, d)
	return b
}

func (b *MatrixBuilder) AddTime(from, to string, t float64) *MatrixBuilder {
	b.add(b.time, from, to, t)
	return b
}

func (b *MatrixBuilder) add(m map[[2]string]float64, from, to string, v float64) {
	b.locs[from] = struct{}{}
	b.locs[to] = struct{}{}
	m[[2]string{from, to}] = v
	if b.symmetric {
		m[[2]string{to, from}] = v
	}
}

// Build freezes the entries into dense matrices. Missing off-diagonal pairs are
// an error; the diagonal is zero.
func (b *MatrixBuilder) Build() (*CostMatrix, error) {
	ids := make([]string, 0, len(b.locs))
	for id := range b.locs {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	cm := &CostMatrix{index: make(map[string]int, len(ids))}
	for i, id := range ids {
		cm.index[id] = i
	}
	n := len(ids)
	if n == 0 {
		return nil, fmt.Errorf("build cost matrix: no entries")
	}
	cm.dist = mat.NewDense(n, n, nil)
	cm.time = mat.NewDense(n, n, nil)
	for i, from := range ids {
		for j, to := range ids {
			if i == j {
				continue
			}
			d, okD := b.dist[[2]string{from, to}]
			t, okT := b.time[[2]string{from, to}]
			if !okD && !okT {
				return nil, fmt.Errorf("build cost matrix: missing entry %s -> %s", from, to)
			}
			cm.dist.Set(i, j, d)
			cm.time.Set(i, j, t)
		}
	}
	return cm, nil
}
