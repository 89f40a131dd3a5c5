package validate

import (
	"fmt"
	"math"
	"strings"

	"github.com/banshee-data/flowcheck/internal/oracle"
	"github.com/banshee-data/flowcheck/internal/output"
	"github.com/banshee-data/flowcheck/internal/tolerance"
)

// Method names a measurement method of the program under test.
type Method string

const (
	MethodE Method = "E"
	MethodF Method = "F"
	MethodG Method = "G"
	MethodH Method = "H"
)

// Methods lists the supported methods.
var Methods = []Method{MethodE, MethodF, MethodG, MethodH}

// ParseMethod accepts a method letter in either case.
func ParseMethod(s string) (Method, error) {
	m := Method(strings.ToUpper(strings.TrimSpace(s)))
	for _, known := range Methods {
		if m == known {
			return m, nil
		}
	}
	return "", fmt.Errorf("unknown method %q", s)
}

// Params names the output files and carries the scenario kinematics the
// expected values depend on.
type Params struct {
	Trajectory string
	AreaID     int
	// LineIDs are parallel to the reference set's lines.
	LineIDs []int
	// Speed is the scalar pedestrian speed, VelocityX its component along
	// the travel axis.
	Speed     float64
	VelocityX float64
}

func (p Params) lineID(i int) int {
	if i < len(p.LineIDs) {
		return p.LineIDs[i]
	}
	return i + 1
}

// Expectations lists the files method m must produce and their expected
// content.
func Expectations(m Method, rs *oracle.ReferenceSet, p Params, calc *tolerance.Calculator) ([]Artifact, error) {
	if !(p.VelocityX > 0) {
		return nil, fmt.Errorf("velocity along the travel axis must be positive, got %v", p.VelocityX)
	}
	switch m {
	case MethodE:
		return methodE(rs, p)
	case MethodF:
		return methodF(rs, p, calc)
	case MethodG:
		return methodG(rs, p, calc)
	case MethodH:
		return methodH(rs, p), nil
	default:
		return nil, fmt.Errorf("unknown method %q", m)
	}
}

func requireDeltaY(area oracle.Strip, m Method) error {
	if !(area.DeltaY > 0) {
		return fmt.Errorf("method %s needs a positive area extent across the travel axis", m)
	}
	return nil
}

func methodE(rs *oracle.ReferenceSet, p Params) ([]Artifact, error) {
	area := rs.Area()
	if err := requireDeltaY(area, MethodE); err != nil {
		return nil, err
	}
	dtS := rs.Intervals().DeltaSeconds()
	occ := rs.Occupancy()
	rho := &gridArtifact{name: output.FileName("rho", p.Trajectory, p.AreaID), cols: 2}
	for f, n := range occ {
		rho.cells = append(rho.cells, []Expect{Exact(float64(f)), Value(float64(n) / (area.DeltaX() * area.DeltaY))})
	}
	arts := []Artifact{rho}
	for li := range rs.Lines() {
		flow := &gridArtifact{name: output.LineFileName("flow", p.Trajectory, p.AreaID, p.lineID(li)), cols: 3}
		for _, n := range rs.Crossings(li) {
			q := float64(n) / dtS
			flow.cells = append(flow.cells, []Expect{Exact(float64(n)), Value(q), Value(q / area.DeltaY)})
		}
		arts = append(arts, flow)
	}
	return arts, nil
}

func methodF(rs *oracle.ReferenceSet, p Params, calc *tolerance.Calculator) ([]Artifact, error) {
	area := rs.Area()
	if err := requireDeltaY(area, MethodF); err != nil {
		return nil, err
	}
	iv := rs.Intervals()
	vr, err := calc.VelocityRange(area.DeltaX(), p.VelocityX, iv.FPS)
	if err != nil {
		return nil, err
	}
	arts := []Artifact{&keyedArtifact{
		name:  output.FileName("v", p.Trajectory, p.AreaID),
		ids:   rs.Traversals(),
		value: Within(vr),
	}}
	dtS := iv.DeltaSeconds()
	for li := range rs.Lines() {
		a := &gridArtifact{name: output.LineFileName("rho_flow", p.Trajectory, p.AreaID, p.lineID(li)), cols: 4}
		for _, n := range rs.Crossings(li) {
			q := float64(n) / dtS
			specific := q / area.DeltaY
			a.cells = append(a.cells, []Expect{Exact(float64(n)), Value(specific / p.VelocityX), Value(q), Value(specific)})
		}
		arts = append(arts, a)
	}
	return arts, nil
}

func methodG(rs *oracle.ReferenceSet, p Params, calc *tolerance.Calculator) ([]Artifact, error) {
	if rs.DtFrames() <= 0 {
		return nil, fmt.Errorf("method G needs a positive sub-interval length")
	}
	area := rs.Area()
	iv := rs.Intervals()
	dx := area.Dx()
	dtS := iv.DeltaSeconds()
	vr, err := calc.VelocityRange(dx, p.VelocityX, iv.FPS)
	if err != nil {
		return nil, err
	}
	nPoly := area.Polygons()
	v := &gridArtifact{name: output.FileName("v", p.Trajectory, p.AreaID), cols: nPoly}
	rho := &gridArtifact{name: output.FileName("rho", p.Trajectory, p.AreaID), cols: nPoly}
	passes := make([][]int, nPoly)
	for k := range passes {
		passes[k] = rs.Passes(k)
	}
	for i := 0; i < iv.Count(); i++ {
		vRow := make([]Expect, nPoly)
		rhoRow := make([]Expect, nPoly)
		for k := 0; k < nPoly; k++ {
			n := passes[k][i]
			if n == 0 {
				vRow[k] = Value(math.NaN())
			} else {
				vRow[k] = Within(vr)
			}
			dr, err := calc.DensityRange(dx, p.VelocityX, iv.FPS, n, dtS)
			if err != nil {
				return nil, err
			}
			rhoRow[k] = Within(dr)
		}
		v.cells = append(v.cells, vRow)
		rho.cells = append(rho.cells, rhoRow)
	}

	dt := float64(rs.DtFrames()) / iv.FPS
	rfv := &gridArtifact{name: output.FileName("rho_flow_v", p.Trajectory, p.AreaID), cols: 3}
	for _, acc := range rs.SubIntervalDistances() {
		rfv.cells = append(rfv.cells, distanceRow(acc.Distance, area.DeltaX(), dt, p, false))
	}
	return []Artifact{v, rho, rfv}, nil
}

func methodH(rs *oracle.ReferenceSet, p Params) []Artifact {
	area := rs.Area()
	dtS := rs.Intervals().DeltaSeconds()
	a := &gridArtifact{name: output.FileName("flow_rho_v", p.Trajectory, p.AreaID), cols: 3}
	for _, d := range rs.Distances() {
		a.cells = append(a.cells, distanceRow(d, area.DeltaX(), dtS, p, true))
	}
	return []Artifact{a}
}

// distanceRow derives velocity, density and flow from a summed distance d
// over an area of length deltaX during seconds. Method H orders the
// columns flow first, method G velocity first.
func distanceRow(d, deltaX, seconds float64, p Params, flowFirst bool) []Expect {
	v := p.Speed
	if d == 0 {
		v = math.NaN()
	}
	flow := d / (deltaX * seconds)
	density := d / (p.VelocityX * deltaX * seconds)
	if flowFirst {
		return []Expect{Value(flow), Value(density), Value(v)}
	}
	return []Expect{Value(v), Value(density), Value(flow)}
}
