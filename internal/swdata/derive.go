package swdata

import (
	"fmt"
	"math"

	"github.com/swxlab/swx-data-apps/internal/container"
)

// Derived quantity names under the imf group.
const (
	VarB       = "b"       // |B| field magnitude, nT
	VarV       = "v"       // |V| bulk speed, km/s
	VarClock   = "clock"   // IMF clock angle atan2(by, bz), radians
	VarEpsilon = "epsilon" // Perreault-Akasofu coupling parameter, W
)

// mu0 is the vacuum permeability, SI.
const mu0 = 4 * math.Pi * 1e-7

// CalcB stores |B| = sqrt(bx^2+by^2+bz^2) as imf/b.
func CalcB(c *container.Container) error {
	bx, by, bz, err := imfVec(c, "bx", "by", "bz")
	if err != nil {
		return err
	}
	out := make([]float64, len(bx))
	for i := range bx {
		out[i] = math.Sqrt(bx[i]*bx[i] + by[i]*by[i] + bz[i]*bz[i])
	}
	_, err = c.SetVariable(GroupName+"/"+VarB, container.Floats(out), map[string]any{"units": "nT"})
	return err
}

// CalcV stores |V| = sqrt(vx^2+vy^2+vz^2) as imf/v.
func CalcV(c *container.Container) error {
	vx, vy, vz, err := imfVec(c, "vx", "vy", "vz")
	if err != nil {
		return err
	}
	out := make([]float64, len(vx))
	for i := range vx {
		out[i] = math.Sqrt(vx[i]*vx[i] + vy[i]*vy[i] + vz[i]*vz[i])
	}
	_, err = c.SetVariable(GroupName+"/"+VarV, container.Floats(out), map[string]any{"units": "km/s"})
	return err
}

// CalcClock stores the IMF clock angle atan2(by, bz) as imf/clock.
// Zero is purely northward IMF, pi southward.
func CalcClock(c *container.Container) error {
	by, err := imfFloats(c, "by")
	if err != nil {
		return err
	}
	bz, err := imfFloats(c, "bz")
	if err != nil {
		return err
	}
	if len(by) != len(bz) {
		return fmt.Errorf("imf: by/bz length mismatch: %d vs %d", len(by), len(bz))
	}
	out := make([]float64, len(by))
	for i := range by {
		out[i] = math.Atan2(by[i], bz[i])
	}
	_, err = c.SetVariable(GroupName+"/"+VarClock, container.Floats(out), map[string]any{"units": "rad"})
	return err
}

// CalcEpsilon stores the Perreault-Akasofu epsilon parameter as
// imf/epsilon, computing |B|, |V| and the clock angle first when they
// are not already present.
//
// eps = conv * v * B^2 * sin^4(clock/2), conv = 1000 * (1e-9)^2 / mu0
// (km/s -> m/s, nT^2 -> T^2).
func CalcEpsilon(c *container.Container) error {
	for name, calc := range map[string]func(*container.Container) error{
		VarB:     CalcB,
		VarV:     CalcV,
		VarClock: CalcClock,
	} {
		if _, err := c.Get(GroupName + "/" + name); err != nil {
			if err := calc(c); err != nil {
				return err
			}
		}
	}

	b, err := imfFloats(c, VarB)
	if err != nil {
		return err
	}
	v, err := imfFloats(c, VarV)
	if err != nil {
		return err
	}
	clock, err := imfFloats(c, VarClock)
	if err != nil {
		return err
	}

	const conv = 1000.0 * 1e-9 * 1e-9 / mu0
	out := make([]float64, len(b))
	for i := range b {
		s := math.Sin(clock[i] / 2)
		out[i] = conv * v[i] * b[i] * b[i] * s * s * s * s
	}
	_, err = c.SetVariable(GroupName+"/"+VarEpsilon, container.Floats(out), map[string]any{"units": "W"})
	return err
}

func imfFloats(c *container.Container, name string) ([]float64, error) {
	node, err := c.Get(GroupName + "/" + name)
	if err != nil {
		return nil, err
	}
	data, ok := node.Data()
	if !ok {
		return nil, fmt.Errorf("imf/%s is not a variable", name)
	}
	vals, ok := data.AsFloat64s()
	if !ok {
		return nil, fmt.Errorf("imf/%s is not numeric", name)
	}
	return vals, nil
}

func imfVec(c *container.Container, x, y, z string) ([]float64, []float64, []float64, error) {
	vx, err := imfFloats(c, x)
	if err != nil {
		return nil, nil, nil, err
	}
	vy, err := imfFloats(c, y)
	if err != nil {
		return nil, nil, nil, err
	}
	vz, err := imfFloats(c, z)
	if err != nil {
		return nil, nil, nil, err
	}
	if len(vx) != len(vy) || len(vy) != len(vz) {
		return nil, nil, nil, fmt.Errorf("imf: component length mismatch: %d/%d/%d", len(vx), len(vy), len(vz))
	}
	return vx, vy, vz, nil
}
