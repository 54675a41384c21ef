package gleval

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/chewxy/math32"
	"github.com/soypat/geometry/ms3"
)

// Default raymarching parameters.
const (
	DefaultMinDist = 0.01
	DefaultMaxDist = 10.0
	DefaultMaxIter = 20
)

// RaymarchConfig holds the termination policy of sphere tracing.
type RaymarchConfig struct {
	// MinDist is the surface epsilon. A ray whose distance to the surface
	// falls below MinDist is considered a hit.
	MinDist float32
	// MaxDist acts as a far plane. A ray whose evaluated distance exceeds
	// MaxDist is considered to have escaped the scene.
	MaxDist float32
	// MaxIter is the maximum amount of steps taken before giving up on a ray.
	MaxIter int
}

// DefaultRaymarchConfig returns the configuration used by the demo renderer.
func DefaultRaymarchConfig() RaymarchConfig {
	return RaymarchConfig{
		MinDist: DefaultMinDist,
		MaxDist: DefaultMaxDist,
		MaxIter: DefaultMaxIter,
	}
}

// Validate returns a non-nil error if the configuration can not be used for raymarching.
func (cfg RaymarchConfig) Validate() error {
	switch {
	case !(cfg.MinDist > 0) || math32.IsInf(cfg.MinDist, 0):
		return errors.New("raymarch MinDist must be positive and finite")
	case !(cfg.MaxDist > cfg.MinDist) || math32.IsInf(cfg.MaxDist, 0):
		return errors.New("raymarch MaxDist must be finite and greater than MinDist")
	case cfg.MaxIter <= 0:
		return errors.New("raymarch MaxIter must be positive")
	}
	return nil
}

// RaymarchOutcome is the terminal state of a raymarched ray.
// The zero value is not a valid outcome.
type RaymarchOutcome uint8

const (
	_ RaymarchOutcome = iota
	// RaymarchHit means the ray reached the surface.
	RaymarchHit
	// RaymarchWentTooFar means the ray escaped past the maximum distance.
	RaymarchWentTooFar
	// RaymarchTookTooLong means the ray did not resolve within the maximum iterations.
	RaymarchTookTooLong
)

func (o RaymarchOutcome) String() string {
	switch o {
	case RaymarchHit:
		return "hit"
	case RaymarchWentTooFar:
		return "went too far"
	case RaymarchTookTooLong:
		return "took too long"
	}
	return "RaymarchOutcome(" + strconv.Itoa(int(o)) + ")"
}

// RaymarchResult is the result of marching a single ray.
type RaymarchResult struct {
	Outcome RaymarchOutcome
	// Point is the surface point found. Only set when Outcome is [RaymarchHit].
	Point ms3.Vec
	// T is the distance travelled along the unit ray direction.
	T float32
	// Steps is the number of times the ray advanced.
	Steps int
}

// Hit reports whether the ray hit the surface.
func (r RaymarchResult) Hit() bool { return r.Outcome == RaymarchHit }

// Raymarch sphere-traces a ray starting at origin in direction dir against sdf.
// dir need not be unit length but must not be degenerate, in which case an error
// wrapping [ErrDegenerateVector] is returned.
func Raymarch(sdf SDF3, origin, dir ms3.Vec, cfg RaymarchConfig, userData any) (RaymarchResult, error) {
	if sdf == nil {
		return RaymarchResult{}, errors.New("nil SDF3")
	}
	err := cfg.Validate()
	if err != nil {
		return RaymarchResult{}, err
	}
	dir, err = Normalize(dir)
	if err != nil {
		return RaymarchResult{}, fmt.Errorf("raymarch direction: %w", err)
	}
	var pos [1]ms3.Vec
	var dist [1]float32
	var t float32
	for steps := 0; steps < cfg.MaxIter; steps++ {
		pos[0] = ms3.Add(origin, ms3.Scale(t, dir))
		err = sdf.Evaluate(pos[:], dist[:], userData)
		if err != nil {
			return RaymarchResult{}, err
		}
		d := dist[0]
		if d < cfg.MinDist {
			return RaymarchResult{Outcome: RaymarchHit, Point: pos[0], T: t, Steps: steps}, nil
		} else if d > cfg.MaxDist {
			return RaymarchResult{Outcome: RaymarchWentTooFar, T: t, Steps: steps}, nil
		}
		t += d
	}
	return RaymarchResult{Outcome: RaymarchTookTooLong, T: t, Steps: cfg.MaxIter}, nil
}

// RaymarchBatch marches len(origins) rays at once and stores the outcomes in results.
// Each iteration performs a single Evaluate call over the rays that are still
// unresolved. Results are identical to calling [Raymarch] on each ray.
// If userData contains a [VecPool] it is used for scratch buffers.
func RaymarchBatch(sdf SDF3, origins, dirs []ms3.Vec, results []RaymarchResult, cfg RaymarchConfig, userData any) error {
	if sdf == nil {
		return errors.New("nil SDF3")
	} else if len(origins) != len(dirs) || len(origins) != len(results) {
		return errors.New("origins, directions and results must be of same length")
	} else if len(origins) == 0 {
		return errEmptyBuffers
	}
	err := cfg.Validate()
	if err != nil {
		return err
	}
	vp, err := GetVecPool(userData)
	if err != nil {
		vp = new(VecPool)
	}
	n := len(origins)
	unit := vp.V3.Acquire(n)
	pos := vp.V3.Acquire(n)
	ts := vp.Float.Acquire(n)
	dist := vp.Float.Acquire(n)
	active := vp.Int.Acquire(n)
	defer vp.V3.Release(unit)
	defer vp.V3.Release(pos)
	defer vp.Float.Release(ts)
	defer vp.Float.Release(dist)
	defer vp.Int.Release(active)
	for i, d := range dirs {
		unit[i], err = Normalize(d)
		if err != nil {
			return fmt.Errorf("raymarch direction %d: %w", i, err)
		}
		ts[i] = 0
		active[i] = i
	}

	for step := 0; step < cfg.MaxIter && len(active) > 0; step++ {
		for k, i := range active {
			pos[k] = ms3.Add(origins[i], ms3.Scale(ts[i], unit[i]))
		}
		err = sdf.Evaluate(pos[:len(active)], dist[:len(active)], userData)
		if err != nil {
			return err
		}
		next := active[:0]
		for k, i := range active {
			d := dist[k]
			switch {
			case d < cfg.MinDist:
				results[i] = RaymarchResult{Outcome: RaymarchHit, Point: pos[k], T: ts[i], Steps: step}
			case d > cfg.MaxDist:
				results[i] = RaymarchResult{Outcome: RaymarchWentTooFar, T: ts[i], Steps: step}
			default:
				ts[i] += d
				next = append(next, i)
			}
		}
		active = next
	}
	for _, i := range active {
		results[i] = RaymarchResult{Outcome: RaymarchTookTooLong, T: ts[i], Steps: cfg.MaxIter}
	}
	return nil
}
