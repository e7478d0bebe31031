package calibration

import (
	"errors"
	"fmt"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// Sentinel error kinds for this package.
var (
	ErrLoadCalibration    = errors.New("load calibration failed")
	ErrInvalidCalibration = errors.New("invalid calibration")
)

// LoadFile overlays a YAML calibration file on top of Default. Only the
// keys present in the file are overridden; the result is validated so a
// partial file cannot produce an unusable calibration.
func LoadFile(path string) (Calibration, error) {
	base := Default()

	k := koanf.New(".")
	if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
		return Calibration{}, fmt.Errorf("%w: %w", ErrLoadCalibration, err)
	}
	cal := base
	if err := k.UnmarshalWithConf("", &cal, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return Calibration{}, fmt.Errorf("%w: %w", ErrLoadCalibration, err)
	}
	if err := cal.Validate(); err != nil {
		return Calibration{}, err
	}
	return cal, nil
}

// Validate checks the structural invariants a calibration must hold.
func (c Calibration) Validate() error {
	if c.Version == "" {
		return fmt.Errorf("%w: missing version", ErrInvalidCalibration)
	}
	if c.CTLTimeConstantDays <= 0 || c.ATLTimeConstantDays <= 0 {
		return fmt.Errorf("%w: non-positive EMA time constant", ErrInvalidCalibration)
	}
	sum := c.AttainmentWeight + c.EnvelopeWeight + c.DurabilityWeight + c.EvidenceWeight
	if sum < 0.999 || sum > 1.001 {
		return fmt.Errorf("%w: composite weights sum to %.4f, want 1", ErrInvalidCalibration, sum)
	}
	if c.SafeLowFactor <= 0 || c.SafeHighFactor < c.SafeLowFactor {
		return fmt.Errorf("%w: safe band factors out of order", ErrInvalidCalibration)
	}
	if c.ATLSpikeCap > 2.5 {
		return fmt.Errorf("%w: atl_spike_cap above hard limit 2.5", ErrInvalidCalibration)
	}
	if len(c.WeekSpreadWeights) != 7 {
		return fmt.Errorf("%w: week_spread_weights must have 7 entries", ErrInvalidCalibration)
	}
	if len(c.CandidateRampPcts) == 0 {
		return fmt.Errorf("%w: empty candidate_ramp_pcts", ErrInvalidCalibration)
	}
	if c.SmoothMaxStep <= 0 || c.SmoothPasses < 1 {
		return fmt.Errorf("%w: smoothing parameters out of range", ErrInvalidCalibration)
	}
	return nil
}
