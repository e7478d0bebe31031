// Package calibration carries the versioned tuning constants used by
// every engine stage. Computations never read process-wide config; an
// explicit Calibration value is threaded through instead, so golden
// tests can pin exact output to a calibration version.
package calibration

// Calibration is one immutable, versioned set of engine constants.
// The zero value is not usable; start from Default and override via a
// calibration file when needed.
type Calibration struct {
	Version string `koanf:"version"`

	// Load state simulation (EMA time constants in days).
	CTLTimeConstantDays float64 `koanf:"ctl_time_constant_days"`
	ATLTimeConstantDays float64 `koanf:"atl_time_constant_days"`

	// Readiness composite weights. Must sum to 1.
	AttainmentWeight float64 `koanf:"attainment_weight"`
	EnvelopeWeight   float64 `koanf:"envelope_weight"`
	DurabilityWeight float64 `koanf:"durability_weight"`
	EvidenceWeight   float64 `koanf:"evidence_weight"`

	// Capacity envelope.
	SafeLowFactor     float64 `koanf:"safe_low_factor"`
	SafeHighFactor    float64 `koanf:"safe_high_factor"`
	DefaultRampPct    float64 `koanf:"default_ramp_pct"`
	OverHighWeight    float64 `koanf:"over_high_weight"`
	UnderLowWeight    float64 `koanf:"under_low_weight"`
	OverRampWeight    float64 `koanf:"over_ramp_weight"`
	EdgePenaltyFloor  float64 `koanf:"edge_penalty_floor"`
	OutsidePenalty    float64 `koanf:"outside_penalty"`
	MaintenanceWeekly float64 `koanf:"maintenance_weekly"`

	// Event recovery model.
	RecoveryDaysPerHour   float64 `koanf:"recovery_days_per_hour"`
	RecoveryBaseDaysMin   float64 `koanf:"recovery_base_days_min"`
	RecoveryBaseDaysMax   float64 `koanf:"recovery_base_days_max"`
	FullRecoveryBase      float64 `koanf:"full_recovery_base"`
	FullRecoverySlope     float64 `koanf:"full_recovery_slope"`
	FunctionalFraction    float64 `koanf:"functional_fraction"`
	BikeIntensityFactor   float64 `koanf:"bike_intensity_factor"`
	ATLSpikeBase          float64 `koanf:"atl_spike_base"`
	ATLSpikePerHour       float64 `koanf:"atl_spike_per_hour"`
	ATLSpikeCap           float64 `koanf:"atl_spike_cap"`
	ThresholdIntensity    float64 `koanf:"threshold_intensity"`
	HRTestIntensity       float64 `koanf:"hr_test_intensity"`
	HalfLifeDivisor       float64 `koanf:"half_life_divisor"`
	OverloadScale         float64 `koanf:"overload_scale"`
	PenaltyIntensityShare float64 `koanf:"penalty_intensity_share"`
	PenaltyCap            float64 `koanf:"penalty_cap"`

	// Duration-bucket fatigue intensities (run; bike multiplies down).
	IntensityShortRace    float64 `koanf:"intensity_short_race"`
	IntensityHalfClass    float64 `koanf:"intensity_half_class"`
	IntensityMarathon     float64 `koanf:"intensity_marathon"`
	IntensityUltra        float64 `koanf:"intensity_ultra"`
	IntensityHundredMile  float64 `koanf:"intensity_hundred_mile"`
	BucketShortRaceHours  float64 `koanf:"bucket_short_race_hours"`
	BucketHalfClassHours  float64 `koanf:"bucket_half_class_hours"`
	BucketMarathonHours   float64 `koanf:"bucket_marathon_hours"`
	BucketUltraHours      float64 `koanf:"bucket_ultra_hours"`

	// Goal demand mapping (required CTL from effort duration).
	DemandCTLBase    float64 `koanf:"demand_ctl_base"`
	DemandCTLPerHour float64 `koanf:"demand_ctl_per_hour"`
	DemandCTLMin     float64 `koanf:"demand_ctl_min"`
	DemandCTLMax     float64 `koanf:"demand_ctl_max"`
	DemandHRTest     float64 `koanf:"demand_hr_test"`

	// Attainment.
	AttainmentGapSlope   float64 `koanf:"attainment_gap_slope"`
	InfeasibleDemandFrac float64 `koanf:"infeasible_demand_frac"`

	// Durability.
	MonotonyThreshold   float64 `koanf:"monotony_threshold"`
	MonotonyPenalty     float64 `koanf:"monotony_penalty"`
	MonotonyCap         float64 `koanf:"monotony_cap"`
	StrainThreshold     float64 `koanf:"strain_threshold"`
	StrainPenalty       float64 `koanf:"strain_penalty"`
	DeloadEveryWeeks    int     `koanf:"deload_every_weeks"`
	DeloadDebtPenalty   float64 `koanf:"deload_debt_penalty"`
	RecoveryDebtScale   float64 `koanf:"recovery_debt_scale"`

	// Evidence tiers and confidence.
	EvidenceNone          float64 `koanf:"evidence_none"`
	EvidenceSparse        float64 `koanf:"evidence_sparse"`
	EvidenceStale         float64 `koanf:"evidence_stale"`
	EvidenceGood          float64 `koanf:"evidence_good"`
	SparseHistoryWeeks    int     `koanf:"sparse_history_weeks"`
	StaleAfterDays        int     `koanf:"stale_after_days"`
	ConfidenceBase        float64 `koanf:"confidence_base"`
	ConfidencePerEvidence float64 `koanf:"confidence_per_evidence"`
	ConfidenceHorizonLoss float64 `koanf:"confidence_horizon_loss"`
	ConfidenceHorizonCap  float64 `koanf:"confidence_horizon_cap"`

	// Weekly allocator.
	LookaheadWeeks     int       `koanf:"lookahead_weeks"`
	CandidateRampPcts  []float64 `koanf:"candidate_ramp_pcts"`
	DeloadFactor       float64   `koanf:"deload_factor"`
	TaperRaceWeekFrac  float64   `koanf:"taper_race_week_frac"`
	TaperPreWeekFrac   float64   `koanf:"taper_pre_week_frac"`
	RecoveryWeekFrac   float64   `koanf:"recovery_week_frac"`
	RaceTSSPerHour     float64   `koanf:"race_tss_per_hour"`
	WeekSpreadWeights  []float64 `koanf:"week_spread_weights"`

	// Taper / peak windows and conflict handling.
	TaperBaseDays      float64 `koanf:"taper_base_days"`
	TaperIntensityDays float64 `koanf:"taper_intensity_days"`
	PeakWindowFraction float64 `koanf:"peak_window_fraction"`
	PeakAnchorBoost    float64 `koanf:"peak_anchor_boost"`

	// Smoothing.
	SmoothMaxStep float64 `koanf:"smooth_max_step"`
	SmoothPasses  int     `koanf:"smooth_passes"`
}

// Default returns calibration version v1, the tuned constants carried
// over from the original system.
func Default() Calibration {
	return Calibration{
		Version: "v1",

		CTLTimeConstantDays: 42,
		ATLTimeConstantDays: 7,

		AttainmentWeight: 0.45,
		EnvelopeWeight:   0.30,
		DurabilityWeight: 0.15,
		EvidenceWeight:   0.10,

		SafeLowFactor:     0.75,
		SafeHighFactor:    1.15,
		DefaultRampPct:    10,
		OverHighWeight:    1.0,
		UnderLowWeight:    1.0,
		OverRampWeight:    0.8,
		EdgePenaltyFloor:  0.02,
		OutsidePenalty:    0.15,
		MaintenanceWeekly: 140,

		RecoveryDaysPerHour:   3.5,
		RecoveryBaseDaysMin:   2,
		RecoveryBaseDaysMax:   28,
		FullRecoveryBase:      0.7,
		FullRecoverySlope:     0.3,
		FunctionalFraction:    0.4,
		BikeIntensityFactor:   0.9,
		ATLSpikeBase:          1.2,
		ATLSpikePerHour:       0.15,
		ATLSpikeCap:           2.5,
		ThresholdIntensity:    75,
		HRTestIntensity:       65,
		HalfLifeDivisor:       3,
		OverloadScale:         30,
		PenaltyIntensityShare: 0.5,
		PenaltyCap:            60,

		IntensityShortRace:   92,
		IntensityHalfClass:   87,
		IntensityMarathon:    82,
		IntensityUltra:       80,
		IntensityHundredMile: 72,
		BucketShortRaceHours: 0.75,
		BucketHalfClassHours: 2.5,
		BucketMarathonHours:  4.75,
		BucketUltraHours:     12,

		DemandCTLBase:    35,
		DemandCTLPerHour: 6.5,
		DemandCTLMin:     38,
		DemandCTLMax:     90,
		DemandHRTest:     40,

		AttainmentGapSlope:   1.5,
		InfeasibleDemandFrac: 0.85,

		MonotonyThreshold: 1.5,
		MonotonyPenalty:   15,
		MonotonyCap:       5,
		StrainThreshold:   1200,
		StrainPenalty:     0.015,
		DeloadEveryWeeks:  4,
		DeloadDebtPenalty: 12,
		RecoveryDebtScale: 70,

		EvidenceNone:          30,
		EvidenceSparse:        55,
		EvidenceStale:         70,
		EvidenceGood:          88,
		SparseHistoryWeeks:    4,
		StaleAfterDays:        21,
		ConfidenceBase:        0.30,
		ConfidencePerEvidence: 0.0065,
		ConfidenceHorizonLoss: 0.003,
		ConfidenceHorizonCap:  0.35,

		LookaheadWeeks:    6,
		CandidateRampPcts: []float64{-30, -15, -7.5, 0, 4, 7, 10},
		DeloadFactor:      0.7,
		TaperRaceWeekFrac: 0.35,
		TaperPreWeekFrac:  0.7,
		RecoveryWeekFrac:  0.35,
		RaceTSSPerHour:    26,
		WeekSpreadWeights: []float64{0.20, 0.13, 0.17, 0.05, 0.15, 0.22, 0.08},

		TaperBaseDays:      5,
		TaperIntensityDays: 3,
		PeakWindowFraction: 0.6,
		PeakAnchorBoost:    2,

		SmoothMaxStep: 6,
		SmoothPasses:  3,
	}
}

// CTLAlpha returns the EMA smoothing factor for chronic load.
func (c Calibration) CTLAlpha() float64 { return 2 / (c.CTLTimeConstantDays + 1) }

// ATLAlpha returns the EMA smoothing factor for acute load.
func (c Calibration) ATLAlpha() float64 { return 2 / (c.ATLTimeConstantDays + 1) }

// Clamp bounds v to [lo, hi].
func Clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// ClampScore bounds a sub-score to the canonical [0, 100] range.
func ClampScore(v float64) float64 { return Clamp(v, 0, 100) }
