package approach

import (
	"errors"
	"fmt"
	"math"

	"github.com/yegors/appgate/internal/config"
	"github.com/yegors/appgate/internal/glidepath"
	"github.com/yegors/appgate/internal/metrics"
	"github.com/yegors/appgate/internal/physics"
	"github.com/yegors/appgate/pkg/logger"
)

var (
	ErrRunwayNotFound = errors.New("runway not found")
	ErrInvalidRequest = errors.New("invalid request")
)

// Operation names used for metrics, in addition to the glidepath ones
const (
	OpCompute       = "compute"
	OpProfile       = "profile"
	OpReadout       = "readout"
	OpRateOfDescent = "rate_of_descent"
)

// DefaultGroundSpeeds are the ground speeds of the standard rate of descent table
var DefaultGroundSpeeds = []float64{70, 90, 100, 120, 140, 160}

const maxGroundSpeedKts = 400.0

type runway struct {
	info    RunwayInfo
	profile glidepath.RunwayProfile
}

// Service resolves runway/approach parameters and evaluates the glide path
// model for the HTTP and WebSocket surfaces. It is read-only after
// construction and safe for concurrent use.
type Service struct {
	runways   map[string]runway
	order     []string
	defaultID string

	descentAngle float64
	gateBuffer   float64

	plotMaxKm  float64
	samples    int
	maxSamples int

	metrics *metrics.Collector
	logger  *logger.Logger
}

// NewService creates a new approach service from a validated configuration
func NewService(cfg *config.Config, collector *metrics.Collector, log *logger.Logger) (*Service, error) {
	s := &Service{
		runways:      make(map[string]runway, len(cfg.Runways.Entries)),
		order:        make([]string, 0, len(cfg.Runways.Entries)),
		defaultID:    cfg.Runways.DefaultID,
		descentAngle: cfg.Approach.DescentAngleDeg,
		gateBuffer:   cfg.Approach.GateBufferKm,
		plotMaxKm:    cfg.Plot.MaxKm,
		samples:      cfg.Plot.Samples,
		maxSamples:   cfg.Plot.MaxSamples,
		metrics:      collector,
		logger:       log.Named("approach"),
	}

	for _, entry := range cfg.Runways.Entries {
		if _, exists := s.runways[entry.ID]; exists {
			return nil, fmt.Errorf("duplicate runway id: %s", entry.ID)
		}
		profile := entry.RunwayProfile()
		s.runways[entry.ID] = runway{
			profile: profile,
			info: RunwayInfo{
				ID:                    entry.ID,
				Name:                  entry.Name,
				ThresholdElevationM:   profile.ThresholdElevation(),
				ReferenceDatumHeightM: profile.ReferenceDatumHeight(),
				OriginAltitudeM:       profile.OriginAltitude(),
				Default:               entry.ID == cfg.Runways.DefaultID,
			},
		}
		s.order = append(s.order, entry.ID)
	}

	if _, ok := s.runways[s.defaultID]; !ok {
		return nil, fmt.Errorf("%w: default runway %q", ErrRunwayNotFound, s.defaultID)
	}

	s.logger.Info("Approach service ready",
		logger.Int("runways", len(s.order)),
		logger.String("default_runway", s.defaultID),
		logger.Float64("descent_angle_deg", s.descentAngle),
		logger.Float64("gate_buffer_km", s.gateBuffer))

	return s, nil
}

// Runways returns the catalog in configuration order
func (s *Service) Runways() []RunwayInfo {
	result := make([]RunwayInfo, 0, len(s.order))
	for _, id := range s.order {
		result = append(result, s.runways[id].info)
	}
	return result
}

// Runway returns a single catalog runway
func (s *Service) Runway(id string) (RunwayInfo, error) {
	rw, ok := s.runways[id]
	if !ok {
		return RunwayInfo{}, fmt.Errorf("%w: %s", ErrRunwayNotFound, id)
	}
	return rw.info, nil
}

// PlotDefaults returns the configured profile range and sample count
func (s *Service) PlotDefaults() (maxKm float64, samples int) {
	return s.plotMaxKm, s.samples
}

// Resolve builds the runway profile and glide path model for a request
func (s *Service) Resolve(p Params) (glidepath.RunwayProfile, glidepath.Model, Effective, error) {
	id := p.RunwayID
	if id == "" {
		id = s.defaultID
	}
	rw, ok := s.runways[id]
	if !ok {
		return glidepath.RunwayProfile{}, glidepath.Model{}, Effective{}, fmt.Errorf("%w: %s", ErrRunwayNotFound, id)
	}

	elev := rw.profile.ThresholdElevation()
	if p.ThresholdElevationM != nil {
		elev = *p.ThresholdElevationM
	}
	rdh := rw.profile.ReferenceDatumHeight()
	if p.ReferenceDatumHeightM != nil {
		rdh = *p.ReferenceDatumHeightM
	}
	angle := s.descentAngle
	if p.DescentAngleDeg != nil {
		angle = *p.DescentAngleDeg
	}
	buffer := s.gateBuffer
	if p.GateBufferKm != nil {
		buffer = *p.GateBufferKm
	}

	profile := glidepath.NewRunwayProfile(elev, rdh)
	model := glidepath.NewModel(angle, buffer)

	return profile, model, Effective{
		RunwayID:              id,
		ThresholdElevationM:   elev,
		ReferenceDatumHeightM: rdh,
		OriginAltitudeM:       profile.OriginAltitude(),
		DescentAngleDeg:       angle,
		GateBufferKm:          buffer,
	}, nil
}

// Altitude returns the glide path altitude (m) at distanceKm from touchdown
func (s *Service) Altitude(p Params, distanceKm float64) (float64, Effective, error) {
	rw, model, eff, err := s.Resolve(p)
	if err != nil {
		return 0, eff, err
	}
	alt, err := model.Altitude(distanceKm, rw)
	s.observe(glidepath.OpAltitude, err)
	return alt, eff, err
}

// DistanceOnGlide returns the distance (km) from touchdown at which the glide path reaches heightM
func (s *Service) DistanceOnGlide(p Params, heightM float64) (float64, Effective, error) {
	rw, model, eff, err := s.Resolve(p)
	if err != nil {
		return 0, eff, err
	}
	dist, err := model.DistanceOnGlide(heightM, rw)
	s.observe(glidepath.OpDistanceOnGlide, err)
	return dist, eff, err
}

// AppGate returns the approach gate distance (km) for an aircraft at heightM
func (s *Service) AppGate(p Params, heightM float64) (float64, Effective, error) {
	rw, model, eff, err := s.Resolve(p)
	if err != nil {
		return 0, eff, err
	}
	gate, err := model.AppGate(heightM, rw)
	s.observe(glidepath.OpAppGate, err)
	return gate, eff, err
}

// Compute evaluates every conversion for one aircraft height and one
// distance from touchdown
func (s *Service) Compute(p Params, heightM, distanceKm float64) (_ *Conversions, err error) {
	defer func() { s.observe(OpCompute, err) }()

	rw, model, eff, err := s.Resolve(p)
	if err != nil {
		return nil, err
	}

	gate, err := model.AppGate(heightM, rw)
	s.observe(glidepath.OpAppGate, err)
	if err != nil {
		return nil, err
	}
	onGlide, err := model.DistanceOnGlide(heightM, rw)
	s.observe(glidepath.OpDistanceOnGlide, err)
	if err != nil {
		return nil, err
	}
	alt, err := model.Altitude(distanceKm, rw)
	s.observe(glidepath.OpAltitude, err)
	if err != nil {
		return nil, err
	}

	gateNM, altFt := physics.KmToNM(gate), physics.MetersToFeet(alt)
	if err := checkDerived(OpCompute, gateNM, altFt); err != nil {
		return nil, err
	}

	s.logger.Debug("Computed conversions",
		logger.String("runway", eff.RunwayID),
		logger.Float64("height_m", heightM),
		logger.Float64("gate_km", gate),
		logger.Float64("distance_km", distanceKm),
		logger.Float64("altitude_m", alt))

	return &Conversions{
		Effective:         eff,
		HeightM:           heightM,
		GateDistanceKm:    gate,
		GateDistanceNM:    gateNM,
		DistanceOnGlideKm: onGlide,
		DistanceKm:        distanceKm,
		GlideAltitudeM:    alt,
		GlideAltitudeFt:   altFt,
		GradientPercent:   physics.DescentGradientPercent(eff.DescentAngleDeg),
		GradientFtPerNM:   physics.DescentGradientFtPerNM(eff.DescentAngleDeg),
		Display: ConversionDisplay{
			GateDistance:  FormatDistance(gate),
			GlideAltitude: FormatAltitude(alt),
		},
	}, nil
}

// Profile samples the glide path at evenly spaced distances over [0, maxKm].
// Zero values for maxKm or samples use the configured defaults.
func (s *Service) Profile(p Params, maxKm float64, samples int) (_ *Profile, err error) {
	defer func() { s.observe(OpProfile, err) }()

	maxKm, err = s.plotRange(maxKm)
	if err != nil {
		return nil, err
	}
	if samples == 0 {
		samples = s.samples
	}
	if samples < 2 || samples > s.maxSamples {
		return nil, fmt.Errorf("%w: samples must be between 2 and %d, got %d", ErrInvalidRequest, s.maxSamples, samples)
	}

	rw, model, eff, err := s.Resolve(p)
	if err != nil {
		return nil, err
	}

	points, axes, err := sampleProfile(model, rw, maxKm, samples)
	if err != nil {
		return nil, err
	}

	return &Profile{
		Effective: eff,
		MaxKm:     maxKm,
		Points:    points,
		Axes:      axes,
	}, nil
}

// Readout returns the glide path altitude at a picked distance. The
// distance is clamped to [0, maxKm] the way a click on the plot is.
func (s *Service) Readout(p Params, distanceKm, maxKm float64) (_ *Readout, err error) {
	defer func() { s.observe(OpReadout, err) }()

	maxKm, err = s.plotRange(maxKm)
	if err != nil {
		return nil, err
	}
	rw, model, eff, err := s.Resolve(p)
	if err != nil {
		return nil, err
	}

	clamped := math.Max(0, math.Min(maxKm, distanceKm))
	alt, err := model.Altitude(clamped, rw)
	if err != nil {
		return nil, err
	}
	altFt := physics.MetersToFeet(alt)
	if err := checkDerived(OpReadout, altFt); err != nil {
		return nil, err
	}

	return &Readout{
		Effective:  eff,
		DistanceKm: clamped,
		AltitudeM:  alt,
		AltitudeFt: altFt,
		Clamped:    clamped != distanceKm,
		Text:       FormatReadout(clamped, alt),
	}, nil
}

// RateOfDescent returns the vertical speed needed to follow the glide path
// at each ground speed. An empty list uses DefaultGroundSpeeds.
func (s *Service) RateOfDescent(p Params, groundSpeedsKts []float64) (_ *RateOfDescentTable, err error) {
	defer func() { s.observe(OpRateOfDescent, err) }()

	if len(groundSpeedsKts) == 0 {
		groundSpeedsKts = DefaultGroundSpeeds
	}
	for _, gs := range groundSpeedsKts {
		if math.IsNaN(gs) || gs <= 0 || gs > maxGroundSpeedKts {
			return nil, fmt.Errorf("%w: ground speed must be in (0, %.0f] kt, got %v", ErrInvalidRequest, maxGroundSpeedKts, gs)
		}
	}

	_, model, eff, err := s.Resolve(p)
	if err != nil {
		return nil, err
	}
	if err := model.Validate(); err != nil {
		return nil, err
	}

	rows := make([]RateOfDescentRow, 0, len(groundSpeedsKts))
	for _, gs := range groundSpeedsKts {
		rows = append(rows, RateOfDescentRow{
			GroundSpeedKts:  gs,
			GroundSpeedMs:   physics.KnotsToMetersPerSecond(gs),
			VerticalSpeedFt: physics.RateOfDescent(gs, eff.DescentAngleDeg),
		})
	}

	return &RateOfDescentTable{
		Effective:       eff,
		GradientPercent: physics.DescentGradientPercent(eff.DescentAngleDeg),
		GradientFtPerNM: physics.DescentGradientFtPerNM(eff.DescentAngleDeg),
		Rows:            rows,
	}, nil
}

func (s *Service) plotRange(maxKm float64) (float64, error) {
	if maxKm == 0 {
		return s.plotMaxKm, nil
	}
	if math.IsNaN(maxKm) || math.IsInf(maxKm, 0) || maxKm < 0 {
		return 0, fmt.Errorf("%w: max_km must be a positive number, got %v", ErrInvalidRequest, maxKm)
	}
	return maxKm, nil
}

// checkDerived rejects unit conversions that overflowed past a finite model result
func checkDerived(op string, values ...float64) error {
	for _, v := range values {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return &glidepath.DomainError{Op: op, Param: "result", Value: v, Reason: "overflows"}
		}
	}
	return nil
}

func (s *Service) observe(op string, err error) {
	outcome := metrics.OutcomeOK
	switch {
	case err == nil:
	case glidepath.IsDomainError(err):
		outcome = metrics.OutcomeDomainError
		s.logger.Debug("Rejected glide path input", logger.String("operation", op), logger.Error(err))
	default:
		outcome = metrics.OutcomeError
	}
	s.metrics.ObserveOperation(op, outcome)
}
