package glidepath

import "math"

const (
	DefaultDescentAngle = 3.0 // degrees
	DefaultGateBuffer   = 2.0 // km

	metersPerKm = 1000.0
)

const (
	OpAltitude        = "altitude"
	OpDistanceOnGlide = "distance_on_glide"
	OpAppGate         = "appgate"
)

// Model is a straight-line glide path defined by a constant descent angle,
// plus the buffer added to the approach gate distance. All three conversions
// evaluate the same line:
//
//	altitude(d) = origin + tan(angle) * d * 1000
//
// Model holds no state between calls and is safe for concurrent use.
type Model struct {
	descentAngle float64 // degrees
	gateBuffer   float64 // km
}

// NewModel returns a glide path model. Values are checked when an
// operation is evaluated, not here.
func NewModel(descentAngleDegrees, gateBufferKm float64) Model {
	return Model{descentAngle: descentAngleDegrees, gateBuffer: gateBufferKm}
}

// DefaultModel returns a 3 degree glide path with a 2 km gate buffer
func DefaultModel() Model {
	return NewModel(DefaultDescentAngle, DefaultGateBuffer)
}

// DescentAngle returns the descent angle in degrees
func (m Model) DescentAngle() float64 { return m.descentAngle }

// GateBuffer returns the gate buffer in km
func (m Model) GateBuffer() float64 { return m.gateBuffer }

// Validate checks that every operation of the model can be evaluated:
// the descent angle must lie strictly between 0 and 90 degrees and the
// buffer must be finite.
func (m Model) Validate() error {
	if err := m.checkInverseAngle("model"); err != nil {
		return err
	}
	return checkFinite("model", "gate_buffer", m.gateBuffer)
}

// slope is the vertical rise in meters per meter of ground distance
func (m Model) slope() float64 {
	return math.Tan(m.descentAngle * math.Pi / 180)
}

// Altitude returns the glide path altitude in meters at distanceKm from
// touchdown. Negative distances are treated as zero. An angle of 0 gives a
// flat line; angles below 0 or at/above 90 are rejected.
func (m Model) Altitude(distanceKm float64, runway RunwayProfile) (float64, error) {
	if err := checkFinite(OpAltitude, "distance_km", distanceKm); err != nil {
		return 0, err
	}
	if err := runway.validate(OpAltitude); err != nil {
		return 0, err
	}
	if err := checkFinite(OpAltitude, "descent_angle", m.descentAngle); err != nil {
		return 0, err
	}
	if m.descentAngle < 0 {
		return 0, &DomainError{Op: OpAltitude, Param: "descent_angle", Value: m.descentAngle, Reason: "must not be negative"}
	}
	if m.descentAngle >= 90 {
		return 0, &DomainError{Op: OpAltitude, Param: "descent_angle", Value: m.descentAngle, Reason: "must be below 90 degrees"}
	}

	distanceKm = math.Max(0, distanceKm)
	return checkResult(OpAltitude, runway.OriginAltitude()+m.slope()*distanceKm*metersPerKm)
}

// DistanceOnGlide returns the distance from touchdown in km at which the
// glide path reaches heightM. Heights at or below the glide path origin
// give exactly 0.
func (m Model) DistanceOnGlide(heightM float64, runway RunwayProfile) (float64, error) {
	deltaH, err := m.heightAboveOrigin(OpDistanceOnGlide, heightM, runway)
	if err != nil {
		return 0, err
	}
	if deltaH <= 0 {
		return 0, nil
	}
	return checkResult(OpDistanceOnGlide, m.inverse(deltaH))
}

// AppGate returns the approach gate distance in km for an aircraft at
// heightM: the on-glide distance plus the gate buffer.
//
// At or below the glide path origin the result is exactly 0; the buffer is
// only added above the origin.
func (m Model) AppGate(heightM float64, runway RunwayProfile) (float64, error) {
	if err := checkFinite(OpAppGate, "gate_buffer", m.gateBuffer); err != nil {
		return 0, err
	}
	deltaH, err := m.heightAboveOrigin(OpAppGate, heightM, runway)
	if err != nil {
		return 0, err
	}
	if deltaH <= 0 {
		return 0, nil
	}
	return checkResult(OpAppGate, m.inverse(deltaH)+m.gateBuffer)
}

// inverse maps a positive height above the origin back onto the line used by Altitude
func (m Model) inverse(deltaH float64) float64 {
	return deltaH / m.slope() / metersPerKm
}

func (m Model) heightAboveOrigin(op string, heightM float64, runway RunwayProfile) (float64, error) {
	if err := checkFinite(op, "height_m", heightM); err != nil {
		return 0, err
	}
	if err := runway.validate(op); err != nil {
		return 0, err
	}
	if err := m.checkInverseAngle(op); err != nil {
		return 0, err
	}
	return heightM - runway.OriginAltitude(), nil
}

func (m Model) checkInverseAngle(op string) error {
	if err := checkFinite(op, "descent_angle", m.descentAngle); err != nil {
		return err
	}
	if m.descentAngle <= 0 {
		return &DomainError{Op: op, Param: "descent_angle", Value: m.descentAngle, Reason: "must be above 0 degrees"}
	}
	if m.descentAngle >= 90 {
		return &DomainError{Op: op, Param: "descent_angle", Value: m.descentAngle, Reason: "must be below 90 degrees"}
	}
	return nil
}
