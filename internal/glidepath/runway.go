package glidepath

// DefaultReferenceDatumHeight is the RDH assumed when none is published (typical CAT I ILS), in meters
const DefaultReferenceDatumHeight = 15.0

// RunwayProfile anchors a glide path vertically. It is a value type; copies
// cannot affect each other and there are no setters.
type RunwayProfile struct {
	thresholdElevation   float64 // m above datum
	referenceDatumHeight float64 // m above threshold
}

// NewRunwayProfile returns a runway profile with the given threshold
// elevation and reference datum height, both in meters.
func NewRunwayProfile(thresholdElevation, referenceDatumHeight float64) RunwayProfile {
	return RunwayProfile{
		thresholdElevation:   thresholdElevation,
		referenceDatumHeight: referenceDatumHeight,
	}
}

// ThresholdElevation returns the threshold elevation above the vertical datum in meters
func (r RunwayProfile) ThresholdElevation() float64 {
	return r.thresholdElevation
}

// ReferenceDatumHeight returns the glide path origin height above the threshold in meters
func (r RunwayProfile) ReferenceDatumHeight() float64 {
	return r.referenceDatumHeight
}

// OriginAltitude is the altitude of the glide path at zero distance from touchdown
func (r RunwayProfile) OriginAltitude() float64 {
	return r.thresholdElevation + r.referenceDatumHeight
}

func (r RunwayProfile) validate(op string) error {
	if err := checkFinite(op, "threshold_elevation", r.thresholdElevation); err != nil {
		return err
	}
	if err := checkFinite(op, "reference_datum_height", r.referenceDatumHeight); err != nil {
		return err
	}
	// Finite parts can still sum past the float range
	return checkFinite(op, "origin_altitude", r.OriginAltitude())
}
