package approach

// Params selects a runway from the catalog and optionally overrides any of
// the glide path inputs for a single request. Nil fields fall back to the
// catalog entry and the configured approach defaults.
type Params struct {
	RunwayID              string   `json:"runway_id,omitempty"`
	ThresholdElevationM   *float64 `json:"threshold_elevation_m,omitempty"`
	ReferenceDatumHeightM *float64 `json:"reference_datum_height_m,omitempty"`
	DescentAngleDeg       *float64 `json:"descent_angle_deg,omitempty"`
	GateBufferKm          *float64 `json:"gate_buffer_km,omitempty"`
}

// Effective is the fully resolved set of inputs a result was computed from
type Effective struct {
	RunwayID              string  `json:"runway_id"`
	ThresholdElevationM   float64 `json:"threshold_elevation_m"`
	ReferenceDatumHeightM float64 `json:"reference_datum_height_m"`
	OriginAltitudeM       float64 `json:"origin_altitude_m"`
	DescentAngleDeg       float64 `json:"descent_angle_deg"`
	GateBufferKm          float64 `json:"gate_buffer_km"`
}

// RunwayInfo describes a catalog runway
type RunwayInfo struct {
	ID                    string  `json:"id"`
	Name                  string  `json:"name,omitempty"`
	ThresholdElevationM   float64 `json:"threshold_elevation_m"`
	ReferenceDatumHeightM float64 `json:"reference_datum_height_m"`
	OriginAltitudeM       float64 `json:"origin_altitude_m"`
	Default               bool    `json:"default"`
}

// Conversions is the full set of read-outs for one aircraft height and one
// distance from touchdown
type Conversions struct {
	Effective Effective `json:"effective"`

	HeightM           float64 `json:"height_m"`
	GateDistanceKm    float64 `json:"gate_distance_km"`
	GateDistanceNM    float64 `json:"gate_distance_nm"`
	DistanceOnGlideKm float64 `json:"distance_on_glide_km"`

	DistanceKm      float64 `json:"distance_km"`
	GlideAltitudeM  float64 `json:"glide_altitude_m"`
	GlideAltitudeFt float64 `json:"glide_altitude_ft"`

	GradientPercent float64 `json:"gradient_percent"`
	GradientFtPerNM float64 `json:"gradient_ft_per_nm"`

	Display ConversionDisplay `json:"display"`
}

// ConversionDisplay carries the values formatted the way the calculator shows them
type ConversionDisplay struct {
	GateDistance  string `json:"gate_distance"`
	GlideAltitude string `json:"glide_altitude"`
}

// ProfilePoint is one sample of the glide path curve
type ProfilePoint struct {
	DistanceKm float64 `json:"distance_km"`
	AltitudeM  float64 `json:"altitude_m"`
}

// AxisLimits are the plot bounds for a profile
type AxisLimits struct {
	XMin float64 `json:"x_min"`
	XMax float64 `json:"x_max"`
	YMin float64 `json:"y_min"`
	YMax float64 `json:"y_max"`
}

// Profile is the glide path sampled over [0, MaxKm]
type Profile struct {
	Effective Effective      `json:"effective"`
	MaxKm     float64        `json:"max_km"`
	Points    []ProfilePoint `json:"points"`
	Axes      AxisLimits     `json:"axes"`
}

// Readout is the glide path altitude at a picked distance
type Readout struct {
	Effective  Effective `json:"effective"`
	DistanceKm float64   `json:"distance_km"`
	AltitudeM  float64   `json:"altitude_m"`
	AltitudeFt float64   `json:"altitude_ft"`
	Clamped    bool      `json:"clamped"` // the picked distance was outside [0, max_km]
	Text       string    `json:"text"`
}

// RateOfDescentRow is one line of a rate of descent table
type RateOfDescentRow struct {
	GroundSpeedKts  float64 `json:"ground_speed_kts"`
	GroundSpeedMs   float64 `json:"ground_speed_ms"`
	VerticalSpeedFt float64 `json:"vertical_speed_fpm"`
}

// RateOfDescentTable lists the vertical speed needed to stay on the path
type RateOfDescentTable struct {
	Effective       Effective          `json:"effective"`
	GradientPercent float64            `json:"gradient_percent"`
	GradientFtPerNM float64            `json:"gradient_ft_per_nm"`
	Rows            []RateOfDescentRow `json:"rows"`
}
