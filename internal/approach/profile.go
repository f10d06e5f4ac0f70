package approach

import (
	"fmt"
	"math"

	"github.com/yegors/appgate/internal/glidepath"
)

const (
	minAxisPad  = 50.0 // m
	axisPadFrac = 0.08
)

// sampleProfile evaluates the glide path at n evenly spaced distances over
// [0, maxKm] and derives padded plot limits from the altitude span.
func sampleProfile(model glidepath.Model, rw glidepath.RunwayProfile, maxKm float64, n int) ([]ProfilePoint, AxisLimits, error) {
	points := make([]ProfilePoint, n)
	yMin, yMax := math.Inf(1), math.Inf(-1)

	for i := range points {
		x := maxKm * (float64(i) / float64(n-1))
		y, err := model.Altitude(x, rw)
		if err != nil {
			return nil, AxisLimits{}, err
		}
		points[i] = ProfilePoint{DistanceKm: x, AltitudeM: y}
		yMin = math.Min(yMin, y)
		yMax = math.Max(yMax, y)
	}

	pad := math.Max(minAxisPad, axisPadFrac*(yMax-yMin))
	axes := AxisLimits{
		XMin: 0,
		XMax: maxKm,
		YMin: yMin - pad,
		YMax: yMax + pad,
	}
	if err := checkDerived(OpProfile, axes.YMin, axes.YMax); err != nil {
		return nil, AxisLimits{}, err
	}
	return points, axes, nil
}

// FormatDistance formats a distance the way the calculator displays it
func FormatDistance(km float64) string {
	return fmt.Sprintf("%.2f km", km)
}

// FormatAltitude formats an altitude the way the calculator displays it
func FormatAltitude(m float64) string {
	return fmt.Sprintf("%.1f m", m)
}

// FormatReadout renders the picked point read-out
func FormatReadout(distanceKm, altitudeM float64) string {
	return fmt.Sprintf("Select Point:\nDistance to Touchdown: %s\nAltitude:   %s\n",
		FormatDistance(distanceKm), FormatAltitude(altitudeM))
}
