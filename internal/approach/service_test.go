package approach

import (
	"math"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yegors/appgate/internal/config"
	"github.com/yegors/appgate/internal/glidepath"
	"github.com/yegors/appgate/internal/metrics"
	"github.com/yegors/appgate/pkg/logger"
)

func ptr(v float64) *float64 { return &v }

func newTestService(t *testing.T) (*Service, *metrics.Collector) {
	t.Helper()

	cfg := config.Default()
	cfg.Runways.Entries = []config.RunwayEntry{
		{ID: "ZBAA_01", Name: "Beijing Capital 01", ThresholdElevationM: 25.5, ReferenceDatumHeightM: ptr(15)},
		{ID: "ZUUU_02L", Name: "Chengdu Shuangliu 02L", ThresholdElevationM: 495, ReferenceDatumHeightM: ptr(16.5)},
	}
	require.NoError(t, cfg.Validate())

	collector, err := metrics.NewCollector(prometheus.NewRegistry())
	require.NoError(t, err)

	svc, err := NewService(&cfg, collector, logger.NewNop())
	require.NoError(t, err)
	return svc, collector
}

func TestRunwayCatalog(t *testing.T) {
	svc, _ := newTestService(t)

	runways := svc.Runways()
	require.Len(t, runways, 2)
	assert.Equal(t, "ZBAA_01", runways[0].ID)
	assert.True(t, runways[0].Default)
	assert.False(t, runways[1].Default)
	assert.Equal(t, 40.5, runways[0].OriginAltitudeM)

	rw, err := svc.Runway("ZUUU_02L")
	require.NoError(t, err)
	assert.Equal(t, 511.5, rw.OriginAltitudeM)

	_, err = svc.Runway("KJFK_04L")
	assert.ErrorIs(t, err, ErrRunwayNotFound)
}

func TestResolveOverrides(t *testing.T) {
	svc, _ := newTestService(t)

	_, model, eff, err := svc.Resolve(Params{})
	require.NoError(t, err)
	assert.Equal(t, "ZBAA_01", eff.RunwayID)
	assert.Equal(t, 3.0, model.DescentAngle())
	assert.Equal(t, 2.0, model.GateBuffer())

	rw, model, eff, err := svc.Resolve(Params{
		RunwayID:              "ZUUU_02L",
		ReferenceDatumHeightM: ptr(0),
		DescentAngleDeg:       ptr(3.5),
		GateBufferKm:          ptr(0),
	})
	require.NoError(t, err)
	assert.Equal(t, 495.0, rw.OriginAltitude())
	assert.Equal(t, 0.0, eff.ReferenceDatumHeightM)
	assert.Equal(t, 3.5, model.DescentAngle())
	assert.Equal(t, 0.0, eff.GateBufferKm)

	_, _, _, err = svc.Resolve(Params{RunwayID: "NOPE"})
	assert.ErrorIs(t, err, ErrRunwayNotFound)
}

func TestCompute(t *testing.T) {
	svc, collector := newTestService(t)

	conv, err := svc.Compute(Params{}, 900, 10)
	require.NoError(t, err)

	assert.InDelta(t, 18.4002, conv.GateDistanceKm, 0.0001)
	assert.InDelta(t, 16.4002, conv.DistanceOnGlideKm, 0.0001)
	assert.InDelta(t, 9.935, conv.GateDistanceNM, 0.001)
	assert.InDelta(t, 564.578, conv.GlideAltitudeM, 0.001)
	assert.InDelta(t, 5.24, conv.GradientPercent, 0.01)
	assert.Equal(t, "18.40 km", conv.Display.GateDistance)
	assert.Equal(t, "564.6 m", conv.Display.GlideAltitude)
	assert.Equal(t, 40.5, conv.Effective.OriginAltitudeM)

	assert.Equal(t, 1.0, testutil.ToFloat64(collector.Operations.WithLabelValues(OpCompute, metrics.OutcomeOK)))
	assert.Equal(t, 1.0, testutil.ToFloat64(collector.Operations.WithLabelValues(glidepath.OpAppGate, metrics.OutcomeOK)))
}

func TestComputeBelowOrigin(t *testing.T) {
	svc, _ := newTestService(t)

	conv, err := svc.Compute(Params{}, 10, 0)
	require.NoError(t, err)
	assert.Equal(t, 0.0, conv.GateDistanceKm)
	assert.Equal(t, 0.0, conv.DistanceOnGlideKm)
	assert.Equal(t, 40.5, conv.GlideAltitudeM)
	assert.Equal(t, "0.00 km", conv.Display.GateDistance)
}

func TestComputeDomainErrors(t *testing.T) {
	svc, collector := newTestService(t)

	_, err := svc.Compute(Params{DescentAngleDeg: ptr(0)}, 900, 10)
	require.Error(t, err)
	assert.True(t, glidepath.IsDomainError(err))

	_, err = svc.Compute(Params{}, math.NaN(), 10)
	assert.True(t, glidepath.IsDomainError(err))

	_, err = svc.Compute(Params{}, 900, math.Inf(1))
	assert.True(t, glidepath.IsDomainError(err))

	_, err = svc.Compute(Params{RunwayID: "NOPE"}, 900, 10)
	assert.ErrorIs(t, err, ErrRunwayNotFound)

	assert.Equal(t, 2.0, testutil.ToFloat64(collector.Operations.WithLabelValues(glidepath.OpAppGate, metrics.OutcomeDomainError)))
	assert.Equal(t, 1.0, testutil.ToFloat64(collector.Operations.WithLabelValues(glidepath.OpAltitude, metrics.OutcomeDomainError)))

	// Every failed compute is counted, not only the successful ones
	assert.Equal(t, 3.0, testutil.ToFloat64(collector.Operations.WithLabelValues(OpCompute, metrics.OutcomeDomainError)))
	assert.Equal(t, 1.0, testutil.ToFloat64(collector.Operations.WithLabelValues(OpCompute, metrics.OutcomeError)))
	assert.Equal(t, 0.0, testutil.ToFloat64(collector.Operations.WithLabelValues(OpCompute, metrics.OutcomeOK)))
}

func TestOverflowingResults(t *testing.T) {
	svc, collector := newTestService(t)

	// The glide path altitude itself leaves the float range
	_, _, err := svc.Altitude(Params{}, 1e307)
	require.Error(t, err)
	var de *glidepath.DomainError
	require.ErrorAs(t, err, &de)
	assert.Equal(t, "result", de.Param)
	assert.Equal(t, "overflows", de.Reason)

	_, err = svc.Compute(Params{}, 900, 1e307)
	assert.True(t, glidepath.IsDomainError(err))

	// Meters fit, feet do not
	_, err = svc.Readout(Params{}, 2e306, 2e306)
	require.ErrorAs(t, err, &de)
	assert.Equal(t, OpReadout, de.Op)
	assert.Equal(t, "result", de.Param)

	// Every sample fits, the padded axis does not
	_, err = svc.Profile(Params{}, 3.3e306, 2)
	require.ErrorAs(t, err, &de)
	assert.Equal(t, OpProfile, de.Op)

	assert.Equal(t, 1.0, testutil.ToFloat64(collector.Operations.WithLabelValues(OpCompute, metrics.OutcomeDomainError)))
	assert.Equal(t, 1.0, testutil.ToFloat64(collector.Operations.WithLabelValues(OpReadout, metrics.OutcomeDomainError)))
	assert.Equal(t, 1.0, testutil.ToFloat64(collector.Operations.WithLabelValues(OpProfile, metrics.OutcomeDomainError)))
}

func TestSingleConversions(t *testing.T) {
	svc, _ := newTestService(t)

	alt, eff, err := svc.Altitude(Params{}, 0)
	require.NoError(t, err)
	assert.Equal(t, 40.5, alt)
	assert.Equal(t, "ZBAA_01", eff.RunwayID)

	dist, _, err := svc.DistanceOnGlide(Params{}, 900)
	require.NoError(t, err)
	gate, _, err := svc.AppGate(Params{}, 900)
	require.NoError(t, err)
	assert.InDelta(t, dist+2, gate, 1e-12)

	gate, _, err = svc.AppGate(Params{GateBufferKm: ptr(5)}, 900)
	require.NoError(t, err)
	assert.InDelta(t, dist+5, gate, 1e-12)
}

func TestProfile(t *testing.T) {
	svc, collector := newTestService(t)

	profile, err := svc.Profile(Params{}, 0, 0)
	require.NoError(t, err)
	require.Len(t, profile.Points, 250)
	assert.Equal(t, 25.0, profile.MaxKm)

	first, last := profile.Points[0], profile.Points[len(profile.Points)-1]
	assert.Equal(t, 0.0, first.DistanceKm)
	assert.Equal(t, 40.5, first.AltitudeM)
	assert.InDelta(t, 25.0, last.DistanceKm, 1e-12)

	// Span ~1310 m, so the 8% pad wins over the 50 m floor
	span := last.AltitudeM - first.AltitudeM
	pad := 0.08 * span
	assert.Equal(t, 0.0, profile.Axes.XMin)
	assert.Equal(t, 25.0, profile.Axes.XMax)
	assert.InDelta(t, first.AltitudeM-pad, profile.Axes.YMin, 1e-9)
	assert.InDelta(t, last.AltitudeM+pad, profile.Axes.YMax, 1e-9)

	for i := 1; i < len(profile.Points); i++ {
		assert.Greater(t, profile.Points[i].DistanceKm, profile.Points[i-1].DistanceKm)
	}

	assert.Equal(t, 1.0, testutil.ToFloat64(collector.Operations.WithLabelValues(OpProfile, metrics.OutcomeOK)))
}

func TestProfileMinimumPad(t *testing.T) {
	svc, _ := newTestService(t)

	profile, err := svc.Profile(Params{}, 0.5, 2)
	require.NoError(t, err)
	require.Len(t, profile.Points, 2)

	// Span ~26 m, so the 50 m floor applies
	assert.InDelta(t, 40.5-50, profile.Axes.YMin, 1e-9)
	assert.InDelta(t, profile.Points[1].AltitudeM+50, profile.Axes.YMax, 1e-9)
}

func TestProfileInvalidRequests(t *testing.T) {
	svc, _ := newTestService(t)

	_, err := svc.Profile(Params{}, -1, 0)
	assert.ErrorIs(t, err, ErrInvalidRequest)

	_, err = svc.Profile(Params{}, math.NaN(), 0)
	assert.ErrorIs(t, err, ErrInvalidRequest)

	_, err = svc.Profile(Params{}, 0, 1)
	assert.ErrorIs(t, err, ErrInvalidRequest)

	_, err = svc.Profile(Params{}, 0, 5001)
	assert.ErrorIs(t, err, ErrInvalidRequest)

	_, err = svc.Profile(Params{DescentAngleDeg: ptr(90)}, 0, 0)
	assert.True(t, glidepath.IsDomainError(err))
}

func TestReadout(t *testing.T) {
	svc, _ := newTestService(t)

	r, err := svc.Readout(Params{}, 10, 0)
	require.NoError(t, err)
	assert.False(t, r.Clamped)
	assert.Equal(t, 10.0, r.DistanceKm)
	assert.InDelta(t, 564.578, r.AltitudeM, 0.001)
	assert.Equal(t, "Select Point:\nDistance to Touchdown: 10.00 km\nAltitude:   564.6 m\n", r.Text)

	r, err = svc.Readout(Params{}, 40, 0)
	require.NoError(t, err)
	assert.True(t, r.Clamped)
	assert.Equal(t, 25.0, r.DistanceKm)

	r, err = svc.Readout(Params{}, -3, 0)
	require.NoError(t, err)
	assert.True(t, r.Clamped)
	assert.Equal(t, 0.0, r.DistanceKm)
	assert.Equal(t, 40.5, r.AltitudeM)

	r, err = svc.Readout(Params{}, 8, 5)
	require.NoError(t, err)
	assert.Equal(t, 5.0, r.DistanceKm)
}

func TestRateOfDescent(t *testing.T) {
	svc, collector := newTestService(t)

	table, err := svc.RateOfDescent(Params{}, nil)
	require.NoError(t, err)
	require.Len(t, table.Rows, len(DefaultGroundSpeeds))
	assert.InDelta(t, 318.5, table.GradientFtPerNM, 0.5)

	for _, row := range table.Rows {
		if row.GroundSpeedKts == 140 {
			assert.InDelta(t, 743, row.VerticalSpeedFt, 1)
			assert.InDelta(t, 72.02, row.GroundSpeedMs, 0.01)
		}
	}

	table, err = svc.RateOfDescent(Params{DescentAngleDeg: ptr(5.5)}, []float64{100})
	require.NoError(t, err)
	require.Len(t, table.Rows, 1)
	assert.Greater(t, table.Rows[0].VerticalSpeedFt, 900.0)

	_, err = svc.RateOfDescent(Params{}, []float64{0})
	assert.ErrorIs(t, err, ErrInvalidRequest)
	_, err = svc.RateOfDescent(Params{}, []float64{500})
	assert.ErrorIs(t, err, ErrInvalidRequest)

	_, err = svc.RateOfDescent(Params{DescentAngleDeg: ptr(-1)}, nil)
	assert.True(t, glidepath.IsDomainError(err))

	assert.Equal(t, 1.0, testutil.ToFloat64(collector.Operations.WithLabelValues(OpRateOfDescent, metrics.OutcomeDomainError)))
}
