package analyzer

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func ptrInt(v int) *int           { return &v }
func ptrFloat(v float64) *float64 { return &v }

func defaultConfig() Config {
	return Config{
		CriticalHRLow:    50,
		CriticalHRHigh:   120,
		CriticalSpO2Low:  90,
		AnomalyThreshold: 0.3,
		EnableAlerts:     true,
	}
}

func TestNormalRangeYieldsNormalClassificationNoAlert(t *testing.T) {
	r := Reading{HeartRate: ptrInt(72), SpO2: ptrInt(98), Temperature: ptrFloat(36.8)}
	res := Analyze(r, defaultConfig())

	require.Equal(t, "normal", res.Classification)
	require.False(t, res.AnomalyDetected)
	require.False(t, res.ShouldAlert)
	require.Equal(t, AlertNone, res.AlertLevel)
}

func TestLowSpO2IsAlwaysCritical(t *testing.T) {
	r := Reading{HeartRate: ptrInt(75), SpO2: ptrInt(85), Temperature: ptrFloat(36.8)}
	res := Analyze(r, defaultConfig())

	require.Equal(t, AlertCritical, res.AlertLevel)
	require.True(t, res.AnomalyDetected)
	require.True(t, res.ShouldAlert)
}

func TestLowHeartRateIsCritical(t *testing.T) {
	r := Reading{HeartRate: ptrInt(30), SpO2: ptrInt(98), Temperature: ptrFloat(36.8)}
	res := Analyze(r, defaultConfig())
	require.Equal(t, AlertCritical, res.AlertLevel)
}

func TestHighTemperatureIsHighUnlessCritical(t *testing.T) {
	r := Reading{HeartRate: ptrInt(72), SpO2: ptrInt(98), Temperature: ptrFloat(39.2)}
	res := Analyze(r, defaultConfig())
	require.Equal(t, AlertHigh, res.AlertLevel)

	// but a simultaneous critical spo2 dominates
	r2 := Reading{HeartRate: ptrInt(72), SpO2: ptrInt(85), Temperature: ptrFloat(39.2)}
	res2 := Analyze(r2, defaultConfig())
	require.Equal(t, AlertCritical, res2.AlertLevel)
}

func TestZeroVitalsLowerSignalQuality(t *testing.T) {
	r := Reading{HeartRate: ptrInt(0), SpO2: ptrInt(98), Temperature: ptrFloat(36.8)}
	q := SignalQuality(r)
	require.InDelta(t, 0.6, q, 0.001)
}

func TestOutOfRangeVitalsLowerSignalQuality(t *testing.T) {
	r := Reading{HeartRate: ptrInt(260), SpO2: ptrInt(98), Temperature: ptrFloat(36.8)}
	q := SignalQuality(r)
	require.InDelta(t, 0.7, q, 0.001)
}

func TestAnomalyScoreIsClampedToOne(t *testing.T) {
	r := Reading{HeartRate: ptrInt(30), SpO2: ptrInt(80), Temperature: ptrFloat(39.5)}
	res := Analyze(r, defaultConfig())
	require.LessOrEqual(t, res.AnomalyScore, 1.0)
}

func TestAlertSuppressedWhenDisabled(t *testing.T) {
	cfg := defaultConfig()
	cfg.EnableAlerts = false
	r := Reading{HeartRate: ptrInt(30), SpO2: ptrInt(80), Temperature: ptrFloat(39.5)}
	res := Analyze(r, cfg)
	require.False(t, res.ShouldAlert)
}

func TestMissingVitalsSkipTheirRules(t *testing.T) {
	r := Reading{SpO2: ptrInt(98)}
	res := Analyze(r, defaultConfig())
	require.Equal(t, "normal", res.Classification)
	require.False(t, res.ShouldAlert)
}

func TestMissingVitalsLowerSignalQuality(t *testing.T) {
	// hr absent (-0.4) and temp absent (-0.2)
	r := Reading{SpO2: ptrInt(98)}
	q := SignalQuality(r)
	require.InDelta(t, 0.4, q, 0.001)
}

func TestLowSignalQualityAloneIsAnomalyWithoutAlert(t *testing.T) {
	// Only the zero-contribution low_signal_quality rule fires: an
	// anomaly is recorded but the score stays 0 and no alert is sent.
	r := Reading{Temperature: ptrFloat(36.8)}
	res := Analyze(r, defaultConfig())

	require.True(t, res.AnomalyDetected)
	require.Equal(t, 0.0, res.AnomalyScore)
	require.Equal(t, "normal", res.Classification)
	require.Equal(t, AlertLow, res.AlertLevel)
	require.False(t, res.ShouldAlert)
}
