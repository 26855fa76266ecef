// Package analyzer implements a deterministic rule plus z-score anomaly
// classifier. It is stateless per call; see DESIGN.md for why this stays
// on plain math rather than a numerics library.
package analyzer

import "math"

// Config carries the classifier's tunable thresholds.
type Config struct {
	CriticalHRLow    int
	CriticalHRHigh   int
	CriticalSpO2Low  int
	AnomalyThreshold float64
	EnableAlerts     bool
}

// Reading is the subset of a SensorReading the analyzer needs. Pointers
// distinguish "not present" from zero, since a vital can be legitimately
// absent; missing values simply skip their corresponding rule.
type Reading struct {
	HeartRate    *int
	SpO2         *int
	Temperature  *float64
	QualityScore *float64
}

// AlertLevel is the maximum severity observed across all rules.
type AlertLevel string

const (
	AlertNone     AlertLevel = ""
	AlertLow      AlertLevel = "low"
	AlertMedium   AlertLevel = "medium"
	AlertHigh     AlertLevel = "high"
	AlertCritical AlertLevel = "critical"
)

var alertRank = map[AlertLevel]int{
	AlertNone: 0, AlertLow: 1, AlertMedium: 2, AlertHigh: 3, AlertCritical: 4,
}

func raiseLevel(current, candidate AlertLevel) AlertLevel {
	if alertRank[candidate] > alertRank[current] {
		return candidate
	}
	return current
}

// RuleHit records one rule's contribution for the details payload.
type RuleHit struct {
	Rule         string  `json:"rule"`
	Contribution float64 `json:"contribution"`
}

// Result is the full outcome of classifying one reading.
type Result struct {
	AnomalyDetected bool
	AnomalyScore    float64
	Classification  string
	AlertLevel      AlertLevel
	RuleHits        []RuleHit
	HeartRateZ      float64
	SpO2Z           float64
	SignalQuality   float64
	AlertMessage    string
	ShouldAlert     bool
}

const (
	hrMean, hrStdDev     = 70.0, 12.0
	spo2Mean, spo2StdDev = 97.0, 2.0
)

// Analyze runs the full rule set against a single reading.
func Analyze(r Reading, cfg Config) Result {
	var raw float64
	var hits []RuleHit
	level := AlertNone

	add := func(rule string, contribution float64, newLevel AlertLevel) {
		raw += contribution
		hits = append(hits, RuleHit{Rule: rule, Contribution: contribution})
		level = raiseLevel(level, newLevel)
	}

	if r.HeartRate != nil {
		hr := *r.HeartRate
		if hr > 0 && hr < cfg.CriticalHRLow {
			add("hr_low", 0.8, AlertCritical)
		}
		if hr > cfg.CriticalHRHigh {
			add("hr_high", 0.8, AlertCritical)
		}
	}
	if r.SpO2 != nil {
		spo2 := *r.SpO2
		if spo2 > 0 && spo2 < cfg.CriticalSpO2Low {
			add("spo2_low", 0.9, AlertCritical)
		}
	}
	if r.Temperature != nil {
		temp := *r.Temperature
		if temp > 38.0 {
			addUnlessCritical(&raw, &hits, &level, "temp_high", 0.6, AlertHigh)
		}
		if temp < 35.5 && temp > 0 {
			addUnlessCritical(&raw, &hits, &level, "temp_low", 0.7, AlertHigh)
		}
	}

	quality := SignalQuality(r)
	if quality < 0.5 {
		if alertRank[level] < alertRank[AlertHigh] {
			level = raiseLevel(level, AlertLow)
		}
		hits = append(hits, RuleHit{Rule: "low_signal_quality", Contribution: 0})
	}

	hrZ, spo2Z := 0.0, 0.0
	if r.HeartRate != nil {
		hrZ = zScore(float64(*r.HeartRate), hrMean, hrStdDev)
		if math.Abs(hrZ) > 3 {
			add("hr_zscore", 0.5, level)
		}
	}
	if r.SpO2 != nil {
		spo2Z = zScore(float64(*r.SpO2), spo2Mean, spo2StdDev)
		if math.Abs(spo2Z) > 3 {
			add("spo2_zscore", 0.5, level)
		}
	}

	score := math.Min(1.0, raw/2.0)
	classification := classify(raw)

	result := Result{
		// Any rule hit counts, including the zero-contribution
		// low-signal-quality one.
		AnomalyDetected: len(hits) > 0,
		AnomalyScore:    score,
		Classification:  classification,
		AlertLevel:      level,
		RuleHits:        hits,
		HeartRateZ:      hrZ,
		SpO2Z:           spo2Z,
		SignalQuality:   quality,
	}
	result.AlertMessage = alertMessage(level)
	result.ShouldAlert = cfg.EnableAlerts && result.AnomalyDetected && score >= cfg.AnomalyThreshold
	return result
}

// addUnlessCritical raises the level to newLevel unless the level is
// already critical.
func addUnlessCritical(raw *float64, hits *[]RuleHit, level *AlertLevel, rule string, contribution float64, newLevel AlertLevel) {
	*raw += contribution
	*hits = append(*hits, RuleHit{Rule: rule, Contribution: contribution})
	if *level != AlertCritical {
		*level = raiseLevel(*level, newLevel)
	}
}

// SignalQuality computes the quality heuristic: start at 1.0, subtract
// for missing or out-of-range vitals, clamp to [0,1].
func SignalQuality(r Reading) float64 {
	quality := 1.0
	zeroVitals := 0
	// Absent and zero-valued are the same thing on the wire.
	if r.HeartRate == nil || *r.HeartRate == 0 {
		zeroVitals++
	}
	if r.SpO2 == nil || *r.SpO2 == 0 {
		zeroVitals++
	}
	quality -= 0.4 * float64(zeroVitals)

	if r.Temperature == nil || *r.Temperature == 0 {
		quality -= 0.2
	}

	outOfRange := false
	if r.HeartRate != nil && *r.HeartRate > 250 {
		outOfRange = true
	}
	if r.SpO2 != nil && *r.SpO2 > 100 {
		outOfRange = true
	}
	if r.Temperature != nil && (*r.Temperature > 43 || *r.Temperature < 30) {
		outOfRange = true
	}
	if outOfRange {
		quality -= 0.3
	}

	if quality < 0 {
		quality = 0
	}
	if quality > 1 {
		quality = 1
	}
	return quality
}

func zScore(value, mean, stdDev float64) float64 {
	if stdDev == 0 {
		return 0
	}
	return (value - mean) / stdDev
}

func classify(raw float64) string {
	switch {
	case raw == 0:
		return "normal"
	case raw < 0.5:
		return "warning"
	default:
		return "critical"
	}
}

func alertMessage(level AlertLevel) string {
	switch level {
	case AlertCritical:
		return "Critical vitals anomaly detected"
	case AlertHigh:
		return "High-severity vitals anomaly detected"
	case AlertMedium:
		return "Medium-severity vitals anomaly detected"
	case AlertLow:
		return "Low signal quality detected"
	default:
		return ""
	}
}
