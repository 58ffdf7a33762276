package compare

import (
	"math"
	"strconv"
	"strings"

	"benchkeep/internal/errs"

	"github.com/pkg/errors"
)

// DefaultAlertThreshold is the alert ratio used when none is configured.
const DefaultAlertThreshold = "200%"

// ErrFailBelowAlert is returned when the fail threshold is lower than the
// alert threshold.
var ErrFailBelowAlert = errors.New("fail-threshold must be >= alert-threshold")

// ParseRatio converts a threshold string into a ratio. "200%" and "200" are
// percentages (2.0); "1.5x" is a multiplier (1.5).
func ParseRatio(s string) (float64, error) {
	s = strings.TrimSpace(s)

	var (
		value float64
		err   error
	)
	switch {
	case strings.HasSuffix(s, "x") || strings.HasSuffix(s, "X"):
		value, err = strconv.ParseFloat(strings.TrimSpace(s[:len(s)-1]), 64)
	default:
		value, err = strconv.ParseFloat(strings.TrimSpace(strings.TrimSuffix(s, "%")), 64)
		value /= 100.0
	}
	if err != nil {
		return 0, errors.Errorf("invalid threshold %q: expected a percentage like 200%% or a multiplier like 2x", s)
	}

	if value <= 0 || math.IsNaN(value) || math.IsInf(value, 0) {
		return 0, errors.Errorf("invalid threshold %q: must be a positive finite number", s)
	}
	return value, nil
}

// NewThresholds validates a pair of ratios.
func NewThresholds(alert, fail float64) (Thresholds, error) {
	if alert <= 0 {
		return Thresholds{}, errs.Config("alert-threshold", errors.Errorf("ratio %v must be positive", alert))
	}
	if fail < alert {
		return Thresholds{}, errs.Config("fail-threshold", ErrFailBelowAlert)
	}
	return Thresholds{Alert: alert, Fail: fail}, nil
}

// ParseThresholds parses the alert and fail threshold strings. An empty fail
// string means failing starts at the alert threshold.
func ParseThresholds(alert, fail string) (Thresholds, error) {
	if strings.TrimSpace(alert) == "" {
		alert = DefaultAlertThreshold
	}

	alertRatio, err := ParseRatio(alert)
	if err != nil {
		return Thresholds{}, errs.Config("alert-threshold", err)
	}

	failRatio := alertRatio
	if strings.TrimSpace(fail) != "" {
		if failRatio, err = ParseRatio(fail); err != nil {
			return Thresholds{}, errs.Config("fail-threshold", err)
		}
	}

	return NewThresholds(alertRatio, failRatio)
}
