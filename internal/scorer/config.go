// Package scorer turns questionnaire answers into weighted section scores,
// urgency tallies and a prioritised gap list.
package scorer

import (
	"fmt"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/sells-group/readiness-cli/internal/config"
)

// DefaultScoringConfig returns a config.ScoringConfig with the standard
// 0-4 severity scale and readiness bands.
func DefaultScoringConfig() config.ScoringConfig {
	return config.ScoringConfig{
		// Severity scale.
		MaxSeverity:        4,
		UnansweredSeverity: 2, // midpoint
		ExcludeUnanswered:  false,

		// Readiness bands over the total weighted score.
		HighReadinessMax: 20,
		ModerateMax:      40,

		// Priority buckets.
		HeavyWeight:      8,
		MediumWeight:     5,
		CriticalWeighted: 3,
	}
}

// ValidateConfig checks that a ScoringConfig is internally consistent.
func ValidateConfig(c config.ScoringConfig) error {
	var errs []string

	if c.MaxSeverity <= 0 {
		errs = append(errs, "max_severity must be > 0")
	}
	if c.UnansweredSeverity < 0 || c.UnansweredSeverity > c.MaxSeverity {
		errs = append(errs, fmt.Sprintf("unanswered_severity must be between 0 and %d", c.MaxSeverity))
	}

	if c.HighReadinessMax < 0 {
		errs = append(errs, "high_readiness_max must be >= 0")
	}
	if c.ModerateMax < c.HighReadinessMax {
		errs = append(errs, "moderate_readiness_max must be >= high_readiness_max")
	}

	if c.MediumWeight <= 0 {
		errs = append(errs, "medium_weight must be > 0")
	}
	if c.HeavyWeight < c.MediumWeight {
		errs = append(errs, "heavy_weight must be >= medium_weight")
	}
	if c.CriticalWeighted < 0 {
		errs = append(errs, "critical_weighted must be >= 0")
	}

	if len(errs) > 0 {
		return eris.Errorf("scorer: config validation failed: %s", strings.Join(errs, "; "))
	}
	return nil
}
