package config

import "fmt"

// ValidationError names the offending field, its value, and why it is
// rejected, in graft's internal/config style.
type ValidationError struct {
	Field   string
	Value   interface{}
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("config validation error: field '%s' with value '%v': %s", e.Field, e.Value, e.Message)
}

// ValidationErrors aggregates every field failure from one Validate call.
type ValidationErrors []ValidationError

func (e ValidationErrors) Error() string {
	if len(e) == 0 {
		return ""
	}
	msg := e[0].Error()
	for _, err := range e[1:] {
		msg += "; " + err.Error()
	}
	return msg
}

// Validate checks every tunable the dispatcher, combinators, and logger
// actually consult, rejecting values they could not act on.
func Validate(cfg *Config) error {
	var errs ValidationErrors

	if cfg.Engine.MaxTries <= 0 {
		errs = append(errs, ValidationError{"engine.max_tries", cfg.Engine.MaxTries, "must be greater than 0"})
	}
	if cfg.Engine.StartRegionSize <= 0 {
		errs = append(errs, ValidationError{"engine.start_region_size", cfg.Engine.StartRegionSize, "must be greater than 0"})
	}
	if cfg.Engine.ExtendedRegionProbability <= 0 || cfg.Engine.ExtendedRegionProbability > 1 {
		errs = append(errs, ValidationError{"engine.extended_region_probability", cfg.Engine.ExtendedRegionProbability, "must be in (0,1]"})
	}
	if cfg.Engine.TrackingElisionThreshold <= 0 {
		errs = append(errs, ValidationError{"engine.tracking_elision_threshold", cfg.Engine.TrackingElisionThreshold, "must be greater than 0"})
	}

	validLevels := []string{"error", "warn", "info", "debug", "trace"}
	if !contains(validLevels, cfg.Logging.Level) {
		errs = append(errs, ValidationError{"logging.level", cfg.Logging.Level, fmt.Sprintf("must be one of: %v", validLevels)})
	}

	if cfg.Version == "" {
		errs = append(errs, ValidationError{"version", cfg.Version, "cannot be empty"})
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

func contains(slice []string, item string) bool {
	for _, s := range slice {
		if s == item {
			return true
		}
	}
	return false
}
