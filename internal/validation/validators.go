package validation

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/dosetrack/dosetrack/internal/adherence"
	"github.com/dosetrack/dosetrack/internal/models"
	"github.com/go-playground/validator/v10"
)

var (
	// Validate is a shared validator instance
	Validate *validator.Validate
)

func init() {
	Validate = validator.New()

	// Register custom validators for enums
	if err := Validate.RegisterValidation("frequency", validateFrequency); err != nil {
		panic(fmt.Sprintf("failed to register frequency validator: %v", err))
	}
	if err := Validate.RegisterValidation("time_of_day", validateTimeOfDay); err != nil {
		panic(fmt.Sprintf("failed to register time_of_day validator: %v", err))
	}
}

// validateFrequency validates that a string is a valid Frequency enum value
func validateFrequency(fl validator.FieldLevel) bool {
	return ValidateFrequency(fl.Field().String()) == nil
}

// validateTimeOfDay validates that a string parses as "HH:MM"
func validateTimeOfDay(fl validator.FieldLevel) bool {
	_, _, err := adherence.ParseTimeOfDay(fl.Field().String())
	return err == nil
}

// SanitizeText sanitizes text input by trimming whitespace and removing control characters
func SanitizeText(text string) string {
	// Trim whitespace
	text = strings.TrimSpace(text)

	// Remove control characters except newline and tab
	var sanitized strings.Builder
	for _, r := range text {
		if unicode.IsControl(r) && r != '\n' && r != '\t' {
			continue
		}
		sanitized.WriteRune(r)
	}

	return sanitized.String()
}

// ValidateFrequency validates a Frequency string value
func ValidateFrequency(value string) error {
	switch models.Frequency(value) {
	case models.FrequencyOnceDaily, models.FrequencyTwiceDaily,
		models.FrequencyThreeTimesDaily, models.FrequencyFourTimesDaily,
		models.FrequencyCustom:
		return nil
	default:
		return fmt.Errorf("invalid frequency: %s (must be 'once_daily', 'twice_daily', 'three_times_daily', 'four_times_daily', or 'custom')", value)
	}
}

// ValidateTimes validates a medication's scheduled time-of-day list: non-empty,
// every entry "HH:MM". The canonical per-frequency count is a UI default, not a
// hard constraint, so a count mismatch is allowed for every frequency.
func ValidateTimes(times []string) error {
	if len(times) == 0 {
		return fmt.Errorf("times cannot be empty")
	}
	for _, tod := range times {
		if _, _, err := adherence.ParseTimeOfDay(tod); err != nil {
			return err
		}
	}
	return nil
}
