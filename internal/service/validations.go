package service

import (
	"strconv"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
	errorvalues "github.com/limbo/prayerbot/internal/error_values"
)

// Package for custom validations
var (
	validate *validator.Validate
	once     sync.Once
)

// ReminderTimeInput is validated before a reminder time is persisted. The
// cutoff rule keeps the +1h follow-up inside the same logical day.
type ReminderTimeInput struct {
	Hour   int `validate:"min=0,max=23"`
	Minute int `validate:"min=0,max=59"`
}

func InitValidator() {
	once.Do(func() {
		validate = validator.New()
		validate.RegisterStructValidation(func(sl validator.StructLevel) {
			in := sl.Current().Interface().(ReminderTimeInput)
			// 23:29 is the latest acceptable time
			if in.Hour == 23 && in.Minute >= 30 {
				sl.ReportError(in.Minute, "Minute", "Minute", "before_cutoff", "")
			}
		}, ReminderTimeInput{})
	})
}

// ValidateReminderTime checks range and the 23:30 cutoff.
func ValidateReminderTime(hour, minute int) error {
	err := validate.Struct(ReminderTimeInput{Hour: hour, Minute: minute})
	if err == nil {
		return nil
	}
	if verrs, ok := err.(validator.ValidationErrors); ok {
		for _, fieldErr := range verrs {
			if fieldErr.Tag() == "before_cutoff" {
				return errorvalues.ErrTimePastCutoff
			}
		}
		return errorvalues.ErrTimeOutOfRange
	}
	return err
}

// ParseReminderTime accepts "HH:MM", "H:MM", "HH.MM" and compact digit
// strings ("930" -> 9:30, "2130" -> 21:30), then validates the pair.
func ParseReminderTime(raw string) (int, int, error) {
	s := strings.TrimSpace(raw)
	s = strings.ReplaceAll(s, " ", "")
	s = strings.ReplaceAll(s, ".", ":")
	var hourPart, minutePart string
	if strings.Contains(s, ":") {
		parts := strings.Split(s, ":")
		if len(parts) != 2 || len(parts[0]) == 0 || len(parts[0]) > 2 || len(parts[1]) == 0 || len(parts[1]) > 2 {
			return 0, 0, errorvalues.ErrInvalidTimeFormat
		}
		hourPart, minutePart = parts[0], parts[1]
	} else {
		// Compact form: the rightmost two digits are minutes.
		if len(s) < 3 || len(s) > 4 {
			return 0, 0, errorvalues.ErrInvalidTimeFormat
		}
		hourPart, minutePart = s[:len(s)-2], s[len(s)-2:]
	}
	if !allDigits(hourPart) || !allDigits(minutePart) {
		return 0, 0, errorvalues.ErrInvalidTimeFormat
	}
	hour, err := strconv.Atoi(hourPart)
	if err != nil {
		return 0, 0, errorvalues.ErrInvalidTimeFormat
	}
	minute, err := strconv.Atoi(minutePart)
	if err != nil {
		return 0, 0, errorvalues.ErrInvalidTimeFormat
	}
	if err := ValidateReminderTime(hour, minute); err != nil {
		return 0, 0, err
	}
	return hour, minute, nil
}

func allDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return len(s) > 0
}
