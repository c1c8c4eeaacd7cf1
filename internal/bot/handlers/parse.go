package handlers

import (
	"fmt"
	"strconv"
	"strings"

	apperrors "github.com/vladimiradmaev/sugraph/internal/errors"
	"github.com/vladimiradmaev/sugraph/internal/simulation"
)

// parseAmount accepts both "4.5" and "4,5".
func parseAmount(s string) (float64, error) {
	s = strings.TrimSpace(strings.ReplaceAll(s, ",", "."))
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || v <= 0 {
		return 0, apperrors.NewValidationError(fmt.Sprintf("%q is not a positive number", s))
	}
	return v, nil
}

// eventArgs is the parsed "<amount> <HH:MM> [profile]" form.
type eventArgs struct {
	Amount  float64
	Clock   string
	Profile string
}

// parseEventArgs reads command arguments. The profile is only allowed when
// allowProfile is set.
func parseEventArgs(args string, allowProfile bool) (eventArgs, error) {
	fields := strings.Fields(args)
	maxFields := 2
	if allowProfile {
		maxFields = 3
	}
	if len(fields) < 2 || len(fields) > maxFields {
		return eventArgs{}, apperrors.ErrInvalidInput
	}

	amount, err := parseAmount(fields[0])
	if err != nil {
		return eventArgs{}, err
	}
	clock, err := simulation.NormalizeClock(fields[1])
	if err != nil {
		return eventArgs{}, err
	}
	out := eventArgs{Amount: amount, Clock: clock}
	if len(fields) == 3 {
		profile, err := simulation.CarbProfileByName(fields[2])
		if err != nil {
			return eventArgs{}, err
		}
		out.Profile = profile.Name
	}
	return out, nil
}

// parseScheduleEntry reads "HH:MM=factor" or "HH:MM factor".
func parseScheduleEntry(text string) (string, float64, error) {
	text = strings.TrimSpace(text)
	clock, value, ok := strings.Cut(text, "=")
	if !ok {
		fields := strings.Fields(text)
		if len(fields) != 2 {
			return "", 0, apperrors.ErrInvalidInput
		}
		clock, value = fields[0], fields[1]
	}
	start, err := simulation.NormalizeClock(clock)
	if err != nil {
		return "", 0, err
	}
	factor, err := parseAmount(value)
	if err != nil {
		return "", 0, err
	}
	return start, factor, nil
}

// parseInsulinProfile reads "<duration> <peak>" in minutes.
func parseInsulinProfile(text string) (duration, peak int, err error) {
	fields := strings.Fields(strings.ReplaceAll(text, "/", " "))
	if len(fields) != 2 {
		return 0, 0, apperrors.ErrInvalidInput
	}
	if duration, err = strconv.Atoi(fields[0]); err != nil {
		return 0, 0, apperrors.NewValidationError(fmt.Sprintf("%q is not a whole number of minutes", fields[0]))
	}
	if peak, err = strconv.Atoi(fields[1]); err != nil {
		return 0, 0, apperrors.NewValidationError(fmt.Sprintf("%q is not a whole number of minutes", fields[1]))
	}
	return duration, peak, nil
}

// parseCallback splits "<prefix>:<arg>"; arg is empty for plain callbacks.
func parseCallback(data string) (prefix, arg string) {
	prefix, arg, _ = strings.Cut(data, ":")
	return prefix, arg
}

func parseID(s string) (uint, error) {
	v, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return 0, apperrors.NewValidationError(fmt.Sprintf("bad id %q", s))
	}
	return uint(v), nil
}
