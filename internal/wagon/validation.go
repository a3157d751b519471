package wagon

import (
	"fmt"
	"time"

	"github.com/bosves/bosves-api/internal/validation"
)

// ValidatePayload checks a create payload and normalises its date to
// DateLayout and its time to HH:mm:ss.
func ValidatePayload(p Payload, parameter string) validation.Outcome[Payload] {
	out := validation.Struct(p, parameter)
	if _, ok := out.(validation.Valid[Payload]); !ok {
		return out
	}

	day, inv, ok := normaliseDate(p.Date, parameter+".dt")
	if !ok {
		return inv
	}
	clock, inv, ok := normaliseTime(p.Time, parameter+".vr")
	if !ok {
		return inv
	}
	p.Date, p.Time = day, clock
	return validation.Success(p, parameter)
}

// ValidatePatch checks a partial update. An empty patch is invalid.
func ValidatePatch(p Patch, parameter string) validation.Outcome[Patch] {
	if p.IsEmpty() {
		return validation.Failure(parameter,
			fmt.Sprintf("parameter %s: %v", parameter, ErrEmptyPatch),
			"no fields to update",
			"{}")
	}

	out := validation.Struct(p, parameter)
	if _, ok := out.(validation.Valid[Patch]); !ok {
		return out
	}

	if p.Date != nil {
		day, inv, ok := normaliseDate(*p.Date, parameter+".dt")
		if !ok {
			return inv
		}
		p.Date = &day
	}
	if p.Time != nil {
		clock, inv, ok := normaliseTime(*p.Time, parameter+".vr")
		if !ok {
			return inv
		}
		p.Time = &clock
	}
	return validation.Success(p, parameter)
}

func normaliseDate(raw, parameter string) (string, validation.Invalid, bool) {
	o := validation.ValidateDate(raw, parameter)
	if inv, bad := validation.AsInvalid[time.Time](o); bad {
		return "", inv, false
	}
	return o.(validation.Valid[time.Time]).Value.Format(DateLayout), validation.Invalid{}, true
}

func normaliseTime(raw, parameter string) (string, validation.Invalid, bool) {
	o := validation.ValidateTimeOfDay(raw, parameter)
	if inv, bad := validation.AsInvalid[string](o); bad {
		return "", inv, false
	}
	return o.(validation.Valid[string]).Value, validation.Invalid{}, true
}
