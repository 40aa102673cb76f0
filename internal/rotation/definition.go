package rotation

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/example/shift-scheduler/internal/persistence"
)

// ErrInvalidDefinition reports a template definition that does not have the
// {"slots": [...]} shape.
var ErrInvalidDefinition = errors.New("rotation: invalid template definition")

// ErrInvalidWeekStart reports a week start that is not a YYYY-MM-DD date.
var ErrInvalidWeekStart = errors.New("rotation: week_start must be YYYY-MM-DD")

// Slot is one weekly entry of a template. Start and End stay unparsed so that
// a malformed clock time is reported against its slot during expansion.
type Slot struct {
	DayOfWeek int64              `json:"dow"`
	Period    persistence.Period `json:"period"`
	Start     string             `json:"start"`
	End       string             `json:"end"`
}

// Definition is a parsed template definition.
type Definition struct {
	Slots []Slot `json:"slots"`
}

type rawSlot struct {
	DayOfWeek *int64              `json:"dow"`
	Period    *persistence.Period `json:"period"`
	Start     *string             `json:"start"`
	End       *string             `json:"end"`
}

// ParseDefinition decodes a stored definition. Every slot must carry all four
// fields with the right JSON types and a known period tag; unknown fields are
// ignored.
func ParseDefinition(raw json.RawMessage) (Definition, error) {
	var doc struct {
		Slots *[]rawSlot `json:"slots"`
	}
	if err := json.Unmarshal(raw, &doc); err != nil {
		return Definition{}, fmt.Errorf("%w: %v", ErrInvalidDefinition, err)
	}
	if doc.Slots == nil {
		return Definition{}, fmt.Errorf("%w: slots is required", ErrInvalidDefinition)
	}

	def := Definition{Slots: make([]Slot, 0, len(*doc.Slots))}
	for i, s := range *doc.Slots {
		if s.DayOfWeek == nil || s.Period == nil || s.Start == nil || s.End == nil {
			return Definition{}, fmt.Errorf("%w: slot %d is missing dow, period, start or end", ErrInvalidDefinition, i)
		}
		def.Slots = append(def.Slots, Slot{
			DayOfWeek: *s.DayOfWeek,
			Period:    *s.Period,
			Start:     *s.Start,
			End:       *s.End,
		})
	}
	return def, nil
}

// ParseWeekStart parses a YYYY-MM-DD date as UTC midnight. The date is not
// required to be a Monday.
func ParseWeekStart(value string) (time.Time, error) {
	day, err := time.ParseInLocation(time.DateOnly, value, time.UTC)
	if err != nil {
		return time.Time{}, ErrInvalidWeekStart
	}
	return day, nil
}
