package wagon

import "time"

// DateLayout is the stored form of a weighing date.
const DateLayout = "2006-01-02"

// EntityName is the name used for wagons in user-facing messages and audit entries.
const EntityName = "incoming wagon"

// Wagon is a persisted incoming-wagon record.
type Wagon struct {
	ID int64 `json:"id"`

	// Date is the weighing date (yyyy-MM-dd).
	Date string `json:"dt"`

	// Time is the weighing time of day (HH:mm:ss).
	Time string `json:"vr"`

	// Nvag is the eight-digit wagon number.
	Nvag string `json:"nvag"`

	// Npp is the position of the wagon in the train.
	Npp int `json:"npp"`

	// Vesy is the scale (weighbridge) number.
	Vesy int16 `json:"vesy"`

	// Tn is the train number.
	Tn int `json:"tn"`

	CreatedBy string    `json:"createdBy,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Payload is the decoded body of a create request.
type Payload struct {
	Date string `json:"dt" validate:"required,date"`
	Time string `json:"vr" validate:"required,timeofday"`
	Nvag string `json:"nvag" validate:"required,numeric,len=8"`
	Npp  int    `json:"npp" validate:"gt=0"`
	Vesy int16  `json:"vesy" validate:"gte=0"`
	Tn   int    `json:"tn" validate:"gt=0"`
}

// Wagon converts a validated payload into a new record.
func (p Payload) Wagon(createdBy string) Wagon {
	return Wagon{
		Date:      p.Date,
		Time:      p.Time,
		Nvag:      p.Nvag,
		Npp:       p.Npp,
		Vesy:      p.Vesy,
		Tn:        p.Tn,
		CreatedBy: createdBy,
	}
}

// Patch is the decoded body of a partial update. Nil fields are left unchanged.
type Patch struct {
	Date *string `json:"dt,omitempty" validate:"omitnil,date"`
	Time *string `json:"vr,omitempty" validate:"omitnil,timeofday"`
	Nvag *string `json:"nvag,omitempty" validate:"omitnil,numeric,len=8"`
	Npp  *int    `json:"npp,omitempty" validate:"omitnil,gt=0"`
	Vesy *int16  `json:"vesy,omitempty" validate:"omitnil,gte=0"`
	Tn   *int    `json:"tn,omitempty" validate:"omitnil,gt=0"`
}

// IsEmpty reports whether the patch changes nothing.
func (p Patch) IsEmpty() bool {
	return p.Date == nil && p.Time == nil && p.Nvag == nil &&
		p.Npp == nil && p.Vesy == nil && p.Tn == nil
}

// Apply copies the set fields of p onto w.
func (p Patch) Apply(w *Wagon) {
	if p.Date != nil {
		w.Date = *p.Date
	}
	if p.Time != nil {
		w.Time = *p.Time
	}
	if p.Nvag != nil {
		w.Nvag = *p.Nvag
	}
	if p.Npp != nil {
		w.Npp = *p.Npp
	}
	if p.Vesy != nil {
		w.Vesy = *p.Vesy
	}
	if p.Tn != nil {
		w.Tn = *p.Tn
	}
}

// Filter selects records by their full business key.
type Filter struct {
	Date string
	Time string
	Nvag string
	Vesy int16
}

// DateFilter selects all records weighed on one scale on one day.
type DateFilter struct {
	Date string
	Vesy int16
}
