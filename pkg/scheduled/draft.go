package scheduled

import (
	"fmt"
	"strings"
	"time"
	"unicode/utf8"
)

const (
	MaxNameLength        = 100
	MaxDescriptionLength = 1000
	MaxLocationLength    = 100
)

// draft is the pending change set of one builder. Only fields present in
// dirty are meaningful; the rest hold zero values.
type draft struct {
	dirty       fieldSet
	name        string
	description *string
	location    Location
	startTime   time.Time
	endTime     *time.Time
	image       *Icon
	status      Status
}

// SetName stages a new name. Surrounding whitespace is trimmed.
func (d *draft) SetName(name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return invalid("name", "must not be blank")
	}
	if utf8.RuneCountInString(name) > MaxNameLength {
		return invalid("name", fmt.Sprintf("must be at most %d characters", MaxNameLength))
	}
	d.name = name
	d.dirty.add(FieldName)
	return nil
}

// SetDescription stages a description; nil clears it.
func (d *draft) SetDescription(description *string) error {
	if description != nil && utf8.RuneCountInString(*description) > MaxDescriptionLength {
		return invalid("description", fmt.Sprintf("must be at most %d characters", MaxDescriptionLength))
	}
	if description == nil {
		d.description = nil
	} else {
		v := *description
		d.description = &v
	}
	d.dirty.add(FieldDescription)
	return nil
}

// SetLocation replaces any staged location, variant included.
func (d *draft) SetLocation(loc Location) error {
	switch l := loc.(type) {
	case nil:
		return invalid("location", "must not be nil")
	case StageLocation:
		if l.ChannelID == 0 {
			return invalid("location", "stage location requires a channel")
		}
	case VoiceLocation:
		if l.ChannelID == 0 {
			return invalid("location", "voice location requires a channel")
		}
	case ExternalLocation:
		text := strings.TrimSpace(l.Text)
		if text == "" {
			return invalid("location", "external location must not be blank")
		}
		if utf8.RuneCountInString(text) > MaxLocationLength {
			return invalid("location", fmt.Sprintf("must be at most %d characters", MaxLocationLength))
		}
		loc = ExternalLocation{Text: text}
	}
	d.location = loc
	d.dirty.add(FieldLocation)
	return nil
}

func (d *draft) SetStartTime(t time.Time) error {
	if t.IsZero() {
		return invalid("start_time", "must be set")
	}
	d.startTime = t
	d.dirty.add(FieldStartTime)
	return nil
}

// SetEndTime stages an end time; nil clears it.
func (d *draft) SetEndTime(t *time.Time) error {
	if t != nil && t.IsZero() {
		return invalid("end_time", "must be a real instant or nil")
	}
	if t == nil {
		d.endTime = nil
	} else {
		v := *t
		d.endTime = &v
	}
	d.dirty.add(FieldEndTime)
	return nil
}

// SetImage stages a cover image; nil removes it.
func (d *draft) SetImage(icon *Icon) error {
	d.image = icon
	d.dirty.add(FieldImage)
	return nil
}

func (d *draft) SetStatus(s Status) error {
	if !s.Valid() {
		return invalid("status", fmt.Sprintf("unknown status %d", int(s)))
	}
	d.status = s
	d.dirty.add(FieldStatus)
	return nil
}

// Reset discards the staged values of fields, or of everything when no
// field is given.
func (d *draft) Reset(fields ...Field) {
	if len(fields) == 0 {
		*d = draft{}
		return
	}
	for _, f := range fields {
		switch f {
		case FieldName:
			d.name = ""
		case FieldDescription:
			d.description = nil
		case FieldLocation:
			d.location = nil
		case FieldStartTime:
			d.startTime = time.Time{}
		case FieldEndTime:
			d.endTime = nil
		case FieldImage:
			d.image = nil
		case FieldStatus:
			d.status = StatusUnknown
		}
		d.dirty.remove(f)
	}
}

func (d *draft) IsDirty(f Field) bool { return d.dirty.has(f) }

// Dirty lists the staged fields.
func (d *draft) Dirty() []Field { return d.dirty.fields() }

// effective is the change set laid over its baseline.
type effective struct {
	location Location
	start    time.Time
	end      *time.Time
}

func (d *draft) resolve(base *Snapshot) effective {
	var e effective
	if base != nil {
		e = effective{location: base.Location, start: base.StartTime, end: base.EndTime}
	}
	if d.dirty.has(FieldLocation) {
		e.location = d.location
	}
	if d.dirty.has(FieldStartTime) {
		e.start = d.startTime
	}
	if d.dirty.has(FieldEndTime) {
		e.end = d.endTime
	}
	return e
}

// validate applies the cross-field rules in order; the first violation is
// returned. base is nil when creating.
func (d *draft) validate(base *Snapshot) error {
	creating := base == nil

	if d.dirty.has(FieldLocation) && !creating && base.Status != StatusScheduled {
		return &StateConflictError{Field: FieldLocation, Status: base.Status}
	}

	e := d.resolve(base)
	if ext, ok := e.location.(ExternalLocation); ok &&
		(creating || d.dirty.has(FieldLocation) || d.dirty.has(FieldEndTime)) {
		if strings.TrimSpace(ext.Text) == "" {
			return invalid("location", "external location must not be blank")
		}
		if e.end == nil {
			return invalidCause("end_time", ErrMissingEndTime)
		}
	}

	if (d.dirty.has(FieldStartTime) || d.dirty.has(FieldEndTime)) &&
		e.end != nil && !e.start.IsZero() && !e.start.Before(*e.end) {
		return invalidCause("end_time", ErrInvalidTimeRange)
	}

	if creating {
		if !d.dirty.has(FieldName) {
			return invalidCause("name", ErrNameRequired)
		}
		if !d.dirty.has(FieldStartTime) {
			return invalidCause("start_time", ErrStartRequired)
		}
		if !d.dirty.has(FieldLocation) {
			return invalidCause("location", ErrLocationRequired)
		}
	}
	return nil
}
