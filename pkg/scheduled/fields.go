package scheduled

// Field identifies an observable attribute of a scheduled event.
type Field uint8

const (
	FieldName Field = iota
	FieldDescription
	FieldLocation
	FieldStartTime
	FieldEndTime
	FieldImage
	FieldStatus
	// FieldInterestedCount is read-only. It shows up in diffs but can never
	// be staged by a builder.
	FieldInterestedCount
)

var fieldNames = [...]string{
	FieldName:            "name",
	FieldDescription:     "description",
	FieldLocation:        "location",
	FieldStartTime:       "start_time",
	FieldEndTime:         "end_time",
	FieldImage:           "image",
	FieldStatus:          "status",
	FieldInterestedCount: "interested_count",
}

func (f Field) String() string {
	if int(f) < len(fieldNames) {
		return fieldNames[f]
	}
	return "unknown"
}

func (f Field) MarshalText() ([]byte, error) {
	return []byte(f.String()), nil
}

// stagedFields are the fields a builder can change, in payload order.
var stagedFields = []Field{
	FieldName,
	FieldDescription,
	FieldLocation,
	FieldStartTime,
	FieldEndTime,
	FieldImage,
	FieldStatus,
}

type fieldSet uint16

func (s fieldSet) has(f Field) bool { return s&(1<<f) != 0 }
func (s *fieldSet) add(f Field) { *s |= 1 << f }
func (s *fieldSet) remove(f Field) { *s &^= 1 << f }
func (s fieldSet) empty() bool { return s == 0 }

func (s fieldSet) fields() []Field {
	var out []Field
	for _, f := range stagedFields {
		if s.has(f) {
			out = append(out, f)
		}
	}
	return out
}
