package scheduled

import "time"

// FieldDelta is one observed change. Old and New are nil when the value is
// absent; otherwise they hold the field's plain value (string, Location,
// time.Time, Status or int).
type FieldDelta struct {
	Field Field
	Old   any
	New   any
}

// Diff lists the fields that differ between two snapshots of the same
// event. The order of the result is not part of the contract.
func Diff(old, updated Snapshot) []FieldDelta {
	var deltas []FieldDelta
	add := func(f Field, o, n any) {
		deltas = append(deltas, FieldDelta{Field: f, Old: o, New: n})
	}

	if old.Name != updated.Name {
		add(FieldName, old.Name, updated.Name)
	}
	if !equalPtr(old.Description, updated.Description) {
		add(FieldDescription, deref(old.Description), deref(updated.Description))
	}
	if old.Location != updated.Location {
		add(FieldLocation, locationValue(old.Location), locationValue(updated.Location))
	}
	if !old.StartTime.Equal(updated.StartTime) {
		add(FieldStartTime, old.StartTime, updated.StartTime)
	}
	if !equalTime(old.EndTime, updated.EndTime) {
		add(FieldEndTime, deref(old.EndTime), deref(updated.EndTime))
	}
	if !equalPtr(old.Image, updated.Image) {
		add(FieldImage, deref(old.Image), deref(updated.Image))
	}
	if old.Status != updated.Status {
		add(FieldStatus, old.Status, updated.Status)
	}
	if old.InterestedCount != updated.InterestedCount {
		add(FieldInterestedCount, old.InterestedCount, updated.InterestedCount)
	}
	return deltas
}

func equalPtr[T comparable](a, b *T) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

func equalTime(a, b *time.Time) bool {
	if a == nil || b == nil {
		return a == b
	}
	return a.Equal(*b)
}

func deref[T any](v *T) any {
	if v == nil {
		return nil
	}
	return *v
}

func locationValue(l Location) any {
	if l == nil {
		return nil
	}
	return l
}
