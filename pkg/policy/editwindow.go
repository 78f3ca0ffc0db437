package policy

import "time"

// EditWindow is how long after creation a non-admin author may still modify
// or delete their own record.
const EditWindow = 24 * time.Hour

// IsEditable reports whether a record created at createdAt is still inside
// the edit window at now. Zero timestamps and clock skew (createdAt in the
// future) yield false — the check fails closed.
func IsEditable(createdAt, now time.Time) bool {
	if createdAt.IsZero() || now.IsZero() {
		return false
	}
	diff := now.Sub(createdAt)
	return diff >= 0 && diff < EditWindow
}

// IsEditableString parses an RFC3339 creation timestamp and applies IsEditable.
// Unparseable input yields false.
func IsEditableString(createdAt string, now time.Time) bool {
	t, err := time.Parse(time.RFC3339, createdAt)
	if err != nil {
		return false
	}
	return IsEditable(t, now)
}
