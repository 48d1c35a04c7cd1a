package csvparse

// FieldKind tags how a value ended up in a Row.
type FieldKind uint8

const (
	// Present is a value found at a header position.
	Present FieldKind = iota
	// Absent marks a header position the line had no field for.
	Absent
	// Extra is a surplus field beyond the header's length.
	Extra
)

// String returns the lower-case name of the kind.
func (k FieldKind) String() string {
	switch k {
	case Present:
		return "present"
	case Absent:
		return "absent"
	case Extra:
		return "extra"
	default:
		return "unknown"
	}
}

// Field is one positional value in a Row.
//
// Text is empty for Absent fields. Index is the 1-based surplus position
// for Extra fields and zero otherwise.
type Field struct {
	Kind  FieldKind
	Text  string
	Index int
}

// PresentField returns a field holding text found at a header position.
func PresentField(text string) Field {
	return Field{Kind: Present, Text: text}
}

// AbsentField returns the explicit "no value" marker.
func AbsentField() Field {
	return Field{Kind: Absent}
}

// ExtraField returns a surplus field at 1-based position k past the header.
func ExtraField(text string, k int) Field {
	return Field{Kind: Extra, Text: text, Index: k}
}

// IsAbsent reports whether the field is the absent marker.
func (f Field) IsAbsent() bool {
	return f.Kind == Absent
}

// Value returns the text and true, or "" and false for an absent field.
func (f Field) Value() (string, bool) {
	if f.Kind == Absent {
		return "", false
	}
	return f.Text, true
}
