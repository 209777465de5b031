package blkdev

import "fmt"

// StructuralError reports input that does not have the expected document
// shape: a missing required field, or a value of the wrong JSON type for a
// field that is not one of the polymorphic ones. Path locates the offending
// field, e.g. "blockdevices[3].children[1].size".
type StructuralError struct {
	Path string
	Msg  string
}

func (e *StructuralError) Error() string {
	if e.Path == "" {
		return e.Msg
	}
	return fmt.Sprintf("%s: %s", e.Path, e.Msg)
}

// NormalizeError reports a field whose shape was acceptable but whose value
// could not be normalized (unknown size unit, non-numeric size body). It
// carries the offending raw value verbatim.
type NormalizeError struct {
	Path  string
	Value string
	Msg   string
}

func (e *NormalizeError) Error() string {
	return fmt.Sprintf("%s: %s (value %q)", e.Path, e.Msg, e.Value)
}
