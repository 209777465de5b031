package blkdev

import (
	"encoding/json"
	"fmt"
	"iter"
)

// Device is one node in the normalized block-device tree. The tree is
// immutable once parsed: queries are read-only and there is no mutation
// API. A device exclusively owns its Children subtree; there are no parent
// or shared references.
type Device struct {
	// Name identifies the device among its siblings. Names are not
	// globally unique: stacked devices (md, dm) reuse them across branches.
	Name string
	// MajMin is the "maj:min" pair, passed through as an opaque string.
	MajMin    string
	Removable bool
	ReadOnly  bool
	// SizeBytes is the canonical byte count regardless of whether the
	// source reported raw bytes or a human-readable size.
	SizeBytes uint64
	// Type is the raw TYPE label as reported; Kind is its classification.
	Type string
	Kind DeviceKind
	// Mountpoints preserves source order. A nil entry is an empty mount
	// slot; entries are never silently dropped.
	Mountpoints []*string
	// Children is nil when the source reported no children field at all,
	// and non-nil empty when it reported an empty list. Queries treat the
	// two alike but serialization keeps them apart.
	Children []Device
}

// rawDevice mirrors the wire shape. Pointers detect missing required
// fields; RawMessage defers the polymorphic ones to the normalizers.
type rawDevice struct {
	Name        *string         `json:"name"`
	MajMin      *string         `json:"maj:min"`
	RM          *bool           `json:"rm"`
	Size        json.RawMessage `json:"size"`
	RO          *bool           `json:"ro"`
	Type        *string         `json:"type"`
	Mountpoint  json.RawMessage `json:"mountpoint"`
	Mountpoints json.RawMessage `json:"mountpoints"`
	Children    json.RawMessage `json:"children"`
}

func decodeDevice(raw json.RawMessage, path string) (Device, error) {
	var rd rawDevice
	if err := json.Unmarshal(raw, &rd); err != nil || isJSONNull(raw) {
		return Device{}, &StructuralError{Path: path, Msg: "expected a device object"}
	}
	if rd.Name == nil || *rd.Name == "" {
		return Device{}, &StructuralError{Path: path + ".name", Msg: "missing or empty"}
	}
	if rd.MajMin == nil {
		return Device{}, &StructuralError{Path: path + ".maj:min", Msg: "missing required field"}
	}
	if rd.RM == nil {
		return Device{}, &StructuralError{Path: path + ".rm", Msg: "missing required field"}
	}
	if rd.RO == nil {
		return Device{}, &StructuralError{Path: path + ".ro", Msg: "missing required field"}
	}
	if rd.Type == nil {
		return Device{}, &StructuralError{Path: path + ".type", Msg: "missing required field"}
	}

	size, err := normalizeSize(rd.Size, path+".size")
	if err != nil {
		return Device{}, err
	}
	mounts, err := normalizeMountpoints(rd.Mountpoint, rd.Mountpoints, path)
	if err != nil {
		return Device{}, err
	}
	children, err := decodeChildren(rd.Children, path)
	if err != nil {
		return Device{}, err
	}

	return Device{
		Name:        *rd.Name,
		MajMin:      *rd.MajMin,
		Removable:   *rd.RM,
		ReadOnly:    *rd.RO,
		SizeBytes:   size,
		Type:        *rd.Type,
		Kind:        ClassifyType(*rd.Type),
		Mountpoints: mounts,
		Children:    children,
	}, nil
}

// decodeChildren keeps the absent / empty distinction: nil for a missing or
// null field, a non-nil slice otherwise.
func decodeChildren(raw json.RawMessage, path string) ([]Device, error) {
	if raw == nil || isJSONNull(raw) {
		return nil, nil
	}
	var elems []json.RawMessage
	if err := json.Unmarshal(raw, &elems); err != nil {
		return nil, &StructuralError{Path: path + ".children", Msg: "expected an array of device objects"}
	}
	out := make([]Device, 0, len(elems))
	for i, e := range elems {
		child, err := decodeDevice(e, fmt.Sprintf("%s.children[%d]", path, i))
		if err != nil {
			return nil, err
		}
		out = append(out, child)
	}
	return out, nil
}

// UnmarshalJSON decodes a single device record with full normalization.
func (d *Device) UnmarshalJSON(data []byte) error {
	dev, err := decodeDevice(data, "device")
	if err != nil {
		return err
	}
	*d = dev
	return nil
}

// wireDevice is the serialized shape. Mountpoints always serializes as the
// plural array form; Children is emitted only when the slice is non-nil so
// the absent / empty distinction round-trips.
type wireDevice struct {
	Name        string    `json:"name"`
	MajMin      string    `json:"maj:min"`
	RM          bool      `json:"rm"`
	Size        uint64    `json:"size"`
	RO          bool      `json:"ro"`
	Type        string    `json:"type"`
	Mountpoints []*string `json:"mountpoints"`
	Children    *[]Device `json:"children,omitempty"`
}

func (d Device) MarshalJSON() ([]byte, error) {
	w := wireDevice{
		Name:        d.Name,
		MajMin:      d.MajMin,
		RM:          d.Removable,
		Size:        d.SizeBytes,
		RO:          d.ReadOnly,
		Type:        d.Type,
		Mountpoints: d.Mountpoints,
	}
	if w.Mountpoints == nil {
		w.Mountpoints = []*string{}
	}
	if d.Children != nil {
		w.Children = &d.Children
	}
	return json.Marshal(w)
}

// IsSystem reports whether this device or any descendant mounts the root
// filesystem at "/".
func (d *Device) IsSystem() bool {
	for _, m := range d.Mountpoints {
		if m != nil && *m == "/" {
			return true
		}
	}
	for i := range d.Children {
		if d.Children[i].IsSystem() {
			return true
		}
	}
	return false
}

// ActiveMountpoints returns the non-empty mount slots in source order.
func (d *Device) ActiveMountpoints() []string {
	out := []string{}
	for _, m := range d.Mountpoints {
		if m != nil {
			out = append(out, *m)
		}
	}
	return out
}

// IsMounted reports whether the device itself is mounted anywhere.
func (d *Device) IsMounted() bool {
	for _, m := range d.Mountpoints {
		if m != nil {
			return true
		}
	}
	return false
}

// FindChild returns the first direct child with the given name, or nil.
// It does not recurse.
func (d *Device) FindChild(name string) *Device {
	for i := range d.Children {
		if d.Children[i].Name == name {
			return &d.Children[i]
		}
	}
	return nil
}

// HasChildren reports whether any children were reported; an absent list
// and an empty list both count as none.
func (d *Device) HasChildren() bool {
	return len(d.Children) > 0
}

// ChildIter returns a restartable iterator over direct children only.
// It yields nothing when the device has no children.
func (d *Device) ChildIter() iter.Seq[*Device] {
	return func(yield func(*Device) bool) {
		for i := range d.Children {
			if !yield(&d.Children[i]) {
				return
			}
		}
	}
}
