// Package blkdev turns the JSON inventory printed by lsblk into a
// normalized device tree and answers queries over it. It never invokes
// lsblk itself; callers hand it text already captured elsewhere.
package blkdev

import (
	"encoding/json"
	"fmt"
	"iter"
)

// Collection holds the top-level devices in the order the source reported
// them. Nothing in this package ever re-sorts.
type Collection struct {
	Devices []Device
}

// Parse builds a Collection from raw lsblk --json output. Parsing is
// all-or-nothing: the first structural or normalization failure aborts and
// no partial tree is returned.
func Parse(data []byte) (*Collection, error) {
	var doc struct {
		Blockdevices *[]json.RawMessage `json:"blockdevices"`
	}
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, &StructuralError{Msg: "invalid document: " + err.Error()}
	}
	if doc.Blockdevices == nil {
		return nil, &StructuralError{Path: "blockdevices", Msg: "missing required field"}
	}
	devices := make([]Device, 0, len(*doc.Blockdevices))
	for i, raw := range *doc.Blockdevices {
		dev, err := decodeDevice(raw, fmt.Sprintf("blockdevices[%d]", i))
		if err != nil {
			return nil, err
		}
		devices = append(devices, dev)
	}
	return &Collection{Devices: devices}, nil
}

func (c *Collection) UnmarshalJSON(data []byte) error {
	parsed, err := Parse(data)
	if err != nil {
		return err
	}
	*c = *parsed
	return nil
}

func (c Collection) MarshalJSON() ([]byte, error) {
	devices := c.Devices
	if devices == nil {
		devices = []Device{}
	}
	return json.Marshal(map[string][]Device{"blockdevices": devices})
}

// System returns the top-level devices whose subtree mounts "/", in
// original relative order.
func (c *Collection) System() []*Device {
	out := []*Device{}
	for i := range c.Devices {
		if c.Devices[i].IsSystem() {
			out = append(out, &c.Devices[i])
		}
	}
	return out
}

// NonSystem returns the top-level devices that do not mount "/" anywhere
// in their subtree, in original relative order. Together with System it
// recovers the exact top-level set.
func (c *Collection) NonSystem() []*Device {
	out := []*Device{}
	for i := range c.Devices {
		if !c.Devices[i].IsSystem() {
			out = append(out, &c.Devices[i])
		}
	}
	return out
}

// FindByName returns the first top-level device with the given name, or
// nil. It does not recurse into children.
func (c *Collection) FindByName(name string) *Device {
	for i := range c.Devices {
		if c.Devices[i].Name == name {
			return &c.Devices[i]
		}
	}
	return nil
}

func (c *Collection) Len() int {
	return len(c.Devices)
}

// All returns a restartable iterator over the top-level devices.
func (c *Collection) All() iter.Seq[*Device] {
	return func(yield func(*Device) bool) {
		for i := range c.Devices {
			if !yield(&c.Devices[i]) {
				return
			}
		}
	}
}
