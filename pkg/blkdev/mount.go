package blkdev

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// normalizeMountpoints reconciles the two wire shapes of the mount field:
// a single nullable string (older lsblk, field "mountpoint") or an array of
// nullable strings (field "mountpoints"). Either wire name accepts either
// shape; when both names are present the plural one wins. An absent field
// normalizes to an empty list, which is distinct from a list holding one
// null slot.
func normalizeMountpoints(single, plural json.RawMessage, path string) ([]*string, error) {
	raw, field := single, "mountpoint"
	if plural != nil {
		raw, field = plural, "mountpoints"
	}
	if raw == nil {
		return []*string{}, nil
	}
	fpath := path + "." + field

	if isJSONArray(raw) {
		var elems []json.RawMessage
		if err := json.Unmarshal(raw, &elems); err != nil {
			return nil, &StructuralError{Path: fpath, Msg: "invalid array"}
		}
		out := make([]*string, len(elems))
		for i, e := range elems {
			v, err := mountSlot(e)
			if err != nil {
				return nil, &StructuralError{Path: fmt.Sprintf("%s[%d]", fpath, i), Msg: "expected string or null"}
			}
			out[i] = v
		}
		return out, nil
	}

	v, err := mountSlot(raw)
	if err != nil {
		return nil, &StructuralError{Path: fpath, Msg: "expected string, null, or array"}
	}
	return []*string{v}, nil
}

// mountSlot decodes one mount entry: null means an empty slot.
func mountSlot(raw json.RawMessage) (*string, error) {
	if isJSONNull(raw) {
		return nil, nil
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return nil, err
	}
	return &s, nil
}

func isJSONArray(raw json.RawMessage) bool {
	t := bytes.TrimLeft(raw, " \t\r\n")
	return len(t) > 0 && t[0] == '['
}

func isJSONNull(raw json.RawMessage) bool {
	return string(bytes.TrimSpace(raw)) == "null"
}
