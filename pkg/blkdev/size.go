package blkdev

import (
	"encoding/json"
	"errors"
	"math"
	"strconv"
	"strings"
)

// Unit multipliers accepted in human-readable sizes, matched
// case-insensitively. lsblk without --bytes prints binary units.
var sizeUnits = map[string]uint64{
	"":    1,
	"B":   1,
	"K":   1 << 10,
	"KB":  1 << 10,
	"KIB": 1 << 10,
	"M":   1 << 20,
	"MB":  1 << 20,
	"MIB": 1 << 20,
	"G":   1 << 30,
	"GB":  1 << 30,
	"GIB": 1 << 30,
	"T":   1 << 40,
	"TB":  1 << 40,
	"TIB": 1 << 40,
	"P":   1 << 50,
	"PB":  1 << 50,
	"PIB": 1 << 50,
}

// normalizeSize converts a size field of unknown shape into a byte count.
// A JSON number is taken as bytes directly (lsblk --bytes); a JSON string
// is parsed as "<number><unit>" (plain lsblk). Anything else is structural.
func normalizeSize(raw json.RawMessage, path string) (uint64, error) {
	if len(raw) == 0 {
		return 0, &StructuralError{Path: path, Msg: "missing required field"}
	}
	if isJSONNull(raw) {
		return 0, &StructuralError{Path: path, Msg: "size must be a number or a string"}
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		n, perr := parseSizeString(s)
		if perr != nil {
			return 0, &NormalizeError{Path: path, Value: s, Msg: perr.Error()}
		}
		return n, nil
	}
	var num json.Number
	if err := json.Unmarshal(raw, &num); err != nil {
		return 0, &StructuralError{Path: path, Msg: "size must be a number or a string"}
	}
	if i, err := num.Int64(); err == nil {
		if i < 0 {
			return 0, &NormalizeError{Path: path, Value: num.String(), Msg: "size must be non-negative"}
		}
		return uint64(i), nil
	}
	f, err := num.Float64()
	if err != nil {
		return 0, &NormalizeError{Path: path, Value: num.String(), Msg: "invalid size number"}
	}
	if f < 0 {
		return 0, &NormalizeError{Path: path, Value: num.String(), Msg: "size must be non-negative"}
	}
	// Fractional byte counts truncate toward zero.
	return uint64(f), nil
}

// parseSizeString parses a human-readable size like "894.3G" or "512 MiB".
func parseSizeString(s string) (uint64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, errEmptySize
	}
	i, dot := 0, false
	for i < len(s) {
		c := s[i]
		if c >= '0' && c <= '9' {
			i++
			continue
		}
		if c == '.' && !dot {
			dot = true
			i++
			continue
		}
		break
	}
	num, unit := s[:i], strings.TrimSpace(s[i:])
	n, err := strconv.ParseFloat(num, 64)
	if err != nil {
		return 0, errInvalidNumber
	}
	mult, ok := sizeUnits[strings.ToUpper(unit)]
	if !ok {
		return 0, errUnknownUnit
	}
	return uint64(math.Round(n * float64(mult))), nil
}

var (
	errEmptySize     = errors.New("empty size string")
	errInvalidNumber = errors.New("invalid size number")
	errUnknownUnit   = errors.New("unknown size unit")
)
