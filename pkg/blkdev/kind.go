package blkdev

import "strings"

// DeviceKind classifies the lsblk TYPE label into a closed set. The zero
// value is KindUnrecognized so that labels outside the known vocabulary
// never abort a parse; the raw label is kept on the Device for round-trips.
type DeviceKind int

const (
	KindUnrecognized DeviceKind = iota
	KindDisk
	KindPartition
	KindLoop
	KindRAID0
	KindRAID1
	KindRAID5
	KindRAID6
	KindRAID10
	KindLVM
	KindCrypt
	KindROM
)

var kindByLabel = map[string]DeviceKind{
	"disk":   KindDisk,
	"part":   KindPartition,
	"loop":   KindLoop,
	"raid0":  KindRAID0,
	"raid1":  KindRAID1,
	"raid5":  KindRAID5,
	"raid6":  KindRAID6,
	"raid10": KindRAID10,
	"lvm":    KindLVM,
	"crypt":  KindCrypt,
	"rom":    KindROM,
}

// ClassifyType maps a raw TYPE label to a DeviceKind. Total: any label not
// in the known vocabulary maps to KindUnrecognized, never an error.
func ClassifyType(label string) DeviceKind {
	return kindByLabel[strings.ToLower(label)]
}

func (k DeviceKind) String() string {
	switch k {
	case KindDisk:
		return "disk"
	case KindPartition:
		return "part"
	case KindLoop:
		return "loop"
	case KindRAID0:
		return "raid0"
	case KindRAID1:
		return "raid1"
	case KindRAID5:
		return "raid5"
	case KindRAID6:
		return "raid6"
	case KindRAID10:
		return "raid10"
	case KindLVM:
		return "lvm"
	case KindCrypt:
		return "crypt"
	case KindROM:
		return "rom"
	default:
		return "unknown"
	}
}
