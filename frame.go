package uhppote

import (
	"encoding/binary"
	"fmt"
	"net"
	"time"
)

// FrameSize is the fixed length of every request, reply and event frame in the protocol.
const FrameSize = 64

// SOM values. 0x17 is used by every request and by most controllers for the event stream.
// 0x19 is emitted by some v6.62 firmwares for the same event layout - it is a version marker,
// not a different wire format (spec.md §4.1, §9 "Event-frame variants").
const (
	som = 0x17
	som662 = 0x19
)

// Function codes, one per protocol operation (spec.md §6.1).
const (
	fnGetController            = 0x94
	fnSetIP                     = 0x96
	fnGetStatus                 = 0x20
	fnGetTime                   = 0x32
	fnSetTime                   = 0x30
	fnOpenDoor                  = 0x40
	fnGetListener               = 0x92
	fnSetListener               = 0x90
	fnGetDoorControl            = 0x82
	fnSetDoorControl            = 0x80
	fnGetCards                  = 0x58
	fnGetCard                   = 0x5A
	fnGetCardByIndex            = 0x5C
	fnPutCard                   = 0x50
	fnDeleteCard                = 0x52
	fnDeleteAllCards            = 0x54
	fnGetEvent                  = 0xB0
	fnGetEventIndex             = 0xB4
	fnSetEventIndex             = 0xB2
	fnRecordSpecialEvents       = 0x8E
	fnGetTimeProfile            = 0x98
	fnSetTimeProfile            = 0x88
	fnDeleteAllTimeProfiles     = 0x8A
	fnAddTask                   = 0xA8
	fnRefreshTaskList           = 0xAC
	fnClearTaskList             = 0xA6
	fnSetPCControl              = 0xA0
	fnSetInterlock              = 0xA2
	fnActivateKeypads           = 0xA4
	fnSetDoorPasscodes          = 0x8C
	fnGetAntiPassback           = 0x86
	fnSetAntiPassback           = 0x84
	fnRestoreDefaultParameters  = 0xC8
	fnEvent                     = fnGetStatus
)

// frame is a fixed 64 byte wire packet. All operation-specific encode/decode functions operate
// on a frame allocated with newFrame, mirroring the teacher's pattern of starting from a zeroed
// buffer and writing fixed-offset fields into it (modbus.go's tcp framer.encode).
type frame [FrameSize]byte

func newFrame(som byte, fn byte, controller uint32) frame {
	var f frame
	f[0] = som
	f[1] = fn
	binary.LittleEndian.PutUint32(f[4:8], controller)
	return f
}

func (f *frame) controller() uint32 {
	return binary.LittleEndian.Uint32(f[4:8])
}

func (f *frame) function() byte {
	return f[1]
}

func (f *frame) som() byte {
	return f[0]
}

// putUint32 / uint32At write/read a little-endian u32 at the given absolute frame offset.
func (f *frame) putUint32(offset int, v uint32) {
	binary.LittleEndian.PutUint32(f[offset:offset+4], v)
}

func (f *frame) uint32At(offset int) uint32 {
	return binary.LittleEndian.Uint32(f[offset : offset+4])
}

func (f *frame) putUint16(offset int, v uint16) {
	binary.LittleEndian.PutUint16(f[offset:offset+2], v)
}

func (f *frame) uint16At(offset int) uint16 {
	return binary.LittleEndian.Uint16(f[offset : offset+2])
}

// putUint24 / uint24At handle the 3-byte little-endian PIN/passcode encoding (spec.md §4.1).
func (f *frame) putUint24(offset int, v uint32) {
	f[offset] = byte(v)
	f[offset+1] = byte(v >> 8)
	f[offset+2] = byte(v >> 16)
}

func (f *frame) uint24At(offset int) uint32 {
	return uint32(f[offset]) | uint32(f[offset+1])<<8 | uint32(f[offset+2])<<16
}

func (f *frame) putBool(offset int, v bool) {
	if v {
		f[offset] = 1
	} else {
		f[offset] = 0
	}
}

func (f *frame) boolAt(offset int) bool {
	return f[offset] != 0
}

func (f *frame) putIPv4(offset int, ip net.IP) {
	v4 := ip.To4()
	copy(f[offset:offset+4], v4)
}

func (f *frame) ipv4At(offset int) net.IP {
	ip := make(net.IP, 4)
	copy(ip, f[offset:offset+4])
	return ip
}

func (f *frame) putMAC(offset int, mac net.HardwareAddr) {
	copy(f[offset:offset+6], mac)
}

func (f *frame) macAt(offset int) net.HardwareAddr {
	mac := make(net.HardwareAddr, 6)
	copy(mac, f[offset:offset+6])
	return mac
}

func (f *frame) putWeekdays(offset int, w Weekdays) {
	days := [7]bool{w.Monday, w.Tuesday, w.Wednesday, w.Thursday, w.Friday, w.Saturday, w.Sunday}
	for i, d := range days {
		f.putBool(offset+i, d)
	}
}

func (f *frame) weekdaysAt(offset int) Weekdays {
	return Weekdays{
		Monday:    f.boolAt(offset),
		Tuesday:   f.boolAt(offset + 1),
		Wednesday: f.boolAt(offset + 2),
		Thursday:  f.boolAt(offset + 3),
		Friday:    f.boolAt(offset + 4),
		Saturday:  f.boolAt(offset + 5),
		Sunday:    f.boolAt(offset + 6),
	}
}

func toBCD(v int) byte {
	return byte((v/10)<<4 | (v % 10))
}

func fromBCD(b byte) int {
	return int(b>>4)*10 + int(b&0x0F)
}

// putDate writes a 3 byte BCD YY MM DD date at offset. A nil date zeroes the field, which
// decodes back to nil per the null-date invariant (spec.md §3, §4.1).
func (f *frame) putDate(offset int, d *Date) {
	if d == nil {
		f[offset], f[offset+1], f[offset+2] = 0, 0, 0
		return
	}
	f[offset] = toBCD(d.Year % 100)
	f[offset+1] = toBCD(d.Month)
	f[offset+2] = toBCD(d.Day)
}

func (f *frame) dateAt(offset int) *Date {
	if f[offset] == 0 && f[offset+1] == 0 && f[offset+2] == 0 {
		return nil
	}
	year := fromBCD(f[offset])
	return &Date{Year: 2000 + year, Month: fromBCD(f[offset+1]), Day: fromBCD(f[offset+2])}
}

// putHHMM / hhmmAt encode a 2 byte BCD HH:MM time-of-day, used by time profile segments and
// scheduled tasks.
func (f *frame) putHHMM(offset int, t *HHMM) {
	if t == nil {
		return
	}
	f[offset] = toBCD(t.Hour)
	f[offset+1] = toBCD(t.Minute)
}

func (f *frame) hhmmAt(offset int) *HHMM {
	if f[offset] == 0 && f[offset+1] == 0 {
		return nil
	}
	return &HHMM{Hour: fromBCD(f[offset]), Minute: fromBCD(f[offset+1])}
}

// putDateTime / dateTimeAt encode the 6 byte BCD YYMMDDHHMMSS system/event timestamp.
func (f *frame) putDateTime(offset int, t *time.Time) {
	if t == nil {
		return
	}
	f[offset] = toBCD(t.Year() % 100)
	f[offset+1] = toBCD(int(t.Month()))
	f[offset+2] = toBCD(t.Day())
	f[offset+3] = toBCD(t.Hour())
	f[offset+4] = toBCD(t.Minute())
	f[offset+5] = toBCD(t.Second())
}

func (f *frame) dateTimeAt(offset int) *time.Time {
	for i := 0; i < 6; i++ {
		if f[offset+i] != 0 {
			return dateTimeFromBCD(f, offset)
		}
	}
	return nil
}

func dateTimeFromBCD(f *frame, offset int) *time.Time {
	year := 2000 + fromBCD(f[offset])
	month := fromBCD(f[offset+1])
	day := fromBCD(f[offset+2])
	hour := fromBCD(f[offset+3])
	minute := fromBCD(f[offset+4])
	second := fromBCD(f[offset+5])
	t := time.Date(year, time.Month(month), day, hour, minute, second, 0, time.UTC)
	return &t
}

// validateReply checks the common reply invariants shared by every operation (spec.md §3
// Invariants): frame must carry the expected function code, and if a non-zero controller
// serial was requested, the reply's serial must match it.
func validateReply(f *frame, wantFn byte, wantController uint32) error {
	if f.function() != wantFn {
		return newProtocolError(fmt.Sprintf("invalid reply function code (%02x)", f.function()))
	}
	if wantController != 0 && f.controller() != wantController {
		return newProtocolError(fmt.Sprintf("invalid controller (%v)", f.controller()))
	}
	return nil
}
