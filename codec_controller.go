package uhppote

import "fmt"

// encodeGetController builds the GetController request frame (spec.md §4.7). The request has no
// payload beyond the common header.
func encodeGetController(controller uint32) frame {
	return newFrame(som, fnGetController, controller)
}

// decodeGetController decodes the GetController reply into a ControllerInfo (spec.md §3).
func decodeGetController(f *frame, wantController uint32) (*ControllerInfo, error) {
	if err := validateReply(f, fnGetController, wantController); err != nil {
		return nil, err
	}

	info := &ControllerInfo{
		Controller: f.controller(),
		IPAddress:  f.ipv4At(8),
		SubnetMask: f.ipv4At(12),
		Gateway:    f.ipv4At(16),
		MACAddress: f.macAt(20),
		Version:    fmt.Sprintf("v%d.%02d", fromBCD(f[26]), fromBCD(f[27])),
	}

	// The firmware build date is encoded as 4 BCD bytes (century, year, month, day) rather than
	// the 3 byte YY MM DD layout used elsewhere, so it is decoded directly instead of via dateAt.
	if f[28] != 0 || f[29] != 0 || f[30] != 0 || f[31] != 0 {
		info.Date = &Date{
			Year:  fromBCD(f[28])*100 + fromBCD(f[29]),
			Month: fromBCD(f[30]),
			Day:   fromBCD(f[31]),
		}
	}
	return info, nil
}

// encodeSetIP builds the SetIP request frame. The controller never replies to this operation
// (spec.md §4.7 point 2), so there is no matching decode function.
func encodeSetIP(controller uint32, ip, mask, gateway [4]byte) frame {
	f := newFrame(som, fnSetIP, controller)
	f.putIPv4(8, ip[:])
	f.putIPv4(12, mask[:])
	f.putIPv4(16, gateway[:])
	return f
}

// encodeGetTime builds the GetTime request frame.
func encodeGetTime(controller uint32) frame {
	return newFrame(som, fnGetTime, controller)
}

// decodeGetTime decodes the GetTime reply into the controller's current date/time.
func decodeGetTime(f *frame, wantController uint32) (*Date, *HHMM, error) {
	if err := validateReply(f, fnGetTime, wantController); err != nil {
		return nil, nil, err
	}
	t := f.dateTimeAt(8)
	if t == nil {
		return nil, nil, nil
	}
	date := &Date{Year: t.Year(), Month: int(t.Month()), Day: t.Day()}
	hhmm := &HHMM{Hour: t.Hour(), Minute: t.Minute()}
	return date, hhmm, nil
}

// encodeSetTime builds the SetTime request frame, encoding date and time-of-day at second
// resolution into a single 6 byte BCD field (spec.md §4.1).
func encodeSetTime(controller uint32, date Date, hour, minute, second int) frame {
	f := newFrame(som, fnSetTime, controller)
	f[8] = toBCD(date.Year % 100)
	f[9] = toBCD(date.Month)
	f[10] = toBCD(date.Day)
	f[11] = toBCD(hour)
	f[12] = toBCD(minute)
	f[13] = toBCD(second)
	return f
}

// decodeSetTime decodes the SetTime reply, which echoes the accepted date/time.
func decodeSetTime(f *frame, wantController uint32) (*Date, *HHMM, error) {
	if err := validateReply(f, fnSetTime, wantController); err != nil {
		return nil, nil, err
	}
	t := f.dateTimeAt(8)
	if t == nil {
		return nil, nil, nil
	}
	return &Date{Year: t.Year(), Month: int(t.Month()), Day: t.Day()}, &HHMM{Hour: t.Hour(), Minute: t.Minute()}, nil
}

// encodeGetStatus builds the GetStatus request frame.
func encodeGetStatus(controller uint32) frame {
	return newFrame(som, fnGetStatus, controller)
}

// decodeStatus decodes a GetStatus reply (spec.md §3, §4.1). Event is nil when the embedded event
// index is 0. Unsolicited event frames delivered to the listener are decoded by decodeEventFrame
// instead, which reads the event fields from offset 8.
func decodeStatus(f *frame, wantController uint32) (*Status, error) {
	if err := validateReply(f, fnGetStatus, wantController); err != nil {
		return nil, err
	}

	t := f.dateTimeAt(8)
	s := &Status{
		Controller:  f.controller(),
		DoorOpen:    [4]bool{f.boolAt(14), f.boolAt(15), f.boolAt(16), f.boolAt(17)},
		DoorButton:  [4]bool{f.boolAt(18), f.boolAt(19), f.boolAt(20), f.boolAt(21)},
		Relays:      f[22],
		Inputs:      f[23],
		SystemError: f[24],
		SpecialInfo: f[25],
	}
	if t != nil {
		s.SystemDate = &Date{Year: t.Year(), Month: int(t.Month()), Day: t.Day()}
		s.SystemTime = &HHMM{Hour: t.Hour(), Minute: t.Minute()}
	}

	if index := f.uint32At(26); index != 0 {
		s.Event = &Event{
			Index:         index,
			Kind:          f[30],
			AccessGranted: f.boolAt(31),
			Door:          f[32],
			Direction:     f[33],
			Card:          f.uint32At(34),
			Timestamp:     f.dateTimeAt(38),
			Reason:        f[44],
		}
	}

	return s, nil
}
