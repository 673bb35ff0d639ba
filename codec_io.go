package uhppote

import "net"

// encodeGetListener / decodeListener implement GetListener (spec.md §4.7).
func encodeGetListener(controller uint32) frame {
	return newFrame(som, fnGetListener, controller)
}

func decodeListener(f *frame, wantController uint32) (*Listener, error) {
	if err := validateReply(f, fnGetListener, wantController); err != nil {
		return nil, err
	}
	return &Listener{
		Address:  f.ipv4At(8),
		Port:     f.uint16At(12),
		Interval: f[14],
	}, nil
}

// encodeSetListener / decodeSetListener implement SetListener.
func encodeSetListener(controller uint32, addr net.IP, port uint16, interval byte) frame {
	f := newFrame(som, fnSetListener, controller)
	f.putIPv4(8, addr)
	f.putUint16(12, port)
	f[14] = interval
	return f
}

func decodeSetListener(f *frame, wantController uint32) (bool, error) {
	if err := validateReply(f, fnSetListener, wantController); err != nil {
		return false, err
	}
	return f.boolAt(8), nil
}

// encodeGetDoorControl / decodeDoorControl implement GetDoorControl.
func encodeGetDoorControl(controller uint32, door byte) frame {
	f := newFrame(som, fnGetDoorControl, controller)
	f[8] = door
	return f
}

func decodeDoorControl(f *frame, wantController uint32) (door, mode, delay byte, err error) {
	if err = validateReply(f, fnGetDoorControl, wantController); err != nil {
		return 0, 0, 0, err
	}
	return f[8], f[9], f[10], nil
}

// encodeSetDoorControl builds the SetDoorControl request; the reply shares decodeDoorControl's
// layout since the controller echoes the accepted values.
func encodeSetDoorControl(controller uint32, door, mode, delay byte) frame {
	f := newFrame(som, fnSetDoorControl, controller)
	f[8] = door
	f[9] = mode
	f[10] = delay
	return f
}

// encodeOpenDoor / decodeOpenDoor implement OpenDoor.
func encodeOpenDoor(controller uint32, door byte) frame {
	f := newFrame(som, fnOpenDoor, controller)
	f[8] = door
	return f
}

func decodeOpenDoor(f *frame, wantController uint32) (bool, error) {
	if err := validateReply(f, fnOpenDoor, wantController); err != nil {
		return false, err
	}
	return f.boolAt(8), nil
}

// encodeRecordSpecialEvents / decodeSuccess8 implement RecordSpecialEvents.
func encodeRecordSpecialEvents(controller uint32, enable bool) frame {
	f := newFrame(som, fnRecordSpecialEvents, controller)
	f.putBool(8, enable)
	return f
}

// decodeSuccess8 decodes the common "single bool at offset 8" reply shape shared by several
// set-style operations (spec.md §4.1).
func decodeSuccess8(f *frame, fn byte, wantController uint32) (bool, error) {
	if err := validateReply(f, fn, wantController); err != nil {
		return false, err
	}
	return f.boolAt(8), nil
}

// encodeSetPCControl / SetInterlock / ActivateKeypads / SetDoorPasscodes / AntiPassback /
// RestoreDefaultParameters (spec.md SPEC_FULL supplemental operations, grounded on
// uhppote_async.py's equivalents).

func encodeSetPCControl(controller uint32, enable bool) frame {
	f := newFrame(som, fnSetPCControl, controller)
	f.putBool(8, enable)
	return f
}

func encodeSetInterlock(controller uint32, mode byte) frame {
	f := newFrame(som, fnSetInterlock, controller)
	f[8] = mode
	return f
}

func encodeActivateKeypads(controller uint32, door1, door2, door3, door4 bool) frame {
	f := newFrame(som, fnActivateKeypads, controller)
	f.putBool(8, door1)
	f.putBool(9, door2)
	f.putBool(10, door3)
	f.putBool(11, door4)
	return f
}

func encodeSetDoorPasscodes(controller uint32, door byte, pin1, pin2, pin3, pin4 uint32) frame {
	f := newFrame(som, fnSetDoorPasscodes, controller)
	f[8] = door
	f.putUint24(9, pin1)
	f.putUint24(12, pin2)
	f.putUint24(15, pin3)
	f.putUint24(18, pin4)
	return f
}

func encodeGetAntiPassback(controller uint32) frame {
	return newFrame(som, fnGetAntiPassback, controller)
}

func decodeAntiPassback(f *frame, wantController uint32) (byte, error) {
	if err := validateReply(f, fnGetAntiPassback, wantController); err != nil {
		return 0, err
	}
	return f[8], nil
}

func encodeSetAntiPassback(controller uint32, mode byte) frame {
	f := newFrame(som, fnSetAntiPassback, controller)
	f[8] = mode
	return f
}

func encodeRestoreDefaultParameters(controller uint32) frame {
	return newFrame(som, fnRestoreDefaultParameters, controller)
}
