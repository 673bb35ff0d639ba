package uhppote

// encodeGetEvent / decodeGetEvent implement GetEvent (spec.md §4.7): fetch a single logged event
// by index. Index 0 in the reply means "no such event" and Kind 0xFF means "overwritten" - the
// dispatcher's record variant promotes these into ErrEventNotFound / ErrEventOverwritten.
func encodeGetEvent(controller, index uint32) frame {
	f := newFrame(som, fnGetEvent, controller)
	f.putUint32(8, index)
	return f
}

func decodeGetEvent(f *frame, wantController uint32) (*Event, error) {
	if err := validateReply(f, fnGetEvent, wantController); err != nil {
		return nil, err
	}
	return &Event{
		Index:         f.uint32At(8),
		Kind:          f[12],
		AccessGranted: f.boolAt(13),
		Door:          f[14],
		Direction:     f[15],
		Card:          f.uint32At(16),
		Timestamp:     f.dateTimeAt(20),
		Reason:        f[26],
	}, nil
}

// encodeGetEventIndex / decodeGetEventIndex implement GetEventIndex: the controller's current
// read/write event index watermark.
func encodeGetEventIndex(controller uint32) frame {
	return newFrame(som, fnGetEventIndex, controller)
}

func decodeGetEventIndex(f *frame, wantController uint32) (uint32, error) {
	if err := validateReply(f, fnGetEventIndex, wantController); err != nil {
		return 0, err
	}
	return f.uint32At(8), nil
}

// encodeSetEventIndex / decodeSetEventIndex implement SetEventIndex.
func encodeSetEventIndex(controller, index uint32) frame {
	f := newFrame(som, fnSetEventIndex, controller)
	f.putUint32(8, index)
	return f
}

func decodeSetEventIndex(f *frame, wantController uint32) (bool, error) {
	return decodeSuccess8(f, fnSetEventIndex, wantController)
}

// decodeRecordSpecialEvents decodes the reply to RecordSpecialEvents (encoded in codec_io.go).
func decodeRecordSpecialEvents(f *frame, wantController uint32) (bool, error) {
	return decodeSuccess8(f, fnRecordSpecialEvents, wantController)
}

// decodeEventFrame decodes a spontaneous event frame delivered by the listener (spec.md §5). It
// shares the field shape of GetStatus's embedded event sub-record, but starts at offset 8 since
// there is no preceding status payload. Unlike GetEvent, an index of 0 still decodes to a valid
// Event rather than an error - a standalone frame with no event to report is itself meaningful
// telemetry, not a "not found" condition.
func decodeEventFrame(f *frame) (*Event, error) {
	if err := validateReply(f, fnEvent, 0); err != nil {
		return nil, err
	}
	return &Event{
		Index:         f.uint32At(8),
		Kind:          f[12],
		AccessGranted: f.boolAt(13),
		Door:          f[14],
		Direction:     f[15],
		Card:          f.uint32At(16),
		Timestamp:     f.dateTimeAt(20),
		Reason:        f[26],
	}, nil
}
