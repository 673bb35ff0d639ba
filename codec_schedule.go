package uhppote

// encodeGetTimeProfile / decodeTimeProfile implement GetTimeProfile (spec.md SPEC_FULL
// supplemental operations). ID 0 in the reply is the "not found" sentinel promoted to
// ErrTimeProfileNotFound by the dispatcher's record variant.
func encodeGetTimeProfile(controller uint32, id byte) frame {
	f := newFrame(som, fnGetTimeProfile, controller)
	f[8] = id
	return f
}

func decodeTimeProfile(f *frame, fn byte, wantController uint32) (*TimeProfile, error) {
	if err := validateReply(f, fn, wantController); err != nil {
		return nil, err
	}
	return &TimeProfile{
		ID:            f[8],
		StartDate:     f.dateAt(9),
		EndDate:       f.dateAt(12),
		Weekdays:      f.weekdaysAt(15),
		Segment1Start: f.hhmmAt(22),
		Segment1End:   f.hhmmAt(24),
		Segment2Start: f.hhmmAt(26),
		Segment2End:   f.hhmmAt(28),
		Segment3Start: f.hhmmAt(30),
		Segment3End:   f.hhmmAt(32),
		LinkedProfile: f[34],
	}, nil
}

// encodeSetTimeProfile implements SetTimeProfile, writing the same field layout decodeTimeProfile
// reads. The SetTimeProfile reply is only a success flag (decodeSetTimeProfile).
// Callers are expected to validate p.ID is in [2,254] before calling (profile ids 0 and 1 are
// reserved, per spec.md SPEC_FULL §4.1).
func encodeSetTimeProfile(controller uint32, p TimeProfile) frame {
	f := newFrame(som, fnSetTimeProfile, controller)
	f[8] = p.ID
	f.putDate(9, p.StartDate)
	f.putDate(12, p.EndDate)
	f.putWeekdays(15, p.Weekdays)
	f.putHHMM(22, p.Segment1Start)
	f.putHHMM(24, p.Segment1End)
	f.putHHMM(26, p.Segment2Start)
	f.putHHMM(28, p.Segment2End)
	f.putHHMM(30, p.Segment3Start)
	f.putHHMM(32, p.Segment3End)
	f[34] = p.LinkedProfile
	return f
}

func decodeSetTimeProfile(f *frame, wantController uint32) (bool, error) {
	return decodeSuccess8(f, fnSetTimeProfile, wantController)
}

// encodeDeleteAllTimeProfiles / decodeDeleteAllTimeProfiles implement DeleteAllTimeProfiles.
func encodeDeleteAllTimeProfiles(controller uint32) frame {
	return newFrame(som, fnDeleteAllTimeProfiles, controller)
}

func decodeDeleteAllTimeProfiles(f *frame, wantController uint32) (bool, error) {
	return decodeSuccess8(f, fnDeleteAllTimeProfiles, wantController)
}

// encodeAddTask / decodeAddTask implement AddTask.
func encodeAddTask(controller uint32, t Task) frame {
	f := newFrame(som, fnAddTask, controller)
	f.putDate(8, t.StartDate)
	f.putDate(11, t.EndDate)
	f.putWeekdays(14, t.Weekdays)
	f.putHHMM(21, t.StartTime)
	f[23] = t.Door
	f[24] = t.TaskType
	f[25] = t.MoreCards
	return f
}

func decodeAddTask(f *frame, wantController uint32) (bool, error) {
	return decodeSuccess8(f, fnAddTask, wantController)
}

// encodeRefreshTaskList / decodeRefreshTaskList implement RefreshTaskList.
func encodeRefreshTaskList(controller uint32) frame {
	return newFrame(som, fnRefreshTaskList, controller)
}

func decodeRefreshTaskList(f *frame, wantController uint32) (bool, error) {
	return decodeSuccess8(f, fnRefreshTaskList, wantController)
}

// encodeClearTaskList / decodeClearTaskList implement ClearTaskList.
func encodeClearTaskList(controller uint32) frame {
	return newFrame(som, fnClearTaskList, controller)
}

func decodeClearTaskList(f *frame, wantController uint32) (bool, error) {
	return decodeSuccess8(f, fnClearTaskList, wantController)
}
