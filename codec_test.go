package uhppote

import (
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// TestDecodeGetController_S1 mirrors spec.md's literal S1 scenario: get_controller(405419896)
// replies with a specific identity/network record.
func TestDecodeGetController_S1(t *testing.T) {
	f := newFrame(som, fnGetController, 405419896)
	f.putIPv4(8, net.ParseIP("192.168.1.100"))
	f.putIPv4(12, net.ParseIP("255.255.255.0"))
	f.putIPv4(16, net.ParseIP("192.168.1.1"))
	mac, err := net.ParseMAC("00:12:23:34:45:56")
	require.NoError(t, err)
	f.putMAC(20, mac)
	f[26], f[27] = 0x08, 0x92
	f[28], f[29], f[30], f[31] = 0x20, 0x18, 0x11, 0x05

	info, err := decodeGetController(&f, 405419896)
	require.NoError(t, err)
	require.Equal(t, uint32(405419896), info.Controller)
	require.True(t, info.IPAddress.Equal(net.ParseIP("192.168.1.100")))
	require.True(t, info.SubnetMask.Equal(net.ParseIP("255.255.255.0")))
	require.True(t, info.Gateway.Equal(net.ParseIP("192.168.1.1")))
	require.Equal(t, mac, info.MACAddress)
	require.Equal(t, "v8.92", info.Version)
	require.Equal(t, &Date{Year: 2018, Month: 11, Day: 5}, info.Date)
}

func TestEncodeDecodeGetController_RoundTrip(t *testing.T) {
	req := encodeGetController(405419896)
	require.Equal(t, byte(fnGetController), req.function())
	require.Equal(t, uint32(405419896), req.controller())
	info, err := decodeGetController(&req, 405419896)
	require.NoError(t, err)
	require.Equal(t, uint32(405419896), info.Controller)
}

func TestGetTimeSetTime_RoundTrip(t *testing.T) {
	req := encodeSetTime(405419896, Date{Year: 2024, Month: 3, Day: 15}, 13, 45, 30)
	req[1] = fnGetTime // reuse layout to exercise decodeGetTime against the same bytes
	date, hhmm, err := decodeGetTime(&req, 405419896)
	require.NoError(t, err)
	require.Equal(t, &Date{Year: 2024, Month: 3, Day: 15}, date)
	require.Equal(t, &HHMM{Hour: 13, Minute: 45}, hhmm)
}

func TestDecodeStatus_NoEvent(t *testing.T) {
	f := newFrame(som, fnGetStatus, 405419896)
	ts := time.Date(2024, time.March, 15, 13, 45, 30, 0, time.UTC)
	f.putDateTime(8, &ts)
	status, err := decodeStatus(&f, 405419896)
	require.NoError(t, err)
	require.Nil(t, status.Event)
}

func TestDecodeStatus_WithEvent(t *testing.T) {
	f := newFrame(som, fnGetStatus, 405419896)
	f.putUint32(26, 17)
	f[30] = 1
	f.putBool(31, true)
	f[32] = 3
	f[33] = 1
	f.putUint32(34, 8165538)
	status, err := decodeStatus(&f, 405419896)
	require.NoError(t, err)
	require.NotNil(t, status.Event)
	require.Equal(t, uint32(17), status.Event.Index)
	require.Equal(t, uint32(8165538), status.Event.Card)
}

func TestCard_RoundTrip(t *testing.T) {
	card := Card{
		Number:    8165538,
		StartDate: &Date{Year: 2024, Month: 1, Day: 1},
		EndDate:   &Date{Year: 2025, Month: 12, Day: 31},
		Door:      [4]byte{1, 0, 2, 1},
		PIN:       123456,
	}
	req := encodePutCard(405419896, card)
	decoded, err := decodeCard(&req, fnPutCard, 405419896)
	require.NoError(t, err)
	require.Equal(t, card, *decoded)
}

func TestCard_NotFoundSentinel(t *testing.T) {
	f := newFrame(som, fnGetCard, 405419896)
	f.putUint32(8, 0)
	card, err := decodeCard(&f, fnGetCard, 405419896)
	require.NoError(t, err)
	require.Equal(t, uint32(0), card.Number)
}

func TestCard_DeletedSentinel(t *testing.T) {
	f := newFrame(som, fnGetCard, 405419896)
	f.putUint32(8, 0xFFFFFFFF)
	card, err := decodeCard(&f, fnGetCard, 405419896)
	require.NoError(t, err)
	require.Equal(t, uint32(0xFFFFFFFF), card.Number)
}

func TestGetEvent_Overwritten(t *testing.T) {
	f := newFrame(som, fnGetEvent, 405419896)
	f.putUint32(8, 99)
	f[12] = 0xFF
	event, err := decodeGetEvent(&f, 405419896)
	require.NoError(t, err)
	require.Equal(t, byte(0xFF), event.Kind)
}

func TestTimeProfile_RoundTrip(t *testing.T) {
	profile := TimeProfile{
		ID:            2,
		StartDate:     &Date{Year: 2024, Month: 1, Day: 1},
		EndDate:       &Date{Year: 2024, Month: 12, Day: 31},
		Weekdays:      Weekdays{Monday: true, Friday: true},
		Segment1Start: &HHMM{Hour: 8, Minute: 0},
		Segment1End:   &HHMM{Hour: 18, Minute: 0},
		LinkedProfile: 3,
	}
	req := encodeSetTimeProfile(405419896, profile)
	decoded, err := decodeTimeProfile(&req, fnSetTimeProfile, 405419896)
	require.NoError(t, err)
	require.Equal(t, profile, *decoded)
}

func TestTask_Encode(t *testing.T) {
	task := Task{
		StartDate: &Date{Year: 2024, Month: 6, Day: 1},
		EndDate:   &Date{Year: 2024, Month: 6, Day: 30},
		Weekdays:  Weekdays{Saturday: true, Sunday: true},
		StartTime: &HHMM{Hour: 9, Minute: 30},
		Door:      2,
		TaskType:  4,
		MoreCards: 0,
	}
	req := encodeAddTask(405419896, task)
	require.Equal(t, task.Door, req[23])
	require.Equal(t, task.TaskType, req[24])
}

// TestDecodeEventFrame_NoEvent mirrors spec.md S3's "no event" datagram: event_index=0 still
// decodes as a valid Event (event_timestamp=null), never as ErrEventNotFound - that sentinel is
// only promoted by GetEventRecord's record-level validation.
func TestDecodeEventFrame_NoEvent(t *testing.T) {
	f := newFrame(som, fnEvent, 405419896)
	event, err := decodeEventFrame(&f)
	require.NoError(t, err)
	require.Equal(t, uint32(0), event.Index)
	require.Nil(t, event.Timestamp)
}

func TestDecodeEventFrame_V662Variant(t *testing.T) {
	f := newFrame(som662, fnEvent, 405419896)
	f.putUint32(8, 1)
	event, err := decodeEventFrame(&f)
	require.NoError(t, err)
	require.Equal(t, uint32(1), event.Index)
}
