package uhppote

import (
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestFrame_HeaderRoundTrip(t *testing.T) {
	f := newFrame(som, fnGetStatus, 405419896)
	require.Equal(t, byte(som), f.som())
	require.Equal(t, byte(fnGetStatus), f.function())
	require.Equal(t, uint32(405419896), f.controller())
}

func TestFrame_Uint32RoundTrip(t *testing.T) {
	var f frame
	f.putUint32(8, 0xDEADBEEF)
	require.Equal(t, uint32(0xDEADBEEF), f.uint32At(8))
}

func TestFrame_Uint24RoundTrip(t *testing.T) {
	cases := []uint32{0, 1, 0x7FFFFF, 0xFFFFFF}
	for _, pin := range cases {
		var f frame
		f.putUint24(8, pin)
		require.Equal(t, pin, f.uint24At(8))
	}
}

func TestFrame_BoolRoundTrip(t *testing.T) {
	var f frame
	f.putBool(8, true)
	f.putBool(9, false)
	require.True(t, f.boolAt(8))
	require.False(t, f.boolAt(9))
}

func TestFrame_IPv4RoundTrip(t *testing.T) {
	var f frame
	ip := net.ParseIP("192.168.1.100")
	f.putIPv4(8, ip)
	require.True(t, f.ipv4At(8).Equal(ip))
}

func TestFrame_MACRoundTrip(t *testing.T) {
	var f frame
	mac, err := net.ParseMAC("00:12:23:34:45:56")
	require.NoError(t, err)
	f.putMAC(8, mac)
	require.Equal(t, mac, f.macAt(8))
}

func TestFrame_WeekdaysRoundTrip(t *testing.T) {
	var f frame
	w := Weekdays{Monday: true, Wednesday: true, Sunday: true}
	f.putWeekdays(8, w)
	require.Equal(t, w, f.weekdaysAt(8))
}

func TestFrame_DateRoundTrip(t *testing.T) {
	var f frame
	d := &Date{Year: 2018, Month: 11, Day: 5}
	f.putDate(8, d)
	require.Equal(t, d, f.dateAt(8))
}

func TestFrame_DateAbsentIsNil(t *testing.T) {
	var f frame
	f.putDate(8, nil)
	require.Nil(t, f.dateAt(8))
}

func TestFrame_HHMMRoundTrip(t *testing.T) {
	var f frame
	hm := &HHMM{Hour: 23, Minute: 59}
	f.putHHMM(8, hm)
	require.Equal(t, hm, f.hhmmAt(8))
}

func TestFrame_DateTimeRoundTrip(t *testing.T) {
	var f frame
	ts := time.Date(2024, time.March, 15, 13, 45, 30, 0, time.UTC)
	f.putDateTime(8, &ts)
	got := f.dateTimeAt(8)
	require.NotNil(t, got)
	require.True(t, ts.Equal(*got))
}

func TestFrame_DateTimeAbsentIsNil(t *testing.T) {
	var f frame
	require.Nil(t, f.dateTimeAt(8))
}

func TestValidateReply_WrongFunctionCode(t *testing.T) {
	f := newFrame(som, fnGetStatus, 405419896)
	err := validateReply(&f, fnGetTime, 0)
	require.Error(t, err)
	var e *Error
	require.ErrorAs(t, err, &e)
	require.Equal(t, KindProtocol, e.Kind)
	require.Contains(t, err.Error(), "invalid reply function code (20)")
}

// TestValidateReply_WrongController mirrors spec.md's literal S6 scenario: get_card_record is
// sent to controller 303986753 but the reply encodes controller 405419896, which must surface as
// "invalid controller (405419896)" - the reply's serial, not the requested one.
func TestValidateReply_WrongController(t *testing.T) {
	f := newFrame(som, fnGetCard, 405419896)
	err := validateReply(&f, fnGetCard, 303986753)
	require.Error(t, err)
	require.Contains(t, err.Error(), "invalid controller (405419896)")
}
