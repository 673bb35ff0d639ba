package uhppote

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func controllerInfoReply(controller uint32) frame {
	f := newFrame(som, fnGetController, controller)
	f.putIPv4(8, net.ParseIP("192.168.1.100"))
	f.putIPv4(12, net.ParseIP("255.255.255.0"))
	f.putIPv4(16, net.ParseIP("192.168.1.1"))
	mac, _ := net.ParseMAC("00:12:23:34:45:56")
	f.putMAC(20, mac)
	f[26], f[27] = 0x08, 0x92
	f[28], f[29], f[30], f[31] = 0x20, 0x18, 0x11, 0x05
	return f
}

// TestClient_GetControllers_S2 mirrors spec.md's literal S2 scenario: a broadcast discovery call
// against 3 stub controllers returns all 3 distinct serials.
func TestClient_GetControllers_S2(t *testing.T) {
	laddr, err := net.ResolveUDPAddr("udp", "127.0.0.1:0")
	require.NoError(t, err)
	conn, err := net.ListenUDP("udp", laddr)
	require.NoError(t, err)
	defer conn.Close()

	serials := []uint32{201020304, 303986753, 405419896}
	go func() {
		buf := make([]byte, FrameSize)
		for i := 0; i < len(serials); i++ {
			n, from, err := conn.ReadFromUDP(buf)
			if err != nil || n != FrameSize {
				return
			}
			for _, serial := range serials {
				reply := controllerInfoReply(serial)
				_, _ = conn.WriteToUDP(reply[:], from)
			}
			return
		}
	}()

	client := &Client{
		BindAddr:      "127.0.0.1:0",
		BroadcastAddr: conn.LocalAddr().String(),
		Timeout:       time.Second,
	}

	infos, err := client.GetControllers(context.Background())
	require.NoError(t, err)
	require.Len(t, infos, 3)

	got := map[uint32]bool{}
	for _, info := range infos {
		got[info.Controller] = true
	}
	for _, serial := range serials {
		require.True(t, got[serial])
	}
}

// TestClient_SetIP_S4 mirrors spec.md's literal S4 scenario: set_ip sends exactly one UDP
// datagram and returns success without waiting for a reply.
func TestClient_SetIP_S4(t *testing.T) {
	laddr, err := net.ResolveUDPAddr("udp", "127.0.0.1:0")
	require.NoError(t, err)
	conn, err := net.ListenUDP("udp", laddr)
	require.NoError(t, err)
	defer conn.Close()

	received := make(chan frame, 1)
	go func() {
		buf := make([]byte, FrameSize)
		n, _, err := conn.ReadFromUDP(buf)
		if err != nil || n != FrameSize {
			return
		}
		var f frame
		copy(f[:], buf[:n])
		received <- f
	}()

	client := &Client{
		BindAddr: "127.0.0.1:0",
		Timeout:  time.Second,
	}

	ctrl := Controller{ID: 405419896, Addr: conn.LocalAddr().String()}
	err = client.SetIP(context.Background(), ctrl,
		net.ParseIP("192.168.1.100"), net.ParseIP("255.255.255.0"), net.ParseIP("192.168.1.1"))
	require.NoError(t, err)

	select {
	case f := <-received:
		require.Equal(t, byte(fnSetIP), f.function())
	case <-time.After(time.Second):
		t.Fatal("expected exactly one UDP datagram to be sent")
	}
}

// TestClient_SetIP_TCP mirrors spec.md §4.5's TCP transport behavior for set_ip: the request is
// sent over a fresh TCP connection and the call returns without waiting for a reply.
func TestClient_SetIP_TCP(t *testing.T) {
	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer l.Close()

	received := make(chan frame, 1)
	go func() {
		conn, err := l.Accept()
		if err != nil {
			return
		}
		defer conn.Close()
		buf := make([]byte, FrameSize)
		n, err := conn.Read(buf)
		if err != nil || n != FrameSize {
			return
		}
		var f frame
		copy(f[:], buf[:n])
		received <- f
	}()

	client := &Client{Timeout: time.Second}
	ctrl := Controller{ID: 405419896, Addr: l.Addr().String(), Protocol: TCP}
	err = client.SetIP(context.Background(), ctrl,
		net.ParseIP("192.168.1.100"), net.ParseIP("255.255.255.0"), net.ParseIP("192.168.1.1"))
	require.NoError(t, err)

	select {
	case f := <-received:
		require.Equal(t, byte(fnSetIP), f.function())
	case <-time.After(time.Second):
		t.Fatal("expected exactly one TCP connection carrying the request")
	}
}

// tcpStub accepts one connection, waits delay, then writes reply.
func tcpStub(t *testing.T, reply frame, delay time.Duration) net.Listener {
	t.Helper()
	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	go func() {
		conn, err := l.Accept()
		if err != nil {
			return
		}
		defer conn.Close()
		buf := make([]byte, FrameSize)
		if _, err := conn.Read(buf); err != nil {
			return
		}
		time.Sleep(delay)
		_, _ = conn.Write(reply[:])
	}()
	return l
}

// TestClient_GetController_TCPTimeout_S5 mirrors spec.md's literal S5 scenario: a stub that
// delays 500ms fails a 250ms timeout and succeeds with a 2500ms timeout.
func TestClient_GetController_TCPTimeout_S5(t *testing.T) {
	reply := controllerInfoReply(405419896)
	l := tcpStub(t, reply, 500*time.Millisecond)
	defer l.Close()

	ctrl := Controller{ID: 405419896, Addr: l.Addr().String(), Protocol: TCP}

	shortClient := &Client{Timeout: 250 * time.Millisecond}
	_, err := shortClient.GetController(context.Background(), ctrl)
	require.Error(t, err)
	var e *Error
	require.ErrorAs(t, err, &e)
	require.Equal(t, KindTimeout, e.Kind)

	l2 := tcpStub(t, reply, 500*time.Millisecond)
	defer l2.Close()
	ctrl2 := Controller{ID: 405419896, Addr: l2.Addr().String(), Protocol: TCP}

	longClient := &Client{Timeout: 2500 * time.Millisecond}
	info, err := longClient.GetController(context.Background(), ctrl2)
	require.NoError(t, err)
	require.Equal(t, "v8.92", info.Version)
}

// TestClient_GetCardRecord_S6 mirrors spec.md's literal S6 scenario: the reply encodes a
// different controller serial than requested, which must raise a Protocol error naming the
// reply's serial.
func TestClient_GetCardRecord_S6(t *testing.T) {
	laddr, err := net.ResolveUDPAddr("udp", "127.0.0.1:0")
	require.NoError(t, err)
	conn, err := net.ListenUDP("udp", laddr)
	require.NoError(t, err)
	defer conn.Close()

	go func() {
		buf := make([]byte, FrameSize)
		n, from, err := conn.ReadFromUDP(buf)
		if err != nil || n != FrameSize {
			return
		}
		reply := newFrame(som, fnGetCard, 405419896)
		reply.putUint32(8, 8165538)
		_, _ = conn.WriteToUDP(reply[:], from)
	}()

	client := &Client{BindAddr: "127.0.0.1:0", Timeout: time.Second}
	ctrl := Controller{ID: 303986753, Addr: conn.LocalAddr().String()}

	_, err = client.GetCardRecord(context.Background(), ctrl, 8165538)
	require.Error(t, err)
	require.Contains(t, err.Error(), "invalid controller (405419896)")
}

func TestClient_GetCardRecord_Sentinels(t *testing.T) {
	serve := func(number uint32) string {
		laddr, err := net.ResolveUDPAddr("udp", "127.0.0.1:0")
		require.NoError(t, err)
		conn, err := net.ListenUDP("udp", laddr)
		require.NoError(t, err)
		go func() {
			buf := make([]byte, FrameSize)
			n, from, err := conn.ReadFromUDP(buf)
			if err != nil || n != FrameSize {
				return
			}
			reply := newFrame(som, fnGetCard, 405419896)
			reply.putUint32(8, number)
			_, _ = conn.WriteToUDP(reply[:], from)
			conn.Close()
		}()
		return conn.LocalAddr().String()
	}

	client := &Client{BindAddr: "127.0.0.1:0", Timeout: time.Second}

	addr := serve(0)
	ctrl := Controller{ID: 405419896, Addr: addr}
	_, err := client.GetCardRecord(context.Background(), ctrl, 1)
	require.ErrorIs(t, err, ErrCardNotFound)

	addr = serve(0xFFFFFFFF)
	ctrl = Controller{ID: 405419896, Addr: addr}
	_, err = client.GetCardRecord(context.Background(), ctrl, 1)
	require.ErrorIs(t, err, ErrCardDeleted)
}
