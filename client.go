package uhppote

import (
	"context"
	"errors"
	"net"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/uhppoted/uhppoted-go/internal/metrics"
)

// Client is a UHPPOTE controller driver: it owns the addresses used to reach controllers and
// dispatches one method per protocol operation, mirroring the teacher's Client (GoAethereal/
// modbus client.go) but fanning out over many distinct operations instead of a single Request
// entry point, since this protocol has no application data unit to multiplex.
type Client struct {
	// BindAddr is the local address used for outgoing UDP sends and broadcasts.
	BindAddr string
	// BroadcastAddr is the network broadcast address used by broadcast-only operations.
	BroadcastAddr string
	// ListenAddr is the address the event Listener binds, if this Client also runs one.
	ListenAddr string
	// Timeout bounds every dispatcher call. Zero selects a 5 second default.
	Timeout time.Duration
	// Debug enables the hex-dump sink for every frame sent or received.
	Debug bool
}

func (c *Client) timeout() time.Duration {
	t := timeoutToSeconds(c.Timeout)
	if t <= 0 {
		return 5 * time.Second
	}
	return t
}

// send dispatches req to the controller identified by ref, selecting UDP broadcast, UDP
// addressed send or TCP addressed send per spec.md §4.2 "transport selection": broadcast when
// the controller has no address, TCP when its protocol is explicitly TCP, UDP addressed
// otherwise.
func (c *Client) send(ctx context.Context, ref ControllerRef, req frame) (frame, error) {
	reply, err := c.doSend(ctx, ref, req)
	if err != nil {
		metrics.IncDispatchError(errorKind(err))
	}
	return reply, err
}

func (c *Client) doSend(ctx context.Context, ref ControllerRef, req frame) (frame, error) {
	ctrl := disambiguate(ref)

	if ctrl.Addr == "" {
		replies, err := udpBroadcast(ctx, c.BindAddr, c.BroadcastAddr, req, c.timeout(), c.Debug)
		if err != nil {
			return frame{}, err
		}
		for _, reply := range replies {
			if ctrl.ID == 0 || reply.controller() == ctrl.ID {
				return reply, nil
			}
		}
		return frame{}, newTimeoutError("no matching reply received")
	}

	host, port, err := resolve(ctrl.Addr, DefaultControllerPort)
	if err != nil {
		return frame{}, err
	}
	addr := net.JoinHostPort(host, itoa(port))

	switch ctrl.Protocol {
	case TCP:
		return tcpSend(ctx, addr, req, c.timeout(), c.Debug)
	default:
		return udpSend(ctx, c.BindAddr, addr, req, c.timeout(), false, c.Debug)
	}
}

// errorKind extracts the ErrorKind label used for the dispatch error counter, falling back to
// "unknown" for errors this package didn't originate (e.g. a canceled context).
func errorKind(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind.String()
	}
	return "unknown"
}

func itoa(n int) string {
	if n == 0 {
		return "0"
	}
	neg := n < 0
	if neg {
		n = -n
	}
	var buf [8]byte
	i := len(buf)
	for n > 0 {
		i--
		buf[i] = byte('0' + n%10)
		n /= 10
	}
	if neg {
		i--
		buf[i] = '-'
	}
	return string(buf[i:])
}

// GetControllers broadcasts a GetController request and collects every distinct reply, the
// discovery-by-broadcast operation (spec.md §4.7 point 1).
func (c *Client) GetControllers(ctx context.Context) ([]*ControllerInfo, error) {
	req := encodeGetController(0)
	replies, err := udpBroadcast(ctx, c.BindAddr, c.BroadcastAddr, req, c.timeout(), c.Debug)
	if err != nil {
		return nil, err
	}
	infos := make([]*ControllerInfo, 0, len(replies))
	for i := range replies {
		info, err := decodeGetController(&replies[i], 0)
		if err != nil {
			logrus.WithError(err).Warn("client: dropping malformed discovery reply")
			continue
		}
		infos = append(infos, info)
	}
	return infos, nil
}

// GetController fetches the addressed controller's identity/network configuration.
func (c *Client) GetController(ctx context.Context, ref ControllerRef) (*ControllerInfo, error) {
	id := disambiguate(ref).ID
	reply, err := c.send(ctx, ref, encodeGetController(id))
	if err != nil {
		return nil, err
	}
	return decodeGetController(&reply, id)
}

// SetIP sets the controller's IPv4 address, subnet mask and gateway. The controller never
// replies to this operation (spec.md §4.7 point 2).
func (c *Client) SetIP(ctx context.Context, ref ControllerRef, ip, mask, gateway net.IP) error {
	ctrl := disambiguate(ref)
	var ipArr, maskArr, gwArr [4]byte
	copy(ipArr[:], ip.To4())
	copy(maskArr[:], mask.To4())
	copy(gwArr[:], gateway.To4())
	req := encodeSetIP(ctrl.ID, ipArr, maskArr, gwArr)

	if ctrl.Addr == "" {
		return udpSendNoReply(ctx, c.BindAddr, c.BroadcastAddr, req, c.Debug)
	}
	host, port, err := resolve(ctrl.Addr, DefaultControllerPort)
	if err != nil {
		return err
	}
	addr := net.JoinHostPort(host, itoa(port))

	if ctrl.Protocol == TCP {
		return tcpSendNoReply(ctx, addr, req, c.timeout(), c.Debug)
	}
	return udpSendNoReply(ctx, c.BindAddr, addr, req, c.Debug)
}

// GetTime reads the controller's current date and time.
func (c *Client) GetTime(ctx context.Context, ref ControllerRef) (*Date, *HHMM, error) {
	id := disambiguate(ref).ID
	reply, err := c.send(ctx, ref, encodeGetTime(id))
	if err != nil {
		return nil, nil, err
	}
	return decodeGetTime(&reply, id)
}

// SetTime sets the controller's current date and time.
func (c *Client) SetTime(ctx context.Context, ref ControllerRef, date Date, hour, minute, second int) (*Date, *HHMM, error) {
	id := disambiguate(ref).ID
	reply, err := c.send(ctx, ref, encodeSetTime(id, date, hour, minute, second))
	if err != nil {
		return nil, nil, err
	}
	return decodeSetTime(&reply, id)
}

// GetStatus polls the controller's current door/input/relay state and most recent event.
func (c *Client) GetStatus(ctx context.Context, ref ControllerRef) (*Status, error) {
	id := disambiguate(ref).ID
	reply, err := c.send(ctx, ref, encodeGetStatus(id))
	if err != nil {
		return nil, err
	}
	return decodeStatus(&reply, id)
}

// GetStatusRecord is GetStatus's record variant: it promotes an overwritten embedded event (kind
// 0xFF) into ErrEventOverwritten the same way GetEventRecord does, leaving the rest of the status
// poll untouched since the embedded event is itself already nil, not a sentinel, when the
// controller reports none (spec.md §4.7 point 6, §4.1).
func (c *Client) GetStatusRecord(ctx context.Context, ref ControllerRef) (*Status, error) {
	status, err := c.GetStatus(ctx, ref)
	if err != nil {
		return nil, err
	}
	if status.Event != nil && status.Event.Kind == 0xFF {
		return nil, ErrEventOverwritten
	}
	return status, nil
}

// GetListener reads the controller's configured event destination and heartbeat interval.
func (c *Client) GetListener(ctx context.Context, ref ControllerRef) (*Listener, error) {
	id := disambiguate(ref).ID
	reply, err := c.send(ctx, ref, encodeGetListener(id))
	if err != nil {
		return nil, err
	}
	return decodeListener(&reply, id)
}

// SetListener sets the controller's event destination and heartbeat interval.
func (c *Client) SetListener(ctx context.Context, ref ControllerRef, addr net.IP, port uint16, interval byte) (bool, error) {
	id := disambiguate(ref).ID
	reply, err := c.send(ctx, ref, encodeSetListener(id, addr, port, interval))
	if err != nil {
		return false, err
	}
	return decodeSetListener(&reply, id)
}

// GetDoorControl reads a door's control mode and open delay.
func (c *Client) GetDoorControl(ctx context.Context, ref ControllerRef, door byte) (mode, delay byte, err error) {
	if err := validateDoor(door); err != nil {
		return 0, 0, err
	}
	id := disambiguate(ref).ID
	reply, err := c.send(ctx, ref, encodeGetDoorControl(id, door))
	if err != nil {
		return 0, 0, err
	}
	_, mode, delay, err = decodeDoorControl(&reply, id)
	return mode, delay, err
}

// SetDoorControl sets a door's control mode and open delay.
func (c *Client) SetDoorControl(ctx context.Context, ref ControllerRef, door, mode, delay byte) (byte, byte, error) {
	if err := validateDoor(door); err != nil {
		return 0, 0, err
	}
	if err := validateDoorControlMode(mode); err != nil {
		return 0, 0, err
	}
	id := disambiguate(ref).ID
	reply, err := c.send(ctx, ref, encodeSetDoorControl(id, door, mode, delay))
	if err != nil {
		return 0, 0, err
	}
	// The reply echoes decodeDoorControl's layout under the SetDoorControl function code.
	if err := validateReply(&reply, fnSetDoorControl, id); err != nil {
		return 0, 0, err
	}
	return reply[9], reply[10], nil
}

// OpenDoor remotely unlocks a door.
func (c *Client) OpenDoor(ctx context.Context, ref ControllerRef, door byte) (bool, error) {
	if err := validateDoor(door); err != nil {
		return false, err
	}
	id := disambiguate(ref).ID
	reply, err := c.send(ctx, ref, encodeOpenDoor(id, door))
	if err != nil {
		return false, err
	}
	return decodeOpenDoor(&reply, id)
}

// GetCards returns the controller's total enrolled card count.
func (c *Client) GetCards(ctx context.Context, ref ControllerRef) (uint32, error) {
	id := disambiguate(ref).ID
	reply, err := c.send(ctx, ref, encodeGetCards(id))
	if err != nil {
		return 0, err
	}
	return decodeGetCards(&reply, id)
}

// GetCard fetches a card record by its number.
func (c *Client) GetCard(ctx context.Context, ref ControllerRef, cardNumber uint32) (*Card, error) {
	id := disambiguate(ref).ID
	reply, err := c.send(ctx, ref, encodeGetCard(id, cardNumber))
	if err != nil {
		return nil, err
	}
	return decodeCard(&reply, fnGetCard, id)
}

// GetCardRecord is GetCard's record variant: it promotes the protocol's sentinel card numbers
// into typed domain errors instead of returning them verbatim (spec.md §4.7 point 6).
func (c *Client) GetCardRecord(ctx context.Context, ref ControllerRef, cardNumber uint32) (*Card, error) {
	card, err := c.GetCard(ctx, ref, cardNumber)
	if err != nil {
		return nil, err
	}
	switch card.Number {
	case 0:
		return nil, ErrCardNotFound
	case 0xFFFFFFFF:
		return nil, ErrCardDeleted
	default:
		return card, nil
	}
}

// GetCardByIndex fetches a card record by its position in the controller's card list.
func (c *Client) GetCardByIndex(ctx context.Context, ref ControllerRef, index uint32) (*Card, error) {
	id := disambiguate(ref).ID
	reply, err := c.send(ctx, ref, encodeGetCardByIndex(id, index))
	if err != nil {
		return nil, err
	}
	return decodeCard(&reply, fnGetCardByIndex, id)
}

// GetCardByIndexRecord is GetCardByIndex's record variant (spec.md §4.7 point 6).
func (c *Client) GetCardByIndexRecord(ctx context.Context, ref ControllerRef, index uint32) (*Card, error) {
	card, err := c.GetCardByIndex(ctx, ref, index)
	if err != nil {
		return nil, err
	}
	switch card.Number {
	case 0:
		return nil, ErrCardNotFound
	case 0xFFFFFFFF:
		return nil, ErrCardDeleted
	default:
		return card, nil
	}
}

// PutCard creates or updates a card record.
func (c *Client) PutCard(ctx context.Context, ref ControllerRef, card Card) (bool, error) {
	if err := validatePIN(card.PIN); err != nil {
		return false, err
	}
	id := disambiguate(ref).ID
	reply, err := c.send(ctx, ref, encodePutCard(id, card))
	if err != nil {
		return false, err
	}
	return decodePutCard(&reply, id)
}

// DeleteCard removes a single card record.
func (c *Client) DeleteCard(ctx context.Context, ref ControllerRef, cardNumber uint32) (bool, error) {
	id := disambiguate(ref).ID
	reply, err := c.send(ctx, ref, encodeDeleteCard(id, cardNumber))
	if err != nil {
		return false, err
	}
	return decodeDeleteCard(&reply, id)
}

// DeleteAllCards erases every card record on the controller.
func (c *Client) DeleteAllCards(ctx context.Context, ref ControllerRef) (bool, error) {
	id := disambiguate(ref).ID
	reply, err := c.send(ctx, ref, encodeDeleteAllCards(id))
	if err != nil {
		return false, err
	}
	return decodeDeleteAllCards(&reply, id)
}

// GetEvent fetches a single logged event by index.
func (c *Client) GetEvent(ctx context.Context, ref ControllerRef, index uint32) (*Event, error) {
	id := disambiguate(ref).ID
	reply, err := c.send(ctx, ref, encodeGetEvent(id, index))
	if err != nil {
		return nil, err
	}
	return decodeGetEvent(&reply, id)
}

// GetEventRecord is GetEvent's record variant: index 0 becomes ErrEventNotFound and kind 0xFF
// becomes ErrEventOverwritten (spec.md §4.7 point 6).
func (c *Client) GetEventRecord(ctx context.Context, ref ControllerRef, index uint32) (*Event, error) {
	event, err := c.GetEvent(ctx, ref, index)
	if err != nil {
		return nil, err
	}
	if event.Index == 0 {
		return nil, ErrEventNotFound
	}
	if event.Kind == 0xFF {
		return nil, ErrEventOverwritten
	}
	return event, nil
}

// GetEventIndex reads the controller's current event read/write index watermark.
func (c *Client) GetEventIndex(ctx context.Context, ref ControllerRef) (uint32, error) {
	id := disambiguate(ref).ID
	reply, err := c.send(ctx, ref, encodeGetEventIndex(id))
	if err != nil {
		return 0, err
	}
	return decodeGetEventIndex(&reply, id)
}

// SetEventIndex sets the controller's event index watermark.
func (c *Client) SetEventIndex(ctx context.Context, ref ControllerRef, index uint32) (bool, error) {
	id := disambiguate(ref).ID
	reply, err := c.send(ctx, ref, encodeSetEventIndex(id, index))
	if err != nil {
		return false, err
	}
	return decodeSetEventIndex(&reply, id)
}

// RecordSpecialEvents enables or disables door open/close/button events.
func (c *Client) RecordSpecialEvents(ctx context.Context, ref ControllerRef, enable bool) (bool, error) {
	id := disambiguate(ref).ID
	reply, err := c.send(ctx, ref, encodeRecordSpecialEvents(id, enable))
	if err != nil {
		return false, err
	}
	return decodeRecordSpecialEvents(&reply, id)
}

// GetTimeProfile fetches a weekly access schedule by id.
func (c *Client) GetTimeProfile(ctx context.Context, ref ControllerRef, id byte) (*TimeProfile, error) {
	controllerID := disambiguate(ref).ID
	reply, err := c.send(ctx, ref, encodeGetTimeProfile(controllerID, id))
	if err != nil {
		return nil, err
	}
	return decodeTimeProfile(&reply, fnGetTimeProfile, controllerID)
}

// GetTimeProfileRecord is GetTimeProfile's record variant (spec.md §4.7 point 6).
func (c *Client) GetTimeProfileRecord(ctx context.Context, ref ControllerRef, id byte) (*TimeProfile, error) {
	profile, err := c.GetTimeProfile(ctx, ref, id)
	if err != nil {
		return nil, err
	}
	if profile.ID == 0 {
		return nil, ErrTimeProfileNotFound
	}
	return profile, nil
}

// SetTimeProfile creates or updates a weekly access schedule. Profile ids 0, 1 and 255 are
// reserved.
func (c *Client) SetTimeProfile(ctx context.Context, ref ControllerRef, profile TimeProfile) (bool, error) {
	if err := validateProfileID(profile.ID); err != nil {
		return false, err
	}
	if err := validateLinkedProfile(profile.LinkedProfile); err != nil {
		return false, err
	}
	id := disambiguate(ref).ID
	reply, err := c.send(ctx, ref, encodeSetTimeProfile(id, profile))
	if err != nil {
		return false, err
	}
	return decodeSetTimeProfile(&reply, id)
}

// DeleteAllTimeProfiles erases every weekly access schedule on the controller.
func (c *Client) DeleteAllTimeProfiles(ctx context.Context, ref ControllerRef) (bool, error) {
	id := disambiguate(ref).ID
	reply, err := c.send(ctx, ref, encodeDeleteAllTimeProfiles(id))
	if err != nil {
		return false, err
	}
	return decodeDeleteAllTimeProfiles(&reply, id)
}

// AddTask schedules a recurring door task.
func (c *Client) AddTask(ctx context.Context, ref ControllerRef, task Task) (bool, error) {
	if err := validateDoor(task.Door); err != nil {
		return false, err
	}
	id := disambiguate(ref).ID
	reply, err := c.send(ctx, ref, encodeAddTask(id, task))
	if err != nil {
		return false, err
	}
	return decodeAddTask(&reply, id)
}

// RefreshTaskList commits pending AddTask calls to the controller's active schedule.
func (c *Client) RefreshTaskList(ctx context.Context, ref ControllerRef) (bool, error) {
	id := disambiguate(ref).ID
	reply, err := c.send(ctx, ref, encodeRefreshTaskList(id))
	if err != nil {
		return false, err
	}
	return decodeRefreshTaskList(&reply, id)
}

// ClearTaskList erases every pending scheduled task.
func (c *Client) ClearTaskList(ctx context.Context, ref ControllerRef) (bool, error) {
	id := disambiguate(ref).ID
	reply, err := c.send(ctx, ref, encodeClearTaskList(id))
	if err != nil {
		return false, err
	}
	return decodeClearTaskList(&reply, id)
}

// SetPCControl enables or disables host-driven access control mode.
func (c *Client) SetPCControl(ctx context.Context, ref ControllerRef, enable bool) (bool, error) {
	id := disambiguate(ref).ID
	reply, err := c.send(ctx, ref, encodeSetPCControl(id, enable))
	if err != nil {
		return false, err
	}
	return decodeSuccess8(&reply, fnSetPCControl, id)
}

// SetInterlock sets the controller's door interlock mode.
func (c *Client) SetInterlock(ctx context.Context, ref ControllerRef, mode byte) (bool, error) {
	if err := validateInterlock(mode); err != nil {
		return false, err
	}
	id := disambiguate(ref).ID
	reply, err := c.send(ctx, ref, encodeSetInterlock(id, mode))
	if err != nil {
		return false, err
	}
	return decodeSuccess8(&reply, fnSetInterlock, id)
}

// ActivateKeypads enables or disables the keypad reader on each of the controller's four doors.
func (c *Client) ActivateKeypads(ctx context.Context, ref ControllerRef, door1, door2, door3, door4 bool) (bool, error) {
	id := disambiguate(ref).ID
	reply, err := c.send(ctx, ref, encodeActivateKeypads(id, door1, door2, door3, door4))
	if err != nil {
		return false, err
	}
	return decodeSuccess8(&reply, fnActivateKeypads, id)
}

// SetDoorPasscodes sets up to four supervisor passcodes for a door.
func (c *Client) SetDoorPasscodes(ctx context.Context, ref ControllerRef, door byte, pin1, pin2, pin3, pin4 uint32) (bool, error) {
	if err := validateDoor(door); err != nil {
		return false, err
	}
	for _, pin := range []uint32{pin1, pin2, pin3, pin4} {
		if err := validatePIN(pin); err != nil {
			return false, err
		}
	}
	id := disambiguate(ref).ID
	reply, err := c.send(ctx, ref, encodeSetDoorPasscodes(id, door, pin1, pin2, pin3, pin4))
	if err != nil {
		return false, err
	}
	return decodeSuccess8(&reply, fnSetDoorPasscodes, id)
}

// GetAntiPassback reads the controller's configured anti-passback mode.
func (c *Client) GetAntiPassback(ctx context.Context, ref ControllerRef) (byte, error) {
	id := disambiguate(ref).ID
	reply, err := c.send(ctx, ref, encodeGetAntiPassback(id))
	if err != nil {
		return 0, err
	}
	return decodeAntiPassback(&reply, id)
}

// SetAntiPassback sets the controller's anti-passback mode.
func (c *Client) SetAntiPassback(ctx context.Context, ref ControllerRef, mode byte) (bool, error) {
	if err := validateAntiPassback(mode); err != nil {
		return false, err
	}
	id := disambiguate(ref).ID
	reply, err := c.send(ctx, ref, encodeSetAntiPassback(id, mode))
	if err != nil {
		return false, err
	}
	return decodeSuccess8(&reply, fnSetAntiPassback, id)
}

// RestoreDefaultParameters resets the controller to its factory configuration.
func (c *Client) RestoreDefaultParameters(ctx context.Context, ref ControllerRef) (bool, error) {
	id := disambiguate(ref).ID
	reply, err := c.send(ctx, ref, encodeRestoreDefaultParameters(id))
	if err != nil {
		return false, err
	}
	return decodeSuccess8(&reply, fnRestoreDefaultParameters, id)
}

// Listen runs the event listener on c.ListenAddr until ctx is canceled, delivering every event
// to handler (spec.md §5).
func (c *Client) Listen(ctx context.Context, handler EventHandler) error {
	return Listen(ctx, c.ListenAddr, handler, c.Debug)
}
