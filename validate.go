package uhppote

import "fmt"

// The functions below implement spec.md §4.1's "Integer ranges are validated at the edge" list.
// Each rejects an out-of-range value with a Configuration error before a request frame is ever
// built, mirroring the teacher's config.go Config.Verify - a validation pass layered above the
// wire encoding rather than folded into it.

func validateDoor(door byte) error {
	if door < 1 || door > 4 {
		return newConfigurationError(fmt.Sprintf("invalid door (%d): must be 1..4", door))
	}
	return nil
}

func validateDoorControlMode(mode byte) error {
	if mode < 1 || mode > 3 {
		return newConfigurationError(fmt.Sprintf("invalid door control mode (%d): must be 1..3", mode))
	}
	return nil
}

func validateInterlock(mode byte) error {
	switch mode {
	case 0, 1, 2, 3, 4, 8:
		return nil
	default:
		return newConfigurationError(fmt.Sprintf("invalid interlock mode (%d): must be one of 0,1,2,3,4,8", mode))
	}
}

func validateAntiPassback(mode byte) error {
	if mode > 4 {
		return newConfigurationError(fmt.Sprintf("invalid anti-passback mode (%d): must be 0..4", mode))
	}
	return nil
}

func validatePIN(pin uint32) error {
	if pin > 999999 {
		return newConfigurationError(fmt.Sprintf("invalid PIN (%d): must be 0..999999", pin))
	}
	return nil
}

func validateProfileID(id byte) error {
	if id < 2 || id == 255 {
		return newConfigurationError("time profile id must be in [2,254]: ids 0, 1 and 255 are reserved")
	}
	return nil
}

func validateLinkedProfile(id byte) error {
	// every byte value 0..254 is valid; only the reserved sentinel 255 is out of range.
	if id == 255 {
		return newConfigurationError("invalid linked profile id (255): must be 0..254")
	}
	return nil
}
