package uhppote

// encodeGetCards / decodeGetCards implement GetCards (spec.md §4.7): the controller's total
// enrolled card count.
func encodeGetCards(controller uint32) frame {
	return newFrame(som, fnGetCards, controller)
}

func decodeGetCards(f *frame, wantController uint32) (uint32, error) {
	if err := validateReply(f, fnGetCards, wantController); err != nil {
		return 0, err
	}
	return f.uint32At(8), nil
}

// encodeGetCard and encodeGetCardByIndex build the common "card number in, card record out"
// request shape shared by GetCard and (by index) GetCardByIndex.
func encodeGetCard(controller, cardNumber uint32) frame {
	f := newFrame(som, fnGetCard, controller)
	f.putUint32(8, cardNumber)
	return f
}

func encodeGetCardByIndex(controller, index uint32) frame {
	f := newFrame(som, fnGetCardByIndex, controller)
	f.putUint32(8, index)
	return f
}

// decodeCard decodes a GetCard/GetCardByIndex reply into a Card. Number carries the sentinel
// values 0 ("not found") and 0xFFFFFFFF ("deleted") verbatim; the dispatcher's record variants
// promote those into ErrCardNotFound / ErrCardDeleted (spec.md §4.7 point 6).
func decodeCard(f *frame, fn byte, wantController uint32) (*Card, error) {
	if err := validateReply(f, fn, wantController); err != nil {
		return nil, err
	}
	return &Card{
		Number:    f.uint32At(8),
		StartDate: f.dateAt(12),
		EndDate:   f.dateAt(15),
		Door:      [4]byte{f[18], f[19], f[20], f[21]},
		PIN:       f.uint24At(22),
	}, nil
}

// encodePutCard / decodePutCard implement PutCard (create/update).
func encodePutCard(controller uint32, c Card) frame {
	f := newFrame(som, fnPutCard, controller)
	f.putUint32(8, c.Number)
	f.putDate(12, c.StartDate)
	f.putDate(15, c.EndDate)
	f[18], f[19], f[20], f[21] = c.Door[0], c.Door[1], c.Door[2], c.Door[3]
	f.putUint24(22, c.PIN)
	return f
}

func decodePutCard(f *frame, wantController uint32) (bool, error) {
	return decodeSuccess8(f, fnPutCard, wantController)
}

// encodeDeleteCard / decodeDeleteCard implement DeleteCard.
func encodeDeleteCard(controller, cardNumber uint32) frame {
	f := newFrame(som, fnDeleteCard, controller)
	f.putUint32(8, cardNumber)
	return f
}

func decodeDeleteCard(f *frame, wantController uint32) (bool, error) {
	return decodeSuccess8(f, fnDeleteCard, wantController)
}

// encodeDeleteAllCards / decodeDeleteAllCards implement DeleteAllCards.
func encodeDeleteAllCards(controller uint32) frame {
	return newFrame(som, fnDeleteAllCards, controller)
}

func decodeDeleteAllCards(f *frame, wantController uint32) (bool, error) {
	return decodeSuccess8(f, fnDeleteAllCards, wantController)
}
