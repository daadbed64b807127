package wire

import "testing"

func TestPubackOmitsReasonWhenSuccess(t *testing.T) {
	p := NewPuback(5, 0, nil)
	buf, err := p.Encode(nil, V5)
	if err != nil {
		t.Fatal(err)
	}
	h, n, _ := DecodeFixedHeader(buf)
	if h.RemainingLength != 2 {
		t.Fatalf("expected bare 2-byte body, got remaining length %d", h.RemainingLength)
	}
	got, err := Decode(h, buf[n:], V5)
	if err != nil {
		t.Fatal(err)
	}
	gp := got.(*PubackPacket)
	if gp.PacketID != 5 || gp.HasReason {
		t.Fatalf("got %+v", gp)
	}
}

func TestPubackCarriesReasonWhenNonSuccess(t *testing.T) {
	p := NewPuback(5, 0x97, nil)
	buf, err := p.Encode(nil, V5)
	if err != nil {
		t.Fatal(err)
	}
	h, n, _ := DecodeFixedHeader(buf)
	got, err := Decode(h, buf[n:], V5)
	if err != nil {
		t.Fatal(err)
	}
	gp := got.(*PubackPacket)
	if gp.ReasonCode != 0x97 || !gp.HasReason {
		t.Fatalf("got %+v", gp)
	}
}

func TestPubrelHasFixedFlags(t *testing.T) {
	p := NewPubrel(9, 0, nil)
	buf, err := p.Encode(nil, V5)
	if err != nil {
		t.Fatal(err)
	}
	h, _, _ := DecodeFixedHeader(buf)
	if h.Flags != 0x02 {
		t.Fatalf("expected flags 0x02, got 0x%x", h.Flags)
	}
}

func TestPubrelRejectsWrongFlags(t *testing.T) {
	if _, err := Decode(FixedHeader{Type: PUBREL, Flags: 0x00}, []byte{0, 1}, V5); err != ErrInvalidFlags {
		t.Fatalf("expected ErrInvalidFlags, got %v", err)
	}
}
