package wire

import "testing"

func TestConnectRoundTripV5WithWill(t *testing.T) {
	rm := uint16(32)
	c := &ConnectPacket{
		Version:        V5,
		CleanStart:     true,
		KeepAlive:      30,
		ClientID:       "client-1",
		Properties:     &Properties{ReceiveMaximum: &rm},
		WillFlag:       true,
		WillQos:        1,
		WillRetain:     true,
		WillTopic:      "status/client-1",
		WillPayload:    []byte("offline"),
		HasUsername:    true,
		Username:       "alice",
		HasPassword:    true,
		Password:       []byte("secret"),
	}
	buf, err := c.Encode(nil, V5)
	if err != nil {
		t.Fatal(err)
	}
	h, n, err := DecodeFixedHeader(buf)
	if err != nil {
		t.Fatal(err)
	}
	got, err := Decode(h, buf[n:], V5)
	if err != nil {
		t.Fatal(err)
	}
	gc := got.(*ConnectPacket)
	if gc.ClientID != "client-1" || gc.KeepAlive != 30 || !gc.CleanStart {
		t.Fatalf("got %+v", gc)
	}
	if !gc.WillFlag || gc.WillTopic != "status/client-1" || string(gc.WillPayload) != "offline" || gc.WillQos != 1 || !gc.WillRetain {
		t.Fatalf("will fields lost: %+v", gc)
	}
	if gc.Username != "alice" || string(gc.Password) != "secret" {
		t.Fatalf("credentials lost: %+v", gc)
	}
	if gc.Properties == nil || gc.Properties.ReceiveMaximum == nil || *gc.Properties.ReceiveMaximum != 32 {
		t.Fatal("receive maximum lost")
	}
}

func TestConnectRejectsBadProtocolName(t *testing.T) {
	buf := AppendString(nil, "MQTX")
	buf = append(buf, byte(V5), 0, 0, 0)
	buf = AppendString(buf, "id")
	if _, err := Decode(FixedHeader{Type: CONNECT}, buf, V5); err != ErrMalformedConnect {
		t.Fatalf("expected ErrMalformedConnect, got %v", err)
	}
}

func TestConnectV311HasNoProperties(t *testing.T) {
	c := &ConnectPacket{Version: V311, ClientID: "c", KeepAlive: 60}
	buf, err := c.Encode(nil, V311)
	if err != nil {
		t.Fatal(err)
	}
	h, n, _ := DecodeFixedHeader(buf)
	got, err := Decode(h, buf[n:], V311)
	if err != nil {
		t.Fatal(err)
	}
	if got.(*ConnectPacket).Properties != nil {
		t.Fatal("v3.1.1 CONNECT must not carry properties")
	}
}
