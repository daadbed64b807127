package wire

import "testing"

func TestFixedHeaderRoundTrip(t *testing.T) {
	h := FixedHeader{Type: PUBLISH, Flags: 0x0b, RemainingLength: 300}
	buf, err := AppendFixedHeader(nil, h)
	if err != nil {
		t.Fatal(err)
	}
	got, n, err := DecodeFixedHeader(buf)
	if err != nil {
		t.Fatal(err)
	}
	if got != h || n != len(buf) {
		t.Fatalf("got %+v n=%d", got, n)
	}
}

func TestFixedHeaderTruncatedIsRecoverable(t *testing.T) {
	h := FixedHeader{Type: PUBLISH, RemainingLength: 200}
	buf, _ := AppendFixedHeader(nil, h)
	if _, _, err := DecodeFixedHeader(buf[:1]); err != ErrFixedHeaderTruncated {
		t.Fatalf("expected ErrFixedHeaderTruncated, got %v", err)
	}
}
