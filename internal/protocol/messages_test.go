package protocol

import (
	"errors"
	"testing"
)

func TestParseInbound(t *testing.T) {
	in, err := ParseInbound([]byte(`{"message":"hi"}`))
	if err != nil {
		t.Fatalf("ParseInbound() error = %v", err)
	}
	if in.Message != "hi" {
		t.Fatalf("Message = %q, want %q", in.Message, "hi")
	}
}

func TestParseInboundMalformed(t *testing.T) {
	cases := map[string]string{
		"not json":        `not json at all`,
		"missing field":   `{}`,
		"empty message":   `{"message":""}`,
		"blank message":   `{"message":"   "}`,
		"wrong type":      `{"message":42}`,
		"array payload":   `[1,2,3]`,
		"truncated frame": `{"message":"hi`,
	}
	for name, payload := range cases {
		if _, err := ParseInbound([]byte(payload)); !errors.Is(err, ErrMalformedFrame) {
			t.Fatalf("%s: ParseInbound(%q) error = %v, want ErrMalformedFrame", name, payload, err)
		}
	}
}
