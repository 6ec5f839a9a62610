package protocol

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestPayload_String(t *testing.T) {
	p := Payload{"path": "/etc/hosts", "empty": "", "num": 42.0}

	s, ok := p.String("path")
	assert.True(t, ok)
	assert.Equal(t, "/etc/hosts", s)

	_, ok = p.String("empty")
	assert.False(t, ok, "empty strings count as missing")

	_, ok = p.String("num")
	assert.False(t, ok, "non-strings count as missing")

	_, ok = p.String("absent")
	assert.False(t, ok)
}

func TestPayload_StringOr(t *testing.T) {
	p := Payload{"path": "/var"}

	assert.Equal(t, "/var", p.StringOr("path", "/"))
	assert.Equal(t, "/", p.StringOr("missing", "/"))
}

func TestPayload_Has(t *testing.T) {
	p := Payload{"reason": ""}

	// Presence is what matters, not truthiness.
	assert.True(t, p.Has("reason"))
	assert.False(t, p.Has("other"))
}

func TestPayload_Seconds(t *testing.T) {
	def := 5 * time.Second

	tests := []struct {
		name string
		p    Payload
		want time.Duration
	}{
		{"missing", Payload{}, def},
		{"float from wire", Payload{"timeout": 2.5}, 2500 * time.Millisecond},
		{"int", Payload{"timeout": 10}, 10 * time.Second},
		{"int64", Payload{"timeout": int64(3)}, 3 * time.Second},
		{"zero falls back", Payload{"timeout": 0.0}, def},
		{"negative falls back", Payload{"timeout": -1.0}, def},
		{"non numeric falls back", Payload{"timeout": "soon"}, def},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.p.Seconds("timeout", def))
		})
	}
}
