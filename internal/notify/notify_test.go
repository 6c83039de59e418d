package notify

import (
	"bytes"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestNew_DefaultDuration(t *testing.T) {
	n := New(Error, "storage quota exceeded")
	assert.Equal(t, DefaultDuration, n.Duration)
	assert.False(t, n.Expired(n.At.Add(14*time.Second)))
	assert.True(t, n.Expired(n.At.Add(15*time.Second)))
}

func TestFanoutAndRecorder(t *testing.T) {
	var a, b Recorder
	f := Fanout{&a, nil, &b}

	Errorn(f, "boom")
	Infon(f, "saved")

	assert.Equal(t, []string{"boom", "saved"}, a.Texts())
	assert.Equal(t, a.Texts(), b.Texts())
	assert.Equal(t, Error, a.All()[0].Level)

	a.Reset()
	assert.Empty(t, a.All())
}

func TestLogger(t *testing.T) {
	var buf bytes.Buffer
	l := NewLogger(slog.New(slog.NewTextHandler(&buf, nil)))

	l.Notify(New(Warning, "careful"))
	assert.Contains(t, buf.String(), "level=WARN")
	assert.Contains(t, buf.String(), "careful")
}

func TestLevelString(t *testing.T) {
	assert.Equal(t, "info", Info.String())
	assert.Equal(t, "error", Error.String())
}

func TestRelay(t *testing.T) {
	var r Relay
	Infon(&r, "dropped")

	var rec Recorder
	r.Attach(&rec)
	Errorn(&r, "delivered")

	assert.Equal(t, []string{"delivered"}, rec.Texts())
}
