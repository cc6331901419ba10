package util

import (
	"bytes"
	"context"
	"io"
	"strings"
	"testing"
	"time"
)

func TestRateCounterPassesData(t *testing.T) {
	r := NewRateCounter(1 << 20)
	defer r.Stop()
	var buf bytes.Buffer
	_, err := io.Copy(&buf, r.Wrap(context.Background(), strings.NewReader(hashInput)))
	if err != nil {
		t.Fatal(err)
	}
	if buf.String() != hashInput {
		t.Errorf("Received %q, expected %q", buf.String(), hashInput)
	}
}

func TestRateCounterStop(t *testing.T) {
	r := NewRateCounter(1)
	r.Use(1000) // drive the balance far negative
	r.Stop()
	r.Stop()
	time.Sleep(5 * time.Millisecond)
	_, err := r.Wrap(context.Background(), strings.NewReader("x")).Read(make([]byte, 1))
	if err != ErrStopped {
		t.Errorf("Received %v, expected %v", err, ErrStopped)
	}
}

func TestRateCounterContext(t *testing.T) {
	r := NewRateCounter(1)
	defer r.Stop()
	r.Use(1000)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := r.Wrap(ctx, strings.NewReader("x")).Read(make([]byte, 1))
	if err != context.Canceled {
		t.Errorf("Received %v, expected %v", err, context.Canceled)
	}
}
