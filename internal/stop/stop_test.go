package stop

import "testing"

func TestTokenStartsClean(t *testing.T) {
	c := NewController()
	tok := c.Begin()
	if tok.Stopped() {
		t.Fatalf("fresh token must not be stopped")
	}
	if err := tok.Err(); err != nil {
		t.Fatalf("fresh token err: %v", err)
	}
}

func TestStopTripsActiveToken(t *testing.T) {
	c := NewController()
	tok := c.Begin()
	c.Stop()
	if !tok.Stopped() {
		t.Fatalf("expected token stopped")
	}
	if !IsStopped(tok.Err()) {
		t.Fatalf("expected ErrStopped, got %v", tok.Err())
	}
}

func TestBeginResetsPriorStop(t *testing.T) {
	c := NewController()
	first := c.Begin()
	c.Stop()
	second := c.Begin()
	if second.Stopped() {
		t.Fatalf("a new request must not inherit a prior stop")
	}
	if !first.Stopped() {
		t.Fatalf("old token should stay stopped")
	}
}

func TestStopWithoutRequestIsNoop(t *testing.T) {
	c := NewController()
	c.Stop() // must not panic
	tok := c.Begin()
	if tok.Stopped() {
		t.Fatalf("stop before begin must not affect the next request")
	}
}

func TestErrMessageIsCanonical(t *testing.T) {
	if ErrStopped.Error() != "Generation stopped" {
		t.Fatalf("unexpected message: %q", ErrStopped.Error())
	}
}
