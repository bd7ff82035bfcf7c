package ratelimiter

import (
	"testing"
	"time"
)

func TestFixedWindowAllowsUpToLimit(t *testing.T) {
	rl := NewFixedWindowLimiter(3, time.Minute)

	for i := 0; i < 3; i++ {
		if ok, _ := rl.Allow("1.2.3.4"); !ok {
			t.Fatalf("request %d denied under the limit", i+1)
		}
	}

	ok, retry := rl.Allow("1.2.3.4")
	if ok {
		t.Fatal("request over the limit allowed")
	}
	if retry != time.Minute {
		t.Errorf("retry hint = %v, want %v", retry, time.Minute)
	}
}

func TestFixedWindowIsPerClient(t *testing.T) {
	rl := NewFixedWindowLimiter(1, time.Minute)

	rl.Allow("1.1.1.1")
	if ok, _ := rl.Allow("2.2.2.2"); !ok {
		t.Fatal("second client denied by first client's usage")
	}
}
