package fuzzer_test

import (
	"testing"

	"fuzzer/internal/fuzzer"
)

func TestBlacklistMatches(t *testing.T) {
	b := fuzzer.NewBlacklistStatus([]int{429, 403}, fuzzer.ActionWait, 1, fuzzer.BlacklistCallbacks{})
	if !b.Matches(429) {
		t.Fatal("429 should be blacklisted")
	}
	if b.Matches(200) {
		t.Fatal("200 should not be blacklisted")
	}
}

func TestBlacklistNilIsNeverBlacklisted(t *testing.T) {
	var b *fuzzer.BlacklistStatus
	if b.Matches(429) {
		t.Fatal("a nil BlacklistStatus should never match")
	}
}

func TestBlacklistTriggerInvokesCallbackOnce(t *testing.T) {
	var stopCalls, waitCalls int
	b := fuzzer.NewBlacklistStatus([]int{403}, fuzzer.ActionStop, 0, fuzzer.BlacklistCallbacks{
		OnStop: func(status int) { stopCalls++ },
		OnWait: func(status int, seconds float64) { waitCalls++ },
	})
	action := b.Trigger(403)
	if action != fuzzer.ActionStop {
		t.Fatalf("action = %v, want ActionStop", action)
	}
	if stopCalls != 1 {
		t.Fatalf("OnStop called %d times, want 1", stopCalls)
	}
	if waitCalls != 0 {
		t.Fatalf("OnWait should not be called for a stop action")
	}
}

func TestBlacklistWaitAction(t *testing.T) {
	var gotSeconds float64
	b := fuzzer.NewBlacklistStatus([]int{429}, fuzzer.ActionWait, 2.5, fuzzer.BlacklistCallbacks{
		OnWait: func(status int, seconds float64) { gotSeconds = seconds },
	})
	if action := b.Trigger(429); action != fuzzer.ActionWait {
		t.Fatalf("action = %v, want ActionWait", action)
	}
	if gotSeconds != 2.5 {
		t.Fatalf("seconds = %v, want 2.5", gotSeconds)
	}
}
