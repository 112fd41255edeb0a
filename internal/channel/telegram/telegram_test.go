package telegram

import (
	"log/slog"
	"testing"
)

func testLogger() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

func TestAdapterName(t *testing.T) {
	adapter := New("test", nil, testLogger())
	if adapter.Name() != "telegram" {
		t.Errorf("Expected telegram, got %s", adapter.Name())
	}
}

func TestEnabledRequiresToken(t *testing.T) {
	if New("", nil, testLogger()).Enabled() {
		t.Error("adapter without token must be disabled")
	}
	if !New("token", nil, testLogger()).Enabled() {
		t.Error("adapter with token must be enabled")
	}
}

func TestUserAllowList(t *testing.T) {
	adapter := New("test", []int64{42}, testLogger())
	if !adapter.userAllowed(42) {
		t.Error("listed user must be allowed")
	}
	if adapter.userAllowed(7) {
		t.Error("unlisted user must be dropped")
	}

	open := New("test", nil, testLogger())
	if !open.userAllowed(7) {
		t.Error("empty allow list admits everyone")
	}
}

func TestStopClosesIncoming(t *testing.T) {
	adapter := New("test", nil, testLogger())
	if err := adapter.Stop(); err != nil {
		t.Fatalf("stop failed: %v", err)
	}
	if _, ok := <-adapter.Incoming(); ok {
		t.Error("incoming must be closed after Stop")
	}
}
