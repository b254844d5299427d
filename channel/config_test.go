package channel

import (
	"errors"
	"testing"
)

type recordingApplier struct {
	applied map[OptionKey]any
	err     error
}

func newRecordingApplier() *recordingApplier {
	return &recordingApplier{applied: make(map[OptionKey]any)}
}

func (a *recordingApplier) applyOption(key OptionKey, value any) error {
	if a.err != nil {
		return a.err
	}
	a.applied[key] = value
	return nil
}

func TestSetOptionBeforeAssignIsPending(t *testing.T) {
	cc := NewChannelConfig()
	applier := newRecordingApplier()

	if err := cc.SetOption(OptSctpNodelay, true); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(applier.applied) != 0 {
		t.Fatal("option should not be applied before assign")
	}

	v, err := cc.GetOption(OptSctpNodelay)
	if err != nil || v != true {
		t.Fatalf("got (%v, %v), want (true, nil)", v, err)
	}

	if err := cc.assign(applier); err != nil {
		t.Fatalf("assign failed: %v", err)
	}
	if applier.applied[OptSctpNodelay] != true {
		t.Fatal("pending option was not flushed on assign")
	}
}

func TestSetOptionAfterAssignAppliesImmediately(t *testing.T) {
	cc := NewChannelConfig()
	applier := newRecordingApplier()
	if err := cc.assign(applier); err != nil {
		t.Fatalf("assign failed: %v", err)
	}

	if err := cc.SetOption(OptSoLinger, 5); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if applier.applied[OptSoLinger] != 5 {
		t.Fatal("option set after assign should apply immediately")
	}
}

func TestAssignIsExactlyOnce(t *testing.T) {
	cc := NewChannelConfig()
	first := newRecordingApplier()
	second := newRecordingApplier()

	_ = cc.SetOption(OptSctpNodelay, true)
	if err := cc.assign(first); err != nil {
		t.Fatalf("first assign failed: %v", err)
	}
	if err := cc.assign(second); err != nil {
		t.Fatalf("second assign should be a no-op, not fail: %v", err)
	}
	if len(second.applied) != 0 {
		t.Fatal("second assign must not drain or reapply anything")
	}
}

func TestSetOptionUnknownKey(t *testing.T) {
	cc := NewChannelConfig()
	err := cc.SetOption(OptionKey("bogus"), 1)
	if !errors.Is(err, ErrUnknownOption) {
		t.Fatalf("got %v, want ErrUnknownOption", err)
	}
}

func TestSetOptionInvalidValue(t *testing.T) {
	cc := NewChannelConfig()
	err := cc.SetOption(OptSoRcvbuf, "not an int")
	if !errors.Is(err, ErrInvalidOption) {
		t.Fatalf("got %v, want ErrInvalidOption", err)
	}
}

func TestGetOptionUnknownKey(t *testing.T) {
	cc := NewChannelConfig()
	_, err := cc.GetOption(OptionKey("bogus"))
	if !errors.Is(err, ErrUnknownOption) {
		t.Fatalf("got %v, want ErrUnknownOption", err)
	}
}

func TestApplyErrorWrapsErrConfigIO(t *testing.T) {
	cc := NewChannelConfig()
	applier := newRecordingApplier()
	applier.err = errors.New("kernel says no")
	if err := cc.assign(applier); err != nil {
		t.Fatalf("assign with no pending options should not fail: %v", err)
	}

	err := cc.SetOption(OptSoLinger, 3)
	if !errors.Is(err, ErrConfigIO) {
		t.Fatalf("got %v, want ErrConfigIO", err)
	}
}

func TestSoTimeoutMsHasADocumentedDefault(t *testing.T) {
	cc := NewChannelConfig()
	v, err := cc.GetOption(OptSoTimeoutMs)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if v != 1000 {
		t.Fatalf("got SO_TIMEOUT default %v, want 1000", v)
	}
}

func TestNewServerChannelConfigAddsBacklog(t *testing.T) {
	scc := NewServerChannelConfig()
	if _, err := scc.GetOption(OptSoBacklog); err != nil {
		t.Fatalf("expected SO_BACKLOG to be a known option: %v", err)
	}
	if err := scc.SetPerformancePreferences(1, 2, 3); !errors.Is(err, ErrUnsupportedOperation) {
		t.Fatalf("got %v, want ErrUnsupportedOperation", err)
	}
}
