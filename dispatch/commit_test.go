package dispatch

import "testing"

func TestDecideResetToBeStandbyWithUpdate(t *testing.T) {
	reset, latch := decideReset(HAToBeStandby, true, false, ClientNormal, false)
	if !reset || !latch {
		t.Fatalf("reset=%v latch=%v, want true/true", reset, latch)
	}
}

// This is the asymmetric Open Question quirk: COMMIT (ignoreHasUpdated
// = true) still flips reset_on_commit for an untouched TO_BE_STANDBY
// transaction, but ABORT (ignoreHasUpdated = false) does not.
func TestDecideResetToBeStandbyUntouchedAsymmetry(t *testing.T) {
	commitReset, _ := decideReset(HAToBeStandby, false, false, ClientNormal, true)
	if !commitReset {
		t.Error("CommitHandler's untouched TO_BE_STANDBY transaction must still flip reset_on_commit")
	}
	abortReset, _ := decideReset(HAToBeStandby, false, false, ClientNormal, false)
	if abortReset {
		t.Error("AbortHandler's untouched TO_BE_STANDBY transaction must not flip reset_on_commit")
	}
}

func TestDecideResetStandbyLatchClears(t *testing.T) {
	reset, latch := decideReset(HAStandby, false, true, ClientNormal, false)
	if !reset {
		t.Error("a set latch under STANDBY/NORMAL must trigger reset")
	}
	if latch {
		t.Error("the latch must be cleared after this commit consumes it")
	}
}

func TestDecideResetActiveSlaveOnlyBroker(t *testing.T) {
	reset, _ := decideReset(HAActive, false, false, ClientSlaveOnlyBroker, false)
	if !reset {
		t.Error("ACTIVE/SLAVE_ONLY_BROKER must always reset")
	}
}

func TestDecideResetStandbyBroker(t *testing.T) {
	reset, _ := decideReset(HAStandby, false, false, ClientBroker, false)
	if !reset {
		t.Error("STANDBY/BROKER must always reset")
	}
}

func TestDecideResetOtherwiseNo(t *testing.T) {
	reset, latch := decideReset(HAActive, true, false, ClientNormal, false)
	if reset || latch {
		t.Errorf("reset=%v latch=%v, want false/false for an unmatched row", reset, latch)
	}
}

func TestCommitHandlerSendsReplyAndClearsHasUpdated(t *testing.T) {
	client, server := pipeConns(t)
	state := &ConnState{HA: HAToBeStandby, HasUpdated: true, Client: ClientNormal}
	ctx := &RequestContext{Conn: server, Rid: 1, State: state}

	done := make(chan error, 1)
	go func() { done <- CommitHandler(ctx) }()

	_, _, payload, err := client.RecvReply()
	if err != nil {
		t.Fatalf("RecvReply: %v", err)
	}
	if len(payload) != 1 || payload[0] != 1 {
		t.Fatalf("reply payload = %v, want [1] (reset=true)", payload)
	}
	if err := <-done; err != nil {
		t.Fatalf("CommitHandler: %v", err)
	}
	if state.HasUpdated {
		t.Error("CommitHandler must clear HasUpdated")
	}
	if !state.ResetOnCommit {
		t.Error("ResetOnCommit latch should be armed after this decision")
	}
}
