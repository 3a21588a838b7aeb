package mudgate

import "testing"

func TestBarrierReadyWhenEmpty(t *testing.T) {
	b := newBarrier()
	if !b.ready() {
		t.Fatal("expected empty barrier to be ready")
	}
}

func TestBarrierNotReadyWithPending(t *testing.T) {
	b := newBarrier()
	b.addLocal(OptSGA)
	b.addRemote(OptTTYPE)
	b.addSpecial(SpecialStage(OptTTYPE, 0))
	if b.ready() {
		t.Fatal("expected barrier with pending entries to be not-ready")
	}

	b.drainLocal(OptSGA)
	if b.ready() {
		t.Fatal("still pending remote/special, should not be ready")
	}
	b.drainRemote(OptTTYPE)
	b.drainSpecial(SpecialStage(OptTTYPE, 0))
	if !b.ready() {
		t.Fatal("expected barrier to be ready once fully drained")
	}
}

func TestBarrierReadyFiresOnlyOnce(t *testing.T) {
	b := newBarrier()
	if !b.ready() {
		t.Fatal("expected ready")
	}
	b.fired = true
	if b.ready() {
		t.Fatal("expected ready() to report false once fired")
	}
}

func TestSpecialStageDoesNotCollideAcrossOptions(t *testing.T) {
	a := SpecialStage(OptTTYPE, 0)
	b := SpecialStage(OptNAWS, 0)
	if a == b {
		t.Fatalf("expected distinct stage ids, both got %d", a)
	}
}
