package proc

import (
	"os"
	"testing"
	"time"
)

func TestAliveForOwnProcess(t *testing.T) {
	if !Alive(os.Getpid()) {
		t.Error("Own process should be alive")
	}
}

func TestAliveForBogusPid(t *testing.T) {
	// Far above any realistic pid_max
	if Alive(1 << 30) {
		t.Error("Bogus pid should not be alive")
	}
}

func TestWaitGoneReturnsImmediatelyForDeadPid(t *testing.T) {
	start := time.Now()
	if !WaitGone(1<<30, time.Second) {
		t.Error("Bogus pid should be reported gone")
	}
	if time.Since(start) > 500*time.Millisecond {
		t.Error("WaitGone should return immediately for a dead pid")
	}
}

func TestWaitGoneTimesOutForLivePid(t *testing.T) {
	if WaitGone(os.Getpid(), 50*time.Millisecond) {
		t.Error("Own process should survive the wait")
	}
}
