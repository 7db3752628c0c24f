package risk

import (
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"triarb/internal/config"
)

func testGuard() *Guard {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewGuard(config.RiskConfig{MaxConsecutiveLegFailures: 3, Cooldown: 50 * time.Millisecond}, logger)
}

func TestReportUnderThresholdDoesNotCooldown(t *testing.T) {
	t.Parallel()
	g := testGuard()

	g.Report("a/b/c", errors.New("leg failed"))
	g.Report("a/b/c", errors.New("leg failed"))

	if g.IsCooledDown("a/b/c") {
		t.Error("should not be cooled down before reaching the threshold")
	}
}

func TestReportAtThresholdCoolsDownAndResets(t *testing.T) {
	t.Parallel()
	g := testGuard()

	for i := 0; i < 3; i++ {
		g.Report("a/b/c", errors.New("leg failed"))
	}

	if !g.IsCooledDown("a/b/c") {
		t.Error("expected cooldown after 3 consecutive failures")
	}

	snaps := g.Snapshots()
	var found bool
	for _, s := range snaps {
		if s.TriangleKey == "a/b/c" {
			found = true
			if s.ConsecutiveErrors != 0 {
				t.Errorf("ConsecutiveErrors = %d, want 0 after cooldown trips", s.ConsecutiveErrors)
			}
		}
	}
	if !found {
		t.Error("expected a snapshot entry for a/b/c")
	}
}

func TestReportSuccessResetsFailureCount(t *testing.T) {
	t.Parallel()
	g := testGuard()

	g.Report("a/b/c", errors.New("leg failed"))
	g.Report("a/b/c", errors.New("leg failed"))
	g.Report("a/b/c", nil)
	g.Report("a/b/c", errors.New("leg failed"))

	if g.IsCooledDown("a/b/c") {
		t.Error("a single failure after a reset should not trip cooldown")
	}
}

func TestCooldownExpires(t *testing.T) {
	t.Parallel()
	g := testGuard()

	for i := 0; i < 3; i++ {
		g.Report("a/b/c", errors.New("leg failed"))
	}
	if !g.IsCooledDown("a/b/c") {
		t.Fatal("expected cooldown immediately after tripping")
	}

	time.Sleep(80 * time.Millisecond)

	if g.IsCooledDown("a/b/c") {
		t.Error("expected cooldown to have expired")
	}
}

func TestIsCooledDownFalseForUnknownTriangle(t *testing.T) {
	t.Parallel()
	g := testGuard()

	if g.IsCooledDown("never/seen/before") {
		t.Error("unknown triangle should never report cooled down")
	}
}
