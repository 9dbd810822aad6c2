package switcher

import (
	"testing"
	"time"

	"github.com/vxl-labs/glasscore/internal/config"
	"github.com/vxl-labs/glasscore/internal/models"
)

func testConfig() config.SwitchingConfig {
	return config.SwitchingConfig{
		DefaultFPS: 10,
		MinWindow:  5,
		MaxWindow:  30,
		FPSSamples: 30,
	}
}

func observeAt(d *Detector, personID string, t time.Time) (models.SwitchEvent, bool) {
	return d.Observe(models.PersonObservation{PersonID: personID, Timestamp: t})
}

func TestDetector_NoneToPersonRequiresSustainedVotes(t *testing.T) {
	d := NewDetector(testConfig())
	base := time.Now()

	var ev models.SwitchEvent
	var switched bool
	for i := 0; i < 5; i++ {
		ev, switched = observeAt(d, "alice", base.Add(time.Duration(i)*100*time.Millisecond))
		if i < 4 && switched {
			t.Fatalf("switched too early at observation %d", i)
		}
	}

	if !switched {
		t.Fatal("expected switch to alice on the 5th consistent observation")
	}
	if ev.From != "" || ev.To != "alice" {
		t.Fatalf("unexpected event %+v", ev)
	}
	if d.Current() != "alice" {
		t.Fatalf("expected current person alice, got %q", d.Current())
	}
}

func TestDetector_SingleFlickerDoesNotSwitch(t *testing.T) {
	d := NewDetector(testConfig())
	base := time.Now()

	for i := 0; i < 5; i++ {
		observeAt(d, "alice", base.Add(time.Duration(i)*100*time.Millisecond))
	}
	if d.Current() != "alice" {
		t.Fatalf("setup failed: expected alice, got %q", d.Current())
	}

	_, switched := observeAt(d, "", base.Add(500*time.Millisecond))
	if switched {
		t.Fatal("a single None frame should not trigger a departure switch")
	}
	if d.Current() != "alice" {
		t.Fatalf("current person should remain alice after one flicker, got %q", d.Current())
	}
}

func TestDetector_DepartureRequiresMoreVotesThanArrival(t *testing.T) {
	d := NewDetector(testConfig())
	base := time.Now()

	for i := 0; i < 5; i++ {
		observeAt(d, "alice", base.Add(time.Duration(i)*100*time.Millisecond))
	}

	var switched bool
	noneVotes := 0
	for i := 5; i < 12; i++ {
		noneVotes++
		_, switched = observeAt(d, "", base.Add(time.Duration(i)*100*time.Millisecond))
		if switched {
			break
		}
	}

	if !switched {
		t.Fatal("expected a departure switch once enough None votes accumulate")
	}
	if noneVotes <= 5 {
		t.Fatalf("departure switched after %d None votes; arrival took 5, departure must take more", noneVotes)
	}
	if d.Current() != "" {
		t.Fatalf("expected current person empty after departure, got %q", d.Current())
	}
}

func TestDetector_DirectPersonToPersonSwitch(t *testing.T) {
	d := NewDetector(testConfig())
	base := time.Now()

	for i := 0; i < 5; i++ {
		observeAt(d, "alice", base.Add(time.Duration(i)*100*time.Millisecond))
	}

	var ev models.SwitchEvent
	var switched bool
	for i := 5; i < 12; i++ {
		ev, switched = observeAt(d, "bob", base.Add(time.Duration(i)*100*time.Millisecond))
		if switched {
			break
		}
	}

	if !switched {
		t.Fatal("expected a switch directly from alice to bob")
	}
	if ev.From != "alice" || ev.To != "bob" {
		t.Fatalf("unexpected event %+v", ev)
	}
}

func TestClampInt(t *testing.T) {
	cases := []struct {
		v, lo, hi, want int
	}{
		{5, 3, 9, 5},
		{1, 3, 9, 3},
		{20, 3, 9, 9},
		{5, 10, 9, 9}, // hi < lo: hi wins
	}
	for _, c := range cases {
		if got := clampInt(c.v, c.lo, c.hi); got != c.want {
			t.Errorf("clampInt(%d,%d,%d) = %d, want %d", c.v, c.lo, c.hi, got, c.want)
		}
	}
}
