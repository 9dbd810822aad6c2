// Package switcher implements the Switch Detector (component C): it
// smooths noisy per-frame PersonObservations into a stable current
// person using an FPS-adaptive sliding-window vote (spec §4.3).
package switcher

import (
	"sync"
	"time"

	"github.com/vxl-labs/glasscore/internal/config"
	"github.com/vxl-labs/glasscore/internal/models"
)

// Detector owns the sliding window and the committed current person; no
// other component reads its internal state (spec §3 Ownership).
type Detector struct {
	mu sync.Mutex

	cfg config.SwitchingConfig

	window  []string // PersonId, "" means None
	samples []time.Time

	current string
}

func NewDetector(cfg config.SwitchingConfig) *Detector {
	return &Detector{cfg: cfg}
}

// Current returns the committed PersonId, or "" for None.
func (d *Detector) Current() string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.current
}

// Observe appends obs to the window and returns a SwitchEvent if this
// observation completes a hysteresis-confirmed transition (spec §4.3).
func (d *Detector) Observe(obs models.PersonObservation) (models.SwitchEvent, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.samples = append(d.samples, obs.Timestamp)
	if len(d.samples) > d.cfg.FPSSamples {
		d.samples = d.samples[len(d.samples)-d.cfg.FPSSamples:]
	}

	fps := d.estimateFPS()
	n := clampInt(int(fps), d.cfg.MinWindow, d.cfg.MaxWindow)
	tToPerson := clampInt(int(5*fps/10), 3, n-1)
	tToAbsent := clampInt(int(7*fps/10), 5, n-1)

	d.window = append(d.window, obs.PersonID)
	if len(d.window) > n {
		d.window = d.window[len(d.window)-n:]
	}

	newest := obs.PersonID

	switch {
	case d.current != "" && newest == "":
		if countOf(d.window, "") >= tToAbsent {
			ev := models.SwitchEvent{From: d.current, To: "", At: obs.Timestamp}
			d.current = ""
			return ev, true
		}
	case newest != d.current:
		if countOf(d.window, newest) >= tToPerson {
			ev := models.SwitchEvent{From: d.current, To: newest, At: obs.Timestamp}
			d.current = newest
			return ev, true
		}
	}

	return models.SwitchEvent{}, false
}

// estimateFPS uses up to FPSSamples recent timestamps; defaults to
// DefaultFPS with fewer than two samples (spec §4.3).
func (d *Detector) estimateFPS() float64 {
	if len(d.samples) < 2 {
		return d.cfg.DefaultFPS
	}
	span := d.samples[len(d.samples)-1].Sub(d.samples[0]).Seconds()
	if span <= 0 {
		return d.cfg.DefaultFPS
	}
	return float64(len(d.samples)-1) / span
}

func countOf(window []string, target string) int {
	n := 0
	for _, w := range window {
		if w == target {
			n++
		}
	}
	return n
}

// clampInt clamps v to [lo, hi]. If the window is too small for lo to fit
// under hi (possible when N sits at its own floor), hi wins: a vote
// threshold can never exceed the window it's counted over.
func clampInt(v, lo, hi int) int {
	if hi < lo {
		return hi
	}
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
