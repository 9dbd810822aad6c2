package models

import "time"

// PersonObservation is the per-frame, transient output of the Recognition
// Worker (spec §3). PersonID is empty to represent "None" — no face passed
// the detection-confidence floor.
type PersonObservation struct {
	PersonID   string
	Similarity float32
	Timestamp  time.Time
}

func (o PersonObservation) IsNone() bool { return o.PersonID == "" }

// SwitchEvent is a detector-confirmed transition of the currently-present
// person (spec §3). From/To are empty to represent "None".
type SwitchEvent struct {
	From string
	To   string
	At   time.Time
}
