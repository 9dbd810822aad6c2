package models

import (
	"math"
	"time"
)

// UnnamedPersonIDPrefix marks a PersonId auto-generated at first sighting
// (spec §6). PersonId doubles as display name once a person is renamed via
// change_name/update_name, so this prefix is the only signal that a person
// has no stored name yet.
const UnnamedPersonIDPrefix = "Unnamed_"

// GalleryEntry is the persisted centroid for one person (spec §3).
// Embedding is stored as raw little-endian float32 bytes — the store
// performs no vector math, so there is no pgvector column here.
type GalleryEntry struct {
	PersonID  string
	Embedding []float32
	Count     int
	Recap     string
	Socials   []byte // JSON, opaque to the core
	CreatedAt time.Time
	UpdatedAt time.Time
}

// FaceEmbeddingBytes returns the raw little-endian float32 encoding of e,
// the wire/storage form named by spec §6.
func FaceEmbeddingBytes(e []float32) []byte {
	buf := make([]byte, 4*len(e))
	for i, f := range e {
		putFloat32LE(buf[i*4:], f)
	}
	return buf
}

// FaceEmbeddingFromBytes is the inverse of FaceEmbeddingBytes.
func FaceEmbeddingFromBytes(b []byte) []float32 {
	n := len(b) / 4
	out := make([]float32, n)
	for i := 0; i < n; i++ {
		out[i] = float32FromLE(b[i*4:])
	}
	return out
}

func putFloat32LE(b []byte, f float32) {
	bits := math.Float32bits(f)
	b[0] = byte(bits)
	b[1] = byte(bits >> 8)
	b[2] = byte(bits >> 16)
	b[3] = byte(bits >> 24)
}

func float32FromLE(b []byte) float32 {
	bits := uint32(b[0]) | uint32(b[1])<<8 | uint32(b[2])<<16 | uint32(b[3])<<24
	return math.Float32frombits(bits)
}
