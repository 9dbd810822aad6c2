// Package ingest implements the Frame Ingest component (spec §4.1): a
// single TCP socket carrying length-prefixed JPEG frames, handed to the
// Recognition Worker through a bounded drop-oldest queue.
package ingest

import (
	"context"
	"encoding/binary"
	"fmt"
	"io"
	"log/slog"
	"net"
	"time"

	"github.com/vxl-labs/glasscore/internal/observability"
)

const (
	magic          = "VXL0"
	maxPayloadSize = 5 * 1024 * 1024
	acceptTimeout  = 10 * time.Second
)

// Queue is the bounded, drop-oldest handoff between Frame Ingest and the
// Recognition Worker (spec §4.1, §8 property 4).
type Queue struct {
	ch chan []byte
}

func NewQueue(capacity int) *Queue {
	return &Queue{ch: make(chan []byte, capacity)}
}

// Push enqueues frame, evicting the oldest pending frame if the queue is
// full. Never blocks.
func (q *Queue) Push(frame []byte) (dropped bool) {
	select {
	case q.ch <- frame:
		observability.QueueDepth.Set(float64(len(q.ch)))
		return false
	default:
	}

	select {
	case <-q.ch:
		dropped = true
	default:
	}

	select {
	case q.ch <- frame:
	default:
		// Another producer raced us; give up on this frame rather than block.
		dropped = true
	}
	observability.QueueDepth.Set(float64(len(q.ch)))
	return dropped
}

func (q *Queue) C() <-chan []byte {
	return q.ch
}

// Serve accepts connections on ln one at a time — spec §4.1 names a
// single camera socket — and reads VXL0 frames into queue until ctx is
// canceled or the read loop dies after too many consecutive errors.
func Serve(ctx context.Context, ln net.Listener, queue *Queue, maxReadErrors int, readTimeout time.Duration) error {
	go func() {
		<-ctx.Done()
		_ = ln.Close()
	}()

	for {
		if tl, ok := ln.(*net.TCPListener); ok {
			_ = tl.SetDeadline(time.Now().Add(acceptTimeout))
		}

		conn, err := ln.Accept()
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			if ne, ok := err.(net.Error); ok && ne.Timeout() {
				continue
			}
			return fmt.Errorf("accept: %w", err)
		}

		slog.Info("frame source connected", "remote", conn.RemoteAddr())
		readLoop(ctx, conn, queue, maxReadErrors, readTimeout)
		_ = conn.Close()

		if ctx.Err() != nil {
			return ctx.Err()
		}
	}
}

// readLoop consumes VXL0 records from conn until ctx is canceled or the
// eleventh consecutive framing/read error occurs (spec §4.1).
func readLoop(ctx context.Context, conn net.Conn, queue *Queue, maxReadErrors int, readTimeout time.Duration) {
	header := make([]byte, 8)
	consecutiveErrors := 0

	for {
		if ctx.Err() != nil {
			return
		}

		_ = conn.SetReadDeadline(time.Now().Add(readTimeout))

		if _, err := io.ReadFull(conn, header); err != nil {
			consecutiveErrors++
			slog.Warn("frame header read failed", "error", err, "consecutive_errors", consecutiveErrors)
			if consecutiveErrors > maxReadErrors {
				slog.Error("frame ingest terminating after too many consecutive errors")
				return
			}
			continue
		}

		if string(header[:4]) != magic {
			consecutiveErrors++
			slog.Warn("bad frame magic", "consecutive_errors", consecutiveErrors)
			if consecutiveErrors > maxReadErrors {
				slog.Error("frame ingest terminating after too many consecutive errors")
				return
			}
			continue
		}

		length := binary.BigEndian.Uint32(header[4:8])
		if length == 0 || length > maxPayloadSize {
			slog.Warn("frame payload length out of bounds, skipping", "length", length)
			continue
		}

		payload := make([]byte, length)
		if _, err := io.ReadFull(conn, payload); err != nil {
			consecutiveErrors++
			slog.Warn("frame payload read failed", "error", err, "consecutive_errors", consecutiveErrors)
			if consecutiveErrors > maxReadErrors {
				slog.Error("frame ingest terminating after too many consecutive errors")
				return
			}
			continue
		}

		consecutiveErrors = 0
		observability.FramesRead.Inc()
		if dropped := queue.Push(payload); dropped {
			observability.FramesDropped.Inc()
		}
	}
}
