// Package asr adapts the cloud ASR service named by spec §2 as an external
// collaborator: it streams 16-bit PCM audio out and receives finalized
// transcription strings back. The core never buffers audio itself or runs
// its own turn-detection — the ASR endpoint already decided the turn is
// complete by the time a transcript arrives (spec §4.5).
package asr

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/gorilla/websocket"

	"github.com/vxl-labs/glasscore/internal/config"
)

// Transcript is one finalized utterance from the ASR endpoint.
type Transcript struct {
	Text string
	At   time.Time
}

type transcriptFrame struct {
	Text      string `json:"text"`
	IsFinal   bool   `json:"is_final"`
	Timestamp string `json:"timestamp,omitempty"`
}

// Stream is one client's audio-in / transcript-out session with the ASR
// endpoint, grounded on original_source's SpeechHandler (conversation/
// speech_handler.py) but carried over gorilla/websocket instead of Riva's
// gRPC client, since that is the streaming transport the rest of this
// module already depends on.
type Stream struct {
	conn *websocket.Conn
}

// Dial opens a streaming session against cfg.Endpoint.
func Dial(ctx context.Context, cfg config.ASRConfig) (*Stream, error) {
	dialer := websocket.Dialer{HandshakeTimeout: 10 * time.Second}
	conn, _, err := dialer.DialContext(ctx, cfg.Endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("dial asr endpoint: %w", err)
	}
	return &Stream{conn: conn}, nil
}

// SendAudio forwards one chunk of 16-bit PCM mono audio verbatim.
func (s *Stream) SendAudio(chunk []byte) error {
	return s.conn.WriteMessage(websocket.BinaryMessage, chunk)
}

// Transcripts drains finalized transcripts until the connection closes or
// ctx is canceled, invoking onTranscript for each one. Non-final partials
// are discarded — the core has no use for interim hypotheses.
func (s *Stream) Transcripts(ctx context.Context, onTranscript func(Transcript)) error {
	go func() {
		<-ctx.Done()
		_ = s.conn.Close()
	}()

	for {
		_, data, err := s.conn.ReadMessage()
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return fmt.Errorf("read asr transcript: %w", err)
		}

		var frame transcriptFrame
		if err := json.Unmarshal(data, &frame); err != nil {
			slog.Warn("malformed asr frame, dropping", "error", err)
			continue
		}
		if !frame.IsFinal || frame.Text == "" {
			continue
		}

		onTranscript(Transcript{Text: frame.Text, At: time.Now()})
	}
}

// Close releases the underlying connection.
func (s *Stream) Close() error {
	return s.conn.Close()
}
