package ingest

import (
	"context"
	"encoding/binary"
	"net"
	"testing"
	"time"
)

func TestQueue_PushDropsOldestWhenFull(t *testing.T) {
	q := NewQueue(2)

	if dropped := q.Push([]byte("a")); dropped {
		t.Fatal("first push into an empty queue should never drop")
	}
	if dropped := q.Push([]byte("b")); dropped {
		t.Fatal("second push should fit within capacity 2")
	}
	if dropped := q.Push([]byte("c")); !dropped {
		t.Fatal("third push into a full capacity-2 queue should drop the oldest")
	}

	first := <-q.C()
	second := <-q.C()
	if string(first) != "b" || string(second) != "c" {
		t.Fatalf("expected [b c] after dropping a, got [%s %s]", first, second)
	}
}

func encodeFrame(payload []byte) []byte {
	header := make([]byte, 8)
	copy(header[:4], magic)
	binary.BigEndian.PutUint32(header[4:8], uint32(len(payload)))
	return append(header, payload...)
}

func TestReadLoop_ParsesValidFrame(t *testing.T) {
	client, server := net.Pipe()
	defer client.Close()

	q := NewQueue(4)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan struct{})
	go func() {
		readLoop(ctx, server, q, 10, time.Second)
		close(done)
	}()

	payload := []byte{0xDE, 0xAD, 0xBE, 0xEF}
	go client.Write(encodeFrame(payload))

	select {
	case got := <-q.C():
		if string(got) != string(payload) {
			t.Fatalf("expected payload %v, got %v", payload, got)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for frame on queue")
	}

	client.Close()
	<-done
}

func TestReadLoop_BadMagicIsSkippedNotFatal(t *testing.T) {
	client, server := net.Pipe()
	defer client.Close()

	q := NewQueue(4)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan struct{})
	go func() {
		readLoop(ctx, server, q, 10, time.Second)
		close(done)
	}()

	bad := make([]byte, 8)
	copy(bad[:4], "XXXX")
	binary.BigEndian.PutUint32(bad[4:8], 4)
	go func() {
		client.Write(bad)
		client.Write(encodeFrame([]byte("ok")))
	}()

	select {
	case got := <-q.C():
		if string(got) != "ok" {
			t.Fatalf("expected eventual valid frame 'ok', got %q", got)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for recovery after bad magic")
	}

	client.Close()
	<-done
}
