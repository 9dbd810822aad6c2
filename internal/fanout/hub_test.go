package fanout

import (
	"testing"

	"github.com/vxl-labs/glasscore/pkg/dto"
)

func TestHub_NotifyDeliversToRegisteredClient(t *testing.T) {
	h := NewHub()
	mb := h.Register("client-1")
	defer h.Unregister("client-1")

	h.Notify("client-1", dto.OutboundNotification{Type: dto.MsgNotification, Title: "hi", Message: "there"})

	select {
	case n := <-mb.Notifications():
		if n.Title != "hi" {
			t.Fatalf("unexpected notification %+v", n)
		}
	default:
		t.Fatal("expected a notification to be queued")
	}
}

func TestHub_NotifyToUnknownClientIsNoop(t *testing.T) {
	h := NewHub()
	// Should not panic even though no client is registered.
	h.Notify("ghost", dto.OutboundNotification{Type: dto.MsgNotification})
}

func TestHub_MailboxDropsWhenFull(t *testing.T) {
	h := NewHub()
	h.Register("client-1")
	defer h.Unregister("client-1")

	for i := 0; i < mailboxCapacity+10; i++ {
		h.Notify("client-1", dto.OutboundNotification{Type: dto.MsgNotification, Title: "spam"})
	}
	// No assertion beyond "did not block or panic" — a full mailbox must
	// drop silently rather than back-pressure the caller.
}

func TestHub_UnregisterClosesMailboxChannels(t *testing.T) {
	h := NewHub()
	mb := h.Register("client-1")
	h.Unregister("client-1")

	_, ok := <-mb.Notifications()
	if ok {
		t.Fatal("expected notifications channel closed after Unregister")
	}
	_, ok = <-mb.Switches()
	if ok {
		t.Fatal("expected switches channel closed after Unregister")
	}
}
