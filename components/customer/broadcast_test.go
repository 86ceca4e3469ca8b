package customer

import (
	"context"
	"testing"
)

func TestBroadcastHookSubscribe(t *testing.T) {
	hook := NewBroadcastHook()
	ch, cancel := hook.Subscribe("")
	defer cancel()
	event := DashboardEvent{Customer: "CUST-1", Reason: "invoice.submit"}
	if err := hook.DashboardUpdated(context.Background(), event); err != nil {
		t.Fatalf("DashboardUpdated returned error: %v", err)
	}
	select {
	case e := <-ch:
		if e.Customer != event.Customer {
			t.Fatalf("expected customer %s, got %s", event.Customer, e.Customer)
		}
	default:
		t.Fatalf("expected event to be delivered")
	}
}

func TestBroadcastHookFiltersByCustomer(t *testing.T) {
	hook := NewBroadcastHook()
	ch, cancel := hook.Subscribe("CUST-2")
	defer cancel()
	_ = hook.DashboardUpdated(context.Background(), DashboardEvent{Customer: "CUST-1"})
	select {
	case e := <-ch:
		t.Fatalf("unexpected event %#v", e)
	default:
	}
}

func TestBroadcastHookCancelClosesChannel(t *testing.T) {
	hook := NewBroadcastHook()
	ch, cancel := hook.Subscribe("")
	cancel()
	if _, ok := <-ch; ok {
		t.Fatalf("expected channel to be closed")
	}
	cancel()
}
