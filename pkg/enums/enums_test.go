package enums

import "testing"

func TestParseOrderStatus(t *testing.T) {
	status, err := ParseOrderStatus("preparing")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if status != OrderStatusPreparing {
		t.Fatalf("unexpected status %q", status)
	}
	if _, err := ParseOrderStatus("lost"); err == nil {
		t.Fatal("expected error for unknown status")
	}
	if !OrderStatusCancelled.IsTerminal() || OrderStatusReady.IsTerminal() {
		t.Fatal("unexpected terminal classification")
	}
}

func TestMovementTypeManual(t *testing.T) {
	for _, m := range []MovementType{MovementTypeIn, MovementTypeOut, MovementTypeAdjustment} {
		if !m.IsManual() {
			t.Fatalf("expected %q to be manual", m)
		}
	}
	for _, m := range []MovementType{MovementTypeReserved, MovementTypeReleased} {
		if m.IsManual() {
			t.Fatalf("expected %q to be engine-only", m)
		}
		if !m.IsValid() {
			t.Fatalf("expected %q to be valid", m)
		}
	}
}

func TestBackorderStatusOpen(t *testing.T) {
	if !BackorderStatusPending.IsOpen() || !BackorderStatusOrdered.IsOpen() {
		t.Fatal("expected pending and ordered to be open")
	}
	if BackorderStatusFulfilled.IsOpen() || BackorderStatusCancelled.IsOpen() {
		t.Fatal("expected fulfilled and cancelled to be closed")
	}
	if _, err := ParseBackorderPriority("critical"); err == nil {
		t.Fatal("expected error for unknown priority")
	}
}

func TestNotificationTypeForAlert(t *testing.T) {
	if NotificationTypeForAlert(RuleTriggerLowStock) != NotificationTypeLowStock {
		t.Fatal("expected low stock notification type")
	}
}
