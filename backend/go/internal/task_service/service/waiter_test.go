package service

import (
	"errors"
	"testing"

	"Hokage/backend/go/internal/models"
)

func TestWaiterRegistrySingleWaiterPerOwner(t *testing.T) {
	r := NewWaiterRegistry()

	if _, err := r.Register(1); err != nil {
		t.Fatalf("first Register failed: %v", err)
	}
	if _, err := r.Register(1); !errors.Is(err, ErrAlreadyWaiting) {
		t.Fatalf("second Register returned %v, want ErrAlreadyWaiting", err)
	}
	// A different owner is unaffected.
	if _, err := r.Register(2); err != nil {
		t.Fatalf("Register for other owner failed: %v", err)
	}
}

func TestWaiterRegistryResolveDeliversAndRetires(t *testing.T) {
	r := NewWaiterRegistry()
	handle, err := r.Register(7)
	if err != nil {
		t.Fatalf("Register failed: %v", err)
	}

	task := &models.AgentTask{ID: "t1", OwnerID: 7}
	if !r.Resolve(7, task) {
		t.Fatal("Resolve returned false with a registered waiter")
	}
	select {
	case got := <-handle.Ready():
		if got.ID != "t1" {
			t.Fatalf("delivered task %q, want t1", got.ID)
		}
	default:
		t.Fatal("resolved task was not buffered on the handle")
	}

	// The handle is retired: a second resolve finds no waiter.
	if r.Resolve(7, task) {
		t.Fatal("Resolve succeeded twice for the same registration")
	}
	if r.Waiting(7) {
		t.Fatal("owner still marked waiting after resolve")
	}
}

func TestWaiterRegistryResolveWithoutWaiter(t *testing.T) {
	r := NewWaiterRegistry()
	if r.Resolve(3, &models.AgentTask{ID: "t1"}) {
		t.Fatal("Resolve returned true with no registered waiter")
	}
}

func TestWaiterRegistryUnregisterFreesSlot(t *testing.T) {
	r := NewWaiterRegistry()
	if _, err := r.Register(5); err != nil {
		t.Fatalf("Register failed: %v", err)
	}
	r.Unregister(5)
	if _, err := r.Register(5); err != nil {
		t.Fatalf("Register after Unregister failed: %v", err)
	}
}
