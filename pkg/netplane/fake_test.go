package netplane

import (
	"context"
	"net/http"
	"testing"
)

var _ Client = (*Fake)(nil)

func TestFakeNetworkLifecycle(t *testing.T) {
	ctx := context.Background()
	fake := NewFake()

	id, err := fake.CreateNetwork(ctx, Payload{"name": "net-a", "admin_state_up": true})
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}
	if id == "" {
		t.Fatal("create returned empty network ID")
	}

	snap, err := fake.ShowNetwork(ctx, id)
	if err != nil {
		t.Fatalf("show failed: %v", err)
	}
	if snap.ID() != id {
		t.Errorf("snapshot id = %q, want %q", snap.ID(), id)
	}
	if snap.Status() != "ACTIVE" {
		t.Errorf("default status = %q, want ACTIVE", snap.Status())
	}
	if snap["name"] != "net-a" {
		t.Errorf("snapshot name = %v, want net-a", snap["name"])
	}

	if err := fake.UpdateNetwork(ctx, id, Payload{"name": "net-b"}); err != nil {
		t.Fatalf("update failed: %v", err)
	}
	snap, err = fake.ShowNetwork(ctx, id)
	if err != nil {
		t.Fatalf("show after update failed: %v", err)
	}
	if snap["name"] != "net-b" {
		t.Errorf("updated name = %v, want net-b", snap["name"])
	}

	if err := fake.DeleteNetwork(ctx, id); err != nil {
		t.Fatalf("delete failed: %v", err)
	}
	if _, err := fake.ShowNetwork(ctx, id); !IsStatus(err, http.StatusNotFound) {
		t.Fatalf("show after delete = %v, want 404", err)
	}
	if err := fake.DeleteNetwork(ctx, id); !IsStatus(err, http.StatusNotFound) {
		t.Fatalf("second delete = %v, want 404", err)
	}
}

func TestFakeStatusQueue(t *testing.T) {
	ctx := context.Background()
	fake := NewFake()

	id, err := fake.CreateNetwork(ctx, Payload{"name": "building"})
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}
	fake.SetStatuses(id, "BUILD", "ACTIVE")

	for i, want := range []string{"BUILD", "ACTIVE", "ACTIVE"} {
		snap, err := fake.ShowNetwork(ctx, id)
		if err != nil {
			t.Fatalf("show %d failed: %v", i, err)
		}
		if snap.Status() != want {
			t.Errorf("show %d status = %q, want %q", i, snap.Status(), want)
		}
	}
}

func TestFakeAgentScheduling(t *testing.T) {
	ctx := context.Background()
	fake := NewFake()

	id, err := fake.CreateNetwork(ctx, Payload{"name": "net"})
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}

	if err := fake.AddNetworkToAgent(ctx, "agent-1", id); err != nil {
		t.Fatalf("add failed: %v", err)
	}
	if err := fake.AddNetworkToAgent(ctx, "agent-1", id); !IsStatus(err, http.StatusConflict) {
		t.Fatalf("duplicate add = %v, want 409", err)
	}

	agents, err := fake.ListDHCPAgents(ctx, id)
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(agents) != 1 || agents[0] != "agent-1" {
		t.Fatalf("agents = %v, want [agent-1]", agents)
	}

	if err := fake.RemoveNetworkFromAgent(ctx, "agent-1", id); err != nil {
		t.Fatalf("remove failed: %v", err)
	}
	if err := fake.RemoveNetworkFromAgent(ctx, "agent-1", id); !IsStatus(err, http.StatusConflict) {
		t.Fatalf("remove of unscheduled agent = %v, want 409", err)
	}
}

func TestFakeFailureInjection(t *testing.T) {
	ctx := context.Background()
	fake := NewFake()

	fake.FailNext(OpCreate, http.StatusInternalServerError)
	if _, err := fake.CreateNetwork(ctx, Payload{}); !IsStatus(err, http.StatusInternalServerError) {
		t.Fatalf("injected create failure = %v, want 500", err)
	}

	// The injection is one-shot.
	if _, err := fake.CreateNetwork(ctx, Payload{}); err != nil {
		t.Fatalf("create after consumed injection failed: %v", err)
	}

	if got := fake.CallCount(OpCreate); got != 2 {
		t.Errorf("create call count = %d, want 2", got)
	}
}
