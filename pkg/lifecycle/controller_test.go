package lifecycle

import (
	"context"
	"errors"
	"net/http"
	"reflect"
	"testing"

	"github.com/openvnet/openvnet/pkg/descriptor"
	"github.com/openvnet/openvnet/pkg/netplane"
)

func newTestController(fake *netplane.Fake) *Controller {
	return NewController("stack-net", fake, descriptor.Network(), Options{})
}

func mustCreate(t *testing.T, ctrl *Controller, cfg descriptor.Config) {
	t.Helper()
	if err := ctrl.Create(context.Background(), cfg); err != nil {
		t.Fatalf("create failed: %v", err)
	}
}

func mustBecomeActive(t *testing.T, ctrl *Controller) {
	t.Helper()
	built, err := ctrl.PollCreateComplete(context.Background())
	if err != nil {
		t.Fatalf("poll failed: %v", err)
	}
	if !built {
		t.Fatal("network not built on first poll")
	}
}

func TestCreateAssignsHandleAndSchedulesAgents(t *testing.T) {
	fake := netplane.NewFake()
	ctrl := newTestController(fake)

	mustCreate(t, ctrl, descriptor.Config{
		"name":           "frontend",
		"dhcp_agent_ids": []interface{}{"agent-1", "agent-2"},
	})

	if ctrl.Handle() == "" {
		t.Fatal("handle not assigned after create")
	}
	if ctrl.Phase() != PhaseCreating {
		t.Errorf("phase = %s, want %s", ctrl.Phase(), PhaseCreating)
	}
	if got := fake.AgentsFor(ctrl.Handle()); !reflect.DeepEqual(got, []string{"agent-1", "agent-2"}) {
		t.Errorf("agents = %v, want [agent-1 agent-2]", got)
	}
}

func TestCreateWithoutAgentsListsNothing(t *testing.T) {
	fake := netplane.NewFake()
	ctrl := newTestController(fake)

	mustCreate(t, ctrl, descriptor.Config{"name": "frontend"})

	if n := fake.CallCount(netplane.OpListAgents); n != 0 {
		t.Errorf("list-agents called %d times for a config without the scheduling field", n)
	}
}

func TestCreateRejectionEntersErrorWithoutHandle(t *testing.T) {
	fake := netplane.NewFake()
	fake.FailNext(netplane.OpCreate, http.StatusInternalServerError)
	ctrl := newTestController(fake)

	err := ctrl.Create(context.Background(), descriptor.Config{})
	if err == nil {
		t.Fatal("expected create to fail")
	}
	if !IsSubmission(err) {
		t.Errorf("error not classified as submission: %v", err)
	}
	if !netplane.IsStatus(err, http.StatusInternalServerError) {
		t.Errorf("original status code lost: %v", err)
	}
	if ctrl.Handle() != "" {
		t.Error("handle assigned despite rejected create")
	}
	if ctrl.Phase() != PhaseError {
		t.Errorf("phase = %s, want %s", ctrl.Phase(), PhaseError)
	}
}

func TestCreateAgentFailureLeavesCreating(t *testing.T) {
	fake := netplane.NewFake()
	fake.FailAgent(netplane.OpAddAgent, "agent-1", http.StatusInternalServerError)
	ctrl := newTestController(fake)

	err := ctrl.Create(context.Background(), descriptor.Config{
		"dhcp_agent_ids": []interface{}{"agent-1"},
	})
	if err == nil {
		t.Fatal("expected agent scheduling failure to surface")
	}
	if !netplane.IsStatus(err, http.StatusInternalServerError) {
		t.Errorf("original status code lost: %v", err)
	}

	// The creation itself is not rolled back.
	if ctrl.Handle() == "" {
		t.Error("handle lost after agent failure")
	}
	if ctrl.Phase() != PhaseCreating {
		t.Errorf("phase = %s, want %s", ctrl.Phase(), PhaseCreating)
	}
}

func TestPollCreateCompleteBuildThenActive(t *testing.T) {
	fake := netplane.NewFake()
	ctrl := newTestController(fake)
	mustCreate(t, ctrl, descriptor.Config{})
	fake.SetStatuses(ctrl.Handle(), "BUILD", "ACTIVE")

	built, err := ctrl.PollCreateComplete(context.Background())
	if err != nil {
		t.Fatalf("first poll failed: %v", err)
	}
	if built {
		t.Fatal("network reported built while still provisioning")
	}
	if ctrl.Phase() != PhaseCreating {
		t.Errorf("phase = %s, want %s", ctrl.Phase(), PhaseCreating)
	}

	built, err = ctrl.PollCreateComplete(context.Background())
	if err != nil {
		t.Fatalf("second poll failed: %v", err)
	}
	if !built {
		t.Fatal("network not built on second poll")
	}
	if ctrl.Phase() != PhaseActive {
		t.Errorf("phase = %s, want %s", ctrl.Phase(), PhaseActive)
	}
	if n := fake.CallCount(netplane.OpShow); n != 2 {
		t.Errorf("show called %d times, want 2", n)
	}
}

func TestPollCreateCompleteErrorStatus(t *testing.T) {
	fake := netplane.NewFake()
	ctrl := newTestController(fake)
	mustCreate(t, ctrl, descriptor.Config{})
	fake.SetStatuses(ctrl.Handle(), "ERROR")

	if _, err := ctrl.PollCreateComplete(context.Background()); err == nil {
		t.Fatal("expected ERROR status to fail the poll")
	}
	if ctrl.Phase() != PhaseError {
		t.Errorf("phase = %s, want %s", ctrl.Phase(), PhaseError)
	}
}

func TestUpdateAssociationOnlyIssuesNoNetworkUpdate(t *testing.T) {
	fake := netplane.NewFake()
	ctrl := newTestController(fake)
	mustCreate(t, ctrl, descriptor.Config{
		"dhcp_agent_ids": []interface{}{"agent-b", "agent-c"},
	})
	mustBecomeActive(t, ctrl)

	err := ctrl.Update(context.Background(), descriptor.Config{
		"dhcp_agent_ids": []interface{}{"agent-a", "agent-b"},
	})
	if err != nil {
		t.Fatalf("update failed: %v", err)
	}

	if n := fake.CallCount(netplane.OpUpdate); n != 0 {
		t.Errorf("association-only update issued %d network updates", n)
	}
	if ctrl.Phase() != PhaseActive {
		t.Errorf("phase = %s, want %s (no remote update was issued)", ctrl.Phase(), PhaseActive)
	}
	if got := fake.AgentsFor(ctrl.Handle()); !reflect.DeepEqual(got, []string{"agent-a", "agent-b"}) {
		t.Errorf("agents = %v, want [agent-a agent-b]", got)
	}

	// Exactly one add and one remove: agent-b was already in place.
	adds := fake.Calls(netplane.OpAddAgent)
	removes := fake.Calls(netplane.OpRemoveAgent)
	if len(adds) != 3 { // two from create, one from update
		t.Errorf("add calls = %d, want 3", len(adds))
	}
	if adds[2].AgentID != "agent-a" {
		t.Errorf("update added %s, want agent-a", adds[2].AgentID)
	}
	if len(removes) != 1 || removes[0].AgentID != "agent-c" {
		t.Errorf("removes = %v, want exactly one for agent-c", removes)
	}
}

func TestUpdateExplicitEmptyAgentsRemovesAll(t *testing.T) {
	fake := netplane.NewFake()
	ctrl := newTestController(fake)
	mustCreate(t, ctrl, descriptor.Config{
		"dhcp_agent_ids": []interface{}{"agent-1", "agent-2"},
	})
	mustBecomeActive(t, ctrl)

	err := ctrl.Update(context.Background(), descriptor.Config{
		"dhcp_agent_ids": []interface{}{},
	})
	if err != nil {
		t.Fatalf("update failed: %v", err)
	}
	if got := fake.AgentsFor(ctrl.Handle()); len(got) != 0 {
		t.Errorf("agents = %v, want none after explicit empty list", got)
	}
}

func TestUpdateWithPayloadTransitionsToUpdating(t *testing.T) {
	fake := netplane.NewFake()
	ctrl := newTestController(fake)
	mustCreate(t, ctrl, descriptor.Config{})
	mustBecomeActive(t, ctrl)

	err := ctrl.Update(context.Background(), descriptor.Config{"name": "renamed"})
	if err != nil {
		t.Fatalf("update failed: %v", err)
	}
	if ctrl.Phase() != PhaseUpdating {
		t.Errorf("phase = %s, want %s", ctrl.Phase(), PhaseUpdating)
	}
	if n := fake.CallCount(netplane.OpUpdate); n != 1 {
		t.Errorf("update called %d times, want 1", n)
	}

	built, err := ctrl.PollUpdateComplete(context.Background())
	if err != nil || !built {
		t.Fatalf("poll after update: built=%v err=%v", built, err)
	}
	if ctrl.Phase() != PhaseActive {
		t.Errorf("phase = %s, want %s", ctrl.Phase(), PhaseActive)
	}
}

func TestUpdateRejectionLeavesActive(t *testing.T) {
	fake := netplane.NewFake()
	ctrl := newTestController(fake)
	mustCreate(t, ctrl, descriptor.Config{"name": "before"})
	mustBecomeActive(t, ctrl)

	fake.FailNext(netplane.OpUpdate, http.StatusUnprocessableEntity)
	err := ctrl.Update(context.Background(), descriptor.Config{"name": "after"})
	if err == nil {
		t.Fatal("expected update rejection to surface")
	}
	if !IsSubmission(err) {
		t.Errorf("error not classified as submission: %v", err)
	}
	if ctrl.Phase() != PhaseActive {
		t.Errorf("phase = %s, want %s (previous configuration stays in force)", ctrl.Phase(), PhaseActive)
	}
	if got := ctrl.Applied()["name"]; got != "before" {
		t.Errorf("applied name = %v, want before", got)
	}
}

func TestDeleteIsIdempotentOnMissingNetwork(t *testing.T) {
	fake := netplane.NewFake()
	ctrl := newTestController(fake)
	mustCreate(t, ctrl, descriptor.Config{})
	mustBecomeActive(t, ctrl)

	// The network vanishes behind the controller's back.
	if err := fake.DeleteNetwork(context.Background(), ctrl.Handle()); err != nil {
		t.Fatalf("out-of-band delete failed: %v", err)
	}

	if err := ctrl.Delete(context.Background()); err != nil {
		t.Fatalf("delete of missing network failed: %v", err)
	}
	if ctrl.Phase() != PhaseAbsent {
		t.Errorf("phase = %s, want %s", ctrl.Phase(), PhaseAbsent)
	}
	if ctrl.Handle() != "" {
		t.Error("handle not cleared after delete")
	}
}

func TestDeleteRejectionEntersError(t *testing.T) {
	fake := netplane.NewFake()
	ctrl := newTestController(fake)
	mustCreate(t, ctrl, descriptor.Config{})
	mustBecomeActive(t, ctrl)

	fake.FailNext(netplane.OpDelete, http.StatusConflict)
	err := ctrl.Delete(context.Background())
	if err == nil {
		t.Fatal("expected delete rejection to surface")
	}
	if !netplane.IsStatus(err, http.StatusConflict) {
		t.Errorf("original status code lost: %v", err)
	}
	if ctrl.Phase() != PhaseError {
		t.Errorf("phase = %s, want %s", ctrl.Phase(), PhaseError)
	}
}

func TestAttributeLookup(t *testing.T) {
	fake := netplane.NewFake()
	ctrl := newTestController(fake)
	mustCreate(t, ctrl, descriptor.Config{"name": "frontend"})
	mustBecomeActive(t, ctrl)

	status, err := ctrl.Attribute(descriptor.AttrStatus)
	if err != nil {
		t.Fatalf("status attribute: %v", err)
	}
	if status != "ACTIVE" {
		t.Errorf("status = %v, want ACTIVE", status)
	}

	show, err := ctrl.Attribute(descriptor.AttrShow)
	if err != nil {
		t.Fatalf("show attribute: %v", err)
	}
	snap, ok := show.(map[string]interface{})
	if !ok || snap["name"] != "frontend" {
		t.Errorf("show attribute = %v, want full snapshot with name", show)
	}

	if _, err := ctrl.Attribute("mtu"); err == nil {
		t.Error("undeclared attribute resolved without error")
	}
}

func TestDefaultIsBuilt(t *testing.T) {
	tests := []struct {
		status  string
		built   bool
		wantErr bool
	}{
		{"ACTIVE", true, false},
		{"DOWN", true, false},
		{"", true, false},
		{"BUILD", false, false},
		{"ERROR", false, true},
		{"PENDING_WHATEVER", false, true},
	}

	for _, tt := range tests {
		snap := netplane.Snapshot{}
		if tt.status != "" {
			snap["status"] = tt.status
		}
		built, err := DefaultIsBuilt(snap)
		if (err != nil) != tt.wantErr {
			t.Errorf("status %q: err = %v, wantErr %v", tt.status, err, tt.wantErr)
		}
		if built != tt.built {
			t.Errorf("status %q: built = %v, want %v", tt.status, built, tt.built)
		}
	}
}

func TestRestoreResumesLifecycle(t *testing.T) {
	fake := netplane.NewFake()
	ctrl := newTestController(fake)
	mustCreate(t, ctrl, descriptor.Config{"name": "frontend"})
	mustBecomeActive(t, ctrl)
	handle := ctrl.Handle()

	// A fresh controller, as a new process would build it.
	resumed := newTestController(fake)
	if err := resumed.Restore(PhaseActive, handle, ctrl.Applied()); err != nil {
		t.Fatalf("restore failed: %v", err)
	}
	if resumed.Phase() != PhaseActive || resumed.Handle() != handle {
		t.Errorf("restored phase=%s handle=%s", resumed.Phase(), resumed.Handle())
	}

	if err := resumed.Delete(context.Background()); err != nil {
		t.Fatalf("delete after restore failed: %v", err)
	}
	if fake.Exists(handle) {
		t.Error("network still present after delete")
	}
}

func TestRestoreRejectsTransitionalPhaseWithoutHandle(t *testing.T) {
	ctrl := newTestController(netplane.NewFake())
	if err := ctrl.Restore(PhaseCreating, "", nil); err == nil {
		t.Fatal("expected restore without a handle to be rejected")
	}
	if err := ctrl.Restore("dormant", "net-1", nil); err == nil {
		t.Fatal("expected restore with an invalid phase to be rejected")
	}
}

func TestErrorPredicates(t *testing.T) {
	sub := NewSubmissionError(netplane.OpCreate, "rejected", netplane.NewRemoteError(netplane.OpCreate, 500, "boom"))
	if !IsSubmission(sub) || IsTimeout(sub) || IsUnclassified(sub) {
		t.Errorf("submission error misclassified: %v", sub)
	}

	timeout := NewTimeoutError("deadline elapsed", context.DeadlineExceeded)
	if !IsTimeout(timeout) {
		t.Errorf("timeout error misclassified: %v", timeout)
	}
	if !errors.Is(timeout, context.DeadlineExceeded) {
		t.Error("wrapped cause not reachable through the chain")
	}

	if IsSubmission(errors.New("plain")) || IsTimeout(nil) {
		t.Error("plain errors classified as lifecycle errors")
	}
}
