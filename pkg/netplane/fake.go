package netplane

import (
	"context"
	"net/http"
	"sort"
	"sync"

	"github.com/google/uuid"
)

// Fake is an in-memory control plane. It honors the same status-code
// behavior as a real driver (404 for missing networks, 409 for duplicate or
// missing agent associations) and records every call so tests can assert on
// exactly which remote operations were issued.
type Fake struct {
	mu sync.Mutex

	networks map[string]Payload
	statuses map[string][]string
	agents   map[string]map[string]bool

	nextFailure  map[Op]*RemoteError
	agentFailure map[agentOpKey]*RemoteError

	calls []Call
}

type agentOpKey struct {
	op      Op
	agentID string
}

// Call records a single remote call received by the fake.
type Call struct {
	// Op is the call kind.
	Op Op

	// NetworkID is the network the call addressed, if any.
	NetworkID string

	// AgentID is the DHCP agent the call addressed, if any.
	AgentID string
}

// NewFake creates an empty in-memory control plane.
func NewFake() *Fake {
	return &Fake{
		networks:     make(map[string]Payload),
		statuses:     make(map[string][]string),
		agents:       make(map[string]map[string]bool),
		nextFailure:  make(map[Op]*RemoteError),
		agentFailure: make(map[agentOpKey]*RemoteError),
	}
}

// SetStatuses queues the provisioning statuses reported by successive show
// calls for the network. The final status repeats once the queue drains.
// Networks without a queue report ACTIVE.
func (f *Fake) SetStatuses(networkID string, statuses ...string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.statuses[networkID] = append([]string(nil), statuses...)
}

// FailNext makes the next call of the given kind fail with the status code.
// The injection is consumed by the failing call.
func (f *Fake) FailNext(op Op, statusCode int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextFailure[op] = NewRemoteError(op, statusCode, "injected failure")
}

// FailAgent makes every agent call of the given kind addressing agentID fail
// with the status code until the fake is reset.
func (f *Fake) FailAgent(op Op, agentID string, statusCode int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.agentFailure[agentOpKey{op: op, agentID: agentID}] = NewRemoteError(op, statusCode, "injected agent failure")
}

// Calls returns the recorded calls of the given kind in arrival order.
func (f *Fake) Calls(op Op) []Call {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []Call
	for _, c := range f.calls {
		if c.Op == op {
			out = append(out, c)
		}
	}
	return out
}

// CallCount returns how many calls of the given kind were received.
func (f *Fake) CallCount(op Op) int {
	return len(f.Calls(op))
}

// AgentsFor returns the sorted agent identifiers hosting the network.
func (f *Fake) AgentsFor(networkID string) []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return sortedKeys(f.agents[networkID])
}

// Exists reports whether the network is present on the fake control plane.
func (f *Fake) Exists(networkID string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.networks[networkID]
	return ok
}

func (f *Fake) record(op Op, networkID, agentID string) {
	f.calls = append(f.calls, Call{Op: op, NetworkID: networkID, AgentID: agentID})
}

func (f *Fake) takeFailure(op Op) *RemoteError {
	if err, ok := f.nextFailure[op]; ok {
		delete(f.nextFailure, op)
		return err
	}
	return nil
}

// CreateNetwork implements Client.
func (f *Fake) CreateNetwork(_ context.Context, payload Payload) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.record(OpCreate, "", "")
	if err := f.takeFailure(OpCreate); err != nil {
		return "", err
	}

	id := uuid.New().String()
	stored := make(Payload, len(payload))
	for k, v := range payload {
		stored[k] = v
	}
	f.networks[id] = stored
	f.agents[id] = make(map[string]bool)
	return id, nil
}

// ShowNetwork implements Client.
func (f *Fake) ShowNetwork(_ context.Context, networkID string) (Snapshot, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.record(OpShow, networkID, "")
	if err := f.takeFailure(OpShow); err != nil {
		return nil, err
	}

	stored, ok := f.networks[networkID]
	if !ok {
		return nil, NewRemoteError(OpShow, http.StatusNotFound, "network not found")
	}

	snap := make(Snapshot, len(stored)+2)
	for k, v := range stored {
		snap[k] = v
	}
	snap["id"] = networkID
	snap["status"] = f.popStatus(networkID)
	return snap, nil
}

func (f *Fake) popStatus(networkID string) string {
	queue := f.statuses[networkID]
	switch len(queue) {
	case 0:
		return "ACTIVE"
	case 1:
		return queue[0]
	default:
		f.statuses[networkID] = queue[1:]
		return queue[0]
	}
}

// UpdateNetwork implements Client.
func (f *Fake) UpdateNetwork(_ context.Context, networkID string, payload Payload) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.record(OpUpdate, networkID, "")
	if err := f.takeFailure(OpUpdate); err != nil {
		return err
	}

	stored, ok := f.networks[networkID]
	if !ok {
		return NewRemoteError(OpUpdate, http.StatusNotFound, "network not found")
	}
	for k, v := range payload {
		stored[k] = v
	}
	return nil
}

// DeleteNetwork implements Client.
func (f *Fake) DeleteNetwork(_ context.Context, networkID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.record(OpDelete, networkID, "")
	if err := f.takeFailure(OpDelete); err != nil {
		return err
	}

	if _, ok := f.networks[networkID]; !ok {
		return NewRemoteError(OpDelete, http.StatusNotFound, "network not found")
	}
	delete(f.networks, networkID)
	delete(f.agents, networkID)
	delete(f.statuses, networkID)
	return nil
}

// ListDHCPAgents implements Client.
func (f *Fake) ListDHCPAgents(_ context.Context, networkID string) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.record(OpListAgents, networkID, "")
	if err := f.takeFailure(OpListAgents); err != nil {
		return nil, err
	}

	if _, ok := f.networks[networkID]; !ok {
		return nil, NewRemoteError(OpListAgents, http.StatusNotFound, "network not found")
	}
	return sortedKeys(f.agents[networkID]), nil
}

// AddNetworkToAgent implements Client.
func (f *Fake) AddNetworkToAgent(_ context.Context, agentID, networkID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.record(OpAddAgent, networkID, agentID)
	if err := f.agentFailure[agentOpKey{op: OpAddAgent, agentID: agentID}]; err != nil {
		return err
	}
	if err := f.takeFailure(OpAddAgent); err != nil {
		return err
	}

	hosting, ok := f.agents[networkID]
	if !ok {
		return NewRemoteError(OpAddAgent, http.StatusNotFound, "network not found")
	}
	if hosting[agentID] {
		return NewRemoteError(OpAddAgent, http.StatusConflict, "agent already hosts network")
	}
	hosting[agentID] = true
	return nil
}

// RemoveNetworkFromAgent implements Client.
func (f *Fake) RemoveNetworkFromAgent(_ context.Context, agentID, networkID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.record(OpRemoveAgent, networkID, agentID)
	if err := f.agentFailure[agentOpKey{op: OpRemoveAgent, agentID: agentID}]; err != nil {
		return err
	}
	if err := f.takeFailure(OpRemoveAgent); err != nil {
		return err
	}

	hosting, ok := f.agents[networkID]
	if !ok {
		return NewRemoteError(OpRemoveAgent, http.StatusNotFound, "network not found")
	}
	if !hosting[agentID] {
		return NewRemoteError(OpRemoveAgent, http.StatusConflict, "network not scheduled on agent")
	}
	delete(hosting, agentID)
	return nil
}

func sortedKeys(set map[string]bool) []string {
	keys := make([]string, 0, len(set))
	for k := range set {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
