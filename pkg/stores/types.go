package stores

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
)

// ErrNotFound is wrapped by lookups that matched no row.
var ErrNotFound = errors.New("not found")

// NetworkRecord represents a managed network as persisted by the controller.
type NetworkRecord struct {
	ID            string     `json:"id"`
	Name          string     `json:"name"`
	Handle        *string    `json:"handle,omitempty"`
	Phase         string     `json:"phase"`
	DesiredConfig string     `json:"desired_config"`          // JSON blob
	LastApplied   *string    `json:"last_applied,omitempty"`  // JSON blob
	LastObserved  *string    `json:"last_observed,omitempty"` // JSON blob
	LastError     *string    `json:"last_error,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
}

// NewNetworkRecord builds a record for a network that has not been
// submitted to the control plane yet.
func NewNetworkRecord(name, desiredConfig, phase string) *NetworkRecord {
	now := time.Now().UTC()
	return &NetworkRecord{
		ID:            uuid.NewString(),
		Name:          name,
		Phase:         phase,
		DesiredConfig: desiredConfig,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
}

// TransitionEvent records one phase change of a managed network.
type TransitionEvent struct {
	ID        int64     `json:"id"`
	NetworkID string    `json:"network_id"`
	FromPhase string    `json:"from_phase"`
	ToPhase   string    `json:"to_phase"`
	Operation string    `json:"operation"` // create, update, delete, poll
	Error     *string   `json:"error,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// Store defines the interface for the persistence layer
type Store interface {
	// Lifecycle
	Init(ctx context.Context) error
	Close() error
	Migrate(ctx context.Context) error

	// Transaction support
	BeginTx(ctx context.Context) (*sql.Tx, error)
	CommitTx(tx *sql.Tx) error
	RollbackTx(tx *sql.Tx) error

	// Network operations
	UpsertNetwork(ctx context.Context, record *NetworkRecord) error
	GetNetwork(ctx context.Context, name string) (*NetworkRecord, error)
	GetNetworkByID(ctx context.Context, id string) (*NetworkRecord, error)
	ListNetworks(ctx context.Context, limit, offset int) ([]*NetworkRecord, error)
	DeleteNetwork(ctx context.Context, id string) error

	// Transition history
	AppendTransition(ctx context.Context, event *TransitionEvent) error
	ListTransitions(ctx context.Context, networkID string, limit, offset int) ([]*TransitionEvent, error)

	// Utility
	HealthCheck(ctx context.Context) error
}
