package stores

import (
	"context"
	"testing"
	"time"
)

// setupTestStore creates an in-memory SQLite store for testing
func setupTestStore(t *testing.T) *SQLiteStore {
	t.Helper()

	store, err := NewSQLiteStore(Config{
		Path: ":memory:",
	})
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}

	ctx := context.Background()
	if err := store.Init(ctx); err != nil {
		t.Fatalf("failed to initialize store: %v", err)
	}

	if err := store.Migrate(ctx); err != nil {
		t.Fatalf("failed to migrate store: %v", err)
	}

	return store
}

func TestStoreLifecycle(t *testing.T) {
	store, err := NewSQLiteStore(Config{
		Path: ":memory:",
	})
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}

	ctx := context.Background()
	if err := store.Init(ctx); err != nil {
		t.Fatalf("failed to initialize store: %v", err)
	}

	if err := store.HealthCheck(ctx); err != nil {
		t.Fatalf("health check failed: %v", err)
	}

	if err := store.Close(); err != nil {
		t.Fatalf("failed to close store: %v", err)
	}
}

func TestStoreMigrations(t *testing.T) {
	store := setupTestStore(t)
	defer store.Close()

	ctx := context.Background()

	tables := []string{"networks", "transitions"}
	for _, table := range tables {
		query := "SELECT COUNT(*) FROM " + table
		var count int
		err := store.db.QueryRowContext(ctx, query).Scan(&count)
		if err != nil {
			t.Errorf("table %s does not exist or is not accessible: %v", table, err)
		}
	}
}

func TestNetworkCRUD(t *testing.T) {
	store := setupTestStore(t)
	defer store.Close()

	ctx := context.Background()

	record := NewNetworkRecord("frontend", `{"name":"frontend","admin_state_up":true}`, "absent")
	if err := store.UpsertNetwork(ctx, record); err != nil {
		t.Fatalf("failed to upsert network: %v", err)
	}

	retrieved, err := store.GetNetwork(ctx, "frontend")
	if err != nil {
		t.Fatalf("failed to get network: %v", err)
	}
	if retrieved.ID != record.ID {
		t.Errorf("expected ID %s, got %s", record.ID, retrieved.ID)
	}
	if retrieved.Phase != "absent" {
		t.Errorf("expected phase absent, got %s", retrieved.Phase)
	}
	if retrieved.Handle != nil {
		t.Errorf("expected no handle, got %v", *retrieved.Handle)
	}

	byID, err := store.GetNetworkByID(ctx, record.ID)
	if err != nil {
		t.Fatalf("failed to get network by ID: %v", err)
	}
	if byID.Name != "frontend" {
		t.Errorf("expected name frontend, got %s", byID.Name)
	}

	// Upsert again with a handle and a new phase
	handle := "net-42"
	applied := `{"name":"frontend"}`
	record.Handle = &handle
	record.Phase = "creating"
	record.LastApplied = &applied
	if err := store.UpsertNetwork(ctx, record); err != nil {
		t.Fatalf("failed to upsert network (update): %v", err)
	}

	updated, err := store.GetNetwork(ctx, "frontend")
	if err != nil {
		t.Fatalf("failed to get updated network: %v", err)
	}
	if updated.Handle == nil || *updated.Handle != handle {
		t.Errorf("expected handle %s, got %v", handle, updated.Handle)
	}
	if updated.Phase != "creating" {
		t.Errorf("expected phase creating, got %s", updated.Phase)
	}
	if updated.LastApplied == nil || *updated.LastApplied != applied {
		t.Errorf("expected last applied %s, got %v", applied, updated.LastApplied)
	}

	records, err := store.ListNetworks(ctx, 10, 0)
	if err != nil {
		t.Fatalf("failed to list networks: %v", err)
	}
	if len(records) != 1 {
		t.Errorf("expected 1 network, got %d", len(records))
	}

	if err := store.DeleteNetwork(ctx, record.ID); err != nil {
		t.Fatalf("failed to delete network: %v", err)
	}

	_, err = store.GetNetwork(ctx, "frontend")
	if err == nil {
		t.Error("expected error when getting deleted network")
	}
}

func TestUpsertKeepsOneRowPerName(t *testing.T) {
	store := setupTestStore(t)
	defer store.Close()

	ctx := context.Background()

	first := NewNetworkRecord("backend", `{}`, "absent")
	if err := store.UpsertNetwork(ctx, first); err != nil {
		t.Fatalf("failed to upsert network: %v", err)
	}
	first.Phase = "active"
	if err := store.UpsertNetwork(ctx, first); err != nil {
		t.Fatalf("failed to upsert network again: %v", err)
	}

	records, err := store.ListNetworks(ctx, 10, 0)
	if err != nil {
		t.Fatalf("failed to list networks: %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("expected 1 network after repeated upsert, got %d", len(records))
	}
	if records[0].Phase != "active" {
		t.Errorf("expected phase active, got %s", records[0].Phase)
	}
}

func TestTransitionLog(t *testing.T) {
	store := setupTestStore(t)
	defer store.Close()

	ctx := context.Background()
	now := time.Now().UTC()

	record := NewNetworkRecord("frontend", `{}`, "absent")
	if err := store.UpsertNetwork(ctx, record); err != nil {
		t.Fatalf("failed to upsert network: %v", err)
	}

	events := []*TransitionEvent{
		{
			NetworkID: record.ID,
			FromPhase: "absent",
			ToPhase:   "creating",
			Operation: "create",
			Timestamp: now,
		},
		{
			NetworkID: record.ID,
			FromPhase: "creating",
			ToPhase:   "active",
			Operation: "poll",
			Timestamp: now.Add(1 * time.Second),
		},
	}

	for _, event := range events {
		if err := store.AppendTransition(ctx, event); err != nil {
			t.Fatalf("failed to append transition: %v", err)
		}
		if event.ID == 0 {
			t.Error("expected transition ID to be set after insert")
		}
	}

	retrieved, err := store.ListTransitions(ctx, record.ID, 10, 0)
	if err != nil {
		t.Fatalf("failed to list transitions: %v", err)
	}
	if len(retrieved) != 2 {
		t.Fatalf("expected 2 transitions, got %d", len(retrieved))
	}

	// Newest first
	if retrieved[0].ToPhase != "active" {
		t.Errorf("expected newest transition to active, got %s", retrieved[0].ToPhase)
	}
	if retrieved[1].Operation != "create" {
		t.Errorf("expected oldest transition from create, got %s", retrieved[1].Operation)
	}
}

func TestDeleteNetworkCascadesTransitions(t *testing.T) {
	store := setupTestStore(t)
	defer store.Close()

	ctx := context.Background()

	record := NewNetworkRecord("frontend", `{}`, "absent")
	if err := store.UpsertNetwork(ctx, record); err != nil {
		t.Fatalf("failed to upsert network: %v", err)
	}

	event := &TransitionEvent{
		NetworkID: record.ID,
		FromPhase: "absent",
		ToPhase:   "creating",
		Operation: "create",
		Timestamp: time.Now().UTC(),
	}
	if err := store.AppendTransition(ctx, event); err != nil {
		t.Fatalf("failed to append transition: %v", err)
	}

	if err := store.DeleteNetwork(ctx, record.ID); err != nil {
		t.Fatalf("failed to delete network: %v", err)
	}

	events, err := store.ListTransitions(ctx, record.ID, 10, 0)
	if err != nil {
		t.Fatalf("failed to list transitions: %v", err)
	}
	if len(events) != 0 {
		t.Errorf("expected 0 transitions after cascade delete, got %d", len(events))
	}
}

func TestTransactions(t *testing.T) {
	store := setupTestStore(t)
	defer store.Close()

	ctx := context.Background()
	record := NewNetworkRecord("frontend", `{}`, "absent")

	tx, err := store.BeginTx(ctx)
	if err != nil {
		t.Fatalf("failed to begin transaction: %v", err)
	}

	query := `
		INSERT INTO networks (id, name, phase, desired_config, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`
	_, err = tx.ExecContext(ctx, query, record.ID, record.Name, record.Phase, record.DesiredConfig, record.CreatedAt, record.UpdatedAt)
	if err != nil {
		store.RollbackTx(tx)
		t.Fatalf("failed to insert network in transaction: %v", err)
	}

	if err := store.RollbackTx(tx); err != nil {
		t.Fatalf("failed to rollback transaction: %v", err)
	}

	_, err = store.GetNetwork(ctx, record.Name)
	if err == nil {
		t.Error("expected error when getting rolled back network")
	}

	tx, err = store.BeginTx(ctx)
	if err != nil {
		t.Fatalf("failed to begin second transaction: %v", err)
	}

	_, err = tx.ExecContext(ctx, query, record.ID, record.Name, record.Phase, record.DesiredConfig, record.CreatedAt, record.UpdatedAt)
	if err != nil {
		store.RollbackTx(tx)
		t.Fatalf("failed to insert network in second transaction: %v", err)
	}

	if err := store.CommitTx(tx); err != nil {
		t.Fatalf("failed to commit transaction: %v", err)
	}

	retrieved, err := store.GetNetwork(ctx, record.Name)
	if err != nil {
		t.Fatalf("failed to get committed network: %v", err)
	}
	if retrieved.ID != record.ID {
		t.Errorf("expected ID %s, got %s", record.ID, retrieved.ID)
	}
}
