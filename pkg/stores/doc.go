// Package stores provides persistence layer implementations for OpenVNet.
// It includes SQLite-based storage with WAL mode, connection pooling,
// and CRUD operations for managed network records and their phase
// transition history.
package stores
