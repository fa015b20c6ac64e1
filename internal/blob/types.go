// Package blob re-exports the artifact store abstractions and selects a
// driver from configuration. Callers depend on blob.Store, never on the
// infra packages directly.
package blob

import (
	"clusterprep/internal/blob/core"
)

type (
	// Driver identifies a storage backend driver.
	Driver = core.Driver
	// PutOptions configures an artifact write.
	PutOptions = core.PutOptions
	// Info describes stored artifact metadata.
	Info = core.Info
	// Store is the interface for artifact storage backends.
	Store = core.Store
)

const (
	// DriverFilesystem is the local filesystem driver.
	DriverFilesystem = core.DriverFilesystem
	// DriverS3 is the S3-compatible driver.
	DriverS3 = core.DriverS3
	// DriverMemory is the in-memory driver.
	DriverMemory = core.DriverMemory
)

// ErrNotFound indicates a missing artifact key.
var ErrNotFound = core.ErrNotFound
