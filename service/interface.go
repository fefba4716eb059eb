package service

import "context"

// Service defines the lifecycle interface for infrastructure subsystems
// Services manage long-lived resources: audio device, score database, metrics endpoint, config watcher
//
// Lifecycle:
//  1. Construction (via factory)
//  2. Init() - acquire resources; recoverable failures degrade the service instead of erroring
//  3. Start(ctx) - launch background goroutines, bound to ctx
//  4. [runtime operation]
//  5. Stop() - halt goroutines, release resources
type Service interface {
	// Name returns the unique identifier for this service
	Name() string

	// Dependencies returns names of services that must Init before this one
	// Return nil or empty slice if no dependencies
	Dependencies() []string

	// Init acquires the service's resources
	Init() error

	// Start begins service operation (launches goroutines if any)
	// Called after all services have initialized
	Start(ctx context.Context) error

	// Stop halts service operation and releases resources
	// Must be idempotent - safe to call multiple times
	Stop() error
}
