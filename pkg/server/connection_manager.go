package server

import (
	"context"
	"sync"
	"time"

	"athletehub-api/internal/config"
)

// idleCheckAfter is how long a container may sit unused before its database
// is pinged again on the next request.
const idleCheckAfter = 5 * time.Minute

// BuildFunc constructs a container on demand
type BuildFunc func(ctx context.Context) (*Container, error)

// ConnectionManager keeps one container alive across warm Lambda invocations
type ConnectionManager struct {
	container *Container
	lastUsed  time.Time
	build     BuildFunc
	mu        sync.Mutex
}

var (
	globalConnectionManager *ConnectionManager
	connectionManagerOnce   sync.Once
)

// GetConnectionManager returns the global connection manager instance
func GetConnectionManager() *ConnectionManager {
	connectionManagerOnce.Do(func() {
		globalConnectionManager = NewConnectionManager(buildFromEnvironment)
	})
	return globalConnectionManager
}

// NewConnectionManager creates a manager that builds containers with build
func NewConnectionManager(build BuildFunc) *ConnectionManager {
	return &ConnectionManager{build: build}
}

func buildFromEnvironment(ctx context.Context) (*Container, error) {
	cfg, err := config.GetOptimizedConfig()
	if err != nil {
		return nil, err
	}
	return NewContainer(ctx, cfg, nil)
}

// GetContainer returns the container, building it on first use. A container
// whose database stopped answering after an idle period is closed and
// rebuilt. A failed build is retried on the next call.
func (cm *ConnectionManager) GetContainer(ctx context.Context) (*Container, error) {
	cm.mu.Lock()
	defer cm.mu.Unlock()

	if cm.container != nil && !cm.healthyLocked(ctx) {
		cm.container.Logger.Warn("Container failed health check, rebuilding")
		if err := cm.closeLocked(); err != nil {
			cm.container.Logger.WithError(err).Warn("Failed to close stale container")
			cm.container = nil
		}
	}

	if cm.container == nil {
		container, err := cm.build(ctx)
		if err != nil {
			return nil, err
		}
		cm.container = container
	}
	cm.lastUsed = time.Now()
	return cm.container, nil
}

// Set installs a prebuilt container
func (cm *ConnectionManager) Set(container *Container) {
	cm.mu.Lock()
	defer cm.mu.Unlock()
	cm.container = container
	cm.lastUsed = time.Now()
}

// healthyLocked reports whether a container exists and its database answers.
// Recently used containers are trusted without a round trip.
func (cm *ConnectionManager) healthyLocked(ctx context.Context) bool {
	if cm.container == nil {
		return false
	}
	if time.Since(cm.lastUsed) < idleCheckAfter {
		return true
	}
	db := cm.container.Database()
	return db != nil && db.HealthCheck(ctx) == nil
}

// Cleanup closes the container
func (cm *ConnectionManager) Cleanup() error {
	cm.mu.Lock()
	defer cm.mu.Unlock()
	return cm.closeLocked()
}

func (cm *ConnectionManager) closeLocked() error {
	if cm.container == nil {
		return nil
	}
	err := cm.container.Close()
	if err == nil {
		cm.container = nil
	}
	return err
}
