// Package lifecycle stops the assistant's components in a controlled order.
package lifecycle

import "context"

// Hook describes a named shutdown hook.
type Hook struct {
	Name string
	Fn   func(ctx context.Context) error
}

// Stage groups hooks that may stop concurrently. Stages run in ascending
// order: intake first (transports), then workers, then stores.
type Stage int

const (
	StageIntake Stage = iota
	StageWorkers
	StageStores
)
