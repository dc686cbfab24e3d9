// Package iocache persists computed sprint aggregates so repeated reads never hit GitHub.
package iocache

import (
	"sync"

	"github.com/huangsam/opendxi/internal/contract"
)

// SprintStoreManager hands out the process-wide sprint store.
type SprintStoreManager struct {
	sync.RWMutex // Protects the store pointer during initialization
	sprints      contract.SprintStore
}

var _ contract.StoreManager = &SprintStoreManager{} // Compile-time check

// GetSprintStore returns the sprint store.
func (mgr *SprintStoreManager) GetSprintStore() contract.SprintStore {
	mgr.RLock()
	defer mgr.RUnlock()
	return mgr.sprints
}
