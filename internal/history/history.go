// Package history records report runs in a SQL store.
package history

import (
	"sync"

	"github.com/huangsam/shiptalkers/internal/contract"
)

// HistoryStoreManager manages the run-history store.
type HistoryStoreManager struct {
	sync.RWMutex // Protects the store pointer during initialization
	runs         contract.HistoryStore
}

var _ contract.HistoryManager = &HistoryStoreManager{} // Compile-time check

// GetHistoryStore returns the run-history store.
func (mgr *HistoryStoreManager) GetHistoryStore() contract.HistoryStore {
	mgr.RLock()
	defer mgr.RUnlock()
	return mgr.runs
}
