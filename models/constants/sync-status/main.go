package syncStatus

import (
	"gohan/storage/models/constants"
)

// Column written on every loaded row to signal whether the
// secondary search partitions hold an up to date copy of it.
const COLUMN = "_ss"

const (
	Unknown      constants.SyncStatus = "unknown"
	Synchronized constants.SyncStatus = "synchronized"
	NotSynced    constants.SyncStatus = "not_synchronized"
)
