package models

// SyncState is the per-record synchronization state. The only transitions
// are Unsynced→Synced (push accepted, see AccountRecord.MarkSynced) and
// Synced→Unsynced (local edit, see AccountRecord.MarkDirty).
type SyncState int

const (
	Unsynced SyncState = iota
	Synced
)

func (s SyncState) String() string {
	if s == Synced {
		return "synced"
	}
	return "unsynced"
}

// Bool is the column value stored in the accounts table.
func (s SyncState) Bool() bool {
	return s == Synced
}

func SyncStateFromBool(b bool) SyncState {
	if b {
		return Synced
	}
	return Unsynced
}
