package syncx

// Decision is the per-entity outcome of conflict detection.
type Decision int

const (
	// DecisionInsert applies the write as a new record at version 1.
	DecisionInsert Decision = iota
	// DecisionUpdate applies the write at base version + 1.
	DecisionUpdate
	// DecisionResurrect clears a tombstone; the new version is
	// max(server version, base version) + 1.
	DecisionResurrect
	// DecisionNoop accepts a delete of an already-deleted record without
	// writing anything.
	DecisionNoop
	// DecisionConflict rejects the write; the server record wins.
	DecisionConflict
)

// Detect implements the per-entity compare-and-set decision. exists,
// serverVersion and serverDeleted describe the current server record;
// baseVersion and incomingDelete describe the incoming write. The returned
// version is the one the applied record must carry; it is meaningful for
// every decision except DecisionConflict.
//
// Tombstones are checked before version equality: any non-delete write over
// a deleted record resurrects it regardless of base version, and a delete
// of a deleted record is an idempotent no-op.
func Detect(exists bool, serverVersion int, serverDeleted bool, baseVersion int, incomingDelete bool) (Decision, int) {
	if !exists {
		return DecisionInsert, 1
	}
	if serverDeleted {
		if incomingDelete {
			return DecisionNoop, serverVersion
		}
		next := serverVersion
		if baseVersion > next {
			next = baseVersion
		}
		return DecisionResurrect, next + 1
	}
	if serverVersion == baseVersion {
		return DecisionUpdate, baseVersion + 1
	}
	// Covers both a stale base (server moved ahead) and a base claiming a
	// version the server never issued.
	return DecisionConflict, 0
}
