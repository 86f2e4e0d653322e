package syncservice

import "errors"

// UpdateRequest is one batched sync update from a single client:
// an ordered tracker list plus a {date -> {trackerId -> entry}} map.
type UpdateRequest struct {
	ClientID     string                               `json:"clientId"`
	Config       []map[string]any                     `json:"config"`
	Days         map[string]map[string]map[string]any `json:"days"`
	LastSyncTime *string                              `json:"lastSyncTime,omitempty"`
}

// ConflictDescriptor reports one entity whose write was rejected, with
// the server's current payload so the client can merge or resolve.
type ConflictDescriptor struct {
	EntityType        string         `json:"entityType"`
	EntityID          string         `json:"entityId"`
	ServerVersion     int            `json:"serverVersion"`
	ClientBaseVersion int            `json:"clientBaseVersion"`
	ServerData        map[string]any `json:"serverData"`
}

// UpdateResult is the outcome of a batched update. Success means no
// entity conflicted; the applied fields carry the post-state of
// accepted writes only. OverwrittenData is always empty; clients of
// the original wire format expect the field.
type UpdateResult struct {
	Success         bool                                 `json:"success"`
	Conflicts       []ConflictDescriptor                 `json:"conflicts"`
	AppliedConfig   []map[string]any                     `json:"appliedConfig"`
	AppliedDays     map[string]map[string]map[string]any `json:"appliedDays"`
	OverwrittenData []map[string]any                     `json:"overwrittenData"`
	LastModified    *string                              `json:"lastModified"`
}

// Snapshot is a full sync response.
type Snapshot struct {
	Config     []map[string]any                     `json:"config"`
	Days       map[string]map[string]map[string]any `json:"days"`
	ServerTime string                               `json:"serverTime"`
}

// Delta is an incremental sync response.
type Delta struct {
	Config          []map[string]any                     `json:"config"`
	Days            map[string]map[string]map[string]any `json:"days"`
	DeletedTrackers []string                             `json:"deletedTrackers"`
	ServerTime      string                               `json:"serverTime"`
}

// ResolveRequest forces a chosen side of a conflict to win.
// For entries, EntityID is "YYYY-MM-DD|trackerId".
type ResolveRequest struct {
	EntityType string
	EntityID   string
	Resolution string
	ClientID   string
	Payload    map[string]any
}

// Resolution values accepted by Resolve.
const (
	ResolutionClient = "client"
	ResolutionServer = "server"
)

// ValidationError indicates a malformed request; transports map it to
// a 422 response.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// ErrEntityNotFound is returned by Resolve when the referenced entity
// does not exist.
var ErrEntityNotFound = errors.New("entity not found")
