package events

import (
	"time"

	"github.com/google/uuid"
)

const (
	EventTypeActivity = "inventory.activity"
)

// ActivityEvent describes a state change worth recording in the activity log.
type ActivityEvent struct {
	BaseEvent
	PrincipalID int64                  `json:"principal_id"`
	Action      string                 `json:"action"`
	Module      string                 `json:"module"`
	EntityType  string                 `json:"entity_type"`
	EntityID    int64                  `json:"entity_id"`
	Details     map[string]interface{} `json:"details,omitempty"`
}

func NewActivityEvent(principalID int64, action, module, entityType string, entityID int64, details map[string]interface{}) *ActivityEvent {
	return &ActivityEvent{
		BaseEvent: BaseEvent{
			ID:        uuid.New().String(),
			Type:      EventTypeActivity,
			Timestamp: time.Now(),
			Data: map[string]interface{}{
				"principal_id": principalID,
				"action":       action,
				"module":       module,
				"entity_type":  entityType,
				"entity_id":    entityID,
				"details":      details,
			},
		},
		PrincipalID: principalID,
		Action:      action,
		Module:      module,
		EntityType:  entityType,
		EntityID:    entityID,
		Details:     details,
	}
}
