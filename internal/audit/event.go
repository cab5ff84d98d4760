package audit

import (
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Stored field names of the audit collection.
const (
	fieldID           = "_id"
	fieldRegisteredID = "registeredUserId"
	fieldAnonymousID  = "anonymousVisitorId"
	fieldAction       = "action"
	fieldCreatedAt    = "createdAt"
)

// Event is one immutable audit log entry.
type Event struct {
	ID           string         `json:"id"`
	Actor        Actor          `json:"actor"`
	Role         string         `json:"role,omitempty"`
	Action       string         `json:"action"`
	ResourceType string         `json:"resourceType,omitempty"`
	ResourceID   string         `json:"resourceId,omitempty"`
	Route        string         `json:"route,omitempty"`
	Metadata     map[string]any `json:"metadata,omitempty"`
	CreatedAt    time.Time      `json:"createdAt"`
}

type eventDocument struct {
	ID           primitive.ObjectID `bson:"_id"`
	RegisteredID *string            `bson:"registeredUserId"`
	AnonymousID  *string            `bson:"anonymousVisitorId"`
	Role         *string            `bson:"role"`
	Action       string             `bson:"action"`
	ResourceType *string            `bson:"resourceType"`
	ResourceID   *string            `bson:"resourceId"`
	Route        *string            `bson:"route"`
	Metadata     bson.M             `bson:"metadata"`
	CreatedAt    time.Time          `bson:"createdAt"`
}

func (d eventDocument) toEvent() Event {
	event := Event{
		Actor:        actorFromIDs(d.RegisteredID, d.AnonymousID),
		Role:         deref(d.Role),
		Action:       d.Action,
		ResourceType: deref(d.ResourceType),
		ResourceID:   deref(d.ResourceID),
		Route:        deref(d.Route),
		CreatedAt:    d.CreatedAt.UTC(),
	}
	if !d.ID.IsZero() {
		event.ID = d.ID.Hex()
	}
	if len(d.Metadata) > 0 {
		event.Metadata = map[string]any(d.Metadata)
	}
	return event
}

func deref(value *string) string {
	if value == nil {
		return ""
	}
	return *value
}

// ActionCount is one row of a top-actions ranking.
type ActionCount struct {
	Action string `bson:"_id" json:"action"`
	Count  int64  `bson:"count" json:"count"`
}

// VisitorActivity summarises one anonymous visitor over a window.
type VisitorActivity struct {
	VisitorID  string    `bson:"_id" json:"visitorId"`
	FirstSeen  time.Time `bson:"firstSeen" json:"firstSeen"`
	LastSeen   time.Time `bson:"lastSeen" json:"lastSeen"`
	Events     int64     `bson:"events" json:"events"`
	LastAction string    `bson:"lastAction" json:"lastAction"`
}
