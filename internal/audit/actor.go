package audit

import (
	"encoding/json"
	"fmt"
)

// ActorKind tags the originator of an audit event. KindAny is only meaningful
// in filters.
type ActorKind uint8

const (
	KindAny ActorKind = iota
	KindRegistered
	KindAnonymous
	KindSystem
)

func (k ActorKind) String() string {
	switch k {
	case KindAny:
		return "any"
	case KindRegistered:
		return "registered"
	case KindAnonymous:
		return "anonymous"
	case KindSystem:
		return "system"
	default:
		return fmt.Sprintf("ActorKind(%d)", uint8(k))
	}
}

// Actor is Registered(id), Anonymous(id) or System. The zero value is System.
type Actor struct {
	kind ActorKind
	id   string
}

func RegisteredActor(userID string) Actor {
	return Actor{kind: KindRegistered, id: userID}
}

func AnonymousActor(visitorID string) Actor {
	return Actor{kind: KindAnonymous, id: visitorID}
}

func SystemActor() Actor {
	return Actor{kind: KindSystem}
}

func (a Actor) Kind() ActorKind {
	if a.kind == KindAny {
		return KindSystem
	}
	return a.kind
}

// ID is empty for System actors.
func (a Actor) ID() string {
	return a.id
}

func (a Actor) IsRegistered() bool { return a.Kind() == KindRegistered }
func (a Actor) IsAnonymous() bool  { return a.Kind() == KindAnonymous }

// actorFromIDs resolves the stored pair of nullable ids. A document carrying
// both ids is attributed to the registered user.
func actorFromIDs(registeredID, anonymousID *string) Actor {
	switch {
	case registeredID != nil && *registeredID != "":
		return RegisteredActor(*registeredID)
	case anonymousID != nil && *anonymousID != "":
		return AnonymousActor(*anonymousID)
	default:
		return SystemActor()
	}
}

func (a Actor) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Kind string `json:"kind"`
		ID   string `json:"id,omitempty"`
	}{Kind: a.Kind().String(), ID: a.id})
}
