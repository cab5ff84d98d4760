package audit

import (
	"time"

	pkgerrors "github.com/famiglia/ops-console/pkg/errors"
	"go.mongodb.org/mongo-driver/bson"
)

const (
	maxTopActions   = 100
	maxRollupRows   = 50
	defaultRecent   = 20
	maxRecentEvents = 100
)

// Window bounds events by createdAt: Since inclusive, Until exclusive. A zero
// bound is open.
type Window struct {
	Since time.Time
	Until time.Time
}

// Trailing returns the window covering d up to now.
func Trailing(now time.Time, d time.Duration) Window {
	return Window{Since: now.Add(-d)}
}

func (w Window) Validate() error {
	if !w.Since.IsZero() && !w.Until.IsZero() && w.Until.Before(w.Since) {
		return pkgerrors.New(pkgerrors.CodeValidation, "window until is before since")
	}
	return nil
}

func (w Window) clause() bson.M {
	bounds := bson.M{}
	if !w.Since.IsZero() {
		bounds["$gte"] = w.Since.UTC()
	}
	if !w.Until.IsZero() {
		bounds["$lt"] = w.Until.UTC()
	}
	return bounds
}

// Filter selects audit events by window and actor kind. ActorIDs restricts a
// registered filter to the given user ids; nil means unrestricted while an
// empty non-nil slice matches nothing.
type Filter struct {
	Window   Window
	Kind     ActorKind
	ActorIDs []string
}

func (f Filter) Validate() error {
	if err := f.Window.Validate(); err != nil {
		return err
	}
	switch f.Kind {
	case KindAny, KindRegistered, KindAnonymous:
	default:
		return pkgerrors.New(pkgerrors.CodeValidation, "unsupported actor kind "+f.Kind.String())
	}
	if f.ActorIDs != nil && f.Kind != KindRegistered {
		return pkgerrors.New(pkgerrors.CodeValidation, "actor ids require a registered filter")
	}
	return nil
}

func (f Filter) toBSON() bson.M {
	query := bson.M{}
	if bounds := f.Window.clause(); len(bounds) > 0 {
		query[fieldCreatedAt] = bounds
	}
	switch f.Kind {
	case KindRegistered:
		if f.ActorIDs != nil {
			query[fieldRegisteredID] = bson.M{"$in": f.ActorIDs}
		} else {
			query[fieldRegisteredID] = bson.M{"$ne": nil}
		}
	case KindAnonymous:
		query[fieldRegisteredID] = nil
		query[fieldAnonymousID] = bson.M{"$ne": nil}
	}
	return query
}

// distinctField is the id column counted for a single-kind filter.
func (f Filter) distinctField() string {
	if f.Kind == KindAnonymous {
		return fieldAnonymousID
	}
	return fieldRegisteredID
}
