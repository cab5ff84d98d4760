package audit

import (
	"context"
	"fmt"

	"github.com/famiglia/ops-console/pkg/docstore"
	pkgerrors "github.com/famiglia/ops-console/pkg/errors"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Collection is the read surface of *mongo.Collection used here.
type Collection interface {
	Distinct(ctx context.Context, fieldName string, filter interface{}, opts ...*options.DistinctOptions) ([]interface{}, error)
	CountDocuments(ctx context.Context, filter interface{}, opts ...*options.CountOptions) (int64, error)
	Aggregate(ctx context.Context, pipeline interface{}, opts ...*options.AggregateOptions) (*mongo.Cursor, error)
	Find(ctx context.Context, filter interface{}, opts ...*options.FindOptions) (*mongo.Cursor, error)
}

// CollectionSource resolves the audit collection per call so the document
// store connects lazily.
type CollectionSource func(ctx context.Context) (Collection, error)

// ProviderSource resolves the named collection through the shared provider.
func ProviderSource(provider *docstore.Provider, name string) CollectionSource {
	return func(ctx context.Context) (Collection, error) {
		return provider.Collection(ctx, name)
	}
}

// StaticSource always returns coll.
func StaticSource(coll Collection) CollectionSource {
	return func(context.Context) (Collection, error) {
		return coll, nil
	}
}

// Repository runs the typed, read-only audit queries.
type Repository struct {
	source CollectionSource
}

func NewRepository(source CollectionSource) (*Repository, error) {
	if source == nil {
		return nil, fmt.Errorf("collection source required")
	}
	return &Repository{source: source}, nil
}

func (r *Repository) collection(ctx context.Context) (Collection, error) {
	coll, err := r.source(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "audit store unavailable")
	}
	return coll, nil
}

// DistinctActors counts unique actor ids matched by the filter. For KindAny it
// is the registered distinct count plus the anonymous distinct count.
func (r *Repository) DistinctActors(ctx context.Context, filter Filter) (int64, error) {
	if err := filter.Validate(); err != nil {
		return 0, err
	}
	if filter.Kind == KindAny {
		registered, err := r.DistinctActors(ctx, Filter{Window: filter.Window, Kind: KindRegistered})
		if err != nil {
			return 0, err
		}
		anonymous, err := r.DistinctActors(ctx, Filter{Window: filter.Window, Kind: KindAnonymous})
		if err != nil {
			return 0, err
		}
		return registered + anonymous, nil
	}

	coll, err := r.collection(ctx)
	if err != nil {
		return 0, err
	}
	values, err := coll.Distinct(ctx, filter.distinctField(), filter.toBSON())
	if err != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "distinct audit actors")
	}
	return countDistinct(values), nil
}

// countDistinct ignores null and empty ids.
func countDistinct(values []interface{}) int64 {
	seen := make(map[string]struct{}, len(values))
	for _, value := range values {
		if value == nil {
			continue
		}
		key := fmt.Sprint(value)
		if key == "" {
			continue
		}
		seen[key] = struct{}{}
	}
	return int64(len(seen))
}

// CountEvents counts events matched by the filter.
func (r *Repository) CountEvents(ctx context.Context, filter Filter) (int64, error) {
	if err := filter.Validate(); err != nil {
		return 0, err
	}
	coll, err := r.collection(ctx)
	if err != nil {
		return 0, err
	}
	count, err := coll.CountDocuments(ctx, filter.toBSON())
	if err != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "count audit events")
	}
	return count, nil
}

// TopActions ranks actions by frequency, ties broken by action name, so the
// result is stable across runs.
func (r *Repository) TopActions(ctx context.Context, filter Filter, n int) ([]ActionCount, error) {
	if err := filter.Validate(); err != nil {
		return nil, err
	}
	if n < 1 || n > maxTopActions {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("n must be between 1 and %d", maxTopActions))
	}

	coll, err := r.collection(ctx)
	if err != nil {
		return nil, err
	}
	cursor, err := coll.Aggregate(ctx, topActionsPipeline(filter, n))
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "aggregate top actions")
	}

	out := []ActionCount{}
	if err := cursor.All(ctx, &out); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decode top actions")
	}
	return out, nil
}

func topActionsPipeline(filter Filter, n int) mongo.Pipeline {
	return mongo.Pipeline{
		{{Key: "$match", Value: filter.toBSON()}},
		{{Key: "$group", Value: bson.D{
			{Key: "_id", Value: "$" + fieldAction},
			{Key: "count", Value: bson.D{{Key: "$sum", Value: 1}}},
		}}},
		{{Key: "$sort", Value: bson.D{
			{Key: "count", Value: -1},
			{Key: "_id", Value: 1},
		}}},
		{{Key: "$limit", Value: int64(n)}},
	}
}

// AnonymousRollup summarises anonymous visitors in the window, most recently
// active first. limit <= 0 or above 50 is clamped to 50.
func (r *Repository) AnonymousRollup(ctx context.Context, window Window, limit int) ([]VisitorActivity, error) {
	if err := window.Validate(); err != nil {
		return nil, err
	}
	if limit <= 0 || limit > maxRollupRows {
		limit = maxRollupRows
	}

	coll, err := r.collection(ctx)
	if err != nil {
		return nil, err
	}
	cursor, err := coll.Aggregate(ctx, anonymousRollupPipeline(window, limit))
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "aggregate anonymous rollup")
	}

	out := []VisitorActivity{}
	if err := cursor.All(ctx, &out); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decode anonymous rollup")
	}
	for i := range out {
		out[i].FirstSeen = out[i].FirstSeen.UTC()
		out[i].LastSeen = out[i].LastSeen.UTC()
	}
	return out, nil
}

func anonymousRollupPipeline(window Window, limit int) mongo.Pipeline {
	filter := Filter{Window: window, Kind: KindAnonymous}
	return mongo.Pipeline{
		{{Key: "$match", Value: filter.toBSON()}},
		// $last below relies on ascending input order.
		{{Key: "$sort", Value: bson.D{
			{Key: fieldCreatedAt, Value: 1},
			{Key: fieldID, Value: 1},
		}}},
		{{Key: "$group", Value: bson.D{
			{Key: "_id", Value: "$" + fieldAnonymousID},
			{Key: "firstSeen", Value: bson.D{{Key: "$min", Value: "$" + fieldCreatedAt}}},
			{Key: "lastSeen", Value: bson.D{{Key: "$max", Value: "$" + fieldCreatedAt}}},
			{Key: "events", Value: bson.D{{Key: "$sum", Value: 1}}},
			{Key: "lastAction", Value: bson.D{{Key: "$last", Value: "$" + fieldAction}}},
		}}},
		{{Key: "$sort", Value: bson.D{
			{Key: "lastSeen", Value: -1},
			{Key: "_id", Value: 1},
		}}},
		{{Key: "$limit", Value: int64(limit)}},
	}
}

// RecentForUser returns a registered user's latest events, newest first.
func (r *Repository) RecentForUser(ctx context.Context, userID string, limit int) ([]Event, error) {
	if userID == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user id is required")
	}
	if limit <= 0 {
		limit = defaultRecent
	}
	if limit > maxRecentEvents {
		limit = maxRecentEvents
	}

	coll, err := r.collection(ctx)
	if err != nil {
		return nil, err
	}
	opts := options.Find().
		SetSort(bson.D{{Key: fieldCreatedAt, Value: -1}, {Key: fieldID, Value: -1}}).
		SetLimit(int64(limit))
	cursor, err := coll.Find(ctx, bson.M{fieldRegisteredID: userID}, opts)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "find user audit events")
	}

	var docs []eventDocument
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decode user audit events")
	}
	events := make([]Event, 0, len(docs))
	for _, doc := range docs {
		events = append(events, doc.toEvent())
	}
	return events, nil
}
