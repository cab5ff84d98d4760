package audit

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// memoryCollection evaluates the subset of query and pipeline operators the
// repository emits against in-memory documents.
type memoryCollection struct {
	docs []bson.M
	err  error

	lastFilter   interface{}
	lastPipeline mongo.Pipeline
	lastFind     *options.FindOptions
}

func (c *memoryCollection) Distinct(_ context.Context, field string, filter interface{}, _ ...*options.DistinctOptions) ([]interface{}, error) {
	c.lastFilter = filter
	if c.err != nil {
		return nil, c.err
	}
	seen := map[string]bool{}
	var out []interface{}
	for _, doc := range c.match(filter.(bson.M)) {
		value, ok := doc[field]
		if !ok {
			continue
		}
		key := fmt.Sprint(value)
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, value)
	}
	return out, nil
}

func (c *memoryCollection) CountDocuments(_ context.Context, filter interface{}, _ ...*options.CountOptions) (int64, error) {
	c.lastFilter = filter
	if c.err != nil {
		return 0, c.err
	}
	return int64(len(c.match(filter.(bson.M)))), nil
}

func (c *memoryCollection) Aggregate(_ context.Context, pipeline interface{}, _ ...*options.AggregateOptions) (*mongo.Cursor, error) {
	stages := pipeline.(mongo.Pipeline)
	c.lastPipeline = stages
	if c.err != nil {
		return nil, c.err
	}
	rows := append([]bson.M(nil), c.docs...)
	for _, stage := range stages {
		op, arg := stage[0].Key, stage[0].Value
		switch op {
		case "$match":
			rows = matchAll(rows, arg.(bson.M))
		case "$group":
			rows = group(rows, arg.(bson.D))
		case "$sort":
			sortRows(rows, arg.(bson.D))
		case "$limit":
			if limit := int(arg.(int64)); len(rows) > limit {
				rows = rows[:limit]
			}
		default:
			return nil, fmt.Errorf("unsupported stage %s", op)
		}
	}
	return cursorOf(rows)
}

func (c *memoryCollection) Find(_ context.Context, filter interface{}, opts ...*options.FindOptions) (*mongo.Cursor, error) {
	c.lastFilter = filter
	if c.err != nil {
		return nil, c.err
	}
	rows := c.match(filter.(bson.M))
	for _, opt := range opts {
		c.lastFind = opt
		if opt.Sort != nil {
			sortRows(rows, opt.Sort.(bson.D))
		}
		if opt.Limit != nil && len(rows) > int(*opt.Limit) {
			rows = rows[:int(*opt.Limit)]
		}
	}
	return cursorOf(rows)
}

func (c *memoryCollection) match(filter bson.M) []bson.M {
	return matchAll(c.docs, filter)
}

func cursorOf(rows []bson.M) (*mongo.Cursor, error) {
	docs := make([]interface{}, 0, len(rows))
	for _, row := range rows {
		docs = append(docs, row)
	}
	return mongo.NewCursorFromDocuments(docs, nil, nil)
}

func matchAll(docs []bson.M, filter bson.M) []bson.M {
	var out []bson.M
	for _, doc := range docs {
		if matches(doc, filter) {
			out = append(out, doc)
		}
	}
	return out
}

func matches(doc bson.M, filter bson.M) bool {
	for field, cond := range filter {
		value, present := doc[field]
		switch typed := cond.(type) {
		case nil:
			if present && value != nil {
				return false
			}
		case bson.M:
			for op, operand := range typed {
				switch op {
				case "$ne":
					if operand == nil && (!present || value == nil) {
						return false
					}
				case "$gte":
					if !present || compare(value, operand) < 0 {
						return false
					}
				case "$lt":
					if !present || compare(value, operand) >= 0 {
						return false
					}
				case "$in":
					found := false
					for _, candidate := range operand.([]string) {
						if value == candidate {
							found = true
						}
					}
					if !found {
						return false
					}
				default:
					panic("unsupported operator " + op)
				}
			}
		default:
			if value != cond {
				return false
			}
		}
	}
	return true
}

func group(rows []bson.M, arg bson.D) []bson.M {
	keyField := strings.TrimPrefix(arg[0].Value.(string), "$")
	groups := map[string]bson.M{}
	var order []string
	for _, row := range rows {
		key := row[keyField]
		k := fmt.Sprint(key)
		out, ok := groups[k]
		if !ok {
			out = bson.M{"_id": key}
			groups[k] = out
			order = append(order, k)
		}
		for _, acc := range arg[1:] {
			accOp := acc.Value.(bson.D)[0]
			switch accOp.Key {
			case "$sum":
				current, _ := out[acc.Key].(int64)
				out[acc.Key] = current + 1
			case "$min", "$max", "$last":
				value := row[strings.TrimPrefix(accOp.Value.(string), "$")]
				existing, has := out[acc.Key]
				switch {
				case !has, accOp.Key == "$last":
					out[acc.Key] = value
				case accOp.Key == "$min" && compare(value, existing) < 0:
					out[acc.Key] = value
				case accOp.Key == "$max" && compare(value, existing) > 0:
					out[acc.Key] = value
				}
			}
		}
	}
	result := make([]bson.M, 0, len(order))
	for _, k := range order {
		result = append(result, groups[k])
	}
	return result
}

func sortRows(rows []bson.M, keys bson.D) {
	sort.SliceStable(rows, func(i, j int) bool {
		for _, key := range keys {
			c := compare(rows[i][key.Key], rows[j][key.Key])
			if c == 0 {
				continue
			}
			if key.Value.(int) < 0 {
				return c > 0
			}
			return c < 0
		}
		return false
	})
}

func compare(a, b interface{}) int {
	switch av := a.(type) {
	case time.Time:
		return av.Compare(b.(time.Time))
	case int64:
		bv := b.(int64)
		switch {
		case av < bv:
			return -1
		case av > bv:
			return 1
		}
		return 0
	case string:
		return strings.Compare(av, b.(string))
	case primitive.ObjectID:
		return strings.Compare(av.Hex(), b.(primitive.ObjectID).Hex())
	case nil:
		if b == nil {
			return 0
		}
		return -1
	}
	panic(fmt.Sprintf("cannot compare %T", a))
}
