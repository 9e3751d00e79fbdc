package engine

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

// state is one step of chain evaluation. Each segment is applied to the
// current state by conditional dispatch on the member name; whatever state
// remains when the chain ends is finalized into a Result.
type state interface {
	apply(ctx context.Context, seg Segment) (state, error)
	finalize(ctx context.Context) (Result, error)
}

// databaseState is the db binding: a logical database on a shared client.
// Known helpers are dispatched by name; any other property access falls
// back to resolving the name as a collection, which is what lets
// db.users.find(...) work without a schema.
type databaseState struct {
	client *mongo.Client
	db     *mongo.Database
}

func (s *databaseState) apply(ctx context.Context, seg Segment) (state, error) {
	if !seg.Call {
		return &collectionState{coll: s.db.Collection(seg.Name)}, nil
	}

	switch seg.Name {
	case "getSiblingDB":
		name, err := stringArg(seg, 0)
		if err != nil {
			return nil, err
		}
		return &databaseState{client: s.client, db: s.client.Database(name)}, nil

	case "collection", "getCollection":
		name, err := stringArg(seg, 0)
		if err != nil {
			return nil, err
		}
		return &collectionState{coll: s.db.Collection(name)}, nil

	case "adminCommand":
		cmd, err := commandArg(seg)
		if err != nil {
			return nil, err
		}
		return runCommand(ctx, s.client.Database("admin"), cmd)

	case "serverStatus":
		return runCommand(ctx, s.client.Database("admin"), bson.D{{Key: "serverStatus", Value: 1}})

	case "command", "runCommand":
		cmd, err := commandArg(seg)
		if err != nil {
			return nil, err
		}
		return runCommand(ctx, s.db, cmd)

	case "stats":
		return runCommand(ctx, s.db, bson.D{{Key: "dbStats", Value: 1}})

	case "getCollectionNames":
		names, err := s.db.ListCollectionNames(ctx, bson.D{})
		if err != nil {
			return nil, err
		}
		out := make([]any, len(names))
		for i, n := range names {
			out[i] = n
		}
		return &doneState{res: ValueResult(out)}, nil

	case "listCollections":
		cur, err := s.db.ListCollections(ctx, bson.D{})
		if err != nil {
			return nil, err
		}
		return &doneState{res: IteratorResult(cur)}, nil
	}

	return nil, fmt.Errorf("unknown database method '%s'", seg.Name)
}

func (s *databaseState) finalize(context.Context) (Result, error) {
	// a bare `db` evaluates to the database name, like the mongo shell
	return ValueResult(s.db.Name()), nil
}

func runCommand(ctx context.Context, db *mongo.Database, cmd bson.D) (state, error) {
	var reply bson.D
	if err := db.RunCommand(ctx, cmd).Decode(&reply); err != nil {
		return nil, err
	}
	return &doneState{res: ValueResult(plainDoc(reply))}, nil
}

// collectionState dispatches collection methods to the driver
type collectionState struct {
	coll *mongo.Collection
}

func (s *collectionState) apply(ctx context.Context, seg Segment) (state, error) {
	if !seg.Call {
		return nil, fmt.Errorf("unknown collection member '%s'", seg.Name)
	}

	switch seg.Name {
	case "find":
		filter, err := optDocArg(seg, 0)
		if err != nil {
			return nil, err
		}
		fs := &findState{coll: s.coll, filter: filter}
		if len(seg.Args) > 1 {
			projection, err := optDocArg(seg, 1)
			if err != nil {
				return nil, err
			}
			fs.projection = projection
		}
		return fs, nil

	case "findOne":
		filter, err := optDocArg(seg, 0)
		if err != nil {
			return nil, err
		}
		opts := options.FindOne()
		if len(seg.Args) > 1 {
			projection, err := optDocArg(seg, 1)
			if err != nil {
				return nil, err
			}
			opts = opts.SetProjection(projection)
		}
		var doc bson.M
		err = s.coll.FindOne(ctx, filter, opts).Decode(&doc)
		if errors.Is(err, mongo.ErrNoDocuments) {
			return &doneState{res: ValueResult(nil)}, nil
		}
		if err != nil {
			return nil, err
		}
		return &doneState{res: ValueResult(plainMap(doc))}, nil

	case "aggregate":
		pipeline, err := pipelineArg(seg)
		if err != nil {
			return nil, err
		}
		cur, err := s.coll.Aggregate(ctx, pipeline)
		if err != nil {
			return nil, err
		}
		return &doneState{res: CursorResult(cur)}, nil

	case "countDocuments", "count":
		filter, err := optDocArg(seg, 0)
		if err != nil {
			return nil, err
		}
		n, err := s.coll.CountDocuments(ctx, filter)
		if err != nil {
			return nil, err
		}
		return &doneState{res: ValueResult(n)}, nil

	case "estimatedDocumentCount":
		n, err := s.coll.EstimatedDocumentCount(ctx)
		if err != nil {
			return nil, err
		}
		return &doneState{res: ValueResult(n)}, nil

	case "distinct":
		field, err := stringArg(seg, 0)
		if err != nil {
			return nil, err
		}
		filter, err := optDocArg(seg, 1)
		if err != nil {
			return nil, err
		}
		var values bson.A
		if err := s.coll.Distinct(ctx, field, filter).Decode(&values); err != nil {
			return nil, err
		}
		return &doneState{res: ValueResult(plainValue(values))}, nil

	case "insertOne":
		doc, err := docArg(seg, 0)
		if err != nil {
			return nil, err
		}
		res, err := s.coll.InsertOne(ctx, doc)
		if err != nil {
			return nil, err
		}
		return &doneState{res: ValueResult(map[string]any{
			"acknowledged": res.Acknowledged,
			"insertedId":   plainValue(res.InsertedID),
		})}, nil

	case "insertMany":
		docs, err := arrayArg(seg, 0)
		if err != nil {
			return nil, err
		}
		res, err := s.coll.InsertMany(ctx, docs)
		if err != nil {
			return nil, err
		}
		return &doneState{res: ValueResult(map[string]any{
			"acknowledged": res.Acknowledged,
			"insertedIds":  plainValue(res.InsertedIDs),
		})}, nil

	case "updateOne", "updateMany":
		filter, err := docArg(seg, 0)
		if err != nil {
			return nil, err
		}
		update, err := docArg(seg, 1)
		if err != nil {
			return nil, err
		}
		var res *mongo.UpdateResult
		if seg.Name == "updateOne" {
			res, err = s.coll.UpdateOne(ctx, filter, update)
		} else {
			res, err = s.coll.UpdateMany(ctx, filter, update)
		}
		if err != nil {
			return nil, err
		}
		return &doneState{res: ValueResult(updateReply(res))}, nil

	case "replaceOne":
		filter, err := docArg(seg, 0)
		if err != nil {
			return nil, err
		}
		replacement, err := docArg(seg, 1)
		if err != nil {
			return nil, err
		}
		res, err := s.coll.ReplaceOne(ctx, filter, replacement)
		if err != nil {
			return nil, err
		}
		return &doneState{res: ValueResult(updateReply(res))}, nil

	case "deleteOne", "deleteMany":
		filter, err := optDocArg(seg, 0)
		if err != nil {
			return nil, err
		}
		var res *mongo.DeleteResult
		if seg.Name == "deleteOne" {
			res, err = s.coll.DeleteOne(ctx, filter)
		} else {
			res, err = s.coll.DeleteMany(ctx, filter)
		}
		if err != nil {
			return nil, err
		}
		return &doneState{res: ValueResult(map[string]any{
			"acknowledged": res.Acknowledged,
			"deletedCount": res.DeletedCount,
		})}, nil

	case "drop":
		if err := s.coll.Drop(ctx); err != nil {
			return nil, err
		}
		return &doneState{res: ValueResult(true)}, nil
	}

	return nil, fmt.Errorf("unknown collection method '%s'", seg.Name)
}

func (s *collectionState) finalize(context.Context) (Result, error) {
	return ValueResult(s.coll.Name()), nil
}

func updateReply(res *mongo.UpdateResult) map[string]any {
	reply := map[string]any{
		"acknowledged":  res.Acknowledged,
		"matchedCount":  res.MatchedCount,
		"modifiedCount": res.ModifiedCount,
		"upsertedCount": res.UpsertedCount,
	}
	if res.UpsertedID != nil {
		reply["upsertedId"] = plainValue(res.UpsertedID)
	}
	return reply
}

// findState is a pending find: modifiers accumulate until a terminal call
// or the end of the chain runs the query
type findState struct {
	coll       *mongo.Collection
	filter     any
	projection any
	sort       any
	limit      int64
	skip       int64
}

func (s *findState) apply(ctx context.Context, seg Segment) (state, error) {
	if !seg.Call {
		return nil, fmt.Errorf("unknown cursor member '%s'", seg.Name)
	}

	switch seg.Name {
	case "limit":
		n, err := intArg(seg, 0)
		if err != nil {
			return nil, err
		}
		s.limit = n
		return s, nil

	case "skip":
		n, err := intArg(seg, 0)
		if err != nil {
			return nil, err
		}
		s.skip = n
		return s, nil

	case "sort":
		spec, err := docArg(seg, 0)
		if err != nil {
			return nil, err
		}
		s.sort = spec
		return s, nil

	case "project", "projection":
		spec, err := docArg(seg, 0)
		if err != nil {
			return nil, err
		}
		s.projection = spec
		return s, nil

	case "toArray":
		res, err := s.run(ctx)
		if err != nil {
			return nil, err
		}
		return &doneState{res: res}, nil

	case "count":
		n, err := s.coll.CountDocuments(ctx, s.filter)
		if err != nil {
			return nil, err
		}
		return &doneState{res: ValueResult(n)}, nil
	}

	return nil, fmt.Errorf("unknown cursor method '%s'", seg.Name)
}

func (s *findState) finalize(ctx context.Context) (Result, error) {
	return s.run(ctx)
}

func (s *findState) run(ctx context.Context) (Result, error) {
	opts := options.Find()
	if s.limit > 0 {
		opts = opts.SetLimit(s.limit)
	}
	if s.skip > 0 {
		opts = opts.SetSkip(s.skip)
	}
	if s.sort != nil {
		opts = opts.SetSort(s.sort)
	}
	if s.projection != nil {
		opts = opts.SetProjection(s.projection)
	}
	cur, err := s.coll.Find(ctx, s.filter, opts)
	if err != nil {
		return Result{}, err
	}
	return CursorResult(cur), nil
}

// doneState carries a produced result; nothing further can be chained
type doneState struct {
	res Result
}

func (s *doneState) apply(_ context.Context, seg Segment) (state, error) {
	return nil, fmt.Errorf("cannot chain '%s' onto a completed result", seg.Name)
}

func (s *doneState) finalize(context.Context) (Result, error) {
	return s.res, nil
}

// Argument helpers

func stringArg(seg Segment, i int) (string, error) {
	if i >= len(seg.Args) {
		return "", fmt.Errorf("%s expects a string argument", seg.Name)
	}
	s, ok := seg.Args[i].(string)
	if !ok {
		return "", fmt.Errorf("argument %d of %s must be a string", i+1, seg.Name)
	}
	return s, nil
}

func intArg(seg Segment, i int) (int64, error) {
	if i >= len(seg.Args) {
		return 0, fmt.Errorf("%s expects a numeric argument", seg.Name)
	}
	switch n := seg.Args[i].(type) {
	case int64:
		return n, nil
	case float64:
		return int64(n), nil
	}
	return 0, fmt.Errorf("argument %d of %s must be a number", i+1, seg.Name)
}

// docArg returns a required document argument
func docArg(seg Segment, i int) (bson.D, error) {
	if i >= len(seg.Args) {
		return nil, fmt.Errorf("%s expects a document argument", seg.Name)
	}
	doc, ok := seg.Args[i].(bson.D)
	if !ok {
		return nil, fmt.Errorf("argument %d of %s must be a document", i+1, seg.Name)
	}
	// resolveArg can collapse {$oid: "..."} into an ObjectID, which is not
	// a valid document here
	resolved, ok := resolveArg(doc).(bson.D)
	if !ok {
		return nil, fmt.Errorf("argument %d of %s must be a document", i+1, seg.Name)
	}
	return resolved, nil
}

// optDocArg returns a document argument, defaulting to the empty document
// when absent or null. A present argument of any other type is an error,
// not an empty filter.
func optDocArg(seg Segment, i int) (bson.D, error) {
	if i >= len(seg.Args) || seg.Args[i] == nil {
		return bson.D{}, nil
	}
	return docArg(seg, i)
}

// arrayArg returns a required array argument with elements resolved
func arrayArg(seg Segment, i int) ([]any, error) {
	if i >= len(seg.Args) {
		return nil, fmt.Errorf("%s expects an array argument", seg.Name)
	}
	arr, ok := seg.Args[i].(bson.A)
	if !ok {
		return nil, fmt.Errorf("argument %d of %s must be an array", i+1, seg.Name)
	}
	out := make([]any, len(arr))
	for j, item := range arr {
		out[j] = resolveArg(item)
	}
	return out, nil
}

// pipelineArg accepts an aggregation pipeline: an array of stages, or a
// single stage document which is wrapped
func pipelineArg(seg Segment) (bson.A, error) {
	if len(seg.Args) == 0 {
		return nil, fmt.Errorf("aggregate expects a pipeline argument")
	}
	switch arg := seg.Args[0].(type) {
	case bson.A:
		resolved, ok := resolveArg(arg).(bson.A)
		if !ok {
			return nil, fmt.Errorf("aggregate pipeline must be an array of stages")
		}
		return resolved, nil
	case bson.D:
		resolved, ok := resolveArg(arg).(bson.D)
		if !ok {
			return nil, fmt.Errorf("aggregate pipeline must be an array of stages")
		}
		return bson.A{resolved}, nil
	}
	return nil, fmt.Errorf("aggregate pipeline must be an array of stages")
}

// commandArg accepts a command document, or a bare command name string
// which becomes {name: 1}
func commandArg(seg Segment) (bson.D, error) {
	if len(seg.Args) == 0 {
		return nil, fmt.Errorf("%s expects a command argument", seg.Name)
	}
	switch cmd := seg.Args[0].(type) {
	case bson.D:
		resolved, ok := resolveArg(cmd).(bson.D)
		if !ok {
			return nil, fmt.Errorf("argument of %s must be a command document", seg.Name)
		}
		return resolved, nil
	case string:
		return bson.D{{Key: cmd, Value: 1}}, nil
	}
	return nil, fmt.Errorf("argument of %s must be a command document", seg.Name)
}
