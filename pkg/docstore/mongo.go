package docstore

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoStore keeps every document in one collection keyed by its path.
// Batches use multi-document transactions and therefore need a replica set.
type MongoStore struct {
	c *mongo.Collection
}

type mongoRecord struct {
	Path   string                 `bson:"_id"`
	Parent string                 `bson:"parent"`
	DocID  string                 `bson:"docId"`
	Data   map[string]interface{} `bson:"data"`
}

// NewMongoStore uses the named collection of db.
func NewMongoStore(db *mongo.Database, collection string) *MongoStore {
	if collection == "" {
		collection = "documents"
	}
	return &MongoStore{c: db.Collection(collection)}
}

// EnsureIndexes creates the parent listing index.
func (s *MongoStore) EnsureIndexes(ctx context.Context) error {
	_, err := s.c.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "parent", Value: 1}, {Key: "docId", Value: 1}},
	})
	if err != nil {
		return fmt.Errorf("create parent index: %w", err)
	}
	return nil
}

// Get implements Store.
func (s *MongoStore) Get(ctx context.Context, path string) (*Document, error) {
	if !IsDocument(path) {
		return nil, ErrInvalidPath
	}
	path = Clean(path)
	var rec mongoRecord
	if err := s.c.FindOne(ctx, bson.M{"_id": path}).Decode(&rec); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("mongo get %s: %w", path, err)
	}
	return rec.document(), nil
}

// List implements Store.
func (s *MongoStore) List(ctx context.Context, collection string) ([]Document, error) {
	if !IsCollection(collection) {
		return nil, ErrInvalidPath
	}
	opts := options.Find().SetSort(bson.D{{Key: "docId", Value: 1}})
	cur, err := s.c.Find(ctx, bson.M{"parent": Clean(collection)}, opts)
	if err != nil {
		return nil, fmt.Errorf("mongo list %s: %w", collection, err)
	}
	defer cur.Close(ctx)

	var recs []mongoRecord
	if err := cur.All(ctx, &recs); err != nil {
		return nil, fmt.Errorf("mongo decode %s: %w", collection, err)
	}
	docs := make([]Document, 0, len(recs))
	for _, rec := range recs {
		docs = append(docs, *rec.document())
	}
	return docs, nil
}

// Set implements Store.
func (s *MongoStore) Set(ctx context.Context, path string, data map[string]interface{}, merge bool) error {
	if !IsDocument(path) {
		return ErrInvalidPath
	}
	if err := s.set(ctx, Clean(path), data, merge); err != nil {
		return fmt.Errorf("mongo set %s: %w", path, err)
	}
	return nil
}

func (s *MongoStore) set(ctx context.Context, path string, data map[string]interface{}, merge bool) error {
	if data == nil {
		data = map[string]interface{}{}
	}
	if !merge {
		rec := mongoRecord{Path: path, Parent: Parent(path), DocID: Base(path), Data: data}
		_, err := s.c.ReplaceOne(ctx, bson.M{"_id": path}, rec, options.Replace().SetUpsert(true))
		return err
	}
	set := flattenFields("data", data)
	set["parent"] = Parent(path)
	set["docId"] = Base(path)
	_, err := s.c.UpdateOne(ctx, bson.M{"_id": path}, bson.M{"$set": set}, options.Update().SetUpsert(true))
	return err
}

// Update implements Store.
func (s *MongoStore) Update(ctx context.Context, path string, data map[string]interface{}) error {
	if !IsDocument(path) {
		return ErrInvalidPath
	}
	path = Clean(path)
	if len(data) == 0 {
		_, err := s.Get(ctx, path)
		return err
	}
	res, err := s.c.UpdateOne(ctx, bson.M{"_id": path}, bson.M{"$set": flattenFields("data", data)})
	if err != nil {
		return fmt.Errorf("mongo update %s: %w", path, err)
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// Delete implements Store.
func (s *MongoStore) Delete(ctx context.Context, path string) error {
	if !IsDocument(path) {
		return ErrInvalidPath
	}
	if _, err := s.c.DeleteOne(ctx, bson.M{"_id": Clean(path)}); err != nil {
		return fmt.Errorf("mongo delete %s: %w", path, err)
	}
	return nil
}

// Batch implements Store.
func (s *MongoStore) Batch() Batch {
	return &mongoBatch{store: s}
}

// Subscribe implements Store with a change stream filtered on the path.
func (s *MongoStore) Subscribe(ctx context.Context, path string, onChange func(*Document), onError func(error)) (Unsubscribe, error) {
	if !IsDocument(path) {
		return nil, ErrInvalidPath
	}
	path = Clean(path)
	ctx, cancel := context.WithCancel(ctx)
	pipeline := mongo.Pipeline{{{Key: "$match", Value: bson.D{{Key: "documentKey._id", Value: path}}}}}
	stream, err := s.c.Watch(ctx, pipeline, options.ChangeStream().SetFullDocument(options.UpdateLookup))
	if err != nil {
		cancel()
		return nil, fmt.Errorf("mongo watch %s: %w", path, err)
	}

	current, err := s.Get(ctx, path)
	if err != nil && !errors.Is(err, ErrNotFound) {
		_ = stream.Close(context.Background())
		cancel()
		return nil, err
	}
	onChange(current)

	go func() {
		defer stream.Close(context.Background()) //nolint:errcheck
		for stream.Next(ctx) {
			var event struct {
				OperationType string       `bson:"operationType"`
				FullDocument  *mongoRecord `bson:"fullDocument"`
			}
			if err := stream.Decode(&event); err != nil {
				if onError != nil {
					onError(fmt.Errorf("mongo decode change %s: %w", path, err))
				}
				continue
			}
			if event.OperationType == "delete" || event.FullDocument == nil {
				onChange(nil)
				continue
			}
			onChange(event.FullDocument.document())
		}
		if err := stream.Err(); err != nil && ctx.Err() == nil && onError != nil {
			onError(fmt.Errorf("mongo change stream %s: %w", path, err))
		}
	}()
	return Unsubscribe(cancel), nil
}

func (r *mongoRecord) document() *Document {
	return &Document{ID: r.DocID, Path: r.Path, Data: normalizeBSON(r.Data)}
}

type mongoBatch struct {
	stagedOps
	store *MongoStore
}

func (b *mongoBatch) Commit(ctx context.Context) error {
	if err := b.validate(); err != nil {
		return err
	}
	if len(b.ops) == 0 {
		return nil
	}
	session, err := b.store.c.Database().Client().StartSession()
	if err != nil {
		return fmt.Errorf("mongo start session: %w", err)
	}
	defer session.EndSession(ctx)

	_, err = session.WithTransaction(ctx, func(sc mongo.SessionContext) (interface{}, error) {
		for _, op := range b.ops {
			path := Clean(op.path)
			switch op.kind {
			case opSet:
				if err := b.store.set(sc, path, op.data, op.merge); err != nil {
					return nil, err
				}
			case opDelete:
				if _, err := b.store.c.DeleteOne(sc, bson.M{"_id": path}); err != nil {
					return nil, err
				}
			}
		}
		return nil, nil
	})
	if err != nil {
		return fmt.Errorf("mongo batch commit: %w", err)
	}
	b.ops = nil
	return nil
}

// flattenFields turns nested maps into dotted $set paths so that merges keep
// sibling fields.
func flattenFields(prefix string, data map[string]interface{}) bson.M {
	out := bson.M{}
	for key, value := range data {
		full := prefix + "." + key
		if nested, ok := value.(map[string]interface{}); ok && len(nested) > 0 {
			for k, v := range flattenFields(full, nested) {
				out[k] = v
			}
			continue
		}
		out[full] = value
	}
	return out
}

// normalizeBSON converts driver container types into plain maps and slices.
func normalizeBSON(data map[string]interface{}) map[string]interface{} {
	out := make(map[string]interface{}, len(data))
	for k, v := range data {
		out[k] = normalizeBSONValue(v)
	}
	return out
}

func normalizeBSONValue(v interface{}) interface{} {
	switch typed := v.(type) {
	case primitive.M:
		return normalizeBSON(typed)
	case map[string]interface{}:
		return normalizeBSON(typed)
	case primitive.D:
		return normalizeBSON(typed.Map())
	case primitive.A:
		out := make([]interface{}, len(typed))
		for i, item := range typed {
			out[i] = normalizeBSONValue(item)
		}
		return out
	case primitive.DateTime:
		return typed.Time().UTC()
	default:
		return v
	}
}
