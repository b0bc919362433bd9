package store

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

/*
Mongo stores telemetry records in a single MongoDB collection.  The change
feed is backed by a change stream, which requires the deployment to be a
replica set (a single-node replica set is enough).
*/
type Mongo struct {
	client *mongo.Client
	coll   *mongo.Collection
}

/*
DialMongo connects to the deployment at uri and pings it to fail fast on a
bad address.
*/
func DialMongo(ctx context.Context, uri, db, coll string) (*Mongo, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("connect to %s: %w", uri, err)
	}

	if err := client.Ping(ctx, nil); err != nil {
		client.Disconnect(context.Background())
		return nil, fmt.Errorf("ping %s: %w", uri, err)
	}

	return &Mongo{
		client: client,
		coll:   client.Database(db).Collection(coll),
	}, nil
}

func (m *Mongo) Insert(ctx context.Context, doc Document) (string, error) {
	res, err := m.coll.InsertOne(ctx, doc)
	if err != nil {
		return "", err
	}

	if oid, ok := res.InsertedID.(primitive.ObjectID); ok {
		return oid.Hex(), nil
	}
	return fmt.Sprint(res.InsertedID), nil
}

func (m *Mongo) Update(ctx context.Context, id string, set Document) error {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return fmt.Errorf("bad document id %q: %w", id, err)
	}

	// Matching zero documents is not an error: the document may have been
	// deleted between insert and enrichment.
	_, err = m.coll.UpdateByID(ctx, oid, bson.M{"$set": bson.M(set)})
	return err
}

func (m *Mongo) Find(ctx context.Context, filter Document, limit int64) ([]Document, error) {
	if filter == nil {
		filter = Document{}
	}

	opts := options.Find()
	if limit > 0 {
		opts.SetLimit(limit)
	}

	cur, err := m.coll.Find(ctx, bson.M(filter), opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var docs []Document
	for cur.Next(ctx) {
		var d bson.M
		if err := cur.Decode(&d); err != nil {
			return nil, err
		}
		docs = append(docs, Document(d))
	}
	return docs, cur.Err()
}

func (m *Mongo) BulkUpdate(ctx context.Context, ops []UpdateOp) (int64, error) {
	if len(ops) == 0 {
		return 0, nil
	}

	models := make([]mongo.WriteModel, 0, len(ops))
	for _, op := range ops {
		models = append(models, mongo.NewUpdateOneModel().
			SetFilter(bson.M(op.Filter)).
			SetUpdate(bson.M{"$set": bson.M(op.Set)}))
	}

	res, err := m.coll.BulkWrite(ctx, models, options.BulkWrite().SetOrdered(false))
	if err != nil {
		return 0, err
	}
	return res.ModifiedCount, nil
}

func (m *Mongo) Watch(ctx context.Context) (ChangeFeed, error) {
	// updateLookup delivers the full post-update document alongside each
	// update event, so subscribers see complete records.
	cs, err := m.coll.Watch(ctx, mongo.Pipeline{},
		options.ChangeStream().SetFullDocument(options.UpdateLookup))
	if err != nil {
		return nil, fmt.Errorf("open change stream: %w", err)
	}
	return &mongoFeed{cs: cs}, nil
}

func (m *Mongo) Close(ctx context.Context) error {
	return m.client.Disconnect(ctx)
}

type mongoFeed struct {
	cs *mongo.ChangeStream
}

func (f *mongoFeed) Next(ctx context.Context) ([]byte, error) {
	if !f.cs.Next(ctx) {
		if err := f.cs.Err(); err != nil {
			return nil, err
		}
		return nil, errors.New("change stream exhausted")
	}

	var ev bson.M
	if err := f.cs.Decode(&ev); err != nil {
		return nil, fmt.Errorf("decode change event: %w", err)
	}

	raw, err := bson.MarshalExtJSON(ev, false, false)
	if err != nil {
		return nil, fmt.Errorf("serialize change event: %w", err)
	}
	return raw, nil
}

func (f *mongoFeed) Close(ctx context.Context) error {
	return f.cs.Close(ctx)
}
