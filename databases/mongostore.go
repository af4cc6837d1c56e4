package databases

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const parentField = "_parent"

// MongoStore lays the document tree out over mongo collections. A path like
// cases/{key}/lovedOnes/{id} is stored in the "cases.lovedOnes" collection
// with _id {id} and _parent cases/{key}.
type MongoStore struct {
	db DatabaseHelper
}

// NewMongoStore initializes a new document store with the provided db connection
func NewMongoStore(db DatabaseHelper) *MongoStore {
	return &MongoStore{db: db}
}

// ChildByAutoID allocates an ObjectID under parentPath. Nothing is written.
func (m *MongoStore) ChildByAutoID(parentPath string) string {
	return join(splitPath(parentPath)...) + "/" + primitive.NewObjectID().Hex()
}

// Write upserts the document at path, replacing all of its fields
func (m *MongoStore) Write(ctx context.Context, path string, doc Document) error {
	ref, err := parseDocumentPath(path)
	if err != nil {
		return err
	}
	body := bson.M{}
	for k, v := range doc {
		body[k] = v
	}
	body["_id"] = ref.id
	if ref.parent != "" {
		body[parentField] = ref.parent
	}
	return m.db.Collection(ref.collection).ReplaceOne(ctx, bson.M{"_id": ref.id}, body, options.Replace().SetUpsert(true))
}

// Delete removes the document at path. Removing a missing document is not an error.
func (m *MongoStore) Delete(ctx context.Context, path string) error {
	ref, err := parseDocumentPath(path)
	if err != nil {
		return err
	}
	_, err = m.db.Collection(ref.collection).DeleteOne(ctx, bson.M{"_id": ref.id})
	return err
}

// Get returns the document at path without its storage fields
func (m *MongoStore) Get(ctx context.Context, path string) (Document, error) {
	ref, err := parseDocumentPath(path)
	if err != nil {
		return nil, err
	}
	result := bson.M{}
	err = m.db.Collection(ref.collection).FindOne(ctx, bson.M{"_id": ref.id}).Decode(&result)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	doc := Document{}
	for k, v := range result {
		if k == "_id" || k == parentField {
			continue
		}
		doc[k] = v
	}
	return doc, nil
}
