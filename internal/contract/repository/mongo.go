package repository

import (
	"context"
	"errors"
	"time"

	"github.com/contractdesk/contractdesk/backend/go-services/internal/contract"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Collection names used by the Mongo backend.
const (
	ContractsCollection   = "contracts"
	ObligationsCollection = "obligations"
	CategoriesCollection  = "contract_categories"
	FilesCollection       = "contract_files"
	HistoryCollection     = "contract_status_history"
)

// NewMongoStore returns a Store backed by five collections of db. Secondary indexes
// are created on a best-effort basis; a failure is returned so the caller can log it.
func NewMongoStore(ctx context.Context, db *mongo.Database) (*Store, error) {
	contracts := db.Collection(ContractsCollection)
	obligations := db.Collection(ObligationsCollection)
	categories := db.Collection(CategoriesCollection)
	files := db.Collection(FilesCollection)
	history := db.Collection(HistoryCollection)

	var idxErr error
	ensure := func(col *mongo.Collection, m mongo.IndexModel) {
		if _, err := col.Indexes().CreateOne(ctx, m); err != nil && idxErr == nil {
			idxErr = err
		}
	}
	ensure(categories, mongo.IndexModel{Keys: bson.D{{Key: "slug", Value: 1}}, Options: options.Index().SetUnique(true)})
	ensure(obligations, mongo.IndexModel{Keys: bson.D{{Key: "contractId", Value: 1}, {Key: "dueDate", Value: 1}}})
	ensure(files, mongo.IndexModel{Keys: bson.D{{Key: "contractId", Value: 1}}})
	ensure(history, mongo.IndexModel{Keys: bson.D{{Key: "contractId", Value: 1}, {Key: "createdAt", Value: 1}}})

	return &Store{
		Contracts:   &mongoContracts{col: contracts},
		Obligations: &mongoObligations{col: obligations},
		Categories:  &mongoCategories{col: categories},
		Files:       &mongoFiles{col: files},
		History:     &mongoHistory{col: history},
	}, idxErr
}

func findOne[T any](ctx context.Context, col *mongo.Collection, filter bson.M) (*T, error) {
	var v T
	if err := col.FindOne(ctx, filter).Decode(&v); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &v, nil
}

func findAll[T any](ctx context.Context, col *mongo.Collection, filter bson.M, sort bson.D) ([]*T, error) {
	opts := options.Find()
	if sort != nil {
		opts.SetSort(sort)
	}
	cur, err := col.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	out := []*T{}
	for cur.Next(ctx) {
		var v T
		if err := cur.Decode(&v); err != nil {
			return nil, err
		}
		out = append(out, &v)
	}
	return out, cur.Err()
}

func deleteByID(ctx context.Context, col *mongo.Collection, id string) error {
	res, err := col.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func deleteByContract(ctx context.Context, col *mongo.Collection, contractID string) error {
	_, err := col.DeleteMany(ctx, bson.M{"contractId": contractID})
	return err
}

type mongoContracts struct{ col *mongo.Collection }

func (m *mongoContracts) Create(ctx context.Context, c *contract.Contract) error {
	c.ID = newID(c.ID)
	stamp(&c.CreatedAt)
	if c.UpdatedAt.IsZero() {
		c.UpdatedAt = c.CreatedAt
	}
	_, err := m.col.InsertOne(ctx, c)
	return err
}

func (m *mongoContracts) Get(ctx context.Context, id string) (*contract.Contract, error) {
	return findOne[contract.Contract](ctx, m.col, bson.M{"_id": id})
}

func (m *mongoContracts) List(ctx context.Context) ([]*contract.Contract, error) {
	return findAll[contract.Contract](ctx, m.col, bson.M{}, bson.D{{Key: "createdAt", Value: -1}})
}

func (m *mongoContracts) Update(ctx context.Context, c *contract.Contract) error {
	if c.UpdatedAt.IsZero() {
		c.UpdatedAt = time.Now().UTC()
	}
	existing, err := m.Get(ctx, c.ID)
	if err != nil {
		return err
	}
	c.CreatedAt = existing.CreatedAt
	res, err := m.col.ReplaceOne(ctx, bson.M{"_id": c.ID}, c)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (m *mongoContracts) Delete(ctx context.Context, id string) error {
	return deleteByID(ctx, m.col, id)
}

type mongoObligations struct{ col *mongo.Collection }

func (m *mongoObligations) Create(ctx context.Context, o *contract.Obligation) error {
	o.ID = newID(o.ID)
	stamp(&o.CreatedAt)
	_, err := m.col.InsertOne(ctx, o)
	return err
}

func (m *mongoObligations) Get(ctx context.Context, id string) (*contract.Obligation, error) {
	return findOne[contract.Obligation](ctx, m.col, bson.M{"_id": id})
}

// Mongo sorts missing fields first, so undated rows are moved to the end in memory.
func (m *mongoObligations) List(ctx context.Context) ([]*contract.Obligation, error) {
	out, err := findAll[contract.Obligation](ctx, m.col, bson.M{}, bson.D{{Key: "createdAt", Value: 1}})
	if err != nil {
		return nil, err
	}
	contract.SortObligationsByDue(out)
	return out, nil
}

func (m *mongoObligations) ListByContract(ctx context.Context, contractID string) ([]*contract.Obligation, error) {
	out, err := findAll[contract.Obligation](ctx, m.col, bson.M{"contractId": contractID}, bson.D{{Key: "createdAt", Value: 1}})
	if err != nil {
		return nil, err
	}
	contract.SortObligationsByDue(out)
	return out, nil
}

func (m *mongoObligations) SetStatus(ctx context.Context, id string, status contract.ObligationStatus) error {
	res, err := m.col.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": bson.M{"status": status}})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (m *mongoObligations) Delete(ctx context.Context, id string) error {
	return deleteByID(ctx, m.col, id)
}

func (m *mongoObligations) DeleteByContract(ctx context.Context, contractID string) error {
	return deleteByContract(ctx, m.col, contractID)
}

type mongoCategories struct{ col *mongo.Collection }

func (m *mongoCategories) Create(ctx context.Context, c *contract.Category) error {
	c.ID = newID(c.ID)
	stamp(&c.CreatedAt)
	if _, err := m.col.InsertOne(ctx, c); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return contract.ErrConflict
		}
		return err
	}
	return nil
}

func (m *mongoCategories) Get(ctx context.Context, id string) (*contract.Category, error) {
	return findOne[contract.Category](ctx, m.col, bson.M{"_id": id})
}

func (m *mongoCategories) GetBySlug(ctx context.Context, slug string) (*contract.Category, error) {
	return findOne[contract.Category](ctx, m.col, bson.M{"slug": slug})
}

func (m *mongoCategories) List(ctx context.Context) ([]*contract.Category, error) {
	return findAll[contract.Category](ctx, m.col, bson.M{}, bson.D{{Key: "name", Value: 1}})
}

func (m *mongoCategories) Delete(ctx context.Context, id string) error {
	return deleteByID(ctx, m.col, id)
}

type mongoFiles struct{ col *mongo.Collection }

func (m *mongoFiles) Create(ctx context.Context, f *contract.File) error {
	f.ID = newID(f.ID)
	stamp(&f.CreatedAt)
	_, err := m.col.InsertOne(ctx, f)
	return err
}

func (m *mongoFiles) Get(ctx context.Context, id string) (*contract.File, error) {
	return findOne[contract.File](ctx, m.col, bson.M{"_id": id})
}

func (m *mongoFiles) ListByContract(ctx context.Context, contractID string) ([]*contract.File, error) {
	return findAll[contract.File](ctx, m.col, bson.M{"contractId": contractID}, bson.D{{Key: "createdAt", Value: -1}})
}

func (m *mongoFiles) Delete(ctx context.Context, id string) error {
	return deleteByID(ctx, m.col, id)
}

func (m *mongoFiles) DeleteByContract(ctx context.Context, contractID string) error {
	return deleteByContract(ctx, m.col, contractID)
}

type mongoHistory struct{ col *mongo.Collection }

func (m *mongoHistory) Append(ctx context.Context, e *contract.StatusHistoryEntry) error {
	e.ID = newID(e.ID)
	stamp(&e.CreatedAt)
	_, err := m.col.InsertOne(ctx, e)
	return err
}

func (m *mongoHistory) ListByContract(ctx context.Context, contractID string) ([]*contract.StatusHistoryEntry, error) {
	return findAll[contract.StatusHistoryEntry](ctx, m.col, bson.M{"contractId": contractID}, bson.D{{Key: "createdAt", Value: 1}})
}

func (m *mongoHistory) DeleteByContract(ctx context.Context, contractID string) error {
	return deleteByContract(ctx, m.col, contractID)
}
