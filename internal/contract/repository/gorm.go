package repository

import (
	"context"
	"errors"
	"time"

	"github.com/contractdesk/contractdesk/backend/go-services/internal/contract"
	"gorm.io/gorm"
)

// NewGormStore returns a Store backed by a relational database. The schema is
// migrated on construction. The *gorm.DB should be opened with
// TranslateError enabled so unique violations surface as ErrConflict.
func NewGormStore(db *gorm.DB) (*Store, error) {
	if err := db.AutoMigrate(
		&contract.Category{},
		&contract.Contract{},
		&contract.Obligation{},
		&contract.File{},
		&contract.StatusHistoryEntry{},
	); err != nil {
		return nil, err
	}
	g := &gormStore{db: db}
	return &Store{
		Contracts:   gormContracts{g},
		Obligations: gormObligations{g},
		Categories:  gormCategories{g},
		Files:       gormFiles{g},
		History:     gormHistory{g},
		Cascade:     g,
	}, nil
}

type gormStore struct {
	db *gorm.DB
}

func notFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	return err
}

func affected(res *gorm.DB) error {
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func gormGet[T any](ctx context.Context, db *gorm.DB, id string) (*T, error) {
	var v T
	if err := db.WithContext(ctx).Where("id = ?", id).First(&v).Error; err != nil {
		return nil, notFound(err)
	}
	return &v, nil
}

func gormList[T any](ctx context.Context, db *gorm.DB, order string, where ...interface{}) ([]*T, error) {
	out := []*T{}
	q := db.WithContext(ctx).Order(order)
	if len(where) > 0 {
		q = q.Where(where[0], where[1:]...)
	}
	if err := q.Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

// DeleteContractCascade removes the contract and every owned row in one transaction.
func (g *gormStore) DeleteContractCascade(ctx context.Context, id string) error {
	return g.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, owned := range []interface{}{&contract.Obligation{}, &contract.File{}, &contract.StatusHistoryEntry{}} {
			if err := tx.Where("contract_id = ?", id).Delete(owned).Error; err != nil {
				return err
			}
		}
		return affected(tx.Where("id = ?", id).Delete(&contract.Contract{}))
	})
}

type gormContracts struct{ g *gormStore }

func (r gormContracts) Create(ctx context.Context, c *contract.Contract) error {
	c.ID = newID(c.ID)
	stamp(&c.CreatedAt)
	if c.UpdatedAt.IsZero() {
		c.UpdatedAt = c.CreatedAt
	}
	return r.g.db.WithContext(ctx).Create(c).Error
}

func (r gormContracts) Get(ctx context.Context, id string) (*contract.Contract, error) {
	return gormGet[contract.Contract](ctx, r.g.db, id)
}

func (r gormContracts) List(ctx context.Context) ([]*contract.Contract, error) {
	return gormList[contract.Contract](ctx, r.g.db, "created_at DESC")
}

func (r gormContracts) Update(ctx context.Context, c *contract.Contract) error {
	if c.UpdatedAt.IsZero() {
		c.UpdatedAt = time.Now().UTC()
	}
	// Select("*") writes zero values and nil pointers so cleared fields persist.
	return affected(r.g.db.WithContext(ctx).Model(&contract.Contract{}).
		Where("id = ?", c.ID).
		Select("*").Omit("id", "created_at").
		Updates(c))
}

func (r gormContracts) Delete(ctx context.Context, id string) error {
	return affected(r.g.db.WithContext(ctx).Where("id = ?", id).Delete(&contract.Contract{}))
}

type gormObligations struct{ g *gormStore }

const obligationOrder = "due_date ASC NULLS LAST, created_at ASC"

func (r gormObligations) Create(ctx context.Context, o *contract.Obligation) error {
	o.ID = newID(o.ID)
	stamp(&o.CreatedAt)
	return r.g.db.WithContext(ctx).Create(o).Error
}

func (r gormObligations) Get(ctx context.Context, id string) (*contract.Obligation, error) {
	return gormGet[contract.Obligation](ctx, r.g.db, id)
}

func (r gormObligations) List(ctx context.Context) ([]*contract.Obligation, error) {
	return gormList[contract.Obligation](ctx, r.g.db, obligationOrder)
}

func (r gormObligations) ListByContract(ctx context.Context, contractID string) ([]*contract.Obligation, error) {
	return gormList[contract.Obligation](ctx, r.g.db, obligationOrder, "contract_id = ?", contractID)
}

func (r gormObligations) SetStatus(ctx context.Context, id string, status contract.ObligationStatus) error {
	return affected(r.g.db.WithContext(ctx).Model(&contract.Obligation{}).Where("id = ?", id).Update("status", status))
}

func (r gormObligations) Delete(ctx context.Context, id string) error {
	return affected(r.g.db.WithContext(ctx).Where("id = ?", id).Delete(&contract.Obligation{}))
}

func (r gormObligations) DeleteByContract(ctx context.Context, contractID string) error {
	return r.g.db.WithContext(ctx).Where("contract_id = ?", contractID).Delete(&contract.Obligation{}).Error
}

type gormCategories struct{ g *gormStore }

func (r gormCategories) Create(ctx context.Context, c *contract.Category) error {
	c.ID = newID(c.ID)
	stamp(&c.CreatedAt)
	if err := r.g.db.WithContext(ctx).Create(c).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return contract.ErrConflict
		}
		return err
	}
	return nil
}

func (r gormCategories) Get(ctx context.Context, id string) (*contract.Category, error) {
	return gormGet[contract.Category](ctx, r.g.db, id)
}

func (r gormCategories) GetBySlug(ctx context.Context, slug string) (*contract.Category, error) {
	var c contract.Category
	if err := r.g.db.WithContext(ctx).Where("slug = ?", slug).First(&c).Error; err != nil {
		return nil, notFound(err)
	}
	return &c, nil
}

func (r gormCategories) List(ctx context.Context) ([]*contract.Category, error) {
	return gormList[contract.Category](ctx, r.g.db, "name ASC")
}

func (r gormCategories) Delete(ctx context.Context, id string) error {
	return affected(r.g.db.WithContext(ctx).Where("id = ?", id).Delete(&contract.Category{}))
}

type gormFiles struct{ g *gormStore }

func (r gormFiles) Create(ctx context.Context, f *contract.File) error {
	f.ID = newID(f.ID)
	stamp(&f.CreatedAt)
	return r.g.db.WithContext(ctx).Create(f).Error
}

func (r gormFiles) Get(ctx context.Context, id string) (*contract.File, error) {
	return gormGet[contract.File](ctx, r.g.db, id)
}

func (r gormFiles) ListByContract(ctx context.Context, contractID string) ([]*contract.File, error) {
	return gormList[contract.File](ctx, r.g.db, "created_at DESC", "contract_id = ?", contractID)
}

func (r gormFiles) Delete(ctx context.Context, id string) error {
	return affected(r.g.db.WithContext(ctx).Where("id = ?", id).Delete(&contract.File{}))
}

func (r gormFiles) DeleteByContract(ctx context.Context, contractID string) error {
	return r.g.db.WithContext(ctx).Where("contract_id = ?", contractID).Delete(&contract.File{}).Error
}

type gormHistory struct{ g *gormStore }

func (r gormHistory) Append(ctx context.Context, e *contract.StatusHistoryEntry) error {
	e.ID = newID(e.ID)
	stamp(&e.CreatedAt)
	return r.g.db.WithContext(ctx).Create(e).Error
}

func (r gormHistory) ListByContract(ctx context.Context, contractID string) ([]*contract.StatusHistoryEntry, error) {
	return gormList[contract.StatusHistoryEntry](ctx, r.g.db, "created_at ASC", "contract_id = ?", contractID)
}

func (r gormHistory) DeleteByContract(ctx context.Context, contractID string) error {
	return r.g.db.WithContext(ctx).Where("contract_id = ?", contractID).Delete(&contract.StatusHistoryEntry{}).Error
}
