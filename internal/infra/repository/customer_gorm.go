package repository

import (
	"context"
	"fmt"

	"orderledger/internal/domain/model"
	repo "orderledger/internal/repository"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type CustomerGormRepository struct {
	db *gorm.DB
}

// DI
func NewCustomerGormRepository(db *gorm.DB) *CustomerGormRepository {
	return &CustomerGormRepository{db: db}
}

func (r *CustomerGormRepository) FindByID(ctx context.Context, id int64) (model.Customer, error) {
	return r.first(r.db.WithContext(ctx), id)
}

// SELECT ... FOR UPDATE。commit/rollbackまで同じ顧客の注文作成は待たされる
func (r *CustomerGormRepository) FindByIDForUpdate(ctx context.Context, id int64) (model.Customer, error) {
	return r.first(r.db.WithContext(ctx).Clauses(clause.Locking{Strength: "UPDATE"}), id)
}

func (r *CustomerGormRepository) first(db *gorm.DB, id int64) (model.Customer, error) {
	var c model.Customer
	err := db.Where("id = ?", id).First(&c).Error
	if isNotFound(err) {
		return model.Customer{}, repo.ErrNotFound
	}
	if err != nil {
		return model.Customer{}, err
	}
	return c, nil
}

func (r *CustomerGormRepository) FindByEmail(ctx context.Context, email string) (model.Customer, bool, error) {
	var c model.Customer
	err := r.db.WithContext(ctx).Where("email = ?", email).First(&c).Error
	if isNotFound(err) {
		return model.Customer{}, false, nil
	}
	if err != nil {
		return model.Customer{}, false, err
	}
	return c, true, nil
}

func (r *CustomerGormRepository) ListByName(ctx context.Context) ([]model.Customer, error) {
	var customers []model.Customer
	if err := r.db.WithContext(ctx).Order("name asc").Order("id asc").Find(&customers).Error; err != nil {
		return []model.Customer{}, err
	}
	return customers, nil
}

func (r *CustomerGormRepository) Create(ctx context.Context, c model.Customer) (model.Customer, error) {
	if err := r.db.WithContext(ctx).Create(&c).Error; err != nil {
		if isUniqueViolation(err) {
			return model.Customer{}, repo.ErrDuplicate
		}
		return model.Customer{}, err
	}
	return c, nil
}

// 毎回DBから集計し直す（キャッシュしない）
func (r *CustomerGormRepository) OpenBalance(ctx context.Context, customerID int64) (decimal.Decimal, error) {
	var total decimal.Decimal
	row := r.db.WithContext(ctx).
		Model(&model.Order{}).
		Select("COALESCE(SUM(amount_total), 0)").
		Where("customer_id = ? AND shipped_at IS NULL", customerID).
		Row()
	if err := row.Scan(&total); err != nil {
		return decimal.Zero, fmt.Errorf("sum open orders: %w", err)
	}
	return total, nil
}
