package usecase

import (
	"context"
	"errors"
	"strings"
	"time"

	"orderledger/internal/domain/model"
	repo "orderledger/internal/repository"

	"github.com/shopspring/decimal"
)

// 登録前の入力検証（DBを見ない部分）
type CatalogValidator interface {
	ValidateCustomer(ctx context.Context, name string, email string, creditLimit decimal.Decimal) error
	ValidateProduct(ctx context.Context, sku string, name string, unitPrice decimal.Decimal) error
}

// 顧客と商品の登録・一覧
type CatalogUsecase struct {
	tx        repo.TransactionManager
	validator CatalogValidator
	ledger    *Ledger
	clock     Clock
}

// DI
func NewCatalogUsecase(tx repo.TransactionManager, validator CatalogValidator, clock Clock) *CatalogUsecase {
	return &CatalogUsecase{tx: tx, validator: validator, ledger: NewLedger(), clock: clock}
}

type CreateCustomerInput struct {
	Name        string
	Email       string
	CreditLimit decimal.Decimal
}

type CustomerOutput struct {
	ID              int64     `json:"id"`
	Name            string    `json:"name"`
	Email           string    `json:"email"`
	CreditLimit     string    `json:"credit_limit"`
	Balance         string    `json:"balance"`
	AvailableCredit string    `json:"available_credit"`
	CreatedAt       time.Time `json:"created_at"`
}

type CreateProductInput struct {
	SKU       string
	Name      string
	UnitPrice decimal.Decimal
	IsActive  bool
}

type ProductOutput struct {
	ID        int64  `json:"id"`
	SKU       string `json:"sku"`
	Name      string `json:"name"`
	UnitPrice string `json:"unit_price"`
	IsActive  bool   `json:"is_active"`
}

func (u *CatalogUsecase) CreateCustomer(ctx context.Context, in CreateCustomerInput) (CustomerOutput, error) {
	name := strings.TrimSpace(in.Name)
	email := strings.ToLower(strings.TrimSpace(in.Email))

	if err := u.validator.ValidateCustomer(ctx, name, email, in.CreditLimit); err != nil {
		return CustomerOutput{}, err
	}

	var out CustomerOutput

	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		//email重複チェック
		_, found, err := r.Customers().FindByEmail(ctx, email)
		if err != nil {
			return err
		}
		if found {
			return &ConflictError{Message: "a customer with this email already exists"}
		}

		now := u.clock.Now().UTC()
		c, err := r.Customers().Create(ctx, model.Customer{
			Name:        name,
			Email:       email,
			CreditLimit: in.CreditLimit,
			CreatedAt:   now,
			UpdatedAt:   now,
		})
		//同時登録で先を越された
		if errors.Is(err, repo.ErrDuplicate) {
			return &ConflictError{Message: "a customer with this email already exists"}
		}
		if err != nil {
			return err
		}

		if err := writeAudit(ctx, r, model.AuditLog{
			Action:       model.AuditActionCreateCustomer,
			ResourceType: model.AuditResourceCustomer,
			ResourceID:   c.ID,
			CreatedAt:    now,
		}, nil, map[string]any{
			"email":        c.Email,
			"credit_limit": model.FormatMoney(c.CreditLimit),
		}); err != nil {
			return err
		}

		out = toCustomerOutput(c, decimal.Zero)
		return nil
	})
	if err != nil {
		return CustomerOutput{}, err
	}
	return out, nil
}

func (u *CatalogUsecase) CreateProduct(ctx context.Context, in CreateProductInput) (ProductOutput, error) {
	sku := strings.TrimSpace(in.SKU)
	name := strings.TrimSpace(in.Name)

	if err := u.validator.ValidateProduct(ctx, sku, name, in.UnitPrice); err != nil {
		return ProductOutput{}, err
	}

	var out ProductOutput

	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		_, found, err := r.Products().FindBySKU(ctx, sku)
		if err != nil {
			return err
		}
		if found {
			return &ConflictError{Message: "a product with this SKU already exists"}
		}

		now := u.clock.Now().UTC()
		p, err := r.Products().Create(ctx, model.Product{
			SKU:       sku,
			Name:      name,
			UnitPrice: in.UnitPrice,
			IsActive:  in.IsActive,
			CreatedAt: now,
		})
		if errors.Is(err, repo.ErrDuplicate) {
			return &ConflictError{Message: "a product with this SKU already exists"}
		}
		if err != nil {
			return err
		}

		if err := writeAudit(ctx, r, model.AuditLog{
			Action:       model.AuditActionCreateProduct,
			ResourceType: model.AuditResourceProduct,
			ResourceID:   p.ID,
			CreatedAt:    now,
		}, nil, map[string]any{
			"sku":        p.SKU,
			"unit_price": model.FormatMoney(p.UnitPrice),
			"is_active":  p.IsActive,
		}); err != nil {
			return err
		}

		out = toProductOutput(p)
		return nil
	})
	if err != nil {
		return ProductOutput{}, err
	}
	return out, nil
}

// 名前順。残高と利用可能額も付ける
func (u *CatalogUsecase) ListCustomers(ctx context.Context) ([]CustomerOutput, error) {
	var outs []CustomerOutput

	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		customers, err := r.Customers().ListByName(ctx)
		if err != nil {
			return err
		}

		outs = make([]CustomerOutput, 0, len(customers))
		for _, c := range customers {
			balance, err := u.ledger.Balance(ctx, r, c.ID)
			if err != nil {
				return err
			}
			outs = append(outs, toCustomerOutput(c, balance))
		}
		return nil
	})
	if err != nil {
		return []CustomerOutput{}, err
	}
	return outs, nil
}

func (u *CatalogUsecase) GetCustomer(ctx context.Context, customerID int64) (CustomerOutput, error) {
	if customerID <= 0 {
		return CustomerOutput{}, NewValidationError("invalid customer id")
	}

	var out CustomerOutput

	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		c, err := u.ledger.GetCustomer(ctx, r, customerID)
		if err != nil {
			return err
		}
		balance, err := u.ledger.Balance(ctx, r, c.ID)
		if err != nil {
			return err
		}
		out = toCustomerOutput(c, balance)
		return nil
	})
	if err != nil {
		return CustomerOutput{}, err
	}
	return out, nil
}

// 公開中の商品だけ、名前順
func (u *CatalogUsecase) ListActiveProducts(ctx context.Context) ([]ProductOutput, error) {
	var outs []ProductOutput

	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		products, err := r.Products().ListActive(ctx)
		if err != nil {
			return err
		}
		outs = make([]ProductOutput, 0, len(products))
		for _, p := range products {
			outs = append(outs, toProductOutput(p))
		}
		return nil
	})
	if err != nil {
		return []ProductOutput{}, err
	}
	return outs, nil
}

func toCustomerOutput(c model.Customer, balance decimal.Decimal) CustomerOutput {
	return CustomerOutput{
		ID:              c.ID,
		Name:            c.Name,
		Email:           c.Email,
		CreditLimit:     model.FormatMoney(c.CreditLimit),
		Balance:         model.FormatMoney(balance),
		AvailableCredit: model.FormatMoney(c.CreditLimit.Sub(balance)),
		CreatedAt:       c.CreatedAt,
	}
}

func toProductOutput(p model.Product) ProductOutput {
	return ProductOutput{
		ID:        p.ID,
		SKU:       p.SKU,
		Name:      p.Name,
		UnitPrice: model.FormatMoney(p.UnitPrice),
		IsActive:  p.IsActive,
	}
}
