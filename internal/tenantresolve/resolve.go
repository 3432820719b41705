// Package tenantresolve maps an authenticated user to the empresa it acts
// for. Resolution is an explicit ordered chain of strategies; the first one
// that produces a tenant wins and the order is fixed at construction.
package tenantresolve

import (
	"context"
	"errors"
	"fmt"

	"github.com/acmprop/acmprop/internal/models"
	"gorm.io/gorm"
)

// ErrNoTenant indicates no strategy could bind the user to an empresa.
var ErrNoTenant = errors.New("tenantresolve: user has no empresa")

// Strategy attempts to resolve the empresa a user belongs to.
// Returning (nil, nil) means "not mine, try the next one"; an error aborts
// the whole chain.
type Strategy func(ctx context.Context, conn *gorm.DB, userID uint64) (*models.Empresa, error)

// ByUserBinding resolves through the user's empresa_id column, the binding
// asesores and empresa accounts carry.
func ByUserBinding(ctx context.Context, conn *gorm.DB, userID uint64) (*models.Empresa, error) {
	var user models.User
	errFind := conn.WithContext(ctx).First(&user, userID).Error
	if errFind != nil {
		if errors.Is(errFind, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("tenantresolve: query user: %w", errFind)
	}
	if user.EmpresaID == nil {
		return nil, nil
	}

	var empresa models.Empresa
	errEmpresa := conn.WithContext(ctx).First(&empresa, *user.EmpresaID).Error
	if errEmpresa != nil {
		if errors.Is(errEmpresa, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("tenantresolve: query empresa: %w", errEmpresa)
	}
	return &empresa, nil
}

// ByOwnership resolves through empresa ownership, covering owner accounts
// created before the binding column was backfilled.
func ByOwnership(ctx context.Context, conn *gorm.DB, userID uint64) (*models.Empresa, error) {
	var empresa models.Empresa
	errFind := conn.WithContext(ctx).
		Where("owner_user_id = ?", userID).
		Order("id ASC").
		First(&empresa).Error
	if errFind != nil {
		if errors.Is(errFind, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("tenantresolve: query owned empresa: %w", errFind)
	}
	return &empresa, nil
}

// Resolver runs a fixed strategy chain.
type Resolver struct {
	chain []Strategy
}

// NewResolver builds a resolver over the given chain, in order.
func NewResolver(chain ...Strategy) *Resolver {
	return &Resolver{chain: chain}
}

// Default returns the standard chain: user binding first, ownership second.
func Default() *Resolver {
	return NewResolver(ByUserBinding, ByOwnership)
}

// Resolve walks the chain and returns the first empresa found.
// Returns ErrNoTenant when every strategy passes.
func (r *Resolver) Resolve(ctx context.Context, conn *gorm.DB, userID uint64) (*models.Empresa, error) {
	if r == nil || conn == nil {
		return nil, fmt.Errorf("tenantresolve: nil resolver or connection")
	}
	for _, strategy := range r.chain {
		empresa, errResolve := strategy(ctx, conn, userID)
		if errResolve != nil {
			return nil, errResolve
		}
		if empresa != nil {
			return empresa, nil
		}
	}
	return nil, ErrNoTenant
}
