package tenantresolve

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"testing"

	dbutil "github.com/acmprop/acmprop/internal/db"
	"github.com/acmprop/acmprop/internal/models"
	"gorm.io/gorm"
)

var testDBSeq atomic.Int64

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:tenantresolve_test_%d?mode=memory&cache=shared", testDBSeq.Add(1))
	conn, errOpen := dbutil.Open(dsn)
	if errOpen != nil {
		t.Fatalf("open test db: %v", errOpen)
	}
	if errMigrate := dbutil.Migrate(conn); errMigrate != nil {
		t.Fatalf("migrate test db: %v", errMigrate)
	}
	return conn
}

func seedUser(t *testing.T, conn *gorm.DB, username, role string) *models.User {
	t.Helper()
	user := &models.User{
		Username: username,
		Name:     username,
		Email:    username + "@example.com",
		Password: "x",
		Role:     role,
		Active:   true,
	}
	if errCreate := conn.Create(user).Error; errCreate != nil {
		t.Fatalf("seed user %s: %v", username, errCreate)
	}
	return user
}

func TestResolve_ByUserBinding(t *testing.T) {
	conn := openTestDB(t)
	owner := seedUser(t, conn, "dueno", "empresa")
	empresa := &models.Empresa{Name: "Sur Propiedades", CUIT: "30-1", OwnerUserID: owner.ID, IsEnabled: true}
	if errCreate := conn.Create(empresa).Error; errCreate != nil {
		t.Fatalf("seed empresa: %v", errCreate)
	}

	asesor := seedUser(t, conn, "asesor1", "asesor")
	if errUpdate := conn.Model(asesor).Update("empresa_id", empresa.ID).Error; errUpdate != nil {
		t.Fatalf("bind asesor: %v", errUpdate)
	}

	got, errResolve := Default().Resolve(context.Background(), conn, asesor.ID)
	if errResolve != nil {
		t.Fatalf("resolve: %v", errResolve)
	}
	if got.ID != empresa.ID {
		t.Fatalf("expected empresa %d, got %d", empresa.ID, got.ID)
	}
}

func TestResolve_FallsBackToOwnership(t *testing.T) {
	conn := openTestDB(t)
	owner := seedUser(t, conn, "dueno", "empresa")
	empresa := &models.Empresa{Name: "Sur Propiedades", CUIT: "30-1", OwnerUserID: owner.ID, IsEnabled: true}
	if errCreate := conn.Create(empresa).Error; errCreate != nil {
		t.Fatalf("seed empresa: %v", errCreate)
	}

	// Owner carries no binding column; ownership must still resolve.
	got, errResolve := Default().Resolve(context.Background(), conn, owner.ID)
	if errResolve != nil {
		t.Fatalf("resolve: %v", errResolve)
	}
	if got.ID != empresa.ID {
		t.Fatalf("expected empresa %d, got %d", empresa.ID, got.ID)
	}
}

func TestResolve_BindingWinsOverOwnership(t *testing.T) {
	conn := openTestDB(t)
	owner := seedUser(t, conn, "dueno", "empresa")
	owned := &models.Empresa{Name: "Vieja", CUIT: "30-1", OwnerUserID: owner.ID, IsEnabled: true}
	if errCreate := conn.Create(owned).Error; errCreate != nil {
		t.Fatalf("seed owned empresa: %v", errCreate)
	}
	bound := &models.Empresa{Name: "Nueva", CUIT: "30-2", OwnerUserID: owner.ID, IsEnabled: true}
	if errCreate := conn.Create(bound).Error; errCreate != nil {
		t.Fatalf("seed bound empresa: %v", errCreate)
	}
	if errUpdate := conn.Model(owner).Update("empresa_id", bound.ID).Error; errUpdate != nil {
		t.Fatalf("bind owner: %v", errUpdate)
	}

	got, errResolve := Default().Resolve(context.Background(), conn, owner.ID)
	if errResolve != nil {
		t.Fatalf("resolve: %v", errResolve)
	}
	if got.ID != bound.ID {
		t.Fatalf("binding must win over ownership: got %d, want %d", got.ID, bound.ID)
	}
}

func TestResolve_NoTenant(t *testing.T) {
	conn := openTestDB(t)
	staff := seedUser(t, conn, "soporte1", "soporte")

	if _, errResolve := Default().Resolve(context.Background(), conn, staff.ID); !errors.Is(errResolve, ErrNoTenant) {
		t.Fatalf("expected ErrNoTenant, got %v", errResolve)
	}
	if _, errResolve := Default().Resolve(context.Background(), conn, 9999); !errors.Is(errResolve, ErrNoTenant) {
		t.Fatalf("expected ErrNoTenant for unknown user, got %v", errResolve)
	}
}

func TestResolve_ChainOrderIsExplicit(t *testing.T) {
	conn := openTestDB(t)
	calls := make([]string, 0, 2)
	first := func(ctx context.Context, _ *gorm.DB, _ uint64) (*models.Empresa, error) {
		calls = append(calls, "first")
		return nil, nil
	}
	second := func(ctx context.Context, _ *gorm.DB, _ uint64) (*models.Empresa, error) {
		calls = append(calls, "second")
		return &models.Empresa{ID: 42}, nil
	}
	third := func(ctx context.Context, _ *gorm.DB, _ uint64) (*models.Empresa, error) {
		calls = append(calls, "third")
		return nil, nil
	}

	got, errResolve := NewResolver(first, second, third).Resolve(context.Background(), conn, 1)
	if errResolve != nil {
		t.Fatalf("resolve: %v", errResolve)
	}
	if got.ID != 42 {
		t.Fatalf("expected empresa 42, got %d", got.ID)
	}
	if len(calls) != 2 || calls[0] != "first" || calls[1] != "second" {
		t.Fatalf("chain must stop at the first hit, calls=%v", calls)
	}
}
