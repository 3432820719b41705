package db

import (
	"encoding/json"
	"fmt"
	"sync/atomic"
	"testing"

	"github.com/acmprop/acmprop/internal/models"
	internalsettings "github.com/acmprop/acmprop/internal/settings"
	"gorm.io/gorm"
)

var testDBSeq atomic.Int64

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:db_test_%d?mode=memory&cache=shared", testDBSeq.Add(1))
	conn, errOpen := Open(dsn)
	if errOpen != nil {
		t.Fatalf("open test db: %v", errOpen)
	}
	return conn
}

func TestMigrate_CreatesSchemaAndSeedsSettings(t *testing.T) {
	conn := openTestDB(t)
	if errMigrate := Migrate(conn); errMigrate != nil {
		t.Fatalf("migrate: %v", errMigrate)
	}

	for _, model := range migratedModels {
		if !conn.Migrator().HasTable(model) {
			t.Fatalf("missing table for %T", model)
		}
	}

	var taxRate models.Setting
	if errFind := conn.Where("key = ?", internalsettings.TaxRateKey).First(&taxRate).Error; errFind != nil {
		t.Fatalf("tax rate setting not seeded: %v", errFind)
	}
	var rate float64
	if errUnmarshal := json.Unmarshal(taxRate.Value, &rate); errUnmarshal != nil {
		t.Fatalf("tax rate value %q: %v", string(taxRate.Value), errUnmarshal)
	}
	if rate != internalsettings.DefaultTaxRate {
		t.Fatalf("seeded tax rate = %v, want %v", rate, internalsettings.DefaultTaxRate)
	}

	var currency models.Setting
	if errFind := conn.Where("key = ?", internalsettings.DefaultCurrencyKey).First(&currency).Error; errFind != nil {
		t.Fatalf("currency setting not seeded: %v", errFind)
	}
}

func TestMigrate_IsIdempotent(t *testing.T) {
	conn := openTestDB(t)
	for i := 0; i < 2; i++ {
		if errMigrate := Migrate(conn); errMigrate != nil {
			t.Fatalf("migrate pass %d: %v", i+1, errMigrate)
		}
	}

	var count int64
	if errCount := conn.Model(&models.Setting{}).Count(&count).Error; errCount != nil {
		t.Fatalf("count settings: %v", errCount)
	}
	if count != 4 {
		t.Fatalf("settings seeded twice: count = %d, want 4", count)
	}
}

func TestMigrate_EnforcesSingleActiveCycle(t *testing.T) {
	conn := openTestDB(t)
	if errMigrate := Migrate(conn); errMigrate != nil {
		t.Fatalf("migrate: %v", errMigrate)
	}

	owner := models.User{Username: "dup-owner", Password: "x", Role: "empresa", Active: true}
	if errCreate := conn.Create(&owner).Error; errCreate != nil {
		t.Fatalf("create owner: %v", errCreate)
	}
	empresa := models.Empresa{Name: "Dup SA", CUIT: "30-11111111-1", OwnerUserID: owner.ID, IsEnabled: true}
	if errCreate := conn.Create(&empresa).Error; errCreate != nil {
		t.Fatalf("create empresa: %v", errCreate)
	}
	plan := models.Plan{Name: "Básico", NetPrice: 1000, DurationDays: 30, IsEnabled: true}
	if errCreate := conn.Create(&plan).Error; errCreate != nil {
		t.Fatalf("create plan: %v", errCreate)
	}

	first := models.SubscriptionCycle{EmpresaID: empresa.ID, PlanID: plan.ID, State: models.CycleStateActive}
	if errCreate := conn.Create(&first).Error; errCreate != nil {
		t.Fatalf("create first cycle: %v", errCreate)
	}
	second := models.SubscriptionCycle{EmpresaID: empresa.ID, PlanID: plan.ID, State: models.CycleStateActive}
	if errCreate := conn.Create(&second).Error; errCreate == nil {
		t.Fatal("second active cycle was accepted")
	} else if !IsUniqueViolation(errCreate) {
		t.Fatalf("second active cycle error = %v, want unique violation", errCreate)
	}

	// Cancelled cycles are unconstrained.
	cancelled := models.SubscriptionCycle{EmpresaID: empresa.ID, PlanID: plan.ID, State: models.CycleStateCancelled}
	if errCreate := conn.Create(&cancelled).Error; errCreate != nil {
		t.Fatalf("create cancelled cycle: %v", errCreate)
	}
}
