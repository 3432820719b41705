package front

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/acmprop/acmprop/internal/config"
	dbutil "github.com/acmprop/acmprop/internal/db"
	"github.com/acmprop/acmprop/internal/models"
	"github.com/acmprop/acmprop/internal/ratelimit"
	"github.com/acmprop/acmprop/internal/roles"
	"github.com/acmprop/acmprop/internal/security"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

var testDBSeq atomic.Int64

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:front_test_%d?mode=memory&cache=shared", testDBSeq.Add(1))
	conn, errOpen := dbutil.Open(dsn)
	if errOpen != nil {
		t.Fatalf("open test db: %v", errOpen)
	}
	if errMigrate := dbutil.Migrate(conn); errMigrate != nil {
		t.Fatalf("migrate test db: %v", errMigrate)
	}
	return conn
}

func newTestEngine(t *testing.T, conn *gorm.DB) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	engine := gin.New()
	jwtCfg := config.JWTConfig{Secret: "front-test-secret", Expiry: time.Hour}
	limiter := ratelimit.NewManager(config.RedisConfig{}, nil, nil)
	RegisterFrontRoutes(engine, conn, jwtCfg, limiter)
	return engine
}

func date(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

func seedTenant(t *testing.T, conn *gorm.DB, username, password string) (*models.User, *models.Empresa) {
	t.Helper()
	hashed, errHash := security.HashPassword(password)
	if errHash != nil {
		t.Fatalf("hash password: %v", errHash)
	}
	now := time.Now().UTC()
	owner := models.User{
		Username:  username,
		Email:     username + "@example.com",
		Password:  hashed,
		Role:      string(roles.RoleEmpresa),
		Active:    true,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if errCreate := conn.Create(&owner).Error; errCreate != nil {
		t.Fatalf("create owner: %v", errCreate)
	}
	empresa := models.Empresa{
		Name:        "Inmobiliaria " + username,
		CUIT:        fmt.Sprintf("30-%d-7", testDBSeq.Add(1)),
		OwnerUserID: owner.ID,
		IsEnabled:   true,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if errCreate := conn.Create(&empresa).Error; errCreate != nil {
		t.Fatalf("create empresa: %v", errCreate)
	}
	if errBind := conn.Model(&models.User{}).Where("id = ?", owner.ID).
		Update("empresa_id", empresa.ID).Error; errBind != nil {
		t.Fatalf("bind owner: %v", errBind)
	}
	return &owner, &empresa
}

func seedPlan(t *testing.T, conn *gorm.DB, name string, price float64) *models.Plan {
	t.Helper()
	plan := models.Plan{
		Name:         name,
		NetPrice:     price,
		DurationDays: 30,
		IsEnabled:    true,
	}
	if errCreate := conn.Create(&plan).Error; errCreate != nil {
		t.Fatalf("create plan: %v", errCreate)
	}
	return &plan
}

func doJSON(t *testing.T, engine *gin.Engine, method, path, token string, payload any) *httptest.ResponseRecorder {
	t.Helper()
	var body *bytes.Buffer
	if payload != nil {
		raw, errMarshal := json.Marshal(payload)
		if errMarshal != nil {
			t.Fatalf("marshal payload: %v", errMarshal)
		}
		body = bytes.NewBuffer(raw)
	} else {
		body = bytes.NewBuffer(nil)
	}
	req := httptest.NewRequest(method, path, body)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	engine.ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	if errDecode := json.Unmarshal(rec.Body.Bytes(), &out); errDecode != nil {
		t.Fatalf("decode response %q: %v", rec.Body.String(), errDecode)
	}
	return out
}

func login(t *testing.T, engine *gin.Engine, username, password string) string {
	t.Helper()
	rec := doJSON(t, engine, http.MethodPost, "/v0/auth/login", "", gin.H{
		"username": username,
		"password": password,
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("login status = %d, body %s", rec.Code, rec.Body.String())
	}
	token, _ := decodeBody(t, rec)["token"].(string)
	if token == "" {
		t.Fatal("login returned no token")
	}
	return token
}

func TestLogin_RejectsBadCredentialsAndInternalRoles(t *testing.T) {
	conn := openTestDB(t)
	engine := newTestEngine(t, conn)
	seedTenant(t, conn, "owner1", "secret-pass")

	rec := doJSON(t, engine, http.MethodPost, "/v0/auth/login", "", gin.H{
		"username": "owner1",
		"password": "wrong",
	})
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("bad password status = %d", rec.Code)
	}

	hashed, _ := security.HashPassword("admin-pass")
	admin := models.User{
		Username: "staff1",
		Password: hashed,
		Role:     string(roles.RoleSuperAdmin),
		Active:   true,
	}
	if errCreate := conn.Create(&admin).Error; errCreate != nil {
		t.Fatalf("create admin: %v", errCreate)
	}
	rec = doJSON(t, engine, http.MethodPost, "/v0/auth/login", "", gin.H{
		"username": "staff1",
		"password": "admin-pass",
	})
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("internal role login status = %d", rec.Code)
	}
}

func TestRoutes_RequireToken(t *testing.T) {
	conn := openTestDB(t)
	engine := newTestEngine(t, conn)

	rec := doJSON(t, engine, http.MethodGet, "/v0/plans", "", nil)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("unauthenticated status = %d", rec.Code)
	}
	rec = doJSON(t, engine, http.MethodGet, "/v0/subscription", "garbage-token", nil)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("bad token status = %d", rec.Code)
	}
}

func TestPlanChange_PreviewAndCommitFlow(t *testing.T) {
	conn := openTestDB(t)
	engine := newTestEngine(t, conn)
	_, empresa := seedTenant(t, conn, "owner2", "secret-pass")
	basic := seedPlan(t, conn, "Básico", 1000)
	pro := seedPlan(t, conn, "Pro", 1500)

	// 31-day cycle positioned so that 16 days remain as of today: the
	// commit path always bills as of the server date, so the window has to
	// straddle it.
	now := time.Now().UTC()
	today := date(now.Year(), now.Month(), now.Day())
	cycle := models.SubscriptionCycle{
		EmpresaID: empresa.ID,
		PlanID:    basic.ID,
		StartDate: today.AddDate(0, 0, -15),
		EndDate:   today.AddDate(0, 0, 15),
		State:     models.CycleStateActive,
	}
	if errCreate := conn.Create(&cycle).Error; errCreate != nil {
		t.Fatalf("create cycle: %v", errCreate)
	}

	token := login(t, engine, "owner2", "secret-pass")

	rec := doJSON(t, engine, http.MethodGet, "/v0/subscription", token, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("get subscription status = %d, body %s", rec.Code, rec.Body.String())
	}
	if got := decodeBody(t, rec)["plan_name"]; got != "Básico" {
		t.Fatalf("plan_name = %v, want Básico", got)
	}

	rec = doJSON(t, engine, http.MethodPost, "/v0/subscription/plan-change/preview", token, gin.H{
		"plan_id": pro.ID,
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("preview status = %d, body %s", rec.Code, rec.Body.String())
	}
	preview := decodeBody(t, rec)
	if preview["action"] != "upgrade" {
		t.Fatalf("action = %v, want upgrade", preview["action"])
	}
	delta, _ := preview["delta"].(map[string]any)
	if delta == nil {
		t.Fatalf("preview has no delta: %v", preview)
	}
	assertAmount(t, delta, "net", 258.06)
	assertAmount(t, delta, "tax", 54.19)
	assertAmount(t, delta, "total", 312.26)
	if delta["currency"] != "ARS" {
		t.Fatalf("currency = %v, want ARS", delta["currency"])
	}

	// Preview writes nothing.
	var lines int64
	if errCount := conn.Model(&models.BillingLine{}).Count(&lines).Error; errCount != nil {
		t.Fatalf("count lines: %v", errCount)
	}
	if lines != 0 {
		t.Fatalf("preview persisted %d billing lines", lines)
	}

	rec = doJSON(t, engine, http.MethodPost, "/v0/subscription/plan-change", token, gin.H{
		"plan_id": pro.ID,
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("commit status = %d, body %s", rec.Code, rec.Body.String())
	}

	rec = doJSON(t, engine, http.MethodGet, "/v0/subscription", token, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("get subscription after commit status = %d", rec.Code)
	}
	after := decodeBody(t, rec)
	if got := after["plan_name"]; got != "Pro" {
		t.Fatalf("plan after commit = %v, want Pro", got)
	}

	if errCount := conn.Model(&models.BillingLine{}).
		Where("empresa_id = ?", empresa.ID).
		Count(&lines).Error; errCount != nil {
		t.Fatalf("count lines: %v", errCount)
	}
	if lines != 1 {
		t.Fatalf("commit wrote %d billing lines, want 1", lines)
	}
}

func TestPlanChange_NoActiveCycleConflicts(t *testing.T) {
	conn := openTestDB(t)
	engine := newTestEngine(t, conn)
	seedTenant(t, conn, "owner3", "secret-pass")
	pro := seedPlan(t, conn, "Pro", 1500)

	token := login(t, engine, "owner3", "secret-pass")
	rec := doJSON(t, engine, http.MethodPost, "/v0/subscription/plan-change/preview", token, gin.H{
		"plan_id": pro.ID,
	})
	if rec.Code != http.StatusConflict {
		t.Fatalf("preview without cycle status = %d, body %s", rec.Code, rec.Body.String())
	}
}

func TestDisabledEmpresa_IsForbidden(t *testing.T) {
	conn := openTestDB(t)
	engine := newTestEngine(t, conn)
	_, empresa := seedTenant(t, conn, "owner4", "secret-pass")
	token := login(t, engine, "owner4", "secret-pass")

	if errUpdate := conn.Model(&models.Empresa{}).Where("id = ?", empresa.ID).
		Update("is_enabled", false).Error; errUpdate != nil {
		t.Fatalf("disable empresa: %v", errUpdate)
	}

	rec := doJSON(t, engine, http.MethodGet, "/v0/plans", token, nil)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("disabled empresa status = %d", rec.Code)
	}
}

func assertAmount(t *testing.T, body map[string]any, key string, want float64) {
	t.Helper()
	got, ok := body[key].(float64)
	if !ok {
		t.Fatalf("%s missing from %v", key, body)
	}
	if math.Abs(got-want) > 1e-9 {
		t.Fatalf("%s = %v, want %v", key, got, want)
	}
}
