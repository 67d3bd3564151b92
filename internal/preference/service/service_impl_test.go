package service_test

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"testing"
	"time"

	preferencedomain "github.com/elimisoft/shulefees/internal/preference/domain"
	preferenceservice "github.com/elimisoft/shulefees/internal/preference/service"
	"github.com/bwmarrin/snowflake"
	"github.com/glebarez/sqlite"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:memdb_%d?mode=memory&cache=shared", time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{TranslateError: true})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	err = db.AutoMigrate(
		&preferencedomain.GuardianFeePreference{},
		&preferencedomain.PreferenceHistory{},
	)
	if err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

func newPreferenceService(t *testing.T) (preferencedomain.Service, *snowflake.Node) {
	t.Helper()

	node, err := snowflake.NewNode(3)
	if err != nil {
		t.Fatalf("snowflake: %v", err)
	}
	svc := preferenceservice.NewService(preferenceservice.Params{
		DB:    setupTestDB(t),
		Log:   zap.NewNop(),
		GenID: node,
	})
	return svc, node
}

func baseRequest(node *snowflake.Node) preferencedomain.UpsertPreferenceRequest {
	return preferencedomain.UpsertPreferenceRequest{
		SchoolID:       node.Generate(),
		StudentID:      node.Generate(),
		AcademicTermID: node.Generate(),
		TuitionType:    preferencedomain.TuitionFullDay,
		IncludeFood:    true,
		IncludeSports:  true,
		UpdatedBy:      node.Generate(),
	}
}

func TestUpsertCreatesVersionOne(t *testing.T) {
	svc, node := newPreferenceService(t)
	ctx := context.Background()
	req := baseRequest(node)

	pref, err := svc.Upsert(ctx, req)
	if err != nil {
		t.Fatalf("upsert: %v", err)
	}
	if pref.Version != 1 {
		t.Fatalf("version = %d, want 1", pref.Version)
	}

	history, err := svc.History(ctx, req.SchoolID, pref.ID)
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	if len(history) != 0 {
		t.Fatalf("history on first write = %d rows, want 0", len(history))
	}
}

func TestUpsertSnapshotsBeforeOverwrite(t *testing.T) {
	svc, node := newPreferenceService(t)
	ctx := context.Background()
	req := baseRequest(node)

	first, err := svc.Upsert(ctx, req)
	if err != nil {
		t.Fatalf("first upsert: %v", err)
	}

	routeID := node.Generate()
	transportType := preferencedomain.TransportTwoWay
	req.TuitionType = preferencedomain.TuitionHalfDay
	req.TransportRouteID = &routeID
	req.TransportType = &transportType
	req.IncludeFood = false

	second, err := svc.Upsert(ctx, req)
	if err != nil {
		t.Fatalf("second upsert: %v", err)
	}
	if second.ID != first.ID {
		t.Fatalf("overwrite created a new row")
	}
	if second.Version != 2 {
		t.Fatalf("version = %d, want 2", second.Version)
	}
	if second.TuitionType != preferencedomain.TuitionHalfDay || second.IncludeFood {
		t.Fatalf("unexpected row after overwrite: %+v", second)
	}

	req.IncludeSports = false
	third, err := svc.Upsert(ctx, req)
	if err != nil {
		t.Fatalf("third upsert: %v", err)
	}
	if third.Version != 3 {
		t.Fatalf("version = %d, want 3", third.Version)
	}

	history, err := svc.History(ctx, req.SchoolID, first.ID)
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	if len(history) != 2 {
		t.Fatalf("history rows = %d, want 2", len(history))
	}
	if history[0].Version != 1 || history[1].Version != 2 {
		t.Fatalf("history versions = %d, %d", history[0].Version, history[1].Version)
	}

	var snapshot preferencedomain.GuardianFeePreference
	if err := json.Unmarshal(history[0].Snapshot, &snapshot); err != nil {
		t.Fatalf("unmarshal snapshot: %v", err)
	}
	if snapshot.TuitionType != preferencedomain.TuitionFullDay {
		t.Fatalf("snapshot tuition = %s, want full_day", snapshot.TuitionType)
	}
	if !snapshot.IncludeFood {
		t.Fatalf("snapshot lost the original include_food flag")
	}
}

func TestUpsertValidation(t *testing.T) {
	svc, node := newPreferenceService(t)
	ctx := context.Background()

	req := baseRequest(node)
	req.TuitionType = "boarding"
	if _, err := svc.Upsert(ctx, req); !errors.Is(err, preferencedomain.ErrInvalidPreference) {
		t.Fatalf("err = %v, want ErrInvalidPreference", err)
	}

	// A route without its transport type is incomplete.
	req = baseRequest(node)
	routeID := node.Generate()
	req.TransportRouteID = &routeID
	if _, err := svc.Upsert(ctx, req); !errors.Is(err, preferencedomain.ErrInvalidPreference) {
		t.Fatalf("err = %v, want ErrInvalidPreference", err)
	}

	req = baseRequest(node)
	badType := preferencedomain.TransportType("three_way")
	req.TransportRouteID = &routeID
	req.TransportType = &badType
	if _, err := svc.Upsert(ctx, req); !errors.Is(err, preferencedomain.ErrInvalidPreference) {
		t.Fatalf("err = %v, want ErrInvalidPreference", err)
	}

	req = baseRequest(node)
	req.StudentID = 0
	if _, err := svc.Upsert(ctx, req); !errors.Is(err, preferencedomain.ErrInvalidPreference) {
		t.Fatalf("err = %v, want ErrInvalidPreference", err)
	}

	req = baseRequest(node)
	req.SchoolID = 0
	if _, err := svc.Upsert(ctx, req); !errors.Is(err, preferencedomain.ErrInvalidPreference) {
		t.Fatalf("err = %v, want ErrInvalidPreference", err)
	}
}

func TestUpsertScopedToSchool(t *testing.T) {
	svc, node := newPreferenceService(t)
	ctx := context.Background()
	req := baseRequest(node)

	pref, err := svc.Upsert(ctx, req)
	if err != nil {
		t.Fatalf("upsert: %v", err)
	}

	// The same (student, term) pair under another school must not touch
	// this tenant's row.
	foreign := req
	foreign.SchoolID = node.Generate()
	foreign.TuitionType = preferencedomain.TuitionHalfDay
	if _, err := svc.Upsert(ctx, foreign); err == nil {
		t.Fatalf("cross-school upsert succeeded")
	}

	got, err := svc.Get(ctx, req.SchoolID, req.StudentID, req.AcademicTermID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got == nil || got.ID != pref.ID {
		t.Fatalf("preference row missing after cross-school upsert")
	}
	if got.Version != 1 || got.TuitionType != preferencedomain.TuitionFullDay {
		t.Fatalf("row mutated by cross-school upsert: %+v", got)
	}
}

func TestGetAbsentReturnsNil(t *testing.T) {
	svc, node := newPreferenceService(t)

	pref, err := svc.Get(context.Background(), node.Generate(), node.Generate(), node.Generate())
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if pref != nil {
		t.Fatalf("expected nil preference, got %+v", pref)
	}
}
