package service_test

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	academicsdomain "github.com/elimisoft/shulefees/internal/academics/domain"
	academicsservice "github.com/elimisoft/shulefees/internal/academics/service"
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
		&academicsdomain.School{},
		&academicsdomain.AcademicYear{},
		&academicsdomain.AcademicTerm{},
		&academicsdomain.Guardian{},
		&academicsdomain.Student{},
	)
	if err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

type fixture struct {
	db       *gorm.DB
	node     *snowflake.Node
	svc      academicsdomain.Service
	school   academicsdomain.School
	year     academicsdomain.AcademicYear
	term1    academicsdomain.AcademicTerm
	term2    academicsdomain.AcademicTerm
	guardian academicsdomain.Guardian
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	db := setupTestDB(t)
	node, err := snowflake.NewNode(1)
	if err != nil {
		t.Fatalf("snowflake: %v", err)
	}
	svc := academicsservice.NewService(academicsservice.Params{DB: db, Log: zap.NewNop()})

	f := &fixture{db: db, node: node, svc: svc}
	f.school = academicsdomain.School{ID: node.Generate(), Name: "Mwangaza Academy", ShortCode: "MWA"}
	f.year = academicsdomain.AcademicYear{
		ID:       node.Generate(),
		SchoolID: f.school.ID,
		Year:     2026,
		StartsOn: time.Date(2026, 1, 5, 0, 0, 0, 0, time.UTC),
		EndsOn:   time.Date(2026, 11, 20, 0, 0, 0, 0, time.UTC),
	}
	f.term1 = academicsdomain.AcademicTerm{
		ID:             node.Generate(),
		SchoolID:       f.school.ID,
		AcademicYearID: f.year.ID,
		TermNumber:     1,
		StartsOn:       f.year.StartsOn,
		EndsOn:         time.Date(2026, 4, 3, 0, 0, 0, 0, time.UTC),
		IsActive:       true,
	}
	f.term2 = academicsdomain.AcademicTerm{
		ID:             node.Generate(),
		SchoolID:       f.school.ID,
		AcademicYearID: f.year.ID,
		TermNumber:     2,
		StartsOn:       time.Date(2026, 5, 4, 0, 0, 0, 0, time.UTC),
		EndsOn:         time.Date(2026, 8, 7, 0, 0, 0, 0, time.UTC),
	}
	f.guardian = academicsdomain.Guardian{ID: node.Generate(), SchoolID: f.school.ID, FullName: "Grace Wanjiku"}

	for _, row := range []any{&f.school, &f.year, &f.term1, &f.term2, &f.guardian} {
		if err := db.Create(row).Error; err != nil {
			t.Fatalf("seed: %v", err)
		}
	}
	return f
}

func (f *fixture) addStudent(t *testing.T, name string, grade academicsdomain.Grade, active bool) academicsdomain.Student {
	t.Helper()
	student := academicsdomain.Student{
		ID:         f.node.Generate(),
		SchoolID:   f.school.ID,
		GuardianID: f.guardian.ID,
		FullName:   name,
		Grade:      grade,
		IsActive:   active,
	}
	if err := f.db.Create(&student).Error; err != nil {
		t.Fatalf("seed student: %v", err)
	}
	return student
}

func TestActivateTermDeactivatesOthers(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	if err := f.svc.ActivateTerm(ctx, f.school.ID, f.term2.ID); err != nil {
		t.Fatalf("activate: %v", err)
	}

	active, err := f.svc.ActiveTerm(ctx, f.school.ID)
	if err != nil {
		t.Fatalf("active term: %v", err)
	}
	if active.ID != f.term2.ID {
		t.Fatalf("active term = %s, want %s", active.ID, f.term2.ID)
	}

	var count int64
	if err := f.db.Model(&academicsdomain.AcademicTerm{}).
		Where("school_id = ? AND is_active = ?", f.school.ID, true).
		Count(&count).Error; err != nil {
		t.Fatalf("count: %v", err)
	}
	if count != 1 {
		t.Fatalf("active terms = %d, want 1", count)
	}
}

func TestActivateTermUnknownTerm(t *testing.T) {
	f := newFixture(t)

	err := f.svc.ActivateTerm(context.Background(), f.school.ID, f.node.Generate())
	if !errors.Is(err, academicsdomain.ErrTermNotFound) {
		t.Fatalf("err = %v, want ErrTermNotFound", err)
	}
}

func TestTermContextBundlesYear(t *testing.T) {
	f := newFixture(t)

	termCtx, err := f.svc.TermContext(context.Background(), f.school.ID, f.term1.ID)
	if err != nil {
		t.Fatalf("term context: %v", err)
	}
	if termCtx.Term.TermNumber != 1 {
		t.Fatalf("term number = %d, want 1", termCtx.Term.TermNumber)
	}
	if termCtx.Year.Year != 2026 {
		t.Fatalf("year = %d, want 2026", termCtx.Year.Year)
	}
}

func TestActiveStudentsFiltersInactive(t *testing.T) {
	f := newFixture(t)
	first := f.addStudent(t, "Amina Wanjiku", academicsdomain.Grade4, true)
	second := f.addStudent(t, "Brian Wanjiku", academicsdomain.Grade6, true)
	f.addStudent(t, "Carol Wanjiku", academicsdomain.Grade2, false)

	students, err := f.svc.ActiveStudents(context.Background(), f.school.ID, f.guardian.ID)
	if err != nil {
		t.Fatalf("active students: %v", err)
	}
	if len(students) != 2 {
		t.Fatalf("students = %d, want 2", len(students))
	}
	if students[0].ID != first.ID || students[1].ID != second.ID {
		t.Fatalf("students out of order: %v, %v", students[0].ID, students[1].ID)
	}
}

func TestGetStudentScopedToSchool(t *testing.T) {
	f := newFixture(t)
	student := f.addStudent(t, "Amina Wanjiku", academicsdomain.Grade4, true)

	otherSchool := f.node.Generate()
	_, err := f.svc.GetStudent(context.Background(), otherSchool, student.ID)
	if !errors.Is(err, academicsdomain.ErrStudentNotFound) {
		t.Fatalf("err = %v, want ErrStudentNotFound", err)
	}

	got, err := f.svc.GetStudent(context.Background(), f.school.ID, student.ID)
	if err != nil {
		t.Fatalf("get student: %v", err)
	}
	if got.Grade != academicsdomain.Grade4 {
		t.Fatalf("grade = %s, want Grade 4", got.Grade)
	}
}

func TestGetGuardianUnknown(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.GetGuardian(context.Background(), f.school.ID, f.node.Generate())
	if !errors.Is(err, academicsdomain.ErrGuardianNotFound) {
		t.Fatalf("err = %v, want ErrGuardianNotFound", err)
	}
}
