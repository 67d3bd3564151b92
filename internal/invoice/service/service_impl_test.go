package service_test

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	academicsdomain "github.com/elimisoft/shulefees/internal/academics/domain"
	academicsservice "github.com/elimisoft/shulefees/internal/academics/service"
	adjustmentdomain "github.com/elimisoft/shulefees/internal/adjustment/domain"
	adjustmentservice "github.com/elimisoft/shulefees/internal/adjustment/service"
	catalogdomain "github.com/elimisoft/shulefees/internal/catalog/domain"
	catalogservice "github.com/elimisoft/shulefees/internal/catalog/service"
	"github.com/elimisoft/shulefees/internal/clock"
	feeresolverservice "github.com/elimisoft/shulefees/internal/feeresolver/service"
	invoicedomain "github.com/elimisoft/shulefees/internal/invoice/domain"
	invoiceservice "github.com/elimisoft/shulefees/internal/invoice/service"
	ledgerdomain "github.com/elimisoft/shulefees/internal/ledger/domain"
	preferencedomain "github.com/elimisoft/shulefees/internal/preference/domain"
	preferenceservice "github.com/elimisoft/shulefees/internal/preference/service"
	"github.com/bwmarrin/snowflake"
	"github.com/glebarez/sqlite"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var baseTime = time.Date(2026, 2, 10, 9, 0, 0, 0, time.UTC)

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
		&catalogdomain.TuitionFee{},
		&catalogdomain.TransportRoute{},
		&catalogdomain.UniversalFee{},
		&catalogdomain.FeeCategory{},
		&catalogdomain.FeeAmount{},
		&preferencedomain.GuardianFeePreference{},
		&preferencedomain.PreferenceHistory{},
		&adjustmentdomain.GuardianFeeAdjustment{},
		&invoicedomain.GuardianInvoice{},
		&invoicedomain.InvoiceLineItem{},
		&ledgerdomain.GuardianPayment{},
	)
	if err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

type fixture struct {
	db    *gorm.DB
	node  *snowflake.Node
	clock *clock.FakeClock

	svc        invoicedomain.Service
	catalogSvc catalogdomain.Service

	school   academicsdomain.School
	year     academicsdomain.AcademicYear
	term1    academicsdomain.AcademicTerm
	term2    academicsdomain.AcademicTerm
	guardian academicsdomain.Guardian
	admin    snowflake.ID
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	db := setupTestDB(t)
	node, err := snowflake.NewNode(6)
	if err != nil {
		t.Fatalf("snowflake: %v", err)
	}
	logger := zap.NewNop()
	fake := clock.NewFakeClock(baseTime)

	academics := academicsservice.NewService(academicsservice.Params{DB: db, Log: logger})
	catalogParams := catalogservice.Params{DB: db, Log: logger, GenID: node}
	catalogSvc := catalogservice.NewService(catalogParams)
	resolver := feeresolverservice.NewService(feeresolverservice.Params{
		Log:           logger,
		Academics:     academics,
		Catalog:       catalogservice.NewReader(catalogParams),
		PreferenceSvc: preferenceservice.NewService(preferenceservice.Params{DB: db, Log: logger, GenID: node}),
		AdjustmentSvc: adjustmentservice.NewService(adjustmentservice.Params{DB: db, Log: logger, GenID: node}),
	})
	svc := invoiceservice.NewService(invoiceservice.Params{
		DB:        db,
		Log:       logger,
		GenID:     node,
		Clock:     fake,
		Academics: academics,
		Resolver:  resolver,
	})

	f := &fixture{db: db, node: node, clock: fake, svc: svc, catalogSvc: catalogSvc, admin: node.Generate()}

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

	// Tuition for the grades used in the tests, plus one universal fee.
	for _, grade := range []academicsdomain.Grade{academicsdomain.Grade4, academicsdomain.Grade6} {
		if _, err := catalogSvc.UpsertTuitionFee(context.Background(), catalogdomain.UpsertTuitionFeeRequest{
			SchoolID:       f.school.ID,
			AcademicYearID: f.year.ID,
			Grade:          grade,
			AmountFullDay:  120000,
			AmountHalfDay:  80000,
		}); err != nil {
			t.Fatalf("seed tuition: %v", err)
		}
	}
	if _, err := catalogSvc.UpsertUniversalFee(context.Background(), catalogdomain.UpsertUniversalFeeRequest{
		SchoolID:       f.school.ID,
		AcademicYearID: f.year.ID,
		FeeType:        catalogdomain.UniversalFeeFood,
		Amount:         10000,
	}); err != nil {
		t.Fatalf("seed food: %v", err)
	}
	return f
}

func (f *fixture) addStudent(t *testing.T, guardianID snowflake.ID, name string, grade academicsdomain.Grade) academicsdomain.Student {
	t.Helper()
	student := academicsdomain.Student{
		ID:         f.node.Generate(),
		SchoolID:   f.school.ID,
		GuardianID: guardianID,
		FullName:   name,
		Grade:      grade,
		IsActive:   true,
	}
	if err := f.db.Create(&student).Error; err != nil {
		t.Fatalf("seed student: %v", err)
	}
	return student
}

func (f *fixture) generate(t *testing.T, req invoicedomain.GenerateRequest) *invoicedomain.GuardianInvoice {
	t.Helper()
	if req.SchoolID == 0 {
		req.SchoolID = f.school.ID
	}
	if req.GuardianID == 0 {
		req.GuardianID = f.guardian.ID
	}
	if req.AcademicTermID == 0 {
		req.AcademicTermID = f.term1.ID
	}
	if req.GeneratedBy == 0 {
		req.GeneratedBy = f.admin
	}
	invoice, err := f.svc.Generate(context.Background(), req)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	return invoice
}

func TestGenerateAggregatesChildren(t *testing.T) {
	f := newFixture(t)
	first := f.addStudent(t, f.guardian.ID, "Amina Wanjiku", academicsdomain.Grade4)
	f.addStudent(t, f.guardian.ID, "Brian Wanjiku", academicsdomain.Grade6)

	invoice := f.generate(t, invoicedomain.GenerateRequest{})

	if invoice.InvoiceNumber != "INV-2026-T1-0001" {
		t.Fatalf("invoice number = %q", invoice.InvoiceNumber)
	}
	// Two children at 1300.00 each: tuition 1200.00 + food 100.00.
	if invoice.SubtotalAmount != 260000 {
		t.Fatalf("subtotal = %d, want 260000", invoice.SubtotalAmount)
	}
	if invoice.TotalAmount != 260000 || invoice.BalanceDue != 260000 {
		t.Fatalf("total/balance = %d/%d, want 260000 each", invoice.TotalAmount, invoice.BalanceDue)
	}
	if invoice.Status != invoicedomain.StatusPending {
		t.Fatalf("status = %s, want pending", invoice.Status)
	}
	if wantDue := baseTime.Add(30 * 24 * time.Hour); !invoice.DueDate.Equal(wantDue) {
		t.Fatalf("due date = %s, want %s", invoice.DueDate, wantDue)
	}

	got, items, err := f.svc.Get(context.Background(), f.school.ID, invoice.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Sequence != 1 {
		t.Fatalf("sequence = %d, want 1", got.Sequence)
	}
	if len(items) != 2 {
		t.Fatalf("line items = %d, want 2", len(items))
	}
	if items[0].StudentID != first.ID || items[0].StudentName != "Amina Wanjiku" || items[0].GradeName != "Grade 4" {
		t.Fatalf("unexpected first line item: %+v", items[0])
	}
	if items[0].TotalAmount != 130000 {
		t.Fatalf("line total = %d, want 130000", items[0].TotalAmount)
	}
	if len(items[0].FeeBreakdown) != 2 {
		t.Fatalf("breakdown keys = %d, want 2", len(items[0].FeeBreakdown))
	}
}

func TestGenerateAppliesDiscount(t *testing.T) {
	f := newFixture(t)
	f.addStudent(t, f.guardian.ID, "Amina Wanjiku", academicsdomain.Grade4)

	invoice := f.generate(t, invoicedomain.GenerateRequest{DiscountPercentage: 10})

	if invoice.SubtotalAmount != 130000 {
		t.Fatalf("subtotal = %d, want 130000", invoice.SubtotalAmount)
	}
	if invoice.DiscountAmount != 13000 {
		t.Fatalf("discount = %d, want 13000", invoice.DiscountAmount)
	}
	if invoice.TotalAmount != 117000 || invoice.BalanceDue != 117000 {
		t.Fatalf("total/balance = %d/%d, want 117000 each", invoice.TotalAmount, invoice.BalanceDue)
	}
}

func TestGenerateTwiceFails(t *testing.T) {
	f := newFixture(t)
	f.addStudent(t, f.guardian.ID, "Amina Wanjiku", academicsdomain.Grade4)

	f.generate(t, invoicedomain.GenerateRequest{})

	_, err := f.svc.Generate(context.Background(), invoicedomain.GenerateRequest{
		SchoolID:       f.school.ID,
		GuardianID:     f.guardian.ID,
		AcademicTermID: f.term1.ID,
		GeneratedBy:    f.admin,
	})
	var exists *invoicedomain.InvoiceAlreadyExistsError
	if !errors.As(err, &exists) {
		t.Fatalf("err = %v, want InvoiceAlreadyExistsError", err)
	}
	if exists.GuardianID != f.guardian.ID {
		t.Fatalf("error names guardian %s, want %s", exists.GuardianID, f.guardian.ID)
	}
}

func TestGenerateWithoutChildrenIsBornPaid(t *testing.T) {
	f := newFixture(t)

	invoice := f.generate(t, invoicedomain.GenerateRequest{})

	if invoice.SubtotalAmount != 0 || invoice.TotalAmount != 0 {
		t.Fatalf("amounts = %d/%d, want zero", invoice.SubtotalAmount, invoice.TotalAmount)
	}
	if invoice.Status != invoicedomain.StatusPaid {
		t.Fatalf("status = %s, want paid", invoice.Status)
	}

	_, items, err := f.svc.Get(context.Background(), f.school.ID, invoice.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if len(items) != 0 {
		t.Fatalf("line items = %d, want 0", len(items))
	}
}

func TestSequencePerTerm(t *testing.T) {
	f := newFixture(t)
	f.addStudent(t, f.guardian.ID, "Amina Wanjiku", academicsdomain.Grade4)

	other := academicsdomain.Guardian{ID: f.node.Generate(), SchoolID: f.school.ID, FullName: "John Otieno"}
	if err := f.db.Create(&other).Error; err != nil {
		t.Fatalf("seed guardian: %v", err)
	}
	f.addStudent(t, other.ID, "Mary Otieno", academicsdomain.Grade6)

	first := f.generate(t, invoicedomain.GenerateRequest{})
	second := f.generate(t, invoicedomain.GenerateRequest{GuardianID: other.ID})
	if first.Sequence != 1 || second.Sequence != 2 {
		t.Fatalf("sequences = %d, %d, want 1, 2", first.Sequence, second.Sequence)
	}
	if second.InvoiceNumber != "INV-2026-T1-0002" {
		t.Fatalf("invoice number = %q", second.InvoiceNumber)
	}

	// A different term restarts its own sequence.
	term2Invoice := f.generate(t, invoicedomain.GenerateRequest{AcademicTermID: f.term2.ID})
	if term2Invoice.Sequence != 1 {
		t.Fatalf("term 2 sequence = %d, want 1", term2Invoice.Sequence)
	}
	if term2Invoice.InvoiceNumber != "INV-2026-T2-0001" {
		t.Fatalf("invoice number = %q", term2Invoice.InvoiceNumber)
	}
}

func TestSequenceSharedAcrossSchools(t *testing.T) {
	f := newFixture(t)
	f.addStudent(t, f.guardian.ID, "Amina Wanjiku", academicsdomain.Grade4)
	ctx := context.Background()

	// A second school with its own year 2026 / term 1 slot.
	school := academicsdomain.School{ID: f.node.Generate(), Name: "Upendo Primary", ShortCode: "UPP"}
	year := academicsdomain.AcademicYear{
		ID:       f.node.Generate(),
		SchoolID: school.ID,
		Year:     2026,
		StartsOn: f.year.StartsOn,
		EndsOn:   f.year.EndsOn,
	}
	term := academicsdomain.AcademicTerm{
		ID:             f.node.Generate(),
		SchoolID:       school.ID,
		AcademicYearID: year.ID,
		TermNumber:     1,
		StartsOn:       f.term1.StartsOn,
		EndsOn:         f.term1.EndsOn,
		IsActive:       true,
	}
	guardian := academicsdomain.Guardian{ID: f.node.Generate(), SchoolID: school.ID, FullName: "Peter Kamau"}
	student := academicsdomain.Student{
		ID:         f.node.Generate(),
		SchoolID:   school.ID,
		GuardianID: guardian.ID,
		FullName:   "Joy Kamau",
		Grade:      academicsdomain.Grade4,
		IsActive:   true,
	}
	for _, row := range []any{&school, &year, &term, &guardian, &student} {
		if err := f.db.Create(row).Error; err != nil {
			t.Fatalf("seed: %v", err)
		}
	}
	if _, err := f.catalogSvc.UpsertTuitionFee(ctx, catalogdomain.UpsertTuitionFeeRequest{
		SchoolID:       school.ID,
		AcademicYearID: year.ID,
		Grade:          academicsdomain.Grade4,
		AmountFullDay:  90000,
		AmountHalfDay:  60000,
	}); err != nil {
		t.Fatalf("seed tuition: %v", err)
	}

	first := f.generate(t, invoicedomain.GenerateRequest{})
	second := f.generate(t, invoicedomain.GenerateRequest{
		SchoolID:       school.ID,
		GuardianID:     guardian.ID,
		AcademicTermID: term.ID,
	})

	if first.InvoiceNumber != "INV-2026-T1-0001" {
		t.Fatalf("first invoice number = %q", first.InvoiceNumber)
	}
	if second.InvoiceNumber != "INV-2026-T1-0002" || second.Sequence != 2 {
		t.Fatalf("second invoice = %q seq %d, want INV-2026-T1-0002 seq 2", second.InvoiceNumber, second.Sequence)
	}
}

func TestDeleteThenRegenerate(t *testing.T) {
	f := newFixture(t)
	f.addStudent(t, f.guardian.ID, "Amina Wanjiku", academicsdomain.Grade4)
	ctx := context.Background()

	invoice := f.generate(t, invoicedomain.GenerateRequest{})

	if err := f.svc.Delete(ctx, f.school.ID, invoice.ID, f.admin); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, _, err := f.svc.Get(ctx, f.school.ID, invoice.ID); !errors.Is(err, invoicedomain.ErrInvoiceNotFound) {
		t.Fatalf("err = %v, want ErrInvoiceNotFound", err)
	}

	var orphans int64
	if err := f.db.Model(&invoicedomain.InvoiceLineItem{}).
		Where("invoice_id = ?", invoice.ID).
		Count(&orphans).Error; err != nil {
		t.Fatalf("count: %v", err)
	}
	if orphans != 0 {
		t.Fatalf("orphaned line items = %d", orphans)
	}

	regenerated := f.generate(t, invoicedomain.GenerateRequest{})
	if regenerated.ID == invoice.ID {
		t.Fatalf("regeneration reused the deleted invoice id")
	}
}

func TestDeleteRefusedWithPayments(t *testing.T) {
	f := newFixture(t)
	f.addStudent(t, f.guardian.ID, "Amina Wanjiku", academicsdomain.Grade4)
	ctx := context.Background()

	invoice := f.generate(t, invoicedomain.GenerateRequest{})

	payment := ledgerdomain.GuardianPayment{
		ID:            f.node.Generate(),
		SchoolID:      f.school.ID,
		InvoiceID:     invoice.ID,
		Amount:        5000,
		Method:        ledgerdomain.MethodCash,
		ReceiptNumber: "r-1",
		RecordedBy:    f.admin,
		PaidAt:        baseTime,
		CreatedAt:     baseTime,
	}
	if err := f.db.Create(&payment).Error; err != nil {
		t.Fatalf("seed payment: %v", err)
	}

	if err := f.svc.Delete(ctx, f.school.ID, invoice.ID, f.admin); !errors.Is(err, invoicedomain.ErrHasPayments) {
		t.Fatalf("err = %v, want ErrHasPayments", err)
	}

	// Voiding the payment unblocks the delete.
	voidedAt := baseTime
	if err := f.db.Model(&ledgerdomain.GuardianPayment{}).
		Where("id = ?", payment.ID).
		Update("voided_at", &voidedAt).Error; err != nil {
		t.Fatalf("void: %v", err)
	}
	if err := f.svc.Delete(ctx, f.school.ID, invoice.ID, f.admin); err != nil {
		t.Fatalf("delete after void: %v", err)
	}
}

func TestGenerateValidation(t *testing.T) {
	f := newFixture(t)

	cases := []invoicedomain.GenerateRequest{
		{GuardianID: f.guardian.ID, AcademicTermID: f.term1.ID, GeneratedBy: f.admin},
		{SchoolID: f.school.ID, AcademicTermID: f.term1.ID, GeneratedBy: f.admin},
		{SchoolID: f.school.ID, GuardianID: f.guardian.ID, GeneratedBy: f.admin},
		{SchoolID: f.school.ID, GuardianID: f.guardian.ID, AcademicTermID: f.term1.ID},
		{SchoolID: f.school.ID, GuardianID: f.guardian.ID, AcademicTermID: f.term1.ID, GeneratedBy: f.admin, DiscountPercentage: 150},
		{SchoolID: f.school.ID, GuardianID: f.guardian.ID, AcademicTermID: f.term1.ID, GeneratedBy: f.admin, DiscountPercentage: -5},
		{SchoolID: f.school.ID, GuardianID: f.guardian.ID, AcademicTermID: f.term1.ID, GeneratedBy: f.admin, PaymentPlan: "weekly"},
	}
	for i, req := range cases {
		if _, err := f.svc.Generate(context.Background(), req); !errors.Is(err, invoicedomain.ErrInvalidRequest) {
			t.Fatalf("case %d: err = %v, want ErrInvalidRequest", i, err)
		}
	}

	_, err := f.svc.Generate(context.Background(), invoicedomain.GenerateRequest{
		SchoolID:       f.school.ID,
		GuardianID:     f.node.Generate(),
		AcademicTermID: f.term1.ID,
		GeneratedBy:    f.admin,
	})
	if !errors.Is(err, academicsdomain.ErrGuardianNotFound) {
		t.Fatalf("err = %v, want ErrGuardianNotFound", err)
	}
}

func TestGeneratePaymentPlanDueDates(t *testing.T) {
	f := newFixture(t)
	f.addStudent(t, f.guardian.ID, "Amina Wanjiku", academicsdomain.Grade4)

	invoice := f.generate(t, invoicedomain.GenerateRequest{PaymentPlan: invoicedomain.PlanHalfHalf})

	if invoice.PaymentPlan != invoicedomain.PlanHalfHalf {
		t.Fatalf("plan = %s, want half_half", invoice.PaymentPlan)
	}
	if wantDue := baseTime.Add(60 * 24 * time.Hour); !invoice.DueDate.Equal(wantDue) {
		t.Fatalf("due date = %s, want %s", invoice.DueDate, wantDue)
	}
}

func TestListFilters(t *testing.T) {
	f := newFixture(t)
	f.addStudent(t, f.guardian.ID, "Amina Wanjiku", academicsdomain.Grade4)

	f.generate(t, invoicedomain.GenerateRequest{})
	f.generate(t, invoicedomain.GenerateRequest{AcademicTermID: f.term2.ID})

	all, err := f.svc.List(context.Background(), invoicedomain.ListRequest{SchoolID: f.school.ID})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(all) != 2 {
		t.Fatalf("invoices = %d, want 2", len(all))
	}

	byTerm, err := f.svc.List(context.Background(), invoicedomain.ListRequest{
		SchoolID:       f.school.ID,
		AcademicTermID: &f.term2.ID,
	})
	if err != nil {
		t.Fatalf("list by term: %v", err)
	}
	if len(byTerm) != 1 || byTerm[0].AcademicTermID != f.term2.ID {
		t.Fatalf("unexpected term filter result: %+v", byTerm)
	}

	paid := invoicedomain.StatusPaid
	byStatus, err := f.svc.List(context.Background(), invoicedomain.ListRequest{
		SchoolID: f.school.ID,
		Status:   &paid,
	})
	if err != nil {
		t.Fatalf("list by status: %v", err)
	}
	if len(byStatus) != 0 {
		t.Fatalf("paid invoices = %d, want 0", len(byStatus))
	}
}
