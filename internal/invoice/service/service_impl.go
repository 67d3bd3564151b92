package service

import (
	"context"
	"errors"

	academicsdomain "github.com/elimisoft/shulefees/internal/academics/domain"
	"github.com/elimisoft/shulefees/internal/clock"
	resolverdomain "github.com/elimisoft/shulefees/internal/feeresolver/domain"
	invoicedomain "github.com/elimisoft/shulefees/internal/invoice/domain"
	obsmetrics "github.com/elimisoft/shulefees/internal/observability/metrics"
	"github.com/elimisoft/shulefees/pkg/db"
	"github.com/bwmarrin/snowflake"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// invoiceNumberRetries bounds the retry loop when a number allocation loses
// a cross-school race on the globally unique invoice_number.
const invoiceNumberRetries = 5

var errDuplicateInvoiceNumber = errors.New("duplicate invoice number")

type Params struct {
	fx.In

	DB         *gorm.DB
	Log        *zap.Logger
	GenID      *snowflake.Node
	Clock      clock.Clock
	Academics  academicsdomain.Service
	Resolver   resolverdomain.Service
	ObsMetrics *obsmetrics.Metrics `optional:"true"`
}

type Service struct {
	db         *gorm.DB
	log        *zap.Logger
	genID      *snowflake.Node
	clock      clock.Clock
	academics  academicsdomain.Service
	resolver   resolverdomain.Service
	obsMetrics *obsmetrics.Metrics
}

func NewService(p Params) invoicedomain.Service {
	return &Service{
		db:         p.DB,
		log:        p.Log.Named("invoice.service"),
		genID:      p.GenID,
		clock:      p.Clock,
		academics:  p.Academics,
		resolver:   p.Resolver,
		obsMetrics: p.ObsMetrics,
	}
}

type lineSpec struct {
	studentID   snowflake.ID
	studentName string
	gradeName   string
	breakdown   resolverdomain.Breakdown
	total       int64
}

func (s *Service) Generate(ctx context.Context, req invoicedomain.GenerateRequest) (*invoicedomain.GuardianInvoice, error) {
	if req.SchoolID == 0 || req.GuardianID == 0 || req.AcademicTermID == 0 || req.GeneratedBy == 0 {
		return nil, invoicedomain.ErrInvalidRequest
	}
	if req.DiscountPercentage < 0 || req.DiscountPercentage > 100 {
		return nil, invoicedomain.ErrInvalidRequest
	}
	plan := req.PaymentPlan
	if plan == "" {
		plan = invoicedomain.PlanFull
	}
	if !plan.Valid() {
		return nil, invoicedomain.ErrInvalidRequest
	}

	termCtx, err := s.academics.TermContext(ctx, req.SchoolID, req.AcademicTermID)
	if err != nil {
		return nil, err
	}
	if _, err := s.academics.GetGuardian(ctx, req.SchoolID, req.GuardianID); err != nil {
		return nil, err
	}

	// Resolve every child up front; any resolver failure aborts the whole
	// generation before a single row is written.
	students, err := s.academics.ActiveStudents(ctx, req.SchoolID, req.GuardianID)
	if err != nil {
		return nil, err
	}
	lines := make([]lineSpec, 0, len(students))
	var subtotal int64
	for _, student := range students {
		breakdown, err := s.resolver.Resolve(ctx, req.SchoolID, student.ID, req.AcademicTermID)
		if err != nil {
			s.recordFailure()
			return nil, err
		}
		total := breakdown.Total()
		subtotal += total
		lines = append(lines, lineSpec{
			studentID:   student.ID,
			studentName: student.FullName,
			gradeName:   student.Grade.String(),
			breakdown:   breakdown,
			total:       total,
		})
	}

	for attempt := 0; attempt < invoiceNumberRetries; attempt++ {
		invoice, err := s.tryCreate(ctx, req, plan, termCtx, lines, subtotal)
		if errors.Is(err, errDuplicateInvoiceNumber) {
			s.log.Warn("invoice number collision, retrying",
				zap.Int("attempt", attempt+1),
				zap.String("guardian_id", req.GuardianID.String()),
			)
			continue
		}
		if err != nil {
			s.recordFailure()
			return nil, err
		}
		if s.obsMetrics != nil {
			s.obsMetrics.RecordInvoiceGenerated()
		}
		s.log.Info("invoice generated",
			zap.String("invoice_number", invoice.InvoiceNumber),
			zap.String("guardian_id", req.GuardianID.String()),
			zap.Int64("total_amount", invoice.TotalAmount),
			zap.Int("line_items", len(lines)),
		)
		return invoice, nil
	}
	s.recordFailure()
	return nil, &invoicedomain.ConcurrencyConflictError{Resource: "invoice_number"}
}

func (s *Service) tryCreate(
	ctx context.Context,
	req invoicedomain.GenerateRequest,
	plan invoicedomain.PaymentPlan,
	termCtx *academicsdomain.TermContext,
	lines []lineSpec,
	subtotal int64,
) (*invoicedomain.GuardianInvoice, error) {
	var created *invoicedomain.GuardianInvoice
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.lockSchool(ctx, tx, req.SchoolID); err != nil {
			return err
		}

		existing, err := s.findInvoiceForGuardianTerm(ctx, tx, req.SchoolID, req.GuardianID, req.AcademicTermID)
		if err != nil {
			return err
		}
		if existing != 0 {
			return &invoicedomain.InvoiceAlreadyExistsError{
				GuardianID:     req.GuardianID,
				AcademicTermID: req.AcademicTermID,
			}
		}

		sequence, err := s.nextSequence(ctx, tx, termCtx.Year.Year, termCtx.Term.TermNumber)
		if err != nil {
			return err
		}

		now := s.clock.Now()
		discount := invoicedomain.ComputeDiscount(subtotal, req.DiscountPercentage)
		total := subtotal - discount
		invoice := &invoicedomain.GuardianInvoice{
			ID:                 s.genID.Generate(),
			SchoolID:           req.SchoolID,
			GuardianID:         req.GuardianID,
			AcademicTermID:     req.AcademicTermID,
			InvoiceNumber:      invoicedomain.FormatInvoiceNumber(termCtx.Year.Year, termCtx.Term.TermNumber, sequence),
			Sequence:           sequence,
			SubtotalAmount:     subtotal,
			DiscountPercentage: req.DiscountPercentage,
			DiscountAmount:     discount,
			TotalAmount:        total,
			AmountPaid:         0,
			BalanceDue:         total,
			PaymentPlan:        plan,
			Status:             invoicedomain.ComputeStatus(total, 0, now.Add(plan.DueOffset()), now),
			DueDate:            now.Add(plan.DueOffset()),
			GeneratedBy:        req.GeneratedBy,
			CreatedAt:          now,
			UpdatedAt:          now,
		}
		if err := tx.WithContext(ctx).Create(invoice).Error; err != nil {
			if db.IsDuplicateKeyErr(err) {
				// The (guardian, term) pair was checked under the school
				// lock, so a unique violation here is the invoice number.
				return errDuplicateInvoiceNumber
			}
			return err
		}

		items := make([]*invoicedomain.InvoiceLineItem, 0, len(lines))
		for _, line := range lines {
			items = append(items, &invoicedomain.InvoiceLineItem{
				ID:           s.genID.Generate(),
				SchoolID:     req.SchoolID,
				InvoiceID:    invoice.ID,
				StudentID:    line.studentID,
				StudentName:  line.studentName,
				GradeName:    line.gradeName,
				FeeBreakdown: datatypes.JSONMap(line.breakdown.Map()),
				TotalAmount:  line.total,
				CreatedAt:    now,
			})
		}
		if len(items) > 0 {
			if err := tx.WithContext(ctx).Create(items).Error; err != nil {
				return err
			}
		}

		created = invoice
		return nil
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

func (s *Service) Get(ctx context.Context, schoolID, invoiceID snowflake.ID) (*invoicedomain.GuardianInvoice, []invoicedomain.InvoiceLineItem, error) {
	var invoice invoicedomain.GuardianInvoice
	err := s.db.WithContext(ctx).
		Where("id = ? AND school_id = ?", invoiceID, schoolID).
		First(&invoice).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, invoicedomain.ErrInvoiceNotFound
		}
		return nil, nil, err
	}

	var items []invoicedomain.InvoiceLineItem
	if err := s.db.WithContext(ctx).
		Where("invoice_id = ?", invoiceID).
		Order("id").
		Find(&items).Error; err != nil {
		return nil, nil, err
	}
	return &invoice, items, nil
}

func (s *Service) List(ctx context.Context, req invoicedomain.ListRequest) ([]invoicedomain.GuardianInvoice, error) {
	stmt := s.db.WithContext(ctx).Where("school_id = ?", req.SchoolID)
	if req.GuardianID != nil {
		stmt = stmt.Where("guardian_id = ?", *req.GuardianID)
	}
	if req.AcademicTermID != nil {
		stmt = stmt.Where("academic_term_id = ?", *req.AcademicTermID)
	}
	if req.Status != nil {
		stmt = stmt.Where("status = ?", *req.Status)
	}

	var invoices []invoicedomain.GuardianInvoice
	err := stmt.Order("created_at DESC, id DESC").Find(&invoices).Error
	return invoices, err
}

func (s *Service) Delete(ctx context.Context, schoolID, invoiceID, deletedBy snowflake.ID) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		invoiceRef, err := s.loadInvoiceForUpdate(ctx, tx, schoolID, invoiceID)
		if err != nil {
			return err
		}
		if invoiceRef == 0 {
			return invoicedomain.ErrInvoiceNotFound
		}

		var paymentCount int64
		if err := tx.WithContext(ctx).Raw(
			`SELECT COUNT(*) FROM guardian_payments WHERE invoice_id = ? AND voided_at IS NULL`,
			invoiceID,
		).Scan(&paymentCount).Error; err != nil {
			return err
		}
		if paymentCount > 0 {
			return invoicedomain.ErrHasPayments
		}

		if err := tx.WithContext(ctx).
			Where("invoice_id = ?", invoiceID).
			Delete(&invoicedomain.InvoiceLineItem{}).Error; err != nil {
			return err
		}
		return tx.WithContext(ctx).
			Where("id = ?", invoiceID).
			Delete(&invoicedomain.GuardianInvoice{}).Error
	})
	if err != nil {
		return err
	}
	s.log.Info("invoice deleted",
		zap.String("invoice_id", invoiceID.String()),
		zap.String("deleted_by", deletedBy.String()),
	)
	return nil
}

func (s *Service) lockSchool(ctx context.Context, tx *gorm.DB, schoolID snowflake.ID) error {
	query := `SELECT id FROM schools WHERE id = ?`
	if tx.Dialector.Name() != "sqlite" {
		query += " FOR UPDATE"
	}

	var id snowflake.ID
	if err := tx.WithContext(ctx).Raw(query, schoolID).Scan(&id).Error; err != nil {
		return err
	}
	if id == 0 {
		return academicsdomain.ErrSchoolNotFound
	}
	return nil
}

func (s *Service) findInvoiceForGuardianTerm(ctx context.Context, tx *gorm.DB, schoolID, guardianID, termID snowflake.ID) (snowflake.ID, error) {
	var invoiceID snowflake.ID
	err := tx.WithContext(ctx).Raw(
		`SELECT id
		 FROM guardian_invoices
		 WHERE school_id = ? AND guardian_id = ? AND academic_term_id = ?
		 LIMIT 1`,
		schoolID,
		guardianID,
		termID,
	).Scan(&invoiceID).Error
	if err != nil {
		return 0, err
	}
	return invoiceID, nil
}

// nextSequence allocates across all schools sharing the (year, term number)
// prefix because invoice_number is globally unique. The school lock does not
// serialize two schools, so a concurrent allocation of the same sequence is
// caught by the unique index; the retry re-reads the committed max and
// advances past the collision.
func (s *Service) nextSequence(ctx context.Context, tx *gorm.DB, year, termNumber int) (int, error) {
	var next int
	err := tx.WithContext(ctx).Raw(
		`SELECT COALESCE(MAX(sequence), 0) + 1
		 FROM guardian_invoices
		 WHERE invoice_number LIKE ?`,
		invoicedomain.InvoiceNumberPrefix(year, termNumber)+"%",
	).Scan(&next).Error
	if err != nil {
		return 0, err
	}
	return next, nil
}

func (s *Service) loadInvoiceForUpdate(ctx context.Context, tx *gorm.DB, schoolID, invoiceID snowflake.ID) (snowflake.ID, error) {
	query := `SELECT id FROM guardian_invoices WHERE id = ? AND school_id = ?`
	if tx.Dialector.Name() != "sqlite" {
		query += " FOR UPDATE"
	}

	var id snowflake.ID
	if err := tx.WithContext(ctx).Raw(query, invoiceID, schoolID).Scan(&id).Error; err != nil {
		return 0, err
	}
	return id, nil
}

func (s *Service) recordFailure() {
	if s.obsMetrics != nil {
		s.obsMetrics.RecordInvoiceGenerationFailure()
	}
}
