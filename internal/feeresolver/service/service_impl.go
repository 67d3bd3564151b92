package service

import (
	"context"
	"sort"

	academicsdomain "github.com/elimisoft/shulefees/internal/academics/domain"
	adjustmentdomain "github.com/elimisoft/shulefees/internal/adjustment/domain"
	catalogdomain "github.com/elimisoft/shulefees/internal/catalog/domain"
	resolverdomain "github.com/elimisoft/shulefees/internal/feeresolver/domain"
	preferencedomain "github.com/elimisoft/shulefees/internal/preference/domain"
	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

type Params struct {
	fx.In

	Log           *zap.Logger
	Academics     academicsdomain.Service
	Catalog       catalogdomain.Reader
	PreferenceSvc preferencedomain.Service
	AdjustmentSvc adjustmentdomain.Service
}

type Service struct {
	log           *zap.Logger
	academics     academicsdomain.Service
	catalog       catalogdomain.Reader
	preferenceSvc preferencedomain.Service
	adjustmentSvc adjustmentdomain.Service
}

func NewService(p Params) resolverdomain.Service {
	return &Service{
		log:           p.Log.Named("feeresolver.service"),
		academics:     p.Academics,
		catalog:       p.Catalog,
		preferenceSvc: p.PreferenceSvc,
		adjustmentSvc: p.AdjustmentSvc,
	}
}

func (s *Service) Resolve(ctx context.Context, schoolID, studentID, termID snowflake.ID) (resolverdomain.Breakdown, error) {
	student, err := s.academics.GetStudent(ctx, schoolID, studentID)
	if err != nil {
		return nil, err
	}
	termCtx, err := s.academics.TermContext(ctx, schoolID, termID)
	if err != nil {
		return nil, err
	}
	yearID := termCtx.Year.ID

	pref, err := s.preferenceSvc.Get(ctx, schoolID, studentID, termID)
	if err != nil {
		return nil, err
	}

	amounts := make(map[string]int64)

	// Legacy catalog rows first; a grade-specific row beats an all-grade
	// row for the same category.
	legacy, err := s.catalog.ApplicableFeeAmounts(ctx, schoolID, yearID, student.Grade)
	if err != nil {
		return nil, err
	}
	gradeSpecific := make(map[string]bool, len(legacy))
	legacyOrder := make([]string, 0, len(legacy))
	for _, row := range legacy {
		if _, seen := amounts[row.CategoryName]; !seen {
			legacyOrder = append(legacyOrder, row.CategoryName)
			amounts[row.CategoryName] = row.Amount
			gradeSpecific[row.CategoryName] = row.GradeSpecific
			continue
		}
		if row.GradeSpecific && !gradeSpecific[row.CategoryName] {
			amounts[row.CategoryName] = row.Amount
			gradeSpecific[row.CategoryName] = true
		}
	}

	// Tuition. A missing rate is an error, never a silent zero.
	tuition, err := s.catalog.TuitionFor(ctx, schoolID, yearID, student.Grade)
	if err != nil {
		return nil, err
	}
	if tuition == nil {
		return nil, &catalogdomain.MissingCatalogEntryError{Grade: student.Grade, Year: termCtx.Year.Year}
	}
	tuitionType := preferencedomain.TuitionFullDay
	if pref != nil {
		tuitionType = pref.TuitionType
	}
	if tuitionType == preferencedomain.TuitionHalfDay {
		amounts[resolverdomain.CategoryTuition] = tuition.AmountHalfDay
	} else {
		amounts[resolverdomain.CategoryTuition] = tuition.AmountFullDay
	}

	// Transport only when the guardian chose a route.
	if pref != nil && pref.TransportRouteID != nil {
		route, err := s.catalog.Route(ctx, schoolID, *pref.TransportRouteID)
		if err != nil {
			return nil, err
		}
		if pref.TransportType != nil && *pref.TransportType == preferencedomain.TransportTwoWay {
			amounts[resolverdomain.CategoryTransport] = route.AmountTwoWay
		} else {
			amounts[resolverdomain.CategoryTransport] = route.AmountOneWay
		}
	}

	// Universal fees, honouring the food/sports opt-outs. Other types
	// offer no opt-out.
	universal, err := s.catalog.UniversalFees(ctx, schoolID, yearID)
	if err != nil {
		return nil, err
	}
	universalOrder := make([]string, 0, len(universal))
	for _, fee := range universal {
		if pref != nil {
			if fee.FeeType == catalogdomain.UniversalFeeFood && !pref.IncludeFood {
				continue
			}
			if fee.FeeType == catalogdomain.UniversalFeeSports && !pref.IncludeSports {
				continue
			}
		}
		name := fee.CategoryName()
		if _, seen := amounts[name]; !seen {
			universalOrder = append(universalOrder, name)
		}
		amounts[name] = fee.Amount
	}

	// Guardian adjustments last; they only touch categories that resolved.
	adjustments, err := s.adjustmentSvc.Effective(ctx, schoolID, student.GuardianID, termID)
	if err != nil {
		return nil, err
	}
	for category, adj := range adjustments {
		amount, ok := amounts[category]
		if !ok {
			continue
		}
		switch v := adj.(type) {
		case adjustmentdomain.Exclude:
			delete(amounts, category)
		case adjustmentdomain.CustomAmount:
			amounts[category] = v.Amount
		case adjustmentdomain.Discount:
			amounts[category] = discountedAmount(amount, v.Percentage)
		}
	}

	return orderedBreakdown(amounts, universalOrder, legacyOrder), nil
}

// discountedAmount rounds half-up on minor units.
func discountedAmount(amount int64, percentage float64) int64 {
	discount := decimal.NewFromInt(amount).
		Mul(decimal.NewFromFloat(percentage)).
		Div(decimal.NewFromInt(100)).
		Round(0)
	result := amount - discount.IntPart()
	if result < 0 {
		return 0
	}
	return result
}

// orderedBreakdown emits Tuition, Transport, universal fees in catalog
// order, then remaining legacy categories alphabetically.
func orderedBreakdown(amounts map[string]int64, universalOrder, legacyOrder []string) resolverdomain.Breakdown {
	breakdown := make(resolverdomain.Breakdown, 0, len(amounts))
	emitted := make(map[string]bool, len(amounts))

	emit := func(category string) {
		amount, ok := amounts[category]
		if !ok || emitted[category] {
			return
		}
		breakdown = append(breakdown, resolverdomain.FeeLine{Category: category, Amount: amount})
		emitted[category] = true
	}

	emit(resolverdomain.CategoryTuition)
	emit(resolverdomain.CategoryTransport)
	for _, name := range universalOrder {
		emit(name)
	}

	rest := make([]string, 0, len(legacyOrder))
	for _, name := range legacyOrder {
		if !emitted[name] {
			rest = append(rest, name)
		}
	}
	sort.Strings(rest)
	for _, name := range rest {
		emit(name)
	}
	return breakdown
}
