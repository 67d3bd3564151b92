package service

import (
	"context"
	"strings"

	catalogdomain "github.com/elimisoft/shulefees/internal/catalog/domain"
	"github.com/elimisoft/shulefees/pkg/repository"
	"github.com/bwmarrin/snowflake"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"

	academicsdomain "github.com/elimisoft/shulefees/internal/academics/domain"
)

type Params struct {
	fx.In

	DB    *gorm.DB
	Log   *zap.Logger
	GenID *snowflake.Node
}

type Service struct {
	db    *gorm.DB
	log   *zap.Logger
	genID *snowflake.Node

	tuitionRepo   repository.Repository[catalogdomain.TuitionFee]
	routeRepo     repository.Repository[catalogdomain.TransportRoute]
	universalRepo repository.Repository[catalogdomain.UniversalFee]
	categoryRepo  repository.Repository[catalogdomain.FeeCategory]
	amountRepo    repository.Repository[catalogdomain.FeeAmount]
}

func NewService(p Params) catalogdomain.Service {
	return newService(p)
}

// NewReader exposes the same store as the resolver-facing read view.
func NewReader(p Params) catalogdomain.Reader {
	return newService(p)
}

func newService(p Params) *Service {
	return &Service{
		db:    p.DB,
		log:   p.Log.Named("catalog.service"),
		genID: p.GenID,

		tuitionRepo:   repository.ProvideStore[catalogdomain.TuitionFee](p.DB),
		routeRepo:     repository.ProvideStore[catalogdomain.TransportRoute](p.DB),
		universalRepo: repository.ProvideStore[catalogdomain.UniversalFee](p.DB),
		categoryRepo:  repository.ProvideStore[catalogdomain.FeeCategory](p.DB),
		amountRepo:    repository.ProvideStore[catalogdomain.FeeAmount](p.DB),
	}
}

func (s *Service) UpsertTuitionFee(ctx context.Context, req catalogdomain.UpsertTuitionFeeRequest) (*catalogdomain.TuitionFee, error) {
	if !req.Grade.Valid() || req.AmountFullDay < 0 || req.AmountHalfDay < 0 {
		return nil, catalogdomain.ErrInvalidCatalog
	}

	existing, err := s.tuitionRepo.FindOne(ctx, &catalogdomain.TuitionFee{
		SchoolID:       req.SchoolID,
		AcademicYearID: req.AcademicYearID,
		Grade:          req.Grade,
	})
	if err != nil {
		return nil, err
	}
	if existing != nil {
		if err := s.tuitionRepo.Update(ctx, existing.ID.String(), map[string]any{
			"amount_full_day": req.AmountFullDay,
			"amount_half_day": req.AmountHalfDay,
		}); err != nil {
			return nil, err
		}
		existing.AmountFullDay = req.AmountFullDay
		existing.AmountHalfDay = req.AmountHalfDay
		return existing, nil
	}

	fee := &catalogdomain.TuitionFee{
		ID:             s.genID.Generate(),
		SchoolID:       req.SchoolID,
		AcademicYearID: req.AcademicYearID,
		Grade:          req.Grade,
		AmountFullDay:  req.AmountFullDay,
		AmountHalfDay:  req.AmountHalfDay,
	}
	if err := s.tuitionRepo.Create(ctx, fee); err != nil {
		return nil, err
	}
	return fee, nil
}

func (s *Service) UpsertTransportRoute(ctx context.Context, req catalogdomain.UpsertTransportRouteRequest) (*catalogdomain.TransportRoute, error) {
	name := strings.TrimSpace(req.RouteName)
	if name == "" || req.AmountOneWay < 0 || req.AmountTwoWay < 0 {
		return nil, catalogdomain.ErrInvalidCatalog
	}

	existing, err := s.routeRepo.FindOne(ctx, &catalogdomain.TransportRoute{SchoolID: req.SchoolID, RouteName: name})
	if err != nil {
		return nil, err
	}
	if existing != nil {
		if err := s.routeRepo.Update(ctx, existing.ID.String(), map[string]any{
			"amount_one_way": req.AmountOneWay,
			"amount_two_way": req.AmountTwoWay,
		}); err != nil {
			return nil, err
		}
		existing.AmountOneWay = req.AmountOneWay
		existing.AmountTwoWay = req.AmountTwoWay
		return existing, nil
	}

	route := &catalogdomain.TransportRoute{
		ID:           s.genID.Generate(),
		SchoolID:     req.SchoolID,
		RouteName:    name,
		AmountOneWay: req.AmountOneWay,
		AmountTwoWay: req.AmountTwoWay,
	}
	if err := s.routeRepo.Create(ctx, route); err != nil {
		return nil, err
	}
	return route, nil
}

func (s *Service) UpsertUniversalFee(ctx context.Context, req catalogdomain.UpsertUniversalFeeRequest) (*catalogdomain.UniversalFee, error) {
	if !req.FeeType.Valid() || req.Amount < 0 {
		return nil, catalogdomain.ErrInvalidCatalog
	}
	if req.FeeType == catalogdomain.UniversalFeeOther {
		if req.FeeName == nil || strings.TrimSpace(*req.FeeName) == "" {
			return nil, catalogdomain.ErrInvalidCatalog
		}
	}

	existing, err := s.universalRepo.FindOne(ctx, &catalogdomain.UniversalFee{
		SchoolID:       req.SchoolID,
		AcademicYearID: req.AcademicYearID,
		FeeType:        req.FeeType,
	})
	if err != nil {
		return nil, err
	}
	if existing != nil {
		if err := s.universalRepo.Update(ctx, existing.ID.String(), map[string]any{
			"fee_name": req.FeeName,
			"amount":   req.Amount,
		}); err != nil {
			return nil, err
		}
		existing.FeeName = req.FeeName
		existing.Amount = req.Amount
		return existing, nil
	}

	fee := &catalogdomain.UniversalFee{
		ID:             s.genID.Generate(),
		SchoolID:       req.SchoolID,
		AcademicYearID: req.AcademicYearID,
		FeeType:        req.FeeType,
		FeeName:        req.FeeName,
		Amount:         req.Amount,
	}
	if err := s.universalRepo.Create(ctx, fee); err != nil {
		return nil, err
	}
	return fee, nil
}

func (s *Service) CreateFeeCategory(ctx context.Context, req catalogdomain.CreateFeeCategoryRequest) (*catalogdomain.FeeCategory, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, catalogdomain.ErrInvalidCatalog
	}

	category := &catalogdomain.FeeCategory{
		ID:          s.genID.Generate(),
		SchoolID:    req.SchoolID,
		Name:        name,
		IsUniversal: req.IsUniversal,
	}
	if err := s.categoryRepo.Create(ctx, category); err != nil {
		return nil, err
	}
	return category, nil
}

func (s *Service) UpsertFeeAmount(ctx context.Context, req catalogdomain.UpsertFeeAmountRequest) (*catalogdomain.FeeAmount, error) {
	if req.Amount < 0 {
		return nil, catalogdomain.ErrInvalidCatalog
	}

	category, err := s.categoryRepo.FindOne(ctx, &catalogdomain.FeeCategory{ID: req.CategoryID, SchoolID: req.SchoolID})
	if err != nil {
		return nil, err
	}
	if category == nil {
		return nil, catalogdomain.ErrCategoryNotFound
	}

	var fromRank, toRank *int
	var label *string
	if req.GradeRange != nil && strings.TrimSpace(*req.GradeRange) != "" {
		r, err := catalogdomain.ParseGradeRange(*req.GradeRange)
		if err != nil {
			return nil, err
		}
		from, to := r.FromRank, r.ToRank
		fromRank, toRank = &from, &to
		trimmed := strings.TrimSpace(*req.GradeRange)
		label = &trimmed
	}

	filter := &catalogdomain.FeeAmount{
		SchoolID:       req.SchoolID,
		CategoryID:     req.CategoryID,
		AcademicYearID: req.AcademicYearID,
	}
	var existing *catalogdomain.FeeAmount
	rows, err := s.amountRepo.Find(ctx, filter)
	if err != nil {
		return nil, err
	}
	for _, row := range rows {
		if derefStr(row.GradeRange) == derefStr(label) {
			existing = row
			break
		}
	}

	if existing != nil {
		if err := s.amountRepo.Update(ctx, existing.ID.String(), map[string]any{
			"amount":          req.Amount,
			"grade_from_rank": fromRank,
			"grade_to_rank":   toRank,
		}); err != nil {
			return nil, err
		}
		existing.Amount = req.Amount
		existing.GradeFromRank = fromRank
		existing.GradeToRank = toRank
		return existing, nil
	}

	amount := &catalogdomain.FeeAmount{
		ID:             s.genID.Generate(),
		SchoolID:       req.SchoolID,
		CategoryID:     req.CategoryID,
		AcademicYearID: req.AcademicYearID,
		GradeRange:     label,
		GradeFromRank:  fromRank,
		GradeToRank:    toRank,
		Amount:         req.Amount,
	}
	if err := s.amountRepo.Create(ctx, amount); err != nil {
		return nil, err
	}
	return amount, nil
}

func (s *Service) TuitionFor(ctx context.Context, schoolID, yearID snowflake.ID, grade academicsdomain.Grade) (*catalogdomain.TuitionFee, error) {
	return s.tuitionRepo.FindOne(ctx, &catalogdomain.TuitionFee{
		SchoolID:       schoolID,
		AcademicYearID: yearID,
		Grade:          grade,
	})
}

func (s *Service) Route(ctx context.Context, schoolID, routeID snowflake.ID) (*catalogdomain.TransportRoute, error) {
	route, err := s.routeRepo.FindOne(ctx, &catalogdomain.TransportRoute{ID: routeID, SchoolID: schoolID})
	if err != nil {
		return nil, err
	}
	if route == nil {
		return nil, catalogdomain.ErrRouteNotFound
	}
	return route, nil
}

func (s *Service) UniversalFees(ctx context.Context, schoolID, yearID snowflake.ID) ([]catalogdomain.UniversalFee, error) {
	var fees []catalogdomain.UniversalFee
	err := s.db.WithContext(ctx).
		Where("school_id = ? AND academic_year_id = ?", schoolID, yearID).
		Order("fee_type, id").
		Find(&fees).Error
	return fees, err
}

func (s *Service) ApplicableFeeAmounts(ctx context.Context, schoolID, yearID snowflake.ID, grade academicsdomain.Grade) ([]catalogdomain.ResolvedFeeAmount, error) {
	rank, ok := grade.Rank()
	if !ok {
		return nil, catalogdomain.ErrInvalidCatalog
	}

	type row struct {
		ID            snowflake.ID
		GradeRange    *string
		GradeFromRank *int
		GradeToRank   *int
		Amount        int64
		CategoryName  string
	}
	var rows []row
	err := s.db.WithContext(ctx).
		Table("fee_amounts").
		Select("fee_amounts.id, fee_amounts.grade_range, fee_amounts.grade_from_rank, fee_amounts.grade_to_rank, fee_amounts.amount, fee_categories.name AS category_name").
		Joins("JOIN fee_categories ON fee_categories.id = fee_amounts.category_id").
		Where("fee_amounts.school_id = ? AND fee_amounts.academic_year_id = ?", schoolID, yearID).
		Order("fee_amounts.id").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	resolved := make([]catalogdomain.ResolvedFeeAmount, 0, len(rows))
	for _, r := range rows {
		amount := catalogdomain.FeeAmount{
			ID:            r.ID,
			GradeRange:    r.GradeRange,
			GradeFromRank: r.GradeFromRank,
			GradeToRank:   r.GradeToRank,
		}
		gradeRange, err := amount.RangeOf()
		if err != nil {
			return nil, err
		}
		if !gradeRange.Contains(rank) {
			continue
		}
		resolved = append(resolved, catalogdomain.ResolvedFeeAmount{
			FeeAmountID:   r.ID,
			CategoryName:  r.CategoryName,
			Amount:        r.Amount,
			GradeSpecific: !amount.AppliesToAllGrades(),
		})
	}
	return resolved, nil
}

func derefStr(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
