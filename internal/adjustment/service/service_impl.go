package service

import (
	"context"
	"strings"

	adjustmentdomain "github.com/elimisoft/shulefees/internal/adjustment/domain"
	"github.com/elimisoft/shulefees/pkg/repository"
	"github.com/bwmarrin/snowflake"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
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

	repo repository.Repository[adjustmentdomain.GuardianFeeAdjustment]
}

func NewService(p Params) adjustmentdomain.Service {
	return &Service{
		db:    p.DB,
		log:   p.Log.Named("adjustment.service"),
		genID: p.GenID,

		repo: repository.ProvideStore[adjustmentdomain.GuardianFeeAdjustment](p.DB),
	}
}

func (s *Service) Put(ctx context.Context, req adjustmentdomain.PutAdjustmentRequest) (*adjustmentdomain.GuardianFeeAdjustment, error) {
	category := strings.TrimSpace(req.CategoryName)
	if category == "" {
		return nil, &adjustmentdomain.InvalidAdjustmentError{CategoryName: category, Reason: "empty category name"}
	}
	if !req.AdjustmentType.Valid() {
		return nil, &adjustmentdomain.InvalidAdjustmentError{CategoryName: category, Reason: "unknown adjustment type " + string(req.AdjustmentType)}
	}

	row := &adjustmentdomain.GuardianFeeAdjustment{
		ID:                 s.genID.Generate(),
		SchoolID:           req.SchoolID,
		GuardianID:         req.GuardianID,
		AcademicTermID:     req.AcademicTermID,
		CategoryName:       category,
		AdjustmentType:     req.AdjustmentType,
		CustomAmount:       req.CustomAmount,
		DiscountPercentage: req.DiscountPercentage,
		Reason:             req.Reason,
		CreatedBy:          req.CreatedBy,
	}
	// Decode validates variant fields before anything is persisted.
	if _, err := row.Decode(); err != nil {
		return nil, err
	}

	if err := s.repo.Create(ctx, row); err != nil {
		return nil, err
	}
	return row, nil
}

func (s *Service) List(ctx context.Context, schoolID, guardianID, termID snowflake.ID) ([]adjustmentdomain.GuardianFeeAdjustment, error) {
	var rows []adjustmentdomain.GuardianFeeAdjustment
	err := s.db.WithContext(ctx).
		Where("school_id = ? AND guardian_id = ? AND academic_term_id = ?", schoolID, guardianID, termID).
		Order("id").
		Find(&rows).Error
	return rows, err
}

func (s *Service) Effective(ctx context.Context, schoolID, guardianID, termID snowflake.ID) (map[string]adjustmentdomain.Adjustment, error) {
	rows, err := s.List(ctx, schoolID, guardianID, termID)
	if err != nil {
		return nil, err
	}

	effective := make(map[string]adjustmentdomain.Adjustment, len(rows))
	for _, row := range rows {
		decoded, err := row.Decode()
		if err != nil {
			return nil, err
		}
		// Rows are ordered by id, so later writes overwrite earlier ones.
		effective[row.CategoryName] = decoded
	}
	return effective, nil
}
