package service

import (
	"context"
	"encoding/json"

	preferencedomain "github.com/elimisoft/shulefees/internal/preference/domain"
	"github.com/elimisoft/shulefees/pkg/repository"
	"github.com/bwmarrin/snowflake"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/datatypes"
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

	prefRepo repository.Repository[preferencedomain.GuardianFeePreference]
}

func NewService(p Params) preferencedomain.Service {
	return &Service{
		db:    p.DB,
		log:   p.Log.Named("preference.service"),
		genID: p.GenID,

		prefRepo: repository.ProvideStore[preferencedomain.GuardianFeePreference](p.DB),
	}
}

func (s *Service) Upsert(ctx context.Context, req preferencedomain.UpsertPreferenceRequest) (*preferencedomain.GuardianFeePreference, error) {
	if err := validateUpsert(req); err != nil {
		return nil, err
	}

	var result *preferencedomain.GuardianFeePreference
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		prefRepo := s.prefRepo.WithTrx(tx)

		existing, err := prefRepo.FindOne(ctx, &preferencedomain.GuardianFeePreference{
			SchoolID:       req.SchoolID,
			StudentID:      req.StudentID,
			AcademicTermID: req.AcademicTermID,
		})
		if err != nil {
			return err
		}

		if existing == nil {
			created := &preferencedomain.GuardianFeePreference{
				ID:               s.genID.Generate(),
				SchoolID:         req.SchoolID,
				StudentID:        req.StudentID,
				AcademicTermID:   req.AcademicTermID,
				TuitionType:      req.TuitionType,
				TransportRouteID: req.TransportRouteID,
				TransportType:    req.TransportType,
				IncludeFood:      req.IncludeFood,
				IncludeSports:    req.IncludeSports,
				UpdatedBy:        req.UpdatedBy,
				Version:          1,
			}
			if err := prefRepo.Create(ctx, created); err != nil {
				return err
			}
			result = created
			return nil
		}

		snapshot, err := json.Marshal(existing)
		if err != nil {
			return err
		}
		history := &preferencedomain.PreferenceHistory{
			ID:           s.genID.Generate(),
			SchoolID:     existing.SchoolID,
			PreferenceID: existing.ID,
			Version:      existing.Version,
			Snapshot:     datatypes.JSON(snapshot),
			ChangedBy:    req.UpdatedBy,
		}
		if err := tx.WithContext(ctx).Create(history).Error; err != nil {
			return err
		}

		updates := map[string]any{
			"tuition_type":       req.TuitionType,
			"transport_route_id": req.TransportRouteID,
			"transport_type":     req.TransportType,
			"include_food":       req.IncludeFood,
			"include_sports":     req.IncludeSports,
			"updated_by":         req.UpdatedBy,
			"version":            existing.Version + 1,
		}
		if err := tx.WithContext(ctx).Model(&preferencedomain.GuardianFeePreference{}).
			Where("id = ?", existing.ID).
			Updates(updates).Error; err != nil {
			return err
		}

		existing.TuitionType = req.TuitionType
		existing.TransportRouteID = req.TransportRouteID
		existing.TransportType = req.TransportType
		existing.IncludeFood = req.IncludeFood
		existing.IncludeSports = req.IncludeSports
		existing.UpdatedBy = req.UpdatedBy
		existing.Version++
		result = existing
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func (s *Service) Get(ctx context.Context, schoolID, studentID, termID snowflake.ID) (*preferencedomain.GuardianFeePreference, error) {
	return s.prefRepo.FindOne(ctx, &preferencedomain.GuardianFeePreference{
		SchoolID:       schoolID,
		StudentID:      studentID,
		AcademicTermID: termID,
	})
}

func (s *Service) History(ctx context.Context, schoolID, preferenceID snowflake.ID) ([]preferencedomain.PreferenceHistory, error) {
	var history []preferencedomain.PreferenceHistory
	err := s.db.WithContext(ctx).
		Where("school_id = ? AND preference_id = ?", schoolID, preferenceID).
		Order("version").
		Find(&history).Error
	return history, err
}

func validateUpsert(req preferencedomain.UpsertPreferenceRequest) error {
	if !req.TuitionType.Valid() {
		return preferencedomain.ErrInvalidPreference
	}
	// Route and transport type come as a pair.
	if (req.TransportRouteID == nil) != (req.TransportType == nil) {
		return preferencedomain.ErrInvalidPreference
	}
	if req.TransportType != nil && !req.TransportType.Valid() {
		return preferencedomain.ErrInvalidPreference
	}
	if req.SchoolID == 0 || req.StudentID == 0 || req.AcademicTermID == 0 || req.UpdatedBy == 0 {
		return preferencedomain.ErrInvalidPreference
	}
	return nil
}
