package service

import (
	"context"

	academicsdomain "github.com/elimisoft/shulefees/internal/academics/domain"
	"github.com/elimisoft/shulefees/pkg/repository"
	"github.com/bwmarrin/snowflake"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB  *gorm.DB
	Log *zap.Logger
}

type Service struct {
	db  *gorm.DB
	log *zap.Logger

	termRepo     repository.Repository[academicsdomain.AcademicTerm]
	yearRepo     repository.Repository[academicsdomain.AcademicYear]
	studentRepo  repository.Repository[academicsdomain.Student]
	guardianRepo repository.Repository[academicsdomain.Guardian]
}

func NewService(p Params) academicsdomain.Service {
	return &Service{
		db:  p.DB,
		log: p.Log.Named("academics.service"),

		termRepo:     repository.ProvideStore[academicsdomain.AcademicTerm](p.DB),
		yearRepo:     repository.ProvideStore[academicsdomain.AcademicYear](p.DB),
		studentRepo:  repository.ProvideStore[academicsdomain.Student](p.DB),
		guardianRepo: repository.ProvideStore[academicsdomain.Guardian](p.DB),
	}
}

func (s *Service) ActivateTerm(ctx context.Context, schoolID, termID snowflake.ID) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		term, err := repository.ProvideStore[academicsdomain.AcademicTerm](tx).
			FindOne(ctx, &academicsdomain.AcademicTerm{ID: termID, SchoolID: schoolID})
		if err != nil {
			return err
		}
		if term == nil {
			return academicsdomain.ErrTermNotFound
		}

		if err := tx.WithContext(ctx).Model(&academicsdomain.AcademicTerm{}).
			Where("school_id = ? AND is_active = ? AND id <> ?", schoolID, true, termID).
			Update("is_active", false).Error; err != nil {
			return err
		}

		return tx.WithContext(ctx).Model(&academicsdomain.AcademicTerm{}).
			Where("id = ?", termID).
			Update("is_active", true).Error
	})
}

func (s *Service) ActiveTerm(ctx context.Context, schoolID snowflake.ID) (*academicsdomain.AcademicTerm, error) {
	term, err := s.termRepo.FindOne(ctx, &academicsdomain.AcademicTerm{SchoolID: schoolID, IsActive: true})
	if err != nil {
		return nil, err
	}
	if term == nil {
		return nil, academicsdomain.ErrTermNotFound
	}
	return term, nil
}

func (s *Service) TermContext(ctx context.Context, schoolID, termID snowflake.ID) (*academicsdomain.TermContext, error) {
	term, err := s.termRepo.FindOne(ctx, &academicsdomain.AcademicTerm{ID: termID, SchoolID: schoolID})
	if err != nil {
		return nil, err
	}
	if term == nil {
		return nil, academicsdomain.ErrTermNotFound
	}

	year, err := s.yearRepo.FindOne(ctx, &academicsdomain.AcademicYear{ID: term.AcademicYearID})
	if err != nil {
		return nil, err
	}
	if year == nil {
		return nil, academicsdomain.ErrTermNotFound
	}

	return &academicsdomain.TermContext{Term: *term, Year: *year}, nil
}

func (s *Service) GetStudent(ctx context.Context, schoolID, studentID snowflake.ID) (*academicsdomain.Student, error) {
	student, err := s.studentRepo.FindOne(ctx, &academicsdomain.Student{ID: studentID, SchoolID: schoolID})
	if err != nil {
		return nil, err
	}
	if student == nil {
		return nil, academicsdomain.ErrStudentNotFound
	}
	return student, nil
}

func (s *Service) GetGuardian(ctx context.Context, schoolID, guardianID snowflake.ID) (*academicsdomain.Guardian, error) {
	guardian, err := s.guardianRepo.FindOne(ctx, &academicsdomain.Guardian{ID: guardianID, SchoolID: schoolID})
	if err != nil {
		return nil, err
	}
	if guardian == nil {
		return nil, academicsdomain.ErrGuardianNotFound
	}
	return guardian, nil
}

func (s *Service) ActiveStudents(ctx context.Context, schoolID, guardianID snowflake.ID) ([]academicsdomain.Student, error) {
	var students []academicsdomain.Student
	err := s.db.WithContext(ctx).
		Where("school_id = ? AND guardian_id = ? AND is_active = ?", schoolID, guardianID, true).
		Order("id").
		Find(&students).Error
	return students, err
}
