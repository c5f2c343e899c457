package service

import (
	"context"
	"errors"
	"sync"

	facilitieserrors "campusrent/internal/facilities/errors"
	"campusrent/internal/facilities/repository"
	"campusrent/internal/facilities/validator"
	"campusrent/pkg/config"
	apperrors "campusrent/pkg/errors"
	"campusrent/pkg/model"
	"campusrent/pkg/sanitizer"
)

type FacilityService interface {
	Create(ctx context.Context, facility *model.FacilityTemplate) error
	GetByID(ctx context.Context, id string) (*model.FacilityTemplate, error)
	GetAll(ctx context.Context, activeOnly bool, limit int, offset int64) ([]*model.FacilityTemplate, int64, error)
	Update(ctx context.Context, id string, updates *model.FacilityTemplateUpdate) (*model.FacilityTemplate, error)
	Deactivate(ctx context.Context, id string) error
	Activate(ctx context.Context, id string) error
}

type facilityService struct {
	repo      repository.FacilityRepository
	validator *validator.FacilityValidator
	cfg       *config.Config
}

func NewFacilityService(
	repo repository.FacilityRepository,
	validator *validator.FacilityValidator,
	cfg *config.Config,
) FacilityService {
	return &facilityService{
		repo:      repo,
		validator: validator,
		cfg:       cfg,
	}
}

func (s *facilityService) Create(ctx context.Context, facility *model.FacilityTemplate) error {
	s.sanitize(facility)

	// New catalog entries are assignable immediately.
	facility.Active = true

	if err := s.validator.Validate(facility); err != nil {
		s.cfg.Log.Warn("Facility validation failed",
			"name", facility.Name,
			"error", err,
		)
		return apperrors.Validation("Facility validation failed", map[string]any{
			"error": err.Error(),
		})
	}

	if err := s.repo.Create(ctx, facility); err != nil {
		s.cfg.Log.Error("Failed to create facility",
			"name", facility.Name,
			"error", err,
		)
		return apperrors.Internal("Failed to create facility", err)
	}

	s.cfg.Log.Info("Facility created successfully",
		"id", facility.ID,
		"name", facility.Name,
		"type", facility.Type,
	)

	return nil
}

func (s *facilityService) GetByID(ctx context.Context, id string) (*model.FacilityTemplate, error) {
	if id == "" {
		return nil, apperrors.InvalidInput("Facility ID cannot be empty")
	}

	facility, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, facilitieserrors.ErrNotFound) {
			return nil, apperrors.NotFoundWithID("Facility", id)
		}
		if errors.Is(err, facilitieserrors.ErrInvalidID) {
			return nil, apperrors.InvalidInput("Invalid facility ID format")
		}
		s.cfg.Log.Error("Failed to get facility by ID",
			"id", id,
			"error", err,
		)
		return nil, apperrors.Internal("Failed to retrieve facility", err)
	}

	return facility, nil
}

func (s *facilityService) GetAll(ctx context.Context, activeOnly bool, limit int, offset int64) ([]*model.FacilityTemplate, int64, error) {
	limit = config.NormalizePaginationLimit(limit)
	offset = config.NormalizeOffset(offset)

	var count int64
	var facilities []*model.FacilityTemplate
	var errCount, errFind error
	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		var err error
		ctx, cancel := context.WithTimeout(ctx, s.cfg.ReadTimeout)
		defer cancel()
		count, err = s.repo.Count(ctx, activeOnly)
		if err != nil {
			s.cfg.Log.Error("Failed to count facilities", "error", err)
			errCount = apperrors.Internal("Failed to count facilities", err)
		}
	}()

	go func() {
		defer wg.Done()
		var err error
		ctx, cancel := context.WithTimeout(ctx, s.cfg.ReadTimeout)
		defer cancel()
		facilities, err = s.repo.FindAll(ctx, activeOnly, limit, offset)
		if err != nil {
			s.cfg.Log.Error("Failed to get facilities",
				"limit", limit,
				"offset", offset,
				"error", err,
			)
			errFind = apperrors.Internal("Failed to retrieve facilities", err)
		}
	}()
	wg.Wait()

	if errCount != nil {
		return nil, 0, errCount
	}
	if errFind != nil {
		return nil, 0, errFind
	}

	return facilities, count, nil
}

func (s *facilityService) Update(ctx context.Context, id string, updates *model.FacilityTemplateUpdate) (*model.FacilityTemplate, error) {
	if id == "" {
		return nil, apperrors.InvalidInput("Facility ID cannot be empty")
	}

	existing, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, facilitieserrors.ErrNotFound) {
			return nil, apperrors.NotFoundWithID("Facility", id)
		}
		if errors.Is(err, facilitieserrors.ErrInvalidID) {
			return nil, apperrors.InvalidInput("Invalid facility ID format")
		}
		return nil, apperrors.Internal("Failed to check facility existence", err)
	}

	s.sanitizeUpdate(updates)
	merged := s.mergeFacilityUpdates(existing, updates)

	if err := s.validator.Validate(merged); err != nil {
		s.cfg.Log.Warn("Facility validation failed",
			"id", id,
			"name", merged.Name,
			"error", err,
		)
		return nil, apperrors.Validation("Facility validation failed", map[string]any{
			"error": err.Error(),
		})
	}

	if _, err := s.repo.Update(ctx, id, merged); err != nil {
		s.cfg.Log.Error("Failed to update facility",
			"id", id,
			"error", err,
		)
		return nil, apperrors.Internal("Failed to update facility", err)
	}

	s.cfg.Log.Info("Facility updated successfully",
		"id", id,
		"name", merged.Name,
	)

	return merged, nil
}

func (s *facilityService) Deactivate(ctx context.Context, id string) error {
	return s.setActive(ctx, id, false)
}

func (s *facilityService) Activate(ctx context.Context, id string) error {
	return s.setActive(ctx, id, true)
}

func (s *facilityService) setActive(ctx context.Context, id string, active bool) error {
	if id == "" {
		return apperrors.InvalidInput("Facility ID cannot be empty")
	}

	if err := s.repo.SetActive(ctx, id, active); err != nil {
		if errors.Is(err, facilitieserrors.ErrNotFound) {
			return apperrors.NotFoundWithID("Facility", id)
		}
		if errors.Is(err, facilitieserrors.ErrInvalidID) {
			return apperrors.InvalidInput("Invalid facility ID format")
		}
		s.cfg.Log.Error("Failed to change facility active flag",
			"id", id,
			"active", active,
			"error", err,
		)
		return apperrors.Internal("Failed to change facility availability", err)
	}

	s.cfg.Log.Info("Facility availability changed",
		"id", id,
		"active", active,
	)

	return nil
}

func (s *facilityService) sanitize(facility *model.FacilityTemplate) {
	facility.Name = sanitizer.SanitizeLabel(facility.Name)
	facility.Size = sanitizer.SanitizeLabel(facility.Size)
	facility.Type = sanitizer.SanitizeCategoryType(facility.Type)
	facility.Description = sanitizer.SanitizeFreeText(facility.Description)
	facility.UsageGuideline = sanitizer.SanitizeFreeText(facility.UsageGuideline)
	facility.Remark = sanitizer.SanitizeFreeText(facility.Remark)
}

func (s *facilityService) sanitizeUpdate(updates *model.FacilityTemplateUpdate) {
	if updates.Name != "" {
		updates.Name = sanitizer.SanitizeLabel(updates.Name)
	}
	if updates.Size != "" {
		updates.Size = sanitizer.SanitizeLabel(updates.Size)
	}
	if updates.Type != "" {
		updates.Type = sanitizer.SanitizeCategoryType(updates.Type)
	}
	if updates.Description != nil {
		normalized := sanitizer.SanitizeFreeText(*updates.Description)
		updates.Description = &normalized
	}
	if updates.UsageGuideline != nil {
		normalized := sanitizer.SanitizeFreeText(*updates.UsageGuideline)
		updates.UsageGuideline = &normalized
	}
	if updates.Remark != nil {
		normalized := sanitizer.SanitizeFreeText(*updates.Remark)
		updates.Remark = &normalized
	}
}

func (s *facilityService) mergeFacilityUpdates(existing *model.FacilityTemplate, updates *model.FacilityTemplateUpdate) *model.FacilityTemplate {
	merged := *existing

	if updates.Name != "" {
		merged.Name = updates.Name
	}
	if updates.Size != "" {
		merged.Size = updates.Size
	}
	if updates.Type != "" {
		merged.Type = updates.Type
	}
	if updates.Description != nil {
		merged.Description = *updates.Description
	}
	if updates.UsageGuideline != nil {
		merged.UsageGuideline = *updates.UsageGuideline
	}
	if updates.Remark != nil {
		merged.Remark = *updates.Remark
	}
	if updates.StudentPrice != nil {
		merged.StudentPrice = *updates.StudentPrice
	}
	if updates.NonStudentPrice != nil {
		merged.NonStudentPrice = *updates.NonStudentPrice
	}
	if updates.ImagePath != nil {
		merged.ImagePath = *updates.ImagePath
	}

	merged.ID = existing.ID
	merged.CreatedAt = existing.CreatedAt

	return &merged
}
