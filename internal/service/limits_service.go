package service

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/lowkey/screenbreak/internal/engine"
	errorvalues "github.com/lowkey/screenbreak/internal/error_values"
	"github.com/lowkey/screenbreak/internal/repository"
	"github.com/lowkey/screenbreak/pkg/clock"
	"github.com/lowkey/screenbreak/pkg/entity"
)

type LimitsService struct {
	limitsRepo repository.LimitsRepositoryI
	usageRepo  repository.UsageRepositoryI
	eng        *engine.Engine
	clk        clock.Clock
}

func NewLimitsService(limitsRepo repository.LimitsRepositoryI, usageRepo repository.UsageRepositoryI, eng *engine.Engine, clk clock.Clock) *LimitsService {
	if limitsRepo == nil || usageRepo == nil || eng == nil || clk == nil {
		log.Fatal("on limits service provided nil deps")
	}
	return &LimitsService{
		limitsRepo: limitsRepo,
		usageRepo:  usageRepo,
		eng:        eng,
		clk:        clk,
	}
}

func (ls *LimitsService) CreateLimit(ctx context.Context, uid uuid.UUID, req *CreateLimitRequest) (*entity.UsageLimit, engine.LimitValidationResult, error) {
	validation, proposal, err := ls.validate(ctx, uid, req)
	if err != nil {
		return nil, validation, err
	}
	if !validation.Valid {
		return nil, validation, errorvalues.ErrInvalidProposal
	}
	id, err := ls.limitsRepo.Create(ctx, proposal)
	if err != nil {
		switch {
		case errors.Is(err, errorvalues.ErrLimitExists), errors.Is(err, errorvalues.ErrUserNotFound):
			return nil, validation, err
		}
		return nil, validation, errors.New("limits repository error: " + err.Error())
	}
	limit, err := ls.limitsRepo.GetByID(ctx, id)
	if err != nil {
		return nil, validation, errors.New("limits repository error: " + err.Error())
	}
	return limit, validation, nil
}

func (ls *LimitsService) ValidateProposal(ctx context.Context, uid uuid.UUID, req *CreateLimitRequest) (engine.LimitValidationResult, error) {
	validation, _, err := ls.validate(ctx, uid, req)
	return validation, err
}

func (ls *LimitsService) ListLimits(ctx context.Context, uid uuid.UUID, pagination PaginationOpts) ([]entity.UsageLimit, error) {
	limits, err := ls.limitsRepo.GetByUser(ctx, uid, pagination.Limit, pagination.Offset)
	if err != nil {
		return nil, errors.New("limits repository error: " + err.Error())
	}
	return limits, nil
}

func (ls *LimitsService) DeactivateLimit(ctx context.Context, limitID, uid uuid.UUID) error {
	limit, err := ls.limitsRepo.GetByID(ctx, limitID)
	if err != nil {
		if errors.Is(err, errorvalues.ErrLimitNotFound) {
			return err
		}
		return errors.New("limits repository error: " + err.Error())
	}
	if limit.UserID != uid {
		return errorvalues.ErrWrongOwner
	}
	if limit.Priority == entity.PriorityStrict {
		return errorvalues.ErrStrictLimitLock
	}
	err = ls.limitsRepo.Deactivate(ctx, limitID)
	if err != nil {
		if errors.Is(err, errorvalues.ErrLimitNotFound) {
			return err
		}
		return errors.New("limits repository error: " + err.Error())
	}
	return nil
}

// validate runs struct validation, builds the proposal entity and scores
// it against the trailing week of usage.
func (ls *LimitsService) validate(ctx context.Context, uid uuid.UUID, req *CreateLimitRequest) (engine.LimitValidationResult, *entity.UsageLimit, error) {
	err := validate.Struct(*req)
	if err != nil {
		if validationError, ok := err.(validator.ValidationErrors); ok {
			err = errors.New("validation error: ")
			for _, fieldErr := range validationError {
				err = errors.Join(err, fieldErr)
			}
			return engine.LimitValidationResult{}, nil, err
		}
		return engine.LimitValidationResult{}, nil, errors.New("validation unexpected error: " + err.Error())
	}
	proposal := &entity.UsageLimit{
		UserID:         uid,
		PackageName:    req.PackageName,
		Type:           req.Type,
		DurationMillis: req.DurationMillis,
		DaysOfWeek:     req.DaysOfWeek,
		Priority:       req.Priority,
	}
	if req.StartHour != nil && req.EndHour != nil {
		proposal.TimeRange = &entity.TimeRange{StartHour: *req.StartHour, EndHour: *req.EndHour}
	}
	now := ls.clk.Now()
	history, err := ls.usageRepo.GetRange(ctx, uid, req.PackageName, now.AddDate(0, 0, -7), now)
	if err != nil {
		// History only feeds the achievability warning; validation still
		// works without it.
		history = nil
	}
	return ls.eng.ValidateLimitProposal(*proposal, history), proposal, nil
}

// startOfDay truncates an instant to local midnight.
func startOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}
