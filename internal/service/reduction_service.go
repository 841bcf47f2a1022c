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

const defaultReductionPercent = 10

// ReductionService owns the progressive-limit lifecycle: seeding from
// usage history, the weekly reduction sweep, and milestone bookkeeping.
type ReductionService struct {
	progRepo   repository.ProgressiveRepositoryI
	limitsRepo repository.LimitsRepositoryI
	usageRepo  repository.UsageRepositoryI
	eng        *engine.Engine
	clk        clock.Clock
}

func NewReductionService(
	progRepo repository.ProgressiveRepositoryI,
	limitsRepo repository.LimitsRepositoryI,
	usageRepo repository.UsageRepositoryI,
	eng *engine.Engine,
	clk clock.Clock,
) *ReductionService {
	if progRepo == nil || limitsRepo == nil || usageRepo == nil || eng == nil || clk == nil {
		log.Fatal("on reduction service provided nil deps")
	}
	return &ReductionService{
		progRepo:   progRepo,
		limitsRepo: limitsRepo,
		usageRepo:  usageRepo,
		eng:        eng,
		clk:        clk,
	}
}

// CreateProgressiveLimit seeds a plan from the trailing 7-day average
// plus a 10% buffer, creates the synthetic daily limit that actually
// enforces it, and plants the four milestones.
func (rs *ReductionService) CreateProgressiveLimit(ctx context.Context, uid uuid.UUID, req *CreateProgressiveRequest) (*entity.ProgressiveLimit, error) {
	err := validate.Struct(*req)
	if err != nil {
		if validationError, ok := err.(validator.ValidationErrors); ok {
			err = errors.New("validation error: ")
			for _, fieldErr := range validationError {
				err = errors.Join(err, fieldErr)
			}
			return nil, err
		}
		return nil, errors.New("validation unexpected error: " + err.Error())
	}
	now := rs.clk.Now()
	today := startOfDay(now)
	history, err := rs.usageRepo.GetRange(ctx, uid, req.PackageName, today.AddDate(0, 0, -7), today)
	if err != nil {
		return nil, errors.New("usage repository error: " + err.Error())
	}
	if len(history) == 0 {
		return nil, errorvalues.ErrNoUsageHistory
	}
	var total int64
	for _, day := range history {
		total += day.UsageMillis
	}
	avg := total / int64(len(history))
	original := avg + avg/10
	if req.TargetLimitMillis >= original {
		return nil, errorvalues.ErrTargetTooHigh
	}
	reduction := req.ReductionPercent
	if reduction == 0 {
		reduction = defaultReductionPercent
	}

	limitID, err := rs.limitsRepo.Create(ctx, &entity.UsageLimit{
		UserID:         uid,
		PackageName:    req.PackageName,
		Type:           entity.LimitDailyTotal,
		DurationMillis: original,
		Priority:       entity.PriorityNormal,
	})
	if err != nil {
		switch {
		case errors.Is(err, errorvalues.ErrLimitExists), errors.Is(err, errorvalues.ErrUserNotFound):
			return nil, err
		}
		return nil, errors.New("limits repository error: " + err.Error())
	}
	pl := &entity.ProgressiveLimit{
		UserID:              uid,
		PackageName:         req.PackageName,
		EnforcedLimitID:     limitID,
		OriginalLimitMillis: original,
		TargetLimitMillis:   req.TargetLimitMillis,
		CurrentLimitMillis:  original,
		ReductionPercent:    reduction,
		StartDate:           today,
		NextReductionDate:   today.AddDate(0, 0, 7),
		IsActive:            true,
	}
	milestones := make([]entity.ProgressiveMilestone, 0, len(engine.MilestonePercents))
	for _, percent := range engine.MilestonePercents {
		title, description := engine.RewardFor(percent)
		milestones = append(milestones, entity.ProgressiveMilestone{
			ID:                uuid.New(),
			Percent:           percent,
			RewardTitle:       title,
			RewardDescription: description,
		})
	}
	id, err := rs.progRepo.Create(ctx, pl, milestones)
	if err != nil {
		if errors.Is(err, errorvalues.ErrProgressiveExist) {
			return nil, err
		}
		return nil, errors.New("progressive repository error: " + err.Error())
	}
	pl.ID = id
	return pl, nil
}

// RunWeeklySweep advances every due limit one reduction step and latches
// freshly crossed milestones. Each step is self-contained, so a sweep
// aborted mid-batch leaves a valid, resumable state; re-running on the
// same day is a no-op for already-advanced rows because their next
// reduction date moved past today.
func (rs *ReductionService) RunWeeklySweep(ctx context.Context, today time.Time) ([]entity.ProgressiveLimit, error) {
	today = startOfDay(today)
	due, err := rs.progRepo.GetDue(ctx, today)
	if err != nil {
		return nil, errors.New("progressive repository error: " + err.Error())
	}
	updated := make([]entity.ProgressiveLimit, 0, len(due))
	for _, pl := range due {
		if err = ctx.Err(); err != nil {
			return updated, err
		}
		next, stepped := engine.AdvanceProgressiveLimit(pl, today)
		if !stepped {
			continue
		}
		if err = rs.progRepo.UpdateProgress(ctx, &next); err != nil {
			return updated, errors.New("progressive repository error: " + err.Error())
		}
		if err = rs.limitsRepo.UpdateDuration(ctx, next.EnforcedLimitID, next.CurrentLimitMillis); err != nil {
			if !errors.Is(err, errorvalues.ErrLimitNotFound) {
				return updated, errors.New("limits repository error: " + err.Error())
			}
			// The synthetic limit was deactivated or removed out of band;
			// the plan itself still advances.
		}
		if err = rs.latchMilestones(ctx, &next, today); err != nil {
			return updated, err
		}
		updated = append(updated, next)
	}
	return updated, nil
}

func (rs *ReductionService) latchMilestones(ctx context.Context, pl *entity.ProgressiveLimit, today time.Time) error {
	milestones, err := rs.progRepo.Milestones(ctx, pl.ID)
	if err != nil {
		return errors.New("progressive repository error: " + err.Error())
	}
	for _, m := range engine.DueMilestones(pl.ProgressPercent, milestones) {
		err = rs.progRepo.AchieveMilestone(ctx, m.ID, today)
		if err != nil && !errors.Is(err, errorvalues.ErrMilestoneGone) {
			return errors.New("progressive repository error: " + err.Error())
		}
		// ErrMilestoneGone here means another runner latched it first;
		// achievement is idempotent, so that is fine.
	}
	return nil
}

func (rs *ReductionService) UncelebratedMilestones(ctx context.Context, uid uuid.UUID) ([]entity.ProgressiveMilestone, error) {
	milestones, err := rs.progRepo.Uncelebrated(ctx, uid)
	if err != nil {
		return nil, errors.New("progressive repository error: " + err.Error())
	}
	return milestones, nil
}

func (rs *ReductionService) MarkCelebrated(ctx context.Context, uid, milestoneID uuid.UUID) error {
	milestone, err := rs.progRepo.GetMilestone(ctx, milestoneID)
	if err != nil {
		if errors.Is(err, errorvalues.ErrMilestoneGone) {
			return err
		}
		return errors.New("progressive repository error: " + err.Error())
	}
	pl, err := rs.progRepo.GetByID(ctx, milestone.LimitID)
	if err != nil {
		return errors.New("progressive repository error: " + err.Error())
	}
	if pl.UserID != uid {
		return errorvalues.ErrWrongOwner
	}
	if err = rs.progRepo.MarkCelebrated(ctx, milestoneID); err != nil {
		if errors.Is(err, errorvalues.ErrMilestoneGone) {
			return err
		}
		return errors.New("progressive repository error: " + err.Error())
	}
	return nil
}

func (rs *ReductionService) Recommend(ctx context.Context, uid uuid.UUID, pkg string, strategy engine.ProgressionStrategy) (*engine.ProgressiveLimitRecommendation, error) {
	pl, err := rs.progRepo.GetActiveByPackage(ctx, uid, pkg)
	if err != nil {
		if errors.Is(err, errorvalues.ErrProgressiveGone) {
			return nil, err
		}
		return nil, errors.New("progressive repository error: " + err.Error())
	}
	now := rs.clk.Now()
	history, err := rs.usageRepo.GetRange(ctx, uid, pkg, startOfDay(now).AddDate(0, 0, -7), startOfDay(now))
	if err != nil {
		return nil, errors.New("usage repository error: " + err.Error())
	}
	priority := entity.PriorityNormal
	if limit, lerr := rs.limitsRepo.GetByID(ctx, pl.EnforcedLimitID); lerr == nil {
		priority = limit.Priority
	}
	recommendation := rs.eng.CalculateProgressiveLimit(pl.CurrentLimitMillis, priority, history, strategy)
	return &recommendation, nil
}
