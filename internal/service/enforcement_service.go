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

// EnforcementService orchestrates one enforcement pass: it loads the
// state the stateless engine needs, asks for a decision, and persists
// the ledger records the decision produced. The engine itself stays free
// of I/O, so concurrent evaluations never contend inside this service.
type EnforcementService struct {
	limitsRepo     repository.LimitsRepositoryI
	violationsRepo repository.ViolationsRepositoryI
	extensionsRepo repository.ExtensionsRepositoryI
	usageRepo      repository.UsageRepositoryI
	usersRepo      repository.UsersRepositoryI
	eng            *engine.Engine
	clk            clock.Clock
}

func NewEnforcementService(
	limitsRepo repository.LimitsRepositoryI,
	violationsRepo repository.ViolationsRepositoryI,
	extensionsRepo repository.ExtensionsRepositoryI,
	usageRepo repository.UsageRepositoryI,
	usersRepo repository.UsersRepositoryI,
	eng *engine.Engine,
	clk clock.Clock,
) *EnforcementService {
	if limitsRepo == nil || violationsRepo == nil || extensionsRepo == nil || usageRepo == nil || usersRepo == nil || eng == nil || clk == nil {
		log.Fatal("on enforcement service provided nil deps")
	}
	return &EnforcementService{
		limitsRepo:     limitsRepo,
		violationsRepo: violationsRepo,
		extensionsRepo: extensionsRepo,
		usageRepo:      usageRepo,
		usersRepo:      usersRepo,
		eng:            eng,
		clk:            clk,
	}
}

func (es *EnforcementService) Evaluate(ctx context.Context, uid uuid.UUID, snap engine.UsageSnapshot, category engine.AppCategory) (*EvaluationResult, error) {
	now := es.clk.Now()
	limits, err := es.limitsRepo.GetActiveByPackage(ctx, uid, snap.PackageName)
	if err != nil {
		return nil, errors.New("limits repository error: " + err.Error())
	}
	uctx := engine.ResolveContext(snap, now)
	result := es.eng.ShouldBlockApp(snap.PackageName, uctx, limits)
	warning := es.eng.CalculateWarningLevel(snap.PackageName, uctx, limits)
	remaining := es.eng.CalculateRemainingTime(snap.PackageName, uctx, limits)

	strategy, err := es.strategyFor(ctx, uid, category, now)
	if err != nil {
		return nil, err
	}
	out := &EvaluationResult{
		Result:    result,
		Warning:   warning,
		Remaining: remaining,
		Strategy:  strategy,
	}
	if !result.ShouldBlock {
		return out, nil
	}
	// A stricter personalized strategy escalates the suggestion; it
	// never softens a block the limits themselves demanded.
	if strategy.PrimaryAction == engine.ActionBlockImmediately && result.SuggestedAction == engine.ActionSuggestBreak {
		out.Result.SuggestedAction = engine.ActionBlockImmediately
	}
	if !strategy.OfferExtensions {
		out.Result.AllowedExtensions = []int{}
	}
	recent, err := es.violationsRepo.GetByPackageSince(ctx, uid, snap.PackageName, now.Add(-24*time.Hour))
	if err != nil {
		return nil, errors.New("violations repository error: " + err.Error())
	}
	cooldown := es.eng.CalculateCooldownPeriod(snap.PackageName, result.Severity, recent, now)
	out.Cooldown = &cooldown
	err = es.violationsRepo.Append(ctx, &entity.ViolationRecord{
		UserID:          uid,
		PackageName:     snap.PackageName,
		Type:            result.ViolatedType,
		Severity:        result.Severity,
		ExceedsByMillis: result.ExceedsByMillis,
		OccurredAt:      now,
	})
	if err != nil {
		return nil, errors.New("violations repository error: " + err.Error())
	}
	return out, nil
}

func (es *EnforcementService) RequestExtension(ctx context.Context, uid uuid.UUID, pkg string, minutes int, reason string) (*engine.ExtensionDecision, error) {
	now := es.clk.Now()
	limits, err := es.limitsRepo.GetActiveByPackage(ctx, uid, pkg)
	if err != nil {
		return nil, errors.New("limits repository error: " + err.Error())
	}
	// No live session telemetry here; today's stored total is the best
	// available picture of which limits are currently violated.
	uctx := es.storedContext(ctx, uid, pkg, now)
	violated := es.eng.ShouldBlockApp(pkg, uctx, limits).ViolatedLimits
	history, err := es.extensionsRepo.GetByPackageSince(ctx, uid, pkg, now.Add(-7*24*time.Hour))
	if err != nil {
		return nil, errors.New("extensions repository error: " + err.Error())
	}
	decision := es.eng.ShouldAllowExtension(pkg, minutes, violated, history, now)
	if decision.Allowed {
		err = es.extensionsRepo.Append(ctx, &entity.ExtensionRecord{
			UserID:      uid,
			PackageName: pkg,
			Minutes:     decision.GrantedMinutes,
			Reason:      reason,
			RequestedAt: now,
		})
		if err != nil {
			return nil, errors.New("extensions repository error: " + err.Error())
		}
	}
	return &decision, nil
}

func (es *EnforcementService) ActiveCooldown(ctx context.Context, uid uuid.UUID, pkg string) (*entity.CooldownPeriod, error) {
	newest, err := es.violationsRepo.GetNewestByPackage(ctx, uid, pkg)
	if err != nil {
		return nil, errors.New("violations repository error: " + err.Error())
	}
	if newest == nil {
		return nil, nil
	}
	recent, err := es.violationsRepo.GetByPackageSince(ctx, uid, pkg, newest.OccurredAt.Add(-24*time.Hour))
	if err != nil {
		return nil, errors.New("violations repository error: " + err.Error())
	}
	// The newest violation didn't count itself when its cooldown was
	// first derived; keep the re-derivation identical.
	preceding := make([]entity.ViolationRecord, 0, len(recent))
	for _, v := range recent {
		if v.ID != newest.ID {
			preceding = append(preceding, v)
		}
	}
	cooldown := es.eng.CalculateCooldownPeriod(pkg, newest.Severity, preceding, newest.OccurredAt)
	if !cooldown.ActiveAt(es.clk.Now()) {
		return nil, nil
	}
	return &cooldown, nil
}

func (es *EnforcementService) RecordDailyUsage(ctx context.Context, uid uuid.UUID, uploads []DailyUsageUpload) error {
	for i := range uploads {
		up := uploads[i]
		if err := validate.Struct(up); err != nil {
			if validationError, ok := err.(validator.ValidationErrors); ok {
				err = errors.New("validation error: ")
				for _, fieldErr := range validationError {
					err = errors.Join(err, fieldErr)
				}
				return err
			}
			return errors.New("validation unexpected error: " + err.Error())
		}
		usage := up.UsageMillis
		if usage < 0 {
			usage = 0
		}
		unlocks := up.Unlocks
		if unlocks < 0 {
			unlocks = 0
		}
		err := es.usageRepo.UpsertDaily(ctx, &entity.DailyUsageRecord{
			UserID:      uid,
			PackageName: up.PackageName,
			Day:         startOfDay(up.Day),
			UsageMillis: usage,
			Unlocks:     unlocks,
		})
		if err != nil {
			if errors.Is(err, errorvalues.ErrUserNotFound) {
				return err
			}
			return errors.New("usage repository error: " + err.Error())
		}
	}
	return nil
}

// strategyFor assembles the behavior profile (stored scores plus derived
// trailing violation count) and picks the enforcement strategy.
func (es *EnforcementService) strategyFor(ctx context.Context, uid uuid.UUID, category engine.AppCategory, now time.Time) (engine.EnforcementStrategy, error) {
	profile, err := es.usersRepo.GetProfile(ctx, uid)
	if err != nil {
		if !errors.Is(err, errorvalues.ErrProfileNotFound) {
			return engine.EnforcementStrategy{}, errors.New("users repository error: " + err.Error())
		}
		profile = &entity.UserProfile{
			SelfControlScore: defaultSelfControl,
			MotivationLevel:  defaultMotivation,
		}
	}
	recentViolations, err := es.violationsRepo.CountByUserSince(ctx, uid, now.Add(-7*24*time.Hour))
	if err != nil {
		return engine.EnforcementStrategy{}, errors.New("violations repository error: " + err.Error())
	}
	behavior := engine.UserBehaviorProfile{
		SelfControlScore: profile.SelfControlScore,
		MotivationLevel:  profile.MotivationLevel,
		RecentViolations: recentViolations,
	}
	if category == "" {
		category = engine.CategoryOther
	}
	return es.eng.DetermineEnforcementStrategy(behavior, category, engine.ResolveTimeContext(now)), nil
}

// storedContext builds an evaluation context from today's persisted
// usage total. Missing rows resolve to zero usage, never an error.
func (es *EnforcementService) storedContext(ctx context.Context, uid uuid.UUID, pkg string, now time.Time) entity.AppUsageContext {
	var todayUsage int64
	day := startOfDay(now)
	records, err := es.usageRepo.GetRange(ctx, uid, pkg, day, day)
	if err == nil && len(records) > 0 {
		todayUsage = records[len(records)-1].UsageMillis
	}
	return engine.ResolveContext(engine.UsageSnapshot{
		PackageName:      pkg,
		TodayUsageMillis: todayUsage,
	}, now)
}
