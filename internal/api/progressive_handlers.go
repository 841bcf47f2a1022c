package api

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/bytedance/sonic"
	"github.com/google/uuid"

	"github.com/lowkey/screenbreak/internal/engine"
	errorvalues "github.com/lowkey/screenbreak/internal/error_values"
	"github.com/lowkey/screenbreak/internal/service"
	"github.com/lowkey/screenbreak/pkg/httputil"
)

type CreateProgressiveRequest struct {
	PackageName       string  `json:"package_name"`
	TargetLimitMillis int64   `json:"target_limit_millis"`
	ReductionPercent  float64 `json:"reduction_percent,omitempty"`
}

type RunSweepRequest struct {
	Today string `json:"today,omitempty"` // 2006-01-02, defaults to now
}

type RecommendRequest struct {
	PackageName string `json:"package_name"`
	Strategy    string `json:"strategy"`
}

func (s *Server) CreateProgressiveLimit(w http.ResponseWriter, r *http.Request) {
	logger := GetLoggerFromCtx(r.Context())
	uid, err := GetUIDFromContext(r)
	if err != nil {
		logger.Error("create progressive error: unauthorized")
		httputil.WriteErrorResponse(w, http.StatusUnauthorized, "no authorization", nil)
		return
	}
	var req CreateProgressiveRequest
	defer r.Body.Close()
	err = sonic.ConfigDefault.NewDecoder(r.Body).Decode(&req)
	if err != nil {
		logger.Error("create progressive error: invalid request body")
		httputil.WriteErrorResponse(w, http.StatusBadRequest, "invalid request body", nil)
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), time.Second*10)
	defer cancel()
	pl, err := s.reductionService.CreateProgressiveLimit(ctx, uid, &service.CreateProgressiveRequest{
		PackageName:       req.PackageName,
		TargetLimitMillis: req.TargetLimitMillis,
		ReductionPercent:  req.ReductionPercent,
	})
	if err != nil {
		switch {
		case errors.Is(err, errorvalues.ErrNoUsageHistory):
			logger.Error("create progressive error: no usage history")
			httputil.WriteErrorResponse(w, http.StatusUnprocessableEntity, "no usage history for package, upload daily usage first", nil)
		case errors.Is(err, errorvalues.ErrTargetTooHigh):
			logger.Error("create progressive error: target above baseline")
			httputil.WriteErrorResponse(w, http.StatusUnprocessableEntity, "target must be below the current usage baseline", nil)
		case errors.Is(err, errorvalues.ErrProgressiveExist), errors.Is(err, errorvalues.ErrLimitExists):
			logger.Error("create progressive error: duplicate plan")
			httputil.WriteErrorResponse(w, http.StatusConflict, "active progressive limit already exists for package", nil)
		case errors.Is(err, errorvalues.ErrUserNotFound):
			logger.Error("create progressive error: unexist user")
			httputil.WriteErrorResponse(w, http.StatusNotFound, "user doesn't exist", nil)
		default:
			logger.Error("create progressive error: service error", slog.String("error", err.Error()))
			httputil.WriteErrorResponse(w, http.StatusBadRequest, "couldn't create progressive limit", err)
		}
		return
	}
	httputil.WriteJSONResponse(w, http.StatusCreated, pl)
	logger.Info("progressive limit created",
		slog.String("id", pl.ID.String()),
		slog.String("package", pl.PackageName),
	)
}

// RunSweep is the endpoint an external scheduler hits daily; only limits
// whose reduction date arrived actually advance.
func (s *Server) RunSweep(w http.ResponseWriter, r *http.Request) {
	logger := GetLoggerFromCtx(r.Context())
	var req RunSweepRequest
	defer r.Body.Close()
	// Empty body is fine: sweep for today.
	_ = sonic.ConfigDefault.NewDecoder(r.Body).Decode(&req)
	today := time.Now()
	if req.Today != "" {
		parsed, err := time.Parse("2006-01-02", req.Today)
		if err != nil {
			logger.Error("sweep error: invalid day", slog.String("today", req.Today))
			httputil.WriteErrorResponse(w, http.StatusBadRequest, "invalid day format, expected YYYY-MM-DD", nil)
			return
		}
		today = parsed
	}
	ctx, cancel := context.WithTimeout(r.Context(), time.Minute)
	defer cancel()
	updated, err := s.reductionService.RunWeeklySweep(ctx, today)
	if err != nil {
		logger.Error("sweep error: service error", slog.String("error", err.Error()))
		// Partial progress is still progress: report what advanced.
		httputil.WriteJSONResponse(w, http.StatusInternalServerError, map[string]any{
			"updated": updated,
			"error":   "sweep aborted before completing",
		})
		return
	}
	httputil.WriteJSONResponse(w, http.StatusOK, map[string]any{
		"updated": updated,
	})
	logger.Info("reduction sweep finished", slog.Int("updated", len(updated)))
}

func (s *Server) Recommend(w http.ResponseWriter, r *http.Request) {
	logger := GetLoggerFromCtx(r.Context())
	uid, err := GetUIDFromContext(r)
	if err != nil {
		logger.Error("recommend error: unauthorized")
		httputil.WriteErrorResponse(w, http.StatusUnauthorized, "no authorization", nil)
		return
	}
	var req RecommendRequest
	defer r.Body.Close()
	err = sonic.ConfigDefault.NewDecoder(r.Body).Decode(&req)
	if err != nil || req.PackageName == "" {
		logger.Error("recommend error: invalid request body")
		httputil.WriteErrorResponse(w, http.StatusBadRequest, "invalid request body", nil)
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), time.Second*10)
	defer cancel()
	recommendation, err := s.reductionService.Recommend(ctx, uid, req.PackageName, engine.ProgressionStrategy(req.Strategy))
	if err != nil {
		if errors.Is(err, errorvalues.ErrProgressiveGone) {
			logger.Error("recommend error: no active progressive limit")
			httputil.WriteErrorResponse(w, http.StatusNotFound, "no active progressive limit for package", nil)
			return
		}
		logger.Error("recommend error: service error", slog.String("error", err.Error()))
		httputil.WriteErrorResponse(w, http.StatusInternalServerError, "internal error during recommendation", nil)
		return
	}
	httputil.WriteJSONResponse(w, http.StatusOK, recommendation)
}

func (s *Server) UncelebratedMilestones(w http.ResponseWriter, r *http.Request) {
	logger := GetLoggerFromCtx(r.Context())
	uid, err := GetUIDFromContext(r)
	if err != nil {
		logger.Error("milestones error: unauthorized")
		httputil.WriteErrorResponse(w, http.StatusUnauthorized, "no authorization", nil)
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), time.Second*10)
	defer cancel()
	milestones, err := s.reductionService.UncelebratedMilestones(ctx, uid)
	if err != nil {
		logger.Error("milestones error: service error", slog.String("error", err.Error()))
		httputil.WriteErrorResponse(w, http.StatusInternalServerError, "internal error while getting milestones", nil)
		return
	}
	httputil.WriteJSONResponse(w, http.StatusOK, map[string]any{
		"milestones": milestones,
	})
}

func (s *Server) CelebrateMilestone(w http.ResponseWriter, r *http.Request) {
	logger := GetLoggerFromCtx(r.Context())
	uid, err := GetUIDFromContext(r)
	if err != nil {
		logger.Error("celebrate error: unauthorized")
		httputil.WriteErrorResponse(w, http.StatusUnauthorized, "no authorization", nil)
		return
	}
	milestoneID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		logger.Error("celebrate error: invalid id")
		httputil.WriteErrorResponse(w, http.StatusBadRequest, "invalid milestone id", nil)
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), time.Second*10)
	defer cancel()
	err = s.reductionService.MarkCelebrated(ctx, uid, milestoneID)
	if err != nil {
		switch {
		case errors.Is(err, errorvalues.ErrMilestoneGone):
			logger.Error("celebrate error: unexist milestone")
			httputil.WriteErrorResponse(w, http.StatusNotFound, "milestone doesn't exist", nil)
		case errors.Is(err, errorvalues.ErrWrongOwner):
			logger.Error("celebrate error: wrong owner")
			httputil.WriteErrorResponse(w, http.StatusForbidden, "milestone belongs to another user", nil)
		default:
			logger.Error("celebrate error: service error", slog.String("error", err.Error()))
			httputil.WriteErrorResponse(w, http.StatusInternalServerError, "internal error while celebrating milestone", nil)
		}
		return
	}
	httputil.WriteJSONResponse(w, http.StatusNoContent, nil)
	logger.Info("milestone celebrated", slog.String("milestone_id", milestoneID.String()))
}
