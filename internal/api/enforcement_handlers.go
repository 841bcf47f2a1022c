package api

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/bytedance/sonic"

	"github.com/lowkey/screenbreak/internal/engine"
	errorvalues "github.com/lowkey/screenbreak/internal/error_values"
	"github.com/lowkey/screenbreak/internal/service"
	"github.com/lowkey/screenbreak/pkg/httputil"
)

type EvaluateRequest struct {
	PackageName         string `json:"package_name"`
	TodayUsageMillis    int64  `json:"today_usage_millis"`
	SessionStartUnixMs  int64  `json:"session_start_unix_ms"`
	UnlocksSinceLastUse int    `json:"unlocks_since_last_use"`
	Category            string `json:"category,omitempty"`
}

type RequestExtensionRequest struct {
	PackageName string `json:"package_name"`
	Minutes     int    `json:"minutes"`
	Reason      string `json:"reason,omitempty"`
}

type RecordDailyUsageRequest struct {
	Records []DailyUsageRecordUpload `json:"records"`
}

type DailyUsageRecordUpload struct {
	PackageName string `json:"package_name"`
	Day         string `json:"day"` // 2006-01-02
	UsageMillis int64  `json:"usage_millis"`
	Unlocks     int    `json:"unlocks"`
}

func (s *Server) Evaluate(w http.ResponseWriter, r *http.Request) {
	logger := GetLoggerFromCtx(r.Context())
	uid, err := GetUIDFromContext(r)
	if err != nil {
		logger.Error("evaluate error: unauthorized")
		httputil.WriteErrorResponse(w, http.StatusUnauthorized, "no authorization", nil)
		return
	}
	var req EvaluateRequest
	defer r.Body.Close()
	err = sonic.ConfigDefault.NewDecoder(r.Body).Decode(&req)
	if err != nil || req.PackageName == "" {
		logger.Error("evaluate error: invalid request body")
		httputil.WriteErrorResponse(w, http.StatusBadRequest, "invalid request body", nil)
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), time.Second*10)
	defer cancel()
	result, err := s.enforcementService.Evaluate(ctx, uid, engine.UsageSnapshot{
		PackageName:         req.PackageName,
		TodayUsageMillis:    req.TodayUsageMillis,
		SessionStartUnixMs:  req.SessionStartUnixMs,
		UnlocksSinceLastUse: req.UnlocksSinceLastUse,
	}, engine.AppCategory(req.Category))
	if err != nil {
		logger.Error("evaluate error: service error", slog.String("error", err.Error()))
		httputil.WriteErrorResponse(w, http.StatusInternalServerError, "internal error during evaluation", nil)
		return
	}
	httputil.WriteJSONResponse(w, http.StatusOK, result)
	if result.Result.ShouldBlock {
		logger.Info("evaluation blocked package",
			slog.String("package", req.PackageName),
			slog.String("severity", string(result.Result.Severity)),
		)
	}
}

func (s *Server) RequestExtension(w http.ResponseWriter, r *http.Request) {
	logger := GetLoggerFromCtx(r.Context())
	uid, err := GetUIDFromContext(r)
	if err != nil {
		logger.Error("request extension error: unauthorized")
		httputil.WriteErrorResponse(w, http.StatusUnauthorized, "no authorization", nil)
		return
	}
	var req RequestExtensionRequest
	defer r.Body.Close()
	err = sonic.ConfigDefault.NewDecoder(r.Body).Decode(&req)
	if err != nil || req.PackageName == "" {
		logger.Error("request extension error: invalid request body")
		httputil.WriteErrorResponse(w, http.StatusBadRequest, "invalid request body", nil)
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), time.Second*10)
	defer cancel()
	decision, err := s.enforcementService.RequestExtension(ctx, uid, req.PackageName, req.Minutes, req.Reason)
	if err != nil {
		logger.Error("request extension error: service error", slog.String("error", err.Error()))
		httputil.WriteErrorResponse(w, http.StatusInternalServerError, "internal error during extension request", nil)
		return
	}
	httputil.WriteJSONResponse(w, http.StatusOK, decision)
	logger.Info("extension decided",
		slog.String("package", req.PackageName),
		slog.Bool("allowed", decision.Allowed),
		slog.Int("granted_minutes", decision.GrantedMinutes),
	)
}

func (s *Server) GetCooldown(w http.ResponseWriter, r *http.Request) {
	logger := GetLoggerFromCtx(r.Context())
	uid, err := GetUIDFromContext(r)
	if err != nil {
		logger.Error("get cooldown error: unauthorized")
		httputil.WriteErrorResponse(w, http.StatusUnauthorized, "no authorization", nil)
		return
	}
	pkg := r.PathValue("package")
	if pkg == "" {
		httputil.WriteErrorResponse(w, http.StatusBadRequest, "package name required", nil)
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), time.Second*10)
	defer cancel()
	cooldown, err := s.enforcementService.ActiveCooldown(ctx, uid, pkg)
	if err != nil {
		logger.Error("get cooldown error: service error", slog.String("error", err.Error()))
		httputil.WriteErrorResponse(w, http.StatusInternalServerError, "internal error while getting cooldown", nil)
		return
	}
	if cooldown == nil {
		httputil.WriteJSONResponse(w, http.StatusOK, map[string]any{"active": false})
		return
	}
	httputil.WriteJSONResponse(w, http.StatusOK, map[string]any{
		"active":   true,
		"cooldown": cooldown,
	})
}

func (s *Server) RecordDailyUsage(w http.ResponseWriter, r *http.Request) {
	logger := GetLoggerFromCtx(r.Context())
	uid, err := GetUIDFromContext(r)
	if err != nil {
		logger.Error("record usage error: unauthorized")
		httputil.WriteErrorResponse(w, http.StatusUnauthorized, "no authorization", nil)
		return
	}
	var req RecordDailyUsageRequest
	defer r.Body.Close()
	err = sonic.ConfigDefault.NewDecoder(r.Body).Decode(&req)
	if err != nil || len(req.Records) == 0 {
		logger.Error("record usage error: invalid request body")
		httputil.WriteErrorResponse(w, http.StatusBadRequest, "invalid request body", nil)
		return
	}
	uploads := make([]service.DailyUsageUpload, 0, len(req.Records))
	for _, rec := range req.Records {
		day, err := time.Parse("2006-01-02", rec.Day)
		if err != nil {
			logger.Error("record usage error: invalid day", slog.String("day", rec.Day))
			httputil.WriteErrorResponse(w, http.StatusBadRequest, "invalid day format, expected YYYY-MM-DD", nil)
			return
		}
		uploads = append(uploads, service.DailyUsageUpload{
			PackageName: rec.PackageName,
			Day:         day,
			UsageMillis: rec.UsageMillis,
			Unlocks:     rec.Unlocks,
		})
	}
	ctx, cancel := context.WithTimeout(r.Context(), time.Second*10)
	defer cancel()
	err = s.enforcementService.RecordDailyUsage(ctx, uid, uploads)
	if err != nil {
		if errors.Is(err, errorvalues.ErrUserNotFound) {
			logger.Error("record usage error: unexist user")
			httputil.WriteErrorResponse(w, http.StatusNotFound, "user doesn't exist", nil)
			return
		}
		logger.Error("record usage error: service error", slog.String("error", err.Error()))
		httputil.WriteErrorResponse(w, http.StatusBadRequest, "couldn't record usage", err)
		return
	}
	httputil.WriteJSONResponse(w, http.StatusAccepted, map[string]any{
		"recorded": len(uploads),
	})
	logger.Info("daily usage recorded", slog.Int("records", len(uploads)))
}
