package api

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/bytedance/sonic"
	"github.com/google/uuid"

	errorvalues "github.com/lowkey/screenbreak/internal/error_values"
	"github.com/lowkey/screenbreak/internal/service"
	"github.com/lowkey/screenbreak/pkg/entity"
	"github.com/lowkey/screenbreak/pkg/httputil"
)

type RegisterRequest struct {
	Name     string `json:"name"`
	Password string `json:"password"`
}

type LoginRequest struct {
	Name     string `json:"name"`
	Password string `json:"password"`
}

type UpdateProfileRequest struct {
	SelfControlScore float64 `json:"self_control_score"`
	MotivationLevel  float64 `json:"motivation_level"`
}

type CreateLimitRequest struct {
	PackageName    string  `json:"package_name"`
	Type           string  `json:"type"`
	DurationMillis int64   `json:"duration_millis"`
	StartHour      *int    `json:"start_hour,omitempty"`
	EndHour        *int    `json:"end_hour,omitempty"`
	DaysOfWeek     []int32 `json:"days_of_week,omitempty"`
	Priority       string  `json:"priority"`
}

type ListLimitsResponse struct {
	UserID string              `json:"uid"`
	Page   int                 `json:"page"`
	Limit  int                 `json:"limit"`
	Limits []entity.UsageLimit `json:"limits"`
}

func (s *Server) Register(w http.ResponseWriter, r *http.Request) {
	logger := GetLoggerFromCtx(r.Context())
	var req RegisterRequest
	defer r.Body.Close()
	err := sonic.ConfigDefault.NewDecoder(r.Body).Decode(&req)
	if err != nil {
		logger.Error("registering error: invalid body")
		httputil.WriteErrorResponse(w, http.StatusBadRequest, "invalid request body", nil)
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), time.Second*10)
	defer cancel()
	user, err := s.userService.Register(ctx, &service.RegisterRequest{
		Name:     req.Name,
		Password: req.Password,
	})
	if err != nil {
		if errors.Is(err, errorvalues.ErrUserExists) {
			logger.Error("registering error: existed user")
			httputil.WriteErrorResponse(w, http.StatusConflict, "user with such name already exists", nil)
			return
		}
		logger.Error("registering error: service error", slog.String("error", err.Error()))
		httputil.WriteErrorResponse(w, http.StatusInternalServerError, "internal error during registration", nil)
		return
	}
	httputil.WriteJSONResponse(w, http.StatusCreated, map[string]any{
		"uid": user.ID.String(),
	})
	logger.Info("successful registration")
}

func (s *Server) Login(w http.ResponseWriter, r *http.Request) {
	logger := GetLoggerFromCtx(r.Context())
	var req LoginRequest
	defer r.Body.Close()
	err := sonic.ConfigDefault.NewDecoder(r.Body).Decode(&req)
	if err != nil {
		logger.Error("login error: invalid body")
		httputil.WriteErrorResponse(w, http.StatusBadRequest, "invalid request body", nil)
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), time.Second*10)
	defer cancel()
	user, err := s.userService.Login(ctx, req.Name, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, errorvalues.ErrUserNotFound):
			logger.Error("login error: unexist user")
			httputil.WriteErrorResponse(w, http.StatusNotFound, "user with such name doesn't exist", nil)
			return
		case errors.Is(err, errorvalues.ErrWrongCredentials):
			logger.Error("login error: wrong password")
			httputil.WriteErrorResponse(w, http.StatusForbidden, "invalid username or password", nil)
			return
		default:
			logger.Error("login error: service error", slog.String("error", err.Error()))
			httputil.WriteErrorResponse(w, http.StatusInternalServerError, "internal error during login", nil)
			return
		}
	}
	token, err := s.jwtService.GenerateToken(user)
	if err != nil {
		logger.Error("login error: generating token error", slog.String("error", err.Error()))
		httputil.WriteErrorResponse(w, http.StatusInternalServerError, "error creating token", nil)
		return
	}
	httputil.WriteJSONResponse(w, http.StatusOK, map[string]any{
		"uid":   user.ID.String(),
		"token": token,
	})
	logger.Info("successful login")
}

func (s *Server) GetProfile(w http.ResponseWriter, r *http.Request) {
	logger := GetLoggerFromCtx(r.Context())
	uid, err := GetUIDFromContext(r)
	if err != nil {
		logger.Error("get profile error: unauthorized")
		httputil.WriteErrorResponse(w, http.StatusUnauthorized, "no authorization", nil)
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), time.Second*10)
	defer cancel()
	profile, err := s.userService.GetProfile(ctx, uid)
	if err != nil {
		logger.Error("get profile error: service error", slog.String("error", err.Error()))
		httputil.WriteErrorResponse(w, http.StatusInternalServerError, "internal error while getting profile", nil)
		return
	}
	httputil.WriteJSONResponse(w, http.StatusOK, profile)
}

func (s *Server) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	logger := GetLoggerFromCtx(r.Context())
	uid, err := GetUIDFromContext(r)
	if err != nil {
		logger.Error("update profile error: unauthorized")
		httputil.WriteErrorResponse(w, http.StatusUnauthorized, "no authorization", nil)
		return
	}
	var req UpdateProfileRequest
	defer r.Body.Close()
	err = sonic.ConfigDefault.NewDecoder(r.Body).Decode(&req)
	if err != nil {
		logger.Error("update profile error: invalid request body")
		httputil.WriteErrorResponse(w, http.StatusBadRequest, "invalid request body", nil)
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), time.Second*10)
	defer cancel()
	profile, err := s.userService.UpdateProfile(ctx, uid, &service.UpdateProfileRequest{
		SelfControlScore: req.SelfControlScore,
		MotivationLevel:  req.MotivationLevel,
	})
	if err != nil {
		if errors.Is(err, errorvalues.ErrUserNotFound) {
			logger.Error("update profile error: unexist user")
			httputil.WriteErrorResponse(w, http.StatusNotFound, "user doesn't exist", nil)
			return
		}
		logger.Error("update profile error: service error", slog.String("error", err.Error()))
		httputil.WriteErrorResponse(w, http.StatusBadRequest, "couldn't update profile", err)
		return
	}
	httputil.WriteJSONResponse(w, http.StatusOK, profile)
	logger.Info("profile updated")
}

func (s *Server) CreateLimit(w http.ResponseWriter, r *http.Request) {
	logger := GetLoggerFromCtx(r.Context())
	uid, err := GetUIDFromContext(r)
	if err != nil {
		logger.Error("create limit error: unauthorized")
		httputil.WriteErrorResponse(w, http.StatusUnauthorized, "no authorization", nil)
		return
	}
	var req CreateLimitRequest
	defer r.Body.Close()
	err = sonic.ConfigDefault.NewDecoder(r.Body).Decode(&req)
	if err != nil {
		logger.Error("create limit error: invalid request body")
		httputil.WriteErrorResponse(w, http.StatusBadRequest, "invalid request body", nil)
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), time.Second*10)
	defer cancel()
	limit, validation, err := s.limitsService.CreateLimit(ctx, uid, serviceCreateLimitRequest(&req))
	if err != nil {
		switch {
		case errors.Is(err, errorvalues.ErrInvalidProposal):
			logger.Error("create limit error: proposal rejected")
			httputil.WriteJSONResponse(w, http.StatusUnprocessableEntity, validation)
		case errors.Is(err, errorvalues.ErrLimitExists):
			logger.Error("create limit error: attempt to create duplicated limit")
			httputil.WriteErrorResponse(w, http.StatusConflict, "active limit of this type already exists", nil)
		case errors.Is(err, errorvalues.ErrUserNotFound):
			logger.Error("create limit error: unexist user")
			httputil.WriteErrorResponse(w, http.StatusNotFound, "couldn't create limit: user doesn't exists", nil)
		default:
			logger.Error("create limit error: service error", slog.String("error", err.Error()))
			httputil.WriteErrorResponse(w, http.StatusBadRequest, "couldn't create limit", err)
		}
		return
	}
	httputil.WriteJSONResponse(w, http.StatusCreated, map[string]any{
		"limit":      limit,
		"validation": validation,
	})
	logger.Info("limit created", slog.String("limit_id", limit.ID.String()))
}

func (s *Server) ValidateLimit(w http.ResponseWriter, r *http.Request) {
	logger := GetLoggerFromCtx(r.Context())
	uid, err := GetUIDFromContext(r)
	if err != nil {
		logger.Error("validate limit error: unauthorized")
		httputil.WriteErrorResponse(w, http.StatusUnauthorized, "no authorization", nil)
		return
	}
	var req CreateLimitRequest
	defer r.Body.Close()
	err = sonic.ConfigDefault.NewDecoder(r.Body).Decode(&req)
	if err != nil {
		logger.Error("validate limit error: invalid request body")
		httputil.WriteErrorResponse(w, http.StatusBadRequest, "invalid request body", nil)
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), time.Second*10)
	defer cancel()
	validation, err := s.limitsService.ValidateProposal(ctx, uid, serviceCreateLimitRequest(&req))
	if err != nil {
		logger.Error("validate limit error: service error", slog.String("error", err.Error()))
		httputil.WriteErrorResponse(w, http.StatusBadRequest, "couldn't validate proposal", err)
		return
	}
	httputil.WriteJSONResponse(w, http.StatusOK, validation)
}

func (s *Server) ListLimits(w http.ResponseWriter, r *http.Request) {
	logger := GetLoggerFromCtx(r.Context())
	uid, err := GetUIDFromContext(r)
	if err != nil {
		logger.Error("list limits error: unauthorized")
		httputil.WriteErrorResponse(w, http.StatusUnauthorized, "no authorization", nil)
		return
	}
	page, err := strconv.Atoi(r.URL.Query().Get("page"))
	if err != nil || page < 1 {
		page = 1
	}
	limit, err := strconv.Atoi(r.URL.Query().Get("limit"))
	if err != nil || limit < 1 || limit > 100 {
		limit = 20
	}
	ctx, cancel := context.WithTimeout(r.Context(), time.Second*10)
	defer cancel()
	limits, err := s.limitsService.ListLimits(ctx, uid, service.PaginationOpts{
		Limit:  limit,
		Offset: (page - 1) * limit,
	})
	if err != nil {
		logger.Error("list limits error: service error", slog.String("error", err.Error()))
		httputil.WriteErrorResponse(w, http.StatusInternalServerError, "internal error while listing limits", nil)
		return
	}
	httputil.WriteJSONResponse(w, http.StatusOK, ListLimitsResponse{
		UserID: uid.String(),
		Page:   page,
		Limit:  limit,
		Limits: limits,
	})
}

func (s *Server) DeactivateLimit(w http.ResponseWriter, r *http.Request) {
	logger := GetLoggerFromCtx(r.Context())
	uid, err := GetUIDFromContext(r)
	if err != nil {
		logger.Error("deactivate limit error: unauthorized")
		httputil.WriteErrorResponse(w, http.StatusUnauthorized, "no authorization", nil)
		return
	}
	limitID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		logger.Error("deactivate limit error: invalid id")
		httputil.WriteErrorResponse(w, http.StatusBadRequest, "invalid limit id", nil)
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), time.Second*10)
	defer cancel()
	err = s.limitsService.DeactivateLimit(ctx, limitID, uid)
	if err != nil {
		switch {
		case errors.Is(err, errorvalues.ErrLimitNotFound):
			logger.Error("deactivate limit error: unexist limit")
			httputil.WriteErrorResponse(w, http.StatusNotFound, "limit doesn't exist", nil)
		case errors.Is(err, errorvalues.ErrWrongOwner):
			logger.Error("deactivate limit error: wrong owner")
			httputil.WriteErrorResponse(w, http.StatusForbidden, "limit belongs to another user", nil)
		case errors.Is(err, errorvalues.ErrStrictLimitLock):
			logger.Error("deactivate limit error: strict limit")
			httputil.WriteErrorResponse(w, http.StatusForbidden, "strict limits can't be deactivated", nil)
		default:
			logger.Error("deactivate limit error: service error", slog.String("error", err.Error()))
			httputil.WriteErrorResponse(w, http.StatusInternalServerError, "internal error while deactivating limit", nil)
		}
		return
	}
	httputil.WriteJSONResponse(w, http.StatusNoContent, nil)
	logger.Info("limit deactivated", slog.String("limit_id", limitID.String()))
}

func serviceCreateLimitRequest(req *CreateLimitRequest) *service.CreateLimitRequest {
	return &service.CreateLimitRequest{
		PackageName:    req.PackageName,
		Type:           entity.LimitType(req.Type),
		DurationMillis: req.DurationMillis,
		StartHour:      req.StartHour,
		EndHour:        req.EndHour,
		DaysOfWeek:     req.DaysOfWeek,
		Priority:       entity.LimitPriority(req.Priority),
	}
}
