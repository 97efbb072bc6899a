package handlers

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/geocoder89/userhub/internal/domain/user"
	"github.com/geocoder89/userhub/internal/i18n"
	"github.com/geocoder89/userhub/internal/users"
	"github.com/gin-gonic/gin"
)

type UserService interface {
	Create(ctx context.Context, req user.CreateUserRequest) (user.User, error)
	List(ctx context.Context) ([]user.User, error)
	GetByID(ctx context.Context, userID string) (user.User, error)
	Exists(ctx context.Context, userID string) error
	Edit(ctx context.Context, userID string, req user.EditUserRequest) (user.User, error)
	Delete(ctx context.Context, userID string) error
}

type UsersHandler struct {
	svc  UserService
	msgs *i18n.Catalog
}

func NewUsersHandler(svc UserService, msgs *i18n.Catalog) *UsersHandler {
	if msgs == nil {
		msgs = i18n.New("")
	}
	return &UsersHandler{svc: svc, msgs: msgs}
}

// POST /users
func (h *UsersHandler) CreateUser(ctx *gin.Context) {
	var req user.CreateUserRequest
	if be := decodeJSON(ctx, &req); be != nil {
		h.respondBindError(ctx, be)
		return
	}

	u, err := h.svc.Create(ctx.Request.Context(), req)
	if err != nil {
		h.respondServiceError(ctx, err, i18n.UserCreateFailed)
		return
	}

	ctx.JSON(http.StatusCreated, u)
}

// GET /users
func (h *UsersHandler) ListUsers(ctx *gin.Context) {
	items, err := h.svc.List(ctx.Request.Context())
	if err != nil {
		h.respondServiceError(ctx, err, i18n.UserListFailed)
		return
	}

	RespondJSONWithETag(ctx, http.StatusOK, items)
}

// GET /user-by-id/:userId
func (h *UsersHandler) GetUserByID(ctx *gin.Context) {
	u, err := h.svc.GetByID(ctx.Request.Context(), ctx.Param("userId"))
	if err != nil {
		h.respondServiceError(ctx, err, i18n.UserGetFailed)
		return
	}

	RespondJSONWithETag(ctx, http.StatusOK, u)
}

// PUT /user-edit/:userId
//
// An unknown id is reported as 404 even when the body is unusable.
func (h *UsersHandler) EditUser(ctx *gin.Context) {
	userID := ctx.Param("userId")

	var req user.EditUserRequest
	if be := decodeJSON(ctx, &req); be != nil {
		if err := h.svc.Exists(ctx.Request.Context(), userID); err != nil {
			h.respondServiceError(ctx, err, i18n.UserUpdateFailed)
			return
		}
		h.respondBindError(ctx, be)
		return
	}

	u, err := h.svc.Edit(ctx.Request.Context(), userID, req)
	if err != nil {
		h.respondServiceError(ctx, err, i18n.UserUpdateFailed)
		return
	}

	ctx.JSON(http.StatusOK, u)
}

// DELETE /user-delete/:userId
func (h *UsersHandler) DeleteUser(ctx *gin.Context) {
	if err := h.svc.Delete(ctx.Request.Context(), ctx.Param("userId")); err != nil {
		h.respondServiceError(ctx, err, i18n.UserDeleteFailed)
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"message": h.msgs.T(i18n.UserDeleted)})
}

// NotFound answers every unmatched route and method.
func (h *UsersHandler) NotFound(ctx *gin.Context) {
	RespondNotFound(ctx, h.msgs.T(i18n.RouteNotFound))
}

func (h *UsersHandler) respondServiceError(ctx *gin.Context, err error, failure i18n.Key) {
	var verr *users.ValidationError

	switch {
	case errors.As(err, &verr):
		RespondValidation(ctx, h.msgs.T(i18n.InvalidInput), h.localize(verr.Fields), nil)
	case errors.Is(err, users.ErrEmailTaken):
		RespondBadRequest(ctx, "email_taken", h.msgs.T(i18n.UserEmailTaken))
	case errors.Is(err, users.ErrNotFound):
		RespondNotFound(ctx, h.msgs.T(i18n.UserNotFound))
	default:
		slog.Default().ErrorContext(ctx.Request.Context(), "user request failed",
			"err", err,
			"route", ctx.FullPath(),
			"request_id", requestIDFrom(ctx),
		)
		RespondInternal(ctx, h.msgs.T(failure))
	}
}

func (h *UsersHandler) respondBindError(ctx *gin.Context, be *bindError) {
	if be.tooLarge {
		RespondError(ctx, http.StatusRequestEntityTooLarge, "body_too_large", h.msgs.T(i18n.BodyTooLarge), nil)
		return
	}

	RespondValidation(ctx, h.msgs.T(i18n.InvalidJSON), h.localize(be.fields), be.details)
}

func (h *UsersHandler) localize(fields []user.FieldError) []user.FieldError {
	out := make([]user.FieldError, 0, len(fields))
	for _, fe := range fields {
		fe.Message = h.msgs.Field(fe.Field, fe.Rule)
		out = append(out, fe)
	}
	return out
}
