package handlers

import (
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/yukikurage/kanban-api/internal/constants"
	apierrors "github.com/yukikurage/kanban-api/internal/errors"
	"github.com/yukikurage/kanban-api/internal/middleware"
	"github.com/yukikurage/kanban-api/internal/policy"
	"github.com/yukikurage/kanban-api/internal/services"
)

// requireActor returns the authenticated actor or writes a 401
func requireActor(c *gin.Context) (policy.Actor, bool) {
	actor, ok := middleware.GetActor(c)
	if !ok {
		apierrors.Unauthorized(c, "Not authenticated")
		return policy.Actor{}, false
	}
	return actor, true
}

// parseID reads a numeric path parameter or writes a 400
func parseID(c *gin.Context, param, label string) (uint64, bool) {
	id, err := strconv.ParseUint(c.Param(param), 10, 64)
	if err != nil {
		apierrors.BadRequest(c, fmt.Sprintf("Invalid %s ID", label))
		return 0, false
	}
	return id, true
}

// parseOptionalID reads a numeric query parameter. A missing parameter yields nil.
func parseOptionalID(c *gin.Context, key string) (*uint64, bool) {
	raw := c.Query(key)
	if raw == "" {
		return nil, true
	}
	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		apierrors.BadRequest(c, fmt.Sprintf("Invalid %s", key))
		return nil, false
	}
	return &id, true
}

// parseIDList reads a comma separated list of ids from a query parameter
func parseIDList(raw string) ([]uint64, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, nil
	}
	parts := strings.Split(raw, ",")
	ids := make([]uint64, 0, len(parts))
	for _, p := range parts {
		id, err := strconv.ParseUint(strings.TrimSpace(p), 10, 64)
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, nil
}

// respondBindingError writes a 400 listing the fields that failed validation
func respondBindingError(c *gin.Context, err error) {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		fields := make(map[string]string, len(verrs))
		for _, fe := range verrs {
			fields[strings.ToLower(fe.Field())] = fmt.Sprintf("failed on the '%s' rule", fe.Tag())
		}
		apierrors.BadRequestWithDetails(c, "Invalid request body", fields)
		return
	}
	apierrors.BadRequest(c, "Invalid request body")
}

// respondServiceError maps service errors onto HTTP responses
func respondServiceError(c *gin.Context, err error) {
	var wipErr *services.WipLimitError
	var validationErr *services.ValidationError

	switch {
	case errors.As(err, &wipErr):
		apierrors.WipLimitExceeded(c, wipErr.Limit, wipErr.Current)
	case errors.As(err, &validationErr):
		apierrors.UnprocessableEntityWithDetails(c, validationErr.Message, gin.H{validationErr.Field: validationErr.Message})
	case errors.Is(err, services.ErrForbidden):
		apierrors.Forbidden(c, "This action is unauthorized.")
	case errors.Is(err, services.ErrUserNotFound),
		errors.Is(err, services.ErrProjectNotFound),
		errors.Is(err, services.ErrBoardNotFound),
		errors.Is(err, services.ErrColumnNotFound),
		errors.Is(err, services.ErrTaskNotFound),
		errors.Is(err, services.ErrSubtaskNotFound),
		errors.Is(err, services.ErrCommentNotFound),
		errors.Is(err, services.ErrLabelNotFound),
		errors.Is(err, services.ErrMemberNotFound):
		apierrors.NotFound(c, capitalize(err.Error()))
	case errors.Is(err, services.ErrProjectConflict),
		errors.Is(err, services.ErrAlreadyMember),
		errors.Is(err, services.ErrLabelNameTaken):
		apierrors.Conflict(c, capitalize(err.Error()))
	case errors.Is(err, services.ErrPasswordTooShort):
		apierrors.UnprocessableEntityWithDetails(c,
			fmt.Sprintf("Password must be at least %d characters", constants.MinPasswordLength),
			gin.H{"password": fmt.Sprintf("must be at least %d characters", constants.MinPasswordLength)})
	case errors.Is(err, services.ErrAIServiceNotConfigured):
		apierrors.ServiceUnavailable(c, "AI service is not configured")
	case errors.Is(err, services.ErrAINoTasksGenerated),
		errors.Is(err, services.ErrAINoValidTasks):
		apierrors.UnprocessableEntity(c, capitalize(err.Error()))
	default:
		slog.Error("request failed",
			slog.String("method", c.Request.Method),
			slog.String("path", c.FullPath()),
			slog.String("error", err.Error()),
		)
		apierrors.InternalError(c, "Internal server error")
	}
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
