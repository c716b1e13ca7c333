package middleware

import (
	"errors"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/yukikurage/kanban-api/internal/constants"
	apierrors "github.com/yukikurage/kanban-api/internal/errors"
	"github.com/yukikurage/kanban-api/internal/policy"
	"github.com/yukikurage/kanban-api/internal/services"
)

// RequireProjectAccess checks that the user can view the project in the
// :id parameter and stores the resolved access in context
func RequireProjectAccess(access *services.AccessService) gin.HandlerFunc {
	return func(c *gin.Context) {
		projectID, err := strconv.ParseUint(c.Param("id"), 10, 64)
		if err != nil {
			apierrors.BadRequest(c, "Invalid project ID")
			c.Abort()
			return
		}

		actor, ok := GetActor(c)
		if !ok {
			apierrors.Unauthorized(c, "")
			c.Abort()
			return
		}

		projectAccess, err := access.ViewableProject(actor, projectID)
		if err != nil {
			abortWithAccessError(c, err, "Project not found")
			return
		}

		c.Set(constants.ContextKeyProject, projectAccess)
		c.Next()
	}
}

// GetProjectAccess returns the access stored by RequireProjectAccess
func GetProjectAccess(c *gin.Context) (policy.ProjectAccess, bool) {
	value, exists := c.Get(constants.ContextKeyProject)
	if !exists {
		return policy.ProjectAccess{}, false
	}
	access, ok := value.(policy.ProjectAccess)
	return access, ok
}

func abortWithAccessError(c *gin.Context, err error, notFound string) {
	switch {
	case errors.Is(err, services.ErrForbidden):
		apierrors.Forbidden(c, "This action is unauthorized.")
	case errors.Is(err, services.ErrProjectNotFound),
		errors.Is(err, services.ErrTaskNotFound):
		apierrors.NotFound(c, notFound)
	default:
		apierrors.InternalError(c, "Failed to resolve access")
	}
	c.Abort()
}
