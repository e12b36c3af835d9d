package middleware

import (
	"errors"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/yukikurage/taskroom/internal/constants"
	apierrors "github.com/yukikurage/taskroom/internal/errors"
	"github.com/yukikurage/taskroom/internal/models"
	"github.com/yukikurage/taskroom/internal/services"
)

// RequireOrganizationAccess checks that the user is a member of the organization in the :id path parameter
func RequireOrganizationAccess(orgService *services.OrganizationService) gin.HandlerFunc {
	return func(c *gin.Context) {
		orgID, err := strconv.ParseUint(c.Param("id"), 10, 64)
		if err != nil {
			apierrors.BadRequest(c, "Invalid organization ID")
			return
		}

		userID, exists := GetUserID(c)
		if !exists {
			apierrors.Unauthorized(c, "")
			return
		}

		member, err := orgService.GetMembership(c.Request.Context(), orgID, userID)
		if err != nil {
			// 404 rather than 403 so organization ids cannot be enumerated
			if errors.Is(err, services.ErrNotOrganizationMember) {
				apierrors.NotFound(c, "Organization not found")
				return
			}
			apierrors.InternalError(c, "Failed to verify organization membership")
			return
		}

		c.Set(constants.ContextKeyMember, *member)
		c.Next()
	}
}

// RequireOrganizationOwner checks if the user is an owner of the organization.
// Must run after RequireOrganizationAccess.
func RequireOrganizationOwner() gin.HandlerFunc {
	return func(c *gin.Context) {
		member, ok := GetMembership(c)
		if !ok {
			apierrors.Forbidden(c, "Organization access required")
			return
		}

		if !member.IsOwner() {
			apierrors.InsufficientPermissions(c, "Only organization owners can perform this action")
			return
		}

		c.Next()
	}
}

// GetMembership returns the membership stored by RequireOrganizationAccess or RequireTenant
func GetMembership(c *gin.Context) (models.OrganizationMember, bool) {
	v, exists := c.Get(constants.ContextKeyMember)
	if !exists {
		return models.OrganizationMember{}, false
	}
	member, ok := v.(models.OrganizationMember)
	return member, ok
}
