package middleware

import (
	"errors"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/yukikurage/taskroom/internal/constants"
	apierrors "github.com/yukikurage/taskroom/internal/errors"
	"github.com/yukikurage/taskroom/internal/models"
	"github.com/yukikurage/taskroom/internal/services"
)

// RequireTenant resolves the organization the request acts in and stores the
// tenant scope. The organization comes from the X-Organization-ID header or
// the organization_id query parameter, falling back to the personal
// organization of the user. Must run after RequireAuth.
func RequireTenant(orgService *services.OrganizationService) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, exists := GetUserID(c)
		if !exists {
			apierrors.Unauthorized(c, "")
			return
		}

		orgID, err := requestedOrganization(c)
		if err != nil {
			apierrors.BadRequest(c, "Invalid organization ID")
			return
		}

		org, member, err := orgService.ResolveTenant(c.Request.Context(), userID, orgID)
		if err != nil {
			switch {
			case errors.Is(err, services.ErrNotOrganizationMember),
				errors.Is(err, services.ErrOrganizationNotFound):
				apierrors.Forbidden(c, "You are not a member of this organization")
			case errors.Is(err, services.ErrNoPersonalOrganization):
				apierrors.Forbidden(c, "No organization selected")
			default:
				apierrors.InternalError(c, "Failed to resolve organization")
			}
			return
		}

		c.Set(constants.ContextKeyTenant, models.TenantScope{
			OwnerID:        userID,
			OrganizationID: org.ID,
		})
		c.Set(constants.ContextKeyOrg, *org)
		c.Set(constants.ContextKeyMember, *member)
		c.Next()
	}
}

func requestedOrganization(c *gin.Context) (*uint64, error) {
	raw := strings.TrimSpace(c.GetHeader(constants.HeaderOrganization))
	if raw == "" {
		raw = strings.TrimSpace(c.Query(constants.QueryOrganization))
	}
	if raw == "" {
		return nil, nil
	}

	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		return nil, err
	}
	return &id, nil
}

// GetTenant returns the scope stored by RequireTenant
func GetTenant(c *gin.Context) (models.TenantScope, bool) {
	v, exists := c.Get(constants.ContextKeyTenant)
	if !exists {
		return models.TenantScope{}, false
	}
	scope, ok := v.(models.TenantScope)
	return scope, ok
}
