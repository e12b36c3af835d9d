package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/yukikurage/taskroom/internal/models"
	"github.com/yukikurage/taskroom/internal/repository"
	"github.com/yukikurage/taskroom/internal/utils"
	"gorm.io/gorm"
)

var (
	ErrOrganizationNotFound       = errors.New("organization not found")
	ErrInvalidOrganizationName    = errors.New("organization name cannot be empty")
	ErrInviteCodeGenerationFailed = errors.New("failed to generate invite code")
	ErrInvalidInviteCode          = errors.New("invalid invite code")
	ErrAlreadyOrganizationMember  = errors.New("user is already a member of this organization")
	ErrNotOrganizationMember      = errors.New("user is not a member of the organization")
	ErrCannotRemoveYourself       = errors.New("cannot remove yourself from the organization")
	ErrOrganizationMemberNotFound = errors.New("organization member not found")
	ErrPersonalOrganization       = errors.New("personal organizations cannot be deleted")
	ErrNoPersonalOrganization     = errors.New("user has no personal organization")
)

// inviteCodeAttempts bounds retries when a fresh invite code collides.
const inviteCodeAttempts = 3

// OrganizationService provides business logic for organization operations.
type OrganizationService struct {
	orgRepo repository.OrganizationRepository
}

// NewOrganizationService creates a new OrganizationService.
func NewOrganizationService(orgRepo repository.OrganizationRepository) *OrganizationService {
	return &OrganizationService{
		orgRepo: orgRepo,
	}
}

// CreateOrganizationInput represents parameters to create a new organization.
type CreateOrganizationInput struct {
	Name    string
	OwnerID uint64
}

// CreateOrganization creates a new organization and assigns the owner.
func (s *OrganizationService) CreateOrganization(ctx context.Context, input CreateOrganizationInput) (*models.Organization, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, ErrInvalidOrganizationName
	}

	var org *models.Organization
	err := withFreshInviteCode(func(code string) error {
		org = &models.Organization{
			Name:       name,
			InviteCode: code,
			CreatedAt:  time.Now(),
		}
		return s.orgRepo.CreateWithOwner(ctx, org, input.OwnerID)
	})
	if err != nil {
		if errors.Is(err, ErrInviteCodeGenerationFailed) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to create organization: %w", err)
	}

	return org, nil
}

// ResolveTenant returns the organization a request acts in and the caller's
// membership. A nil orgID selects the caller's personal organization.
func (s *OrganizationService) ResolveTenant(ctx context.Context, userID uint64, orgID *uint64) (*models.Organization, *models.OrganizationMember, error) {
	var (
		org *models.Organization
		err error
	)
	if orgID == nil {
		org, err = s.orgRepo.FindPersonal(ctx, userID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, nil, ErrNoPersonalOrganization
			}
			return nil, nil, fmt.Errorf("failed to find personal organization: %w", err)
		}
	} else {
		org, err = s.orgRepo.FindByID(ctx, *orgID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, nil, ErrOrganizationNotFound
			}
			return nil, nil, fmt.Errorf("failed to find organization: %w", err)
		}
	}

	member, err := s.orgRepo.FindMember(ctx, org.ID, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, ErrNotOrganizationMember
		}
		return nil, nil, fmt.Errorf("failed to verify organization membership: %w", err)
	}

	return org, member, nil
}

// GetMembership returns the membership of userID in orgID.
func (s *OrganizationService) GetMembership(ctx context.Context, orgID, userID uint64) (*models.OrganizationMember, error) {
	member, err := s.orgRepo.FindMember(ctx, orgID, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotOrganizationMember
		}
		return nil, fmt.Errorf("failed to verify organization membership: %w", err)
	}
	return member, nil
}

// ListOrganizationsForUser returns organizations the user belongs to.
func (s *OrganizationService) ListOrganizationsForUser(ctx context.Context, userID uint64) ([]models.OrganizationMember, error) {
	memberships, err := s.orgRepo.ListMembersByUserID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list organizations: %w", err)
	}
	return memberships, nil
}

// GetOrganizationWithMembers returns an organization and all of its members.
func (s *OrganizationService) GetOrganizationWithMembers(ctx context.Context, orgID uint64) (*models.Organization, []models.OrganizationMember, error) {
	org, err := s.findOrganization(ctx, orgID)
	if err != nil {
		return nil, nil, err
	}

	members, err := s.orgRepo.ListMembers(ctx, orgID)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to list organization members: %w", err)
	}

	return org, members, nil
}

// UpdateOrganizationName updates an organization's name.
func (s *OrganizationService) UpdateOrganizationName(ctx context.Context, orgID uint64, name string) (*models.Organization, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, ErrInvalidOrganizationName
	}

	org, err := s.findOrganization(ctx, orgID)
	if err != nil {
		return nil, err
	}

	org.Name = name
	if err := s.orgRepo.Update(ctx, org); err != nil {
		return nil, fmt.Errorf("failed to update organization: %w", err)
	}

	return org, nil
}

// DeleteOrganization removes an organization with its tasks, meetings and members.
func (s *OrganizationService) DeleteOrganization(ctx context.Context, orgID uint64) error {
	org, err := s.findOrganization(ctx, orgID)
	if err != nil {
		return err
	}
	if org.Personal {
		return ErrPersonalOrganization
	}

	if err := s.orgRepo.Delete(ctx, orgID); err != nil {
		return fmt.Errorf("failed to delete organization: %w", err)
	}

	return nil
}

// JoinOrganizationByInvite adds a user to an organization via invite code.
func (s *OrganizationService) JoinOrganizationByInvite(ctx context.Context, userID uint64, inviteCode string) (*models.Organization, error) {
	org, err := s.orgRepo.FindByInviteCode(ctx, strings.TrimSpace(inviteCode))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidInviteCode
		}
		return nil, fmt.Errorf("failed to find organization by invite code: %w", err)
	}

	if _, err := s.orgRepo.FindMember(ctx, org.ID, userID); err == nil {
		return nil, ErrAlreadyOrganizationMember
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("failed to verify membership: %w", err)
	}

	member := &models.OrganizationMember{
		OrganizationID: org.ID,
		UserID:         userID,
		Role:           models.RoleMember,
		JoinedAt:       time.Now(),
	}

	if err := s.orgRepo.AddMember(ctx, member); err != nil {
		if utils.IsUniqueViolation(err) {
			return nil, ErrAlreadyOrganizationMember
		}
		return nil, fmt.Errorf("failed to add member to organization: %w", err)
	}

	return org, nil
}

// RegenerateInviteCode generates a new invite code for the organization.
func (s *OrganizationService) RegenerateInviteCode(ctx context.Context, orgID uint64) (*models.Organization, error) {
	org, err := s.findOrganization(ctx, orgID)
	if err != nil {
		return nil, err
	}

	err = withFreshInviteCode(func(code string) error {
		org.InviteCode = code
		return s.orgRepo.Update(ctx, org)
	})
	if err != nil {
		if errors.Is(err, ErrInviteCodeGenerationFailed) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to update invite code: %w", err)
	}

	return org, nil
}

// RemoveMember removes a member from the organization.
func (s *OrganizationService) RemoveMember(ctx context.Context, orgID, actorID, targetID uint64) error {
	if targetID == actorID {
		return ErrCannotRemoveYourself
	}

	if _, err := s.orgRepo.FindMember(ctx, orgID, targetID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrOrganizationMemberNotFound
		}
		return fmt.Errorf("failed to find organization member: %w", err)
	}

	if err := s.orgRepo.RemoveMember(ctx, orgID, targetID); err != nil {
		return fmt.Errorf("failed to remove member: %w", err)
	}

	return nil
}

func (s *OrganizationService) findOrganization(ctx context.Context, orgID uint64) (*models.Organization, error) {
	org, err := s.orgRepo.FindByID(ctx, orgID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrOrganizationNotFound
		}
		return nil, fmt.Errorf("failed to find organization: %w", err)
	}
	return org, nil
}

// withFreshInviteCode calls save with a new invite code, retrying while the
// code collides with an existing one.
func withFreshInviteCode(save func(code string) error) error {
	var err error
	for i := 0; i < inviteCodeAttempts; i++ {
		code, genErr := utils.GenerateInviteCode()
		if genErr != nil {
			return ErrInviteCodeGenerationFailed
		}
		err = save(code)
		if err == nil || !utils.IsUniqueViolation(err) {
			return err
		}
	}
	return err
}
