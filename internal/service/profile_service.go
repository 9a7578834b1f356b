package service

import (
	"context"
	"strings"
	"time"

	"fundboard/internal/models"
	"fundboard/internal/repository"
	"fundboard/internal/validation"
)

// ProfileService manages the single optional profile of each user.
type ProfileService struct {
	profileRepo repository.ProfileRepository
}

// ProfileInput carries profile fields from a request body. A nil field is
// cleared by a full update and left unchanged by a partial one.
type ProfileInput struct {
	DOB              *string `json:"dob"`
	Phone            *string `json:"phone"`
	PhoneAlt         *string `json:"phone_alt"`
	Gender           *string `json:"gender"`
	IsStudent        *bool   `json:"is_student"`
	WorkplaceName    *string `json:"workplace_name"`
	WorkplaceAddress *string `json:"workplace_address"`
	Address          *string `json:"address"`
	City             *string `json:"city"`
	State            *string `json:"state"`
	Zipcode          *string `json:"zipcode"`
}

func NewProfileService(profileRepo repository.ProfileRepository) *ProfileService {
	return &ProfileService{profileRepo: profileRepo}
}

// ListProfiles returns the requester's own profile, if any.
func (s *ProfileService) ListProfiles(ctx context.Context, userID uint) ([]*models.Profile, error) {
	profile, err := s.profileRepo.GetByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if profile == nil {
		return []*models.Profile{}, nil
	}
	return []*models.Profile{profile}, nil
}

func (s *ProfileService) CreateProfile(ctx context.Context, userID uint, in ProfileInput) (*models.Profile, error) {
	existing, err := s.profileRepo.GetByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, models.NewValidationError("Profile already exists for this user")
	}

	profile := &models.Profile{UserID: userID}
	if err := applyProfileInput(profile, in, false); err != nil {
		return nil, err
	}
	if err := s.profileRepo.Create(ctx, profile); err != nil {
		return nil, err
	}
	return profile, nil
}

// GetMyProfile returns the requester's profile or NOT_FOUND.
func (s *ProfileService) GetMyProfile(ctx context.Context, userID uint) (*models.Profile, error) {
	profile, err := s.profileRepo.GetByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if profile == nil {
		return nil, models.NewNotFoundError("Profile", "me")
	}
	return profile, nil
}

func (s *ProfileService) GetProfile(ctx context.Context, userID, id uint) (*models.Profile, error) {
	return s.owned(ctx, userID, id)
}

func (s *ProfileService) UpdateProfile(ctx context.Context, userID, id uint, in ProfileInput, partial bool) (*models.Profile, error) {
	profile, err := s.owned(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	if err := applyProfileInput(profile, in, partial); err != nil {
		return nil, err
	}
	if err := s.profileRepo.Update(ctx, profile); err != nil {
		return nil, err
	}
	return profile, nil
}

func (s *ProfileService) DeleteProfile(ctx context.Context, userID, id uint) error {
	if _, err := s.owned(ctx, userID, id); err != nil {
		return err
	}
	return s.profileRepo.Delete(ctx, id)
}

func (s *ProfileService) owned(ctx context.Context, userID, id uint) (*models.Profile, error) {
	profile, err := s.profileRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if profile.UserID != userID {
		return nil, models.NewForbiddenError("You can only access your own profile")
	}
	return profile, nil
}

func applyProfileInput(p *models.Profile, in ProfileInput, partial bool) error {
	str := func(dst *string, src *string) {
		switch {
		case src != nil:
			*dst = strings.TrimSpace(*src)
		case !partial:
			*dst = ""
		}
	}
	str(&p.Phone, in.Phone)
	str(&p.PhoneAlt, in.PhoneAlt)
	str(&p.Gender, in.Gender)
	str(&p.WorkplaceName, in.WorkplaceName)
	str(&p.WorkplaceAddress, in.WorkplaceAddress)
	str(&p.Address, in.Address)
	str(&p.City, in.City)
	str(&p.State, in.State)
	str(&p.Zipcode, in.Zipcode)
	p.Gender = strings.ToUpper(p.Gender)

	switch {
	case in.IsStudent != nil:
		p.IsStudent = *in.IsStudent
	case !partial:
		p.IsStudent = false
	}

	switch {
	case in.DOB != nil && strings.TrimSpace(*in.DOB) != "":
		dob, err := time.Parse(models.DateLayout, strings.TrimSpace(*in.DOB))
		if err != nil {
			return models.NewValidationError("dob must be a date in YYYY-MM-DD format")
		}
		p.DOB = &dob
	case in.DOB != nil || !partial:
		p.DOB = nil
	}

	if err := validation.ValidateProfile(validation.ProfileFields{
		Phone:         p.Phone,
		PhoneAlt:      p.PhoneAlt,
		Gender:        p.Gender,
		WorkplaceName: p.WorkplaceName,
		City:          p.City,
		State:         p.State,
		Zipcode:       p.Zipcode,
	}); err != nil {
		return models.NewValidationError(err.Error())
	}
	return nil
}
