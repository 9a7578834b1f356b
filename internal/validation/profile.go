package validation

import (
	"fmt"
	"regexp"
	"unicode/utf8"
)

var phoneRegex = regexp.MustCompile(`^\+?[0-9 ()-]{0,15}$`)

// ProfileFields are the free-form profile values checked by ValidateProfile.
type ProfileFields struct {
	Phone         string
	PhoneAlt      string
	Gender        string
	WorkplaceName string
	City          string
	State         string
	Zipcode       string
}

// ValidateProfile enforces the column limits of a profile.
func ValidateProfile(p ProfileFields) error {
	limits := []struct {
		field string
		value string
		max   int
	}{
		{"phone", p.Phone, 15},
		{"phone_alt", p.PhoneAlt, 15},
		{"workplace_name", p.WorkplaceName, 100},
		{"city", p.City, 30},
		{"state", p.State, 30},
		{"zipcode", p.Zipcode, 10},
	}
	for _, l := range limits {
		if utf8.RuneCountInString(l.value) > l.max {
			return fmt.Errorf("%s must be at most %d characters", l.field, l.max)
		}
	}

	for _, phone := range []struct{ field, value string }{{"phone", p.Phone}, {"phone_alt", p.PhoneAlt}} {
		if phone.value != "" && !phoneRegex.MatchString(phone.value) {
			return fmt.Errorf("%s is not a valid phone number", phone.field)
		}
	}

	switch p.Gender {
	case "", "M", "F", "O":
	default:
		return fmt.Errorf("gender must be one of M, F, O")
	}
	return nil
}
