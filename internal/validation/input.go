package validation

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

// Константы валидации
const (
	MinUsernameLength       = 3
	MaxUsernameLength       = 30
	MinDisplayNameLength    = 2
	MaxDisplayNameLength    = 100
	MinGigTitleLength       = 3
	MaxGigTitleLength       = 200
	MinGigDescriptionLength = 10
	MaxGigDescriptionLength = 5000
	MaxBioLength            = 1000
	MaxSkillLength          = 50
	MaxSkillsCount          = 50
	MaxTagLength            = 50
	MaxTagsCount            = 20
	MaxRequirementsLength   = 5000
	MaxReviewTitleLength    = 200
	MaxReviewCommentLength  = 2000
	MaxDisputeReasonLength  = 500
	MaxResolutionLength     = 2000
	MinMessageLength        = 1
	MaxMessageLength        = 5000
	MinPrice                = 0.0
	MaxPrice                = 100000000.0
	MinDeliveryDays         = 1
	MaxDeliveryDays         = 365
)

// ValidateLength проверяет длину строки в рунах.
func ValidateLength(fieldName, value string, min, max int) error {
	length := utf8.RuneCountInString(value)
	if min > 0 && length < min {
		return fmt.Errorf("%s должен быть не менее %d символов", fieldName, min)
	}
	if max > 0 && length > max {
		return fmt.Errorf("%s должен быть не более %d символов", fieldName, max)
	}
	return nil
}

// ValidateEmail проверяет формат email.
func ValidateEmail(email string) error {
	if email == "" {
		return fmt.Errorf("email обязателен")
	}

	email = strings.ToLower(strings.TrimSpace(email))

	parts := strings.Split(email, "@")
	if len(parts) != 2 {
		return fmt.Errorf("некорректный формат email")
	}

	localPart := parts[0]
	domainPart := parts[1]

	if len(localPart) == 0 || len(localPart) > 64 {
		return fmt.Errorf("локальная часть email должна быть от 1 до 64 символов")
	}

	if len(domainPart) == 0 || len(domainPart) > 255 {
		return fmt.Errorf("доменная часть email должна быть от 1 до 255 символов")
	}

	if !strings.Contains(domainPart, ".") {
		return fmt.Errorf("доменная часть email должна содержать точку")
	}

	return nil
}

// ValidateSkills проверяет список навыков.
func ValidateSkills(skills []string) error {
	if len(skills) > MaxSkillsCount {
		return fmt.Errorf("навыков не может быть больше %d", MaxSkillsCount)
	}
	for _, skill := range skills {
		if err := ValidateLength("навык", skill, 1, MaxSkillLength); err != nil {
			return err
		}
	}
	return nil
}

// ValidateTags проверяет список тегов услуги.
func ValidateTags(tags []string) error {
	if len(tags) > MaxTagsCount {
		return fmt.Errorf("тегов не может быть больше %d", MaxTagsCount)
	}
	for _, tag := range tags {
		if err := ValidateLength("тег", tag, 1, MaxTagLength); err != nil {
			return err
		}
	}
	return nil
}
