package profile

import (
	"fmt"
	"strings"
)

// Interest type names. These double as the fixed interest-type taxonomy
// rows in storage and as the JSON field names of a profile record.
const (
	TypeTechnical = "technical_skills_and_interests"
	TypeGoal      = "goals"
	TypeHobby     = "non_technical_hobbies_and_interest"
	TypeOther     = "other"
)

// AllTypes lists the interest-type taxonomy in dependency-seed order.
func AllTypes() []string {
	return []string{TypeTechnical, TypeGoal, TypeHobby, TypeOther}
}

// Profile is the structured record extracted from one person's intro
// message. Name is the stable natural key; everything else is optional.
type Profile struct {
	Name                           string   `json:"name"`
	RoleAndInstitution             string   `json:"role_and_institution"`
	Location                       string   `json:"location"`
	TechnicalSkillsAndInterests    []string `json:"technical_skills_and_interests"`
	Goals                          []string `json:"goals"`
	NonTechnicalHobbiesAndInterest []string `json:"non_technical_hobbies_and_interest"`
	Other                          []string `json:"other"`
}

// Validate checks that the profile carries a usable natural key.
func (p Profile) Validate() error {
	if strings.TrimSpace(p.Name) == "" {
		return fmt.Errorf("profile has no name")
	}
	return nil
}

// Interests returns the free-text list for the given interest type name.
// Unknown type names return nil.
func (p Profile) Interests(typeName string) []string {
	switch typeName {
	case TypeTechnical:
		return p.TechnicalSkillsAndInterests
	case TypeGoal:
		return p.Goals
	case TypeHobby:
		return p.NonTechnicalHobbiesAndInterest
	case TypeOther:
		return p.Other
	}
	return nil
}

// Set is a collection of profiles keyed by person name.
type Set map[string]Profile

// Names returns the person names in the set, unsorted.
func (s Set) Names() []string {
	names := make([]string, 0, len(s))
	for name := range s {
		names = append(names, name)
	}
	return names
}
