package model

import (
	"errors"
	"fmt"
	"net/url"
	"regexp"
	"strings"
)

// CVContent is the finalized, tailored CV payload consumed by the binder.
// It arrives fully generated upstream; this package only validates shape.
type CVContent struct {
	Header        CVHeader         `json:"header"`
	Summary       string           `json:"summary,omitempty"`
	Experience    []CVExperience   `json:"experience"`
	Education     []CVEducation    `json:"education"`
	Skills        CVSkills         `json:"skills"`
	Projects      []CVProject      `json:"projects,omitempty"`
	Awards        []CVAward        `json:"awards,omitempty"`
	Presentations []CVPresentation `json:"presentations,omitempty"`
	Interests     []string         `json:"interests,omitempty"`
}

// Validate enforces required fields and formatting rules for CVContent.
func (c CVContent) Validate() error {
	if strings.TrimSpace(c.Header.Name) == "" {
		return errors.New("header.name is required")
	}
	if strings.TrimSpace(c.Header.Email) == "" && strings.TrimSpace(c.Header.Phone) == "" {
		return errors.New("header.email or header.phone is required")
	}
	for i, link := range c.Header.Links {
		if !isFullURL(strings.TrimSpace(link)) {
			return fmt.Errorf("header.links[%d] must be a full URL", i)
		}
	}
	for i, exp := range c.Experience {
		if err := validateDateField(exp.Start, fmt.Sprintf("experience[%d].start", i)); err != nil {
			return err
		}
		if err := validateDateField(exp.End, fmt.Sprintf("experience[%d].end", i)); err != nil {
			return err
		}
	}
	for i, edu := range c.Education {
		if err := validateDateField(edu.Start, fmt.Sprintf("education[%d].start", i)); err != nil {
			return err
		}
		if err := validateDateField(edu.End, fmt.Sprintf("education[%d].end", i)); err != nil {
			return err
		}
	}
	for i, project := range c.Projects {
		if err := validateDateField(project.Start, fmt.Sprintf("projects[%d].start", i)); err != nil {
			return err
		}
		if err := validateDateField(project.End, fmt.Sprintf("projects[%d].end", i)); err != nil {
			return err
		}
	}
	for i, award := range c.Awards {
		if err := validateDateField(award.Date, fmt.Sprintf("awards[%d].date", i)); err != nil {
			return err
		}
	}
	for i, pres := range c.Presentations {
		if err := validateDateField(pres.Date, fmt.Sprintf("presentations[%d].date", i)); err != nil {
			return err
		}
	}
	return nil
}

// CVHeader captures the identity block at the top of a CV.
type CVHeader struct {
	Name     string   `json:"name"`
	Title    string   `json:"title"`
	Email    string   `json:"email"`
	Phone    string   `json:"phone"`
	Location string   `json:"location"`
	Links    []string `json:"links"`
}

// CVSkills groups skills by category. Uncategorized skills go in Other.
type CVSkills struct {
	Languages  []string `json:"languages"`
	Frameworks []string `json:"frameworks"`
	Databases  []string `json:"databases"`
	Cloud      []string `json:"cloud"`
	Tools      []string `json:"tools"`
	Other      []string `json:"other"`
}

// IsEmpty reports whether no category has any entries.
func (s CVSkills) IsEmpty() bool {
	return len(s.Languages) == 0 && len(s.Frameworks) == 0 && len(s.Databases) == 0 &&
		len(s.Cloud) == 0 && len(s.Tools) == 0 && len(s.Other) == 0
}

// CVExperience represents a work history entry.
type CVExperience struct {
	Company    string   `json:"company"`
	Role       string   `json:"role"`
	Location   string   `json:"location"`
	Start      string   `json:"start"`
	End        string   `json:"end"`
	Highlights []string `json:"highlights"`
}

// CVEducation represents an education entry.
type CVEducation struct {
	Institution string   `json:"institution"`
	Degree      string   `json:"degree"`
	Field       string   `json:"field"`
	Location    string   `json:"location"`
	Start       string   `json:"start"`
	End         string   `json:"end"`
	Highlights  []string `json:"highlights"`
}

// CVProject represents a notable project.
type CVProject struct {
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Start       string   `json:"start"`
	End         string   `json:"end"`
	Highlights  []string `json:"highlights"`
}

// CVAward represents a discrete award or achievement.
type CVAward struct {
	Title  string `json:"title"`
	Issuer string `json:"issuer"`
	Date   string `json:"date"`
}

// CVPresentation represents a talk or publication entry.
type CVPresentation struct {
	Title string `json:"title"`
	Venue string `json:"venue"`
	Date  string `json:"date"`
}

var cvDatePattern = regexp.MustCompile(`^\d{4}-(0[1-9]|1[0-2])$`)

func isFullURL(value string) bool {
	if value == "" {
		return false
	}
	parsed, err := url.Parse(value)
	if err != nil {
		return false
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return false
	}
	return parsed.Host != ""
}

func validateDateField(value, field string) error {
	if value == "" || value == "Present" {
		return nil
	}
	if !cvDatePattern.MatchString(value) {
		return fmt.Errorf("%s must be YYYY-MM or Present", field)
	}
	return nil
}
