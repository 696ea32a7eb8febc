package models

import (
	"errors"
	"fmt"
	"strings"
)

type DataPersistence string

const (
	PersistLocalStorage DataPersistence = "localStorage"
	PersistDatabase     DataPersistence = "database"
	PersistNone         DataPersistence = "none"
)

type TechnicalRequirements struct {
	Responsive      bool            `json:"responsive"`
	Authentication  bool            `json:"authentication"`
	DataPersistence DataPersistence `json:"data_persistence"`
	UIFramework     *string         `json:"ui_framework,omitempty"`
}

// AnalysisResult is the structured requirements produced from the user's
// prompt. It is immutable once stored on a session.
type AnalysisResult struct {
	Features              []string              `json:"features"`
	Pages                 []string              `json:"pages"`
	TechnicalRequirements TechnicalRequirements `json:"technical_requirements"`
}

// Normalize trims entries, drops blanks and defaults the persistence mode.
func (a *AnalysisResult) Normalize() {
	a.Features = compactStrings(a.Features)
	a.Pages = compactStrings(a.Pages)

	tr := &a.TechnicalRequirements
	tr.DataPersistence = DataPersistence(strings.TrimSpace(string(tr.DataPersistence)))
	if tr.DataPersistence == "" {
		tr.DataPersistence = PersistNone
	}
	if strings.EqualFold(string(tr.DataPersistence), string(PersistLocalStorage)) {
		tr.DataPersistence = PersistLocalStorage
	}
	if tr.UIFramework != nil {
		fw := strings.TrimSpace(*tr.UIFramework)
		if fw == "" {
			tr.UIFramework = nil
		} else {
			tr.UIFramework = &fw
		}
	}
}

func (a *AnalysisResult) Validate() error {
	if a == nil {
		return errors.New("analysis result is missing")
	}
	if len(a.Features) == 0 {
		return errors.New("analysis result has no features")
	}
	if len(a.Pages) == 0 {
		return errors.New("analysis result has no pages")
	}
	switch a.TechnicalRequirements.DataPersistence {
	case PersistLocalStorage, PersistDatabase, PersistNone:
	default:
		return fmt.Errorf("unknown data_persistence %q", a.TechnicalRequirements.DataPersistence)
	}
	return nil
}

func compactStrings(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}
