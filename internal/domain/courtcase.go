package domain

import "time"

// CourtCase is a case saved by the user.
type CourtCase struct {
	ID                int64     `json:"id"`
	CaseNumber        string    `json:"caseNumber"`
	ImposedName       string    `json:"imposedName,omitempty"`
	Department        string    `json:"department,omitempty"`
	ProceduralStage   string    `json:"proceduralStage,omitempty"`
	Category          string    `json:"category,omitempty"`
	Subject           string    `json:"subject,omitempty"`
	CourtName         string    `json:"courtName,omitempty"`
	Status            string    `json:"status,omitempty"`
	MonitoringEnabled bool      `json:"monitoringEnabled"`
	LastUpdated       string    `json:"lastUpdated,omitempty"`
	Hearings          []Hearing `json:"hearings,omitempty"`
	Parties           []Party   `json:"parties,omitempty"`
}

// LastUpdatedTime parses LastUpdated. The zero time is returned when the
// field is empty or not in a recognized layout.
func (c CourtCase) LastUpdatedTime() time.Time {
	return parseBackendTime(c.LastUpdated)
}

// Hearing is a court session of a case.
type Hearing struct {
	ID                int64  `json:"id,omitempty"`
	HearingDate       string `json:"hearingDate,omitempty"`
	PronouncementDate string `json:"pronouncementDate,omitempty"`
	JudicialPanel     string `json:"judicialPanel,omitempty"`
	Solution          string `json:"solution,omitempty"`
	Description       string `json:"description,omitempty"`
}

// Party is a participant of a case.
type Party struct {
	ID   int64  `json:"id,omitempty"`
	Name string `json:"name,omitempty"`
	Role string `json:"role,omitempty"`
}

// CaseDetails is case data fetched from the court portal without saving it.
type CaseDetails struct {
	Number               string    `json:"number,omitempty"`
	Institution          string    `json:"institution,omitempty"`
	Department           string    `json:"department,omitempty"`
	CaseCategory         string    `json:"caseCategory,omitempty"`
	CaseCategoryName     string    `json:"caseCategoryName,omitempty"`
	ProceduralStage      string    `json:"proceduralStage,omitempty"`
	ProceduralStageName  string    `json:"proceduralStageName,omitempty"`
	Subject              string    `json:"subject,omitempty"`
	ModificationDateTime string    `json:"modificationDateTime,omitempty"`
	Parties              []Party   `json:"parties,omitempty"`
	Hearings             []Hearing `json:"hearings,omitempty"`
}

// NewCase holds the data needed to start tracking a case.
type NewCase struct {
	CaseNumber  string `json:"caseNumber"            validate:"required,max=100"`
	Institution string `json:"institution"           validate:"required,max=200"`
	CustomTitle string `json:"customTitle,omitempty" validate:"max=200"`
}

// CaseSort is the ordering of a case listing.
type CaseSort string

const (
	CaseSortLastUpdated CaseSort = "lastUpdated"
	CaseSortCaseNumber  CaseSort = "caseNumber"
	CaseSortStatus      CaseSort = "status"
)

func (s CaseSort) IsValid() bool {
	switch s {
	case CaseSortLastUpdated, CaseSortCaseNumber, CaseSortStatus:
		return true
	}
	return false
}

// CaseFilter narrows a case listing. Zero values are not sent.
type CaseFilter struct {
	Search            string
	Status            string
	MonitoringEnabled *bool
	CourtName         string
	SortBy            CaseSort
}

var backendTimeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04:05",
	"2006-01-02",
}

func parseBackendTime(s string) time.Time {
	if s == "" {
		return time.Time{}
	}
	for _, layout := range backendTimeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	return time.Time{}
}
