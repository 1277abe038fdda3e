package model

import "time"

// Ensemble is a band, orchestra or other group of musicians.
type Ensemble struct {
	ID            int64        `json:"id"`
	Name          string       `json:"name"`
	FormationDate time.Time    `json:"formationDate"`
	Type          string       `json:"type"`
	CreatedAt     time.Time    `json:"createdAt"`
	Members       []Membership `json:"members,omitempty"`
}

// Ensemble types.
const (
	EnsembleBand      = "BAND"
	EnsembleOrchestra = "ORCHESTRA"
	EnsembleChoir     = "CHOIR"
	EnsembleChamber   = "CHAMBER"
	EnsembleOther     = "OTHER"
)

// Membership links a musician to an ensemble for a period in a role.
type Membership struct {
	EnsembleID int64      `json:"ensembleId"`
	MusicianID int64      `json:"musicianId"`
	Role       string     `json:"role"`
	StartDate  time.Time  `json:"startDate"`
	EndDate    *time.Time `json:"endDate,omitempty"`

	// Joined fields (not always populated).
	MusicianName string `json:"musicianName,omitempty"`
	EnsembleName string `json:"ensembleName,omitempty"`
}

// Active reports whether the membership is current at t.
func (m Membership) Active(t time.Time) bool {
	if t.Before(m.StartDate) {
		return false
	}
	return m.EndDate == nil || !t.After(*m.EndDate)
}

// AlbumSummary is the title and catalog number of an album.
type AlbumSummary struct {
	ID            int64  `json:"id"`
	Title         string `json:"title"`
	CatalogNumber string `json:"catalogNumber"`
}

// ValidEnsembleType reports whether t is a known ensemble type.
func ValidEnsembleType(t string) bool {
	switch t {
	case EnsembleBand, EnsembleOrchestra, EnsembleChoir, EnsembleChamber, EnsembleOther:
		return true
	}
	return false
}
