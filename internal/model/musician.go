package model

import "time"

// Musician is a performer, composer or producer in the catalog.
type Musician struct {
	ID        int64        `json:"id"`
	Name      string       `json:"name"`
	BirthDate *time.Time   `json:"birthDate,omitempty"`
	Country   string       `json:"country,omitempty"`
	Bio       string       `json:"bio,omitempty"`
	Roles     []string     `json:"roles"`
	CreatedAt time.Time    `json:"createdAt"`
	Ensembles []Membership `json:"ensembles,omitempty"`
}

// Musician roles.
const (
	MusicianVocalist    = "VOCALIST"
	MusicianGuitarist   = "GUITARIST"
	MusicianBassist     = "BASSIST"
	MusicianDrummer     = "DRUMMER"
	MusicianKeyboardist = "KEYBOARDIST"
	MusicianComposer    = "COMPOSER"
	MusicianConductor   = "CONDUCTOR"
	MusicianProducer    = "PRODUCER"
)

// MusicianRoles lists every accepted musician role.
var MusicianRoles = []string{
	MusicianVocalist, MusicianGuitarist, MusicianBassist, MusicianDrummer,
	MusicianKeyboardist, MusicianComposer, MusicianConductor, MusicianProducer,
}

// ValidateMusicianRoles rejects roles outside MusicianRoles.
func ValidateMusicianRoles(roles []string) error {
	for _, r := range roles {
		known := false
		for _, k := range MusicianRoles {
			if r == k {
				known = true
				break
			}
		}
		if !known {
			return Invalid("invalid musician role %q", r)
		}
	}
	return nil
}

// MusicianPatch holds the fields of a partial musician update.
type MusicianPatch struct {
	Name      *string
	BirthDate *time.Time
	Country   *string
	Bio       *string
	Roles     []string
}
