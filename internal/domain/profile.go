package domain

import "time"

type Profile struct {
	ID                string     `json:"id" db:"id"`
	DisplayName       string     `json:"display_name" db:"display_name"`
	Age               int        `json:"age" db:"age"`
	Gender            string     `json:"gender" db:"gender"`
	Bio               *string    `json:"bio" db:"bio"`
	City              *string    `json:"city" db:"city"`
	Latitude          *float64   `json:"latitude" db:"latitude"`
	Longitude         *float64   `json:"longitude" db:"longitude"`
	LocationUpdatedAt *time.Time `json:"location_updated_at" db:"location_updated_at"`
	Interests         []string   `json:"interests" db:"interests"`
	GenderPreference  []string   `json:"gender_preference" db:"gender_preference"`
	MinAge            int        `json:"min_age" db:"min_age"`
	MaxAge            int        `json:"max_age" db:"max_age"`
	MaxDistance       *int       `json:"max_distance" db:"max_distance"`
	CreatedAt         time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt         time.Time  `json:"updated_at" db:"updated_at"`
}

// HasCoordinates reports whether both latitude and longitude are known.
func (p *Profile) HasCoordinates() bool {
	return p.Latitude != nil && p.Longitude != nil
}

// AcceptsGender reports whether gender passes the profile's preference.
// An empty preference accepts everyone.
func (p *Profile) AcceptsGender(gender string) bool {
	if len(p.GenderPreference) == 0 {
		return true
	}
	for _, g := range p.GenderPreference {
		if g == gender {
			return true
		}
	}
	return false
}

// AcceptsAge reports whether age is inside [MinAge, MaxAge]. Unset bounds are open.
func (p *Profile) AcceptsAge(age int) bool {
	if p.MinAge > 0 && age < p.MinAge {
		return false
	}
	if p.MaxAge > 0 && age > p.MaxAge {
		return false
	}
	return true
}

type Photo struct {
	ID         string `json:"id" db:"id"`
	ProfileID  string `json:"profile_id" db:"profile_id"`
	URL        string `json:"url" db:"url"`
	IsPrimary  bool   `json:"is_primary" db:"is_primary"`
	OrderIndex int    `json:"order_index" db:"order_index"`
}
