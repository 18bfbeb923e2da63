package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"github.com/besterhub/kgc-league/pkg/database"
)

// SectionConfig describes one section of the weekly draw sheet
type SectionConfig struct {
	SectionID        string `json:"section_id"`
	Capacity         int    `json:"capacity"`
	RequiredCategory string `json:"required_category,omitempty"`
}

// SectionList stores the section layout as a JSON array
type SectionList []SectionConfig

// Scan implements the sql.Scanner interface
func (sl *SectionList) Scan(value interface{}) error {
	if value == nil {
		*sl = nil
		return nil
	}
	switch v := value.(type) {
	case []byte:
		return json.Unmarshal(v, sl)
	case string:
		return json.Unmarshal([]byte(v), sl)
	}
	return fmt.Errorf("cannot scan %T into SectionList", value)
}

// Value implements the driver.Valuer interface
func (sl SectionList) Value() (driver.Value, error) {
	if sl == nil {
		return nil, nil
	}
	return json.Marshal(sl)
}

// RequiredRule forces two members to play together
type RequiredRule struct {
	A string `json:"a"`
	B string `json:"b"`
}

// EitherOrRule pairs a member with one of the listed alternatives
type EitherOrRule struct {
	Fixed   string   `json:"fixed"`
	Options []string `json:"options"`
}

// ForbiddenRule keeps a member away from the listed players
type ForbiddenRule struct {
	ID       string   `json:"id"`
	Excluded []string `json:"excluded"`
}

// ConstraintRules is the persisted constraint configuration, stored as a
// single JSON document
type ConstraintRules struct {
	Required  []RequiredRule  `json:"required,omitempty"`
	EitherOr  []EitherOrRule  `json:"either_or,omitempty"`
	Forbidden []ForbiddenRule `json:"forbidden,omitempty"`
}

// Scan implements the sql.Scanner interface
func (cr *ConstraintRules) Scan(value interface{}) error {
	if value == nil {
		*cr = ConstraintRules{}
		return nil
	}
	switch v := value.(type) {
	case []byte:
		return json.Unmarshal(v, cr)
	case string:
		return json.Unmarshal([]byte(v), cr)
	}
	return fmt.Errorf("cannot scan %T into ConstraintRules", value)
}

// Value implements the driver.Valuer interface
func (cr ConstraintRules) Value() (driver.Value, error) {
	return json.Marshal(cr)
}

// LeagueSettings is the singleton configuration row driving every run
type LeagueSettings struct {
	ID               uint            `gorm:"primaryKey" json:"id"`
	LeagueName       string          `gorm:"not null;default:'KGC Weekly League'" json:"league_name"`
	Sections         SectionList     `gorm:"type:jsonb" json:"sections"`
	Rules            ConstraintRules `gorm:"type:jsonb" json:"rules"`
	MinSpread        float64         `gorm:"default:0" json:"min_spread"`
	PoolSize         int             `gorm:"default:0" json:"pool_size"` // 0 derives from section capacity
	Objective        string          `gorm:"type:varchar(20);default:'balanced'" json:"objective"`
	BalanceMargin    float64         `gorm:"default:0.5" json:"balance_margin"`
	ExactSearchLimit int             `gorm:"default:8" json:"exact_search_limit"`
	MissingRequired  string          `gorm:"type:varchar(10);default:'fail'" json:"missing_required"`
	UpdatedAt        time.Time       `json:"updated_at"`
}

// TableName specifies the table name for GORM
func (LeagueSettings) TableName() string {
	return "league_settings"
}

// TotalSeats returns how many players the configured sections hold
func (s *LeagueSettings) TotalSeats() int {
	total := 0
	for _, sec := range s.Sections {
		total += 2 * sec.Capacity
	}
	return total
}

// DefaultSettings returns the configuration used until an admin saves one.
// Home fixtures require home-eligible pairs; away fixtures take anyone.
func DefaultSettings() *LeagueSettings {
	return &LeagueSettings{
		LeagueName: "KGC Weekly League",
		Sections: SectionList{
			{SectionID: "home", Capacity: 4, RequiredCategory: "home"},
			{SectionID: "away", Capacity: 4},
		},
		Objective:        "balanced",
		BalanceMargin:    0.5,
		ExactSearchLimit: 8,
		MissingRequired:  "fail",
	}
}

// GetSettings fetches the singleton settings row, seeding the defaults on
// first use
func GetSettings(db *database.DB) (*LeagueSettings, error) {
	var settings LeagueSettings
	defaults := DefaultSettings()
	defaults.ID = 1
	err := db.Where(LeagueSettings{ID: 1}).Attrs(defaults).FirstOrCreate(&settings).Error
	return &settings, err
}
