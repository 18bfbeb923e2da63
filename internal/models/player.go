package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// Commitment represents a member's standing in the league roster
type Commitment string

const (
	CommitmentMember Commitment = "member" // season member, selected first
	CommitmentCasual Commitment = "casual" // week-to-week regular
	CommitmentGuest  Commitment = "guest"  // invited guest, fills leftover spots
)

// Priority returns the selection tier for the commitment level; lower tiers
// are picked first when the sign-up sheet overflows the draw.
func (c Commitment) Priority() int {
	switch c {
	case CommitmentMember:
		return 0
	case CommitmentCasual:
		return 1
	case CommitmentGuest:
		return 2
	default:
		return 3
	}
}

// CategoryList stores section eligibility as a JSON array
type CategoryList []string

// Scan implements the sql.Scanner interface
func (cl *CategoryList) Scan(value interface{}) error {
	if value == nil {
		*cl = nil
		return nil
	}
	switch v := value.(type) {
	case []byte:
		return json.Unmarshal(v, cl)
	case string:
		return json.Unmarshal([]byte(v), cl)
	}
	return fmt.Errorf("cannot scan %T into CategoryList", value)
}

// Value implements the driver.Valuer interface
func (cl CategoryList) Value() (driver.Value, error) {
	if cl == nil {
		return nil, nil
	}
	return json.Marshal(cl)
}

// Player represents one member of the league roster
type Player struct {
	ID               uint         `gorm:"primaryKey" json:"id"`
	MemberNumber     string       `gorm:"uniqueIndex;not null" json:"member_number"`
	FirstName        string       `gorm:"not null" json:"first_name"`
	LastName         string       `gorm:"not null" json:"last_name"`
	Email            string       `gorm:"index" json:"email,omitempty"`
	Phone            string       `json:"phone,omitempty"` // E.164, used for draw notifications
	HandicapIndex    float64      `gorm:"not null" json:"handicap_index"`
	Rating           *float64     `json:"rating"` // null until the rating service has scored the player
	RatingSyncedAt   *time.Time   `json:"rating_synced_at,omitempty"`
	Commitment       Commitment   `gorm:"type:varchar(20);default:'member'" json:"commitment"`
	Eligibility      CategoryList `gorm:"type:jsonb" json:"eligibility"`
	Role             string       `gorm:"type:varchar(30)" json:"role,omitempty"`
	ConsistencyClass string       `gorm:"type:varchar(30)" json:"consistency_class,omitempty"`
	IsActive         bool         `gorm:"default:true;index" json:"is_active"`
	SMSOptIn         bool         `gorm:"default:false" json:"sms_opt_in"`
	CreatedAt        time.Time    `json:"created_at"`
	UpdatedAt        time.Time    `json:"updated_at"`
}

// TableName specifies the table name for GORM
func (Player) TableName() string {
	return "players"
}

// FullName returns the player's display name
func (p *Player) FullName() string {
	return strings.TrimSpace(p.FirstName + " " + p.LastName)
}

// PairingID returns the stable identifier constraint rules and pairing
// output use for this player.
func (p *Player) PairingID() string {
	return p.MemberNumber
}

// HasRating reports whether the rating service has scored the player yet
func (p *Player) HasRating() bool {
	return p.Rating != nil
}
