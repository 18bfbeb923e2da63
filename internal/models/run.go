package models

import (
	"time"

	"gorm.io/datatypes"

	"github.com/besterhub/kgc-league/pkg/database"
)

// RunStatus represents the outcome of a pairing run
type RunStatus string

const (
	RunCompleted RunStatus = "completed"
	RunFailed    RunStatus = "failed"
)

// RunTrigger represents what started a pairing run
type RunTrigger string

const (
	TriggerManual    RunTrigger = "manual"
	TriggerScheduled RunTrigger = "scheduled"
)

// PairingRun is the persisted record of one pairing run. Payload holds the
// full result document as produced by the engine; the scalar columns exist
// for listing and filtering without unpacking it.
type PairingRun struct {
	ID             string         `gorm:"type:uuid;primaryKey" json:"id"`
	Trigger        RunTrigger     `gorm:"type:varchar(20);not null" json:"trigger"`
	Status         RunStatus      `gorm:"type:varchar(20);not null;index" json:"status"`
	Objective      string         `gorm:"type:varchar(20)" json:"objective"`
	Mode           string         `gorm:"type:varchar(20)" json:"mode"`
	ObjectiveValue float64        `json:"objective_value"`
	PoolSize       int            `json:"pool_size"`
	PairCount      int            `json:"pair_count"`
	ReserveCount   int            `json:"reserve_count"`
	Payload        datatypes.JSON `json:"payload,omitempty"`
	ErrorMessage   string         `gorm:"type:text" json:"error_message,omitempty"`
	GeneratedAt    time.Time      `gorm:"index" json:"generated_at"`
	CreatedAt      time.Time      `json:"created_at"`
}

// TableName specifies the table name for GORM
func (PairingRun) TableName() string {
	return "pairing_runs"
}

// GetRun fetches a single run by its identifier
func GetRun(db *database.DB, id string) (*PairingRun, error) {
	var run PairingRun
	err := db.Where("id = ?", id).First(&run).Error
	return &run, err
}

// RecentRuns fetches the latest runs, newest first
func RecentRuns(db *database.DB, limit int) ([]PairingRun, error) {
	if limit <= 0 {
		limit = 20
	}
	var runs []PairingRun
	err := db.Order("generated_at DESC").Limit(limit).Find(&runs).Error
	return runs, err
}
