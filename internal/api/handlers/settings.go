package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/besterhub/kgc-league/internal/models"
	"github.com/besterhub/kgc-league/internal/services"
	"github.com/besterhub/kgc-league/pkg/database"
	"github.com/besterhub/kgc-league/pkg/utils"
)

type SettingsHandler struct {
	db    *database.DB
	cache *services.CacheService
}

func NewSettingsHandler(db *database.DB, cache *services.CacheService) *SettingsHandler {
	return &SettingsHandler{
		db:    db,
		cache: cache,
	}
}

// GetSettings returns the league configuration
// GET /api/v1/settings
func (h *SettingsHandler) GetSettings(c *gin.Context) {
	settings, err := models.GetSettings(h.db)
	if err != nil {
		utils.SendInternalError(c, "Failed to retrieve settings")
		return
	}

	utils.SendSuccess(c, settings)
}

type updateSettingsRequest struct {
	LeagueName       *string                 `json:"league_name"`
	Sections         []models.SectionConfig  `json:"sections"`
	Rules            *models.ConstraintRules `json:"rules"`
	MinSpread        *float64                `json:"min_spread"`
	PoolSize         *int                    `json:"pool_size"`
	Objective        *string                 `json:"objective"`
	BalanceMargin    *float64                `json:"balance_margin"`
	ExactSearchLimit *int                    `json:"exact_search_limit"`
	MissingRequired  *string                 `json:"missing_required"`
}

// UpdateSettings updates the league configuration, only touching the fields
// present in the request
// PUT /api/v1/settings
func (h *SettingsHandler) UpdateSettings(c *gin.Context) {
	var req updateSettingsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.SendValidationError(c, "Invalid request body", err.Error())
		return
	}

	updates := make(map[string]interface{})

	if req.LeagueName != nil {
		updates["league_name"] = *req.LeagueName
	}
	if req.Sections != nil {
		if msg, ok := validateSections(req.Sections); !ok {
			utils.SendValidationError(c, "Invalid sections", msg)
			return
		}
		updates["sections"] = models.SectionList(req.Sections)
	}
	if req.Rules != nil {
		updates["rules"] = *req.Rules
	}
	if req.MinSpread != nil {
		if *req.MinSpread < 0 {
			utils.SendValidationError(c, "Invalid min spread", "Minimum spread cannot be negative")
			return
		}
		updates["min_spread"] = *req.MinSpread
	}
	if req.PoolSize != nil {
		if *req.PoolSize < 0 {
			utils.SendValidationError(c, "Invalid pool size", "Pool size cannot be negative")
			return
		}
		updates["pool_size"] = *req.PoolSize
	}
	if req.Objective != nil {
		if *req.Objective != "max_value" && *req.Objective != "balanced" {
			utils.SendValidationError(c, "Invalid objective", "Objective must be max_value or balanced")
			return
		}
		updates["objective"] = *req.Objective
	}
	if req.BalanceMargin != nil {
		if *req.BalanceMargin < 0 {
			utils.SendValidationError(c, "Invalid balance margin", "Balance margin cannot be negative")
			return
		}
		updates["balance_margin"] = *req.BalanceMargin
	}
	if req.ExactSearchLimit != nil {
		if *req.ExactSearchLimit < 1 || *req.ExactSearchLimit > 10 {
			utils.SendValidationError(c, "Invalid exact search limit", "Exact search limit must be between 1 and 10")
			return
		}
		updates["exact_search_limit"] = *req.ExactSearchLimit
	}
	if req.MissingRequired != nil {
		if *req.MissingRequired != "fail" && *req.MissingRequired != "report" {
			utils.SendValidationError(c, "Invalid missing required policy", "Policy must be fail or report")
			return
		}
		updates["missing_required"] = *req.MissingRequired
	}

	settings, err := models.GetSettings(h.db)
	if err != nil {
		utils.SendInternalError(c, "Failed to retrieve settings")
		return
	}

	if len(updates) == 0 {
		utils.SendSuccess(c, settings)
		return
	}

	if err := h.db.Model(settings).Updates(updates).Error; err != nil {
		utils.SendInternalError(c, "Failed to update settings")
		return
	}

	// Reload so the response reflects what was stored
	settings, err = models.GetSettings(h.db)
	if err != nil {
		utils.SendInternalError(c, "Failed to reload settings")
		return
	}

	utils.SendSuccess(c, settings)
}

func validateSections(sections []models.SectionConfig) (string, bool) {
	if len(sections) == 0 {
		return "At least one section is required", false
	}

	seen := make(map[string]bool, len(sections))
	for _, sec := range sections {
		if sec.SectionID == "" {
			return "Every section needs an ID", false
		}
		if seen[sec.SectionID] {
			return "Section IDs must be unique", false
		}
		seen[sec.SectionID] = true
		if sec.Capacity < 1 {
			return "Section capacity must be at least 1", false
		}
	}
	return "", true
}
