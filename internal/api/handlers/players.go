package handlers

import (
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/besterhub/kgc-league/internal/models"
	"github.com/besterhub/kgc-league/internal/services"
	"github.com/besterhub/kgc-league/pkg/database"
	"github.com/besterhub/kgc-league/pkg/utils"
)

type PlayerHandler struct {
	db    *database.DB
	cache *services.CacheService
}

func NewPlayerHandler(db *database.DB, cache *services.CacheService) *PlayerHandler {
	return &PlayerHandler{
		db:    db,
		cache: cache,
	}
}

// ListPlayers returns the roster
// GET /api/v1/players
func (h *PlayerHandler) ListPlayers(c *gin.Context) {
	query := h.db.Model(&models.Player{})

	if active := c.Query("active"); active != "" {
		isActive, err := strconv.ParseBool(active)
		if err != nil {
			utils.SendValidationError(c, "Invalid active filter", err.Error())
			return
		}
		query = query.Where("is_active = ?", isActive)
	}
	if commitment := c.Query("commitment"); commitment != "" {
		query = query.Where("commitment = ?", commitment)
	}

	var players []models.Player
	if err := query.Order("member_number").Find(&players).Error; err != nil {
		utils.SendInternalError(c, "Failed to fetch players")
		return
	}

	utils.SendSuccess(c, players)
}

// GetPlayer returns a single roster member
// GET /api/v1/players/:id
func (h *PlayerHandler) GetPlayer(c *gin.Context) {
	player, ok := h.findPlayer(c)
	if !ok {
		return
	}
	utils.SendSuccess(c, player)
}

type createPlayerRequest struct {
	MemberNumber  string   `json:"member_number" binding:"required"`
	FirstName     string   `json:"first_name" binding:"required"`
	LastName      string   `json:"last_name" binding:"required"`
	Email         string   `json:"email"`
	Phone         string   `json:"phone"`
	HandicapIndex float64  `json:"handicap_index"`
	Commitment    string   `json:"commitment"`
	Eligibility   []string `json:"eligibility"`
	SMSOptIn      bool     `json:"sms_opt_in"`
}

// CreatePlayer adds a member to the roster
// POST /api/v1/players
func (h *PlayerHandler) CreatePlayer(c *gin.Context) {
	var req createPlayerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.SendValidationError(c, "Invalid request body", err.Error())
		return
	}

	commitment := models.Commitment(req.Commitment)
	if req.Commitment == "" {
		commitment = models.CommitmentMember
	} else if !validCommitment(commitment) {
		utils.SendValidationError(c, "Invalid commitment", "Commitment must be member, casual, or guest")
		return
	}

	var existing models.Player
	err := h.db.Where("member_number = ?", req.MemberNumber).First(&existing).Error
	if err == nil {
		utils.SendConflict(c, "Member number already registered")
		return
	}
	if err != gorm.ErrRecordNotFound {
		utils.SendInternalError(c, "Failed to check existing player")
		return
	}

	player := models.Player{
		MemberNumber:  strings.TrimSpace(req.MemberNumber),
		FirstName:     strings.TrimSpace(req.FirstName),
		LastName:      strings.TrimSpace(req.LastName),
		Email:         req.Email,
		Phone:         req.Phone,
		HandicapIndex: req.HandicapIndex,
		Commitment:    commitment,
		Eligibility:   models.CategoryList(req.Eligibility),
		IsActive:      true,
		SMSOptIn:      req.SMSOptIn,
	}

	if err := h.db.Create(&player).Error; err != nil {
		utils.SendInternalError(c, "Failed to create player")
		return
	}

	utils.SendSuccess(c, player)
}

type updatePlayerRequest struct {
	FirstName        *string  `json:"first_name"`
	LastName         *string  `json:"last_name"`
	Email            *string  `json:"email"`
	Phone            *string  `json:"phone"`
	HandicapIndex    *float64 `json:"handicap_index"`
	Rating           *float64 `json:"rating"`
	Commitment       *string  `json:"commitment"`
	Eligibility      []string `json:"eligibility"`
	Role             *string  `json:"role"`
	ConsistencyClass *string  `json:"consistency_class"`
	IsActive         *bool    `json:"is_active"`
	SMSOptIn         *bool    `json:"sms_opt_in"`
}

// UpdatePlayer updates roster details, only touching the fields present in
// the request
// PUT /api/v1/players/:id
func (h *PlayerHandler) UpdatePlayer(c *gin.Context) {
	player, ok := h.findPlayer(c)
	if !ok {
		return
	}

	var req updatePlayerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.SendValidationError(c, "Invalid request body", err.Error())
		return
	}

	updates := make(map[string]interface{})

	if req.FirstName != nil {
		updates["first_name"] = strings.TrimSpace(*req.FirstName)
	}
	if req.LastName != nil {
		updates["last_name"] = strings.TrimSpace(*req.LastName)
	}
	if req.Email != nil {
		updates["email"] = *req.Email
	}
	if req.Phone != nil {
		updates["phone"] = *req.Phone
	}
	if req.HandicapIndex != nil {
		updates["handicap_index"] = *req.HandicapIndex
	}
	if req.Rating != nil {
		updates["rating"] = *req.Rating
	}
	if req.Commitment != nil {
		if !validCommitment(models.Commitment(*req.Commitment)) {
			utils.SendValidationError(c, "Invalid commitment", "Commitment must be member, casual, or guest")
			return
		}
		updates["commitment"] = *req.Commitment
	}
	if req.Eligibility != nil {
		updates["eligibility"] = models.CategoryList(req.Eligibility)
	}
	if req.Role != nil {
		updates["role"] = *req.Role
	}
	if req.ConsistencyClass != nil {
		updates["consistency_class"] = *req.ConsistencyClass
	}
	if req.IsActive != nil {
		updates["is_active"] = *req.IsActive
	}
	if req.SMSOptIn != nil {
		updates["sms_opt_in"] = *req.SMSOptIn
	}

	if len(updates) == 0 {
		utils.SendSuccess(c, player)
		return
	}

	if err := h.db.Model(player).Updates(updates).Error; err != nil {
		utils.SendInternalError(c, "Failed to update player")
		return
	}

	// Reload so the response reflects what was stored
	if err := h.db.First(player, player.ID).Error; err != nil {
		utils.SendInternalError(c, "Failed to reload player")
		return
	}

	utils.SendSuccess(c, player)
}

// DeletePlayer removes a member from the roster
// DELETE /api/v1/players/:id
func (h *PlayerHandler) DeletePlayer(c *gin.Context) {
	player, ok := h.findPlayer(c)
	if !ok {
		return
	}

	if err := h.db.Delete(player).Error; err != nil {
		utils.SendInternalError(c, "Failed to delete player")
		return
	}

	utils.SendSuccess(c, gin.H{"deleted": player.ID})
}

// findPlayer resolves the :id path parameter, accepting either the numeric
// ID or a member number.
func (h *PlayerHandler) findPlayer(c *gin.Context) (*models.Player, bool) {
	idStr := c.Param("id")

	var player models.Player
	var err error
	if id, parseErr := strconv.ParseUint(idStr, 10, 32); parseErr == nil {
		err = h.db.First(&player, id).Error
	} else {
		err = h.db.Where("member_number = ?", idStr).First(&player).Error
	}

	if err != nil {
		if err == gorm.ErrRecordNotFound {
			utils.SendNotFound(c, "Player not found")
		} else {
			utils.SendInternalError(c, "Failed to fetch player")
		}
		return nil, false
	}

	return &player, true
}

func validCommitment(commitment models.Commitment) bool {
	switch commitment {
	case models.CommitmentMember, models.CommitmentCasual, models.CommitmentGuest:
		return true
	}
	return false
}
