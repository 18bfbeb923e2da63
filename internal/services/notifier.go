package services

import (
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/besterhub/kgc-league/internal/models"
	"github.com/besterhub/kgc-league/internal/pairing"
	"github.com/besterhub/kgc-league/pkg/database"
)

// NotificationService texts pairing announcements to opted-in players.
type NotificationService struct {
	db     *database.DB
	sms    SMSService
	logger *logrus.Logger
}

func NewNotificationService(db *database.DB, sms SMSService, logger *logrus.Logger) *NotificationService {
	return &NotificationService{
		db:     db,
		sms:    sms,
		logger: logger,
	}
}

// AnnouncePairings sends each opted-in player their pairing or reserve
// status for the run. Delivery failures are counted and logged, never
// fatal.
func (s *NotificationService) AnnouncePairings(leagueName string, result *pairing.Result) (int, int) {
	recipients, err := s.optedInPlayers()
	if err != nil {
		s.logger.WithField("component", "notifier").Errorf("Failed to load notification recipients: %v", err)
		return 0, 0
	}
	if len(recipients) == 0 {
		return 0, 0
	}

	sent, failed := 0, 0
	deliver := func(memberNumber, message string) {
		player, ok := recipients[memberNumber]
		if !ok {
			return
		}
		if err := s.sms.SendMessage(player.Phone, message); err != nil {
			s.logger.WithFields(logrus.Fields{
				"component":     "notifier",
				"member_number": memberNumber,
			}).Warnf("Failed to send pairing SMS: %v", err)
			failed++
			return
		}
		sent++
	}

	for _, pair := range result.Pairs {
		deliver(pair.Anchor.ID, pairingMessage(leagueName, pair.Partner.Name, pair.SectionID))
		deliver(pair.Partner.ID, pairingMessage(leagueName, pair.Anchor.Name, pair.SectionID))
	}

	for _, reserve := range result.Reserves {
		if reserve.Pair != nil {
			deliver(reserve.Pair.Anchor.ID, reserveMessage(leagueName))
			deliver(reserve.Pair.Partner.ID, reserveMessage(leagueName))
			continue
		}
		deliver(reserve.CandidateID, reserveMessage(leagueName))
	}

	s.logger.WithFields(logrus.Fields{
		"component": "notifier",
		"run_id":    result.RunID,
		"sent":      sent,
		"failed":    failed,
	}).Info("Pairing announcements delivered")

	return sent, failed
}

// optedInPlayers maps member number to player for everyone reachable by
// SMS.
func (s *NotificationService) optedInPlayers() (map[string]models.Player, error) {
	var players []models.Player
	err := s.db.DB.Where("is_active = ? AND sms_opt_in = ? AND phone <> ''", true, true).Find(&players).Error
	if err != nil {
		return nil, err
	}

	out := make(map[string]models.Player, len(players))
	for _, p := range players {
		out[p.PairingID()] = p
	}
	return out, nil
}

func pairingMessage(leagueName, partnerName, sectionID string) string {
	if partnerName == "" {
		partnerName = "your partner"
	}
	return fmt.Sprintf("%s: you're paired with %s in %s this week.", leagueName, partnerName, sectionID)
}

func reserveMessage(leagueName string) string {
	return fmt.Sprintf("%s: you're on the reserve list this week. We'll text you if a spot opens.", leagueName)
}
