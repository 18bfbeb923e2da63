package services

import (
	"fmt"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"

	"github.com/besterhub/kgc-league/pkg/config"
)

// SMSService interface for sending SMS messages
type SMSService interface {
	SendMessage(phoneNumber, message string) error
}

// MockSMSService for development - logs to console instead of sending real SMS
type MockSMSService struct {
	logger *logrus.Logger
}

func NewMockSMSService(logger *logrus.Logger) *MockSMSService {
	return &MockSMSService{logger: logger}
}

func (s *MockSMSService) SendMessage(phoneNumber, message string) error {
	s.logger.WithFields(logrus.Fields{
		"component": "sms",
		"provider":  "mock",
		"to":        phoneNumber,
	}).Infof("📨 MOCK SMS: %s", message)
	return nil
}

// SMSRateLimiter caps outbound messages per phone number using a token
// bucket per recipient.
type SMSRateLimiter struct {
	mu       sync.Mutex
	limiters map[string]*rate.Limiter
	limit    rate.Limit
	burst    int
	window   time.Duration
}

// NewSMSRateLimiter creates a rate limiter allowing maxRequests messages per
// window for each phone number.
func NewSMSRateLimiter(maxRequests int, window time.Duration) *SMSRateLimiter {
	return &SMSRateLimiter{
		limiters: make(map[string]*rate.Limiter),
		limit:    rate.Every(window / time.Duration(maxRequests)),
		burst:    maxRequests,
		window:   window,
	}
}

// Allow checks if the request is allowed for the given phone number
func (rl *SMSRateLimiter) Allow(phoneNumber string) error {
	rl.mu.Lock()
	lim, ok := rl.limiters[phoneNumber]
	if !ok {
		lim = rate.NewLimiter(rl.limit, rl.burst)
		rl.limiters[phoneNumber] = lim
	}
	rl.mu.Unlock()

	if !lim.Allow() {
		return fmt.Errorf("rate limit exceeded: maximum %d SMS per %v", rl.burst, rl.window)
	}
	return nil
}

// Reset clears all rate limiting state
func (rl *SMSRateLimiter) Reset() {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	rl.limiters = make(map[string]*rate.Limiter)
}

// NewSMSServiceFromConfig creates the appropriate SMS service based on
// configuration, falling back to the mock when Twilio credentials are
// missing.
func NewSMSServiceFromConfig(cfg *config.Config, logger *logrus.Logger) SMSService {
	// Max 3 SMS per hour per phone number
	rateLimiter := NewSMSRateLimiter(3, time.Hour)

	if cfg.TwilioAccountSID != "" && cfg.TwilioAuthToken != "" && cfg.TwilioFromNumber != "" {
		return NewTwilioSMSService(
			cfg.TwilioAccountSID,
			cfg.TwilioAuthToken,
			cfg.TwilioFromNumber,
			rateLimiter,
			logger,
		)
	}

	logger.WithField("component", "sms").Warn("Twilio credentials missing, falling back to mock SMS service")
	return NewMockSMSService(logger)
}
