package services

import (
	"errors"
	"io"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/besterhub/kgc-league/pkg/config"
)

func testLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

func TestSMSRateLimiter(t *testing.T) {
	tests := []struct {
		name         string
		maxRequests  int
		window       time.Duration
		requests     []string
		expectedErrs []bool
	}{
		{
			name:         "within_rate_limit",
			maxRequests:  3,
			window:       time.Hour,
			requests:     []string{"+15550100001", "+15550100001"},
			expectedErrs: []bool{false, false},
		},
		{
			name:         "exceeds_rate_limit",
			maxRequests:  2,
			window:       time.Hour,
			requests:     []string{"+15550100001", "+15550100001", "+15550100001"},
			expectedErrs: []bool{false, false, true},
		},
		{
			name:         "different_numbers_no_limit",
			maxRequests:  2,
			window:       time.Hour,
			requests:     []string{"+15550100001", "+15550100002", "+15550100001"},
			expectedErrs: []bool{false, false, false},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rateLimiter := NewSMSRateLimiter(tt.maxRequests, tt.window)

			for i, phoneNumber := range tt.requests {
				err := rateLimiter.Allow(phoneNumber)

				if tt.expectedErrs[i] {
					assert.Error(t, err)
					assert.Contains(t, err.Error(), "rate limit exceeded")
				} else {
					assert.NoError(t, err)
				}
			}
		})
	}
}

func TestSMSRateLimiter_Reset(t *testing.T) {
	rateLimiter := NewSMSRateLimiter(1, time.Hour)

	require.NoError(t, rateLimiter.Allow("+15550100001"))
	require.Error(t, rateLimiter.Allow("+15550100001"))

	rateLimiter.Reset()
	assert.NoError(t, rateLimiter.Allow("+15550100001"))
}

func TestMockSMSService_SendMessage(t *testing.T) {
	mock := NewMockSMSService(testLogger())
	assert.NoError(t, mock.SendMessage("+15550100001", "test message"))
}

func TestPhoneNumberNormalization(t *testing.T) {
	tests := []struct {
		name          string
		input         string
		expectedValid bool
		expectedE164  string
	}{
		{
			name:          "us_number_with_country_code",
			input:         "+12345678901",
			expectedValid: true,
			expectedE164:  "+12345678901",
		},
		{
			name:          "us_number_without_country_code",
			input:         "2345678901",
			expectedValid: true,
			expectedE164:  "+12345678901",
		},
		{
			name:          "formatted_us_number",
			input:         "(234) 567-8901",
			expectedValid: true,
			expectedE164:  "+12345678901",
		},
		{
			name:          "international_number",
			input:         "+44123456789",
			expectedValid: true,
			expectedE164:  "+44123456789",
		},
		{
			name:          "invalid_short_number",
			input:         "123",
			expectedValid: false,
		},
		{
			name:          "invalid_long_number",
			input:         "+123456789012345678",
			expectedValid: false,
		},
		{
			name:          "empty_number",
			input:         "",
			expectedValid: false,
		},
	}

	service := NewTwilioSMSService("test_account_sid", "test_auth_token", "+15550100000", nil, testLogger())

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			normalized, err := service.normalizePhoneNumber(tt.input)

			if tt.expectedValid {
				require.NoError(t, err)
				assert.Equal(t, tt.expectedE164, normalized)
			} else {
				require.Error(t, err)
				assert.Contains(t, err.Error(), "invalid phone number format")
			}
		})
	}
}

func TestTwilioSMSService_InvalidNumberRejectedBeforeSend(t *testing.T) {
	rateLimiter := NewSMSRateLimiter(3, time.Hour)
	service := NewTwilioSMSService("test_account_sid", "test_auth_token", "+15550100000", rateLimiter, testLogger())

	err := service.SendMessage("not-a-number", "hello")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid phone number format")
}

func TestTwilioSMSService_RateLimitedBeforeSend(t *testing.T) {
	rateLimiter := NewSMSRateLimiter(1, time.Hour)
	service := NewTwilioSMSService("test_account_sid", "test_auth_token", "+15550100000", rateLimiter, testLogger())

	// Consume the single token for the normalized form of the number, so
	// the send is rejected before any API call happens.
	require.NoError(t, rateLimiter.Allow("+12345678901"))

	err := service.SendMessage("(234) 567-8901", "hello")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "rate limit exceeded")
}

func TestMapTwilioError(t *testing.T) {
	tests := []struct {
		name        string
		apiError    string
		expectedMsg string
	}{
		{
			name:        "invalid_phone_number",
			apiError:    "Twilio error 21211: Invalid 'To' Phone Number",
			expectedMsg: "invalid phone number",
		},
		{
			name:        "unverified_trial_number",
			apiError:    "The number is an unverified number for this trial account",
			expectedMsg: "phone number not verified for trial account",
		},
		{
			name:        "insufficient_funds",
			apiError:    "Account has insufficient funds",
			expectedMsg: "SMS service temporarily unavailable",
		},
		{
			name:        "rate_limited_upstream",
			apiError:    "Rate limit exceeded for account",
			expectedMsg: "too many SMS requests",
		},
		{
			name:        "blocked_number",
			apiError:    "Message delivery to blocked number",
			expectedMsg: "unable to send SMS to this number",
		},
		{
			name:        "unknown_error",
			apiError:    "something unexpected happened",
			expectedMsg: "failed to send SMS",
		},
	}

	service := NewTwilioSMSService("test_account_sid", "test_auth_token", "+15550100000", nil, testLogger())

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mapped := service.mapTwilioError(errors.New(tt.apiError))
			assert.Contains(t, mapped.Error(), tt.expectedMsg)
		})
	}
}

func TestNewSMSServiceFromConfig(t *testing.T) {
	t.Run("falls_back_to_mock_without_credentials", func(t *testing.T) {
		cfg := &config.Config{}
		service := NewSMSServiceFromConfig(cfg, testLogger())
		assert.IsType(t, &MockSMSService{}, service)
	})

	t.Run("uses_twilio_with_credentials", func(t *testing.T) {
		cfg := &config.Config{
			TwilioAccountSID: "test_account_sid",
			TwilioAuthToken:  "test_auth_token",
			TwilioFromNumber: "+15550100000",
		}
		service := NewSMSServiceFromConfig(cfg, testLogger())
		assert.IsType(t, &TwilioSMSService{}, service)
	})

	t.Run("partial_credentials_fall_back_to_mock", func(t *testing.T) {
		cfg := &config.Config{
			TwilioAccountSID: "test_account_sid",
		}
		service := NewSMSServiceFromConfig(cfg, testLogger())
		assert.IsType(t, &MockSMSService{}, service)
	})
}
