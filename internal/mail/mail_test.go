// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Custos Contributors

package mail

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig() Config {
	return Config{
		Host:        "smtp.example.com",
		From:        "custos@example.com",
		FrontendURL: "https://app.example.com",
		ResetTTL:    time.Hour,
	}
}

func TestNewSMTPSender(t *testing.T) {
	t.Run("requires host", func(t *testing.T) {
		cfg := testConfig()
		cfg.Host = ""
		_, err := NewSMTPSender(cfg, nil)
		require.Error(t, err)
	})

	t.Run("requires from address", func(t *testing.T) {
		cfg := testConfig()
		cfg.From = ""
		_, err := NewSMTPSender(cfg, nil)
		require.Error(t, err)
	})

	t.Run("requires frontend url", func(t *testing.T) {
		cfg := testConfig()
		cfg.FrontendURL = ""
		_, err := NewSMTPSender(cfg, nil)
		require.Error(t, err)
	})

	t.Run("defaults port and ttl", func(t *testing.T) {
		s, err := NewSMTPSender(testConfig(), nil)
		require.NoError(t, err)
		assert.Equal(t, 587, s.cfg.Port)
		assert.Equal(t, time.Hour, s.cfg.ResetTTL)
	})
}

func TestResetLink(t *testing.T) {
	s, err := NewSMTPSender(testConfig(), nil)
	require.NoError(t, err)

	t.Run("token is query escaped", func(t *testing.T) {
		link := s.resetLink("a+b/c=")
		assert.Equal(t, "https://app.example.com/reset-password?token=a%2Bb%2Fc%3D", link)
	})

	t.Run("trailing slash collapses", func(t *testing.T) {
		cfg := testConfig()
		cfg.FrontendURL = "https://app.example.com/"
		s2, err := NewSMTPSender(cfg, nil)
		require.NoError(t, err)
		assert.Equal(t, "https://app.example.com/reset-password?token=tok", s2.resetLink("tok"))
	})
}

func TestBuildMessage(t *testing.T) {
	msg := string(buildMessage("from@example.com", "to@example.com", "Subject Line", "the body\r\n"))

	assert.Contains(t, msg, "From: from@example.com\r\n")
	assert.Contains(t, msg, "To: to@example.com\r\n")
	assert.Contains(t, msg, "Subject: Subject Line\r\n")
	assert.Contains(t, msg, "Content-Type: text/plain; charset=utf-8\r\n")
	// Blank line between headers and body.
	assert.Contains(t, msg, "\r\n\r\nthe body")
}

func TestFormatTTL(t *testing.T) {
	assert.Equal(t, "1 hour", formatTTL(time.Hour))
	assert.Equal(t, "24 hours", formatTTL(24*time.Hour))
	assert.Equal(t, "90m0s", formatTTL(90*time.Minute))
}

func TestLogSenderNeverFails(t *testing.T) {
	s := NewLogSender(nil)
	assert.NoError(t, s.SendWelcome(t.Context(), "u@example.com", "tok"))
	assert.NoError(t, s.SendPasswordReset(t.Context(), "u@example.com", "tok"))
}
