package main

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"igaudit/pkg/config"
	"igaudit/pkg/errors"
)

func TestMaskedConfig(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Instagram.SessionID = "1234567890%3Aabcdefgh"
	cfg.Instagram.CSRFToken = "short"
	cfg.Cache.RedisPassword = ""

	m := maskedConfig(cfg)
	assert.Equal(t, "1234...efgh", m.Instagram.SessionID)
	assert.Equal(t, "***", m.Instagram.CSRFToken)
	assert.Empty(t, m.Cache.RedisPassword)
	assert.Equal(t, "1234567890%3Aabcdefgh", cfg.Instagram.SessionID, "original untouched")
}

func TestCookieHeuristics(t *testing.T) {
	assert.True(t, looksLikeSessionID("12345678%3AabcdefGHIJ%3A26"))
	assert.False(t, looksLikeSessionID("12345678abcdefGHIJ26xx"))
	assert.False(t, looksLikeSessionID("1%3A"))

	assert.True(t, looksLikeCSRFToken("YTQHujAgMhyveLvvuwCfw9CPI8ROAHoy"))
	assert.False(t, looksLikeCSRFToken("abc"))
}

func TestAccountArg(t *testing.T) {
	assert.Equal(t, "default", accountArg(nil))
	assert.Equal(t, "work", accountArg([]string{" work "}))
}

func TestCheckRejectsTUIWithJSON(t *testing.T) {
	checkTUI, jsonOutput = true, true
	defer func() { checkTUI, jsonOutput = false, false }()

	err := runCheck(checkCmd, []string{"ghost_account"})
	assert.True(t, errors.IsValidation(err), "got %v", err)
}
