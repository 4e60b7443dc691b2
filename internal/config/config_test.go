package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	for _, key := range []string{"PORT", "HOST", "WORKER_LIMIT", "ENVIRONMENT"} {
		t.Setenv(key, "")
	}

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Port)
	assert.Equal(t, "0.0.0.0", cfg.Host)
	assert.Equal(t, 64, cfg.WorkerLimit)
	assert.Equal(t, "development", cfg.Environment)
	assert.False(t, cfg.IsProduction())
}

func TestLoadProfiles(t *testing.T) {
	t.Setenv("APP_URL", "https://agent.example.com")
	t.Setenv("ESTANDAR_AA_APP_NAME", "agent_aa_app")
	t.Setenv("ESTANDAR_AA_FACEBOOK_APP", "https://graph.facebook.com/v22.0/111")
	t.Setenv("WHATSAPP_TOKEN_AA", "token-aa")
	t.Setenv("VERIFY_TOKEN_AA", "verify-aa")
	t.Setenv("ESTANDAR_PP_APP_NAME", "agent_pp_app")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "https://agent.example.com", cfg.AgentURL)

	aa := cfg.Profile(AppTypeAA)
	assert.Equal(t, "agent_aa_app", aa.AppName)
	assert.Equal(t, "token-aa", aa.WspToken)
	assert.Equal(t, "verify-aa", aa.VerifyToken)
	assert.True(t, aa.MessagingConfigured())
	assert.Equal(t, "AA", aa.Label())

	pp := cfg.Profile(AppTypePP)
	assert.Equal(t, "agent_pp_app", pp.AppName)
	assert.False(t, pp.MessagingConfigured())
}

func TestLoadGlobalFallbacks(t *testing.T) {
	t.Setenv("WSP_TOKEN", "token-global")
	t.Setenv("VERIFY_TOKEN", "verify-global")
	t.Setenv("WHATSAPP_TOKEN_AA", "token-aa")

	cfg, err := Load()
	require.NoError(t, err)

	// El token específico gana; donde no hay, cae al global.
	assert.Equal(t, "token-aa", cfg.AA.WspToken)
	assert.Equal(t, "token-global", cfg.PP.WspToken)
	assert.Equal(t, "verify-global", cfg.AA.VerifyToken)
	assert.Equal(t, "verify-global", cfg.PP.VerifyToken)
}

func TestLoadInvalidPort(t *testing.T) {
	t.Setenv("PORT", "no-numérico")

	_, err := Load()
	assert.Error(t, err)
}

func TestLoadInvalidWorkerLimit(t *testing.T) {
	t.Setenv("WORKER_LIMIT", "0")

	_, err := Load()
	assert.Error(t, err)
}

func TestIsProduction(t *testing.T) {
	t.Setenv("ENVIRONMENT", "prd")

	cfg, err := Load()
	require.NoError(t, err)
	assert.True(t, cfg.IsProduction())
}
