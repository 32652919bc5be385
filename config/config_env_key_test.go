package config

import "testing"

func TestCanonicalizeEnvKey_UsesExistingCamelCaseKeys(t *testing.T) {
	existing := map[string]any{
		"mongo": map[string]any{
			"uri":      "",
			"database": "",
		},
		"secretKey": map[string]any{
			"token": "",
		},
		"auth": map[string]any{
			"maxActiveSessions": 10,
			"longSessionTTL":    "2160h",
		},
	}

	tests := []struct {
		envKey string
		want   string
	}{
		{envKey: "MONGO_URI", want: "mongo.uri"},
		{envKey: "SECRETKEY_TOKEN", want: "secretKey.token"},
		{envKey: "AUTH_MAXACTIVESESSIONS", want: "auth.maxActiveSessions"},
		{envKey: "AUTH_LONGSESSIONTTL", want: "auth.longSessionTTL"},
		{envKey: "NEW_FEATURE_FLAG", want: "new.feature.flag"},
	}

	for _, tt := range tests {
		t.Run(tt.envKey, func(t *testing.T) {
			if got := canonicalizeEnvKey(tt.envKey, existing); got != tt.want {
				t.Fatalf("canonicalizeEnvKey(%q) = %q, want %q", tt.envKey, got, tt.want)
			}
		})
	}
}

func TestDefaultAuthConfig(t *testing.T) {
	cfg := &Config{}
	applyDefaults(cfg)

	if cfg.Auth.MaxActiveSessions != 10 {
		t.Fatalf("MaxActiveSessions = %d, want 10", cfg.Auth.MaxActiveSessions)
	}
	if cfg.Verification.MaxAttempts != 3 {
		t.Fatalf("MaxAttempts = %d, want 3", cfg.Verification.MaxAttempts)
	}
}
