package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoadConfig(t *testing.T) {
	t.Setenv("MONGODB_URI", "mongodb://localhost:27017/testdb")
	t.Setenv("MONGODB_DATABASE", "contractdesk_test")
	t.Setenv("REDIS_HOST", "localhost")
	t.Setenv("REDIS_PORT", "6379")
	t.Setenv("JWT_SECRET", "testsecret123456789012345678901234")
	t.Setenv("ADMIN_EMAILS", " Boss@Example.com, ,ops@example.com")
	t.Setenv("DASHBOARD_EXPIRING_DAYS", "14")

	cfg, err := LoadConfig()
	require.NoError(t, err)
	require.Equal(t, "mongodb://localhost:27017/testdb", cfg.MongoDB.URI)
	require.Equal(t, "localhost:6379", cfg.Redis.Addr())
	require.Equal(t, BackendMongo, cfg.Store.Backend)
	require.Equal(t, []string{"boss@example.com", "ops@example.com"}, cfg.Admin.Emails)
	require.Equal(t, 14*24*time.Hour, cfg.Dashboard.ExpiringWithin)
	require.Equal(t, 5, cfg.Dashboard.UpcomingLimit)
	require.Equal(t, "contract-files", cfg.MinIO.Bucket)
}

func TestLoadConfigDefaultsToMemory(t *testing.T) {
	t.Setenv("MONGODB_URI", "")
	t.Setenv("STORE_BACKEND", "")
	cfg, err := LoadConfig()
	require.NoError(t, err)
	require.Equal(t, BackendMemory, cfg.Store.Backend)
}

func TestKeycloakIssuer(t *testing.T) {
	k := KeycloakConfig{URL: "http://kc:8080/", Realm: "contracts"}
	require.Equal(t, "http://kc:8080/realms/contracts", k.Issuer())
	require.Equal(t, "", KeycloakConfig{}.Issuer())
}
