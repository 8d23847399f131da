package config

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/wacul/ptr"
)

func TestInitConfigWithValidJSON(t *testing.T) {
	fileName := createTempConfigFile(t, `{
		"project_name": "perch",
		"data_source": {"dns": "postgres://localhost:5432/perch"},
		"redis": {"dns": "localhost:6379"},
		"platform": {"authority": "platform-admin"}
	}`)
	defer os.Remove(fileName)

	err := InitConfig(fileName)
	assert.NoError(t, err)

	cnf, err := Fetch()
	assert.NoError(t, err)
	assert.Equal(t, "perch", cnf.ProjectName)
	assert.Equal(t, "postgres://localhost:5432/perch", cnf.DataSource.Dns)
	assert.Equal(t, "platform-admin", cnf.Platform.Authority)
}

func TestInitConfigDefaults(t *testing.T) {
	fileName := createTempConfigFile(t, `{
		"data_source": {"dns": "postgres://localhost:5432/perch"},
		"redis": {"dns": "localhost:6379"},
		"platform": {"authority": "platform-admin"}
	}`)
	defer os.Remove(fileName)

	err := InitConfig(fileName)
	assert.NoError(t, err)

	cnf, err := Fetch()
	assert.NoError(t, err)
	assert.Equal(t, DEFAULT_PORT, cnf.Server.Port)
	assert.Equal(t, int64(DefaultFeeRateBps), cnf.Platform.FeeRateBps)
	assert.Equal(t, DefaultCurrency, cnf.Platform.Currency)
	assert.Equal(t, DefaultTreasuryIndicator, cnf.Platform.TreasuryIndicator)
	assert.Equal(t, DefaultWebhookQueue, cnf.Queue.WebhookQueue)
}

func TestInitConfigMissingDataSource(t *testing.T) {
	fileName := createTempConfigFile(t, `{
		"redis": {"dns": "localhost:6379"},
		"platform": {"authority": "platform-admin"}
	}`)
	defer os.Remove(fileName)

	err := InitConfig(fileName)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "data source DNS is required")
}

func TestInitConfigMissingAuthority(t *testing.T) {
	fileName := createTempConfigFile(t, `{
		"data_source": {"dns": "postgres://localhost:5432/perch"},
		"redis": {"dns": "localhost:6379"}
	}`)
	defer os.Remove(fileName)

	err := InitConfig(fileName)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "platform authority is required")
}

func TestInitConfigRejectsFeeRateOutOfRange(t *testing.T) {
	fileName := createTempConfigFile(t, `{
		"data_source": {"dns": "postgres://localhost:5432/perch"},
		"redis": {"dns": "localhost:6379"},
		"platform": {"authority": "platform-admin", "fee_rate_bps": 10001}
	}`)
	defer os.Remove(fileName)

	err := InitConfig(fileName)
	assert.Error(t, err)
}

func TestInitConfigWithEnvOverride(t *testing.T) {
	fileName := createTempConfigFile(t, `{
		"data_source": {"dns": "postgres://localhost:5432/perch"},
		"redis": {"dns": "localhost:6379"},
		"platform": {"authority": "platform-admin"}
	}`)
	defer os.Remove(fileName)

	os.Setenv("PERCH_PLATFORM_FEE_RATE_BPS", "250")
	defer os.Unsetenv("PERCH_PLATFORM_FEE_RATE_BPS")

	err := InitConfig(fileName)
	assert.NoError(t, err)

	cnf, err := Fetch()
	assert.NoError(t, err)
	assert.Equal(t, int64(250), cnf.Platform.FeeRateBps)
}

func TestRateLimitDefaults(t *testing.T) {
	cnf := &Configuration{
		DataSource: DataSourceConfig{Dns: "postgres://localhost:5432/perch"},
		Redis:      RedisConfig{Dns: "localhost:6379"},
		Platform:   PlatformConfig{Authority: "platform-admin"},
		RateLimit:  RateLimitConfig{RequestsPerSecond: ptr.Float64(10)},
	}
	err := cnf.validateAndAddDefaults()
	assert.NoError(t, err)
	assert.NotNil(t, cnf.RateLimit.Burst)
	assert.Equal(t, 20, *cnf.RateLimit.Burst)
	assert.NotNil(t, cnf.RateLimit.CleanupIntervalSec)
}

func createTempConfigFile(t *testing.T, content string) string {
	t.Helper()
	f, err := os.CreateTemp("", "perch-config-*.json")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := f.WriteString(content); err != nil {
		t.Fatal(err)
	}
	f.Close()
	return f.Name()
}
