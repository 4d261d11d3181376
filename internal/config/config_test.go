package config

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	logtest "github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig_Defaults(t *testing.T) {
	for _, k := range []string{"APP_PORT", "DB_DRIVER", "SESSION_TTL", "DEFAULT_BALANCE", "ALLOW_NEGATIVE_BALANCE", "KAFKA_BROKERS", "KAFKA_TOPIC"} {
		t.Setenv(k, "")
	}
	cfg := LoadConfig()
	assert.Equal(t, "8080", cfg.AppPort)
	assert.Equal(t, "mysql", cfg.DBDriver)
	assert.Equal(t, 24*time.Hour, cfg.SessionTTL)
	assert.True(t, cfg.DefaultBalance.IsZero())
	assert.True(t, cfg.AllowNegativeBalance)
	assert.Empty(t, cfg.KafkaBrokers)
	assert.Equal(t, "investment_recorded", cfg.KafkaTopic)
}

func TestLoadConfig_Overrides(t *testing.T) {
	t.Setenv("DB_DRIVER", "Postgres")
	t.Setenv("SESSION_TTL", "30m")
	t.Setenv("DEFAULT_BALANCE", "100.0")
	t.Setenv("ALLOW_NEGATIVE_BALANCE", "false")
	t.Setenv("KAFKA_BROKERS", "k1:9092, k2:9092,")
	t.Setenv("LOGIN_RATE_BURST", "9")

	cfg := LoadConfig()
	assert.Equal(t, "postgres", cfg.DBDriver)
	assert.Equal(t, 30*time.Minute, cfg.SessionTTL)
	assert.True(t, cfg.DefaultBalance.Equal(decimal.NewFromInt(100)))
	assert.False(t, cfg.AllowNegativeBalance)
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.KafkaBrokers)
	assert.Equal(t, 9, cfg.LoginRateBurst)
}

func TestLoadConfig_UnparsableValuesWarn(t *testing.T) {
	hook := logtest.NewGlobal()
	t.Cleanup(hook.Reset)
	t.Setenv("ALLOW_NEGATIVE_BALANCE", "flase")
	t.Setenv("SESSION_TTL", "1 day")
	for _, k := range []string{"LOGIN_RATE_BURST", "LOGIN_RATE_LIMIT", "REDIS_DB", "DEFAULT_BALANCE"} {
		t.Setenv(k, "")
	}

	cfg := LoadConfig()
	assert.True(t, cfg.AllowNegativeBalance)
	assert.Equal(t, 24*time.Hour, cfg.SessionTTL)
	assert.Equal(t, 5, cfg.LoginRateBurst)

	warned := map[string]any{}
	for _, e := range hook.AllEntries() {
		if e.Level == logrus.WarnLevel {
			warned[e.Data["key"].(string)] = e.Data["value"]
		}
	}
	require.Len(t, warned, 2, "unset values are not reported")
	assert.Equal(t, "flase", warned["ALLOW_NEGATIVE_BALANCE"])
	assert.Equal(t, "1 day", warned["SESSION_TTL"])
}

func TestDSN(t *testing.T) {
	cfg := &Config{DBUser: "u", DBPassword: "p", DBHost: "h", DBPort: "3306", DBName: "n", DBPath: "x.db"}

	cfg.DBDriver = "mysql"
	assert.Equal(t, "u:p@tcp(h:3306)/n?parseTime=true", cfg.DSN())

	cfg.DBDriver = "postgres"
	cfg.DBPort = "5432"
	assert.Equal(t, "host=h port=5432 user=u password=p dbname=n sslmode=disable", cfg.DSN())

	cfg.DBDriver = "sqlite"
	assert.Equal(t, "x.db", cfg.DSN())
}
