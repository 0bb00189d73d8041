package config

import (
	"os"
	"strconv"
	"time"
)

type LedgerConfig struct {
	MinInvestment      int64         // smallest accepted investment, won
	MaxInvestment      int64         // ceiling per investment call, won
	InvestmentUnit     int64         // amounts must be a multiple of this
	CancelWindow       time.Duration // refund eligibility window
	WonPerMileagePoint int64         // 1 point per this many won invested
	CheckInPoints      int64         // daily attendance reward
	StartingBalance    int64         // seeded on account creation
	RechargeFee        int64         // fee below the free threshold
	RechargeFreeFrom   int64         // recharges at or above this are fee-free
	SettlementDelay    time.Duration // pending refunds settle after this
}

func LoadLedgerConfig() *LedgerConfig {
	return &LedgerConfig{
		MinInvestment:      getEnvAsInt64("LEDGER_MIN_INVESTMENT", 10_000),
		MaxInvestment:      getEnvAsInt64("LEDGER_MAX_INVESTMENT", 10_000_000),
		InvestmentUnit:     getEnvAsInt64("LEDGER_INVESTMENT_UNIT", 10_000),
		CancelWindow:       getEnvAsDuration("LEDGER_CANCEL_WINDOW", 24*time.Hour),
		WonPerMileagePoint: getEnvAsInt64("LEDGER_WON_PER_MILEAGE_POINT", 1_000),
		CheckInPoints:      getEnvAsInt64("LEDGER_CHECKIN_POINTS", 5),
		StartingBalance:    getEnvAsInt64("LEDGER_STARTING_BALANCE", 1_000_000),
		RechargeFee:        getEnvAsInt64("LEDGER_RECHARGE_FEE", 1_000),
		RechargeFreeFrom:   getEnvAsInt64("LEDGER_RECHARGE_FREE_FROM", 50_000),
		SettlementDelay:    getEnvAsDuration("LEDGER_SETTLEMENT_DELAY", 1*time.Hour),
	}
}

func getEnvAsInt64(key string, defaultVal int64) int64 {
	if val := os.Getenv(key); val != "" {
		if intVal, err := strconv.ParseInt(val, 10, 64); err == nil {
			return intVal
		}
	}
	return defaultVal
}

func getEnvAsDuration(key string, defaultVal time.Duration) time.Duration {
	if val := os.Getenv(key); val != "" {
		if duration, err := time.ParseDuration(val); err == nil {
			return duration
		}
	}
	return defaultVal
}
