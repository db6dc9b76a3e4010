package usecase

import "time"

const (
	// maxCodeLength matches the width of otp_records.code.
	maxCodeLength = 12
	minCodeLength = 4

	// minRetention keeps every record the identity daily count can still see.
	minRetention = 24 * time.Hour
)

type settings struct {
	appName string

	codeLength  int
	ttl         time.Duration
	maxAttempts int

	minGap     time.Duration
	maxPerHour int
	maxPerDay  int

	sourceWindow      time.Duration
	sourceWindowMax   int
	sourceDailyMax    int
	repositoryTimeout time.Duration
	deliveryTimeout   time.Duration
	lockTimeout       time.Duration
	retention         time.Duration
}

// settings is read on every call so a config reload takes effect without restart.
func (s *Usecase) settings() settings {
	return settings{
		appName: orString(s.cfg.GetString("app.name"), "App"),

		codeLength:  min(max(orInt(s.cfg.GetInt("modules.otp.length"), 6), minCodeLength), maxCodeLength),
		ttl:         orDuration(s.cfg.GetMinute("modules.otp.ttl_minutes"), 10*time.Minute),
		maxAttempts: orInt(s.cfg.GetInt("modules.otp.max_attempts"), 5),

		minGap:     orDuration(s.cfg.GetSecond("modules.otp.gate.min_gap_seconds"), 60*time.Second),
		maxPerHour: orInt(s.cfg.GetInt("modules.otp.gate.max_per_hour"), 5),
		maxPerDay:  orInt(s.cfg.GetInt("modules.otp.gate.max_per_day"), 10),

		sourceWindow:      orDuration(s.cfg.GetMinute("modules.otp.source.window_minutes"), 10*time.Minute),
		sourceWindowMax:   orInt(s.cfg.GetInt("modules.otp.source.window_max"), 3),
		sourceDailyMax:    orInt(s.cfg.GetInt("modules.otp.source.daily_max"), 10),
		repositoryTimeout: orDuration(s.cfg.GetSecond("modules.otp.repository_timeout_seconds"), 5*time.Second),
		deliveryTimeout:   orDuration(s.cfg.GetSecond("modules.otp.delivery_timeout_seconds"), 10*time.Second),
		lockTimeout:       orDuration(s.cfg.GetSecond("modules.otp.lock_timeout_seconds"), 5*time.Second),
		retention:         max(orDuration(s.cfg.GetHour("modules.otp.retention_hours"), minRetention), minRetention),
	}
}

func orInt(v, def int) int {
	if v <= 0 {
		return def
	}
	return v
}

func orDuration(v, def time.Duration) time.Duration {
	if v <= 0 {
		return def
	}
	return v
}

func orString(v, def string) string {
	if v == "" {
		return def
	}
	return v
}
