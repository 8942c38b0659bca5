package safety

import (
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"openlinkedin/internal/core"
)

// Window lengths for the three limiters.
const (
	hourlyWindow = time.Hour
	dailyWindow  = 24 * time.Hour
	weeklyWindow = 7 * 24 * time.Hour
)

// Config holds the monitor's limits. Defaults mirror Default().
type Config struct {
	HourlyLimit        int
	DailyLimit         int
	WeeklyLimit        int
	ErrorRateThreshold float64
	ErrorWindowSeconds int
	CooldownMinutes    int
}

// Default returns the stock limits: 8/hour, 30/day, 150/week, 30% error rate
// over the last hour, 30 minute cooldown.
func Default() Config {
	return Config{
		HourlyLimit:        8,
		DailyLimit:         30,
		WeeklyLimit:        150,
		ErrorRateThreshold: 0.3,
		ErrorWindowSeconds: 3600,
		CooldownMinutes:    30,
	}
}

// Validate fails fast on limits that would make the monitor meaningless.
func (c Config) Validate() error {
	if c.HourlyLimit <= 0 || c.DailyLimit <= 0 || c.WeeklyLimit <= 0 {
		return fmt.Errorf("safety: action limits must be positive (hourly=%d daily=%d weekly=%d)",
			c.HourlyLimit, c.DailyLimit, c.WeeklyLimit)
	}
	if c.ErrorRateThreshold < 0 || c.ErrorRateThreshold > 1 {
		return fmt.Errorf("safety: error rate threshold %v outside [0,1]", c.ErrorRateThreshold)
	}
	if c.ErrorWindowSeconds <= 0 {
		return fmt.Errorf("safety: error window must be positive, got %d", c.ErrorWindowSeconds)
	}
	if c.CooldownMinutes < 0 {
		return fmt.Errorf("safety: cooldown must not be negative, got %d", c.CooldownMinutes)
	}
	return nil
}

// Monitor combines three sliding-window rate limiters with an error-rate
// circuit breaker. All state lives behind a single mutex; every public method
// takes and releases it. Both successes and errors consume window slots: a
// failed attempt still cost a request against the account.
type Monitor struct {
	cfg Config

	mu            sync.Mutex
	hourly        *RateWindow
	daily         *RateWindow
	weekly        *RateWindow
	successes     []time.Time
	errors        []time.Time
	cooldownUntil time.Time
	now           func() time.Time
}

// NewMonitor creates a monitor with the given limits.
func NewMonitor(cfg Config) (*Monitor, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Monitor{
		cfg:    cfg,
		hourly: NewRateWindow(cfg.HourlyLimit, hourlyWindow),
		daily:  NewRateWindow(cfg.DailyLimit, dailyWindow),
		weekly: NewRateWindow(cfg.WeeklyLimit, weeklyWindow),
		now:    func() time.Time { return time.Now().UTC() },
	}, nil
}

// SetClock replaces the monitor's clock. Intended for tests.
func (m *Monitor) SetClock(now func() time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.now = now
}

// CanAct reports whether an external action may proceed right now. When the
// observed error rate crosses the threshold the monitor enters cooldown as a
// side effect, and keeps refusing until the cooldown elapses.
func (m *Monitor) CanAct() bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	if now.Before(m.cooldownUntil) {
		log.Warn().Time("cooldown_until", m.cooldownUntil).Msg("safety: in cooldown")
		return false
	}
	if !m.hourly.CanAct(now) {
		log.Warn().Msg("safety: hourly limit reached")
		return false
	}
	if !m.daily.CanAct(now) {
		log.Warn().Msg("safety: daily limit reached")
		return false
	}
	if !m.weekly.CanAct(now) {
		log.Warn().Msg("safety: weekly limit reached")
		return false
	}

	if rate := m.errorRate(now); rate > m.cfg.ErrorRateThreshold {
		m.cooldownUntil = now.Add(time.Duration(m.cfg.CooldownMinutes) * time.Minute)
		log.Warn().
			Float64("error_rate", rate).
			Float64("threshold", m.cfg.ErrorRateThreshold).
			Time("cooldown_until", m.cooldownUntil).
			Msg("safety: error rate tripped, entering cooldown")
		return false
	}
	return true
}

// RecordAction records a successful external action against all windows.
func (m *Monitor) RecordAction() {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := m.now()
	m.record(now)
	m.successes = append(m.successes, now)
}

// RecordError records a failed external action. It consumes a slot in every
// window and feeds the error-rate circuit.
func (m *Monitor) RecordError() {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := m.now()
	m.record(now)
	m.errors = append(m.errors, now)
}

func (m *Monitor) record(now time.Time) {
	m.hourly.Record(now)
	m.daily.Record(now)
	m.weekly.Record(now)
}

// Stats returns a snapshot of remaining capacity and circuit state.
func (m *Monitor) Stats() core.SafetyStats {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := m.now()
	return core.SafetyStats{
		HourlyRemaining: m.hourly.Remaining(now),
		DailyRemaining:  m.daily.Remaining(now),
		WeeklyRemaining: m.weekly.Remaining(now),
		ErrorRate:       math.Round(m.errorRate(now)*1000) / 1000,
		InCooldown:      now.Before(m.cooldownUntil),
	}
}

// errorRate computes errors/(errors+successes) over the error window, pruning
// both lists in place. Caller must hold the mutex.
func (m *Monitor) errorRate(now time.Time) float64 {
	cutoff := now.Add(-time.Duration(m.cfg.ErrorWindowSeconds) * time.Second)
	m.errors = pruneBefore(m.errors, cutoff)
	m.successes = pruneBefore(m.successes, cutoff)
	total := len(m.errors) + len(m.successes)
	if total == 0 {
		return 0
	}
	return float64(len(m.errors)) / float64(total)
}

func pruneBefore(timestamps []time.Time, cutoff time.Time) []time.Time {
	kept := timestamps[:0]
	for _, t := range timestamps {
		if t.After(cutoff) {
			kept = append(kept, t)
		}
	}
	return kept
}
