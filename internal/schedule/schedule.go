// Package schedule decides when an endpoint's next check happens, either a
// fixed interval or a cron expression.
package schedule

import (
	"fmt"
	"strings"
	"time"

	"github.com/robfig/cron/v3"
)

// DefaultSchedule is used for endpoints that configure no schedule at all.
var DefaultSchedule = Schedule(IntervalSchedule{time.Minute})

type Schedule interface {
	cron.Schedule
	fmt.Stringer

	// NeedKickWhenStart reports whether a check should run right away when
	// the schedule starts, instead of waiting for the first Next time.
	NeedKickWhenStart() bool
}

// Parse reads a schedule spec, trying Go duration syntax first and cron
// syntax second.
func Parse(spec string) (Schedule, error) {
	if s, err := ParseInterval(spec); err == nil {
		return s, nil
	}

	return ParseCron(spec)
}

type IntervalSchedule struct {
	Interval time.Duration
}

// Every makes a fixed interval schedule.
func Every(d time.Duration) IntervalSchedule {
	return IntervalSchedule{d}
}

func ParseInterval(spec string) (IntervalSchedule, error) {
	d, err := time.ParseDuration(spec)
	if err != nil {
		return IntervalSchedule{}, err
	}
	if d <= 0 {
		return IntervalSchedule{}, fmt.Errorf("interval must be positive: %q", spec)
	}
	return IntervalSchedule{d}, nil
}

func (s IntervalSchedule) Next(t time.Time) time.Time {
	return t.Add(s.Interval)
}

func (s IntervalSchedule) String() string {
	return s.Interval.String()
}

func (s IntervalSchedule) NeedKickWhenStart() bool {
	return true
}

// cronParser accepts the crontab dialect with an optional day-of-week field.
var cronParser = cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.DowOptional)

// cronAliases maps crontab @ shorthands onto plain five-field specs.
var cronAliases = map[string]string{
	"@yearly":   "0 0 1 1 ?",
	"@annually": "0 0 1 1 ?",
	"@monthly":  "0 0 1 * ?",
	"@weekly":   "0 0 * * 0",
	"@daily":    "0 0 * * ?",
	"@hourly":   "0 * * * ?",
}

// normalizeCron expands @ aliases, collapses whitespace, and pads a
// four-field spec with a "?" day-of-week.
func normalizeCron(spec string) string {
	if alias, ok := cronAliases[spec]; ok {
		return alias
	}

	fields := strings.Fields(spec)
	if len(fields) == 4 {
		fields = append(fields, "?")
	}
	return strings.Join(fields, " ")
}

type CronSchedule struct {
	spec     string
	schedule cron.Schedule
}

func ParseCron(spec string) (CronSchedule, error) {
	normalized := normalizeCron(spec)

	parsed, err := cronParser.Parse(normalized)
	if err != nil {
		return CronSchedule{}, err
	}

	return CronSchedule{spec: normalized, schedule: parsed}, nil
}

func (s CronSchedule) Next(t time.Time) time.Time {
	return s.schedule.Next(t)
}

func (s CronSchedule) String() string {
	return s.spec
}

func (s CronSchedule) NeedKickWhenStart() bool {
	return false
}
