package periodic

import (
	"fmt"
	"strings"
	"time"

	"github.com/robfig/cron/v3"
)

// ParseInterval parses a Go duration ("250ms", "1m30s") or a constant-delay
// cron descriptor ("@every 5m"). Descriptors go through cron.ParseStandard and
// share its rounding: sub-second parts are truncated, minimum one second.
// Calendar schedules such as "0 * * * *" are rejected since they have no fixed
// interval.
func ParseInterval(s string) (time.Duration, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, fmt.Errorf("%w: empty interval", ErrInvalidInterval)
	}

	if !strings.HasPrefix(s, "@") {
		d, err := time.ParseDuration(s)
		if err != nil {
			return 0, fmt.Errorf("%w: %w", ErrInvalidInterval, err)
		}
		if d <= 0 {
			return 0, fmt.Errorf("%w: %s is not positive", ErrInvalidInterval, d)
		}
		return d, nil
	}

	sched, err := cron.ParseStandard(s)
	if err != nil {
		return 0, fmt.Errorf("%w: %w", ErrInvalidInterval, err)
	}
	every, ok := sched.(cron.ConstantDelaySchedule)
	if !ok {
		return 0, fmt.Errorf("%w: %q is not a fixed interval", ErrInvalidInterval, s)
	}
	return every.Delay, nil
}
