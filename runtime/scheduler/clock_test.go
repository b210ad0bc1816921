package scheduler

import (
	"time"

	"github.com/viant/labflow/internal/clock"
)

func stubSleep(fn func(time.Duration)) func() {
	prev := clock.SleepFunc
	clock.SleepFunc = fn
	return func() { clock.SleepFunc = prev }
}
