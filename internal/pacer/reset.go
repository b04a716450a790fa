package pacer

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"
)

var scheduleParser = cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)

// ParseSchedule parses a five field cron expression.
func ParseSchedule(expr string) (cron.Schedule, error) {
	schedule, err := scheduleParser.Parse(expr)
	if err != nil {
		return nil, fmt.Errorf("invalid reset schedule %q: %w", expr, err)
	}
	return schedule, nil
}

// ResetJob zeroes the daily counter on a cron schedule, in local time.
type ResetJob struct {
	cron     *cron.Cron
	schedule cron.Schedule
	budget   *Budget
	logger   *slog.Logger
}

func NewResetJob(expr string, budget *Budget, logger *slog.Logger) (*ResetJob, error) {
	schedule, err := ParseSchedule(expr)
	if err != nil {
		return nil, err
	}
	j := &ResetJob{
		cron:     cron.New(cron.WithParser(scheduleParser), cron.WithLocation(time.Local)),
		schedule: schedule,
		budget:   budget,
		logger:   logger,
	}
	j.cron.Schedule(schedule, cron.FuncJob(j.Run))
	return j, nil
}

// Run resets the budget once.
func (j *ResetJob) Run() {
	before := j.budget.Snapshot().SentToday
	if err := j.budget.Reset(); err != nil {
		j.logger.Error("daily counter reset, but saving failed", slog.String("error", err.Error()))
		return
	}
	j.logger.Info("daily email counter reset", slog.Int("previous", before))
}

// Next returns the first reset after t.
func (j *ResetJob) Next(t time.Time) time.Time {
	return j.schedule.Next(t)
}

// Start runs the scheduler in its own goroutine.
func (j *ResetJob) Start() {
	j.cron.Start()
}

// Stop halts the scheduler and waits for a running reset to finish or ctx to
// be done.
func (j *ResetJob) Stop(ctx context.Context) error {
	done := j.cron.Stop()
	select {
	case <-done.Done():
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
