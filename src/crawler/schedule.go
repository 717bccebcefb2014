package crawler

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"

	"buildtrend/src/logger"
)

// cronLogger routes cron's own messages through a logger.Logger.
type cronLogger struct {
	log logger.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.log.Debug("[Scheduler] %s %v", msg, keysAndValues)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.log.Error("[Scheduler] %s: %v %v", msg, err, keysAndValues)
}

// Scheduler reruns a job on a cron schedule. A tick that arrives while the
// previous run is still going is skipped.
type Scheduler struct {
	cron *cron.Cron
	log  logger.Logger
}

// NewScheduler creates a Scheduler evaluating specs in loc (nil means time.Local).
func NewScheduler(log logger.Logger, loc *time.Location) *Scheduler {
	if log == nil {
		log = logger.NewSilentLogger()
	}
	if loc == nil {
		loc = time.Local
	}
	cl := cronLogger{log: log}
	return &Scheduler{
		cron: cron.New(
			cron.WithLocation(loc),
			cron.WithLogger(cl),
			cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl)),
		),
		log: log,
	}
}

// ValidateSchedule checks a standard cron spec or descriptor such as "@every 6h".
func ValidateSchedule(spec string) error {
	if _, err := cron.ParseStandard(spec); err != nil {
		return fmt.Errorf("invalid schedule %q: %w", spec, err)
	}
	return nil
}

// Run calls job on every tick of spec until ctx is cancelled, then waits for
// a running job to return. When immediate is set job also runs once at start.
func (s *Scheduler) Run(ctx context.Context, spec string, immediate bool, job func(context.Context)) error {
	if err := ValidateSchedule(spec); err != nil {
		return err
	}

	id, err := s.cron.AddFunc(spec, func() { job(ctx) })
	if err != nil {
		return fmt.Errorf("failed to schedule job: %w", err)
	}

	s.cron.Start()
	s.log.Info("[Scheduler] Running on %q, next at %s", spec, s.cron.Entry(id).Next.Format(time.RFC3339))

	if immediate {
		s.cron.Entry(id).WrappedJob.Run()
	}

	<-ctx.Done()
	<-s.cron.Stop().Done()
	s.log.Info("[Scheduler] Stopped")
	return nil
}
