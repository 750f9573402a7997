package chrono

import (
	"fmt"
	"telenetapi/internal/telemetry"

	"github.com/robfig/cron/v3"
)

// CronAPI is the interface that anything depending on things to happen on a cron job should use.
type CronAPI interface {
	Cron(spec string, callback func()) error
	// CronNow schedules callback like Cron and also runs it once right away, the
	// immediate run counts as a run of the job so a tick firing meanwhile is skipped.
	CronNow(spec string, callback func()) error
	Stop()
}

// StandardCron is the standard implementation of CronAPI using `github.com/robfig/cron/v3`
type StandardCron struct {
	cron  *cron.Cron
	chain cron.Chain
}

// NewStandardCron is the constructor of StandardCron, runs of a job never overlap: a tick
// that fires while the previous run is still going is skipped.
func NewStandardCron(tel telemetry.API) StandardCron {
	logger := cronLogger{tel: tel}
	cronner := cron.New(
		cron.WithLogger(logger),
		cron.WithLocation(brussels),
	)
	cronner.Start()

	return StandardCron{
		cron:  cronner,
		chain: cron.NewChain(cron.SkipIfStillRunning(logger)),
	}
}

func (s StandardCron) Cron(spec string, callback func()) error {
	_, err := s.cron.AddJob(spec, s.chain.Then(cron.FuncJob(callback)))
	return err
}

func (s StandardCron) CronNow(spec string, callback func()) error {
	job := s.chain.Then(cron.FuncJob(callback))
	_, err := s.cron.AddJob(spec, job)
	if err != nil {
		return err
	}
	job.Run()
	return nil
}

func (s StandardCron) Stop() {
	<-s.cron.Stop().Done()
}

type cronLogger struct {
	tel telemetry.API
}

func (l cronLogger) formatParams(keysAndValues []any) []any {
	params := []any{}
	for i := 0; i+1 < len(keysAndValues); i += 2 {
		params = append(params, fmt.Sprintf("%v: %v", keysAndValues[i], keysAndValues[i+1]))
	}
	return params
}

func (l cronLogger) Info(msg string, keysAndValues ...any) {
	l.tel.ReportDebug(
		fmt.Sprintf("cron: %s", msg),
		l.formatParams(keysAndValues)...,
	)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...any) {
	l.tel.ReportBroken(
		"cron",
		fmt.Errorf("%s: %w", msg, err),
		l.formatParams(keysAndValues),
	)
}
