package cronrunner

import (
	"context"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// Runner runs jobs on cron specs with a seconds field. A job still running when
// its next tick arrives is skipped, and a panicking job is logged and recovered.
type Runner struct {
	cron    *cron.Cron
	logger  *zap.Logger
	baseCtx context.Context
}

func New(logger *zap.Logger, baseCtx context.Context) *Runner {
	if baseCtx == nil {
		baseCtx = context.Background()
	}
	cl := cronLogger{l: logger}
	return &Runner{
		cron: cron.New(
			cron.WithSeconds(),
			cron.WithLogger(cl),
			cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl)),
		),
		logger:  logger,
		baseCtx: baseCtx,
	}
}

func (r *Runner) Add(spec string, job func(context.Context)) (cron.EntryID, error) {
	return r.cron.AddFunc(spec, func() {
		if r.baseCtx.Err() != nil {
			return
		}
		job(r.baseCtx)
	})
}

func (r *Runner) Start() {
	if r.logger != nil {
		r.logger.Info("cron started", zap.Int("entries", len(r.cron.Entries())))
	}
	r.cron.Start()
}

// Stop waits for running jobs to return.
func (r *Runner) Stop() {
	ctx := r.cron.Stop()
	<-ctx.Done()
	if r.logger != nil {
		r.logger.Info("cron stopped")
	}
}

type cronLogger struct {
	l *zap.Logger
}

func (c cronLogger) Info(msg string, keysAndValues ...interface{}) {
	if c.l == nil {
		return
	}
	c.l.Sugar().Debugw("cron: "+msg, keysAndValues...)
}

func (c cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	if c.l == nil {
		return
	}
	c.l.Sugar().Errorw("cron: "+msg, append(keysAndValues, "error", err)...)
}
