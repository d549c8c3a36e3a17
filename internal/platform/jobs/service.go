package jobs

import (
	"context"
	"log/slog"
	"time"

	"github.com/goccy/go-json"
	"github.com/robfig/cron/v3"

	"dayflow/internal/platform/querier"
)

const JobAbsenceSweep = "attendance_absence_sweep"

type RunFunc func(context.Context) (any, error)

// Service runs named jobs on cron schedules and records every run in
// job_runs.
type Service struct {
	DB   querier.Querier
	cron *cron.Cron
	ctx  context.Context
	stop context.CancelFunc
}

// New builds a scheduler whose specs are read in loc, the company
// timezone, so "01:00" means the same night the jobs compute dates for.
func New(db querier.Querier, loc *time.Location) *Service {
	if loc == nil {
		loc = time.UTC
	}
	ctx, stop := context.WithCancel(context.Background())
	return &Service{
		DB: db,
		cron: cron.New(
			cron.WithLocation(loc),
			cron.WithChain(cron.SkipIfStillRunning(cron.DefaultLogger)),
		),
		ctx:  ctx,
		stop: stop,
	}
}

// Schedule registers run under a standard five-field cron spec. An empty
// spec leaves the job disabled.
func (s *Service) Schedule(spec, jobType string, run RunFunc) error {
	if spec == "" {
		return nil
	}
	_, err := s.cron.AddFunc(spec, func() {
		if _, err := s.runJob(s.ctx, jobType, run); err != nil {
			slog.Warn("job run failed", "jobType", jobType, "err", err)
		}
	})
	if err != nil {
		return err
	}
	slog.Info("job scheduled", "jobType", jobType, "spec", spec)
	return nil
}

func (s *Service) Location() *time.Location {
	return s.cron.Location()
}

func (s *Service) Start() {
	s.cron.Start()
}

// Stop cancels running jobs and waits for them to return.
func (s *Service) Stop() {
	s.stop()
	<-s.cron.Stop().Done()
}

func (s *Service) RunNow(ctx context.Context, jobType string, run RunFunc) (any, error) {
	return s.runJob(ctx, jobType, run)
}

func (s *Service) runJob(ctx context.Context, jobType string, run RunFunc) (any, error) {
	runID := ""
	if s.DB != nil {
		if err := s.DB.QueryRow(ctx, `
      INSERT INTO job_runs (job_type, status)
      VALUES ($1, $2)
      RETURNING id
    `, jobType, "running").Scan(&runID); err != nil {
			slog.Warn("job run insert failed", "err", err)
		}
	}

	details, err := run(ctx)
	status := "completed"
	if err != nil {
		status = "failed"
		details = map[string]string{"error": err.Error()}
	}
	detailsJSON, marshalErr := json.Marshal(details)
	if marshalErr != nil {
		slog.Warn("job details marshal failed", "err", marshalErr)
		detailsJSON = []byte("{}")
	}
	if runID != "" {
		if _, updErr := s.DB.Exec(ctx, `
      UPDATE job_runs
      SET status = $1, details_json = $2, completed_at = now()
      WHERE id = $3
    `, status, detailsJSON, runID); updErr != nil {
			slog.Warn("job run update failed", "err", updErr)
		}
	}
	if err != nil {
		return nil, err
	}
	return details, nil
}
