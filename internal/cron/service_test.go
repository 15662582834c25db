package cron

import (
	"context"
	"errors"
	"io"
	"testing"

	"github.com/rs/zerolog"

	"github.com/rakapradana/pustaka-backend/pkg/logger"
)

type stubLock struct {
	acquired bool
	releases int
}

func (l *stubLock) Acquire(context.Context) (bool, error) {
	return l.acquired, nil
}

func (l *stubLock) Release(context.Context) error {
	l.releases++
	return nil
}

type countingJob struct {
	name string
	runs int
	err  error
}

func (j *countingJob) Name() string { return j.name }

func (j *countingJob) Run(context.Context) error {
	j.runs++
	return j.err
}

func newCronService(t *testing.T, lock Lock, jobs ...Job) *Service {
	t.Helper()

	svc, err := NewService(ServiceParams{
		Logger:   logger.New(logger.Options{ServiceName: "cron-test", Level: zerolog.ErrorLevel, Output: io.Discard}),
		Registry: NewRegistry(jobs...),
		Lock:     lock,
	})
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}
	return svc
}

func TestRunCycle_executesAllJobs(t *testing.T) {
	lock := &stubLock{acquired: true}
	first := &countingJob{name: "first"}
	failing := &countingJob{name: "failing", err: errors.New("boom")}
	last := &countingJob{name: "last"}

	svc := newCronService(t, lock, first, failing, last)
	if err := svc.runCycle(context.Background()); err != nil {
		t.Fatalf("runCycle: %v", err)
	}

	if first.runs != 1 || failing.runs != 1 || last.runs != 1 {
		t.Fatalf("expected every job to run once, got %d %d %d", first.runs, failing.runs, last.runs)
	}
	if lock.releases != 1 {
		t.Fatalf("expected lock release, got %d", lock.releases)
	}
}

func TestRunCycle_skipsWithoutLock(t *testing.T) {
	lock := &stubLock{acquired: false}
	job := &countingJob{name: "skipped"}

	svc := newCronService(t, lock, job)
	if err := svc.runCycle(context.Background()); err != nil {
		t.Fatalf("runCycle: %v", err)
	}

	if job.runs != 0 {
		t.Fatalf("expected no runs while another instance holds the lock, got %d", job.runs)
	}
	if lock.releases != 0 {
		t.Fatalf("lock must not be released when it was never acquired, got %d", lock.releases)
	}
}
