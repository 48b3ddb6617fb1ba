package workitem

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/lthibault/jitterbug/v2"
	api "github.com/xiaodongliang/design.automation-.net-custom.activity.sample/api/v1alpha1"
	"github.com/xiaodongliang/design.automation-.net-custom.activity.sample/pkg/metrics"
	"go.uber.org/zap"
)

const DefaultPollInterval = 2 * time.Second

var (
	ErrPollLimitExceeded = errors.New("work item did not finish within the allowed number of status checks")
	ErrOutputNotFound    = errors.New("output argument not found")
	ErrInvalidSubmission = errors.New("invalid work item submission")
)

// API is the part of the service client the work item flow needs.
type API interface {
	CreateWorkItem(ctx context.Context, wi *api.WorkItem) (*api.WorkItem, error)
	GetWorkItemStatus(ctx context.Context, id string) (api.ExecutionStatus, error)
	GetWorkItem(ctx context.Context, id string) (*api.WorkItem, error)
}

// Handle identifies a submitted work item.
type Handle struct {
	ID         string
	ActivityID string
}

// StatusObserver is called after every status check with the 1-based attempt number.
type StatusObserver func(attempt int, status api.ExecutionStatus)

type Option func(s *Service)

func WithPollInterval(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.interval = d
		}
	}
}

// WithMaxAttempts bounds the number of status checks. Zero keeps polling until the
// work item finishes.
func WithMaxAttempts(n int) Option {
	return func(s *Service) {
		s.maxAttempts = n
	}
}

// WithJitter spreads status checks around the interval with the given standard
// deviation. A draw is never shorter than half the interval.
func WithJitter(stdev time.Duration) Option {
	return func(s *Service) {
		s.jitter = stdev
	}
}

func WithStatusObserver(fn StatusObserver) Option {
	return func(s *Service) {
		s.observer = fn
	}
}

// Service submits work items and waits for them to finish. It handles one work item
// per call and never retries.
type Service struct {
	api         API
	interval    time.Duration
	maxAttempts int
	jitter      time.Duration
	observer    StatusObserver
}

func NewService(api API, opts ...Option) *Service {
	s := &Service{
		api:      api,
		interval: DefaultPollInterval,
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Submit creates the work item. The id sent to the service is always empty: the
// service assigns it.
func (s *Service) Submit(ctx context.Context, activityID string, inputs, outputs []api.Argument) (*Handle, error) {
	if activityID == "" {
		return nil, fmt.Errorf("%w: activity id is required", ErrInvalidSubmission)
	}
	if len(inputs) == 0 {
		return nil, fmt.Errorf("%w: at least one input argument is required", ErrInvalidSubmission)
	}
	if len(outputs) == 0 {
		return nil, fmt.Errorf("%w: at least one output argument is required", ErrInvalidSubmission)
	}

	wi := &api.WorkItem{
		Id:         "",
		ActivityId: activityID,
		Arguments: api.Arguments{
			InputArguments:  append([]api.Argument(nil), inputs...),
			OutputArguments: append([]api.Argument(nil), outputs...),
		},
	}

	created, err := s.api.CreateWorkItem(ctx, wi)
	if err != nil {
		return nil, fmt.Errorf("submitting work item: %w", err)
	}

	metrics.IncreaseWorkItemsSubmittedMetric(activityID)
	zap.S().Named("workitem").Infow("work item submitted", "id", created.Id, "activity", activityID)
	return &Handle{ID: created.Id, ActivityID: activityID}, nil
}

// Poll sleeps one interval, fetches the status, and repeats while the work item is
// Pending or InProgress. The sleep starts after the previous fetch returned. The
// first other status is returned as is: success and failure both end the loop.
// Without a deadline on ctx and WithMaxAttempts, Poll waits as long as the service
// keeps the work item queued.
func (s *Service) Poll(ctx context.Context, h *Handle) (api.ExecutionStatus, error) {
	jitter := jitterbug.Norm{Stdev: s.jitter}

	logger := zap.S().Named("workitem").With("id", h.ID)
	start := time.Now()
	for attempt := 1; ; attempt++ {
		if s.maxAttempts > 0 && attempt > s.maxAttempts {
			return "", fmt.Errorf("work item %s: %w (%d)", h.ID, ErrPollLimitExceeded, s.maxAttempts)
		}

		delay := s.delay(jitter)
		logger.Debugf("sleeping for %s", delay)
		if err := sleep(ctx, delay); err != nil {
			return "", err
		}

		status, err := s.api.GetWorkItemStatus(ctx, h.ID)
		if err != nil {
			return "", fmt.Errorf("polling work item %s: %w", h.ID, err)
		}
		logger.Infow("work item status", "status", status, "attempt", attempt)
		metrics.IncreaseStatusChecksMetric(status.String())
		if s.observer != nil {
			s.observer(attempt, status)
		}

		if status.IsTerminal() {
			if !status.IsKnown() {
				logger.Warnw("work item ended with an unknown status", "status", status)
			}
			metrics.ObserveWorkItemFinished(status.String(), time.Since(start))
			return status, nil
		}
	}
}

// delay never goes below half the interval, whatever the jitter draws.
func (s *Service) delay(j jitterbug.Jitter) time.Duration {
	d := j.Jitter(s.interval)
	if floor := s.interval / 2; d < floor {
		return floor
	}
	return d
}

func sleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// Outputs is the final record of a work item reduced to what callers download.
type Outputs struct {
	Status    api.ExecutionStatus
	Report    string
	resources map[string]string
}

// Locator returns the resource of the named output argument.
func (o *Outputs) Locator(name string) (string, error) {
	res, ok := o.resources[name]
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrOutputNotFound, name)
	}
	return res, nil
}

func (o *Outputs) Names() []string {
	names := make([]string, 0, len(o.resources))
	for n := range o.resources {
		names = append(names, n)
	}
	return names
}

// ResolveOutputs re-reads the full work item so the locators filled in by the service
// replace whatever was known at submission time.
func (s *Service) ResolveOutputs(ctx context.Context, h *Handle) (*Outputs, error) {
	wi, err := s.api.GetWorkItem(ctx, h.ID)
	if err != nil {
		return nil, fmt.Errorf("resolving outputs of work item %s: %w", h.ID, err)
	}

	out := &Outputs{
		Status:    wi.Status,
		Report:    wi.Report(),
		resources: make(map[string]string, len(wi.Arguments.OutputArguments)),
	}
	for _, a := range wi.Arguments.OutputArguments {
		if res, ok := wi.OutputResource(a.Name); ok {
			out.resources[a.Name] = res
		}
	}
	return out, nil
}

// Run submits, waits for completion and resolves outputs.
func (s *Service) Run(ctx context.Context, activityID string, inputs, outputs []api.Argument) (*Handle, *Outputs, error) {
	h, err := s.Submit(ctx, activityID, inputs, outputs)
	if err != nil {
		return nil, nil, err
	}
	if _, err := s.Poll(ctx, h); err != nil {
		return h, nil, err
	}
	out, err := s.ResolveOutputs(ctx, h)
	if err != nil {
		return h, nil, err
	}
	return h, out, nil
}
