package scheduler

import (
	"context"
	"fmt"
	"runtime/debug"
	"strings"
	"time"

	"github.com/robfig/cron/v3"

	logx "ctfnotice/pkg/logx"
)

func New(cfg Config, log logx.Logger) *Service {
	if log.IsZero() {
		log = logx.Nop()
	}
	return &Service{
		cfg: cfg,
		log: log,
		// SecondOptional allows both 5-field and 6-field (with seconds) cron specs.
		parser: cron.NewParser(cron.SecondOptional | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor),
	}
}

// Register adds a recurring job. The spec accepts cron expressions,
// Go durations, or HH:MM intervals (see ParseSchedule). Must be called
// before Start; registration after Start is not supported.
func (s *Service) Register(id, name, spec string, timeout time.Duration, job func(ctx context.Context) error) error {
	parsed, err := ParseSchedule(spec)
	if err != nil {
		return err
	}
	cronSpec := parsed.Cron
	if parsed.Kind == SpecInterval {
		cronSpec = "@every " + parsed.Every.String()
	}
	// Validate eagerly so a bad config fails at startup, not at first tick.
	if _, err := s.parser.Parse(cronSpec); err != nil {
		return fmt.Errorf("invalid schedule %q: %w", spec, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for _, d := range s.defs {
		if d.id == id {
			return fmt.Errorf("duplicate schedule id %q", id)
		}
	}
	s.defs = append(s.defs, jobDef{
		id:      id,
		name:    name,
		spec:    cronSpec,
		timeout: timeout,
		job:     job,
		state:   &runState{},
	})
	return nil
}

func (s *Service) Start(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stopCh != nil {
		return
	}
	if !s.cfg.Enabled {
		s.log.Info("scheduler disabled")
		return
	}
	s.stopCh = make(chan struct{})
	s.runCtx, s.runCancel = context.WithCancel(ctx)

	workers := s.cfg.Workers
	if workers <= 0 {
		workers = 2
	}
	// Fresh queue per run so stale enqueued tasks from a previous run never execute.
	s.queue = make(chan task, 64)

	loc := s.loadLocationLocked()
	s.loc = loc
	s.c = cron.New(cron.WithParser(s.parser), cron.WithLocation(loc))
	for i := range s.defs {
		s.addCronLocked(&s.defs[i])
	}

	runCtx := s.runCtx
	stopCh := s.stopCh
	queue := s.queue

	s.workerWG.Add(workers)
	for i := 0; i < workers; i++ {
		idx := i
		go func() {
			defer s.workerWG.Done()
			defer func() {
				if r := recover(); r != nil {
					s.log.Error("panic in scheduler worker",
						logx.Int("worker", idx),
						logx.Any("panic", r),
						logx.String("stack", string(debug.Stack())),
					)
				}
			}()
			s.worker(runCtx, stopCh, queue)
		}()
	}
	s.c.Start()
	s.log.Info("scheduler started",
		logx.Int("workers", workers),
		logx.String("tz", loc.String()),
		logx.Int("schedules", len(s.defs)),
	)
}

func (s *Service) Stop(ctx context.Context) {
	s.mu.Lock()
	if s.stopCh == nil {
		s.mu.Unlock()
		return
	}
	stopCh := s.stopCh
	cancel := s.runCancel
	c := s.c
	s.c = nil
	s.stopCh = nil
	s.queue = nil
	s.runCtx = nil
	s.runCancel = nil
	s.mu.Unlock()

	close(stopCh)
	if cancel != nil {
		cancel()
	}
	if c != nil {
		<-c.Stop().Done()
	}

	done := make(chan struct{})
	go func() {
		s.workerWG.Wait()
		close(done)
	}()
	select {
	case <-done:
		s.log.Info("scheduler stopped")
	case <-ctx.Done():
		s.log.Warn("scheduler stop timed out; workers finishing in background")
	}
}

// Jobs returns the registered schedules with their next/prev run times.
func (s *Service) Jobs() []JobInfo {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]JobInfo, 0, len(s.defs))
	for _, d := range s.defs {
		info := JobInfo{ID: d.id, Name: d.name, Spec: d.spec, Timeout: d.timeout}
		if s.c != nil && d.entryID != 0 {
			e := s.c.Entry(d.entryID)
			info.Next, info.Prev = e.Next, e.Prev
		}
		out = append(out, info)
	}
	return out
}

// History returns a copy of the recent run history, oldest first.
func (s *Service) History() []HistoryItem {
	s.hmu.Lock()
	defer s.hmu.Unlock()
	out := make([]HistoryItem, len(s.history))
	copy(out, s.history)
	return out
}

func (s *Service) addCronLocked(d *jobDef) {
	def := *d
	id, err := s.c.AddFunc(def.spec, func() {
		// Skip if a previous run of the same job is still executing.
		def.state.mu.Lock()
		busy := def.state.running
		def.state.mu.Unlock()
		if busy {
			s.log.Debug("schedule skipped; previous run still active", logx.String("job", def.name))
			return
		}
		s.enqueue(task{
			id:      def.id,
			name:    def.name,
			timeout: def.timeout,
			run:     def.job,
			state:   def.state,
		})
	})
	if err != nil {
		// Register validated the spec already; keep going without this entry.
		s.log.Error("failed to add cron entry", logx.String("job", def.name), logx.Err(err))
		return
	}
	d.entryID = id
}

func (s *Service) loadLocationLocked() *time.Location {
	tz := strings.TrimSpace(s.cfg.Timezone)
	if tz == "" {
		return time.Local
	}
	loc, err := time.LoadLocation(tz)
	if err != nil {
		s.log.Warn("invalid timezone; falling back to local", logx.String("tz", tz), logx.Err(err))
		return time.Local
	}
	return loc
}
