// cmd/worker-manager/workers.go
package main

import (
	"context"

	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
	"github.com/camunda/zeebe/clients/go/v8/pkg/zbc"

	"advisor-match-workers/internal/common/auth"
	"advisor-match-workers/internal/common/camunda"
	"advisor-match-workers/internal/common/config"
	"advisor-match-workers/internal/common/logger"
	"advisor-match-workers/internal/common/observability"
	"advisor-match-workers/internal/models"
	"advisor-match-workers/internal/search"
	"advisor-match-workers/internal/store"

	// Account Workers (3)
	ulogin "advisor-match-workers/internal/workers/auth/user-login"
	ulogout "advisor-match-workers/internal/workers/auth/user-logout"
	ureg "advisor-match-workers/internal/workers/auth/user-register"

	// Profile Workers (3)
	cadv "advisor-match-workers/internal/workers/profile/complete-advisor-profile"
	cstu "advisor-match-workers/internal/workers/profile/complete-student-profile"
	uaa "advisor-match-workers/internal/workers/profile/update-advisor-availability"

	// Matching Workers (3)
	fm "advisor-match-workers/internal/workers/matching/find-match"
	rm "advisor-match-workers/internal/workers/matching/review-match"
	rbm "advisor-match-workers/internal/workers/matching/run-batch-match"

	// Read-side Workers (3)
	ad "advisor-match-workers/internal/workers/dashboards/advisor-dashboard"
	sd "advisor-match-workers/internal/workers/dashboards/student-dashboard"
	sa "advisor-match-workers/internal/workers/directory/search-advisors"

	// Communication Workers (1)
	smn "advisor-match-workers/internal/workers/communication/send-match-notification"
)

// advisorDirectory is what the workers need from the Elasticsearch directory.
type advisorDirectory interface {
	IndexAdvisor(ctx context.Context, p models.AdvisorProfile) error
	SearchAdvisors(ctx context.Context, q search.AdvisorQuery, defaultSize int) (*search.SearchResult, error)
}

type dependencies struct {
	cfg       *config.Config
	store     *store.Store
	locker    *store.Locker
	sessions  *auth.SessionManager
	directory *search.Directory
	email     smn.EmailSender
	sms       smn.SMSSender
	obs       *observability.Observability
	log       logger.Logger
}

// advisors returns the directory as an interface, nil when Elasticsearch is unavailable,
// so workers see a true nil rather than a typed nil pointer.
func (d *dependencies) advisors() advisorDirectory {
	if d.directory == nil {
		return nil
	}
	return d.directory
}

func (d *dependencies) worker(taskType string) config.WorkerConfig {
	return config.GetWorkerConfig(d.cfg, taskType)
}

// registerWorkers builds every handler and opens a job worker for the enabled ones.
func registerWorkers(client zbc.Client, d *dependencies) []worker.JobWorker {
	cfg := d.cfg
	var opened []worker.JobWorker
	start := func(taskType string, handler worker.JobHandler) {
		if jw := camunda.StartWorker(client, taskType, d.worker(taskType), handler, d.log); jw != nil {
			opened = append(opened, jw)
		}
	}

	// --- 1. Account Workers ---
	if wc := d.worker(ureg.TaskType); wc.Enabled {
		h := ureg.NewHandler(&ureg.Config{
			Timeout:         config.GetDuration(wc.Timeout),
			BcryptCost:      cfg.Auth.BcryptCost,
			MinPasswordLen:  cfg.Auth.MinPasswordLen,
			AdvisorCapacity: cfg.Matching.DefaultAdvisorCapacity,
		}, d.store, d.sessions, d.obs, d.log)
		start(ureg.TaskType, h.Handle)
	}

	if wc := d.worker(ulogin.TaskType); wc.Enabled {
		h := ulogin.NewHandler(&ulogin.Config{Timeout: config.GetDuration(wc.Timeout)}, d.store, d.sessions, d.obs, d.log)
		start(ulogin.TaskType, h.Handle)
	}

	if wc := d.worker(ulogout.TaskType); wc.Enabled {
		h := ulogout.NewHandler(&ulogout.Config{Timeout: config.GetDuration(wc.Timeout)}, d.sessions, d.obs, d.log)
		start(ulogout.TaskType, h.Handle)
	}

	// --- 2. Profile Workers ---
	if wc := d.worker(cstu.TaskType); wc.Enabled {
		c := cstu.DefaultConfig()
		c.Timeout = config.GetDuration(wc.Timeout)
		start(cstu.TaskType, cstu.NewHandler(c, d.store, d.obs, d.log).Handle)
	}

	if wc := d.worker(cadv.TaskType); wc.Enabled {
		c := cadv.DefaultConfig()
		c.Timeout = config.GetDuration(wc.Timeout)
		start(cadv.TaskType, cadv.NewHandler(c, d.store, d.advisors(), d.obs, d.log).Handle)
	}

	if wc := d.worker(uaa.TaskType); wc.Enabled {
		c := uaa.DefaultConfig()
		c.Timeout = config.GetDuration(wc.Timeout)
		start(uaa.TaskType, uaa.NewHandler(c, d.store, d.advisors(), d.obs, d.log).Handle)
	}

	// --- 3. Matching Workers ---
	if wc := d.worker(fm.TaskType); wc.Enabled {
		c := &fm.Config{Timeout: config.GetDuration(wc.Timeout)}
		start(fm.TaskType, fm.NewHandler(c, d.store, d.locker, d.advisors(), d.obs, d.log).Handle)
	}

	if wc := d.worker(rbm.TaskType); wc.Enabled {
		c := rbm.DefaultConfig()
		c.Timeout = config.GetDuration(wc.Timeout)
		c.MaxBatchSize = cfg.Matching.MaxBatchSize
		start(rbm.TaskType, rbm.NewHandler(c, d.store, d.locker, d.advisors(), d.obs, d.log).Handle)
	}

	if wc := d.worker(rm.TaskType); wc.Enabled {
		c := &rm.Config{Timeout: config.GetDuration(wc.Timeout)}
		start(rm.TaskType, rm.NewHandler(c, d.store, d.advisors(), d.obs, d.log).Handle)
	}

	// --- 4. Read-side Workers ---
	if wc := d.worker(sd.TaskType); wc.Enabled {
		c := sd.DefaultConfig()
		c.Timeout = config.GetDuration(wc.Timeout)
		start(sd.TaskType, sd.NewHandler(c, d.store, d.obs, d.log).Handle)
	}

	if wc := d.worker(ad.TaskType); wc.Enabled {
		c := &ad.Config{Timeout: config.GetDuration(wc.Timeout)}
		start(ad.TaskType, ad.NewHandler(c, d.store, d.obs, d.log).Handle)
	}

	if wc := d.worker(sa.TaskType); wc.Enabled {
		c := sa.DefaultConfig()
		c.Timeout = config.GetDuration(wc.Timeout)
		c.DefaultSize = cfg.Search.MaxResults
		start(sa.TaskType, sa.NewHandler(c, d.advisors(), d.store, d.obs, d.log).Handle)
	}

	// --- 5. Communication Workers ---
	if wc := d.worker(smn.TaskType); wc.Enabled {
		c := &smn.Config{
			Timeout:       config.GetDuration(wc.Timeout),
			NotifyAdvisor: cfg.Notifications.NotifyAdvisor,
			PortalURL:     cfg.Notifications.PortalURL,
		}
		start(smn.TaskType, smn.NewHandler(c, d.store, d.email, d.sms, d.obs, d.log).Handle)
	}

	return opened
}
