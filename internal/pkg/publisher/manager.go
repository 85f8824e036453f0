package publisher

import (
	"strconv"
	"sync"
	"time"

	"github.com/gofiber/fiber/v2/log"

	"github.com/faizanprofitpilot/ZapSocial-sub001/app/models"
	"github.com/faizanprofitpilot/ZapSocial-sub001/app/repository"
	"github.com/faizanprofitpilot/ZapSocial-sub001/internal/pkg/env"
)

const (
	defaultPollInterval = 30 * time.Second
	defaultDueBatchSize = 50
)

// Manager runs the publish queue and the due-post poller
type Manager struct {
	queue      *Queue
	posts      repository.PostRepository
	pollTicker *time.Ticker
	interval   time.Duration
	stopCh     chan struct{}
	wg         sync.WaitGroup
	mu         sync.Mutex
	running    bool
}

var (
	globalManager *Manager
	managerOnce   sync.Once
)

// SetupManager builds the global publisher manager (singleton). Worker count
// comes from PUBLISHER_WORKERS, poll interval from PUBLISHER_POLL_SECONDS.
func SetupManager(posts repository.PostRepository, processor Processor) *Manager {
	managerOnce.Do(func() {
		workers := 3
		if v, err := strconv.Atoi(env.GetEnv("PUBLISHER_WORKERS", "3")); err == nil && v > 0 {
			workers = v
		}
		interval := defaultPollInterval
		if v, err := strconv.Atoi(env.GetEnv("PUBLISHER_POLL_SECONDS", "30")); err == nil && v > 0 {
			interval = time.Duration(v) * time.Second
		}

		globalManager = &Manager{
			queue:    NewQueue(workers, processor),
			posts:    posts,
			interval: interval,
			stopCh:   make(chan struct{}),
		}
	})
	return globalManager
}

// GetManager returns the global publisher manager, nil before SetupManager
func GetManager() *Manager {
	return globalManager
}

// GetQueue returns the managed publish queue
func (m *Manager) GetQueue() *Queue {
	return m.queue
}

// Start starts the queue workers and the due-post poller
func (m *Manager) Start() {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.running {
		return
	}

	// Recreate stop channel so the manager can be restarted safely.
	m.stopCh = make(chan struct{})
	m.running = true
	log.Info("[Publisher Manager] Starting publish queue and poller")

	m.queue.Start()

	m.pollTicker = time.NewTicker(m.interval)
	m.wg.Add(1)
	go m.duePoller()

	log.Info("[Publisher Manager] Started successfully")
}

// Stop stops the poller and queue workers
func (m *Manager) Stop() {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.running {
		return
	}

	log.Info("[Publisher Manager] Stopping...")
	close(m.stopCh)
	if m.pollTicker != nil {
		m.pollTicker.Stop()
	}
	m.wg.Wait()
	m.queue.Stop()
	m.running = false
	log.Info("[Publisher Manager] Stopped")
}

// IsRunning reports whether the manager is active
func (m *Manager) IsRunning() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.running
}

// duePoller periodically scans for posts whose scheduled time has passed and
// enqueues a publish job for each.
func (m *Manager) duePoller() {
	defer m.wg.Done()

	for {
		select {
		case <-m.stopCh:
			log.Info("[Publisher Manager] Due-post poller stopping")
			return
		case <-m.pollTicker.C:
			if err := m.enqueueDuePosts(); err != nil {
				log.Errorf("[Publisher Manager] Due-post scan failed: %v", err)
			}
		}
	}
}

// enqueueDuePosts claims due posts and queues a publish job per post.
// Claiming moves the post to publishing first so the next poll cycle does
// not pick it up again.
func (m *Manager) enqueueDuePosts() error {
	due, err := m.posts.ListDue(time.Now(), defaultDueBatchSize)
	if err != nil {
		return err
	}

	for i := range due {
		post := &due[i]
		if err := m.posts.SetStatus(post.ID, models.PostStatusPublishing, ""); err != nil {
			log.Errorf("[Publisher Manager] Failed to claim post %d: %v", post.ID, err)
			continue
		}
		payload := PublishPostJobPayload{PostID: post.ID, UserID: post.UserID}
		if _, err := m.queue.EnqueueJob(JobTypePublishPost, payload.ToMap()); err != nil {
			log.Errorf("[Publisher Manager] Failed to enqueue post %d: %v", post.ID, err)
			// Put the post back so a later cycle retries the enqueue
			if serr := m.posts.SetStatus(post.ID, models.PostStatusScheduled, ""); serr != nil {
				log.Errorf("[Publisher Manager] Failed to unclaim post %d: %v", post.ID, serr)
			}
		}
	}
	return nil
}
