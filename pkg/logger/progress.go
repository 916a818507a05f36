package logger

import (
	"sync"
	"time"
)

// ProgressTracker reports progress of long-running scans, such as walking a
// large statement line by line. Progress is logged at a fixed interval rather
// than per item so scanning stays cheap.
type ProgressTracker struct {
	logger      Logger
	operation   string
	total       int64
	current     int64
	startTime   time.Time
	lastLogTime time.Time
	logInterval time.Duration
	mutex       sync.Mutex
}

// ProgressConfig configures progress tracking behavior
type ProgressConfig struct {
	Operation   string        `json:"operation"`
	Total       int64         `json:"total"`
	LogInterval time.Duration `json:"log_interval"`
	Logger      Logger        `json:"-"`
}

// NewProgressTracker creates a new progress tracker
func NewProgressTracker(config ProgressConfig) *ProgressTracker {
	if config.Logger == nil {
		config.Logger = GetGlobalLogger()
	}
	if config.LogInterval == 0 {
		config.LogInterval = 5 * time.Second
	}

	tracker := &ProgressTracker{
		logger:      config.Logger.WithComponent("progress"),
		operation:   config.Operation,
		total:       config.Total,
		startTime:   time.Now(),
		lastLogTime: time.Now(),
		logInterval: config.LogInterval,
	}

	tracker.logger.WithFields(Fields{
		"operation": config.Operation,
		"total":     config.Total,
	}).Info("Starting operation")

	return tracker
}

// Increment increments the progress counter by 1
func (p *ProgressTracker) Increment() {
	p.Add(1)
}

// Add increments the progress counter by the given amount
func (p *ProgressTracker) Add(delta int64) {
	p.mutex.Lock()
	defer p.mutex.Unlock()

	p.current += delta
	now := time.Now()

	if now.Sub(p.lastLogTime) >= p.logInterval {
		p.logProgress(now)
		p.lastLogTime = now
	}
}

// Complete marks the operation finished and logs final counts
func (p *ProgressTracker) Complete() {
	p.mutex.Lock()
	defer p.mutex.Unlock()

	elapsed := time.Since(p.startTime)
	p.logger.WithFields(Fields{
		"operation": p.operation,
		"processed": p.current,
		"total":     p.total,
		"elapsed":   elapsed.Round(time.Millisecond).String(),
	}).Info("Operation complete")
}

// Current returns the current progress count
func (p *ProgressTracker) Current() int64 {
	p.mutex.Lock()
	defer p.mutex.Unlock()
	return p.current
}

func (p *ProgressTracker) logProgress(now time.Time) {
	fields := Fields{
		"operation": p.operation,
		"processed": p.current,
	}

	if p.total > 0 {
		pct := float64(p.current) / float64(p.total) * 100
		fields["total"] = p.total
		fields["percent"] = pct

		elapsed := now.Sub(p.startTime)
		if p.current > 0 {
			perItem := elapsed / time.Duration(p.current)
			remaining := time.Duration(p.total-p.current) * perItem
			fields["eta"] = remaining.Round(time.Second).String()
		}
	}

	p.logger.WithFields(fields).Info("Progress update")
}
