package history

import (
	"errors"
	"fmt"
	"os"
	"sync"
	"time"
	"worldinfo/internal/history/interfaces"
	"worldinfo/internal/providers"
	"worldinfo/internal/services"
	"worldinfo/internal/structures"

	"github.com/roylee0704/gron"
	"go.uber.org/atomic"
)

// ErrHistoryLocked is returned by Persist after a failed restore left the
// history file in place. Saving would replace it with the partial in-memory
// history.
var ErrHistoryLocked = errors.New("history file could not be restored, refusing to overwrite it")

type Scheduler struct {
	config      *structures.Config
	logger      providers.Logger
	service     services.TrackerServiceInterface
	fileManager *FileManager
	metrics     providers.MetricsProviderInterface
	cron        *gron.Cron
	opsMu       sync.Mutex
	busy        atomic.Bool
	locked      atomic.Bool
}

func (s *Scheduler) Init() {
	s.cron = gron.New()
	interval := s.config.Persistence.SaveInterval
	if interval <= 0 {
		interval = time.Minute
	}

	s.cron.AddFunc(gron.Every(interval), s.tick)
	s.cron.Start()
}

// tick is the periodic save. A tick that fires while the previous one is still
// writing is dropped.
func (s *Scheduler) tick() {
	if !s.busy.CompareAndSwap(false, true) {
		s.logger.Warnf(providers.TypeApp, "Previous save still running, skipping tick")
		return
	}
	defer s.busy.Store(false)

	if err := s.Persist(); err != nil {
		return
	}
	s.logger.Debugf(providers.TypeApp, "Persisted history to file %s", s.config.Persistence.FilePath)
}

func (s *Scheduler) Stop() {
	if s.cron != nil {
		s.cron.Stop()
	}
}

// Restore loads the history file and, when configured, the stored metrics table
// shown until the first fetch.
func (s *Scheduler) Restore() error {
	err := s.fileManager.LoadFromFile(s.config.Persistence.FilePath)
	if err != nil {
		s.setAside(s.config.Persistence.FilePath)
		return err
	}

	tablePath := s.config.Persistence.TablePath
	if tablePath == "" {
		return nil
	}
	rows, err := LoadTableFile(tablePath)
	var skipped *SkippedRowsError
	switch {
	case errors.As(err, &skipped):
		s.logger.Warnf(providers.TypeApp, "Skipped %d unreadable rows of %s: %s", len(skipped.Errs), tablePath, skipped)
	case err != nil:
		return err
	}
	if len(rows) > 0 {
		s.service.PutTableRows(rows)
		s.logger.Infof(providers.TypeApp, "Loaded %d table rows from %s", len(rows), tablePath)
	}
	return nil
}

// setAside moves an unreadable history file out of the way so later saves
// start a new file. When it cannot be moved, saving is locked.
func (s *Scheduler) setAside(fileName string) {
	backup := fmt.Sprintf("%s.unreadable-%d", fileName, time.Now().Unix())
	if err := os.Rename(fileName, backup); err != nil {
		s.locked.Store(true)
		s.logger.Errorf(providers.TypeApp, "Unable to move unreadable history %s aside, saving disabled: %s", fileName, err)
		return
	}
	s.logger.Warnf(providers.TypeApp, "Moved unreadable history %s to %s", fileName, backup)
}

// Persist writes the history file and, when configured and non-empty, the
// current metrics table.
func (s *Scheduler) Persist() error {
	s.opsMu.Lock()
	defer s.opsMu.Unlock()

	if s.locked.Load() {
		return ErrHistoryLocked
	}

	start := time.Now()
	err := s.fileManager.SaveToFile(s.config.Persistence.FilePath)
	s.metrics.ObservePersistenceDuration(time.Since(start))
	if err != nil {
		s.logger.Errorf(providers.TypeApp, "Error while persisting history: %s", err)
		return err
	}

	tablePath := s.config.Persistence.TablePath
	if tablePath == "" || len(s.service.Current()) == 0 {
		return nil
	}
	if err = SaveTableFile(tablePath, s.service.MetricsRows()); err != nil {
		s.logger.Errorf(providers.TypeApp, "Error while exporting table: %s", err)
		return err
	}
	return nil
}

func NewScheduler(config *structures.Config, logger providers.Logger, service services.TrackerServiceInterface, fileManager *FileManager, metrics providers.MetricsProviderInterface) interfaces.SchedulerInterface {
	return &Scheduler{
		config:      config,
		logger:      logger,
		service:     service,
		fileManager: fileManager,
		metrics:     metrics,
	}
}
