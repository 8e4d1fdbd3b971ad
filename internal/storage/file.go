package storage

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/Leah1314/gut-balance-buddy-24-sub000/internal"
)

type FilePaths struct {
	Food     string
	Stool    string
	Profiles string
}

type FileStorage struct {
	foodLogs      map[string]*internal.FoodLog       // id -> FoodLog
	userFoodIndex map[string][]*internal.FoodLog     // userID -> logs, newest first
	stoolLogs     map[string]*internal.StoolLog      // id -> StoolLog
	userStoolIdx  map[string][]*internal.StoolLog    // userID -> logs, newest first
	profiles      map[string]*internal.HealthProfile // userID -> profile
	mu            sync.RWMutex
	paths         FilePaths
	saveFoodCh    chan struct{}
	saveStoolCh   chan struct{}
	saveProfileCh chan struct{}
	shutdownCh    chan struct{}
	saveDelay     time.Duration
	workers       sync.WaitGroup
	closeOnce     sync.Once
	logger        internal.Logger
}

func NewFileStorage(paths FilePaths, logger internal.Logger) (*FileStorage, error) {
	return newFileStorage(paths, 500*time.Millisecond, logger)
}

func newFileStorage(paths FilePaths, saveDelay time.Duration, logger internal.Logger) (*FileStorage, error) {
	s := &FileStorage{
		foodLogs:      make(map[string]*internal.FoodLog),
		userFoodIndex: make(map[string][]*internal.FoodLog),
		stoolLogs:     make(map[string]*internal.StoolLog),
		userStoolIdx:  make(map[string][]*internal.StoolLog),
		profiles:      make(map[string]*internal.HealthProfile),
		paths:         paths,
		saveFoodCh:    make(chan struct{}, 1),
		saveStoolCh:   make(chan struct{}, 1),
		saveProfileCh: make(chan struct{}, 1),
		shutdownCh:    make(chan struct{}),
		saveDelay:     saveDelay,
		logger:        logger,
	}

	var food []*internal.FoodLog
	if err := loadJSON(paths.Food, &food); err != nil {
		logger.Errorf("storage: failed to load food logs: %v", err)
		return nil, err
	}
	var stool []*internal.StoolLog
	if err := loadJSON(paths.Stool, &stool); err != nil {
		logger.Errorf("storage: failed to load stool logs: %v", err)
		return nil, err
	}
	var profiles []*internal.HealthProfile
	if err := loadJSON(paths.Profiles, &profiles); err != nil {
		logger.Errorf("storage: failed to load health profiles: %v", err)
		return nil, err
	}

	for _, l := range food {
		s.foodLogs[l.ID] = l
		s.userFoodIndex[l.UserID] = append(s.userFoodIndex[l.UserID], l)
	}
	for userID := range s.userFoodIndex {
		sortNewestFirst(s.userFoodIndex[userID], foodCreatedAt)
	}
	for _, l := range stool {
		s.stoolLogs[l.ID] = l
		s.userStoolIdx[l.UserID] = append(s.userStoolIdx[l.UserID], l)
	}
	for userID := range s.userStoolIdx {
		sortNewestFirst(s.userStoolIdx[userID], stoolCreatedAt)
	}
	for _, p := range profiles {
		s.profiles[p.UserID] = p
	}

	s.startWorker("food logs", s.saveFoodCh, s.saveFoodLogs)
	s.startWorker("stool logs", s.saveStoolCh, s.saveStoolLogs)
	s.startWorker("health profiles", s.saveProfileCh, s.saveProfiles)

	return s, nil
}

func loadJSON(path string, into any) error {
	file, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	defer file.Close()

	if err := json.NewDecoder(file).Decode(into); err != nil {
		if errors.Is(err, io.EOF) {
			return nil
		}
		return err
	}
	return nil
}

func atomicWriteFileJSON(filePath string, data interface{}) error {
	if dir := filepath.Dir(filePath); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	tempFile := filePath + ".tmp"
	f, err := os.Create(tempFile)
	if err != nil {
		return err
	}

	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	if err := enc.Encode(data); err != nil {
		f.Close()
		os.Remove(tempFile)
		return err
	}

	if err := f.Sync(); err != nil {
		f.Close()
		os.Remove(tempFile)
		return err
	}

	if err := f.Close(); err != nil {
		os.Remove(tempFile)
		return err
	}

	return os.Rename(tempFile, filePath)
}

func (s *FileStorage) saveFoodLogs() error {
	s.mu.RLock()
	logs := make([]*internal.FoodLog, 0, len(s.foodLogs))
	for _, l := range s.foodLogs {
		logs = append(logs, l)
	}
	s.mu.RUnlock()
	sortNewestFirst(logs, foodCreatedAt)
	return atomicWriteFileJSON(s.paths.Food, logs)
}

func (s *FileStorage) saveStoolLogs() error {
	s.mu.RLock()
	logs := make([]*internal.StoolLog, 0, len(s.stoolLogs))
	for _, l := range s.stoolLogs {
		logs = append(logs, l)
	}
	s.mu.RUnlock()
	sortNewestFirst(logs, stoolCreatedAt)
	return atomicWriteFileJSON(s.paths.Stool, logs)
}

func (s *FileStorage) saveProfiles() error {
	s.mu.RLock()
	profiles := make([]*internal.HealthProfile, 0, len(s.profiles))
	for _, p := range s.profiles {
		profiles = append(profiles, p)
	}
	s.mu.RUnlock()
	sort.Slice(profiles, func(i, j int) bool { return profiles[i].UserID < profiles[j].UserID })
	return atomicWriteFileJSON(s.paths.Profiles, profiles)
}

// startWorker debounces save requests on ch: a burst of writes results in a
// single flush saveDelay after the last one.
func (s *FileStorage) startWorker(name string, ch <-chan struct{}, save func() error) {
	s.workers.Add(1)
	go func() {
		defer s.workers.Done()
		timer := time.NewTimer(s.saveDelay)
		defer timer.Stop()
		dirty := false

		for {
			select {
			case <-ch:
				dirty = true
				timer.Reset(s.saveDelay)
			case <-timer.C:
				if !dirty {
					continue
				}
				dirty = false
				if err := save(); err != nil {
					s.logger.Errorf("storage: error saving %s: %v", name, err)
				}
			case <-s.shutdownCh:
				return
			}
		}
	}()
}

func notify(ch chan struct{}) {
	select {
	case ch <- struct{}{}:
	default:
	}
}

// Close stops the save workers and flushes everything synchronously.
func (s *FileStorage) Close() error {
	var err error
	s.closeOnce.Do(func() {
		close(s.shutdownCh)
		s.workers.Wait()
		err = errors.Join(s.saveFoodLogs(), s.saveStoolLogs(), s.saveProfiles())
	})
	return err
}

// --- FoodLogRepository ---
func (s *FileStorage) SaveFoodLog(ctx context.Context, log *internal.FoodLog) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry := *log
	if old, ok := s.foodLogs[entry.ID]; ok {
		s.userFoodIndex[old.UserID] = removeByID(s.userFoodIndex[old.UserID], old)
	}
	s.foodLogs[entry.ID] = &entry
	s.userFoodIndex[entry.UserID] = insertNewestFirst(s.userFoodIndex[entry.UserID], &entry, foodCreatedAt)
	notify(s.saveFoodCh)
	return nil
}

func (s *FileStorage) ListFoodLogs(ctx context.Context, userID string, since time.Time) ([]internal.FoodLog, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return copySince(s.userFoodIndex[userID], since, foodCreatedAt), nil
}

func (s *FileStorage) DeleteFoodLog(ctx context.Context, userID, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.foodLogs[id]
	if !ok || l.UserID != userID {
		return ErrNotFound
	}
	delete(s.foodLogs, id)
	s.userFoodIndex[userID] = removeByID(s.userFoodIndex[userID], l)
	notify(s.saveFoodCh)
	return nil
}

// --- StoolLogRepository ---
func (s *FileStorage) SaveStoolLog(ctx context.Context, log *internal.StoolLog) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry := *log
	if old, ok := s.stoolLogs[entry.ID]; ok {
		s.userStoolIdx[old.UserID] = removeByID(s.userStoolIdx[old.UserID], old)
	}
	s.stoolLogs[entry.ID] = &entry
	s.userStoolIdx[entry.UserID] = insertNewestFirst(s.userStoolIdx[entry.UserID], &entry, stoolCreatedAt)
	notify(s.saveStoolCh)
	return nil
}

func (s *FileStorage) ListStoolLogs(ctx context.Context, userID string, since time.Time) ([]internal.StoolLog, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return copySince(s.userStoolIdx[userID], since, stoolCreatedAt), nil
}

func (s *FileStorage) DeleteStoolLog(ctx context.Context, userID, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.stoolLogs[id]
	if !ok || l.UserID != userID {
		return ErrNotFound
	}
	delete(s.stoolLogs, id)
	s.userStoolIdx[userID] = removeByID(s.userStoolIdx[userID], l)
	notify(s.saveStoolCh)
	return nil
}

// --- ProfileRepository ---
func (s *FileStorage) SaveHealthProfile(ctx context.Context, p *internal.HealthProfile) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	profile := *p
	s.profiles[profile.UserID] = &profile
	notify(s.saveProfileCh)
	return nil
}

func (s *FileStorage) GetHealthProfile(ctx context.Context, userID string) (*internal.HealthProfile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.profiles[userID]
	if !ok {
		return nil, ErrNotFound
	}
	profile := *p
	return &profile, nil
}

// --- index helpers ---

func foodCreatedAt(l *internal.FoodLog) time.Time   { return l.CreatedAt }
func stoolCreatedAt(l *internal.StoolLog) time.Time { return l.CreatedAt }

func sortNewestFirst[T any](logs []*T, at func(*T) time.Time) {
	sort.SliceStable(logs, func(i, j int) bool { return at(logs[i]).After(at(logs[j])) })
}

func insertNewestFirst[T any](logs []*T, log *T, at func(*T) time.Time) []*T {
	i := sort.Search(len(logs), func(i int) bool { return at(logs[i]).Before(at(log)) })
	logs = append(logs, nil)
	copy(logs[i+1:], logs[i:])
	logs[i] = log
	return logs
}

func removeByID[T any](logs []*T, target *T) []*T {
	for i, l := range logs {
		if l == target {
			return append(logs[:i], logs[i+1:]...)
		}
	}
	return logs
}

func copySince[T any](logs []*T, since time.Time, at func(*T) time.Time) []T {
	out := make([]T, 0, len(logs))
	for _, l := range logs {
		if !since.IsZero() && at(l).Before(since) {
			break
		}
		out = append(out, *l)
	}
	return out
}

// --- Compile-time assertions ---
var _ Store = (*FileStorage)(nil)
