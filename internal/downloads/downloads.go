// Package downloads runs per-track file downloads and remembers the tracks
// that finished.
package downloads

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"slices"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/llehouerou/vyra/internal/catalog"
	"github.com/llehouerou/vyra/internal/errmsg"
	"github.com/llehouerou/vyra/internal/state"
)

// pathsKey stores the file path of each downloaded track.
const pathsKey = "downloads.paths"

// Status is the lifecycle state of a job.
type Status string

const (
	StatusPending     Status = "pending"
	StatusDownloading Status = "downloading"
	StatusCompleted   Status = "completed"
	StatusError       Status = "error"
)

// Terminal reports whether a job in this status has finished.
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusError
}

// Job is one download of one track.
type Job struct {
	ID        string
	TrackID   string
	Track     catalog.Track
	Status    Status
	Progress  float64 // percent
	Error     string
	Path      string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Request describes the file a Pipeline should produce.
type Request struct {
	TrackID     string
	Title       string
	Artist      string
	Album       string
	Destination string
	Quality     catalog.Quality
}

// Pipeline fetches a track to disk. progress receives fractions in [0,1].
type Pipeline interface {
	Download(ctx context.Context, req Request, progress func(float64)) (string, error)
}

// Store persists the downloaded track list and their paths.
type Store interface {
	Get(key string) ([]byte, bool, error)
	Set(key string, value []byte) error
	LoadTrackList(name string) ([]catalog.Track, error)
	SaveTrackList(name string, tracks []catalog.Track) error
}

// Options configures a Manager.
type Options struct {
	Destination string
	Quality     catalog.Quality
}

// Manager tracks download jobs. At most one unfinished job exists per
// track. It is safe for concurrent use.
type Manager struct {
	pipeline Pipeline
	store    Store
	dest     string
	quality  catalog.Quality
	logger   *log.Logger

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu         sync.Mutex
	jobs       map[string]*Job // by track id
	downloaded []catalog.Track
	paths      map[string]string
	onChange   func(Job)
}

// New creates a manager and loads the downloaded tracks.
func New(pipeline Pipeline, store Store, opts Options, logger *log.Logger) (*Manager, error) {
	downloaded, err := store.LoadTrackList(state.ListDownloaded)
	if err != nil {
		return nil, fmt.Errorf("load downloaded tracks: %w", err)
	}
	paths := make(map[string]string)
	if b, ok, err := store.Get(pathsKey); err != nil {
		return nil, fmt.Errorf("load download paths: %w", err)
	} else if ok {
		if err := json.Unmarshal(b, &paths); err != nil {
			return nil, fmt.Errorf("decode download paths: %w", err)
		}
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &Manager{
		pipeline:   pipeline,
		store:      store,
		dest:       opts.Destination,
		quality:    opts.Quality,
		logger:     logger.With("component", "downloads"),
		ctx:        ctx,
		cancel:     cancel,
		jobs:       make(map[string]*Job),
		downloaded: downloaded,
		paths:      paths,
	}, nil
}

// OnChange registers fn to be called after every job update. fn runs on the
// goroutine that made the change and must not block.
func (m *Manager) OnChange(fn func(Job)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.onChange = fn
}

// Start downloads track. It returns false without doing anything when the
// track is downloaded or a job for it is still running.
func (m *Manager) Start(track catalog.Track) bool {
	m.mu.Lock()
	if j, ok := m.jobs[track.ID]; ok && !j.Status.Terminal() {
		m.mu.Unlock()
		return false
	}
	if m.isDownloadedLocked(track.ID) {
		m.mu.Unlock()
		return false
	}
	now := time.Now()
	job := &Job{
		ID:        uuid.NewString(),
		TrackID:   track.ID,
		Track:     track.Clone(),
		Status:    StatusPending,
		CreatedAt: now,
		UpdatedAt: now,
	}
	m.jobs[track.ID] = job
	m.mu.Unlock()

	m.logger.Info("download queued", "track", track.ID, "job", job.ID)
	m.changed(track.ID)
	m.run(job.ID, track)
	return true
}

// Retry restarts a failed job.
func (m *Manager) Retry(trackID string) bool {
	m.mu.Lock()
	job, ok := m.jobs[trackID]
	if !ok || job.Status != StatusError {
		m.mu.Unlock()
		return false
	}
	job.Status = StatusPending
	job.Error = ""
	job.Progress = 0
	job.UpdatedAt = time.Now()
	jobID := job.ID
	track := job.Track
	m.mu.Unlock()

	m.changed(trackID)
	m.run(jobID, track)
	return true
}

// Dismiss forgets a finished job. Downloaded files are kept.
func (m *Manager) Dismiss(trackID string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	job, ok := m.jobs[trackID]
	if !ok || !job.Status.Terminal() {
		return false
	}
	delete(m.jobs, trackID)
	return true
}

func (m *Manager) run(jobID string, track catalog.Track) {
	m.update(track.ID, jobID, func(j *Job) { j.Status = StatusDownloading })

	req := Request{
		TrackID:     track.ID,
		Title:       track.Title,
		Artist:      track.PrimaryArtist(),
		Album:       track.AlbumName(),
		Destination: m.dest,
		Quality:     m.quality,
	}

	m.wg.Add(1)
	go func() {
		defer m.wg.Done()
		path, err := m.pipeline.Download(m.ctx, req, func(f float64) {
			m.update(track.ID, jobID, func(j *Job) {
				j.Progress = min(max(f, 0), 1) * 100
			})
		})
		if err != nil {
			m.logger.Warn("download failed", "track", track.ID, "job", jobID, "err", err)
			m.update(track.ID, jobID, func(j *Job) {
				j.Status = StatusError
				j.Error = errmsg.Format(errmsg.OpDownloadTrack, err)
			})
			return
		}
		m.complete(track, jobID, path)
	}()
}

func (m *Manager) complete(track catalog.Track, jobID, path string) {
	m.mu.Lock()
	job, ok := m.jobs[track.ID]
	if !ok || job.ID != jobID {
		m.mu.Unlock()
		return
	}
	job.Status = StatusCompleted
	job.Progress = 100
	job.Path = path
	job.UpdatedAt = time.Now()
	if indexOf(m.downloaded, track.ID) < 0 {
		m.downloaded = append(m.downloaded, track.Clone())
	}
	m.paths[track.ID] = path
	err := m.persistLocked()
	m.mu.Unlock()

	if err != nil {
		m.logger.Warn("save downloads failed", "err", err)
	}
	m.logger.Info("download completed", "track", track.ID, "path", path)
	m.changed(track.ID)
}

// update applies fn to the job if it is still the one identified by jobID.
func (m *Manager) update(trackID, jobID string, fn func(*Job)) {
	m.mu.Lock()
	job, ok := m.jobs[trackID]
	if !ok || job.ID != jobID {
		m.mu.Unlock()
		return
	}
	fn(job)
	job.UpdatedAt = time.Now()
	m.mu.Unlock()
	m.changed(trackID)
}

func (m *Manager) changed(trackID string) {
	m.mu.Lock()
	job, ok := m.jobs[trackID]
	fn := m.onChange
	var snap Job
	if ok {
		snap = *job
	}
	m.mu.Unlock()
	if ok && fn != nil {
		fn(snap)
	}
}

// RemoveDownloaded deletes the track's file and forgets it.
func (m *Manager) RemoveDownloaded(trackID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	path, ok := m.paths[trackID]
	if !ok && indexOf(m.downloaded, trackID) < 0 {
		return nil
	}
	if path != "" {
		if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("remove %s: %w", path, err)
		}
	}
	delete(m.paths, trackID)
	delete(m.jobs, trackID)
	m.downloaded = slices.DeleteFunc(slices.Clone(m.downloaded), func(t catalog.Track) bool {
		return t.ID == trackID
	})
	return m.persistLocked()
}

func (m *Manager) persistLocked() error {
	if err := m.store.SaveTrackList(state.ListDownloaded, m.downloaded); err != nil {
		return fmt.Errorf("save downloaded tracks: %w", err)
	}
	b, err := json.Marshal(m.paths)
	if err != nil {
		return err
	}
	if err := m.store.Set(pathsKey, b); err != nil {
		return fmt.Errorf("save download paths: %w", err)
	}
	return nil
}

// IsDownloaded reports whether the track has a completed download.
func (m *Manager) IsDownloaded(trackID string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.isDownloadedLocked(trackID)
}

func (m *Manager) isDownloadedLocked(trackID string) bool {
	_, ok := m.paths[trackID]
	return ok || indexOf(m.downloaded, trackID) >= 0
}

// Path returns the file of a downloaded track.
func (m *Manager) Path(trackID string) (string, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.paths[trackID]
	return p, ok
}

// Job returns the job for a track.
func (m *Manager) Job(trackID string) (Job, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	j, ok := m.jobs[trackID]
	if !ok {
		return Job{}, false
	}
	return *j, true
}

// Jobs returns all known jobs, oldest first.
func (m *Manager) Jobs() []Job {
	m.mu.Lock()
	defer m.mu.Unlock()
	jobs := make([]Job, 0, len(m.jobs))
	for _, j := range m.jobs {
		jobs = append(jobs, *j)
	}
	slices.SortFunc(jobs, func(a, b Job) int {
		if c := a.CreatedAt.Compare(b.CreatedAt); c != 0 {
			return c
		}
		return compareStrings(a.TrackID, b.TrackID)
	})
	return jobs
}

// Downloaded returns the downloaded tracks in completion order.
func (m *Manager) Downloaded() []catalog.Track {
	m.mu.Lock()
	defer m.mu.Unlock()
	return catalog.CloneTracks(m.downloaded)
}

// Wait blocks until running downloads finish.
func (m *Manager) Wait() {
	m.wg.Wait()
}

// Close cancels running downloads and waits for them.
func (m *Manager) Close() {
	m.cancel()
	m.wg.Wait()
}

func indexOf(tracks []catalog.Track, id string) int {
	return slices.IndexFunc(tracks, func(t catalog.Track) bool { return t.ID == id })
}

func compareStrings(a, b string) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}
