package service

import (
	"context"
	"sort"
	"sync"
	"time"

	"view-forecast-service/internal/domain"
	"view-forecast-service/internal/model"
)

type memVideoRepo struct {
	mu     sync.Mutex
	videos map[string]*domain.VideoRecord
}

func newMemVideoRepo() *memVideoRepo {
	return &memVideoRepo{videos: map[string]*domain.VideoRecord{}}
}

func (r *memVideoRepo) GetByID(_ context.Context, id string) (*domain.VideoRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.videos[id], nil
}

func (r *memVideoRepo) Upsert(_ context.Context, v *domain.VideoRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.videos[v.ID] = v
	return nil
}

func (r *memVideoRepo) BulkUpsert(ctx context.Context, videos []*domain.VideoRecord) error {
	for _, v := range videos {
		if err := r.Upsert(ctx, v); err != nil {
			return err
		}
	}
	return nil
}

func (r *memVideoRepo) ListTracked(context.Context) ([]*domain.VideoRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]*domain.VideoRecord, 0, len(r.videos))
	for _, v := range r.videos {
		if !v.Frozen {
			out = append(out, v)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *memVideoRepo) ListForTraining(ctx context.Context, _ domain.TrainingFilter) ([]*domain.VideoRecord, error) {
	return r.ListTracked(ctx)
}

func (r *memVideoRepo) Count(context.Context) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return int64(len(r.videos)), nil
}

type memChannelRepo struct {
	mu       sync.Mutex
	channels map[string]*domain.ChannelRecord
}

func newMemChannelRepo() *memChannelRepo {
	return &memChannelRepo{channels: map[string]*domain.ChannelRecord{}}
}

func (r *memChannelRepo) GetByID(_ context.Context, id string) (*domain.ChannelRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.channels[id], nil
}

func (r *memChannelRepo) Upsert(_ context.Context, c *domain.ChannelRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.channels[c.ID] = c
	return nil
}

type memSnapshotRepo struct {
	mu     sync.Mutex
	series map[string][]*domain.Snapshot
}

func newMemSnapshotRepo() *memSnapshotRepo {
	return &memSnapshotRepo{series: map[string][]*domain.Snapshot{}}
}

func (r *memSnapshotRepo) Append(_ context.Context, snapshots []*domain.Snapshot) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, s := range snapshots {
		r.series[s.VideoID] = append(r.series[s.VideoID], s)
	}
	return nil
}

func (r *memSnapshotRepo) ListByVideo(_ context.Context, videoID string) ([]*domain.Snapshot, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := append([]*domain.Snapshot(nil), r.series[videoID]...)
	sort.Slice(out, func(i, j int) bool { return out[i].CapturedAt.Before(out[j].CapturedAt) })
	return out, nil
}

func (r *memSnapshotRepo) CountByVideo(ctx context.Context, videoID string) (int64, error) {
	series, _ := r.ListByVideo(ctx, videoID)
	return int64(len(series)), nil
}

func (r *memSnapshotRepo) MarkAnomalous(_ context.Context, videoID string, capturedAt time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, s := range r.series[videoID] {
		if s.CapturedAt.Equal(capturedAt) {
			s.IsAnomaly = true
		}
	}
	return nil
}

type fakeProvider struct {
	mu         sync.Mutex
	videos     map[string]*domain.VideoRecord
	channels   map[string]*domain.ChannelRecord
	stats      map[string]domain.Reading
	fetchCalls int
	statsCalls int
}

func newFakeProvider() *fakeProvider {
	return &fakeProvider{
		videos:   map[string]*domain.VideoRecord{},
		channels: map[string]*domain.ChannelRecord{},
		stats:    map[string]domain.Reading{},
	}
}

func (p *fakeProvider) Name() string { return "fake" }

func (p *fakeProvider) FetchVideo(_ context.Context, videoID string) (*domain.VideoRecord, *domain.ChannelRecord, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.fetchCalls++

	v := p.videos[videoID]
	if v == nil {
		return nil, nil, nil
	}
	return v, p.channels[v.ChannelID], nil
}

func (p *fakeProvider) FetchStatistics(_ context.Context, videoIDs []string) ([]domain.StatisticsReading, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.statsCalls++

	out := make([]domain.StatisticsReading, 0, len(videoIDs))
	for _, id := range videoIDs {
		if r, ok := p.stats[id]; ok {
			out = append(out, domain.StatisticsReading{VideoID: id, Reading: r})
		}
	}
	return out, nil
}

func (p *fakeProvider) HealthCheck(context.Context) error { return nil }

type memCache struct {
	mu      sync.Mutex
	entries map[string][]byte
}

func newMemCache() *memCache {
	return &memCache{entries: map[string][]byte{}}
}

func (c *memCache) Get(_ context.Context, key string) ([]byte, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.entries[key], nil
}

func (c *memCache) Set(_ context.Context, key string, value []byte, _ time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = value
	return nil
}

func (c *memCache) Delete(_ context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, key)
	return nil
}

type fakeLocker struct {
	mu   sync.Mutex
	held map[string]bool
}

func newFakeLocker() *fakeLocker {
	return &fakeLocker{held: map[string]bool{}}
}

func (l *fakeLocker) Acquire(_ context.Context, key string, _ time.Duration) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.held[key] {
		return false, nil
	}
	l.held[key] = true
	return true, nil
}

func (l *fakeLocker) Release(_ context.Context, key string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.held, key)
	return nil
}

type memArtifactStore struct {
	mu         sync.Mutex
	saved      []*model.Artifact
	tables     map[string][][]float64
	headers    map[string][]string
	latest     map[domain.ModelType]*model.Artifact
	saveErr    error
	failOnSave int // when > 0, saveErr fires from the Nth Save on
	saveCalls  int
	tableErr   error
}

func newMemArtifactStore() *memArtifactStore {
	return &memArtifactStore{
		tables:  map[string][][]float64{},
		headers: map[string][]string{},
		latest:  map[domain.ModelType]*model.Artifact{},
	}
}

func (s *memArtifactStore) Save(_ context.Context, artifact *model.Artifact) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.saveCalls++
	if s.saveErr != nil && (s.failOnSave == 0 || s.saveCalls >= s.failOnSave) {
		return s.saveErr
	}
	s.saved = append(s.saved, artifact)
	s.latest[artifact.ModelType] = artifact
	return nil
}

func (s *memArtifactStore) Delete(_ context.Context, modelType domain.ModelType, version string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	kept := make([]*model.Artifact, 0, len(s.saved))
	for _, a := range s.saved {
		if a.ModelType == modelType && a.Version == version {
			continue
		}
		kept = append(kept, a)
	}
	s.saved = kept

	if cur := s.latest[modelType]; cur != nil && cur.Version == version {
		delete(s.latest, modelType)
		for _, a := range kept {
			if a.ModelType == modelType {
				s.latest[modelType] = a
			}
		}
	}
	return nil
}

func (s *memArtifactStore) Load(_ context.Context, modelType domain.ModelType, version string) (*model.Artifact, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, a := range s.saved {
		if a.ModelType == modelType && a.Version == version {
			return a, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (s *memArtifactStore) Latest(_ context.Context, modelType domain.ModelType) (*model.Artifact, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a := s.latest[modelType]
	if a == nil {
		return nil, domain.ErrNotFound
	}
	return a, nil
}

func (s *memArtifactStore) List(context.Context) ([]*model.Artifact, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]*model.Artifact(nil), s.saved...), nil
}

func (s *memArtifactStore) WriteFeatureTable(_ context.Context, name string, header []string, rows [][]float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.tableErr != nil {
		return s.tableErr
	}
	s.headers[name] = header
	s.tables[name] = rows
	return nil
}
