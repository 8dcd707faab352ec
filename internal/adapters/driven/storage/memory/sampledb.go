package memory

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/custodia-labs/specimen/internal/core/domain"
	"github.com/custodia-labs/specimen/internal/core/ports/driven"
)

// Ensure SampleDatabase implements the interface.
var _ driven.SampleDatabase = (*SampleDatabase)(nil)

type sampleRecord struct {
	seq    int
	sample domain.Sample
}

// SampleDatabase is an in-memory implementation of driven.SampleDatabase.
type SampleDatabase struct {
	mu      sync.RWMutex
	seq     int
	samples map[string]*sampleRecord
	now     func() time.Time
}

// NewSampleDatabase creates a new in-memory sample database.
func NewSampleDatabase() *SampleDatabase {
	return &SampleDatabase{
		samples: make(map[string]*sampleRecord),
		now:     time.Now,
	}
}

// Add records a sample. It reports false without changes if a sample with
// the same sha256 already exists.
func (db *SampleDatabase) Add(_ context.Context, sample *domain.Sample) (bool, error) {
	if sample == nil || sample.SHA256 == "" {
		return false, fmt.Errorf("%w: sample without sha256", domain.ErrInvalidInput)
	}

	db.mu.Lock()
	defer db.mu.Unlock()

	if _, ok := db.samples[sample.SHA256]; ok {
		return false, nil
	}

	db.seq++
	stored := *sample
	stored.Tags = domain.UnionTags(nil, sample.Tags)
	if stored.CreatedAt.IsZero() {
		stored.CreatedAt = db.now().UTC()
	}
	db.samples[sample.SHA256] = &sampleRecord{seq: db.seq, sample: stored}
	return true, nil
}

// Get retrieves a sample by sha256.
func (db *SampleDatabase) Get(_ context.Context, sha256 string) (*domain.Sample, error) {
	db.mu.RLock()
	defer db.mu.RUnlock()

	rec, ok := db.samples[sha256]
	if !ok {
		return nil, fmt.Errorf("%w: sample %s", domain.ErrNotFound, sha256)
	}
	return copySample(rec.sample), nil
}

// Find returns samples matching query in storage order. Latest searches
// return the most recent samples first.
func (db *SampleDatabase) Find(_ context.Context, query domain.SearchQuery) ([]domain.Sample, error) {
	match, err := matcher(query)
	if err != nil {
		return nil, err
	}

	db.mu.RLock()
	defer db.mu.RUnlock()

	records := make([]*sampleRecord, 0, len(db.samples))
	for _, rec := range db.samples {
		if match(rec.sample) {
			records = append(records, rec)
		}
	}
	sort.Slice(records, func(i, j int) bool { return records[i].seq < records[j].seq })

	if query.Key == domain.SearchLatest {
		sort.Slice(records, func(i, j int) bool { return records[i].seq > records[j].seq })
		if n := query.LatestCount(); len(records) > n {
			records = records[:n]
		}
	}

	out := make([]domain.Sample, 0, len(records))
	for _, rec := range records {
		out = append(out, *copySample(rec.sample))
	}
	return out, nil
}

func matcher(query domain.SearchQuery) (func(domain.Sample) bool, error) {
	value := strings.TrimSpace(query.Value)
	switch query.Key {
	case domain.SearchMD5:
		return func(s domain.Sample) bool { return s.MD5 == strings.ToLower(value) }, nil
	case domain.SearchSHA256:
		return func(s domain.Sample) bool { return s.SHA256 == strings.ToLower(value) }, nil
	case domain.SearchSSDeep:
		return func(s domain.Sample) bool { return value != "" && strings.Contains(s.SSDeep, value) }, nil
	case domain.SearchTag:
		tag := strings.ToLower(value)
		return func(s domain.Sample) bool {
			for _, t := range s.Tags {
				if t == tag {
					return true
				}
			}
			return false
		}, nil
	case domain.SearchName:
		return func(s domain.Sample) bool { return domain.MatchName(value, s.Name) }, nil
	case domain.SearchAll, domain.SearchLatest:
		return func(domain.Sample) bool { return true }, nil
	default:
		return nil, fmt.Errorf("%w: unknown search key %q", domain.ErrInvalidInput, query.Key)
	}
}

// Delete removes a sample.
func (db *SampleDatabase) Delete(_ context.Context, sha256 string) error {
	db.mu.Lock()
	defer db.mu.Unlock()

	if _, ok := db.samples[sha256]; !ok {
		return fmt.Errorf("%w: sample %s", domain.ErrNotFound, sha256)
	}
	delete(db.samples, sha256)
	return nil
}

// AddTags merges tags into a sample's tag set.
func (db *SampleDatabase) AddTags(_ context.Context, sha256 string, tags []string) error {
	db.mu.Lock()
	defer db.mu.Unlock()

	rec, ok := db.samples[sha256]
	if !ok {
		return fmt.Errorf("%w: sample %s", domain.ErrNotFound, sha256)
	}
	rec.sample.Tags = domain.UnionTags(rec.sample.Tags, tags)
	return nil
}

// ListTags returns every tag in use, sorted.
func (db *SampleDatabase) ListTags(_ context.Context) ([]string, error) {
	db.mu.RLock()
	defer db.mu.RUnlock()

	var tags []string
	for _, rec := range db.samples {
		tags = domain.UnionTags(tags, rec.sample.Tags)
	}
	return tags, nil
}

// Close is a no-op for the memory database.
func (db *SampleDatabase) Close() error {
	return nil
}

func copySample(s domain.Sample) *domain.Sample {
	s.Tags = append([]string(nil), s.Tags...)
	return &s
}
