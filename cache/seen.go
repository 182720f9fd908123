package cache

import (
	"errors"
	"fmt"
	"os"
	"sync"

	bloom "github.com/bits-and-blooms/bloom/v3"
	"github.com/edsrzf/mmap-go"
)

// SeenFilter is a bloom filter over link identities, mirrored to a
// memory-mapped temp file. A negative answer is exact, so lookups of
// never-stored identities skip the result map entirely.
type SeenFilter struct {
	mu        sync.Mutex
	filter    *bloom.BloomFilter
	file      *os.File
	mmap      mmap.MMap
	path      string
	pending   uint // additions since the last sync
	syncEvery uint
	lastErr   error
}

// NewSeenFilter sizes a filter for expected identities at the given false
// positive rate and backs it with a temp file in dir ("" for os.TempDir).
func NewSeenFilter(dir string, expected uint, fpRate float64) (*SeenFilter, error) {
	if expected == 0 {
		expected = 1
	}
	filter := bloom.NewWithEstimates(expected, fpRate)

	data, err := filter.MarshalBinary()
	if err != nil {
		return nil, fmt.Errorf("marshal bloom filter: %w", err)
	}

	f, err := os.CreateTemp(dir, "mlc-seen-*.bloom")
	if err != nil {
		return nil, fmt.Errorf("create temp file: %w", err)
	}
	cleanup := func() {
		_ = f.Close()
		_ = os.Remove(f.Name())
	}

	if err := f.Truncate(int64(len(data))); err != nil {
		cleanup()
		return nil, fmt.Errorf("truncate temp file: %w", err)
	}
	mapped, err := mmap.MapRegion(f, len(data), mmap.RDWR, 0, 0)
	if err != nil {
		cleanup()
		return nil, fmt.Errorf("mmap temp file: %w", err)
	}
	copy(mapped, data)

	return &SeenFilter{
		filter:    filter,
		file:      f,
		mmap:      mapped,
		path:      f.Name(),
		syncEvery: 1000,
	}, nil
}

// Add records identity.
func (s *SeenFilter) Add(identity string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.filter.AddString(identity)
	s.pending++
	if s.pending >= s.syncEvery {
		if err := s.syncLocked(); err != nil {
			s.lastErr = err
		}
	}
}

// MayContain reports whether identity may have been added. False is
// definitive.
func (s *SeenFilter) MayContain(identity string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.filter.TestString(identity)
}

func (s *SeenFilter) syncLocked() error {
	if s.mmap == nil {
		return nil
	}
	data, err := s.filter.MarshalBinary()
	if err != nil {
		return fmt.Errorf("marshal bloom filter: %w", err)
	}
	copy(s.mmap, data)
	if err := s.mmap.Flush(); err != nil {
		return fmt.Errorf("flush mmap: %w", err)
	}
	s.pending = 0
	return nil
}

// Close flushes the filter and removes its backing file. It is safe to call
// more than once.
func (s *SeenFilter) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var errs []error
	if s.lastErr != nil {
		errs = append(errs, s.lastErr)
		s.lastErr = nil
	}
	if s.mmap != nil {
		if s.pending > 0 {
			if err := s.syncLocked(); err != nil {
				errs = append(errs, err)
			}
		}
		if err := s.mmap.Unmap(); err != nil {
			errs = append(errs, fmt.Errorf("unmap: %w", err))
		}
		s.mmap = nil
	}
	if s.file != nil {
		if err := s.file.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close file: %w", err))
		}
		s.file = nil
	}
	if s.path != "" {
		if err := os.Remove(s.path); err != nil && !errors.Is(err, os.ErrNotExist) {
			errs = append(errs, fmt.Errorf("remove temp file: %w", err))
		}
		s.path = ""
	}

	if len(errs) > 0 {
		return fmt.Errorf("close seen filter: %w", errors.Join(errs...))
	}
	return nil
}
