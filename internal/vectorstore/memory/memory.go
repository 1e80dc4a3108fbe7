package memory

import (
	"sort"
	"sync"

	"coursechat/internal/domain"
)

// Index is an in-memory index using brute-force cosine similarity over
// L2-normalized vectors. It is the default backend and the one exercised
// by the test suite.
type Index struct {
	mu     sync.RWMutex
	points []domain.Point
	byID   map[string]int
}

func NewIndex() *Index {
	return &Index{byID: make(map[string]int)}
}

// Upsert inserts points, replacing any existing point with the same id.
func (x *Index) Upsert(points []domain.Point) error {
	x.mu.Lock()
	defer x.mu.Unlock()
	for _, p := range points {
		if pos, ok := x.byID[p.ID]; ok {
			x.points[pos] = p
			continue
		}
		x.byID[p.ID] = len(x.points)
		x.points = append(x.points, p)
	}
	return nil
}

// Search returns up to limit points satisfying the filter, ordered by
// descending similarity; equal scores order by id so results are stable.
func (x *Index) Search(vector []float64, filter domain.Filter, limit int) ([]domain.ScoredPoint, error) {
	x.mu.RLock()
	defer x.mu.RUnlock()
	if limit <= 0 {
		limit = 5
	}
	hits := make([]domain.ScoredPoint, 0, limit)
	for _, p := range x.points {
		if !matches(filter, p.Payload) {
			continue
		}
		hits = append(hits, domain.ScoredPoint{Point: p, Score: dot(p.Vector, vector)})
	}
	sort.Slice(hits, func(i, j int) bool {
		if hits[i].Score != hits[j].Score {
			return hits[i].Score > hits[j].Score
		}
		return hits[i].Point.ID < hits[j].Point.ID
	})
	if len(hits) > limit {
		hits = hits[:limit]
	}
	return hits, nil
}

// Has reports whether a point with the given id exists.
func (x *Index) Has(id string) (bool, error) {
	x.mu.RLock()
	defer x.mu.RUnlock()
	_, ok := x.byID[id]
	return ok, nil
}

// Len reports the number of stored points.
func (x *Index) Len() int {
	x.mu.RLock()
	defer x.mu.RUnlock()
	return len(x.points)
}

func matches(filter domain.Filter, payload map[string]any) bool {
	title, _ := payload["course_title"].(string)
	var lesson *int
	if n, ok := payload["lesson_number"].(int); ok {
		lesson = &n
	}
	return filter.Matches(title, lesson)
}

func dot(a, b []float64) float64 {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	sum := 0.0
	for i := 0; i < n; i++ {
		sum += a[i] * b[i]
	}
	return sum
}
