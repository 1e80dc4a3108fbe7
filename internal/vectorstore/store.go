package vectorstore

import (
	"errors"
	"fmt"
	"sort"
	"sync"

	"coursechat/internal/domain"
	"coursechat/internal/embedding"
)

// ErrCourseNotFound signals that no catalog entry matched a course name
// with enough confidence.
var ErrCourseNotFound = errors.New("no matching course")

// Index is one semantic index backend: it persists embedded points and
// answers filtered nearest-neighbor queries. Implementations must be safe
// for concurrent reads.
type Index interface {
	Upsert(points []domain.Point) error
	Search(vector []float64, filter domain.Filter, limit int) ([]domain.ScoredPoint, error)
	Has(id string) (bool, error)
}

// Options bounds search and course resolution.
type Options struct {
	MaxResults       int
	ResolveThreshold float64
}

// Store combines two independent semantic indexes over one shared
// embedder: a catalog index holding one point per course, used only for
// course-name resolution, and a content index holding one point per chunk,
// used only for content retrieval.
type Store struct {
	catalog  Index
	content  Index
	embedder embedding.Embedder
	opts     Options

	mu     sync.RWMutex
	titles map[string]struct{}
}

// NewStore creates a Store over the given index backends.
func NewStore(catalog, content Index, embedder embedding.Embedder, opts Options) *Store {
	if opts.MaxResults <= 0 {
		opts.MaxResults = 5
	}
	return &Store{
		catalog:  catalog,
		content:  content,
		embedder: embedder,
		opts:     opts,
		titles:   make(map[string]struct{}),
	}
}

// BuildFilter assembles the conjunctive provenance predicate for content
// search. Nil arguments are omitted; both nil matches everything.
func BuildFilter(courseTitle *string, lessonNumber *int) domain.Filter {
	return domain.Filter{CourseTitle: courseTitle, LessonNumber: lessonNumber}
}

// Ingest adds a course and its chunks to the two indexes. A course whose
// title already exists in the catalog is skipped entirely, so repeated
// ingestion of the same document is a no-op. The catalog entry is written
// only after every chunk landed in the content index: it acts as the
// commit marker, so a failure mid-ingest leaves the course absent from
// the catalog and a retry ingests it from scratch.
func (s *Store) Ingest(course domain.Course, chunks []domain.CourseChunk) error {
	id := catalogID(course.Title)
	exists, err := s.catalog.Has(id)
	if err != nil {
		return fmt.Errorf("catalog lookup for %q: %w", course.Title, err)
	}
	if exists {
		return nil
	}

	points := make([]domain.Point, 0, len(chunks))
	for _, chunk := range chunks {
		vec, err := s.embedder.Embed(chunk.Text)
		if err != nil {
			return fmt.Errorf("embed chunk %d of %q: %w", chunk.ChunkIndex, course.Title, err)
		}
		points = append(points, domain.Point{
			ID:      chunkID(chunk),
			Vector:  vec,
			Payload: chunkPayload(chunk),
		})
	}
	if len(points) > 0 {
		if err := s.content.Upsert(points); err != nil {
			return fmt.Errorf("upsert chunks of %q: %w", course.Title, err)
		}
	}

	vec, err := s.embedder.Embed(catalogText(course))
	if err != nil {
		return fmt.Errorf("embed catalog entry %q: %w", course.Title, err)
	}
	err = s.catalog.Upsert([]domain.Point{{
		ID:     id,
		Vector: vec,
		Payload: map[string]any{
			"title":      course.Title,
			"instructor": course.Instructor,
			"link":       course.Link,
		},
	}})
	if err != nil {
		return fmt.Errorf("upsert catalog entry %q: %w", course.Title, err)
	}

	s.mu.Lock()
	s.titles[course.Title] = struct{}{}
	s.mu.Unlock()
	return nil
}

// ResolveCourse maps a free-text course name to the single best-matching
// canonical title. Scores below the configured threshold yield
// ErrCourseNotFound; exact score ties break toward the lexicographically
// smaller title so resolution is deterministic.
func (s *Store) ResolveCourse(nameQuery string) (string, error) {
	vec, err := s.embedder.Embed(nameQuery)
	if err != nil {
		return "", err
	}
	hits, err := s.catalog.Search(vec, domain.Filter{}, 5)
	if err != nil {
		return "", err
	}
	bestTitle := ""
	bestScore := 0.0
	for _, hit := range hits {
		title, _ := hit.Point.Payload["title"].(string)
		if title == "" {
			continue
		}
		if bestTitle == "" || hit.Score > bestScore ||
			(hit.Score == bestScore && title < bestTitle) {
			bestTitle = title
			bestScore = hit.Score
		}
	}
	if bestTitle == "" || bestScore < s.opts.ResolveThreshold {
		return "", fmt.Errorf("%w: %q", ErrCourseNotFound, nameQuery)
	}
	return bestTitle, nil
}

// Search embeds the query and returns up to limit chunks satisfying the
// filter, ordered by descending similarity. Zero-score hits are dropped,
// so an unmatched query yields an empty slice rather than noise.
func (s *Store) Search(query string, filter domain.Filter, limit int) ([]domain.ScoredChunk, error) {
	if limit <= 0 {
		limit = s.opts.MaxResults
	}
	vec, err := s.embedder.Embed(query)
	if err != nil {
		return nil, err
	}
	hits, err := s.content.Search(vec, filter, limit)
	if err != nil {
		return nil, err
	}
	results := make([]domain.ScoredChunk, 0, len(hits))
	for _, hit := range hits {
		if hit.Score <= 0 {
			continue
		}
		results = append(results, domain.ScoredChunk{
			Chunk: chunkFromPayload(hit.Point.Payload),
			Score: hit.Score,
		})
	}
	return results, nil
}

// Analytics reports how many courses this process has ingested and their
// titles, sorted for stable output.
func (s *Store) Analytics() (int, []string) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	titles := make([]string, 0, len(s.titles))
	for title := range s.titles {
		titles = append(titles, title)
	}
	sort.Strings(titles)
	return len(titles), titles
}

func catalogID(title string) string { return "course:" + title }

func chunkID(chunk domain.CourseChunk) string {
	return fmt.Sprintf("%s:%d", chunk.CourseTitle, chunk.ChunkIndex)
}

func catalogText(course domain.Course) string {
	if course.Instructor == "" {
		return course.Title
	}
	return course.Title + " taught by " + course.Instructor
}

func chunkPayload(chunk domain.CourseChunk) map[string]any {
	payload := map[string]any{
		"text":         chunk.Text,
		"course_title": chunk.CourseTitle,
		"chunk_index":  chunk.ChunkIndex,
	}
	if chunk.LessonNumber != nil {
		payload["lesson_number"] = *chunk.LessonNumber
	}
	return payload
}

// chunkFromPayload rebuilds a chunk from an index payload. Numbers arrive
// as float64 after a JSON round trip through a remote backend.
func chunkFromPayload(payload map[string]any) domain.CourseChunk {
	chunk := domain.CourseChunk{}
	if v, ok := payload["text"].(string); ok {
		chunk.Text = v
	}
	if v, ok := payload["course_title"].(string); ok {
		chunk.CourseTitle = v
	}
	if n, ok := payloadInt(payload["chunk_index"]); ok {
		chunk.ChunkIndex = n
	}
	if n, ok := payloadInt(payload["lesson_number"]); ok {
		chunk.LessonNumber = &n
	}
	return chunk
}

func payloadInt(v any) (int, bool) {
	switch n := v.(type) {
	case int:
		return n, true
	case float64:
		return int(n), true
	}
	return 0, false
}
