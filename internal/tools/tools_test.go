package tools

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"coursechat/internal/domain"
	"coursechat/internal/vectorstore"
)

type fakeStore struct {
	resolved   string
	resolveErr error
	hits       []domain.ScoredChunk
	searchErr  error

	gotName   string
	gotQuery  string
	gotFilter domain.Filter
	gotLimit  int
}

func (f *fakeStore) ResolveCourse(nameQuery string) (string, error) {
	f.gotName = nameQuery
	return f.resolved, f.resolveErr
}

func (f *fakeStore) Search(query string, filter domain.Filter, limit int) ([]domain.ScoredChunk, error) {
	f.gotQuery = query
	f.gotFilter = filter
	f.gotLimit = limit
	return f.hits, f.searchErr
}

func scored(course string, lesson *int, text string, score float64) domain.ScoredChunk {
	return domain.ScoredChunk{
		Chunk: domain.CourseChunk{Text: text, CourseTitle: course, LessonNumber: lesson},
		Score: score,
	}
}

func intPtr(n int) *int { return &n }

func TestExecuteRequiresQuery(t *testing.T) {
	tool := NewCourseSearch(&fakeStore{}, 5)

	_, err := tool.Execute(map[string]any{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "query")

	_, err = tool.Execute(map[string]any{"query": 42})
	require.Error(t, err)

	_, err = tool.Execute(map[string]any{"query": "   "})
	require.Error(t, err)
}

func TestExecuteRejectsBadLessonNumber(t *testing.T) {
	tool := NewCourseSearch(&fakeStore{}, 5)
	_, err := tool.Execute(map[string]any{"query": "x", "lesson_number": "one"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "lesson_number")
}

func TestExecuteUnresolvableCourseIsTextResult(t *testing.T) {
	store := &fakeStore{
		resolveErr: fmt.Errorf("%w: %q", vectorstore.ErrCourseNotFound, "Nonexistent Course"),
	}
	tool := NewCourseSearch(store, 5)

	result, err := tool.Execute(map[string]any{
		"query":       "anything",
		"course_name": "Nonexistent Course",
	})
	require.NoError(t, err)
	assert.Equal(t, "No course found matching 'Nonexistent Course'", result.Text)
	assert.Empty(t, result.Sources)
	assert.Empty(t, store.gotQuery, "search must not run for an unresolved course")
}

func TestExecuteBuildsFilterFromResolvedTitleAndLesson(t *testing.T) {
	store := &fakeStore{
		resolved: "Intro to X",
		hits:     []domain.ScoredChunk{scored("Intro to X", intPtr(1), "body", 0.9)},
	}
	tool := NewCourseSearch(store, 5)

	result, err := tool.Execute(map[string]any{
		"query":         "topic",
		"course_name":   "intro",
		"lesson_number": float64(1),
	})
	require.NoError(t, err)

	assert.Equal(t, "intro", store.gotName)
	assert.Equal(t, "topic", store.gotQuery)
	require.NotNil(t, store.gotFilter.CourseTitle)
	assert.Equal(t, "Intro to X", *store.gotFilter.CourseTitle)
	require.NotNil(t, store.gotFilter.LessonNumber)
	assert.Equal(t, 1, *store.gotFilter.LessonNumber)
	assert.Equal(t, 5, store.gotLimit)

	assert.Equal(t, "[Intro to X - Lesson 1] body", result.Text)
	assert.Equal(t, []string{"Intro to X - Lesson 1"}, result.Sources)
}

func TestExecuteFormatsResultsAndDeduplicatesSources(t *testing.T) {
	store := &fakeStore{hits: []domain.ScoredChunk{
		scored("Intro to X", intPtr(1), "first", 0.9),
		scored("Intro to X", intPtr(1), "second", 0.8),
		scored("Intro to X", nil, "overview", 0.7),
	}}
	tool := NewCourseSearch(store, 5)

	result, err := tool.Execute(map[string]any{"query": "topic"})
	require.NoError(t, err)
	assert.Equal(t,
		"[Intro to X - Lesson 1] first\n\n[Intro to X - Lesson 1] second\n\n[Intro to X] overview",
		result.Text)
	assert.Equal(t, []string{"Intro to X - Lesson 1", "Intro to X"}, result.Sources)
}

func TestExecuteEmptyResultMessageNamesTheFilter(t *testing.T) {
	store := &fakeStore{resolved: "Intro to X"}
	tool := NewCourseSearch(store, 5)

	result, err := tool.Execute(map[string]any{
		"query":         "topic",
		"course_name":   "intro",
		"lesson_number": float64(2),
	})
	require.NoError(t, err)
	assert.Equal(t, "No relevant content found in course 'Intro to X' in lesson 2.", result.Text)
	assert.Empty(t, result.Sources)
}

func TestRegistryDispatch(t *testing.T) {
	tool := NewCourseSearch(&fakeStore{}, 5)
	registry := NewRegistry(tool)

	got, ok := registry.Get("search_course_content")
	require.True(t, ok)
	assert.Equal(t, tool, got)

	_, ok = registry.Get("unknown_tool")
	assert.False(t, ok)

	defs := registry.Definitions()
	require.Len(t, defs, 1)
	assert.Equal(t, "search_course_content", defs[0].Name)
	assert.Contains(t, defs[0].InputSchema["required"], "query")
}
