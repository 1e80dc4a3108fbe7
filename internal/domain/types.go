package domain

import "fmt"

// Course is the metadata of one ingested course document. Courses are
// immutable once ingested; the title is the unique key.
type Course struct {
	Title      string
	Link       string
	Instructor string
	Lessons    []Lesson
}

// Lesson is one numbered lesson within a Course.
type Lesson struct {
	Number int
	Title  string
	Link   string
}

// CourseChunk is the unit of content retrieval: a bounded span of lesson
// text prefixed with a context header naming its course and lesson.
// LessonNumber is nil for text that precedes the first lesson marker.
type CourseChunk struct {
	Text         string
	CourseTitle  string
	LessonNumber *int
	ChunkIndex   int
}

// Exchange is one query/answer pair retained in a session's history.
type Exchange struct {
	Query  string
	Answer string
}

// Filter is a conjunctive predicate over chunk provenance. Nil fields are
// omitted from the conjunction; the zero Filter matches everything.
type Filter struct {
	CourseTitle  *string
	LessonNumber *int
}

// Matches reports whether a chunk with the given provenance satisfies the
// filter.
func (f Filter) Matches(courseTitle string, lessonNumber *int) bool {
	if f.CourseTitle != nil && courseTitle != *f.CourseTitle {
		return false
	}
	if f.LessonNumber != nil {
		if lessonNumber == nil || *lessonNumber != *f.LessonNumber {
			return false
		}
	}
	return true
}

// Point is one embedded record in an index: a stable id, its vector and a
// payload carrying the original fields.
type Point struct {
	ID      string
	Vector  []float64
	Payload map[string]any
}

// ScoredPoint is a search hit with its similarity score.
type ScoredPoint struct {
	Point Point
	Score float64
}

// ScoredChunk is a content-search hit mapped back to its chunk.
type ScoredChunk struct {
	Chunk CourseChunk
	Score float64
}

// Source renders the provenance label used in tool results and answer
// source lists: "<course> - Lesson <n>", or just the course title when the
// chunk has no lesson number.
func (c CourseChunk) Source() string {
	if c.LessonNumber == nil {
		return c.CourseTitle
	}
	return fmt.Sprintf("%s - Lesson %d", c.CourseTitle, *c.LessonNumber)
}
