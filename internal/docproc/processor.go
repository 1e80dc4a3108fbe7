package docproc

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"coursechat/internal/domain"
)

// ErrMalformedDocument marks a document that cannot be parsed into a
// course. Callers skip the document and continue with the rest of the
// batch.
var ErrMalformedDocument = errors.New("malformed course document")

// Processor parses raw course documents and splits lesson bodies into
// overlapping, sentence-aligned chunks.
type Processor struct {
	chunkSize    int
	chunkOverlap int
	sentenceRe   *regexp.Regexp
	lessonRe     *regexp.Regexp
}

// NewProcessor creates a Processor producing chunks of at most chunkSize
// characters with chunkOverlap characters shared between neighbors.
func NewProcessor(chunkSize, chunkOverlap int) *Processor {
	if chunkSize <= 0 {
		chunkSize = 800
	}
	if chunkOverlap < 0 {
		chunkOverlap = 0
	}
	return &Processor{
		chunkSize:    chunkSize,
		chunkOverlap: chunkOverlap,
		sentenceRe:   regexp.MustCompile(`(?m)(?U)([^.!?]+[.!?])`),
		lessonRe:     regexp.MustCompile(`^Lesson\s+(\d+):\s*(.*)$`),
	}
}

// section is a contiguous run of body text belonging to one lesson, or to
// the course preamble when lesson is nil.
type section struct {
	lesson *domain.Lesson
	body   []string
}

// Process parses one raw document into its course metadata and ordered
// chunks. name identifies the document in error messages only.
func (p *Processor) Process(name, content string) (domain.Course, []domain.CourseChunk, error) {
	lines := strings.Split(content, "\n")

	course, rest, err := p.parseHeader(name, lines)
	if err != nil {
		return domain.Course{}, nil, err
	}

	sections := p.parseSections(rest, &course)

	var chunks []domain.CourseChunk
	for _, sec := range sections {
		text := strings.TrimSpace(strings.Join(sec.body, "\n"))
		if text == "" {
			continue
		}
		var lessonNumber *int
		if sec.lesson != nil {
			n := sec.lesson.Number
			lessonNumber = &n
		}
		for _, window := range p.packWindows(p.splitSentences(text)) {
			chunks = append(chunks, domain.CourseChunk{
				Text:         contextHeader(course.Title, lessonNumber) + window,
				CourseTitle:  course.Title,
				LessonNumber: lessonNumber,
				ChunkIndex:   len(chunks),
			})
		}
	}
	return course, chunks, nil
}

// parseHeader consumes the leading header block and returns the remaining
// lines. The title line is mandatory.
func (p *Processor) parseHeader(name string, lines []string) (domain.Course, []string, error) {
	var course domain.Course
	i := 0
	for ; i < len(lines); i++ {
		line := strings.TrimSpace(lines[i])
		switch {
		case line == "":
			continue
		case strings.HasPrefix(line, "Course Title:"):
			course.Title = strings.TrimSpace(strings.TrimPrefix(line, "Course Title:"))
		case strings.HasPrefix(line, "Course Link:"):
			course.Link = strings.TrimSpace(strings.TrimPrefix(line, "Course Link:"))
		case strings.HasPrefix(line, "Course Instructor:"):
			course.Instructor = strings.TrimSpace(strings.TrimPrefix(line, "Course Instructor:"))
		default:
			// first non-header line ends the header block
			if course.Title == "" {
				return domain.Course{}, nil, fmt.Errorf("%w: %s: missing Course Title line", ErrMalformedDocument, name)
			}
			return course, lines[i:], nil
		}
	}
	if course.Title == "" {
		return domain.Course{}, nil, fmt.Errorf("%w: %s: missing Course Title line", ErrMalformedDocument, name)
	}
	return course, nil, nil
}

// parseSections walks the body, starting a new section at each
// "Lesson N: <title>" marker and recording lesson metadata on the course.
func (p *Processor) parseSections(lines []string, course *domain.Course) []section {
	var sections []section
	current := section{}
	flush := func() {
		if current.lesson != nil || len(current.body) > 0 {
			sections = append(sections, current)
		}
	}
	for i := 0; i < len(lines); i++ {
		line := strings.TrimSpace(lines[i])
		if m := p.lessonRe.FindStringSubmatch(line); m != nil {
			flush()
			number, _ := strconv.Atoi(m[1])
			lesson := domain.Lesson{Number: number, Title: strings.TrimSpace(m[2])}
			// an optional link line may directly follow the marker
			if i+1 < len(lines) {
				next := strings.TrimSpace(lines[i+1])
				if strings.HasPrefix(next, "Lesson Link:") {
					lesson.Link = strings.TrimSpace(strings.TrimPrefix(next, "Lesson Link:"))
					i++
				}
			}
			course.Lessons = append(course.Lessons, lesson)
			current = section{lesson: &lesson}
			continue
		}
		current.body = append(current.body, lines[i])
	}
	flush()
	return sections
}

// splitSentences breaks text on sentence boundaries, keeping any trailing
// run without terminal punctuation as a final sentence.
func (p *Processor) splitSentences(text string) []string {
	var sentences []string
	last := 0
	for _, loc := range p.sentenceRe.FindAllStringIndex(text, -1) {
		sentences = append(sentences, strings.TrimSpace(text[loc[0]:loc[1]]))
		last = loc[1]
	}
	if tail := strings.TrimSpace(text[last:]); tail != "" {
		sentences = append(sentences, tail)
	}
	return sentences
}

// packWindows joins sentences into windows of at most chunkSize
// characters. Consecutive windows share trailing sentences totalling at
// most chunkOverlap characters. A sentence longer than chunkSize forms its
// own window.
func (p *Processor) packWindows(sentences []string) []string {
	var windows []string
	i := 0
	for i < len(sentences) {
		j := i
		length := 0
		for j < len(sentences) {
			add := len(sentences[j])
			if length > 0 {
				add++ // joining space
			}
			if length+add > p.chunkSize && length > 0 {
				break
			}
			length += add
			j++
		}
		windows = append(windows, strings.Join(sentences[i:j], " "))
		if j >= len(sentences) {
			break
		}
		// walk back from the window end collecting the overlap
		k := j
		back := 0
		for k > i {
			add := len(sentences[k-1])
			if back > 0 {
				add++
			}
			if back+add > p.chunkOverlap {
				break
			}
			back += add
			k--
		}
		if k <= i {
			k = i + 1
		}
		i = k
	}
	return windows
}

func contextHeader(courseTitle string, lessonNumber *int) string {
	if lessonNumber == nil {
		return fmt.Sprintf("Course %s content: ", courseTitle)
	}
	return fmt.Sprintf("Course %s Lesson %d content: ", courseTitle, *lessonNumber)
}
