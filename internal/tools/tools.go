package tools

import (
	"errors"
	"fmt"
	"strings"

	"coursechat/internal/domain"
	"coursechat/internal/generator"
	"coursechat/internal/vectorstore"
)

// Result is the outcome of one tool execution: the text handed back to
// the generator and the provenance labels of whatever the tool surfaced.
// Sources travel with the result value; no tool keeps per-turn state.
type Result struct {
	Text    string
	Sources []string
}

// Tool is one invokable capability with a declared parameter schema.
type Tool interface {
	Definition() generator.ToolDefinition
	Execute(args map[string]any) (Result, error)
}

// Registry is the closed set of tools offered to the generator. Dispatch
// goes by name; an unknown name is a turn-failing error at the call site.
type Registry struct {
	order  []string
	byName map[string]Tool
}

func NewRegistry(tools ...Tool) *Registry {
	r := &Registry{byName: make(map[string]Tool)}
	for _, t := range tools {
		name := t.Definition().Name
		if _, dup := r.byName[name]; dup {
			continue
		}
		r.byName[name] = t
		r.order = append(r.order, name)
	}
	return r
}

// Get looks a tool up by name.
func (r *Registry) Get(name string) (Tool, bool) {
	t, ok := r.byName[name]
	return t, ok
}

// Definitions lists the tool schemas in registration order.
func (r *Registry) Definitions() []generator.ToolDefinition {
	defs := make([]generator.ToolDefinition, 0, len(r.order))
	for _, name := range r.order {
		defs = append(defs, r.byName[name].Definition())
	}
	return defs
}

// searcher is the vector store surface the search tool needs.
type searcher interface {
	ResolveCourse(nameQuery string) (string, error)
	Search(query string, filter domain.Filter, limit int) ([]domain.ScoredChunk, error)
}

// CourseSearch searches course content with optional course and lesson
// narrowing. Course names are resolved semantically before filtering, so
// partial or misphrased names still land on the right course.
type CourseSearch struct {
	store      searcher
	maxResults int
}

func NewCourseSearch(store searcher, maxResults int) *CourseSearch {
	if maxResults <= 0 {
		maxResults = 5
	}
	return &CourseSearch{store: store, maxResults: maxResults}
}

func (t *CourseSearch) Definition() generator.ToolDefinition {
	return generator.ToolDefinition{
		Name:        "search_course_content",
		Description: "Search course materials with smart course name matching and lesson filtering",
		InputSchema: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"query": map[string]any{
					"type":        "string",
					"description": "What to search for in the course content",
				},
				"course_name": map[string]any{
					"type":        "string",
					"description": "Course title (partial matches work, e.g. 'MCP', 'Introduction')",
				},
				"lesson_number": map[string]any{
					"type":        "integer",
					"description": "Specific lesson number to search within (e.g. 1, 2, 3)",
				},
			},
			"required": []string{"query"},
		},
	}
}

// Execute validates the arguments, resolves the course name when given,
// and runs the filtered content search. An unresolvable course is a
// normal result the generator can relay, not an error.
func (t *CourseSearch) Execute(args map[string]any) (Result, error) {
	query, ok := args["query"].(string)
	if !ok || strings.TrimSpace(query) == "" {
		return Result{}, errors.New("search_course_content: missing required parameter 'query'")
	}

	var courseTitle *string
	if raw, present := args["course_name"]; present {
		name, ok := raw.(string)
		if !ok {
			return Result{}, errors.New("search_course_content: parameter 'course_name' must be a string")
		}
		title, err := t.store.ResolveCourse(name)
		if err != nil {
			if errors.Is(err, vectorstore.ErrCourseNotFound) {
				return Result{Text: fmt.Sprintf("No course found matching '%s'", name)}, nil
			}
			return Result{}, err
		}
		courseTitle = &title
	}

	var lessonNumber *int
	if raw, present := args["lesson_number"]; present {
		switch n := raw.(type) {
		case float64: // JSON numbers decode as float64
			v := int(n)
			lessonNumber = &v
		case int:
			v := n
			lessonNumber = &v
		default:
			return Result{}, errors.New("search_course_content: parameter 'lesson_number' must be an integer")
		}
	}

	filter := vectorstore.BuildFilter(courseTitle, lessonNumber)
	hits, err := t.store.Search(query, filter, t.maxResults)
	if err != nil {
		return Result{}, err
	}
	if len(hits) == 0 {
		return Result{Text: emptyMessage(courseTitle, lessonNumber)}, nil
	}

	var blocks []string
	var sources []string
	seen := make(map[string]struct{})
	for _, hit := range hits {
		source := hit.Chunk.Source()
		blocks = append(blocks, fmt.Sprintf("[%s] %s", source, hit.Chunk.Text))
		if _, dup := seen[source]; !dup {
			seen[source] = struct{}{}
			sources = append(sources, source)
		}
	}
	return Result{Text: strings.Join(blocks, "\n\n"), Sources: sources}, nil
}

func emptyMessage(courseTitle *string, lessonNumber *int) string {
	msg := "No relevant content found"
	if courseTitle != nil {
		msg += fmt.Sprintf(" in course '%s'", *courseTitle)
	}
	if lessonNumber != nil {
		msg += fmt.Sprintf(" in lesson %d", *lessonNumber)
	}
	return msg + "."
}
