package ingest

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"coursechat/internal/docproc"
	"coursechat/internal/domain"
	"coursechat/internal/embedding"
	"coursechat/internal/vectorstore"
)

// Loader walks a directory of course documents and feeds them through the
// processor into the vector store. It runs once at startup, before query
// traffic begins.
type Loader struct {
	proc     *docproc.Processor
	store    *vectorstore.Store
	embedder embedding.Embedder
	log      *zap.Logger
}

func NewLoader(proc *docproc.Processor, store *vectorstore.Store, embedder embedding.Embedder, log *zap.Logger) *Loader {
	if log == nil {
		log = zap.NewNop()
	}
	return &Loader{proc: proc, store: store, embedder: embedder, log: log}
}

type parsed struct {
	course domain.Course
	chunks []domain.CourseChunk
}

// LoadDirectory ingests every .txt file under dir. A malformed document is
// skipped with a warning and the rest of the batch continues; a course
// title already present in the catalog is silently left alone. Returns the
// number of courses and chunks ingested.
func (l *Loader) LoadDirectory(dir string) (int, int, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return 0, 0, fmt.Errorf("read documents directory: %w", err)
	}

	var docs []parsed
	var corpus []string
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(strings.ToLower(entry.Name()), ".txt") {
			continue
		}
		path := filepath.Join(dir, entry.Name())
		data, err := os.ReadFile(path)
		if err != nil {
			return 0, 0, fmt.Errorf("read %s: %w", path, err)
		}
		course, chunks, err := l.proc.Process(entry.Name(), string(data))
		if err != nil {
			l.log.Warn("skipping malformed document",
				zap.String("file", entry.Name()), zap.Error(err))
			continue
		}
		docs = append(docs, parsed{course: course, chunks: chunks})
		for _, chunk := range chunks {
			corpus = append(corpus, chunk.Text)
		}
		corpus = append(corpus, course.Title)
		if course.Instructor != "" {
			corpus = append(corpus, course.Instructor)
		}
	}
	if len(docs) == 0 {
		return 0, 0, nil
	}

	if err := l.embedder.Prepare(corpus); err != nil {
		return 0, 0, fmt.Errorf("prepare embedder: %w", err)
	}

	courses, chunks := 0, 0
	for _, doc := range docs {
		if err := l.store.Ingest(doc.course, doc.chunks); err != nil {
			return courses, chunks, fmt.Errorf("ingest %q: %w", doc.course.Title, err)
		}
		courses++
		chunks += len(doc.chunks)
		l.log.Info("ingested course",
			zap.String("title", doc.course.Title),
			zap.Int("lessons", len(doc.course.Lessons)),
			zap.Int("chunks", len(doc.chunks)))
	}
	return courses, chunks, nil
}
