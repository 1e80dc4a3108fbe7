package orchestrator

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"coursechat/internal/domain"
	"coursechat/internal/generator"
	"coursechat/internal/session"
	"coursechat/internal/tools"
)

const systemPrompt = `You are an AI assistant specialized in course materials and educational content. You have a search tool for finding specific course information.

Tool usage:
- Use the search tool only for questions about specific course content or detailed educational materials.
- At most one search per question.
- If a search returns nothing relevant, say so plainly instead of guessing.

Answer general knowledge questions from your own knowledge without searching. Keep answers brief and educational, with no meta-commentary about the search process.`

// Answer is the outcome of one successful turn.
type Answer struct {
	Text      string
	Sources   []string
	SessionID string
}

// Orchestrator drives one query turn: prompt assembly, generation, an
// optional tool round, response assembly and history bookkeeping.
type Orchestrator struct {
	gen      generator.Generator
	registry *tools.Registry
	sessions *session.Store
	log      *zap.Logger

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func New(gen generator.Generator, registry *tools.Registry, sessions *session.Store, log *zap.Logger) *Orchestrator {
	if log == nil {
		log = zap.NewNop()
	}
	return &Orchestrator{
		gen:      gen,
		registry: registry,
		sessions: sessions,
		log:      log,
		locks:    make(map[string]*sync.Mutex),
	}
}

// Query runs one turn. An empty sessionID starts a new session whose id is
// returned in the Answer. Turns on the same session serialize; distinct
// sessions run in parallel. A failed turn leaves session history untouched,
// so an identical retry replays deterministically.
func (o *Orchestrator) Query(ctx context.Context, sessionID, query string) (Answer, error) {
	if sessionID == "" {
		sessionID = o.sessions.NewID()
	}
	lock := o.sessionLock(sessionID)
	lock.Lock()
	defer lock.Unlock()

	messages := composeMessages(o.sessions.Get(sessionID), query)

	reply, err := o.gen.Generate(ctx, generator.Request{
		System:   systemPrompt,
		Messages: messages,
		Tools:    o.registry.Definitions(),
	})
	if err != nil {
		o.log.Error("generation failed", zap.String("session", sessionID), zap.Error(err))
		return Answer{}, fmt.Errorf("generation failed: %w", err)
	}

	var sources []string
	text := reply.Text
	if reply.ToolCall != nil {
		text, sources, err = o.runToolRound(ctx, messages, reply)
		if err != nil {
			o.log.Error("tool round failed", zap.String("session", sessionID), zap.Error(err))
			return Answer{}, err
		}
	}

	o.sessions.Append(sessionID, domain.Exchange{Query: query, Answer: text})
	return Answer{Text: text, Sources: sources, SessionID: sessionID}, nil
}

// runToolRound executes the generator's requested tool and runs the final
// generation with the tool output included. The second reply's text is
// taken as final; a further tool request in the same turn is not
// supported.
func (o *Orchestrator) runToolRound(ctx context.Context, messages []generator.Message, reply generator.Reply) (string, []string, error) {
	call := reply.ToolCall
	tool, ok := o.registry.Get(call.Name)
	if !ok {
		return "", nil, fmt.Errorf("generator requested unknown tool %q", call.Name)
	}
	result, err := tool.Execute(call.Arguments)
	if err != nil {
		return "", nil, fmt.Errorf("tool %s: %w", call.Name, err)
	}
	o.log.Debug("tool executed",
		zap.String("tool", call.Name),
		zap.Int("sources", len(result.Sources)))

	messages = append(messages,
		generator.Message{Role: generator.RoleAssistant, Content: reply.Text, ToolCall: call},
		generator.Message{Role: generator.RoleUser, ToolResult: &generator.ToolResult{
			CallID:  call.ID,
			Content: result.Text,
		}},
	)
	final, err := o.gen.Generate(ctx, generator.Request{
		System:   systemPrompt,
		Messages: messages,
	})
	if err != nil {
		return "", nil, fmt.Errorf("final generation failed: %w", err)
	}
	return final.Text, result.Sources, nil
}

func composeMessages(history []domain.Exchange, query string) []generator.Message {
	messages := make([]generator.Message, 0, 2*len(history)+1)
	for _, exchange := range history {
		messages = append(messages,
			generator.Message{Role: generator.RoleUser, Content: exchange.Query},
			generator.Message{Role: generator.RoleAssistant, Content: exchange.Answer},
		)
	}
	return append(messages, generator.Message{Role: generator.RoleUser, Content: query})
}

func (o *Orchestrator) sessionLock(id string) *sync.Mutex {
	o.mu.Lock()
	defer o.mu.Unlock()
	lock, ok := o.locks[id]
	if !ok {
		lock = &sync.Mutex{}
		o.locks[id] = lock
	}
	return lock
}
