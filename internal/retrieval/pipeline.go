// Package retrieval implements Corral's question-answering pipeline.
//
// Given a natural-language query it assembles a token-bounded context
// from three sources — live project-context rows, keyword-matched
// tasks, and vector-nearest knowledge chunks — and forwards it to a
// chat model. The pipeline's contract is "always returns text": every
// upstream or store failure degrades to a string the caller can show.
package retrieval

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/HendryAvila/corral/internal/store"
)

// Embedder turns text into a fixed-dimension vector.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// Chatter produces a chat completion from a system + user message pair.
type Chatter interface {
	Complete(ctx context.Context, system, user string) (string, error)
}

// NoContextAnswer is returned when no slice contributed any context.
// The chat model is not called in that case.
const NoContextAnswer = "No relevant information found in project context, tasks, or the knowledge base."

const systemInstruction = "You are the knowledge assistant for a multi-agent " +
	"development swarm. Answer the question using ONLY the supplied context. " +
	"If the context does not contain the answer, say so plainly."

// sliceLimit caps how many entries each source may contribute.
const sliceLimit = 5

// truncationMarker flags that a slice was cut off by the token budget.
const truncationMarker = "[... truncated: context budget reached]"

// Options configures a Pipeline.
type Options struct {
	// MaxContextTokens is the soft context budget, approximated by
	// word count. It is not an exact model-token limit.
	MaxContextTokens int

	// Timeout bounds each embedding and chat call.
	Timeout time.Duration
}

// Pipeline answers queries against the shared store.
type Pipeline struct {
	store    *store.Store
	embedder Embedder
	chatter  Chatter
	opts     Options
}

// New creates a Pipeline. embedder and chatter may be nil, in which
// case the knowledge slice is skipped and synthesis degrades to a
// descriptive message.
func New(s *store.Store, embedder Embedder, chatter Chatter, opts Options) *Pipeline {
	if opts.MaxContextTokens <= 0 {
		opts.MaxContextTokens = 2000
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 30 * time.Second
	}
	return &Pipeline{store: s, embedder: embedder, chatter: chatter, opts: opts}
}

// Answer runs the full pipeline for a query. It never returns an
// error: store failures degrade the affected slice, upstream failures
// become descriptive text.
func (p *Pipeline) Answer(ctx context.Context, query string) string {
	live := p.liveContextSlice()
	tasks := p.liveTaskSlice(query)
	chunks := p.knowledgeSlice(ctx, query)

	assembled, entries := assemble(live, tasks, chunks, p.opts.MaxContextTokens)
	if entries == 0 {
		return NoContextAnswer
	}

	if p.chatter == nil {
		return "Chat model not configured. Relevant context:\n\n" + assembled
	}

	callCtx, cancel := context.WithTimeout(ctx, p.opts.Timeout)
	defer cancel()

	prompt := fmt.Sprintf("Context:\n%s\nQuestion: %s", assembled, query)
	answer, err := p.chatter.Complete(callCtx, systemInstruction, prompt)
	if err != nil {
		return fmt.Sprintf("The answer could not be synthesized (chat service error: %v). Relevant context was found:\n\n%s", err, assembled)
	}
	return answer
}

// ─── Slices ──────────────────────────────────────────────────────────────────

// liveContextSlice fetches project-context rows updated after the last
// indexing pass. Store errors degrade the slice to empty.
func (p *Pipeline) liveContextSlice() []string {
	since, err := p.store.LastIndexedAt()
	if err != nil {
		log.Printf("WARNING: retrieval: last indexed timestamp: %v", err)
		return nil
	}
	if since == "" {
		// No indexing pass yet — every row is live.
		since = "1970-01-01 00:00:00"
	}

	entries, err := p.store.ContextUpdatedSince(since, sliceLimit)
	if err != nil {
		log.Printf("WARNING: retrieval: live context slice: %v", err)
		return nil
	}

	rendered := make([]string, 0, len(entries))
	for _, e := range entries {
		line := fmt.Sprintf("- %s: %s", e.Key, e.Value)
		if e.Description != "" {
			line += fmt.Sprintf(" (%s)", e.Description)
		}
		rendered = append(rendered, line)
	}
	return rendered
}

// liveTaskSlice keyword-matches tasks against the query tokens.
// Skipped entirely when the query has no usable tokens.
func (p *Pipeline) liveTaskSlice(query string) []string {
	tokens := queryTokens(query)
	if len(tokens) == 0 {
		return nil
	}

	tasks, err := p.store.SearchTasks(tokens, sliceLimit)
	if err != nil {
		log.Printf("WARNING: retrieval: task slice: %v", err)
		return nil
	}

	rendered := make([]string, 0, len(tasks))
	for _, t := range tasks {
		assignee := "unassigned"
		if t.AssignedTo != nil {
			assignee = *t.AssignedTo
		}
		rendered = append(rendered, fmt.Sprintf(
			"- [%s] %s (%s): %s", t.Status, t.Title, assignee, t.Description,
		))
	}
	return rendered
}

// knowledgeSlice embeds the query and fetches the nearest indexed
// chunks. Skipped when the index is empty or embedding is unavailable.
func (p *Pipeline) knowledgeSlice(ctx context.Context, query string) []string {
	if p.embedder == nil {
		return nil
	}

	n, err := p.store.CountChunks()
	if err != nil {
		log.Printf("WARNING: retrieval: knowledge slice: %v", err)
		return nil
	}
	if n == 0 {
		return nil
	}

	callCtx, cancel := context.WithTimeout(ctx, p.opts.Timeout)
	defer cancel()

	vec, err := p.embedder.Embed(callCtx, query)
	if err != nil {
		log.Printf("WARNING: retrieval: embed query: %v", err)
		return nil
	}

	chunks, err := p.store.NearestChunks(vec, sliceLimit)
	if err != nil {
		log.Printf("WARNING: retrieval: nearest chunks: %v", err)
		return nil
	}

	rendered := make([]string, 0, len(chunks))
	for _, c := range chunks {
		src := c.SourceType
		if c.SourceRef != "" {
			src += "/" + c.SourceRef
		}
		rendered = append(rendered, fmt.Sprintf("- (%s) %s", src, c.Text))
	}
	return rendered
}

// ─── Assembly ────────────────────────────────────────────────────────────────

// assemble concatenates the slices as labeled sections under the token
// budget. Token count is approximated by word count. Slices are
// consumed in precedence order — live context, then tasks, then
// indexed knowledge — so live data wins when the budget runs out. The
// moment an entry would cross the budget the slice stops and a
// truncation marker is inserted; later slices with entries contribute
// only the marker.
func assemble(live, tasks, chunks []string, budget int) (rendered string, entries int) {
	var b strings.Builder
	used := 0

	sections := []struct {
		label   string
		entries []string
	}{
		{"Live Project Context", live},
		{"Related Tasks", tasks},
		{"Knowledge Base", chunks},
	}

	for _, sec := range sections {
		if len(sec.entries) == 0 {
			continue
		}
		fmt.Fprintf(&b, "## %s\n", sec.label)
		for _, entry := range sec.entries {
			words := len(strings.Fields(entry))
			if used+words > budget {
				b.WriteString(truncationMarker + "\n")
				used = budget // budget exhausted for all later slices
				break
			}
			used += words
			b.WriteString(entry + "\n")
			entries++
		}
		b.WriteString("\n")
	}

	return b.String(), entries
}

// queryTokens splits a query into lowercase words longer than 2
// characters, stripping punctuation at word edges.
func queryTokens(query string) []string {
	var tokens []string
	for _, word := range strings.Fields(strings.ToLower(query)) {
		word = strings.TrimFunc(word, func(r rune) bool {
			return !('a' <= r && r <= 'z' || '0' <= r && r <= '9')
		})
		if len(word) > 2 {
			tokens = append(tokens, word)
		}
	}
	return tokens
}
