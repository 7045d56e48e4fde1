// Package answer turns a chat request into a reply. It validates the message,
// short-circuits the cooling graph follow-up, picks the product-description
// or general Q&A prompt, retrieves context scoped by the selected category
// and generates the answer with the configured chat model.
//
// Both prompts run through the same retrieve-then-generate pipeline; they
// differ only in their template. An Orchestrator holds no per-request state
// and is safe for concurrent use.
package answer

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/components/prompt"
	"github.com/cloudwego/eino/compose"
	"github.com/cloudwego/eino/schema"

	"github.com/54b3r/refubot-go/internal/budget"
	"github.com/54b3r/refubot-go/internal/catalog"
	"github.com/54b3r/refubot-go/internal/logging"
	"github.com/54b3r/refubot-go/internal/rag"
)

// Kind distinguishes the reply payloads.
type Kind int

const (
	// KindAnswer is a generated, paragraph-formatted answer.
	KindAnswer Kind = iota
	// KindCoolingGraph points at a cooling performance image.
	KindCoolingGraph
)

// Request is one chat turn. Nothing is carried between requests.
type Request struct {
	// Message is the user's text. Required.
	Message string
	// Path is the selected category path, or "" when none is selected.
	Path string
}

// Reply is the outcome of a successful request.
type Reply struct {
	// Kind selects which of the fields below is populated.
	Kind Kind
	// Text is the raw answer including any follow-up question.
	Text string
	// HTML is Text split into <p> paragraphs.
	HTML string
	// Graph is set for KindCoolingGraph.
	Graph *CoolingGraph
}

// Config holds the collaborators of an Orchestrator.
type Config struct {
	// Catalog resolves category paths. Required.
	Catalog *catalog.Tree
	// Retrievers builds the search configuration for a path. Defaults to a
	// factory over Catalog with rag.DefaultTopK.
	Retrievers *rag.Factory
	// Retriever fetches context passages. Required.
	Retriever rag.Retriever
	// ChatModel writes the answers. Required.
	ChatModel model.BaseChatModel
	// MaxContextTokens bounds the rendered prompt. Lowest-ranked passages are
	// dropped to fit. Defaults to budget.DefaultMaxContextTokens.
	MaxContextTokens int
}

// strategy is one prompt variant of the pipeline.
type strategy struct {
	// name labels the strategy in logs.
	name string
	// template is the raw prompt, used for budget estimation.
	template string
	// chain renders the template and calls the chat model.
	chain compose.Runnable[map[string]any, *schema.Message]
}

// Orchestrator answers chat requests.
type Orchestrator struct {
	tree             *catalog.Tree
	retrievers       *rag.Factory
	retriever        rag.Retriever
	maxContextTokens int

	product *strategy
	general *strategy
}

// New validates cfg and compiles both prompt chains.
func New(ctx context.Context, cfg *Config) (*Orchestrator, error) {
	if cfg.Catalog == nil {
		return nil, fmt.Errorf("answer: Catalog must not be nil")
	}
	if cfg.Retriever == nil {
		return nil, fmt.Errorf("answer: Retriever must not be nil")
	}
	if cfg.ChatModel == nil {
		return nil, fmt.Errorf("answer: ChatModel must not be nil")
	}

	retrievers := cfg.Retrievers
	if retrievers == nil {
		retrievers = rag.NewFactory(cfg.Catalog, rag.DefaultTopK)
	}
	maxCtx := cfg.MaxContextTokens
	if maxCtx <= 0 {
		maxCtx = budget.DefaultMaxContextTokens
	}

	product, err := compileStrategy(ctx, "product", productTemplate, cfg.ChatModel)
	if err != nil {
		return nil, err
	}
	general, err := compileStrategy(ctx, "general", generalTemplate, cfg.ChatModel)
	if err != nil {
		return nil, err
	}

	return &Orchestrator{
		tree:             cfg.Catalog,
		retrievers:       retrievers,
		retriever:        cfg.Retriever,
		maxContextTokens: maxCtx,
		product:          product,
		general:          general,
	}, nil
}

// compileStrategy builds the template → chat model chain for one prompt.
func compileStrategy(ctx context.Context, name, tpl string, cm model.BaseChatModel) (*strategy, error) {
	chain := compose.NewChain[map[string]any, *schema.Message]().
		AppendChatTemplate(prompt.FromMessages(schema.FString, schema.UserMessage(tpl))).
		AppendChatModel(cm)

	r, err := chain.Compile(ctx, compose.WithGraphName("refubot_"+name))
	if err != nil {
		return nil, fmt.Errorf("answer: failed to compile %s chain: %w", name, err)
	}
	return &strategy{name: name, template: tpl, chain: r}, nil
}

// Answer runs one request through the pipeline. Errors are ErrEmptyMessage,
// errors wrapping ErrNotFound, or *UpstreamError.
func (o *Orchestrator) Answer(ctx context.Context, req Request) (*Reply, error) {
	msg := strings.TrimSpace(req.Message)
	if msg == "" {
		return nil, ErrEmptyMessage
	}

	if req.Path != "" && isAffirmative(msg) {
		g := NewCoolingGraph(req.Path)
		return &Reply{Kind: KindCoolingGraph, Graph: g}, nil
	}

	var (
		s      *strategy
		input  string
		scoped string
	)
	// The prefix keeps its trailing space, so match it before trimming; a
	// bare "Tell me about " names the empty path.
	if rest, ok := strings.CutPrefix(strings.TrimLeft(req.Message, " \t\r\n"), productPrefix); ok {
		productPath := strings.TrimSpace(rest)
		label := o.tree.LabelOf(productPath)
		if label == "" {
			return nil, fmt.Errorf("%w: %q", ErrUnknownProduct, productPath)
		}
		s, input, scoped = o.product, label, productPath
	} else {
		s, input, scoped = o.general, msg, req.Path
	}

	text, err := o.run(ctx, s, input, o.retrievers.Build(scoped))
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(text) == "" {
		return nil, ErrNoAnswer
	}

	if req.Path != "" && mentionsThermal(msg) {
		text += coolingFollowUp
	}
	return &Reply{Kind: KindAnswer, Text: text, HTML: FormatParagraphs(text)}, nil
}

// run retrieves passages for input under cfg, fits them to the token budget
// and invokes the strategy's chain.
func (o *Orchestrator) run(ctx context.Context, s *strategy, input string, cfg rag.SearchConfig) (string, error) {
	log := logging.FromContext(ctx).With(slog.String("strategy", s.name))

	docs, err := o.retriever.Retrieve(ctx, input, cfg)
	if err != nil {
		return "", &UpstreamError{Stage: StageRetrieval, Err: err}
	}

	passages := make([]string, 0, len(docs))
	for _, d := range docs {
		passages = append(passages, d.Content)
	}
	fixed := []*schema.Message{schema.UserMessage(renderFixed(s.template, input))}
	kept := budget.FitPassages(fixed, passages, o.maxContextTokens)
	if dropped := len(passages) - len(kept); dropped > 0 {
		log.Warn("budget: dropped passages to fit context window",
			slog.Int("dropped", dropped),
			slog.Int("retained", len(kept)),
			slog.Int("max_tokens", o.maxContextTokens),
		)
	}

	log.Debug("answer: generating",
		slog.Int("passages", len(kept)),
		slog.Any("filter", cfg.Filter),
	)

	out, err := s.chain.Invoke(ctx, map[string]any{
		"context": budget.JoinPassages(kept),
		"input":   input,
	})
	if err != nil {
		return "", &UpstreamError{Stage: StageGeneration, Err: err}
	}
	if out == nil {
		return "", nil
	}
	return out.Content, nil
}
