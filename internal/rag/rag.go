// Package rag orchestrates a grounded answer: pick topics for the
// query, retrieve text chunks and image descriptions from their
// collections, and prompt the inference model with the retrieved
// context. When nothing grounds the query the engine either falls back
// to general knowledge or declines, depending on the caller.
package rag

import (
	"context"
	"fmt"
	"net/url"
	"regexp"
	"sort"
	"strings"

	"github.com/rs/zerolog/log"

	"topic-rag/internal/models"
	"topic-rag/internal/session"
	"topic-rag/internal/storage"
	"topic-rag/internal/vectorstore"
)

// TopicDirectory is the registry surface the engine needs.
type TopicDirectory interface {
	Exists(ctx context.Context, topic string) (bool, error)
	Descriptions(ctx context.Context) (map[string]string, error)
}

// Completer produces a completion for a single prompt.
type Completer interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

// Embedder turns text into a query vector.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// topicListRe matches the selector's expected reply, a single-quoted
// list like ['a', 'b'].
var topicListRe = regexp.MustCompile(`\[\s*(?:'[^']*'(?:\s*,\s*'[^']*')*)?\s*\]`)

var topicItemRe = regexp.MustCompile(`'([^']*)'`)

type Engine struct {
	topics   TopicDirectory
	llm      Completer
	embedder Embedder
	store    vectorstore.Store
	session  *session.Session
	files    *storage.Store
	topK     int
}

func NewEngine(topics TopicDirectory, llm Completer, embedder Embedder, store vectorstore.Store, sess *session.Session, files *storage.Store, topK int) *Engine {
	return &Engine{
		topics:   topics,
		llm:      llm,
		embedder: embedder,
		store:    store,
		session:  sess,
		files:    files,
		topK:     topK,
	}
}

// Query answers the user's query in the context of the running
// conversation. An explicit topic list bypasses topic selection. With
// allowFallback false the engine declines instead of answering from
// general knowledge when no document content matches.
func (e *Engine) Query(ctx context.Context, query string, topics []string, allowFallback bool) (string, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return "", fmt.Errorf("empty query")
	}
	e.session.Add(models.RoleUser, query)

	if len(topics) == 0 {
		topics = e.selectTopics(ctx)
	}
	known := e.filterKnown(ctx, topics)

	if len(known) == 0 {
		return e.answerWithoutContext(ctx, query, allowFallback)
	}

	texts, images := e.retrieve(ctx, query, known)
	if len(texts) == 0 && len(images) == 0 {
		return e.answerWithoutContext(ctx, query, allowFallback)
	}

	prompt := fmt.Sprintf(models.AnswerPromptTemplate,
		e.formatContext(texts, images), e.session.Format(), query)
	answer, err := e.llm.Complete(ctx, prompt)
	if err != nil {
		return "", fmt.Errorf("failed to generate answer: %w", err)
	}
	e.session.Add(models.RoleAssistant, answer)
	return answer, nil
}

// ClearHistory drops the conversation state.
func (e *Engine) ClearHistory() {
	e.session.Clear()
}

// History exposes the retained conversation turns.
func (e *Engine) History() []models.Message {
	return e.session.History()
}

// selectTopics asks the model which topics ground the latest query.
// Any failure, a malformed reply included, degrades to the general
// sentinel so the conversation keeps going.
func (e *Engine) selectTopics(ctx context.Context) []string {
	descriptions, err := e.topics.Descriptions(ctx)
	if err != nil {
		log.Error().Err(err).Msg("failed to load topic descriptions")
		return []string{models.GeneralTopic}
	}
	if len(descriptions) == 0 {
		return []string{models.GeneralTopic}
	}

	prompt := fmt.Sprintf(models.TopicSelectorPromptTemplate,
		e.session.Format(), formatDescriptions(descriptions))
	reply, err := e.llm.Complete(ctx, prompt)
	if err != nil {
		log.Error().Err(err).Msg("topic selection failed")
		return []string{models.GeneralTopic}
	}
	return parseTopicList(reply)
}

// parseTopicList extracts topic names from the selector's reply. A
// reply without a recognizable list yields the general sentinel.
func parseTopicList(reply string) []string {
	list := topicListRe.FindString(reply)
	if list == "" {
		log.Warn().Str("reply", reply).Msg("unparseable topic selection")
		return []string{models.GeneralTopic}
	}
	var topics []string
	for _, m := range topicItemRe.FindAllStringSubmatch(list, -1) {
		if m[1] != "" {
			topics = append(topics, m[1])
		}
	}
	if len(topics) == 0 {
		return []string{models.GeneralTopic}
	}
	return topics
}

// filterKnown keeps the selected topics that still exist. The general
// sentinel and topics deleted since selection are dropped.
func (e *Engine) filterKnown(ctx context.Context, topics []string) []string {
	var known []string
	for _, topic := range topics {
		if topic == models.GeneralTopic {
			continue
		}
		exists, err := e.topics.Exists(ctx, topic)
		if err != nil {
			log.Error().Err(err).Str("topic", topic).Msg("failed to check topic")
			continue
		}
		if exists {
			known = append(known, topic)
		} else {
			log.Warn().Str("topic", topic).Msg("selected topic no longer exists")
		}
	}
	return known
}

// retrieve embeds the query once and collects the top text and image
// records of every topic. A topic that errors is skipped.
func (e *Engine) retrieve(ctx context.Context, query string, topics []string) ([]models.Payload, []models.Payload) {
	vector, err := e.embedder.Embed(ctx, query)
	if err != nil {
		log.Error().Err(err).Msg("failed to embed query")
		return nil, nil
	}

	var texts, images []models.Payload
	for _, topic := range topics {
		t, err := e.store.Query(ctx, topic, vector, e.topK,
			map[string]string{"type": models.TypeText})
		if err != nil {
			log.Error().Err(err).Str("topic", topic).Msg("text retrieval failed")
			continue
		}
		texts = append(texts, t...)

		i, err := e.store.Query(ctx, topic, vector, e.topK,
			map[string]string{"type": models.TypeImage})
		if err != nil {
			log.Error().Err(err).Str("topic", topic).Msg("image retrieval failed")
			continue
		}
		images = append(images, i...)
	}
	return texts, images
}

// answerWithoutContext handles the no-grounding regimes: the canned
// refusal when fallback is off, general knowledge otherwise.
func (e *Engine) answerWithoutContext(ctx context.Context, query string, allowFallback bool) (string, error) {
	if !allowFallback {
		e.session.Add(models.RoleAssistant, models.NoInformationFound)
		return models.NoInformationFound, nil
	}
	prompt := fmt.Sprintf(models.GeneralPromptTemplate, e.session.Format(), query)
	answer, err := e.llm.Complete(ctx, prompt)
	if err != nil {
		return "", fmt.Errorf("failed to generate answer: %w", err)
	}
	e.session.Add(models.RoleAssistant, answer)
	return answer, nil
}

// formatContext renders retrieved records for the answer prompt. Every
// chunk carries a markdown link to its source file and every image a
// renderable image link above its description.
func (e *Engine) formatContext(texts, images []models.Payload) string {
	var b strings.Builder
	if len(texts) > 0 {
		b.WriteString("<TEXT CHUNKS>\n")
		for _, p := range texts {
			fmt.Fprintf(&b, "Source: [%s](%s)\n%s\n\n", p.Source, e.citationURL(p.FilePath), p.Content)
		}
	}
	if len(images) > 0 {
		b.WriteString("<IMAGE DESCRIPTIONS>\n")
		for _, p := range images {
			fmt.Fprintf(&b, "![%s](%s)\nDescription: %s\n\n", p.Source, e.citationURL(p.FilePath), p.Content)
		}
	}
	return b.String()
}

// citationURL turns a stored relative path into a servable URL under
// the upload root, escaping each path segment.
func (e *Engine) citationURL(relPath string) string {
	segments := strings.Split(relPath, "/")
	escaped := make([]string, len(segments))
	for i, s := range segments {
		escaped[i] = url.PathEscape(s)
	}
	return "/" + e.files.Base() + "/" + strings.Join(escaped, "/")
}

func formatDescriptions(descriptions map[string]string) string {
	names := make([]string, 0, len(descriptions))
	for name := range descriptions {
		names = append(names, name)
	}
	sort.Strings(names)
	var b strings.Builder
	for _, name := range names {
		fmt.Fprintf(&b, "- %s: %s\n", name, descriptions[name])
	}
	return b.String()
}
