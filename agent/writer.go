package agent

import (
	"context"
	"fmt"
	"unicode/utf8"

	"github.com/hupe1980/campaignmesh/core"
	"github.com/hupe1980/campaignmesh/graph"
)

// Content types understood by the writer.
const (
	ContentTweet    = "tweet"
	ContentBlogPost = "blog_post"
)

// DraftPlaceholder is the body of every generated draft.
const DraftPlaceholder = "[Generated content based on strategy will go here]"

// DraftStatus is the status of freshly generated content.
const DraftStatus = "draft"

// ContentSpec describes the shape of one content type. Zero length bounds
// are unbounded.
type ContentSpec struct {
	MaxLength      int      `json:"max_length,omitempty"`
	MinLength      int      `json:"min_length,omitempty"`
	Format         string   `json:"format"`
	RequiredFields []string `json:"required_fields"`
}

// ContentSpecs is the writer's content-type table.
var ContentSpecs = map[string]ContentSpec{
	ContentTweet: {
		MaxLength:      280,
		Format:         "text",
		RequiredFields: []string{"text", "hashtags"},
	},
	ContentBlogPost: {
		MinLength:      1000,
		Format:         "markdown",
		RequiredFields: []string{"title", "content", "meta_description"},
	},
}

// Check validates a draft body against the content type rules. fields lists the fields
// present in the draft.
func (cs ContentSpec) Check(body string, fields map[string]bool) error {
	n := utf8.RuneCountInString(body)
	if cs.MaxLength > 0 && n > cs.MaxLength {
		return fmt.Errorf("content too long: %d > %d characters", n, cs.MaxLength)
	}
	if cs.MinLength > 0 && n < cs.MinLength {
		return fmt.Errorf("content too short: %d < %d characters", n, cs.MinLength)
	}
	for _, f := range cs.RequiredFields {
		if !fields[f] {
			return fmt.Errorf("missing required field %q", f)
		}
	}
	return nil
}

// Writer drafts content for a strategy.
type Writer struct {
	BaseAgent
	tweets []core.ContentDraft
}

// NewWriter creates the writer agent.
func NewWriter(d core.Dispatcher, optFns ...func(o *Options)) *Writer {
	opts := defaultOptions()
	for _, fn := range optFns {
		fn(&opts)
	}
	return &Writer{BaseAgent: NewBaseAgent(graph.Writer, d, opts)}
}

// GenerateContent returns a draft of contentType for strategy.
func (w *Writer) GenerateContent(strategy core.Strategy, contentType string) core.ContentDraft {
	return core.ContentDraft{
		Type:         contentType,
		Content:      DraftPlaceholder,
		StrategyUsed: strategy,
		Status:       DraftStatus,
	}
}

// Tweets returns a copy of the latest tweet drafts.
func (w *Writer) Tweets() []core.ContentDraft {
	out := make([]core.ContentDraft, len(w.tweets))
	copy(out, w.tweets)
	return out
}

// Contribute implements core.ResultContributor.
func (w *Writer) Contribute(r *core.WorkflowResult) {
	r.Tweets = w.Tweets()
}

// Reset discards the tweet snapshot.
func (w *Writer) Reset() { w.tweets = nil }

// Act handles content requests. An empty content type means a tweet.
func (w *Writer) Act(ctx context.Context, body core.TaskBody) (core.ActResult, error) {
	switch b := body.(type) {
	case core.ContentRequest:
		contentType := b.ContentType
		if contentType == "" {
			contentType = ContentTweet
		}
		draft := w.GenerateContent(b.Strategy, contentType)
		if contentType == ContentTweet {
			w.tweets = append(w.tweets, draft)
		}

		if err := w.SendMessage(ctx, graph.Planner, core.NewMessage(w.name, core.TaskResult{
			TaskType: core.TaskContentRequest,
			Status:   core.StatusSuccess,
			Content:  &draft,
		})); err != nil {
			return core.ActResult{Status: core.StatusError, Message: err.Error()}, err
		}
		w.LogEvent("content_generated", map[string]any{"content_type": contentType})
		return core.ActResult{Status: core.StatusSuccess, Message: "Content generated"}, nil
	case core.GoalTask, core.Subtask, core.ResearchRequest, core.ComprehensiveResearchTask,
		core.StrategyRequest, core.ComprehensiveStrategyRequest, core.FeedbackTask:
		return core.ActResult{Status: core.StatusError, Message: "Invalid task type"}, nil
	default:
		return core.ActResult{}, core.MalformedPayloadError(w.name, core.KindTask, fmt.Sprintf("unexpected task body %T", body))
	}
}

// ReceiveMessage implements core.Agent.
func (w *Writer) ReceiveMessage(ctx context.Context, sender string, msg core.Message) error {
	switch m := msg.Payload.(type) {
	case core.Task:
		body, err := w.taskBody(m)
		if err != nil {
			return err
		}
		res, err := w.Act(ctx, body)
		if err != nil {
			return err
		}
		if !res.OK() {
			w.invalidTask(sender, body)
		}
		return nil
	case core.ConfigUpdate:
		w.applyConfigUpdate(sender, m)
		return nil
	case core.TaskResult, core.Feedback:
		return nil
	case nil:
		return missingPayload(w.name)
	default:
		return core.MalformedPayloadError(w.name, msg.Kind(), "unsupported payload")
	}
}

var (
	_ core.Agent             = (*Writer)(nil)
	_ core.ResultContributor = (*Writer)(nil)
)
