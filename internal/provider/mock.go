package provider

import (
	"context"
	"fmt"
	"hash/fnv"
	"strings"
	"time"

	"github.com/draftforge/api/internal/model"
)

// MockAdapter is the deterministic credential-free backend. It is the sole
// registry entry when no real provider is configured, so the orchestrator
// and queue stay exercisable in development and tests. Identical prompts
// always produce identical output.
type MockAdapter struct{}

func NewMockAdapter() *MockAdapter { return &MockAdapter{} }

func (a *MockAdapter) Name() string { return model.ProviderMock }

func (a *MockAdapter) Configured() bool { return true }

var mockOpeners = []string{
	"Getting this topic right pays off quickly.",
	"Most teams underestimate how much this matters.",
	"There is a straightforward way to approach this.",
	"A few fundamentals carry most of the weight here.",
}

var mockClosers = []string{
	"In conclusion, the fundamentals above cover the ground that matters most.",
	"To sum up, start small, measure the outcome, and iterate from there.",
	"Overall, a consistent approach beats a clever one-off every time.",
}

func (a *MockAdapter) Invoke(ctx context.Context, prompt Prompt, opts Options) (*Completion, error) {
	select {
	case <-ctx.Done():
		return nil, newError(model.ErrorKindTimeout, "request cancelled")
	default:
	}

	h := fnv.New32a()
	h.Write([]byte(prompt.User))
	seed := h.Sum32()

	topic := mockTopic(prompt.User)

	var sb strings.Builder
	sb.WriteString("TITLE: " + topic + "\n")
	sb.WriteString("META: A practical look at " + strings.ToLower(topic) + " with concrete steps you can apply today.\n")
	sb.WriteString("BODY:\n")
	sb.WriteString("# " + topic + "\n\n")
	sb.WriteString(mockOpeners[seed%uint32(len(mockOpeners))] + " ")
	sb.WriteString("This guide walks through " + strings.ToLower(topic) + " from first principles, so you can apply it without guesswork.\n\n")

	sections := []string{"Why It Matters", "Getting Started", "Common Pitfalls"}
	for i, section := range sections {
		sb.WriteString("## " + section + "\n\n")
		for j := 0; j < 2; j++ {
			sb.WriteString(fmt.Sprintf(
				"When it comes to %s, point %d.%d deserves attention. Keep the scope narrow, validate each change, and write down what you learn along the way.\n\n",
				strings.ToLower(topic), i+1, j+1))
		}
	}
	sb.WriteString(mockClosers[seed%uint32(len(mockClosers))] + "\n")

	content := sb.String()
	words := len(strings.Fields(content))
	promptTokens := len(strings.Fields(prompt.System)) + len(strings.Fields(prompt.User))

	return &Completion{
		Content:          content,
		PromptTokens:     promptTokens,
		CompletionTokens: words,
		CostUSD:          0,
		Latency:          time.Millisecond,
	}, nil
}

// mockTopic pulls the topic line out of the rendered prompt so mock output
// stays recognizably tied to the request.
func mockTopic(user string) string {
	for _, line := range strings.Split(user, "\n") {
		line = strings.TrimSpace(line)
		if after, ok := strings.CutPrefix(line, "Topic: "); ok {
			return after
		}
	}
	first := strings.TrimSpace(strings.SplitN(user, "\n", 2)[0])
	if len(first) > 80 {
		first = first[:80]
	}
	if first == "" {
		return "Untitled Draft"
	}
	return first
}
