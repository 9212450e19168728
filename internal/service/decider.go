package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"github.com/maheshrc27/threadflow/internal/models"
	"google.golang.org/api/option"
)

// Decision is whether to answer an incoming reply and with what text.
type Decision struct {
	Reply  bool
	Text   string
	Source string
}

// ReplyContext is everything a Decider may look at.
type ReplyContext struct {
	Persona *models.Persona
	Rules   []*models.AutoReply
	Reply   *models.ThreadReply
}

type Decider interface {
	Decide(ctx context.Context, rc *ReplyContext) (Decision, error)
}

// KeywordDecider answers with the template of the first active rule whose
// keyword appears in the reply, ignoring case.
type KeywordDecider struct{}

func (KeywordDecider) Decide(_ context.Context, rc *ReplyContext) (Decision, error) {
	text := strings.ToLower(rc.Reply.ReplyText)
	for _, rule := range rc.Rules {
		if !rule.IsActive {
			continue
		}
		for _, kw := range rule.TriggerKeywords {
			kw = strings.TrimSpace(kw)
			if kw != "" && strings.Contains(text, strings.ToLower(kw)) {
				return Decision{Reply: true, Text: rule.ResponseTemplate, Source: "keyword"}, nil
			}
		}
	}
	return Decision{}, nil
}

// DeciderChain asks each decider in turn and stops at the first that wants
// to reply. An erroring decider is logged and skipped.
type DeciderChain []Decider

func (c DeciderChain) Decide(ctx context.Context, rc *ReplyContext) (Decision, error) {
	var errs []error
	for _, d := range c {
		decision, err := d.Decide(ctx, rc)
		if err != nil {
			slog.Warn("reply decider failed", "decider", fmt.Sprintf("%T", d), "error", err)
			errs = append(errs, err)
			continue
		}
		if decision.Reply {
			return decision, nil
		}
	}
	if len(errs) == len(c) && len(c) > 0 {
		return Decision{}, errors.Join(errs...)
	}
	return Decision{}, nil
}

// ContentGenerator turns a prompt into model text.
type ContentGenerator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// GeminiDecider asks a generative model whether the persona should answer.
type GeminiDecider struct {
	gen ContentGenerator
}

func NewGeminiDecider(gen ContentGenerator) *GeminiDecider {
	return &GeminiDecider{gen: gen}
}

func (g *GeminiDecider) Decide(ctx context.Context, rc *ReplyContext) (Decision, error) {
	out, err := g.gen.Generate(ctx, replyPrompt(rc))
	if err != nil {
		return Decision{}, err
	}
	decision := ParseDecision(out)
	decision.Source = "ai"
	return decision, nil
}

// ParseDecision reads model output of the form "YES|reply text" or "NO".
// Anything else, including a YES with no text, means no reply.
func ParseDecision(out string) Decision {
	out = strings.TrimSpace(out)
	if rest, ok := strings.CutPrefix(out, "YES|"); ok {
		text := strings.TrimSpace(rest)
		if text != "" {
			return Decision{Reply: true, Text: text}
		}
	}
	return Decision{}
}

func replyPrompt(rc *ReplyContext) string {
	p := rc.Persona
	personality := orDefault(p.Personality, "friendly and helpful")
	tone := orDefault(p.ToneOfVoice, "casual and friendly")
	expertise := "general topics"
	if len(p.Expertise) > 0 {
		expertise = strings.Join(p.Expertise, ", ")
	}

	var b strings.Builder
	fmt.Fprintf(&b, "You are %s, a persona with the following characteristics:\n", p.Name)
	fmt.Fprintf(&b, "- Personality: %s\n- Expertise: %s\n- Tone of voice: %s\n\n", personality, expertise, tone)
	fmt.Fprintf(&b, "Someone replied to your post: %q\nAuthor: %s\n\n", rc.Reply.ReplyText, rc.Reply.ReplyAuthorUsername)
	b.WriteString("Should you reply to this message? Consider whether it is a question or request, ")
	b.WriteString("a meaningful comment worth engaging with, related to your expertise, or spam.\n\n")
	b.WriteString("Respond with exactly \"NO\" if you should not reply. Otherwise respond with ")
	b.WriteString("\"YES|\" followed by a reply that matches your persona.\n")
	b.WriteString("Format: YES|Your reply here OR NO")
	return b.String()
}

func orDefault(v, def string) string {
	if strings.TrimSpace(v) == "" {
		return def
	}
	return v
}

// GeminiGenerator asks a Gemini model through the generative-ai-go client.
type GeminiGenerator struct {
	model *genai.GenerativeModel
}

func NewGeminiGenerator(ctx context.Context, apiKey, model string) (*GeminiGenerator, error) {
	if apiKey == "" {
		return nil, errors.New("GEMINI_API_KEY not configured")
	}
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, err
	}
	return &GeminiGenerator{model: client.GenerativeModel(strings.TrimPrefix(model, "models/"))}, nil
}

func (g *GeminiGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	resp, err := g.model.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		return "", fmt.Errorf("gemini generate content: %w", err)
	}
	return firstText(resp), nil
}

// firstText returns the first text part of the first candidate that has one.
func firstText(resp *genai.GenerateContentResponse) string {
	if resp == nil {
		return ""
	}
	for _, c := range resp.Candidates {
		if c == nil || c.Content == nil {
			continue
		}
		for _, part := range c.Content.Parts {
			if text, ok := part.(genai.Text); ok && text != "" {
				return string(text)
			}
		}
	}
	return ""
}
