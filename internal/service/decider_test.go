package service

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/google/generative-ai-go/genai"
	"github.com/maheshrc27/threadflow/internal/models"
)

func TestParseDecision(t *testing.T) {
	tests := []struct {
		in    string
		reply bool
		text  string
	}{
		{"YES|Thanks for asking!", true, "Thanks for asking!"},
		{"  YES|  spaced out  \n", true, "spaced out"},
		{"NO", false, ""},
		{"YES|", false, ""},
		{"yes|lowercase", false, ""},
		{"Sure, here is a reply", false, ""},
		{"", false, ""},
	}

	for _, tt := range tests {
		got := ParseDecision(tt.in)
		if got.Reply != tt.reply || got.Text != tt.text {
			t.Errorf("ParseDecision(%q) = %+v, want reply=%v text=%q", tt.in, got, tt.reply, tt.text)
		}
	}
}

func TestKeywordDecider(t *testing.T) {
	rules := []*models.AutoReply{
		{TriggerKeywords: []string{"price"}, ResponseTemplate: "inactive", IsActive: false},
		{TriggerKeywords: []string{" ", "Price", "cost"}, ResponseTemplate: "See the pinned post.", IsActive: true},
		{TriggerKeywords: []string{"price"}, ResponseTemplate: "second", IsActive: true},
	}

	tests := []struct {
		text  string
		reply bool
		want  string
	}{
		{"What's the PRICE?", true, "See the pinned post."},
		{"how much does it cost", true, "See the pinned post."},
		{"nice post", false, ""},
	}

	for _, tt := range tests {
		rc := &ReplyContext{Rules: rules, Reply: &models.ThreadReply{ReplyText: tt.text}}
		got, err := KeywordDecider{}.Decide(context.Background(), rc)
		if err != nil {
			t.Fatalf("Decide: %v", err)
		}
		if got.Reply != tt.reply || got.Text != tt.want {
			t.Errorf("Decide(%q) = %+v", tt.text, got)
		}
		if got.Reply && got.Source != "keyword" {
			t.Errorf("source = %q", got.Source)
		}
	}
}

type decideFunc func(context.Context, *ReplyContext) (Decision, error)

func (f decideFunc) Decide(ctx context.Context, rc *ReplyContext) (Decision, error) { return f(ctx, rc) }

func TestDeciderChain(t *testing.T) {
	no := decideFunc(func(context.Context, *ReplyContext) (Decision, error) { return Decision{}, nil })
	yes := decideFunc(func(context.Context, *ReplyContext) (Decision, error) {
		return Decision{Reply: true, Text: "hi"}, nil
	})
	broken := decideFunc(func(context.Context, *ReplyContext) (Decision, error) { return Decision{}, errBoom })

	tests := []struct {
		name    string
		chain   DeciderChain
		reply   bool
		wantErr bool
	}{
		{"first yes wins", DeciderChain{yes, broken}, true, false},
		{"falls through", DeciderChain{no, yes}, true, false},
		{"error skipped", DeciderChain{broken, yes}, true, false},
		{"error then no", DeciderChain{broken, no}, false, false},
		{"all errors", DeciderChain{broken, broken}, false, true},
		{"empty", DeciderChain{}, false, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.chain.Decide(context.Background(), &ReplyContext{})
			if (err != nil) != tt.wantErr {
				t.Fatalf("err = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr && !errors.Is(err, errBoom) {
				t.Errorf("err = %v, want wrapped errBoom", err)
			}
			if got.Reply != tt.reply {
				t.Errorf("reply = %v, want %v", got.Reply, tt.reply)
			}
		})
	}
}

type fakeGenerator struct {
	out    string
	prompt string
}

func (g *fakeGenerator) Generate(_ context.Context, prompt string) (string, error) {
	g.prompt = prompt
	return g.out, nil
}

func TestGeminiDecider(t *testing.T) {
	gen := &fakeGenerator{out: "YES|Happy to help"}
	rc := &ReplyContext{
		Persona: &models.Persona{Name: "Aiko", Expertise: []string{"coffee", "travel"}},
		Reply:   &models.ThreadReply{ReplyText: "any tips for Kyoto?", ReplyAuthorUsername: "traveler"},
	}

	got, err := NewGeminiDecider(gen).Decide(context.Background(), rc)
	if err != nil {
		t.Fatalf("Decide: %v", err)
	}
	if !got.Reply || got.Text != "Happy to help" || got.Source != "ai" {
		t.Errorf("decision = %+v", got)
	}

	for _, want := range []string{"Aiko", "coffee, travel", "casual and friendly", "any tips for Kyoto?", "traveler"} {
		if !strings.Contains(gen.prompt, want) {
			t.Errorf("prompt missing %q", want)
		}
	}
}

func TestFirstText(t *testing.T) {
	tests := []struct {
		name string
		resp *genai.GenerateContentResponse
		want string
	}{
		{"nil", nil, ""},
		{"no candidates", &genai.GenerateContentResponse{}, ""},
		{"skips empty content", &genai.GenerateContentResponse{Candidates: []*genai.Candidate{
			{Content: nil},
			{Content: &genai.Content{Parts: []genai.Part{genai.Blob{MIMEType: "image/png"}, genai.Text("YES|hi")}}},
		}}, "YES|hi"},
		{"first text wins", &genai.GenerateContentResponse{Candidates: []*genai.Candidate{
			{Content: &genai.Content{Parts: []genai.Part{genai.Text("NO"), genai.Text("YES|late")}}},
		}}, "NO"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := firstText(tt.resp); got != tt.want {
				t.Errorf("firstText = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestGeminiGeneratorNeedsKey(t *testing.T) {
	if _, err := NewGeminiGenerator(context.Background(), "", "gemini-1.5-flash"); err == nil {
		t.Fatal("expected error without an api key")
	}
}
