package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"

	vertexgenai "cloud.google.com/go/vertexai/genai"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"
)

const defaultVertexModel = "gemini-1.5-flash"

type VertexGemini struct {
	client    *vertexgenai.Client
	modelName string
}

func NewVertexGemini(ctx context.Context, projectID, location, modelName, credentialsFile string) (*VertexGemini, error) {
	var opts []option.ClientOption
	if credentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(credentialsFile))
	}
	c, err := vertexgenai.NewClient(ctx, projectID, location, opts...)
	if err != nil {
		return nil, fmt.Errorf("create vertex client: %w", err)
	}

	if modelName == "" {
		modelName = defaultVertexModel
	}
	return &VertexGemini{client: c, modelName: modelName}, nil
}

func (v *VertexGemini) Close() error { return v.client.Close() }

// Complete replays history into a chat session and streams the reply to the
// final user message, concatenating the chunks.
func (v *VertexGemini) Complete(ctx context.Context, systemPrompt string, history []Message) (string, error) {
	msgs := Normalize(history)
	last := msgs[len(msgs)-1]
	if last.Role != RoleUser {
		return "", errors.New("vertex: conversation must end with a user message")
	}

	// GenerativeModel carries per-call settings, so it is not shared.
	m := v.client.GenerativeModel(v.modelName)
	if systemPrompt != "" {
		m.SystemInstruction = &vertexgenai.Content{Parts: []vertexgenai.Part{vertexgenai.Text(systemPrompt)}}
	}

	cs := m.StartChat()
	for _, msg := range msgs[:len(msgs)-1] {
		cs.History = append(cs.History, &vertexgenai.Content{
			Role:  string(msg.Role),
			Parts: []vertexgenai.Part{vertexgenai.Text(msg.Content)},
		})
	}

	it := cs.SendMessageStream(ctx, vertexgenai.Text(last.Content))
	var b strings.Builder
	for {
		resp, err := it.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return "", fmt.Errorf("vertex stream: %w", err)
		}
		for _, cand := range resp.Candidates {
			if cand.Content == nil {
				continue
			}
			for _, part := range cand.Content.Parts {
				if t, ok := part.(vertexgenai.Text); ok {
					b.WriteString(string(t))
				}
			}
		}
	}

	out := strings.TrimSpace(b.String())
	if out == "" {
		return "", errors.New("vertex: empty response")
	}
	return out, nil
}
