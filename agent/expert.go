package agent

import (
	"context"
	"fmt"
	"log"

	"google.golang.org/genai"
)

// maxToolRounds bounds the function calls an expert can chain before answering.
const maxToolRounds = 8

// Expert is a Gemini chat specialized on one part of the purchase plan.
type Expert struct {
	Name        string
	Description string
	ModelName   string
	Config      *genai.GenerateContentConfig
	Library     Library
	chat        *genai.Chat
}

// Start creates the expert chat.
func (e *Expert) Start(ctx context.Context, client *genai.Client) error {
	chat, err := client.Chats.Create(ctx, e.ModelName, e.Config, nil)
	if err != nil {
		return fmt.Errorf("cannot start %s: %w", e.Name, err)
	}
	e.chat = chat
	return nil
}

// Ask sends parts to the expert and answers its function calls until it
// replies with text.
func (e *Expert) Ask(ctx context.Context, parts ...*genai.Part) (*genai.Content, error) {
	for range maxToolRounds {
		resp, err := e.chat.Send(ctx, parts...)
		if err != nil {
			return nil, err
		}
		if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil || len(resp.Candidates[0].Content.Parts) == 0 {
			return nil, fmt.Errorf("no response from expert %s", e.Name)
		}
		content := resp.Candidates[0].Content
		calls := functionCalls(content)
		if len(calls) == 0 {
			return content, nil
		}
		if e.Library == nil {
			return nil, fmt.Errorf("expert %s doesn't know how to make function calls", e.Name)
		}
		parts = make([]*genai.Part, 0, len(calls))
		for _, call := range calls {
			parts = append(parts, &genai.Part{FunctionResponse: e.Library(ctx, call)})
		}
	}
	return nil, fmt.Errorf("expert %s made more than %d rounds of function calls", e.Name, maxToolRounds)
}

// functionCalls returns the function calls requested in content, in order.
func functionCalls(content *genai.Content) []*genai.FunctionCall {
	var calls []*genai.FunctionCall
	for _, p := range content.Parts {
		if p != nil && p.FunctionCall != nil {
			calls = append(calls, p.FunctionCall)
		}
	}
	return calls
}

// text concatenates the text parts of content.
func text(content *genai.Content) string {
	var s string
	for _, p := range content.Parts {
		if p != nil {
			s += p.Text
		}
	}
	return s
}

// Declaration returns the function declaration to ask this expert.
func (e *Expert) Declaration() *genai.FunctionDeclaration {
	return &genai.FunctionDeclaration{
		Name:        e.Name,
		Description: e.Description,
		Parameters: &genai.Schema{
			Type: genai.TypeObject,
			Properties: map[string]*genai.Schema{
				"question": {
					Type:        genai.TypeString,
					Description: "The question to ask the expert.",
				},
			},
			Required: []string{"question"},
		},
		Response: &genai.Schema{
			Type:        genai.TypeString,
			Description: "Expert's response.",
		},
	}
}

// Call asks the expert the question in args.
func (e *Expert) Call(ctx context.Context, id string, args map[string]any) *genai.FunctionResponse {
	question, ok := args["question"].(string)
	if !ok {
		return failure(id, e.Name, fmt.Errorf("invalid question, got %T, want a string", args["question"]))
	}
	answer, err := e.Ask(ctx, &genai.Part{Text: question})
	if err != nil {
		return failure(id, e.Name, err)
	}
	r := text(answer)
	log.Printf("expert %s: %q -> %q", e.Name, question, r)
	return output(id, e.Name, r)
}

func failure(id, name string, err error) *genai.FunctionResponse {
	return &genai.FunctionResponse{
		ID:       id,
		Name:     name,
		Response: map[string]any{"error": err.Error()},
	}
}
