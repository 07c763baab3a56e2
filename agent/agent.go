// Package agent implements the Gemini assistant discussing a purchase plan.
package agent

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"google.golang.org/genai"
)

// Agent runs the chat session: the user talks to a facilitator who consults
// the experts.
type Agent struct {
	w           io.Writer
	r           *bufio.Reader
	Facilitator *Expert
	Experts     []*Expert
	// Format is applied to every answer before it is printed, the default prints it as is.
	Format func(markdown string) string
}

// New returns an agent writing to w and reading the user's questions from r.
func New(w io.Writer, r io.Reader, experts ...*Expert) *Agent {
	return &Agent{
		w:           w,
		r:           bufio.NewReader(r),
		Experts:     experts,
		Facilitator: newFacilitator(experts...),
		Format:      func(md string) string { return md },
	}
}

const prompt = "lotplan> "

// isExit reports whether the user asked to leave.
func isExit(input string) bool {
	switch strings.ToLower(strings.TrimSpace(input)) {
	case "bye", "exit", "quit":
		return true
	}
	return false
}

// Run starts the session. prompts are asked first, as if typed by the user,
// then questions are read until EOF or an exit word.
func (a *Agent) Run(ctx context.Context, client *genai.Client, prompts ...string) error {
	for _, e := range a.Experts {
		if err := e.Start(ctx, client); err != nil {
			return err
		}
	}
	if err := a.Facilitator.Start(ctx, client); err != nil {
		return err
	}

	fmt.Fprintln(a.w, "Ask about the purchase recommendation. Type 'bye' to exit.")
	for {
		fmt.Fprint(a.w, prompt)
		input, err := a.next(&prompts)
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return err
		}
		if input == "" {
			continue
		}
		if isExit(input) {
			return nil
		}

		answer, err := a.Facilitator.Ask(ctx, &genai.Part{Text: input})
		if err != nil {
			return err
		}
		fmt.Fprintln(a.w, a.Format(text(answer)))
	}
}

// next returns the next pending prompt, echoed, or the next user line.
func (a *Agent) next(prompts *[]string) (string, error) {
	if len(*prompts) > 0 {
		input := strings.TrimSpace((*prompts)[0])
		*prompts = (*prompts)[1:]
		if input != "" {
			fmt.Fprintln(a.w, input)
		}
		return input, nil
	}
	line, err := a.r.ReadString('\n')
	if err != nil && (line == "" || !errors.Is(err, io.EOF)) {
		return "", err
	}
	return strings.TrimSpace(line), nil
}
