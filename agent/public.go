package agent

import (
	"context"

	"github.com/etnz/lotplan"
	"github.com/etnz/lotplan/docs"
	"github.com/etnz/lotplan/renderer"
	"google.golang.org/genai"
)

const model = "gemini-2.5-pro"

// creates the facilitator
func newFacilitator(experts ...*Expert) *Expert {
	return &Expert{
		Name:        "Facilitator",
		Description: ``,
		ModelName:   model,
		Config: &genai.GenerateContentConfig{
			Tools: []*genai.Tool{
				{FunctionDeclarations: NewDeclaration(experts)},
			},
			SystemInstruction: &genai.Content{Parts: []*genai.Part{{Text: `
			As a facilitator you are in charge of the conversation and solving the user's request.

			Learn about the expert's skill that you can get from the Tools to ask them questions.
			They are at your service and 100% dedicated to you, they keep context of your previous questions.

			The user is about to invest some cash in whole lots of a few instruments and got a
			purchase recommendation. They want to understand it, challenge it, or try other amounts.

			Devise a plan of questions to ask to each experts and come up with the best reponse to the user's request.
			Never present a figure that was not computed by the Planner.
		`}}},
		},
		Library: NewLibrary(experts),
	}
}

// NewTrader returns the expert grounded on Google Search for market news.
func NewTrader() *Expert {
	return &Expert{
		Name: "Trader",
		Description: `This is an expert trader,
		Very well aware of the Moscow Exchange and its listed companies,
		about the latest news about the different funds or companies.
		Ask the Trader whenever you need recent or grounding information.`,
		ModelName: model,
		Config: &genai.GenerateContentConfig{
			Tools: []*genai.Tool{
				{GoogleSearch: &genai.GoogleSearch{}},
			},
			SystemInstruction: &genai.Content{Parts: []*genai.Part{{Text: `
			You are a expert in Trading, you can search and find about anything related to
			financial institutions, companies, markets, funds etc. You Leverage Google Search to
			ground your assertions in a solid truth.
			You can get the latests news too, and you know how to relate them to the user's request.
				`}}},
		},
	}
}

// Plan is what the Planner knows about the user's situation.
type Plan struct {
	Catalog  *lotplan.Catalog
	Prices   *lotplan.PriceSnapshot
	Holdings lotplan.Holdings
	Cash     lotplan.Money
	Options  lotplan.Options
}

// NewPlanner returns the expert computing allocations for p.
func NewPlanner(p *Plan) *Expert {
	lib := p.Functions()
	return &Expert{
		Name: "Planner",
		Description: `This is the Planner. They know the user's catalog of instruments, target weights,
		current holdings and the latest prices. They compute purchase recommendations for any cash amount
		and explain the ideal and actual weights after purchase.`,
		ModelName: model,
		Config: &genai.GenerateContentConfig{
			Tools: []*genai.Tool{
				{FunctionDeclarations: NewDeclaration(lib)},
			},
			SystemInstruction: &genai.Content{Parts: []*genai.Part{{Text: `
				You are in charge of the user's purchase plan.
				You know how to use the Tools to compute the lots to buy, never compute them yourself.
				You are part of a team of experts, yours is everything about the recommendation. They might ask
				you questions about it, pardon their approximative language and figure out what they meant.

				Here is how the recommendation is computed:

				` + must(docs.GetTopic("allocation")) + `
			`}}},
		},
		Library: NewLibrary(lib),
	}
}

// Functions returns the tools exposing p to a model.
func (p *Plan) Functions() []Function {
	return []Function{
		&Func{
			Decl: &genai.FunctionDeclaration{
				Name:        "Recommendation",
				Description: `Recommendation computes the lots to buy with a cash amount, using the current holdings and prices.`,
				Parameters: &genai.Schema{
					Type: genai.TypeObject,
					Properties: map[string]*genai.Schema{
						"cash": {
							Type:        genai.TypeString,
							Description: "The amount to invest, in the catalog currency. The user's amount is the default.",
						},
					},
				},
				Response: &genai.Schema{
					Type:        genai.TypeString,
					Description: "A markdown report with the lots to buy per instrument, the ideal and actual weights and the totals.",
				},
			},
			Func: func(ctx context.Context, id string, args map[string]any) *genai.FunctionResponse {
				cash := p.Cash
				if s, ok := args["cash"].(string); ok && s != "" {
					cash = lotplan.ParseAmount(s, p.Catalog.Currency())
				}
				res := lotplan.AllocateWith(lotplan.Request{
					Cash:     cash,
					Holdings: p.Holdings,
					Catalog:  p.Catalog,
					Prices:   p.Prices,
				}, p.Options)
				return output(id, "Recommendation", renderer.RenderAllocation(renderer.NewAllocation(res, p.Prices.TakenAt())))
			},
		},
		&Func{
			Decl: &genai.FunctionDeclaration{
				Name:        "Prices",
				Description: `Prices lists the latest price and lot cost of every instrument.`,
				Response: &genai.Schema{
					Type:        genai.TypeString,
					Description: "A markdown table of the prices, N/A when unavailable.",
				},
			},
			Func: func(ctx context.Context, id string, args map[string]any) *genai.FunctionResponse {
				return output(id, "Prices", renderer.RenderPrices(renderer.NewPrices(p.Catalog, p.Prices)))
			},
		},
		&Func{
			Decl: &genai.FunctionDeclaration{
				Name:        "Catalog",
				Description: `Catalog lists the instruments with their lot size and target weight.`,
				Response: &genai.Schema{
					Type:        genai.TypeString,
					Description: "A markdown table of the catalog.",
				},
			},
			Func: func(ctx context.Context, id string, args map[string]any) *genai.FunctionResponse {
				return output(id, "Catalog", renderer.RenderCatalog(renderer.NewCatalog(p.Catalog)))
			},
		},
	}
}

func output(id, name, md string) *genai.FunctionResponse {
	return &genai.FunctionResponse{
		ID:       id,
		Name:     name,
		Response: map[string]any{"output": md},
	}
}

// Func implements a simple Function
type Func struct {
	// Declare this function
	Decl *genai.FunctionDeclaration
	// Call this function
	Func func(ctx context.Context, id string, args map[string]any) *genai.FunctionResponse
}

func (f *Func) Declaration() *genai.FunctionDeclaration { return f.Decl }
func (f *Func) Call(ctx context.Context, id string, args map[string]any) *genai.FunctionResponse {
	return f.Func(ctx, id, args)
}

func must[T any](v T, err error) T {
	if err != nil {
		panic(err)
	}
	return v
}
