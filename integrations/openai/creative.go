package openai

import (
	"context"
	"fmt"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
	"github.com/sirupsen/logrus"

	"github.com/ofertazap/ofertazap/domains/catalog"
	"github.com/ofertazap/ofertazap/domains/creative"
)

const defaultModel = "gpt-4o-mini"

const systemPrompt = `Você é um redator de ofertas para grupos de WhatsApp no Brasil.
Escreva uma mensagem curta e chamativa para o produto informado.

REGRAS:
- Máximo de 4 linhas.
- Sempre cite o nome do produto.
- Se um preço for informado, ele DEVE aparecer exatamente como recebido.
- Se um link for informado, ele DEVE aparecer em uma linha própria, sem alterações.
- Mantenha o prefixo e o sufixo do programa quando fornecidos.
- Não invente descontos, estoques ou prazos.
- Responda apenas com o texto da mensagem, sem aspas nem explicações.`

// CreativeComposer generates promotional copy through the OpenAI chat API.
type CreativeComposer struct {
	client openai.Client
	model  string
}

// NewCreativeComposer creates an OpenAI-backed composer. Model falls back to
// a small default when empty.
func NewCreativeComposer(apiKey, model string) *CreativeComposer {
	if model == "" {
		model = defaultModel
	}
	return &CreativeComposer{
		client: openai.NewClient(option.WithAPIKey(apiKey)),
		model:  model,
	}
}

func (c *CreativeComposer) Generate(ctx context.Context, product catalog.Product, creativeCtx creative.Context) (string, error) {
	completion, err := c.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: openai.ChatModel(c.model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(systemPrompt),
			openai.UserMessage(buildPrompt(product, creativeCtx)),
		},
	})
	if err != nil {
		return "", err
	}
	if len(completion.Choices) == 0 {
		return "", fmt.Errorf("no response from openai")
	}

	text := strings.TrimSpace(completion.Choices[0].Message.Content)

	logrus.WithFields(logrus.Fields{
		"program":       creativeCtx.ProgramName,
		"product_id":    product.ID,
		"model":         c.model,
		"input_tokens":  completion.Usage.PromptTokens,
		"output_tokens": completion.Usage.CompletionTokens,
	}).Debug("[OPENAI] Creative generated")

	return text, nil
}

// buildPrompt renders the product facts the model is allowed to use.
func buildPrompt(product catalog.Product, creativeCtx creative.Context) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Programa: %s\n", creativeCtx.ProgramName)
	fmt.Fprintf(&b, "Produto: %s\n", product.Name)
	if creativeCtx.WithPrice {
		fmt.Fprintf(&b, "Preço: R$ %s\n", humanize.FormatFloat("#.###,##", product.Price))
	}
	if creativeCtx.WithLink && product.Link != "" {
		fmt.Fprintf(&b, "Link: %s\n", product.Link)
	}
	if creativeCtx.Prefix != "" {
		fmt.Fprintf(&b, "Prefixo do programa: %s\n", creativeCtx.Prefix)
	}
	if creativeCtx.Suffix != "" {
		fmt.Fprintf(&b, "Sufixo do programa: %s\n", creativeCtx.Suffix)
	}
	return b.String()
}
