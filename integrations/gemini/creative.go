package gemini

import (
	"context"
	"fmt"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/sirupsen/logrus"
	"google.golang.org/genai"

	"github.com/ofertazap/ofertazap/domains/catalog"
	"github.com/ofertazap/ofertazap/domains/creative"
)

const defaultModel = "gemini-2.0-flash"

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

// CreativeComposer generates promotional copy through the Gemini API.
type CreativeComposer struct {
	apiKey string
	model  string
}

func NewCreativeComposer(apiKey, model string) *CreativeComposer {
	if model == "" {
		model = defaultModel
	}
	return &CreativeComposer{apiKey: apiKey, model: model}
}

func (c *CreativeComposer) Generate(ctx context.Context, product catalog.Product, creativeCtx creative.Context) (string, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  c.apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return "", err
	}

	resp, err := client.Models.GenerateContent(ctx, c.model,
		[]*genai.Content{genai.NewContentFromText(buildPrompt(product, creativeCtx), genai.RoleUser)},
		&genai.GenerateContentConfig{
			SystemInstruction: genai.NewContentFromText(systemPrompt, ""),
		})
	if err != nil {
		return "", err
	}

	text := strings.TrimSpace(resp.Text())
	if text == "" {
		return "", fmt.Errorf("no response from gemini")
	}

	logrus.WithFields(logrus.Fields{
		"program":    creativeCtx.ProgramName,
		"product_id": product.ID,
		"model":      c.model,
	}).Debug("[GEMINI] Creative generated")

	return text, nil
}

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
