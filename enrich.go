package web2pdf

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"golang.org/x/net/html"
)

// Enrichment is best-effort document metadata derived from page content.
type Enrichment struct {
	Title      string   `json:"title"`
	Excerpt    string   `json:"excerpt"`
	Keywords   []string `json:"keywords"`
	PageBreaks []int    `json:"suggestedPageBreaks"`
}

// Enricher analyzes rendered HTML and suggests document metadata. Absence
// or failure of an enricher never blocks PDF generation; the pipeline falls
// back to pure-DOM heuristics.
type Enricher interface {
	Enrich(ctx context.Context, pageHTML, pageURL string) (Enrichment, error)
}

// WithEnricher sets the optional content-enrichment collaborator.
func WithEnricher(e Enricher) Option {
	return func(s *Service) {
		s.enricher = e
	}
}

// Compile-time interface check
var _ Enricher = (*anthropicEnricher)(nil)

// excerptLimit bounds how much page text is sent for analysis and how long
// the fallback excerpt may grow.
const excerptLimit = 4000

// anthropicEnricher asks a language model for title, excerpt, and keywords.
type anthropicEnricher struct {
	client anthropic.Client
	model  anthropic.Model
}

// NewAnthropicEnricher creates an Enricher backed by the Anthropic API. The
// key usually comes from ANTHROPIC_API_KEY.
func NewAnthropicEnricher(apiKey string) Enricher {
	return &anthropicEnricher{
		client: anthropic.NewClient(option.WithAPIKey(apiKey)),
		model:  anthropic.ModelClaude3_5HaikuLatest,
	}
}

// Enrich sends stripped page text to the model and parses its JSON reply.
func (e *anthropicEnricher) Enrich(ctx context.Context, pageHTML, pageURL string) (Enrichment, error) {
	text := extractText(pageHTML, excerptLimit)

	prompt := fmt.Sprintf(`Analyze this web page content from %s and reply with JSON only:
{"title": "...", "excerpt": "one-paragraph summary", "keywords": ["...", "..."], "suggestedPageBreaks": []}

Content:
%s`, pageURL, text)

	msg, err := e.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     e.model,
		MaxTokens: 1024,
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(prompt)),
		},
	})
	if err != nil {
		return Enrichment{}, fmt.Errorf("enrichment request: %w", err)
	}

	var reply strings.Builder
	for _, block := range msg.Content {
		reply.WriteString(block.Text)
	}

	var enrichment Enrichment
	if err := json.Unmarshal([]byte(stripCodeFence(reply.String())), &enrichment); err != nil {
		return Enrichment{}, fmt.Errorf("parsing enrichment reply: %w", err)
	}
	return enrichment, nil
}

// stripCodeFence removes a surrounding markdown code fence, which models
// add despite instructions.
func stripCodeFence(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}

// fallbackEnrichment derives metadata from the DOM alone: the title tag (or
// first heading), the meta description (or leading body text), and meta
// keywords. It never makes an external call and never fails; a page it
// cannot parse yields zero values.
func fallbackEnrichment(pageHTML string) Enrichment {
	doc, err := html.Parse(strings.NewReader(pageHTML))
	if err != nil {
		return Enrichment{}
	}

	var e Enrichment
	var firstHeading, metaDescription string
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			switch n.Data {
			case "title":
				if e.Title == "" {
					e.Title = strings.TrimSpace(nodeText(n))
				}
			case "h1":
				if firstHeading == "" {
					firstHeading = strings.TrimSpace(nodeText(n))
				}
			case "meta":
				name, content := attrOf(n, "name"), attrOf(n, "content")
				switch strings.ToLower(name) {
				case "description":
					metaDescription = strings.TrimSpace(content)
				case "keywords":
					for _, kw := range strings.Split(content, ",") {
						if kw = strings.TrimSpace(kw); kw != "" {
							e.Keywords = append(e.Keywords, kw)
						}
					}
				}
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)

	if e.Title == "" {
		e.Title = firstHeading
	}
	e.Excerpt = metaDescription
	if e.Excerpt == "" {
		e.Excerpt = clampText(extractText(pageHTML, 300), 300)
	}
	return e
}

// extractText strips tags, scripts, and styles from HTML, returning up to
// limit bytes of whitespace-normalized body text.
func extractText(pageHTML string, limit int) string {
	doc, err := html.Parse(strings.NewReader(pageHTML))
	if err != nil {
		return ""
	}

	var b strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if b.Len() >= limit {
			return
		}
		if n.Type == html.ElementNode {
			switch n.Data {
			case "script", "style", "noscript":
				return
			}
		}
		if n.Type == html.TextNode {
			if t := strings.TrimSpace(n.Data); t != "" {
				b.WriteString(t)
				b.WriteByte(' ')
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)

	return clampText(strings.TrimSpace(b.String()), limit)
}

// clampText cuts s at a rune boundary no later than limit bytes.
func clampText(s string, limit int) string {
	if len(s) <= limit {
		return s
	}
	for limit > 0 && !isRuneStart(s[limit]) {
		limit--
	}
	return s[:limit]
}

func isRuneStart(b byte) bool { return b&0xC0 != 0x80 }

// nodeText concatenates the text content of a node's subtree.
func nodeText(n *html.Node) string {
	var b strings.Builder
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.TextNode {
			b.WriteString(c.Data)
		} else {
			b.WriteString(nodeText(c))
		}
	}
	return b.String()
}

// attrOf returns the value of the named attribute, empty when absent.
func attrOf(n *html.Node, name string) string {
	for _, a := range n.Attr {
		if strings.EqualFold(a.Key, name) {
			return a.Val
		}
	}
	return ""
}
