package directory

import (
	"fmt"
	"io"
	"iter"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"

	"github.com/nao1215/doralscan/internal/model"
)

// Parser extracts business records from a directory page.
//
// Design decision: We use goquery selectors rather than walking the DOM by
// hand because:
//  1. The block signature is naturally expressed as CSS classes
//  2. Selectors can be overridden per directory from the config file
//  3. goquery sits on golang.org/x/net/html, so malformed markup is tolerated
type Parser struct {
	// baseURL is the directory URL, used to resolve relative website links.
	baseURL *url.URL

	// selectors describe the business block and its fields.
	selectors Selectors
}

// ParserOption configures a Parser.
type ParserOption func(*Parser)

// WithSelectors overrides the block and field selectors.
// Empty fields keep their defaults.
func WithSelectors(s Selectors) ParserOption {
	return func(p *Parser) {
		p.selectors = s.Merge(DefaultSelectors())
	}
}

// NewParser creates a Parser for the directory at baseURL.
func NewParser(baseURL string, opts ...ParserOption) (*Parser, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid directory URL: %w", err)
	}

	p := &Parser{
		baseURL:   u,
		selectors: DefaultSelectors(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p, nil
}

// Selectors returns the selectors in use.
func (p *Parser) Selectors() Selectors {
	return p.selectors
}

// Parse builds the document tree of a directory page.
func (p *Parser) Parse(r io.Reader) (*goquery.Document, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, fmt.Errorf("parse directory page: %w", err)
	}
	return doc, nil
}

// Records returns a lazy sequence of the business records in doc.
// The sequence makes a single pass over the blocks in document order and
// stops early if the consumer breaks out of the loop. Records are returned
// with Phones unset; the crawler finalizes them.
func (p *Parser) Records(doc *goquery.Document) iter.Seq[model.BusinessRecord] {
	return func(yield func(model.BusinessRecord) bool) {
		doc.Find(p.selectors.Block).EachWithBreak(func(_ int, block *goquery.Selection) bool {
			return yield(p.parseBlock(block))
		})
	}
}

// parseBlock extracts one record. Missing fields stay nil.
func (p *Parser) parseBlock(block *goquery.Selection) model.BusinessRecord {
	return model.BusinessRecord{
		Name:     ownText(block.Find(p.selectors.Name).First()),
		Industry: ownText(block.Find(p.selectors.Industry).First()),
		Offer:    ownText(block.Find(p.selectors.Offer).First()),
		Website:  attr(block.Find(p.selectors.Website).First(), p.selectors.WebsiteAttr),
	}
}

// ownText returns the first non-blank text node directly inside sel,
// trimmed. It returns nil if sel is empty or has no such text node.
func ownText(sel *goquery.Selection) *string {
	if sel.Length() == 0 {
		return nil
	}
	for c := sel.Nodes[0].FirstChild; c != nil; c = c.NextSibling {
		if c.Type != html.TextNode {
			continue
		}
		if text := strings.TrimSpace(c.Data); text != "" {
			return &text
		}
	}
	return nil
}

// attr returns the trimmed attribute value of sel, or nil if sel is empty
// or the attribute is missing or blank.
func attr(sel *goquery.Selection, name string) *string {
	if sel.Length() == 0 {
		return nil
	}
	val, ok := sel.Attr(name)
	if !ok {
		return nil
	}
	val = strings.TrimSpace(val)
	if val == "" {
		return nil
	}
	return &val
}
