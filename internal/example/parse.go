package example

import (
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/rohmanhakim/aoc-fetch/internal/metadata"
	"golang.org/x/net/html"
)

/*
Puzzle pages introduce the worked example with a paragraph containing
"for example", followed by a <pre><code> block. Expected answers are
emphasized inline code (<code><em>42</em></code>). Once the page shows
part two, answers after the <h2 id="part2"> heading belong to part two.

Within each part the last emphasized answer wins: the prose mentions
intermediate values first and the final result last.
*/

type Example struct {
	Data        string
	Part1Answer string
	// Part2Answer is empty until part one has been solved.
	Part2Answer string
}

func (e Example) HasPart2() bool {
	return e.Part2Answer != ""
}

type Parser struct {
	metadataSink metadata.MetadataSink
}

func NewParser(metadataSink metadata.MetadataSink) Parser {
	if metadataSink == nil {
		metadataSink = metadata.NoopSink{}
	}
	return Parser{
		metadataSink: metadataSink,
	}
}

// Parse extracts the example from a puzzle page. key only labels metadata.
func (p Parser) Parse(key string, page string) (Example, error) {
	result, err := parse(page)
	if err != nil {
		p.metadataSink.RecordError(
			time.Now(),
			"example",
			"Parser.Parse",
			mapParseErrorToMetadataCause(err),
			err.Error(),
			[]metadata.Attribute{
				metadata.NewAttr(metadata.AttrKey, key),
			},
		)
		return Example{}, err
	}
	return result, nil
}

func parse(page string) (Example, *ParseError) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(page))
	if err != nil {
		return Example{}, &ParseError{
			Message:   err.Error(),
			Retryable: false,
			Cause:     ErrCauseMalformedHTML,
		}
	}

	var (
		foundForExample bool
		foundExample    bool
		inPart2         bool
		result          Example
	)

	doc.Find("article.day-desc *").Each(func(_ int, s *goquery.Selection) {
		node := s.Get(0)
		switch node.Data {
		case "p":
			if strings.Contains(strings.ToLower(s.Text()), "for example") {
				foundForExample = true
			}
		case "pre":
			if foundExample || !foundForExample {
				return
			}
			if child := onlyChild(node); child != nil && isElement(child, "code") {
				result.Data = goquery.NewDocumentFromNode(child).Text()
				foundExample = true
			}
		case "code":
			if child := onlyChild(node); child != nil && isElement(child, "em") {
				answer := goquery.NewDocumentFromNode(child).Text()
				if inPart2 {
					result.Part2Answer = answer
				} else {
					result.Part1Answer = answer
				}
			}
		case "h2":
			if id, ok := s.Attr("id"); ok && strings.EqualFold(id, "part2") {
				inPart2 = true
			}
		}
	})

	if !foundExample {
		return Example{}, &ParseError{
			Message:   "no <pre><code> block follows a paragraph mentioning an example",
			Retryable: false,
			Cause:     ErrCauseNoExample,
		}
	}
	if result.Part1Answer == "" {
		return Example{}, &ParseError{
			Message:   "no emphasized <code> answer on the page",
			Retryable: false,
			Cause:     ErrCauseNoAnswer,
		}
	}
	return result, nil
}

// onlyChild returns the single child node of n, counting text nodes, or nil.
func onlyChild(n *html.Node) *html.Node {
	first := n.FirstChild
	if first == nil || first.NextSibling != nil {
		return nil
	}
	return first
}

func isElement(n *html.Node, tag string) bool {
	return n.Type == html.ElementNode && n.Data == tag
}
