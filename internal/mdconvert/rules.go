package mdconvert

import (
	"strings"
	"time"

	"github.com/JohannesKaufmann/html-to-markdown/v2/converter"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/base"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/commonmark"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/table"
	"github.com/PuerkitoBio/goquery"
	"github.com/rohmanhakim/aoc-fetch/internal/metadata"
	"golang.org/x/net/html"
)

/*
Conversion Rules
- Only article.day-desc content is converted; site chrome is dropped
- One section per article, in DOM order (part one, then part two)
- Code blocks preserved verbatim
- Links preserved as-is (no resolution)
*/

type Description struct {
	// Title is the day heading without the surrounding dashes,
	// e.g. "Day 1: Trebuchet?!".
	Title    string
	Markdown string
	// Parts is the number of parts visible on the page.
	Parts int
}

type DescriptionRule struct {
	metadataSink metadata.MetadataSink
}

func NewRule(metadataSink metadata.MetadataSink) *DescriptionRule {
	if metadataSink == nil {
		metadataSink = metadata.NoopSink{}
	}
	return &DescriptionRule{
		metadataSink: metadataSink,
	}
}

// Convert turns a puzzle page into Markdown. key only labels metadata.
func (r *DescriptionRule) Convert(key string, page string) (Description, error) {
	result, err := convert(page)
	if err != nil {
		r.metadataSink.RecordError(
			time.Now(),
			"mdconvert",
			"DescriptionRule.Convert",
			mapConversionErrorToMetadataCause(err),
			err.Error(),
			[]metadata.Attribute{
				metadata.NewAttr(metadata.AttrKey, key),
			},
		)
		return Description{}, err
	}
	return result, nil
}

func convert(page string) (Description, *ConversionError) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(page))
	if err != nil {
		return Description{}, &ConversionError{
			Message:   err.Error(),
			Retryable: false,
			Cause:     ErrCauseConversionFailure,
		}
	}

	articles := doc.Find("article.day-desc")
	if articles.Length() == 0 {
		return Description{}, &ConversionError{
			Message:   "page has no article.day-desc element",
			Retryable: false,
			Cause:     ErrCauseNoDescription,
		}
	}

	conv := converter.NewConverter(
		converter.WithPlugins(
			base.NewBasePlugin(),
			commonmark.NewCommonmarkPlugin(),
			table.NewTablePlugin(),
		),
	)

	sections := make([]string, 0, articles.Length())
	var convErr *ConversionError
	articles.EachWithBreak(func(_ int, s *goquery.Selection) bool {
		markdown, err := convertNode(conv, s.Get(0))
		if err != nil {
			convErr = err
			return false
		}
		sections = append(sections, markdown)
		return true
	})
	if convErr != nil {
		return Description{}, convErr
	}

	return Description{
		Title:    cleanTitle(articles.First().Find("h2").First().Text()),
		Markdown: strings.Join(sections, "\n\n") + "\n",
		Parts:    len(sections),
	}, nil
}

func convertNode(conv *converter.Converter, node *html.Node) (string, *ConversionError) {
	markdown, err := conv.ConvertNode(node)
	if err != nil {
		return "", &ConversionError{
			Message:   err.Error(),
			Retryable: false,
			Cause:     ErrCauseConversionFailure,
		}
	}
	return strings.TrimSpace(string(markdown)), nil
}

func cleanTitle(heading string) string {
	title := strings.TrimSpace(heading)
	title = strings.TrimPrefix(title, "---")
	title = strings.TrimSuffix(title, "---")
	return strings.TrimSpace(title)
}
