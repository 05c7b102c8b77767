package aoc

import (
	"context"

	"github.com/rohmanhakim/aoc-fetch/internal/example"
	"github.com/rohmanhakim/aoc-fetch/internal/mdconvert"
	"github.com/rohmanhakim/aoc-fetch/pkg/puzzle"
)

// Example is the worked example of a puzzle page.
type Example struct {
	Data        string
	Part1Answer string
	// Part2Answer is empty unless the page was fetched with part two visible.
	Part2Answer string
}

// Description is a puzzle page rendered as Markdown.
type Description struct {
	Title    string
	Markdown string
	Parts    int
}

// Input returns the puzzle input for the given day.
func (c *Client) Input(ctx context.Context, year, day int) (string, error) {
	return c.Get(ctx, puzzle.InputKey(year, day))
}

// Page returns the raw HTML of the puzzle page. part selects the cached
// variant: 1 for the page before part one is solved, 2 for the page that also
// shows part two. The site serves whichever matches the account's progress.
func (c *Client) Page(ctx context.Context, year, day, part int) (string, error) {
	return c.Get(ctx, puzzle.PageKey(year, day, part))
}

// Example parses the worked example out of the puzzle page.
func (c *Client) Example(ctx context.Context, year, day, part int) (Example, error) {
	key := puzzle.PageKey(year, day, part)
	page, err := c.Get(ctx, key)
	if err != nil {
		return Example{}, err
	}
	parsed, err := example.NewParser(c.sink).Parse(key.String(), page)
	if err != nil {
		return Example{}, err
	}
	return Example{
		Data:        parsed.Data,
		Part1Answer: parsed.Part1Answer,
		Part2Answer: parsed.Part2Answer,
	}, nil
}

// Description converts the puzzle text of the page to Markdown.
func (c *Client) Description(ctx context.Context, year, day, part int) (Description, error) {
	key := puzzle.PageKey(year, day, part)
	page, err := c.Get(ctx, key)
	if err != nil {
		return Description{}, err
	}
	converted, err := mdconvert.NewRule(c.sink).Convert(key.String(), page)
	if err != nil {
		return Description{}, err
	}
	return Description{
		Title:    converted.Title,
		Markdown: converted.Markdown,
		Parts:    converted.Parts,
	}, nil
}
