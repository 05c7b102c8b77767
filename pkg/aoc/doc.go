/*
Package aoc fetches Advent of Code puzzle inputs and pages while honoring the
site's automation etiquette.

Every resource is downloaded at most once: results are kept in an in-memory
cache that is loaded from, and flushed back to, a persistent store. Outbound
requests are spaced at least three minutes apart, and the time of the last
request is persisted too, so the spacing holds across process restarts.

A Client must be closed to persist its state:

	cfg, err := config.FromEnv("me@example.com").Build()
	if err != nil {
		return err
	}
	client, err := aoc.New(cfg)
	if err != nil {
		return err
	}
	defer client.Close()

	input, err := client.Input(ctx, 2023, 1)

Callers should not wrap Get in their own retry loop. The client never
retries, and a loop without its own backoff turns every failed attempt into
another throttled request, across restarts as well.
*/
package aoc
