package metadata_test

import (
	"testing"
	"time"

	"github.com/rohmanhakim/aoc-fetch/internal/metadata"
	"github.com/stretchr/testify/assert"
)

type countingSink struct {
	metadata.NoopSink
	fetches int
	lookups int
}

func (c *countingSink) RecordFetch(string, int, time.Duration, int) { c.fetches++ }
func (c *countingSink) RecordCacheLookup(string, bool) { c.lookups++ }

func TestMultiSink_FansOut(t *testing.T) {
	a, b := &countingSink{}, &countingSink{}
	multi := metadata.MultiSink{a, b}

	multi.RecordFetch("input/2023/1", 200, time.Second, 1)
	multi.RecordCacheLookup("input/2023/1", false)
	multi.RecordThrottle(time.Second)

	assert.Equal(t, 1, a.fetches)
	assert.Equal(t, 1, b.fetches)
	assert.Equal(t, 1, a.lookups)
	assert.Equal(t, 1, b.lookups)
}

var (
	_ metadata.MetadataSink = metadata.NoopSink{}
	_ metadata.MetadataSink = metadata.MultiSink{}
	_ metadata.MetadataSink = (*metadata.Recorder)(nil)
	_ metadata.MetadataSink = (*metadata.MeterSink)(nil)
)
