package ibd

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSeedQueueOfferPoll(t *testing.T) {
	q := NewSeedQueue(2)
	b1 := []Seed{{Hap1: 0, Hap2: 1, IbsStart: 0, IbsInclEnd: 10}}
	b2 := []Seed{{Hap1: 2, Hap2: 3, IbsStart: 5, IbsInclEnd: 20}}
	b3 := []Seed{{Hap1: 4, Hap2: 5}}

	assert.True(t, q.Offer(b1))
	assert.True(t, q.Offer(b2))
	assert.False(t, q.Offer(b3), "a full queue rejects instead of blocking")

	got, ok := q.Poll()
	require.True(t, ok)
	assert.Equal(t, b1, got)
	got, ok = q.Poll()
	require.True(t, ok)
	assert.Equal(t, b2, got)
}

func TestSeedQueuePollTimesOut(t *testing.T) {
	q := NewSeedQueue(1)
	start := time.Now()
	_, ok := q.Poll()
	assert.False(t, ok)
	assert.Less(t, time.Since(start), time.Second)
}
