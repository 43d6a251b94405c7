package ratelimit

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestTokenBucketAllowsUpToCapacity(t *testing.T) {
	bucket := NewTokenBucket(3, time.Minute)

	assert.True(t, bucket.Allow())
	assert.True(t, bucket.Allow())
	assert.True(t, bucket.Allow())
	assert.False(t, bucket.Allow(), "bucket exhausted")
}

func TestTokenBucketRefills(t *testing.T) {
	bucket := NewTokenBucket(1, 20*time.Millisecond)

	assert.True(t, bucket.Allow())
	assert.False(t, bucket.Allow())

	time.Sleep(30 * time.Millisecond)
	assert.True(t, bucket.Allow(), "tokens restored after refill period")
}

func TestTokenBucketReset(t *testing.T) {
	bucket := NewTokenBucket(2, time.Minute)

	assert.True(t, bucket.Allow())
	assert.True(t, bucket.Allow())
	assert.False(t, bucket.Allow())

	bucket.Reset()
	assert.True(t, bucket.Allow())
}

func TestTokenBucketWait(t *testing.T) {
	bucket := NewTokenBucket(1, 20*time.Millisecond)

	assert.True(t, bucket.Allow())

	start := time.Now()
	bucket.Wait()
	assert.GreaterOrEqual(t, time.Since(start), 5*time.Millisecond)
}

func TestUnlimited(t *testing.T) {
	limiter := Unlimited{}

	for i := 0; i < 100; i++ {
		assert.True(t, limiter.Allow())
	}
	limiter.Wait()
	limiter.Reset()
}
