// Copyright 2025 walteh LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package cache

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gitlab.com/tozd/go/errors"
)

func counter() (func() (string, error), *atomic.Int32) {
	var n atomic.Int32
	return func() (string, error) {
		n.Add(1)
		return "value", nil
	}, &n
}

func TestLoadCachesPerToken(t *testing.T) {
	c := New()
	load, calls := counter()

	for rangeIdx := 0; rangeIdx < 3; rangeIdx++ {
		v, err := Load(c, "t1", "/a/.babelrc", load)
		require.NoError(t, err, "load should succeed")
		assert.Equal(t, "value", v, "value should be returned")
	}
	assert.Equal(t, int32(1), calls.Load(), "same token should hit the cache")

	_, err := Load(c, "t2", "/a/.babelrc", load)
	require.NoError(t, err, "load should succeed")
	assert.Equal(t, int32(2), calls.Load(), "new token should miss")

	stats := c.Stats()
	assert.Equal(t, int64(2), stats.Hits, "hits should be counted")
	assert.Equal(t, int64(2), stats.Misses, "misses should be counted")
	assert.Equal(t, 2, stats.Entries, "one entry per token")
}

func TestNoCacheBypasses(t *testing.T) {
	c := New()
	load, calls := counter()

	for rangeIdx := 0; rangeIdx < 3; rangeIdx++ {
		_, err := Load(c, NoCache, "/a/.babelrc", load)
		require.NoError(t, err, "load should succeed")
	}
	assert.Equal(t, int32(3), calls.Load(), "NoCache token should always load")
	assert.Equal(t, 0, c.Stats().Entries, "nothing should be stored")

	var nilCache *Cache
	_, err := Load(nilCache, "t", "/a/.babelrc", load)
	require.NoError(t, err, "nil cache should load directly")
	assert.Equal(t, int32(4), calls.Load(), "nil cache should always load")
}

func TestErrorsAreNotCached(t *testing.T) {
	c := New()
	fail := true
	load := func() (int, error) {
		if fail {
			return 0, errors.New("boom")
		}
		return 7, nil
	}

	_, err := Load(c, "t", "k", load)
	require.Error(t, err, "first load should fail")

	fail = false
	v, err := Load(c, "t", "k", load)
	require.NoError(t, err, "retry should load again")
	assert.Equal(t, 7, v, "retry value should be returned")
}

func TestInvalidate(t *testing.T) {
	c := New()
	load, calls := counter()

	_, _ = Load(c, "t1", "k", load)
	_, _ = Load(c, "t2", "k", load)
	c.Invalidate("t1")

	_, _ = Load(c, "t1", "k", load)
	_, _ = Load(c, "t2", "k", load)
	assert.Equal(t, int32(3), calls.Load(), "only the invalidated token should reload")

	c.Clear()
	assert.Equal(t, 0, c.Stats().Entries, "clear should drop everything")
}

func TestConcurrentMissesCoalesce(t *testing.T) {
	c := New()
	var calls atomic.Int32
	release := make(chan struct{})
	load := func() (string, error) {
		calls.Add(1)
		<-release
		return "v", nil
	}

	var wg sync.WaitGroup
	for rangeIdx := 0; rangeIdx < 8; rangeIdx++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			v, err := Load(c, "t", "k", load)
			assert.NoError(t, err, "load should succeed")
			assert.Equal(t, "v", v, "value should be shared")
		}()
	}

	time.Sleep(20 * time.Millisecond)
	close(release)
	wg.Wait()

	assert.Equal(t, int32(1), calls.Load(), "concurrent misses should run the loader once")
}
