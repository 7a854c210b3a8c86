package util_test

import (
	"errors"
	"fmt"
	"slices"
	"sync"
	"testing"

	"github.com/benbjohnson/immutable"
	"github.com/cottand/lemma/util"
	"github.com/hashicorp/go-set/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func insertIfAbsent(r *util.Registry[string, int], key string, value int) error {
	return r.Update(func(current *immutable.SortedMap[string, int]) ([]util.Pair[string, int], error) {
		if _, ok := current.Get(key); ok {
			return nil, fmt.Errorf("%s already present", key)
		}
		return []util.Pair[string, int]{util.NewPair(key, value)}, nil
	})
}

func TestRegistryAppendOnly(t *testing.T) {
	r := util.NewRegistry[string, int]()
	require.NoError(t, insertIfAbsent(r, "b", 2))
	require.NoError(t, insertIfAbsent(r, "a", 1))
	assert.Error(t, insertIfAbsent(r, "a", 3))

	v, ok := r.Get("a")
	assert.True(t, ok)
	assert.Equal(t, 1, v)

	var keys []string
	for k := range r.All() {
		keys = append(keys, k)
	}
	assert.Equal(t, []string{"a", "b"}, keys)
}

func TestRegistryFailedUpdateLeavesSnapshot(t *testing.T) {
	r := util.NewRegistry[string, int]()
	err := r.Update(func(*immutable.SortedMap[string, int]) ([]util.Pair[string, int], error) {
		return nil, errors.New("nope")
	})
	assert.Error(t, err)
	assert.Equal(t, 0, r.Len())
}

func TestRegistryConcurrentWriters(t *testing.T) {
	r := util.NewRegistry[string, int]()
	wg := sync.WaitGroup{}
	failures := make(chan error, 50)
	for i := range 50 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			// every writer races for the same 5 keys
			if err := insertIfAbsent(r, fmt.Sprint("k", i%5), i); err != nil {
				failures <- err
			}
		}()
	}
	wg.Wait()
	close(failures)
	assert.Equal(t, 5, r.Len())
	assert.Len(t, failures, 45)
}

func TestFreshName(t *testing.T) {
	used := set.From([]string{"H", "H0", "x"})
	assert.Equal(t, "H1", util.FreshName("H", used))
	assert.Equal(t, "y", util.FreshName("y", used))
	assert.Equal(t, "H1", util.FreshName("H0", used))

	names := util.FreshNames(used, "x", "x", "t")
	assert.Equal(t, []string{"x0", "x1", "t"}, names)
	assert.True(t, used.Contains("x1"))
}

func TestZipAndSortedKeys(t *testing.T) {
	pairs := util.Zip([]int{1, 2, 3}, []string{"a", "b"})
	assert.Equal(t, []util.Pair[int, string]{{Fst: 1, Snd: "a"}, {Fst: 2, Snd: "b"}}, pairs)

	s := util.SetFromSeq(slices.Values([]string{"c", "a", "b", "a"}), 4)
	assert.Equal(t, []string{"a", "b", "c"}, util.SortedKeys[string](s))
}
