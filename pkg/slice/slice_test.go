// Copyright (c) 2026 Quill. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package slice_test

import (
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/taibuivan/quill/pkg/slice"
)

func TestMap(t *testing.T) {
	assert.Equal(t, []string{"1", "2"}, slice.Map([]int{1, 2}, strconv.Itoa))
	assert.Nil(t, slice.Map[int, string](nil, strconv.Itoa))
}

func TestFilter(t *testing.T) {
	even := func(n int) bool { return n%2 == 0 }
	assert.Equal(t, []int{2, 4}, slice.Filter([]int{1, 2, 3, 4}, even))
	assert.Empty(t, slice.Filter([]int{1, 3}, even))
}

func TestIndexBy(t *testing.T) {
	type pair struct{ k, v string }
	index := slice.IndexBy([]pair{{"a", "1"}, {"b", "2"}, {"a", "3"}}, func(p pair) string { return p.k })

	assert.Len(t, index, 2)
	assert.Equal(t, "3", index["a"].v)
}
