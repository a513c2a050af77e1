package internal

import (
	"maps"
	"slices"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestConcat2(t *testing.T) {
	assert := assert.New(t)

	seq := Concat2(slices.All([]string{"a", "b"}), slices.All([]string{"c"}))

	var keys []int
	var values []string
	for key, value := range seq {
		keys = append(keys, key)
		values = append(values, value)
	}
	assert.Equal([]int{0, 1, 0}, keys)
	assert.Equal([]string{"a", "b", "c"}, values)

	// Early stop.
	count := 0
	for range Concat2(maps.All(map[int]int{1: 1}), maps.All(map[int]int{2: 2})) {
		count++
		break
	}
	assert.Equal(1, count)

	assert.Empty(maps.Collect(Concat2[int, int]()))
}
