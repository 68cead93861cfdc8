package util

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func Test_WorkQueue_PopsSmallestFirst(t *testing.T) {
	assert := assert.New(t)

	sizes := map[string]int{"big": 10, "small": 1, "mid": 5}
	wq := NewWorkQueue[string](func(s string) int { return sizes[s] })

	wq.Push("big", "small", "mid")

	var popped []string
	for {
		item, ok := wq.Pop()
		if !ok {
			break
		}
		popped = append(popped, item)
	}

	assert.Equal([]string{"small", "mid", "big"}, popped)
}

func Test_WorkQueue_TiesBreakByInsertionOrder(t *testing.T) {
	assert := assert.New(t)

	wq := NewWorkQueue[int](func(int) int { return 0 })
	wq.Push(3, 1, 2)

	first, _ := wq.Pop()
	second, _ := wq.Pop()
	third, _ := wq.Pop()

	assert.Equal([]int{3, 1, 2}, []int{first, second, third})
}

func Test_WorkQueue_DuplicatePushIgnored(t *testing.T) {
	assert := assert.New(t)

	wq := NewWorkQueue[int](func(i int) int { return i })
	wq.Push(1, 1, 1)

	_, ok := wq.Pop()
	assert.True(ok)
	_, ok = wq.Pop()
	assert.False(ok, "only one live copy of a pushed item")
}

func Test_WorkQueue_RemoveDiscardsLazily(t *testing.T) {
	assert := assert.New(t)

	wq := NewWorkQueue[int](func(i int) int { return i })
	wq.Push(1, 2, 3)
	wq.Remove(1)

	assert.False(wq.Has(1))
	assert.True(wq.Has(2))

	item, ok := wq.Pop()
	assert.True(ok)
	assert.Equal(2, item, "removed item is skipped")

	// removed-then-popped items can be pushed again
	wq.Push(1)
	item, ok = wq.Pop()
	assert.True(ok)
	assert.Equal(1, item)
}
