package rangemap

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func Test_RangeMap_Insert(t *testing.T) {
	testCases := []struct {
		name   string
		insert [][2]rune
		expect [][2]rune
	}{
		{
			name:   "single interval",
			insert: [][2]rune{{'a', 'z' + 1}},
			expect: [][2]rune{{'a', 'z' + 1}},
		},
		{
			name:   "disjoint intervals",
			insert: [][2]rune{{'a', 'c'}, {'x', 'z'}},
			expect: [][2]rune{{'a', 'c'}, {'x', 'z'}},
		},
		{
			name:   "duplicate insert is a no-op",
			insert: [][2]rune{{'a', 'f'}, {'a', 'f'}},
			expect: [][2]rune{{'a', 'f'}},
		},
		{
			name:   "contained interval splits the outer one",
			insert: [][2]rune{{'a', 'z'}, {'e', 'g'}},
			expect: [][2]rune{{'a', 'e'}, {'e', 'g'}, {'g', 'z'}},
		},
		{
			name:   "overlapping interval splits at every boundary",
			insert: [][2]rune{{'a', 'm'}, {'g', 'z'}},
			expect: [][2]rune{{'a', 'g'}, {'g', 'm'}, {'m', 'z'}},
		},
		{
			name:   "covering interval fills the gaps",
			insert: [][2]rune{{'c', 'f'}, {'a', 'z'}},
			expect: [][2]rune{{'a', 'c'}, {'c', 'f'}, {'f', 'z'}},
		},
		{
			name:   "shared boundary does not split",
			insert: [][2]rune{{'a', 'f'}, {'f', 'm'}},
			expect: [][2]rune{{'a', 'f'}, {'f', 'm'}},
		},
		{
			name: "many overlaps",
			insert: [][2]rune{
				{0, 10}, {5, 15}, {8, 9}, {0, 20},
			},
			expect: [][2]rune{
				{0, 5}, {5, 8}, {8, 9}, {9, 10}, {10, 15}, {15, 20},
			},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert := assert.New(t)

			rm := &RangeMap{}
			for _, iv := range tc.insert {
				rm.Insert(iv[0], iv[1])
			}
			rm.AssignClasses()

			actual := rm.Intervals()

			if !assert.Len(actual, len(tc.expect)) {
				return
			}
			for i := range tc.expect {
				assert.Equal(tc.expect[i][0], actual[i].Lo, "interval %d lo", i)
				assert.Equal(tc.expect[i][1], actual[i].Hi, "interval %d hi", i)
				assert.Equal(i, actual[i].Class, "interval %d class id", i)
			}
		})
	}
}

func Test_RangeMap_Invariants(t *testing.T) {
	assert := assert.New(t)

	// a deliberately messy insert sequence over the full space
	rm := &RangeMap{}
	rm.Insert(0, MaxCodePoint)
	rm.Insert('a', 'z'+1)
	rm.Insert('A', 'Z'+1)
	rm.Insert('0', '9'+1)
	rm.Insert('a', 'f'+1)
	rm.Insert('e', 'q')
	rm.Insert(0x4e00, 0x9fff)
	rm.AssignClasses()

	ivs := rm.Intervals()

	// pairwise disjoint, sorted, and contiguous from 0 to MaxCodePoint
	var pos rune
	for i, iv := range ivs {
		assert.Equal(pos, iv.Lo, "interval %d starts where the last ended", i)
		assert.Less(iv.Lo, iv.Hi, "interval %d is non-empty", i)
		assert.Equal(i, iv.Class, "interval %d has dense class id", i)
		pos = iv.Hi
	}
	assert.Equal(rune(MaxCodePoint), pos, "intervals cover the full space")
}

func Test_RangeMap_Search(t *testing.T) {
	assert := assert.New(t)

	rm := &RangeMap{}
	rm.Insert('a', 'z'+1)
	rm.Insert('0', '9'+1)
	rm.Insert('m', 'p')
	rm.AssignClasses()

	// expected partition: [0-9+1), [a, m), [m, p), [p, z+1)
	searches := []struct {
		cp      rune
		class   int
		inRange bool
	}{
		{'0', 0, true},
		{'9', 0, true},
		{'a', 1, true},
		{'l', 1, true},
		{'m', 2, true},
		{'o', 2, true},
		{'p', 3, true},
		{'z', 3, true},
		{' ', 0, false},
		{'~', 0, false},
	}

	for _, s := range searches {
		class, ok := rm.Search(s.cp)
		assert.Equal(s.inRange, ok, "search %q coverage", s.cp)
		if s.inRange {
			assert.Equal(s.class, class, "search %q class", s.cp)
		}
	}
}

func Test_RangeMap_ClassesOf(t *testing.T) {
	assert := assert.New(t)

	rm := &RangeMap{}
	rm.Insert('a', 'z'+1)
	rm.Insert('m', 'p')
	rm.AssignClasses()

	// partition: 0=[a, m), 1=[m, p), 2=[p, z+1)
	assert.Equal([]int{0, 1, 2}, rm.ClassesOf('a', 'z'+1))
	assert.Equal([]int{1}, rm.ClassesOf('m', 'p'))
	assert.Equal([]int{0, 1}, rm.ClassesOf('b', 'n'))
	assert.Nil(rm.ClassesOf(0x100, 0x200))
}

func Test_RangeMap_MarshalUnmarshalBinary(t *testing.T) {
	assert := assert.New(t)

	rm := &RangeMap{}
	rm.Insert(0, MaxCodePoint)
	rm.Insert('a', 'z'+1)
	rm.Insert('e', 'g')
	rm.AssignClasses()

	data, err := rm.MarshalBinary()
	if !assert.NoError(err) {
		return
	}

	rm2 := &RangeMap{}
	err = rm2.UnmarshalBinary(data)
	if !assert.NoError(err) {
		return
	}

	assert.Equal(rm.Intervals(), rm2.Intervals())

	class, ok := rm2.Search('f')
	assert.True(ok)
	expectClass, _ := rm.Search('f')
	assert.Equal(expectClass, class)
}
