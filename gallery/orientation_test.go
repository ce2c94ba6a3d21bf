package gallery

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEffectiveOrientationTable(t *testing.T) {
	// stored orientation -> effective orientation after 0, 90, 180, 270 degrees
	table := map[int][4]int{
		1: {1, 6, 3, 8},
		6: {6, 3, 8, 1},
		3: {3, 8, 1, 6},
		8: {8, 1, 6, 3},
		2: {2, 7, 4, 5},
		7: {7, 4, 5, 2},
		4: {4, 5, 2, 7},
		5: {5, 2, 7, 4},
	}
	for stored, want := range table {
		for steps := 0; steps < 4; steps++ {
			t.Run(fmt.Sprintf("%d+%d", stored, steps*90), func(t *testing.T) {
				it := NewItem("a.jpg")
				it.SetOrientation(stored)
				for i := 0; i < steps; i++ {
					it.RotateRight()
				}
				assert.Equal(t, steps*90, it.Rotation())
				assert.Equal(t, want[steps], it.EffectiveOrientation())
			})
		}
	}
}

func TestRotateLeftWalksCycleBackwards(t *testing.T) {
	it := NewItem("a.jpg")
	it.SetOrientation(6)
	it.RotateLeft()
	assert.Equal(t, 1, it.EffectiveOrientation())
	it.RotateLeft()
	assert.Equal(t, 8, it.EffectiveOrientation())
}

func TestRotate(t *testing.T) {
	assert.Equal(t, 1, Rotate(6, 270))
	assert.Equal(t, 7, Rotate(2, 90))
	assert.Equal(t, 8, Rotate(1, -90))
	assert.Equal(t, 5, Rotate(5, 360))
}

func TestParseOrientation(t *testing.T) {
	tests := []struct {
		in   string
		want int
		ok   bool
	}{
		{"6", 6, true},
		{" 3 ", 3, true},
		{"9", 8, true},
		{"0", 1, true},
		{"Rotate 90 CW", 6, true},
		{"Horizontal (normal)", 1, true},
		{"Mirror horizontal and rotate 270 CW", 5, true},
		{"sideways", 0, false},
		{"", 0, false},
	}
	for _, tt := range tests {
		got, ok := ParseOrientation(tt.in)
		assert.Equal(t, tt.ok, ok, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}
}

func TestTransformFor(t *testing.T) {
	assert.True(t, TransformFor(1).Identity())
	assert.Equal(t, Transform{MirrorHorizontal: true}, TransformFor(2))
	assert.Equal(t, Transform{Rotate: 180}, TransformFor(3))
	assert.Equal(t, Transform{MirrorVertical: true}, TransformFor(4))
	assert.Equal(t, Transform{MirrorHorizontal: true, Rotate: 270}, TransformFor(5))
	assert.Equal(t, Transform{Rotate: 90}, TransformFor(6))
	assert.Equal(t, Transform{MirrorVertical: true, Rotate: 90}, TransformFor(7))
	assert.Equal(t, Transform{Rotate: 270}, TransformFor(8))
}
