package testutil

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestManualDispatcherPostOrder(t *testing.T) {
	d := NewManualDispatcher()

	var order []int
	d.Post(func() {
		order = append(order, 1)
		d.Post(func() { order = append(order, 3) })
		order = append(order, 2)
	})
	d.Post(func() { order = append(order, 4) })

	assert.Equal(t, []int{1, 2, 3, 4}, order)
}

func TestManualDispatcherAdvance(t *testing.T) {
	d := NewManualDispatcher()

	var order []string
	d.PostDelayed(300*time.Millisecond, func() { order = append(order, "late") })
	d.PostDelayed(100*time.Millisecond, func() { order = append(order, "early") })
	cancel := d.PostDelayed(200*time.Millisecond, func() { order = append(order, "cancelled") })
	cancel()

	assert.Equal(t, 2, d.Pending())

	d.Advance(150 * time.Millisecond)
	assert.Equal(t, []string{"early"}, order)

	d.Advance(150 * time.Millisecond)
	assert.Equal(t, []string{"early", "late"}, order)
	assert.Equal(t, 300*time.Millisecond, d.Now())
	assert.Equal(t, 0, d.Pending())

	cancel()
}

func TestManualDispatcherRescheduleFromTask(t *testing.T) {
	d := NewManualDispatcher()

	var runs int
	var tick func()
	tick = func() {
		runs++
		if runs < 3 {
			d.PostDelayed(10*time.Millisecond, tick)
		}
	}
	d.PostDelayed(10*time.Millisecond, tick)

	d.Advance(time.Second)
	assert.Equal(t, 3, runs)
}
