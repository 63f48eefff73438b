package voodoo

import (
	"fmt"

	vk "github.com/vulkan-go/vulkan"
)

// Queue is a non-owning handle into a Device's submission entry points.
// Queues are established by the device builder's queue registry and are
// never individually destroyed; a queue is valid exactly as long as its
// Device.
type Queue struct {
	device   *Device
	handle   vk.Queue
	family   int
	index    int
	priority float32
}

// Handle exposes the raw queue handle.
func (q *Queue) Handle() vk.Queue {
	return q.handle
}

// Family returns the queue family this queue belongs to.
func (q *Queue) Family() int {
	return q.family
}

// Index returns the queue's index within its family.
func (q *Queue) Index() int {
	return q.index
}

// Priority returns the priority the queue was requested with.
func (q *Queue) Priority() float32 {
	return q.priority
}

// WaitIdle blocks until the queue finishes all outstanding work.
func (q *Queue) WaitIdle() error {
	if ret := q.device.procs.QueueWaitIdle(q.handle); ret != vk.Success {
		return newDriverError("queue wait idle", ret)
	}
	return nil
}

func (q *Queue) String() string {
	return fmt.Sprintf("{ Family: %d Index: %d Priority: %v }", q.family, q.index, q.priority)
}
