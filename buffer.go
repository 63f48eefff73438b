package voodoo

import (
	"sync/atomic"

	vk "github.com/vulkan-go/vulkan"
)

// Buffer owns a buffer resource handle. A buffer starts unbound; binding it
// to a Memory allocation is a one-way transition that must happen before
// the buffer is used in any operation that reads or writes it.
type Buffer struct {
	device *Device
	handle vk.Buffer
	size   uint64
	usage  vk.BufferUsageFlags

	bound  int32
	memory *Memory
}

// BufferBuilder stages the configuration of a Buffer. Size is required;
// usage defaults to storage and sharing to exclusive.
type BufferBuilder struct {
	device  *Device
	size    uint64
	usage   vk.BufferUsageFlags
	sharing vk.SharingMode
}

// BufferBuilder returns a builder for a buffer on this device.
func (d *Device) BufferBuilder() *BufferBuilder {
	return &BufferBuilder{
		device:  d,
		usage:   vk.BufferUsageFlags(vk.BufferUsageStorageBufferBit),
		sharing: vk.SharingModeExclusive,
	}
}

// Size sets the buffer size in bytes.
func (b *BufferBuilder) Size(sizeInBytes uint64) *BufferBuilder {
	b.size = sizeInBytes
	return b
}

// Usage sets the buffer usage flags.
func (b *BufferBuilder) Usage(usage vk.BufferUsageFlags) *BufferBuilder {
	b.usage = usage
	return b
}

// SharingMode sets the buffer's queue sharing mode.
func (b *BufferBuilder) SharingMode(mode vk.SharingMode) *BufferBuilder {
	b.sharing = mode
	return b
}

// Build performs the single native create call.
func (b *BufferBuilder) Build() (*Buffer, error) {
	if b.size == 0 {
		return nil, &ValidationError{Op: "create buffer", Reason: "size not set"}
	}

	createInfo := vk.BufferCreateInfo{
		SType:       vk.StructureTypeBufferCreateInfo,
		Size:        vk.DeviceSize(b.size),
		Usage:       b.usage,
		SharingMode: b.sharing,
	}

	var handle vk.Buffer
	if ret := b.device.procs.CreateBuffer(b.device.handle, &createInfo, nil, &handle); ret != vk.Success {
		return nil, newDriverError("create buffer", ret)
	}

	return &Buffer{
		device: b.device,
		handle: handle,
		size:   b.size,
		usage:  b.usage,
	}, nil
}

// CreateBuffer creates a storage buffer of the given size with exclusive
// sharing.
func (d *Device) CreateBuffer(sizeInBytes uint64) (*Buffer, error) {
	return d.BufferBuilder().Size(sizeInBytes).Build()
}

// Handle exposes the raw buffer handle.
func (b *Buffer) Handle() vk.Buffer {
	return b.handle
}

// Size returns the buffer size in bytes.
func (b *Buffer) Size() uint64 {
	return b.size
}

// MemoryRequirements queries the buffer's allocation requirements.
func (b *Buffer) MemoryRequirements() vk.MemoryRequirements {
	var requirements vk.MemoryRequirements
	b.device.procs.GetBufferMemoryRequirements(b.device.handle, b.handle, &requirements)
	requirements.Deref()
	return requirements
}

// Bound reports whether the buffer has been bound to memory.
func (b *Buffer) Bound() bool {
	return atomic.LoadInt32(&b.bound) != 0
}

// Memory returns the allocation the buffer is bound to, or nil.
func (b *Buffer) Memory() *Memory {
	return b.memory
}

// BindMemory binds the buffer to a range of the given allocation. Binding
// is one-way: a second call fails with *AlreadyBoundError whether or not
// the target memory is the same.
func (b *Buffer) BindMemory(memory *Memory, offset uint64) error {
	if !atomic.CompareAndSwapInt32(&b.bound, 0, 1) {
		return &AlreadyBoundError{Resource: "buffer"}
	}
	if ret := b.device.procs.BindBufferMemory(b.device.handle, b.handle, memory.handle, vk.DeviceSize(offset)); ret != vk.Success {
		// The driver rejected the bind, so the buffer is still unbound.
		atomic.StoreInt32(&b.bound, 0)
		return newDriverError("bind buffer memory", ret)
	}
	b.memory = memory
	return nil
}

// BindMemoryUnchecked binds with no state bookkeeping. Rebinding, or
// binding an invalid range, is undefined behavior by contract.
func (b *Buffer) BindMemoryUnchecked(memory *Memory, offset uint64) error {
	if ret := b.device.procs.BindBufferMemory(b.device.handle, b.handle, memory.handle, vk.DeviceSize(offset)); ret != vk.Success {
		return newDriverError("bind buffer memory", ret)
	}
	return nil
}

// Destroy releases the buffer. The memory it was bound to is not freed.
func (b *Buffer) Destroy() {
	b.device.procs.DestroyBuffer(b.device.handle, b.handle, nil)
	b.handle = vk.NullBuffer
}
