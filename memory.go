package voodoo

import (
	"sync/atomic"
	"unsafe"

	vk "github.com/vulkan-go/vulkan"
)

// Memory owns a device memory allocation. At most one safe mapping may be
// active at a time; the unchecked variants skip that bookkeeping entirely.
type Memory struct {
	device    *Device
	handle    vk.DeviceMemory
	size      uint64
	typeIndex uint32
	mapped    int32
}

// MemoryBuilder stages a memory allocation. Both the allocation size and
// the memory type index are required.
type MemoryBuilder struct {
	device       *Device
	size         uint64
	typeIndex    uint32
	typeIndexSet bool
}

// MemoryBuilder returns a builder for a memory allocation on this device.
func (d *Device) MemoryBuilder() *MemoryBuilder {
	return &MemoryBuilder{device: d}
}

// AllocationSize sets the size of the allocation in bytes.
func (b *MemoryBuilder) AllocationSize(sizeInBytes uint64) *MemoryBuilder {
	b.size = sizeInBytes
	return b
}

// MemoryTypeIndex selects the memory type, and with it the heap the memory
// comes from. Use PhysicalDevice.FindMemoryType to pick one.
func (b *MemoryBuilder) MemoryTypeIndex(index uint32) *MemoryBuilder {
	b.typeIndex = index
	b.typeIndexSet = true
	return b
}

// Build performs the single native allocation call. Exhaustion surfaces as
// a *DriverError matching ErrOutOfDeviceMemory or ErrOutOfHostMemory; a
// caller may fall back to a smaller request but nothing here retries.
func (b *MemoryBuilder) Build() (*Memory, error) {
	if b.size == 0 {
		return nil, &ValidationError{Op: "allocate memory", Reason: "allocation size not set"}
	}
	if !b.typeIndexSet {
		return nil, &ValidationError{Op: "allocate memory", Reason: "memory type index not set"}
	}

	allocateInfo := vk.MemoryAllocateInfo{
		SType:           vk.StructureTypeMemoryAllocateInfo,
		AllocationSize:  vk.DeviceSize(b.size),
		MemoryTypeIndex: b.typeIndex,
	}

	var handle vk.DeviceMemory
	if ret := b.device.procs.AllocateMemory(b.device.handle, &allocateInfo, nil, &handle); ret != vk.Success {
		return nil, newDriverError("allocate memory", ret)
	}

	return &Memory{
		device:    b.device,
		handle:    handle,
		size:      b.size,
		typeIndex: b.typeIndex,
	}, nil
}

// AllocateMemory finds a memory type satisfying memoryTypeBits and the
// requested properties, then allocates sizeInBytes from it.
func (d *Device) AllocateMemory(sizeInBytes uint64, memoryTypeBits uint32, properties vk.MemoryPropertyFlagBits) (*Memory, error) {
	typeIndex, err := d.physicalDevice.FindMemoryType(memoryTypeBits, properties)
	if err != nil {
		return nil, err
	}
	return d.MemoryBuilder().
		AllocationSize(sizeInBytes).
		MemoryTypeIndex(typeIndex).
		Build()
}

// AllocateForBuffer allocates memory satisfying the buffer's requirements.
// The buffer still has to be bound with BindMemory.
func (d *Device) AllocateForBuffer(b *Buffer, properties vk.MemoryPropertyFlagBits) (*Memory, error) {
	requirements := b.MemoryRequirements()
	return d.AllocateMemory(uint64(requirements.Size), requirements.MemoryTypeBits, properties)
}

// AllocateForImage allocates memory satisfying the image's requirements.
func (d *Device) AllocateForImage(i *Image, properties vk.MemoryPropertyFlagBits) (*Memory, error) {
	requirements := i.MemoryRequirements()
	return d.AllocateMemory(uint64(requirements.Size), requirements.MemoryTypeBits, properties)
}

// Handle exposes the raw memory handle.
func (m *Memory) Handle() vk.DeviceMemory {
	return m.handle
}

// Size returns the allocation size in bytes.
func (m *Memory) Size() uint64 {
	return m.size
}

// TypeIndex returns the memory type the allocation came from.
func (m *Memory) TypeIndex() uint32 {
	return m.typeIndex
}

// IsMapped reports whether a safe mapping is currently active.
func (m *Memory) IsMapped() bool {
	return atomic.LoadInt32(&m.mapped) != 0
}

// MappedRange is a scoped view of mapped memory. Close unmaps it; Close is
// safe to call on every exit path and more than once.
type MappedRange struct {
	memory *Memory
	ptr    unsafe.Pointer
	offset uint64
	size   uint64
	closed bool
}

// Bytes returns the mapped bytes. Nil once the range is closed.
func (r *MappedRange) Bytes() []byte {
	if r.closed {
		return nil
	}
	return ToBytes(r.ptr, int(r.size))
}

// Offset returns the range's offset into the allocation.
func (r *MappedRange) Offset() uint64 {
	return r.offset
}

// Size returns the range's size in bytes.
func (r *MappedRange) Size() uint64 {
	return r.size
}

// Close unmaps the range and releases the memory's mapping slot.
func (r *MappedRange) Close() {
	if r.closed {
		return
	}
	r.closed = true
	r.ptr = nil
	r.memory.device.procs.UnmapMemory(r.memory.device.handle, r.memory.handle)
	atomic.StoreInt32(&r.memory.mapped, 0)
}

// Map maps a range of this memory and returns a scoped view of it. The
// range is validated against the allocation's bounds and at most one safe
// mapping may be active at a time; a second Map before Close fails. After
// Close, Map succeeds again with a fresh range.
func (m *Memory) Map(offset, size uint64) (*MappedRange, error) {
	if size == 0 {
		return nil, &ValidationError{Op: "map memory", Reason: "zero-length range"}
	}
	// Checked without offset+size, which wraps for hostile values.
	if offset > m.size || size > m.size-offset {
		return nil, &ValidationError{Op: "map memory", Reason: "range exceeds allocation size"}
	}
	if !atomic.CompareAndSwapInt32(&m.mapped, 0, 1) {
		return nil, &ValidationError{Op: "map memory", Reason: "memory is already mapped"}
	}

	var ptr unsafe.Pointer
	ret := m.device.procs.MapMemory(m.device.handle, m.handle,
		vk.DeviceSize(offset), vk.DeviceSize(size), 0, &ptr)
	if ret != vk.Success {
		atomic.StoreInt32(&m.mapped, 0)
		return nil, newDriverError("map memory", ret)
	}

	return &MappedRange{memory: m, ptr: ptr, offset: offset, size: size}, nil
}

// MapCopyUnmap maps the start of this memory, copies data into it and
// unmaps again.
func (m *Memory) MapCopyUnmap(data []byte) error {
	rng, err := m.Map(0, uint64(len(data)))
	if err != nil {
		return err
	}
	defer rng.Close()

	copy(rng.Bytes(), data)
	return nil
}

// MapUnchecked maps a range of this memory with no bounds or mapping-state
// bookkeeping, trading safety for zero added instructions. Calling it with
// an invalid range, or while another mapping is active, is undefined
// behavior at the driver level. Pair with UnmapUnchecked.
func (m *Memory) MapUnchecked(offset, size uint64) (unsafe.Pointer, error) {
	var ptr unsafe.Pointer
	ret := m.device.procs.MapMemory(m.device.handle, m.handle,
		vk.DeviceSize(offset), vk.DeviceSize(size), 0, &ptr)
	if ret != vk.Success {
		return nil, newDriverError("map memory", ret)
	}
	return ptr, nil
}

// UnmapUnchecked unmaps memory mapped with MapUnchecked.
func (m *Memory) UnmapUnchecked() {
	m.device.procs.UnmapMemory(m.device.handle, m.handle)
}

// Free releases the allocation. Resources bound to it must no longer be in
// use.
func (m *Memory) Free() {
	m.device.procs.FreeMemory(m.device.handle, m.handle, nil)
	m.handle = vk.NullDeviceMemory
}
