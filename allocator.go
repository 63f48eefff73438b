package voodoo

import (
	"fmt"

	vk "github.com/vulkan-go/vulkan"
)

// Allocation is a sub-range carved out of a larger memory block.
type Allocation struct {
	Offset uint64
	Size   uint64
}

func (a *Allocation) String() string {
	return fmt.Sprintf("[%d %d]", a.Offset, a.Size)
}

// PoolAllocator hands out aligned, non-overlapping ranges within a block of
// Size bytes, first-fit. It does no driver calls; pair it with a single
// Memory allocation and use the returned offsets with BindMemory.
type PoolAllocator struct {
	Size   uint64
	Align  uint64
	allocs []*Allocation
}

func alignUp(a uint64, align uint64) uint64 {
	m := a % align
	if m == 0 {
		return a
	}
	return (a - m) + align
}

// Allocate reserves a range of the given size, or nil if no gap fits it.
func (p *PoolAllocator) Allocate(size uint64) *Allocation {
	align := p.Align
	if align == 0 {
		align = 1
	}

	if len(p.allocs) == 0 {
		if size > p.Size {
			return nil
		}
		na := &Allocation{Offset: 0, Size: size}
		p.allocs = []*Allocation{na}
		return na
	}

	// Head gap.
	if p.allocs[0].Offset >= size {
		na := &Allocation{Offset: 0, Size: size}
		p.allocs = append([]*Allocation{na}, p.allocs...)
		return na
	}

	// Gaps between neighbours.
	// FIXME: first-fit; could examine all gaps and pick the tightest.
	for i := 0; i+1 < len(p.allocs); i++ {
		c := p.allocs[i]
		n := p.allocs[i+1]

		lo := alignUp(c.Offset+c.Size, align)
		hi := n.Offset

		if hi >= lo && hi-lo >= size {
			na := &Allocation{Offset: lo, Size: size}
			p.allocs = append(p.allocs[:i+1], append([]*Allocation{na}, p.allocs[i+1:]...)...)
			return na
		}
	}

	// Tail gap.
	last := p.allocs[len(p.allocs)-1]
	lo := alignUp(last.Offset+last.Size, align)
	if p.Size >= lo && p.Size-lo >= size {
		na := &Allocation{Offset: lo, Size: size}
		p.allocs = append(p.allocs, na)
		return na
	}
	return nil
}

// Free returns a range to the pool.
func (p *PoolAllocator) Free(fa *Allocation) {
	fi := -1
	for i, a := range p.allocs {
		if a == fa {
			fi = i
		}
	}
	if fi != -1 {
		p.allocs = append(p.allocs[:fi], p.allocs[fi+1:]...)
	}
}

func (p *PoolAllocator) String() string {
	return fmt.Sprintf("%v", p.allocs)
}

// MemoryPool couples one Memory allocation with a PoolAllocator so several
// buffers or images can share the block at distinct offsets.
type MemoryPool struct {
	Memory    *Memory
	Allocator *PoolAllocator
}

// AllocatePool allocates one block of device memory of the given size and
// wraps it in a pool. Alignment should be at least the largest alignment
// the pooled resources require.
func (d *Device) AllocatePool(sizeInBytes uint64, memoryTypeBits uint32, properties vk.MemoryPropertyFlagBits, align uint64) (*MemoryPool, error) {
	memory, err := d.AllocateMemory(sizeInBytes, memoryTypeBits, properties)
	if err != nil {
		return nil, err
	}
	return &MemoryPool{
		Memory:    memory,
		Allocator: &PoolAllocator{Size: sizeInBytes, Align: align},
	}, nil
}

// BindBuffer reserves a range for the buffer and binds it there. The
// returned allocation can later be handed back with Release.
func (p *MemoryPool) BindBuffer(b *Buffer) (*Allocation, error) {
	requirements := b.MemoryRequirements()
	a := p.Allocator.Allocate(uint64(requirements.Size))
	if a == nil {
		return nil, &ValidationError{Op: "bind buffer", Reason: "insufficient space in memory pool"}
	}
	if err := b.BindMemory(p.Memory, a.Offset); err != nil {
		p.Allocator.Free(a)
		return nil, err
	}
	return a, nil
}

// BindImage reserves a range for the image and binds it there.
func (p *MemoryPool) BindImage(i *Image) (*Allocation, error) {
	requirements := i.MemoryRequirements()
	a := p.Allocator.Allocate(uint64(requirements.Size))
	if a == nil {
		return nil, &ValidationError{Op: "bind image", Reason: "insufficient space in memory pool"}
	}
	if err := i.BindMemory(p.Memory, a.Offset); err != nil {
		p.Allocator.Free(a)
		return nil, err
	}
	return a, nil
}

// Release returns a range to the pool. The resource bound there must no
// longer be in use; binding is one-way, so the range cannot be handed to a
// resource that was already bound elsewhere.
func (p *MemoryPool) Release(a *Allocation) {
	p.Allocator.Free(a)
}

// Destroy frees the pooled memory. Resources bound into the pool must be
// destroyed first.
func (p *MemoryPool) Destroy() {
	p.Memory.Free()
	p.Allocator = nil
}
