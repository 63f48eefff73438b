package voodoo

import (
	"sync/atomic"

	vk "github.com/vulkan-go/vulkan"
)

// Image owns an image resource handle. Like Buffer, an image starts unbound
// and binding it to memory is a one-way transition.
type Image struct {
	device *Device
	handle vk.Image
	format vk.Format
	extent vk.Extent2D

	bound  int32
	memory *Memory
}

// ImageBuilder stages the configuration of a 2D image. Extent, format and
// usage are required; everything else has the common defaults (optimal
// tiling, one mip level, one array layer, single sampling, exclusive
// sharing, undefined initial layout).
type ImageBuilder struct {
	device  *Device
	extent  vk.Extent2D
	format  vk.Format
	tiling  vk.ImageTiling
	usage   vk.ImageUsageFlags
	sharing vk.SharingMode
	mips    uint32
	layers  uint32
}

// ImageBuilder returns a builder for an image on this device.
func (d *Device) ImageBuilder() *ImageBuilder {
	return &ImageBuilder{
		device:  d,
		tiling:  vk.ImageTilingOptimal,
		sharing: vk.SharingModeExclusive,
		mips:    1,
		layers:  1,
	}
}

// Extent sets the image dimensions.
func (b *ImageBuilder) Extent(extent vk.Extent2D) *ImageBuilder {
	b.extent = extent
	return b
}

// Format sets the pixel format.
func (b *ImageBuilder) Format(format vk.Format) *ImageBuilder {
	b.format = format
	return b
}

// Tiling sets the tiling arrangement.
func (b *ImageBuilder) Tiling(tiling vk.ImageTiling) *ImageBuilder {
	b.tiling = tiling
	return b
}

// Usage sets the image usage flags.
func (b *ImageBuilder) Usage(usage vk.ImageUsageFlags) *ImageBuilder {
	b.usage = usage
	return b
}

// SharingMode sets the image's queue sharing mode.
func (b *ImageBuilder) SharingMode(mode vk.SharingMode) *ImageBuilder {
	b.sharing = mode
	return b
}

// MipLevels sets the number of mip levels.
func (b *ImageBuilder) MipLevels(levels uint32) *ImageBuilder {
	b.mips = levels
	return b
}

// ArrayLayers sets the number of array layers.
func (b *ImageBuilder) ArrayLayers(layers uint32) *ImageBuilder {
	b.layers = layers
	return b
}

// Build performs the single native create call.
func (b *ImageBuilder) Build() (*Image, error) {
	if b.extent.Width == 0 || b.extent.Height == 0 {
		return nil, &ValidationError{Op: "create image", Reason: "extent not set"}
	}
	if b.format == vk.FormatUndefined {
		return nil, &ValidationError{Op: "create image", Reason: "format not set"}
	}
	if b.usage == 0 {
		return nil, &ValidationError{Op: "create image", Reason: "usage not set"}
	}

	createInfo := vk.ImageCreateInfo{
		SType:     vk.StructureTypeImageCreateInfo,
		ImageType: vk.ImageType2d,
		Extent: vk.Extent3D{
			Width:  b.extent.Width,
			Height: b.extent.Height,
			Depth:  1,
		},
		MipLevels:     b.mips,
		ArrayLayers:   b.layers,
		Format:        b.format,
		Tiling:        b.tiling,
		InitialLayout: vk.ImageLayoutUndefined,
		Usage:         b.usage,
		Samples:       vk.SampleCount1Bit,
		SharingMode:   b.sharing,
	}

	var handle vk.Image
	if ret := b.device.procs.CreateImage(b.device.handle, &createInfo, nil, &handle); ret != vk.Success {
		return nil, newDriverError("create image", ret)
	}

	return &Image{
		device: b.device,
		handle: handle,
		format: b.format,
		extent: b.extent,
	}, nil
}

// Handle exposes the raw image handle.
func (i *Image) Handle() vk.Image {
	return i.handle
}

// Format returns the image's pixel format.
func (i *Image) Format() vk.Format {
	return i.format
}

// Extent returns the image's dimensions.
func (i *Image) Extent() vk.Extent2D {
	return i.extent
}

// MemoryRequirements queries the image's allocation requirements.
func (i *Image) MemoryRequirements() vk.MemoryRequirements {
	var requirements vk.MemoryRequirements
	i.device.procs.GetImageMemoryRequirements(i.device.handle, i.handle, &requirements)
	requirements.Deref()
	return requirements
}

// Bound reports whether the image has been bound to memory.
func (i *Image) Bound() bool {
	return atomic.LoadInt32(&i.bound) != 0
}

// Memory returns the allocation the image is bound to, or nil.
func (i *Image) Memory() *Memory {
	return i.memory
}

// BindMemory binds the image to a range of the given allocation. Binding is
// one-way: a second call fails with *AlreadyBoundError.
func (i *Image) BindMemory(memory *Memory, offset uint64) error {
	if !atomic.CompareAndSwapInt32(&i.bound, 0, 1) {
		return &AlreadyBoundError{Resource: "image"}
	}
	if ret := i.device.procs.BindImageMemory(i.device.handle, i.handle, memory.handle, vk.DeviceSize(offset)); ret != vk.Success {
		atomic.StoreInt32(&i.bound, 0)
		return newDriverError("bind image memory", ret)
	}
	i.memory = memory
	return nil
}

// BindMemoryUnchecked binds with no state bookkeeping. Rebinding, or
// binding an invalid range, is undefined behavior by contract.
func (i *Image) BindMemoryUnchecked(memory *Memory, offset uint64) error {
	if ret := i.device.procs.BindImageMemory(i.device.handle, i.handle, memory.handle, vk.DeviceSize(offset)); ret != vk.Success {
		return newDriverError("bind image memory", ret)
	}
	return nil
}

// Destroy releases the image. The memory it was bound to is not freed.
func (i *Image) Destroy() {
	i.device.procs.DestroyImage(i.device.handle, i.handle, nil)
	i.handle = vk.NullImage
}
