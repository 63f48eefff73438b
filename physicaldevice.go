package voodoo

import (
	"fmt"

	vk "github.com/vulkan-go/vulkan"
)

// PhysicalDevice is a lightweight descriptor for a piece of hardware
// enumerated from an Instance. It owns no driver resource and has no
// destructor; it is valid for exactly the Instance's lifetime.
type PhysicalDevice struct {
	Name string

	handle        vk.PhysicalDevice
	instance      *Instance
	properties    vk.PhysicalDeviceProperties
	features      vk.PhysicalDeviceFeatures
	queueFamilies []vk.QueueFamilyProperties
	memoryTypes   []vk.MemoryType
}

func (p *PhysicalDevice) String() string {
	return p.Name
}

// Handle exposes the raw physical device handle.
func (p *PhysicalDevice) Handle() vk.PhysicalDevice {
	return p.handle
}

// Properties returns the device properties captured at enumeration time.
func (p *PhysicalDevice) Properties() vk.PhysicalDeviceProperties {
	return p.properties
}

// Features returns the device features captured at enumeration time.
func (p *PhysicalDevice) Features() vk.PhysicalDeviceFeatures {
	return p.features
}

// QueueFamilies returns the device's queue families as a filterable slice.
func (p *PhysicalDevice) QueueFamilies() QueueFamilySlice {
	families := make(QueueFamilySlice, len(p.queueFamilies))
	for i := range p.queueFamilies {
		families[i] = &QueueFamily{
			Index:          i,
			PhysicalDevice: p,
			Properties:     p.queueFamilies[i],
		}
	}
	return families
}

// MemoryTypes returns the device's memory types as a filterable slice.
func (p *PhysicalDevice) MemoryTypes() MemoryTypeSlice {
	return append(MemoryTypeSlice(nil), p.memoryTypes...)
}

// FindMemoryType picks the first memory type allowed by memoryTypeBits that
// has all the requested property flags. See the documentation of
// VkPhysicalDeviceMemoryProperties for how this search is meant to work.
func (p *PhysicalDevice) FindMemoryType(memoryTypeBits uint32, properties vk.MemoryPropertyFlagBits) (uint32, error) {
	for i, mt := range p.memoryTypes {
		if memoryTypeBits&(1<<uint32(i)) != 0 &&
			vk.MemoryPropertyFlagBits(mt.PropertyFlags)&properties == properties {
			return uint32(i), nil
		}
	}
	return 0, &ValidationError{Op: "find memory type", Reason: "no matching memory type found"}
}

// SupportedExtensions queries the device extension names this hardware
// advertises.
func (p *PhysicalDevice) SupportedExtensions() ([]string, error) {
	var count uint32
	if ret := p.instance.procs.EnumerateDeviceExtensionProperties(p.handle, "", &count, nil); ret != vk.Success {
		return nil, newDriverError("enumerate device extensions", ret)
	}
	properties := make([]vk.ExtensionProperties, count)
	if ret := p.instance.procs.EnumerateDeviceExtensionProperties(p.handle, "", &count, properties); ret != vk.Success {
		return nil, newDriverError("enumerate device extensions", ret)
	}
	names := make([]string, 0, count)
	for _, ext := range properties {
		ext.Deref()
		names = append(names, vk.ToString(ext.ExtensionName[:]))
	}
	return names, nil
}

// QueueFamily describes one queue family of a PhysicalDevice.
type QueueFamily struct {
	Index          int
	PhysicalDevice *PhysicalDevice
	Properties     vk.QueueFamilyProperties
}

// Count returns how many queues the family supports.
func (q *QueueFamily) Count() int {
	return int(q.Properties.QueueCount)
}

func (q *QueueFamily) IsCompute() bool {
	return q.Properties.QueueFlags&vk.QueueFlags(vk.QueueComputeBit) == vk.QueueFlags(vk.QueueComputeBit)
}

func (q *QueueFamily) IsGraphics() bool {
	return q.Properties.QueueFlags&vk.QueueFlags(vk.QueueGraphicsBit) == vk.QueueFlags(vk.QueueGraphicsBit)
}

func (q *QueueFamily) IsTransfer() bool {
	return q.Properties.QueueFlags&vk.QueueFlags(vk.QueueTransferBit) == vk.QueueFlags(vk.QueueTransferBit)
}

// SupportsPresent reports whether the family can present to the given
// surface. The surface is an opaque handle supplied by the windowing
// integration; this core never creates one.
func (q *QueueFamily) SupportsPresent(surface vk.Surface) bool {
	var supported vk.Bool32
	q.PhysicalDevice.instance.procs.GetPhysicalDeviceSurfaceSupport(
		q.PhysicalDevice.handle, uint32(q.Index), surface, &supported)
	return supported == vk.True
}

func (q *QueueFamily) String() string {
	return fmt.Sprintf("{ Index: %d Count: %d Compute: %v Graphics: %v Transfer: %v }",
		q.Index, q.Count(), q.IsCompute(), q.IsGraphics(), q.IsTransfer())
}

type QueueFamilySlice []*QueueFamily

func (ql QueueFamilySlice) Filter(f func(q *QueueFamily) bool) QueueFamilySlice {
	ret := make(QueueFamilySlice, 0)
	for _, q := range ql {
		if f(q) {
			ret = append(ret, q)
		}
	}
	return ret
}

func (ql QueueFamilySlice) FilterCompute() QueueFamilySlice {
	return ql.Filter(func(q *QueueFamily) bool {
		return q.IsCompute()
	})
}

func (ql QueueFamilySlice) FilterGraphics() QueueFamilySlice {
	return ql.Filter(func(q *QueueFamily) bool {
		return q.IsGraphics()
	})
}

func (ql QueueFamilySlice) FilterTransfer() QueueFamilySlice {
	return ql.Filter(func(q *QueueFamily) bool {
		return q.IsTransfer()
	})
}

func (ql QueueFamilySlice) FilterPresent(surface vk.Surface) QueueFamilySlice {
	return ql.Filter(func(q *QueueFamily) bool {
		return q.SupportsPresent(surface)
	})
}

func (ql QueueFamilySlice) FilterGraphicsAndPresent(surface vk.Surface) QueueFamilySlice {
	return ql.Filter(func(q *QueueFamily) bool {
		return q.IsGraphics() && q.SupportsPresent(surface)
	})
}

type MemoryTypeSlice []vk.MemoryType

func (m MemoryTypeSlice) Filter(f func(properties vk.MemoryPropertyFlagBits) bool) MemoryTypeSlice {
	res := make(MemoryTypeSlice, 0)
	for i := 0; i < len(m); i++ {
		if f(vk.MemoryPropertyFlagBits(m[i].PropertyFlags)) {
			res = append(res, m[i])
		}
	}
	return res
}

func (m MemoryTypeSlice) NumHostVisible() int {
	return len(m.Filter(func(properties vk.MemoryPropertyFlagBits) bool {
		return properties&vk.MemoryPropertyHostVisibleBit != 0
	}))
}

func (m MemoryTypeSlice) NumHostCoherent() int {
	return len(m.Filter(func(properties vk.MemoryPropertyFlagBits) bool {
		return properties&vk.MemoryPropertyHostCoherentBit != 0
	}))
}

func (m MemoryTypeSlice) NumDeviceLocal() int {
	return len(m.Filter(func(properties vk.MemoryPropertyFlagBits) bool {
		return properties&vk.MemoryPropertyDeviceLocalBit != 0
	}))
}
