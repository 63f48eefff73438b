package voodoo

import (
	"unsafe"

	vk "github.com/vulkan-go/vulkan"
)

// Everything below the wrapper goes through a dispatch table resolved by
// name at construction time, never through static linkage: which entry
// points exist depends on which extensions were enabled. Tables come in
// three levels mirroring the driver's own hierarchy. Tests substitute their
// own tables; everything else uses the native ones bound here.

// loaderProcs is the global-level table owned by a Loader.
type loaderProcs struct {
	EnumerateInstanceExtensionProperties func(layerName string, count *uint32, properties []vk.ExtensionProperties) vk.Result
	EnumerateInstanceLayerProperties     func(count *uint32, properties []vk.LayerProperties) vk.Result
	CreateInstance                       func(createInfo *vk.InstanceCreateInfo, allocator *vk.AllocationCallbacks, instance *vk.Instance) vk.Result

	// InitInstance finishes per-instance entry point resolution after a
	// successful CreateInstance.
	InitInstance func(instance vk.Instance) error

	// ResolveInstance produces the instance-level table for the given set
	// of enabled extensions.
	ResolveInstance func(enabledExtensions []string) instanceProcs
}

// instanceProcs is the per-instance table: core entry points plus whatever
// the enabled extensions contribute. Extension entry points stay nil when
// their extension was not enabled.
type instanceProcs struct {
	EnumeratePhysicalDevices               func(instance vk.Instance, count *uint32, devices []vk.PhysicalDevice) vk.Result
	GetPhysicalDeviceProperties            func(device vk.PhysicalDevice, properties *vk.PhysicalDeviceProperties)
	GetPhysicalDeviceQueueFamilyProperties func(device vk.PhysicalDevice, count *uint32, properties []vk.QueueFamilyProperties)
	GetPhysicalDeviceMemoryProperties      func(device vk.PhysicalDevice, properties *vk.PhysicalDeviceMemoryProperties)
	GetPhysicalDeviceFeatures              func(device vk.PhysicalDevice, features *vk.PhysicalDeviceFeatures)
	EnumerateDeviceExtensionProperties     func(device vk.PhysicalDevice, layerName string, count *uint32, properties []vk.ExtensionProperties) vk.Result
	GetPhysicalDeviceSurfaceSupport        func(device vk.PhysicalDevice, queueFamilyIndex uint32, surface vk.Surface, supported *vk.Bool32) vk.Result
	CreateDevice                           func(device vk.PhysicalDevice, createInfo *vk.DeviceCreateInfo, allocator *vk.AllocationCallbacks, logical *vk.Device) vk.Result
	DestroyInstance                        func(instance vk.Instance, allocator *vk.AllocationCallbacks)

	// VK_EXT_debug_report entry points, nil unless the extension was
	// enabled at instance construction.
	CreateDebugReportCallback  func(instance vk.Instance, createInfo *vk.DebugReportCallbackCreateInfo, allocator *vk.AllocationCallbacks, callback *vk.DebugReportCallback) vk.Result
	DestroyDebugReportCallback func(instance vk.Instance, callback vk.DebugReportCallback, allocator *vk.AllocationCallbacks)

	// ResolveDevice produces the device-level table for a logical device
	// built with the given device extensions.
	ResolveDevice func(enabledExtensions []string) deviceProcs
}

// deviceProcs is the per-device table: the subset of entry points a Device
// and the resources allocated from it call into.
type deviceProcs struct {
	GetDeviceQueue func(device vk.Device, queueFamilyIndex, queueIndex uint32, queue *vk.Queue)
	QueueWaitIdle  func(queue vk.Queue) vk.Result
	DeviceWaitIdle func(device vk.Device) vk.Result

	AllocateMemory func(device vk.Device, allocateInfo *vk.MemoryAllocateInfo, allocator *vk.AllocationCallbacks, memory *vk.DeviceMemory) vk.Result
	FreeMemory     func(device vk.Device, memory vk.DeviceMemory, allocator *vk.AllocationCallbacks)
	MapMemory      func(device vk.Device, memory vk.DeviceMemory, offset, size vk.DeviceSize, flags vk.MemoryMapFlags, data *unsafe.Pointer) vk.Result
	UnmapMemory    func(device vk.Device, memory vk.DeviceMemory)

	CreateBuffer                func(device vk.Device, createInfo *vk.BufferCreateInfo, allocator *vk.AllocationCallbacks, buffer *vk.Buffer) vk.Result
	DestroyBuffer               func(device vk.Device, buffer vk.Buffer, allocator *vk.AllocationCallbacks)
	GetBufferMemoryRequirements func(device vk.Device, buffer vk.Buffer, requirements *vk.MemoryRequirements)
	BindBufferMemory            func(device vk.Device, buffer vk.Buffer, memory vk.DeviceMemory, offset vk.DeviceSize) vk.Result

	CreateImage                func(device vk.Device, createInfo *vk.ImageCreateInfo, allocator *vk.AllocationCallbacks, image *vk.Image) vk.Result
	DestroyImage               func(device vk.Device, image vk.Image, allocator *vk.AllocationCallbacks)
	GetImageMemoryRequirements func(device vk.Device, image vk.Image, requirements *vk.MemoryRequirements)
	BindImageMemory            func(device vk.Device, image vk.Image, memory vk.DeviceMemory, offset vk.DeviceSize) vk.Result

	DestroyDevice func(device vk.Device, allocator *vk.AllocationCallbacks)
}

func nativeLoaderProcs() loaderProcs {
	return loaderProcs{
		EnumerateInstanceExtensionProperties: vk.EnumerateInstanceExtensionProperties,
		EnumerateInstanceLayerProperties:     vk.EnumerateInstanceLayerProperties,
		CreateInstance:                       vk.CreateInstance,
		InitInstance:                         vk.InitInstance,
		ResolveInstance:                      nativeInstanceProcs,
	}
}

func nativeInstanceProcs(enabledExtensions []string) instanceProcs {
	procs := instanceProcs{
		EnumeratePhysicalDevices:               vk.EnumeratePhysicalDevices,
		GetPhysicalDeviceProperties:            vk.GetPhysicalDeviceProperties,
		GetPhysicalDeviceQueueFamilyProperties: vk.GetPhysicalDeviceQueueFamilyProperties,
		GetPhysicalDeviceMemoryProperties:      vk.GetPhysicalDeviceMemoryProperties,
		GetPhysicalDeviceFeatures:              vk.GetPhysicalDeviceFeatures,
		EnumerateDeviceExtensionProperties:     vk.EnumerateDeviceExtensionProperties,
		GetPhysicalDeviceSurfaceSupport:        vk.GetPhysicalDeviceSurfaceSupport,
		CreateDevice:                           vk.CreateDevice,
		DestroyInstance:                        vk.DestroyInstance,
		ResolveDevice:                          nativeDeviceProcs,
	}
	if containsName(enabledExtensions, DebugReportExtensionName) {
		procs.CreateDebugReportCallback = vk.CreateDebugReportCallback
		procs.DestroyDebugReportCallback = vk.DestroyDebugReportCallback
	}
	return procs
}

func nativeDeviceProcs(enabledExtensions []string) deviceProcs {
	_ = enabledExtensions
	return deviceProcs{
		GetDeviceQueue: vk.GetDeviceQueue,
		QueueWaitIdle:  vk.QueueWaitIdle,
		DeviceWaitIdle: vk.DeviceWaitIdle,

		AllocateMemory: vk.AllocateMemory,
		FreeMemory:     vk.FreeMemory,
		MapMemory:      vk.MapMemory,
		UnmapMemory:    vk.UnmapMemory,

		CreateBuffer:                vk.CreateBuffer,
		DestroyBuffer:               vk.DestroyBuffer,
		GetBufferMemoryRequirements: vk.GetBufferMemoryRequirements,
		BindBufferMemory:            vk.BindBufferMemory,

		CreateImage:                vk.CreateImage,
		DestroyImage:               vk.DestroyImage,
		GetImageMemoryRequirements: vk.GetImageMemoryRequirements,
		BindImageMemory:            vk.BindImageMemory,

		DestroyDevice: vk.DestroyDevice,
	}
}

func containsName(list []string, name string) bool {
	for _, s := range list {
		if s == name {
			return true
		}
	}
	return false
}
