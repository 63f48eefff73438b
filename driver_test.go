package voodoo

import (
	"strings"
	"testing"
	"unsafe"

	vk "github.com/vulkan-go/vulkan"
)

// fakeDriver backs the dispatch tables with an in-process driver so the
// construction and lifetime paths can be exercised without hardware. It
// models one physical device and tracks every call the wrapper makes.
type fakeDriver struct {
	instanceExtensions []string
	instanceLayers     []string
	deviceExtensions   []string
	queueFamilies      []vk.QueueFamilyProperties
	memoryTypes        []vk.MemoryType
	physicalDevices    int

	// Configurable results.
	allocateResult   vk.Result
	bindBufferResult vk.Result

	// Call tracking.
	extensionQueries    int
	createInstanceCalls int
	destroyInstances    int
	createDeviceCalls   int
	destroyDevices      int
	queueCreateInfos    []vk.DeviceQueueCreateInfo
	deviceQueueRequests [][2]uint32
	allocateCalls       int
	allocateSizes       []uint64
	freeCalls           int
	mapCalls            int
	unmapCalls          int
	activeMaps          int
	createBufferCalls   int
	lastBufferSize      uint64
	destroyBufferCalls  int
	bufferBindOffsets   []uint64
	createImageCalls    int
	lastImageCreateInfo vk.ImageCreateInfo
	destroyImageCalls   int
	imageBindOffsets    []uint64
	debugRegistered     int
	debugReleased       int
	debugCallback       vk.DebugReportCallbackFunc

	backing []byte
}

func newFakeDriver() *fakeDriver {
	return &fakeDriver{
		instanceExtensions: []string{SurfaceExtensionName, DebugReportExtensionName},
		instanceLayers:     []string{"VK_LAYER_KHRONOS_validation"},
		deviceExtensions:   []string{SwapchainExtensionName},
		queueFamilies: []vk.QueueFamilyProperties{
			{QueueFlags: vk.QueueFlags(vk.QueueGraphicsBit | vk.QueueComputeBit | vk.QueueTransferBit), QueueCount: 4},
			{QueueFlags: vk.QueueFlags(vk.QueueTransferBit), QueueCount: 2},
		},
		memoryTypes: []vk.MemoryType{
			{PropertyFlags: vk.MemoryPropertyFlags(vk.MemoryPropertyDeviceLocalBit)},
			{PropertyFlags: vk.MemoryPropertyFlags(vk.MemoryPropertyHostVisibleBit | vk.MemoryPropertyHostCoherentBit)},
		},
		physicalDevices: 1,
	}
}

func trimNul(s string) string {
	return strings.TrimRight(s, "\x00")
}

func (f *fakeDriver) loader() *Loader {
	return &Loader{procs: loaderProcs{
		EnumerateInstanceExtensionProperties: f.enumerateInstanceExtensions,
		EnumerateInstanceLayerProperties:     f.enumerateInstanceLayers,
		CreateInstance:                       f.createInstance,
		InitInstance:                         func(vk.Instance) error { return nil },
		ResolveInstance:                      f.instanceProcs,
	}}
}

func (f *fakeDriver) enumerateInstanceExtensions(layerName string, count *uint32, properties []vk.ExtensionProperties) vk.Result {
	if properties == nil {
		f.extensionQueries++
		*count = uint32(len(f.instanceExtensions))
		return vk.Success
	}
	for i := range properties {
		if i >= len(f.instanceExtensions) {
			break
		}
		copy(properties[i].ExtensionName[:], f.instanceExtensions[i])
	}
	return vk.Success
}

func (f *fakeDriver) enumerateInstanceLayers(count *uint32, properties []vk.LayerProperties) vk.Result {
	if properties == nil {
		*count = uint32(len(f.instanceLayers))
		return vk.Success
	}
	for i := range properties {
		if i >= len(f.instanceLayers) {
			break
		}
		copy(properties[i].LayerName[:], f.instanceLayers[i])
	}
	return vk.Success
}

func (f *fakeDriver) createInstance(createInfo *vk.InstanceCreateInfo, _ *vk.AllocationCallbacks, instance *vk.Instance) vk.Result {
	f.createInstanceCalls++
	for _, name := range createInfo.PpEnabledExtensionNames {
		if !containsName(f.instanceExtensions, trimNul(name)) {
			return vk.ErrorExtensionNotPresent
		}
	}
	for _, name := range createInfo.PpEnabledLayerNames {
		if !containsName(f.instanceLayers, trimNul(name)) {
			return vk.ErrorLayerNotPresent
		}
	}
	*instance = nil
	return vk.Success
}

func (f *fakeDriver) instanceProcs(enabledExtensions []string) instanceProcs {
	procs := instanceProcs{
		EnumeratePhysicalDevices: func(_ vk.Instance, count *uint32, devices []vk.PhysicalDevice) vk.Result {
			if devices == nil {
				*count = uint32(f.physicalDevices)
				return vk.Success
			}
			for i := range devices {
				devices[i] = nil
			}
			return vk.Success
		},
		GetPhysicalDeviceProperties: func(_ vk.PhysicalDevice, properties *vk.PhysicalDeviceProperties) {
			copy(properties.DeviceName[:], "Fake GPU")
			properties.ApiVersion = uint32(vk.MakeVersion(1, 0, 0))
		},
		GetPhysicalDeviceQueueFamilyProperties: func(_ vk.PhysicalDevice, count *uint32, properties []vk.QueueFamilyProperties) {
			if properties == nil {
				*count = uint32(len(f.queueFamilies))
				return
			}
			copy(properties, f.queueFamilies)
		},
		GetPhysicalDeviceMemoryProperties: func(_ vk.PhysicalDevice, properties *vk.PhysicalDeviceMemoryProperties) {
			properties.MemoryTypeCount = uint32(len(f.memoryTypes))
			for i, mt := range f.memoryTypes {
				properties.MemoryTypes[i] = mt
			}
		},
		GetPhysicalDeviceFeatures: func(_ vk.PhysicalDevice, features *vk.PhysicalDeviceFeatures) {},
		EnumerateDeviceExtensionProperties: func(_ vk.PhysicalDevice, _ string, count *uint32, properties []vk.ExtensionProperties) vk.Result {
			if properties == nil {
				*count = uint32(len(f.deviceExtensions))
				return vk.Success
			}
			for i := range properties {
				if i >= len(f.deviceExtensions) {
					break
				}
				copy(properties[i].ExtensionName[:], f.deviceExtensions[i])
			}
			return vk.Success
		},
		GetPhysicalDeviceSurfaceSupport: func(_ vk.PhysicalDevice, queueFamilyIndex uint32, _ vk.Surface, supported *vk.Bool32) vk.Result {
			// Only the first family can present in this fake.
			if queueFamilyIndex == 0 {
				*supported = vk.True
			} else {
				*supported = vk.False
			}
			return vk.Success
		},
		CreateDevice:    f.createDevice,
		DestroyInstance: func(vk.Instance, *vk.AllocationCallbacks) { f.destroyInstances++ },
		ResolveDevice:   f.deviceProcs,
	}
	if containsName(enabledExtensions, DebugReportExtensionName) {
		procs.CreateDebugReportCallback = func(_ vk.Instance, createInfo *vk.DebugReportCallbackCreateInfo, _ *vk.AllocationCallbacks, callback *vk.DebugReportCallback) vk.Result {
			f.debugRegistered++
			f.debugCallback = createInfo.PfnCallback
			*callback = vk.NullDebugReportCallback
			return vk.Success
		}
		procs.DestroyDebugReportCallback = func(vk.Instance, vk.DebugReportCallback, *vk.AllocationCallbacks) {
			f.debugReleased++
			f.debugCallback = nil
		}
	}
	return procs
}

func (f *fakeDriver) createDevice(_ vk.PhysicalDevice, createInfo *vk.DeviceCreateInfo, _ *vk.AllocationCallbacks, device *vk.Device) vk.Result {
	f.createDeviceCalls++
	f.queueCreateInfos = append([]vk.DeviceQueueCreateInfo(nil), createInfo.PQueueCreateInfos...)
	for _, name := range createInfo.PpEnabledExtensionNames {
		if !containsName(f.deviceExtensions, trimNul(name)) {
			// A real driver diagnoses the rejection through the debug
			// callback before failing the call.
			if f.debugCallback != nil {
				f.debugCallback(vk.DebugReportFlags(vk.DebugReportErrorBit),
					vk.DebugReportObjectType(0), 0, 0, 0,
					"Loader", "unsupported device extension "+trimNul(name), nil)
			}
			return vk.ErrorExtensionNotPresent
		}
	}
	*device = nil
	return vk.Success
}

func (f *fakeDriver) deviceProcs(enabledExtensions []string) deviceProcs {
	return deviceProcs{
		GetDeviceQueue: func(_ vk.Device, family, index uint32, queue *vk.Queue) {
			f.deviceQueueRequests = append(f.deviceQueueRequests, [2]uint32{family, index})
			*queue = nil
		},
		QueueWaitIdle:  func(vk.Queue) vk.Result { return vk.Success },
		DeviceWaitIdle: func(vk.Device) vk.Result { return vk.Success },

		AllocateMemory: func(_ vk.Device, allocateInfo *vk.MemoryAllocateInfo, _ *vk.AllocationCallbacks, memory *vk.DeviceMemory) vk.Result {
			if f.allocateResult != vk.Success {
				return f.allocateResult
			}
			f.allocateCalls++
			f.allocateSizes = append(f.allocateSizes, uint64(allocateInfo.AllocationSize))
			f.backing = make([]byte, allocateInfo.AllocationSize)
			*memory = vk.NullDeviceMemory
			return vk.Success
		},
		FreeMemory: func(vk.Device, vk.DeviceMemory, *vk.AllocationCallbacks) { f.freeCalls++ },
		MapMemory: func(_ vk.Device, _ vk.DeviceMemory, offset, size vk.DeviceSize, _ vk.MemoryMapFlags, data *unsafe.Pointer) vk.Result {
			if uint64(offset)+uint64(size) > uint64(len(f.backing)) {
				return vk.ErrorMemoryMapFailed
			}
			f.mapCalls++
			f.activeMaps++
			*data = unsafe.Pointer(&f.backing[offset])
			return vk.Success
		},
		UnmapMemory: func(vk.Device, vk.DeviceMemory) {
			f.unmapCalls++
			f.activeMaps--
		},

		CreateBuffer: func(_ vk.Device, createInfo *vk.BufferCreateInfo, _ *vk.AllocationCallbacks, buffer *vk.Buffer) vk.Result {
			f.createBufferCalls++
			f.lastBufferSize = uint64(createInfo.Size)
			*buffer = vk.NullBuffer
			return vk.Success
		},
		DestroyBuffer: func(vk.Device, vk.Buffer, *vk.AllocationCallbacks) { f.destroyBufferCalls++ },
		GetBufferMemoryRequirements: func(_ vk.Device, _ vk.Buffer, requirements *vk.MemoryRequirements) {
			requirements.Size = vk.DeviceSize(f.lastBufferSize)
			requirements.Alignment = 256
			requirements.MemoryTypeBits = 0x3
		},
		BindBufferMemory: func(_ vk.Device, _ vk.Buffer, _ vk.DeviceMemory, offset vk.DeviceSize) vk.Result {
			if f.bindBufferResult != vk.Success {
				return f.bindBufferResult
			}
			f.bufferBindOffsets = append(f.bufferBindOffsets, uint64(offset))
			return vk.Success
		},

		CreateImage: func(_ vk.Device, createInfo *vk.ImageCreateInfo, _ *vk.AllocationCallbacks, image *vk.Image) vk.Result {
			f.createImageCalls++
			f.lastImageCreateInfo = *createInfo
			*image = vk.NullImage
			return vk.Success
		},
		DestroyImage: func(vk.Device, vk.Image, *vk.AllocationCallbacks) { f.destroyImageCalls++ },
		GetImageMemoryRequirements: func(_ vk.Device, _ vk.Image, requirements *vk.MemoryRequirements) {
			info := f.lastImageCreateInfo
			requirements.Size = vk.DeviceSize(uint64(info.Extent.Width) * uint64(info.Extent.Height) * 4)
			requirements.Alignment = 256
			requirements.MemoryTypeBits = 0x3
		},
		BindImageMemory: func(_ vk.Device, _ vk.Image, _ vk.DeviceMemory, offset vk.DeviceSize) vk.Result {
			f.imageBindOffsets = append(f.imageBindOffsets, uint64(offset))
			return vk.Success
		},

		DestroyDevice: func(vk.Device, *vk.AllocationCallbacks) { f.destroyDevices++ },
	}
}

// Test fixtures used across the suite.

func newTestInstance(t *testing.T, f *fakeDriver) *Instance {
	t.Helper()
	instance, err := NewInstanceBuilder().
		ApplicationInfo(ApplicationInfo{Name: "test"}).
		Build(f.loader())
	if err != nil {
		t.Fatalf("building instance: %v", err)
	}
	return instance
}

func newTestDevice(t *testing.T, f *fakeDriver) *Device {
	t.Helper()
	instance := newTestInstance(t, f)
	devices, err := instance.PhysicalDevices()
	if err != nil {
		t.Fatalf("enumerating physical devices: %v", err)
	}
	if len(devices) == 0 {
		t.Fatal("fake driver exposed no physical devices")
	}
	device, err := devices[0].DeviceBuilder().AddQueue(0, 1.0).Build()
	if err != nil {
		t.Fatalf("building device: %v", err)
	}
	return device
}
