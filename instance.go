package voodoo

import (
	vk "github.com/vulkan-go/vulkan"
)

// Extension names this package knows about. SurfaceExtensionName and
// SwapchainExtensionName are the capability contract handed to windowing
// integrations; the core itself never creates a surface.
const (
	DebugReportExtensionName = "VK_EXT_debug_report"
	SurfaceExtensionName     = "VK_KHR_surface"
	SwapchainExtensionName   = "VK_KHR_swapchain"
)

// Version is used to specify versions of components.
type Version struct {
	Major int
	Minor int
	Patch int
}

// VKVersion returns a Vulkan compatible version representation.
func (v Version) VKVersion() uint32 {
	return vk.MakeVersion(v.Major, v.Minor, v.Patch)
}

// ApplicationInfo describes the application to the driver. It is consumed by
// value into instance construction and carries no ownership.
type ApplicationInfo struct {
	// Name the name of the application
	Name string
	// EngineName the name of the engine associated with the application
	EngineName string
	// Version the version of the application
	Version Version
	// APIVersion the expected minimum version of the Vulkan API (i.e. 1.0.0)
	APIVersion Version
}

func (a ApplicationInfo) vkApplicationInfo() vk.ApplicationInfo {
	if a.APIVersion.Major < 1 {
		a.APIVersion.Major = 1
	}
	return vk.ApplicationInfo{
		SType:              vk.StructureTypeApplicationInfo,
		ApiVersion:         a.APIVersion.VKVersion(),
		ApplicationVersion: a.Version.VKVersion(),
		PApplicationName:   safeString(a.Name),
		PEngineName:        safeString(a.EngineName),
	}
}

// InstanceBuilder stages the configuration of an Instance. It is a plain
// stack-resident aggregate; Build performs the single validation and driver
// call. The zero set of options is valid and produces a core-only instance.
type InstanceBuilder struct {
	appInfo          ApplicationInfo
	extensions       []string
	layers           []string
	printDebugReport bool
}

// NewInstanceBuilder returns an instance builder pre-seeded with an empty
// ApplicationInfo and extension list.
func NewInstanceBuilder() *InstanceBuilder {
	return &InstanceBuilder{}
}

// ApplicationInfo sets the application descriptor.
func (b *InstanceBuilder) ApplicationInfo(info ApplicationInfo) *InstanceBuilder {
	b.appInfo = info
	return b
}

// EnabledExtensions appends instance extensions to enable. Names must come
// from Loader.SupportedExtensions; the driver rejects anything else.
func (b *InstanceBuilder) EnabledExtensions(names ...string) *InstanceBuilder {
	b.extensions = append(b.extensions, names...)
	return b
}

// EnabledLayers appends instance layers to enable.
func (b *InstanceBuilder) EnabledLayers(names ...string) *InstanceBuilder {
	b.layers = append(b.layers, names...)
	return b
}

// PrintDebugReport, when enabled, makes Build additionally enable the
// debug-report extension and register a default callback that prints
// diagnostics to standard output.
func (b *InstanceBuilder) PrintDebugReport(enable bool) *InstanceBuilder {
	b.printDebugReport = enable
	return b
}

// Build creates the native instance and returns an Instance owning the new
// handle and its function table. The loader must outlive the instance.
// Driver rejections (unsupported extension, missing layer, out of memory)
// surface as a *DriverError and are not retried.
func (b *InstanceBuilder) Build(loader *Loader) (*Instance, error) {
	if loader == nil {
		return nil, &ValidationError{Op: "build instance", Reason: "nil loader"}
	}

	extensions := append([]string(nil), b.extensions...)
	if b.printDebugReport && !containsName(extensions, DebugReportExtensionName) {
		extensions = append(extensions, DebugReportExtensionName)
	}
	layers := append([]string(nil), b.layers...)

	appInfo := b.appInfo.vkApplicationInfo()
	createInfo := vk.InstanceCreateInfo{
		SType:                   vk.StructureTypeInstanceCreateInfo,
		PApplicationInfo:        &appInfo,
		EnabledExtensionCount:   uint32(len(extensions)),
		PpEnabledExtensionNames: safeStrings(append([]string(nil), extensions...)),
		EnabledLayerCount:       uint32(len(layers)),
		PpEnabledLayerNames:     safeStrings(layers),
	}

	var handle vk.Instance
	if ret := loader.procs.CreateInstance(&createInfo, nil, &handle); ret != vk.Success {
		return nil, newDriverError("create instance", ret)
	}
	if err := loader.procs.InitInstance(handle); err != nil {
		loader.procs.ResolveInstance(extensions).DestroyInstance(handle, nil)
		return nil, &LoaderError{Reason: "instance entry point resolution failed", Err: err}
	}

	instance := &Instance{
		handle:     handle,
		loader:     loader,
		extensions: extensions,
		procs:      loader.procs.ResolveInstance(extensions),
	}

	if b.printDebugReport {
		debug, err := RegisterDebugReport(instance, DefaultDebugReportFlags, PrintDebugCallback)
		if err != nil {
			instance.procs.DestroyInstance(handle, nil)
			return nil, err
		}
		instance.debug = debug
	}

	return instance, nil
}

// Instance wraps the top-level driver handle and owns the per-instance
// function table, core plus enabled extension entry points. Destroying an
// Instance invalidates every Device, DebugReport and PhysicalDevice derived
// from it; the caller must tear those down first.
type Instance struct {
	handle     vk.Instance
	loader     *Loader
	procs      instanceProcs
	extensions []string

	// debug holds the callback auto-registered by PrintDebugReport.
	debug *DebugReport
}

// Handle exposes the raw instance handle for collaborators such as
// windowing integrations that create surfaces.
func (i *Instance) Handle() vk.Instance {
	return i.handle
}

// EnabledExtensions returns the extensions the instance was built with.
func (i *Instance) EnabledExtensions() []string {
	return append([]string(nil), i.extensions...)
}

// SupportsDebugReport reports whether the debug-report entry points were
// resolved into this instance's function table.
func (i *Instance) SupportsDebugReport() bool {
	return i.procs.CreateDebugReportCallback != nil
}

// PhysicalDevices enumerates the hardware visible to this instance. Zero
// devices is a valid empty result, not an error. Each descriptor snapshots
// the device's properties, queue families and memory types at enumeration
// time.
func (i *Instance) PhysicalDevices() ([]*PhysicalDevice, error) {
	var count uint32
	if ret := i.procs.EnumeratePhysicalDevices(i.handle, &count, nil); ret != vk.Success {
		return nil, newDriverError("enumerate physical devices", ret)
	}
	if count == 0 {
		return nil, nil
	}
	handles := make([]vk.PhysicalDevice, count)
	if ret := i.procs.EnumeratePhysicalDevices(i.handle, &count, handles); ret != vk.Success {
		return nil, newDriverError("enumerate physical devices", ret)
	}

	devices := make([]*PhysicalDevice, count)
	for n, handle := range handles {
		devices[n] = i.describePhysicalDevice(handle)
	}
	return devices, nil
}

func (i *Instance) describePhysicalDevice(handle vk.PhysicalDevice) *PhysicalDevice {
	pd := &PhysicalDevice{handle: handle, instance: i}

	i.procs.GetPhysicalDeviceProperties(handle, &pd.properties)
	pd.properties.Deref()
	pd.Name = vk.ToString(pd.properties.DeviceName[:])

	i.procs.GetPhysicalDeviceFeatures(handle, &pd.features)
	pd.features.Deref()

	var familyCount uint32
	i.procs.GetPhysicalDeviceQueueFamilyProperties(handle, &familyCount, nil)
	if familyCount > 0 {
		families := make([]vk.QueueFamilyProperties, familyCount)
		i.procs.GetPhysicalDeviceQueueFamilyProperties(handle, &familyCount, families)
		for n := range families {
			families[n].Deref()
		}
		pd.queueFamilies = families
	}

	var memory vk.PhysicalDeviceMemoryProperties
	i.procs.GetPhysicalDeviceMemoryProperties(handle, &memory)
	memory.Deref()
	for n := uint32(0); n < memory.MemoryTypeCount; n++ {
		mt := memory.MemoryTypes[n]
		mt.Deref()
		pd.memoryTypes = append(pd.memoryTypes, mt)
	}

	return pd
}

// Destroy releases the instance. Any auto-registered debug callback is
// unregistered first. All devices and resources derived from this instance
// must already be destroyed; using them afterwards is undefined at the
// driver level.
func (i *Instance) Destroy() {
	if i.debug != nil {
		i.debug.Release()
		i.debug = nil
	}
	i.procs.DestroyInstance(i.handle, nil)
	i.handle = nil
}
