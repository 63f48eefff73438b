package voodoo

import (
	"sync"
	"unsafe"

	vk "github.com/vulkan-go/vulkan"
)

// Loader locates the platform's Vulkan driver and owns the global-level
// dispatch table every later object derives from. Create one per process
// before anything else and keep it alive until everything built from it has
// been destroyed.
type Loader struct {
	procs loaderProcs

	mu         sync.Mutex
	extensions []string
	layers     []string
}

// NewLoader resolves the driver's default entry point. It fails with a
// *LoaderError if no compatible driver is present on the host.
func NewLoader() (*Loader, error) {
	if err := vk.SetDefaultGetInstanceProcAddr(); err != nil {
		return nil, &LoaderError{Reason: "no driver entry point", Err: err}
	}
	if err := vk.Init(); err != nil {
		return nil, &LoaderError{Reason: "driver initialization failed", Err: err}
	}
	return &Loader{procs: nativeLoaderProcs()}, nil
}

// NewLoaderFromProcAddr resolves the driver through a caller-supplied
// vkGetInstanceProcAddr pointer, typically obtained from the windowing
// system (e.g. glfw.GetVulkanGetInstanceProcAddress).
func NewLoaderFromProcAddr(proc unsafe.Pointer) (*Loader, error) {
	if proc == nil {
		return nil, &LoaderError{Reason: "nil GetInstanceProcAddr"}
	}
	vk.SetGetInstanceProcAddr(proc)
	if err := vk.Init(); err != nil {
		return nil, &LoaderError{Reason: "driver initialization failed", Err: err}
	}
	return &Loader{procs: nativeLoaderProcs()}, nil
}

// SupportedExtensions returns the instance extension names the host driver
// advertises. The list is queried once and cached; as a set it is stable for
// an unchanged host. These names are the only valid input to
// InstanceBuilder.EnabledExtensions.
func (l *Loader) SupportedExtensions() ([]string, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.extensions == nil {
		var count uint32
		if ret := l.procs.EnumerateInstanceExtensionProperties("", &count, nil); ret != vk.Success {
			return nil, newDriverError("enumerate instance extensions", ret)
		}
		properties := make([]vk.ExtensionProperties, count)
		if ret := l.procs.EnumerateInstanceExtensionProperties("", &count, properties); ret != vk.Success {
			return nil, newDriverError("enumerate instance extensions", ret)
		}
		names := make([]string, 0, count)
		for _, ext := range properties {
			ext.Deref()
			names = append(names, vk.ToString(ext.ExtensionName[:]))
		}
		l.extensions = names
	}
	return append([]string(nil), l.extensions...), nil
}

// SupportedLayers returns the instance layer names the host driver
// advertises, queried once and cached.
func (l *Loader) SupportedLayers() ([]string, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.layers == nil {
		var count uint32
		if ret := l.procs.EnumerateInstanceLayerProperties(&count, nil); ret != vk.Success {
			return nil, newDriverError("enumerate instance layers", ret)
		}
		properties := make([]vk.LayerProperties, count)
		if ret := l.procs.EnumerateInstanceLayerProperties(&count, properties); ret != vk.Success {
			return nil, newDriverError("enumerate instance layers", ret)
		}
		names := make([]string, 0, count)
		for _, layer := range properties {
			layer.Deref()
			names = append(names, vk.ToString(layer.LayerName[:]))
		}
		l.layers = names
	}
	return append([]string(nil), l.layers...), nil
}

// SupportsExtension reports whether the host driver advertises the named
// instance extension.
func (l *Loader) SupportsExtension(name string) (bool, error) {
	names, err := l.SupportedExtensions()
	if err != nil {
		return false, err
	}
	return containsName(names, name), nil
}
