package voodoo

import (
	"fmt"

	vk "github.com/vulkan-go/vulkan"
)

// QueueRequest describes one queue to create at device build time.
type QueueRequest struct {
	Family   int
	Priority float32
}

// DeviceBuilder stages the configuration of a logical Device built from a
// chosen PhysicalDevice.
type DeviceBuilder struct {
	physicalDevice *PhysicalDevice
	queues         []QueueRequest
	extensions     []string
	layers         []string
	features       *vk.PhysicalDeviceFeatures
}

// DeviceBuilder returns a builder for a logical device on this hardware.
func (p *PhysicalDevice) DeviceBuilder() *DeviceBuilder {
	return &DeviceBuilder{physicalDevice: p}
}

// AddQueue requests one queue from the given family with the given priority.
// The queues returned by Build correspond 1:1, in request order, to the
// AddQueue calls.
func (b *DeviceBuilder) AddQueue(family int, priority float32) *DeviceBuilder {
	b.queues = append(b.queues, QueueRequest{Family: family, Priority: priority})
	return b
}

// AddQueues requests one queue per priority from the given family.
func (b *DeviceBuilder) AddQueues(family int, priorities ...float32) *DeviceBuilder {
	for _, p := range priorities {
		b.AddQueue(family, p)
	}
	return b
}

// EnabledExtensions appends device extensions to enable. Unsupported names
// are passed through to the driver, which rejects them; with debug reporting
// active the rejection is diagnosed through the callback before Build
// returns.
func (b *DeviceBuilder) EnabledExtensions(names ...string) *DeviceBuilder {
	b.extensions = append(b.extensions, names...)
	return b
}

// EnabledLayers appends device layers to enable.
func (b *DeviceBuilder) EnabledLayers(names ...string) *DeviceBuilder {
	b.layers = append(b.layers, names...)
	return b
}

// Features overrides the device features to enable. By default every
// feature the hardware supports is enabled.
func (b *DeviceBuilder) Features(features vk.PhysicalDeviceFeatures) *DeviceBuilder {
	b.features = &features
	return b
}

// Build validates the queue requests against the PhysicalDevice's
// capabilities, performs the single native create call, resolves the
// device-level function table and establishes the queue registry. The
// returned Device owns its handle and must be destroyed before the parent
// Instance.
func (b *DeviceBuilder) Build() (*Device, error) {
	if b.physicalDevice == nil {
		return nil, &ValidationError{Op: "build device", Reason: "no physical device"}
	}
	if len(b.queues) == 0 {
		return nil, &ValidationError{Op: "build device", Reason: "no queues requested"}
	}

	// Group requests per family, preserving request order within each.
	perFamily := make(map[int][]float32)
	familyOrder := make([]int, 0, len(b.queues))
	for _, req := range b.queues {
		if _, seen := perFamily[req.Family]; !seen {
			familyOrder = append(familyOrder, req.Family)
		}
		perFamily[req.Family] = append(perFamily[req.Family], req.Priority)
	}

	families := b.physicalDevice.queueFamilies
	for _, family := range familyOrder {
		if family < 0 || family >= len(families) {
			return nil, newDriverError(
				fmt.Sprintf("create device: queue family %d does not exist", family),
				vk.ErrorInitializationFailed)
		}
		if requested := len(perFamily[family]); requested > int(families[family].QueueCount) {
			return nil, newDriverError(
				fmt.Sprintf("create device: queue family %d has %d queues, %d requested",
					family, families[family].QueueCount, requested),
				vk.ErrorInitializationFailed)
		}
	}

	queueCreateInfos := make([]vk.DeviceQueueCreateInfo, 0, len(familyOrder))
	for _, family := range familyOrder {
		priorities := perFamily[family]
		queueCreateInfos = append(queueCreateInfos, vk.DeviceQueueCreateInfo{
			SType:            vk.StructureTypeDeviceQueueCreateInfo,
			QueueFamilyIndex: uint32(family),
			QueueCount:       uint32(len(priorities)),
			PQueuePriorities: priorities,
		})
	}

	features := b.physicalDevice.features
	if b.features != nil {
		features = *b.features
	}

	extensions := append([]string(nil), b.extensions...)
	layers := append([]string(nil), b.layers...)

	createInfo := vk.DeviceCreateInfo{
		SType:                   vk.StructureTypeDeviceCreateInfo,
		QueueCreateInfoCount:    uint32(len(queueCreateInfos)),
		PQueueCreateInfos:       queueCreateInfos,
		PEnabledFeatures:        []vk.PhysicalDeviceFeatures{features},
		EnabledExtensionCount:   uint32(len(extensions)),
		PpEnabledExtensionNames: safeStrings(append([]string(nil), extensions...)),
		EnabledLayerCount:       uint32(len(layers)),
		PpEnabledLayerNames:     safeStrings(layers),
	}

	instance := b.physicalDevice.instance

	var handle vk.Device
	if ret := instance.procs.CreateDevice(b.physicalDevice.handle, &createInfo, nil, &handle); ret != vk.Success {
		return nil, newDriverError("create device", ret)
	}

	device := &Device{
		handle:         handle,
		physicalDevice: b.physicalDevice,
		procs:          instance.procs.ResolveDevice(extensions),
		extensions:     extensions,
	}

	// Queue registry: retrieve every requested queue now so callers index
	// deterministically instead of re-querying the driver.
	indexInFamily := make(map[int]int)
	for _, req := range b.queues {
		index := indexInFamily[req.Family]
		indexInFamily[req.Family] = index + 1

		var q vk.Queue
		device.procs.GetDeviceQueue(handle, uint32(req.Family), uint32(index), &q)
		device.queues = append(device.queues, &Queue{
			device:   device,
			handle:   q,
			family:   req.Family,
			index:    index,
			priority: req.Priority,
		})
	}

	return device, nil
}

// Device owns a logical-device handle, its function table and the queues it
// was constructed with. Destroy it before its parent Instance.
type Device struct {
	handle         vk.Device
	physicalDevice *PhysicalDevice
	procs          deviceProcs
	extensions     []string
	queues         []*Queue
}

// Handle exposes the raw device handle.
func (d *Device) Handle() vk.Device {
	return d.handle
}

// PhysicalDevice returns the hardware this device was built on.
func (d *Device) PhysicalDevice() *PhysicalDevice {
	return d.physicalDevice
}

// EnabledExtensions returns the device extensions the device was built with.
func (d *Device) EnabledExtensions() []string {
	return append([]string(nil), d.extensions...)
}

// Queues returns the device's queues in the order they were requested.
func (d *Device) Queues() []*Queue {
	return append([]*Queue(nil), d.queues...)
}

// Queue looks up a queue by family and index within that family. It only
// returns queues that were requested at build time.
func (d *Device) Queue(family, index int) (*Queue, bool) {
	for _, q := range d.queues {
		if q.family == family && q.index == index {
			return q, true
		}
	}
	return nil, false
}

// WaitIdle blocks until the device finishes all outstanding work.
func (d *Device) WaitIdle() error {
	if ret := d.procs.DeviceWaitIdle(d.handle); ret != vk.Success {
		return newDriverError("device wait idle", ret)
	}
	return nil
}

func (d *Device) String() string {
	return fmt.Sprintf("{ PhysicalDevice: %s }", d.physicalDevice)
}

// Destroy releases the logical device. All memory, buffers and images
// allocated from it must already be destroyed; its queues become invalid.
func (d *Device) Destroy() {
	d.procs.DestroyDevice(d.handle, nil)
	d.handle = nil
}
