package voodoo

import (
	"os"
	"unsafe"

	"github.com/charmbracelet/log"
	vk "github.com/vulkan-go/vulkan"
)

// DefaultDebugReportFlags is the severity filter used when an instance is
// built with PrintDebugReport(true).
var DefaultDebugReportFlags = vk.DebugReportFlags(vk.DebugReportErrorBit |
	vk.DebugReportWarningBit | vk.DebugReportPerformanceWarningBit)

// DebugReport is a registration token for a diagnostic callback. Release it
// before the owning Instance is destroyed; a token left registered past
// instance destruction is undefined at the driver level.
type DebugReport struct {
	instance *Instance
	handle   vk.DebugReportCallback
	released bool
}

// RegisterDebugReport loads the debug-report entry points from the
// instance's function table and installs callback for events matching
// flags.
//
// The driver invokes the callback from its own threads, concurrently with
// the application's. Any shared state the callback touches needs explicit
// synchronization.
func RegisterDebugReport(instance *Instance, flags vk.DebugReportFlags, callback vk.DebugReportCallbackFunc) (*DebugReport, error) {
	if instance.procs.CreateDebugReportCallback == nil {
		return nil, newDriverError("register debug report", vk.ErrorExtensionNotPresent)
	}

	createInfo := vk.DebugReportCallbackCreateInfo{
		SType:       vk.StructureTypeDebugReportCallbackCreateInfo,
		Flags:       flags,
		PfnCallback: callback,
	}

	var handle vk.DebugReportCallback
	if ret := instance.procs.CreateDebugReportCallback(instance.handle, &createInfo, nil, &handle); ret != vk.Success {
		return nil, newDriverError("register debug report", ret)
	}
	return &DebugReport{instance: instance, handle: handle}, nil
}

// Release unregisters the callback. Safe to call more than once.
func (d *DebugReport) Release() {
	if d.released {
		return
	}
	d.released = true
	d.instance.procs.DestroyDebugReportCallback(d.instance.handle, d.handle, nil)
}

var debugLog = log.NewWithOptions(os.Stdout, log.Options{Prefix: "vulkan"})

// PrintDebugCallback is the default diagnostic callback: it prints severity,
// source layer, message code and message text to standard output.
func PrintDebugCallback(flags vk.DebugReportFlags, objectType vk.DebugReportObjectType,
	object uint64, location uint, messageCode int32, pLayerPrefix string,
	pMessage string, pUserData unsafe.Pointer) vk.Bool32 {

	switch {
	case flags&vk.DebugReportFlags(vk.DebugReportErrorBit) != 0:
		debugLog.Error(pMessage, "layer", pLayerPrefix, "code", messageCode)
	case flags&vk.DebugReportFlags(vk.DebugReportWarningBit) != 0:
		debugLog.Warn(pMessage, "layer", pLayerPrefix, "code", messageCode)
	case flags&vk.DebugReportFlags(vk.DebugReportPerformanceWarningBit) != 0:
		debugLog.Warn(pMessage, "layer", pLayerPrefix, "code", messageCode, "performance", true)
	case flags&vk.DebugReportFlags(vk.DebugReportDebugBit) != 0:
		debugLog.Debug(pMessage, "layer", pLayerPrefix, "code", messageCode)
	default:
		debugLog.Info(pMessage, "layer", pLayerPrefix, "code", messageCode)
	}
	return vk.Bool32(vk.False)
}
