/*
Package voodoo is a safety layer over the Vulkan driver API for Go. It covers
object construction, handle ownership and extension loading; everything the
driver does once objects exist (command recording, pipelines, synchronization)
is deliberately left to the caller or to higher-level packages.

Every object is built through a staged builder: setters accumulate plain
values into an aggregate that mirrors the driver's native creation-info
layout, and a single Build call validates the configuration and performs
exactly one native create call. A builder that is missing a required field
fails with a ValidationError before any driver call happens; a create call
the driver rejects fails with a DriverError carrying the native result code.

Construction flows top-down and destruction must mirror it bottom-up:

	loader, err := voodoo.NewLoader()
	instance, err := voodoo.NewInstanceBuilder().
		ApplicationInfo(voodoo.ApplicationInfo{Name: "demo"}).
		Build(loader)
	devices, err := instance.PhysicalDevices()
	device, err := devices[0].DeviceBuilder().AddQueue(0, 1.0).Build()
	...
	device.Destroy()
	instance.Destroy()

Each wrapped object exclusively owns its native handle plus a non-owning
reference to its parent's function table. The wrapper does not reference
count across objects, so the reverse destruction order is a documented
precondition rather than something enforced at runtime; violating it is
undefined behavior at the driver level.

Resource operations that sit on hot paths come in safe/unchecked pairs.
Memory.Map returns a scoped MappedRange that checks bounds and enforces a
single active mapping, and whose Close is safe on every exit path;
Memory.MapUnchecked skips all of that bookkeeping and leaves the
preconditions to the caller. Buffer.BindMemory reports an AlreadyBoundError
when a bound resource is rebound; Buffer.BindMemoryUnchecked does not look.

When an instance is built with PrintDebugReport(true), the debug-report
extension is loaded and a callback printing severity and message text to
standard output is registered. The driver invokes debug callbacks from its
own threads, concurrently with the application's; treat any state shared
with a callback accordingly.
*/
package voodoo
