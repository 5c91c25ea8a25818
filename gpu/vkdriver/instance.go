package vkdriver

import (
	"unsafe"

	"github.com/pkg/errors"
	vk "github.com/vulkan-go/vulkan"

	"quad-renderer/gpu"
	"quad-renderer/internal/logging"
)

func (d *Driver) EnumerateInstanceExtensions() ([]string, error) {
	var count uint32
	if err := check(vk.EnumerateInstanceExtensionProperties("", &count, nil), "vkEnumerateInstanceExtensionProperties"); err != nil {
		return nil, err
	}
	props := make([]vk.ExtensionProperties, count)
	if err := check(vk.EnumerateInstanceExtensionProperties("", &count, props), "vkEnumerateInstanceExtensionProperties"); err != nil {
		return nil, err
	}

	names := make([]string, 0, count)
	for _, p := range props {
		p.Deref()
		names = append(names, vk.ToString(p.ExtensionName[:]))
	}
	return names, nil
}

func (d *Driver) EnumerateInstanceLayers() ([]string, error) {
	var count uint32
	if err := check(vk.EnumerateInstanceLayerProperties(&count, nil), "vkEnumerateInstanceLayerProperties"); err != nil {
		return nil, err
	}
	props := make([]vk.LayerProperties, count)
	if err := check(vk.EnumerateInstanceLayerProperties(&count, props), "vkEnumerateInstanceLayerProperties"); err != nil {
		return nil, err
	}

	names := make([]string, 0, count)
	for _, p := range props {
		p.Deref()
		names = append(names, vk.ToString(p.LayerName[:]))
	}
	return names, nil
}

func (d *Driver) CreateInstance(info gpu.InstanceCreateInfo) (gpu.Instance, error) {
	extensions := cstrs(info.Extensions)
	layers := cstrs(info.Layers)

	createInfo := vk.InstanceCreateInfo{
		SType: vk.StructureTypeInstanceCreateInfo,
		PApplicationInfo: &vk.ApplicationInfo{
			SType:              vk.StructureTypeApplicationInfo,
			PApplicationName:   cstr(info.AppName),
			ApplicationVersion: info.AppVersion,
			PEngineName:        cstr(info.EngineName),
			EngineVersion:      info.EngineVersion,
			ApiVersion:         info.APIVersion,
		},
		EnabledExtensionCount:   uint32(len(extensions)),
		PpEnabledExtensionNames: extensions,
		EnabledLayerCount:       uint32(len(layers)),
		PpEnabledLayerNames:     layers,
	}

	var instance vk.Instance
	if err := check(vk.CreateInstance(&createInfo, nil, &instance), "vkCreateInstance"); err != nil {
		return 0, err
	}
	if err := vk.InitInstance(instance); err != nil {
		vk.DestroyInstance(instance, nil)
		return 0, errors.Wrap(err, "vk.InitInstance")
	}
	h := gpu.Instance(put(d, d.instances, instance))

	if info.DebugReport {
		var callback vk.DebugReportCallback
		res := vk.CreateDebugReportCallback(instance, &vk.DebugReportCallbackCreateInfo{
			SType:       vk.StructureTypeDebugReportCallbackCreateInfo,
			Flags:       vk.DebugReportFlags(vk.DebugReportErrorBit | vk.DebugReportWarningBit | vk.DebugReportPerformanceWarningBit),
			PfnCallback: debugReport,
		}, nil, &callback)
		if err := check(res, "vkCreateDebugReportCallbackEXT"); err != nil {
			d.DestroyInstance(h)
			return 0, err
		}
		d.debugCallbacks[h] = callback
	}

	return h, nil
}

func (d *Driver) DestroyInstance(instance gpu.Instance) {
	inst, ok := d.instances.take(gpu.Handle(instance))
	if !ok {
		return
	}
	if callback, ok := d.debugCallbacks[instance]; ok {
		vk.DestroyDebugReportCallback(inst, callback, nil)
		delete(d.debugCallbacks, instance)
	}
	vk.DestroyInstance(inst, nil)
}

func (d *Driver) CreateSurface(instance gpu.Instance, window gpu.SurfaceSource) (gpu.Surface, error) {
	inst := d.instances.get(gpu.Handle(instance))
	ptr, err := window.CreateWindowSurface(inst, nil)
	if err != nil {
		return 0, errors.Wrap(err, "create window surface")
	}
	return gpu.Surface(put(d, d.surfaces, vk.SurfaceFromPointer(ptr))), nil
}

func (d *Driver) DestroySurface(instance gpu.Instance, surface gpu.Surface) {
	s, ok := d.surfaces.take(gpu.Handle(surface))
	if !ok {
		return
	}
	vk.DestroySurface(d.instances.get(gpu.Handle(instance)), s, nil)
}

func debugReport(flags vk.DebugReportFlags, objectType vk.DebugReportObjectType,
	object uint64, location uint, messageCode int32, pLayerPrefix string,
	pMessage string, pUserData unsafe.Pointer) vk.Bool32 {

	log := logging.Logger()
	switch {
	case flags&vk.DebugReportFlags(vk.DebugReportErrorBit) != 0:
		log.Error("validation", "layer", pLayerPrefix, "code", messageCode, "msg", pMessage)
	case flags&vk.DebugReportFlags(vk.DebugReportPerformanceWarningBit) != 0:
		log.Warn("validation performance", "layer", pLayerPrefix, "code", messageCode, "msg", pMessage)
	default:
		log.Warn("validation", "layer", pLayerPrefix, "code", messageCode, "msg", pMessage)
	}
	return vk.Bool32(vk.False)
}
