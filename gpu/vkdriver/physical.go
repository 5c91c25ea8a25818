package vkdriver

import (
	vk "github.com/vulkan-go/vulkan"

	"quad-renderer/gpu"
)

func (d *Driver) EnumeratePhysicalDevices(instance gpu.Instance) ([]gpu.PhysicalDevice, error) {
	inst := d.instances.get(gpu.Handle(instance))

	var count uint32
	if err := check(vk.EnumeratePhysicalDevices(inst, &count, nil), "vkEnumeratePhysicalDevices"); err != nil {
		return nil, err
	}
	devices := make([]vk.PhysicalDevice, count)
	if err := check(vk.EnumeratePhysicalDevices(inst, &count, devices), "vkEnumeratePhysicalDevices"); err != nil {
		return nil, err
	}

	out := make([]gpu.PhysicalDevice, len(devices))
	for i, pd := range devices {
		out[i] = gpu.PhysicalDevice(intern(d, d.physicalDevices, pd))
	}
	return out, nil
}

func (d *Driver) GetPhysicalDeviceProperties(pd gpu.PhysicalDevice) gpu.PhysicalDeviceProperties {
	var props vk.PhysicalDeviceProperties
	vk.GetPhysicalDeviceProperties(d.physicalDevices.get(gpu.Handle(pd)), &props)
	props.Deref()
	props.Limits.Deref()

	return gpu.PhysicalDeviceProperties{
		Name:          vk.ToString(props.DeviceName[:]),
		Type:          gpu.PhysicalDeviceType(props.DeviceType),
		APIVersion:    props.ApiVersion,
		DriverVersion: props.DriverVersion,
		Limits: gpu.PhysicalDeviceLimits{
			MaxImageDimension2D:  props.Limits.MaxImageDimension2D,
			MaxSamplerAnisotropy: props.Limits.MaxSamplerAnisotropy,
		},
	}
}

func (d *Driver) GetPhysicalDeviceFeatures(pd gpu.PhysicalDevice) gpu.PhysicalDeviceFeatures {
	var features vk.PhysicalDeviceFeatures
	vk.GetPhysicalDeviceFeatures(d.physicalDevices.get(gpu.Handle(pd)), &features)
	features.Deref()

	return gpu.PhysicalDeviceFeatures{
		GeometryShader:    features.GeometryShader.B(),
		SamplerAnisotropy: features.SamplerAnisotropy.B(),
		FillModeNonSolid:  features.FillModeNonSolid.B(),
	}
}

func (d *Driver) GetPhysicalDeviceMemoryProperties(pd gpu.PhysicalDevice) gpu.MemoryProperties {
	var props vk.PhysicalDeviceMemoryProperties
	vk.GetPhysicalDeviceMemoryProperties(d.physicalDevices.get(gpu.Handle(pd)), &props)
	props.Deref()

	out := gpu.MemoryProperties{
		Types: make([]gpu.MemoryType, props.MemoryTypeCount),
		Heaps: make([]gpu.MemoryHeap, props.MemoryHeapCount),
	}
	for i := range out.Types {
		t := props.MemoryTypes[i]
		t.Deref()
		out.Types[i] = gpu.MemoryType{
			PropertyFlags: gpu.MemoryPropertyFlags(t.PropertyFlags),
			HeapIndex:     t.HeapIndex,
		}
	}
	for i := range out.Heaps {
		h := props.MemoryHeaps[i]
		h.Deref()
		out.Heaps[i] = gpu.MemoryHeap{Size: uint64(h.Size)}
	}
	return out
}

func (d *Driver) GetQueueFamilyProperties(pd gpu.PhysicalDevice) []gpu.QueueFamilyProperties {
	device := d.physicalDevices.get(gpu.Handle(pd))

	var count uint32
	vk.GetPhysicalDeviceQueueFamilyProperties(device, &count, nil)
	families := make([]vk.QueueFamilyProperties, count)
	vk.GetPhysicalDeviceQueueFamilyProperties(device, &count, families)

	out := make([]gpu.QueueFamilyProperties, len(families))
	for i, f := range families {
		f.Deref()
		out[i] = gpu.QueueFamilyProperties{
			Flags: gpu.QueueFlags(f.QueueFlags),
			Count: f.QueueCount,
		}
	}
	return out
}

func (d *Driver) GetSurfaceSupport(pd gpu.PhysicalDevice, family uint32, surface gpu.Surface) (bool, error) {
	var supported vk.Bool32
	res := vk.GetPhysicalDeviceSurfaceSupport(d.physicalDevices.get(gpu.Handle(pd)), family, d.surfaces.get(gpu.Handle(surface)), &supported)
	if err := check(res, "vkGetPhysicalDeviceSurfaceSupportKHR"); err != nil {
		return false, err
	}
	return supported.B(), nil
}

func (d *Driver) EnumerateDeviceExtensions(pd gpu.PhysicalDevice) ([]string, error) {
	device := d.physicalDevices.get(gpu.Handle(pd))

	var count uint32
	if err := check(vk.EnumerateDeviceExtensionProperties(device, "", &count, nil), "vkEnumerateDeviceExtensionProperties"); err != nil {
		return nil, err
	}
	props := make([]vk.ExtensionProperties, count)
	if err := check(vk.EnumerateDeviceExtensionProperties(device, "", &count, props), "vkEnumerateDeviceExtensionProperties"); err != nil {
		return nil, err
	}

	names := make([]string, 0, count)
	for _, p := range props {
		p.Deref()
		names = append(names, vk.ToString(p.ExtensionName[:]))
	}
	return names, nil
}

func (d *Driver) GetSurfaceCapabilities(pd gpu.PhysicalDevice, surface gpu.Surface) (gpu.SurfaceCapabilities, error) {
	var caps vk.SurfaceCapabilities
	res := vk.GetPhysicalDeviceSurfaceCapabilities(d.physicalDevices.get(gpu.Handle(pd)), d.surfaces.get(gpu.Handle(surface)), &caps)
	if err := check(res, "vkGetPhysicalDeviceSurfaceCapabilitiesKHR"); err != nil {
		return gpu.SurfaceCapabilities{}, err
	}
	caps.Deref()
	caps.CurrentExtent.Deref()
	caps.MinImageExtent.Deref()
	caps.MaxImageExtent.Deref()

	return gpu.SurfaceCapabilities{
		MinImageCount:    caps.MinImageCount,
		MaxImageCount:    caps.MaxImageCount,
		CurrentExtent:    gpu.Extent2D{Width: caps.CurrentExtent.Width, Height: caps.CurrentExtent.Height},
		MinImageExtent:   gpu.Extent2D{Width: caps.MinImageExtent.Width, Height: caps.MinImageExtent.Height},
		MaxImageExtent:   gpu.Extent2D{Width: caps.MaxImageExtent.Width, Height: caps.MaxImageExtent.Height},
		CurrentTransform: uint32(caps.CurrentTransform),
	}, nil
}

func (d *Driver) GetSurfaceFormats(pd gpu.PhysicalDevice, surface gpu.Surface) ([]gpu.SurfaceFormat, error) {
	device := d.physicalDevices.get(gpu.Handle(pd))
	s := d.surfaces.get(gpu.Handle(surface))

	var count uint32
	if err := check(vk.GetPhysicalDeviceSurfaceFormats(device, s, &count, nil), "vkGetPhysicalDeviceSurfaceFormatsKHR"); err != nil {
		return nil, err
	}
	if count == 0 {
		return nil, nil
	}
	formats := make([]vk.SurfaceFormat, count)
	if err := check(vk.GetPhysicalDeviceSurfaceFormats(device, s, &count, formats), "vkGetPhysicalDeviceSurfaceFormatsKHR"); err != nil {
		return nil, err
	}

	out := make([]gpu.SurfaceFormat, len(formats))
	for i, f := range formats {
		f.Deref()
		out[i] = gpu.SurfaceFormat{Format: gpu.Format(f.Format), ColorSpace: gpu.ColorSpace(f.ColorSpace)}
	}
	return out, nil
}

func (d *Driver) GetSurfacePresentModes(pd gpu.PhysicalDevice, surface gpu.Surface) ([]gpu.PresentMode, error) {
	device := d.physicalDevices.get(gpu.Handle(pd))
	s := d.surfaces.get(gpu.Handle(surface))

	var count uint32
	if err := check(vk.GetPhysicalDeviceSurfacePresentModes(device, s, &count, nil), "vkGetPhysicalDeviceSurfacePresentModesKHR"); err != nil {
		return nil, err
	}
	if count == 0 {
		return nil, nil
	}
	modes := make([]vk.PresentMode, count)
	if err := check(vk.GetPhysicalDeviceSurfacePresentModes(device, s, &count, modes), "vkGetPhysicalDeviceSurfacePresentModesKHR"); err != nil {
		return nil, err
	}

	out := make([]gpu.PresentMode, len(modes))
	for i, m := range modes {
		out[i] = gpu.PresentMode(m)
	}
	return out, nil
}
