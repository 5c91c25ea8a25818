package vulkan

import (
	"fmt"

	"quad-renderer/gpu"
	"quad-renderer/internal/logging"
)

type QueueFamilyIndices struct {
	Graphics    uint32
	Present     uint32
	HasGraphics bool
	HasPresent  bool
}

func (q QueueFamilyIndices) IsComplete() bool {
	return q.HasGraphics && q.HasPresent
}

// Unique returns the distinct family indices, graphics first.
func (q QueueFamilyIndices) Unique() []uint32 {
	if q.Graphics == q.Present {
		return []uint32{q.Graphics}
	}
	return []uint32{q.Graphics, q.Present}
}

// DeviceRequirements lists what PickPhysicalDevice demands of a candidate.
type DeviceRequirements struct {
	Extensions        []string
	RequireDiscrete   bool
	RequireAnisotropy bool
}

type Device struct {
	Driver         gpu.Driver
	PhysicalDevice gpu.PhysicalDevice
	Handle         gpu.Device
	GraphicsQueue  gpu.Queue
	PresentQueue   gpu.Queue
	CommandPool    gpu.CommandPool

	Families    QueueFamilyIndices
	Properties  gpu.PhysicalDeviceProperties
	Features    gpu.PhysicalDeviceFeatures
	MemoryProps gpu.MemoryProperties
	Extensions  []string
	Layers      []string
}

func FindQueueFamilies(drv gpu.Driver, pd gpu.PhysicalDevice, surface gpu.Surface) (QueueFamilyIndices, error) {
	var indices QueueFamilyIndices
	for i, family := range drv.GetQueueFamilyProperties(pd) {
		if family.Count == 0 {
			continue
		}
		idx := uint32(i)
		if !indices.HasGraphics && family.Flags&gpu.QueueGraphicsBit != 0 {
			indices.Graphics = idx
			indices.HasGraphics = true
		}
		if !indices.HasPresent {
			supported, err := drv.GetSurfaceSupport(pd, idx, surface)
			if err != nil {
				return indices, fmt.Errorf("failed to query surface support: %w", err)
			}
			if supported {
				indices.Present = idx
				indices.HasPresent = true
			}
		}
		if indices.IsComplete() {
			break
		}
	}
	return indices, nil
}

// CheckDeviceExtensionSupport returns the first required extension the
// device lacks, or "" when all are present.
func CheckDeviceExtensionSupport(drv gpu.Driver, pd gpu.PhysicalDevice, required []string) (string, error) {
	available, err := drv.EnumerateDeviceExtensions(pd)
	if err != nil {
		return "", fmt.Errorf("failed to enumerate device extensions: %w", err)
	}
	return firstMissing(required, available), nil
}

// IsDeviceSuitable reports whether pd meets req. When it does not, reason
// says why.
func IsDeviceSuitable(drv gpu.Driver, pd gpu.PhysicalDevice, surface gpu.Surface, req DeviceRequirements) (ok bool, reason string, err error) {
	props := drv.GetPhysicalDeviceProperties(pd)
	features := drv.GetPhysicalDeviceFeatures(pd)

	if req.RequireDiscrete && props.Type != gpu.PhysicalDeviceTypeDiscreteGpu {
		return false, "not a discrete GPU", nil
	}
	if !features.GeometryShader {
		return false, "no geometry shader support", nil
	}
	if req.RequireAnisotropy && !features.SamplerAnisotropy {
		return false, "no sampler anisotropy support", nil
	}

	indices, err := FindQueueFamilies(drv, pd, surface)
	if err != nil {
		return false, "", err
	}
	if !indices.IsComplete() {
		return false, "missing graphics or present queue family", nil
	}

	missing, err := CheckDeviceExtensionSupport(drv, pd, req.Extensions)
	if err != nil {
		return false, "", err
	}
	if missing != "" {
		return false, "missing extension " + missing, nil
	}

	support, err := QuerySwapChainSupport(drv, pd, surface)
	if err != nil {
		return false, "", err
	}
	if len(support.Formats) == 0 || len(support.PresentModes) == 0 {
		return false, "no surface formats or present modes", nil
	}

	return true, "", nil
}

// PickPhysicalDevice returns the first device, in enumeration order, that
// satisfies req.
func PickPhysicalDevice(instance *Instance, surface gpu.Surface, req DeviceRequirements) (*Device, error) {
	drv := instance.Driver
	log := logging.Logger()

	devices, err := drv.EnumeratePhysicalDevices(instance.Handle)
	if err != nil {
		return nil, fmt.Errorf("failed to enumerate physical devices: %w", err)
	}
	if len(devices) == 0 {
		return nil, fmt.Errorf("%w: no GPUs with Vulkan support", ErrNoSuitableDevice)
	}

	for _, pd := range devices {
		ok, reason, err := IsDeviceSuitable(drv, pd, surface, req)
		if err != nil {
			return nil, err
		}
		props := drv.GetPhysicalDeviceProperties(pd)
		if !ok {
			log.Debug("rejected physical device", "name", props.Name, "reason", reason)
			continue
		}

		return &Device{
			Driver:         drv,
			PhysicalDevice: pd,
			Properties:     props,
			Features:       drv.GetPhysicalDeviceFeatures(pd),
			MemoryProps:    drv.GetPhysicalDeviceMemoryProperties(pd),
			Extensions:     req.Extensions,
			Layers:         instance.Layers,
		}, nil
	}

	return nil, ErrNoSuitableDevice
}

func (d *Device) CreateLogicalDevice(surface gpu.Surface) error {
	// Find queue families
	indices, err := FindQueueFamilies(d.Driver, d.PhysicalDevice, surface)
	if err != nil {
		return err
	}
	if !indices.IsComplete() {
		return fmt.Errorf("%w: queue families incomplete", ErrNoSuitableDevice)
	}
	d.Families = indices

	// Create queues
	var queues []gpu.DeviceQueueCreateInfo
	for _, family := range indices.Unique() {
		queues = append(queues, gpu.DeviceQueueCreateInfo{
			FamilyIndex: family,
			Priorities:  []float32{1.0},
		})
	}

	handle, err := d.Driver.CreateDevice(d.PhysicalDevice, gpu.DeviceCreateInfo{
		Queues:     queues,
		Extensions: d.Extensions,
		Layers:     d.Layers,
		Features: gpu.PhysicalDeviceFeatures{
			SamplerAnisotropy: d.Features.SamplerAnisotropy,
		},
	})
	if err != nil {
		return fmt.Errorf("failed to create logical device: %w", err)
	}
	d.Handle = handle

	// Get queues
	d.GraphicsQueue = d.Driver.GetDeviceQueue(handle, indices.Graphics, 0)
	d.PresentQueue = d.Driver.GetDeviceQueue(handle, indices.Present, 0)

	// Create command pool
	pool, err := d.Driver.CreateCommandPool(handle, gpu.CommandPoolCreateInfo{
		QueueFamilyIndex: indices.Graphics,
	})
	if err != nil {
		d.Driver.DestroyDevice(handle)
		d.Handle = 0
		return fmt.Errorf("failed to create command pool: %w", err)
	}
	d.CommandPool = pool

	return nil
}

func (d *Device) Destroy() {
	if d.CommandPool != 0 {
		d.Driver.DestroyCommandPool(d.Handle, d.CommandPool)
		d.CommandPool = 0
	}
	if d.Handle != 0 {
		d.Driver.DestroyDevice(d.Handle)
		d.Handle = 0
	}
}

func (d *Device) WaitIdle() error {
	if err := d.Driver.DeviceWaitIdle(d.Handle); err != nil {
		return fmt.Errorf("failed to wait for device idle: %w", err)
	}
	return nil
}

func (d *Device) GetGPUName() string {
	return d.Properties.Name
}

func (d *Device) GetDeviceType() string {
	switch d.Properties.Type {
	case gpu.PhysicalDeviceTypeIntegratedGpu:
		return "Integrated GPU"
	case gpu.PhysicalDeviceTypeDiscreteGpu:
		return "Discrete GPU"
	case gpu.PhysicalDeviceTypeVirtualGpu:
		return "Virtual GPU"
	case gpu.PhysicalDeviceTypeCpu:
		return "CPU"
	default:
		return "Unknown"
	}
}

// FindMemoryType returns the lowest memory type index allowed by typeFilter
// whose flags include every bit of properties.
func (d *Device) FindMemoryType(typeFilter uint32, properties gpu.MemoryPropertyFlags) (uint32, error) {
	for i, t := range d.MemoryProps.Types {
		if i >= 32 {
			break
		}
		if typeFilter&(1<<uint(i)) != 0 && t.PropertyFlags&properties == properties {
			return uint32(i), nil
		}
	}
	return 0, fmt.Errorf("%w: filter %#x, properties %#x", ErrNoSuitableMemoryType, typeFilter, uint32(properties))
}
