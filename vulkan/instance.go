package vulkan

import (
	"fmt"

	"quad-renderer/gpu"
)

type Instance struct {
	Driver           gpu.Driver
	Handle           gpu.Instance
	EnableValidation bool
	Layers           []string
}

type InstanceConfig struct {
	AppName            string
	EngineName         string
	AppVersion         uint32
	EngineVersion      uint32
	EnableValidation   bool
	ValidationLayers   []string
	RequiredExtensions []string
}

func DefaultInstanceConfig() InstanceConfig {
	cfg := DefaultConfig()
	return cfg.InstanceConfig(nil)
}

// InstanceConfig derives instance settings from c. windowExtensions are the
// extensions the window system needs for surface creation.
func (c Config) InstanceConfig(windowExtensions []string) InstanceConfig {
	return InstanceConfig{
		AppName:            c.AppName,
		EngineName:         c.EngineName,
		AppVersion:         c.AppVersion,
		EngineVersion:      c.EngineVersion,
		EnableValidation:   c.EnableValidation,
		ValidationLayers:   c.ValidationLayers,
		RequiredExtensions: windowExtensions,
	}
}

func NewInstance(drv gpu.Driver, config InstanceConfig) (*Instance, error) {
	// Extensions
	extensions := append([]string(nil), config.RequiredExtensions...)
	if config.EnableValidation {
		extensions = append(extensions, DebugReportExtension)
	}

	available, err := drv.EnumerateInstanceExtensions()
	if err != nil {
		return nil, fmt.Errorf("failed to enumerate instance extensions: %w", err)
	}
	if missing := firstMissing(extensions, available); missing != "" {
		return nil, fmt.Errorf("%w: %s", ErrMissingExtension, missing)
	}

	// Validation layers
	var layers []string
	if config.EnableValidation {
		layers = config.ValidationLayers
		if err := checkValidationLayerSupport(drv, layers); err != nil {
			return nil, err
		}
	}

	handle, err := drv.CreateInstance(gpu.InstanceCreateInfo{
		AppName:       config.AppName,
		AppVersion:    config.AppVersion,
		EngineName:    config.EngineName,
		EngineVersion: config.EngineVersion,
		APIVersion:    VulkanVersion10,
		Extensions:    extensions,
		Layers:        layers,
		DebugReport:   config.EnableValidation,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Vulkan instance: %w", err)
	}

	return &Instance{
		Driver:           drv,
		Handle:           handle,
		EnableValidation: config.EnableValidation,
		Layers:           layers,
	}, nil
}

func (i *Instance) CreateSurface(window gpu.SurfaceSource) (gpu.Surface, error) {
	surface, err := i.Driver.CreateSurface(i.Handle, window)
	if err != nil {
		return 0, fmt.Errorf("failed to create window surface: %w", err)
	}
	return surface, nil
}

func (i *Instance) DestroySurface(surface gpu.Surface) {
	i.Driver.DestroySurface(i.Handle, surface)
}

// Destroy also removes the debug callback, which the driver ties to the
// instance.
func (i *Instance) Destroy() {
	i.Driver.DestroyInstance(i.Handle)
}

func checkValidationLayerSupport(drv gpu.Driver, layers []string) error {
	available, err := drv.EnumerateInstanceLayers()
	if err != nil {
		return fmt.Errorf("failed to enumerate instance layers: %w", err)
	}
	if missing := firstMissing(layers, available); missing != "" {
		return fmt.Errorf("%w: %s", ErrMissingLayer, missing)
	}
	return nil
}

// firstMissing returns the first entry of required absent from available.
func firstMissing(required, available []string) string {
	have := make(map[string]bool, len(available))
	for _, name := range available {
		have[name] = true
	}
	for _, name := range required {
		if !have[name] {
			return name
		}
	}
	return ""
}
