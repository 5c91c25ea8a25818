// Package vulkan drives a gpu.Driver through device setup, swapchain
// management, resource upload and the per-frame submit/present loop.
package vulkan

import (
	"errors"

	"quad-renderer/gpu"
)

// VulkanVersion10 is VK_API_VERSION_1_0.
const VulkanVersion10 = 1 << 22

const (
	SwapchainExtension   = "VK_KHR_swapchain"
	DebugReportExtension = "VK_EXT_debug_report"
	ValidationLayer      = "VK_LAYER_KHRONOS_validation"
)

var (
	ErrNoSuitableDevice            = errors.New("failed to find a suitable GPU")
	ErrNoSuitableMemoryType        = errors.New("failed to find suitable memory type")
	ErrUnsupportedLayoutTransition = errors.New("unsupported layout transition")
	ErrMissingExtension            = errors.New("required extension not available")
	ErrMissingLayer                = errors.New("validation layers requested but not available")
)

// Config gathers every knob of the renderer.
type Config struct {
	AppName          string
	EngineName       string
	AppVersion       uint32
	EngineVersion    uint32
	EnableValidation bool
	ValidationLayers []string
	DeviceExtensions []string
	// RequireDiscrete rejects integrated, virtual and CPU adapters.
	RequireDiscrete bool
	FramesInFlight  int
	ClearColor      [4]float32
	// FrontFace must match the winding after the projection's Y flip.
	FrontFace gpu.FrontFace
}

func DefaultConfig() Config {
	return Config{
		AppName:          "Vulkan",
		EngineName:       "No Engine",
		AppVersion:       VK_MAKE_VERSION(1, 0, 0),
		EngineVersion:    VK_MAKE_VERSION(1, 0, 0),
		ValidationLayers: []string{ValidationLayer},
		DeviceExtensions: []string{SwapchainExtension},
		RequireDiscrete:  true,
		FramesInFlight:   2,
		ClearColor:       [4]float32{0, 0, 0, 1},
		FrontFace:        gpu.FrontFaceCounterClockwise,
	}
}

func VK_MAKE_VERSION(major, minor, patch uint32) uint32 {
	return (major << 22) | (minor << 12) | patch
}
