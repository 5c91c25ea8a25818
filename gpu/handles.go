// Package gpu describes the slice of the Vulkan API the renderer drives.
//
// Handles are opaque integers handed out by a Driver; zero is the null
// handle. Enum and flag values match their Vulkan counterparts so a
// backend can convert them with a plain cast.
package gpu

// Handle is the common underlying type of every object handle.
type Handle uint64

// NullHandle is the zero value of every handle type.
const NullHandle Handle = 0

type (
	Instance            Handle
	Surface             Handle
	PhysicalDevice      Handle
	Device              Handle
	Queue               Handle
	Swapchain           Handle
	Image               Handle
	ImageView           Handle
	RenderPass          Handle
	ShaderModule        Handle
	DescriptorSetLayout Handle
	PipelineLayout      Handle
	Pipeline            Handle
	Framebuffer         Handle
	CommandPool         Handle
	CommandBuffer       Handle
	Buffer              Handle
	DeviceMemory        Handle
	Sampler             Handle
	DescriptorPool      Handle
	DescriptorSet       Handle
	Semaphore           Handle
	Fence               Handle
)

// WholeSize requests the remainder of a buffer or mapping.
const WholeSize = ^uint64(0)

// InfiniteTimeout is the timeout used for fence waits and image acquisition.
const InfiniteTimeout = ^uint64(0)

// UndefinedExtent is the surface capability sentinel meaning the surface
// size is determined by the swapchain extent.
const UndefinedExtent = ^uint32(0)
