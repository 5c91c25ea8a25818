package gpu

type Extent2D struct {
	Width  uint32
	Height uint32
}

// IsZero reports whether either dimension is zero.
func (e Extent2D) IsZero() bool {
	return e.Width == 0 || e.Height == 0
}

type InstanceCreateInfo struct {
	AppName       string
	AppVersion    uint32
	EngineName    string
	EngineVersion uint32
	APIVersion    uint32
	Extensions    []string
	Layers        []string

	// DebugReport installs a debug report callback alongside the instance.
	// The driver owns it and destroys it with the instance.
	DebugReport bool
}

type PhysicalDeviceLimits struct {
	MaxImageDimension2D  uint32
	MaxSamplerAnisotropy float32
}

type PhysicalDeviceProperties struct {
	Name          string
	Type          PhysicalDeviceType
	APIVersion    uint32
	DriverVersion uint32
	Limits        PhysicalDeviceLimits
}

type PhysicalDeviceFeatures struct {
	GeometryShader    bool
	SamplerAnisotropy bool
	FillModeNonSolid  bool
}

type QueueFamilyProperties struct {
	Flags QueueFlags
	Count uint32
}

type MemoryType struct {
	PropertyFlags MemoryPropertyFlags
	HeapIndex     uint32
}

type MemoryHeap struct {
	Size uint64
}

type MemoryProperties struct {
	Types []MemoryType
	Heaps []MemoryHeap
}

type MemoryRequirements struct {
	Size           uint64
	Alignment      uint64
	MemoryTypeBits uint32
}

type SurfaceCapabilities struct {
	MinImageCount    uint32
	MaxImageCount    uint32
	CurrentExtent    Extent2D
	MinImageExtent   Extent2D
	MaxImageExtent   Extent2D
	CurrentTransform uint32
}

type SurfaceFormat struct {
	Format     Format
	ColorSpace ColorSpace
}

type DeviceQueueCreateInfo struct {
	FamilyIndex uint32
	Priorities  []float32
}

type DeviceCreateInfo struct {
	Queues     []DeviceQueueCreateInfo
	Extensions []string
	Layers     []string
	Features   PhysicalDeviceFeatures
}

type SwapchainCreateInfo struct {
	Surface       Surface
	MinImageCount uint32
	Format        Format
	ColorSpace    ColorSpace
	Extent        Extent2D
	Usage         ImageUsageFlags
	SharingMode   SharingMode
	QueueFamilies []uint32
	PreTransform  uint32
	PresentMode   PresentMode
	Clipped       bool
	OldSwapchain  Swapchain
}

// ImageViewCreateInfo describes a 2D color view with identity swizzle, one
// mip level and one array layer.
type ImageViewCreateInfo struct {
	Image  Image
	Format Format
}

// RenderPassCreateInfo describes a single-subpass pass with one color
// attachment that is cleared on load and stored.
type RenderPassCreateInfo struct {
	ColorFormat   Format
	InitialLayout ImageLayout
	FinalLayout   ImageLayout
	Dependency    SubpassDependency
}

// SubpassExternal names the work before or after the render pass in a
// SubpassDependency.
const SubpassExternal = ^uint32(0)

type SubpassDependency struct {
	SrcSubpass    uint32
	DstSubpass    uint32
	SrcStageMask  PipelineStageFlags
	DstStageMask  PipelineStageFlags
	SrcAccessMask AccessFlags
	DstAccessMask AccessFlags
}

type DescriptorSetLayoutBinding struct {
	Binding uint32
	Type    DescriptorType
	Count   uint32
	Stages  ShaderStageFlags
}

type PipelineLayoutCreateInfo struct {
	SetLayouts []DescriptorSetLayout
}

type ShaderStage struct {
	Stage      ShaderStageFlags
	Module     ShaderModule
	EntryPoint string
}

type VertexInputBinding struct {
	Binding   uint32
	Stride    uint32
	InputRate VertexInputRate
}

type VertexInputAttribute struct {
	Location uint32
	Binding  uint32
	Format   Format
	Offset   uint32
}

// GraphicsPipelineCreateInfo describes a triangle-list pipeline with fixed
// viewport and scissor, fill rasterization, no depth test and no blending.
type GraphicsPipelineCreateInfo struct {
	Stages     []ShaderStage
	Bindings   []VertexInputBinding
	Attributes []VertexInputAttribute
	Extent     Extent2D
	CullBack   bool
	FrontFace  FrontFace
	Layout     PipelineLayout
	RenderPass RenderPass
	Subpass    uint32
}

type FramebufferCreateInfo struct {
	RenderPass  RenderPass
	Attachments []ImageView
	Extent      Extent2D
}

type CommandPoolCreateInfo struct {
	QueueFamilyIndex uint32
	ResetBuffer      bool
}

type BufferCreateInfo struct {
	Size        uint64
	Usage       BufferUsageFlags
	SharingMode SharingMode
}

type ImageCreateInfo struct {
	Width   uint32
	Height  uint32
	Format  Format
	Tiling  ImageTiling
	Usage   ImageUsageFlags
	Initial ImageLayout
}

type SamplerCreateInfo struct {
	MagFilter        Filter
	MinFilter        Filter
	AddressMode      SamplerAddressMode
	AnisotropyEnable bool
	MaxAnisotropy    float32
}

type DescriptorPoolSize struct {
	Type  DescriptorType
	Count uint32
}

type DescriptorPoolCreateInfo struct {
	MaxSets uint32
	Sizes   []DescriptorPoolSize
}

type DescriptorBufferInfo struct {
	Buffer Buffer
	Offset uint64
	Range  uint64
}

type DescriptorImageInfo struct {
	Sampler Sampler
	View    ImageView
	Layout  ImageLayout
}

// WriteDescriptorSet updates one binding of a set. Exactly one of
// BufferInfo and ImageInfo is set, according to Type.
type WriteDescriptorSet struct {
	Set        DescriptorSet
	Binding    uint32
	Type       DescriptorType
	BufferInfo *DescriptorBufferInfo
	ImageInfo  *DescriptorImageInfo
}

type ImageMemoryBarrier struct {
	Image     Image
	OldLayout ImageLayout
	NewLayout ImageLayout
	SrcAccess AccessFlags
	DstAccess AccessFlags
}

type BufferImageCopy struct {
	Width  uint32
	Height uint32
}

type RenderPassBeginInfo struct {
	RenderPass  RenderPass
	Framebuffer Framebuffer
	Extent      Extent2D
	ClearColor  [4]float32
}

type SubmitInfo struct {
	WaitSemaphores   []Semaphore
	WaitStages       []PipelineStageFlags
	CommandBuffers   []CommandBuffer
	SignalSemaphores []Semaphore
}

type PresentInfo struct {
	WaitSemaphores []Semaphore
	Swapchain      Swapchain
	ImageIndex     uint32
}
