package gpu

type Format int32

const (
	FormatUndefined          Format = 0
	FormatR8G8B8A8Unorm      Format = 37
	FormatR8G8B8A8Srgb       Format = 43
	FormatB8G8R8A8Unorm      Format = 44
	FormatB8G8R8A8Srgb       Format = 50
	FormatR32G32Sfloat       Format = 103
	FormatR32G32B32Sfloat    Format = 106
	FormatR32G32B32A32Sfloat Format = 109
)

type ColorSpace int32

const (
	ColorSpaceSrgbNonlinear ColorSpace = 0
)

type PresentMode int32

const (
	PresentModeImmediate   PresentMode = 0
	PresentModeMailbox     PresentMode = 1
	PresentModeFifo        PresentMode = 2
	PresentModeFifoRelaxed PresentMode = 3
)

func (m PresentMode) String() string {
	switch m {
	case PresentModeImmediate:
		return "immediate"
	case PresentModeMailbox:
		return "mailbox"
	case PresentModeFifo:
		return "fifo"
	case PresentModeFifoRelaxed:
		return "fifo-relaxed"
	default:
		return "unknown"
	}
}

type SharingMode int32

const (
	SharingModeExclusive  SharingMode = 0
	SharingModeConcurrent SharingMode = 1
)

type ImageLayout int32

const (
	ImageLayoutUndefined              ImageLayout = 0
	ImageLayoutColorAttachmentOptimal ImageLayout = 2
	ImageLayoutShaderReadOnlyOptimal  ImageLayout = 5
	ImageLayoutTransferSrcOptimal     ImageLayout = 6
	ImageLayoutTransferDstOptimal     ImageLayout = 7
	ImageLayoutPresentSrc             ImageLayout = 1000001002
)

type ImageTiling int32

const (
	ImageTilingOptimal ImageTiling = 0
	ImageTilingLinear  ImageTiling = 1
)

type PhysicalDeviceType int32

const (
	PhysicalDeviceTypeOther         PhysicalDeviceType = 0
	PhysicalDeviceTypeIntegratedGpu PhysicalDeviceType = 1
	PhysicalDeviceTypeDiscreteGpu   PhysicalDeviceType = 2
	PhysicalDeviceTypeVirtualGpu    PhysicalDeviceType = 3
	PhysicalDeviceTypeCpu           PhysicalDeviceType = 4
)

type DescriptorType int32

const (
	DescriptorTypeSampler              DescriptorType = 0
	DescriptorTypeCombinedImageSampler DescriptorType = 1
	DescriptorTypeUniformBuffer        DescriptorType = 6
)

type IndexType int32

const (
	IndexTypeUint16 IndexType = 0
	IndexTypeUint32 IndexType = 1
)

type FrontFace int32

const (
	FrontFaceCounterClockwise FrontFace = 0
	FrontFaceClockwise        FrontFace = 1
)

type Filter int32

const (
	FilterNearest Filter = 0
	FilterLinear  Filter = 1
)

type SamplerAddressMode int32

const (
	SamplerAddressModeRepeat         SamplerAddressMode = 0
	SamplerAddressModeMirroredRepeat SamplerAddressMode = 1
	SamplerAddressModeClampToEdge    SamplerAddressMode = 2
	SamplerAddressModeClampToBorder  SamplerAddressMode = 3
)

type VertexInputRate int32

const (
	VertexInputRateVertex   VertexInputRate = 0
	VertexInputRateInstance VertexInputRate = 1
)

type QueueFlags uint32

const (
	QueueGraphicsBit QueueFlags = 0x1
	QueueComputeBit  QueueFlags = 0x2
	QueueTransferBit QueueFlags = 0x4
)

type MemoryPropertyFlags uint32

const (
	MemoryPropertyDeviceLocalBit  MemoryPropertyFlags = 0x1
	MemoryPropertyHostVisibleBit  MemoryPropertyFlags = 0x2
	MemoryPropertyHostCoherentBit MemoryPropertyFlags = 0x4
	MemoryPropertyHostCachedBit   MemoryPropertyFlags = 0x8
)

type BufferUsageFlags uint32

const (
	BufferUsageTransferSrcBit   BufferUsageFlags = 0x1
	BufferUsageTransferDstBit   BufferUsageFlags = 0x2
	BufferUsageUniformBufferBit BufferUsageFlags = 0x10
	BufferUsageIndexBufferBit   BufferUsageFlags = 0x40
	BufferUsageVertexBufferBit  BufferUsageFlags = 0x80
)

type ImageUsageFlags uint32

const (
	ImageUsageTransferSrcBit     ImageUsageFlags = 0x1
	ImageUsageTransferDstBit     ImageUsageFlags = 0x2
	ImageUsageSampledBit         ImageUsageFlags = 0x4
	ImageUsageColorAttachmentBit ImageUsageFlags = 0x10
)

type ShaderStageFlags uint32

const (
	ShaderStageVertexBit   ShaderStageFlags = 0x1
	ShaderStageFragmentBit ShaderStageFlags = 0x10
)

type AccessFlags uint32

const (
	AccessShaderReadBit           AccessFlags = 0x20
	AccessColorAttachmentWriteBit AccessFlags = 0x100
	AccessTransferWriteBit        AccessFlags = 0x1000
)

type PipelineStageFlags uint32

const (
	PipelineStageTopOfPipeBit             PipelineStageFlags = 0x1
	PipelineStageFragmentShaderBit        PipelineStageFlags = 0x80
	PipelineStageColorAttachmentOutputBit PipelineStageFlags = 0x400
	PipelineStageTransferBit              PipelineStageFlags = 0x1000
)
