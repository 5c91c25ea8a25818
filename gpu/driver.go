package gpu

import "unsafe"

// SurfaceSource is a native window able to create a presentation surface
// for a raw instance. *glfw.Window satisfies it.
type SurfaceSource interface {
	CreateWindowSurface(instance interface{}, allocCallbacks unsafe.Pointer) (uintptr, error)
}

// Driver is the GPU API as seen by the renderer. Methods follow the Vulkan
// entry point of the same name; query methods drop the two-call count
// idiom and return slices. Every method is called from a single goroutine.
type Driver interface {
	// Instance level
	EnumerateInstanceExtensions() ([]string, error)
	EnumerateInstanceLayers() ([]string, error)
	CreateInstance(info InstanceCreateInfo) (Instance, error)
	DestroyInstance(instance Instance)
	CreateSurface(instance Instance, window SurfaceSource) (Surface, error)
	DestroySurface(instance Instance, surface Surface)

	// Physical device queries
	EnumeratePhysicalDevices(instance Instance) ([]PhysicalDevice, error)
	GetPhysicalDeviceProperties(pd PhysicalDevice) PhysicalDeviceProperties
	GetPhysicalDeviceFeatures(pd PhysicalDevice) PhysicalDeviceFeatures
	GetPhysicalDeviceMemoryProperties(pd PhysicalDevice) MemoryProperties
	GetQueueFamilyProperties(pd PhysicalDevice) []QueueFamilyProperties
	GetSurfaceSupport(pd PhysicalDevice, family uint32, surface Surface) (bool, error)
	EnumerateDeviceExtensions(pd PhysicalDevice) ([]string, error)
	GetSurfaceCapabilities(pd PhysicalDevice, surface Surface) (SurfaceCapabilities, error)
	GetSurfaceFormats(pd PhysicalDevice, surface Surface) ([]SurfaceFormat, error)
	GetSurfacePresentModes(pd PhysicalDevice, surface Surface) ([]PresentMode, error)

	// Logical device
	CreateDevice(pd PhysicalDevice, info DeviceCreateInfo) (Device, error)
	DestroyDevice(device Device)
	GetDeviceQueue(device Device, family, index uint32) Queue
	DeviceWaitIdle(device Device) error

	// Swapchain
	CreateSwapchain(device Device, info SwapchainCreateInfo) (Swapchain, error)
	DestroySwapchain(device Device, swapchain Swapchain)
	GetSwapchainImages(device Device, swapchain Swapchain) ([]Image, error)
	AcquireNextImage(device Device, swapchain Swapchain, timeout uint64, semaphore Semaphore, fence Fence) (uint32, Result)
	QueuePresent(queue Queue, info PresentInfo) Result

	// Pipeline objects
	CreateImageView(device Device, info ImageViewCreateInfo) (ImageView, error)
	DestroyImageView(device Device, view ImageView)
	CreateRenderPass(device Device, info RenderPassCreateInfo) (RenderPass, error)
	DestroyRenderPass(device Device, renderPass RenderPass)
	CreateShaderModule(device Device, code []byte) (ShaderModule, error)
	DestroyShaderModule(device Device, module ShaderModule)
	CreateDescriptorSetLayout(device Device, bindings []DescriptorSetLayoutBinding) (DescriptorSetLayout, error)
	DestroyDescriptorSetLayout(device Device, layout DescriptorSetLayout)
	CreatePipelineLayout(device Device, info PipelineLayoutCreateInfo) (PipelineLayout, error)
	DestroyPipelineLayout(device Device, layout PipelineLayout)
	CreateGraphicsPipeline(device Device, info GraphicsPipelineCreateInfo) (Pipeline, error)
	DestroyPipeline(device Device, pipeline Pipeline)
	CreateFramebuffer(device Device, info FramebufferCreateInfo) (Framebuffer, error)
	DestroyFramebuffer(device Device, framebuffer Framebuffer)

	// Commands
	CreateCommandPool(device Device, info CommandPoolCreateInfo) (CommandPool, error)
	DestroyCommandPool(device Device, pool CommandPool)
	AllocateCommandBuffers(device Device, pool CommandPool, count uint32) ([]CommandBuffer, error)
	FreeCommandBuffers(device Device, pool CommandPool, buffers []CommandBuffer)
	BeginCommandBuffer(cmd CommandBuffer, oneTimeSubmit bool) error
	EndCommandBuffer(cmd CommandBuffer) error
	CmdBeginRenderPass(cmd CommandBuffer, info RenderPassBeginInfo)
	CmdEndRenderPass(cmd CommandBuffer)
	CmdBindPipeline(cmd CommandBuffer, pipeline Pipeline)
	CmdBindVertexBuffers(cmd CommandBuffer, firstBinding uint32, buffers []Buffer, offsets []uint64)
	CmdBindIndexBuffer(cmd CommandBuffer, buffer Buffer, offset uint64, indexType IndexType)
	CmdBindDescriptorSets(cmd CommandBuffer, layout PipelineLayout, firstSet uint32, sets []DescriptorSet)
	CmdDraw(cmd CommandBuffer, vertexCount, instanceCount, firstVertex, firstInstance uint32)
	CmdDrawIndexed(cmd CommandBuffer, indexCount, instanceCount, firstIndex uint32, vertexOffset int32, firstInstance uint32)
	CmdCopyBuffer(cmd CommandBuffer, src, dst Buffer, size uint64)
	CmdCopyBufferToImage(cmd CommandBuffer, src Buffer, dst Image, layout ImageLayout, region BufferImageCopy)
	CmdPipelineBarrier(cmd CommandBuffer, srcStage, dstStage PipelineStageFlags, barriers []ImageMemoryBarrier)
	QueueSubmit(queue Queue, submits []SubmitInfo, fence Fence) error
	QueueWaitIdle(queue Queue) error

	// Memory
	CreateBuffer(device Device, info BufferCreateInfo) (Buffer, error)
	DestroyBuffer(device Device, buffer Buffer)
	GetBufferMemoryRequirements(device Device, buffer Buffer) MemoryRequirements
	CreateImage(device Device, info ImageCreateInfo) (Image, error)
	DestroyImage(device Device, image Image)
	GetImageMemoryRequirements(device Device, image Image) MemoryRequirements
	AllocateMemory(device Device, size uint64, memoryTypeIndex uint32) (DeviceMemory, error)
	FreeMemory(device Device, memory DeviceMemory)
	BindBufferMemory(device Device, buffer Buffer, memory DeviceMemory, offset uint64) error
	BindImageMemory(device Device, image Image, memory DeviceMemory, offset uint64) error
	MapMemory(device Device, memory DeviceMemory, offset, size uint64) ([]byte, error)
	UnmapMemory(device Device, memory DeviceMemory)

	// Descriptors
	CreateSampler(device Device, info SamplerCreateInfo) (Sampler, error)
	DestroySampler(device Device, sampler Sampler)
	CreateDescriptorPool(device Device, info DescriptorPoolCreateInfo) (DescriptorPool, error)
	DestroyDescriptorPool(device Device, pool DescriptorPool)
	AllocateDescriptorSets(device Device, pool DescriptorPool, layouts []DescriptorSetLayout) ([]DescriptorSet, error)
	UpdateDescriptorSets(device Device, writes []WriteDescriptorSet)

	// Synchronization
	CreateSemaphore(device Device) (Semaphore, error)
	DestroySemaphore(device Device, semaphore Semaphore)
	CreateFence(device Device, signaled bool) (Fence, error)
	DestroyFence(device Device, fence Fence)
	WaitForFences(device Device, fences []Fence, waitAll bool, timeout uint64) error
	ResetFences(device Device, fences []Fence) error
}
