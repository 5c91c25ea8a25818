// Package gputest provides an in-memory gpu.Driver for exercising the
// renderer without a GPU.
//
// GPU work completes the moment it is submitted: QueueSubmit signals its
// fence immediately. Waiting on a fence nobody will ever signal is reported
// as ErrFenceNeverSignaled instead of hanging the test.
package gputest

import (
	"fmt"
	"sort"
	"strings"
	"unsafe"

	"github.com/pkg/errors"

	"quad-renderer/gpu"
)

// ErrFenceNeverSignaled is returned by WaitForFences for an unsignaled fence.
var ErrFenceNeverSignaled = errors.New("gputest: wait on a fence that is never signaled")

// PhysicalDevice describes one adapter reported by EnumeratePhysicalDevices.
type PhysicalDevice struct {
	Properties    gpu.PhysicalDeviceProperties
	Features      gpu.PhysicalDeviceFeatures
	QueueFamilies []gpu.QueueFamilyProperties
	// PresentFamilies lists the families able to present. Nil means all.
	PresentFamilies []uint32
	Extensions      []string
	Memory          gpu.MemoryProperties
}

type object struct {
	kind   string
	parent gpu.Handle
}

// Driver is a scriptable gpu.Driver. Configure the exported fields before
// handing it to the renderer; inspect the record fields afterwards.
type Driver struct {
	InstanceExtensions []string
	InstanceLayers     []string
	Devices            []PhysicalDevice
	Capabilities       gpu.SurfaceCapabilities
	Formats            []gpu.SurfaceFormat
	PresentModes       []gpu.PresentMode

	// AcquireResults and PresentResults override the status of the n-th
	// call (1-based). AcquireIndices, when long enough, scripts the image
	// index of the n-th acquire; otherwise images are handed out round-robin.
	AcquireResults map[int]gpu.Result
	PresentResults map[int]gpu.Result
	AcquireIndices []uint32

	// FailOn makes the named method return the given error.
	FailOn map[string]error

	// Records.
	Calls          []string
	InstanceInfo   gpu.InstanceCreateInfo
	DeviceInfo     gpu.DeviceCreateInfo
	SwapchainInfos []gpu.SwapchainCreateInfo
	PipelineInfos  []gpu.GraphicsPipelineCreateInfo
	RenderPasses   []gpu.RenderPassCreateInfo
	SetLayouts     [][]gpu.DescriptorSetLayoutBinding
	PoolInfos      []gpu.DescriptorPoolCreateInfo
	Writes         []gpu.WriteDescriptorSet
	Submits        []gpu.SubmitInfo
	Presents       []gpu.PresentInfo
	Barriers       []gpu.ImageMemoryBarrier
	Waited         []gpu.Fence
	Recorded       map[gpu.CommandBuffer][]string
	// Misuse collects lifetime violations: destroying unknown handles and
	// destroying parents that still own live objects.
	Misuse []string

	next            gpu.Handle
	live            map[gpu.Handle]object
	physical        map[gpu.PhysicalDevice]int
	fences          map[gpu.Fence]bool
	swapchainImages map[gpu.Swapchain][]gpu.Image
	memory          map[gpu.DeviceMemory][]byte
	acquires        int
	presents        int
	roundRobin      map[gpu.Swapchain]uint32
}

var _ gpu.Driver = (*Driver)(nil)

// DefaultMemoryTypes is a typical discrete-GPU table: device-local first,
// then host-visible coherent.
func DefaultMemoryTypes() []gpu.MemoryType {
	return []gpu.MemoryType{
		{PropertyFlags: gpu.MemoryPropertyDeviceLocalBit, HeapIndex: 0},
		{PropertyFlags: gpu.MemoryPropertyHostVisibleBit | gpu.MemoryPropertyHostCoherentBit, HeapIndex: 1},
		{PropertyFlags: gpu.MemoryPropertyHostVisibleBit | gpu.MemoryPropertyHostCoherentBit | gpu.MemoryPropertyHostCachedBit, HeapIndex: 1},
	}
}

// DiscreteGPU returns a device that passes every suitability check, with a
// single queue family doing graphics and present.
func DiscreteGPU(name string) PhysicalDevice {
	return PhysicalDevice{
		Properties: gpu.PhysicalDeviceProperties{
			Name: name,
			Type: gpu.PhysicalDeviceTypeDiscreteGpu,
			Limits: gpu.PhysicalDeviceLimits{
				MaxImageDimension2D:  4096,
				MaxSamplerAnisotropy: 16,
			},
		},
		Features: gpu.PhysicalDeviceFeatures{
			GeometryShader:    true,
			SamplerAnisotropy: true,
			FillModeNonSolid:  true,
		},
		QueueFamilies: []gpu.QueueFamilyProperties{
			{Flags: gpu.QueueGraphicsBit | gpu.QueueComputeBit | gpu.QueueTransferBit, Count: 1},
		},
		Extensions: []string{"VK_KHR_swapchain"},
		Memory: gpu.MemoryProperties{
			Types: DefaultMemoryTypes(),
			Heaps: []gpu.MemoryHeap{{Size: 8 << 30}, {Size: 16 << 30}},
		},
	}
}

// New returns a driver with one discrete GPU, an 800x600 surface offering
// B8G8R8A8_SRGB and FIFO, and three swapchain images.
func New() *Driver {
	return &Driver{
		InstanceExtensions: []string{"VK_KHR_surface", "VK_EXT_debug_report"},
		InstanceLayers:     []string{"VK_LAYER_KHRONOS_validation"},
		Devices:            []PhysicalDevice{DiscreteGPU("Mock Discrete GPU")},
		Capabilities: gpu.SurfaceCapabilities{
			MinImageCount:  2,
			MaxImageCount:  8,
			CurrentExtent:  gpu.Extent2D{Width: 800, Height: 600},
			MinImageExtent: gpu.Extent2D{Width: 1, Height: 1},
			MaxImageExtent: gpu.Extent2D{Width: 4096, Height: 4096},
		},
		Formats: []gpu.SurfaceFormat{
			{Format: gpu.FormatB8G8R8A8Srgb, ColorSpace: gpu.ColorSpaceSrgbNonlinear},
		},
		PresentModes: []gpu.PresentMode{gpu.PresentModeFifo},
		Recorded:     make(map[gpu.CommandBuffer][]string),
	}
}

func (d *Driver) init() {
	if d.live != nil {
		return
	}
	d.live = make(map[gpu.Handle]object)
	d.physical = make(map[gpu.PhysicalDevice]int)
	d.fences = make(map[gpu.Fence]bool)
	d.swapchainImages = make(map[gpu.Swapchain][]gpu.Image)
	d.memory = make(map[gpu.DeviceMemory][]byte)
	d.roundRobin = make(map[gpu.Swapchain]uint32)
	if d.Recorded == nil {
		d.Recorded = make(map[gpu.CommandBuffer][]string)
	}
}

func (d *Driver) call(name string) error {
	d.init()
	d.Calls = append(d.Calls, name)
	if err, ok := d.FailOn[name]; ok {
		return err
	}
	return nil
}

func (d *Driver) create(kind string, parent gpu.Handle) gpu.Handle {
	d.next++
	d.live[d.next] = object{kind: kind, parent: parent}
	return d.next
}

func (d *Driver) destroy(kind string, h gpu.Handle) bool {
	if h == gpu.NullHandle {
		return false
	}
	obj, ok := d.live[h]
	if !ok || obj.kind != kind {
		d.Misuse = append(d.Misuse, fmt.Sprintf("destroy of unknown %s %d", kind, h))
		return false
	}
	var children []string
	for _, o := range d.live {
		if o.parent == h {
			children = append(children, o.kind)
		}
	}
	if len(children) > 0 {
		sort.Strings(children)
		d.Misuse = append(d.Misuse, fmt.Sprintf("%s destroyed with live children: %s", kind, strings.Join(children, ", ")))
	}
	delete(d.live, h)
	return true
}

func (d *Driver) record(cmd gpu.CommandBuffer, op string) {
	d.Calls = append(d.Calls, op)
	d.Recorded[cmd] = append(d.Recorded[cmd], op)
}

// Count returns how many times the named method was called.
func (d *Driver) Count(name string) int {
	n := 0
	for _, c := range d.Calls {
		if c == name {
			n++
		}
	}
	return n
}

// Live returns the number of live objects of the given kind, e.g.
// "ImageView" or "Fence". An empty kind counts everything.
func (d *Driver) Live(kind string) int {
	n := 0
	for _, o := range d.live {
		if kind == "" || o.kind == kind {
			n++
		}
	}
	return n
}

// Signaled reports the current state of a fence.
func (d *Driver) Signaled(f gpu.Fence) bool {
	return d.fences[f]
}

// Memory returns the backing bytes of an allocation.
func (d *Driver) Memory(m gpu.DeviceMemory) []byte {
	return d.memory[m]
}

func (d *Driver) EnumerateInstanceExtensions() ([]string, error) {
	if err := d.call("EnumerateInstanceExtensions"); err != nil {
		return nil, err
	}
	return d.InstanceExtensions, nil
}

func (d *Driver) EnumerateInstanceLayers() ([]string, error) {
	if err := d.call("EnumerateInstanceLayers"); err != nil {
		return nil, err
	}
	return d.InstanceLayers, nil
}

func (d *Driver) CreateInstance(info gpu.InstanceCreateInfo) (gpu.Instance, error) {
	if err := d.call("CreateInstance"); err != nil {
		return 0, err
	}
	d.InstanceInfo = info
	return gpu.Instance(d.create("Instance", 0)), nil
}

func (d *Driver) DestroyInstance(instance gpu.Instance) {
	d.call("DestroyInstance")
	d.destroy("Instance", gpu.Handle(instance))
}

func (d *Driver) CreateSurface(instance gpu.Instance, window gpu.SurfaceSource) (gpu.Surface, error) {
	if err := d.call("CreateSurface"); err != nil {
		return 0, err
	}
	return gpu.Surface(d.create("Surface", gpu.Handle(instance))), nil
}

func (d *Driver) DestroySurface(instance gpu.Instance, surface gpu.Surface) {
	d.call("DestroySurface")
	d.destroy("Surface", gpu.Handle(surface))
}

func (d *Driver) EnumeratePhysicalDevices(instance gpu.Instance) ([]gpu.PhysicalDevice, error) {
	if err := d.call("EnumeratePhysicalDevices"); err != nil {
		return nil, err
	}
	out := make([]gpu.PhysicalDevice, len(d.Devices))
	for i := range d.Devices {
		// Physical devices are not destroyed, so they stay out of the live set.
		d.next++
		pd := gpu.PhysicalDevice(d.next)
		d.physical[pd] = i
		out[i] = pd
	}
	return out, nil
}

func (d *Driver) device(pd gpu.PhysicalDevice) *PhysicalDevice {
	d.init()
	i, ok := d.physical[pd]
	if !ok {
		return &PhysicalDevice{}
	}
	return &d.Devices[i]
}

func (d *Driver) GetPhysicalDeviceProperties(pd gpu.PhysicalDevice) gpu.PhysicalDeviceProperties {
	return d.device(pd).Properties
}

func (d *Driver) GetPhysicalDeviceFeatures(pd gpu.PhysicalDevice) gpu.PhysicalDeviceFeatures {
	return d.device(pd).Features
}

func (d *Driver) GetPhysicalDeviceMemoryProperties(pd gpu.PhysicalDevice) gpu.MemoryProperties {
	return d.device(pd).Memory
}

func (d *Driver) GetQueueFamilyProperties(pd gpu.PhysicalDevice) []gpu.QueueFamilyProperties {
	return d.device(pd).QueueFamilies
}

func (d *Driver) GetSurfaceSupport(pd gpu.PhysicalDevice, family uint32, surface gpu.Surface) (bool, error) {
	if err := d.call("GetSurfaceSupport"); err != nil {
		return false, err
	}
	dev := d.device(pd)
	if dev.PresentFamilies == nil {
		return true, nil
	}
	for _, f := range dev.PresentFamilies {
		if f == family {
			return true, nil
		}
	}
	return false, nil
}

func (d *Driver) EnumerateDeviceExtensions(pd gpu.PhysicalDevice) ([]string, error) {
	if err := d.call("EnumerateDeviceExtensions"); err != nil {
		return nil, err
	}
	return d.device(pd).Extensions, nil
}

func (d *Driver) GetSurfaceCapabilities(pd gpu.PhysicalDevice, surface gpu.Surface) (gpu.SurfaceCapabilities, error) {
	if err := d.call("GetSurfaceCapabilities"); err != nil {
		return gpu.SurfaceCapabilities{}, err
	}
	return d.Capabilities, nil
}

func (d *Driver) GetSurfaceFormats(pd gpu.PhysicalDevice, surface gpu.Surface) ([]gpu.SurfaceFormat, error) {
	if err := d.call("GetSurfaceFormats"); err != nil {
		return nil, err
	}
	return d.Formats, nil
}

func (d *Driver) GetSurfacePresentModes(pd gpu.PhysicalDevice, surface gpu.Surface) ([]gpu.PresentMode, error) {
	if err := d.call("GetSurfacePresentModes"); err != nil {
		return nil, err
	}
	return d.PresentModes, nil
}

func (d *Driver) CreateDevice(pd gpu.PhysicalDevice, info gpu.DeviceCreateInfo) (gpu.Device, error) {
	if err := d.call("CreateDevice"); err != nil {
		return 0, err
	}
	d.DeviceInfo = info
	return gpu.Device(d.create("Device", 0)), nil
}

func (d *Driver) DestroyDevice(device gpu.Device) {
	d.call("DestroyDevice")
	d.destroy("Device", gpu.Handle(device))
}

// GetDeviceQueue returns a stable handle per family.
func (d *Driver) GetDeviceQueue(device gpu.Device, family, index uint32) gpu.Queue {
	d.call("GetDeviceQueue")
	return gpu.Queue(1<<32 | uint64(family)<<8 | uint64(index))
}

func (d *Driver) DeviceWaitIdle(device gpu.Device) error {
	return d.call("DeviceWaitIdle")
}

func (d *Driver) CreateSwapchain(device gpu.Device, info gpu.SwapchainCreateInfo) (gpu.Swapchain, error) {
	if err := d.call("CreateSwapchain"); err != nil {
		return 0, err
	}
	if info.Extent.IsZero() {
		return 0, errors.Errorf("gputest: swapchain with zero extent %dx%d", info.Extent.Width, info.Extent.Height)
	}
	d.SwapchainInfos = append(d.SwapchainInfos, info)
	sc := gpu.Swapchain(d.create("Swapchain", gpu.Handle(device)))
	images := make([]gpu.Image, info.MinImageCount)
	for i := range images {
		d.next++
		images[i] = gpu.Image(d.next)
	}
	d.swapchainImages[sc] = images
	return sc, nil
}

func (d *Driver) DestroySwapchain(device gpu.Device, swapchain gpu.Swapchain) {
	d.call("DestroySwapchain")
	if d.destroy("Swapchain", gpu.Handle(swapchain)) {
		delete(d.swapchainImages, swapchain)
		delete(d.roundRobin, swapchain)
	}
}

func (d *Driver) GetSwapchainImages(device gpu.Device, swapchain gpu.Swapchain) ([]gpu.Image, error) {
	if err := d.call("GetSwapchainImages"); err != nil {
		return nil, err
	}
	images, ok := d.swapchainImages[swapchain]
	if !ok {
		return nil, errors.Errorf("gputest: unknown swapchain %d", swapchain)
	}
	return images, nil
}

func (d *Driver) AcquireNextImage(device gpu.Device, swapchain gpu.Swapchain, timeout uint64, semaphore gpu.Semaphore, fence gpu.Fence) (uint32, gpu.Result) {
	d.call("AcquireNextImage")
	d.acquires++
	res := d.AcquireResults[d.acquires]
	if res != gpu.Success && res != gpu.Suboptimal {
		return 0, res
	}

	var index uint32
	if d.acquires <= len(d.AcquireIndices) {
		index = d.AcquireIndices[d.acquires-1]
	} else {
		n := uint32(len(d.swapchainImages[swapchain]))
		if n == 0 {
			return 0, gpu.ErrorSurfaceLost
		}
		index = d.roundRobin[swapchain] % n
		d.roundRobin[swapchain] = index + 1
	}
	if fence != 0 {
		d.fences[fence] = true
	}
	return index, res
}

func (d *Driver) QueuePresent(queue gpu.Queue, info gpu.PresentInfo) gpu.Result {
	d.call("QueuePresent")
	d.presents++
	d.Presents = append(d.Presents, info)
	return d.PresentResults[d.presents]
}

func (d *Driver) CreateImageView(device gpu.Device, info gpu.ImageViewCreateInfo) (gpu.ImageView, error) {
	if err := d.call("CreateImageView"); err != nil {
		return 0, err
	}
	return gpu.ImageView(d.create("ImageView", gpu.Handle(device))), nil
}

func (d *Driver) DestroyImageView(device gpu.Device, view gpu.ImageView) {
	d.call("DestroyImageView")
	d.destroy("ImageView", gpu.Handle(view))
}

func (d *Driver) CreateRenderPass(device gpu.Device, info gpu.RenderPassCreateInfo) (gpu.RenderPass, error) {
	if err := d.call("CreateRenderPass"); err != nil {
		return 0, err
	}
	d.RenderPasses = append(d.RenderPasses, info)
	return gpu.RenderPass(d.create("RenderPass", gpu.Handle(device))), nil
}

func (d *Driver) DestroyRenderPass(device gpu.Device, renderPass gpu.RenderPass) {
	d.call("DestroyRenderPass")
	d.destroy("RenderPass", gpu.Handle(renderPass))
}

func (d *Driver) CreateShaderModule(device gpu.Device, code []byte) (gpu.ShaderModule, error) {
	if err := d.call("CreateShaderModule"); err != nil {
		return 0, err
	}
	if len(code) == 0 || len(code)%4 != 0 {
		return 0, errors.Wrap(gpu.ErrorInitializationFailed, "gputest: shader code size")
	}
	return gpu.ShaderModule(d.create("ShaderModule", gpu.Handle(device))), nil
}

func (d *Driver) DestroyShaderModule(device gpu.Device, module gpu.ShaderModule) {
	d.call("DestroyShaderModule")
	d.destroy("ShaderModule", gpu.Handle(module))
}

func (d *Driver) CreateDescriptorSetLayout(device gpu.Device, bindings []gpu.DescriptorSetLayoutBinding) (gpu.DescriptorSetLayout, error) {
	if err := d.call("CreateDescriptorSetLayout"); err != nil {
		return 0, err
	}
	d.SetLayouts = append(d.SetLayouts, bindings)
	return gpu.DescriptorSetLayout(d.create("DescriptorSetLayout", gpu.Handle(device))), nil
}

func (d *Driver) DestroyDescriptorSetLayout(device gpu.Device, layout gpu.DescriptorSetLayout) {
	d.call("DestroyDescriptorSetLayout")
	d.destroy("DescriptorSetLayout", gpu.Handle(layout))
}

func (d *Driver) CreatePipelineLayout(device gpu.Device, info gpu.PipelineLayoutCreateInfo) (gpu.PipelineLayout, error) {
	if err := d.call("CreatePipelineLayout"); err != nil {
		return 0, err
	}
	return gpu.PipelineLayout(d.create("PipelineLayout", gpu.Handle(device))), nil
}

func (d *Driver) DestroyPipelineLayout(device gpu.Device, layout gpu.PipelineLayout) {
	d.call("DestroyPipelineLayout")
	d.destroy("PipelineLayout", gpu.Handle(layout))
}

func (d *Driver) CreateGraphicsPipeline(device gpu.Device, info gpu.GraphicsPipelineCreateInfo) (gpu.Pipeline, error) {
	if err := d.call("CreateGraphicsPipeline"); err != nil {
		return 0, err
	}
	for _, st := range info.Stages {
		if obj, ok := d.live[gpu.Handle(st.Module)]; !ok || obj.kind != "ShaderModule" {
			return 0, errors.Errorf("gputest: pipeline stage uses dead shader module %d", st.Module)
		}
	}
	d.PipelineInfos = append(d.PipelineInfos, info)
	return gpu.Pipeline(d.create("Pipeline", gpu.Handle(device))), nil
}

func (d *Driver) DestroyPipeline(device gpu.Device, pipeline gpu.Pipeline) {
	d.call("DestroyPipeline")
	d.destroy("Pipeline", gpu.Handle(pipeline))
}

func (d *Driver) CreateFramebuffer(device gpu.Device, info gpu.FramebufferCreateInfo) (gpu.Framebuffer, error) {
	if err := d.call("CreateFramebuffer"); err != nil {
		return 0, err
	}
	return gpu.Framebuffer(d.create("Framebuffer", gpu.Handle(device))), nil
}

func (d *Driver) DestroyFramebuffer(device gpu.Device, framebuffer gpu.Framebuffer) {
	d.call("DestroyFramebuffer")
	d.destroy("Framebuffer", gpu.Handle(framebuffer))
}

func (d *Driver) CreateCommandPool(device gpu.Device, info gpu.CommandPoolCreateInfo) (gpu.CommandPool, error) {
	if err := d.call("CreateCommandPool"); err != nil {
		return 0, err
	}
	return gpu.CommandPool(d.create("CommandPool", gpu.Handle(device))), nil
}

func (d *Driver) DestroyCommandPool(device gpu.Device, pool gpu.CommandPool) {
	d.call("DestroyCommandPool")
	d.destroy("CommandPool", gpu.Handle(pool))
}

func (d *Driver) AllocateCommandBuffers(device gpu.Device, pool gpu.CommandPool, count uint32) ([]gpu.CommandBuffer, error) {
	if err := d.call("AllocateCommandBuffers"); err != nil {
		return nil, err
	}
	out := make([]gpu.CommandBuffer, count)
	for i := range out {
		out[i] = gpu.CommandBuffer(d.create("CommandBuffer", gpu.Handle(pool)))
	}
	return out, nil
}

func (d *Driver) FreeCommandBuffers(device gpu.Device, pool gpu.CommandPool, buffers []gpu.CommandBuffer) {
	d.call("FreeCommandBuffers")
	for _, cb := range buffers {
		d.destroy("CommandBuffer", gpu.Handle(cb))
		delete(d.Recorded, cb)
	}
}

func (d *Driver) BeginCommandBuffer(cmd gpu.CommandBuffer, oneTimeSubmit bool) error {
	if err := d.call("BeginCommandBuffer"); err != nil {
		return err
	}
	d.Recorded[cmd] = nil
	return nil
}

func (d *Driver) EndCommandBuffer(cmd gpu.CommandBuffer) error {
	return d.call("EndCommandBuffer")
}

func (d *Driver) CmdBeginRenderPass(cmd gpu.CommandBuffer, info gpu.RenderPassBeginInfo) {
	d.record(cmd, "CmdBeginRenderPass")
}

func (d *Driver) CmdEndRenderPass(cmd gpu.CommandBuffer) {
	d.record(cmd, "CmdEndRenderPass")
}

func (d *Driver) CmdBindPipeline(cmd gpu.CommandBuffer, pipeline gpu.Pipeline) {
	d.record(cmd, "CmdBindPipeline")
}

func (d *Driver) CmdBindVertexBuffers(cmd gpu.CommandBuffer, firstBinding uint32, buffers []gpu.Buffer, offsets []uint64) {
	d.record(cmd, "CmdBindVertexBuffers")
}

func (d *Driver) CmdBindIndexBuffer(cmd gpu.CommandBuffer, buffer gpu.Buffer, offset uint64, indexType gpu.IndexType) {
	d.record(cmd, "CmdBindIndexBuffer")
}

func (d *Driver) CmdBindDescriptorSets(cmd gpu.CommandBuffer, layout gpu.PipelineLayout, firstSet uint32, sets []gpu.DescriptorSet) {
	d.record(cmd, "CmdBindDescriptorSets")
}

func (d *Driver) CmdDraw(cmd gpu.CommandBuffer, vertexCount, instanceCount, firstVertex, firstInstance uint32) {
	d.record(cmd, "CmdDraw")
}

func (d *Driver) CmdDrawIndexed(cmd gpu.CommandBuffer, indexCount, instanceCount, firstIndex uint32, vertexOffset int32, firstInstance uint32) {
	d.record(cmd, "CmdDrawIndexed")
}

func (d *Driver) CmdCopyBuffer(cmd gpu.CommandBuffer, src, dst gpu.Buffer, size uint64) {
	d.record(cmd, "CmdCopyBuffer")
}

func (d *Driver) CmdCopyBufferToImage(cmd gpu.CommandBuffer, src gpu.Buffer, dst gpu.Image, layout gpu.ImageLayout, region gpu.BufferImageCopy) {
	d.record(cmd, "CmdCopyBufferToImage")
}

func (d *Driver) CmdPipelineBarrier(cmd gpu.CommandBuffer, srcStage, dstStage gpu.PipelineStageFlags, barriers []gpu.ImageMemoryBarrier) {
	d.record(cmd, "CmdPipelineBarrier")
	d.Barriers = append(d.Barriers, barriers...)
}

func (d *Driver) QueueSubmit(queue gpu.Queue, submits []gpu.SubmitInfo, fence gpu.Fence) error {
	if err := d.call("QueueSubmit"); err != nil {
		return err
	}
	d.Submits = append(d.Submits, submits...)
	if fence != 0 {
		if _, ok := d.fences[fence]; !ok {
			return errors.Errorf("gputest: submit with unknown fence %d", fence)
		}
		if d.fences[fence] {
			return errors.Errorf("gputest: submit with fence %d still signaled", fence)
		}
		d.fences[fence] = true
	}
	return nil
}

func (d *Driver) QueueWaitIdle(queue gpu.Queue) error {
	return d.call("QueueWaitIdle")
}

func (d *Driver) CreateBuffer(device gpu.Device, info gpu.BufferCreateInfo) (gpu.Buffer, error) {
	if err := d.call("CreateBuffer"); err != nil {
		return 0, err
	}
	return gpu.Buffer(d.create("Buffer", gpu.Handle(device))), nil
}

func (d *Driver) DestroyBuffer(device gpu.Device, buffer gpu.Buffer) {
	d.call("DestroyBuffer")
	d.destroy("Buffer", gpu.Handle(buffer))
}

// GetBufferMemoryRequirements accepts every memory type.
func (d *Driver) GetBufferMemoryRequirements(device gpu.Device, buffer gpu.Buffer) gpu.MemoryRequirements {
	d.call("GetBufferMemoryRequirements")
	return gpu.MemoryRequirements{Size: 256, Alignment: 256, MemoryTypeBits: ^uint32(0)}
}

func (d *Driver) CreateImage(device gpu.Device, info gpu.ImageCreateInfo) (gpu.Image, error) {
	if err := d.call("CreateImage"); err != nil {
		return 0, err
	}
	return gpu.Image(d.create("Image", gpu.Handle(device))), nil
}

func (d *Driver) DestroyImage(device gpu.Device, image gpu.Image) {
	d.call("DestroyImage")
	d.destroy("Image", gpu.Handle(image))
}

func (d *Driver) GetImageMemoryRequirements(device gpu.Device, image gpu.Image) gpu.MemoryRequirements {
	d.call("GetImageMemoryRequirements")
	return gpu.MemoryRequirements{Size: 4096, Alignment: 4096, MemoryTypeBits: ^uint32(0)}
}

func (d *Driver) AllocateMemory(device gpu.Device, size uint64, memoryTypeIndex uint32) (gpu.DeviceMemory, error) {
	if err := d.call("AllocateMemory"); err != nil {
		return 0, err
	}
	m := gpu.DeviceMemory(d.create("DeviceMemory", gpu.Handle(device)))
	d.memory[m] = make([]byte, size)
	return m, nil
}

func (d *Driver) FreeMemory(device gpu.Device, memory gpu.DeviceMemory) {
	d.call("FreeMemory")
	if d.destroy("DeviceMemory", gpu.Handle(memory)) {
		delete(d.memory, memory)
	}
}

func (d *Driver) BindBufferMemory(device gpu.Device, buffer gpu.Buffer, memory gpu.DeviceMemory, offset uint64) error {
	return d.call("BindBufferMemory")
}

func (d *Driver) BindImageMemory(device gpu.Device, image gpu.Image, memory gpu.DeviceMemory, offset uint64) error {
	return d.call("BindImageMemory")
}

func (d *Driver) MapMemory(device gpu.Device, memory gpu.DeviceMemory, offset, size uint64) ([]byte, error) {
	if err := d.call("MapMemory"); err != nil {
		return nil, err
	}
	buf, ok := d.memory[memory]
	if !ok {
		return nil, errors.Wrap(gpu.ErrorMemoryMapFailed, "gputest: unknown memory")
	}
	if size == gpu.WholeSize {
		size = uint64(len(buf)) - offset
	}
	if offset+size > uint64(len(buf)) {
		return nil, errors.Wrapf(gpu.ErrorMemoryMapFailed, "gputest: map [%d, %d) of %d bytes", offset, offset+size, len(buf))
	}
	return buf[offset : offset+size], nil
}

func (d *Driver) UnmapMemory(device gpu.Device, memory gpu.DeviceMemory) {
	d.call("UnmapMemory")
}

func (d *Driver) CreateSampler(device gpu.Device, info gpu.SamplerCreateInfo) (gpu.Sampler, error) {
	if err := d.call("CreateSampler"); err != nil {
		return 0, err
	}
	return gpu.Sampler(d.create("Sampler", gpu.Handle(device))), nil
}

func (d *Driver) DestroySampler(device gpu.Device, sampler gpu.Sampler) {
	d.call("DestroySampler")
	d.destroy("Sampler", gpu.Handle(sampler))
}

func (d *Driver) CreateDescriptorPool(device gpu.Device, info gpu.DescriptorPoolCreateInfo) (gpu.DescriptorPool, error) {
	if err := d.call("CreateDescriptorPool"); err != nil {
		return 0, err
	}
	d.PoolInfos = append(d.PoolInfos, info)
	return gpu.DescriptorPool(d.create("DescriptorPool", gpu.Handle(device))), nil
}

// DestroyDescriptorPool frees the sets allocated from it, as Vulkan does.
func (d *Driver) DestroyDescriptorPool(device gpu.Device, pool gpu.DescriptorPool) {
	d.call("DestroyDescriptorPool")
	for h, o := range d.live {
		if o.kind == "DescriptorSet" && o.parent == gpu.Handle(pool) {
			delete(d.live, h)
		}
	}
	d.destroy("DescriptorPool", gpu.Handle(pool))
}

func (d *Driver) AllocateDescriptorSets(device gpu.Device, pool gpu.DescriptorPool, layouts []gpu.DescriptorSetLayout) ([]gpu.DescriptorSet, error) {
	if err := d.call("AllocateDescriptorSets"); err != nil {
		return nil, err
	}
	out := make([]gpu.DescriptorSet, len(layouts))
	for i := range out {
		out[i] = gpu.DescriptorSet(d.create("DescriptorSet", gpu.Handle(pool)))
	}
	return out, nil
}

func (d *Driver) UpdateDescriptorSets(device gpu.Device, writes []gpu.WriteDescriptorSet) {
	d.call("UpdateDescriptorSets")
	d.Writes = append(d.Writes, writes...)
}

func (d *Driver) CreateSemaphore(device gpu.Device) (gpu.Semaphore, error) {
	if err := d.call("CreateSemaphore"); err != nil {
		return 0, err
	}
	return gpu.Semaphore(d.create("Semaphore", gpu.Handle(device))), nil
}

func (d *Driver) DestroySemaphore(device gpu.Device, semaphore gpu.Semaphore) {
	d.call("DestroySemaphore")
	d.destroy("Semaphore", gpu.Handle(semaphore))
}

func (d *Driver) CreateFence(device gpu.Device, signaled bool) (gpu.Fence, error) {
	if err := d.call("CreateFence"); err != nil {
		return 0, err
	}
	f := gpu.Fence(d.create("Fence", gpu.Handle(device)))
	d.fences[f] = signaled
	return f, nil
}

func (d *Driver) DestroyFence(device gpu.Device, fence gpu.Fence) {
	d.call("DestroyFence")
	if d.destroy("Fence", gpu.Handle(fence)) {
		delete(d.fences, fence)
	}
}

func (d *Driver) WaitForFences(device gpu.Device, fences []gpu.Fence, waitAll bool, timeout uint64) error {
	if err := d.call("WaitForFences"); err != nil {
		return err
	}
	for _, f := range fences {
		d.Waited = append(d.Waited, f)
		signaled, ok := d.fences[f]
		if !ok {
			return errors.Errorf("gputest: wait on unknown fence %d", f)
		}
		if !signaled {
			return errors.Wrapf(ErrFenceNeverSignaled, "fence %d", f)
		}
	}
	return nil
}

func (d *Driver) ResetFences(device gpu.Device, fences []gpu.Fence) error {
	if err := d.call("ResetFences"); err != nil {
		return err
	}
	for _, f := range fences {
		if _, ok := d.fences[f]; !ok {
			return errors.Errorf("gputest: reset of unknown fence %d", f)
		}
		d.fences[f] = false
	}
	return nil
}

// Window is a gpu.SurfaceSource that hands out a fake native surface.
type Window struct{}

func (Window) CreateWindowSurface(instance interface{}, allocCallbacks unsafe.Pointer) (uintptr, error) {
	return 1, nil
}
