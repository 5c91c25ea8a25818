// Package vkdriver implements gpu.Driver on top of github.com/vulkan-go/vulkan.
//
// gpu handles are small integers; each object kind keeps its own table from
// handle to the vk value. All calls must come from the thread that owns the
// window (see core.Window).
package vkdriver

import (
	"unsafe"

	"github.com/pkg/errors"
	vk "github.com/vulkan-go/vulkan"

	"quad-renderer/gpu"
)

type table[T any] struct {
	objs map[gpu.Handle]T
}

func newTable[T any]() *table[T] {
	return &table[T]{objs: make(map[gpu.Handle]T)}
}

func (t *table[T]) get(h gpu.Handle) T {
	return t.objs[h]
}

func (t *table[T]) take(h gpu.Handle) (T, bool) {
	v, ok := t.objs[h]
	delete(t.objs, h)
	return v, ok
}

// Driver is a gpu.Driver backed by the system Vulkan loader.
type Driver struct {
	next gpu.Handle

	instances       *table[vk.Instance]
	debugCallbacks  map[gpu.Instance]vk.DebugReportCallback
	surfaces        *table[vk.Surface]
	physicalDevices *table[vk.PhysicalDevice]
	devices         *table[vk.Device]
	queues          *table[vk.Queue]
	swapchains      *table[vk.Swapchain]
	swapchainImages map[gpu.Swapchain][]gpu.Image
	images          *table[vk.Image]
	imageViews      *table[vk.ImageView]
	renderPasses    *table[vk.RenderPass]
	shaderModules   *table[vk.ShaderModule]
	setLayouts      *table[vk.DescriptorSetLayout]
	pipelineLayouts *table[vk.PipelineLayout]
	pipelines       *table[vk.Pipeline]
	framebuffers    *table[vk.Framebuffer]
	commandPools    *table[vk.CommandPool]
	commandBuffers  *table[vk.CommandBuffer]
	buffers         *table[vk.Buffer]
	memories        *table[vk.DeviceMemory]
	samplers        *table[vk.Sampler]
	descriptorPools *table[vk.DescriptorPool]
	descriptorSets  *table[vk.DescriptorSet]
	poolSets        map[gpu.DescriptorPool][]gpu.DescriptorSet
	semaphores      *table[vk.Semaphore]
	fences          *table[vk.Fence]
}

var _ gpu.Driver = (*Driver)(nil)

// New loads the Vulkan entry points through getProcAddr, usually
// glfw.GetVulkanGetInstanceProcAddress().
func New(getProcAddr unsafe.Pointer) (*Driver, error) {
	if getProcAddr == nil {
		return nil, errors.New("vkdriver: nil vkGetInstanceProcAddr")
	}
	vk.SetGetInstanceProcAddr(getProcAddr)
	if err := vk.Init(); err != nil {
		return nil, errors.Wrap(err, "vk.Init")
	}

	return &Driver{
		instances:       newTable[vk.Instance](),
		debugCallbacks:  make(map[gpu.Instance]vk.DebugReportCallback),
		surfaces:        newTable[vk.Surface](),
		physicalDevices: newTable[vk.PhysicalDevice](),
		devices:         newTable[vk.Device](),
		queues:          newTable[vk.Queue](),
		swapchains:      newTable[vk.Swapchain](),
		swapchainImages: make(map[gpu.Swapchain][]gpu.Image),
		images:          newTable[vk.Image](),
		imageViews:      newTable[vk.ImageView](),
		renderPasses:    newTable[vk.RenderPass](),
		shaderModules:   newTable[vk.ShaderModule](),
		setLayouts:      newTable[vk.DescriptorSetLayout](),
		pipelineLayouts: newTable[vk.PipelineLayout](),
		pipelines:       newTable[vk.Pipeline](),
		framebuffers:    newTable[vk.Framebuffer](),
		commandPools:    newTable[vk.CommandPool](),
		commandBuffers:  newTable[vk.CommandBuffer](),
		buffers:         newTable[vk.Buffer](),
		memories:        newTable[vk.DeviceMemory](),
		samplers:        newTable[vk.Sampler](),
		descriptorPools: newTable[vk.DescriptorPool](),
		descriptorSets:  newTable[vk.DescriptorSet](),
		poolSets:        make(map[gpu.DescriptorPool][]gpu.DescriptorSet),
		semaphores:      newTable[vk.Semaphore](),
		fences:          newTable[vk.Fence](),
	}, nil
}

func put[T any](d *Driver, t *table[T], v T) gpu.Handle {
	d.next++
	t.objs[d.next] = v
	return d.next
}

// intern returns the existing handle for v, allocating one on first sight.
// Used for objects Vulkan hands back repeatedly (physical devices, queues).
func intern[T comparable](d *Driver, t *table[T], v T) gpu.Handle {
	for h, existing := range t.objs {
		if existing == v {
			return h
		}
	}
	return put(d, t, v)
}

func check(res vk.Result, op string) error {
	if res == vk.Success {
		return nil
	}
	return errors.Wrap(gpu.Result(res), op)
}

func cstr(s string) string {
	if len(s) > 0 && s[len(s)-1] == 0 {
		return s
	}
	return s + "\x00"
}

func cstrs(list []string) []string {
	if len(list) == 0 {
		return nil
	}
	out := make([]string, len(list))
	for i, s := range list {
		out[i] = cstr(s)
	}
	return out
}

func vkBool(b bool) vk.Bool32 {
	if b {
		return vk.True
	}
	return vk.False
}

func extent(e gpu.Extent2D) vk.Extent2D {
	return vk.Extent2D{Width: e.Width, Height: e.Height}
}
