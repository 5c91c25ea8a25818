package vulkan

import (
	"fmt"

	"quad-renderer/gpu"
)

// FrameSlot holds the synchronization objects of one frame in flight.
type FrameSlot struct {
	ImageAvailable gpu.Semaphore
	RenderFinished gpu.Semaphore
	InFlight       gpu.Fence
}

// FrameRing is a fixed ring of frame slots. Fences start signaled so the
// first pass over the ring does not block.
type FrameRing struct {
	slots   []FrameSlot
	current int
}

func NewFrameRing(device *Device, n int) (*FrameRing, error) {
	if n < 1 {
		return nil, fmt.Errorf("frame ring needs at least one slot, got %d", n)
	}
	drv := device.Driver
	ring := &FrameRing{slots: make([]FrameSlot, 0, n)}

	for range n {
		var slot FrameSlot
		var err error
		if slot.ImageAvailable, err = drv.CreateSemaphore(device.Handle); err != nil {
			ring.Destroy(device)
			return nil, fmt.Errorf("failed to create semaphore: %w", err)
		}
		if slot.RenderFinished, err = drv.CreateSemaphore(device.Handle); err != nil {
			drv.DestroySemaphore(device.Handle, slot.ImageAvailable)
			ring.Destroy(device)
			return nil, fmt.Errorf("failed to create semaphore: %w", err)
		}
		if slot.InFlight, err = drv.CreateFence(device.Handle, true); err != nil {
			drv.DestroySemaphore(device.Handle, slot.RenderFinished)
			drv.DestroySemaphore(device.Handle, slot.ImageAvailable)
			ring.Destroy(device)
			return nil, fmt.Errorf("failed to create fence: %w", err)
		}
		ring.slots = append(ring.slots, slot)
	}
	return ring, nil
}

func (r *FrameRing) Current() *FrameSlot {
	return &r.slots[r.current]
}

// Advance moves to the next slot, wrapping after the last.
func (r *FrameRing) Advance() {
	r.current = (r.current + 1) % len(r.slots)
}

func (r *FrameRing) Index() int {
	return r.current
}

func (r *FrameRing) Len() int {
	return len(r.slots)
}

func (r *FrameRing) Destroy(device *Device) {
	drv := device.Driver
	for i := len(r.slots) - 1; i >= 0; i-- {
		slot := r.slots[i]
		drv.DestroyFence(device.Handle, slot.InFlight)
		drv.DestroySemaphore(device.Handle, slot.RenderFinished)
		drv.DestroySemaphore(device.Handle, slot.ImageAvailable)
	}
	r.slots = nil
	r.current = 0
}

// ImageFences remembers which frame fence last rendered each swapchain
// image. Acquired image indices and frame slots cycle independently, so an
// image can come back while a different slot's submission still uses it.
type ImageFences struct {
	fences []gpu.Fence
}

func NewImageFences(imageCount int) *ImageFences {
	return &ImageFences{fences: make([]gpu.Fence, imageCount)}
}

// Lookup returns the fence last recorded for image, or 0.
func (f *ImageFences) Lookup(image uint32) gpu.Fence {
	if int(image) >= len(f.fences) {
		return 0
	}
	return f.fences[image]
}

func (f *ImageFences) Record(image uint32, fence gpu.Fence) {
	if int(image) >= len(f.fences) {
		grown := make([]gpu.Fence, image+1)
		copy(grown, f.fences)
		f.fences = grown
	}
	f.fences[image] = fence
}

// Reset forgets every association and resizes for imageCount images.
func (f *ImageFences) Reset(imageCount int) {
	f.fences = make([]gpu.Fence, imageCount)
}

func WaitForFence(device *Device, fence gpu.Fence) error {
	if err := device.Driver.WaitForFences(device.Handle, []gpu.Fence{fence}, true, gpu.InfiniteTimeout); err != nil {
		return fmt.Errorf("failed to wait for fence: %w", err)
	}
	return nil
}

func ResetFence(device *Device, fence gpu.Fence) error {
	if err := device.Driver.ResetFences(device.Handle, []gpu.Fence{fence}); err != nil {
		return fmt.Errorf("failed to reset fence: %w", err)
	}
	return nil
}

// SubmitFrame submits cmd to the graphics queue. It waits on the slot's
// image-available semaphore at color output and signals render-finished
// and the slot's fence.
func SubmitFrame(device *Device, slot *FrameSlot, cmd gpu.CommandBuffer) error {
	submit := gpu.SubmitInfo{
		WaitSemaphores:   []gpu.Semaphore{slot.ImageAvailable},
		WaitStages:       []gpu.PipelineStageFlags{gpu.PipelineStageColorAttachmentOutputBit},
		CommandBuffers:   []gpu.CommandBuffer{cmd},
		SignalSemaphores: []gpu.Semaphore{slot.RenderFinished},
	}
	if err := device.Driver.QueueSubmit(device.GraphicsQueue, []gpu.SubmitInfo{submit}, slot.InFlight); err != nil {
		return fmt.Errorf("failed to submit draw command buffer: %w", err)
	}
	return nil
}

// PresentFrame queues imageIndex for presentation once rendering finishes.
// The raw result is returned so the caller can react to a stale swapchain.
func PresentFrame(device *Device, slot *FrameSlot, swapchain gpu.Swapchain, imageIndex uint32) gpu.Result {
	return device.Driver.QueuePresent(device.PresentQueue, gpu.PresentInfo{
		WaitSemaphores: []gpu.Semaphore{slot.RenderFinished},
		Swapchain:      swapchain,
		ImageIndex:     imageIndex,
	})
}
