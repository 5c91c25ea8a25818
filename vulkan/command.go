package vulkan

import (
	"fmt"

	"quad-renderer/gpu"
)

func AllocateCommandBuffers(device *Device, count uint32) ([]gpu.CommandBuffer, error) {
	buffers, err := device.Driver.AllocateCommandBuffers(device.Handle, device.CommandPool, count)
	if err != nil {
		return nil, fmt.Errorf("failed to allocate command buffers: %w", err)
	}
	return buffers, nil
}

func FreeCommandBuffers(device *Device, buffers []gpu.CommandBuffer) {
	if len(buffers) == 0 {
		return
	}
	device.Driver.FreeCommandBuffers(device.Handle, device.CommandPool, buffers)
}

// ExecuteSingleTimeCommands records fn into a temporary command buffer,
// submits it to the graphics queue and waits for the queue to drain.
func ExecuteSingleTimeCommands(device *Device, fn func(cmd gpu.CommandBuffer) error) error {
	drv := device.Driver

	buffers, err := AllocateCommandBuffers(device, 1)
	if err != nil {
		return err
	}
	defer FreeCommandBuffers(device, buffers)
	cmd := buffers[0]

	if err := drv.BeginCommandBuffer(cmd, true); err != nil {
		return fmt.Errorf("failed to begin recording command buffer: %w", err)
	}
	if err := fn(cmd); err != nil {
		return err
	}
	if err := drv.EndCommandBuffer(cmd); err != nil {
		return fmt.Errorf("failed to end recording command buffer: %w", err)
	}

	submit := gpu.SubmitInfo{CommandBuffers: []gpu.CommandBuffer{cmd}}
	if err := drv.QueueSubmit(device.GraphicsQueue, []gpu.SubmitInfo{submit}, 0); err != nil {
		return fmt.Errorf("failed to submit transfer: %w", err)
	}
	if err := drv.QueueWaitIdle(device.GraphicsQueue); err != nil {
		return fmt.Errorf("failed to wait for transfer: %w", err)
	}
	return nil
}

// LayoutTransition is the barrier for one supported layout change.
type LayoutTransition struct {
	SrcAccess gpu.AccessFlags
	DstAccess gpu.AccessFlags
	SrcStage  gpu.PipelineStageFlags
	DstStage  gpu.PipelineStageFlags
}

// TransitionFor looks up the barrier for oldLayout to newLayout. Only the
// two transitions of a texture upload are supported.
func TransitionFor(oldLayout, newLayout gpu.ImageLayout) (LayoutTransition, error) {
	switch {
	case oldLayout == gpu.ImageLayoutUndefined && newLayout == gpu.ImageLayoutTransferDstOptimal:
		return LayoutTransition{
			SrcAccess: 0,
			DstAccess: gpu.AccessTransferWriteBit,
			SrcStage:  gpu.PipelineStageTopOfPipeBit,
			DstStage:  gpu.PipelineStageTransferBit,
		}, nil
	case oldLayout == gpu.ImageLayoutTransferDstOptimal && newLayout == gpu.ImageLayoutShaderReadOnlyOptimal:
		return LayoutTransition{
			SrcAccess: gpu.AccessTransferWriteBit,
			DstAccess: gpu.AccessShaderReadBit,
			SrcStage:  gpu.PipelineStageTransferBit,
			DstStage:  gpu.PipelineStageFragmentShaderBit,
		}, nil
	}
	return LayoutTransition{}, fmt.Errorf("%w: %d -> %d", ErrUnsupportedLayoutTransition, oldLayout, newLayout)
}

func TransitionImageLayout(device *Device, cmd gpu.CommandBuffer, image gpu.Image, oldLayout, newLayout gpu.ImageLayout) error {
	t, err := TransitionFor(oldLayout, newLayout)
	if err != nil {
		return err
	}
	device.Driver.CmdPipelineBarrier(cmd, t.SrcStage, t.DstStage, []gpu.ImageMemoryBarrier{{
		Image:     image,
		OldLayout: oldLayout,
		NewLayout: newLayout,
		SrcAccess: t.SrcAccess,
		DstAccess: t.DstAccess,
	}})
	return nil
}

func CopyBufferToImage(device *Device, cmd gpu.CommandBuffer, buffer *Buffer, image *Image) {
	device.Driver.CmdCopyBufferToImage(cmd, buffer.Handle, image.Handle, gpu.ImageLayoutTransferDstOptimal, gpu.BufferImageCopy{
		Width:  image.Width,
		Height: image.Height,
	})
}

// RecordCommandBuffers records one static command buffer per framebuffer.
// Buffer i draws mesh into framebuffer i with descriptor set i bound.
func RecordCommandBuffers(device *Device, buffers []gpu.CommandBuffer, sc *SwapChain, renderPass gpu.RenderPass, pipeline *Pipeline, mesh *Mesh, sets []gpu.DescriptorSet, clearColor [4]float32) error {
	drv := device.Driver
	if len(buffers) != len(sc.Framebuffers) || len(sets) != len(sc.Framebuffers) {
		return fmt.Errorf("record: %d command buffers and %d descriptor sets for %d framebuffers",
			len(buffers), len(sets), len(sc.Framebuffers))
	}

	for i, cmd := range buffers {
		if err := drv.BeginCommandBuffer(cmd, false); err != nil {
			return fmt.Errorf("failed to begin recording command buffer: %w", err)
		}

		drv.CmdBeginRenderPass(cmd, gpu.RenderPassBeginInfo{
			RenderPass:  renderPass,
			Framebuffer: sc.Framebuffers[i],
			Extent:      sc.Extent,
			ClearColor:  clearColor,
		})
		drv.CmdBindPipeline(cmd, pipeline.Handle)
		drv.CmdBindVertexBuffers(cmd, 0, []gpu.Buffer{mesh.VertexBuffer.Handle}, []uint64{0})
		drv.CmdBindDescriptorSets(cmd, pipeline.Layout, 0, []gpu.DescriptorSet{sets[i]})
		if mesh.IndexBuffer != nil {
			drv.CmdBindIndexBuffer(cmd, mesh.IndexBuffer.Handle, 0, gpu.IndexTypeUint16)
			drv.CmdDrawIndexed(cmd, mesh.IndexCount, 1, 0, 0, 0)
		} else {
			drv.CmdDraw(cmd, mesh.VertexCount, 1, 0, 0)
		}
		drv.CmdEndRenderPass(cmd)

		if err := drv.EndCommandBuffer(cmd); err != nil {
			return fmt.Errorf("failed to record command buffer: %w", err)
		}
	}
	return nil
}
