package vkdriver

import (
	vk "github.com/vulkan-go/vulkan"

	"quad-renderer/gpu"
)

func (d *Driver) CreateCommandPool(device gpu.Device, info gpu.CommandPoolCreateInfo) (gpu.CommandPool, error) {
	createInfo := vk.CommandPoolCreateInfo{
		SType:            vk.StructureTypeCommandPoolCreateInfo,
		QueueFamilyIndex: info.QueueFamilyIndex,
	}
	if info.ResetBuffer {
		createInfo.Flags = vk.CommandPoolCreateFlags(vk.CommandPoolCreateResetCommandBufferBit)
	}

	var pool vk.CommandPool
	if err := check(vk.CreateCommandPool(d.devices.get(gpu.Handle(device)), &createInfo, nil, &pool), "vkCreateCommandPool"); err != nil {
		return 0, err
	}
	return gpu.CommandPool(put(d, d.commandPools, pool)), nil
}

func (d *Driver) DestroyCommandPool(device gpu.Device, pool gpu.CommandPool) {
	if p, ok := d.commandPools.take(gpu.Handle(pool)); ok {
		vk.DestroyCommandPool(d.devices.get(gpu.Handle(device)), p, nil)
	}
}

func (d *Driver) AllocateCommandBuffers(device gpu.Device, pool gpu.CommandPool, count uint32) ([]gpu.CommandBuffer, error) {
	allocInfo := vk.CommandBufferAllocateInfo{
		SType:              vk.StructureTypeCommandBufferAllocateInfo,
		CommandPool:        d.commandPools.get(gpu.Handle(pool)),
		Level:              vk.CommandBufferLevelPrimary,
		CommandBufferCount: count,
	}

	buffers := make([]vk.CommandBuffer, count)
	if err := check(vk.AllocateCommandBuffers(d.devices.get(gpu.Handle(device)), &allocInfo, buffers), "vkAllocateCommandBuffers"); err != nil {
		return nil, err
	}

	out := make([]gpu.CommandBuffer, count)
	for i, cb := range buffers {
		out[i] = gpu.CommandBuffer(put(d, d.commandBuffers, cb))
	}
	return out, nil
}

func (d *Driver) FreeCommandBuffers(device gpu.Device, pool gpu.CommandPool, buffers []gpu.CommandBuffer) {
	if len(buffers) == 0 {
		return
	}
	vkBuffers := make([]vk.CommandBuffer, 0, len(buffers))
	for _, cb := range buffers {
		if b, ok := d.commandBuffers.take(gpu.Handle(cb)); ok {
			vkBuffers = append(vkBuffers, b)
		}
	}
	vk.FreeCommandBuffers(d.devices.get(gpu.Handle(device)), d.commandPools.get(gpu.Handle(pool)), uint32(len(vkBuffers)), vkBuffers)
}

func (d *Driver) BeginCommandBuffer(cmd gpu.CommandBuffer, oneTimeSubmit bool) error {
	beginInfo := vk.CommandBufferBeginInfo{
		SType: vk.StructureTypeCommandBufferBeginInfo,
	}
	if oneTimeSubmit {
		beginInfo.Flags = vk.CommandBufferUsageFlags(vk.CommandBufferUsageOneTimeSubmitBit)
	}
	return check(vk.BeginCommandBuffer(d.commandBuffers.get(gpu.Handle(cmd)), &beginInfo), "vkBeginCommandBuffer")
}

func (d *Driver) EndCommandBuffer(cmd gpu.CommandBuffer) error {
	return check(vk.EndCommandBuffer(d.commandBuffers.get(gpu.Handle(cmd))), "vkEndCommandBuffer")
}

func (d *Driver) CmdBeginRenderPass(cmd gpu.CommandBuffer, info gpu.RenderPassBeginInfo) {
	beginInfo := vk.RenderPassBeginInfo{
		SType:       vk.StructureTypeRenderPassBeginInfo,
		RenderPass:  d.renderPasses.get(gpu.Handle(info.RenderPass)),
		Framebuffer: d.framebuffers.get(gpu.Handle(info.Framebuffer)),
		RenderArea: vk.Rect2D{
			Offset: vk.Offset2D{X: 0, Y: 0},
			Extent: extent(info.Extent),
		},
		ClearValueCount: 1,
		PClearValues:    []vk.ClearValue{vk.NewClearValue(info.ClearColor[:])},
	}
	vk.CmdBeginRenderPass(d.commandBuffers.get(gpu.Handle(cmd)), &beginInfo, vk.SubpassContentsInline)
}

func (d *Driver) CmdEndRenderPass(cmd gpu.CommandBuffer) {
	vk.CmdEndRenderPass(d.commandBuffers.get(gpu.Handle(cmd)))
}

func (d *Driver) CmdBindPipeline(cmd gpu.CommandBuffer, pipeline gpu.Pipeline) {
	vk.CmdBindPipeline(d.commandBuffers.get(gpu.Handle(cmd)), vk.PipelineBindPointGraphics, d.pipelines.get(gpu.Handle(pipeline)))
}

func (d *Driver) CmdBindVertexBuffers(cmd gpu.CommandBuffer, firstBinding uint32, buffers []gpu.Buffer, offsets []uint64) {
	vkBuffers := make([]vk.Buffer, len(buffers))
	vkOffsets := make([]vk.DeviceSize, len(buffers))
	for i, b := range buffers {
		vkBuffers[i] = d.buffers.get(gpu.Handle(b))
		if i < len(offsets) {
			vkOffsets[i] = vk.DeviceSize(offsets[i])
		}
	}
	vk.CmdBindVertexBuffers(d.commandBuffers.get(gpu.Handle(cmd)), firstBinding, uint32(len(vkBuffers)), vkBuffers, vkOffsets)
}

func (d *Driver) CmdBindIndexBuffer(cmd gpu.CommandBuffer, buffer gpu.Buffer, offset uint64, indexType gpu.IndexType) {
	vk.CmdBindIndexBuffer(d.commandBuffers.get(gpu.Handle(cmd)), d.buffers.get(gpu.Handle(buffer)), vk.DeviceSize(offset), vk.IndexType(indexType))
}

func (d *Driver) CmdBindDescriptorSets(cmd gpu.CommandBuffer, layout gpu.PipelineLayout, firstSet uint32, sets []gpu.DescriptorSet) {
	vkSets := make([]vk.DescriptorSet, len(sets))
	for i, s := range sets {
		vkSets[i] = d.descriptorSets.get(gpu.Handle(s))
	}
	vk.CmdBindDescriptorSets(
		d.commandBuffers.get(gpu.Handle(cmd)),
		vk.PipelineBindPointGraphics,
		d.pipelineLayouts.get(gpu.Handle(layout)),
		firstSet,
		uint32(len(vkSets)),
		vkSets,
		0,
		nil,
	)
}

func (d *Driver) CmdDraw(cmd gpu.CommandBuffer, vertexCount, instanceCount, firstVertex, firstInstance uint32) {
	vk.CmdDraw(d.commandBuffers.get(gpu.Handle(cmd)), vertexCount, instanceCount, firstVertex, firstInstance)
}

func (d *Driver) CmdDrawIndexed(cmd gpu.CommandBuffer, indexCount, instanceCount, firstIndex uint32, vertexOffset int32, firstInstance uint32) {
	vk.CmdDrawIndexed(d.commandBuffers.get(gpu.Handle(cmd)), indexCount, instanceCount, firstIndex, vertexOffset, firstInstance)
}

func (d *Driver) CmdCopyBuffer(cmd gpu.CommandBuffer, src, dst gpu.Buffer, size uint64) {
	region := vk.BufferCopy{
		SrcOffset: 0,
		DstOffset: 0,
		Size:      vk.DeviceSize(size),
	}
	vk.CmdCopyBuffer(d.commandBuffers.get(gpu.Handle(cmd)), d.buffers.get(gpu.Handle(src)), d.buffers.get(gpu.Handle(dst)), 1, []vk.BufferCopy{region})
}

func (d *Driver) CmdCopyBufferToImage(cmd gpu.CommandBuffer, src gpu.Buffer, dst gpu.Image, layout gpu.ImageLayout, region gpu.BufferImageCopy) {
	copyRegion := vk.BufferImageCopy{
		BufferOffset:      0,
		BufferRowLength:   0,
		BufferImageHeight: 0,
		ImageSubresource: vk.ImageSubresourceLayers{
			AspectMask:     vk.ImageAspectFlags(vk.ImageAspectColorBit),
			MipLevel:       0,
			BaseArrayLayer: 0,
			LayerCount:     1,
		},
		ImageOffset: vk.Offset3D{X: 0, Y: 0, Z: 0},
		ImageExtent: vk.Extent3D{
			Width:  region.Width,
			Height: region.Height,
			Depth:  1,
		},
	}
	vk.CmdCopyBufferToImage(
		d.commandBuffers.get(gpu.Handle(cmd)),
		d.buffers.get(gpu.Handle(src)),
		d.images.get(gpu.Handle(dst)),
		vk.ImageLayout(layout),
		1,
		[]vk.BufferImageCopy{copyRegion},
	)
}

func (d *Driver) CmdPipelineBarrier(cmd gpu.CommandBuffer, srcStage, dstStage gpu.PipelineStageFlags, barriers []gpu.ImageMemoryBarrier) {
	vkBarriers := make([]vk.ImageMemoryBarrier, len(barriers))
	for i, b := range barriers {
		vkBarriers[i] = vk.ImageMemoryBarrier{
			SType:               vk.StructureTypeImageMemoryBarrier,
			SrcAccessMask:       vk.AccessFlags(b.SrcAccess),
			DstAccessMask:       vk.AccessFlags(b.DstAccess),
			OldLayout:           vk.ImageLayout(b.OldLayout),
			NewLayout:           vk.ImageLayout(b.NewLayout),
			SrcQueueFamilyIndex: vk.QueueFamilyIgnored,
			DstQueueFamilyIndex: vk.QueueFamilyIgnored,
			Image:               d.images.get(gpu.Handle(b.Image)),
			SubresourceRange: vk.ImageSubresourceRange{
				AspectMask:     vk.ImageAspectFlags(vk.ImageAspectColorBit),
				BaseMipLevel:   0,
				LevelCount:     1,
				BaseArrayLayer: 0,
				LayerCount:     1,
			},
		}
	}
	vk.CmdPipelineBarrier(
		d.commandBuffers.get(gpu.Handle(cmd)),
		vk.PipelineStageFlags(srcStage),
		vk.PipelineStageFlags(dstStage),
		0,
		0, nil,
		0, nil,
		uint32(len(vkBarriers)), vkBarriers,
	)
}

func (d *Driver) QueueSubmit(queue gpu.Queue, submits []gpu.SubmitInfo, fence gpu.Fence) error {
	vkSubmits := make([]vk.SubmitInfo, len(submits))
	for i, s := range submits {
		waits := d.semaphoreList(s.WaitSemaphores)
		signals := d.semaphoreList(s.SignalSemaphores)
		stages := make([]vk.PipelineStageFlags, len(s.WaitStages))
		for j, st := range s.WaitStages {
			stages[j] = vk.PipelineStageFlags(st)
		}
		cmds := make([]vk.CommandBuffer, len(s.CommandBuffers))
		for j, cb := range s.CommandBuffers {
			cmds[j] = d.commandBuffers.get(gpu.Handle(cb))
		}

		vkSubmits[i] = vk.SubmitInfo{
			SType:                vk.StructureTypeSubmitInfo,
			WaitSemaphoreCount:   uint32(len(waits)),
			PWaitSemaphores:      waits,
			PWaitDstStageMask:    stages,
			CommandBufferCount:   uint32(len(cmds)),
			PCommandBuffers:      cmds,
			SignalSemaphoreCount: uint32(len(signals)),
			PSignalSemaphores:    signals,
		}
	}

	res := vk.QueueSubmit(d.queues.get(gpu.Handle(queue)), uint32(len(vkSubmits)), vkSubmits, d.fences.get(gpu.Handle(fence)))
	return check(res, "vkQueueSubmit")
}

func (d *Driver) QueueWaitIdle(queue gpu.Queue) error {
	return check(vk.QueueWaitIdle(d.queues.get(gpu.Handle(queue))), "vkQueueWaitIdle")
}

func (d *Driver) semaphoreList(list []gpu.Semaphore) []vk.Semaphore {
	if len(list) == 0 {
		return nil
	}
	out := make([]vk.Semaphore, len(list))
	for i, s := range list {
		out[i] = d.semaphores.get(gpu.Handle(s))
	}
	return out
}
