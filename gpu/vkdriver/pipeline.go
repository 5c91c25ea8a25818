package vkdriver

import (
	"unsafe"

	"github.com/pkg/errors"
	vk "github.com/vulkan-go/vulkan"

	"quad-renderer/gpu"
)

func (d *Driver) CreateImageView(device gpu.Device, info gpu.ImageViewCreateInfo) (gpu.ImageView, error) {
	createInfo := vk.ImageViewCreateInfo{
		SType:    vk.StructureTypeImageViewCreateInfo,
		Image:    d.images.get(gpu.Handle(info.Image)),
		ViewType: vk.ImageViewType2d,
		Format:   vk.Format(info.Format),
		Components: vk.ComponentMapping{
			R: vk.ComponentSwizzleIdentity,
			G: vk.ComponentSwizzleIdentity,
			B: vk.ComponentSwizzleIdentity,
			A: vk.ComponentSwizzleIdentity,
		},
		SubresourceRange: vk.ImageSubresourceRange{
			AspectMask:     vk.ImageAspectFlags(vk.ImageAspectColorBit),
			BaseMipLevel:   0,
			LevelCount:     1,
			BaseArrayLayer: 0,
			LayerCount:     1,
		},
	}

	var view vk.ImageView
	if err := check(vk.CreateImageView(d.devices.get(gpu.Handle(device)), &createInfo, nil, &view), "vkCreateImageView"); err != nil {
		return 0, err
	}
	return gpu.ImageView(put(d, d.imageViews, view)), nil
}

func (d *Driver) DestroyImageView(device gpu.Device, view gpu.ImageView) {
	if v, ok := d.imageViews.take(gpu.Handle(view)); ok {
		vk.DestroyImageView(d.devices.get(gpu.Handle(device)), v, nil)
	}
}

func (d *Driver) CreateRenderPass(device gpu.Device, info gpu.RenderPassCreateInfo) (gpu.RenderPass, error) {
	colorAttachment := vk.AttachmentDescription{
		Format:         vk.Format(info.ColorFormat),
		Samples:        vk.SampleCount1Bit,
		LoadOp:         vk.AttachmentLoadOpClear,
		StoreOp:        vk.AttachmentStoreOpStore,
		StencilLoadOp:  vk.AttachmentLoadOpDontCare,
		StencilStoreOp: vk.AttachmentStoreOpDontCare,
		InitialLayout:  vk.ImageLayout(info.InitialLayout),
		FinalLayout:    vk.ImageLayout(info.FinalLayout),
	}

	colorAttachmentRef := vk.AttachmentReference{
		Attachment: 0,
		Layout:     vk.ImageLayoutColorAttachmentOptimal,
	}

	subpass := vk.SubpassDescription{
		PipelineBindPoint:    vk.PipelineBindPointGraphics,
		ColorAttachmentCount: 1,
		PColorAttachments:    []vk.AttachmentReference{colorAttachmentRef},
	}

	dep := info.Dependency
	dependency := vk.SubpassDependency{
		SrcSubpass:    dep.SrcSubpass,
		DstSubpass:    dep.DstSubpass,
		SrcStageMask:  vk.PipelineStageFlags(dep.SrcStageMask),
		SrcAccessMask: vk.AccessFlags(dep.SrcAccessMask),
		DstStageMask:  vk.PipelineStageFlags(dep.DstStageMask),
		DstAccessMask: vk.AccessFlags(dep.DstAccessMask),
	}

	createInfo := vk.RenderPassCreateInfo{
		SType:           vk.StructureTypeRenderPassCreateInfo,
		AttachmentCount: 1,
		PAttachments:    []vk.AttachmentDescription{colorAttachment},
		SubpassCount:    1,
		PSubpasses:      []vk.SubpassDescription{subpass},
		DependencyCount: 1,
		PDependencies:   []vk.SubpassDependency{dependency},
	}

	var renderPass vk.RenderPass
	if err := check(vk.CreateRenderPass(d.devices.get(gpu.Handle(device)), &createInfo, nil, &renderPass), "vkCreateRenderPass"); err != nil {
		return 0, err
	}
	return gpu.RenderPass(put(d, d.renderPasses, renderPass)), nil
}

func (d *Driver) DestroyRenderPass(device gpu.Device, renderPass gpu.RenderPass) {
	if rp, ok := d.renderPasses.take(gpu.Handle(renderPass)); ok {
		vk.DestroyRenderPass(d.devices.get(gpu.Handle(device)), rp, nil)
	}
}

func (d *Driver) CreateShaderModule(device gpu.Device, code []byte) (gpu.ShaderModule, error) {
	if len(code) == 0 || len(code)%4 != 0 {
		return 0, errors.Errorf("shader code size %d is not a positive multiple of 4", len(code))
	}
	words := make([]uint32, len(code)/4)
	copy(unsafe.Slice((*byte)(unsafe.Pointer(&words[0])), len(code)), code)

	createInfo := vk.ShaderModuleCreateInfo{
		SType:    vk.StructureTypeShaderModuleCreateInfo,
		CodeSize: uint(len(code)),
		PCode:    words,
	}

	var module vk.ShaderModule
	if err := check(vk.CreateShaderModule(d.devices.get(gpu.Handle(device)), &createInfo, nil, &module), "vkCreateShaderModule"); err != nil {
		return 0, err
	}
	return gpu.ShaderModule(put(d, d.shaderModules, module)), nil
}

func (d *Driver) DestroyShaderModule(device gpu.Device, module gpu.ShaderModule) {
	if m, ok := d.shaderModules.take(gpu.Handle(module)); ok {
		vk.DestroyShaderModule(d.devices.get(gpu.Handle(device)), m, nil)
	}
}

func (d *Driver) CreateDescriptorSetLayout(device gpu.Device, bindings []gpu.DescriptorSetLayoutBinding) (gpu.DescriptorSetLayout, error) {
	vkBindings := make([]vk.DescriptorSetLayoutBinding, len(bindings))
	for i, b := range bindings {
		vkBindings[i] = vk.DescriptorSetLayoutBinding{
			Binding:         b.Binding,
			DescriptorType:  vk.DescriptorType(b.Type),
			DescriptorCount: b.Count,
			StageFlags:      vk.ShaderStageFlags(b.Stages),
		}
	}

	createInfo := vk.DescriptorSetLayoutCreateInfo{
		SType:        vk.StructureTypeDescriptorSetLayoutCreateInfo,
		BindingCount: uint32(len(vkBindings)),
		PBindings:    vkBindings,
	}

	var layout vk.DescriptorSetLayout
	if err := check(vk.CreateDescriptorSetLayout(d.devices.get(gpu.Handle(device)), &createInfo, nil, &layout), "vkCreateDescriptorSetLayout"); err != nil {
		return 0, err
	}
	return gpu.DescriptorSetLayout(put(d, d.setLayouts, layout)), nil
}

func (d *Driver) DestroyDescriptorSetLayout(device gpu.Device, layout gpu.DescriptorSetLayout) {
	if l, ok := d.setLayouts.take(gpu.Handle(layout)); ok {
		vk.DestroyDescriptorSetLayout(d.devices.get(gpu.Handle(device)), l, nil)
	}
}

func (d *Driver) CreatePipelineLayout(device gpu.Device, info gpu.PipelineLayoutCreateInfo) (gpu.PipelineLayout, error) {
	setLayouts := make([]vk.DescriptorSetLayout, len(info.SetLayouts))
	for i, l := range info.SetLayouts {
		setLayouts[i] = d.setLayouts.get(gpu.Handle(l))
	}

	createInfo := vk.PipelineLayoutCreateInfo{
		SType:          vk.StructureTypePipelineLayoutCreateInfo,
		SetLayoutCount: uint32(len(setLayouts)),
		PSetLayouts:    setLayouts,
	}

	var layout vk.PipelineLayout
	if err := check(vk.CreatePipelineLayout(d.devices.get(gpu.Handle(device)), &createInfo, nil, &layout), "vkCreatePipelineLayout"); err != nil {
		return 0, err
	}
	return gpu.PipelineLayout(put(d, d.pipelineLayouts, layout)), nil
}

func (d *Driver) DestroyPipelineLayout(device gpu.Device, layout gpu.PipelineLayout) {
	if l, ok := d.pipelineLayouts.take(gpu.Handle(layout)); ok {
		vk.DestroyPipelineLayout(d.devices.get(gpu.Handle(device)), l, nil)
	}
}

func (d *Driver) CreateGraphicsPipeline(device gpu.Device, info gpu.GraphicsPipelineCreateInfo) (gpu.Pipeline, error) {
	stages := make([]vk.PipelineShaderStageCreateInfo, len(info.Stages))
	for i, s := range info.Stages {
		stages[i] = vk.PipelineShaderStageCreateInfo{
			SType:  vk.StructureTypePipelineShaderStageCreateInfo,
			Stage:  vk.ShaderStageFlagBits(s.Stage),
			Module: d.shaderModules.get(gpu.Handle(s.Module)),
			PName:  cstr(s.EntryPoint),
		}
	}

	bindings := make([]vk.VertexInputBindingDescription, len(info.Bindings))
	for i, b := range info.Bindings {
		bindings[i] = vk.VertexInputBindingDescription{
			Binding:   b.Binding,
			Stride:    b.Stride,
			InputRate: vk.VertexInputRate(b.InputRate),
		}
	}
	attributes := make([]vk.VertexInputAttributeDescription, len(info.Attributes))
	for i, a := range info.Attributes {
		attributes[i] = vk.VertexInputAttributeDescription{
			Location: a.Location,
			Binding:  a.Binding,
			Format:   vk.Format(a.Format),
			Offset:   a.Offset,
		}
	}

	vertexInputInfo := vk.PipelineVertexInputStateCreateInfo{
		SType:                           vk.StructureTypePipelineVertexInputStateCreateInfo,
		VertexBindingDescriptionCount:   uint32(len(bindings)),
		PVertexBindingDescriptions:      bindings,
		VertexAttributeDescriptionCount: uint32(len(attributes)),
		PVertexAttributeDescriptions:    attributes,
	}

	inputAssembly := vk.PipelineInputAssemblyStateCreateInfo{
		SType:                  vk.StructureTypePipelineInputAssemblyStateCreateInfo,
		Topology:               vk.PrimitiveTopologyTriangleList,
		PrimitiveRestartEnable: vk.False,
	}

	viewport := vk.Viewport{
		X:        0,
		Y:        0,
		Width:    float32(info.Extent.Width),
		Height:   float32(info.Extent.Height),
		MinDepth: 0,
		MaxDepth: 1,
	}
	scissor := vk.Rect2D{
		Offset: vk.Offset2D{X: 0, Y: 0},
		Extent: extent(info.Extent),
	}
	viewportState := vk.PipelineViewportStateCreateInfo{
		SType:         vk.StructureTypePipelineViewportStateCreateInfo,
		ViewportCount: 1,
		PViewports:    []vk.Viewport{viewport},
		ScissorCount:  1,
		PScissors:     []vk.Rect2D{scissor},
	}

	cullMode := vk.CullModeFlags(vk.CullModeNone)
	if info.CullBack {
		cullMode = vk.CullModeFlags(vk.CullModeBackBit)
	}
	rasterizer := vk.PipelineRasterizationStateCreateInfo{
		SType:                   vk.StructureTypePipelineRasterizationStateCreateInfo,
		DepthClampEnable:        vk.False,
		RasterizerDiscardEnable: vk.False,
		PolygonMode:             vk.PolygonModeFill,
		LineWidth:               1,
		CullMode:                cullMode,
		FrontFace:               vk.FrontFace(info.FrontFace),
		DepthBiasEnable:         vk.False,
	}

	multisampling := vk.PipelineMultisampleStateCreateInfo{
		SType:                vk.StructureTypePipelineMultisampleStateCreateInfo,
		SampleShadingEnable:  vk.False,
		RasterizationSamples: vk.SampleCount1Bit,
		MinSampleShading:     1,
	}

	colorBlendAttachment := vk.PipelineColorBlendAttachmentState{
		ColorWriteMask: vk.ColorComponentFlags(
			vk.ColorComponentRBit |
				vk.ColorComponentGBit |
				vk.ColorComponentBBit |
				vk.ColorComponentABit,
		),
		BlendEnable: vk.False,
	}
	colorBlending := vk.PipelineColorBlendStateCreateInfo{
		SType:           vk.StructureTypePipelineColorBlendStateCreateInfo,
		LogicOpEnable:   vk.False,
		LogicOp:         vk.LogicOpCopy,
		AttachmentCount: 1,
		PAttachments:    []vk.PipelineColorBlendAttachmentState{colorBlendAttachment},
	}

	pipelineInfo := vk.GraphicsPipelineCreateInfo{
		SType:               vk.StructureTypeGraphicsPipelineCreateInfo,
		StageCount:          uint32(len(stages)),
		PStages:             stages,
		PVertexInputState:   &vertexInputInfo,
		PInputAssemblyState: &inputAssembly,
		PViewportState:      &viewportState,
		PRasterizationState: &rasterizer,
		PMultisampleState:   &multisampling,
		PColorBlendState:    &colorBlending,
		Layout:              d.pipelineLayouts.get(gpu.Handle(info.Layout)),
		RenderPass:          d.renderPasses.get(gpu.Handle(info.RenderPass)),
		Subpass:             info.Subpass,
		BasePipelineIndex:   -1,
	}

	pipelines := make([]vk.Pipeline, 1)
	res := vk.CreateGraphicsPipelines(
		d.devices.get(gpu.Handle(device)),
		vk.PipelineCache(vk.NullHandle),
		1,
		[]vk.GraphicsPipelineCreateInfo{pipelineInfo},
		nil,
		pipelines,
	)
	if err := check(res, "vkCreateGraphicsPipelines"); err != nil {
		return 0, err
	}
	return gpu.Pipeline(put(d, d.pipelines, pipelines[0])), nil
}

func (d *Driver) DestroyPipeline(device gpu.Device, pipeline gpu.Pipeline) {
	if p, ok := d.pipelines.take(gpu.Handle(pipeline)); ok {
		vk.DestroyPipeline(d.devices.get(gpu.Handle(device)), p, nil)
	}
}

func (d *Driver) CreateFramebuffer(device gpu.Device, info gpu.FramebufferCreateInfo) (gpu.Framebuffer, error) {
	attachments := make([]vk.ImageView, len(info.Attachments))
	for i, v := range info.Attachments {
		attachments[i] = d.imageViews.get(gpu.Handle(v))
	}

	createInfo := vk.FramebufferCreateInfo{
		SType:           vk.StructureTypeFramebufferCreateInfo,
		RenderPass:      d.renderPasses.get(gpu.Handle(info.RenderPass)),
		AttachmentCount: uint32(len(attachments)),
		PAttachments:    attachments,
		Width:           info.Extent.Width,
		Height:          info.Extent.Height,
		Layers:          1,
	}

	var framebuffer vk.Framebuffer
	if err := check(vk.CreateFramebuffer(d.devices.get(gpu.Handle(device)), &createInfo, nil, &framebuffer), "vkCreateFramebuffer"); err != nil {
		return 0, err
	}
	return gpu.Framebuffer(put(d, d.framebuffers, framebuffer)), nil
}

func (d *Driver) DestroyFramebuffer(device gpu.Device, framebuffer gpu.Framebuffer) {
	if fb, ok := d.framebuffers.take(gpu.Handle(framebuffer)); ok {
		vk.DestroyFramebuffer(d.devices.get(gpu.Handle(device)), fb, nil)
	}
}
