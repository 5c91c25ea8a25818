package vulkan

import (
	"fmt"

	"quad-renderer/gpu"
)

type Pipeline struct {
	Handle gpu.Pipeline
	Layout gpu.PipelineLayout
}

type VertexInputDescription struct {
	Bindings   []gpu.VertexInputBinding
	Attributes []gpu.VertexInputAttribute
}

type PipelineConfig struct {
	VertexShaderCode    []byte
	FragmentShaderCode  []byte
	VertexDescription   VertexInputDescription
	CullBack            bool
	FrontFace           gpu.FrontFace
	Extent              gpu.Extent2D
	RenderPass          gpu.RenderPass
	DescriptorSetLayout gpu.DescriptorSetLayout
}

func DefaultPipelineConfig() PipelineConfig {
	return PipelineConfig{
		CullBack:  true,
		FrontFace: gpu.FrontFaceCounterClockwise,
	}
}

// CreateRenderPass builds the single-subpass pass: one color attachment
// cleared on load and left ready for presentation.
func CreateRenderPass(device *Device, format gpu.Format) (gpu.RenderPass, error) {
	renderPass, err := device.Driver.CreateRenderPass(device.Handle, gpu.RenderPassCreateInfo{
		ColorFormat:   format,
		InitialLayout: gpu.ImageLayoutUndefined,
		FinalLayout:   gpu.ImageLayoutPresentSrc,
		// The layout transition at the start of the pass waits for the
		// acquire semaphore, which is waited on at color attachment output.
		Dependency: gpu.SubpassDependency{
			SrcSubpass:    gpu.SubpassExternal,
			DstSubpass:    0,
			SrcStageMask:  gpu.PipelineStageColorAttachmentOutputBit,
			DstStageMask:  gpu.PipelineStageColorAttachmentOutputBit,
			DstAccessMask: gpu.AccessColorAttachmentWriteBit,
		},
	})
	if err != nil {
		return 0, fmt.Errorf("failed to create render pass: %w", err)
	}
	return renderPass, nil
}

func DestroyRenderPass(device *Device, renderPass gpu.RenderPass) {
	device.Driver.DestroyRenderPass(device.Handle, renderPass)
}

// CreateGraphicsPipeline builds the pipeline layout and pipeline. The shader
// modules only live for the duration of the call.
func CreateGraphicsPipeline(device *Device, config PipelineConfig) (*Pipeline, error) {
	drv := device.Driver

	// Create shader modules
	vertShader, err := drv.CreateShaderModule(device.Handle, config.VertexShaderCode)
	if err != nil {
		return nil, fmt.Errorf("failed to create vertex shader module: %w", err)
	}
	defer drv.DestroyShaderModule(device.Handle, vertShader)

	fragShader, err := drv.CreateShaderModule(device.Handle, config.FragmentShaderCode)
	if err != nil {
		return nil, fmt.Errorf("failed to create fragment shader module: %w", err)
	}
	defer drv.DestroyShaderModule(device.Handle, fragShader)

	// Pipeline layout
	var setLayouts []gpu.DescriptorSetLayout
	if config.DescriptorSetLayout != 0 {
		setLayouts = []gpu.DescriptorSetLayout{config.DescriptorSetLayout}
	}
	layout, err := drv.CreatePipelineLayout(device.Handle, gpu.PipelineLayoutCreateInfo{
		SetLayouts: setLayouts,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create pipeline layout: %w", err)
	}

	handle, err := drv.CreateGraphicsPipeline(device.Handle, gpu.GraphicsPipelineCreateInfo{
		Stages: []gpu.ShaderStage{
			{Stage: gpu.ShaderStageVertexBit, Module: vertShader, EntryPoint: "main"},
			{Stage: gpu.ShaderStageFragmentBit, Module: fragShader, EntryPoint: "main"},
		},
		Bindings:   config.VertexDescription.Bindings,
		Attributes: config.VertexDescription.Attributes,
		Extent:     config.Extent,
		CullBack:   config.CullBack,
		FrontFace:  config.FrontFace,
		Layout:     layout,
		RenderPass: config.RenderPass,
		Subpass:    0,
	})
	if err != nil {
		drv.DestroyPipelineLayout(device.Handle, layout)
		return nil, fmt.Errorf("failed to create graphics pipeline: %w", err)
	}

	return &Pipeline{Handle: handle, Layout: layout}, nil
}

// Destroy releases the pipeline, then its layout.
func (p *Pipeline) Destroy(device *Device) {
	if p.Handle != 0 {
		device.Driver.DestroyPipeline(device.Handle, p.Handle)
		p.Handle = 0
	}
	if p.Layout != 0 {
		device.Driver.DestroyPipelineLayout(device.Handle, p.Layout)
		p.Layout = 0
	}
}
