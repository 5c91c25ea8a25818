package vulkan

import (
	"errors"
	"slices"
	"testing"

	"quad-renderer/gpu"
	"quad-renderer/gpu/gputest"
	"quad-renderer/scene"
)

func TestCreateRenderPass(t *testing.T) {
	drv := gputest.New()
	device := newTestDevice(t, drv)

	renderPass, err := CreateRenderPass(device, gpu.FormatB8G8R8A8Srgb)
	if err != nil {
		t.Fatalf("CreateRenderPass: %v", err)
	}
	defer DestroyRenderPass(device, renderPass)

	if len(drv.RenderPasses) != 1 {
		t.Fatalf("RenderPasses: expected 1, got %d", len(drv.RenderPasses))
	}
	info := drv.RenderPasses[0]
	if info.ColorFormat != gpu.FormatB8G8R8A8Srgb {
		t.Errorf("ColorFormat: expected %v, got %v", gpu.FormatB8G8R8A8Srgb, info.ColorFormat)
	}
	if info.InitialLayout != gpu.ImageLayoutUndefined || info.FinalLayout != gpu.ImageLayoutPresentSrc {
		t.Errorf("layouts: expected undefined -> present src, got %v -> %v", info.InitialLayout, info.FinalLayout)
	}

	expected := gpu.SubpassDependency{
		SrcSubpass:    gpu.SubpassExternal,
		DstSubpass:    0,
		SrcStageMask:  gpu.PipelineStageColorAttachmentOutputBit,
		DstStageMask:  gpu.PipelineStageColorAttachmentOutputBit,
		SrcAccessMask: 0,
		DstAccessMask: gpu.AccessColorAttachmentWriteBit,
	}
	if info.Dependency != expected {
		t.Errorf("Dependency: expected %+v, got %+v", expected, info.Dependency)
	}
}

func TestCreateGraphicsPipeline(t *testing.T) {
	drv := gputest.New()
	device := newTestDevice(t, drv)

	layout, err := CreateDescriptorSetLayout(device)
	if err != nil {
		t.Fatalf("CreateDescriptorSetLayout: %v", err)
	}
	defer DestroyDescriptorSetLayout(device, layout)

	config := DefaultPipelineConfig()
	config.VertexShaderCode = testAssets().VertShader
	config.FragmentShaderCode = testAssets().FragShader
	config.VertexDescription = VertexInputDescription{
		Bindings:   scene.VertexBindings(),
		Attributes: scene.VertexAttributes(),
	}
	config.Extent = gpu.Extent2D{Width: 640, Height: 480}
	config.RenderPass = gpu.RenderPass(99)
	config.DescriptorSetLayout = layout

	pipeline, err := CreateGraphicsPipeline(device, config)
	if err != nil {
		t.Fatalf("CreateGraphicsPipeline: %v", err)
	}

	info := drv.PipelineInfos[0]
	if !info.CullBack {
		t.Errorf("CullBack: expected true")
	}
	if info.FrontFace != gpu.FrontFaceCounterClockwise {
		t.Errorf("FrontFace: expected %v, got %v", gpu.FrontFaceCounterClockwise, info.FrontFace)
	}
	if info.Extent != config.Extent {
		t.Errorf("Extent: expected %v, got %v", config.Extent, info.Extent)
	}
	if info.RenderPass != config.RenderPass || info.Subpass != 0 {
		t.Errorf("RenderPass: expected %v subpass 0, got %v subpass %d", config.RenderPass, info.RenderPass, info.Subpass)
	}
	if info.Layout != pipeline.Layout {
		t.Errorf("Layout: expected %v, got %v", pipeline.Layout, info.Layout)
	}
	if len(info.Stages) != 2 ||
		info.Stages[0].Stage != gpu.ShaderStageVertexBit ||
		info.Stages[1].Stage != gpu.ShaderStageFragmentBit {
		t.Errorf("Stages: expected vertex then fragment, got %+v", info.Stages)
	}
	for _, st := range info.Stages {
		if st.EntryPoint != "main" {
			t.Errorf("stage %v entry point: expected main, got %q", st.Stage, st.EntryPoint)
		}
	}
	if !slices.Equal(info.Bindings, scene.VertexBindings()) {
		t.Errorf("Bindings: expected %+v, got %+v", scene.VertexBindings(), info.Bindings)
	}
	if !slices.Equal(info.Attributes, scene.VertexAttributes()) {
		t.Errorf("Attributes: expected %+v, got %+v", scene.VertexAttributes(), info.Attributes)
	}
	if n := drv.Live("ShaderModule"); n != 0 {
		t.Errorf("ShaderModule: expected 0 live after creation, got %d", n)
	}

	pipeline.Destroy(device)
	if drv.Live("Pipeline") != 0 || drv.Live("PipelineLayout") != 0 {
		t.Errorf("Destroy: expected pipeline and layout released, got %d and %d",
			drv.Live("Pipeline"), drv.Live("PipelineLayout"))
	}
}

func TestCreateGraphicsPipelineFailure(t *testing.T) {
	drv := gputest.New()
	device := newTestDevice(t, drv)
	failure := errors.New("pipeline compile failed")
	drv.FailOn = map[string]error{"CreateGraphicsPipeline": failure}

	config := DefaultPipelineConfig()
	config.VertexShaderCode = testAssets().VertShader
	config.FragmentShaderCode = testAssets().FragShader
	config.Extent = gpu.Extent2D{Width: 640, Height: 480}

	if _, err := CreateGraphicsPipeline(device, config); !errors.Is(err, failure) {
		t.Errorf("CreateGraphicsPipeline: expected %v, got %v", failure, err)
	}
	if drv.Live("PipelineLayout") != 0 || drv.Live("ShaderModule") != 0 {
		t.Errorf("failure: expected layout and modules released, got %d and %d",
			drv.Live("PipelineLayout"), drv.Live("ShaderModule"))
	}
}

func TestPipelineFollowsSwapchainExtent(t *testing.T) {
	drv := gputest.New()
	r := newTestRenderer(t, drv, &fakeWindow{})

	drv.Capabilities.CurrentExtent = gpu.Extent2D{Width: 1024, Height: 768}
	if err := r.RecreateSwapChain(); err != nil {
		t.Fatalf("RecreateSwapChain: %v", err)
	}

	if len(drv.PipelineInfos) != 2 {
		t.Fatalf("PipelineInfos: expected 2, got %d", len(drv.PipelineInfos))
	}
	expected := []gpu.Extent2D{{Width: 800, Height: 600}, {Width: 1024, Height: 768}}
	for i, info := range drv.PipelineInfos {
		if info.Extent != expected[i] {
			t.Errorf("pipeline %d extent: expected %v, got %v", i, expected[i], info.Extent)
		}
		if !info.CullBack || info.FrontFace != gpu.FrontFaceCounterClockwise {
			t.Errorf("pipeline %d: expected back-face culling with CCW front face, got cull=%v front=%v",
				i, info.CullBack, info.FrontFace)
		}
	}
	if r.SwapChain.Extent != expected[1] {
		t.Errorf("swapchain extent: expected %v, got %v", expected[1], r.SwapChain.Extent)
	}
	if len(drv.RenderPasses) != 2 {
		t.Errorf("RenderPasses: expected one per swapchain generation, got %d", len(drv.RenderPasses))
	}
}
