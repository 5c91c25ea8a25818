package vulkan

import (
	"slices"
	"testing"

	"quad-renderer/gpu"
	"quad-renderer/gpu/gputest"
)

func TestCreateDescriptorSetLayout(t *testing.T) {
	drv := gputest.New()
	device := newTestDevice(t, drv)

	layout, err := CreateDescriptorSetLayout(device)
	if err != nil {
		t.Fatalf("CreateDescriptorSetLayout: %v", err)
	}
	defer DestroyDescriptorSetLayout(device, layout)

	expected := []gpu.DescriptorSetLayoutBinding{
		{Binding: 0, Type: gpu.DescriptorTypeUniformBuffer, Count: 1, Stages: gpu.ShaderStageVertexBit},
		{Binding: 1, Type: gpu.DescriptorTypeCombinedImageSampler, Count: 1, Stages: gpu.ShaderStageFragmentBit},
	}
	if len(drv.SetLayouts) != 1 || !slices.Equal(drv.SetLayouts[0], expected) {
		t.Errorf("SetLayouts: expected [%+v], got %+v", expected, drv.SetLayouts)
	}
}

func TestRendererDescriptorPoolAndSets(t *testing.T) {
	drv := gputest.New()
	r := newTestRenderer(t, drv, &fakeWindow{})

	imageCount := uint32(len(r.SwapChain.Images))
	if len(drv.PoolInfos) != 1 {
		t.Fatalf("PoolInfos: expected 1, got %d", len(drv.PoolInfos))
	}
	pool := drv.PoolInfos[0]
	if pool.MaxSets != imageCount {
		t.Errorf("MaxSets: expected %d, got %d", imageCount, pool.MaxSets)
	}
	expectedSizes := []gpu.DescriptorPoolSize{
		{Type: gpu.DescriptorTypeUniformBuffer, Count: imageCount},
		{Type: gpu.DescriptorTypeCombinedImageSampler, Count: imageCount},
	}
	if !slices.Equal(pool.Sizes, expectedSizes) {
		t.Errorf("Sizes: expected %+v, got %+v", expectedSizes, pool.Sizes)
	}

	if len(drv.Writes) != 2*int(imageCount) {
		t.Fatalf("Writes: expected %d, got %d", 2*imageCount, len(drv.Writes))
	}
	for i, set := range r.DescriptorSets {
		ubo, sampler := drv.Writes[2*i], drv.Writes[2*i+1]

		if ubo.Set != set || ubo.Binding != 0 || ubo.Type != gpu.DescriptorTypeUniformBuffer || ubo.BufferInfo == nil {
			t.Errorf("set %d uniform write: expected binding 0 uniform buffer, got %+v", i, ubo)
		} else {
			expected := gpu.DescriptorBufferInfo{Buffer: r.UniformBuffers[i].Handle, Offset: 0, Range: UniformBufferSize}
			if *ubo.BufferInfo != expected {
				t.Errorf("set %d buffer: expected %+v, got %+v", i, expected, *ubo.BufferInfo)
			}
		}

		if sampler.Set != set || sampler.Binding != 1 || sampler.Type != gpu.DescriptorTypeCombinedImageSampler || sampler.ImageInfo == nil {
			t.Errorf("set %d sampler write: expected binding 1 combined image sampler, got %+v", i, sampler)
		} else {
			expected := gpu.DescriptorImageInfo{
				Sampler: r.Texture.Sampler,
				View:    r.Texture.Image.View,
				Layout:  gpu.ImageLayoutShaderReadOnlyOptimal,
			}
			if *sampler.ImageInfo != expected {
				t.Errorf("set %d image: expected %+v, got %+v", i, expected, *sampler.ImageInfo)
			}
		}
	}
}

func TestRendererRewritesDescriptorsOnRecreate(t *testing.T) {
	drv := gputest.New()
	r := newTestRenderer(t, drv, &fakeWindow{})

	if err := r.RecreateSwapChain(); err != nil {
		t.Fatalf("RecreateSwapChain: %v", err)
	}
	if len(drv.PoolInfos) != 2 {
		t.Errorf("PoolInfos: expected a pool per swapchain generation, got %d", len(drv.PoolInfos))
	}
	imageCount := len(r.SwapChain.Images)
	if len(drv.Writes) != 2*2*imageCount {
		t.Errorf("Writes: expected %d over two generations, got %d", 2*2*imageCount, len(drv.Writes))
	}
	if drv.Live("DescriptorPool") != 1 {
		t.Errorf("DescriptorPool: expected 1 live, got %d", drv.Live("DescriptorPool"))
	}
}

func TestWriteDescriptorSetsCountMismatch(t *testing.T) {
	drv := gputest.New()
	device := newTestDevice(t, drv)

	sets := []gpu.DescriptorSet{1, 2}
	buffers := []*Buffer{{Handle: 7}}
	if err := WriteDescriptorSets(device, sets, buffers, &Texture{Image: &Image{}}); err == nil {
		t.Errorf("WriteDescriptorSets with 2 sets and 1 buffer: expected error")
	}
	if len(drv.Writes) != 0 {
		t.Errorf("Writes: expected none on error, got %d", len(drv.Writes))
	}
}
