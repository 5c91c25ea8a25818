package vulkan

import (
	"fmt"

	"quad-renderer/gpu"
)

type DescriptorPool struct {
	Handle gpu.DescriptorPool
}

// CreateDescriptorSetLayout declares the uniform buffer at binding 0 for the
// vertex stage and the texture sampler at binding 1 for the fragment stage.
func CreateDescriptorSetLayout(device *Device) (gpu.DescriptorSetLayout, error) {
	bindings := []gpu.DescriptorSetLayoutBinding{
		UniformBufferBinding(0, gpu.ShaderStageVertexBit),
		CombinedImageSamplerBinding(1, gpu.ShaderStageFragmentBit),
	}

	layout, err := device.Driver.CreateDescriptorSetLayout(device.Handle, bindings)
	if err != nil {
		return 0, fmt.Errorf("failed to create descriptor set layout: %w", err)
	}
	return layout, nil
}

func DestroyDescriptorSetLayout(device *Device, layout gpu.DescriptorSetLayout) {
	device.Driver.DestroyDescriptorSetLayout(device.Handle, layout)
}

// CreateDescriptorPool sizes a pool for one uniform buffer and one sampler
// per swapchain image.
func CreateDescriptorPool(device *Device, imageCount uint32) (*DescriptorPool, error) {
	handle, err := device.Driver.CreateDescriptorPool(device.Handle, gpu.DescriptorPoolCreateInfo{
		MaxSets: imageCount,
		Sizes: []gpu.DescriptorPoolSize{
			{Type: gpu.DescriptorTypeUniformBuffer, Count: imageCount},
			{Type: gpu.DescriptorTypeCombinedImageSampler, Count: imageCount},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create descriptor pool: %w", err)
	}
	return &DescriptorPool{Handle: handle}, nil
}

// Destroy also frees every set allocated from the pool.
func (p *DescriptorPool) Destroy(device *Device) {
	device.Driver.DestroyDescriptorPool(device.Handle, p.Handle)
	p.Handle = 0
}

func (p *DescriptorPool) AllocateDescriptorSets(device *Device, layout gpu.DescriptorSetLayout, count uint32) ([]gpu.DescriptorSet, error) {
	layouts := make([]gpu.DescriptorSetLayout, count)
	for i := range layouts {
		layouts[i] = layout
	}

	sets, err := device.Driver.AllocateDescriptorSets(device.Handle, p.Handle, layouts)
	if err != nil {
		return nil, fmt.Errorf("failed to allocate descriptor sets: %w", err)
	}
	return sets, nil
}

// WriteDescriptorSets points set i at uniform buffer i and every set at the
// shared texture.
func WriteDescriptorSets(device *Device, sets []gpu.DescriptorSet, uniformBuffers []*Buffer, texture *Texture) error {
	if len(sets) != len(uniformBuffers) {
		return fmt.Errorf("%d descriptor sets for %d uniform buffers", len(sets), len(uniformBuffers))
	}

	writes := make([]gpu.WriteDescriptorSet, 0, 2*len(sets))
	for i, set := range sets {
		writes = append(writes,
			gpu.WriteDescriptorSet{
				Set:     set,
				Binding: 0,
				Type:    gpu.DescriptorTypeUniformBuffer,
				BufferInfo: &gpu.DescriptorBufferInfo{
					Buffer: uniformBuffers[i].Handle,
					Offset: 0,
					Range:  UniformBufferSize,
				},
			},
			gpu.WriteDescriptorSet{
				Set:     set,
				Binding: 1,
				Type:    gpu.DescriptorTypeCombinedImageSampler,
				ImageInfo: &gpu.DescriptorImageInfo{
					Sampler: texture.Sampler,
					View:    texture.Image.View,
					Layout:  gpu.ImageLayoutShaderReadOnlyOptimal,
				},
			},
		)
	}
	device.Driver.UpdateDescriptorSets(device.Handle, writes)
	return nil
}

// CreateSampler builds a linear, repeating sampler with anisotropy at the
// device limit when the device supports it.
func CreateSampler(device *Device) (gpu.Sampler, error) {
	info := gpu.SamplerCreateInfo{
		MagFilter:   gpu.FilterLinear,
		MinFilter:   gpu.FilterLinear,
		AddressMode: gpu.SamplerAddressModeRepeat,
	}
	if device.Features.SamplerAnisotropy {
		info.AnisotropyEnable = true
		info.MaxAnisotropy = device.Properties.Limits.MaxSamplerAnisotropy
	}

	sampler, err := device.Driver.CreateSampler(device.Handle, info)
	if err != nil {
		return 0, fmt.Errorf("failed to create texture sampler: %w", err)
	}
	return sampler, nil
}

func UniformBufferBinding(binding uint32, stageFlags gpu.ShaderStageFlags) gpu.DescriptorSetLayoutBinding {
	return gpu.DescriptorSetLayoutBinding{
		Binding: binding,
		Type:    gpu.DescriptorTypeUniformBuffer,
		Count:   1,
		Stages:  stageFlags,
	}
}

func CombinedImageSamplerBinding(binding uint32, stageFlags gpu.ShaderStageFlags) gpu.DescriptorSetLayoutBinding {
	return gpu.DescriptorSetLayoutBinding{
		Binding: binding,
		Type:    gpu.DescriptorTypeCombinedImageSampler,
		Count:   1,
		Stages:  stageFlags,
	}
}
