package vkdriver

import (
	vk "github.com/vulkan-go/vulkan"

	"quad-renderer/gpu"
)

func (d *Driver) CreateSampler(device gpu.Device, info gpu.SamplerCreateInfo) (gpu.Sampler, error) {
	addressMode := vk.SamplerAddressMode(info.AddressMode)
	createInfo := vk.SamplerCreateInfo{
		SType:                   vk.StructureTypeSamplerCreateInfo,
		MagFilter:               vk.Filter(info.MagFilter),
		MinFilter:               vk.Filter(info.MinFilter),
		MipmapMode:              vk.SamplerMipmapModeLinear,
		AddressModeU:            addressMode,
		AddressModeV:            addressMode,
		AddressModeW:            addressMode,
		AnisotropyEnable:        vkBool(info.AnisotropyEnable),
		MaxAnisotropy:           info.MaxAnisotropy,
		CompareEnable:           vk.False,
		CompareOp:               vk.CompareOpAlways,
		BorderColor:             vk.BorderColorIntOpaqueBlack,
		UnnormalizedCoordinates: vk.False,
	}

	var sampler vk.Sampler
	if err := check(vk.CreateSampler(d.devices.get(gpu.Handle(device)), &createInfo, nil, &sampler), "vkCreateSampler"); err != nil {
		return 0, err
	}
	return gpu.Sampler(put(d, d.samplers, sampler)), nil
}

func (d *Driver) DestroySampler(device gpu.Device, sampler gpu.Sampler) {
	if s, ok := d.samplers.take(gpu.Handle(sampler)); ok {
		vk.DestroySampler(d.devices.get(gpu.Handle(device)), s, nil)
	}
}

func (d *Driver) CreateDescriptorPool(device gpu.Device, info gpu.DescriptorPoolCreateInfo) (gpu.DescriptorPool, error) {
	sizes := make([]vk.DescriptorPoolSize, len(info.Sizes))
	for i, s := range info.Sizes {
		sizes[i] = vk.DescriptorPoolSize{
			Type:            vk.DescriptorType(s.Type),
			DescriptorCount: s.Count,
		}
	}

	createInfo := vk.DescriptorPoolCreateInfo{
		SType:         vk.StructureTypeDescriptorPoolCreateInfo,
		MaxSets:       info.MaxSets,
		PoolSizeCount: uint32(len(sizes)),
		PPoolSizes:    sizes,
	}

	var pool vk.DescriptorPool
	if err := check(vk.CreateDescriptorPool(d.devices.get(gpu.Handle(device)), &createInfo, nil, &pool), "vkCreateDescriptorPool"); err != nil {
		return 0, err
	}
	return gpu.DescriptorPool(put(d, d.descriptorPools, pool)), nil
}

// DestroyDescriptorPool also forgets every set allocated from the pool.
func (d *Driver) DestroyDescriptorPool(device gpu.Device, pool gpu.DescriptorPool) {
	p, ok := d.descriptorPools.take(gpu.Handle(pool))
	if !ok {
		return
	}
	for _, h := range d.poolSets[pool] {
		d.descriptorSets.take(gpu.Handle(h))
	}
	delete(d.poolSets, pool)
	vk.DestroyDescriptorPool(d.devices.get(gpu.Handle(device)), p, nil)
}

func (d *Driver) AllocateDescriptorSets(device gpu.Device, pool gpu.DescriptorPool, layouts []gpu.DescriptorSetLayout) ([]gpu.DescriptorSet, error) {
	if len(layouts) == 0 {
		return nil, nil
	}
	vkLayouts := make([]vk.DescriptorSetLayout, len(layouts))
	for i, l := range layouts {
		vkLayouts[i] = d.setLayouts.get(gpu.Handle(l))
	}

	allocInfo := vk.DescriptorSetAllocateInfo{
		SType:              vk.StructureTypeDescriptorSetAllocateInfo,
		DescriptorPool:     d.descriptorPools.get(gpu.Handle(pool)),
		DescriptorSetCount: uint32(len(vkLayouts)),
		PSetLayouts:        vkLayouts,
	}

	sets := make([]vk.DescriptorSet, len(vkLayouts))
	if err := check(vk.AllocateDescriptorSets(d.devices.get(gpu.Handle(device)), &allocInfo, &sets[0]), "vkAllocateDescriptorSets"); err != nil {
		return nil, err
	}

	out := make([]gpu.DescriptorSet, len(sets))
	for i, s := range sets {
		out[i] = gpu.DescriptorSet(put(d, d.descriptorSets, s))
	}
	d.poolSets[pool] = append(d.poolSets[pool], out...)
	return out, nil
}

func (d *Driver) UpdateDescriptorSets(device gpu.Device, writes []gpu.WriteDescriptorSet) {
	if len(writes) == 0 {
		return
	}
	vkWrites := make([]vk.WriteDescriptorSet, len(writes))
	for i, w := range writes {
		vkWrites[i] = vk.WriteDescriptorSet{
			SType:           vk.StructureTypeWriteDescriptorSet,
			DstSet:          d.descriptorSets.get(gpu.Handle(w.Set)),
			DstBinding:      w.Binding,
			DstArrayElement: 0,
			DescriptorCount: 1,
			DescriptorType:  vk.DescriptorType(w.Type),
		}
		if w.BufferInfo != nil {
			vkWrites[i].PBufferInfo = []vk.DescriptorBufferInfo{{
				Buffer: d.buffers.get(gpu.Handle(w.BufferInfo.Buffer)),
				Offset: vk.DeviceSize(w.BufferInfo.Offset),
				Range:  vk.DeviceSize(w.BufferInfo.Range),
			}}
		}
		if w.ImageInfo != nil {
			vkWrites[i].PImageInfo = []vk.DescriptorImageInfo{{
				Sampler:     d.samplers.get(gpu.Handle(w.ImageInfo.Sampler)),
				ImageView:   d.imageViews.get(gpu.Handle(w.ImageInfo.View)),
				ImageLayout: vk.ImageLayout(w.ImageInfo.Layout),
			}}
		}
	}
	vk.UpdateDescriptorSets(d.devices.get(gpu.Handle(device)), uint32(len(vkWrites)), vkWrites, 0, nil)
}
