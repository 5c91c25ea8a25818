package vkdriver

import (
	vk "github.com/vulkan-go/vulkan"

	"quad-renderer/gpu"
)

func (d *Driver) CreateSemaphore(device gpu.Device) (gpu.Semaphore, error) {
	createInfo := vk.SemaphoreCreateInfo{
		SType: vk.StructureTypeSemaphoreCreateInfo,
	}

	var semaphore vk.Semaphore
	if err := check(vk.CreateSemaphore(d.devices.get(gpu.Handle(device)), &createInfo, nil, &semaphore), "vkCreateSemaphore"); err != nil {
		return 0, err
	}
	return gpu.Semaphore(put(d, d.semaphores, semaphore)), nil
}

func (d *Driver) DestroySemaphore(device gpu.Device, semaphore gpu.Semaphore) {
	if s, ok := d.semaphores.take(gpu.Handle(semaphore)); ok {
		vk.DestroySemaphore(d.devices.get(gpu.Handle(device)), s, nil)
	}
}

func (d *Driver) CreateFence(device gpu.Device, signaled bool) (gpu.Fence, error) {
	createInfo := vk.FenceCreateInfo{
		SType: vk.StructureTypeFenceCreateInfo,
	}
	if signaled {
		createInfo.Flags = vk.FenceCreateFlags(vk.FenceCreateSignaledBit)
	}

	var fence vk.Fence
	if err := check(vk.CreateFence(d.devices.get(gpu.Handle(device)), &createInfo, nil, &fence), "vkCreateFence"); err != nil {
		return 0, err
	}
	return gpu.Fence(put(d, d.fences, fence)), nil
}

func (d *Driver) DestroyFence(device gpu.Device, fence gpu.Fence) {
	if f, ok := d.fences.take(gpu.Handle(fence)); ok {
		vk.DestroyFence(d.devices.get(gpu.Handle(device)), f, nil)
	}
}

func (d *Driver) WaitForFences(device gpu.Device, fences []gpu.Fence, waitAll bool, timeout uint64) error {
	list := d.fenceList(fences)
	if len(list) == 0 {
		return nil
	}
	res := vk.WaitForFences(d.devices.get(gpu.Handle(device)), uint32(len(list)), list, vkBool(waitAll), timeout)
	return check(res, "vkWaitForFences")
}

func (d *Driver) ResetFences(device gpu.Device, fences []gpu.Fence) error {
	list := d.fenceList(fences)
	if len(list) == 0 {
		return nil
	}
	return check(vk.ResetFences(d.devices.get(gpu.Handle(device)), uint32(len(list)), list), "vkResetFences")
}

func (d *Driver) fenceList(list []gpu.Fence) []vk.Fence {
	out := make([]vk.Fence, 0, len(list))
	for _, f := range list {
		if f == 0 {
			continue
		}
		out = append(out, d.fences.get(gpu.Handle(f)))
	}
	return out
}
