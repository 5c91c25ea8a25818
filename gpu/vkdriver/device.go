package vkdriver

import (
	vk "github.com/vulkan-go/vulkan"

	"quad-renderer/gpu"
)

func (d *Driver) CreateDevice(pd gpu.PhysicalDevice, info gpu.DeviceCreateInfo) (gpu.Device, error) {
	queueInfos := make([]vk.DeviceQueueCreateInfo, len(info.Queues))
	for i, q := range info.Queues {
		queueInfos[i] = vk.DeviceQueueCreateInfo{
			SType:            vk.StructureTypeDeviceQueueCreateInfo,
			QueueFamilyIndex: q.FamilyIndex,
			QueueCount:       uint32(len(q.Priorities)),
			PQueuePriorities: q.Priorities,
		}
	}

	extensions := cstrs(info.Extensions)
	layers := cstrs(info.Layers)

	createInfo := vk.DeviceCreateInfo{
		SType:                   vk.StructureTypeDeviceCreateInfo,
		QueueCreateInfoCount:    uint32(len(queueInfos)),
		PQueueCreateInfos:       queueInfos,
		EnabledExtensionCount:   uint32(len(extensions)),
		PpEnabledExtensionNames: extensions,
		EnabledLayerCount:       uint32(len(layers)),
		PpEnabledLayerNames:     layers,
		PEnabledFeatures: []vk.PhysicalDeviceFeatures{{
			GeometryShader:    vkBool(info.Features.GeometryShader),
			SamplerAnisotropy: vkBool(info.Features.SamplerAnisotropy),
			FillModeNonSolid:  vkBool(info.Features.FillModeNonSolid),
		}},
	}

	var device vk.Device
	if err := check(vk.CreateDevice(d.physicalDevices.get(gpu.Handle(pd)), &createInfo, nil, &device), "vkCreateDevice"); err != nil {
		return 0, err
	}
	return gpu.Device(put(d, d.devices, device)), nil
}

func (d *Driver) DestroyDevice(device gpu.Device) {
	dev, ok := d.devices.take(gpu.Handle(device))
	if !ok {
		return
	}
	vk.DestroyDevice(dev, nil)
}

func (d *Driver) GetDeviceQueue(device gpu.Device, family, index uint32) gpu.Queue {
	var queue vk.Queue
	vk.GetDeviceQueue(d.devices.get(gpu.Handle(device)), family, index, &queue)
	return gpu.Queue(intern(d, d.queues, queue))
}

func (d *Driver) DeviceWaitIdle(device gpu.Device) error {
	return check(vk.DeviceWaitIdle(d.devices.get(gpu.Handle(device))), "vkDeviceWaitIdle")
}

func (d *Driver) CreateSwapchain(device gpu.Device, info gpu.SwapchainCreateInfo) (gpu.Swapchain, error) {
	createInfo := vk.SwapchainCreateInfo{
		SType:            vk.StructureTypeSwapchainCreateInfo,
		Surface:          d.surfaces.get(gpu.Handle(info.Surface)),
		MinImageCount:    info.MinImageCount,
		ImageFormat:      vk.Format(info.Format),
		ImageColorSpace:  vk.ColorSpace(info.ColorSpace),
		ImageExtent:      extent(info.Extent),
		ImageArrayLayers: 1,
		ImageUsage:       vk.ImageUsageFlags(info.Usage),
		ImageSharingMode: vk.SharingMode(info.SharingMode),
		PreTransform:     vk.SurfaceTransformFlagBits(info.PreTransform),
		CompositeAlpha:   vk.CompositeAlphaOpaqueBit,
		PresentMode:      vk.PresentMode(info.PresentMode),
		Clipped:          vkBool(info.Clipped),
		OldSwapchain:     d.swapchains.get(gpu.Handle(info.OldSwapchain)),
	}
	if info.SharingMode == gpu.SharingModeConcurrent {
		createInfo.QueueFamilyIndexCount = uint32(len(info.QueueFamilies))
		createInfo.PQueueFamilyIndices = info.QueueFamilies
	}

	var swapchain vk.Swapchain
	if err := check(vk.CreateSwapchain(d.devices.get(gpu.Handle(device)), &createInfo, nil, &swapchain), "vkCreateSwapchainKHR"); err != nil {
		return 0, err
	}
	return gpu.Swapchain(put(d, d.swapchains, swapchain)), nil
}

func (d *Driver) DestroySwapchain(device gpu.Device, swapchain gpu.Swapchain) {
	sc, ok := d.swapchains.take(gpu.Handle(swapchain))
	if !ok {
		return
	}
	// Swapchain images are owned by the swapchain; only the handles go.
	for _, img := range d.swapchainImages[swapchain] {
		d.images.take(gpu.Handle(img))
	}
	delete(d.swapchainImages, swapchain)
	vk.DestroySwapchain(d.devices.get(gpu.Handle(device)), sc, nil)
}

func (d *Driver) GetSwapchainImages(device gpu.Device, swapchain gpu.Swapchain) ([]gpu.Image, error) {
	if imgs, ok := d.swapchainImages[swapchain]; ok {
		return imgs, nil
	}
	dev := d.devices.get(gpu.Handle(device))
	sc := d.swapchains.get(gpu.Handle(swapchain))

	var count uint32
	if err := check(vk.GetSwapchainImages(dev, sc, &count, nil), "vkGetSwapchainImagesKHR"); err != nil {
		return nil, err
	}
	images := make([]vk.Image, count)
	if err := check(vk.GetSwapchainImages(dev, sc, &count, images), "vkGetSwapchainImagesKHR"); err != nil {
		return nil, err
	}

	out := make([]gpu.Image, len(images))
	for i, img := range images {
		out[i] = gpu.Image(put(d, d.images, img))
	}
	d.swapchainImages[swapchain] = out
	return out, nil
}

func (d *Driver) AcquireNextImage(device gpu.Device, swapchain gpu.Swapchain, timeout uint64, semaphore gpu.Semaphore, fence gpu.Fence) (uint32, gpu.Result) {
	var index uint32
	res := vk.AcquireNextImage(
		d.devices.get(gpu.Handle(device)),
		d.swapchains.get(gpu.Handle(swapchain)),
		timeout,
		d.semaphores.get(gpu.Handle(semaphore)),
		d.fences.get(gpu.Handle(fence)),
		&index,
	)
	return index, gpu.Result(res)
}

func (d *Driver) QueuePresent(queue gpu.Queue, info gpu.PresentInfo) gpu.Result {
	waits := d.semaphoreList(info.WaitSemaphores)
	presentInfo := vk.PresentInfo{
		SType:              vk.StructureTypePresentInfo,
		WaitSemaphoreCount: uint32(len(waits)),
		PWaitSemaphores:    waits,
		SwapchainCount:     1,
		PSwapchains:        []vk.Swapchain{d.swapchains.get(gpu.Handle(info.Swapchain))},
		PImageIndices:      []uint32{info.ImageIndex},
	}
	return gpu.Result(vk.QueuePresent(d.queues.get(gpu.Handle(queue)), &presentInfo))
}
