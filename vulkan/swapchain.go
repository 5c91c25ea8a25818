package vulkan

import (
	"errors"
	"fmt"

	"quad-renderer/gpu"
)

type SwapChainSupportDetails struct {
	Capabilities gpu.SurfaceCapabilities
	Formats      []gpu.SurfaceFormat
	PresentModes []gpu.PresentMode
}

type SwapChain struct {
	Handle       gpu.Swapchain
	Images       []gpu.Image
	ImageViews   []gpu.ImageView
	Framebuffers []gpu.Framebuffer
	Format       gpu.Format
	ColorSpace   gpu.ColorSpace
	PresentMode  gpu.PresentMode
	Extent       gpu.Extent2D
	ImageCount   uint32
	SharingMode  gpu.SharingMode
}

func QuerySwapChainSupport(drv gpu.Driver, pd gpu.PhysicalDevice, surface gpu.Surface) (SwapChainSupportDetails, error) {
	var details SwapChainSupportDetails
	var err error

	details.Capabilities, err = drv.GetSurfaceCapabilities(pd, surface)
	if err != nil {
		return details, fmt.Errorf("failed to query surface capabilities: %w", err)
	}
	details.Formats, err = drv.GetSurfaceFormats(pd, surface)
	if err != nil {
		return details, fmt.Errorf("failed to query surface formats: %w", err)
	}
	details.PresentModes, err = drv.GetSurfacePresentModes(pd, surface)
	if err != nil {
		return details, fmt.Errorf("failed to query present modes: %w", err)
	}
	return details, nil
}

// ChooseSwapSurfaceFormat prefers B8G8R8A8_SRGB with the sRGB nonlinear color
// space, falling back to the first reported format.
func ChooseSwapSurfaceFormat(formats []gpu.SurfaceFormat) (gpu.SurfaceFormat, error) {
	if len(formats) == 0 {
		return gpu.SurfaceFormat{}, errors.New("surface reports no formats")
	}
	for _, f := range formats {
		if f.Format == gpu.FormatB8G8R8A8Srgb && f.ColorSpace == gpu.ColorSpaceSrgbNonlinear {
			return f, nil
		}
	}
	return formats[0], nil
}

// ChooseSwapPresentMode prefers mailbox; FIFO is always available.
func ChooseSwapPresentMode(modes []gpu.PresentMode) gpu.PresentMode {
	for _, m := range modes {
		if m == gpu.PresentModeMailbox {
			return m
		}
	}
	return gpu.PresentModeFifo
}

// ChooseSwapExtent uses the surface's current extent unless it is the
// undefined sentinel, in which case the framebuffer size is clamped into
// the supported range.
func ChooseSwapExtent(caps gpu.SurfaceCapabilities, fbWidth, fbHeight int) gpu.Extent2D {
	if caps.CurrentExtent.Width != gpu.UndefinedExtent {
		return caps.CurrentExtent
	}
	return gpu.Extent2D{
		Width:  clamp(uint32(max(fbWidth, 0)), caps.MinImageExtent.Width, caps.MaxImageExtent.Width),
		Height: clamp(uint32(max(fbHeight, 0)), caps.MinImageExtent.Height, caps.MaxImageExtent.Height),
	}
}

// ChooseImageCount asks for one image more than the minimum. A
// MaxImageCount of zero means no upper limit.
func ChooseImageCount(caps gpu.SurfaceCapabilities) uint32 {
	count := caps.MinImageCount + 1
	if caps.MaxImageCount > 0 && count > caps.MaxImageCount {
		count = caps.MaxImageCount
	}
	return count
}

// ChooseSharingMode shares images concurrently when graphics and present
// live in different queue families.
func ChooseSharingMode(families QueueFamilyIndices) (gpu.SharingMode, []uint32) {
	if families.Graphics != families.Present {
		return gpu.SharingModeConcurrent, []uint32{families.Graphics, families.Present}
	}
	return gpu.SharingModeExclusive, nil
}

func CreateSwapChain(device *Device, surface gpu.Surface, fbWidth, fbHeight int) (*SwapChain, error) {
	drv := device.Driver

	details, err := QuerySwapChainSupport(drv, device.PhysicalDevice, surface)
	if err != nil {
		return nil, err
	}
	if len(details.PresentModes) == 0 {
		return nil, errors.New("swapchain does not have available present modes")
	}

	// Choose settings
	surfaceFormat, err := ChooseSwapSurfaceFormat(details.Formats)
	if err != nil {
		return nil, err
	}
	presentMode := ChooseSwapPresentMode(details.PresentModes)
	extent := ChooseSwapExtent(details.Capabilities, fbWidth, fbHeight)
	if extent.IsZero() {
		return nil, fmt.Errorf("refusing to create a %dx%d swapchain", extent.Width, extent.Height)
	}
	imageCount := ChooseImageCount(details.Capabilities)
	sharingMode, families := ChooseSharingMode(device.Families)

	handle, err := drv.CreateSwapchain(device.Handle, gpu.SwapchainCreateInfo{
		Surface:       surface,
		MinImageCount: imageCount,
		Format:        surfaceFormat.Format,
		ColorSpace:    surfaceFormat.ColorSpace,
		Extent:        extent,
		Usage:         gpu.ImageUsageColorAttachmentBit,
		SharingMode:   sharingMode,
		QueueFamilies: families,
		PreTransform:  details.Capabilities.CurrentTransform,
		PresentMode:   presentMode,
		Clipped:       true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create swapchain: %w", err)
	}

	// Get swapchain images
	images, err := drv.GetSwapchainImages(device.Handle, handle)
	if err != nil {
		drv.DestroySwapchain(device.Handle, handle)
		return nil, fmt.Errorf("failed to get swapchain images: %w", err)
	}

	return &SwapChain{
		Handle:      handle,
		Images:      images,
		Format:      surfaceFormat.Format,
		ColorSpace:  surfaceFormat.ColorSpace,
		PresentMode: presentMode,
		Extent:      extent,
		ImageCount:  uint32(len(images)),
		SharingMode: sharingMode,
	}, nil
}

// CreateImageViews builds one color view per swapchain image.
func (sc *SwapChain) CreateImageViews(device *Device) error {
	sc.ImageViews = make([]gpu.ImageView, 0, len(sc.Images))
	for _, image := range sc.Images {
		view, err := device.Driver.CreateImageView(device.Handle, gpu.ImageViewCreateInfo{
			Image:  image,
			Format: sc.Format,
		})
		if err != nil {
			sc.DestroyImageViews(device)
			return fmt.Errorf("failed to create image view: %w", err)
		}
		sc.ImageViews = append(sc.ImageViews, view)
	}
	return nil
}

func (sc *SwapChain) CreateFramebuffers(device *Device, renderPass gpu.RenderPass) error {
	sc.Framebuffers = make([]gpu.Framebuffer, 0, len(sc.ImageViews))
	for _, imageView := range sc.ImageViews {
		framebuffer, err := device.Driver.CreateFramebuffer(device.Handle, gpu.FramebufferCreateInfo{
			RenderPass:  renderPass,
			Attachments: []gpu.ImageView{imageView},
			Extent:      sc.Extent,
		})
		if err != nil {
			sc.DestroyFramebuffers(device)
			return fmt.Errorf("failed to create framebuffer: %w", err)
		}
		sc.Framebuffers = append(sc.Framebuffers, framebuffer)
	}
	return nil
}

func (sc *SwapChain) DestroyFramebuffers(device *Device) {
	for _, framebuffer := range sc.Framebuffers {
		device.Driver.DestroyFramebuffer(device.Handle, framebuffer)
	}
	sc.Framebuffers = nil
}

func (sc *SwapChain) DestroyImageViews(device *Device) {
	for _, imageView := range sc.ImageViews {
		device.Driver.DestroyImageView(device.Handle, imageView)
	}
	sc.ImageViews = nil
}

// Destroy releases the swapchain itself. Its images go with it; views and
// framebuffers must already be gone.
func (sc *SwapChain) Destroy(device *Device) {
	device.Driver.DestroySwapchain(device.Handle, sc.Handle)
	sc.Handle = 0
	sc.Images = nil
}

func clamp(v, lo, hi uint32) uint32 {
	return max(lo, min(v, hi))
}
