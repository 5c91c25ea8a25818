package vulkan

import (
	"context"
	"errors"
	"fmt"
	"time"

	"quad-renderer/gpu"
	"quad-renderer/internal/logging"
	"quad-renderer/scene"
	"quad-renderer/textures"
)

// Window is what the renderer needs from the windowing system.
type Window interface {
	gpu.SurfaceSource
	GetRequiredInstanceExtensions() []string
	GetFramebufferSize() (width, height int)
	ShouldClose() bool
	PollEvents()
	WaitEvents()
	// ConsumeResize reports whether the framebuffer was resized since the
	// last call, and clears the flag.
	ConsumeResize() bool
	SetTitle(title string)
}

// Assets is the CPU-side data uploaded once at startup.
type Assets struct {
	VertShader []byte
	FragShader []byte
	Geometry   *scene.Geometry
	Texture    *textures.Image
}

// cleanupStack releases resources in reverse order of registration.
type cleanupStack []func()

func (s *cleanupStack) push(fn func()) {
	*s = append(*s, fn)
}

func (s *cleanupStack) unwind() {
	for i := len(*s) - 1; i >= 0; i-- {
		(*s)[i]()
	}
	*s = nil
}

// Renderer owns every GPU object of the application. Objects fall into two
// tiers: the persistent tier lives as long as the renderer, the swapchain
// tier is rebuilt whenever the swapchain goes stale.
type Renderer struct {
	cfg    Config
	window Window
	assets Assets

	// Persistent tier
	Instance            *Instance
	Surface             gpu.Surface
	Device              *Device
	DescriptorSetLayout gpu.DescriptorSetLayout
	Texture             *Texture
	Mesh                *Mesh
	Ring                *FrameRing
	ImageFences         *ImageFences

	// Swapchain tier
	SwapChain      *SwapChain
	RenderPass     gpu.RenderPass
	Pipeline       *Pipeline
	CommandBuffers []gpu.CommandBuffer
	DescriptorPool *DescriptorPool
	DescriptorSets []gpu.DescriptorSet
	UniformBuffers []*Buffer

	// Recreations counts swapchain rebuilds after the first build.
	Recreations int
	// Frames counts frames submitted and presented.
	Frames uint64

	cleanup     cleanupStack
	swapCleanup cleanupStack
}

// NewRenderer brings up the device, uploads assets and builds the first
// swapchain generation. On failure everything created so far is released.
func NewRenderer(drv gpu.Driver, window Window, cfg Config, assets Assets) (*Renderer, error) {
	if assets.Geometry == nil || assets.Texture == nil {
		return nil, fmt.Errorf("failed to create renderer: geometry and texture are required")
	}
	if cfg.FramesInFlight < 1 {
		cfg.FramesInFlight = 1
	}
	r := &Renderer{cfg: cfg, window: window, assets: assets}
	if err := r.init(drv); err != nil {
		r.Destroy()
		return nil, err
	}
	return r, nil
}

func (r *Renderer) init(drv gpu.Driver) error {
	log := logging.Logger()

	// Create Vulkan instance
	instance, err := NewInstance(drv, r.cfg.InstanceConfig(r.window.GetRequiredInstanceExtensions()))
	if err != nil {
		return err
	}
	r.Instance = instance
	r.cleanup.push(instance.Destroy)

	surface, err := instance.CreateSurface(r.window)
	if err != nil {
		return err
	}
	r.Surface = surface
	r.cleanup.push(func() { instance.DestroySurface(surface) })

	// Select physical device and create logical device
	device, err := PickPhysicalDevice(instance, surface, DeviceRequirements{
		Extensions:        r.cfg.DeviceExtensions,
		RequireDiscrete:   r.cfg.RequireDiscrete,
		RequireAnisotropy: true,
	})
	if err != nil {
		return err
	}
	if err := device.CreateLogicalDevice(surface); err != nil {
		return err
	}
	r.Device = device
	r.cleanup.push(device.Destroy)

	log.Info("selected GPU", "name", device.GetGPUName(), "type", device.GetDeviceType())

	layout, err := CreateDescriptorSetLayout(device)
	if err != nil {
		return err
	}
	r.DescriptorSetLayout = layout
	r.cleanup.push(func() { DestroyDescriptorSetLayout(device, layout) })

	img := r.assets.Texture
	if fitted := img.FitWithin(device.Properties.Limits.MaxImageDimension2D); fitted != img {
		log.Info("texture downscaled to device limit",
			"name", img.Name, "from", fmt.Sprintf("%dx%d", img.Width, img.Height),
			"to", fmt.Sprintf("%dx%d", fitted.Width, fitted.Height))
		img = fitted
	}
	texture, err := UploadTexture(device, img.Width, img.Height, img.Pixels)
	if err != nil {
		return err
	}
	r.Texture = texture
	r.cleanup.push(func() { texture.Destroy(device) })

	mesh, err := UploadMesh(device, r.assets.Geometry)
	if err != nil {
		return err
	}
	r.Mesh = mesh
	r.cleanup.push(func() { mesh.Destroy(device) })

	ring, err := NewFrameRing(device, r.cfg.FramesInFlight)
	if err != nil {
		return err
	}
	r.Ring = ring
	r.cleanup.push(func() { ring.Destroy(device) })

	r.ImageFences = NewImageFences(0)

	return r.createSwapChainTier()
}

// createSwapChainTier builds everything that depends on the swapchain, in
// dependency order. Each step registers its own release on swapCleanup.
func (r *Renderer) createSwapChainTier() error {
	device := r.Device
	width, height := r.window.GetFramebufferSize()

	sc, err := CreateSwapChain(device, r.Surface, width, height)
	if err != nil {
		return err
	}
	r.SwapChain = sc
	r.swapCleanup.push(func() { sc.Destroy(device) })

	if err := sc.CreateImageViews(device); err != nil {
		return err
	}
	r.swapCleanup.push(func() { sc.DestroyImageViews(device) })

	renderPass, err := CreateRenderPass(device, sc.Format)
	if err != nil {
		return err
	}
	r.RenderPass = renderPass
	r.swapCleanup.push(func() { DestroyRenderPass(device, renderPass) })

	pipelineConfig := DefaultPipelineConfig()
	pipelineConfig.VertexShaderCode = r.assets.VertShader
	pipelineConfig.FragmentShaderCode = r.assets.FragShader
	pipelineConfig.VertexDescription = VertexInputDescription{
		Bindings:   scene.VertexBindings(),
		Attributes: scene.VertexAttributes(),
	}
	pipelineConfig.FrontFace = r.cfg.FrontFace
	pipelineConfig.Extent = sc.Extent
	pipelineConfig.RenderPass = renderPass
	pipelineConfig.DescriptorSetLayout = r.DescriptorSetLayout

	pipeline, err := CreateGraphicsPipeline(device, pipelineConfig)
	if err != nil {
		return err
	}
	r.Pipeline = pipeline
	r.swapCleanup.push(func() { pipeline.Destroy(device) })

	imageCount := uint32(len(sc.Images))
	commandBuffers, err := AllocateCommandBuffers(device, imageCount)
	if err != nil {
		return err
	}
	r.CommandBuffers = commandBuffers
	r.swapCleanup.push(func() { FreeCommandBuffers(device, commandBuffers) })

	if err := sc.CreateFramebuffers(device, renderPass); err != nil {
		return err
	}
	r.swapCleanup.push(func() { sc.DestroyFramebuffers(device) })

	pool, err := CreateDescriptorPool(device, imageCount)
	if err != nil {
		return err
	}
	r.DescriptorPool = pool
	r.swapCleanup.push(func() { pool.Destroy(device) })

	r.DescriptorSets, err = pool.AllocateDescriptorSets(device, r.DescriptorSetLayout, imageCount)
	if err != nil {
		return err
	}

	uniformBuffers, err := CreateUniformBuffers(device, int(imageCount))
	if err != nil {
		return err
	}
	r.UniformBuffers = uniformBuffers
	r.swapCleanup.push(func() { DestroyUniformBuffers(device, uniformBuffers) })

	if err := WriteDescriptorSets(device, r.DescriptorSets, uniformBuffers, r.Texture); err != nil {
		return err
	}

	if err := RecordCommandBuffers(device, commandBuffers, sc, renderPass, pipeline, r.Mesh, r.DescriptorSets, r.cfg.ClearColor); err != nil {
		return err
	}

	r.ImageFences.Reset(int(imageCount))

	logging.Logger().Info("swapchain created",
		"format", int(sc.Format),
		"presentMode", int(sc.PresentMode),
		"extent", fmt.Sprintf("%dx%d", sc.Extent.Width, sc.Extent.Height),
		"images", imageCount)
	return nil
}

func (r *Renderer) destroySwapChainTier() {
	r.swapCleanup.unwind()
	r.SwapChain = nil
	r.RenderPass = 0
	r.Pipeline = nil
	r.CommandBuffers = nil
	r.DescriptorPool = nil
	r.DescriptorSets = nil
	r.UniformBuffers = nil
}

// RecreateSwapChain rebuilds the swapchain tier. While the framebuffer has
// no area (a minimized window) it blocks on window events. The device,
// surface and command pool are kept.
func (r *Renderer) RecreateSwapChain() error {
	width, height := r.window.GetFramebufferSize()
	for width == 0 || height == 0 {
		if r.window.ShouldClose() {
			return nil
		}
		r.window.WaitEvents()
		width, height = r.window.GetFramebufferSize()
	}

	if err := r.Device.WaitIdle(); err != nil {
		return err
	}

	r.destroySwapChainTier()
	if err := r.createSwapChainTier(); err != nil {
		return fmt.Errorf("failed to recreate swapchain: %w", err)
	}
	r.Recreations++
	return nil
}

// DrawFrame renders and presents one frame, elapsed seconds into the run.
// A stale swapchain is rebuilt rather than reported.
func (r *Renderer) DrawFrame(elapsed float32) error {
	device := r.Device
	drv := device.Driver
	slot := r.Ring.Current()

	// Wait until this slot's previous submission has finished.
	if err := WaitForFence(device, slot.InFlight); err != nil {
		return err
	}

	imageIndex, res := drv.AcquireNextImage(device.Handle, r.SwapChain.Handle, gpu.InfiniteTimeout, slot.ImageAvailable, 0)
	switch res {
	case gpu.Success, gpu.Suboptimal:
	case gpu.ErrorOutOfDate:
		logging.Logger().Info("recreating swapchain", "cause", "acquire out of date")
		return r.RecreateSwapChain()
	default:
		return fmt.Errorf("failed to acquire swapchain image: %w", res)
	}
	stale := res == gpu.Suboptimal

	// The image may still be in use by a submission from another slot.
	if fence := r.ImageFences.Lookup(imageIndex); fence != 0 && fence != slot.InFlight {
		if err := WaitForFence(device, fence); err != nil {
			return err
		}
	}
	r.ImageFences.Record(imageIndex, slot.InFlight)

	if err := ResetFence(device, slot.InFlight); err != nil {
		return err
	}

	if err := r.UpdateUniformBuffer(imageIndex, elapsed); err != nil {
		return err
	}

	if err := SubmitFrame(device, slot, r.CommandBuffers[imageIndex]); err != nil {
		return err
	}

	res = PresentFrame(device, slot, r.SwapChain.Handle, imageIndex)
	if res != gpu.Success && !res.IsStale() {
		return fmt.Errorf("failed to present swapchain image: %w", res)
	}
	stale = stale || res.IsStale()
	resized := r.window.ConsumeResize()

	r.Frames++
	r.Ring.Advance()

	if stale || resized {
		cause := "present " + res.String()
		if resized {
			cause = "framebuffer resized"
		}
		logging.Logger().Info("recreating swapchain", "cause", cause)
		return r.RecreateSwapChain()
	}
	return nil
}

// Run draws frames until the window closes, ctx is done, or maxFrames
// frames have been drawn (0 means no limit). A frame error is logged and
// ends the loop; it is also returned. The device is idle when Run returns.
func (r *Renderer) Run(ctx context.Context, maxFrames int) error {
	log := logging.Logger()
	start := time.Now()
	lastReport := start
	framesSinceReport := 0
	drawn := 0

	var runErr error
	for !r.window.ShouldClose() && ctx.Err() == nil {
		r.window.PollEvents()

		if err := r.DrawFrame(float32(time.Since(start).Seconds())); err != nil {
			log.Error("frame failed, stopping", "error", err)
			runErr = err
			break
		}

		drawn++
		framesSinceReport++
		if now := time.Now(); now.Sub(lastReport) >= time.Second {
			r.reportFrameRate(float64(framesSinceReport) / now.Sub(lastReport).Seconds())
			lastReport = now
			framesSinceReport = 0
		}
		if maxFrames > 0 && drawn >= maxFrames {
			break
		}
	}

	if err := r.Device.WaitIdle(); err != nil {
		runErr = errors.Join(runErr, err)
	}
	return runErr
}

// reportFrameRate logs fps and shows it in the window title.
func (r *Renderer) reportFrameRate(fps float64) {
	logging.Logger().Info("frame rate", "fps", fps)
	r.window.SetTitle(fmt.Sprintf("%s | FPS: %.0f", r.cfg.AppName, fps))
}

// Destroy waits for the GPU and releases every object in reverse order of
// creation. It is safe to call more than once.
func (r *Renderer) Destroy() {
	if r.Device != nil && r.Device.Handle != 0 {
		if err := r.Device.WaitIdle(); err != nil {
			logging.Logger().Warn("device wait before teardown failed", "error", err)
		}
	}
	r.destroySwapChainTier()
	r.cleanup.unwind()
	r.Ring = nil
	r.Mesh = nil
	r.Texture = nil
	r.DescriptorSetLayout = 0
	r.Device = nil
	r.Surface = 0
	r.Instance = nil
}
