package vulkan

import (
	"context"
	"errors"
	"image/color"
	"slices"
	"strings"
	"testing"

	"quad-renderer/gpu"
	"quad-renderer/gpu/gputest"
	"quad-renderer/scene"
	"quad-renderer/textures"
)

// fakeWindow plays back scripted framebuffer sizes; the last size repeats.
type fakeWindow struct {
	gputest.Window
	sizes   [][2]int
	queries int
	polls   int
	waits   int
	resized bool
	closed  bool
	titles  []string
}

func (w *fakeWindow) GetRequiredInstanceExtensions() []string {
	return []string{"VK_KHR_surface"}
}

func (w *fakeWindow) GetFramebufferSize() (int, int) {
	if len(w.sizes) == 0 {
		return 800, 600
	}
	s := w.sizes[min(w.queries, len(w.sizes)-1)]
	w.queries++
	return s[0], s[1]
}

func (w *fakeWindow) ShouldClose() bool { return w.closed }
func (w *fakeWindow) PollEvents()       { w.polls++ }
func (w *fakeWindow) WaitEvents()       { w.waits++ }

func (w *fakeWindow) SetTitle(title string) { w.titles = append(w.titles, title) }

func (w *fakeWindow) ConsumeResize() bool {
	r := w.resized
	w.resized = false
	return r
}

func testAssets() Assets {
	return Assets{
		VertShader: []byte{0x03, 0x02, 0x23, 0x07, 0, 0, 1, 0},
		FragShader: []byte{0x03, 0x02, 0x23, 0x07, 0, 0, 1, 0},
		Geometry:   scene.Quad(),
		Texture:    textures.Checkerboard(2, color.NRGBA{R: 255, A: 255}, color.NRGBA{B: 255, A: 255}),
	}
}

func newTestRenderer(t *testing.T, drv *gputest.Driver, win *fakeWindow) *Renderer {
	t.Helper()
	r, err := NewRenderer(drv, win, DefaultConfig(), testAssets())
	if err != nil {
		t.Fatalf("NewRenderer: %v", err)
	}
	t.Cleanup(r.Destroy)
	return r
}

func TestRendererTwoImageSwapchain(t *testing.T) {
	drv := gputest.New()
	drv.Capabilities.MinImageCount = 1
	drv.Capabilities.MaxImageCount = 2
	drv.PresentModes = []gpu.PresentMode{gpu.PresentModeFifo}

	r := newTestRenderer(t, drv, &fakeWindow{})

	if len(r.SwapChain.Images) != 2 {
		t.Fatalf("Images: expected 2, got %d", len(r.SwapChain.Images))
	}
	if len(r.SwapChain.ImageViews) != 2 {
		t.Errorf("ImageViews: expected 2, got %d", len(r.SwapChain.ImageViews))
	}
	if len(r.SwapChain.Framebuffers) != 2 || drv.Live("Framebuffer") != 2 {
		t.Errorf("Framebuffers: expected 2, got %d (%d live)", len(r.SwapChain.Framebuffers), drv.Live("Framebuffer"))
	}
	if len(r.CommandBuffers) != 2 || drv.Live("CommandBuffer") != 2 {
		t.Errorf("CommandBuffers: expected 2, got %d (%d live)", len(r.CommandBuffers), drv.Live("CommandBuffer"))
	}
	if len(r.UniformBuffers) != 2 || len(r.DescriptorSets) != 2 {
		t.Errorf("per-image resources: expected 2 uniform buffers and 2 sets, got %d and %d",
			len(r.UniformBuffers), len(r.DescriptorSets))
	}
	if r.SwapChain.PresentMode != gpu.PresentModeFifo {
		t.Errorf("PresentMode: expected %v, got %v", gpu.PresentModeFifo, r.SwapChain.PresentMode)
	}

	expected := []string{
		"CmdBeginRenderPass",
		"CmdBindPipeline",
		"CmdBindVertexBuffers",
		"CmdBindDescriptorSets",
		"CmdBindIndexBuffer",
		"CmdDrawIndexed",
		"CmdEndRenderPass",
	}
	for i, cmd := range r.CommandBuffers {
		if got := drv.Recorded[cmd]; !slices.Equal(got, expected) {
			t.Errorf("command buffer %d: expected %v, got %v", i, expected, got)
		}
	}

	if n := drv.Live("ShaderModule"); n != 0 {
		t.Errorf("ShaderModule: expected modules destroyed after pipeline creation, got %d live", n)
	}
}

func TestRendererOutOfDateAcquire(t *testing.T) {
	drv := gputest.New()
	drv.AcquireResults = map[int]gpu.Result{3: gpu.ErrorOutOfDate}

	r := newTestRenderer(t, drv, &fakeWindow{})
	start := r.Ring.Index()

	for i := range 5 {
		if err := r.DrawFrame(float32(i) / 60); err != nil {
			t.Fatalf("DrawFrame %d: %v", i, err)
		}
	}

	if r.Recreations != 1 {
		t.Errorf("Recreations: expected 1, got %d", r.Recreations)
	}
	if drv.Count("CreateSwapchain") != 2 {
		t.Errorf("CreateSwapchain: expected 2 calls, got %d", drv.Count("CreateSwapchain"))
	}
	if r.Frames != 4 {
		t.Errorf("Frames: expected 4, got %d", r.Frames)
	}
	expectedIndex := (start + 4) % r.Ring.Len()
	if r.Ring.Index() != expectedIndex {
		t.Errorf("Ring index: expected %v, got %v", expectedIndex, r.Ring.Index())
	}
	if drv.Count("QueuePresent") != 4 {
		t.Errorf("QueuePresent: expected 4 calls, got %d", drv.Count("QueuePresent"))
	}
}

func TestRendererWaitsOnImageFence(t *testing.T) {
	drv := gputest.New()
	// The same image comes back on the second frame, which uses the other slot.
	drv.AcquireIndices = []uint32{0, 0}

	r := newTestRenderer(t, drv, &fakeWindow{})
	drv.Waited = nil

	first := r.Ring.Current().InFlight
	if err := r.DrawFrame(0); err != nil {
		t.Fatalf("DrawFrame 1: %v", err)
	}
	second := r.Ring.Current().InFlight
	if second == first {
		t.Fatalf("ring did not advance to a different slot")
	}
	if err := r.DrawFrame(0.1); err != nil {
		t.Fatalf("DrawFrame 2: %v", err)
	}

	expected := []gpu.Fence{first, second, first}
	if !slices.Equal(drv.Waited, expected) {
		t.Errorf("Waited: expected %v, got %v", expected, drv.Waited)
	}
	if got := r.ImageFences.Lookup(0); got != second {
		t.Errorf("image 0 fence: expected %v, got %v", second, got)
	}
}

func TestRendererZeroSizeFramebuffer(t *testing.T) {
	drv := gputest.New()
	drv.Capabilities.CurrentExtent = gpu.Extent2D{Width: gpu.UndefinedExtent, Height: gpu.UndefinedExtent}

	win := &fakeWindow{}
	r := newTestRenderer(t, drv, win)

	win.sizes = [][2]int{{0, 0}, {0, 600}, {640, 480}}
	win.queries = 0
	if err := r.RecreateSwapChain(); err != nil {
		t.Fatalf("RecreateSwapChain: %v", err)
	}

	if win.waits != 2 {
		t.Errorf("WaitEvents: expected 2 calls, got %d", win.waits)
	}
	expected := gpu.Extent2D{Width: 640, Height: 480}
	if r.SwapChain.Extent != expected {
		t.Errorf("Extent: expected %v, got %v", expected, r.SwapChain.Extent)
	}
	for i, info := range drv.SwapchainInfos {
		if info.Extent.IsZero() {
			t.Errorf("swapchain %d: created with zero extent %v", i, info.Extent)
		}
	}
}

func TestRendererZeroSizeFramebufferClosing(t *testing.T) {
	drv := gputest.New()
	win := &fakeWindow{}
	r := newTestRenderer(t, drv, win)

	win.sizes = [][2]int{{0, 0}}
	win.closed = true
	if err := r.RecreateSwapChain(); err != nil {
		t.Fatalf("RecreateSwapChain: %v", err)
	}
	if r.Recreations != 0 || drv.Count("CreateSwapchain") != 1 {
		t.Errorf("expected no rebuild for a closing minimized window, got %d recreations", r.Recreations)
	}
	if r.SwapChain == nil {
		t.Errorf("SwapChain: expected the old swapchain kept")
	}
}

func TestRendererRecreateOnPresentAndResize(t *testing.T) {
	drv := gputest.New()
	drv.PresentResults = map[int]gpu.Result{1: gpu.Suboptimal}

	win := &fakeWindow{}
	r := newTestRenderer(t, drv, win)

	if err := r.DrawFrame(0); err != nil {
		t.Fatalf("DrawFrame: %v", err)
	}
	if r.Recreations != 1 {
		t.Errorf("suboptimal present: expected 1 recreation, got %d", r.Recreations)
	}

	win.resized = true
	if err := r.DrawFrame(0); err != nil {
		t.Fatalf("DrawFrame: %v", err)
	}
	if r.Recreations != 2 {
		t.Errorf("resize: expected 2 recreations, got %d", r.Recreations)
	}
	if win.resized {
		t.Errorf("resize flag: expected cleared")
	}

	if err := r.DrawFrame(0); err != nil {
		t.Fatalf("DrawFrame: %v", err)
	}
	if r.Recreations != 2 {
		t.Errorf("plain frame: expected no further recreation, got %d", r.Recreations)
	}
	if r.Frames != 3 {
		t.Errorf("Frames: expected 3, got %d", r.Frames)
	}
}

func TestRendererSuboptimalAcquire(t *testing.T) {
	drv := gputest.New()
	drv.AcquireResults = map[int]gpu.Result{1: gpu.Suboptimal}

	r := newTestRenderer(t, drv, &fakeWindow{})
	if err := r.DrawFrame(0); err != nil {
		t.Fatalf("DrawFrame: %v", err)
	}
	if r.Frames != 1 {
		t.Errorf("Frames: expected the suboptimal frame presented, got %d", r.Frames)
	}
	if r.Recreations != 1 {
		t.Errorf("Recreations: expected 1 after presenting, got %d", r.Recreations)
	}
}

func TestRendererRecreationOrder(t *testing.T) {
	drv := gputest.New()
	r := newTestRenderer(t, drv, &fakeWindow{})

	drv.Calls = nil
	if err := r.RecreateSwapChain(); err != nil {
		t.Fatalf("RecreateSwapChain: %v", err)
	}

	if len(drv.Calls) == 0 || drv.Calls[0] != "DeviceWaitIdle" {
		t.Errorf("first call: expected DeviceWaitIdle, got %v", drv.Calls)
	}

	var teardown []string
	for _, c := range drv.Calls {
		if c == "CreateSwapchain" {
			break
		}
		if c == "FreeMemory" || !(strings.HasPrefix(c, "Destroy") || strings.HasPrefix(c, "Free")) {
			continue
		}
		if len(teardown) == 0 || teardown[len(teardown)-1] != c {
			teardown = append(teardown, c)
		}
	}
	expected := []string{
		"DestroyBuffer",
		"DestroyDescriptorPool",
		"DestroyFramebuffer",
		"FreeCommandBuffers",
		"DestroyPipeline",
		"DestroyPipelineLayout",
		"DestroyRenderPass",
		"DestroyImageView",
		"DestroySwapchain",
	}
	if !slices.Equal(teardown, expected) {
		t.Errorf("teardown order: expected %v, got %v", expected, teardown)
	}

	for _, persistent := range []string{"DestroyDevice", "DestroySurface", "DestroyCommandPool", "DestroyInstance"} {
		if n := drv.Count(persistent); n != 0 {
			t.Errorf("%s: expected no call during recreation, got %d", persistent, n)
		}
	}
	if len(drv.Misuse) != 0 {
		t.Errorf("Misuse: expected none, got %v", drv.Misuse)
	}
}

func TestRendererDestroyReleasesEverything(t *testing.T) {
	drv := gputest.New()
	r, err := NewRenderer(drv, &fakeWindow{}, DefaultConfig(), testAssets())
	if err != nil {
		t.Fatalf("NewRenderer: %v", err)
	}
	for range 3 {
		if err := r.DrawFrame(0); err != nil {
			t.Fatalf("DrawFrame: %v", err)
		}
	}

	r.Destroy()
	r.Destroy()

	if n := drv.Live(""); n != 0 {
		t.Errorf("Live: expected 0 objects, got %d", n)
	}
	if len(drv.Misuse) != 0 {
		t.Errorf("Misuse: expected none, got %v", drv.Misuse)
	}
	if drv.Calls[len(drv.Calls)-1] != "DestroyInstance" {
		t.Errorf("last call: expected DestroyInstance, got %v", drv.Calls[len(drv.Calls)-1])
	}
}

func TestNewRendererCleansUpOnFailure(t *testing.T) {
	drv := gputest.New()
	drv.FailOn = map[string]error{"CreateGraphicsPipeline": gpu.ErrorOutOfDeviceMemory}

	_, err := NewRenderer(drv, &fakeWindow{}, DefaultConfig(), testAssets())
	if !errors.Is(err, gpu.ErrorOutOfDeviceMemory) {
		t.Fatalf("NewRenderer: expected ErrorOutOfDeviceMemory, got %v", err)
	}
	if n := drv.Live(""); n != 0 {
		t.Errorf("Live: expected 0 objects after failed init, got %d", n)
	}
	if len(drv.Misuse) != 0 {
		t.Errorf("Misuse: expected none, got %v", drv.Misuse)
	}
}

func TestRunStopsOnSubmitFailure(t *testing.T) {
	drv := gputest.New()
	win := &fakeWindow{}
	r := newTestRenderer(t, drv, win)

	lost := errors.New("device lost")
	drv.FailOn = map[string]error{"QueueSubmit": lost}
	idleBefore := drv.Count("DeviceWaitIdle")

	err := r.Run(context.Background(), 10)
	if !errors.Is(err, lost) {
		t.Errorf("Run: expected submit error, got %v", err)
	}
	if r.Frames != 0 {
		t.Errorf("Frames: expected 0, got %d", r.Frames)
	}
	if win.polls != 1 {
		t.Errorf("PollEvents: expected loop to stop after 1 iteration, got %d", win.polls)
	}
	if drv.Count("DeviceWaitIdle") != idleBefore+1 {
		t.Errorf("DeviceWaitIdle: expected a wait on exit")
	}
}

func TestRunFrameLimitAndCancel(t *testing.T) {
	drv := gputest.New()
	win := &fakeWindow{}
	r := newTestRenderer(t, drv, win)

	if err := r.Run(context.Background(), 3); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if r.Frames != 3 {
		t.Errorf("Frames: expected 3, got %d", r.Frames)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := r.Run(ctx, 0); err != nil {
		t.Fatalf("Run with cancelled context: %v", err)
	}
	if r.Frames != 3 {
		t.Errorf("Frames after cancelled run: expected 3, got %d", r.Frames)
	}

	win.closed = true
	if err := r.Run(context.Background(), 0); err != nil {
		t.Fatalf("Run with closed window: %v", err)
	}
	if r.Frames != 3 {
		t.Errorf("Frames after closed window: expected 3, got %d", r.Frames)
	}
}

func TestReportFrameRateSetsTitle(t *testing.T) {
	drv := gputest.New()
	win := &fakeWindow{}
	r := newTestRenderer(t, drv, win)

	r.reportFrameRate(59.6)
	expected := []string{"Vulkan | FPS: 60"}
	if !slices.Equal(win.titles, expected) {
		t.Errorf("titles: expected %v, got %v", expected, win.titles)
	}
}

func TestNewRendererFitsTextureToDeviceLimit(t *testing.T) {
	drv := gputest.New()
	drv.Devices[0].Properties.Limits.MaxImageDimension2D = 4

	assets := testAssets()
	assets.Texture = textures.Checkerboard(16, color.NRGBA{A: 255}, color.NRGBA{R: 255, A: 255})
	r, err := NewRenderer(drv, &fakeWindow{}, DefaultConfig(), assets)
	if err != nil {
		t.Fatalf("NewRenderer: %v", err)
	}
	defer r.Destroy()

	if r.Texture.Image.Width != 4 || r.Texture.Image.Height != 4 {
		t.Errorf("texture: expected 4x4, got %dx%d", r.Texture.Image.Width, r.Texture.Image.Height)
	}
}

func TestNewRendererRequiresAssets(t *testing.T) {
	drv := gputest.New()

	assets := testAssets()
	assets.Geometry = nil
	if _, err := NewRenderer(drv, &fakeWindow{}, DefaultConfig(), assets); err == nil {
		t.Errorf("NewRenderer without geometry: expected error")
	}
	if len(drv.Calls) != 0 {
		t.Errorf("Calls: expected no driver calls, got %v", drv.Calls)
	}
}
