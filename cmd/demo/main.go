package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"image/color"
	"log/slog"
	"os"
	"os/signal"

	"golang.org/x/sync/errgroup"

	"quad-renderer/core"
	"quad-renderer/gpu/vkdriver"
	"quad-renderer/internal/logging"
	"quad-renderer/renderer"
	"quad-renderer/scene"
	"quad-renderer/textures"
	"quad-renderer/vulkan"
)

type options struct {
	debug           bool
	width, height   int
	texture         string
	model           string
	vert, frag      string
	allowIntegrated bool
	frames          int
}

func parseFlags() options {
	var o options
	flag.BoolVar(&o.debug, "debug", false, "enable validation layers and debug logging")
	flag.IntVar(&o.width, "width", 800, "window width")
	flag.IntVar(&o.height, "height", 600, "window height")
	flag.StringVar(&o.texture, "texture", "", "texture image (PNG, JPEG, BMP, TIFF, WebP); default checkerboard")
	flag.StringVar(&o.model, "model", "", "model file (.gltf, .glb, .obj); default quad")
	flag.StringVar(&o.vert, "vert", "shaders/vert.spv", "vertex shader SPIR-V")
	flag.StringVar(&o.frag, "frag", "shaders/frag.spv", "fragment shader SPIR-V")
	flag.BoolVar(&o.allowIntegrated, "allow-integrated", false, "accept non-discrete GPUs")
	flag.IntVar(&o.frames, "frames", 0, "exit after this many frames (0 = until closed)")
	flag.Parse()
	return o
}

func main() {
	opts := parseFlags()

	level := slog.LevelInfo
	if opts.debug {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	logging.SetLogger(logger)

	os.Exit(exitCode(logger, run(opts)))
}

// sessionError is a frame failure after startup. The renderer has already
// been torn down by the time it reaches main.
type sessionError struct{ err error }

func (e sessionError) Error() string { return e.err.Error() }
func (e sessionError) Unwrap() error { return e.err }

// exitCode logs how run ended and returns the process status.
func exitCode(logger *slog.Logger, err error) int {
	var session sessionError
	switch {
	case err == nil:
		return 0
	case errors.As(err, &session):
		logger.Error("session ended", "error", session.err)
	default:
		logger.Error("fatal", "error", err)
	}
	return 1
}

func run(opts options) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	assets, err := loadAssets(ctx, opts)
	if err != nil {
		return err
	}

	windowConfig := core.DefaultWindowConfig()
	windowConfig.Width = opts.width
	windowConfig.Height = opts.height

	window, err := core.NewWindow(windowConfig)
	if err != nil {
		return err
	}
	defer window.Destroy()

	drv, err := vkdriver.New(core.GetInstanceProcAddress())
	if err != nil {
		return fmt.Errorf("failed to load Vulkan: %w", err)
	}

	cfg := vulkan.DefaultConfig()
	cfg.AppName = windowConfig.Title
	cfg.EnableValidation = opts.debug
	cfg.RequireDiscrete = !opts.allowIntegrated

	r, err := vulkan.NewRenderer(drv, window, cfg, assets)
	if err != nil {
		return err
	}
	defer r.Destroy()

	runErr := r.Run(ctx, opts.frames)
	logging.Logger().Info("exiting", "frames", r.Frames, "swapchain_recreations", r.Recreations)
	if runErr != nil {
		return sessionError{runErr}
	}
	return nil
}

// loadAssets reads shaders, geometry and texture in parallel.
func loadAssets(ctx context.Context, opts options) (vulkan.Assets, error) {
	var assets vulkan.Assets
	var fileTexture *textures.Image

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		assets.VertShader, err = renderer.LoadShader(gctx, opts.vert, renderer.StageVertex, renderer.VertexShaderGLSL)
		return err
	})
	g.Go(func() (err error) {
		assets.FragShader, err = renderer.LoadShader(gctx, opts.frag, renderer.StageFragment, renderer.FragmentShaderGLSL)
		return err
	})
	g.Go(func() (err error) {
		assets.Geometry, err = scene.Load(opts.model)
		return err
	})
	if opts.texture != "" {
		g.Go(func() (err error) {
			fileTexture, err = textures.Load(opts.texture)
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return vulkan.Assets{}, err
	}

	switch {
	case fileTexture != nil:
		assets.Texture = fileTexture
	case assets.Geometry.TextureData != nil:
		img, err := textures.Decode(assets.Geometry.Name, assets.Geometry.TextureData)
		if err != nil {
			return vulkan.Assets{}, err
		}
		assets.Texture = img
	default:
		assets.Texture = textures.Checkerboard(256,
			color.NRGBA{R: 255, G: 255, B: 255, A: 255},
			color.NRGBA{R: 64, G: 64, B: 64, A: 255})
	}

	logging.Logger().Info("assets loaded",
		"geometry", assets.Geometry.Name,
		"vertices", len(assets.Geometry.Vertices),
		"indices", len(assets.Geometry.Indices),
		"texture", assets.Texture.Name,
		"texture_size", fmt.Sprintf("%dx%d", assets.Texture.Width, assets.Texture.Height))
	return assets, nil
}
