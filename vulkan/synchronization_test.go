package vulkan

import (
	"testing"

	"quad-renderer/gpu"
	"quad-renderer/gpu/gputest"
)

func newTestDevice(t *testing.T, drv *gputest.Driver) *Device {
	t.Helper()
	instance, surface := newInstance(t, drv)
	device, err := PickPhysicalDevice(instance, surface, DeviceRequirements{Extensions: []string{SwapchainExtension}})
	if err != nil {
		t.Fatalf("PickPhysicalDevice: %v", err)
	}
	if err := device.CreateLogicalDevice(surface); err != nil {
		t.Fatalf("CreateLogicalDevice: %v", err)
	}
	return device
}

func TestFrameRingCycles(t *testing.T) {
	drv := gputest.New()
	device := newTestDevice(t, drv)

	const n = 2
	ring, err := NewFrameRing(device, n)
	if err != nil {
		t.Fatalf("NewFrameRing: %v", err)
	}

	first := *ring.Current()
	for i := range n {
		if ring.Index() != i {
			t.Errorf("Index: expected %v, got %v", i, ring.Index())
		}
		if !drv.Signaled(ring.Current().InFlight) {
			t.Errorf("slot %d: expected fence created signaled", i)
		}
		ring.Advance()
	}
	if ring.Index() != 0 {
		t.Errorf("Index after %d advances: expected 0, got %v", n, ring.Index())
	}
	if *ring.Current() != first {
		t.Errorf("Current after a full cycle: expected %v, got %v", first, *ring.Current())
	}

	ring.Destroy(device)
	if drv.Live("Fence") != 0 || drv.Live("Semaphore") != 0 {
		t.Errorf("Destroy: expected no fences or semaphores, got %d and %d", drv.Live("Fence"), drv.Live("Semaphore"))
	}
}

func TestFrameRingRejectsZeroSlots(t *testing.T) {
	drv := gputest.New()
	device := newTestDevice(t, drv)

	if _, err := NewFrameRing(device, 0); err == nil {
		t.Errorf("NewFrameRing(0): expected error")
	}
}

func TestImageFences(t *testing.T) {
	fences := NewImageFences(3)

	if got := fences.Lookup(1); got != 0 {
		t.Errorf("Lookup before Record: expected 0, got %v", got)
	}

	fences.Record(1, gpu.Fence(7))
	if got := fences.Lookup(1); got != 7 {
		t.Errorf("Lookup: expected 7, got %v", got)
	}

	fences.Record(4, gpu.Fence(9))
	if got := fences.Lookup(4); got != 9 {
		t.Errorf("Lookup past initial size: expected 9, got %v", got)
	}

	fences.Reset(2)
	if got := fences.Lookup(1); got != 0 {
		t.Errorf("Lookup after Reset: expected 0, got %v", got)
	}
	if got := fences.Lookup(10); got != 0 {
		t.Errorf("Lookup out of range: expected 0, got %v", got)
	}
}
