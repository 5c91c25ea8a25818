package gpu

import (
	"errors"
	"fmt"
	"testing"
)

func TestResultWrapped(t *testing.T) {
	err := fmt.Errorf("failed to present: %w", ErrorOutOfDate)
	if !errors.Is(err, ErrorOutOfDate) {
		t.Errorf("expected errors.Is to find ErrorOutOfDate in %q", err)
	}
	var res Result
	if !errors.As(err, &res) || res != ErrorOutOfDate {
		t.Errorf("errors.As: expected ErrorOutOfDate, got %v", res)
	}
}

func TestResultIsStale(t *testing.T) {
	tests := []struct {
		res  Result
		want bool
	}{
		{Success, false},
		{Suboptimal, true},
		{ErrorOutOfDate, true},
		{ErrorSurfaceLost, false},
		{Timeout, false},
	}
	for _, tt := range tests {
		if got := tt.res.IsStale(); got != tt.want {
			t.Errorf("%v.IsStale: expected %v, got %v", tt.res, tt.want, got)
		}
	}
}

func TestResultString(t *testing.T) {
	if got := ErrorOutOfDate.Error(); got != "vulkan: VK_ERROR_OUT_OF_DATE_KHR" {
		t.Errorf("Error: expected vulkan: VK_ERROR_OUT_OF_DATE_KHR, got %s", got)
	}
	if got := Result(42).String(); got != "VkResult(42)" {
		t.Errorf("String: expected VkResult(42), got %s", got)
	}
}

func TestExtentIsZero(t *testing.T) {
	if !(Extent2D{Width: 0, Height: 600}).IsZero() {
		t.Error("expected 0x600 to be zero")
	}
	if (Extent2D{Width: 1, Height: 1}).IsZero() {
		t.Error("expected 1x1 to be non-zero")
	}
}
