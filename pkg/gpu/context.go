// Package gpu dispatches compiled kernels on a WebGPU device. A Context owns
// the instance, adapter, device, and queue; a Runner uploads feed buffers,
// runs one kernel, and reads every writable binding back to the host. The
// package assumes a physical device and is exercised by the dispatch example
// rather than by tests.
package gpu

import (
	"errors"
	"fmt"

	"github.com/openfluke/webgpu/wgpu"
)

// Context holds the WebGPU handles a runner dispatches through. A context is
// expected to live for the whole process.
type Context struct {
	instance *wgpu.Instance
	adapter  *wgpu.Adapter
	device   *wgpu.Device
	queue    *wgpu.Queue
}

// NewContext initialises a WebGPU device, preferring high performance
// adapters and falling back to low power and then to whatever the platform
// offers.
func NewContext() (*Context, error) {
	instance := wgpu.CreateInstance(nil)
	if instance == nil {
		return nil, errors.New("gpu: create instance failed")
	}

	adapter, err := requestAdapter(instance)
	if err != nil {
		return nil, err
	}

	device, err := adapter.RequestDevice(nil)
	if err != nil {
		return nil, fmt.Errorf("gpu: request device: %w", err)
	}

	return &Context{
		instance: instance,
		adapter:  adapter,
		device:   device,
		queue:    device.GetQueue(),
	}, nil
}

func requestAdapter(instance *wgpu.Instance) (*wgpu.Adapter, error) {
	preferences := []*wgpu.RequestAdapterOptions{
		{PowerPreference: wgpu.PowerPreferenceHighPerformance},
		{PowerPreference: wgpu.PowerPreferenceLowPower},
		nil,
	}

	var lastErr error
	for _, opts := range preferences {
		adapter, err := instance.RequestAdapter(opts)
		if err != nil {
			lastErr = err
			continue
		}
		if adapter != nil {
			return adapter, nil
		}
	}
	if lastErr != nil {
		return nil, fmt.Errorf("gpu: no adapter available: %w", lastErr)
	}
	return nil, errors.New("gpu: no adapter available")
}

// Device exposes the raw device handle for callers that need to interop with
// the binding library directly.
func (c *Context) Device() *wgpu.Device {
	return c.device
}

// Queue exposes the raw submission queue.
func (c *Context) Queue() *wgpu.Queue {
	return c.queue
}
