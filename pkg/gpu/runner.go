package gpu

import (
	"errors"
	"fmt"
	"time"

	"github.com/openfluke/webgpu/wgpu"

	"github.com/goliatone/go-kernelgen/pkg/shader"
)

// readbackTimeout caps how long a staging map may take before the run is
// abandoned.
const readbackTimeout = 5 * time.Second

// Runner executes compiled kernels on a context's device.
type Runner struct {
	ctx *Context
}

// NewRunner constructs a Runner over an initialised context.
func NewRunner(ctx *Context) *Runner {
	return &Runner{ctx: ctx}
}

// Run uploads the feed buffers, dispatches the kernel once, and returns the
// contents of every writable binding keyed by binding name. Each read-only
// binding needs a feed of exactly its element count; writable bindings start
// zeroed unless a feed supplies their initial contents. The kernel must
// carry element counts on its bindings, so programs straight out of Generate
// need them filled in before they can run.
func (r *Runner) Run(kernel shader.Kernel, feeds map[string][]float32) (map[string][]float32, error) {
	if len(kernel.Bindings) == 0 {
		return nil, fmt.Errorf("gpu: kernel %s declares no bindings", kernel.Name)
	}
	for _, binding := range kernel.Bindings {
		if binding.Elements <= 0 {
			return nil, fmt.Errorf("gpu: binding %s of kernel %s has no capacity", binding.Name, kernel.Name)
		}
	}

	device := r.ctx.device

	layout, err := device.CreateBindGroupLayout(&wgpu.BindGroupLayoutDescriptor{
		Label:   kernel.Name + "_bgl",
		Entries: layoutEntries(kernel.Bindings),
	})
	if err != nil {
		return nil, fmt.Errorf("gpu: bind group layout for %s: %w", kernel.Name, err)
	}

	pipelineLayout, err := device.CreatePipelineLayout(&wgpu.PipelineLayoutDescriptor{
		Label:            kernel.Name + "_layout",
		BindGroupLayouts: []*wgpu.BindGroupLayout{layout},
	})
	if err != nil {
		return nil, fmt.Errorf("gpu: pipeline layout for %s: %w", kernel.Name, err)
	}

	module, err := device.CreateShaderModule(&wgpu.ShaderModuleDescriptor{
		Label:          kernel.Name + "_shader",
		WGSLDescriptor: &wgpu.ShaderModuleWGSLDescriptor{Code: kernel.Source},
	})
	if err != nil {
		return nil, fmt.Errorf("gpu: shader module for %s: %w", kernel.Name, err)
	}

	pipeline, err := device.CreateComputePipeline(&wgpu.ComputePipelineDescriptor{
		Label:  kernel.Name + "_pipe",
		Layout: pipelineLayout,
		Compute: wgpu.ProgrammableStageDescriptor{
			Module:     module,
			EntryPoint: kernel.EntryPoint,
		},
	})
	module.Release()
	if err != nil {
		return nil, fmt.Errorf("gpu: pipeline for %s: %w", kernel.Name, err)
	}
	defer pipeline.Release()

	buffers := make([]*wgpu.Buffer, len(kernel.Bindings))
	defer func() {
		for _, buf := range buffers {
			if buf != nil {
				buf.Destroy()
			}
		}
	}()

	for i, binding := range kernel.Bindings {
		buf, err := device.CreateBuffer(&wgpu.BufferDescriptor{
			Label: binding.Name,
			Size:  uint64(binding.ByteSize()),
			Usage: wgpu.BufferUsageStorage | wgpu.BufferUsageCopyDst | wgpu.BufferUsageCopySrc,
		})
		if err != nil {
			return nil, fmt.Errorf("gpu: buffer %s: %w", binding.Name, err)
		}
		buffers[i] = buf

		feed, ok := feeds[binding.Name]
		if !ok {
			if binding.Access == shader.AccessRead {
				return nil, fmt.Errorf("gpu: kernel %s needs a feed for binding %s", kernel.Name, binding.Name)
			}
			continue
		}
		if int64(len(feed)) != binding.Elements {
			return nil, fmt.Errorf("gpu: feed %s carries %d elements, binding wants %d", binding.Name, len(feed), binding.Elements)
		}
		r.ctx.queue.WriteBuffer(buf, 0, wgpu.ToBytes(feed))
	}

	entries := make([]wgpu.BindGroupEntry, len(kernel.Bindings))
	for i, binding := range kernel.Bindings {
		entries[i] = wgpu.BindGroupEntry{
			Binding: binding.Slot,
			Buffer:  buffers[i],
			Size:    buffers[i].GetSize(),
		}
	}

	bindGroup, err := device.CreateBindGroup(&wgpu.BindGroupDescriptor{
		Label:   kernel.Name + "_bind",
		Layout:  layout,
		Entries: entries,
	})
	if err != nil {
		return nil, fmt.Errorf("gpu: bind group for %s: %w", kernel.Name, err)
	}
	defer bindGroup.Release()

	encoder, err := device.CreateCommandEncoder(nil)
	if err != nil {
		return nil, fmt.Errorf("gpu: command encoder: %w", err)
	}

	pass := encoder.BeginComputePass(nil)
	pass.SetPipeline(pipeline)
	pass.SetBindGroup(0, bindGroup, nil)
	pass.DispatchWorkgroups(kernel.Dispatch.X, kernel.Dispatch.Y, kernel.Dispatch.Z)
	pass.End()

	type readback struct {
		binding shader.Binding
		staging *wgpu.Buffer
	}
	var readbacks []readback
	defer func() {
		for _, rb := range readbacks {
			rb.staging.Destroy()
		}
	}()

	for i, binding := range kernel.Bindings {
		if binding.Access != shader.AccessReadWrite {
			continue
		}
		staging, err := device.CreateBuffer(&wgpu.BufferDescriptor{
			Label: binding.Name + "_staging",
			Size:  uint64(binding.ByteSize()),
			Usage: wgpu.BufferUsageMapRead | wgpu.BufferUsageCopyDst,
		})
		if err != nil {
			return nil, fmt.Errorf("gpu: staging buffer %s: %w", binding.Name, err)
		}
		readbacks = append(readbacks, readback{binding: binding, staging: staging})
		encoder.CopyBufferToBuffer(buffers[i], 0, staging, 0, uint64(binding.ByteSize()))
	}

	cmd, err := encoder.Finish(nil)
	if err != nil {
		return nil, fmt.Errorf("gpu: encode %s: %w", kernel.Name, err)
	}
	r.ctx.queue.Submit(cmd)

	results := make(map[string][]float32, len(readbacks))
	for _, rb := range readbacks {
		data, err := r.readStaging(rb.staging, rb.binding.Elements)
		if err != nil {
			return nil, fmt.Errorf("gpu: read %s: %w", rb.binding.Name, err)
		}
		results[rb.binding.Name] = data
	}

	return results, nil
}

func layoutEntries(bindings []shader.Binding) []wgpu.BindGroupLayoutEntry {
	entries := make([]wgpu.BindGroupLayoutEntry, len(bindings))
	for i, binding := range bindings {
		bufType := wgpu.BufferBindingTypeStorage
		if binding.Access == shader.AccessRead {
			bufType = wgpu.BufferBindingTypeReadOnlyStorage
		}
		entries[i] = wgpu.BindGroupLayoutEntry{
			Binding:    binding.Slot,
			Visibility: wgpu.ShaderStageCompute,
			Buffer:     wgpu.BufferBindingLayout{Type: bufType},
		}
	}
	return entries
}

func (r *Runner) readStaging(buf *wgpu.Buffer, elements int64) ([]float32, error) {
	done := make(chan struct{})
	var mapErr error

	err := buf.MapAsync(wgpu.MapModeRead, 0, buf.GetSize(), func(status wgpu.BufferMapAsyncStatus) {
		if status != wgpu.BufferMapAsyncStatusSuccess {
			mapErr = fmt.Errorf("gpu: map status %d", status)
		}
		close(done)
	})
	if err != nil {
		return nil, fmt.Errorf("gpu: map staging: %w", err)
	}

	deadline := time.After(readbackTimeout)
wait:
	for {
		r.ctx.device.Poll(false, nil)
		select {
		case <-done:
			break wait
		case <-deadline:
			return nil, errors.New("gpu: staging map timed out")
		default:
			time.Sleep(time.Millisecond)
		}
	}
	if mapErr != nil {
		return nil, mapErr
	}

	data := buf.GetMappedRange(0, uint(buf.GetSize()))
	if data == nil {
		buf.Unmap()
		return nil, errors.New("gpu: mapped range unavailable")
	}

	out := make([]float32, elements)
	copy(out, wgpu.FromBytes[float32](data))
	buf.Unmap()

	return out, nil
}
