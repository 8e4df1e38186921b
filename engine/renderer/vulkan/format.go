package vulkan

import (
	"fmt"

	vk "github.com/goki/vulkan"

	"github.com/spaghettifunk/tessera/engine/core"
	"github.com/spaghettifunk/tessera/engine/renderer/gpu"
)

// attachmentFormat maps an attachment spec to the image format backing it.
// depthStencil is the combined format the device supports.
func attachmentFormat(spec gpu.AttachmentSpec, depthStencil vk.Format) (vk.Format, error) {
	switch spec.Role {
	case gpu.RoleColor, gpu.RolePosition, gpu.RoleNormal:
		if spec.Precision == gpu.PrecisionFloat32 {
			return vk.FormatR32g32b32a32Sfloat, nil
		}
		return vk.FormatR8g8b8a8Unorm, nil
	case gpu.RoleDepth:
		if spec.Precision == gpu.PrecisionFloat32 {
			return vk.FormatD32Sfloat, nil
		}
		return vk.FormatD16Unorm, nil
	case gpu.RoleStencil, gpu.RoleDepthStencil:
		if depthStencil == vk.FormatUndefined {
			break
		}
		return depthStencil, nil
	}
	return vk.FormatUndefined, core.NewBackendError("attachment format", fmt.Errorf("%s: %w", spec, core.ErrUnsupportedFormat))
}

func hasStencil(f vk.Format) bool {
	switch f {
	case vk.FormatS8Uint, vk.FormatD16UnormS8Uint, vk.FormatD24UnormS8Uint, vk.FormatD32SfloatS8Uint:
		return true
	}
	return false
}

func hasDepth(f vk.Format) bool {
	switch f {
	case vk.FormatD16Unorm, vk.FormatX8D24UnormPack32, vk.FormatD32Sfloat,
		vk.FormatD16UnormS8Uint, vk.FormatD24UnormS8Uint, vk.FormatD32SfloatS8Uint:
		return true
	}
	return false
}

func attachmentUsage(spec gpu.AttachmentSpec) vk.ImageUsageFlags {
	var usage vk.ImageUsageFlagBits
	if spec.Role.IsColor() {
		usage = vk.ImageUsageColorAttachmentBit
	} else {
		usage = vk.ImageUsageDepthStencilAttachmentBit
	}
	if spec.Sampled() {
		usage |= vk.ImageUsageSampledBit
	}
	return vk.ImageUsageFlags(usage)
}

// attachmentAspect is the aspect of the framebuffer view of format.
func attachmentAspect(format vk.Format) vk.ImageAspectFlags {
	var aspect vk.ImageAspectFlagBits
	if hasDepth(format) {
		aspect |= vk.ImageAspectDepthBit
	}
	if hasStencil(format) {
		aspect |= vk.ImageAspectStencilBit
	}
	if aspect == 0 {
		aspect = vk.ImageAspectColorBit
	}
	return vk.ImageAspectFlags(aspect)
}

// sampleAspect is the aspect a shader reads. Depth wins over stencil.
func sampleAspect(format vk.Format) vk.ImageAspectFlags {
	if hasDepth(format) {
		return vk.ImageAspectFlags(vk.ImageAspectDepthBit)
	}
	return attachmentAspect(format)
}

// restingLayout is the layout an attachment image keeps between render passes.
func restingLayout(spec gpu.AttachmentSpec) vk.ImageLayout {
	switch {
	case spec.Role.IsColor() && spec.Sampled():
		return vk.ImageLayoutShaderReadOnlyOptimal
	case spec.Role.IsColor():
		return vk.ImageLayoutColorAttachmentOptimal
	case spec.Sampled():
		return vk.ImageLayoutDepthStencilReadOnlyOptimal
	}
	return vk.ImageLayoutDepthStencilAttachmentOptimal
}

// subpassLayout is the layout an attachment has while it is drawn into.
func subpassLayout(spec gpu.AttachmentSpec) vk.ImageLayout {
	if spec.Role.IsColor() {
		return vk.ImageLayoutColorAttachmentOptimal
	}
	return vk.ImageLayoutDepthStencilAttachmentOptimal
}

func vertexFormat(a gpu.VertexAttribute) (vk.Format, error) {
	switch a {
	case gpu.Float1:
		return vk.FormatR32Sfloat, nil
	case gpu.Float2:
		return vk.FormatR32g32Sfloat, nil
	case gpu.Float3:
		return vk.FormatR32g32b32Sfloat, nil
	case gpu.Float4:
		return vk.FormatR32g32b32a32Sfloat, nil
	}
	return vk.FormatUndefined, core.NewBackendError("vertex format", fmt.Errorf("attribute with %d components: %w", a, core.ErrUnsupportedFormat))
}

// vertexInput describes interleaved float vertices with one location per attribute.
func vertexInput(layout []gpu.VertexAttribute) (vk.VertexInputBindingDescription, []vk.VertexInputAttributeDescription, error) {
	attrs := make([]vk.VertexInputAttributeDescription, len(layout))
	offset := uint32(0)
	for i, a := range layout {
		format, err := vertexFormat(a)
		if err != nil {
			return vk.VertexInputBindingDescription{}, nil, err
		}
		attrs[i] = vk.VertexInputAttributeDescription{
			Location: uint32(i),
			Binding:  0,
			Format:   format,
			Offset:   offset,
		}
		offset += uint32(a.Components()) * 4
	}
	binding := vk.VertexInputBindingDescription{
		Binding:   0,
		Stride:    offset,
		InputRate: vk.VertexInputRateVertex,
	}
	return binding, attrs, nil
}
