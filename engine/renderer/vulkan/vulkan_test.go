package vulkan

import (
	"encoding/binary"
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	vk "github.com/goki/vulkan"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spaghettifunk/tessera/engine/core"
	"github.com/spaghettifunk/tessera/engine/renderer/gpu"
)

func TestAttachmentFormat(t *testing.T) {
	cases := []struct {
		spec gpu.AttachmentSpec
		want vk.Format
	}{
		{gpu.ColorTexture, vk.FormatR8g8b8a8Unorm},
		{gpu.ColorFloatTexture, vk.FormatR32g32b32a32Sfloat},
		{gpu.PositionTexture, vk.FormatR32g32b32a32Sfloat},
		{gpu.NormalTexture, vk.FormatR32g32b32a32Sfloat},
		{gpu.DepthTexture, vk.FormatD32Sfloat},
		{gpu.AttachmentSpec{Role: gpu.RoleDepth}, vk.FormatD16Unorm},
		{gpu.DepthStencilOpaque, vk.FormatD24UnormS8Uint},
		{gpu.AttachmentSpec{Role: gpu.RoleStencil}, vk.FormatD24UnormS8Uint},
	}
	for _, c := range cases {
		t.Run(c.spec.String(), func(t *testing.T) {
			got, err := attachmentFormat(c.spec, vk.FormatD24UnormS8Uint)
			require.NoError(t, err)
			assert.Equal(t, c.want, got)
		})
	}

	_, err := attachmentFormat(gpu.DepthStencilOpaque, vk.FormatUndefined)
	assert.ErrorIs(t, err, core.ErrUnsupportedFormat)
	_, err = attachmentFormat(gpu.AttachmentSpec{Role: gpu.Role(42)}, vk.FormatD24UnormS8Uint)
	assert.ErrorIs(t, err, core.ErrUnsupportedFormat)
}

func TestAttachmentLayoutsAndUsage(t *testing.T) {
	assert.Equal(t, vk.ImageLayoutShaderReadOnlyOptimal, restingLayout(gpu.ColorTexture))
	assert.Equal(t, vk.ImageLayoutColorAttachmentOptimal, restingLayout(gpu.AttachmentSpec{Role: gpu.RoleColor, Storage: gpu.StorageOpaque}))
	assert.Equal(t, vk.ImageLayoutDepthStencilReadOnlyOptimal, restingLayout(gpu.DepthTexture))
	assert.Equal(t, vk.ImageLayoutDepthStencilAttachmentOptimal, restingLayout(gpu.DepthStencilOpaque))

	assert.Equal(t, vk.ImageLayoutColorAttachmentOptimal, subpassLayout(gpu.NormalTexture))
	assert.Equal(t, vk.ImageLayoutDepthStencilAttachmentOptimal, subpassLayout(gpu.DepthTexture))

	assert.Equal(t, vk.ImageUsageFlags(vk.ImageUsageColorAttachmentBit|vk.ImageUsageSampledBit), attachmentUsage(gpu.ColorTexture))
	assert.Equal(t, vk.ImageUsageFlags(vk.ImageUsageDepthStencilAttachmentBit), attachmentUsage(gpu.DepthStencilOpaque))
}

func TestAspects(t *testing.T) {
	color := vk.ImageAspectFlags(vk.ImageAspectColorBit)
	depth := vk.ImageAspectFlags(vk.ImageAspectDepthBit)
	both := vk.ImageAspectFlags(vk.ImageAspectDepthBit | vk.ImageAspectStencilBit)

	assert.Equal(t, color, attachmentAspect(vk.FormatR8g8b8a8Unorm))
	assert.Equal(t, depth, attachmentAspect(vk.FormatD32Sfloat))
	assert.Equal(t, both, attachmentAspect(vk.FormatD24UnormS8Uint))
	assert.Equal(t, depth, sampleAspect(vk.FormatD24UnormS8Uint))
	assert.Equal(t, color, sampleAspect(vk.FormatR32g32b32a32Sfloat))
}

func TestVertexInput(t *testing.T) {
	binding, attrs, err := vertexInput(gpu.LayoutPNU)
	require.NoError(t, err)
	assert.Equal(t, uint32(32), binding.Stride)
	require.Len(t, attrs, 3)
	assert.Equal(t, vk.FormatR32g32b32Sfloat, attrs[0].Format)
	assert.Equal(t, uint32(0), attrs[0].Offset)
	assert.Equal(t, uint32(12), attrs[1].Offset)
	assert.Equal(t, uint32(2), attrs[2].Location)
	assert.Equal(t, vk.FormatR32g32Sfloat, attrs[2].Format)
	assert.Equal(t, uint32(24), attrs[2].Offset)

	_, _, err = vertexInput([]gpu.VertexAttribute{gpu.Float2, 7})
	assert.ErrorIs(t, err, core.ErrUnsupportedFormat)
}

func TestStd140Layout(t *testing.T) {
	slots, size := std140Layout([]gpu.UniformDecl{
		{Name: "uTime", Type: gpu.UniformFloat},
		{Name: "uScreenSize", Type: gpu.UniformVec2},
		{Name: "uLight", Type: gpu.UniformVec3},
		{Name: "finalTexture", Type: gpu.UniformInt},
		{Name: "uMVP", Type: gpu.UniformMat4},
		{Name: "uTime", Type: gpu.UniformVec4},
	})
	assert.Equal(t, 0, slots["uTime"].offset)
	assert.Equal(t, gpu.UniformFloat, slots["uTime"].typ)
	assert.Equal(t, 8, slots["uScreenSize"].offset)
	assert.Equal(t, 16, slots["uLight"].offset)
	// A scalar packs into the tail of a vec3.
	assert.Equal(t, 28, slots["finalTexture"].offset)
	assert.Equal(t, 32, slots["uMVP"].offset)
	assert.Equal(t, 96, size)

	_, size = std140Layout(nil)
	assert.Equal(t, 0, size)
}

func TestAlignUp(t *testing.T) {
	assert.Equal(t, 0, alignUp(0, 256))
	assert.Equal(t, 256, alignUp(1, 256))
	assert.Equal(t, 256, alignUp(256, 256))
	assert.Equal(t, 7, alignUp(7, 1))
}

func TestProgramUniformBlock(t *testing.T) {
	p := newProgramState(gpu.ProgramSource{
		Name: "screen",
		Uniforms: []gpu.UniformDecl{
			{Name: "finalTexture", Type: gpu.UniformInt},
			{Name: "uTime", Type: gpu.UniformFloat},
			{Name: "uScreenSize", Type: gpu.UniformVec2},
			{Name: "uMVP", Type: gpu.UniformMat4},
		},
		Layout: gpu.LayoutPU,
	})
	assert.Equal(t, "screen", p.Name())
	require.Len(t, p.block, 80)

	p.SetInt("finalTexture", 3)
	p.SetFloat("uTime", 1.5)
	p.SetVec2("uScreenSize", mgl32.Vec2{800, 600})
	p.SetMat4("uMVP", mgl32.Ident4())

	word := func(off int) uint32 { return binary.LittleEndian.Uint32(p.block[off:]) }
	assert.Equal(t, uint32(3), word(0))
	assert.Equal(t, float32(1.5), math.Float32frombits(word(4)))
	assert.Equal(t, float32(800), math.Float32frombits(word(8)))
	assert.Equal(t, float32(600), math.Float32frombits(word(12)))
	assert.Equal(t, float32(1), math.Float32frombits(word(16)))
	assert.Equal(t, float32(0), math.Float32frombits(word(20)))
	assert.Equal(t, float32(1), math.Float32frombits(word(16+5*4)))

	before := append([]byte(nil), p.block...)
	p.SetFloat("missing", 9)
	p.SetVec3("uTime", mgl32.Vec3{1, 2, 3})
	assert.Equal(t, before, p.block)

	p.Bind()
	assert.True(t, p.bound)
	p.Unbind()
	assert.False(t, p.bound)
}

func TestProgramWithoutUniformsKeepsMinimumBlock(t *testing.T) {
	p := newProgramState(gpu.ProgramSource{Name: "depth"})
	assert.Len(t, p.block, MIN_UNIFORM_BLOCK)
}

func TestBytesToBytecode(t *testing.T) {
	words := bytesToBytecode([]byte{0x03, 0x02, 0x23, 0x07, 0x00, 0x00, 0x01, 0x00})
	assert.Equal(t, []uint32{0x07230203, 0x00010000}, words)

	assert.Equal(t, []uint32{0x0201}, bytesToBytecode([]byte{0x01, 0x02}))
	assert.Empty(t, bytesToBytecode(nil))
}

func TestResultString(t *testing.T) {
	assert.Equal(t, "VK_SUCCESS", resultString(vk.Success))
	assert.Equal(t, "VK_ERROR_OUT_OF_DATE_KHR", resultString(vk.ErrorOutOfDate))
	assert.Equal(t, "VkResult(-12345)", resultString(vk.Result(-12345)))

	assert.NoError(t, check("op", vk.Success))
	err := check("create image", vk.ErrorOutOfDeviceMemory)
	var be *core.BackendError
	require.ErrorAs(t, err, &be)
	assert.Contains(t, err.Error(), "VK_ERROR_OUT_OF_DEVICE_MEMORY")
}

func TestStrings(t *testing.T) {
	assert.Equal(t, "main\x00", safeString("main"))
	assert.Equal(t, "main\x00", safeString("main\x00"))
	assert.Equal(t, []string{"a\x00", "b\x00"}, safeStrings([]string{"a", "b"}))
	assert.Equal(t, "VK_KHR_swapchain", cString([]byte("VK_KHR_swapchain\x00\x00\x00")))
	assert.Equal(t, "abc", cString([]byte("abc")))
}

func TestTargetAttachmentsOrderColorsFirst(t *testing.T) {
	specs := []gpu.AttachmentSpec{gpu.DepthStencilOpaque, gpu.PositionTexture, gpu.ColorTexture}
	descs, err := targetAttachments(specs, vk.FormatD32SfloatS8Uint)
	require.NoError(t, err)
	require.Len(t, descs, 3)
	assert.Equal(t, vk.FormatR32g32b32a32Sfloat, descs[0].format)
	assert.Equal(t, vk.FormatR8g8b8a8Unorm, descs[1].format)
	assert.Equal(t, vk.FormatD32SfloatS8Uint, descs[2].format)
	assert.True(t, descs[0].isColor())
	assert.False(t, descs[2].isColor())
	assert.Equal(t, descs[1].initial, descs[1].final)

	other, err := targetAttachments([]gpu.AttachmentSpec{gpu.PositionTexture, gpu.ColorTexture, gpu.DepthStencilTexture}, vk.FormatD32SfloatS8Uint)
	require.NoError(t, err)
	// Layouts differ but formats match, so pipelines can be shared.
	assert.Equal(t, compatKey(descs), compatKey(other))

	float, err := targetAttachments([]gpu.AttachmentSpec{gpu.ColorFloatTexture}, vk.FormatD32SfloatS8Uint)
	require.NoError(t, err)
	assert.NotEqual(t, compatKey(descs), compatKey(float))
}

func TestClearAttachments(t *testing.T) {
	rp := &RenderPass{colorCount: 2, depthFormat: vk.FormatD24UnormS8Uint}

	atts := rp.clearAttachments(gpu.ClearColor|gpu.ClearDepth|gpu.ClearStencil, gpu.White)
	require.Len(t, atts, 3)
	assert.Equal(t, uint32(1), atts[1].ColorAttachment)
	assert.Equal(t, vk.ImageAspectFlags(vk.ImageAspectDepthBit|vk.ImageAspectStencilBit), atts[2].AspectMask)

	atts = rp.clearAttachments(gpu.ClearColor|gpu.ClearStencil, gpu.Black)
	require.Len(t, atts, 3)
	assert.Equal(t, vk.ImageAspectFlags(vk.ImageAspectStencilBit), atts[2].AspectMask)

	noDepth := &RenderPass{colorCount: 1, depthFormat: vk.FormatUndefined}
	assert.Len(t, noDepth.clearAttachments(gpu.ClearColor|gpu.ClearDepth, gpu.Black), 1)
	assert.Empty(t, noDepth.clearAttachments(gpu.ClearDepth, gpu.Black))
}

func TestValidateSurfaces(t *testing.T) {
	size := gpu.Size{Width: 800, Height: 600}
	color := &Surface{spec: gpu.ColorTexture, size: size}
	normal := &Surface{spec: gpu.NormalTexture, size: size}
	depth := &Surface{spec: gpu.DepthStencilOpaque, size: size}
	depth2 := &Surface{spec: gpu.DepthTexture, size: size}

	assert.NoError(t, validateSurfaces([]gpu.Surface{color, normal, depth}, 8))
	assert.ErrorIs(t, validateSurfaces(nil, 8), core.ErrIncompleteTarget)
	assert.ErrorIs(t, validateSurfaces([]gpu.Surface{color, depth, depth2}, 8), core.ErrIncompleteTarget)
	assert.ErrorIs(t, validateSurfaces([]gpu.Surface{color, normal}, 1), core.ErrUnsupportedFormat)

	small := &Surface{spec: gpu.ColorTexture, size: gpu.Size{Width: 400, Height: 300}}
	assert.ErrorIs(t, validateSurfaces([]gpu.Surface{color, small}, 8), core.ErrIncompleteTarget)

	gone := &Surface{spec: gpu.ColorTexture, size: size, destroyed: true}
	assert.ErrorIs(t, validateSurfaces([]gpu.Surface{gone}, 8), core.ErrIncompleteTarget)
}

func TestSwapchainChoices(t *testing.T) {
	modes := []vk.PresentMode{vk.PresentModeFifo, vk.PresentModeImmediate, vk.PresentModeMailbox}
	assert.Equal(t, vk.PresentModeFifo, choosePresentMode(modes, true))
	assert.Equal(t, vk.PresentModeMailbox, choosePresentMode(modes, false))
	assert.Equal(t, vk.PresentModeImmediate, choosePresentMode(modes[:2], false))

	formats := []vk.SurfaceFormat{
		{Format: vk.FormatR8g8b8a8Srgb, ColorSpace: vk.ColorSpaceSrgbNonlinear},
		{Format: vk.FormatB8g8r8a8Unorm, ColorSpace: vk.ColorSpaceSrgbNonlinear},
	}
	assert.Equal(t, vk.FormatB8g8r8a8Unorm, chooseSurfaceFormat(formats).Format)
	assert.Equal(t, vk.FormatR8g8b8a8Srgb, chooseSurfaceFormat(formats[:1]).Format)

	caps := vk.SurfaceCapabilities{
		CurrentExtent:  vk.Extent2D{Width: math.MaxUint32, Height: math.MaxUint32},
		MinImageExtent: vk.Extent2D{Width: 1, Height: 1},
		MaxImageExtent: vk.Extent2D{Width: 1024, Height: 1024},
	}
	assert.Equal(t, vk.Extent2D{Width: 1024, Height: 600}, chooseExtent(caps, gpu.Size{Width: 1920, Height: 600}))
	caps.CurrentExtent = vk.Extent2D{Width: 640, Height: 480}
	assert.Equal(t, vk.Extent2D{Width: 640, Height: 480}, chooseExtent(caps, gpu.Size{Width: 1920, Height: 600}))
}

func TestQueueLocks(t *testing.T) {
	q := NewQueueLocks()
	calls := 0
	require.NoError(t, q.Do(0, func() error { calls++; return nil }))
	err := q.Do(1, func() error { return core.ErrNotFound })
	assert.ErrorIs(t, err, core.ErrNotFound)
	assert.Equal(t, 1, calls)
	assert.Same(t, q.lock(0), q.lock(0))
}

func TestByteViews(t *testing.T) {
	b := floatBytes([]float32{1, 2})
	require.Len(t, b, 8)
	assert.Equal(t, float32(2), math.Float32frombits(binary.LittleEndian.Uint32(b[4:])))
	assert.Equal(t, []byte{1, 0, 0, 0}, indexBytes([]uint32{1}))
	assert.Nil(t, floatBytes(nil))
}
