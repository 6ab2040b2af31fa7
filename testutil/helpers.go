// =============================================================================
// 🧪 测试辅助函数
// =============================================================================
// 提供通用的测试上下文与图片夹具
//
// 使用方法:
//
//	ctx := testutil.TestContext(t)
//	img := testutil.TestImage(t)
//
// =============================================================================
package testutil

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"testing"
	"time"

	"github.com/BaSui01/socialforge/types"
)

// =============================================================================
// 🎯 上下文辅助
// =============================================================================

// TestContext 返回带超时的测试上下文
func TestContext(t *testing.T) context.Context {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	t.Cleanup(cancel)
	return ctx
}

// CancelledContext 返回已取消的上下文
func CancelledContext() context.Context {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	return ctx
}

// =============================================================================
// 🖼️ 图片夹具
// =============================================================================

// TestImage 返回一个已规范化的小图片载荷
func TestImage(t *testing.T) types.ImagePayload {
	t.Helper()
	return types.ImagePayload{Data: TestPNG(t), MIME: "image/jpeg"}
}

// TestPNG 生成一张 8x8 的纯色 PNG
func TestPNG(t *testing.T) []byte {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, 8, 8))
	for y := 0; y < 8; y++ {
		for x := 0; x < 8; x++ {
			img.Set(x, y, color.NRGBA{R: 30, G: 144, B: 255, A: 255})
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encode test png: %v", err)
	}
	return buf.Bytes()
}
