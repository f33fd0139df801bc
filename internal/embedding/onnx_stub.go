//go:build !cgo
// +build !cgo

package embedding

import "errors"

// newONNX returns an error when built without CGO (ONNX not available);
// see onnx.go for the real implementation.
func newONNX(_ string, _, _, _ int) (Embedder, error) {
	return nil, errors.New("ONNX embedder requires CGO; build with CGO_ENABLED=1 and onnxruntime")
}
