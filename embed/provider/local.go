//go:build llama

package provider

import (
	"github.com/viant/intentbot/embed"
	"github.com/viant/intentbot/embed/local"
)

func init() {
	newLocal = func(cfg Config) (embed.Embedder, error) {
		v, err := local.New(cfg.LocalLib, cfg.LocalModel, cfg.GPULayers)
		if err != nil {
			return nil, err
		}
		return v, nil
	}
}
