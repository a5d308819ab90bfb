package v1

import (
	"github.com/t2bot/media-converter/archival"
	"github.com/t2bot/media-converter/pipelines/pipeline_batch"
	"github.com/t2bot/media-converter/registry"
	"github.com/t2bot/media-converter/scratch"
)

// Services is everything the v1 handlers need. One instance lives for the whole process.
type Services struct {
	Space    *scratch.Space
	Pipeline *pipeline_batch.Pipeline
	Registry *registry.Registry
	Archives *archival.Builder
}
