package v1

import (
	"github.com/t2bot/media-converter/common"
	"github.com/t2bot/media-converter/conversion"
	"github.com/t2bot/media-converter/pipelines/pipeline_batch"
)

type ArtifactResponse struct {
	Url         string `json:"url"`
	SizeBytes   int64  `json:"size"`
	ContentType string `json:"content_type"`
}

type ItemResponse struct {
	OriginalName string `json:"original_name"`
	Status       string `json:"status"`
	Error        string `json:"error,omitempty"`
	OriginalSize int64  `json:"original_size"`

	Webp        *ArtifactResponse `json:"webp,omitempty"`
	Avif        *ArtifactResponse `json:"avif,omitempty"`
	Resized     *ArtifactResponse `json:"resized,omitempty"`
	Placeholder string            `json:"placeholder,omitempty"`
	Blurhash    string            `json:"blurhash,omitempty"`
	Width       int               `json:"width,omitempty"`
	Height      int               `json:"height,omitempty"`

	Audio                 *ArtifactResponse `json:"audio,omitempty"`
	DurationSeconds       float64           `json:"duration_seconds,omitempty"`
	OutputDurationSeconds float64           `json:"output_duration_seconds,omitempty"`
	Title                 string            `json:"title,omitempty"`
	Artist                string            `json:"artist,omitempty"`
}

type BatchResponse struct {
	BatchId   string          `json:"batch_id"`
	Succeeded int             `json:"succeeded"`
	Failed    int             `json:"failed"`
	Files     []*ItemResponse `json:"files"`
}

func newArtifactResponse(a *conversion.Artifact) *ArtifactResponse {
	if a == nil {
		return nil
	}
	return &ArtifactResponse{
		Url:         a.VirtualPath,
		SizeBytes:   a.SizeBytes,
		ContentType: a.ContentType,
	}
}

func newBatchResponse(batch *pipeline_batch.BatchResult) *BatchResponse {
	res := &BatchResponse{
		BatchId:   batch.BatchId,
		Succeeded: batch.Succeeded,
		Failed:    batch.Failed,
		Files:     make([]*ItemResponse, len(batch.Items)),
	}
	for i, r := range batch.Items {
		item := &ItemResponse{
			OriginalName: r.Item.Name,
			Status:       string(r.Status),
			OriginalSize: r.Item.SizeBytes,
		}
		if r.Status == conversion.StatusFailed {
			item.Error = publicError(r.Err)
		} else if r.Item.Kind == common.KindAudio {
			item.Audio = newArtifactResponse(r.Artifact(conversion.ArtifactTranscodedAudio))
			item.DurationSeconds = r.SourceDuration.Seconds()
			item.OutputDurationSeconds = r.OutputDuration.Seconds()
			item.Title = r.Title
			item.Artist = r.Artist
		} else {
			item.Webp = newArtifactResponse(r.Artifact(conversion.ArtifactWebp))
			item.Avif = newArtifactResponse(r.Artifact(conversion.ArtifactAvif))
			item.Resized = newArtifactResponse(r.Artifact(conversion.ArtifactResizedOriginal))
			item.Placeholder = r.Placeholder
			item.Blurhash = r.Blurhash
			item.Width = r.Width
			item.Height = r.Height
		}
		res.Files[i] = item
	}
	return res
}

// publicError keeps internal detail (paths, tool output) out of responses.
func publicError(err error) string {
	if reason := common.FailureReason(err); reason != nil {
		return reason.Error()
	}
	return common.ErrInternal.Error()
}
