package assistant

import (
	"bytes"
	"context"
	"io"
	"path"
	"strings"
	"sync"
	"time"

	"github.com/rwcarlsen/goexif/exif"
	"golang.org/x/sync/errgroup"
	"google.golang.org/adk/model"
	"google.golang.org/genai"

	"maremio_backend/internal/drafts/ports"
	"maremio_backend/internal/extraction"
	"maremio_backend/platform/apperr"
	"maremio_backend/platform/logger"
)

const (
	maxParallelPhotos = 3
	msgNoImages       = "nessuna immagine da analizzare"
)

// PhotoArchive stores the analyzed photos.
type PhotoArchive interface {
	UploadFile(ctx context.Context, bucket, folder, fileName, contentType string, reader io.Reader, size int64) (string, error)
}

// PhotoAnalyzer reads order lines from photos of the paper menu.
type PhotoAnalyzer struct {
	agent   *textAgent
	archive PhotoArchive
	bucket  string
	log     *logger.Logger
}

// NewPhotoAnalyzer builds the vision agent over llm.
func NewPhotoAnalyzer(llm model.LLM, log *logger.Logger) (*PhotoAnalyzer, error) {
	a, err := newTextAgent(llm, "MenuPhotoReader", "menu-photo-reader",
		"Reads handwritten quantities from photos of the order menu.", photoInstruction)
	if err != nil {
		return nil, err
	}
	return &PhotoAnalyzer{agent: a, log: log}, nil
}

// SetArchive keeps a copy of every analyzed photo in bucket.
func (p *PhotoAnalyzer) SetArchive(archive PhotoArchive, bucket string) {
	p.archive = archive
	p.bucket = bucket
}

// AnalyzePhotos reads every image in parallel and merges the lines. A photo
// whose reply cannot be decoded contributes nothing; a failed model call
// fails the whole analysis.
func (p *PhotoAnalyzer) AnalyzePhotos(ctx context.Context, images []ports.Image, products []extraction.Product) (extraction.PhotoAnalysisResult, error) {
	if len(images) == 0 {
		return extraction.PhotoAnalysisResult{}, apperr.Validation(msgNoImages)
	}

	prompt := buildPhotoPrompt(products)
	results := make([][]extraction.AIExtractedItem, len(images))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxParallelPhotos)
	for i, img := range images {
		g.Go(func() error {
			reply, err := p.agent.run(gctx, "photo-"+img.Filename, textPart(prompt), imagePart(img))
			if err != nil {
				return err
			}
			decoded, err := extraction.DecodePhotoResult(reply)
			if err != nil {
				p.log.Warn("photo reply not decodable", "file", img.Filename, "error", err)
			}
			results[i] = decoded.Items
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return extraction.PhotoAnalysisResult{}, err
	}

	p.archivePhotos(ctx, images)
	return extraction.PhotoAnalysisResult{Items: mergeItems(results)}, nil
}

// mergeItems sums quantities of lines naming the same product, keeping the
// order of first appearance.
func mergeItems(groups [][]extraction.AIExtractedItem) []extraction.AIExtractedItem {
	merged := make([]extraction.AIExtractedItem, 0)
	index := make(map[string]int)
	for _, items := range groups {
		for _, item := range items {
			key := strings.ToLower(strings.TrimSpace(item.Name))
			if pos, ok := index[key]; ok {
				merged[pos].Quantity += item.Quantity
				continue
			}
			index[key] = len(merged)
			merged = append(merged, item)
		}
	}
	return merged
}

// archivePhotos is best effort: failures are logged and never surface.
func (p *PhotoAnalyzer) archivePhotos(ctx context.Context, images []ports.Image) {
	if p.archive == nil || p.bucket == "" {
		return
	}
	var wg sync.WaitGroup
	for _, img := range images {
		wg.Add(1)
		go func() {
			defer wg.Done()
			folder := path.Join("menu-photos", captureDate(img.Data, time.Now()).Format("2006-01-02"))
			key, err := p.archive.UploadFile(ctx, p.bucket, folder, img.Filename, img.MIMEType, bytes.NewReader(img.Data), int64(len(img.Data)))
			if err != nil {
				p.log.Warn("photo archive failed", "file", img.Filename, "error", err)
				return
			}
			p.log.Info("photo archived", "key", key)
		}()
	}
	wg.Wait()
}

// captureDate reads the EXIF capture time, falling back when the photo has none.
func captureDate(data []byte, fallback time.Time) time.Time {
	x, err := exif.Decode(bytes.NewReader(data))
	if err != nil {
		return fallback
	}
	taken, err := x.DateTime()
	if err != nil {
		return fallback
	}
	return taken
}

func textPart(text string) *genai.Part {
	return &genai.Part{Text: text}
}

func imagePart(img ports.Image) *genai.Part {
	mimeType := img.MIMEType
	if mimeType == "" {
		mimeType = "image/jpeg"
	}
	return &genai.Part{InlineData: &genai.Blob{MIMEType: mimeType, Data: img.Data}}
}

var _ ports.PhotoAnalyzer = (*PhotoAnalyzer)(nil)
