package texture

import (
	"errors"
	"fmt"
	"image"
	"os"
	"runtime"
	"sync"
	"time"

	"github.com/Carmen-Shannon/automation/tools/worker"
	"github.com/Carmen-Shannon/kaffee/common"
)

// LoadAll reads and decodes every file on a worker pool, then uploads the results in order on the calling
// goroutine. Decoding is CPU-bound and safe to run in parallel; GPU uploads stay on the render thread.
//
// Parameters:
//   - u: the device uploader
//   - paths: image files to load
//   - filter: sampler filter mode applied to every texture
//
// Returns:
//   - []Texture: one texture per path, in the same order
//   - error: every read and decode failure joined, or the first upload error; textures built before an
//     upload failure are released
func LoadAll(u Uploader, paths []string, filter FilterMode) ([]Texture, error) {
	if len(paths) == 0 {
		return nil, nil
	}

	images := make([]*image.NRGBA, len(paths))
	errs := make([]error, len(paths))

	workers := min(max(runtime.NumCPU()-1, 1), len(paths))
	pool := worker.NewDynamicWorkerPool(workers, len(paths), 1*time.Second)

	var wg sync.WaitGroup
	for i, path := range paths {
		wg.Add(1)
		idx, p := i, path
		pool.SubmitTask(worker.Task{
			ID: idx,
			Do: func() (any, error) {
				defer wg.Done()

				data, err := os.ReadFile(p)
				if err != nil {
					errs[idx] = fmt.Errorf("%s: %w: %v", p, common.ErrIO, err)
					return nil, nil
				}
				img, err := common.DecodeImage(data)
				if err != nil {
					errs[idx] = fmt.Errorf("%s: %w", p, err)
					return nil, nil
				}
				images[idx] = img
				return img, nil
			},
		})
	}
	wg.Wait()
	pool.Stop()

	if err := errors.Join(errs...); err != nil {
		return nil, err
	}

	textures := make([]Texture, 0, len(paths))
	for i, img := range images {
		tex, err := FromRGBA(u, img.Pix, uint32(img.Bounds().Dx()), uint32(img.Bounds().Dy()), filter, WithLabel(paths[i]))
		if err != nil {
			for _, t := range textures {
				t.Release()
			}
			return nil, err
		}
		textures = append(textures, tex)
	}

	common.Logger().Info("textures loaded", "count", len(textures), "workers", workers)
	return textures, nil
}
