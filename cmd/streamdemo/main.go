// Command streamdemo drives a World through a fixed number of ticks with the
// three deterministic fakes, logging Stats() along the way. It exercises the
// full streaming pipeline without a window, input, or GPU context.
package main

import (
	"flag"
	"log"
	"time"

	"github.com/go-gl/mathgl/mgl32"

	"chunkstream/internal/world"
	"chunkstream/internal/worldfake"
)

func main() {
	ticks := flag.Int("ticks", 60, "number of update ticks to run")
	renderDistance := flag.Int("render-distance", 6, "chunk render distance (R)")
	speed := flag.Float64("speed", 8.0, "observer horizontal speed in blocks/sec")
	flag.Parse()

	opts := world.NewOptions(*renderDistance, world.DefaultUnloadBuffer, world.DefaultUploadBatchSize)
	gen := worldfake.NewFlatGenerator(1337)
	mesher := &worldfake.BoundingBoxMesher{}
	backend := worldfake.NewRecordingBackend()

	w := world.New(opts, gen.Seed, gen, mesher, backend, world.DefaultGenWorkers, world.DefaultMeshWorkers)
	defer w.Close()

	const dt = float32(1.0 / 20.0)
	pos := mgl32.Vec3{0, 80, 0}

	for i := 0; i < *ticks; i++ {
		if err := w.Update(pos, dt); err != nil {
			log.Fatalf("update: %v", err)
		}
		pos = pos.Add(mgl32.Vec3{float32(*speed) * dt, 0, 0})

		stats := w.Stats()
		log.Printf("tick %3d: loaded=%d renderable=%d generating=%d meshing=%d genq=%d meshq=%d",
			i, stats.ChunksLoaded, stats.Renderable, stats.Generating, stats.Meshing,
			stats.GenQueueDepth, stats.MeshQueueDepth)

		if i%10 == 0 {
			log.Printf("tick %3d: top phases: %s", i, stats.ProfileTopPhases)
		}

		time.Sleep(time.Millisecond)
	}

	log.Printf("done: %d chunks loaded, %d uploads recorded", w.Stats().ChunksLoaded, len(backend.Uploads))
}
