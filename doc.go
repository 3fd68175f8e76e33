// Package brochure captures web pages as PDF brochures, stamps a mark on
// every page, keeps the result on disk, and mirrors it to a remote bucket.
//
// # Quick Start
//
// Build a pipeline from a renderer, a stamper, and a local store:
//
//	launcher, err := brochure.NewRodLauncher(brochure.RenderSettings{
//	    BaseURL: "http://localhost:3000",
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	entries, err := brochure.LoadEntries("itineraries.json")
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	p := brochure.NewPipeline(
//	    launcher,
//	    brochure.NewStamper("assets/logo.png", brochure.DefaultPlacement()),
//	    brochure.NewLocalStore("dist/brochures"),
//	)
//	outcomes, err := p.Run(ctx, entries)
//
// # Pipeline
//
// Each entry goes through the same steps:
//
//  1. Decide: render when forced or when no artifact exists for its key
//  2. Render the page in headless Chrome (go-rod) once the network is idle
//  3. Stamp the mark on every page (pdfcpu)
//  4. Write the artifact atomically to <dir>/<key>.pdf
//  5. Sync the artifact to the remote store, whether rendered now or before
//
// A failure in one entry is recorded in its Outcome and the run moves on.
// Only failing to start a browser stops the run.
//
// # Configuration
//
// Use functional options to customize the pipeline:
//
//	p := brochure.NewPipeline(launcher, stamper, store,
//	    brochure.WithForce(true),
//	    brochure.WithTimeout(2 * time.Minute),
//	    brochure.WithWorkers(4),
//	    brochure.WithSyncer(brochure.NewSyncer(objectStore, "brochures")),
//	    brochure.WithReporter(func(o brochure.Outcome) { fmt.Println(o.Entry.Key, o.Capture) }),
//	)
//
// # Browser Requirements
//
// Rendering requires Chrome/Chromium. The go-rod library automatically
// downloads a managed Chromium instance on first run (~/.cache/rod/browser/).
//
// For containers and CI environments, set ROD_NO_SANDBOX=1 to disable the
// Chrome sandbox. Use ROD_BROWSER_BIN to specify a custom Chrome binary.
package brochure
