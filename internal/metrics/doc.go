// Package metrics provides observability hooks for documentation builds.
//
// Components receive a Recorder through dependency injection and default to
// NoopRecorder, so no nil checks are needed at call sites:
//
//	st, _ := stage.New(opts, extractor, sink)                       // NoopRecorder
//	st, _ = stage.New(opts, extractor, sink,
//	    stage.WithRecorder(metrics.NewPrometheusRecorder(registry))) // Prometheus
//
// The watch command serves the registry over HTTP with Serve.
package metrics
