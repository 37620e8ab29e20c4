// Package metrics provides observability hooks for markweave preprocessing.
//
// Components receive a Recorder and default to NoopRecorder, so nothing needs
// nil checks:
//
//	p := preprocess.New(opts) // NoopRecorder
//	p := preprocess.New(opts, preprocess.WithRecorder(metrics.NewPrometheusRecorder(reg)))
//
// PrometheusRecorder registers its collectors on the given registry and
// HTTPHandler serves that registry for scraping.
package metrics
