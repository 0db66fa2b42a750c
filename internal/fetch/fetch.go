// Package fetch is the boundary to the external extraction capability. The
// core hands it a video id and an opaque options bag and gets back success
// or a textual error; everything else about how bytes arrive on disk is this
// package's business.
package fetch

import "context"

// Fetcher downloads a single video into Options.OutputDir, producing an
// artifact named {id}.{ext}.
type Fetcher interface {
	Fetch(ctx context.Context, videoID string, opts Options) error
}

// Options is the pass-through configuration for one capability invocation.
// The core never interprets these fields beyond handing them over.
type Options struct {
	OutputDir string
	Fragments int

	CookiesPath string
	ProxyURL    string

	// Rotating request identity; see Randomize.
	UserAgent        string
	AcceptLanguage   string
	PlayerClient     string
	SleepInterval    float64
	MaxSleepInterval float64

	Retries         int
	FragmentRetries int
	SocketTimeout   int
}
