package main

import (
	"context"
	"encoding/json"
	"io"

	"github.com/accelara/batchdl/internal/batch"
	"github.com/accelara/batchdl/internal/manifest"
	"github.com/accelara/batchdl/internal/utils"
)

type inspectResult struct {
	DownloadID     string               `json:"download_id"`
	InputFile      string               `json:"input_file"`
	Suffixes       []string             `json:"suffixes"`
	Candidates     []manifest.Candidate `json:"candidates"`
	TotalSize      int64                `json:"total_size"`
	TotalSizeHuman string               `json:"total_size_human"`
	Mode           string               `json:"mode"`
	Lines          int                  `json:"lines"`
	Malformed      int                  `json:"malformed"`
	Matched        int                  `json:"matched"`
}

// inspectManifest parses the manifest, probing sizes with prober when it
// is non-nil, and prints the result without downloading anything.
func inspectManifest(ctx context.Context, w io.Writer, downloadID, path string, suffixes []string, prober manifest.SizeProber) error {
	var stats manifest.Stats
	opts := []manifest.Option{manifest.WithStats(&stats)}
	if prober != nil {
		opts = append(opts, manifest.WithSizeProber(prober))
	}

	candidates, err := manifest.Parse(ctx, path, suffixes, opts...)
	if err != nil {
		return err
	}
	st := batch.NewState(candidates)

	result := inspectResult{
		DownloadID:     downloadID,
		InputFile:      path,
		Suffixes:       manifest.NormalizeSuffixes(suffixes),
		Candidates:     candidates,
		TotalSize:      stats.TotalSize,
		TotalSizeHuman: utils.HumanBytes(stats.TotalSize),
		Mode:           st.Mode.String(),
		Lines:          stats.Lines,
		Malformed:      stats.Malformed,
		Matched:        stats.Matched,
	}

	enc := json.NewEncoder(w)
	return enc.Encode(result)
}
