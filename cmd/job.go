package cmd

import (
	"github.com/Taichi-iskw/yt-shorts/cmd/job"
)

func init() {
	// nil makes each subcommand build the real orchestrator on demand
	rootCmd.AddCommand(job.NewJobCommand(nil))
}
