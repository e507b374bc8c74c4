package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/Taichi-iskw/yt-shorts/cmd/app"
)

// withServices wires the application, runs fn and tears everything down
func withServices(fn func(ctx context.Context, services *app.Services) error) error {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	services, cleanup, err := app.NewServiceFactory().CreateServices(ctx)
	cancel()
	if err != nil {
		return err
	}
	defer cleanup()

	return fn(context.Background(), services)
}

// printJSON writes v as indented JSON
func printJSON(cmd *cobra.Command, v any) error {
	result, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to format result: %w", err)
	}
	cmd.Println(string(result))
	return nil
}

// confirm asks a y/N question on the command's input
func confirm(cmd *cobra.Command, question string) bool {
	cmd.Printf("%s (y/N): ", question)
	var response string
	fmt.Fscanln(cmd.InOrStdin(), &response)
	return response == "y" || response == "Y" || response == "yes"
}
