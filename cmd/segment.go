package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Taichi-iskw/yt-shorts/cmd/app"
	"github.com/Taichi-iskw/yt-shorts/internal/model"
)

// segmentCmd represents the segment command
var segmentCmd = &cobra.Command{
	Use:   "segment",
	Short: "Inspect and edit clip segments",
	Long:  `List, select, cut and drag the segments of an analysed video.`,
}

// segmentListCmd lists the segment set in position order
var segmentListCmd = &cobra.Command{
	Use:   "list [CONTENT_ID]",
	Short: "List segments of a video",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		format, _ := cmd.Flags().GetString("format")

		return withServices(func(ctx context.Context, services *app.Services) error {
			segments, err := services.Segments.GetSegments(ctx, args[0])
			if err != nil {
				return fmt.Errorf("failed to get segments: %w", err)
			}

			if format == "json" {
				return printJSON(cmd, segments)
			}
			if len(segments) == 0 {
				cmd.Println("No segments found. Run 'ytshorts content analyze' first.")
				return nil
			}
			printSegments(cmd, segments)
			return nil
		})
	},
}

// segmentToggleCmd flips a segment's selection
var segmentToggleCmd = &cobra.Command{
	Use:   "toggle [CONTENT_ID] [SEGMENT_ID]",
	Short: "Select or deselect a segment",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withServices(func(ctx context.Context, services *app.Services) error {
			session, err := services.Editor.OpenSession(ctx, args[0])
			if err != nil {
				return err
			}
			defer session.Close()

			seg, err := services.Editor.ToggleSelection(ctx, session, args[1])
			if err != nil {
				return fmt.Errorf("failed to toggle segment: %w", err)
			}

			state := "deselected"
			if seg.Selected {
				state = "selected"
			}
			cmd.Printf("Segment %s %s\n", seg.ID, state)
			return nil
		})
	},
}

// segmentClipCmd cuts a user-defined segment
var segmentClipCmd = &cobra.Command{
	Use:   "clip [CONTENT_ID]",
	Short: "Cut a new segment at explicit bounds",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		start, _ := cmd.Flags().GetFloat64("start")
		end, _ := cmd.Flags().GetFloat64("end")

		return withServices(func(ctx context.Context, services *app.Services) error {
			seg, err := services.Segments.CreateInstantClip(ctx, args[0], start, end)
			if err != nil {
				return fmt.Errorf("failed to create clip: %w", err)
			}
			cmd.Printf("Clip created successfully: %s (%.2fs - %.2fs)\n", seg.ID, seg.StartTime, seg.EndTime)
			return nil
		})
	},
}

// segmentDragCmd replays a drag gesture through an editor session
var segmentDragCmd = &cobra.Command{
	Use:   "drag [CONTENT_ID] [SEGMENT_ID]",
	Short: "Move or resize a segment",
	Long: `Apply a drag gesture to a segment. Each --to value is one cursor position in
seconds; the segment follows them in order and every step is committed.
Bounds are clamped to the video and segments never shrink below one second.`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		rawMode, _ := cmd.Flags().GetString("mode")
		cursors, _ := cmd.Flags().GetFloat64Slice("to")

		mode, err := model.ParseDragMode(rawMode)
		if err != nil {
			return err
		}
		if len(cursors) == 0 {
			return fmt.Errorf("--to is required")
		}

		return withServices(func(ctx context.Context, services *app.Services) error {
			session, err := services.Editor.OpenSession(ctx, args[0])
			if err != nil {
				return err
			}
			defer session.Close()

			if err := services.Editor.BeginDrag(ctx, session, args[1], mode); err != nil {
				return fmt.Errorf("failed to start drag: %w", err)
			}
			defer services.Editor.EndDrag(session)

			var seg *model.VideoSegment
			for _, cursor := range cursors {
				if seg, err = services.Editor.UpdateDrag(ctx, session, cursor); err != nil {
					return fmt.Errorf("failed to drag segment: %w", err)
				}
			}

			cmd.Printf("Segment %s now spans %.2fs - %.2fs\n", seg.ID, seg.StartTime, seg.EndTime)
			return nil
		})
	},
}

// segmentRescoreCmd re-applies the scoring engine
var segmentRescoreCmd = &cobra.Command{
	Use:   "rescore [CONTENT_ID]",
	Short: "Recompute segment scores after edits",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withServices(func(ctx context.Context, services *app.Services) error {
			segments, err := services.Segments.Rescore(ctx, args[0])
			if err != nil {
				return fmt.Errorf("failed to rescore segments: %w", err)
			}
			printSegments(cmd, segments)
			return nil
		})
	},
}

func printSegments(cmd *cobra.Command, segments []model.VideoSegment) {
	for _, seg := range segments {
		mark := " "
		if seg.Selected {
			mark = "*"
		}
		cmd.Printf("%s %2d  %-36s  %8.2f - %8.2f  importance %.2f  engagement %.2f\n",
			mark, seg.Position, seg.ID, seg.StartTime, seg.EndTime, seg.ImportanceScore, seg.EngagementPrediction)
	}
}

func init() {
	rootCmd.AddCommand(segmentCmd)
	segmentCmd.AddCommand(segmentListCmd)
	segmentCmd.AddCommand(segmentToggleCmd)
	segmentCmd.AddCommand(segmentClipCmd)
	segmentCmd.AddCommand(segmentDragCmd)
	segmentCmd.AddCommand(segmentRescoreCmd)

	segmentListCmd.Flags().String("format", "text", "Output format (text, json)")

	segmentClipCmd.Flags().Float64("start", 0, "Clip start in seconds")
	segmentClipCmd.Flags().Float64("end", 0, "Clip end in seconds")
	segmentClipCmd.MarkFlagRequired("end")

	segmentDragCmd.Flags().String("mode", string(model.DragMove), "Drag mode (resizing_start, resizing_end, moving)")
	segmentDragCmd.Flags().Float64Slice("to", nil, "Cursor positions in seconds, applied in order")
}
