package cmd

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/nextquery/nextquery/internal/checkpoint"
)

var inspectCmd = &cobra.Command{
	Use:   "inspect <checkpoint>",
	Short: "Describe a decoder checkpoint",
	Long: `Inspect validates a checkpoint file and prints its header: the
decoder variant, creation time, metadata and every stored tensor.

Examples:
  nextquery inspect model.nxq`,
	Args: cobra.ExactArgs(1),
	RunE: runInspect,
}

func init() {
	rootCmd.AddCommand(inspectCmd)
}

func runInspect(cmd *cobra.Command, args []string) error {
	logger, err := newLogger()
	if err != nil {
		return err
	}
	defer logger.Sync() //nolint:errcheck

	path := args[0]
	logger.Debug("loading checkpoint", zap.String("path", path))

	ckpt, err := checkpoint.LoadFile(path)
	if err != nil {
		return fmt.Errorf("loading %s: %w", path, err)
	}

	fmt.Printf("Model:    %s\n", ckpt.Header.Model)
	fmt.Printf("Version:  %d\n", ckpt.Header.FormatVersion)
	fmt.Printf("Created:  %s\n", ckpt.Header.CreatedAt.Format("2006-01-02 15:04:05 MST"))

	if len(ckpt.Header.Metadata) > 0 {
		keys := make([]string, 0, len(ckpt.Header.Metadata))
		for k := range ckpt.Header.Metadata {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		fmt.Println("Metadata:")
		for _, k := range keys {
			fmt.Printf("  %s: %s\n", k, ckpt.Header.Metadata[k])
		}
	}

	var totalBytes int64
	fmt.Printf("Tensors (%d):\n", len(ckpt.Header.Tensors))
	for _, meta := range ckpt.Header.Tensors {
		fmt.Printf("  %-40s %-8s %v\n", meta.Name, meta.DType, meta.Shape)
		totalBytes += meta.Size
	}
	fmt.Printf("Payload:  %d bytes\n", totalBytes)
	return nil
}
