package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/kverlo/fieldday/config"
	"github.com/kverlo/fieldday/simulator"
)

var (
	workerDelayMS   int
	workerFailKinds []string
)

var workerCmd = &cobra.Command{
	Use:   "worker",
	Short: "Run a simulated recalculation worker against the broker",
	RunE:  runWorker,
}

func init() {
	workerCmd.Flags().IntVar(&workerDelayMS, "delay-ms", 200, "simulated processing time per job")
	workerCmd.Flags().StringSliceVar(&workerFailKinds, "fail", nil, "job kinds that report failure")
	rootCmd.AddCommand(workerCmd)
}

func runWorker(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(cfgPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	w, err := simulator.NewWorker(simulator.Config{
		MQTT:      cfg.MQTT,
		DelayMS:   workerDelayMS,
		FailKinds: workerFailKinds,
	})
	if err != nil {
		return fmt.Errorf("worker: %w", err)
	}
	defer w.Close()

	<-ctx.Done()
	return nil
}
