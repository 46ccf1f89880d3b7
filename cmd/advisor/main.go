package main

import (
	"context"
	"fmt"
	"log"
	"math"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"vehicle-advisor/internal/api"
	"vehicle-advisor/internal/ml"
	"vehicle-advisor/internal/models"
	"vehicle-advisor/internal/mqtt"
	"vehicle-advisor/internal/services"
	"vehicle-advisor/pkg/config"
)

func main() {
	root := newRootCmd()
	if err := root.Execute(); err != nil {
		log.Printf("Fatal: %v", err)
		writeFatal(root.OutOrStdout(), err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var temp, speed string

	root := &cobra.Command{
		Use:   "advisor",
		Short: "Classify vehicle readings and generate driver recommendations",
		Long: "advisor classifies an engine temperature / speed reading into an anomaly category\n" +
			"and asks a text-generation service for a short driver recommendation.\n\n" +
			"Running advisor with --temp and --speed is the same as advisor predict.",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !cmd.Flags().Changed("temp") && !cmd.Flags().Changed("speed") {
				return cmd.Help()
			}
			return runPredict(cmd, temp, speed)
		},
	}
	root.Flags().StringVar(&temp, "temp", "", "engine temperature in °C")
	root.Flags().StringVar(&speed, "speed", "", "vehicle speed in kph")
	root.MarkFlagsRequiredTogether("temp", "speed")

	root.AddCommand(newPredictCmd(), newServeHTTPCmd(), newServeMQTTCmd(), newInitModelCmd())
	return root
}

func newPredictCmd() *cobra.Command {
	var temp, speed string

	cmd := &cobra.Command{
		Use:   "predict",
		Short: "Predict the anomaly for one reading and print it as JSON",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPredict(cmd, temp, speed)
		},
	}
	cmd.Flags().StringVar(&temp, "temp", "", "engine temperature in °C")
	cmd.Flags().StringVar(&speed, "speed", "", "vehicle speed in kph")
	_ = cmd.MarkFlagRequired("temp")
	_ = cmd.MarkFlagRequired("speed")
	return cmd
}

// runPredict prints exactly one JSON object. Prediction errors still exit 0.
func runPredict(cmd *cobra.Command, temp, speed string) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	svc, cleanup, err := buildService(ctx, config.Load())
	defer cleanup()
	if err != nil {
		return err
	}

	reading := models.Reading{Temperature: parseMeasurement(temp), Speed: parseMeasurement(speed)}
	writeResult(cmd.OutOrStdout(), svc.Predict(ctx, reading))
	return nil
}

// parseMeasurement maps text that is not a number to NaN so validation reports it
func parseMeasurement(s string) float64 {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return math.NaN()
	}
	return v
}

func newServeHTTPCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve-http",
		Short: "Serve POST /api/v1/vehicle-readings/predict-anomaly",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			cfg := config.Load()
			svc, cleanup, err := buildService(ctx, cfg)
			defer cleanup()
			if err != nil {
				return err
			}

			serverConfig := api.DefaultServerConfig()
			serverConfig.Addr = cfg.HTTPAddr

			log.Println("=== Vehicle advisor HTTP API is running ===")
			return api.Serve(ctx, api.NewRouter(svc), serverConfig)
		},
	}
}

func newServeMQTTCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve-mqtt",
		Short: "Answer readings on MQTT reading topics with predictions",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			cfg := config.Load()
			svc, cleanup, err := buildService(ctx, cfg)
			defer cleanup()
			if err != nil {
				return err
			}

			log.Println("Connecting to MQTT broker...")
			mqttClient, err := mqtt.NewClient(mqtt.ClientConfig{
				Broker:   cfg.MQTTBroker,
				ClientID: cfg.MQTTClientID,
				Username: cfg.MQTTUsername,
				Password: cfg.MQTTPassword,
			})
			if err != nil {
				return fmt.Errorf("failed to initialize MQTT client: %w", err)
			}
			defer mqttClient.Close()

			readingService := services.NewReadingService(svc, services.DefaultReadingServiceConfig())

			publisher := mqtt.NewPublisher(
				mqttClient.GetNativeClient(),
				mqtt.PublisherConfig{PredictionTopic: cfg.MQTTTopicPrediction},
				readingService.PredictionChan,
			)
			subscriber := mqtt.NewSubscriber(
				mqttClient.GetNativeClient(),
				mqtt.SubscriberConfig{ReadingTopic: cfg.MQTTTopicReading},
				readingService.ReadingChan,
			)

			serviceDone := make(chan struct{})
			go func() {
				readingService.Start(ctx)
				close(serviceDone)
			}()
			go publisher.Start(ctx)

			if err := subscriber.Subscribe(); err != nil {
				return err
			}

			log.Println("=== Vehicle advisor MQTT service is running ===")
			log.Printf("MQTT Topics:")
			log.Printf("  - Reading:    %s", cfg.MQTTTopicReading)
			log.Printf("  - Prediction: %s", cfg.MQTTTopicPrediction)
			log.Println("Press Ctrl+C to exit...")

			<-ctx.Done()
			log.Println("Shutdown signal received, stopping services...")

			select {
			case <-serviceDone:
			case <-time.After(5 * time.Second):
				log.Println("Warning: reading service did not stop in time")
			}

			log.Println("Shutdown complete")
			return nil
		},
	}
}

func newInitModelCmd() *cobra.Command {
	var modelPath, encoderPath string

	cmd := &cobra.Command{
		Use:   "init-model",
		Short: "Write a sample classifier and label encoder",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.Load()
			if modelPath == "" {
				modelPath = cfg.ModelPath
			}
			if encoderPath == "" {
				encoderPath = cfg.LabelEncoderPath
			}
			if ml.IsS3Location(modelPath) || ml.IsS3Location(encoderPath) {
				return fmt.Errorf("init-model writes local files, got %s and %s", modelPath, encoderPath)
			}
			if err := ml.CreateSampleArtifacts(modelPath, encoderPath); err != nil {
				return fmt.Errorf("failed to create sample artifacts: %w", err)
			}
			fmt.Fprintf(cmd.ErrOrStderr(), "wrote %s and %s\n", modelPath, encoderPath)
			return nil
		},
	}
	cmd.Flags().StringVar(&modelPath, "model-path", "", "output path for the model (default $MODEL_PATH)")
	cmd.Flags().StringVar(&encoderPath, "encoder-path", "", "output path for the label encoder (default $LABEL_ENCODER_PATH)")
	return cmd
}
