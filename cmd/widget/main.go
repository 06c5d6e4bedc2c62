package main

import (
	"context"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"

	"github.com/luminalabs/visage/internal/audio"
	"github.com/luminalabs/visage/internal/config"
	"github.com/luminalabs/visage/internal/infrastructure/backend"
	"github.com/luminalabs/visage/internal/logger"
	"github.com/luminalabs/visage/internal/metrics"
	"github.com/luminalabs/visage/internal/sdk"
	"github.com/luminalabs/visage/internal/widget"
)

func main() {
	inputPath := flag.String("input", "", "WAV file used as the capture source (tone generator when empty)")
	prompt := flag.String("prompt", "", "conversation prompt (overrides WIDGET_PROMPT)")
	voiceID := flag.String("voice", "", "voice id (overrides WIDGET_VOICE_ID)")
	flag.Parse()

	godotenv.Load()
	logger.Setup()

	if *prompt == "" {
		*prompt = config.GetWidgetPrompt()
	}
	if *voiceID == "" {
		*voiceID = config.GetWidgetVoiceID()
	}

	m := metrics.New(nil)
	if addr := config.GetEnvOrDefault("WIDGET_METRICS_ADDR", ""); addr != "" {
		go serveMetrics(addr)
	}

	var source audio.Source
	if *inputPath != "" {
		source = audio.NewFileSource(*inputPath, config.GetAudioFrameSize())
	} else {
		source = audio.NewToneSource(440, 0.2, config.GetAudioSampleRate(), config.GetAudioFrameSize())
	}

	renderer := sdk.NewRenderer(config.GetSDKSocketURL()).
		SetReadyPolicy(sdk.ReadyPolicy{
			Delay:    config.GetSDKReadyDelay(),
			Interval: config.GetSDKReadyInterval(),
			Attempts: config.GetSDKReadyAttempts(),
		}).
		SetProbeHook(func() { m.SDKReadyAttempts.Inc() })

	w := widget.New(widget.Options{
		Source:  source,
		SDK:     renderer,
		Backend: backend.NewService(),
		Metrics: m,
		SDKConfig: sdk.Config{
			APIKey:        config.GetSDKAPIKey(),
			FaceID:        config.GetSDKFaceID(),
			HandleSilence: config.GetSDKHandleSilence(),
		},
		Prompt:         *prompt,
		VoiceID:        *voiceID,
		GateEnabled:    config.GetAudioGateEnabled(),
		GateThreshold:  float32(config.GetAudioGateThreshold()),
		LowPassEnabled: config.GetAudioLowPassEnabled(),
		LowPassAlpha:   float32(config.GetAudioLowPassAlpha()),
	})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := w.Run(ctx); err != nil && err != context.Canceled {
		status := w.Status()
		log.Error().Err(err).Str("status_error", status.Err).Msg("Widget session ended with error")
		os.Exit(1)
	}

	log.Info().Msg("Widget session ended")
}

func serveMetrics(addr string) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	if err := http.ListenAndServe(addr, mux); err != nil {
		log.Error().Err(err).Str("addr", addr).Msg("Metrics listener failed")
	}
}
