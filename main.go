package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	_ "time/tzdata"

	"github.com/example/studybot/internal/ai"
	"github.com/example/studybot/internal/bot"
	"github.com/example/studybot/internal/chat"
	"github.com/example/studybot/internal/clock"
	"github.com/example/studybot/internal/config"
	"github.com/example/studybot/internal/database"
	"github.com/example/studybot/internal/logger"
	"github.com/example/studybot/internal/notes"
	"github.com/example/studybot/internal/progress"
	"github.com/example/studybot/internal/schedule"
	"github.com/example/studybot/internal/scheduler"
	"github.com/example/studybot/internal/upscale"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		// the log mode is part of the config, report with the dev logger
		if log, lerr := logger.New("dev"); lerr == nil {
			log.Fatal("Failed to load configuration", "error", err)
		}
		os.Exit(1)
	}

	log, err := logger.New(cfg.LogMode)
	if err != nil {
		os.Exit(1)
	}
	defer log.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := database.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatal("Failed to connect to database", "error", err)
	}
	defer db.Close()

	clk := clock.New(cfg.Timezone)

	chats := chat.NewManager(db, clk, log, cfg.MaxChatHistory, cfg.ContextWindow)
	sched := schedule.NewService(db, clk, log)

	gemini, err := ai.NewGemini(ai.GeminiConfig{
		APIKey:      cfg.GeminiAPIKey,
		Model:       cfg.GeminiModel,
		Temperature: cfg.GeminiTemperature,
		MaxTokens:   cfg.GeminiMaxTokens,
	})
	if err != nil {
		log.Fatal("Failed to create Gemini client", "error", err)
	}

	var llm ai.LLM = gemini
	if cfg.FallbackEnabled() {
		gpt, err := ai.NewChatGPT(ai.ChatGPTConfig{
			APIKey:      cfg.OpenAIAPIKey,
			Model:       cfg.OpenAIModel,
			Temperature: cfg.GeminiTemperature,
			MaxTokens:   cfg.GeminiMaxTokens,
		})
		if err != nil {
			log.Fatal("Failed to create OpenAI client", "error", err)
		}
		llm = ai.WithFallback(gemini, gpt, log)
		log.Info("OpenAI fallback enabled", "model", cfg.OpenAIModel)
	}

	var upscaler *upscale.Service
	if cfg.UpscaleEnabled() {
		client, err := upscale.NewClient(upscale.ClientConfig{Token: cfg.ReplicateToken})
		if err != nil {
			log.Fatal("Failed to create Replicate client", "error", err)
		}
		upscaler = upscale.NewService(client, cfg.TempDir, log)
	} else {
		log.Warn("REPLICATE_API_TOKEN is not set, image upscaling is disabled")
	}

	botConfig := bot.DefaultConfig()
	b, err := bot.New(cfg.TelegramToken, botConfig, log)
	if err != nil {
		log.Fatal("Failed to create bot", "error", err)
	}

	reminders := scheduler.New(sched, b, clk, cfg.ReminderCheckInterval, log)
	if err := reminders.Start(ctx); err != nil {
		log.Fatal("Failed to start reminder scheduler", "error", err)
	}
	defer reminders.Stop()

	dispatcher := bot.NewDispatcher(bot.Services{
		DB:        db,
		Clock:     clk,
		Progress:  progress.NewEngine(db, clk, log),
		Notes:     notes.NewService(db, clk, log),
		Schedule:  sched,
		Chat:      chats,
		Assistant: ai.NewAssistant(llm, chats, log),
		Teacher:   ai.NewTeacher(llm, log),
		Upscale:   upscaler,
		Reminders: reminders,
	}, botConfig, log)

	log.Info("Bot started", "timezone", cfg.Timezone.String(), "reminder_interval", cfg.ReminderCheckInterval.String())
	if err := b.Run(ctx, dispatcher); err != nil {
		log.Error("Bot error", "error", err)
	}
	log.Info("Bot stopped successfully")
}
